package features

import (
	"testing"
)

var testStreets = []string{"Kaiserstraße", "Spiegelstraße", "Schönbornstraße"}

func testRow(street, date string, hour int, count float64) Row {
	return Row{
		Street:           street,
		Date:             date,
		Hour:             hour,
		Temperature:      12,
		WeatherCondition: "cloudy",
		Incidents:        "no_incident",
		CollectionType:   "measured",
		Targets: map[string]float64{
			"n_pedestrians":         count,
			"n_pedestrians_towards": count / 2,
			"n_pedestrians_away":    count / 2,
		},
	}
}

// trainingCorpus covers two Mondays and a Tuesday so weekday means are
// distinguishable. Monday n_pedestrians mean is 50.
func trainingCorpus(street string) []Row {
	return []Row{
		testRow(street, "2024-09-16", 14, 40), // Monday
		testRow(street, "2024-09-17", 14, 80), // Tuesday
		testRow(street, "2024-09-23", 14, 60), // Monday
	}
}

func TestFitThenApplyWeekdayAverage(t *testing.T) {
	engine := NewEngine(DefaultConfig(testStreets), NewCalendar())

	_, stats, err := engine.Fit(trainingCorpus("Kaiserstraße"))
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// Future Monday; its own target values must be irrelevant.
	future := testRow("Kaiserstraße", "2024-09-30", 14, 99999)
	frs, err := engine.Apply([]Row{future}, stats)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if got := frs[0].Values["n_pedestrians_dow_avg"]; got != 50 {
		t.Errorf("n_pedestrians_dow_avg = %f, want 50 (Monday training mean)", got)
	}
	if got := frs[0].Values["n_pedestrians_hour_of_week_avg"]; got != 50 {
		t.Errorf("n_pedestrians_hour_of_week_avg = %f, want 50", got)
	}
}

func TestApplyNeverReadsFutureTargets(t *testing.T) {
	engine := NewEngine(DefaultConfig(testStreets), NewCalendar())

	_, stats, err := engine.Fit(trainingCorpus("Kaiserstraße"))
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	withTargets := testRow("Kaiserstraße", "2024-09-30", 14, 123456)
	withoutTargets := withTargets
	withoutTargets.Targets = nil

	a, err := engine.Apply([]Row{withTargets}, stats)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	b, err := engine.Apply([]Row{withoutTargets}, stats)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	for _, col := range engine.Columns() {
		if a[0].Values[col] != b[0].Values[col] {
			t.Errorf("column %q depends on the future row's own targets: %f vs %f",
				col, a[0].Values[col], b[0].Values[col])
		}
	}
}

func TestLagFeaturesComeFromTrainingStatistics(t *testing.T) {
	engine := NewEngine(DefaultConfig(testStreets), NewCalendar())

	// RecentWindow is 1, so lags resolve to the last training value (60).
	_, stats, err := engine.Fit(trainingCorpus("Kaiserstraße"))
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	frs, err := engine.Apply([]Row{testRow("Kaiserstraße", "2024-09-30", 14, 0)}, stats)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	for _, col := range []string{"n_pedestrians_lag_1h", "n_pedestrians_lag_24h", "n_pedestrians_lag_168h"} {
		if got := frs[0].Values[col]; got != 60 {
			t.Errorf("%s = %f, want 60", col, got)
		}
	}
}

func TestColumnStabilityAcrossStreetSubsets(t *testing.T) {
	cfg := DefaultConfig(testStreets)
	engine := NewEngine(cfg, NewCalendar())

	corpusA := trainingCorpus("Kaiserstraße")
	corpusB := trainingCorpus("Spiegelstraße")

	frsA, statsA, err := engine.Fit(corpusA)
	if err != nil {
		t.Fatalf("Fit (A) failed: %v", err)
	}
	frsB, err := NewEngine(cfg, NewCalendar()).Apply(corpusB[:1], mergeStats(statsA, fitStats(t, engine, corpusB)))
	if err != nil {
		t.Fatalf("Apply (B) failed: %v", err)
	}

	columns := engine.Columns()
	for _, fr := range append(frsA, frsB...) {
		for _, col := range columns {
			if _, ok := fr.Values[col]; !ok {
				t.Errorf("row %s lacks column %q", fr.ID, col)
			}
		}
	}
	if len(NewEngine(cfg, NewCalendar()).Columns()) != len(columns) {
		t.Error("column set differs between engine instances with the same config")
	}
}

func fitStats(t *testing.T, engine *Engine, rows []Row) Statistics {
	t.Helper()
	_, stats, err := engine.Fit(rows)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	return stats
}

func mergeStats(all ...Statistics) Statistics {
	merged := make(Statistics)
	for _, s := range all {
		for street, perTarget := range s {
			merged[street] = perTarget
		}
	}
	return merged
}

func TestFitRequiresAllTargets(t *testing.T) {
	engine := NewEngine(DefaultConfig(testStreets), NewCalendar())

	row := testRow("Kaiserstraße", "2024-09-16", 14, 40)
	delete(row.Targets, "n_pedestrians_away")

	_, _, err := engine.Fit([]Row{row})
	schemaErr, ok := err.(*SchemaError)
	if !ok {
		t.Fatalf("err = %v, want *SchemaError", err)
	}
	if schemaErr.Column != "n_pedestrians_away" {
		t.Errorf("Column = %q, want n_pedestrians_away", schemaErr.Column)
	}
}

func TestBaseFeaturesSchemaErrors(t *testing.T) {
	engine := NewEngine(DefaultConfig(testStreets), NewCalendar())

	tests := []struct {
		name    string
		mutate  func(*Row)
		column  string
	}{
		{"empty street", func(r *Row) { r.Street = "" }, "streetname"},
		{"unknown street", func(r *Row) { r.Street = "Hauptstraße" }, "streetname"},
		{"hour too large", func(r *Row) { r.Hour = 24 }, "hour"},
		{"negative hour", func(r *Row) { r.Hour = -1 }, "hour"},
		{"bad date", func(r *Row) { r.Date = "16.09.2024" }, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := testRow("Kaiserstraße", "2024-09-16", 14, 40)
			tt.mutate(&row)

			_, err := engine.Apply([]Row{row}, Statistics{})
			schemaErr, ok := err.(*SchemaError)
			if !ok {
				t.Fatalf("err = %v, want *SchemaError", err)
			}
			if schemaErr.Column != tt.column {
				t.Errorf("Column = %q, want %q", schemaErr.Column, tt.column)
			}
		})
	}
}

func TestApplyMissingStatistics(t *testing.T) {
	engine := NewEngine(DefaultConfig(testStreets), NewCalendar())

	_, stats, err := engine.Fit(trainingCorpus("Kaiserstraße"))
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	_, err = engine.Apply([]Row{testRow("Spiegelstraße", "2024-09-30", 14, 0)}, stats)
	missing, ok := err.(*MissingStatisticsError)
	if !ok {
		t.Fatalf("err = %v, want *MissingStatisticsError", err)
	}
	if missing.Street != "Spiegelstraße" {
		t.Errorf("Street = %q, want Spiegelstraße", missing.Street)
	}
}

func TestUnknownCategoriesMapToZeroBucket(t *testing.T) {
	engine := NewEngine(DefaultConfig(testStreets), NewCalendar())

	row := testRow("Kaiserstraße", "2024-09-16", 14, 40)
	row.WeatherCondition = "hail"
	row.Incidents = "alien landing"
	row.CollectionType = ""

	_, stats, err := engine.Fit([]Row{row})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	frs, err := engine.Apply([]Row{row}, stats)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	v := frs[0].Values
	if v["weather_encoded"] != 0 {
		t.Errorf("weather_encoded = %f, want 0 for out-of-vocabulary condition", v["weather_encoded"])
	}
	if v["incidents_encoded"] != 0 {
		t.Errorf("incidents_encoded = %f, want 0", v["incidents_encoded"])
	}
	if v["collection_type_encoded"] != 0 {
		t.Errorf("collection_type_encoded = %f, want 0", v["collection_type_encoded"])
	}
	for _, cond := range weatherConditions {
		if v["weather_"+cond] != 0 {
			t.Errorf("weather_%s = %f, want 0", cond, v["weather_"+cond])
		}
	}
}

func TestFixedVocabularyIsCallIndependent(t *testing.T) {
	engine := NewEngine(DefaultConfig(testStreets), NewCalendar())

	rainy := testRow("Kaiserstraße", "2024-09-16", 14, 40)
	rainy.WeatherCondition = "rain"

	// Same category, once alone and once among other categories.
	stats := fitStats(t, engine, trainingCorpus("Kaiserstraße"))
	alone, err := engine.Apply([]Row{rainy}, stats)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	cloudy := testRow("Kaiserstraße", "2024-09-16", 15, 40)
	mixed, err := engine.Apply([]Row{cloudy, rainy}, stats)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if alone[0].Values["weather_encoded"] != mixed[1].Values["weather_encoded"] {
		t.Errorf("weather code for rain differs between calls: %f vs %f",
			alone[0].Values["weather_encoded"], mixed[1].Values["weather_encoded"])
	}
	if alone[0].Values["weather_encoded"] != 6 {
		t.Errorf("weather_encoded = %f, want 6 for rain", alone[0].Values["weather_encoded"])
	}
}

func TestCalendarFeatures(t *testing.T) {
	cal := NewCalendar()
	cal.Holidays["2024-10-03"] = Holiday{IsHoliday: true, IsNationwide: true}
	cal.SchoolHolidays["2024-10-03"] = true
	cal.Lectures["2024-10-14"] = Lecture{JMU: true}
	cal.SetEvent("2024-10-03", 20, Event{HasEvent: true, HasConcert: true})

	engine := NewEngine(DefaultConfig(testStreets), cal)
	stats := fitStats(t, engine, trainingCorpus("Kaiserstraße"))

	// 2024-10-03 is a Thursday.
	holiday := testRow("Kaiserstraße", "2024-10-03", 20, 0)
	frs, err := engine.Apply([]Row{holiday}, stats)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	v := frs[0].Values
	if v["is_public_holiday"] != 1 || v["is_public_holiday_nationwide"] != 1 {
		t.Errorf("holiday flags = (%f, %f), want (1, 1)", v["is_public_holiday"], v["is_public_holiday_nationwide"])
	}
	if v["is_school_holiday"] != 1 {
		t.Errorf("is_school_holiday = %f, want 1", v["is_school_holiday"])
	}
	if v["has_event"] != 1 || v["has_concert"] != 1 {
		t.Errorf("event flags = (%f, %f), want (1, 1)", v["has_event"], v["has_concert"])
	}

	lecture := testRow("Kaiserstraße", "2024-10-14", 10, 0)
	frs, err = engine.Apply([]Row{lecture}, stats)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if frs[0].Values["is_lecture_period"] != 1 {
		t.Errorf("is_lecture_period = %f, want 1", frs[0].Values["is_lecture_period"])
	}
}

func TestBridgeDay(t *testing.T) {
	cal := NewCalendar()
	// 2024-05-10 is a Friday.
	cal.Holidays["2024-05-10"] = Holiday{IsHoliday: true}

	engine := NewEngine(DefaultConfig(testStreets), cal)
	stats := fitStats(t, engine, trainingCorpus("Kaiserstraße"))

	// Friday holiday directly before a weekend.
	frs, err := engine.Apply([]Row{testRow("Kaiserstraße", "2024-05-10", 12, 0)}, stats)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if frs[0].Values["is_bridge_day"] != 1 {
		t.Error("Friday holiday before a weekend should be a bridge day")
	}

	// Saturday right after the holiday.
	frs, err = engine.Apply([]Row{testRow("Kaiserstraße", "2024-05-11", 12, 0)}, stats)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if frs[0].Values["is_bridge_day"] != 1 {
		t.Error("weekend day right after a holiday should be a bridge day")
	}

	// Ordinary Wednesday.
	frs, err = engine.Apply([]Row{testRow("Kaiserstraße", "2024-05-15", 12, 0)}, stats)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if frs[0].Values["is_bridge_day"] != 0 {
		t.Error("ordinary weekday should not be a bridge day")
	}
}

func TestRollingTemperatureFeatures(t *testing.T) {
	engine := NewEngine(DefaultConfig(testStreets), NewCalendar())

	rows := []Row{
		testRow("Kaiserstraße", "2024-09-16", 10, 1),
		testRow("Kaiserstraße", "2024-09-16", 11, 1),
		testRow("Kaiserstraße", "2024-09-16", 12, 1),
	}
	rows[0].Temperature = 10
	rows[1].Temperature = 20
	rows[2].Temperature = 30

	frs, _, err := engine.Fit(rows)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if got := frs[0].Values["temp_rolling_mean_3h"]; got != 10 {
		t.Errorf("first temp_rolling_mean_3h = %f, want 10", got)
	}
	if got := frs[1].Values["temp_rolling_mean_3h"]; got != 15 {
		t.Errorf("second temp_rolling_mean_3h = %f, want 15", got)
	}
	if got := frs[2].Values["temp_rolling_mean_3h"]; got != 20 {
		t.Errorf("third temp_rolling_mean_3h = %f, want 20", got)
	}
}

func TestStreetFeatures(t *testing.T) {
	engine := NewEngine(DefaultConfig(testStreets), NewCalendar())
	stats := fitStats(t, engine, trainingCorpus("Spiegelstraße"))

	// Hour 12 is within shopping hours, outside rush hour.
	frs, err := engine.Apply([]Row{testRow("Spiegelstraße", "2024-09-30", 12, 0)}, stats)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	v := frs[0].Values

	if v["street_encoded"] != 1 {
		t.Errorf("street_encoded = %f, want 1 (vocabulary position)", v["street_encoded"])
	}
	if v["is_spiegelstrasse_shopping"] != 1 {
		t.Errorf("is_spiegelstrasse_shopping = %f, want 1", v["is_spiegelstrasse_shopping"])
	}
	if v["is_spiegelstrasse_rush"] != 0 {
		t.Errorf("is_spiegelstrasse_rush = %f, want 0", v["is_spiegelstrasse_rush"])
	}
	if v["is_kaiserstrasse_shopping"] != 0 {
		t.Errorf("is_kaiserstrasse_shopping = %f, want 0 for another street", v["is_kaiserstrasse_shopping"])
	}
}
