package features

import (
	"fmt"
	"sort"
	"time"
)

// Config fixes the engine's vocabulary and window sizes. Two engines built
// from the same Config always emit the same ordered column set, regardless
// of which streets or dates appear in a given call.
type Config struct {
	Streets        []string
	Targets        []string
	LagHours       []int
	RollingWindows []int
	RecentWindow   int
}

func DefaultConfig(streets []string) Config {
	return Config{
		Streets:        streets,
		Targets:        []string{"n_pedestrians", "n_pedestrians_towards", "n_pedestrians_away"},
		LagHours:       []int{1, 2, 3, 24, 168},
		RollingWindows: []int{3, 6, 12, 24},
		RecentWindow:   1,
	}
}

// Engine is the deterministic transformation from raw hourly rows (plus
// calendar side tables) to feature rows. Fit computes and returns training
// statistics; Apply consumes previously computed statistics and never
// derives target values from its own input.
type Engine struct {
	cfg         Config
	cal         Calendar
	columns     []string
	streetCodes map[string]float64
}

func NewEngine(cfg Config, cal Calendar) *Engine {
	codes := make(map[string]float64, len(cfg.Streets))
	for i, s := range cfg.Streets {
		codes[s] = float64(i)
	}
	return &Engine{
		cfg:         cfg,
		cal:         cal,
		columns:     buildColumns(cfg),
		streetCodes: codes,
	}
}

// Columns returns the fixed ordered feature column set for this
// configuration. The slice is shared; callers must not mutate it.
func (e *Engine) Columns() []string {
	return e.columns
}

// Fit transforms the training corpus and computes the per-street, per-target
// statistics artifact. The rows are then enriched through the same lookup
// path Apply uses, against the freshly computed statistics, so fit and
// apply emit identical column sets.
func (e *Engine) Fit(rows []Row) ([]FeatureRow, Statistics, error) {
	for _, r := range rows {
		for _, target := range e.cfg.Targets {
			if _, ok := r.Targets[target]; !ok {
				return nil, nil, &SchemaError{Column: target}
			}
		}
	}

	frs, byStreet, err := e.baseRows(rows)
	if err != nil {
		return nil, nil, err
	}

	stats := make(Statistics, len(byStreet))
	for street, idxs := range byStreet {
		streetRows := make([]Row, len(idxs))
		for i, idx := range idxs {
			streetRows[i] = rows[idx]
		}
		perTarget := make(map[string]TargetStats, len(e.cfg.Targets))
		for _, target := range e.cfg.Targets {
			perTarget[target] = computeTargetStats(streetRows, target, e.cfg.RecentWindow)
		}
		stats[street] = perTarget
	}

	if err := e.enrich(rows, frs, byStreet, stats); err != nil {
		return nil, nil, err
	}
	return frs, stats, nil
}

// Apply transforms unseen rows using statistics fit on the training corpus.
// Rolling features are derived from the temperature series only; every
// target-related feature is a lookup into stats.
func (e *Engine) Apply(rows []Row, stats Statistics) ([]FeatureRow, error) {
	frs, byStreet, err := e.baseRows(rows)
	if err != nil {
		return nil, err
	}
	if err := e.enrich(rows, frs, byStreet, stats); err != nil {
		return nil, err
	}
	return frs, nil
}

// baseRows runs the mode-independent transform and groups row indices by
// street, each group sorted chronologically.
func (e *Engine) baseRows(rows []Row) ([]FeatureRow, map[string][]int, error) {
	frs := make([]FeatureRow, len(rows))
	byStreet := make(map[string][]int)

	for i, r := range rows {
		fr, err := e.baseFeatures(r)
		if err != nil {
			return nil, nil, err
		}
		frs[i] = fr
		byStreet[r.Street] = append(byStreet[r.Street], i)
	}

	for _, idxs := range byStreet {
		sort.Slice(idxs, func(a, b int) bool {
			ra, rb := rows[idxs[a]], rows[idxs[b]]
			if ra.Date != rb.Date {
				return ra.Date < rb.Date
			}
			return ra.Hour < rb.Hour
		})
	}
	return frs, byStreet, nil
}

func (e *Engine) baseFeatures(r Row) (FeatureRow, error) {
	if r.Street == "" {
		return FeatureRow{}, &SchemaError{Column: "streetname"}
	}
	code, known := e.streetCodes[r.Street]
	if !known {
		return FeatureRow{}, &SchemaError{Column: "streetname"}
	}
	if r.Hour < 0 || r.Hour > 23 {
		return FeatureRow{}, &SchemaError{Column: "hour"}
	}
	t, err := rowTime(r.Date, r.Hour)
	if err != nil {
		return FeatureRow{}, &SchemaError{Column: "date"}
	}

	v := make(map[string]float64, len(e.columns))
	dow := weekdayIndex(t)
	month := int(t.Month())

	addBaseTimeFeatures(v, t, r.Hour)
	addTimeBlockFeatures(v, dow, r.Hour)
	e.addWeatherFeatures(v, r)
	addSeasonalFeatures(v, r.Date, month)
	e.addCalendarFeatures(v, r.Date, r.Hour, month)
	e.addInteractionFeatures(v, r)
	e.addStreetFeatures(v, r.Street, code)

	v["incidents_encoded"] = incidentCodes[r.Incidents]
	v["collection_type_encoded"] = collectionTypeCodes[r.CollectionType]

	return FeatureRow{ID: rowID(r), Street: r.Street, Date: r.Date, Hour: r.Hour, Values: v}, nil
}

func (e *Engine) addWeatherFeatures(v map[string]float64, r Row) {
	v["temperature"] = r.Temperature
	v["weather_encoded"] = weatherCodes[r.WeatherCondition]
	for _, cond := range weatherConditions {
		v["weather_"+cond] = boolToFloat(cond == r.WeatherCondition)
	}

	v["temp_squared"] = r.Temperature * r.Temperature
	v["temp_norm"] = (r.Temperature - 15) / 10

	band := tempBand(r.Temperature)
	for _, b := range tempBands {
		v["temp_"+b] = boolToFloat(b == band)
	}
}

func (e *Engine) addCalendarFeatures(v map[string]float64, date string, hour, month int) {
	holiday := e.cal.Holidays[date]
	v["is_public_holiday"] = boolToFloat(holiday.IsHoliday)
	v["is_public_holiday_nationwide"] = boolToFloat(holiday.IsHoliday && holiday.IsNationwide)
	v["is_bridge_day"] = boolToFloat(e.isBridgeDay(date, v["is_weekend"] == 1))
	v["is_school_holiday"] = boolToFloat(e.cal.SchoolHolidays[date])

	lecture := e.cal.Lectures[date]
	v["is_lecture_period"] = boolToFloat(lecture.JMU || lecture.THWS)
	v["is_exam_period"] = boolToFloat(month == 1 || month == 2 || month == 7 || month == 8)

	ev, _ := e.cal.EventAt(date, hour)
	v["has_event"] = boolToFloat(ev.HasEvent)
	v["has_concert"] = boolToFloat(ev.HasConcert)
}

// isBridgeDay marks days that connect a public holiday to a weekend:
// either a weekend day right after a holiday, or a holiday right before a
// weekend.
func (e *Engine) isBridgeDay(date string, isWeekend bool) bool {
	d, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return false
	}
	prev := d.AddDate(0, 0, -1).Format("2006-01-02")
	next := d.AddDate(0, 0, 1)

	if e.cal.holidayOn(prev) && isWeekend {
		return true
	}
	nextDow := weekdayIndex(next)
	return e.cal.holidayOn(date) && (nextDow == 5 || nextDow == 6)
}

func (e *Engine) addInteractionFeatures(v map[string]float64, r Row) {
	rain := r.WeatherCondition == "rain"
	v["temp_hour"] = r.Temperature * v["hour"]
	v["weekend_hour"] = v["is_weekend"] * v["hour"]
	v["temp_shopping_hours"] = r.Temperature * v["is_shopping_hours"]
	v["rain_rush_hour"] = boolToFloat(rain && v["is_rush_hour"] == 1)
	v["rain_weekend"] = boolToFloat(rain && v["is_weekend"] == 1)
}

func (e *Engine) addStreetFeatures(v map[string]float64, street string, code float64) {
	v["street_encoded"] = code
	for _, s := range e.cfg.Streets {
		slug := streetSlug(s)
		v["is_"+slug+"_shopping"] = boolToFloat(s == street && v["is_shopping_hours"] == 1)
		v["is_"+slug+"_rush"] = boolToFloat(s == street && v["is_rush_hour"] == 1)
	}
}

// enrich injects the rolling temperature aggregates and the statistics
// lookups, per street in chronological order. This is the leakage boundary:
// only the temperature series of the input rows and the supplied statistics
// are read here, never target values.
func (e *Engine) enrich(rows []Row, frs []FeatureRow, byStreet map[string][]int, stats Statistics) error {
	for street, idxs := range byStreet {
		perTarget, ok := stats[street]
		if !ok {
			return &MissingStatisticsError{Street: street}
		}

		temps := make([]float64, len(idxs))
		for i, idx := range idxs {
			temps[i] = rows[idx].Temperature
		}

		for _, window := range e.cfg.RollingWindows {
			means := rollingMeans(temps, window)
			medians := rollingMedians(temps, window)
			for i, idx := range idxs {
				frs[idx].Values[fmt.Sprintf("temp_rolling_mean_%dh", window)] = means[i]
				frs[idx].Values[fmt.Sprintf("temp_rolling_median_%dh", window)] = medians[i]
			}
		}

		e.addGroupTempMeans(rows, frs, idxs, temps)

		for _, idx := range idxs {
			v := frs[idx].Values
			dow := int(v["day_of_week"])
			how := int(v["hour_of_week"])

			for _, target := range e.cfg.Targets {
				ts, ok := perTarget[target]
				if !ok {
					return &MissingStatisticsError{Street: street}
				}
				v[target+"_dow_avg"] = ts.WeekdayMean[dow]
				v[target+"_hour_avg"] = ts.HourMean[rows[idx].Hour]
				v[target+"_hour_of_week_avg"] = ts.HourOfWeekMean[how]
				for _, lag := range e.cfg.LagHours {
					v[fmt.Sprintf("%s_lag_%dh", target, lag)] = ts.RecentMean
				}
			}
		}
	}
	return nil
}

// addGroupTempMeans fills temp_hour_avg / temp_dow_avg with the street's
// per-group temperature means over the rows at hand.
func (e *Engine) addGroupTempMeans(rows []Row, frs []FeatureRow, idxs []int, temps []float64) {
	byHour := make(map[int][]float64)
	byDow := make(map[int][]float64)
	for i, idx := range idxs {
		byHour[rows[idx].Hour] = append(byHour[rows[idx].Hour], temps[i])
		dow := int(frs[idx].Values["day_of_week"])
		byDow[dow] = append(byDow[dow], temps[i])
	}
	hourMeans := groupMeans(byHour)
	dowMeans := groupMeans(byDow)

	for _, idx := range idxs {
		frs[idx].Values["temp_hour_avg"] = hourMeans[rows[idx].Hour]
		frs[idx].Values["temp_dow_avg"] = dowMeans[int(frs[idx].Values["day_of_week"])]
	}
}

func buildColumns(cfg Config) []string {
	cols := []string{
		"year", "month", "day", "hour", "day_of_week", "hour_of_week",
		"hour_sin", "hour_cos", "day_of_week_sin", "day_of_week_cos", "month_sin", "month_cos",
		"is_weekend", "is_peak_day", "is_morning_rush", "is_evening_rush", "is_rush_hour",
		"is_shopping_hours", "is_working_hours", "is_lunch_time", "is_night", "is_tourist_hours",
		"temperature", "weather_encoded",
	}
	for _, cond := range weatherConditions {
		cols = append(cols, "weather_"+cond)
	}
	cols = append(cols, "temp_squared", "temp_norm")
	for _, b := range tempBands {
		cols = append(cols, "temp_"+b)
	}
	cols = append(cols,
		"covid_lockdown", "covid_lockdown_lift", "covid_lull", "post_covid_recovery",
	)
	for _, s := range seasonNames {
		cols = append(cols, "season_"+s)
	}
	cols = append(cols,
		"is_tourist_season", "is_weekend_tourist_season",
		"is_public_holiday", "is_public_holiday_nationwide", "is_bridge_day",
		"is_school_holiday", "is_lecture_period", "is_exam_period",
		"has_event", "has_concert",
		"temp_hour", "weekend_hour", "temp_shopping_hours", "rain_rush_hour", "rain_weekend",
		"street_encoded",
	)
	for _, s := range cfg.Streets {
		slug := streetSlug(s)
		cols = append(cols, "is_"+slug+"_shopping", "is_"+slug+"_rush")
	}
	cols = append(cols, "incidents_encoded", "collection_type_encoded")
	for _, w := range cfg.RollingWindows {
		cols = append(cols, fmt.Sprintf("temp_rolling_mean_%dh", w), fmt.Sprintf("temp_rolling_median_%dh", w))
	}
	cols = append(cols, "temp_hour_avg", "temp_dow_avg")
	for _, target := range cfg.Targets {
		cols = append(cols, target+"_dow_avg", target+"_hour_avg", target+"_hour_of_week_avg")
		for _, lag := range cfg.LagHours {
			cols = append(cols, fmt.Sprintf("%s_lag_%dh", target, lag))
		}
	}
	return cols
}
