package features

import (
	"math"
	"time"
)

// rowTime resolves (date, hour) to the row's timestamp. Weekday numbering
// follows Monday=0 through Sunday=6, matching the trained models.
func rowTime(date string, hour int) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(time.Duration(hour) * time.Hour), nil
}

func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func addBaseTimeFeatures(v map[string]float64, t time.Time, hour int) {
	dow := weekdayIndex(t)
	month := int(t.Month())

	v["year"] = float64(t.Year())
	v["month"] = float64(month)
	v["day"] = float64(t.Day())
	v["hour"] = float64(hour)
	v["day_of_week"] = float64(dow)
	v["hour_of_week"] = float64(dow*24 + hour)

	cyclic := []struct {
		name   string
		value  float64
		period float64
	}{
		{"hour", float64(hour), 24},
		{"day_of_week", float64(dow), 7},
		{"month", float64(month), 12},
	}
	for _, c := range cyclic {
		v[c.name+"_sin"] = math.Sin(2 * math.Pi * c.value / c.period)
		v[c.name+"_cos"] = math.Cos(2 * math.Pi * c.value / c.period)
	}
}

func addTimeBlockFeatures(v map[string]float64, dow, hour int) {
	blocks := map[string]bool{
		"is_weekend":        dow == 5 || dow == 6,
		"is_peak_day":       dow >= 2 && dow <= 4,
		"is_morning_rush":   hour >= 7 && hour <= 9,
		"is_evening_rush":   hour >= 16 && hour <= 18,
		"is_rush_hour":      (hour >= 7 && hour <= 9) || (hour >= 16 && hour <= 18),
		"is_shopping_hours": hour >= 10 && hour <= 19,
		"is_working_hours":  hour >= 9 && hour <= 17,
		"is_lunch_time":     hour >= 11 && hour <= 14,
		"is_night":          hour >= 22 || hour <= 5,
		"is_tourist_hours":  hour >= 10 && hour <= 18,
	}
	for name, on := range blocks {
		v[name] = boolToFloat(on)
	}
}

// addSeasonalFeatures covers the pandemic regime windows the models were
// trained with plus season and tourist-season indicators. Date comparisons
// are plain ISO string comparisons, prefix bounds included.
func addSeasonalFeatures(v map[string]float64, date string, month int) {
	v["covid_lockdown"] = boolToFloat(date >= "2020-03" && date <= "2020-06")
	v["covid_lockdown_lift"] = boolToFloat(date >= "2020-06" && date <= "2021-05")
	v["covid_lull"] = boolToFloat(date >= "2021-06" && date <= "2022-04")
	v["post_covid_recovery"] = boolToFloat(date >= "2022-05" && date <= "2022-12")

	season := seasonOf(month)
	for _, s := range seasonNames {
		v["season_"+s] = boolToFloat(s == season)
	}

	tourist := month >= 5 && month <= 10
	v["is_tourist_season"] = boolToFloat(tourist)
	v["is_weekend_tourist_season"] = boolToFloat(tourist && v["is_weekend"] == 1)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
