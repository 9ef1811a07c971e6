package features

import (
	"math"
	"testing"
	"time"
)

func TestWeekdayIndexMondayBased(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2024-09-16", 0}, // Monday
		{"2024-09-17", 1},
		{"2024-09-20", 4}, // Friday
		{"2024-09-21", 5},
		{"2024-09-22", 6}, // Sunday
	}
	for _, tt := range tests {
		d, err := time.ParseInLocation("2006-01-02", tt.date, time.UTC)
		if err != nil {
			t.Fatalf("parse %s: %v", tt.date, err)
		}
		if got := weekdayIndex(d); got != tt.want {
			t.Errorf("weekdayIndex(%s) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func TestBaseTimeFeatures(t *testing.T) {
	// Wednesday 2024-09-18, 14:00.
	tm, _ := rowTime("2024-09-18", 14)
	v := make(map[string]float64)
	addBaseTimeFeatures(v, tm, 14)

	if v["year"] != 2024 || v["month"] != 9 || v["day"] != 18 || v["hour"] != 14 {
		t.Errorf("date parts = (%f, %f, %f, %f)", v["year"], v["month"], v["day"], v["hour"])
	}
	if v["day_of_week"] != 2 {
		t.Errorf("day_of_week = %f, want 2 for Wednesday", v["day_of_week"])
	}
	if v["hour_of_week"] != 2*24+14 {
		t.Errorf("hour_of_week = %f, want %d", v["hour_of_week"], 2*24+14)
	}

	wantSin := math.Sin(2 * math.Pi * 14 / 24)
	if math.Abs(v["hour_sin"]-wantSin) > 1e-12 {
		t.Errorf("hour_sin = %f, want %f", v["hour_sin"], wantSin)
	}
}

func TestTimeBlocks(t *testing.T) {
	tests := []struct {
		name  string
		dow   int
		hour  int
		block string
		want  float64
	}{
		{"saturday is weekend", 5, 12, "is_weekend", 1},
		{"wednesday is peak day", 2, 12, "is_peak_day", 1},
		{"monday not peak day", 0, 12, "is_peak_day", 0},
		{"8am morning rush", 2, 8, "is_morning_rush", 1},
		{"5pm evening rush", 2, 17, "is_evening_rush", 1},
		{"8am rush hour", 2, 8, "is_rush_hour", 1},
		{"noon not rush hour", 2, 12, "is_rush_hour", 0},
		{"10am shopping hours", 2, 10, "is_shopping_hours", 1},
		{"8pm not shopping hours", 2, 20, "is_shopping_hours", 0},
		{"noon lunch time", 2, 12, "is_lunch_time", 1},
		{"3am night", 2, 3, "is_night", 1},
		{"11pm night", 2, 23, "is_night", 1},
		{"noon not night", 2, 12, "is_night", 0},
		{"2pm tourist hours", 2, 14, "is_tourist_hours", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := make(map[string]float64)
			addTimeBlockFeatures(v, tt.dow, tt.hour)
			if v[tt.block] != tt.want {
				t.Errorf("%s(dow=%d, hour=%d) = %f, want %f", tt.block, tt.dow, tt.hour, v[tt.block], tt.want)
			}
		})
	}
}

func TestSeasonalFeatures(t *testing.T) {
	v := make(map[string]float64)
	addSeasonalFeatures(v, "2020-04-15", 4)
	if v["covid_lockdown"] != 1 {
		t.Error("2020-04-15 should fall in the lockdown window")
	}
	if v["covid_lull"] != 0 || v["post_covid_recovery"] != 0 {
		t.Error("2020-04-15 should not fall in later windows")
	}
	if v["season_spring"] != 1 || v["season_winter"] != 0 {
		t.Errorf("season flags: spring=%f winter=%f", v["season_spring"], v["season_winter"])
	}

	v = make(map[string]float64)
	v["is_weekend"] = 1
	addSeasonalFeatures(v, "2024-07-20", 7)
	if v["covid_lockdown"] != 0 && v["covid_lull"] != 0 {
		t.Error("2024 dates are outside all pandemic windows")
	}
	if v["is_tourist_season"] != 1 || v["is_weekend_tourist_season"] != 1 {
		t.Errorf("tourist flags = (%f, %f), want (1, 1)",
			v["is_tourist_season"], v["is_weekend_tourist_season"])
	}
}

func TestTempBand(t *testing.T) {
	tests := []struct {
		temp float64
		want string
	}{
		{-10, "cold"},
		{5, "cold"},
		{5.1, "mild"},
		{15, "mild"},
		{20, "warm"},
		{25, "warm"},
		{30, "hot"},
	}
	for _, tt := range tests {
		if got := tempBand(tt.temp); got != tt.want {
			t.Errorf("tempBand(%f) = %q, want %q", tt.temp, got, tt.want)
		}
	}
}

func TestStreetSlug(t *testing.T) {
	tests := []struct {
		street string
		want   string
	}{
		{"Kaiserstraße", "kaiserstrasse"},
		{"Spiegelstraße", "spiegelstrasse"},
		{"Schönbornstraße", "schoenbornstrasse"},
		{"Obere Markt-Gasse", "obere_markt_gasse"},
	}
	for _, tt := range tests {
		if got := streetSlug(tt.street); got != tt.want {
			t.Errorf("streetSlug(%q) = %q, want %q", tt.street, got, tt.want)
		}
	}
}
