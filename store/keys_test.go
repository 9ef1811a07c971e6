package store

import "testing"

func TestHourlyKey(t *testing.T) {
	got := hourlyKey("Kaiserstraße", "2024-09-16", 14)
	want := "hourly:Kaiserstraße:2024-09-16:14"
	if got != want {
		t.Errorf("hourlyKey = %q, want %q", got, want)
	}
}

func TestPredictionKey(t *testing.T) {
	got := predictionKey("Kaiserstraße", "2024-09-16", 9)
	want := "prediction:hourly:Kaiserstraße:2024-09-16:9"
	if got != want {
		t.Errorf("predictionKey = %q, want %q", got, want)
	}
}

func TestEpochScore(t *testing.T) {
	score, err := epochScore("2024-09-16", 14)
	if err != nil {
		t.Fatalf("epochScore failed: %v", err)
	}
	// 2024-09-16T14:00:00Z
	if score != 1726495200 {
		t.Errorf("score = %f, want 1726495200", score)
	}

	if _, err := epochScore("16.09.2024", 14); err == nil {
		t.Error("expected error for non-ISO date")
	}
	if _, err := epochScore("2024-09-16", 24); err == nil {
		t.Error("expected error for hour 24")
	}
}

func TestParseHourlyKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		wantDate string
		wantHour int
		wantOK   bool
	}{
		{"plain", "hourly:Kaiserstraße:2024-09-16:14", "2024-09-16", 14, true},
		{"delimiter in street", "hourly:Markt:Nord:2024-09-16:3", "2024-09-16", 3, true},
		{"hour zero", "hourly:Kaiserstraße:2024-09-16:0", "2024-09-16", 0, true},
		{"too few segments", "hourly:2024-09-16", "", 0, false},
		{"bad date", "hourly:Kaiserstraße:yesterday:14", "", 0, false},
		{"bad hour", "hourly:Kaiserstraße:2024-09-16:25", "", 0, false},
		{"non-numeric hour", "hourly:Kaiserstraße:2024-09-16:noon", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, hour, ok := parseHourlyKey(tt.key)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if date != tt.wantDate || hour != tt.wantHour {
				t.Errorf("parsed (%q, %d), want (%q, %d)", date, hour, tt.wantDate, tt.wantHour)
			}
		})
	}
}
