package main

import "testing"

func TestObservationFromPayload(t *testing.T) {
	t.Run("valid payload maps to observation", func(t *testing.T) {
		raw := `{"ts":"2024-09-16T14:25:00Z","street":"Kaiserstraße","n_pedestrians":43,"n_pedestrians_towards":20,"n_pedestrians_away":23,"temperature":12.5,"weather_condition":"cloudy"}`

		obs, err := observationFromPayload([]byte(raw))
		if err != nil {
			t.Fatalf("observationFromPayload failed: %v", err)
		}
		if obs.Street != "Kaiserstraße" {
			t.Errorf("Street = %q, want Kaiserstraße", obs.Street)
		}
		if obs.Date != "2024-09-16" || obs.Hour != 14 {
			t.Errorf("slot = (%s, %d), want (2024-09-16, 14)", obs.Date, obs.Hour)
		}
		if obs.Weekday != "Monday" {
			t.Errorf("Weekday = %q, want Monday", obs.Weekday)
		}
		if obs.Pedestrians != 43 || obs.Temperature != 12.5 {
			t.Errorf("counts = (%f, %f)", obs.Pedestrians, obs.Temperature)
		}
		if obs.CollectionType != "measured" {
			t.Errorf("CollectionType = %q, want measured", obs.CollectionType)
		}
		if obs.ID != "Kaiserstraße_2024-09-16_14" {
			t.Errorf("ID = %q", obs.ID)
		}
	})

	t.Run("missing street rejected", func(t *testing.T) {
		raw := `{"ts":"2024-09-16T14:25:00Z","n_pedestrians":43}`
		if _, err := observationFromPayload([]byte(raw)); err != errMissingStreet {
			t.Errorf("err = %v, want errMissingStreet", err)
		}
	})

	t.Run("invalid JSON rejected", func(t *testing.T) {
		if _, err := observationFromPayload([]byte(`{not valid json}`)); err == nil {
			t.Error("expected error for invalid JSON")
		}
	})

	t.Run("defaults fill absent fields", func(t *testing.T) {
		raw := `{"ts":"2024-09-16T23:59:59Z","street":"Spiegelstraße","n_pedestrians":7}`

		obs, err := observationFromPayload([]byte(raw))
		if err != nil {
			t.Fatalf("observationFromPayload failed: %v", err)
		}
		if obs.Hour != 23 {
			t.Errorf("Hour = %d, want 23 (truncated to the hour)", obs.Hour)
		}
		if obs.Incidents != "no_incident" {
			t.Errorf("Incidents = %q, want no_incident", obs.Incidents)
		}
		if obs.WeatherCondition != "unknown" {
			t.Errorf("WeatherCondition = %q, want unknown", obs.WeatherCondition)
		}
	})
}
