package models

import (
	"fmt"
	"strconv"
)

// Observation is one measured hour of pedestrian counts for one street.
// The hash field names are the store's wire format and must not change.
type Observation struct {
	ID                 string  `json:"id"`
	Street             string  `json:"street"`
	City               string  `json:"city"`
	Date               string  `json:"date"` // YYYY-MM-DD
	Hour               int     `json:"hour"` // 0-23
	Weekday            string  `json:"weekday"`
	Pedestrians        float64 `json:"n_pedestrians"`
	PedestriansTowards float64 `json:"n_pedestrians_towards"`
	PedestriansAway    float64 `json:"n_pedestrians_away"`
	Temperature        float64 `json:"temperature"`
	WeatherCondition   string  `json:"weather_condition"`
	Incidents          string  `json:"incidents"`
	CollectionType     string  `json:"collection_type"`
	Timestamp          string  `json:"timestamp"` // ingestion timestamp, RFC 3339
}

func (o Observation) ToHash() map[string]string {
	return map[string]string{
		"id":                    o.ID,
		"street":                o.Street,
		"city":                  o.City,
		"date":                  o.Date,
		"hour":                  strconv.Itoa(o.Hour),
		"weekday":               o.Weekday,
		"n_pedestrians":         formatCount(o.Pedestrians),
		"n_pedestrians_towards": formatCount(o.PedestriansTowards),
		"n_pedestrians_away":    formatCount(o.PedestriansAway),
		"temperature":           strconv.FormatFloat(o.Temperature, 'f', -1, 64),
		"weather_condition":     o.WeatherCondition,
		"incidents":             o.Incidents,
		"collection_type":       o.CollectionType,
		"timestamp":             o.Timestamp,
	}
}

func ObservationFromHash(h map[string]string) (Observation, error) {
	hour, err := strconv.Atoi(h["hour"])
	if err != nil {
		return Observation{}, fmt.Errorf("invalid hour %q: %w", h["hour"], err)
	}

	o := Observation{
		ID:               h["id"],
		Street:           h["street"],
		City:             h["city"],
		Date:             h["date"],
		Hour:             hour,
		Weekday:          h["weekday"],
		WeatherCondition: h["weather_condition"],
		Incidents:        h["incidents"],
		CollectionType:   h["collection_type"],
		Timestamp:        h["timestamp"],
	}

	if o.Pedestrians, err = parseCount(h["n_pedestrians"]); err != nil {
		return Observation{}, err
	}
	if o.PedestriansTowards, err = parseCount(h["n_pedestrians_towards"]); err != nil {
		return Observation{}, err
	}
	if o.PedestriansAway, err = parseCount(h["n_pedestrians_away"]); err != nil {
		return Observation{}, err
	}
	if o.Temperature, err = parseCount(h["temperature"]); err != nil {
		return Observation{}, err
	}

	return o, nil
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseCount treats an absent field as zero; the upstream feed omits
// fields it has no value for instead of writing empty strings.
func parseCount(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric field %q: %w", raw, err)
	}
	return v, nil
}
