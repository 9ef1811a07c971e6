package models

import (
	"fmt"
	"strconv"
)

// Prediction is a forecast row for a future (street, date, hour). It is
// structurally an Observation tagged data_type=prediction; a later run for
// the same key overwrites it (last writer wins).
type Prediction struct {
	ID                 string  `json:"id"`
	Street             string  `json:"street"`
	City               string  `json:"city"`
	Date               string  `json:"date"`
	Hour               int     `json:"hour"`
	Weekday            string  `json:"weekday"`
	Pedestrians        float64 `json:"n_pedestrians"`
	PedestriansTowards float64 `json:"n_pedestrians_towards"`
	PedestriansAway    float64 `json:"n_pedestrians_away"`
	Temperature        float64 `json:"temperature"`
	WeatherCondition   string  `json:"weather_condition"`
	Incidents          string  `json:"incidents"`
	CollectionType     string  `json:"collection_type"`
	ModelVersion       string  `json:"model_version"`
	GeneratedAt        string  `json:"generated_at"` // RFC 3339
}

const DataTypePrediction = "prediction"

func (p Prediction) ToHash() map[string]string {
	return map[string]string{
		"id":                    p.ID,
		"street":                p.Street,
		"city":                  p.City,
		"date":                  p.Date,
		"hour":                  strconv.Itoa(p.Hour),
		"weekday":               p.Weekday,
		"n_pedestrians":         formatCount(p.Pedestrians),
		"n_pedestrians_towards": formatCount(p.PedestriansTowards),
		"n_pedestrians_away":    formatCount(p.PedestriansAway),
		"temperature":           strconv.FormatFloat(p.Temperature, 'f', -1, 64),
		"weather_condition":     p.WeatherCondition,
		"incidents":             p.Incidents,
		"collection_type":       p.CollectionType,
		"model_version":         p.ModelVersion,
		"data_type":             DataTypePrediction,
		"generated_at":          p.GeneratedAt,
	}
}

func PredictionFromHash(h map[string]string) (Prediction, error) {
	hour, err := strconv.Atoi(h["hour"])
	if err != nil {
		return Prediction{}, fmt.Errorf("invalid hour %q: %w", h["hour"], err)
	}

	p := Prediction{
		ID:               h["id"],
		Street:           h["street"],
		City:             h["city"],
		Date:             h["date"],
		Hour:             hour,
		Weekday:          h["weekday"],
		WeatherCondition: h["weather_condition"],
		Incidents:        h["incidents"],
		CollectionType:   h["collection_type"],
		ModelVersion:     h["model_version"],
		GeneratedAt:      h["generated_at"],
	}

	if p.Pedestrians, err = parseCount(h["n_pedestrians"]); err != nil {
		return Prediction{}, err
	}
	if p.PedestriansTowards, err = parseCount(h["n_pedestrians_towards"]); err != nil {
		return Prediction{}, err
	}
	if p.PedestriansAway, err = parseCount(h["n_pedestrians_away"]); err != nil {
		return Prediction{}, err
	}
	if p.Temperature, err = parseCount(h["temperature"]); err != nil {
		return Prediction{}, err
	}

	return p, nil
}
