package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"
)

// WeatherHour is one hour of forecast weather, already remapped to the
// condition vocabulary the feature engine encodes.
type WeatherHour struct {
	Time        time.Time
	Temperature float64
	Condition   string
}

// WeatherSource supplies the hourly forecast the future skeleton is built
// from. Unreachable sources are tolerated upstream; features fall back to
// the unknown weather bucket.
type WeatherSource interface {
	HourlyForecast(ctx context.Context, city string) ([]WeatherHour, error)
}

// OpenWeatherSource fetches the 5-day/3-hour forecast and expands it to
// hourly rows by forward-filling each 3-hour slot.
type OpenWeatherSource struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOpenWeatherSource(apiKey string) *OpenWeatherSource {
	return &OpenWeatherSource{
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type openWeatherResponse struct {
	List []struct {
		DT   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Clouds struct {
			All float64 `json:"all"`
		} `json:"clouds"`
	} `json:"list"`
}

func (s *OpenWeatherSource) HourlyForecast(ctx context.Context, city string) ([]WeatherHour, error) {
	u := fmt.Sprintf("%s/data/2.5/forecast?q=%s&appid=%s&units=metric",
		s.baseURL, url.QueryEscape(city), url.QueryEscape(s.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch weather forecast: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch weather forecast: status %d", resp.StatusCode)
	}

	var data openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode weather forecast: %w", err)
	}

	entries := make([]WeatherHour, 0, len(data.List))
	for _, e := range data.List {
		t := time.Unix(e.DT, 0).UTC()
		main := ""
		if len(e.Weather) > 0 {
			main = e.Weather[0].Main
		}
		isNight := t.Hour() < 6 || t.Hour() >= 18
		entries = append(entries, WeatherHour{
			Time:        t,
			Temperature: e.Main.Temp,
			Condition:   remapCondition(main, e.Clouds.All, isNight),
		})
	}

	return expandHourly(entries), nil
}

// remapCondition translates OpenWeather's condition groups into the labels
// the models were trained on.
func remapCondition(main string, clouds float64, isNight bool) string {
	switch main {
	case "Clear":
		if isNight {
			return "clear-night"
		}
		return "clear-day"
	case "Clouds":
		if clouds < 50 {
			if isNight {
				return "partly-cloudy-night"
			}
			return "partly-cloudy-day"
		}
		return "cloudy"
	case "Rain", "Drizzle", "Thunderstorm":
		return "rain"
	case "Snow":
		return "snow"
	case "Mist", "Fog", "Haze", "Smoke", "Dust", "Sand":
		return "fog"
	case "Squall", "Tornado":
		return "wind"
	default:
		return "cloudy"
	}
}

// expandHourly fills the gap between consecutive 3-hour forecasts with the
// earlier forecast's values, so every hour up to the horizon has an entry.
func expandHourly(entries []WeatherHour) []WeatherHour {
	if len(entries) == 0 {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Time.Before(entries[j].Time) })

	var expanded []WeatherHour
	for i, e := range entries {
		next := e.Time.Add(3 * time.Hour)
		if i+1 < len(entries) {
			next = entries[i+1].Time
		}
		for t := e.Time; t.Before(next); t = t.Add(time.Hour) {
			expanded = append(expanded, WeatherHour{Time: t, Temperature: e.Temperature, Condition: e.Condition})
		}
	}
	return expanded
}
