package forecast

import (
	"fmt"
	"time"

	"pedestrian-forecast-api/features"
)

// BuildFutureRows generates the hourly calendar skeleton for every street,
// starting the hour after the latest observed hour. Weather is matched by
// exact hour where the forecast covers it; hours outside the forecast use
// the last known entry before them (or the first one when the skeleton
// starts before the forecast does). With no forecast at all, rows carry
// the unknown weather bucket.
func BuildFutureRows(latest time.Time, hoursAhead int, streets []string, wx []WeatherHour) []features.Row {
	start := latest.UTC().Truncate(time.Hour).Add(time.Hour)

	byHour := make(map[time.Time]WeatherHour, len(wx))
	for _, w := range wx {
		byHour[w.Time.UTC().Truncate(time.Hour)] = w
	}

	rows := make([]features.Row, 0, hoursAhead*len(streets))
	for h := 0; h < hoursAhead; h++ {
		t := start.Add(time.Duration(h) * time.Hour)

		var (
			temp float64
			cond string
		)
		if w, ok := byHour[t]; ok {
			temp, cond = w.Temperature, w.Condition
		} else if w, ok := lastBefore(wx, t); ok {
			temp, cond = w.Temperature, w.Condition
		} else if len(wx) > 0 {
			temp, cond = wx[0].Temperature, wx[0].Condition
		}

		date := t.Format("2006-01-02")
		for _, street := range streets {
			rows = append(rows, features.Row{
				ID:               fmt.Sprintf("%s_%s_%d", street, date, t.Hour()),
				Street:           street,
				Date:             date,
				Hour:             t.Hour(),
				Temperature:      temp,
				WeatherCondition: cond,
				Incidents:        "no_incident",
				CollectionType:   "measured",
			})
		}
	}
	return rows
}

func lastBefore(wx []WeatherHour, t time.Time) (WeatherHour, bool) {
	var (
		best  WeatherHour
		found bool
	)
	for _, w := range wx {
		if !w.Time.After(t) && (!found || w.Time.After(best.Time)) {
			best = w
			found = true
		}
	}
	return best, found
}
