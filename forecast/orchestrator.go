package forecast

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"pedestrian-forecast-api/features"
	"pedestrian-forecast-api/models"
)

// Store is the slice of the observation store the orchestrator needs.
type Store interface {
	LatestTimestamp(ctx context.Context, street string) (time.Time, bool, error)
	WritePredictions(ctx context.Context, preds []models.Prediction) error
}

// Publisher pushes freshly persisted predictions to live subscribers.
// Publishing is best-effort; a nil Publisher disables it.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// PredictionChannel is the pub/sub channel the websocket stream feeds from.
const PredictionChannel = "pedestrian:predictions"

// CalendarLoader supplies the holiday/lecture/event side tables covering a
// date range. A nil loader means an empty calendar.
type CalendarLoader interface {
	LoadRange(ctx context.Context, startDate, endDate string) (features.Calendar, error)
}

// Orchestrator runs one forecast cycle per tick: latest observed hour ->
// future skeleton -> feature application -> model -> persisted predictions.
// Ticks are strictly sequential; a trigger arriving while a run is still
// in flight is skipped, not queued.
type Orchestrator struct {
	store      Store
	engineCfg  features.Config
	calendars  CalendarLoader
	stats      features.Statistics
	model      Model
	weather    WeatherSource
	publisher  Publisher
	streets    []string
	hoursAhead int
	city       string

	running atomic.Bool
}

func NewOrchestrator(store Store, engineCfg features.Config, calendars CalendarLoader, stats features.Statistics, model Model, weather WeatherSource, publisher Publisher, streets []string, hoursAhead int, city string) *Orchestrator {
	return &Orchestrator{
		store:      store,
		engineCfg:  engineCfg,
		calendars:  calendars,
		stats:      stats,
		model:      model,
		weather:    weather,
		publisher:  publisher,
		streets:    streets,
		hoursAhead: hoursAhead,
		city:       city,
	}
}

// TryRun executes one cycle unless another is already in flight, in which
// case the trigger is dropped. Returns whether a run was started.
func (o *Orchestrator) TryRun(ctx context.Context) bool {
	if !o.running.CompareAndSwap(false, true) {
		log.Printf("forecast run still in flight, skipping trigger")
		return false
	}
	defer o.running.Store(false)

	runID := time.Now().UTC().Format("20060102T150405Z")
	if err := o.run(ctx, runID); err != nil {
		log.Printf("forecast run %s failed: %v", runID, err)
	}
	return true
}

func (o *Orchestrator) run(ctx context.Context, runID string) error {
	start := time.Now()

	// FETCH_LATEST_OBSERVED
	latest, err := o.latestObserved(ctx)
	if err != nil {
		return fmt.Errorf("step fetch_latest_observed: %w", err)
	}

	// BUILD_FUTURE_SKELETON. Weather enrichment is best-effort: with the
	// forecast source down, rows carry the unknown weather bucket.
	var wx []WeatherHour
	if o.weather != nil {
		wx, err = o.weather.HourlyForecast(ctx, o.city)
		if err != nil {
			log.Printf("run %s: weather source unavailable, using unknown buckets: %v", runID, err)
			wx = nil
		}
	}
	rows := BuildFutureRows(latest, o.hoursAhead, o.streets, wx)

	engine, err := o.buildEngine(ctx, rows)
	if err != nil {
		return fmt.Errorf("step build_future_skeleton: %w", err)
	}

	// APPLY_FEATURES + INVOKE_MODEL, street by street so one street's
	// missing statistics never aborts the whole run.
	generatedAt := time.Now().UTC().Format(time.RFC3339)
	var preds []models.Prediction
	skipped := 0
	for _, street := range o.streets {
		streetRows := filterStreet(rows, street)
		if len(streetRows) == 0 {
			continue
		}

		frs, err := engine.Apply(streetRows, o.stats)
		if err != nil {
			var missing *features.MissingStatisticsError
			if errors.As(err, &missing) {
				log.Printf("run %s: %v, skipping street", runID, err)
				skipped++
				continue
			}
			return fmt.Errorf("step apply_features (%s): %w", street, err)
		}

		for i, fr := range frs {
			value, err := o.model.Predict(fr.Vector(o.model.Columns()))
			if err != nil {
				return fmt.Errorf("step invoke_model (%s): %w", street, err)
			}
			preds = append(preds, o.buildPrediction(streetRows[i], fr, value, generatedAt))
		}
	}

	if len(preds) == 0 {
		return fmt.Errorf("step invoke_model: no predictions produced (%d streets skipped)", skipped)
	}

	// PERSIST_PREDICTIONS. Upserts are independent and idempotent, so a
	// failure here leaves earlier data untouched; the next tick retries.
	if err := o.store.WritePredictions(ctx, preds); err != nil {
		return fmt.Errorf("step persist_predictions: %w", err)
	}

	published := o.publish(ctx, preds)
	log.Printf("run %s completed: %d predictions, %d streets skipped, %d published (%.2fs)",
		runID, len(preds), skipped, published, time.Since(start).Seconds())
	return nil
}

// buildEngine snapshots the calendar side tables over the forecast window
// and constructs the feature engine against them.
func (o *Orchestrator) buildEngine(ctx context.Context, rows []features.Row) (*features.Engine, error) {
	cal := features.NewCalendar()
	if o.calendars != nil && len(rows) > 0 {
		startDate, endDate := rows[0].Date, rows[0].Date
		for _, r := range rows {
			if r.Date < startDate {
				startDate = r.Date
			}
			if r.Date > endDate {
				endDate = r.Date
			}
		}

		loaded, err := o.calendars.LoadRange(ctx, startDate, endDate)
		if err != nil {
			return nil, fmt.Errorf("load calendar: %w", err)
		}
		cal = loaded
	}
	return features.NewEngine(o.engineCfg, cal), nil
}

// latestObserved returns the newest observed hour over all streets. At
// least one street must have data for a forecast to anchor on.
func (o *Orchestrator) latestObserved(ctx context.Context) (time.Time, error) {
	var (
		latest time.Time
		found  bool
	)
	for _, street := range o.streets {
		t, ok, err := o.store.LatestTimestamp(ctx, street)
		if err != nil {
			return time.Time{}, err
		}
		if ok && (!found || t.After(latest)) {
			latest = t
			found = true
		}
	}
	if !found {
		return time.Time{}, fmt.Errorf("no observed data for any street")
	}
	return latest, nil
}

func (o *Orchestrator) buildPrediction(row features.Row, fr features.FeatureRow, value float64, generatedAt string) models.Prediction {
	if value < 0 {
		value = 0
	}
	t, _ := time.ParseInLocation("2006-01-02", row.Date, time.UTC)

	return models.Prediction{
		ID:               fr.ID,
		Street:           row.Street,
		City:             cityName(o.city),
		Date:             row.Date,
		Hour:             row.Hour,
		Weekday:          t.Weekday().String(),
		Pedestrians:      math.Round(value),
		Temperature:      math.Round(row.Temperature),
		WeatherCondition: row.WeatherCondition,
		Incidents:        row.Incidents,
		CollectionType:   row.CollectionType,
		ModelVersion:     o.model.Version(),
		GeneratedAt:      generatedAt,
	}
}

func (o *Orchestrator) publish(ctx context.Context, preds []models.Prediction) int {
	if o.publisher == nil {
		return 0
	}
	published := 0
	for _, p := range preds {
		if err := o.publisher.Publish(ctx, PredictionChannel, p); err != nil {
			log.Printf("publish prediction %s: %v", p.ID, err)
			continue
		}
		published++
	}
	return published
}

// cityName strips the country suffix off an OpenWeather query string
// ("Wuerzburg,de") for the stored record.
func cityName(query string) string {
	if i := strings.Index(query, ","); i >= 0 {
		return query[:i]
	}
	return query
}

func filterStreet(rows []features.Row, street string) []features.Row {
	var out []features.Row
	for _, r := range rows {
		if r.Street == street {
			out = append(out, r)
		}
	}
	return out
}
