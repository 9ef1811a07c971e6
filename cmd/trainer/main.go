package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"pedestrian-forecast-api/config"
	"pedestrian-forecast-api/features"
	"pedestrian-forecast-api/models"
	"pedestrian-forecast-api/store"
)

// The trainer is a one-shot job: read the observed history, fit the
// feature engine, and export the training statistics plus the feature
// matrix for the external model training procedure.
func main() {
	startDate := flag.String("start", "", "start date (YYYY-MM-DD)")
	endDate := flag.String("end", "", "end date (YYYY-MM-DD)")
	statsOut := flag.String("stats", "statistics.json", "output path for training statistics")
	matrixOut := flag.String("matrix", "features.csv", "output path for the feature matrix")
	flag.Parse()

	if *startDate == "" || *endDate == "" {
		log.Fatalf("both -start and -end are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	client, err := store.NewClient(cfg.Redis)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer client.Close()

	observations := store.New(client)
	calendars := store.NewCalendarSource(client)

	var rows []features.Row
	for _, street := range cfg.Streets {
		history, err := observations.ReadRange(ctx, street, *startDate, *endDate)
		if err != nil {
			log.Fatalf("read history for %s: %v", street, err)
		}
		log.Printf("loaded %d observations for %s", len(history), street)
		for _, obs := range history {
			rows = append(rows, trainingRow(obs))
		}
	}
	if len(rows) == 0 {
		log.Fatalf("no observations in [%s, %s]", *startDate, *endDate)
	}

	cal, err := calendars.LoadRange(ctx, *startDate, *endDate)
	if err != nil {
		log.Fatalf("load calendar: %v", err)
	}

	engine := features.NewEngine(features.DefaultConfig(cfg.Streets), cal)

	start := time.Now()
	frs, stats, err := engine.Fit(rows)
	if err != nil {
		log.Fatalf("fit failed: %v", err)
	}
	log.Printf("fit completed: %d rows, %d columns (%.2fs)",
		len(frs), len(engine.Columns()), time.Since(start).Seconds())

	if err := stats.Save(*statsOut); err != nil {
		log.Fatalf("write statistics: %v", err)
	}
	log.Printf("wrote training statistics for %d streets to %s", len(stats), *statsOut)

	if err := writeMatrix(*matrixOut, engine.Columns(), rows, frs); err != nil {
		log.Fatalf("write feature matrix: %v", err)
	}
	log.Printf("wrote feature matrix to %s", *matrixOut)
}

func trainingRow(obs models.Observation) features.Row {
	return features.Row{
		ID:               obs.ID,
		Street:           obs.Street,
		Date:             obs.Date,
		Hour:             obs.Hour,
		Temperature:      obs.Temperature,
		WeatherCondition: obs.WeatherCondition,
		Incidents:        obs.Incidents,
		CollectionType:   obs.CollectionType,
		Targets: map[string]float64{
			"n_pedestrians":         obs.Pedestrians,
			"n_pedestrians_towards": obs.PedestriansTowards,
			"n_pedestrians_away":    obs.PedestriansAway,
		},
	}
}

// writeMatrix exports id, the ordered feature columns and the targets,
// one row per observation.
func writeMatrix(path string, columns []string, rows []features.Row, frs []features.FeatureRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := append([]string{"id"}, columns...)
	header = append(header, "n_pedestrians", "n_pedestrians_towards", "n_pedestrians_away")
	if err := w.Write(header); err != nil {
		return err
	}

	byID := make(map[string]features.Row, len(rows))
	for _, r := range rows {
		byID[rowKey(r)] = r
	}

	for _, fr := range frs {
		record := make([]string, 0, len(header))
		record = append(record, fr.ID)
		for _, v := range fr.Vector(columns) {
			record = append(record, strconv.FormatFloat(v, 'f', -1, 64))
		}

		src, ok := byID[fr.ID]
		if !ok {
			return fmt.Errorf("feature row %s has no source observation", fr.ID)
		}
		for _, target := range []string{"n_pedestrians", "n_pedestrians_towards", "n_pedestrians_away"} {
			record = append(record, strconv.FormatFloat(src.Targets[target], 'f', -1, 64))
		}

		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func rowKey(r features.Row) string {
	if r.ID != "" {
		return r.ID
	}
	return fmt.Sprintf("%s_%s_%d", r.Street, r.Date, r.Hour)
}
