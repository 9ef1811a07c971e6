package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pedestrian-forecast-api/config"
	"pedestrian-forecast-api/features"
	"pedestrian-forecast-api/forecast"
	"pedestrian-forecast-api/services"
	"pedestrian-forecast-api/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	runsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pedestrian_forecaster_runs_started_total",
		Help: "Total number of forecast runs started.",
	})
	runsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pedestrian_forecaster_runs_skipped_total",
		Help: "Total number of triggers skipped because a run was in flight.",
	})
	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pedestrian_forecaster_run_duration_seconds",
		Help:    "Duration of a full forecast run.",
		Buckets: []float64{0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
	})
)

func main() {
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
	cache := services.NewCacheService(client)

	stats, err := features.LoadStatistics(cfg.Forecast.StatisticsPath)
	if err != nil {
		log.Fatalf("Failed to load statistics from %s: %v", cfg.Forecast.StatisticsPath, err)
	}
	log.Printf("loaded training statistics for %d streets from %s",
		len(stats), cfg.Forecast.StatisticsPath)

	model := selectModel(ctx, cfg.Forecast)

	var weather forecast.WeatherSource
	if cfg.Forecast.WeatherAPIKey != "" {
		weather = forecast.NewOpenWeatherSource(cfg.Forecast.WeatherAPIKey)
	} else {
		log.Printf("no OPENWEATHER_API_KEY, forecasts use unknown weather buckets")
	}

	orchestrator := forecast.NewOrchestrator(
		observations,
		features.DefaultConfig(cfg.Streets),
		calendars,
		stats,
		model,
		weather,
		cache,
		cfg.Streets,
		cfg.Forecast.HoursAhead,
		cfg.Forecast.WeatherCity,
	)

	go serveHTTP(cfg.Forecast.MetricsAddr)

	interval := time.Duration(cfg.Forecast.IntervalSec) * time.Second
	log.Printf("forecaster running: interval=%s hours_ahead=%d model=%s",
		interval, cfg.Forecast.HoursAhead, model.Version())

	// Run first cycle immediately
	runOnce(ctx, orchestrator)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runOnce(ctx, orchestrator)
		case <-ctx.Done():
			log.Printf("forecaster shutting down")
			return
		}
	}
}

func runOnce(ctx context.Context, orchestrator *forecast.Orchestrator) {
	start := time.Now()
	if !orchestrator.TryRun(ctx) {
		runsSkipped.Inc()
		return
	}
	runsStarted.Inc()
	runDuration.Observe(time.Since(start).Seconds())
}

// selectModel prefers the external trained model when MODEL_URL is set and
// reachable, falling back to the seasonal baseline.
func selectModel(ctx context.Context, cfg config.ForecastConfig) forecast.Model {
	if cfg.ModelURL != "" {
		model, err := forecast.NewHTTPModel(ctx, cfg.ModelURL)
		if err == nil {
			log.Printf("using model service at %s (version %s)", cfg.ModelURL, model.Version())
			return model
		}
		log.Printf("model service at %s unavailable, falling back to baseline: %v", cfg.ModelURL, err)
	}
	return forecast.NewSeasonalBaseline("n_pedestrians")
}

func serveHTTP(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("metrics server listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("metrics server failed: %v", err)
	}
}
