package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pedestrian-forecast-api/config"
	"pedestrian-forecast-api/models"
	"pedestrian-forecast-api/store"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// CountPayload is the JSON body published by the counting sensors.
type CountPayload struct {
	TS                 string  `json:"ts"`
	Street             string  `json:"street"`
	Pedestrians        float64 `json:"n_pedestrians"`
	PedestriansTowards float64 `json:"n_pedestrians_towards"`
	PedestriansAway    float64 `json:"n_pedestrians_away"`
	Temperature        float64 `json:"temperature"`
	WeatherCondition   string  `json:"weather_condition"`
	Incidents          string  `json:"incidents"`
}

var errMissingStreet = errors.New("missing street in payload")

var (
	msgsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pedestrian_collector_messages_received_total",
		Help: "Total number of MQTT messages received by collector.",
	})
	msgsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pedestrian_collector_messages_stored_total",
		Help: "Total number of messages successfully stored in Redis.",
	})
	msgsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pedestrian_collector_messages_failed_total",
		Help: "Total number of messages rejected or failed to store.",
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

	go serveHTTP(cfg.Ingest.MetricsAddr)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Ingest.MQTTURL)
	opts.SetClientID("pedestrian-collector-" + time.Now().Format("20060102150405"))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetDefaultPublishHandler(func(mqttClient mqtt.Client, message mqtt.Message) {
		processMessage(ctx, observations, client, message.Payload())
	})
	opts.OnConnect = func(mqttClient mqtt.Client) {
		token := mqttClient.Subscribe(cfg.Ingest.MQTTTopic, 0, nil)
		token.Wait()
		if token.Error() != nil {
			log.Printf("mqtt subscribe error: %v", token.Error())
			return
		}
		log.Printf("collector subscribed to topic=%s", cfg.Ingest.MQTTTopic)
	}
	opts.OnConnectionLost = func(mqttClient mqtt.Client, err error) {
		log.Printf("mqtt connection lost: %v", err)
	}

	mqttClient := mqtt.NewClient(opts)
	token := mqttClient.Connect()
	token.Wait()
	if token.Error() != nil {
		log.Fatalf("mqtt connection failed: %v", token.Error())
	}

	log.Printf("collector running, mqtt=%s redis=ok metrics=%s",
		cfg.Ingest.MQTTURL, cfg.Ingest.MetricsAddr)

	<-ctx.Done()
	log.Printf("collector shutting down")
	mqttClient.Disconnect(250)
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

func processMessage(ctx context.Context, observations *store.ObservationStore, client *redis.Client, payloadRaw []byte) {
	msgsReceived.Inc()

	obs, err := observationFromPayload(payloadRaw)
	if err != nil {
		msgsFailed.Inc()
		log.Printf("invalid payload: %v", err)
		return
	}

	if err := observations.Write(ctx, obs); err != nil {
		msgsFailed.Inc()
		log.Printf("store failed: %v", err)
		return
	}

	msgsStored.Inc()
	_ = client.Publish(ctx, "pedestrian:live", payloadRaw).Err()
}

func observationFromPayload(payloadRaw []byte) (models.Observation, error) {
	var payload CountPayload
	if err := json.Unmarshal(payloadRaw, &payload); err != nil {
		return models.Observation{}, err
	}
	if payload.Street == "" {
		return models.Observation{}, errMissingStreet
	}

	ts := time.Now().UTC()
	if payload.TS != "" {
		parsed, err := time.Parse(time.RFC3339, payload.TS)
		if err == nil {
			ts = parsed.UTC()
		}
	}
	ts = ts.Truncate(time.Hour)

	incidents := payload.Incidents
	if incidents == "" {
		incidents = "no_incident"
	}
	condition := payload.WeatherCondition
	if condition == "" {
		condition = "unknown"
	}

	date := ts.Format("2006-01-02")
	return models.Observation{
		ID:                 fmt.Sprintf("%s_%s_%d", payload.Street, date, ts.Hour()),
		Street:             payload.Street,
		City:               "Wuerzburg",
		Date:               date,
		Hour:               ts.Hour(),
		Weekday:            ts.Weekday().String(),
		Pedestrians:        payload.Pedestrians,
		PedestriansTowards: payload.PedestriansTowards,
		PedestriansAway:    payload.PedestriansAway,
		Temperature:        payload.Temperature,
		WeatherCondition:   condition,
		Incidents:          incidents,
		CollectionType:     "measured",
		Timestamp:          ts.Format(time.RFC3339),
	}, nil
}
