package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Admin    AdminConfig
	Ingest   IngestConfig
	Forecast ForecastConfig
	Streets  []string
}

type ServerConfig struct {
	Port           int
	AllowedOrigins string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

// AdminConfig holds the single operator credential. PasswordHash is a
// bcrypt hash; plaintext passwords are never read from the environment.
type AdminConfig struct {
	Email        string
	PasswordHash string
}

type IngestConfig struct {
	MQTTURL     string
	MQTTTopic   string
	MetricsAddr string
}

type ForecastConfig struct {
	IntervalSec    int
	HoursAhead     int
	ModelVersion   string
	ModelURL       string
	StatisticsPath string
	WeatherAPIKey  string
	WeatherCity    string
	MetricsAddr    string
}

func LoadConfig() (*Config, error) {
	serverPort, err := getIntEnv("SERVER_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	redisPort, err := getIntEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	jwtExpiry, err := getIntEnv("JWT_EXPIRY_HOURS", 24)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRY_HOURS: %w", err)
	}

	intervalSec, err := getIntEnv("FORECAST_INTERVAL_SEC", 3600)
	if err != nil {
		return nil, fmt.Errorf("invalid FORECAST_INTERVAL_SEC: %w", err)
	}
	hoursAhead, err := getIntEnv("FORECAST_HOURS_AHEAD", 192)
	if err != nil {
		return nil, fmt.Errorf("invalid FORECAST_HOURS_AHEAD: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           serverPort,
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     redisPort,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
			ExpiryHours: jwtExpiry,
		},
		Admin: AdminConfig{
			Email:        getEnv("ADMIN_EMAIL", ""),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		Ingest: IngestConfig{
			MQTTURL:     getEnv("MQTT_URL", "tcp://localhost:1883"),
			MQTTTopic:   getEnv("MQTT_TOPIC", "pedestrian/counts/+"),
			MetricsAddr: getEnv("METRICS_ADDR", ":8080"),
		},
		Forecast: ForecastConfig{
			IntervalSec:    intervalSec,
			HoursAhead:     hoursAhead,
			ModelVersion:   getEnv("MODEL_VERSION", "baseline-v1"),
			ModelURL:       getEnv("MODEL_URL", ""),
			StatisticsPath: getEnv("STATISTICS_PATH", "statistics.json"),
			WeatherAPIKey:  getEnv("OPENWEATHER_API_KEY", ""),
			WeatherCity:    getEnv("WEATHER_CITY", "Wuerzburg,de"),
			MetricsAddr:    getEnv("METRICS_ADDR", ":8080"),
		},
		Streets: splitStreets(getEnv("STREETS", "Kaiserstraße,Spiegelstraße,Schönbornstraße")),
	}

	return cfg, nil
}

func splitStreets(raw string) []string {
	parts := strings.Split(raw, ",")
	streets := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			streets = append(streets, s)
		}
	}
	return streets
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}
