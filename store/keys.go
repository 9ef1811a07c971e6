package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Key layout (string keys, hash values unless noted):
//
//	hourly:{street}:{date}:{hour}             observation hash
//	index:{street}                            sorted set, member=hourly key, score=epoch seconds
//	prediction:hourly:{street}:{date}:{hour}  prediction hash
const (
	hourlyPrefix     = "hourly:"
	indexPrefix      = "index:"
	predictionPrefix = "prediction:hourly:"
)

func hourlyKey(street, date string, hour int) string {
	return fmt.Sprintf("%s%s:%s:%d", hourlyPrefix, street, date, hour)
}

func indexKey(street string) string {
	return indexPrefix + street
}

func predictionKey(street, date string, hour int) string {
	return fmt.Sprintf("%s%s:%s:%d", predictionPrefix, street, date, hour)
}

func hourlyPattern(street string) string {
	return hourlyPrefix + street + ":*"
}

// epochScore resolves a (date, hour) pair to the sorted-set score.
func epochScore(date string, hour int) (float64, error) {
	d, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", date, err)
	}
	if hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour %d", hour)
	}
	return float64(d.Add(time.Duration(hour) * time.Hour).Unix()), nil
}

// parseHourlyKey extracts (date, hour) from an hourly key. Street names may
// contain the delimiter, so only the two trailing segments are trusted;
// anything malformed yields ok=false and the key is skipped by callers.
func parseHourlyKey(key string) (date string, hour int, ok bool) {
	parts := strings.Split(key, ":")
	if len(parts) < 4 {
		return "", 0, false
	}

	date = parts[len(parts)-2]
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", 0, false
	}

	hour, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || hour < 0 || hour > 23 {
		return "", 0, false
	}

	return date, hour, true
}
