package store

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"pedestrian-forecast-api/models"

	"github.com/redis/go-redis/v9"
)

const (
	// ObservationTTL bounds the retention window of measured data and of
	// the index entries that point at it.
	ObservationTTL = 730 * 24 * time.Hour
	// PredictionTTL keeps forecasts just past their 8-day horizon.
	PredictionTTL = 9 * 24 * time.Hour

	scanBatch = 1000
)

// ObservationStore owns the hourly observation and prediction hashes and
// the per-street sorted-set index. The hashes are the source of truth; the
// index only accelerates range reads and every read path works without it.
type ObservationStore struct {
	client *redis.Client
}

func New(client *redis.Client) *ObservationStore {
	return &ObservationStore{client: client}
}

// Write upserts one observation and refreshes its TTL, then updates the
// street index. Re-writing the same (street, date, hour) overwrites fields
// in place; the index member is the key string, so re-adding is a no-op.
func (s *ObservationStore) Write(ctx context.Context, obs models.Observation) error {
	key := hourlyKey(obs.Street, obs.Date, obs.Hour)

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, obs.ToHash())
	pipe.Expire(ctx, key, ObservationTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store hourly %s: %w", key, err)
	}

	s.addToIndex(ctx, obs.Street, key, obs.Date, obs.Hour)
	return nil
}

// addToIndex is best-effort: an indexing failure degrades range reads to
// the scan fallback but never fails the authoritative write.
func (s *ObservationStore) addToIndex(ctx context.Context, street, key, date string, hour int) {
	score, err := epochScore(date, hour)
	if err != nil {
		log.Printf("warning: could not index %s: %v", key, err)
		return
	}

	idx := indexKey(street)
	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, idx, redis.Z{Score: score, Member: key})
	pipe.Expire(ctx, idx, ObservationTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("warning: could not index %s: %v", key, err)
	}
}

// BulkWrite stores a batch of observations for one street in a single
// pipelined round trip, index entries included. Records whose index score
// cannot be derived are still written; only their index entry is dropped.
func (s *ObservationStore) BulkWrite(ctx context.Context, street string, records []models.Observation) error {
	if len(records) == 0 {
		return nil
	}

	idx := indexKey(street)
	pipe := s.client.Pipeline()

	for _, obs := range records {
		key := hourlyKey(street, obs.Date, obs.Hour)
		pipe.HSet(ctx, key, obs.ToHash())
		pipe.Expire(ctx, key, ObservationTTL)

		score, err := epochScore(obs.Date, obs.Hour)
		if err != nil {
			log.Printf("warning: could not index %s: %v", key, err)
			continue
		}
		pipe.ZAdd(ctx, idx, redis.Z{Score: score, Member: key})
	}
	pipe.Expire(ctx, idx, ObservationTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("bulk store %s: %w", street, err)
	}
	return nil
}

// ReadOne returns the observation for (street, date, hour), or nil when no
// record exists. A missing key is not an error.
func (s *ObservationStore) ReadOne(ctx context.Context, street, date string, hour int) (*models.Observation, error) {
	data, err := s.client.HGetAll(ctx, hourlyKey(street, date, hour)).Result()
	if err != nil {
		return nil, fmt.Errorf("read hourly %s/%s/%d: %w", street, date, hour, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	obs, err := models.ObservationFromHash(data)
	if err != nil {
		return nil, fmt.Errorf("decode hourly %s/%s/%d: %w", street, date, hour, err)
	}
	return &obs, nil
}

// ReadRange returns all observations for street with date in
// [startDate, endDate], ascending by (date, hour). It uses the sorted-set
// index when one exists and falls back to a SCAN over the street's
// namespace otherwise.
func (s *ObservationStore) ReadRange(ctx context.Context, street, startDate, endDate string) ([]models.Observation, error) {
	startScore, err := epochScore(startDate, 0)
	if err != nil {
		return nil, err
	}
	endScore, err := epochScore(endDate, 23)
	if err != nil {
		return nil, err
	}
	endScore += 59*60 + 59 // endDate 23:59:59

	exists, err := s.client.Exists(ctx, indexKey(street)).Result()
	if err != nil {
		return nil, fmt.Errorf("check index %s: %w", street, err)
	}

	var keys []string
	if exists > 0 {
		keys, err = s.rangeKeysViaIndex(ctx, street, startScore, endScore)
	} else {
		keys, err = s.rangeKeysViaScan(ctx, street, startDate, endDate)
	}
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	return s.fetchSorted(ctx, keys)
}

func (s *ObservationStore) rangeKeysViaIndex(ctx context.Context, street string, start, end float64) ([]string, error) {
	keys, err := s.client.ZRangeByScore(ctx, indexKey(street), &redis.ZRangeBy{
		Min: fmt.Sprintf("%f", start),
		Max: fmt.Sprintf("%f", end),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("index range %s: %w", street, err)
	}
	return keys, nil
}

func (s *ObservationStore) rangeKeysViaScan(ctx context.Context, street, startDate, endDate string) ([]string, error) {
	var (
		matching []string
		cursor   uint64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, hourlyPattern(street), scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", street, err)
		}

		for _, key := range keys {
			date, hour, ok := parseHourlyKey(key)
			if !ok {
				log.Printf("warning: skipping malformed key %s", key)
				continue
			}
			// Prefix scans also match streets whose name extends this one
			// past a delimiter ("Markt" picks up "Markt:Nord"); keep only
			// keys that round-trip to the queried street.
			if key != hourlyKey(street, date, hour) {
				continue
			}
			if date >= startDate && date <= endDate {
				matching = append(matching, key)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
	return matching, nil
}

// fetchSorted batch-fetches all keys in one pipelined round trip, drops
// entries that resolved to no data (stale index members), and sorts
// defensively by (date, hour) even when the keys came pre-ordered.
func (s *ObservationStore) fetchSorted(ctx context.Context, keys []string) ([]models.Observation, error) {
	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.HGetAll(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("fetch range: %w", err)
	}

	results := make([]models.Observation, 0, len(keys))
	for i, cmd := range cmds {
		data := cmd.Val()
		if len(data) == 0 {
			log.Printf("warning: stale index entry %s, record gone", keys[i])
			continue
		}
		obs, err := models.ObservationFromHash(data)
		if err != nil {
			log.Printf("warning: skipping malformed record %s: %v", keys[i], err)
			continue
		}
		results = append(results, obs)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Date != results[j].Date {
			return results[i].Date < results[j].Date
		}
		return results[i].Hour < results[j].Hour
	})
	return results, nil
}

// RebuildIndex reconstructs the street's sorted-set index from a full scan
// of its hourly namespace. It is idempotent and safe to run while writes
// continue; a write racing the rebuild may be missing from the result and
// is repaired by the next normal Write for that key.
func (s *ObservationStore) RebuildIndex(ctx context.Context, street string) (int, error) {
	idx := indexKey(street)
	if err := s.client.Del(ctx, idx).Err(); err != nil {
		return 0, fmt.Errorf("drop index %s: %w", street, err)
	}

	var (
		indexed int
		cursor  uint64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, hourlyPattern(street), scanBatch).Result()
		if err != nil {
			return indexed, fmt.Errorf("scan %s: %w", street, err)
		}

		if len(keys) > 0 {
			pipe := s.client.Pipeline()
			for _, key := range keys {
				date, hour, ok := parseHourlyKey(key)
				if !ok {
					log.Printf("warning: could not index %s", key)
					continue
				}
				if key != hourlyKey(street, date, hour) {
					continue
				}
				score, err := epochScore(date, hour)
				if err != nil {
					log.Printf("warning: could not index %s: %v", key, err)
					continue
				}
				pipe.ZAdd(ctx, idx, redis.Z{Score: score, Member: key})
				indexed++
			}
			pipe.Expire(ctx, idx, ObservationTTL)
			if _, err := pipe.Exec(ctx); err != nil {
				return indexed, fmt.Errorf("rebuild index %s: %w", street, err)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
	return indexed, nil
}

// LatestTimestamp reports the newest observed hour for a street. The bool
// is false when the street has no data at all.
func (s *ObservationStore) LatestTimestamp(ctx context.Context, street string) (time.Time, bool, error) {
	idx := indexKey(street)
	exists, err := s.client.Exists(ctx, idx).Result()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("check index %s: %w", street, err)
	}

	if exists > 0 {
		entries, err := s.client.ZRangeWithScores(ctx, idx, -1, -1).Result()
		if err != nil {
			return time.Time{}, false, fmt.Errorf("index tail %s: %w", street, err)
		}
		if len(entries) > 0 {
			return time.Unix(int64(entries[0].Score), 0).UTC(), true, nil
		}
		return time.Time{}, false, nil
	}

	// No index: walk the namespace and keep the maximum (date, hour).
	var (
		best   float64
		found  bool
		cursor uint64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, hourlyPattern(street), scanBatch).Result()
		if err != nil {
			return time.Time{}, false, fmt.Errorf("scan %s: %w", street, err)
		}
		for _, key := range keys {
			date, hour, ok := parseHourlyKey(key)
			if !ok {
				continue
			}
			if key != hourlyKey(street, date, hour) {
				continue
			}
			score, err := epochScore(date, hour)
			if err != nil {
				continue
			}
			if !found || score > best {
				best = score
				found = true
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if !found {
		return time.Time{}, false, nil
	}
	return time.Unix(int64(best), 0).UTC(), true, nil
}

// WritePredictions upserts a batch of forecasts in one pipelined round
// trip. Predictions live in their own namespace with a shorter TTL and are
// never indexed; readers walk forward from the current hour.
func (s *ObservationStore) WritePredictions(ctx context.Context, preds []models.Prediction) error {
	if len(preds) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, p := range preds {
		key := predictionKey(p.Street, p.Date, p.Hour)
		pipe.HSet(ctx, key, p.ToHash())
		pipe.Expire(ctx, key, PredictionTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store predictions: %w", err)
	}
	return nil
}

// ReadPredictions returns the stored forecasts for the next hoursAhead
// hours starting at from, ascending in time. Hours without a stored
// forecast are simply absent from the result.
func (s *ObservationStore) ReadPredictions(ctx context.Context, street string, from time.Time, hoursAhead int) ([]models.Prediction, error) {
	from = from.UTC().Truncate(time.Hour)

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, hoursAhead)
	for i := 0; i < hoursAhead; i++ {
		t := from.Add(time.Duration(i) * time.Hour)
		cmds[i] = pipe.HGetAll(ctx, predictionKey(street, t.Format("2006-01-02"), t.Hour()))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("read predictions %s: %w", street, err)
	}

	var results []models.Prediction
	for _, cmd := range cmds {
		data := cmd.Val()
		if len(data) == 0 {
			continue
		}
		p, err := models.PredictionFromHash(data)
		if err != nil {
			log.Printf("warning: skipping malformed prediction: %v", err)
			continue
		}
		results = append(results, p)
	}
	return results, nil
}
