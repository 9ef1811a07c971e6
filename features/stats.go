package features

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/stat"
)

// TargetStats holds the frozen per-street historical aggregates for one
// target column. Computed once during Fit from the training corpus and
// looked up, never recomputed, at inference time.
type TargetStats struct {
	WeekdayMean    map[int]float64 `json:"weekday_mean"`
	HourMean       map[int]float64 `json:"hour_mean"`
	HourOfWeekMean map[int]float64 `json:"hour_of_week_mean"`
	RecentMean     float64         `json:"recent_mean"`
}

// Statistics maps street -> target column -> aggregates. It is passed by
// value into Apply and treated read-only there.
type Statistics map[string]map[string]TargetStats

// computeStatistics derives the aggregates from chronologically ordered
// rows of one street. Every configured target must be present on every
// row; Fit validates that before calling here.
func computeTargetStats(rows []Row, target string, recentWindow int) TargetStats {
	byWeekday := make(map[int][]float64)
	byHour := make(map[int][]float64)
	byHourOfWeek := make(map[int][]float64)
	values := make([]float64, 0, len(rows))

	for _, r := range rows {
		t, err := rowTime(r.Date, r.Hour)
		if err != nil {
			continue
		}
		dow := weekdayIndex(t)
		val := r.Targets[target]

		byWeekday[dow] = append(byWeekday[dow], val)
		byHour[r.Hour] = append(byHour[r.Hour], val)
		byHourOfWeek[dow*24+r.Hour] = append(byHourOfWeek[dow*24+r.Hour], val)
		values = append(values, val)
	}

	ts := TargetStats{
		WeekdayMean:    groupMeans(byWeekday),
		HourMean:       groupMeans(byHour),
		HourOfWeekMean: groupMeans(byHourOfWeek),
	}

	if n := len(values); n > 0 {
		w := recentWindow
		if w <= 0 || w > n {
			w = n
		}
		ts.RecentMean = stat.Mean(values[n-w:], nil)
	}
	return ts
}

func groupMeans(groups map[int][]float64) map[int]float64 {
	means := make(map[int]float64, len(groups))
	for k, vals := range groups {
		means[k] = stat.Mean(vals, nil)
	}
	return means
}

// Save serializes the statistics so the caller can keep them alongside the
// trained model artifact.
func (s Statistics) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode statistics: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write statistics: %w", err)
	}
	return nil
}

func LoadStatistics(path string) (Statistics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read statistics: %w", err)
	}
	var s Statistics
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}
	return s, nil
}
