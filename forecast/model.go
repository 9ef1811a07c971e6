package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Model is the trained regressor, consumed as an opaque function. Columns
// reports the ordered feature column set the model was fitted with; the
// caller aligns feature rows to it before invoking Predict.
type Model interface {
	Predict(vector []float64) (float64, error)
	Columns() []string
	Version() string
}

// HTTPModel talks to an external model-serving process that hosts the
// boosted-tree regressor.
type HTTPModel struct {
	baseURL string
	client  *http.Client
	columns []string
	version string
}

type modelInfoResponse struct {
	ModelVersion string   `json:"model_version"`
	Columns      []string `json:"columns"`
}

type predictRequest struct {
	Vector []float64 `json:"vector"`
}

type predictResponse struct {
	Prediction float64 `json:"prediction"`
}

// NewHTTPModel fetches the model's column contract once at startup; the
// column set is fixed for the lifetime of the loaded model artifact.
func NewHTTPModel(ctx context.Context, baseURL string) (*HTTPModel, error) {
	m := &HTTPModel{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/columns", nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch model columns: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch model columns: status %d", resp.StatusCode)
	}

	var info modelInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode model columns: %w", err)
	}
	if len(info.Columns) == 0 {
		return nil, fmt.Errorf("model reports no feature columns")
	}

	m.columns = info.Columns
	m.version = info.ModelVersion
	return m, nil
}

func (m *HTTPModel) Predict(vector []float64) (float64, error) {
	body, err := json.Marshal(predictRequest{Vector: vector})
	if err != nil {
		return 0, err
	}

	resp, err := m.client.Post(m.baseURL+"/predict", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("model predict: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("model predict: status %d", resp.StatusCode)
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode prediction: %w", err)
	}
	return out.Prediction, nil
}

func (m *HTTPModel) Columns() []string { return m.columns }
func (m *HTTPModel) Version() string   { return m.version }

// SeasonalBaseline predicts the street's historical hour-of-week average.
// It serves as the default model until a trained artifact is deployed and
// as the comparison baseline for evaluating one.
type SeasonalBaseline struct {
	target string
}

func NewSeasonalBaseline(target string) *SeasonalBaseline {
	return &SeasonalBaseline{target: target}
}

func (b *SeasonalBaseline) Columns() []string {
	return []string{b.target + "_hour_of_week_avg"}
}

func (b *SeasonalBaseline) Predict(vector []float64) (float64, error) {
	if len(vector) != 1 {
		return 0, fmt.Errorf("baseline expects 1 feature, got %d", len(vector))
	}
	if vector[0] < 0 {
		return 0, nil
	}
	return vector[0], nil
}

func (b *SeasonalBaseline) Version() string { return "baseline-v1" }
