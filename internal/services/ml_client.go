package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JairAlexey/moviematch-backend/internal/logger"
	"github.com/JairAlexey/moviematch-backend/internal/utils"
)

// MLClient talks to the probability-of-liking model service. Callers are
// expected to degrade on error: a failed prediction call must never fail
// the recommendation request it decorates.
type MLClient interface {
	PredictBatch(ctx context.Context, features []MovieFeatures) ([]MoviePrediction, error)
	Predict(ctx context.Context, features MovieFeatures) (*MoviePrediction, error)
	Health(ctx context.Context) error
}

type MoviePrediction struct {
	MovieID            int64   `json:"movie_id"`
	Prediction         int     `json:"prediction"`
	ProbabilityLike    float64 `json:"probability_like"`
	ProbabilityDislike float64 `json:"probability_dislike"`
}

type mlClient struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client

	batchTimeout  time.Duration
	singleTimeout time.Duration
	healthTimeout time.Duration
}

func NewMLClient(log *logger.Logger) MLClient {
	clientLog := log.With("service", "MLClient")
	baseURL := strings.TrimRight(utils.GetEnv("ML_MODEL_URL", "http://127.0.0.1:8000", log), "/")
	return &mlClient{
		log:           clientLog,
		baseURL:       baseURL,
		httpClient:    &http.Client{},
		batchTimeout:  time.Duration(utils.GetEnvAsInt("ML_BATCH_TIMEOUT_SECONDS", 30, log)) * time.Second,
		singleTimeout: time.Duration(utils.GetEnvAsInt("ML_SINGLE_TIMEOUT_SECONDS", 10, log)) * time.Second,
		healthTimeout: time.Duration(utils.GetEnvAsInt("ML_HEALTH_TIMEOUT_SECONDS", 5, log)) * time.Second,
	}
}

type mlHTTPError struct {
	StatusCode int
	Body       string
}

func (e *mlHTTPError) Error() string {
	return fmt.Sprintf("ml service http %d: %s", e.StatusCode, e.Body)
}

func (c *mlClient) PredictBatch(ctx context.Context, features []MovieFeatures) ([]MoviePrediction, error) {
	if len(features) == 0 {
		return nil, nil
	}

	reqBody := struct {
		Movies []MovieFeatures `json:"movies"`
	}{Movies: features}

	var respBody struct {
		Predictions []MoviePrediction `json:"predictions"`
		TotalMovies int               `json:"total_movies"`
		Error       string            `json:"error"`
	}
	if err := c.postJSON(ctx, "/predict-batch", c.batchTimeout, reqBody, &respBody); err != nil {
		return nil, err
	}
	// The model service reports batch-level failures in-band with a 200.
	if respBody.Error != "" {
		return nil, fmt.Errorf("ml service rejected batch: %s", respBody.Error)
	}
	c.log.Debug("Batch prediction received", "requested", len(features), "returned", len(respBody.Predictions))
	return respBody.Predictions, nil
}

func (c *mlClient) Predict(ctx context.Context, features MovieFeatures) (*MoviePrediction, error) {
	var respBody MoviePrediction
	if err := c.postJSON(ctx, "/predict", c.singleTimeout, features, &respBody); err != nil {
		return nil, err
	}
	respBody.MovieID = features.MovieID
	return &respBody, nil
}

func (c *mlClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ml health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &mlHTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

func (c *mlClient) postJSON(ctx context.Context, path string, timeout time.Duration, reqBody any, respBody any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ml service %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &mlHTTPError{StatusCode: resp.StatusCode, Body: strconv.Quote(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("decode ml response: %w", err)
	}
	return nil
}
