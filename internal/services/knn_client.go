package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	redisclient "github.com/JairAlexey/moviematch-backend/internal/clients/redis"
	"github.com/JairAlexey/moviematch-backend/internal/logger"
	"github.com/JairAlexey/moviematch-backend/internal/utils"
)

const (
	KNNStatusOnline  = "online"
	KNNStatusWarning = "warning"
	KNNStatusOffline = "offline"

	knnStatusCacheKey = "knn:status"
	knnStatusCacheTTL = 30 * time.Second
)

type KNNStatus struct {
	Status       string `json:"status"`
	ModelLoaded  bool   `json:"model_loaded"`
	TotalMovies  int    `json:"total_movies"`
	Neighbors    int    `json:"neighbors"`
	FeaturesUsed int    `json:"features_used"`
	Error        string `json:"error,omitempty"`
}

type KNNRecommendation struct {
	MovieID    int64   `json:"movie_id"`
	Similarity float64 `json:"similarity"`
	Score      float64 `json:"score"`
}

type KNNRecommendationsResult struct {
	UserID          uint                `json:"user_id"`
	Recommendations []KNNRecommendation `json:"recommendations"`
	TotalMovies     int                 `json:"total_movies"`
	NeighborsUsed   int                 `json:"neighbors_used"`
	FeaturesUsed    int                 `json:"features_used"`
}

type SimilarMovie struct {
	MovieID    int64   `json:"movie_id"`
	Similarity float64 `json:"similarity"`
}

// KNNClient talks to the neighbor-similarity model service. This source is
// surfaced as an alternative recommendation path, never merged into the
// social view.
type KNNClient interface {
	// Status never returns an error: an unreachable service maps to the
	// offline state so callers can render it directly.
	Status(ctx context.Context) *KNNStatus
	RecommendationsFor(ctx context.Context, userID uint, limit int, excludeMovieIDs []int64) (*KNNRecommendationsResult, error)
	SimilarMoviesTo(ctx context.Context, movieID int64, limit int) ([]SimilarMovie, error)
}

type knnClient struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
	cache      redisclient.Cache
	statusSF   singleflight.Group

	callTimeout   time.Duration
	healthTimeout time.Duration
}

// NewKNNClient builds the client. cache may be nil; status probes then hit
// the service every time (still deduped across concurrent callers).
func NewKNNClient(log *logger.Logger, cache redisclient.Cache) KNNClient {
	clientLog := log.With("service", "KNNClient")
	baseURL := strings.TrimRight(utils.GetEnv("KNN_API_URL", "http://127.0.0.1:8001", log), "/")
	return &knnClient{
		log:           clientLog,
		baseURL:       baseURL,
		httpClient:    &http.Client{},
		cache:         cache,
		callTimeout:   time.Duration(utils.GetEnvAsInt("KNN_TIMEOUT_SECONDS", 30, log)) * time.Second,
		healthTimeout: time.Duration(utils.GetEnvAsInt("KNN_HEALTH_TIMEOUT_SECONDS", 5, log)) * time.Second,
	}
}

type knnHTTPError struct {
	StatusCode int
	Body       string
}

func (e *knnHTTPError) Error() string {
	return fmt.Sprintf("knn service http %d: %s", e.StatusCode, e.Body)
}

func (c *knnClient) Status(ctx context.Context) *KNNStatus {
	if c.cache != nil {
		var cached KNNStatus
		hit, err := c.cache.GetJSON(ctx, knnStatusCacheKey, &cached)
		if err != nil {
			c.log.Warn("KNN status cache read failed", "error", err)
		} else if hit {
			return &cached
		}
	}

	v, _, _ := c.statusSF.Do(knnStatusCacheKey, func() (interface{}, error) {
		status := c.probeStatus(ctx)
		if c.cache != nil {
			if err := c.cache.SetJSON(ctx, knnStatusCacheKey, status, knnStatusCacheTTL); err != nil {
				c.log.Warn("KNN status cache write failed", "error", err)
			}
		}
		return status, nil
	})
	return v.(*KNNStatus)
}

func (c *knnClient) probeStatus(ctx context.Context) *KNNStatus {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return &KNNStatus{Status: KNNStatusOffline, Error: err.Error()}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("KNN service unreachable", "error", err)
		return &KNNStatus{Status: KNNStatusOffline, Error: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &KNNStatus{Status: KNNStatusOffline, Error: fmt.Sprintf("knn service http %d", resp.StatusCode)}
	}

	var respBody struct {
		ModelInfo struct {
			ModelLoaded  bool `json:"model_loaded"`
			TotalMovies  int  `json:"total_movies"`
			Neighbors    int  `json:"neighbors"`
			FeaturesUsed int  `json:"features_used"`
		} `json:"model_info"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return &KNNStatus{Status: KNNStatusOffline, Error: fmt.Sprintf("decode health response: %v", err)}
	}

	status := &KNNStatus{
		ModelLoaded:  respBody.ModelInfo.ModelLoaded,
		TotalMovies:  respBody.ModelInfo.TotalMovies,
		Neighbors:    respBody.ModelInfo.Neighbors,
		FeaturesUsed: respBody.ModelInfo.FeaturesUsed,
	}
	switch {
	case status.ModelLoaded && status.TotalMovies > 0:
		status.Status = KNNStatusOnline
	case status.ModelLoaded:
		// Model reports loaded but has no usable items.
		status.Status = KNNStatusWarning
	default:
		status.Status = KNNStatusOffline
	}
	return status
}

func (c *knnClient) RecommendationsFor(ctx context.Context, userID uint, limit int, excludeMovieIDs []int64) (*KNNRecommendationsResult, error) {
	reqBody := struct {
		UserID          uint    `json:"user_id"`
		Limit           int     `json:"limit"`
		ExcludeMovieIDs []int64 `json:"exclude_movie_ids,omitempty"`
	}{UserID: userID, Limit: limit, ExcludeMovieIDs: excludeMovieIDs}

	var respBody KNNRecommendationsResult
	if err := c.postJSON(ctx, "/recommend", reqBody, &respBody); err != nil {
		return nil, err
	}
	respBody.UserID = userID
	return &respBody, nil
}

func (c *knnClient) SimilarMoviesTo(ctx context.Context, movieID int64, limit int) ([]SimilarMovie, error) {
	reqBody := struct {
		MovieID int64 `json:"movie_id"`
		Limit   int   `json:"limit"`
	}{MovieID: movieID, Limit: limit}

	var respBody struct {
		MovieID       int64          `json:"movie_id"`
		SimilarMovies []SimilarMovie `json:"similar_movies"`
		NeighborsUsed int            `json:"neighbors_used"`
	}
	if err := c.postJSON(ctx, "/similar", reqBody, &respBody); err != nil {
		return nil, err
	}
	return respBody.SimilarMovies, nil
}

func (c *knnClient) postJSON(ctx context.Context, path string, reqBody any, respBody any) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
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
		return fmt.Errorf("knn service %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &knnHTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("decode knn response: %w", err)
	}
	return nil
}
