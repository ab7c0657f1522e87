package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func knnHealthServer(t *testing.T, modelLoaded bool, totalMovies int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": "healthy",
			"model_info": map[string]any{
				"model_loaded":  modelLoaded,
				"total_movies":  totalMovies,
				"neighbors":     20,
				"features_used": 7,
			},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestKNNClientStatusOnline(t *testing.T) {
	server := knnHealthServer(t, true, 4500)
	t.Setenv("KNN_API_URL", server.URL)

	client := NewKNNClient(testLogger(t), nil)
	status := client.Status(context.Background())
	if status.Status != KNNStatusOnline {
		t.Fatalf("status=%q, want online", status.Status)
	}
	if !status.ModelLoaded || status.TotalMovies != 4500 || status.Neighbors != 20 || status.FeaturesUsed != 7 {
		t.Fatalf("model info not carried through: %+v", status)
	}
}

func TestKNNClientStatusWarning(t *testing.T) {
	server := knnHealthServer(t, true, 0)
	t.Setenv("KNN_API_URL", server.URL)

	client := NewKNNClient(testLogger(t), nil)
	status := client.Status(context.Background())
	if status.Status != KNNStatusWarning {
		t.Fatalf("status=%q, want warning for a loaded model with no items", status.Status)
	}
}

func TestKNNClientStatusNotLoaded(t *testing.T) {
	server := knnHealthServer(t, false, 0)
	t.Setenv("KNN_API_URL", server.URL)

	client := NewKNNClient(testLogger(t), nil)
	status := client.Status(context.Background())
	if status.Status != KNNStatusOffline {
		t.Fatalf("status=%q, want offline when the model is not loaded", status.Status)
	}
}

func TestKNNClientStatusUnreachable(t *testing.T) {
	t.Setenv("KNN_API_URL", "http://127.0.0.1:1")

	client := NewKNNClient(testLogger(t), nil)
	status := client.Status(context.Background())
	if status.Status != KNNStatusOffline {
		t.Fatalf("status=%q, want offline for unreachable service", status.Status)
	}
	if status.Error == "" {
		t.Fatal("expected the probe error to be surfaced")
	}
}

func TestKNNClientStatusBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()
	t.Setenv("KNN_API_URL", server.URL)

	client := NewKNNClient(testLogger(t), nil)
	status := client.Status(context.Background())
	if status.Status != KNNStatusOffline || status.Error == "" {
		t.Fatalf("malformed health response should map to offline, got %+v", status)
	}
}

func TestKNNClientRecommendationsFor(t *testing.T) {
	var gotBody struct {
		UserID          uint    `json:"user_id"`
		Limit           int     `json:"limit"`
		ExcludeMovieIDs []int64 `json:"exclude_movie_ids"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recommend" {
			t.Errorf("hit %q, want /recommend", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"recommendations": []KNNRecommendation{
				{MovieID: 603, Similarity: 0.91, Score: 4.6},
				{MovieID: 680, Similarity: 0.87, Score: 4.2},
			},
			"total_movies":   4500,
			"neighbors_used": 20,
			"features_used":  7,
		})
	}))
	defer server.Close()
	t.Setenv("KNN_API_URL", server.URL)

	client := NewKNNClient(testLogger(t), nil)
	result, err := client.RecommendationsFor(context.Background(), 9, 10, []int64{42, 7})
	if err != nil {
		t.Fatalf("RecommendationsFor: %v", err)
	}
	if gotBody.UserID != 9 || gotBody.Limit != 10 || len(gotBody.ExcludeMovieIDs) != 2 {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
	if result.UserID != 9 {
		t.Fatalf("user_id=%d, want 9", result.UserID)
	}
	if len(result.Recommendations) != 2 || result.Recommendations[0].MovieID != 603 {
		t.Fatalf("unexpected recommendations: %+v", result.Recommendations)
	}
	if result.NeighborsUsed != 20 || result.FeaturesUsed != 7 {
		t.Fatalf("model metadata not carried through: %+v", result)
	}
}

func TestKNNClientSimilarMoviesTo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/similar" {
			t.Errorf("hit %q, want /similar", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"movie_id": 603,
			"similar_movies": []SimilarMovie{
				{MovieID: 604, Similarity: 0.95},
			},
			"neighbors_used": 20,
		})
	}))
	defer server.Close()
	t.Setenv("KNN_API_URL", server.URL)

	client := NewKNNClient(testLogger(t), nil)
	similar, err := client.SimilarMoviesTo(context.Background(), 603, 5)
	if err != nil {
		t.Fatalf("SimilarMoviesTo: %v", err)
	}
	if len(similar) != 1 || similar[0].MovieID != 604 {
		t.Fatalf("unexpected similar movies: %+v", similar)
	}
}

func TestKNNClientRecommendationsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not trained", http.StatusServiceUnavailable)
	}))
	defer server.Close()
	t.Setenv("KNN_API_URL", server.URL)

	client := NewKNNClient(testLogger(t), nil)
	if _, err := client.RecommendationsFor(context.Background(), 1, 5, nil); err == nil {
		t.Fatal("expected error on 503")
	}
}
