package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/JairAlexey/moviematch-backend/internal/apierr"
)

func TestCommentAndRateInvalidRating(t *testing.T) {
	bus := NewRatingEventBus(testLogger(t))
	service := NewRatingService(nil, testLogger(t), newFakeMovieRepo(), newFakeUserMovieRepo(), newFakeRecRepo(), bus)

	for _, rating := range []int{0, -1, 6} {
		_, err := service.CommentAndRate(context.Background(), 1, 42, "meh", rating)
		var apiErr *apierr.Error
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
			t.Fatalf("rating=%d: expected 400, got %v", rating, err)
		}
	}
}

func TestCommentAndRateRequiresWatched(t *testing.T) {
	bus := NewRatingEventBus(testLogger(t))
	userMovies := newFakeUserMovieRepo()
	service := NewRatingService(nil, testLogger(t), newFakeMovieRepo(), userMovies, newFakeRecRepo(), bus)

	_, err := service.CommentAndRate(context.Background(), 1, 42, "great", 5)
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apierr.Error, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != "not_watched" {
		t.Fatalf("got status=%d code=%q, want 400 not_watched", apiErr.Status, apiErr.Code)
	}
}

func TestCommentAndRatePublishesEvent(t *testing.T) {
	bus := NewRatingEventBus(testLogger(t))
	sink := &recordingSink{name: "recorder"}
	bus.Register(sink)

	userMovies := newFakeUserMovieRepo()
	userMovies.addWatched(1, 42)
	service := NewRatingService(nil, testLogger(t), newFakeMovieRepo(), userMovies, newFakeRecRepo(), bus)

	row, err := service.CommentAndRate(context.Background(), 1, 42, "loved it", 5)
	if err != nil {
		t.Fatalf("CommentAndRate: %v", err)
	}
	if row.Rating == nil || *row.Rating != 5 || row.Comment != "loved it" {
		t.Fatalf("unexpected row: %+v", row)
	}

	if len(sink.events) != 1 {
		t.Fatalf("got %d events, want 1", len(sink.events))
	}
	event := sink.events[0]
	if event.UserID != 1 || event.MovieID != 42 || event.Rating != 5 {
		t.Fatalf("unexpected event: %+v", event)
	}

	stored, _ := userMovies.RatingsByUser(context.Background(), nil, 1)
	if len(stored) != 1 || stored[0].Comment != "loved it" {
		t.Fatalf("comment not persisted: %+v", stored)
	}
}

func TestCommentAndRateSurvivesSinkFailure(t *testing.T) {
	bus := NewRatingEventBus(testLogger(t))
	bus.Register(&recordingSink{name: "broken", err: errors.New("sink down")})

	userMovies := newFakeUserMovieRepo()
	userMovies.addWatched(1, 42)
	service := NewRatingService(nil, testLogger(t), newFakeMovieRepo(), userMovies, newFakeRecRepo(), bus)

	if _, err := service.CommentAndRate(context.Background(), 1, 42, "", 4); err != nil {
		t.Fatalf("sink failure must not fail the rating write: %v", err)
	}
}

func TestCommentAndRateFansOutToConnections(t *testing.T) {
	bus := NewRatingEventBus(testLogger(t))
	userMovies := newFakeUserMovieRepo()
	conns := newFakeConnRepo()
	recs := newFakeRecRepo()
	bus.Register(NewRecommendationFanout(nil, testLogger(t), conns, userMovies, recs))

	userMovies.addWatched(1, 42)
	conns.addEdge(1, 2, 72)
	service := NewRatingService(nil, testLogger(t), newFakeMovieRepo(), userMovies, recs, bus)

	if _, err := service.CommentAndRate(context.Background(), 1, 42, "classic", 5); err != nil {
		t.Fatalf("CommentAndRate: %v", err)
	}

	facts, err := recs.ListForReceiver(context.Background(), nil, 2)
	if err != nil {
		t.Fatalf("ListForReceiver: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("got %d facts, want 1 pushed to the connection", len(facts))
	}
	if facts[0].RecommenderID != 1 || facts[0].MovieID != 42 || facts[0].Rating != 5 {
		t.Fatalf("unexpected fact: %+v", facts[0])
	}
}
