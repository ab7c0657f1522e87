package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JairAlexey/moviematch-backend/internal/logger"
)

// RatingEvent is published after a rating row commits. MinRecommendable is
// the rating floor sinks use to decide whether the event qualifies.
const MinRecommendableRating = 4

type RatingEvent struct {
	ID         uuid.UUID `json:"id"`
	UserID     uint      `json:"user_id"`
	MovieID    int64     `json:"movie_id"`
	Rating     int       `json:"rating"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewRatingEvent(userID uint, movieID int64, rating int) RatingEvent {
	return RatingEvent{
		ID:         uuid.New(),
		UserID:     userID,
		MovieID:    movieID,
		Rating:     rating,
		OccurredAt: time.Now().UTC(),
	}
}

// RecommendationSink receives rating events. Sink errors are logged by the
// bus and never reach the publisher: the rating write is the primary
// effect and must commit whether or not fan-out succeeds.
type RecommendationSink interface {
	Name() string
	OnRatingEvent(ctx context.Context, event RatingEvent) error
}

type RatingEventBus struct {
	log   *logger.Logger
	mu    sync.RWMutex
	sinks []RecommendationSink
}

func NewRatingEventBus(log *logger.Logger) *RatingEventBus {
	return &RatingEventBus{log: log.With("service", "RatingEventBus")}
}

func (b *RatingEventBus) Register(sink RecommendationSink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, sink)
}

// Publish delivers the event to every registered sink synchronously, in
// registration order. Failures and panics are isolated per sink.
func (b *RatingEventBus) Publish(ctx context.Context, event RatingEvent) {
	b.mu.RLock()
	sinks := make([]RecommendationSink, len(b.sinks))
	copy(sinks, b.sinks)
	b.mu.RUnlock()

	for _, sink := range sinks {
		if err := b.deliver(ctx, sink, event); err != nil {
			b.log.Warn("Rating event sink failed",
				"sink", sink.Name(),
				"event_id", event.ID,
				"user_id", event.UserID,
				"movie_id", event.MovieID,
				"error", err,
			)
		}
	}
}

func (b *RatingEventBus) deliver(ctx context.Context, sink RecommendationSink, event RatingEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	return sink.OnRatingEvent(ctx, event)
}
