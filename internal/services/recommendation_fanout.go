package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/JairAlexey/moviematch-backend/internal/logger"
	"github.com/JairAlexey/moviematch-backend/internal/repos"
	"github.com/JairAlexey/moviematch-backend/internal/types"
)

// RecommendationFanout is the incremental counterpart to the batch
// generator: when a user rates a movie 4 or higher, it pushes the movie to
// every connection that has no row for it yet. Writes use ReplaceRating so
// a fresh event always reflects the latest qualifying rating.
type RecommendationFanout struct {
	db            *gorm.DB
	log           *logger.Logger
	connRepo      repos.UserConnectionRepo
	userMovieRepo repos.UserMovieRepo
	recRepo       repos.MovieRecommendationRepo
}

func NewRecommendationFanout(db *gorm.DB, log *logger.Logger, connRepo repos.UserConnectionRepo, userMovieRepo repos.UserMovieRepo, recRepo repos.MovieRecommendationRepo) *RecommendationFanout {
	return &RecommendationFanout{
		db:            db,
		log:           log.With("sink", "RecommendationFanout"),
		connRepo:      connRepo,
		userMovieRepo: userMovieRepo,
		recRepo:       recRepo,
	}
}

func (f *RecommendationFanout) Name() string { return "recommendation_fanout" }

func (f *RecommendationFanout) OnRatingEvent(ctx context.Context, event RatingEvent) error {
	if event.Rating < MinRecommendableRating {
		return nil
	}

	edges, err := f.connRepo.ListForUser(ctx, nil, event.UserID)
	if err != nil {
		return fmt.Errorf("error listing connections for rater %d: %w", event.UserID, err)
	}

	var errs []error
	for _, edge := range edges {
		receiverID := counterpartOf(edge.User1ID, edge.User2ID, event.UserID)
		hasRow, err := f.userMovieRepo.HasRow(ctx, nil, receiverID, event.MovieID)
		if err != nil {
			errs = append(errs, fmt.Errorf("receiver %d: %w", receiverID, err))
			continue
		}
		if hasRow {
			continue
		}
		rec := &types.MovieRecommendation{
			RecommenderID: event.UserID,
			ReceiverID:    receiverID,
			MovieID:       event.MovieID,
			Rating:        event.Rating,
		}
		if err := f.recRepo.Upsert(ctx, nil, rec, repos.ReplaceRating); err != nil {
			errs = append(errs, fmt.Errorf("receiver %d: %w", receiverID, err))
			continue
		}
		f.log.Debug("Recommendation pushed",
			"recommender_id", event.UserID,
			"receiver_id", receiverID,
			"movie_id", event.MovieID,
			"rating", event.Rating,
		)
	}
	return errors.Join(errs...)
}
