package services

import (
	"context"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/JairAlexey/moviematch-backend/internal/apierr"
	"github.com/JairAlexey/moviematch-backend/internal/logger"
	"github.com/JairAlexey/moviematch-backend/internal/repos"
	"github.com/JairAlexey/moviematch-backend/internal/types"
)

type RatingService interface {
	MarkWatched(ctx context.Context, userID uint, movieID int64) (*types.UserMovie, error)
	// UnmarkWatched removes the row and, in the same transaction, every
	// recommendation this user made for the movie.
	UnmarkWatched(ctx context.Context, userID uint, movieID int64) error
	// CommentAndRate requires the movie to be marked watched first. The
	// rating event is published after the write commits; fan-out failures
	// never surface to the caller.
	CommentAndRate(ctx context.Context, userID uint, movieID int64, comment string, rating int) (*types.UserMovie, error)
}

type ratingService struct {
	db            *gorm.DB
	log           *logger.Logger
	movieRepo     repos.MovieRepo
	userMovieRepo repos.UserMovieRepo
	recRepo       repos.MovieRecommendationRepo
	eventBus      *RatingEventBus
}

func NewRatingService(db *gorm.DB, log *logger.Logger, movieRepo repos.MovieRepo, userMovieRepo repos.UserMovieRepo, recRepo repos.MovieRecommendationRepo, eventBus *RatingEventBus) RatingService {
	serviceLog := log.With("service", "RatingService")
	return &ratingService{
		db:            db,
		log:           serviceLog,
		movieRepo:     movieRepo,
		userMovieRepo: userMovieRepo,
		recRepo:       recRepo,
		eventBus:      eventBus,
	}
}

func (rs *ratingService) MarkWatched(ctx context.Context, userID uint, movieID int64) (*types.UserMovie, error) {
	var row *types.UserMovie
	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		movie, err := rs.movieRepo.GetByID(ctx, tx, movieID)
		if err != nil {
			return apierr.New(http.StatusInternalServerError, "mark_watched_failed", fmt.Errorf("error fetching movie: %w", err))
		}
		if movie == nil {
			return apierr.New(http.StatusNotFound, "movie_not_found", fmt.Errorf("movie %d not found", movieID))
		}
		row, err = rs.userMovieRepo.MarkWatched(ctx, tx, userID, movieID)
		if err != nil {
			return apierr.New(http.StatusInternalServerError, "mark_watched_failed", fmt.Errorf("error marking watched: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (rs *ratingService) UnmarkWatched(ctx context.Context, userID uint, movieID int64) error {
	return rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deleted, err := rs.userMovieRepo.Delete(ctx, tx, userID, movieID)
		if err != nil {
			return apierr.New(http.StatusInternalServerError, "unmark_watched_failed", fmt.Errorf("error deleting row: %w", err))
		}
		if deleted == 0 {
			return apierr.New(http.StatusNotFound, "not_watched", fmt.Errorf("no watched row for movie %d", movieID))
		}
		if err := rs.recRepo.DeleteByRecommenderAndMovie(ctx, tx, userID, movieID); err != nil {
			return apierr.New(http.StatusInternalServerError, "unmark_watched_failed", fmt.Errorf("error deleting recommendations: %w", err))
		}
		return nil
	})
}

func (rs *ratingService) CommentAndRate(ctx context.Context, userID uint, movieID int64, comment string, rating int) (*types.UserMovie, error) {
	if rating < 1 || rating > 5 {
		return nil, apierr.New(http.StatusBadRequest, "invalid_rating", fmt.Errorf("rating must be between 1 and 5"))
	}

	updated, err := rs.userMovieRepo.SetCommentAndRating(ctx, nil, userID, movieID, comment, rating)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "rate_failed", fmt.Errorf("error saving rating: %w", err))
	}
	if updated == 0 {
		return nil, apierr.New(http.StatusBadRequest, "not_watched", fmt.Errorf("you must mark the movie as watched before commenting or rating"))
	}

	// Rating is committed; fan-out is best effort from here on.
	rs.eventBus.Publish(ctx, NewRatingEvent(userID, movieID, rating))

	row := &types.UserMovie{
		UserID:  userID,
		MovieID: movieID,
		Watched: true,
		Rating:  &rating,
		Comment: comment,
	}
	return row, nil
}
