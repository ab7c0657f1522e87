package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JairAlexey/moviematch-backend/internal/logger"
	"github.com/JairAlexey/moviematch-backend/internal/types"
)

type UserMovieRepo interface {
	RatingsByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*types.UserMovie, error)
	HasRow(ctx context.Context, tx *gorm.DB, userID uint, movieID int64) (bool, error)
	MovieIDsForUser(ctx context.Context, tx *gorm.DB, userID uint) ([]int64, error)
	// HighlyRatedNotSeenBy returns the rater's rows with rating >= 4 for
	// movies the receiver has no row for at all (watched-only rows still
	// exclude the movie).
	HighlyRatedNotSeenBy(ctx context.Context, tx *gorm.DB, raterID, receiverID uint) ([]*types.UserMovie, error)
	MarkWatched(ctx context.Context, tx *gorm.DB, userID uint, movieID int64) (*types.UserMovie, error)
	Delete(ctx context.Context, tx *gorm.DB, userID uint, movieID int64) (int64, error)
	SetCommentAndRating(ctx context.Context, tx *gorm.DB, userID uint, movieID int64, comment string, rating int) (int64, error)
}

type userMovieRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserMovieRepo(db *gorm.DB, baseLog *logger.Logger) UserMovieRepo {
	repoLog := baseLog.With("repo", "UserMovieRepo")
	return &userMovieRepo{db: db, log: repoLog}
}

func (r *userMovieRepo) RatingsByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*types.UserMovie, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.UserMovie
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userMovieRepo) HasRow(ctx context.Context, tx *gorm.DB, userID uint, movieID int64) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.UserMovie{}).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userMovieRepo) MovieIDsForUser(ctx context.Context, tx *gorm.DB, userID uint) ([]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []int64
	if err := transaction.WithContext(ctx).
		Model(&types.UserMovie{}).
		Where("user_id = ?", userID).
		Pluck("movie_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *userMovieRepo) HighlyRatedNotSeenBy(ctx context.Context, tx *gorm.DB, raterID, receiverID uint) ([]*types.UserMovie, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.UserMovie
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND rating >= 4", raterID).
		Where(`NOT EXISTS (
			SELECT 1 FROM user_movies um2
			WHERE um2.movie_id = user_movies.movie_id AND um2.user_id = ?
		)`, receiverID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userMovieRepo) MarkWatched(ctx context.Context, tx *gorm.DB, userID uint, movieID int64) (*types.UserMovie, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	row := &types.UserMovie{
		UserID:  userID,
		MovieID: movieID,
		Watched: true,
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"watched": true}),
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *userMovieRepo) Delete(ctx context.Context, tx *gorm.DB, userID uint, movieID int64) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	result := transaction.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Delete(&types.UserMovie{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *userMovieRepo) SetCommentAndRating(ctx context.Context, tx *gorm.DB, userID uint, movieID int64, comment string, rating int) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	result := transaction.WithContext(ctx).
		Model(&types.UserMovie{}).
		Where("user_id = ? AND movie_id = ? AND watched = TRUE", userID, movieID).
		Updates(map[string]interface{}{"comment": comment, "rating": rating})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
