package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/JairAlexey/moviematch-backend/internal/logger"
	"github.com/JairAlexey/moviematch-backend/internal/types"
)

type MovieRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, movieID int64) (*types.Movie, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, movieIDs []int64) ([]*types.Movie, error)
}

type movieRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMovieRepo(db *gorm.DB, baseLog *logger.Logger) MovieRepo {
	repoLog := baseLog.With("repo", "MovieRepo")
	return &movieRepo{db: db, log: repoLog}
}

func (mr *movieRepo) GetByID(ctx context.Context, tx *gorm.DB, movieID int64) (*types.Movie, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var results []*types.Movie
	if err := transaction.WithContext(ctx).
		Where("id = ?", movieID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (mr *movieRepo) GetByIDs(ctx context.Context, tx *gorm.DB, movieIDs []int64) ([]*types.Movie, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var results []*types.Movie
	if len(movieIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", movieIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
