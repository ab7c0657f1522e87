package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JairAlexey/moviematch-backend/internal/logger"
	"github.com/JairAlexey/moviematch-backend/internal/types"
)

// ConflictPolicy decides what happens when a (recommender, receiver, movie)
// row already exists. The batch generator keeps the first write so re-runs
// are idempotent; the rating fan-out replaces the rating so the most recent
// qualifying rating wins.
type ConflictPolicy int

const (
	KeepExisting ConflictPolicy = iota
	ReplaceRating
)

type MovieRecommendationRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, rec *types.MovieRecommendation, policy ConflictPolicy) error
	ListForReceiver(ctx context.Context, tx *gorm.DB, receiverID uint) ([]*types.MovieRecommendation, error)
	DeleteByRecommenderAndMovie(ctx context.Context, tx *gorm.DB, recommenderID uint, movieID int64) error
}

type movieRecommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMovieRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) MovieRecommendationRepo {
	repoLog := baseLog.With("repo", "MovieRecommendationRepo")
	return &movieRecommendationRepo{db: db, log: repoLog}
}

func (r *movieRecommendationRepo) Upsert(ctx context.Context, tx *gorm.DB, rec *types.MovieRecommendation, policy ConflictPolicy) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	conflict := clause.OnConflict{
		Columns: []clause.Column{
			{Name: "recommender_id"},
			{Name: "receiver_id"},
			{Name: "movie_id"},
		},
	}
	switch policy {
	case ReplaceRating:
		conflict.DoUpdates = clause.Assignments(map[string]interface{}{"rating": rec.Rating})
	default:
		conflict.DoNothing = true
	}

	return transaction.WithContext(ctx).
		Clauses(conflict).
		Create(rec).Error
}

func (r *movieRecommendationRepo) ListForReceiver(ctx context.Context, tx *gorm.DB, receiverID uint) ([]*types.MovieRecommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MovieRecommendation
	if err := transaction.WithContext(ctx).
		Where("receiver_id = ?", receiverID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *movieRecommendationRepo) DeleteByRecommenderAndMovie(ctx context.Context, tx *gorm.DB, recommenderID uint, movieID int64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("recommender_id = ? AND movie_id = ?", recommenderID, movieID).
		Delete(&types.MovieRecommendation{}).Error
}
