package repos

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JairAlexey/moviematch-backend/internal/logger"
	"github.com/JairAlexey/moviematch-backend/internal/types"
)

type UserConnectionRepo interface {
	// Upsert inserts the edge or refreshes score + computed_at on the
	// existing canonical key. Callers must pass user1ID < user2ID.
	Upsert(ctx context.Context, tx *gorm.DB, user1ID, user2ID uint, score int) error
	ListForUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*types.UserConnection, error)
}

type userConnectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserConnectionRepo(db *gorm.DB, baseLog *logger.Logger) UserConnectionRepo {
	repoLog := baseLog.With("repo", "UserConnectionRepo")
	return &userConnectionRepo{db: db, log: repoLog}
}

func (r *userConnectionRepo) Upsert(ctx context.Context, tx *gorm.DB, user1ID, user2ID uint, score int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	edge := &types.UserConnection{
		User1ID:            user1ID,
		User2ID:            user2ID,
		CompatibilityScore: score,
		ComputedAt:         time.Now().UTC(),
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user1_id"}, {Name: "user2_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"compatibility_score": score,
				"computed_at":         edge.ComputedAt,
			}),
		}).
		Create(edge).Error
}

func (r *userConnectionRepo) ListForUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*types.UserConnection, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.UserConnection
	if err := transaction.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("compatibility_score DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
