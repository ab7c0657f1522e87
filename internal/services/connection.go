package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/JairAlexey/moviematch-backend/internal/apierr"
	"github.com/JairAlexey/moviematch-backend/internal/logger"
	"github.com/JairAlexey/moviematch-backend/internal/repos"
)

// connectionThreshold is the minimum compatibility score that materializes
// an edge. Edges that later recompute below the threshold are left in
// place.
const connectionThreshold = 50

type ConnectionInfo struct {
	UserID             uint      `json:"connected_user_id"`
	Name               string    `json:"connected_user_name"`
	Gravatar           string    `json:"connected_user_gravatar"`
	CompatibilityScore int       `json:"compatibility_score"`
	ComputedAt         time.Time `json:"computed_at"`
}

type ConnectionService interface {
	// RefreshConnectionsFor recomputes the score against every other user
	// and upserts qualifying edges. Returns the number of edges written.
	RefreshConnectionsFor(ctx context.Context, userID uint) (int, error)
	ListConnections(ctx context.Context, userID uint) ([]ConnectionInfo, error)
}

type connectionService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	connRepo      repos.UserConnectionRepo
	compatibility CompatibilityService
}

func NewConnectionService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, connRepo repos.UserConnectionRepo, compatibility CompatibilityService) ConnectionService {
	serviceLog := log.With("service", "ConnectionService")
	return &connectionService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		connRepo:      connRepo,
		compatibility: compatibility,
	}
}

func (cs *connectionService) RefreshConnectionsFor(ctx context.Context, userID uint) (int, error) {
	otherIDs, err := cs.userRepo.ListIDsExcept(ctx, nil, userID)
	if err != nil {
		return 0, apierr.New(http.StatusInternalServerError, "connections_refresh_failed", fmt.Errorf("error listing users: %w", err))
	}

	written := 0
	for _, otherID := range otherIDs {
		user1ID, user2ID := canonicalPair(userID, otherID)
		score, err := cs.compatibility.Score(ctx, nil, user1ID, user2ID)
		if err != nil {
			return written, apierr.New(http.StatusInternalServerError, "connections_refresh_failed", fmt.Errorf("error scoring pair (%d, %d): %w", user1ID, user2ID, err))
		}
		if score < connectionThreshold {
			continue
		}
		if err := cs.connRepo.Upsert(ctx, nil, user1ID, user2ID, score); err != nil {
			return written, apierr.New(http.StatusInternalServerError, "connections_refresh_failed", fmt.Errorf("error upserting edge (%d, %d): %w", user1ID, user2ID, err))
		}
		written++
	}
	cs.log.Info("Connections refreshed", "user_id", userID, "edges_written", written)
	return written, nil
}

func (cs *connectionService) ListConnections(ctx context.Context, userID uint) ([]ConnectionInfo, error) {
	edges, err := cs.connRepo.ListForUser(ctx, nil, userID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "connections_list_failed", fmt.Errorf("error listing connections: %w", err))
	}
	if len(edges) == 0 {
		return nil, apierr.NewWithGuidance(http.StatusNotFound, "no_connections", []string{
			"You don't have any connections yet. To build connections you need to:",
			"- Rate some movies",
			"- Share favorite genres with other users",
			"- Have other active users in the system",
		})
	}

	counterpartIDs := make([]uint, 0, len(edges))
	for _, edge := range edges {
		counterpartIDs = append(counterpartIDs, counterpartOf(edge.User1ID, edge.User2ID, userID))
	}
	users, err := cs.userRepo.GetByIDs(ctx, nil, counterpartIDs)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "connections_list_failed", fmt.Errorf("error resolving connected users: %w", err))
	}
	byID := make(map[uint]int, len(users))
	for i, u := range users {
		byID[u.ID] = i
	}

	infos := make([]ConnectionInfo, 0, len(edges))
	for _, edge := range edges {
		counterpartID := counterpartOf(edge.User1ID, edge.User2ID, userID)
		info := ConnectionInfo{
			UserID:             counterpartID,
			CompatibilityScore: edge.CompatibilityScore,
			ComputedAt:         edge.ComputedAt,
		}
		if i, ok := byID[counterpartID]; ok {
			info.Name = users[i].Name
			info.Gravatar = users[i].Gravatar
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func canonicalPair(a, b uint) (uint, uint) {
	if a < b {
		return a, b
	}
	return b, a
}

func counterpartOf(user1ID, user2ID, userID uint) uint {
	if user1ID == userID {
		return user2ID
	}
	return user1ID
}
