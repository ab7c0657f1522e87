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
	"github.com/JairAlexey/moviematch-backend/internal/types"
)

type RecommenderInfo struct {
	UserID   uint   `json:"user_id"`
	Name     string `json:"name"`
	Gravatar string `json:"gravatar"`
	Rating   int    `json:"rating"`
}

// RecommendationViewRow aggregates all facts for one movie: a movie
// recommended by N connections yields one row with N recommenders.
type RecommendationViewRow struct {
	Movie            *types.Movie      `json:"movie"`
	Recommenders     []RecommenderInfo `json:"recommenders"`
	RecommenderCount int               `json:"recommender_count"`
	CreatedAt        time.Time         `json:"created_at"`
	MLPrediction     *MoviePrediction  `json:"ml_prediction"`
}

type GenerateResult struct {
	MoviesFound        int `json:"movies_found"`
	SkippedConnections int `json:"skipped_connections"`
}

type RecommendationsResponse struct {
	Recommendations  []*RecommendationViewRow `json:"recommendations"`
	TotalPredictions int                      `json:"total_predictions"`
	MLError          string                   `json:"ml_error,omitempty"`
}

type RecommendationService interface {
	// GenerateFor walks the receiver's connections and records every movie
	// a connection rated >= 4 that the receiver has no row for. Re-runs
	// are idempotent (KeepExisting). Each connection is isolated: a failed
	// candidate lookup is counted and skipped, not fatal to the run.
	GenerateFor(ctx context.Context, receiverID uint) (*GenerateResult, error)
	ViewForReceiver(ctx context.Context, receiverID uint) ([]*RecommendationViewRow, error)
	// GetRecommendationsFor merges the social view with batch predictions
	// from the ML service, degrading to ml_prediction: null + ml_error
	// when the service fails.
	GetRecommendationsFor(ctx context.Context, receiverID uint) (*RecommendationsResponse, error)
	// KNNRecommendationsFor is the alternative, non-merged source.
	KNNRecommendationsFor(ctx context.Context, userID uint, limit int) (*KNNRecommendationsResult, error)
}

type recommendationService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	movieRepo     repos.MovieRepo
	userMovieRepo repos.UserMovieRepo
	connRepo      repos.UserConnectionRepo
	recRepo       repos.MovieRecommendationRepo
	mlClient      MLClient
	knnClient     KNNClient
}

func NewRecommendationService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	movieRepo repos.MovieRepo,
	userMovieRepo repos.UserMovieRepo,
	connRepo repos.UserConnectionRepo,
	recRepo repos.MovieRecommendationRepo,
	mlClient MLClient,
	knnClient KNNClient,
) RecommendationService {
	serviceLog := log.With("service", "RecommendationService")
	return &recommendationService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		movieRepo:     movieRepo,
		userMovieRepo: userMovieRepo,
		connRepo:      connRepo,
		recRepo:       recRepo,
		mlClient:      mlClient,
		knnClient:     knnClient,
	}
}

func (rs *recommendationService) GenerateFor(ctx context.Context, receiverID uint) (*GenerateResult, error) {
	edges, err := rs.connRepo.ListForUser(ctx, nil, receiverID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "generate_failed", fmt.Errorf("error listing connections: %w", err))
	}
	if len(edges) == 0 {
		return nil, apierr.NewWithGuidance(http.StatusNotFound, "no_connections", []string{
			"You don't have any connections yet, so there is nothing to generate recommendations from.",
			"- Update your connections first",
		})
	}

	found := make(map[int64]struct{})
	skipped := 0
	for _, edge := range edges {
		connectionID := counterpartOf(edge.User1ID, edge.User2ID, receiverID)
		candidates, err := rs.userMovieRepo.HighlyRatedNotSeenBy(ctx, nil, connectionID, receiverID)
		if err != nil {
			rs.log.Warn("Skipping connection, candidate lookup failed",
				"receiver_id", receiverID,
				"connection_id", connectionID,
				"error", err,
			)
			skipped++
			continue
		}

		failed := false
		for _, candidate := range candidates {
			rec := &types.MovieRecommendation{
				RecommenderID: connectionID,
				ReceiverID:    receiverID,
				MovieID:       candidate.MovieID,
				Rating:        *candidate.Rating,
			}
			if err := rs.recRepo.Upsert(ctx, nil, rec, repos.KeepExisting); err != nil {
				rs.log.Warn("Skipping connection, fact write failed",
					"receiver_id", receiverID,
					"connection_id", connectionID,
					"movie_id", candidate.MovieID,
					"error", err,
				)
				failed = true
				break
			}
			found[candidate.MovieID] = struct{}{}
		}
		if failed {
			skipped++
		}
	}

	result := &GenerateResult{MoviesFound: len(found), SkippedConnections: skipped}
	rs.log.Info("Recommendations generated",
		"receiver_id", receiverID,
		"movies_found", result.MoviesFound,
		"skipped_connections", result.SkippedConnections,
	)
	return result, nil
}

func (rs *recommendationService) ViewForReceiver(ctx context.Context, receiverID uint) ([]*RecommendationViewRow, error) {
	facts, err := rs.recRepo.ListForReceiver(ctx, nil, receiverID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "recommendations_failed", fmt.Errorf("error listing recommendations: %w", err))
	}
	if len(facts) == 0 {
		return nil, apierr.NewWithGuidance(http.StatusNotFound, "no_recommendations", []string{
			"No recommendations available. To receive recommendations:",
			"- You need connections with other users",
			"- Your connections must have watched movies you haven't",
			"- Those movies must be rated well (4 or 5 stars)",
		})
	}

	movieIDs := make([]int64, 0, len(facts))
	recommenderIDs := make([]uint, 0, len(facts))
	for _, fact := range facts {
		movieIDs = append(movieIDs, fact.MovieID)
		recommenderIDs = append(recommenderIDs, fact.RecommenderID)
	}
	movies, err := rs.movieRepo.GetByIDs(ctx, nil, movieIDs)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "recommendations_failed", fmt.Errorf("error fetching movies: %w", err))
	}
	moviesByID := make(map[int64]*types.Movie, len(movies))
	for _, m := range movies {
		moviesByID[m.ID] = m
	}
	recommenders, err := rs.userRepo.GetByIDs(ctx, nil, recommenderIDs)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "recommendations_failed", fmt.Errorf("error fetching recommenders: %w", err))
	}
	usersByID := make(map[uint]*types.User, len(recommenders))
	for _, u := range recommenders {
		usersByID[u.ID] = u
	}

	// Facts arrive newest first; grouping preserves that order for the
	// per-movie rows and keeps the newest created_at per row.
	rowsByMovie := make(map[int64]*RecommendationViewRow, len(facts))
	var rows []*RecommendationViewRow
	for _, fact := range facts {
		row, ok := rowsByMovie[fact.MovieID]
		if !ok {
			movie, found := moviesByID[fact.MovieID]
			if !found {
				rs.log.Warn("Recommendation references missing movie", "movie_id", fact.MovieID)
				continue
			}
			row = &RecommendationViewRow{
				Movie:     movie,
				CreatedAt: fact.CreatedAt,
			}
			rowsByMovie[fact.MovieID] = row
			rows = append(rows, row)
		}
		info := RecommenderInfo{UserID: fact.RecommenderID, Rating: fact.Rating}
		if u, ok := usersByID[fact.RecommenderID]; ok {
			info.Name = u.Name
			info.Gravatar = u.Gravatar
		}
		row.Recommenders = append(row.Recommenders, info)
		row.RecommenderCount = len(row.Recommenders)
	}
	return rows, nil
}

func (rs *recommendationService) GetRecommendationsFor(ctx context.Context, receiverID uint) (*RecommendationsResponse, error) {
	rows, err := rs.ViewForReceiver(ctx, receiverID)
	if err != nil {
		return nil, err
	}

	receiver, err := rs.userRepo.GetByID(ctx, nil, receiverID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "recommendations_failed", fmt.Errorf("error fetching receiver: %w", err))
	}
	if receiver == nil {
		return nil, apierr.New(http.StatusNotFound, "user_not_found", fmt.Errorf("user %d not found", receiverID))
	}

	movies := make([]*types.Movie, 0, len(rows))
	for _, row := range rows {
		movies = append(movies, row.Movie)
	}
	features := BuildMovieFeatures(receiver.FavoriteGenres, movies, time.Now().UTC())

	response := &RecommendationsResponse{Recommendations: rows}
	predictions, err := rs.mlClient.PredictBatch(ctx, features)
	if err != nil {
		// Degrade: the social list still goes out, unannotated.
		rs.log.Warn("ML prediction unavailable, returning recommendations without predictions",
			"receiver_id", receiverID,
			"error", err,
		)
		response.MLError = fmt.Sprintf("ML predictions unavailable: %v", err)
		return response, nil
	}

	predictionsByMovie := make(map[int64]*MoviePrediction, len(predictions))
	for i := range predictions {
		predictionsByMovie[predictions[i].MovieID] = &predictions[i]
	}
	for _, row := range rows {
		row.MLPrediction = predictionsByMovie[row.Movie.ID]
	}
	response.TotalPredictions = len(predictions)
	return response, nil
}

func (rs *recommendationService) KNNRecommendationsFor(ctx context.Context, userID uint, limit int) (*KNNRecommendationsResult, error) {
	exclude, err := rs.userMovieRepo.MovieIDsForUser(ctx, nil, userID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "knn_recommendations_failed", fmt.Errorf("error listing seen movies: %w", err))
	}
	result, err := rs.knnClient.RecommendationsFor(ctx, userID, limit, exclude)
	if err != nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "knn_unavailable", fmt.Errorf("KNN service unavailable: %w", err))
	}
	return result, nil
}
