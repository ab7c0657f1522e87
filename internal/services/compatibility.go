package services

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/JairAlexey/moviematch-backend/internal/logger"
	"github.com/JairAlexey/moviematch-backend/internal/repos"
	"github.com/JairAlexey/moviematch-backend/internal/types"
)

const (
	movieSimilarityWeight = 0.6
	genreSimilarityWeight = 0.4
)

// CompatibilityService computes the 0-100 compatibility score between two
// users: 60% rating similarity over commonly rated movies, 40% favorite
// genre overlap. The score is deterministic and symmetric.
type CompatibilityService interface {
	Score(ctx context.Context, tx *gorm.DB, user1ID, user2ID uint) (int, error)
}

type compatibilityService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userMovieRepo repos.UserMovieRepo
}

func NewCompatibilityService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, userMovieRepo repos.UserMovieRepo) CompatibilityService {
	serviceLog := log.With("service", "CompatibilityService")
	return &compatibilityService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userMovieRepo: userMovieRepo,
	}
}

func (cs *compatibilityService) Score(ctx context.Context, tx *gorm.DB, user1ID, user2ID uint) (int, error) {
	users, err := cs.userRepo.GetByIDs(ctx, tx, []uint{user1ID, user2ID})
	if err != nil {
		return 0, fmt.Errorf("error fetching users for scoring: %w", err)
	}
	var user1, user2 *types.User
	for _, u := range users {
		switch u.ID {
		case user1ID:
			user1 = u
		case user2ID:
			user2 = u
		}
	}
	if user1 == nil || user2 == nil {
		return 0, fmt.Errorf("user pair (%d, %d) not found", user1ID, user2ID)
	}

	rows1, err := cs.userMovieRepo.RatingsByUser(ctx, tx, user1ID)
	if err != nil {
		return 0, fmt.Errorf("error fetching ratings for user %d: %w", user1ID, err)
	}
	rows2, err := cs.userMovieRepo.RatingsByUser(ctx, tx, user2ID)
	if err != nil {
		return 0, fmt.Errorf("error fetching ratings for user %d: %w", user2ID, err)
	}

	movieScore := movieSimilarity(ratingMap(rows1), ratingMap(rows2))
	genreScore := genreSimilarity(user1.FavoriteGenres, user2.FavoriteGenres)

	return combineScores(movieScore, genreScore), nil
}

func ratingMap(rows []*types.UserMovie) map[int64]int {
	ratings := make(map[int64]int, len(rows))
	for _, row := range rows {
		if row.Rating != nil {
			ratings[row.MovieID] = *row.Rating
		}
	}
	return ratings
}

// movieSimilarity returns 0-100 from the absolute rating distance over the
// movies both users rated: (1 - sum|r1-r2| / (4*count)) * 100. Ratings are
// 1-5 so 4 is the maximum per-movie distance.
func movieSimilarity(ratings1, ratings2 map[int64]int) float64 {
	count := 0
	distance := 0
	for movieID, r1 := range ratings1 {
		r2, ok := ratings2[movieID]
		if !ok {
			continue
		}
		count++
		d := r1 - r2
		if d < 0 {
			d = -d
		}
		distance += d
	}
	if count == 0 {
		return 0
	}
	return (1 - float64(distance)/float64(count*4)) * 100
}

// genreSimilarity is the Jaccard overlap of the two favorite-genre sets,
// scaled to 0-100. An empty union scores 0.
func genreSimilarity(genres1, genres2 []int64) float64 {
	union := make(map[int64]struct{}, len(genres1)+len(genres2))
	set1 := make(map[int64]struct{}, len(genres1))
	for _, g := range genres1 {
		set1[g] = struct{}{}
		union[g] = struct{}{}
	}
	common := 0
	seen2 := make(map[int64]struct{}, len(genres2))
	for _, g := range genres2 {
		if _, dup := seen2[g]; dup {
			continue
		}
		seen2[g] = struct{}{}
		union[g] = struct{}{}
		if _, ok := set1[g]; ok {
			common++
		}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(common) / float64(len(union)) * 100
}

func combineScores(movieScore, genreScore float64) int {
	score := int(math.Round(movieScore*movieSimilarityWeight + genreScore*genreSimilarityWeight))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
