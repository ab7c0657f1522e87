package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/JairAlexey/moviematch-backend/internal/logger"
	"github.com/JairAlexey/moviematch-backend/internal/repos"
	"github.com/JairAlexey/moviematch-backend/internal/types"
)

func testLogger(t interface{ Fatalf(string, ...interface{}) }) *logger.Logger {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("failed to init test logger: %v", err)
	}
	return log
}

func userMovieKey(userID uint, movieID int64) string {
	return fmt.Sprintf("%d:%d", userID, movieID)
}

type fakeUserRepo struct {
	users map[uint]*types.User
}

func newFakeUserRepo(users ...*types.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uint]*types.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) error {
	if user.ID == 0 {
		var max uint
		for id := range r.users {
			if id > max {
				max = id
			}
		}
		user.ID = max + 1
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uint) (*types.User, error) {
	return r.users[userID], nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uint) ([]*types.User, error) {
	var out []*types.User
	for _, id := range userIDs {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	u, _ := r.GetByEmail(ctx, tx, email)
	return u != nil, nil
}

func (r *fakeUserRepo) ListIDsExcept(ctx context.Context, tx *gorm.DB, userID uint) ([]uint, error) {
	var ids []uint
	for id := range r.users {
		if id != userID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type fakeMovieRepo struct {
	movies map[int64]*types.Movie
}

func newFakeMovieRepo(movies ...*types.Movie) *fakeMovieRepo {
	r := &fakeMovieRepo{movies: make(map[int64]*types.Movie)}
	for _, m := range movies {
		r.movies[m.ID] = m
	}
	return r
}

func (r *fakeMovieRepo) GetByID(ctx context.Context, tx *gorm.DB, movieID int64) (*types.Movie, error) {
	return r.movies[movieID], nil
}

func (r *fakeMovieRepo) GetByIDs(ctx context.Context, tx *gorm.DB, movieIDs []int64) ([]*types.Movie, error) {
	var out []*types.Movie
	seen := make(map[int64]struct{})
	for _, id := range movieIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if m, ok := r.movies[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeUserMovieRepo struct {
	rows map[string]*types.UserMovie
	// candidateErrs fails HighlyRatedNotSeenBy for specific raters, to
	// simulate one broken connection inside a batch run.
	candidateErrs map[uint]error
}

func newFakeUserMovieRepo() *fakeUserMovieRepo {
	return &fakeUserMovieRepo{
		rows:          make(map[string]*types.UserMovie),
		candidateErrs: make(map[uint]error),
	}
}

func (r *fakeUserMovieRepo) addRating(userID uint, movieID int64, rating int) {
	rt := rating
	r.rows[userMovieKey(userID, movieID)] = &types.UserMovie{
		UserID:  userID,
		MovieID: movieID,
		Watched: true,
		Rating:  &rt,
	}
}

func (r *fakeUserMovieRepo) addWatched(userID uint, movieID int64) {
	r.rows[userMovieKey(userID, movieID)] = &types.UserMovie{
		UserID:  userID,
		MovieID: movieID,
		Watched: true,
	}
}

func (r *fakeUserMovieRepo) RatingsByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*types.UserMovie, error) {
	var out []*types.UserMovie
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MovieID < out[j].MovieID })
	return out, nil
}

func (r *fakeUserMovieRepo) HasRow(ctx context.Context, tx *gorm.DB, userID uint, movieID int64) (bool, error) {
	_, ok := r.rows[userMovieKey(userID, movieID)]
	return ok, nil
}

func (r *fakeUserMovieRepo) MovieIDsForUser(ctx context.Context, tx *gorm.DB, userID uint) ([]int64, error) {
	var ids []int64
	for _, row := range r.rows {
		if row.UserID == userID {
			ids = append(ids, row.MovieID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *fakeUserMovieRepo) HighlyRatedNotSeenBy(ctx context.Context, tx *gorm.DB, raterID, receiverID uint) ([]*types.UserMovie, error) {
	if err := r.candidateErrs[raterID]; err != nil {
		return nil, err
	}
	var out []*types.UserMovie
	for _, row := range r.rows {
		if row.UserID != raterID || row.Rating == nil || *row.Rating < 4 {
			continue
		}
		if _, seen := r.rows[userMovieKey(receiverID, row.MovieID)]; seen {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MovieID < out[j].MovieID })
	return out, nil
}

func (r *fakeUserMovieRepo) MarkWatched(ctx context.Context, tx *gorm.DB, userID uint, movieID int64) (*types.UserMovie, error) {
	key := userMovieKey(userID, movieID)
	if row, ok := r.rows[key]; ok {
		row.Watched = true
		return row, nil
	}
	row := &types.UserMovie{UserID: userID, MovieID: movieID, Watched: true}
	r.rows[key] = row
	return row, nil
}

func (r *fakeUserMovieRepo) Delete(ctx context.Context, tx *gorm.DB, userID uint, movieID int64) (int64, error) {
	key := userMovieKey(userID, movieID)
	if _, ok := r.rows[key]; !ok {
		return 0, nil
	}
	delete(r.rows, key)
	return 1, nil
}

func (r *fakeUserMovieRepo) SetCommentAndRating(ctx context.Context, tx *gorm.DB, userID uint, movieID int64, comment string, rating int) (int64, error) {
	row, ok := r.rows[userMovieKey(userID, movieID)]
	if !ok || !row.Watched {
		return 0, nil
	}
	row.Comment = comment
	rt := rating
	row.Rating = &rt
	return 1, nil
}

type fakeConnRepo struct {
	edges map[string]*types.UserConnection
}

func newFakeConnRepo() *fakeConnRepo {
	return &fakeConnRepo{edges: make(map[string]*types.UserConnection)}
}

func (r *fakeConnRepo) addEdge(user1ID, user2ID uint, score int) {
	key := fmt.Sprintf("%d:%d", user1ID, user2ID)
	r.edges[key] = &types.UserConnection{
		User1ID:            user1ID,
		User2ID:            user2ID,
		CompatibilityScore: score,
		ComputedAt:         time.Now().UTC(),
	}
}

func (r *fakeConnRepo) Upsert(ctx context.Context, tx *gorm.DB, user1ID, user2ID uint, score int) error {
	r.addEdge(user1ID, user2ID, score)
	return nil
}

func (r *fakeConnRepo) ListForUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*types.UserConnection, error) {
	var out []*types.UserConnection
	for _, edge := range r.edges {
		if edge.User1ID == userID || edge.User2ID == userID {
			out = append(out, edge)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompatibilityScore != out[j].CompatibilityScore {
			return out[i].CompatibilityScore > out[j].CompatibilityScore
		}
		return out[i].User1ID < out[j].User1ID
	})
	return out, nil
}

func recKey(rec *types.MovieRecommendation) string {
	return fmt.Sprintf("%d:%d:%d", rec.RecommenderID, rec.ReceiverID, rec.MovieID)
}

type fakeRecRepo struct {
	facts     map[string]*types.MovieRecommendation
	upsertErr error
	seq       int
}

func newFakeRecRepo() *fakeRecRepo {
	return &fakeRecRepo{facts: make(map[string]*types.MovieRecommendation)}
}

func (r *fakeRecRepo) Upsert(ctx context.Context, tx *gorm.DB, rec *types.MovieRecommendation, policy repos.ConflictPolicy) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	key := recKey(rec)
	if existing, ok := r.facts[key]; ok {
		if policy == repos.ReplaceRating {
			existing.Rating = rec.Rating
		}
		return nil
	}
	r.seq++
	stored := *rec
	stored.CreatedAt = time.Unix(int64(r.seq), 0).UTC()
	r.facts[key] = &stored
	return nil
}

func (r *fakeRecRepo) ListForReceiver(ctx context.Context, tx *gorm.DB, receiverID uint) ([]*types.MovieRecommendation, error) {
	var out []*types.MovieRecommendation
	for _, fact := range r.facts {
		if fact.ReceiverID == receiverID {
			out = append(out, fact)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRecRepo) DeleteByRecommenderAndMovie(ctx context.Context, tx *gorm.DB, recommenderID uint, movieID int64) error {
	for key, fact := range r.facts {
		if fact.RecommenderID == recommenderID && fact.MovieID == movieID {
			delete(r.facts, key)
		}
	}
	return nil
}

type fakeMLClient struct {
	predictions []MoviePrediction
	err         error
}

func (c *fakeMLClient) PredictBatch(ctx context.Context, features []MovieFeatures) ([]MoviePrediction, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.predictions, nil
}

func (c *fakeMLClient) Predict(ctx context.Context, features MovieFeatures) (*MoviePrediction, error) {
	if c.err != nil {
		return nil, c.err
	}
	if len(c.predictions) == 0 {
		return nil, fmt.Errorf("no prediction configured")
	}
	return &c.predictions[0], nil
}

func (c *fakeMLClient) Health(ctx context.Context) error { return c.err }

type fakeKNNClient struct {
	status *KNNStatus
	result *KNNRecommendationsResult
	err    error
}

func (c *fakeKNNClient) Status(ctx context.Context) *KNNStatus {
	if c.status != nil {
		return c.status
	}
	return &KNNStatus{Status: KNNStatusOffline}
}

func (c *fakeKNNClient) RecommendationsFor(ctx context.Context, userID uint, limit int, excludeMovieIDs []int64) (*KNNRecommendationsResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

func (c *fakeKNNClient) SimilarMoviesTo(ctx context.Context, movieID int64, limit int) ([]SimilarMovie, error) {
	if c.err != nil {
		return nil, c.err
	}
	return nil, nil
}
