package services

import (
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/JairAlexey/moviematch-backend/internal/types"
)

func TestBuildMovieFeatures(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	release2010 := time.Date(2010, 7, 16, 0, 0, 0, 0, time.UTC)
	releaseFuture := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	movies := []*types.Movie{
		{
			ID:          27205,
			GenreIDs:    datatypes.JSONSlice[int64]{28, 878, 12},
			VoteAverage: 8.4,
			VoteCount:   36000,
			Popularity:  95.5,
			ReleaseDate: &release2010,
		},
		{
			ID:          900001,
			GenreIDs:    datatypes.JSONSlice[int64]{35},
			ReleaseDate: &releaseFuture,
		},
		{
			ID: 900002,
			// No genres, no release date.
		},
	}

	features := BuildMovieFeatures([]int64{28, 12, 16}, movies, now)
	if len(features) != 3 {
		t.Fatalf("got %d feature vectors, want 3", len(features))
	}

	first := features[0]
	if first.MovieID != 27205 {
		t.Fatalf("movie_id=%d, want 27205", first.MovieID)
	}
	if first.NSharedGenres != 2 {
		t.Fatalf("n_shared_genres=%d, want 2", first.NSharedGenres)
	}
	if first.IsFavoriteGenre != 1 {
		t.Fatalf("is_favorite_genre=%d, want 1", first.IsFavoriteGenre)
	}
	if first.YearsSinceRelease != 15 {
		t.Fatalf("years_since_release=%d, want 15", first.YearsSinceRelease)
	}
	if first.VoteAverage != 8.4 || first.VoteCount != 36000 || first.Popularity != 95.5 {
		t.Fatalf("vote/popularity stats not carried through: %+v", first)
	}

	second := features[1]
	if second.NSharedGenres != 0 || second.IsFavoriteGenre != 0 {
		t.Fatalf("no shared genres expected, got %+v", second)
	}
	if second.YearsSinceRelease != 0 {
		t.Fatalf("unreleased title should floor at 0 years, got %d", second.YearsSinceRelease)
	}

	third := features[2]
	if third.YearsSinceRelease != 0 || third.NSharedGenres != 0 {
		t.Fatalf("missing metadata should produce zero features, got %+v", third)
	}
}

func TestBuildMovieFeaturesNoFavorites(t *testing.T) {
	movies := []*types.Movie{{ID: 1, GenreIDs: datatypes.JSONSlice[int64]{28}}}
	features := BuildMovieFeatures(nil, movies, time.Now())
	if features[0].NSharedGenres != 0 || features[0].IsFavoriteGenre != 0 {
		t.Fatalf("expected zero overlap with no favorites, got %+v", features[0])
	}
}
