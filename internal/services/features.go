package services

import (
	"time"

	"github.com/JairAlexey/moviematch-backend/internal/types"
)

// MovieFeatures is the fixed feature vector the prediction model was
// trained on. Field names must match the model service's wire contract.
type MovieFeatures struct {
	MovieID           int64   `json:"movie_id"`
	NSharedGenres     int     `json:"n_shared_genres"`
	VoteAverage       float64 `json:"vote_average"`
	VoteCount         int64   `json:"vote_count"`
	IsFavoriteGenre   int     `json:"is_favorite_genre"`
	YearsSinceRelease int     `json:"years_since_release"`
	Popularity        float64 `json:"popularity"`
}

// BuildMovieFeatures maps catalog rows to feature vectors for one user.
// Genre overlap is computed against the user's favorite genres; age is in
// whole years from the release date, floored at 0 for unreleased titles.
func BuildMovieFeatures(favoriteGenres []int64, movies []*types.Movie, now time.Time) []MovieFeatures {
	favorites := make(map[int64]struct{}, len(favoriteGenres))
	for _, g := range favoriteGenres {
		favorites[g] = struct{}{}
	}

	features := make([]MovieFeatures, 0, len(movies))
	for _, movie := range movies {
		shared := 0
		for _, g := range movie.GenreIDs {
			if _, ok := favorites[g]; ok {
				shared++
			}
		}
		isFavorite := 0
		if shared >= 1 {
			isFavorite = 1
		}
		years := 0
		if movie.ReleaseDate != nil {
			years = now.Year() - movie.ReleaseDate.Year()
			if years < 0 {
				years = 0
			}
		}
		features = append(features, MovieFeatures{
			MovieID:           movie.ID,
			NSharedGenres:     shared,
			VoteAverage:       movie.VoteAverage,
			VoteCount:         movie.VoteCount,
			IsFavoriteGenre:   isFavorite,
			YearsSinceRelease: years,
			Popularity:        movie.Popularity,
		})
	}
	return features
}
