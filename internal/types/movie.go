package types

import (
	"time"

	"gorm.io/datatypes"
)

// Movie mirrors the external catalog. Rows are written by the catalog sync
// job; this service only reads them.
type Movie struct {
	ID          int64                      `gorm:"primaryKey" json:"id"`
	Title       string                     `gorm:"not null;column:title" json:"title"`
	Overview    string                     `gorm:"column:overview" json:"overview"`
	GenreIDs    datatypes.JSONSlice[int64] `gorm:"type:jsonb;column:genre_ids" json:"genre_ids"`
	ReleaseDate *time.Time                 `gorm:"column:release_date" json:"release_date"`
	PosterPath  string                     `gorm:"column:poster_path" json:"poster_path"`
	VoteAverage float64                    `gorm:"column:vote_average" json:"vote_average"`
	VoteCount   int64                      `gorm:"column:vote_count" json:"vote_count"`
	Popularity  float64                    `gorm:"column:popularity" json:"popularity"`
	IsModified  bool                       `gorm:"column:is_modified;default:false" json:"is_modified"`
	CreatedAt   time.Time                  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time                  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Movie) TableName() string {
	return "movies"
}
