package types

import (
	"time"
)

// UserMovie is the single row per (user, movie): watched flag, optional
// rating 1-5 and optional comment. Any existing row, rated or not, makes
// the movie ineligible for recommendation to that user.
type UserMovie struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_movies_user_movie;column:user_id" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	MovieID   int64     `gorm:"not null;uniqueIndex:idx_user_movies_user_movie;column:movie_id" json:"movie_id"`
	Movie     *Movie    `gorm:"constraint:OnDelete:CASCADE;foreignKey:MovieID;references:ID" json:"movie,omitempty"`
	Watched   bool      `gorm:"not null;default:false;column:watched" json:"watched"`
	Rating    *int      `gorm:"column:rating" json:"rating,omitempty"`
	Comment   string    `gorm:"column:comment" json:"comment,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserMovie) TableName() string {
	return "user_movies"
}
