package types

import (
	"time"
)

// MovieRecommendation records that a connection's high rating qualifies a
// movie for a receiver. One row per (recommender, receiver, movie); the
// conflict policy on that key differs between the batch generator and the
// rating observer (see repos.ConflictPolicy).
type MovieRecommendation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RecommenderID uint      `gorm:"not null;uniqueIndex:idx_movie_recommendations_key;column:recommender_id" json:"recommender_id"`
	Recommender   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:RecommenderID;references:ID" json:"recommender,omitempty"`
	ReceiverID    uint      `gorm:"not null;uniqueIndex:idx_movie_recommendations_key;index;column:receiver_id" json:"receiver_id"`
	Receiver      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:ReceiverID;references:ID" json:"receiver,omitempty"`
	MovieID       int64     `gorm:"not null;uniqueIndex:idx_movie_recommendations_key;column:movie_id" json:"movie_id"`
	Movie         *Movie    `gorm:"constraint:OnDelete:CASCADE;foreignKey:MovieID;references:ID" json:"movie,omitempty"`
	Rating        int       `gorm:"not null;column:rating" json:"rating"`
	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (MovieRecommendation) TableName() string {
	return "movie_recommendations"
}
