package types

import (
	"time"
)

// UserConnection is a materialized compatibility edge. The pair is stored
// canonically with User1ID < User2ID so (a,b) and (b,a) hit the same row.
type UserConnection struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	User1ID            uint      `gorm:"not null;uniqueIndex:idx_user_connections_pair;column:user1_id" json:"user1_id"`
	User1              *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:User1ID;references:ID" json:"user1,omitempty"`
	User2ID            uint      `gorm:"not null;uniqueIndex:idx_user_connections_pair;column:user2_id" json:"user2_id"`
	User2              *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:User2ID;references:ID" json:"user2,omitempty"`
	CompatibilityScore int       `gorm:"not null;column:compatibility_score" json:"compatibility_score"`
	ComputedAt         time.Time `gorm:"not null;default:now();column:computed_at" json:"computed_at"`
}

func (UserConnection) TableName() string {
	return "user_connections"
}
