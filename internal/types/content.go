package types

import (
	"time"

	"github.com/google/uuid"
)

// Content holds the normalized study document for a topic. At most one row
// exists per topic; the unique index on topic_id backs that invariant at
// the database level.
type Content struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TopicID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"topic_id"`
	Topic     *Topic    `gorm:"constraint:OnDelete:CASCADE;foreignKey:TopicID;references:ID" json:"topic,omitempty"`
	Body      string    `gorm:"column:body;type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Content) TableName() string { return "content" }
