package types

import (
	"time"

	"github.com/google/uuid"
)

type Topic struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChapterID  uuid.UUID `gorm:"type:uuid;not null;index" json:"chapter_id"`
	Chapter    *Chapter  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChapterID;references:ID" json:"chapter,omitempty"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	Position   int       `gorm:"column:position;not null" json:"position"`
	HasContent bool      `gorm:"column:has_content;not null;default:false" json:"has_content"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Topic) TableName() string { return "topic" }
