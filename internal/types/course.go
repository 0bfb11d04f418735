package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Course is the root of a user-owned study hierarchy. Everything below it
// (subjects, chapters, topics, content) is produced by the generation
// pipeline or by the manual CRUD paths; the course itself is always
// user-authored.
type Course struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Description string         `gorm:"column:description" json:"description"`
	HasSubjects bool           `gorm:"column:has_subjects;not null;default:false" json:"has_subjects"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Course) TableName() string { return "course" }
