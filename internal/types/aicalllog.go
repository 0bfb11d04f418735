package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AICallLog is an audit row for every call made to the content provider.
type AICallLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index" json:"user_id,omitempty"`
	ParentID   *uuid.UUID     `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	CallType   string         `gorm:"column:call_type;not null" json:"call_type"`
	Model      string         `gorm:"column:model" json:"model"`
	PromptLen  int            `gorm:"column:prompt_len" json:"prompt_len"`
	DurationMS int64          `gorm:"column:duration_ms" json:"duration_ms"`
	Success    bool           `gorm:"column:success;not null" json:"success"`
	Error      string         `gorm:"column:error" json:"error"`
	Metadata   datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (AICallLog) TableName() string { return "ai_call_log" }
