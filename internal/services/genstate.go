package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coursecraft/coursecraft-backend/internal/hierarchy"
	apperrors "github.com/coursecraft/coursecraft-backend/internal/pkg/errors"
	"github.com/coursecraft/coursecraft-backend/internal/pkg/logger"
)

// GenStateTracker reads and flips the per-parent has-children flags.
// SetHasChildren must run in the same transaction as the child writes it
// reflects; the flag and the child set are never allowed to diverge.
type GenStateTracker interface {
	HasChildren(ctx context.Context, tx *gorm.DB, parent hierarchy.Kind, parentID uuid.UUID) (bool, error)
	SetHasChildren(ctx context.Context, tx *gorm.DB, parent hierarchy.Kind, parentID uuid.UUID, has bool) error
}

type genStateTracker struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGenStateTracker(db *gorm.DB, baseLog *logger.Logger) GenStateTracker {
	return &genStateTracker{db: db, log: baseLog.With("service", "GenStateTracker")}
}

func flagColumn(parent hierarchy.Kind) (table string, column string, err error) {
	switch parent {
	case hierarchy.KindCourse:
		return "course", "has_subjects", nil
	case hierarchy.KindSubject:
		return "subject", "has_chapters", nil
	case hierarchy.KindChapter:
		return "chapter", "has_topics", nil
	case hierarchy.KindTopic:
		return "topic", "has_content", nil
	default:
		return "", "", fmt.Errorf("kind %q has no children flag", parent)
	}
}

func (gt *genStateTracker) HasChildren(ctx context.Context, tx *gorm.DB, parent hierarchy.Kind, parentID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = gt.db
	}
	table, column, err := flagColumn(parent)
	if err != nil {
		return false, err
	}
	var flags []bool
	if err := transaction.WithContext(ctx).
		Table(table).
		Where("id = ?", parentID).
		Pluck(column, &flags).Error; err != nil {
		return false, err
	}
	if len(flags) == 0 {
		return false, apperrors.ErrNotFound
	}
	return flags[0], nil
}

func (gt *genStateTracker) SetHasChildren(ctx context.Context, tx *gorm.DB, parent hierarchy.Kind, parentID uuid.UUID, has bool) error {
	transaction := tx
	if transaction == nil {
		transaction = gt.db
	}
	table, column, err := flagColumn(parent)
	if err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Table(table).
		Where("id = ?", parentID).
		Updates(map[string]any{column: has, "updated_at": time.Now()}).Error
}
