package repos

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/coursecraft/coursecraft-backend/internal/pkg/errors"
	"github.com/coursecraft/coursecraft-backend/internal/pkg/logger"
	"github.com/coursecraft/coursecraft-backend/internal/types"
)

type ContentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, content *types.Content) (*types.Content, error)
	GetByTopicIDs(ctx context.Context, tx *gorm.DB, topicIDs []uuid.UUID) ([]*types.Content, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, contentID uuid.UUID, fields map[string]any) error
	DeleteByTopicIDs(ctx context.Context, tx *gorm.DB, topicIDs []uuid.UUID) error
}

type contentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentRepo(db *gorm.DB, baseLog *logger.Logger) ContentRepo {
	repoLog := baseLog.With("repo", "ContentRepo")
	return &contentRepo{db: db, log: repoLog}
}

func (cr *contentRepo) Create(ctx context.Context, tx *gorm.DB, content *types.Content) (*types.Content, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if content == nil {
		return nil, nil
	}
	if err := transaction.WithContext(ctx).Create(content).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrAlreadyExists
		}
		return nil, err
	}
	return content, nil
}

// isUniqueViolation detects the (topic_id) uniqueness breach on both the
// postgres and the sqlite (tests) drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint")
}

func (cr *contentRepo) GetByTopicIDs(ctx context.Context, tx *gorm.DB, topicIDs []uuid.UUID) ([]*types.Content, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Content
	if len(topicIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("topic_id IN ?", topicIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *contentRepo) UpdateFields(ctx context.Context, tx *gorm.DB, contentID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Content{}).
		Where("id = ?", contentID).
		Updates(fields).Error
}

func (cr *contentRepo) DeleteByTopicIDs(ctx context.Context, tx *gorm.DB, topicIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(topicIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("topic_id IN ?", topicIDs).
		Delete(&types.Content{}).Error
}
