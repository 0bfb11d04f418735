package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coursecraft/coursecraft-backend/internal/pkg/logger"
	"github.com/coursecraft/coursecraft-backend/internal/types"
)

type TopicRepo interface {
	Create(ctx context.Context, tx *gorm.DB, topics []*types.Topic) ([]*types.Topic, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, topicIDs []uuid.UUID) ([]*types.Topic, error)
	GetByChapterIDs(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) ([]*types.Topic, error)
	CountByChapterID(ctx context.Context, tx *gorm.DB, chapterID uuid.UUID) (int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, topicID uuid.UUID, fields map[string]any) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, topicIDs []uuid.UUID) error
	DeleteByChapterIDs(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) error
}

type topicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	repoLog := baseLog.With("repo", "TopicRepo")
	return &topicRepo{db: db, log: repoLog}
}

func (tr *topicRepo) Create(ctx context.Context, tx *gorm.DB, topics []*types.Topic) ([]*types.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if len(topics) == 0 {
		return []*types.Topic{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}

func (tr *topicRepo) GetByIDs(ctx context.Context, tx *gorm.DB, topicIDs []uuid.UUID) ([]*types.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Topic
	if len(topicIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", topicIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *topicRepo) GetByChapterIDs(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) ([]*types.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Topic
	if len(chapterIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("chapter_id IN ?", chapterIDs).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *topicRepo) CountByChapterID(ctx context.Context, tx *gorm.DB, chapterID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Topic{}).
		Where("chapter_id = ?", chapterID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (tr *topicRepo) UpdateFields(ctx context.Context, tx *gorm.DB, topicID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Topic{}).
		Where("id = ?", topicID).
		Updates(fields).Error
}

func (tr *topicRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, topicIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if len(topicIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", topicIDs).
		Delete(&types.Topic{}).Error
}

func (tr *topicRepo) DeleteByChapterIDs(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if len(chapterIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("chapter_id IN ?", chapterIDs).
		Delete(&types.Topic{}).Error
}
