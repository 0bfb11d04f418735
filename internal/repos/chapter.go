package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coursecraft/coursecraft-backend/internal/pkg/logger"
	"github.com/coursecraft/coursecraft-backend/internal/types"
)

type ChapterRepo interface {
	Create(ctx context.Context, tx *gorm.DB, chapters []*types.Chapter) ([]*types.Chapter, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) ([]*types.Chapter, error)
	GetBySubjectIDs(ctx context.Context, tx *gorm.DB, subjectIDs []uuid.UUID) ([]*types.Chapter, error)
	CountBySubjectID(ctx context.Context, tx *gorm.DB, subjectID uuid.UUID) (int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, chapterID uuid.UUID, fields map[string]any) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) error
	DeleteBySubjectIDs(ctx context.Context, tx *gorm.DB, subjectIDs []uuid.UUID) error
}

type chapterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChapterRepo(db *gorm.DB, baseLog *logger.Logger) ChapterRepo {
	repoLog := baseLog.With("repo", "ChapterRepo")
	return &chapterRepo{db: db, log: repoLog}
}

func (cr *chapterRepo) Create(ctx context.Context, tx *gorm.DB, chapters []*types.Chapter) ([]*types.Chapter, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(chapters) == 0 {
		return []*types.Chapter{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&chapters).Error; err != nil {
		return nil, err
	}
	return chapters, nil
}

func (cr *chapterRepo) GetByIDs(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) ([]*types.Chapter, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Chapter
	if len(chapterIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", chapterIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *chapterRepo) GetBySubjectIDs(ctx context.Context, tx *gorm.DB, subjectIDs []uuid.UUID) ([]*types.Chapter, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Chapter
	if len(subjectIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("subject_id IN ?", subjectIDs).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *chapterRepo) CountBySubjectID(ctx context.Context, tx *gorm.DB, subjectID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Chapter{}).
		Where("subject_id = ?", subjectID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (cr *chapterRepo) UpdateFields(ctx context.Context, tx *gorm.DB, chapterID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Chapter{}).
		Where("id = ?", chapterID).
		Updates(fields).Error
}

func (cr *chapterRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(chapterIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", chapterIDs).
		Delete(&types.Chapter{}).Error
}

func (cr *chapterRepo) DeleteBySubjectIDs(ctx context.Context, tx *gorm.DB, subjectIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(subjectIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("subject_id IN ?", subjectIDs).
		Delete(&types.Chapter{}).Error
}
