package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/coursecraft/coursecraft-backend/internal/pkg/errors"
	"github.com/coursecraft/coursecraft-backend/internal/hierarchy"
	"github.com/coursecraft/coursecraft-backend/internal/markdown"
	"github.com/coursecraft/coursecraft-backend/internal/pkg/logger"
	"github.com/coursecraft/coursecraft-backend/internal/repos"
	"github.com/coursecraft/coursecraft-backend/internal/types"
)

// ContentService covers the manual paths for topic content: writing a
// document by hand instead of generating it, editing it, and removing
// it. Manual bodies pass through the same markdown normalization as
// generated ones, so diagrams render either way.
type ContentService interface {
	CreateManual(ctx context.Context, userID, courseID, subjectID, chapterID, topicID uuid.UUID, body string) (*types.Content, error)
	Update(ctx context.Context, userID, courseID, subjectID, chapterID, topicID uuid.UUID, body string) (*types.Content, error)
	Delete(ctx context.Context, userID, courseID, subjectID, chapterID, topicID uuid.UUID) error
}

type contentService struct {
	db          *gorm.DB
	log         *logger.Logger
	ownership   OwnershipService
	genState    GenStateTracker
	contentRepo repos.ContentRepo
}

func NewContentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	ownership OwnershipService,
	genState GenStateTracker,
	contentRepo repos.ContentRepo,
) ContentService {
	return &contentService{
		db:          db,
		log:         baseLog.With("service", "ContentService"),
		ownership:   ownership,
		genState:    genState,
		contentRepo: contentRepo,
	}
}

func (cs *contentService) CreateManual(ctx context.Context, userID, courseID, subjectID, chapterID, topicID uuid.UUID, body string) (*types.Content, error) {
	body = markdown.Normalize(body)
	if body == "" {
		return nil, fmt.Errorf("%w: a content body is required", apperrors.ErrValidation)
	}
	if _, err := cs.ownership.AuthorizeTopic(ctx, nil, userID, courseID, subjectID, chapterID, topicID); err != nil {
		return nil, err
	}
	var created *types.Content
	err := cs.db.Transaction(func(tx *gorm.DB) error {
		row, err := cs.contentRepo.Create(ctx, tx, &types.Content{
			ID:      uuid.New(),
			TopicID: topicID,
			Body:    body,
		})
		if err != nil {
			return err
		}
		created = row
		return cs.genState.SetHasChildren(ctx, tx, hierarchy.KindTopic, topicID, true)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (cs *contentService) Update(ctx context.Context, userID, courseID, subjectID, chapterID, topicID uuid.UUID, body string) (*types.Content, error) {
	body = markdown.Normalize(body)
	if body == "" {
		return nil, fmt.Errorf("%w: a content body is required", apperrors.ErrValidation)
	}
	if _, err := cs.ownership.AuthorizeTopic(ctx, nil, userID, courseID, subjectID, chapterID, topicID); err != nil {
		return nil, err
	}
	rows, err := cs.contentRepo.GetByTopicIDs(ctx, nil, []uuid.UUID{topicID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrNotFound
	}
	existing := rows[0]
	if err := cs.contentRepo.UpdateFields(ctx, nil, existing.ID, map[string]any{"body": body}); err != nil {
		return nil, err
	}
	existing.Body = body
	return existing, nil
}

func (cs *contentService) Delete(ctx context.Context, userID, courseID, subjectID, chapterID, topicID uuid.UUID) error {
	if _, err := cs.ownership.AuthorizeTopic(ctx, nil, userID, courseID, subjectID, chapterID, topicID); err != nil {
		return err
	}
	return cs.db.Transaction(func(tx *gorm.DB) error {
		if err := cs.contentRepo.DeleteByTopicIDs(ctx, tx, []uuid.UUID{topicID}); err != nil {
			return err
		}
		return cs.genState.SetHasChildren(ctx, tx, hierarchy.KindTopic, topicID, false)
	})
}
