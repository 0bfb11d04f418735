package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/coursecraft/coursecraft-backend/internal/pkg/errors"
	"github.com/coursecraft/coursecraft-backend/internal/hierarchy"
	"github.com/coursecraft/coursecraft-backend/internal/normalization"
	"github.com/coursecraft/coursecraft-backend/internal/pkg/logger"
	"github.com/coursecraft/coursecraft-backend/internal/repos"
	"github.com/coursecraft/coursecraft-backend/internal/types"
)

type TopicService interface {
	CreateManual(ctx context.Context, userID, courseID, subjectID, chapterID uuid.UUID, name string) (*types.Topic, error)
	List(ctx context.Context, userID, courseID, subjectID, chapterID uuid.UUID) ([]*types.Topic, error)
	Update(ctx context.Context, userID, courseID, subjectID, chapterID, topicID uuid.UUID, fields map[string]any) (*types.Topic, error)
	Delete(ctx context.Context, userID, courseID, subjectID, chapterID, topicID uuid.UUID) error
}

type topicService struct {
	db        *gorm.DB
	log       *logger.Logger
	ownership OwnershipService
	genState  GenStateTracker
	topicRepo repos.TopicRepo
}

func NewTopicService(
	db *gorm.DB,
	baseLog *logger.Logger,
	ownership OwnershipService,
	genState GenStateTracker,
	topicRepo repos.TopicRepo,
) TopicService {
	return &topicService{
		db:        db,
		log:       baseLog.With("service", "TopicService"),
		ownership: ownership,
		genState:  genState,
		topicRepo: topicRepo,
	}
}

func (ts *topicService) CreateManual(ctx context.Context, userID, courseID, subjectID, chapterID uuid.UUID, name string) (*types.Topic, error) {
	name = normalization.TrimName(name)
	if name == "" {
		return nil, fmt.Errorf("%w: a topic name is required", apperrors.ErrValidation)
	}
	if _, err := ts.ownership.AuthorizeChapter(ctx, nil, userID, courseID, subjectID, chapterID); err != nil {
		return nil, err
	}
	var created *types.Topic
	err := ts.db.Transaction(func(tx *gorm.DB) error {
		count, err := ts.topicRepo.CountByChapterID(ctx, tx, chapterID)
		if err != nil {
			return err
		}
		rows, err := ts.topicRepo.Create(ctx, tx, []*types.Topic{{
			ID:        uuid.New(),
			ChapterID: chapterID,
			Name:      name,
			Position:  int(count),
		}})
		if err != nil {
			return err
		}
		created = rows[0]
		return ts.genState.SetHasChildren(ctx, tx, hierarchy.KindChapter, chapterID, true)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (ts *topicService) List(ctx context.Context, userID, courseID, subjectID, chapterID uuid.UUID) ([]*types.Topic, error) {
	if _, err := ts.ownership.AuthorizeChapter(ctx, nil, userID, courseID, subjectID, chapterID); err != nil {
		return nil, err
	}
	return ts.topicRepo.GetByChapterIDs(ctx, nil, []uuid.UUID{chapterID})
}

func (ts *topicService) Update(ctx context.Context, userID, courseID, subjectID, chapterID, topicID uuid.UUID, fields map[string]any) (*types.Topic, error) {
	if _, err := ts.ownership.AuthorizeTopic(ctx, nil, userID, courseID, subjectID, chapterID, topicID); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if name, ok := fields["name"].(string); ok {
		name = normalization.TrimName(name)
		if name == "" {
			return nil, fmt.Errorf("%w: topic name cannot be empty", apperrors.ErrValidation)
		}
		updates["name"] = name
	}
	if position, ok := numericField(fields, "position"); ok {
		updates["position"] = position
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no updatable fields given", apperrors.ErrValidation)
	}
	if err := ts.topicRepo.UpdateFields(ctx, nil, topicID, updates); err != nil {
		return nil, err
	}
	rows, err := ts.topicRepo.GetByIDs(ctx, nil, []uuid.UUID{topicID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return rows[0], nil
}

func (ts *topicService) Delete(ctx context.Context, userID, courseID, subjectID, chapterID, topicID uuid.UUID) error {
	if _, err := ts.ownership.AuthorizeTopic(ctx, nil, userID, courseID, subjectID, chapterID, topicID); err != nil {
		return err
	}
	return ts.db.Transaction(func(tx *gorm.DB) error {
		if err := ts.topicRepo.DeleteByIDs(ctx, tx, []uuid.UUID{topicID}); err != nil {
			return err
		}
		count, err := ts.topicRepo.CountByChapterID(ctx, tx, chapterID)
		if err != nil {
			return err
		}
		if count == 0 {
			return ts.genState.SetHasChildren(ctx, tx, hierarchy.KindChapter, chapterID, false)
		}
		return nil
	})
}
