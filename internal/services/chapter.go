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

type ChapterService interface {
	CreateManual(ctx context.Context, userID, courseID, subjectID uuid.UUID, name string) (*types.Chapter, error)
	List(ctx context.Context, userID, courseID, subjectID uuid.UUID) ([]*types.Chapter, error)
	Update(ctx context.Context, userID, courseID, subjectID, chapterID uuid.UUID, fields map[string]any) (*types.Chapter, error)
	Delete(ctx context.Context, userID, courseID, subjectID, chapterID uuid.UUID) error
}

type chapterService struct {
	db          *gorm.DB
	log         *logger.Logger
	ownership   OwnershipService
	genState    GenStateTracker
	chapterRepo repos.ChapterRepo
}

func NewChapterService(
	db *gorm.DB,
	baseLog *logger.Logger,
	ownership OwnershipService,
	genState GenStateTracker,
	chapterRepo repos.ChapterRepo,
) ChapterService {
	return &chapterService{
		db:          db,
		log:         baseLog.With("service", "ChapterService"),
		ownership:   ownership,
		genState:    genState,
		chapterRepo: chapterRepo,
	}
}

func (cs *chapterService) CreateManual(ctx context.Context, userID, courseID, subjectID uuid.UUID, name string) (*types.Chapter, error) {
	name = normalization.TrimName(name)
	if name == "" {
		return nil, fmt.Errorf("%w: a chapter name is required", apperrors.ErrValidation)
	}
	if _, err := cs.ownership.AuthorizeSubject(ctx, nil, userID, courseID, subjectID); err != nil {
		return nil, err
	}
	var created *types.Chapter
	err := cs.db.Transaction(func(tx *gorm.DB) error {
		count, err := cs.chapterRepo.CountBySubjectID(ctx, tx, subjectID)
		if err != nil {
			return err
		}
		rows, err := cs.chapterRepo.Create(ctx, tx, []*types.Chapter{{
			ID:        uuid.New(),
			SubjectID: subjectID,
			Name:      name,
			Position:  int(count),
		}})
		if err != nil {
			return err
		}
		created = rows[0]
		return cs.genState.SetHasChildren(ctx, tx, hierarchy.KindSubject, subjectID, true)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (cs *chapterService) List(ctx context.Context, userID, courseID, subjectID uuid.UUID) ([]*types.Chapter, error) {
	if _, err := cs.ownership.AuthorizeSubject(ctx, nil, userID, courseID, subjectID); err != nil {
		return nil, err
	}
	return cs.chapterRepo.GetBySubjectIDs(ctx, nil, []uuid.UUID{subjectID})
}

func (cs *chapterService) Update(ctx context.Context, userID, courseID, subjectID, chapterID uuid.UUID, fields map[string]any) (*types.Chapter, error) {
	if _, err := cs.ownership.AuthorizeChapter(ctx, nil, userID, courseID, subjectID, chapterID); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if name, ok := fields["name"].(string); ok {
		name = normalization.TrimName(name)
		if name == "" {
			return nil, fmt.Errorf("%w: chapter name cannot be empty", apperrors.ErrValidation)
		}
		updates["name"] = name
	}
	if position, ok := numericField(fields, "position"); ok {
		updates["position"] = position
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no updatable fields given", apperrors.ErrValidation)
	}
	if err := cs.chapterRepo.UpdateFields(ctx, nil, chapterID, updates); err != nil {
		return nil, err
	}
	rows, err := cs.chapterRepo.GetByIDs(ctx, nil, []uuid.UUID{chapterID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return rows[0], nil
}

func (cs *chapterService) Delete(ctx context.Context, userID, courseID, subjectID, chapterID uuid.UUID) error {
	if _, err := cs.ownership.AuthorizeChapter(ctx, nil, userID, courseID, subjectID, chapterID); err != nil {
		return err
	}
	return cs.db.Transaction(func(tx *gorm.DB) error {
		if err := cs.chapterRepo.DeleteByIDs(ctx, tx, []uuid.UUID{chapterID}); err != nil {
			return err
		}
		count, err := cs.chapterRepo.CountBySubjectID(ctx, tx, subjectID)
		if err != nil {
			return err
		}
		if count == 0 {
			return cs.genState.SetHasChildren(ctx, tx, hierarchy.KindSubject, subjectID, false)
		}
		return nil
	})
}
