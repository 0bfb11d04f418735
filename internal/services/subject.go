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

// SubjectService covers the manual, non-AI paths for subjects. Manual
// creation marks the course as populated; deleting the last subject
// clears that mark again, inside the same transaction as the delete.
type SubjectService interface {
	CreateManual(ctx context.Context, userID, courseID uuid.UUID, name string) (*types.Subject, error)
	List(ctx context.Context, userID, courseID uuid.UUID) ([]*types.Subject, error)
	Update(ctx context.Context, userID, courseID, subjectID uuid.UUID, fields map[string]any) (*types.Subject, error)
	Delete(ctx context.Context, userID, courseID, subjectID uuid.UUID) error
}

type subjectService struct {
	db          *gorm.DB
	log         *logger.Logger
	ownership   OwnershipService
	genState    GenStateTracker
	subjectRepo repos.SubjectRepo
}

func NewSubjectService(
	db *gorm.DB,
	baseLog *logger.Logger,
	ownership OwnershipService,
	genState GenStateTracker,
	subjectRepo repos.SubjectRepo,
) SubjectService {
	return &subjectService{
		db:          db,
		log:         baseLog.With("service", "SubjectService"),
		ownership:   ownership,
		genState:    genState,
		subjectRepo: subjectRepo,
	}
}

func (ss *subjectService) CreateManual(ctx context.Context, userID, courseID uuid.UUID, name string) (*types.Subject, error) {
	name = normalization.TrimName(name)
	if name == "" {
		return nil, fmt.Errorf("%w: a subject name is required", apperrors.ErrValidation)
	}
	if _, err := ss.ownership.AuthorizeCourse(ctx, nil, userID, courseID); err != nil {
		return nil, err
	}
	var created *types.Subject
	err := ss.db.Transaction(func(tx *gorm.DB) error {
		count, err := ss.subjectRepo.CountByCourseID(ctx, tx, courseID)
		if err != nil {
			return err
		}
		rows, err := ss.subjectRepo.Create(ctx, tx, []*types.Subject{{
			ID:       uuid.New(),
			CourseID: courseID,
			Name:     name,
			Position: int(count),
		}})
		if err != nil {
			return err
		}
		created = rows[0]
		return ss.genState.SetHasChildren(ctx, tx, hierarchy.KindCourse, courseID, true)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (ss *subjectService) List(ctx context.Context, userID, courseID uuid.UUID) ([]*types.Subject, error) {
	if _, err := ss.ownership.AuthorizeCourse(ctx, nil, userID, courseID); err != nil {
		return nil, err
	}
	return ss.subjectRepo.GetByCourseIDs(ctx, nil, []uuid.UUID{courseID})
}

func (ss *subjectService) Update(ctx context.Context, userID, courseID, subjectID uuid.UUID, fields map[string]any) (*types.Subject, error) {
	if _, err := ss.ownership.AuthorizeSubject(ctx, nil, userID, courseID, subjectID); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if name, ok := fields["name"].(string); ok {
		name = normalization.TrimName(name)
		if name == "" {
			return nil, fmt.Errorf("%w: subject name cannot be empty", apperrors.ErrValidation)
		}
		updates["name"] = name
	}
	if position, ok := numericField(fields, "position"); ok {
		updates["position"] = position
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no updatable fields given", apperrors.ErrValidation)
	}
	if err := ss.subjectRepo.UpdateFields(ctx, nil, subjectID, updates); err != nil {
		return nil, err
	}
	rows, err := ss.subjectRepo.GetByIDs(ctx, nil, []uuid.UUID{subjectID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return rows[0], nil
}

func (ss *subjectService) Delete(ctx context.Context, userID, courseID, subjectID uuid.UUID) error {
	if _, err := ss.ownership.AuthorizeSubject(ctx, nil, userID, courseID, subjectID); err != nil {
		return err
	}
	return ss.db.Transaction(func(tx *gorm.DB) error {
		if err := ss.subjectRepo.DeleteByIDs(ctx, tx, []uuid.UUID{subjectID}); err != nil {
			return err
		}
		count, err := ss.subjectRepo.CountByCourseID(ctx, tx, courseID)
		if err != nil {
			return err
		}
		if count == 0 {
			return ss.genState.SetHasChildren(ctx, tx, hierarchy.KindCourse, courseID, false)
		}
		return nil
	})
}

// numericField accepts the numbers JSON decoding can hand us.
func numericField(fields map[string]any, key string) (int, bool) {
	switch v := fields[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
