package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/coursecraft/coursecraft-backend/internal/pkg/errors"
	"github.com/coursecraft/coursecraft-backend/internal/normalization"
	"github.com/coursecraft/coursecraft-backend/internal/pkg/logger"
	"github.com/coursecraft/coursecraft-backend/internal/repos"
	"github.com/coursecraft/coursecraft-backend/internal/types"
)

type CourseService interface {
	CreateCourse(ctx context.Context, userID uuid.UUID, name, description string) (*types.Course, error)
	GetCourse(ctx context.Context, userID, courseID uuid.UUID) (*types.Course, error)
	ListCourses(ctx context.Context, userID uuid.UUID) ([]*types.Course, error)
	UpdateCourse(ctx context.Context, userID, courseID uuid.UUID, fields map[string]any) (*types.Course, error)
	DeleteCourse(ctx context.Context, userID, courseID uuid.UUID) error
}

type courseService struct {
	db         *gorm.DB
	log        *logger.Logger
	ownership  OwnershipService
	courseRepo repos.CourseRepo
}

func NewCourseService(db *gorm.DB, baseLog *logger.Logger, ownership OwnershipService, courseRepo repos.CourseRepo) CourseService {
	return &courseService{
		db:         db,
		log:        baseLog.With("service", "CourseService"),
		ownership:  ownership,
		courseRepo: courseRepo,
	}
}

func (cs *courseService) CreateCourse(ctx context.Context, userID uuid.UUID, name, description string) (*types.Course, error) {
	name = normalization.TrimName(name)
	if name == "" {
		return nil, fmt.Errorf("%w: a course name is required", apperrors.ErrValidation)
	}
	course := &types.Course{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Description: description,
	}
	created, err := cs.courseRepo.Create(ctx, nil, []*types.Course{course})
	if err != nil {
		return nil, fmt.Errorf("Failed to create course: %w", err)
	}
	return created[0], nil
}

func (cs *courseService) GetCourse(ctx context.Context, userID, courseID uuid.UUID) (*types.Course, error) {
	chain, err := cs.ownership.AuthorizeCourse(ctx, nil, userID, courseID)
	if err != nil {
		return nil, err
	}
	return chain.Course, nil
}

func (cs *courseService) ListCourses(ctx context.Context, userID uuid.UUID) ([]*types.Course, error) {
	return cs.courseRepo.GetByUserIDs(ctx, nil, []uuid.UUID{userID})
}

func (cs *courseService) UpdateCourse(ctx context.Context, userID, courseID uuid.UUID, fields map[string]any) (*types.Course, error) {
	if _, err := cs.ownership.AuthorizeCourse(ctx, nil, userID, courseID); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if name, ok := fields["name"].(string); ok {
		name = normalization.TrimName(name)
		if name == "" {
			return nil, fmt.Errorf("%w: course name cannot be empty", apperrors.ErrValidation)
		}
		updates["name"] = name
	}
	if description, ok := fields["description"].(string); ok {
		updates["description"] = description
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no updatable fields given", apperrors.ErrValidation)
	}
	if err := cs.courseRepo.UpdateFields(ctx, nil, courseID, updates); err != nil {
		return nil, fmt.Errorf("Failed to update course: %w", err)
	}
	courses, err := cs.courseRepo.GetByIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return courses[0], nil
}

func (cs *courseService) DeleteCourse(ctx context.Context, userID, courseID uuid.UUID) error {
	if _, err := cs.ownership.AuthorizeCourse(ctx, nil, userID, courseID); err != nil {
		return err
	}
	// Subjects and everything below cascade at the database level.
	return cs.courseRepo.DeleteByIDs(ctx, nil, []uuid.UUID{courseID})
}
