package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coursecraft/coursecraft-backend/internal/hierarchy"
	apperrors "github.com/coursecraft/coursecraft-backend/internal/pkg/errors"
	"github.com/coursecraft/coursecraft-backend/internal/pkg/logger"
	"github.com/coursecraft/coursecraft-backend/internal/repos"
)

// OwnershipService walks an entity's parent chain up to its course and
// verifies the course belongs to the requesting user. Each hop checks the
// child's parent-ID field against the addressed parent: an entity that
// exists but lives under another parent resolves as not found, never as a
// different user's data. The returned chain carries ancestor names for
// prompt construction. No side effects.
type OwnershipService interface {
	AuthorizeCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*hierarchy.Chain, error)
	AuthorizeSubject(ctx context.Context, tx *gorm.DB, userID, courseID, subjectID uuid.UUID) (*hierarchy.Chain, error)
	AuthorizeChapter(ctx context.Context, tx *gorm.DB, userID, courseID, subjectID, chapterID uuid.UUID) (*hierarchy.Chain, error)
	AuthorizeTopic(ctx context.Context, tx *gorm.DB, userID, courseID, subjectID, chapterID, topicID uuid.UUID) (*hierarchy.Chain, error)
}

type ownershipService struct {
	log         *logger.Logger
	courseRepo  repos.CourseRepo
	subjectRepo repos.SubjectRepo
	chapterRepo repos.ChapterRepo
	topicRepo   repos.TopicRepo
}

func NewOwnershipService(
	baseLog *logger.Logger,
	courseRepo repos.CourseRepo,
	subjectRepo repos.SubjectRepo,
	chapterRepo repos.ChapterRepo,
	topicRepo repos.TopicRepo,
) OwnershipService {
	return &ownershipService{
		log:         baseLog.With("service", "OwnershipService"),
		courseRepo:  courseRepo,
		subjectRepo: subjectRepo,
		chapterRepo: chapterRepo,
		topicRepo:   topicRepo,
	}
}

func (os *ownershipService) AuthorizeCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*hierarchy.Chain, error) {
	courses, err := os.courseRepo.GetByIDs(ctx, tx, []uuid.UUID{courseID})
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if len(courses) == 0 || courses[0] == nil {
		return nil, apperrors.ErrNotFound
	}
	course := courses[0]
	if course.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	return &hierarchy.Chain{Course: course}, nil
}

func (os *ownershipService) AuthorizeSubject(ctx context.Context, tx *gorm.DB, userID, courseID, subjectID uuid.UUID) (*hierarchy.Chain, error) {
	subjects, err := os.subjectRepo.GetByIDs(ctx, tx, []uuid.UUID{subjectID})
	if err != nil {
		return nil, fmt.Errorf("load subject: %w", err)
	}
	if len(subjects) == 0 || subjects[0] == nil || subjects[0].CourseID != courseID {
		return nil, apperrors.ErrNotFound
	}
	chain, err := os.AuthorizeCourse(ctx, tx, userID, courseID)
	if err != nil {
		return nil, err
	}
	chain.Subject = subjects[0]
	return chain, nil
}

func (os *ownershipService) AuthorizeChapter(ctx context.Context, tx *gorm.DB, userID, courseID, subjectID, chapterID uuid.UUID) (*hierarchy.Chain, error) {
	chapters, err := os.chapterRepo.GetByIDs(ctx, tx, []uuid.UUID{chapterID})
	if err != nil {
		return nil, fmt.Errorf("load chapter: %w", err)
	}
	if len(chapters) == 0 || chapters[0] == nil || chapters[0].SubjectID != subjectID {
		return nil, apperrors.ErrNotFound
	}
	chain, err := os.AuthorizeSubject(ctx, tx, userID, courseID, subjectID)
	if err != nil {
		return nil, err
	}
	chain.Chapter = chapters[0]
	return chain, nil
}

func (os *ownershipService) AuthorizeTopic(ctx context.Context, tx *gorm.DB, userID, courseID, subjectID, chapterID, topicID uuid.UUID) (*hierarchy.Chain, error) {
	topics, err := os.topicRepo.GetByIDs(ctx, tx, []uuid.UUID{topicID})
	if err != nil {
		return nil, fmt.Errorf("load topic: %w", err)
	}
	if len(topics) == 0 || topics[0] == nil || topics[0].ChapterID != chapterID {
		return nil, apperrors.ErrNotFound
	}
	chain, err := os.AuthorizeChapter(ctx, tx, userID, courseID, subjectID, chapterID)
	if err != nil {
		return nil, err
	}
	chain.Topic = topics[0]
	return chain, nil
}
