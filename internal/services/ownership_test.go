package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/coursecraft/coursecraft-backend/internal/pkg/errors"
	"github.com/coursecraft/coursecraft-backend/internal/repos"
)

func newOwnership(t *testing.T, db *gorm.DB) OwnershipService {
	t.Helper()
	log := testLogger(t)
	return NewOwnershipService(
		log,
		repos.NewCourseRepo(db, log),
		repos.NewSubjectRepo(db, log),
		repos.NewChapterRepo(db, log),
		repos.NewTopicRepo(db, log),
	)
}

func TestAuthorizeCourseResolvesChain(t *testing.T) {
	db := testDB(t)
	svc := newOwnership(t, db)
	user := seedUser(t, db, "a@test.dev")
	course := seedCourse(t, db, user.ID, "Calculus")

	chain, err := svc.AuthorizeCourse(context.Background(), nil, user.ID, course.ID)
	if err != nil {
		t.Fatalf("authorize course: %v", err)
	}
	if chain.Course == nil || chain.Course.ID != course.ID {
		t.Fatal("chain missing course")
	}
	if chain.Subject != nil || chain.Chapter != nil || chain.Topic != nil {
		t.Fatal("chain deeper than addressed entity")
	}
}

func TestAuthorizeCourseUnknownID(t *testing.T) {
	db := testDB(t)
	svc := newOwnership(t, db)
	user := seedUser(t, db, "a@test.dev")

	_, err := svc.AuthorizeCourse(context.Background(), nil, user.ID, uuid.New())
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAuthorizeCourseWrongOwner(t *testing.T) {
	db := testDB(t)
	svc := newOwnership(t, db)
	owner := seedUser(t, db, "owner@test.dev")
	intruder := seedUser(t, db, "intruder@test.dev")
	course := seedCourse(t, db, owner.ID, "Calculus")

	_, err := svc.AuthorizeCourse(context.Background(), nil, intruder.ID, course.ID)
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAuthorizeTopicResolvesFullChain(t *testing.T) {
	db := testDB(t)
	svc := newOwnership(t, db)
	user := seedUser(t, db, "a@test.dev")
	course := seedCourse(t, db, user.ID, "Calculus")
	subject := seedSubject(t, db, course.ID, "Limits", 0)
	chapter := seedChapter(t, db, subject.ID, "Epsilon Delta", 0)
	topic := seedTopic(t, db, chapter.ID, "Formal Definition", 0)

	chain, err := svc.AuthorizeTopic(context.Background(), nil, user.ID, course.ID, subject.ID, chapter.ID, topic.ID)
	if err != nil {
		t.Fatalf("authorize topic: %v", err)
	}
	if chain.Course.ID != course.ID || chain.Subject.ID != subject.ID ||
		chain.Chapter.ID != chapter.ID || chain.Topic.ID != topic.ID {
		t.Fatal("chain does not match the addressed path")
	}
}

func TestAuthorizeSubjectParentMismatchIsNotFound(t *testing.T) {
	db := testDB(t)
	svc := newOwnership(t, db)
	user := seedUser(t, db, "a@test.dev")
	courseA := seedCourse(t, db, user.ID, "Calculus")
	courseB := seedCourse(t, db, user.ID, "Physics")
	subject := seedSubject(t, db, courseA.ID, "Limits", 0)

	_, err := svc.AuthorizeSubject(context.Background(), nil, user.ID, courseB.ID, subject.ID)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAuthorizeChapterCrossUserIsForbidden(t *testing.T) {
	db := testDB(t)
	svc := newOwnership(t, db)
	owner := seedUser(t, db, "owner@test.dev")
	intruder := seedUser(t, db, "intruder@test.dev")
	course := seedCourse(t, db, owner.ID, "Calculus")
	subject := seedSubject(t, db, course.ID, "Limits", 0)
	chapter := seedChapter(t, db, subject.ID, "Epsilon Delta", 0)

	_, err := svc.AuthorizeChapter(context.Background(), nil, intruder.ID, course.ID, subject.ID, chapter.ID)
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
