package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	apperrors "github.com/coursecraft/coursecraft-backend/internal/pkg/errors"
	"github.com/coursecraft/coursecraft-backend/internal/repos"
	"github.com/coursecraft/coursecraft-backend/internal/types"
)

func newSubjectService(t *testing.T, db *gorm.DB) SubjectService {
	t.Helper()
	log := testLogger(t)
	return NewSubjectService(
		db,
		log,
		newOwnership(t, db),
		NewGenStateTracker(db, log),
		repos.NewSubjectRepo(db, log),
	)
}

func TestCreateManualSubjectMarksCourse(t *testing.T) {
	db := testDB(t)
	svc := newSubjectService(t, db)
	user := seedUser(t, db, "a@test.dev")
	course := seedCourse(t, db, user.ID, "Calculus")

	ctx := context.Background()
	first, err := svc.CreateManual(ctx, user.ID, course.ID, "  Limits   and Continuity ")
	if err != nil {
		t.Fatalf("create manual: %v", err)
	}
	if first.Name != "Limits and Continuity" {
		t.Fatalf("name not trimmed: %q", first.Name)
	}
	if first.Position != 0 {
		t.Fatalf("first subject position = %d", first.Position)
	}

	second, err := svc.CreateManual(ctx, user.ID, course.ID, "Derivatives")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.Position != 1 {
		t.Fatalf("second subject position = %d", second.Position)
	}

	var reloaded types.Course
	if err := db.First(&reloaded, "id = ?", course.ID).Error; err != nil {
		t.Fatalf("reload course: %v", err)
	}
	if !reloaded.HasSubjects {
		t.Fatal("manual create did not mark the course")
	}
}

func TestCreateManualSubjectRejectsBlankName(t *testing.T) {
	db := testDB(t)
	svc := newSubjectService(t, db)
	user := seedUser(t, db, "a@test.dev")
	course := seedCourse(t, db, user.ID, "Calculus")

	_, err := svc.CreateManual(context.Background(), user.ID, course.ID, "   ")
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDeleteLastSubjectClearsCourseFlag(t *testing.T) {
	db := testDB(t)
	svc := newSubjectService(t, db)
	user := seedUser(t, db, "a@test.dev")
	course := seedCourse(t, db, user.ID, "Calculus")

	ctx := context.Background()
	a, err := svc.CreateManual(ctx, user.ID, course.ID, "Limits")
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := svc.CreateManual(ctx, user.ID, course.ID, "Derivatives")
	if err != nil {
		t.Fatalf("create b: %v", err)
	}

	if err := svc.Delete(ctx, user.ID, course.ID, a.ID); err != nil {
		t.Fatalf("delete a: %v", err)
	}
	var reloaded types.Course
	if err := db.First(&reloaded, "id = ?", course.ID).Error; err != nil {
		t.Fatalf("reload course: %v", err)
	}
	if !reloaded.HasSubjects {
		t.Fatal("flag cleared while a subject remains")
	}

	if err := svc.Delete(ctx, user.ID, course.ID, b.ID); err != nil {
		t.Fatalf("delete b: %v", err)
	}
	if err := db.First(&reloaded, "id = ?", course.ID).Error; err != nil {
		t.Fatalf("reload course: %v", err)
	}
	if reloaded.HasSubjects {
		t.Fatal("flag still set after the last subject was removed")
	}
}

func TestUpdateSubjectRename(t *testing.T) {
	db := testDB(t)
	svc := newSubjectService(t, db)
	user := seedUser(t, db, "a@test.dev")
	course := seedCourse(t, db, user.ID, "Calculus")
	subject := seedSubject(t, db, course.ID, "Limits", 0)

	updated, err := svc.Update(context.Background(), user.ID, course.ID, subject.ID, map[string]any{"name": "Limits II"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Limits II" {
		t.Fatalf("rename missed: %q", updated.Name)
	}
}

func TestUpdateSubjectNoFields(t *testing.T) {
	db := testDB(t)
	svc := newSubjectService(t, db)
	user := seedUser(t, db, "a@test.dev")
	course := seedCourse(t, db, user.ID, "Calculus")
	subject := seedSubject(t, db, course.ID, "Limits", 0)

	_, err := svc.Update(context.Background(), user.ID, course.ID, subject.ID, map[string]any{"bogus": 1})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
