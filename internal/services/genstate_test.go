package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	apperrors "github.com/coursecraft/coursecraft-backend/internal/pkg/errors"
	"github.com/coursecraft/coursecraft-backend/internal/hierarchy"
)

func TestHasChildrenDefaultsFalse(t *testing.T) {
	db := testDB(t)
	tracker := NewGenStateTracker(db, testLogger(t))
	user := seedUser(t, db, "a@test.dev")
	course := seedCourse(t, db, user.ID, "Calculus")

	has, err := tracker.HasChildren(context.Background(), nil, hierarchy.KindCourse, course.ID)
	if err != nil {
		t.Fatalf("has children: %v", err)
	}
	if has {
		t.Fatal("fresh course reports children")
	}
}

func TestSetHasChildrenRoundTrip(t *testing.T) {
	db := testDB(t)
	tracker := NewGenStateTracker(db, testLogger(t))
	user := seedUser(t, db, "a@test.dev")
	course := seedCourse(t, db, user.ID, "Calculus")
	subject := seedSubject(t, db, course.ID, "Limits", 0)
	chapter := seedChapter(t, db, subject.ID, "Epsilon Delta", 0)
	topic := seedTopic(t, db, chapter.ID, "Formal Definition", 0)

	ctx := context.Background()
	cases := []struct {
		kind hierarchy.Kind
		id   uuid.UUID
	}{
		{hierarchy.KindCourse, course.ID},
		{hierarchy.KindSubject, subject.ID},
		{hierarchy.KindChapter, chapter.ID},
		{hierarchy.KindTopic, topic.ID},
	}
	for _, tc := range cases {
		if err := tracker.SetHasChildren(ctx, nil, tc.kind, tc.id, true); err != nil {
			t.Fatalf("set %s: %v", tc.kind, err)
		}
		has, err := tracker.HasChildren(ctx, nil, tc.kind, tc.id)
		if err != nil {
			t.Fatalf("read %s: %v", tc.kind, err)
		}
		if !has {
			t.Fatalf("%s flag not set", tc.kind)
		}
		if err := tracker.SetHasChildren(ctx, nil, tc.kind, tc.id, false); err != nil {
			t.Fatalf("clear %s: %v", tc.kind, err)
		}
		has, err = tracker.HasChildren(ctx, nil, tc.kind, tc.id)
		if err != nil {
			t.Fatalf("re-read %s: %v", tc.kind, err)
		}
		if has {
			t.Fatalf("%s flag not cleared", tc.kind)
		}
	}
}

func TestHasChildrenUnknownRow(t *testing.T) {
	db := testDB(t)
	tracker := NewGenStateTracker(db, testLogger(t))

	_, err := tracker.HasChildren(context.Background(), nil, hierarchy.KindCourse, uuid.New())
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHasChildrenRejectsLeafKind(t *testing.T) {
	db := testDB(t)
	tracker := NewGenStateTracker(db, testLogger(t))

	if _, err := tracker.HasChildren(context.Background(), nil, hierarchy.KindContent, uuid.New()); err == nil {
		t.Fatal("content must not carry a children flag")
	}
}

