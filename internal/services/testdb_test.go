package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/coursecraft/coursecraft-backend/internal/hierarchy"
	"github.com/coursecraft/coursecraft-backend/internal/pkg/logger"
	"github.com/coursecraft/coursecraft-backend/internal/types"
)

var testDBSeq atomic.Int64

// The test schema mirrors the postgres layout with sqlite-native
// defaults; uuid values are assigned in Go.
var testSchema = []string{
	`CREATE TABLE "user" (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		deleted_at DATETIME
	)`,
	`CREATE TABLE user_token (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES "user"(id) ON DELETE CASCADE,
		refresh_token TEXT NOT NULL UNIQUE,
		expires_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE course (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES "user"(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT,
		has_subjects INTEGER NOT NULL DEFAULT 0,
		metadata TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE subject (
		id TEXT PRIMARY KEY,
		course_id TEXT NOT NULL REFERENCES course(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		position INTEGER NOT NULL,
		has_chapters INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE chapter (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL REFERENCES subject(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		position INTEGER NOT NULL,
		has_topics INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE topic (
		id TEXT PRIMARY KEY,
		chapter_id TEXT NOT NULL REFERENCES chapter(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		position INTEGER NOT NULL,
		has_content INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE content (
		id TEXT PRIMARY KEY,
		topic_id TEXT NOT NULL UNIQUE REFERENCES topic(id) ON DELETE CASCADE,
		body TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE ai_call_log (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		parent_id TEXT,
		call_type TEXT NOT NULL,
		model TEXT,
		prompt_len INTEGER,
		duration_ms INTEGER,
		success INTEGER NOT NULL,
		error TEXT,
		metadata TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_test_%d?mode=memory&cache=shared&_foreign_keys=on", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range testSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func seedUser(t *testing.T, db *gorm.DB, email string) *types.User {
	t.Helper()
	user := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "hashed",
		FirstName: "test",
		LastName:  "user",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedCourse(t *testing.T, db *gorm.DB, userID uuid.UUID, name string) *types.Course {
	t.Helper()
	course := &types.Course{ID: uuid.New(), UserID: userID, Name: name, Description: "test course"}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return course
}

func seedSubject(t *testing.T, db *gorm.DB, courseID uuid.UUID, name string, position int) *types.Subject {
	t.Helper()
	subject := &types.Subject{ID: uuid.New(), CourseID: courseID, Name: name, Position: position}
	if err := db.Create(subject).Error; err != nil {
		t.Fatalf("seed subject: %v", err)
	}
	return subject
}

func seedChapter(t *testing.T, db *gorm.DB, subjectID uuid.UUID, name string, position int) *types.Chapter {
	t.Helper()
	chapter := &types.Chapter{ID: uuid.New(), SubjectID: subjectID, Name: name, Position: position}
	if err := db.Create(chapter).Error; err != nil {
		t.Fatalf("seed chapter: %v", err)
	}
	return chapter
}

func seedTopic(t *testing.T, db *gorm.DB, chapterID uuid.UUID, name string, position int) *types.Topic {
	t.Helper()
	topic := &types.Topic{ID: uuid.New(), ChapterID: chapterID, Name: name, Position: position}
	if err := db.Create(topic).Error; err != nil {
		t.Fatalf("seed topic: %v", err)
	}
	return topic
}

// fakeAI is a canned AIAdapter for orchestrator tests. onNames runs at
// the top of GenerateNames, which lets a test commit competing writes
// in the window between the flag pre-check and the persist transaction.
type fakeAI struct {
	names   []string
	body    string
	err     error
	onNames func()

	nameCalls int
	bodyCalls int
}

func (f *fakeAI) GenerateNames(ctx context.Context, userID, parentID uuid.UUID, level hierarchy.Level, chain hierarchy.Chain) ([]string, error) {
	f.nameCalls++
	if f.onNames != nil {
		f.onNames()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.names, nil
}

func (f *fakeAI) GenerateContent(ctx context.Context, userID, topicID uuid.UUID, chain hierarchy.Chain) (string, error) {
	f.bodyCalls++
	if f.err != nil {
		return "", f.err
	}
	return f.body, nil
}
