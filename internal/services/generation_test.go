package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/coursecraft/coursecraft-backend/internal/pkg/errors"
	"github.com/coursecraft/coursecraft-backend/internal/repos"
	"github.com/coursecraft/coursecraft-backend/internal/types"
)

type genFixture struct {
	db  *gorm.DB
	ai  *fakeAI
	gen GenerationService
}

func newGenFixture(t *testing.T) *genFixture {
	t.Helper()
	db := testDB(t)
	log := testLogger(t)
	courseRepo := repos.NewCourseRepo(db, log)
	subjectRepo := repos.NewSubjectRepo(db, log)
	chapterRepo := repos.NewChapterRepo(db, log)
	topicRepo := repos.NewTopicRepo(db, log)
	contentRepo := repos.NewContentRepo(db, log)
	ownership := NewOwnershipService(log, courseRepo, subjectRepo, chapterRepo, topicRepo)
	genState := NewGenStateTracker(db, log)
	ai := &fakeAI{
		names: []string{"Foundations", "Intermediate Ideas", "Advanced Applications"},
		body:  "# Study Document\n\nSome material.",
	}
	gen := NewGenerationService(db, log, ownership, genState, ai, subjectRepo, chapterRepo, topicRepo, contentRepo)
	return &genFixture{db: db, ai: ai, gen: gen}
}

func TestEnsureSubjectsGeneratesOnFirstCall(t *testing.T) {
	f := newGenFixture(t)
	user := seedUser(t, f.db, "a@test.dev")
	course := seedCourse(t, f.db, user.ID, "Calculus")

	subjects, err := f.gen.EnsureSubjects(context.Background(), user.ID, course.ID)
	if err != nil {
		t.Fatalf("ensure subjects: %v", err)
	}
	if len(subjects) != 3 {
		t.Fatalf("expected 3 subjects, got %d", len(subjects))
	}
	for i, s := range subjects {
		if s.Position != i {
			t.Fatalf("subject %d has position %d", i, s.Position)
		}
	}
	if f.ai.nameCalls != 1 {
		t.Fatalf("expected 1 provider call, got %d", f.ai.nameCalls)
	}

	var reloaded types.Course
	if err := f.db.First(&reloaded, "id = ?", course.ID).Error; err != nil {
		t.Fatalf("reload course: %v", err)
	}
	if !reloaded.HasSubjects {
		t.Fatal("has_subjects not set after generation")
	}
}

func TestEnsureSubjectsIsIdempotent(t *testing.T) {
	f := newGenFixture(t)
	user := seedUser(t, f.db, "a@test.dev")
	course := seedCourse(t, f.db, user.ID, "Calculus")

	ctx := context.Background()
	first, err := f.gen.EnsureSubjects(ctx, user.ID, course.ID)
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	second, err := f.gen.EnsureSubjects(ctx, user.ID, course.ID)
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if f.ai.nameCalls != 1 {
		t.Fatalf("second ensure called the provider: %d calls", f.ai.nameCalls)
	}
	if len(first) != len(second) {
		t.Fatalf("child counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("subject %d changed identity across reads", i)
		}
	}
}

func TestRegenerateSubjectsReplacesChildrenAndSubtree(t *testing.T) {
	f := newGenFixture(t)
	user := seedUser(t, f.db, "a@test.dev")
	course := seedCourse(t, f.db, user.ID, "Calculus")

	ctx := context.Background()
	first, err := f.gen.EnsureSubjects(ctx, user.ID, course.ID)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	// Hang a chapter off the first subject so the cascade is observable.
	chapter := seedChapter(t, f.db, first[0].ID, "Old Chapter", 0)

	second, err := f.gen.RegenerateSubjects(ctx, user.ID, course.ID)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if f.ai.nameCalls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", f.ai.nameCalls)
	}

	oldIDs := map[uuid.UUID]bool{}
	for _, s := range first {
		oldIDs[s.ID] = true
	}
	for _, s := range second {
		if oldIDs[s.ID] {
			t.Fatalf("regenerated subject reused old id %s", s.ID)
		}
	}

	var count int64
	if err := f.db.Table("subject").Where("course_id = ?", course.ID).Count(&count).Error; err != nil {
		t.Fatalf("count subjects: %v", err)
	}
	if int(count) != len(second) {
		t.Fatalf("old subjects survived: %d rows, want %d", count, len(second))
	}
	if err := f.db.Table("chapter").Where("id = ?", chapter.ID).Count(&count).Error; err != nil {
		t.Fatalf("count chapters: %v", err)
	}
	if count != 0 {
		t.Fatal("chapter under replaced subject survived the cascade")
	}
}

func TestEnsureSubjectsProviderFailureLeavesNoRows(t *testing.T) {
	f := newGenFixture(t)
	user := seedUser(t, f.db, "a@test.dev")
	course := seedCourse(t, f.db, user.ID, "Calculus")
	f.ai.err = apperrors.NewGenerationError(apperrors.GenerationProvider, errors.New("upstream down"))

	_, err := f.gen.EnsureSubjects(context.Background(), user.ID, course.ID)
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := apperrors.AsGeneration(err); !ok {
		t.Fatalf("expected a generation error, got %v", err)
	}

	var count int64
	if err := f.db.Table("subject").Where("course_id = ?", course.ID).Count(&count).Error; err != nil {
		t.Fatalf("count subjects: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed generation persisted %d rows", count)
	}
	var reloaded types.Course
	if err := f.db.First(&reloaded, "id = ?", course.ID).Error; err != nil {
		t.Fatalf("reload course: %v", err)
	}
	if reloaded.HasSubjects {
		t.Fatal("has_subjects set after a failed generation")
	}
}

func TestEnsureSubjectsForbiddenForOtherUser(t *testing.T) {
	f := newGenFixture(t)
	owner := seedUser(t, f.db, "owner@test.dev")
	intruder := seedUser(t, f.db, "intruder@test.dev")
	course := seedCourse(t, f.db, owner.ID, "Calculus")

	_, err := f.gen.EnsureSubjects(context.Background(), intruder.ID, course.ID)
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if f.ai.nameCalls != 0 {
		t.Fatal("provider called for a forbidden request")
	}
}

func TestEnsureChaptersRejectsMismatchedParent(t *testing.T) {
	f := newGenFixture(t)
	user := seedUser(t, f.db, "a@test.dev")
	courseA := seedCourse(t, f.db, user.ID, "Calculus")
	courseB := seedCourse(t, f.db, user.ID, "Physics")
	subject := seedSubject(t, f.db, courseA.ID, "Limits", 0)

	_, err := f.gen.EnsureChapters(context.Background(), user.ID, courseB.ID, subject.ID)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong course, got %v", err)
	}
}

func TestEnsureChaptersFlipsSubjectFlag(t *testing.T) {
	f := newGenFixture(t)
	user := seedUser(t, f.db, "a@test.dev")
	course := seedCourse(t, f.db, user.ID, "Calculus")
	subject := seedSubject(t, f.db, course.ID, "Limits", 0)

	chapters, err := f.gen.EnsureChapters(context.Background(), user.ID, course.ID, subject.ID)
	if err != nil {
		t.Fatalf("ensure chapters: %v", err)
	}
	if len(chapters) == 0 {
		t.Fatal("no chapters generated")
	}
	var reloaded types.Subject
	if err := f.db.First(&reloaded, "id = ?", subject.ID).Error; err != nil {
		t.Fatalf("reload subject: %v", err)
	}
	if !reloaded.HasChapters {
		t.Fatal("has_chapters not set")
	}
}

func TestEnsureContentStoresNormalizedBody(t *testing.T) {
	f := newGenFixture(t)
	user := seedUser(t, f.db, "a@test.dev")
	course := seedCourse(t, f.db, user.ID, "Calculus")
	subject := seedSubject(t, f.db, course.ID, "Limits", 0)
	chapter := seedChapter(t, f.db, subject.ID, "Epsilon Delta", 0)
	topic := seedTopic(t, f.db, chapter.ID, "Formal Definition", 0)
	f.ai.body = "```markdown\n#Formal Definition\n\n```mermaid\ngraph TD\nA-->B\n```\n```"

	content, err := f.gen.EnsureContent(context.Background(), user.ID, course.ID, subject.ID, chapter.ID, topic.ID)
	if err != nil {
		t.Fatalf("ensure content: %v", err)
	}
	want := "# Formal Definition\n\n<pre class=\"mermaid\">\ngraph TD\nA-->B\n</pre>"
	if content.Body != want {
		t.Fatalf("body not normalized:\n%q\nwant:\n%q", content.Body, want)
	}

	var reloaded types.Topic
	if err := f.db.First(&reloaded, "id = ?", topic.ID).Error; err != nil {
		t.Fatalf("reload topic: %v", err)
	}
	if !reloaded.HasContent {
		t.Fatal("has_content not set")
	}
}

func TestEnsureContentIsIdempotent(t *testing.T) {
	f := newGenFixture(t)
	user := seedUser(t, f.db, "a@test.dev")
	course := seedCourse(t, f.db, user.ID, "Calculus")
	subject := seedSubject(t, f.db, course.ID, "Limits", 0)
	chapter := seedChapter(t, f.db, subject.ID, "Epsilon Delta", 0)
	topic := seedTopic(t, f.db, chapter.ID, "Formal Definition", 0)

	ctx := context.Background()
	first, err := f.gen.EnsureContent(ctx, user.ID, course.ID, subject.ID, chapter.ID, topic.ID)
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	second, err := f.gen.EnsureContent(ctx, user.ID, course.ID, subject.ID, chapter.ID, topic.ID)
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if f.ai.bodyCalls != 1 {
		t.Fatalf("second ensure called the provider: %d calls", f.ai.bodyCalls)
	}
	if first.ID != second.ID || first.Body != second.Body {
		t.Fatal("content changed across reads")
	}
}

func TestRegenerateContentReplacesDocument(t *testing.T) {
	f := newGenFixture(t)
	user := seedUser(t, f.db, "a@test.dev")
	course := seedCourse(t, f.db, user.ID, "Calculus")
	subject := seedSubject(t, f.db, course.ID, "Limits", 0)
	chapter := seedChapter(t, f.db, subject.ID, "Epsilon Delta", 0)
	topic := seedTopic(t, f.db, chapter.ID, "Formal Definition", 0)

	ctx := context.Background()
	first, err := f.gen.EnsureContent(ctx, user.ID, course.ID, subject.ID, chapter.ID, topic.ID)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	f.ai.body = "# Rewritten\n\nFresh take."
	second, err := f.gen.RegenerateContent(ctx, user.ID, course.ID, subject.ID, chapter.ID, topic.ID)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("regenerated content reused the old row")
	}
	if second.Body != "# Rewritten\n\nFresh take." {
		t.Fatalf("unexpected regenerated body: %q", second.Body)
	}

	var count int64
	if err := f.db.Table("content").Where("topic_id = ?", topic.ID).Count(&count).Error; err != nil {
		t.Fatalf("count content: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single content row, got %d", count)
	}
}

func TestEnsureTopicsGeneratesFreshNames(t *testing.T) {
	f := newGenFixture(t)
	user := seedUser(t, f.db, "a@test.dev")
	course := seedCourse(t, f.db, user.ID, "Calculus")
	subject := seedSubject(t, f.db, course.ID, "Limits", 0)
	chapter := seedChapter(t, f.db, subject.ID, "Epsilon Delta", 0)

	topics, err := f.gen.EnsureTopics(context.Background(), user.ID, course.ID, subject.ID, chapter.ID)
	if err != nil {
		t.Fatalf("ensure topics: %v", err)
	}
	if len(topics) != len(f.ai.names) {
		t.Fatalf("expected %d topics, got %d", len(f.ai.names), len(topics))
	}
	for i, topic := range topics {
		if topic.Name != f.ai.names[i] {
			t.Fatalf("topic %d named %q, want %q", i, topic.Name, f.ai.names[i])
		}
		if topic.ChapterID != chapter.ID {
			t.Fatalf("topic %d attached to wrong chapter", i)
		}
	}
}

func TestEnsureSubjectsKeepsWinnerFromConcurrentGeneration(t *testing.T) {
	f := newGenFixture(t)
	user := seedUser(t, f.db, "a@test.dev")
	course := seedCourse(t, f.db, user.ID, "Calculus")

	// A competing request commits its children and flips the flag while
	// this request is waiting on the provider.
	winner := &types.Subject{ID: uuid.New(), CourseID: course.ID, Name: "Settled Foundations", Position: 0}
	f.ai.onNames = func() {
		if err := f.db.Create(winner).Error; err != nil {
			t.Fatalf("insert competing subject: %v", err)
		}
		if err := f.db.Model(&types.Course{}).Where("id = ?", course.ID).
			Update("has_subjects", true).Error; err != nil {
			t.Fatalf("flip course flag: %v", err)
		}
	}

	subjects, err := f.gen.EnsureSubjects(context.Background(), user.ID, course.ID)
	if err != nil {
		t.Fatalf("ensure subjects: %v", err)
	}
	if len(subjects) != 1 {
		t.Fatalf("expected the winner's single subject, got %d", len(subjects))
	}
	if subjects[0].ID != winner.ID || subjects[0].Name != winner.Name {
		t.Fatalf("got %q, want the winner's subject", subjects[0].Name)
	}

	var count int64
	if err := f.db.Model(&types.Subject{}).Where("course_id = ?", course.ID).Count(&count).Error; err != nil {
		t.Fatalf("count subjects: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 subject row after losing the race, got %d", count)
	}
}
