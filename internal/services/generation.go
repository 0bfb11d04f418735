package services

import (
	"context"
	"errors"
	"hash/fnv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/coursecraft/coursecraft-backend/internal/pkg/errors"
	"github.com/coursecraft/coursecraft-backend/internal/hierarchy"
	"github.com/coursecraft/coursecraft-backend/internal/markdown"
	"github.com/coursecraft/coursecraft-backend/internal/pkg/logger"
	"github.com/coursecraft/coursecraft-backend/internal/repos"
	"github.com/coursecraft/coursecraft-backend/internal/sse"
	"github.com/coursecraft/coursecraft-backend/internal/ssedata"
	"github.com/coursecraft/coursecraft-backend/internal/types"
)

// GenerationService drives AI generation across the study tree. The
// Ensure* operations are idempotent: they generate children on the first
// call and return the stored children on every later call. The
// Regenerate* operations discard the existing children (and everything
// below them) and generate a fresh set.
//
// Provider calls run outside the transaction that persists their result,
// so a provider failure leaves the tree untouched. Concurrent calls for
// the same parent are serialized with a postgres advisory lock held for
// the duration of the persisting transaction; the loser of the race
// re-reads the flag under the lock and returns the winner's children
// instead of inserting a second set.
type GenerationService interface {
	EnsureSubjects(ctx context.Context, userID, courseID uuid.UUID) ([]*types.Subject, error)
	RegenerateSubjects(ctx context.Context, userID, courseID uuid.UUID) ([]*types.Subject, error)
	EnsureChapters(ctx context.Context, userID, courseID, subjectID uuid.UUID) ([]*types.Chapter, error)
	RegenerateChapters(ctx context.Context, userID, courseID, subjectID uuid.UUID) ([]*types.Chapter, error)
	EnsureTopics(ctx context.Context, userID, courseID, subjectID, chapterID uuid.UUID) ([]*types.Topic, error)
	RegenerateTopics(ctx context.Context, userID, courseID, subjectID, chapterID uuid.UUID) ([]*types.Topic, error)
	EnsureContent(ctx context.Context, userID, courseID, subjectID, chapterID, topicID uuid.UUID) (*types.Content, error)
	RegenerateContent(ctx context.Context, userID, courseID, subjectID, chapterID, topicID uuid.UUID) (*types.Content, error)
}

type generationService struct {
	db          *gorm.DB
	log         *logger.Logger
	ownership   OwnershipService
	genState    GenStateTracker
	ai          AIAdapter
	subjectRepo repos.SubjectRepo
	chapterRepo repos.ChapterRepo
	topicRepo   repos.TopicRepo
	contentRepo repos.ContentRepo
}

func NewGenerationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	ownership OwnershipService,
	genState GenStateTracker,
	ai AIAdapter,
	subjectRepo repos.SubjectRepo,
	chapterRepo repos.ChapterRepo,
	topicRepo repos.TopicRepo,
	contentRepo repos.ContentRepo,
) GenerationService {
	return &generationService{
		db:          db,
		log:         baseLog.With("service", "GenerationService"),
		ownership:   ownership,
		genState:    genState,
		ai:          ai,
		subjectRepo: subjectRepo,
		chapterRepo: chapterRepo,
		topicRepo:   topicRepo,
		contentRepo: contentRepo,
	}
}

// lockKey derives a stable advisory lock key for one (child kind, parent)
// pair. Different levels under the same parent ID must not contend.
func lockKey(child hierarchy.Kind, parentID uuid.UUID) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(child))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(parentID.String()))
	return int64(h.Sum64())
}

// advisoryLock serializes generation for one parent. Only postgres has
// advisory locks; under other dialects (sqlite in tests) the unique and
// flag checks inside the transaction are the only guard.
func advisoryLock(ctx context.Context, tx *gorm.DB, child hierarchy.Kind, parentID uuid.UUID) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", lockKey(child, parentID)).Error
}

// childOps abstracts the per-level repo calls so the list levels share
// one ensure flow.
type childOps struct {
	list   func(ctx context.Context, tx *gorm.DB) ([]any, error)
	delete func(ctx context.Context, tx *gorm.DB) error
	insert func(ctx context.Context, tx *gorm.DB, names []string) ([]any, error)
}

func (gs *generationService) subjectOps(courseID uuid.UUID) childOps {
	return childOps{
		list: func(ctx context.Context, tx *gorm.DB) ([]any, error) {
			rows, err := gs.subjectRepo.GetByCourseIDs(ctx, tx, []uuid.UUID{courseID})
			return asAny(rows), err
		},
		delete: func(ctx context.Context, tx *gorm.DB) error {
			return gs.subjectRepo.DeleteByCourseIDs(ctx, tx, []uuid.UUID{courseID})
		},
		insert: func(ctx context.Context, tx *gorm.DB, names []string) ([]any, error) {
			rows := make([]*types.Subject, 0, len(names))
			for i, name := range names {
				rows = append(rows, &types.Subject{ID: uuid.New(), CourseID: courseID, Name: name, Position: i})
			}
			created, err := gs.subjectRepo.Create(ctx, tx, rows)
			return asAny(created), err
		},
	}
}

func (gs *generationService) chapterOps(subjectID uuid.UUID) childOps {
	return childOps{
		list: func(ctx context.Context, tx *gorm.DB) ([]any, error) {
			rows, err := gs.chapterRepo.GetBySubjectIDs(ctx, tx, []uuid.UUID{subjectID})
			return asAny(rows), err
		},
		delete: func(ctx context.Context, tx *gorm.DB) error {
			return gs.chapterRepo.DeleteBySubjectIDs(ctx, tx, []uuid.UUID{subjectID})
		},
		insert: func(ctx context.Context, tx *gorm.DB, names []string) ([]any, error) {
			rows := make([]*types.Chapter, 0, len(names))
			for i, name := range names {
				rows = append(rows, &types.Chapter{ID: uuid.New(), SubjectID: subjectID, Name: name, Position: i})
			}
			created, err := gs.chapterRepo.Create(ctx, tx, rows)
			return asAny(created), err
		},
	}
}

func (gs *generationService) topicOps(chapterID uuid.UUID) childOps {
	return childOps{
		list: func(ctx context.Context, tx *gorm.DB) ([]any, error) {
			rows, err := gs.topicRepo.GetByChapterIDs(ctx, tx, []uuid.UUID{chapterID})
			return asAny(rows), err
		},
		delete: func(ctx context.Context, tx *gorm.DB) error {
			return gs.topicRepo.DeleteByChapterIDs(ctx, tx, []uuid.UUID{chapterID})
		},
		insert: func(ctx context.Context, tx *gorm.DB, names []string) ([]any, error) {
			rows := make([]*types.Topic, 0, len(names))
			for i, name := range names {
				rows = append(rows, &types.Topic{ID: uuid.New(), ChapterID: chapterID, Name: name, Position: i})
			}
			created, err := gs.topicRepo.Create(ctx, tx, rows)
			return asAny(created), err
		},
	}
}

func asAny[T any](rows []*T) []any {
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, r)
	}
	return out
}

// ensureList is the shared flow for the three list-shaped levels.
func (gs *generationService) ensureList(
	ctx context.Context,
	userID, parentID uuid.UUID,
	level hierarchy.Level,
	chain *hierarchy.Chain,
	ops childOps,
	regenerate bool,
) ([]any, error) {
	if !regenerate {
		has, err := gs.genState.HasChildren(ctx, nil, level.Parent, parentID)
		if err != nil {
			return nil, err
		}
		if has {
			return ops.list(ctx, nil)
		}
	}

	names, err := gs.ai.GenerateNames(ctx, userID, parentID, level, *chain)
	if err != nil {
		gs.queueEvent(ctx, userID, sse.SSEEventGenerationFailed, map[string]any{
			"parent_id": parentID,
			"level":     string(level.Child),
			"error":     err.Error(),
		})
		return nil, err
	}

	var result []any
	err = gs.db.Transaction(func(tx *gorm.DB) error {
		if err := advisoryLock(ctx, tx, level.Child, parentID); err != nil {
			return err
		}
		has, err := gs.genState.HasChildren(ctx, tx, level.Parent, parentID)
		if err != nil {
			return err
		}
		if has {
			if !regenerate {
				// Lost the race; the winner's children stand.
				result, err = ops.list(ctx, tx)
				return err
			}
			if err := ops.delete(ctx, tx); err != nil {
				return err
			}
		}
		result, err = ops.insert(ctx, tx, names)
		if err != nil {
			return err
		}
		return gs.genState.SetHasChildren(ctx, tx, level.Parent, parentID, true)
	})
	if err != nil {
		return nil, err
	}

	gs.queueEvent(ctx, userID, listEvent(level.Child, regenerate), map[string]any{
		"parent_id": parentID,
		"count":     len(result),
	})
	return result, nil
}

func listEvent(child hierarchy.Kind, regenerate bool) sse.SSEEvent {
	switch child {
	case hierarchy.KindSubject:
		if regenerate {
			return sse.SSEEventSubjectsRegenerated
		}
		return sse.SSEEventSubjectsGenerated
	case hierarchy.KindChapter:
		if regenerate {
			return sse.SSEEventChaptersRegenerated
		}
		return sse.SSEEventChaptersGenerated
	default:
		if regenerate {
			return sse.SSEEventTopicsRegenerated
		}
		return sse.SSEEventTopicsGenerated
	}
}

func (gs *generationService) queueEvent(ctx context.Context, userID uuid.UUID, event sse.SSEEvent, data any) {
	ssedata.AppendMessage(ctx, sse.SSEMessage{
		Channel: userID.String(),
		Event:   event,
		Data:    data,
	})
}

func (gs *generationService) EnsureSubjects(ctx context.Context, userID, courseID uuid.UUID) ([]*types.Subject, error) {
	return gs.subjects(ctx, userID, courseID, false)
}

func (gs *generationService) RegenerateSubjects(ctx context.Context, userID, courseID uuid.UUID) ([]*types.Subject, error) {
	return gs.subjects(ctx, userID, courseID, true)
}

func (gs *generationService) subjects(ctx context.Context, userID, courseID uuid.UUID, regenerate bool) ([]*types.Subject, error) {
	chain, err := gs.ownership.AuthorizeCourse(ctx, nil, userID, courseID)
	if err != nil {
		return nil, err
	}
	rows, err := gs.ensureList(ctx, userID, courseID, hierarchy.Subjects, chain, gs.subjectOps(courseID), regenerate)
	if err != nil {
		return nil, err
	}
	return fromAny[types.Subject](rows), nil
}

func (gs *generationService) EnsureChapters(ctx context.Context, userID, courseID, subjectID uuid.UUID) ([]*types.Chapter, error) {
	return gs.chapters(ctx, userID, courseID, subjectID, false)
}

func (gs *generationService) RegenerateChapters(ctx context.Context, userID, courseID, subjectID uuid.UUID) ([]*types.Chapter, error) {
	return gs.chapters(ctx, userID, courseID, subjectID, true)
}

func (gs *generationService) chapters(ctx context.Context, userID, courseID, subjectID uuid.UUID, regenerate bool) ([]*types.Chapter, error) {
	chain, err := gs.ownership.AuthorizeSubject(ctx, nil, userID, courseID, subjectID)
	if err != nil {
		return nil, err
	}
	rows, err := gs.ensureList(ctx, userID, subjectID, hierarchy.Chapters, chain, gs.chapterOps(subjectID), regenerate)
	if err != nil {
		return nil, err
	}
	return fromAny[types.Chapter](rows), nil
}

func (gs *generationService) EnsureTopics(ctx context.Context, userID, courseID, subjectID, chapterID uuid.UUID) ([]*types.Topic, error) {
	return gs.topics(ctx, userID, courseID, subjectID, chapterID, false)
}

func (gs *generationService) RegenerateTopics(ctx context.Context, userID, courseID, subjectID, chapterID uuid.UUID) ([]*types.Topic, error) {
	return gs.topics(ctx, userID, courseID, subjectID, chapterID, true)
}

func (gs *generationService) topics(ctx context.Context, userID, courseID, subjectID, chapterID uuid.UUID, regenerate bool) ([]*types.Topic, error) {
	chain, err := gs.ownership.AuthorizeChapter(ctx, nil, userID, courseID, subjectID, chapterID)
	if err != nil {
		return nil, err
	}
	rows, err := gs.ensureList(ctx, userID, chapterID, hierarchy.Topics, chain, gs.topicOps(chapterID), regenerate)
	if err != nil {
		return nil, err
	}
	return fromAny[types.Topic](rows), nil
}

func fromAny[T any](rows []any) []*T {
	out := make([]*T, 0, len(rows))
	for _, r := range rows {
		if v, ok := r.(*T); ok {
			out = append(out, v)
		}
	}
	return out
}

func (gs *generationService) EnsureContent(ctx context.Context, userID, courseID, subjectID, chapterID, topicID uuid.UUID) (*types.Content, error) {
	return gs.content(ctx, userID, courseID, subjectID, chapterID, topicID, false)
}

func (gs *generationService) RegenerateContent(ctx context.Context, userID, courseID, subjectID, chapterID, topicID uuid.UUID) (*types.Content, error) {
	return gs.content(ctx, userID, courseID, subjectID, chapterID, topicID, true)
}

func (gs *generationService) content(ctx context.Context, userID, courseID, subjectID, chapterID, topicID uuid.UUID, regenerate bool) (*types.Content, error) {
	chain, err := gs.ownership.AuthorizeTopic(ctx, nil, userID, courseID, subjectID, chapterID, topicID)
	if err != nil {
		return nil, err
	}

	if !regenerate {
		has, err := gs.genState.HasChildren(ctx, nil, hierarchy.KindTopic, topicID)
		if err != nil {
			return nil, err
		}
		if has {
			return gs.loadContent(ctx, nil, topicID)
		}
	}

	body, err := gs.ai.GenerateContent(ctx, userID, topicID, *chain)
	if err != nil {
		gs.queueEvent(ctx, userID, sse.SSEEventGenerationFailed, map[string]any{
			"parent_id": topicID,
			"level":     string(hierarchy.KindContent),
			"error":     err.Error(),
		})
		return nil, err
	}
	body = markdown.Normalize(body)

	var result *types.Content
	err = gs.db.Transaction(func(tx *gorm.DB) error {
		if err := advisoryLock(ctx, tx, hierarchy.KindContent, topicID); err != nil {
			return err
		}
		has, err := gs.genState.HasChildren(ctx, tx, hierarchy.KindTopic, topicID)
		if err != nil {
			return err
		}
		if has {
			if !regenerate {
				result, err = gs.loadContent(ctx, tx, topicID)
				return err
			}
			if err := gs.contentRepo.DeleteByTopicIDs(ctx, tx, []uuid.UUID{topicID}); err != nil {
				return err
			}
		}
		result, err = gs.contentRepo.Create(ctx, tx, &types.Content{ID: uuid.New(), TopicID: topicID, Body: body})
		if err != nil {
			// Unique index backstop: a concurrent writer got there first.
			if !regenerate && errors.Is(err, apperrors.ErrAlreadyExists) {
				result, err = gs.loadContent(ctx, tx, topicID)
				return err
			}
			return err
		}
		return gs.genState.SetHasChildren(ctx, tx, hierarchy.KindTopic, topicID, true)
	})
	if err != nil {
		return nil, err
	}

	event := sse.SSEEventContentGenerated
	if regenerate {
		event = sse.SSEEventContentRegenerated
	}
	gs.queueEvent(ctx, userID, event, map[string]any{"topic_id": topicID, "content_id": result.ID})
	return result, nil
}

func (gs *generationService) loadContent(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) (*types.Content, error) {
	rows, err := gs.contentRepo.GetByTopicIDs(ctx, tx, []uuid.UUID{topicID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return rows[0], nil
}
