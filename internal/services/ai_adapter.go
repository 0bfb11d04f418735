package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coursecraft/coursecraft-backend/internal/clients/openai"
	"github.com/coursecraft/coursecraft-backend/internal/hierarchy"
	"github.com/coursecraft/coursecraft-backend/internal/normalization"
	apperrors "github.com/coursecraft/coursecraft-backend/internal/pkg/errors"
	"github.com/coursecraft/coursecraft-backend/internal/pkg/logger"
	"github.com/coursecraft/coursecraft-backend/internal/repos"
	"github.com/coursecraft/coursecraft-backend/internal/types"
	"github.com/coursecraft/coursecraft-backend/internal/utils"
)

// AIAdapter is the generation pipeline's only door to the content
// provider. It builds level-specific prompts from the ancestor chain,
// bounds every call with a timeout, and folds provider failures into the
// GenerationError taxonomy so the orchestrator never sees provider shapes.
// Safe for concurrent use; every call gets a fresh request context.
type AIAdapter interface {
	GenerateNames(ctx context.Context, userID, parentID uuid.UUID, level hierarchy.Level, chain hierarchy.Chain) ([]string, error)
	GenerateContent(ctx context.Context, userID, topicID uuid.UUID, chain hierarchy.Chain) (string, error)
}

type aiAdapter struct {
	log         *logger.Logger
	ai          openai.Client
	callLogRepo repos.AICallLogRepo
	timeout     time.Duration
}

func NewAIAdapter(baseLog *logger.Logger, ai openai.Client, callLogRepo repos.AICallLogRepo) AIAdapter {
	serviceLog := baseLog.With("service", "AIAdapter")
	timeoutSec := utils.GetEnvAsInt("GENERATION_TIMEOUT_SECONDS", 90, baseLog)
	return &aiAdapter{
		log:         serviceLog,
		ai:          ai,
		callLogRepo: callLogRepo,
		timeout:     time.Duration(timeoutSec) * time.Second,
	}
}

var namesSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"names": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string"},
			"minItems": 1,
			"maxItems": 12,
		},
	},
	"required":             []string{"names"},
	"additionalProperties": false,
}

func (a *aiAdapter) GenerateNames(ctx context.Context, userID, parentID uuid.UUID, level hierarchy.Level, chain hierarchy.Chain) ([]string, error) {
	system, user := level.NamesPrompt(chain)

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	obj, err := a.ai.GenerateJSON(callCtx, system, user, "child_names", namesSchema)
	a.audit(ctx, userID, parentID, "names:"+string(level.Child), len(system)+len(user), time.Since(start), err)
	if err != nil {
		return nil, classifyProviderError(err)
	}

	names := coerceNames(obj["names"])
	if len(names) == 0 {
		return nil, apperrors.NewGenerationError(apperrors.GenerationMalformed, fmt.Errorf("provider returned no usable %s names", level.Child))
	}
	return names, nil
}

func (a *aiAdapter) GenerateContent(ctx context.Context, userID, topicID uuid.UUID, chain hierarchy.Chain) (string, error) {
	system, user := hierarchy.ContentPrompt(chain)

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	text, err := a.ai.GenerateText(callCtx, system, user)
	a.audit(ctx, userID, topicID, "content", len(system)+len(user), time.Since(start), err)
	if err != nil {
		return "", classifyProviderError(err)
	}
	if strings.TrimSpace(text) == "" {
		return "", apperrors.NewGenerationError(apperrors.GenerationMalformed, fmt.Errorf("provider returned empty content"))
	}
	return text, nil
}

// coerceNames filters the provider list down to distinct, non-empty names.
// The exact count is never enforced; the provider is untrusted on that.
func coerceNames(raw any) []string {
	arr, ok := raw.([]any)
	if !ok {
		return nil
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = normalization.TrimName(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func classifyProviderError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewGenerationError(apperrors.GenerationTimeout, err)
	}
	var httpErr *openai.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == 429 {
			return apperrors.NewGenerationError(apperrors.GenerationQuota, err)
		}
		return apperrors.NewGenerationError(apperrors.GenerationProvider, err)
	}
	if strings.Contains(err.Error(), "failed to parse model JSON") || strings.Contains(err.Error(), "no output_text") {
		return apperrors.NewGenerationError(apperrors.GenerationMalformed, err)
	}
	return apperrors.NewGenerationError(apperrors.GenerationProvider, err)
}

// audit writes a best-effort AI call log row. Failures are logged, never
// surfaced; the audit trail must not break generation.
func (a *aiAdapter) audit(ctx context.Context, userID, parentID uuid.UUID, callType string, promptLen int, dur time.Duration, callErr error) {
	if a.callLogRepo == nil {
		return
	}
	row := &types.AICallLog{
		ID:         uuid.New(),
		UserID:     &userID,
		ParentID:   &parentID,
		CallType:   callType,
		Model:      a.ai.Model(),
		PromptLen:  promptLen,
		DurationMS: dur.Milliseconds(),
		Success:    callErr == nil,
		CreatedAt:  time.Now(),
	}
	if callErr != nil {
		row.Error = callErr.Error()
	}
	if _, err := a.callLogRepo.Create(context.WithoutCancel(ctx), nil, []*types.AICallLog{row}); err != nil {
		a.log.Warn("AI call audit write failed", "error", err, "call_type", callType)
	}
}
