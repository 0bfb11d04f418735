package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/coursecraft/coursecraft-backend/internal/clients/openai"
	apperrors "github.com/coursecraft/coursecraft-backend/internal/pkg/errors"
)

func TestClassifyProviderErrorTimeout(t *testing.T) {
	err := classifyProviderError(fmt.Errorf("call failed: %w", context.DeadlineExceeded))
	genErr, ok := apperrors.AsGeneration(err)
	if !ok {
		t.Fatalf("not a generation error: %v", err)
	}
	if genErr.Kind != apperrors.GenerationTimeout {
		t.Fatalf("kind = %s, want timeout", genErr.Kind)
	}
	if !genErr.Retryable() {
		t.Fatal("timeouts should be retryable")
	}
}

func TestClassifyProviderErrorQuota(t *testing.T) {
	err := classifyProviderError(&openai.HTTPError{StatusCode: 429, Body: "rate limited"})
	genErr, ok := apperrors.AsGeneration(err)
	if !ok {
		t.Fatalf("not a generation error: %v", err)
	}
	if genErr.Kind != apperrors.GenerationQuota {
		t.Fatalf("kind = %s, want quota", genErr.Kind)
	}
}

func TestClassifyProviderErrorServerFault(t *testing.T) {
	err := classifyProviderError(&openai.HTTPError{StatusCode: 503, Body: "overloaded"})
	genErr, ok := apperrors.AsGeneration(err)
	if !ok {
		t.Fatalf("not a generation error: %v", err)
	}
	if genErr.Kind != apperrors.GenerationProvider {
		t.Fatalf("kind = %s, want provider", genErr.Kind)
	}
}

func TestClassifyProviderErrorMalformed(t *testing.T) {
	err := classifyProviderError(errors.New("failed to parse model JSON: unexpected end of input"))
	genErr, ok := apperrors.AsGeneration(err)
	if !ok {
		t.Fatalf("not a generation error: %v", err)
	}
	if genErr.Kind != apperrors.GenerationMalformed {
		t.Fatalf("kind = %s, want malformed", genErr.Kind)
	}
	if genErr.Retryable() {
		t.Fatal("malformed output should not be retryable")
	}
}

func TestClassifyProviderErrorUnknownIsProvider(t *testing.T) {
	err := classifyProviderError(errors.New("connection reset"))
	genErr, ok := apperrors.AsGeneration(err)
	if !ok {
		t.Fatalf("not a generation error: %v", err)
	}
	if genErr.Kind != apperrors.GenerationProvider {
		t.Fatalf("kind = %s, want provider", genErr.Kind)
	}
}

func TestCoerceNames(t *testing.T) {
	raw := []any{"  Limits ", "limits", "Derivatives", "", 42, "Integrals\tand   Series"}
	got := coerceNames(raw)
	want := []string{"Limits", "Derivatives", "Integrals and Series"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("coerceNames = %v, want %v", got, want)
	}
}

func TestCoerceNamesNonArray(t *testing.T) {
	if got := coerceNames("not a list"); got != nil {
		t.Fatalf("expected nil for non-array, got %v", got)
	}
}
