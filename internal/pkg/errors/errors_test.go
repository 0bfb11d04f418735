package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestGenerationErrorWrapping(t *testing.T) {
	cause := stderrors.New("socket closed")
	genErr := NewGenerationError(GenerationProvider, cause)

	wrapped := fmt.Errorf("generate subjects: %w", genErr)
	got, ok := AsGeneration(wrapped)
	if !ok {
		t.Fatal("AsGeneration missed wrapped error")
	}
	if got.Kind != GenerationProvider {
		t.Fatalf("kind = %s", got.Kind)
	}
	if !stderrors.Is(wrapped, cause) {
		t.Fatal("cause lost in chain")
	}
}

func TestGenerationErrorRetryable(t *testing.T) {
	cases := map[GenerationErrorKind]bool{
		GenerationTimeout:   true,
		GenerationQuota:     true,
		GenerationProvider:  true,
		GenerationMalformed: false,
	}
	for kind, want := range cases {
		if got := NewGenerationError(kind, nil).Retryable(); got != want {
			t.Fatalf("Retryable(%s) = %v, want %v", kind, got, want)
		}
	}
}

func TestSentinelWrapping(t *testing.T) {
	err := fmt.Errorf("%w: course abc", ErrNotFound)
	if !stderrors.Is(err, ErrNotFound) {
		t.Fatal("sentinel lost")
	}
	if stderrors.Is(err, ErrForbidden) {
		t.Fatal("wrong sentinel matched")
	}
}
