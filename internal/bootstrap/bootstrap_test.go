package bootstrap

import (
	"errors"
	"testing"

	"github.com/documind-ai/documind/internal/core/domain"
)

func TestProbeFatalDimensionMismatchAlwaysStopsStartup(t *testing.T) {
	mismatch := domain.WrapError(domain.ErrInvalidInput, "embed batch",
		errors.New("embedding 0 has dimension 768, configured 384"))

	if !probeFatal(false, mismatch) {
		t.Fatal("a dimension mismatch must stop startup even without strict boot")
	}
	if !probeFatal(true, mismatch) {
		t.Fatal("a dimension mismatch must stop startup under strict boot")
	}
}

func TestProbeFatalToleratesUnreachableBackendWhenNotStrict(t *testing.T) {
	down := domain.WrapError(domain.ErrEmbedding, "embed batch",
		errors.New("connection refused"))

	if probeFatal(false, down) {
		t.Fatal("a connectivity failure should only warn without strict boot")
	}
	if !probeFatal(true, down) {
		t.Fatal("strict boot must treat any probe failure as fatal")
	}
}
