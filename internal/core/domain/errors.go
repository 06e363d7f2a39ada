package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrTemporary        = errors.New("temporary failure")

	// ErrConflict means another worker already owns the document's
	// processing transition.
	ErrConflict = errors.New("conflicting document state")

	// ErrExtraction: source bytes cannot be parsed or read. Terminal for
	// the document, never retried.
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbedding: the embedding backend could not process a batch.
	// Transient, retryable at the job level.
	ErrEmbedding = errors.New("embedding failed")

	// ErrQueueUnavailable: the work queue cannot be reached. Callers fall
	// back to in-process execution instead of surfacing this to users.
	ErrQueueUnavailable = errors.New("queue unavailable")

	// ErrStore: a transactional chunk write failed and was rolled back.
	ErrStore = errors.New("store failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
