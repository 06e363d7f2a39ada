package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker/v2"

	"github.com/documind-ai/documind/internal/core/domain"
)

func TestClassifyNATSError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		retryable     bool
		recordFailure bool
	}{
		{"no servers", nats.ErrNoServers, true, true},
		{"timeout", nats.ErrTimeout, true, true},
		{"connection closed", nats.ErrConnectionClosed, true, true},
		{"disconnected", nats.ErrDisconnected, true, true},
		{"context canceled", context.Canceled, false, false},
		{"deadline exceeded", context.DeadlineExceeded, false, false},
		{"circuit open", gobreaker.ErrOpenState, true, true},
		{"unknown error", errors.New("invalid subject"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class := classifyNATSError(tt.err)
			if class.Retryable != tt.retryable {
				t.Fatalf("retryable = %v, want %v", class.Retryable, tt.retryable)
			}
			if class.RecordFailure != tt.recordFailure {
				t.Fatalf("recordFailure = %v, want %v", class.RecordFailure, tt.recordFailure)
			}
		})
	}
}

func TestWrapUnavailableMarksBrokerConnectivityFailures(t *testing.T) {
	err := wrapUnavailableIfNeeded(nats.ErrNoServers)
	if !domain.IsKind(err, domain.ErrQueueUnavailable) {
		t.Fatalf("broker connectivity failure should carry the queue-unavailable kind, got %v", err)
	}
	if !errors.Is(err, nats.ErrNoServers) {
		t.Fatalf("wrapped error must keep the cause, got %v", err)
	}
}

func TestWrapUnavailableMarksOpenCircuit(t *testing.T) {
	err := wrapUnavailableIfNeeded(gobreaker.ErrOpenState)
	if !domain.IsKind(err, domain.ErrQueueUnavailable) {
		t.Fatalf("open circuit should carry the queue-unavailable kind, got %v", err)
	}
}

func TestWrapUnavailableLeavesPermanentErrorsAlone(t *testing.T) {
	errBadSubject := errors.New("invalid subject")
	err := wrapUnavailableIfNeeded(errBadSubject)
	if domain.IsKind(err, domain.ErrQueueUnavailable) {
		t.Fatalf("permanent failure must not trigger the local fallback, got %v", err)
	}
	if !errors.Is(err, errBadSubject) {
		t.Fatalf("permanent error should pass through unchanged, got %v", err)
	}
}

func TestWrapUnavailableIsIdempotent(t *testing.T) {
	once := wrapUnavailableIfNeeded(nats.ErrTimeout)
	twice := wrapUnavailableIfNeeded(once)
	if twice != once {
		t.Fatalf("already wrapped errors must pass through, got %v", twice)
	}
	if wrapUnavailableIfNeeded(nil) != nil {
		t.Fatal("nil must stay nil")
	}
}
