package nats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/context-reader/internal/core/domain"
)

func TestEventRoundTripAndBareID(t *testing.T) {
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	payload, err := encodeEvent("doc-1", at)
	if err != nil {
		t.Fatalf("encodeEvent() error = %v", err)
	}
	event, err := decodeEvent(payload)
	if err != nil {
		t.Fatalf("decodeEvent() error = %v", err)
	}
	if event.DocumentID != "doc-1" || !event.EnqueuedAt.Equal(at) {
		t.Fatalf("unexpected event: %+v", event)
	}

	bare, err := decodeEvent([]byte(" doc-2 \n"))
	if err != nil || bare.DocumentID != "doc-2" {
		t.Fatalf("expected bare id to decode, got %+v (%v)", bare, err)
	}
}

func TestDecodeEventRejectsInvalidPayloads(t *testing.T) {
	for _, raw := range []string{"", "{", `{"enqueued_at":"2025-05-01T12:00:00Z"}`} {
		if _, err := decodeEvent([]byte(raw)); err == nil {
			t.Fatalf("decodeEvent(%q) expected error", raw)
		}
	}
}

func TestClassifyPublishError(t *testing.T) {
	if class := classifyPublishError(fmt.Errorf("nats publish: %w", nats.ErrNoServers)); !class.Retryable {
		t.Fatalf("expected no-servers to be retryable")
	}
	if class := classifyPublishError(nats.ErrConnectionReconnecting); !class.Retryable {
		t.Fatalf("expected reconnecting to be retryable")
	}
	if class := classifyPublishError(context.Canceled); class.Retryable || class.RecordFailure {
		t.Fatalf("expected cancellation to be ignored, got %+v", class)
	}
	if class := classifyPublishError(fmt.Errorf("nats publish: %w", nats.ErrMaxPayload)); class.Retryable || class.RecordFailure {
		t.Fatalf("expected oversized payload to be permanent without tripping the breaker, got %+v", class)
	}
	if class := classifyPublishError(errors.New("unexpected")); class.Retryable {
		t.Fatalf("expected generic error to be terminal")
	}
}

func TestWrapPublishError(t *testing.T) {
	err := wrapPublishError("doc-1", fmt.Errorf("nats publish: %w", nats.ErrTimeout))
	if !domain.IsKind(err, domain.ErrTemporary) || !strings.Contains(err.Error(), "doc-1") {
		t.Fatalf("expected ErrTemporary naming the document, got %v", err)
	}

	tooBig := wrapPublishError("doc-2", fmt.Errorf("nats publish: %w", nats.ErrMaxPayload))
	if !domain.IsKind(tooBig, domain.ErrInvalidInput) || !errors.Is(tooBig, nats.ErrMaxPayload) {
		t.Fatalf("expected invalid input wrapping ErrMaxPayload, got %v", tooBig)
	}
	if !strings.Contains(tooBig.Error(), "max_payload") {
		t.Fatalf("expected max_payload in message, got %v", tooBig)
	}

	badSubject := wrapPublishError("doc-3", nats.ErrBadSubject)
	if domain.IsKind(badSubject, domain.ErrTemporary) || !strings.Contains(badSubject.Error(), "NATS_SUBJECT") {
		t.Fatalf("expected configuration hint, got %v", badSubject)
	}

	plain := errors.New("unexpected")
	if got := wrapPublishError("doc-4", plain); got != plain {
		t.Fatalf("expected terminal error unchanged, got %v", got)
	}
}

func TestEnqueuedAtFromContext(t *testing.T) {
	if _, ok := EnqueuedAt(context.Background()); ok {
		t.Fatalf("expected no enqueue time on a bare context")
	}
	at := time.Date(2025, 5, 17, 10, 0, 0, 0, time.UTC)
	got, ok := EnqueuedAt(context.WithValue(context.Background(), enqueuedAtKey{}, at))
	if !ok || !got.Equal(at) {
		t.Fatalf("EnqueuedAt() = %v, %v", got, ok)
	}
}
