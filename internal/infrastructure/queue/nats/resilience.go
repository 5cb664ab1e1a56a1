package nats

import (
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/defexvision/inspection-service/internal/core/domain"
	"github.com/defexvision/inspection-service/internal/infrastructure/resilience"
)

func classifyNATSError(err error) resilience.Classification {
	if err == nil {
		return resilience.Classification{}
	}
	if isRetryableNATSError(err) {
		return resilience.Classification{Retryable: true, RecordFailure: true}
	}
	return resilience.Classification{Retryable: false, RecordFailure: true}
}

func isRetryableNATSError(err error) bool {
	switch {
	case errors.Is(err, nats.ErrConnectionClosed),
		errors.Is(err, nats.ErrConnectionDraining),
		errors.Is(err, nats.ErrDisconnected),
		errors.Is(err, nats.ErrTimeout),
		errors.Is(err, nats.ErrNoServers),
		errors.Is(err, nats.ErrConnectionReconnecting):
		return true
	}
	return false
}

// wrapTemporaryIfNeeded tags retryable transport errors so callers can tell
// a flaky broker from a broken payload.
func wrapTemporaryIfNeeded(err error) error {
	if err == nil {
		return nil
	}
	if resilience.IsCircuitOpen(err) || isRetryableNATSError(err) {
		return domain.WrapError(domain.ErrTemporary, "nats", err)
	}
	return err
}
