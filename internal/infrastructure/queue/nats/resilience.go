package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
	"github.com/kirillkom/income-bracket-predictor/internal/infrastructure/resilience"
)

// publishPolicy retries connection-level failures only.
func publishPolicy(err error) resilience.Outcome {
	if err == nil {
		return resilience.Outcome{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Outcome{}
	}
	if isConnectionError(err) || resilience.IsCircuitOpen(err) {
		return resilience.Outcome{Retry: true, Trip: true}
	}
	return resilience.Outcome{Trip: true}
}

func isConnectionError(err error) bool {
	return errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrDisconnected)
}

func wrapTemporaryIfNeeded(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if publishPolicy(err).Retry {
		return domain.WrapError(domain.ErrTemporary, "nats publish", err)
	}
	return err
}
