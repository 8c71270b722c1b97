package goSignup

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrEthical07/goSignup/internal/flows"
	"github.com/MrEthical07/goSignup/internal/stores"
	"github.com/MrEthical07/goSignup/jwt"
	"github.com/MrEthical07/goSignup/password"
)

// Engine runs the registration and session flows.
//
// An Engine is built once through [Builder.Build] and is safe for concurrent
// use; every method is one synchronous request against its stores.
type Engine struct {
	config       Config
	flows        flows.Service
	verification *stores.VerificationStore
	credentials  CredentialStore
	notifier     Notifier
	passwordHash password.Hasher
	jwtManager   *jwt.Manager
	metrics      *Metrics
	logger       *slog.Logger
	now          func() time.Time
}

// Pinger is implemented by credential stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Ping checks the verification store and, when it implements [Pinger], the
// credential store. Failures are reported as [ErrStoreUnavailable].
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil || e.verification == nil {
		return ErrEngineNotReady
	}

	pingCtx, cancel := context.WithTimeout(ctx, e.config.Timeouts.Store)
	defer cancel()

	if err := e.verification.Ping(pingCtx); err != nil {
		return dependencyError(ErrStoreUnavailable, err)
	}
	if p, ok := e.credentials.(Pinger); ok {
		if err := p.Ping(pingCtx); err != nil {
			return dependencyError(ErrStoreUnavailable, err)
		}
	}
	return nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}
