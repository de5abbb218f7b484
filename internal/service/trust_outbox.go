package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"heroesfund/internal/domain"
	"heroesfund/internal/metrics"
)

const (
	defaultRelayTimeout     = 5 * time.Second
	defaultRelayMaxAttempts = 10
	relaySweepBatch         = 100
)

// TrustRelay delivers trust reduction intents. Each intent gets one attempt
// right after it is recorded and is retried by the periodic sweep until it is
// applied or runs out of attempts.
type TrustRelay struct {
	Intents     TrustIntentsStore
	Trust       *TrustService
	Logger      *slog.Logger
	Now         func() time.Time
	Timeout     time.Duration
	MaxAttempts int

	wg sync.WaitGroup
}

func (r *TrustRelay) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *TrustRelay) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}

func (r *TrustRelay) timeout() time.Duration {
	if r.Timeout <= 0 {
		return defaultRelayTimeout
	}
	return r.Timeout
}

func (r *TrustRelay) maxAttempts() int {
	if r.MaxAttempts <= 0 {
		return defaultRelayMaxAttempts
	}
	return r.MaxAttempts
}

// Enqueue records a durable intent for userID caused by applicationID.
func (r *TrustRelay) Enqueue(ctx context.Context, userID, applicationID string) (domain.TrustIntent, error) {
	intent, err := r.Intents.EnqueueTrustIntent(ctx, userID, applicationID, r.now())
	if err != nil {
		metrics.RecordTrustIntent(metrics.TrustEnqueueFailed)
		return domain.TrustIntent{}, domain.NewDependencyError("enqueue trust intent", err)
	}
	metrics.RecordTrustIntent(metrics.TrustEnqueued)
	return intent, nil
}

// Kick attempts intent in the background, detached from the caller.
func (r *TrustRelay) Kick(intent domain.TrustIntent) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout())
		defer cancel()
		_ = r.deliver(ctx, intent)
	}()
}

// Wait blocks until every kicked attempt has finished.
func (r *TrustRelay) Wait() { r.wg.Wait() }

// Sweep retries every pending intent once and returns how many it applied.
// Intents another attempt already applied are not counted.
func (r *TrustRelay) Sweep(ctx context.Context) (int, error) {
	pending, err := r.Intents.ListPendingTrustIntents(ctx, relaySweepBatch)
	if err != nil {
		return 0, fmt.Errorf("list pending trust intents: %w", err)
	}
	applied := 0
	for _, intent := range pending {
		if ctx.Err() != nil {
			return applied, ctx.Err()
		}
		if err := r.deliver(ctx, intent); err == nil {
			applied++
		}
	}
	return applied, nil
}

// Start schedules Sweep on spec (robfig cron syntax, e.g. "@every 30s").
// The returned func stops the schedule and waits for a running sweep.
func (r *TrustRelay) Start(spec string) (func(), error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout()*relaySweepBatch/10)
		defer cancel()
		n, err := r.Sweep(ctx)
		if err != nil {
			r.logger().Error("trust relay: sweep failed", "err", err)
			return
		}
		if n > 0 {
			r.logger().Info("trust relay: sweep applied intents", "count", n)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("trust relay schedule %q: %w", spec, err)
	}
	c.Start()
	return func() {
		<-c.Stop().Done()
		r.Wait()
	}, nil
}

// deliver makes one attempt at intent. It returns domain.ErrConflict, without
// recording a failure, when another attempt already applied it.
func (r *TrustRelay) deliver(ctx context.Context, intent domain.TrustIntent) error {
	logger := r.logger().With("intent_id", intent.ID, "user_id", intent.UserID, "application_id", intent.ApplicationID)

	err := r.apply(ctx, intent)
	if err == nil {
		metrics.RecordTrustIntent(metrics.TrustApplied)
		logger.Info("trust relay: reduction applied")
		return nil
	}
	if errors.Is(err, domain.ErrConflict) {
		return err
	}

	giveUp := intent.Attempts+1 >= r.maxAttempts()
	if recErr := r.Intents.RecordTrustIntentFailure(ctx, intent.ID, err.Error(), giveUp, r.now()); recErr != nil {
		logger.Error("trust relay: record failure failed", "err", recErr)
	}
	if giveUp {
		metrics.RecordTrustIntent(metrics.TrustGaveUp)
		logger.Error("trust relay: giving up on reduction", "err", domain.NewDependencyError("apply trust intent", err), "attempts", intent.Attempts+1)
	} else {
		metrics.RecordTrustIntent(metrics.TrustRetry)
		logger.Warn("trust relay: reduction failed, will retry", "err", err, "attempts", intent.Attempts+1)
	}
	return err
}

// apply leaves reading the basis to the store so that it happens under the
// same lock as the offset write.
func (r *TrustRelay) apply(ctx context.Context, intent domain.TrustIntent) error {
	return r.Intents.ApplyTrustIntent(ctx, intent.ID, intent.UserID, r.Trust.ReductionDelta, r.now())
}
