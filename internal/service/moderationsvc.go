package service

import (
	"context"
	"log/slog"
	"time"

	"heroesfund/internal/domain"
	"heroesfund/internal/metrics"
)

// TrustReducer queues the one-step trust reduction that may follow a
// decision.
type TrustReducer interface {
	Enqueue(ctx context.Context, userID, applicationID string) (domain.TrustIntent, error)
	Kick(intent domain.TrustIntent)
}

type DecisionResult struct {
	Application              domain.Application `json:"application"`
	TrustAdjustmentRequested bool               `json:"trust_adjustment_requested"`
}

// ModerationService is the only caller of both the application state machine
// and the trust side effect.
type ModerationService struct {
	Applications ApplicationsStore
	Trust        TrustReducer
	Logger       *slog.Logger
	Now          func() time.Time

	// EnqueueTimeout bounds the intent write once the decision is stored.
	EnqueueTimeout time.Duration
}

func (s *ModerationService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *ModerationService) Decide(ctx context.Context, actor domain.Actor, applicationID string, d domain.Decision) (DecisionResult, error) {
	if !actor.IsAdmin() {
		return DecisionResult{}, domain.ErrForbidden
	}

	current, err := s.Applications.GetApplication(ctx, applicationID)
	if err != nil {
		return DecisionResult{}, err
	}

	updated, trustRequested, err := domain.ApplyDecision(current, d, s.now())
	if err != nil {
		return DecisionResult{}, err
	}

	saved, err := s.Applications.SaveApplication(ctx, updated, d.ExpectedVersion)
	if err != nil {
		return DecisionResult{}, err
	}
	metrics.RecordDecision(string(saved.Status), trustRequested)

	if trustRequested {
		s.requestTrustReduction(ctx, saved)
	}

	return DecisionResult{Application: saved, TrustAdjustmentRequested: trustRequested}, nil
}

// QuickDecide is Decide with the status pinned to APPROVED or REJECTED and
// no story publication.
func (s *ModerationService) QuickDecide(ctx context.Context, actor domain.Actor, applicationID string, status domain.ApplicationStatus, comment *string, decreaseTrust bool) (DecisionResult, error) {
	if !actor.IsAdmin() {
		return DecisionResult{}, domain.ErrForbidden
	}
	if !status.Financial() {
		return DecisionResult{}, domain.ErrInvalidStatus
	}
	return s.Decide(ctx, actor, applicationID, domain.Decision{
		Status:        status,
		Comment:       comment,
		DecreaseTrust: decreaseTrust,
	})
}

func (s *ModerationService) Delete(ctx context.Context, actor domain.Actor, applicationID string) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	return s.Applications.DeleteApplication(ctx, applicationID)
}

// requestTrustReduction never fails the decision: errors are logged and the
// intent, once recorded, is retried by the relay.
func (s *ModerationService) requestTrustReduction(ctx context.Context, a domain.Application) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if s.Trust == nil {
		logger.Error("moderation: trust reducer not configured", "application_id", a.ID, "user_id", a.OwnerID)
		return
	}

	timeout := s.EnqueueTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	intent, err := s.Trust.Enqueue(ctx, a.OwnerID, a.ID)
	if err != nil {
		logger.Error("moderation: trust reduction not recorded", "err", err, "application_id", a.ID, "user_id", a.OwnerID)
		return
	}
	s.Trust.Kick(intent)
}
