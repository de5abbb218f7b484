package service

import (
	"context"
	"time"

	"heroesfund/internal/domain"
)

type ApplicationsService struct {
	Applications ApplicationsStore
	Now          func() time.Time
}

func (s *ApplicationsService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *ApplicationsService) Create(ctx context.Context, actor domain.Actor, content domain.ApplicationContent) (domain.Application, error) {
	if actor.UserID == "" {
		return domain.Application{}, domain.ErrUnauthorized
	}

	content = content.Normalize()
	if err := content.Validate(); err != nil {
		return domain.Application{}, err
	}
	return s.Applications.CreateApplication(ctx, domain.NewApplication(actor.UserID, content, s.now()))
}

func (s *ApplicationsService) Get(ctx context.Context, actor domain.Actor, id string) (domain.Application, error) {
	a, err := s.Applications.GetApplication(ctx, id)
	if err != nil {
		return domain.Application{}, err
	}
	if !actor.IsAdmin() && a.OwnerID != actor.UserID {
		return domain.Application{}, domain.ErrForbidden
	}
	return a, nil
}

// UpdateContent lets the owner edit an application that has never been
// decided.
func (s *ApplicationsService) UpdateContent(ctx context.Context, actor domain.Actor, id string, content domain.ApplicationContent, expectedVersion int) (domain.Application, error) {
	content = content.Normalize()
	if err := content.Validate(); err != nil {
		return domain.Application{}, err
	}

	a, err := s.Applications.GetApplication(ctx, id)
	if err != nil {
		return domain.Application{}, err
	}
	if a.OwnerID != actor.UserID {
		return domain.Application{}, domain.ErrForbidden
	}
	if !a.Editable() {
		return domain.Application{}, domain.ErrInvalidTransition
	}
	if expectedVersion > 0 && expectedVersion != a.Version {
		return domain.Application{}, domain.ErrConflict
	}

	// Guard against a decision landing between the read and the write.
	guard := expectedVersion
	if guard == 0 {
		guard = a.Version
	}
	return s.Applications.SaveApplication(ctx, a.WithContent(content, s.now()), guard)
}

// List is the administrator listing over every application.
func (s *ApplicationsService) List(ctx context.Context, actor domain.Actor, q domain.ApplicationQuery) (domain.ApplicationPage, error) {
	if !actor.IsAdmin() {
		return domain.ApplicationPage{}, domain.ErrForbidden
	}
	q, err := q.Normalize()
	if err != nil {
		return domain.ApplicationPage{}, err
	}
	return s.Applications.ListApplications(ctx, q)
}

// ListMine restricts the listing to the caller's own applications.
func (s *ApplicationsService) ListMine(ctx context.Context, actor domain.Actor, q domain.ApplicationQuery) (domain.ApplicationPage, error) {
	if actor.UserID == "" {
		return domain.ApplicationPage{}, domain.ErrUnauthorized
	}
	q.Filter.OwnerID = actor.UserID
	q, err := q.Normalize()
	if err != nil {
		return domain.ApplicationPage{}, err
	}
	return s.Applications.ListApplications(ctx, q)
}
