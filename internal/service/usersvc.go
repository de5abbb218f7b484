package service

import (
	"context"

	"heroesfund/internal/domain"
)

type ProfileStore interface {
	UpsertUser(ctx context.Context, u domain.User) (domain.User, error)
}

// ProfileService keeps the local user record in line with the identity
// provider. The record must exist before the user can own applications or
// friendships.
type ProfileService struct {
	Store ProfileStore
}

func (s *ProfileService) Upsert(ctx context.Context, actor domain.Actor, username, displayName string) (domain.User, error) {
	if actor.UserID == "" {
		return domain.User{}, domain.ErrUnauthorized
	}
	username, displayName, err := domain.NormalizeProfile(username, displayName)
	if err != nil {
		return domain.User{}, err
	}
	return s.Store.UpsertUser(ctx, domain.User{ID: actor.UserID, Username: username, DisplayName: displayName})
}
