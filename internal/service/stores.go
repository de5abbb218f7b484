package service

import (
	"context"
	"time"

	"heroesfund/internal/domain"
)

type UsersStore interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
}

type ApplicationsStore interface {
	CreateApplication(ctx context.Context, a domain.Application) (domain.Application, error)
	GetApplication(ctx context.Context, id string) (domain.Application, error)
	// SaveApplication writes every mutable field of a and bumps its version.
	// When expectedVersion > 0 the write only happens if the stored version
	// still matches, otherwise domain.ErrConflict.
	SaveApplication(ctx context.Context, a domain.Application, expectedVersion int) (domain.Application, error)
	DeleteApplication(ctx context.Context, id string) error
	ListApplications(ctx context.Context, q domain.ApplicationQuery) (domain.ApplicationPage, error)
}

type TrustStore interface {
	GetTrustBasis(ctx context.Context, userID string) (domain.TrustBasis, error)
}

type TrustIntentsStore interface {
	EnqueueTrustIntent(ctx context.Context, userID, applicationID string, when time.Time) (domain.TrustIntent, error)
	GetTrustIntent(ctx context.Context, id string) (domain.TrustIntent, error)
	ListPendingTrustIntents(ctx context.Context, limit int) ([]domain.TrustIntent, error)
	// ApplyTrustIntent marks the intent done and raises the user's trust
	// offset by reduce(basis), where basis is read under the same lock or
	// transaction as the write. An intent that is no longer pending yields
	// domain.ErrConflict and leaves the offset untouched.
	ApplyTrustIntent(ctx context.Context, intentID, userID string, reduce func(domain.TrustBasis) int, when time.Time) error
	RecordTrustIntentFailure(ctx context.Context, intentID, message string, giveUp bool, when time.Time) error
}

type FriendshipsStore interface {
	CreateFriendship(ctx context.Context, f domain.Friendship) (domain.Friendship, error)
	GetFriendship(ctx context.Context, id string) (domain.Friendship, error)
	FindFriendshipBetween(ctx context.Context, userA, userB string) (domain.Friendship, error)
	// UpdateFriendship persists f only if the stored status is still from;
	// otherwise domain.ErrNotAuthorized.
	UpdateFriendship(ctx context.Context, f domain.Friendship, from domain.FriendshipStatus) error
	DeleteFriendship(ctx context.Context, id string) error
	ListOverview(ctx context.Context, userID string) (domain.FriendsOverview, error)
}
