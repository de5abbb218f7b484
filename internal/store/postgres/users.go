package postgres

import (
	"context"
	"errors"
	"fmt"

	"heroesfund/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersStore struct {
	pool *pgxpool.Pool
}

func NewUsersStore(pool *pgxpool.Pool) *UsersStore {
	return &UsersStore{pool: pool}
}

// CreateUser registers a user record. Accounts themselves are managed by the
// identity provider; this only mirrors the id and display fields.
func (s *UsersStore) CreateUser(ctx context.Context, username, displayName string) (domain.User, error) {
	const q = `
		INSERT INTO users (username, display_name)
		VALUES ($1, $2)
		RETURNING id, username, display_name, created_at
	`
	u, err := scanUser(s.pool.QueryRow(ctx, q, username, nullIfEmpty(displayName)))
	if err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23505" {
			return domain.User{}, domain.NewValidationError(map[string]string{"username": "already taken"})
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// UpsertUser mirrors the profile of an identity-provider user under its own id.
func (s *UsersStore) UpsertUser(ctx context.Context, u domain.User) (domain.User, error) {
	const q = `
		INSERT INTO users (id, username, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username, display_name = EXCLUDED.display_name
		RETURNING id, username, display_name, created_at
	`
	saved, err := scanUser(s.pool.QueryRow(ctx, q, u.ID, u.Username, nullIfEmpty(u.DisplayName)))
	if err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23505" {
			return domain.User{}, domain.NewValidationError(map[string]string{"username": "already taken"})
		}
		if isInvalidText(err) {
			return domain.User{}, domain.NewValidationError(map[string]string{"id": "must be a uuid"})
		}
		return domain.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return saved, nil
}

func (s *UsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	const q = `
		SELECT id, username, display_name, created_at
		FROM users
		WHERE id = $1
	`
	u, err := scanUser(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (s *UsersStore) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	const q = `
		SELECT id, username, display_name, created_at
		FROM users
		WHERE username = $1
	`
	u, err := scanUser(s.pool.QueryRow(ctx, q, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u           domain.User
		idUUID      pgtype.UUID
		displayName pgtype.Text
	)
	if err := row.Scan(&idUUID, &u.Username, &displayName, &u.CreatedAt); err != nil {
		return domain.User{}, err
	}
	u.ID = uuidOrEmpty(idUUID)
	u.DisplayName = textOrEmpty(displayName)
	return u, nil
}

// GetTrustBasis counts APPROVED applications that still count towards trust,
// alongside the stored reduction offset.
func (s *UsersStore) GetTrustBasis(ctx context.Context, userID string) (domain.TrustBasis, error) {
	const q = `
		SELECT
			u.trust_offset,
			(SELECT count(*) FROM applications a
			 WHERE a.owner_id = u.id AND a.status = 'APPROVED' AND a.count_towards_trust)
		FROM users u
		WHERE u.id = $1
	`
	var b domain.TrustBasis
	err := s.pool.QueryRow(ctx, q, userID).Scan(&b.Offset, &b.ApprovedCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return domain.TrustBasis{}, domain.ErrNotFound
		}
		return domain.TrustBasis{}, fmt.Errorf("get trust basis: %w", err)
	}
	return b, nil
}
