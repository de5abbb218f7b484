package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"heroesfund/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FriendshipsStore struct {
	pool *pgxpool.Pool
}

func NewFriendshipsStore(pool *pgxpool.Pool) *FriendshipsStore {
	return &FriendshipsStore{pool: pool}
}

const friendshipColumns = `id, requester_id, receiver_id, status, blocked_by, created_at, updated_at, responded_at`

func scanFriendship(row pgx.Row) (domain.Friendship, error) {
	var (
		f           domain.Friendship
		idUUID      pgtype.UUID
		reqUUID     pgtype.UUID
		recUUID     pgtype.UUID
		blockedUUID pgtype.UUID
		respondedAt pgtype.Timestamptz
	)
	err := row.Scan(&idUUID, &reqUUID, &recUUID, &f.Status, &blockedUUID, &f.CreatedAt, &f.UpdatedAt, &respondedAt)
	if err != nil {
		return domain.Friendship{}, err
	}
	f.ID = uuidOrEmpty(idUUID)
	f.RequesterID = uuidOrEmpty(reqUUID)
	f.ReceiverID = uuidOrEmpty(recUUID)
	f.BlockedBy = uuidOrEmpty(blockedUUID)
	f.RespondedAt = timestamptzPtr(respondedAt)
	return f, nil
}

func (s *FriendshipsStore) CreateFriendship(ctx context.Context, f domain.Friendship) (domain.Friendship, error) {
	const q = `
		INSERT INTO friendships (requester_id, receiver_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + friendshipColumns

	created, err := scanFriendship(s.pool.QueryRow(ctx, q, f.RequesterID, f.ReceiverID, string(f.Status), f.CreatedAt, f.UpdatedAt))
	if err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23505" && pgerr.ConstraintName == "friendships_pair_uq" {
			return domain.Friendship{}, domain.ErrDuplicateEdge
		}
		if isForeignKeyViolation(err) {
			return domain.Friendship{}, domain.ErrNotFound
		}
		return domain.Friendship{}, fmt.Errorf("create friendship: %w", err)
	}
	return created, nil
}

func (s *FriendshipsStore) GetFriendship(ctx context.Context, id string) (domain.Friendship, error) {
	const q = `SELECT ` + friendshipColumns + ` FROM friendships WHERE id = $1`
	f, err := scanFriendship(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return domain.Friendship{}, domain.ErrNotFound
		}
		return domain.Friendship{}, fmt.Errorf("get friendship: %w", err)
	}
	return f, nil
}

// FindFriendshipBetween returns the occupying edge of the pair if there is
// one, otherwise the most recent declined edge.
func (s *FriendshipsStore) FindFriendshipBetween(ctx context.Context, userA, userB string) (domain.Friendship, error) {
	const q = `
		SELECT ` + friendshipColumns + `
		FROM friendships
		WHERE (requester_id = $1 AND receiver_id = $2) OR (requester_id = $2 AND receiver_id = $1)
		ORDER BY (status <> 'DECLINED') DESC, updated_at DESC
		LIMIT 1
	`
	f, err := scanFriendship(s.pool.QueryRow(ctx, q, userA, userB))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return domain.Friendship{}, domain.ErrNotFound
		}
		return domain.Friendship{}, fmt.Errorf("find friendship: %w", err)
	}
	return f, nil
}

func (s *FriendshipsStore) UpdateFriendship(ctx context.Context, f domain.Friendship, from domain.FriendshipStatus) error {
	const q = `
		UPDATE friendships
		SET status = $3, blocked_by = $4, updated_at = $5, responded_at = $6
		WHERE id = $1 AND status = $2
	`
	ct, err := s.pool.Exec(ctx, q, f.ID, string(from), string(f.Status), nullIfEmpty(f.BlockedBy), f.UpdatedAt, f.RespondedAt)
	if err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23505" {
			return domain.ErrDuplicateEdge
		}
		return fmt.Errorf("update friendship: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotAuthorized
	}
	return nil
}

func (s *FriendshipsStore) DeleteFriendship(ctx context.Context, id string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM friendships WHERE id = $1`, id)
	if err != nil {
		if isInvalidText(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete friendship: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *FriendshipsStore) ListOverview(ctx context.Context, userID string) (domain.FriendsOverview, error) {
	friends, err := s.listFriends(ctx, userID)
	if err != nil {
		return domain.FriendsOverview{}, err
	}
	incoming, err := s.listRequests(ctx, userID, true)
	if err != nil {
		return domain.FriendsOverview{}, err
	}
	outgoing, err := s.listRequests(ctx, userID, false)
	if err != nil {
		return domain.FriendsOverview{}, err
	}

	return domain.FriendsOverview{
		Friends:  friends,
		Incoming: incoming,
		Outgoing: outgoing,
	}, nil
}

func (s *FriendshipsStore) listFriends(ctx context.Context, userID string) ([]domain.UserSummary, error) {
	const q = `
		SELECT u.id, u.username, u.display_name
		FROM friendships f
		JOIN users u ON u.id = CASE
			WHEN f.requester_id = $1 THEN f.receiver_id
			ELSE f.requester_id
		END
		WHERE f.status = 'ACCEPTED' AND (f.requester_id = $1 OR f.receiver_id = $1)
		ORDER BY u.username ASC
	`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	out := []domain.UserSummary{}
	for rows.Next() {
		var (
			idUUID      pgtype.UUID
			username    string
			displayName pgtype.Text
		)
		if err := rows.Scan(&idUUID, &username, &displayName); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		out = append(out, domain.UserSummary{ID: uuidOrEmpty(idUUID), Username: username, DisplayName: textOrEmpty(displayName)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return out, nil
}

// listRequests lists pending edges received by userID when incoming is set,
// or sent by userID otherwise.
func (s *FriendshipsStore) listRequests(ctx context.Context, userID string, incoming bool) ([]domain.FriendRequest, error) {
	q := `
		SELECT f.id, f.created_at, u.id, u.username, u.display_name
		FROM friendships f
		JOIN users u ON u.id = f.requester_id
		WHERE f.status = 'PENDING' AND f.receiver_id = $1
		ORDER BY f.created_at DESC
	`
	label := "incoming"
	if !incoming {
		q = `
			SELECT f.id, f.created_at, u.id, u.username, u.display_name
			FROM friendships f
			JOIN users u ON u.id = f.receiver_id
			WHERE f.status = 'PENDING' AND f.requester_id = $1
			ORDER BY f.created_at DESC
		`
		label = "outgoing"
	}

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s requests: %w", label, err)
	}
	defer rows.Close()

	out := []domain.FriendRequest{}
	for rows.Next() {
		var (
			reqIDUUID   pgtype.UUID
			createdAt   time.Time
			otherUUID   pgtype.UUID
			username    string
			displayName pgtype.Text
		)
		if err := rows.Scan(&reqIDUUID, &createdAt, &otherUUID, &username, &displayName); err != nil {
			return nil, fmt.Errorf("scan %s request: %w", label, err)
		}
		out = append(out, domain.FriendRequest{
			ID:        uuidOrEmpty(reqIDUUID),
			User:      domain.UserSummary{ID: uuidOrEmpty(otherUUID), Username: username, DisplayName: textOrEmpty(displayName)},
			CreatedAt: createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s requests: %w", label, err)
	}
	return out, nil
}
