package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"heroesfund/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TrustIntentsStore struct {
	pool *pgxpool.Pool
}

func NewTrustIntentsStore(pool *pgxpool.Pool) *TrustIntentsStore {
	return &TrustIntentsStore{pool: pool}
}

const trustIntentColumns = `id, user_id, application_id, status, attempts, last_error, created_at, updated_at, applied_at`

func scanTrustIntent(row pgx.Row) (domain.TrustIntent, error) {
	var (
		in        domain.TrustIntent
		idUUID    pgtype.UUID
		userUUID  pgtype.UUID
		appUUID   pgtype.UUID
		lastError pgtype.Text
		appliedAt pgtype.Timestamptz
	)
	err := row.Scan(&idUUID, &userUUID, &appUUID, &in.Status, &in.Attempts, &lastError, &in.CreatedAt, &in.UpdatedAt, &appliedAt)
	if err != nil {
		return domain.TrustIntent{}, err
	}
	in.ID = uuidOrEmpty(idUUID)
	in.UserID = uuidOrEmpty(userUUID)
	in.ApplicationID = uuidOrEmpty(appUUID)
	in.LastError = textOrEmpty(lastError)
	in.AppliedAt = timestamptzPtr(appliedAt)
	return in, nil
}

func (s *TrustIntentsStore) EnqueueTrustIntent(ctx context.Context, userID, applicationID string, when time.Time) (domain.TrustIntent, error) {
	const q = `
		INSERT INTO trust_intents (user_id, application_id, status, created_at, updated_at)
		VALUES ($1, $2, 'pending', $3, $3)
		RETURNING ` + trustIntentColumns
	in, err := scanTrustIntent(s.pool.QueryRow(ctx, q, userID, applicationID, when))
	if err != nil {
		return domain.TrustIntent{}, fmt.Errorf("enqueue trust intent: %w", err)
	}
	return in, nil
}

func (s *TrustIntentsStore) GetTrustIntent(ctx context.Context, id string) (domain.TrustIntent, error) {
	const q = `SELECT ` + trustIntentColumns + ` FROM trust_intents WHERE id = $1`
	in, err := scanTrustIntent(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return domain.TrustIntent{}, domain.ErrNotFound
		}
		return domain.TrustIntent{}, fmt.Errorf("get trust intent: %w", err)
	}
	return in, nil
}

func (s *TrustIntentsStore) ListPendingTrustIntents(ctx context.Context, limit int) ([]domain.TrustIntent, error) {
	const q = `
		SELECT ` + trustIntentColumns + `
		FROM trust_intents
		WHERE status = 'pending'
		ORDER BY created_at ASC, id ASC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending trust intents: %w", err)
	}
	defer rows.Close()

	out := []domain.TrustIntent{}
	for rows.Next() {
		in, err := scanTrustIntent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trust intent: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending trust intents: %w", err)
	}
	return out, nil
}

// ApplyTrustIntent locks the user row, claims the intent, and raises the
// offset by reduce(basis) in one transaction. The row lock serializes
// reductions for a user across server instances.
func (s *TrustIntentsStore) ApplyTrustIntent(ctx context.Context, intentID, userID string, reduce func(domain.TrustBasis) int, when time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin apply trust intent: %w", err)
	}
	defer tx.Rollback(ctx)

	var b domain.TrustBasis
	err = tx.QueryRow(ctx, `SELECT trust_offset FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&b.Offset)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock user: %w", err)
	}

	ct, err := tx.Exec(ctx, `
		UPDATE trust_intents
		SET status = 'done', attempts = attempts + 1, last_error = NULL, updated_at = $2, applied_at = $2
		WHERE id = $1 AND status = 'pending'
	`, intentID, when)
	if err != nil {
		return fmt.Errorf("claim trust intent: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrConflict
	}

	err = tx.QueryRow(ctx, `
		SELECT count(*) FROM applications
		WHERE owner_id = $1 AND status = 'APPROVED' AND count_towards_trust
	`, userID).Scan(&b.ApprovedCount)
	if err != nil {
		return fmt.Errorf("count approved applications: %w", err)
	}

	if delta := reduce(b); delta > 0 {
		if _, err := tx.Exec(ctx, `UPDATE users SET trust_offset = trust_offset + $2 WHERE id = $1`, userID, delta); err != nil {
			return fmt.Errorf("raise trust offset: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit apply trust intent: %w", err)
	}
	return nil
}

func (s *TrustIntentsStore) RecordTrustIntentFailure(ctx context.Context, intentID, message string, giveUp bool, when time.Time) error {
	const q = `
		UPDATE trust_intents
		SET attempts = attempts + 1,
			last_error = $2,
			updated_at = $3,
			status = CASE WHEN $4 THEN 'failed' ELSE status END
		WHERE id = $1 AND status = 'pending'
	`
	ct, err := s.pool.Exec(ctx, q, intentID, message, when, giveUp)
	if err != nil {
		return fmt.Errorf("record trust intent failure: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
