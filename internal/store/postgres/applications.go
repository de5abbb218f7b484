package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"heroesfund/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ApplicationsStore struct {
	pool *pgxpool.Pool
}

func NewApplicationsStore(pool *pgxpool.Pool) *ApplicationsStore {
	return &ApplicationsStore{pool: pool}
}

const applicationColumns = `
	id, owner_id, title, summary, content, amount, payment_details, bank_name,
	images, status, admin_comment, count_towards_trust, publish_in_stories,
	version, created_at, updated_at, decided_at
`

func scanApplication(row pgx.Row) (domain.Application, error) {
	var (
		a         domain.Application
		idUUID    pgtype.UUID
		ownerUUID pgtype.UUID
		bankName  pgtype.Text
		images    pgtype.FlatArray[string]
		comment   pgtype.Text
		decidedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&idUUID,
		&ownerUUID,
		&a.Title,
		&a.Summary,
		&a.Content,
		&a.Amount,
		&a.PaymentDetails,
		&bankName,
		&images,
		&a.Status,
		&comment,
		&a.CountTowardsTrust,
		&a.PublishInStories,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
		&decidedAt,
	)
	if err != nil {
		return domain.Application{}, err
	}
	a.ID = uuidOrEmpty(idUUID)
	a.OwnerID = uuidOrEmpty(ownerUUID)
	a.BankName = textOrEmpty(bankName)
	a.Images = textArrayOrEmpty(images)
	if a.Images == nil {
		a.Images = []string{}
	}
	if comment.Valid {
		c := comment.String
		a.AdminComment = &c
	}
	a.DecidedAt = timestamptzPtr(decidedAt)
	return a, nil
}

func (s *ApplicationsStore) CreateApplication(ctx context.Context, a domain.Application) (domain.Application, error) {
	q := `
		INSERT INTO applications (
			owner_id, title, summary, content, amount, payment_details, bank_name,
			images, status, count_towards_trust, publish_in_stories, version, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, $13)
		RETURNING ` + applicationColumns

	created, err := scanApplication(s.pool.QueryRow(ctx, q,
		a.OwnerID,
		a.Title,
		a.Summary,
		a.Content,
		a.Amount,
		a.PaymentDetails,
		nullIfEmpty(a.BankName),
		nonNilImages(a.Images),
		string(a.Status),
		a.CountTowardsTrust,
		a.PublishInStories,
		a.CreatedAt,
		a.UpdatedAt,
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Application{}, domain.ErrNotFound
		}
		return domain.Application{}, fmt.Errorf("create application: %w", err)
	}
	return created, nil
}

func (s *ApplicationsStore) GetApplication(ctx context.Context, id string) (domain.Application, error) {
	q := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`

	a, err := scanApplication(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return domain.Application{}, domain.ErrNotFound
		}
		return domain.Application{}, fmt.Errorf("get application: %w", err)
	}
	return a, nil
}

func (s *ApplicationsStore) SaveApplication(ctx context.Context, a domain.Application, expectedVersion int) (domain.Application, error) {
	q := `
		UPDATE applications
		SET title = $2,
			summary = $3,
			content = $4,
			amount = $5,
			payment_details = $6,
			bank_name = $7,
			images = $8,
			status = $9,
			admin_comment = $10,
			count_towards_trust = $11,
			publish_in_stories = $12,
			updated_at = $13,
			decided_at = $14,
			version = version + 1
		WHERE id = $1 AND ($15 = 0 OR version = $15)
		RETURNING ` + applicationColumns

	var comment any
	if a.AdminComment != nil {
		comment = *a.AdminComment
	}

	saved, err := scanApplication(s.pool.QueryRow(ctx, q,
		a.ID,
		a.Title,
		a.Summary,
		a.Content,
		a.Amount,
		a.PaymentDetails,
		nullIfEmpty(a.BankName),
		nonNilImages(a.Images),
		string(a.Status),
		comment,
		a.CountTowardsTrust,
		a.PublishInStories,
		a.UpdatedAt,
		a.DecidedAt,
		expectedVersion,
	))
	if err == nil {
		return saved, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Application{}, fmt.Errorf("save application: %w", err)
	}

	// Zero rows: either the row is gone or the version moved on.
	if _, getErr := s.GetApplication(ctx, a.ID); getErr != nil {
		return domain.Application{}, getErr
	}
	return domain.Application{}, domain.ErrConflict
}

func (s *ApplicationsStore) DeleteApplication(ctx context.Context, id string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		if isInvalidText(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete application: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListApplications mirrors domain.ListApplications in SQL. q must be
// normalized.
func (s *ApplicationsStore) ListApplications(ctx context.Context, q domain.ApplicationQuery) (domain.ApplicationPage, error) {
	where, args := applicationWhere(q.Filter)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM applications`+where, args...).Scan(&total); err != nil {
		return domain.ApplicationPage{}, fmt.Errorf("count applications: %w", err)
	}

	page := domain.ApplicationPage{Items: []domain.Application{}, Pages: domain.PageCount(total, q.PageSize)}
	if q.Offset() >= total {
		return page, nil
	}

	args = append(args, q.PageSize, q.Offset())
	sql := `SELECT ` + applicationColumns + ` FROM applications` + where +
		` ORDER BY ` + applicationOrder(q) +
		` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return domain.ApplicationPage{}, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return domain.ApplicationPage{}, fmt.Errorf("scan application: %w", err)
		}
		page.Items = append(page.Items, a)
	}
	if err := rows.Err(); err != nil {
		return domain.ApplicationPage{}, fmt.Errorf("list applications: %w", err)
	}
	return page, nil
}

func applicationWhere(f domain.ApplicationFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.OwnerID != "" {
		conds = append(conds, "owner_id = "+arg(f.OwnerID))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+arg(string(f.Status)))
	}
	if f.MinAmount != nil {
		conds = append(conds, "amount >= "+arg(*f.MinAmount))
	}
	if f.MaxAmount != nil {
		conds = append(conds, "amount <= "+arg(*f.MaxAmount))
	}
	if f.Query != "" {
		p := arg(likePattern(f.Query))
		conds = append(conds, "(title ILIKE "+p+" OR summary ILIKE "+p+")")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func applicationOrder(q domain.ApplicationQuery) string {
	dir := "DESC"
	if q.Order == domain.SortAsc {
		dir = "ASC"
	}

	var key string
	switch q.SortBy {
	case domain.SortByAmount:
		key = "amount"
	case domain.SortByStatus:
		key = statusRankSQL
	default:
		key = "created_at"
	}
	return key + " " + dir + ", created_at DESC, id ASC"
}

var statusRankSQL = func() string {
	var b strings.Builder
	b.WriteString("CASE status")
	for _, st := range domain.ApplicationStatuses() {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", st, st.Rank())
	}
	fmt.Fprintf(&b, " ELSE %d END", len(domain.ApplicationStatuses()))
	return b.String()
}()

// likePattern wraps s for a substring ILIKE, escaping the wildcards.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func nonNilImages(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}
