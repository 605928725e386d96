package quotations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-esw/meridian-esw/internal/approval"
	"github.com/meridian-esw/meridian-esw/internal/editlog"
	"github.com/meridian-esw/meridian-esw/internal/platform/db"
	"github.com/meridian-esw/meridian-esw/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, q Quotation) error
	Get(ctx context.Context, id uuid.UUID) (*Quotation, error)
	List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error)
	All(ctx context.Context) ([]Quotation, error)
	Update(ctx context.Context, q Quotation) error
	Delete(ctx context.Context, id uuid.UUID) error
	LeadExists(ctx context.Context, leadID uuid.UUID) (bool, error)
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const quotationColumns = `id, lead_id, content, approval, approval_status, edits, created_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, q Quotation) error {
	contentJSON, approvalJSON, editsJSON, err := marshalDocument(q)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO quotations (`+quotationColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		q.ID, q.LeadID, contentJSON, approvalJSON, string(q.Approval.Status), editsJSON,
		q.CreatedBy, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("%w: lead does not exist", shared.ErrValidation)
		}
		return fmt.Errorf("quotations: insert: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id=$1`, id)
	q, err := scanQuotation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return q, nil
}

func (r *repository) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.LeadID != nil {
		conditions = append(conditions, fmt.Sprintf("lead_id = $%d", argPos))
		args = append(args, *req.LeadID)
		argPos++
	}
	if req.ApprovalStatus != nil {
		conditions = append(conditions, fmt.Sprintf("approval_status = $%d", argPos))
		args = append(args, *req.ApprovalStatus)
		argPos++
	}
	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(content->>'offerReference' ILIKE $%d OR content->>'projectTitle' ILIKE $%d OR content->>'submittedTo' ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}

	whereClause := ""
	for i, c := range conditions {
		if i == 0 {
			whereClause = "WHERE " + c
		} else {
			whereClause += " AND " + c
		}
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM quotations %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	p := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM quotations %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		quotationColumns, whereClause, argPos, argPos+1)
	args = append(args, p.PerPage, p.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *q)
	}
	return out, total, rows.Err()
}

func (r *repository) All(ctx context.Context) ([]Quotation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+quotationColumns+` FROM quotations ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func (r *repository) Update(ctx context.Context, q Quotation) error {
	contentJSON, approvalJSON, editsJSON, err := marshalDocument(q)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE quotations SET content=$2, approval=$3, approval_status=$4,
edits=$5, updated_at=NOW() WHERE id=$1`,
		q.ID, contentJSON, approvalJSON, string(q.Approval.Status), editsJSON)
	if err != nil {
		return fmt.Errorf("quotations: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quotations WHERE id=$1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("%w: quotation is referenced by revisions or projects", shared.ErrConflictExists)
		}
		return fmt.Errorf("quotations: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) LeadExists(ctx context.Context, leadID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM leads WHERE id=$1)`, leadID).Scan(&exists)
	return exists, err
}

func marshalDocument(q Quotation) (content, approvalJSON, edits []byte, err error) {
	if content, err = json.Marshal(q.Content); err != nil {
		return nil, nil, nil, fmt.Errorf("quotations: marshal content: %w", err)
	}
	if approvalJSON, err = json.Marshal(q.Approval); err != nil {
		return nil, nil, nil, fmt.Errorf("quotations: marshal approval: %w", err)
	}
	if q.Edits == nil {
		q.Edits = []editlog.Entry{}
	}
	if edits, err = json.Marshal(q.Edits); err != nil {
		return nil, nil, nil, fmt.Errorf("quotations: marshal edits: %w", err)
	}
	return content, approvalJSON, edits, nil
}

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	var status string
	var contentJSON, approvalJSON, editsJSON []byte
	err := row.Scan(&q.ID, &q.LeadID, &contentJSON, &approvalJSON, &status, &editsJSON,
		&q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(contentJSON, &q.Content); err != nil {
		return nil, fmt.Errorf("quotations: unmarshal content: %w", err)
	}
	if err := json.Unmarshal(approvalJSON, &q.Approval); err != nil {
		return nil, fmt.Errorf("quotations: unmarshal approval: %w", err)
	}
	if err := json.Unmarshal(editsJSON, &q.Edits); err != nil {
		return nil, fmt.Errorf("quotations: unmarshal edits: %w", err)
	}
	q.Approval.Status = approval.Status(status)
	return &q, nil
}
