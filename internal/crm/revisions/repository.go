package revisions

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
	// LockParentQuotation reads the parent row FOR UPDATE so sequence
	// allocation and the single-undecided-revision check are serialized.
	LockParentQuotation(ctx context.Context, quotationID uuid.UUID) (*ParentQuotation, error)
	MaxSeq(ctx context.Context, quotationID uuid.UUID) (int, error)
	HasUndecided(ctx context.Context, quotationID uuid.UUID) (bool, error)
	Create(ctx context.Context, rev Revision) error
	Get(ctx context.Context, id uuid.UUID) (*Revision, error)
	List(ctx context.Context, req ListRevisionsRequest) ([]Revision, int, error)
	Update(ctx context.Context, rev Revision) error
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

func (r *repository) LockParentQuotation(ctx context.Context, quotationID uuid.UUID) (*ParentQuotation, error) {
	var parent ParentQuotation
	var status string
	var contentJSON []byte
	err := r.db.QueryRow(ctx, `SELECT id, lead_id, content, approval_status FROM quotations WHERE id=$1 FOR UPDATE`,
		quotationID).Scan(&parent.ID, &parent.LeadID, &contentJSON, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: quotation", shared.ErrNotFound)
		}
		return nil, err
	}
	if err := json.Unmarshal(contentJSON, &parent.Content); err != nil {
		return nil, fmt.Errorf("revisions: unmarshal parent content: %w", err)
	}
	parent.ApprovalStatus = approval.Status(status)
	return &parent, nil
}

func (r *repository) MaxSeq(ctx context.Context, quotationID uuid.UUID) (int, error) {
	var max int
	err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(revision_seq), 0) FROM revisions WHERE quotation_id=$1`,
		quotationID).Scan(&max)
	return max, err
}

func (r *repository) HasUndecided(ctx context.Context, quotationID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM revisions WHERE quotation_id=$1 AND approval_status IN ('', 'pending'))`,
		quotationID).Scan(&exists)
	return exists, err
}

const revisionColumns = `id, quotation_id, lead_id, revision_number, revision_seq, content, approval, approval_status, edits, created_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, rev Revision) error {
	contentJSON, approvalJSON, editsJSON, err := marshalDocument(rev)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO revisions (`+revisionColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rev.ID, rev.QuotationID, rev.LeadID, rev.RevisionNumber, rev.RevisionSeq,
		contentJSON, approvalJSON, string(rev.Approval.Status), editsJSON,
		rev.CreatedBy, rev.CreatedAt, rev.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: an undecided revision already exists for this quotation", shared.ErrConflictExists)
		}
		return fmt.Errorf("revisions: insert: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Revision, error) {
	row := r.db.QueryRow(ctx, `SELECT `+revisionColumns+` FROM revisions WHERE id=$1`, id)
	rev, err := scanRevision(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return rev, nil
}

func (r *repository) List(ctx context.Context, req ListRevisionsRequest) ([]Revision, int, error) {
	whereClause := ""
	var args []any
	argPos := 1
	if req.ParentQuotation != nil {
		whereClause = "WHERE quotation_id = $1"
		args = append(args, *req.ParentQuotation)
		argPos++
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM revisions %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	p := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM revisions %s ORDER BY revision_seq DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		revisionColumns, whereClause, argPos, argPos+1)
	args = append(args, p.PerPage, p.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *rev)
	}
	return out, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, rev Revision) error {
	contentJSON, approvalJSON, editsJSON, err := marshalDocument(rev)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE revisions SET content=$2, approval=$3, approval_status=$4,
edits=$5, updated_at=NOW() WHERE id=$1`,
		rev.ID, contentJSON, approvalJSON, string(rev.Approval.Status), editsJSON)
	if err != nil {
		return fmt.Errorf("revisions: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func marshalDocument(rev Revision) (content, approvalJSON, edits []byte, err error) {
	if content, err = json.Marshal(rev.Content); err != nil {
		return nil, nil, nil, fmt.Errorf("revisions: marshal content: %w", err)
	}
	if approvalJSON, err = json.Marshal(rev.Approval); err != nil {
		return nil, nil, nil, fmt.Errorf("revisions: marshal approval: %w", err)
	}
	if rev.Edits == nil {
		rev.Edits = []editlog.Entry{}
	}
	if edits, err = json.Marshal(rev.Edits); err != nil {
		return nil, nil, nil, fmt.Errorf("revisions: marshal edits: %w", err)
	}
	return content, approvalJSON, edits, nil
}

func scanRevision(row pgx.Row) (*Revision, error) {
	var rev Revision
	var status string
	var contentJSON, approvalJSON, editsJSON []byte
	err := row.Scan(&rev.ID, &rev.QuotationID, &rev.LeadID, &rev.RevisionNumber, &rev.RevisionSeq,
		&contentJSON, &approvalJSON, &status, &editsJSON, &rev.CreatedBy, &rev.CreatedAt, &rev.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(contentJSON, &rev.Content); err != nil {
		return nil, fmt.Errorf("revisions: unmarshal content: %w", err)
	}
	if err := json.Unmarshal(approvalJSON, &rev.Approval); err != nil {
		return nil, fmt.Errorf("revisions: unmarshal approval: %w", err)
	}
	if err := json.Unmarshal(editsJSON, &rev.Edits); err != nil {
		return nil, fmt.Errorf("revisions: unmarshal edits: %w", err)
	}
	rev.Approval.Status = approval.Status(status)
	return &rev, nil
}
