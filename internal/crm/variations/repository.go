package variations

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
	"github.com/meridian-esw/meridian-esw/internal/crm/quote"
	"github.com/meridian-esw/meridian-esw/internal/editlog"
	"github.com/meridian-esw/meridian-esw/internal/platform/db"
	"github.com/meridian-esw/meridian-esw/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	// LockProject reads the project FOR UPDATE; it serializes variation
	// numbering for the whole project.
	LockProject(ctx context.Context, projectID uuid.UUID) (*ProjectRef, error)
	QuotationContent(ctx context.Context, quotationID uuid.UUID) (quote.Content, error)
	RevisionContent(ctx context.Context, revisionID uuid.UUID) (quote.Content, error)
	HasChild(ctx context.Context, variationID uuid.UUID) (bool, error)
	MaxNumber(ctx context.Context, projectID uuid.UUID) (int, error)
	Create(ctx context.Context, v Variation) error
	Get(ctx context.Context, id uuid.UUID) (*Variation, error)
	List(ctx context.Context, req ListVariationsRequest) ([]Variation, int, error)
	Update(ctx context.Context, v Variation) error
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

func (r *repository) LockProject(ctx context.Context, projectID uuid.UUID) (*ProjectRef, error) {
	var ref ProjectRef
	err := r.db.QueryRow(ctx, `SELECT id, source_quotation_id, source_revision_id FROM projects WHERE id=$1 FOR UPDATE`,
		projectID).Scan(&ref.ID, &ref.SourceQuotationID, &ref.SourceRevisionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: project", shared.ErrNotFound)
		}
		return nil, err
	}
	return &ref, nil
}

func (r *repository) QuotationContent(ctx context.Context, quotationID uuid.UUID) (quote.Content, error) {
	return r.contentFrom(ctx, `SELECT content FROM quotations WHERE id=$1`, quotationID)
}

func (r *repository) RevisionContent(ctx context.Context, revisionID uuid.UUID) (quote.Content, error) {
	return r.contentFrom(ctx, `SELECT content FROM revisions WHERE id=$1`, revisionID)
}

func (r *repository) contentFrom(ctx context.Context, query string, id uuid.UUID) (quote.Content, error) {
	var contentJSON []byte
	if err := r.db.QueryRow(ctx, query, id).Scan(&contentJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return quote.Content{}, shared.ErrNotFound
		}
		return quote.Content{}, err
	}
	var c quote.Content
	if err := json.Unmarshal(contentJSON, &c); err != nil {
		return quote.Content{}, fmt.Errorf("variations: unmarshal source content: %w", err)
	}
	return c, nil
}

func (r *repository) HasChild(ctx context.Context, variationID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM project_variations WHERE parent_variation_id=$1)`,
		variationID).Scan(&exists)
	return exists, err
}

func (r *repository) MaxNumber(ctx context.Context, projectID uuid.UUID) (int, error) {
	var max int
	err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(variation_number), 0) FROM project_variations WHERE project_id=$1`,
		projectID).Scan(&max)
	return max, err
}

const variationColumns = `id, project_id, parent_variation_id, variation_number, content, diff_from_parent,
approval, approval_status, edits, created_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, v Variation) error {
	contentJSON, diffJSON, approvalJSON, editsJSON, err := marshalDocument(v)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO project_variations (`+variationColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		v.ID, v.ProjectID, v.ParentVariationID, v.VariationNumber, contentJSON, diffJSON,
		approvalJSON, string(v.Approval.Status), editsJSON, v.CreatedBy, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: parent variation already has a child", shared.ErrConflictExists)
		}
		return fmt.Errorf("variations: insert: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Variation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+variationColumns+` FROM project_variations WHERE id=$1`, id)
	v, err := scanVariation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *repository) List(ctx context.Context, req ListVariationsRequest) ([]Variation, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.ParentProject != nil {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argPos))
		args = append(args, *req.ParentProject)
		argPos++
	}
	if req.ParentVariation != nil {
		conditions = append(conditions, fmt.Sprintf("parent_variation_id = $%d", argPos))
		args = append(args, *req.ParentVariation)
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
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM project_variations %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	p := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM project_variations %s ORDER BY variation_number ASC LIMIT $%d OFFSET $%d`,
		variationColumns, whereClause, argPos, argPos+1)
	args = append(args, p.PerPage, p.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Variation
	for rows.Next() {
		v, err := scanVariation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *v)
	}
	return out, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, v Variation) error {
	contentJSON, diffJSON, approvalJSON, editsJSON, err := marshalDocument(v)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE project_variations SET content=$2, diff_from_parent=$3, approval=$4,
approval_status=$5, edits=$6, updated_at=NOW() WHERE id=$1`,
		v.ID, contentJSON, diffJSON, approvalJSON, string(v.Approval.Status), editsJSON)
	if err != nil {
		return fmt.Errorf("variations: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func marshalDocument(v Variation) (content, diff, approvalJSON, edits []byte, err error) {
	if content, err = json.Marshal(v.Content); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("variations: marshal content: %w", err)
	}
	if v.DiffFromParent == nil {
		v.DiffFromParent = []editlog.Change{}
	}
	if diff, err = json.Marshal(v.DiffFromParent); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("variations: marshal diff: %w", err)
	}
	if approvalJSON, err = json.Marshal(v.Approval); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("variations: marshal approval: %w", err)
	}
	if v.Edits == nil {
		v.Edits = []editlog.Entry{}
	}
	if edits, err = json.Marshal(v.Edits); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("variations: marshal edits: %w", err)
	}
	return content, diff, approvalJSON, edits, nil
}

func scanVariation(row pgx.Row) (*Variation, error) {
	var v Variation
	var status string
	var contentJSON, diffJSON, approvalJSON, editsJSON []byte
	err := row.Scan(&v.ID, &v.ProjectID, &v.ParentVariationID, &v.VariationNumber,
		&contentJSON, &diffJSON, &approvalJSON, &status, &editsJSON,
		&v.CreatedBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(contentJSON, &v.Content); err != nil {
		return nil, fmt.Errorf("variations: unmarshal content: %w", err)
	}
	if err := json.Unmarshal(diffJSON, &v.DiffFromParent); err != nil {
		return nil, fmt.Errorf("variations: unmarshal diff: %w", err)
	}
	if err := json.Unmarshal(approvalJSON, &v.Approval); err != nil {
		return nil, fmt.Errorf("variations: unmarshal approval: %w", err)
	}
	if err := json.Unmarshal(editsJSON, &v.Edits); err != nil {
		return nil, fmt.Errorf("variations: unmarshal edits: %w", err)
	}
	v.Approval.Status = approval.Status(status)
	return &v, nil
}
