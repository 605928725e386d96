package projects

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
	"github.com/meridian-esw/meridian-esw/internal/crm/attachments"
	"github.com/meridian-esw/meridian-esw/internal/platform/db"
	"github.com/meridian-esw/meridian-esw/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	// LockSourceQuotation reads the quotation FOR UPDATE so the
	// no-project/no-revisions checks stay valid until the insert commits.
	LockSourceQuotation(ctx context.Context, quotationID uuid.UUID) (*SourceQuotation, error)
	LockSourceRevision(ctx context.Context, revisionID uuid.UUID) (*SourceRevision, error)
	CountRevisions(ctx context.Context, quotationID uuid.UUID) (int, error)
	MaxApprovedRevisionSeq(ctx context.Context, quotationID uuid.UUID) (int, error)
	ExistsByQuotation(ctx context.Context, quotationID uuid.UUID) (bool, error)
	ExistsByRevision(ctx context.Context, revisionID uuid.UUID) (bool, error)
	Create(ctx context.Context, p Project) error
	Get(ctx context.Context, id uuid.UUID) (*Project, error)
	GetByQuotation(ctx context.Context, quotationID uuid.UUID) (*Project, error)
	GetByRevision(ctx context.Context, revisionID uuid.UUID) (*Project, error)
	List(ctx context.Context, req ListProjectsRequest) ([]Project, int, error)
	Update(ctx context.Context, p Project) error
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

func (r *repository) LockSourceQuotation(ctx context.Context, quotationID uuid.UUID) (*SourceQuotation, error) {
	var src SourceQuotation
	var status string
	err := r.db.QueryRow(ctx, `SELECT id, approval_status FROM quotations WHERE id=$1 FOR UPDATE`,
		quotationID).Scan(&src.ID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: quotation", shared.ErrNotFound)
		}
		return nil, err
	}
	src.ApprovalStatus = approval.Status(status)
	return &src, nil
}

func (r *repository) LockSourceRevision(ctx context.Context, revisionID uuid.UUID) (*SourceRevision, error) {
	var src SourceRevision
	var status string
	err := r.db.QueryRow(ctx, `SELECT id, quotation_id, revision_seq, approval_status FROM revisions WHERE id=$1 FOR UPDATE`,
		revisionID).Scan(&src.ID, &src.QuotationID, &src.RevisionSeq, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: revision", shared.ErrNotFound)
		}
		return nil, err
	}
	src.ApprovalStatus = approval.Status(status)
	return &src, nil
}

func (r *repository) CountRevisions(ctx context.Context, quotationID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM revisions WHERE quotation_id=$1`, quotationID).Scan(&count)
	return count, err
}

func (r *repository) MaxApprovedRevisionSeq(ctx context.Context, quotationID uuid.UUID) (int, error) {
	var max int
	err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(revision_seq), 0) FROM revisions WHERE quotation_id=$1 AND approval_status='approved'`,
		quotationID).Scan(&max)
	return max, err
}

func (r *repository) ExistsByQuotation(ctx context.Context, quotationID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE source_quotation_id=$1)`, quotationID).Scan(&exists)
	return exists, err
}

func (r *repository) ExistsByRevision(ctx context.Context, revisionID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE source_revision_id=$1)`, revisionID).Scan(&exists)
	return exists, err
}

const projectColumns = `id, name, location_details, working_hours, manpower_count, assigned_site_engineer,
assigned_project_engineers, budget, status, attachments, source_quotation_id, source_revision_id,
created_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, p Project) error {
	engineersJSON, attachmentsJSON, err := marshalEmbedded(p)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO projects (`+projectColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		p.ID, p.Name, p.LocationDetails, p.WorkingHours, p.ManpowerCount, p.AssignedSiteEngineer,
		engineersJSON, p.Budget, string(p.Status), attachmentsJSON, p.SourceQuotationID, p.SourceRevisionID,
		p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: a project already exists for this source", shared.ErrConflictExists)
		}
		return fmt.Errorf("projects: insert: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	row := r.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=$1`, id)
	return scanOne(row)
}

func (r *repository) GetByQuotation(ctx context.Context, quotationID uuid.UUID) (*Project, error) {
	row := r.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE source_quotation_id=$1`, quotationID)
	return scanOne(row)
}

func (r *repository) GetByRevision(ctx context.Context, revisionID uuid.UUID) (*Project, error) {
	row := r.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE source_revision_id=$1`, revisionID)
	return scanOne(row)
}

func (r *repository) List(ctx context.Context, req ListProjectsRequest) ([]Project, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR location_details ILIKE $%d)", argPos, argPos))
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
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM projects %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	p := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM projects %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		projectColumns, whereClause, argPos, argPos+1)
	args = append(args, p.PerPage, p.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *proj)
	}
	return out, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, p Project) error {
	engineersJSON, attachmentsJSON, err := marshalEmbedded(p)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE projects SET name=$2, location_details=$3, working_hours=$4,
manpower_count=$5, assigned_site_engineer=$6, assigned_project_engineers=$7, budget=$8, status=$9,
attachments=$10, updated_at=NOW() WHERE id=$1`,
		p.ID, p.Name, p.LocationDetails, p.WorkingHours, p.ManpowerCount, p.AssignedSiteEngineer,
		engineersJSON, p.Budget, string(p.Status), attachmentsJSON)
	if err != nil {
		return fmt.Errorf("projects: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func marshalEmbedded(p Project) ([]byte, []byte, error) {
	if p.AssignedProjectEngineers == nil {
		p.AssignedProjectEngineers = []string{}
	}
	engineersJSON, err := json.Marshal(p.AssignedProjectEngineers)
	if err != nil {
		return nil, nil, fmt.Errorf("projects: marshal engineers: %w", err)
	}
	if p.Attachments == nil {
		p.Attachments = []attachments.Attachment{}
	}
	attachmentsJSON, err := json.Marshal(p.Attachments)
	if err != nil {
		return nil, nil, fmt.Errorf("projects: marshal attachments: %w", err)
	}
	return engineersJSON, attachmentsJSON, nil
}

func scanOne(row pgx.Row) (*Project, error) {
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	var status string
	var engineersJSON, attachmentsJSON []byte
	err := row.Scan(&p.ID, &p.Name, &p.LocationDetails, &p.WorkingHours, &p.ManpowerCount,
		&p.AssignedSiteEngineer, &engineersJSON, &p.Budget, &status, &attachmentsJSON,
		&p.SourceQuotationID, &p.SourceRevisionID, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = Status(status)
	if err := json.Unmarshal(engineersJSON, &p.AssignedProjectEngineers); err != nil {
		return nil, fmt.Errorf("projects: unmarshal engineers: %w", err)
	}
	if err := json.Unmarshal(attachmentsJSON, &p.Attachments); err != nil {
		return nil, fmt.Errorf("projects: unmarshal attachments: %w", err)
	}
	return &p, nil
}
