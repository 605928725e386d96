package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-esw/meridian-esw/internal/crm/attachments"
	"github.com/meridian-esw/meridian-esw/internal/editlog"
	"github.com/meridian-esw/meridian-esw/internal/platform/db"
	"github.com/meridian-esw/meridian-esw/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, lead Lead) error
	Get(ctx context.Context, id uuid.UUID) (*Lead, error)
	List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error)
	Update(ctx context.Context, lead Lead) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountQuotations(ctx context.Context, leadID uuid.UUID) (int, error)
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

const leadColumns = `id, customer_name, project_title, enquiry_number, enquiry_date, scope_summary,
submission_due_date, status, attachments, edits, created_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, lead Lead) error {
	attachmentsJSON, editsJSON, err := marshalEmbedded(lead)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO leads (`+leadColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		lead.ID, lead.CustomerName, lead.ProjectTitle, lead.EnquiryNumber, lead.EnquiryDate,
		lead.ScopeSummary, lead.SubmissionDueDate, string(lead.Status), attachmentsJSON, editsJSON,
		lead.CreatedBy, lead.CreatedAt, lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("leads: insert: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Lead, error) {
	row := r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id=$1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return lead, nil
}

func (r *repository) List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(customer_name ILIKE $%d OR project_title ILIKE $%d OR enquiry_number ILIKE $%d)", argPos, argPos, argPos))
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
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM leads %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	p := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM leads %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		leadColumns, whereClause, argPos, argPos+1)
	args = append(args, p.PerPage, p.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *lead)
	}
	return out, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, lead Lead) error {
	attachmentsJSON, editsJSON, err := marshalEmbedded(lead)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE leads SET customer_name=$2, project_title=$3, enquiry_number=$4,
enquiry_date=$5, scope_summary=$6, submission_due_date=$7, status=$8, attachments=$9, edits=$10,
updated_at=NOW() WHERE id=$1`,
		lead.ID, lead.CustomerName, lead.ProjectTitle, lead.EnquiryNumber, lead.EnquiryDate,
		lead.ScopeSummary, lead.SubmissionDueDate, string(lead.Status), attachmentsJSON, editsJSON)
	if err != nil {
		return fmt.Errorf("leads: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM leads WHERE id=$1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("%w: lead is referenced by quotations", shared.ErrConflictExists)
		}
		return fmt.Errorf("leads: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) CountQuotations(ctx context.Context, leadID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM quotations WHERE lead_id=$1`, leadID).Scan(&count)
	return count, err
}

func marshalEmbedded(lead Lead) ([]byte, []byte, error) {
	attachmentsJSON, err := json.Marshal(emptySliceAtt(lead.Attachments))
	if err != nil {
		return nil, nil, fmt.Errorf("leads: marshal attachments: %w", err)
	}
	editsJSON, err := json.Marshal(emptySliceEdits(lead.Edits))
	if err != nil {
		return nil, nil, fmt.Errorf("leads: marshal edits: %w", err)
	}
	return attachmentsJSON, editsJSON, nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	var status string
	var attachmentsJSON, editsJSON []byte
	err := row.Scan(&lead.ID, &lead.CustomerName, &lead.ProjectTitle, &lead.EnquiryNumber,
		&lead.EnquiryDate, &lead.ScopeSummary, &lead.SubmissionDueDate, &status,
		&attachmentsJSON, &editsJSON, &lead.CreatedBy, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return nil, err
	}
	lead.Status = Status(status)
	if err := json.Unmarshal(attachmentsJSON, &lead.Attachments); err != nil {
		return nil, fmt.Errorf("leads: unmarshal attachments: %w", err)
	}
	if err := json.Unmarshal(editsJSON, &lead.Edits); err != nil {
		return nil, fmt.Errorf("leads: unmarshal edits: %w", err)
	}
	return &lead, nil
}

func emptySliceAtt(in []attachments.Attachment) []attachments.Attachment {
	if in == nil {
		return []attachments.Attachment{}
	}
	return in
}

func emptySliceEdits(in []editlog.Entry) []editlog.Entry {
	if in == nil {
		return []editlog.Entry{}
	}
	return in
}
