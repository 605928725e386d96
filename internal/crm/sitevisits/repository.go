package sitevisits

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
	"github.com/meridian-esw/meridian-esw/internal/shared"
)

type Repository interface {
	Create(ctx context.Context, v SiteVisit) error
	Get(ctx context.Context, id uuid.UUID) (*SiteVisit, error)
	List(ctx context.Context, req ListVisitsRequest) ([]SiteVisit, int, error)
	Update(ctx context.Context, v SiteVisit) error
	Delete(ctx context.Context, id uuid.UUID) error
	LeadExists(ctx context.Context, leadID uuid.UUID) (bool, error)
	ProjectExists(ctx context.Context, projectID uuid.UUID) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const visitColumns = `id, lead_id, project_id, visit_at, site_location, engineer_name, work_progress_summary,
safety_observations, quality_material_check, issues_found, action_items, weather_conditions, description,
attachments, created_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, v SiteVisit) error {
	attachmentsJSON, err := marshalAttachments(v.Attachments)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO site_visits (`+visitColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		v.ID, v.LeadID, v.ProjectID, v.VisitAt, v.SiteLocation, v.EngineerName, v.WorkProgressSummary,
		v.SafetyObservations, v.QualityMaterialCheck, v.IssuesFound, v.ActionItems, v.WeatherConditions,
		v.Description, attachmentsJSON, v.CreatedBy, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23503":
				return fmt.Errorf("%w: owner does not exist", shared.ErrValidation)
			case "23514":
				return fmt.Errorf("%w: a site visit belongs to exactly one lead or project", shared.ErrValidation)
			}
		}
		return fmt.Errorf("sitevisits: insert: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*SiteVisit, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+visitColumns+` FROM site_visits WHERE id=$1`, id)
	v, err := scanVisit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *repository) List(ctx context.Context, req ListVisitsRequest) ([]SiteVisit, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.LeadID != nil {
		conditions = append(conditions, fmt.Sprintf("lead_id = $%d", argPos))
		args = append(args, *req.LeadID)
		argPos++
	}
	if req.ProjectID != nil {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argPos))
		args = append(args, *req.ProjectID)
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
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM site_visits %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	p := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM site_visits %s ORDER BY visit_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		visitColumns, whereClause, argPos, argPos+1)
	args = append(args, p.PerPage, p.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []SiteVisit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *v)
	}
	return out, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, v SiteVisit) error {
	attachmentsJSON, err := marshalAttachments(v.Attachments)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE site_visits SET visit_at=$2, site_location=$3, engineer_name=$4,
work_progress_summary=$5, safety_observations=$6, quality_material_check=$7, issues_found=$8,
action_items=$9, weather_conditions=$10, description=$11, attachments=$12, updated_at=NOW() WHERE id=$1`,
		v.ID, v.VisitAt, v.SiteLocation, v.EngineerName, v.WorkProgressSummary, v.SafetyObservations,
		v.QualityMaterialCheck, v.IssuesFound, v.ActionItems, v.WeatherConditions, v.Description, attachmentsJSON)
	if err != nil {
		return fmt.Errorf("sitevisits: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM site_visits WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("sitevisits: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) LeadExists(ctx context.Context, leadID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM leads WHERE id=$1)`, leadID).Scan(&exists)
	return exists, err
}

func (r *repository) ProjectExists(ctx context.Context, projectID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE id=$1)`, projectID).Scan(&exists)
	return exists, err
}

func marshalAttachments(atts []attachments.Attachment) ([]byte, error) {
	if atts == nil {
		atts = []attachments.Attachment{}
	}
	data, err := json.Marshal(atts)
	if err != nil {
		return nil, fmt.Errorf("sitevisits: marshal attachments: %w", err)
	}
	return data, nil
}

func scanVisit(row pgx.Row) (*SiteVisit, error) {
	var v SiteVisit
	var attachmentsJSON []byte
	err := row.Scan(&v.ID, &v.LeadID, &v.ProjectID, &v.VisitAt, &v.SiteLocation, &v.EngineerName,
		&v.WorkProgressSummary, &v.SafetyObservations, &v.QualityMaterialCheck, &v.IssuesFound,
		&v.ActionItems, &v.WeatherConditions, &v.Description, &attachmentsJSON,
		&v.CreatedBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(attachmentsJSON, &v.Attachments); err != nil {
		return nil, fmt.Errorf("sitevisits: unmarshal attachments: %w", err)
	}
	return &v, nil
}
