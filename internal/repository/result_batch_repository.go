package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uniportal-api/internal/models"
)

const (
	defaultBatchLimit = 100
	maxBatchLimit     = 200
)

const batchSelect = `SELECT b.id, b.course_id, c.code AS course_code, c.title AS course_title,
       c.department_id AS course_department_id, d.school_id AS course_school_id,
       b.session, b.semester, b.level, b.status, b.uploaded_by, b.uploaded_at, b.updated_at
	FROM result_batches b
	JOIN courses c ON c.id = b.course_id
	JOIN departments d ON d.id = c.department_id`

// ResultBatchRepository persists uploaded results batches.
type ResultBatchRepository struct {
	db *sqlx.DB
}

// NewResultBatchRepository constructs the repository.
func NewResultBatchRepository(db *sqlx.DB) *ResultBatchRepository {
	return &ResultBatchRepository{db: db}
}

// GetByID loads a batch together with its course department and school.
func (r *ResultBatchRepository) GetByID(ctx context.Context, id string) (*models.ResultBatch, error) {
	query := batchSelect + ` WHERE b.id = $1`
	var batch models.ResultBatch
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get result batch: %w", err)
	}
	return &batch, nil
}

// List returns batches matching the filter, most recently updated first.
func (r *ResultBatchRepository) List(ctx context.Context, filter models.BatchFilter) ([]models.ResultBatch, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 8)
	builder.WriteString(batchSelect)

	conditions := make([]string, 0, 7)
	addEq := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	addEq("c.department_id", filter.DepartmentID)
	addEq("d.school_id", filter.SchoolID)
	addEq("b.session", filter.Session)
	addEq("b.semester", filter.Semester)
	addEq("b.level", filter.Level)
	addEq("b.course_id", filter.CourseID)
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("b.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY b.updated_at DESC")

	limit := filter.Limit
	switch {
	case limit <= 0:
		limit = defaultBatchLimit
	case limit > maxBatchLimit:
		limit = maxBatchLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var batches []models.ResultBatch
	if err := r.db.SelectContext(ctx, &batches, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list result batches: %w", err)
	}
	return batches, nil
}

// UpdateStatus moves a batch from one status to another. It only succeeds
// when the stored status still equals from; otherwise sql.ErrNoRows is
// returned so concurrent reviewers cannot overwrite each other.
func (r *ResultBatchRepository) UpdateStatus(ctx context.Context, id string, from, to models.BatchStatus, at time.Time) error {
	const query = `UPDATE result_batches SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	result, err := r.db.ExecContext(ctx, query, id, from, to, at)
	if err != nil {
		return fmt.Errorf("update result batch status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check result batch update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
