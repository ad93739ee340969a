package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uniportal-api/internal/models"
)

// StaffRepository resolves the organisational scope of staff members.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository constructs the repository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// GetScope returns the department and school a staff member belongs to.
// The school falls back to the department's school when unset on the staff row.
func (r *StaffRepository) GetScope(ctx context.Context, staffID string) (*models.StaffScope, error) {
	const query = `SELECT s.id AS staff_id,
       COALESCE(s.school_id, d.school_id, '') AS school_id,
       COALESCE(s.department_id, '') AS department_id
	FROM staff s
	LEFT JOIN departments d ON d.id = s.department_id
	WHERE s.id = $1 OR s.user_id = $1
	LIMIT 1`
	var scope models.StaffScope
	if err := r.db.GetContext(ctx, &scope, query, staffID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get staff scope: %w", err)
	}
	return &scope, nil
}
