package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uniportal-api/internal/models"
)

// ApprovalActionRepository stores the append-only approval audit trail.
type ApprovalActionRepository struct {
	db *sqlx.DB
}

// NewApprovalActionRepository constructs the repository.
func NewApprovalActionRepository(db *sqlx.DB) *ApprovalActionRepository {
	return &ApprovalActionRepository{db: db}
}

// Record inserts an approval action.
func (r *ApprovalActionRepository) Record(ctx context.Context, action *models.ApprovalAction) error {
	if action.ID == "" {
		action.ID = uuid.NewString()
	}
	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO result_approval_actions
	(id, batch_id, actor_id, actor_role, action, from_status, to_status, remark, created_at)
	VALUES (:id, :batch_id, :actor_id, :actor_role, :action, :from_status, :to_status, :remark, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, action); err != nil {
		return fmt.Errorf("record approval action: %w", err)
	}
	return nil
}

// ListByBatch returns the audit trail of a batch, oldest first.
func (r *ApprovalActionRepository) ListByBatch(ctx context.Context, batchID string) ([]models.ApprovalAction, error) {
	const query = `SELECT id, batch_id, actor_id, actor_role, action, from_status, to_status, remark, created_at
	FROM result_approval_actions WHERE batch_id = $1 ORDER BY created_at ASC`
	var actions []models.ApprovalAction
	if err := r.db.SelectContext(ctx, &actions, query, batchID); err != nil {
		return nil, fmt.Errorf("list approval actions: %w", err)
	}
	return actions, nil
}
