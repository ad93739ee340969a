package dto

import "github.com/noah-isme/uniportal-api/internal/models"

// ApprovalActionRequest is the body of POST /results-approval/action.
type ApprovalActionRequest struct {
	BatchID string `json:"batchId" form:"batchId" validate:"required,max=64"`
	Action  string `json:"action" form:"action" validate:"required,max=16"`
	Remark  string `json:"remark" form:"remark" validate:"max=1000"`
}

// BatchQuery mirrors the supported listing filters. Status, when set,
// replaces the stage's default visibility.
type BatchQuery struct {
	Session  string
	Semester string
	Level    string
	CourseID string
	Status   []models.BatchStatus
	Limit    int
	Offset   int
}

// ApprovalOutcome is returned after a successful transition.
type ApprovalOutcome struct {
	BatchID    string             `json:"batchId"`
	FromStatus models.BatchStatus `json:"fromStatus"`
	NewStatus  models.BatchStatus `json:"newStatus"`
	Audited    bool               `json:"audited"`
}

// ApprovalInbox is rendered on GET /results-approval.
type ApprovalInbox struct {
	ActingRole models.Role          `json:"actingRole"`
	Visible    []models.BatchStatus `json:"visible"`
	Batches    []models.ResultBatch `json:"batches"`
}
