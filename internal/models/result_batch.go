package models

import (
	"strings"
	"time"
)

// BatchStatus captures where a results batch sits in the approval chain.
type BatchStatus string

const (
	BatchUploaded         BatchStatus = "UPLOADED"
	BatchHODApproved      BatchStatus = "HOD_APPROVED"
	BatchDeanApproved     BatchStatus = "DEAN_APPROVED"
	BatchBusinessApproved BatchStatus = "BUSINESS_APPROVED"
	BatchFinal            BatchStatus = "FINAL"
	BatchHODRejected      BatchStatus = "HOD_REJECTED"
	BatchDeanRejected     BatchStatus = "DEAN_REJECTED"
	BatchBusinessRejected BatchStatus = "BUSINESS_REJECTED"
	BatchRegistryRejected BatchStatus = "REGISTRY_REJECTED"
)

// ParseBatchStatus upper-cases a raw status filter value.
func ParseBatchStatus(raw string) BatchStatus {
	return BatchStatus(strings.ToUpper(strings.TrimSpace(raw)))
}

// ApprovalDecision is the verb applied to a batch.
type ApprovalDecision string

const (
	DecisionApprove ApprovalDecision = "APPROVE"
	DecisionReject  ApprovalDecision = "REJECT"
)

// ParseApprovalDecision accepts approve/reject in any case.
func ParseApprovalDecision(raw string) (ApprovalDecision, bool) {
	switch ApprovalDecision(strings.ToUpper(strings.TrimSpace(raw))) {
	case DecisionApprove:
		return DecisionApprove, true
	case DecisionReject:
		return DecisionReject, true
	}
	return "", false
}

// ResultBatch is a unit of uploaded course results moving through approval.
type ResultBatch struct {
	ID                 string      `db:"id" json:"id"`
	CourseID           string      `db:"course_id" json:"course_id"`
	CourseCode         string      `db:"course_code" json:"course_code"`
	CourseTitle        string      `db:"course_title" json:"course_title"`
	CourseDepartmentID string      `db:"course_department_id" json:"course_department_id"`
	CourseSchoolID     string      `db:"course_school_id" json:"course_school_id"`
	Session            string      `db:"session" json:"session"`
	Semester           string      `db:"semester" json:"semester"`
	Level              string      `db:"level" json:"level"`
	Status             BatchStatus `db:"status" json:"status"`
	UploadedBy         *string     `db:"uploaded_by" json:"uploaded_by,omitempty"`
	UploadedAt         time.Time   `db:"uploaded_at" json:"uploaded_at"`
	UpdatedAt          time.Time   `db:"updated_at" json:"updated_at"`
}

// BatchFilter constrains batch listings. DepartmentID and SchoolID carry the
// mandatory organisational scope; Statuses carries either the stage default
// or the caller's explicit override.
type BatchFilter struct {
	DepartmentID string
	SchoolID     string
	Session      string
	Semester     string
	Level        string
	CourseID     string
	Statuses     []BatchStatus
	Limit        int
	Offset       int
}

// ApprovalAction is an append-only audit record of a batch transition.
type ApprovalAction struct {
	ID         string           `db:"id" json:"id"`
	BatchID    string           `db:"batch_id" json:"batch_id"`
	ActorID    string           `db:"actor_id" json:"actor_id"`
	ActorRole  Role             `db:"actor_role" json:"actor_role"`
	Action     ApprovalDecision `db:"action" json:"action"`
	FromStatus BatchStatus      `db:"from_status" json:"from_status"`
	ToStatus   BatchStatus      `db:"to_status" json:"to_status"`
	Remark     *string          `db:"remark" json:"remark,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
}

// StaffScope is the organisational placement of a staff member.
type StaffScope struct {
	StaffID      string `db:"staff_id" json:"staff_id"`
	SchoolID     string `db:"school_id" json:"school_id"`
	DepartmentID string `db:"department_id" json:"department_id"`
}
