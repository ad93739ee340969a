package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uniportal-api/internal/dto"
	"github.com/noah-isme/uniportal-api/internal/models"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

type batchRepository interface {
	GetByID(ctx context.Context, id string) (*models.ResultBatch, error)
	List(ctx context.Context, filter models.BatchFilter) ([]models.ResultBatch, error)
	UpdateStatus(ctx context.Context, id string, from, to models.BatchStatus, at time.Time) error
}

type approvalAuditSink interface {
	Record(ctx context.Context, action *models.ApprovalAction) error
	ListByBatch(ctx context.Context, batchID string) ([]models.ApprovalAction, error)
}

type scopeKind int

const (
	scopeNone scopeKind = iota
	scopeDepartment
	scopeSchool
)

// Stage is one role's position in the results approval chain.
type Stage struct {
	Role       models.Role
	CanSeeFrom []models.BatchStatus
	ApproveTo  models.BatchStatus
	RejectTo   models.BatchStatus
	// Override stages skip the scope check and act on any pending status.
	Override bool
	scope    scopeKind
}

// Accepts reports whether the stage may act on a batch in status. FINAL is
// in no stage's list, so a finalised batch never moves again.
func (s Stage) Accepts(status models.BatchStatus) bool {
	for _, candidate := range s.CanSeeFrom {
		if candidate == status {
			return true
		}
	}
	return false
}

// Target returns the status a decision moves the batch to.
func (s Stage) Target(decision models.ApprovalDecision) models.BatchStatus {
	if decision == models.DecisionReject {
		return s.RejectTo
	}
	return s.ApproveTo
}

var pendingStatuses = []models.BatchStatus{
	models.BatchUploaded,
	models.BatchHODRejected,
	models.BatchHODApproved,
	models.BatchDeanRejected,
	models.BatchDeanApproved,
	models.BatchBusinessRejected,
	models.BatchBusinessApproved,
	models.BatchRegistryRejected,
}

var approvalStages = map[models.Role]Stage{
	models.RoleHOD: {
		Role:       models.RoleHOD,
		CanSeeFrom: []models.BatchStatus{models.BatchUploaded, models.BatchHODRejected},
		ApproveTo:  models.BatchHODApproved,
		RejectTo:   models.BatchHODRejected,
		scope:      scopeDepartment,
	},
	models.RoleDean: {
		Role:       models.RoleDean,
		CanSeeFrom: []models.BatchStatus{models.BatchHODApproved, models.BatchDeanRejected},
		ApproveTo:  models.BatchDeanApproved,
		RejectTo:   models.BatchDeanRejected,
		scope:      scopeSchool,
	},
	models.RoleBursary: {
		Role:       models.RoleBursary,
		CanSeeFrom: []models.BatchStatus{models.BatchDeanApproved, models.BatchBusinessRejected},
		ApproveTo:  models.BatchBusinessApproved,
		RejectTo:   models.BatchBusinessRejected,
	},
	models.RoleRegistry: {
		Role:       models.RoleRegistry,
		CanSeeFrom: []models.BatchStatus{models.BatchBusinessApproved, models.BatchRegistryRejected},
		ApproveTo:  models.BatchFinal,
		RejectTo:   models.BatchRegistryRejected,
	},
	models.RoleAdmin: {
		Role:       models.RoleAdmin,
		CanSeeFrom: pendingStatuses,
		ApproveTo:  models.BatchFinal,
		RejectTo:   models.BatchRegistryRejected,
		Override:   true,
	},
	models.RoleICT: {
		Role:       models.RoleICT,
		CanSeeFrom: pendingStatuses,
		ApproveTo:  models.BatchFinal,
		RejectTo:   models.BatchRegistryRejected,
		Override:   true,
	},
}

// StageFor returns the approval stage of role.
func StageFor(role models.Role) (Stage, bool) {
	stage, ok := approvalStages[role]
	return stage, ok
}

// ResolveApprovalRole picks the role a principal acts as in the approval
// chain: the primary role when it has a stage, else the first additional
// role that does.
func ResolveApprovalRole(p models.Principal) (models.Role, bool) {
	for _, role := range p.Roles() {
		if _, ok := approvalStages[role]; ok {
			return role, true
		}
	}
	return "", false
}

// TransitionOutcome describes an applied transition. AuditErr is set when
// the status change succeeded but its audit record could not be written.
type TransitionOutcome struct {
	BatchID    string
	Role       models.Role
	Action     models.ApprovalDecision
	FromStatus models.BatchStatus
	ToStatus   models.BatchStatus
	AuditErr   error
}

// ResultsApprovalService moves result batches through the approval chain.
type ResultsApprovalService struct {
	batches   batchRepository
	scopes    StaffScopeStore
	audit     approvalAuditSink
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewResultsApprovalService constructs a ResultsApprovalService instance.
func NewResultsApprovalService(batches batchRepository, scopes StaffScopeStore, audit approvalAuditSink, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ResultsApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ResultsApprovalService{
		batches:   batches,
		scopes:    scopes,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// TakeAction applies approve or reject to a batch on behalf of actor.
func (s *ResultsApprovalService) TakeAction(ctx context.Context, actor models.Principal, req dto.ApprovalActionRequest) (*TransitionOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}
	decision, ok := models.ParseApprovalDecision(req.Action)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "action must be approve or reject")
	}

	role, stage, err := s.stageFor(actor)
	if err != nil {
		s.metrics.RecordTransition("unknown", strings.ToLower(string(decision)), "denied")
		return nil, err
	}
	outcomeLabel := "applied"
	defer func() {
		s.metrics.RecordTransition(role.String(), strings.ToLower(string(decision)), outcomeLabel)
	}()

	batch, err := s.loadBatch(ctx, req.BatchID)
	if err != nil {
		outcomeLabel = "error"
		return nil, err
	}
	if err := s.checkScope(ctx, actor, stage, batch); err != nil {
		outcomeLabel = "denied"
		return nil, err
	}
	if !stage.Accepts(batch.Status) {
		outcomeLabel = "wrong_stage"
		return nil, appErrors.Clone(appErrors.ErrInvalidStageTransition,
			fmt.Sprintf("batch is at status %s and cannot be acted on by %s", batch.Status, role))
	}

	from := batch.Status
	to := stage.Target(decision)
	at := s.now()
	if err := s.batches.UpdateStatus(ctx, batch.ID, from, to, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			outcomeLabel = "conflict"
			return nil, appErrors.Clone(appErrors.ErrConflict, "batch status changed, reload and try again")
		}
		outcomeLabel = "error"
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to update batch status")
	}

	outcome := &TransitionOutcome{
		BatchID:    batch.ID,
		Role:       role,
		Action:     decision,
		FromStatus: from,
		ToStatus:   to,
	}
	outcome.AuditErr = s.recordAudit(ctx, actor, outcome, strings.TrimSpace(req.Remark), at)
	return outcome, nil
}

// ListBatches returns the batches visible to actor. Organisational scope is
// always applied; an explicit status filter replaces the stage default.
func (s *ResultsApprovalService) ListBatches(ctx context.Context, actor models.Principal, query dto.BatchQuery) ([]models.ResultBatch, error) {
	_, stage, err := s.stageFor(actor)
	if err != nil {
		return nil, err
	}
	filter := models.BatchFilter{
		Session:  strings.TrimSpace(query.Session),
		Semester: strings.TrimSpace(query.Semester),
		Level:    strings.TrimSpace(query.Level),
		CourseID: strings.TrimSpace(query.CourseID),
		Statuses: stage.CanSeeFrom,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	if len(query.Status) > 0 {
		filter.Statuses = query.Status
	}
	if stage.scope != scopeNone {
		scope, err := s.actorScope(ctx, actor)
		if err != nil {
			return nil, err
		}
		switch stage.scope {
		case scopeDepartment:
			if scope.DepartmentID == "" {
				return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "no department is assigned to your staff record")
			}
			filter.DepartmentID = scope.DepartmentID
		case scopeSchool:
			if scope.SchoolID == "" {
				return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "no school is assigned to your staff record")
			}
			filter.SchoolID = scope.SchoolID
		}
	}

	batches, err := s.batches.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list result batches")
	}
	if batches == nil {
		batches = []models.ResultBatch{}
	}
	return batches, nil
}

// Inbox lists the batches awaiting actor's stage.
func (s *ResultsApprovalService) Inbox(ctx context.Context, actor models.Principal) (*dto.ApprovalInbox, error) {
	role, stage, err := s.stageFor(actor)
	if err != nil {
		return nil, err
	}
	batches, err := s.ListBatches(ctx, actor, dto.BatchQuery{})
	if err != nil {
		return nil, err
	}
	return &dto.ApprovalInbox{ActingRole: role, Visible: stage.CanSeeFrom, Batches: batches}, nil
}

// History returns the audit trail of a batch the actor is allowed to see.
func (s *ResultsApprovalService) History(ctx context.Context, actor models.Principal, batchID string) ([]models.ApprovalAction, error) {
	_, stage, err := s.stageFor(actor)
	if err != nil {
		return nil, err
	}
	batch, err := s.loadBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if err := s.checkScope(ctx, actor, stage, batch); err != nil {
		return nil, err
	}
	actions, err := s.audit.ListByBatch(ctx, batch.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load approval history")
	}
	if actions == nil {
		actions = []models.ApprovalAction{}
	}
	return actions, nil
}

func (s *ResultsApprovalService) stageFor(actor models.Principal) (models.Role, Stage, error) {
	role, ok := ResolveApprovalRole(actor)
	if !ok {
		return "", Stage{}, appErrors.Clone(appErrors.ErrPermissionDenied, fmt.Sprintf("role %s takes no part in results approval", actor.Role))
	}
	return role, approvalStages[role], nil
}

func (s *ResultsApprovalService) loadBatch(ctx context.Context, id string) (*models.ResultBatch, error) {
	batch, err := s.batches.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "result batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load result batch")
	}
	return batch, nil
}

// freshScopeReader is implemented by scope stores that sit behind a cache.
type freshScopeReader interface {
	GetFreshScope(ctx context.Context, staffID string) (*models.StaffScope, error)
}

func (s *ResultsApprovalService) actorScope(ctx context.Context, actor models.Principal) (*models.StaffScope, error) {
	return s.resolveScope(s.scopes.GetScope(ctx, actor.ID))
}

// authoritativeScope bypasses any scope cache so a transferred HOD or dean
// cannot act on their old department or school.
func (s *ResultsApprovalService) authoritativeScope(ctx context.Context, actor models.Principal) (*models.StaffScope, error) {
	if fresh, ok := s.scopes.(freshScopeReader); ok {
		return s.resolveScope(fresh.GetFreshScope(ctx, actor.ID))
	}
	return s.actorScope(ctx, actor)
}

func (s *ResultsApprovalService) resolveScope(scope *models.StaffScope, err error) (*models.StaffScope, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "no staff record found for your account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to resolve staff scope")
	}
	return scope, nil
}

func (s *ResultsApprovalService) checkScope(ctx context.Context, actor models.Principal, stage Stage, batch *models.ResultBatch) error {
	if stage.Override || stage.scope == scopeNone {
		return nil
	}
	scope, err := s.authoritativeScope(ctx, actor)
	if err != nil {
		return err
	}
	switch stage.scope {
	case scopeDepartment:
		if scope.DepartmentID == "" || scope.DepartmentID != batch.CourseDepartmentID {
			return appErrors.Clone(appErrors.ErrPermissionDenied, "batch belongs to a department outside your scope")
		}
	case scopeSchool:
		if scope.SchoolID == "" || scope.SchoolID != batch.CourseSchoolID {
			return appErrors.Clone(appErrors.ErrPermissionDenied, "batch belongs to a school outside your scope")
		}
	}
	return nil
}

func (s *ResultsApprovalService) recordAudit(ctx context.Context, actor models.Principal, outcome *TransitionOutcome, remark string, at time.Time) error {
	if s.audit == nil {
		return nil
	}
	record := &models.ApprovalAction{
		BatchID:    outcome.BatchID,
		ActorID:    actor.ID,
		ActorRole:  outcome.Role,
		Action:     outcome.Action,
		FromStatus: outcome.FromStatus,
		ToStatus:   outcome.ToStatus,
		CreatedAt:  at,
	}
	if remark != "" {
		record.Remark = &remark
	}
	if err := s.audit.Record(ctx, record); err != nil {
		s.logger.Warn("failed to record approval action",
			zap.String("batch_id", outcome.BatchID),
			zap.String("actor_id", actor.ID),
			zap.String("to_status", string(outcome.ToStatus)),
			zap.Error(err),
		)
		return err
	}
	return nil
}
