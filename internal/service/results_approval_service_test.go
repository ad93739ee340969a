package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/uniportal-api/internal/dto"
	"github.com/noah-isme/uniportal-api/internal/models"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

type memoryBatchRepo struct {
	batches   map[string]*models.ResultBatch
	getErr    error
	updateErr error
	filters   []models.BatchFilter
}

func newMemoryBatchRepo(batches ...models.ResultBatch) *memoryBatchRepo {
	repo := &memoryBatchRepo{batches: make(map[string]*models.ResultBatch)}
	for i := range batches {
		b := batches[i]
		repo.batches[b.ID] = &b
	}
	return repo
}

func (m *memoryBatchRepo) GetByID(ctx context.Context, id string) (*models.ResultBatch, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	b, ok := m.batches[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *b
	return &clone, nil
}

func (m *memoryBatchRepo) List(ctx context.Context, filter models.BatchFilter) ([]models.ResultBatch, error) {
	m.filters = append(m.filters, filter)
	var result []models.ResultBatch
	for _, b := range m.batches {
		if filter.DepartmentID != "" && b.CourseDepartmentID != filter.DepartmentID {
			continue
		}
		if filter.SchoolID != "" && b.CourseSchoolID != filter.SchoolID {
			continue
		}
		if filter.Session != "" && b.Session != filter.Session {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, b.Status) {
			continue
		}
		result = append(result, *b)
	}
	return result, nil
}

func (m *memoryBatchRepo) UpdateStatus(ctx context.Context, id string, from, to models.BatchStatus, at time.Time) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	b, ok := m.batches[id]
	if !ok || b.Status != from {
		return sql.ErrNoRows
	}
	b.Status = to
	b.UpdatedAt = at
	return nil
}

func containsStatus(list []models.BatchStatus, status models.BatchStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

type stubScopes struct {
	scopes map[string]models.StaffScope
	err    error
	calls  int
}

func (s *stubScopes) GetScope(ctx context.Context, staffID string) (*models.StaffScope, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	scope, ok := s.scopes[staffID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &scope, nil
}

type stubAuditSink struct {
	records   []models.ApprovalAction
	recordErr error
}

func (s *stubAuditSink) Record(ctx context.Context, action *models.ApprovalAction) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	s.records = append(s.records, *action)
	return nil
}

func (s *stubAuditSink) ListByBatch(ctx context.Context, batchID string) ([]models.ApprovalAction, error) {
	var result []models.ApprovalAction
	for _, r := range s.records {
		if r.BatchID == batchID {
			result = append(result, r)
		}
	}
	return result, nil
}

var (
	hodOfD   = models.Principal{ID: "hod-d", Role: models.RoleHOD, Status: models.StatusActive}
	hodOfE   = models.Principal{ID: "hod-e", Role: models.RoleHOD, Status: models.StatusActive}
	deanOfS  = models.Principal{ID: "dean-s", Role: models.RoleDean, Status: models.StatusActive}
	deanOfT  = models.Principal{ID: "dean-t", Role: models.RoleDean, Status: models.StatusActive}
	registry = models.Principal{ID: "reg-1", Role: models.RoleRegistry, Status: models.StatusActive}
	ictUser  = models.Principal{ID: "ict-1", Role: models.RoleICT, Status: models.StatusActive}
	lecturer = models.Principal{ID: "lec-1", Role: models.RoleLecturer, Status: models.StatusActive}
)

func newApprovalFixture(batches ...models.ResultBatch) (*ResultsApprovalService, *memoryBatchRepo, *stubAuditSink, *MetricsService) {
	repo := newMemoryBatchRepo(batches...)
	scopes := &stubScopes{scopes: map[string]models.StaffScope{
		"hod-d":  {StaffID: "hod-d", DepartmentID: "D", SchoolID: "S"},
		"hod-e":  {StaffID: "hod-e", DepartmentID: "E", SchoolID: "S"},
		"dean-s": {StaffID: "dean-s", SchoolID: "S"},
		"dean-t": {StaffID: "dean-t", SchoolID: "T"},
	}}
	audit := &stubAuditSink{}
	metrics := NewMetricsService()
	svc := NewResultsApprovalService(repo, scopes, audit, metrics, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc, repo, audit, metrics
}

func batchInD(id string, status models.BatchStatus) models.ResultBatch {
	return models.ResultBatch{ID: id, CourseID: "course-1", CourseDepartmentID: "D", CourseSchoolID: "S", Session: "2023/2024", Status: status}
}

func TestTakeActionHODApprovesUploadedBatch(t *testing.T) {
	svc, repo, audit, metrics := newApprovalFixture(batchInD("b1", models.BatchUploaded))

	outcome, err := svc.TakeAction(context.Background(), hodOfD, dto.ApprovalActionRequest{BatchID: "b1", Action: "approve", Remark: " ok "})
	require.NoError(t, err)
	assert.Equal(t, models.BatchUploaded, outcome.FromStatus)
	assert.Equal(t, models.BatchHODApproved, outcome.ToStatus)
	assert.NoError(t, outcome.AuditErr)
	assert.Equal(t, models.BatchHODApproved, repo.batches["b1"].Status)

	require.Len(t, audit.records, 1)
	record := audit.records[0]
	assert.Equal(t, models.DecisionApprove, record.Action)
	assert.Equal(t, models.BatchUploaded, record.FromStatus)
	assert.Equal(t, models.BatchHODApproved, record.ToStatus)
	assert.Equal(t, models.RoleHOD, record.ActorRole)
	require.NotNil(t, record.Remark)
	assert.Equal(t, "ok", *record.Remark)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.transitions.WithLabelValues("hod", "approve", "applied")))
}

func TestTakeActionHODCannotActPastStage(t *testing.T) {
	svc, repo, audit, _ := newApprovalFixture(batchInD("b1", models.BatchDeanApproved))

	_, err := svc.TakeAction(context.Background(), hodOfD, dto.ApprovalActionRequest{BatchID: "b1", Action: "approve"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidStageTransition)
	assert.Contains(t, err.Error(), string(models.BatchDeanApproved))
	assert.Equal(t, models.BatchDeanApproved, repo.batches["b1"].Status)
	assert.Empty(t, audit.records)
}

func TestTakeActionHODOutsideDepartmentDenied(t *testing.T) {
	for _, status := range []models.BatchStatus{models.BatchUploaded, models.BatchHODRejected, models.BatchDeanApproved, models.BatchFinal} {
		svc, repo, _, _ := newApprovalFixture(batchInD("b1", status))

		_, err := svc.TakeAction(context.Background(), hodOfE, dto.ApprovalActionRequest{BatchID: "b1", Action: "reject"})
		require.Error(t, err, status)
		assert.ErrorIs(t, err, appErrors.ErrPermissionDenied)
		assert.NotErrorIs(t, err, appErrors.ErrInvalidStageTransition)
		assert.Contains(t, err.Error(), "department")
		assert.Equal(t, status, repo.batches["b1"].Status)
	}
}

func TestTakeActionDeanOutsideSchoolDenied(t *testing.T) {
	svc, _, _, _ := newApprovalFixture(batchInD("b1", models.BatchHODApproved))

	_, err := svc.TakeAction(context.Background(), deanOfT, dto.ApprovalActionRequest{BatchID: "b1", Action: "approve"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrPermissionDenied)
	assert.Contains(t, err.Error(), "school")
}

func TestTakeActionApprovalChainScenario(t *testing.T) {
	svc, repo, audit, _ := newApprovalFixture(batchInD("b1", models.BatchUploaded))
	ctx := context.Background()

	_, err := svc.TakeAction(ctx, hodOfD, dto.ApprovalActionRequest{BatchID: "b1", Action: "APPROVE"})
	require.NoError(t, err)

	outcome, err := svc.TakeAction(ctx, deanOfS, dto.ApprovalActionRequest{BatchID: "b1", Action: "Reject", Remark: "missing scores"})
	require.NoError(t, err)
	assert.Equal(t, models.BatchDeanRejected, outcome.ToStatus)

	_, err = svc.TakeAction(ctx, hodOfD, dto.ApprovalActionRequest{BatchID: "b1", Action: "approve"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidStageTransition)
	assert.Equal(t, models.BatchDeanRejected, repo.batches["b1"].Status)

	history, err := svc.History(ctx, deanOfS, "b1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.BatchHODApproved, history[0].ToStatus)
	assert.Equal(t, models.BatchDeanRejected, history[1].ToStatus)
	assert.Len(t, audit.records, 2)
}

func TestTakeActionRegistryFinalises(t *testing.T) {
	svc, repo, _, _ := newApprovalFixture(batchInD("b1", models.BatchBusinessApproved))

	outcome, err := svc.TakeAction(context.Background(), registry, dto.ApprovalActionRequest{BatchID: "b1", Action: "approve"})
	require.NoError(t, err)
	assert.Equal(t, models.BatchFinal, outcome.ToStatus)
	assert.Equal(t, models.BatchFinal, repo.batches["b1"].Status)
}

func TestTakeActionOverrideRoleSkipsStageAndScope(t *testing.T) {
	batch := batchInD("b1", models.BatchHODRejected)
	batch.CourseDepartmentID = "elsewhere"
	svc, _, _, _ := newApprovalFixture(batch)

	outcome, err := svc.TakeAction(context.Background(), ictUser, dto.ApprovalActionRequest{BatchID: "b1", Action: "reject"})
	require.NoError(t, err)
	assert.Equal(t, models.BatchRegistryRejected, outcome.ToStatus)
}

func TestTakeActionOverrideRoleCannotReopenFinalBatch(t *testing.T) {
	for _, actor := range []models.Principal{ictUser, {ID: "admin-1", Role: models.RoleAdmin, Status: models.StatusActive}} {
		for _, action := range []string{"approve", "reject"} {
			svc, repo, audit, _ := newApprovalFixture(batchInD("b1", models.BatchFinal))

			outcome, err := svc.TakeAction(context.Background(), actor, dto.ApprovalActionRequest{BatchID: "b1", Action: action})
			require.Error(t, err, "%s %s", actor.Role, action)
			assert.Nil(t, outcome)
			assert.True(t, errors.Is(err, appErrors.ErrInvalidStageTransition))
			assert.Equal(t, models.BatchFinal, repo.batches["b1"].Status)
			assert.Empty(t, audit.records)
		}
	}
}

func TestTakeActionScopeCheckIgnoresStaleCache(t *testing.T) {
	repo := newMemoryBatchRepo(batchInD("b1", models.BatchUploaded))
	store := &stubScopes{scopes: map[string]models.StaffScope{
		"hod-d": {StaffID: "hod-d", DepartmentID: "E", SchoolID: "S"},
	}}
	cacheRepo := &memoryCacheRepo{entries: map[string]models.StaffScope{
		"staff_scope:hod-d": {StaffID: "hod-d", DepartmentID: "D", SchoolID: "S"},
	}}
	scopes := NewCachedStaffScopes(store, NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true))
	svc := NewResultsApprovalService(repo, scopes, &stubAuditSink{}, nil, nil, zap.NewNop())

	_, err := svc.TakeAction(context.Background(), hodOfD, dto.ApprovalActionRequest{BatchID: "b1", Action: "approve"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPermissionDenied))
	assert.Equal(t, models.BatchUploaded, repo.batches["b1"].Status)
	assert.Equal(t, 1, store.calls)
}

func TestTakeActionUnknownRoleDenied(t *testing.T) {
	svc, _, _, _ := newApprovalFixture(batchInD("b1", models.BatchUploaded))

	_, err := svc.TakeAction(context.Background(), lecturer, dto.ApprovalActionRequest{BatchID: "b1", Action: "approve"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrPermissionDenied)
}

func TestTakeActionActsThroughAdditionalRole(t *testing.T) {
	svc, _, _, _ := newApprovalFixture(batchInD("b1", models.BatchUploaded))
	actor := models.Principal{ID: "hod-d", Role: models.RoleLecturer, AdditionalRoles: []models.Role{models.RoleHOD}}

	outcome, err := svc.TakeAction(context.Background(), actor, dto.ApprovalActionRequest{BatchID: "b1", Action: "approve"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleHOD, outcome.Role)
}

func TestTakeActionValidation(t *testing.T) {
	svc, _, _, _ := newApprovalFixture(batchInD("b1", models.BatchUploaded))

	_, err := svc.TakeAction(context.Background(), hodOfD, dto.ApprovalActionRequest{Action: "approve"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.TakeAction(context.Background(), hodOfD, dto.ApprovalActionRequest{BatchID: "b1", Action: "escalate"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestTakeActionMissingBatch(t *testing.T) {
	svc, _, _, _ := newApprovalFixture()

	_, err := svc.TakeAction(context.Background(), registry, dto.ApprovalActionRequest{BatchID: "nope", Action: "approve"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTakeActionStoreFailures(t *testing.T) {
	svc, repo, _, _ := newApprovalFixture(batchInD("b1", models.BatchBusinessApproved))
	repo.updateErr = errors.New("connection reset")

	_, err := svc.TakeAction(context.Background(), registry, dto.ApprovalActionRequest{BatchID: "b1", Action: "approve"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrStoreUnavailable)
	assert.Equal(t, models.BatchBusinessApproved, repo.batches["b1"].Status)

	repo.updateErr = nil
	repo.getErr = errors.New("timeout")
	_, err = svc.TakeAction(context.Background(), registry, dto.ApprovalActionRequest{BatchID: "b1", Action: "approve"})
	assert.ErrorIs(t, err, appErrors.ErrStoreUnavailable)
}

func TestTakeActionLostRaceIsConflict(t *testing.T) {
	svc, repo, _, _ := newApprovalFixture(batchInD("b1", models.BatchBusinessApproved))
	repo.updateErr = sql.ErrNoRows

	_, err := svc.TakeAction(context.Background(), registry, dto.ApprovalActionRequest{BatchID: "b1", Action: "approve"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestTakeActionAuditFailureDoesNotFailTransition(t *testing.T) {
	svc, repo, audit, _ := newApprovalFixture(batchInD("b1", models.BatchUploaded))
	audit.recordErr = errors.New("relation result_approval_actions does not exist")

	outcome, err := svc.TakeAction(context.Background(), hodOfD, dto.ApprovalActionRequest{BatchID: "b1", Action: "approve"})
	require.NoError(t, err)
	assert.Error(t, outcome.AuditErr)
	assert.Equal(t, models.BatchHODApproved, repo.batches["b1"].Status)
}

func TestListBatchesDefaultVisibilityFollowsStage(t *testing.T) {
	svc, _, _, _ := newApprovalFixture(batchInD("b1", models.BatchUploaded))
	ctx := context.Background()

	before, err := svc.ListBatches(ctx, hodOfD, dto.BatchQuery{})
	require.NoError(t, err)
	require.Len(t, before, 1)

	_, err = svc.TakeAction(ctx, hodOfD, dto.ApprovalActionRequest{BatchID: "b1", Action: "approve"})
	require.NoError(t, err)

	after, err := svc.ListBatches(ctx, hodOfD, dto.BatchQuery{})
	require.NoError(t, err)
	assert.Empty(t, after)

	deanView, err := svc.ListBatches(ctx, deanOfS, dto.BatchQuery{})
	require.NoError(t, err)
	require.Len(t, deanView, 1)
	assert.Equal(t, "b1", deanView[0].ID)
}

func TestListBatchesAppliesMandatoryScope(t *testing.T) {
	svc, repo, _, _ := newApprovalFixture(batchInD("b1", models.BatchUploaded))

	batches, err := svc.ListBatches(context.Background(), hodOfE, dto.BatchQuery{})
	require.NoError(t, err)
	assert.Empty(t, batches)
	require.NotEmpty(t, repo.filters)
	assert.Equal(t, "E", repo.filters[0].DepartmentID)

	_, err = svc.ListBatches(context.Background(), deanOfT, dto.BatchQuery{})
	require.NoError(t, err)
	assert.Equal(t, "T", repo.filters[1].SchoolID)
	assert.Empty(t, repo.filters[1].DepartmentID)
}

func TestListBatchesExplicitStatusReplacesDefault(t *testing.T) {
	svc, repo, _, _ := newApprovalFixture(
		batchInD("b1", models.BatchUploaded),
		batchInD("b2", models.BatchFinal),
	)

	batches, err := svc.ListBatches(context.Background(), hodOfD, dto.BatchQuery{Status: []models.BatchStatus{models.BatchFinal}})
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "b2", batches[0].ID)
	assert.Equal(t, []models.BatchStatus{models.BatchFinal}, repo.filters[0].Statuses)
}

func TestListBatchesWithoutStaffRecordDenied(t *testing.T) {
	svc, _, _, _ := newApprovalFixture()
	stranger := models.Principal{ID: "ghost", Role: models.RoleHOD}

	_, err := svc.ListBatches(context.Background(), stranger, dto.BatchQuery{})
	assert.ErrorIs(t, err, appErrors.ErrPermissionDenied)
}

func TestInboxReportsStageVisibility(t *testing.T) {
	svc, _, _, _ := newApprovalFixture(batchInD("b1", models.BatchHODApproved))

	inbox, err := svc.Inbox(context.Background(), deanOfS)
	require.NoError(t, err)
	assert.Equal(t, models.RoleDean, inbox.ActingRole)
	assert.Equal(t, []models.BatchStatus{models.BatchHODApproved, models.BatchDeanRejected}, inbox.Visible)
	assert.Len(t, inbox.Batches, 1)
}

func TestHistoryRespectsScope(t *testing.T) {
	svc, _, _, _ := newApprovalFixture(batchInD("b1", models.BatchUploaded))

	_, err := svc.History(context.Background(), hodOfE, "b1")
	assert.ErrorIs(t, err, appErrors.ErrPermissionDenied)

	history, err := svc.History(context.Background(), hodOfD, "b1")
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestResolveApprovalRole(t *testing.T) {
	role, ok := ResolveApprovalRole(models.Principal{Role: models.RoleDean, AdditionalRoles: []models.Role{models.RoleHOD}})
	assert.True(t, ok)
	assert.Equal(t, models.RoleDean, role)

	_, ok = ResolveApprovalRole(models.Principal{Role: models.RoleStudent})
	assert.False(t, ok)
}
