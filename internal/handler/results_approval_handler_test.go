package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uniportal-api/internal/dto"
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/service"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

type fakeApprover struct {
	outcome   *service.TransitionOutcome
	err       error
	batches   []models.ResultBatch
	inbox     *dto.ApprovalInbox
	history   []models.ApprovalAction
	lastReq   dto.ApprovalActionRequest
	lastQuery dto.BatchQuery
	lastActor models.Principal
	lastBatch string
}

func (f *fakeApprover) TakeAction(_ context.Context, actor models.Principal, req dto.ApprovalActionRequest) (*service.TransitionOutcome, error) {
	f.lastActor = actor
	f.lastReq = req
	return f.outcome, f.err
}

func (f *fakeApprover) ListBatches(_ context.Context, actor models.Principal, query dto.BatchQuery) ([]models.ResultBatch, error) {
	f.lastActor = actor
	f.lastQuery = query
	return f.batches, f.err
}

func (f *fakeApprover) Inbox(_ context.Context, actor models.Principal) (*dto.ApprovalInbox, error) {
	f.lastActor = actor
	return f.inbox, f.err
}

func (f *fakeApprover) History(_ context.Context, actor models.Principal, batchID string) ([]models.ApprovalAction, error) {
	f.lastBatch = batchID
	return f.history, f.err
}

func TestTakeActionHandlerSuccess(t *testing.T) {
	svc := &fakeApprover{outcome: &service.TransitionOutcome{BatchID: "b1", FromStatus: models.BatchUploaded, ToStatus: models.BatchHODApproved}}
	handler := NewResultsApprovalHandler(svc)

	c, rec := newTestContext(http.MethodPost, "/results-approval/action", strings.NewReader(`{"batchId":"b1","action":"approve","remark":"fine"}`), accessFor(models.RoleHOD, models.StatusActive))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.TakeAction(c)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decode(t, rec)
	assert.True(t, envelope.OK)
	var outcome dto.ApprovalOutcome
	require.NoError(t, json.Unmarshal(envelope.Data, &outcome))
	assert.Equal(t, models.BatchHODApproved, outcome.NewStatus)
	assert.True(t, outcome.Audited)
	assert.Equal(t, "fine", svc.lastReq.Remark)
	assert.Equal(t, "u-1", svc.lastActor.ID)
}

func TestTakeActionHandlerReportsAuditGap(t *testing.T) {
	svc := &fakeApprover{outcome: &service.TransitionOutcome{BatchID: "b1", ToStatus: models.BatchFinal, AuditErr: errors.New("audit down")}}
	handler := NewResultsApprovalHandler(svc)

	c, rec := newTestContext(http.MethodPost, "/results-approval/action", strings.NewReader(`{"batchId":"b1","action":"approve"}`), accessFor(models.RoleRegistry, models.StatusActive))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.TakeAction(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var outcome dto.ApprovalOutcome
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &outcome))
	assert.False(t, outcome.Audited)
}

func TestTakeActionHandlerMapsErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{appErrors.Clone(appErrors.ErrValidation, "action must be approve or reject"), http.StatusBadRequest},
		{appErrors.Clone(appErrors.ErrPermissionDenied, "batch belongs to a department outside your scope"), http.StatusForbidden},
		{appErrors.Clone(appErrors.ErrInvalidStageTransition, "batch is at status FINAL"), http.StatusForbidden},
		{appErrors.Clone(appErrors.ErrNotFound, "result batch not found"), http.StatusNotFound},
		{appErrors.Wrap(errors.New("boom"), appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		handler := NewResultsApprovalHandler(&fakeApprover{err: tc.err})
		c, rec := newTestContext(http.MethodPost, "/results-approval/action", strings.NewReader(`{"batchId":"b1","action":"approve"}`), accessFor(models.RoleHOD, models.StatusActive))
		c.Request.Header.Set("Content-Type", "application/json")

		handler.TakeAction(c)

		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		envelope := decode(t, rec)
		assert.False(t, envelope.OK)
		assert.NotEmpty(t, envelope.Message)
		assert.NotContains(t, envelope.Message, "boom")
	}
}

func TestTakeActionHandlerRejectsMalformedBody(t *testing.T) {
	handler := NewResultsApprovalHandler(&fakeApprover{})
	c, rec := newTestContext(http.MethodPost, "/results-approval/action", strings.NewReader(`{"batchId":`), accessFor(models.RoleHOD, models.StatusActive))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.TakeAction(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTakeActionHandlerRequiresPrincipal(t *testing.T) {
	handler := NewResultsApprovalHandler(&fakeApprover{})
	c, rec := newTestContext(http.MethodPost, "/results-approval/action", strings.NewReader(`{}`), nil)

	handler.TakeAction(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListBatchesHandlerParsesFilters(t *testing.T) {
	svc := &fakeApprover{batches: []models.ResultBatch{{ID: "b1"}}}
	handler := NewResultsApprovalHandler(svc)
	c, rec := newTestContext(http.MethodGet, "/results-approval/batches?session=2023/2024&semester=first&level=300&course=c-9&status=final,hod_rejected&limit=20", nil, accessFor(models.RoleDean, models.StatusActive))

	handler.ListBatches(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.BatchQuery{
		Session:  "2023/2024",
		Semester: "first",
		Level:    "300",
		CourseID: "c-9",
		Status:   []models.BatchStatus{models.BatchFinal, models.BatchHODRejected},
		Limit:    20,
	}, svc.lastQuery)
	assert.Equal(t, float64(1), decode(t, rec).Meta["count"])
}

func TestListBatchesHandlerRejectsBadPaging(t *testing.T) {
	handler := NewResultsApprovalHandler(&fakeApprover{})
	c, rec := newTestContext(http.MethodGet, "/results-approval/batches?limit=-1", nil, accessFor(models.RoleDean, models.StatusActive))

	handler.ListBatches(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInboxHandlerRendersPage(t *testing.T) {
	svc := &fakeApprover{inbox: &dto.ApprovalInbox{
		ActingRole: models.RoleHOD,
		Batches:    []models.ResultBatch{{ID: "b1", CourseCode: "CSC301", Status: models.BatchUploaded}},
	}}
	handler := NewResultsApprovalHandler(svc)
	c, rec := newTestContext(http.MethodGet, "/results-approval", nil, accessFor(models.RoleHOD, models.StatusActive))

	handler.Inbox(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "CSC301")
	assert.Contains(t, rec.Body.String(), "/results-approval/batches/b1/history")
}

func TestInboxHandlerRendersDenialForNonApprovers(t *testing.T) {
	svc := &fakeApprover{err: appErrors.Clone(appErrors.ErrPermissionDenied, "role lecturer takes no part in results approval")}
	handler := NewResultsApprovalHandler(svc)
	c, rec := newTestContext(http.MethodGet, "/results-approval", nil, accessFor(models.RoleLecturer, models.StatusActive))

	handler.Inbox(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "takes no part in results approval")
}

func TestHistoryHandlerPassesBatchID(t *testing.T) {
	svc := &fakeApprover{history: []models.ApprovalAction{{BatchID: "b7", Action: models.DecisionApprove}}}
	handler := NewResultsApprovalHandler(svc)
	c, rec := newTestContext(http.MethodGet, "/results-approval/batches/b7/history", nil, accessFor(models.RoleRegistry, models.StatusActive))
	c.Params = gin.Params{{Key: "id", Value: "b7"}}

	handler.History(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "b7", svc.lastBatch)
}
