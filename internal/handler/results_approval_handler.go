package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniportal-api/internal/dto"
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/service"
	"github.com/noah-isme/uniportal-api/internal/view"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/response"
)

type resultsApprover interface {
	TakeAction(ctx context.Context, actor models.Principal, req dto.ApprovalActionRequest) (*service.TransitionOutcome, error)
	ListBatches(ctx context.Context, actor models.Principal, query dto.BatchQuery) ([]models.ResultBatch, error)
	Inbox(ctx context.Context, actor models.Principal) (*dto.ApprovalInbox, error)
	History(ctx context.Context, actor models.Principal, batchID string) ([]models.ApprovalAction, error)
}

// ResultsApprovalHandler exposes the results approval workflow.
type ResultsApprovalHandler struct {
	service resultsApprover
}

// NewResultsApprovalHandler creates a new handler.
func NewResultsApprovalHandler(svc resultsApprover) *ResultsApprovalHandler {
	return &ResultsApprovalHandler{service: svc}
}

// Inbox renders the batches waiting at the caller's stage.
func (h *ResultsApprovalHandler) Inbox(c *gin.Context) {
	access, ok := accessOrAbort(c)
	if !ok {
		return
	}
	inbox, err := h.service.Inbox(c.Request.Context(), access.Principal)
	if err != nil {
		if response.WantsJSON(c) {
			response.Error(c, err)
			return
		}
		appErr := appErrors.FromError(err)
		message := appErr.Message
		if appErr.Status >= http.StatusInternalServerError {
			message = "Results approval is temporarily unavailable."
		}
		response.HTML(c, appErr.Status, view.AccessDenied, gin.H{"Message": message})
		return
	}
	if response.WantsJSON(c) {
		response.JSON(c, http.StatusOK, inbox)
		return
	}
	response.HTML(c, http.StatusOK, view.ResultsApproval, gin.H{"Inbox": inbox, "ReadOnly": access.ReadOnly})
}

// ListBatches godoc
// @Summary List result batches
// @Description Batches visible to the caller's approval stage within their department or school. An explicit status filter replaces the stage default.
// @Tags Results Approval
// @Produce json
// @Param session query string false "Academic session"
// @Param semester query string false "Semester"
// @Param level query string false "Level"
// @Param course query string false "Course ID"
// @Param status query string false "Comma separated batch statuses"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /results-approval/batches [get]
func (h *ResultsApprovalHandler) ListBatches(c *gin.Context) {
	access, ok := accessOrAbort(c)
	if !ok {
		return
	}
	query, err := parseBatchQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	batches, err := h.service.ListBatches(c.Request.Context(), access.Principal, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batches, map[string]interface{}{"count": len(batches)})
}

// TakeAction godoc
// @Summary Approve or reject a result batch
// @Description Moves a batch to the caller's stage approve or reject status
// @Tags Results Approval
// @Accept json
// @Produce json
// @Param payload body dto.ApprovalActionRequest true "Approval action"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /results-approval/action [post]
func (h *ResultsApprovalHandler) TakeAction(c *gin.Context) {
	access, ok := accessOrAbort(c)
	if !ok {
		return
	}
	var req dto.ApprovalActionRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
		return
	}
	outcome, err := h.service.TakeAction(c.Request.Context(), access.Principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ApprovalOutcome{
		BatchID:    outcome.BatchID,
		FromStatus: outcome.FromStatus,
		NewStatus:  outcome.ToStatus,
		Audited:    outcome.AuditErr == nil,
	})
}

// History godoc
// @Summary Approval history of a batch
// @Tags Results Approval
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /results-approval/batches/{id}/history [get]
func (h *ResultsApprovalHandler) History(c *gin.Context) {
	access, ok := accessOrAbort(c)
	if !ok {
		return
	}
	actions, err := h.service.History(c.Request.Context(), access.Principal, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, actions)
}

func parseBatchQuery(c *gin.Context) (dto.BatchQuery, error) {
	query := dto.BatchQuery{
		Session:  c.Query("session"),
		Semester: c.Query("semester"),
		Level:    c.Query("level"),
		CourseID: c.Query("course"),
	}
	for _, raw := range c.QueryArray("status") {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			query.Status = append(query.Status, models.ParseBatchStatus(part))
		}
	}
	var err error
	if query.Limit, err = intQuery(c, "limit"); err != nil {
		return query, err
	}
	if query.Offset, err = intQuery(c, "offset"); err != nil {
		return query, err
	}
	return query, nil
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, key+" must be a non-negative integer")
	}
	return value, nil
}
