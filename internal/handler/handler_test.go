package handler

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uniportal-api/internal/middleware"
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/view"
)

type responseEnvelope struct {
	OK      bool                   `json:"ok"`
	Data    json.RawMessage        `json:"data"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Meta    map[string]interface{} `json:"meta"`
}

func newTestContext(method, target string, body io.Reader, access *models.AccessContext) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(rec)
	engine.SetHTMLTemplate(view.MustTemplates())
	c.Request = httptest.NewRequest(method, target, body)
	if access != nil {
		middleware.SetAccess(c, *access)
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func accessFor(role models.Role, status models.AccountStatus) *models.AccessContext {
	return &models.AccessContext{Principal: models.Principal{ID: "u-1", Role: role, Status: status, FullName: "Ada Obi"}}
}
