package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniportal-api/internal/models"
)

// Gin context keys.
const (
	ContextSessionKey = "session"
	ContextAccessKey  = "access"
)

type accessCtxKey struct{}

// SetSession stores the loaded session for the rest of the request.
func SetSession(c *gin.Context, session *models.SessionData) {
	c.Set(ContextSessionKey, session)
}

// CurrentSession returns the session attached by SessionGuard.Enforce.
func CurrentSession(c *gin.Context) *models.SessionData {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	session, _ := value.(*models.SessionData)
	return session
}

// SetAccess attaches the access context to both the gin context and the
// request context so services called with c.Request.Context() can see it.
func SetAccess(c *gin.Context, access models.AccessContext) {
	c.Set(ContextAccessKey, access)
	c.Request = c.Request.WithContext(WithAccess(c.Request.Context(), access))
}

// CurrentAccess returns the access context of an authenticated request.
func CurrentAccess(c *gin.Context) (models.AccessContext, bool) {
	value, exists := c.Get(ContextAccessKey)
	if !exists {
		return models.AccessContext{}, false
	}
	access, ok := value.(models.AccessContext)
	return access, ok
}

// WithAccess returns a copy of ctx carrying access.
func WithAccess(ctx context.Context, access models.AccessContext) context.Context {
	return context.WithValue(ctx, accessCtxKey{}, access)
}

// AccessFrom extracts the access context stored by WithAccess.
func AccessFrom(ctx context.Context) (models.AccessContext, bool) {
	access, ok := ctx.Value(accessCtxKey{}).(models.AccessContext)
	return access, ok
}
