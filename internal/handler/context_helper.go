package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniportal-api/internal/middleware"
	"github.com/noah-isme/uniportal-api/internal/models"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/response"
)

// accessOrAbort returns the caller's access context or answers 401.
func accessOrAbort(c *gin.Context) (models.AccessContext, bool) {
	access, ok := middleware.CurrentAccess(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		c.Abort()
	}
	return access, ok
}
