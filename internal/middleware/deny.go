package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniportal-api/internal/view"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/response"
)

// Deny aborts the request with err, answering JSON to API clients and the
// named page to browsers.
func Deny(c *gin.Context, err *appErrors.Error, page string, data gin.H) {
	if response.WantsJSON(c) {
		response.Error(c, err)
		c.Abort()
		return
	}
	if data == nil {
		data = gin.H{}
	}
	data["Message"] = err.Message
	response.HTML(c, err.Status, page, data)
	c.Abort()
}

func denyAccess(c *gin.Context, err *appErrors.Error, signedOut bool) {
	Deny(c, err, view.AccessDenied, gin.H{"SignedOut": signedOut})
}
