package response

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	OK      bool                   `json:"ok"`
	Data    interface{}            `json:"data,omitempty"`
	Code    string                 `json:"code,omitempty"`
	Message string                 `json:"message,omitempty"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	noStore(c)
	envelope := Envelope{OK: true, Data: data}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Error sends an error response converting the error to the common structure.
// Internal failures never leak their cause to the client.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	message := appErr.Message
	if appErr.Status >= http.StatusInternalServerError {
		message = appErrors.ErrInternal.Message
		if appErr.Code == appErrors.ErrStoreUnavailable.Code {
			message = appErrors.ErrStoreUnavailable.Message
		}
	}
	c.JSON(appErr.Status, Envelope{OK: false, Code: appErr.Code, Message: message})
}

// HTML renders a named template.
func HTML(c *gin.Context, status int, name string, data gin.H) {
	noStore(c)
	c.HTML(status, name, data)
}

// WantsJSON reports whether the client negotiated a JSON answer.
func WantsJSON(c *gin.Context) bool {
	if strings.EqualFold(c.GetHeader("X-Requested-With"), "XMLHttpRequest") {
		return true
	}
	accept := strings.ToLower(c.GetHeader("Accept"))
	if strings.Contains(accept, "application/json") {
		return true
	}
	return strings.Contains(strings.ToLower(c.ContentType()), "application/json")
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
