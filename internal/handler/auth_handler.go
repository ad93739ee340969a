package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniportal-api/internal/dto"
	"github.com/noah-isme/uniportal-api/internal/middleware"
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/policy"
	"github.com/noah-isme/uniportal-api/internal/view"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/response"
)

type authenticator interface {
	Login(ctx context.Context, req dto.LoginRequest, previous *models.SessionData) (*dto.LoginResult, string, error)
	Logout(ctx context.Context, sessionID string) error
}

type sessionCookies interface {
	SetCookie(c *gin.Context, token string)
	ClearCookie(c *gin.Context)
}

// AuthHandler serves the sign-in and sign-out endpoints.
type AuthHandler struct {
	service authenticator
	cookies sessionCookies
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authenticator, cookies sessionCookies) *AuthHandler {
	return &AuthHandler{service: svc, cookies: cookies}
}

// LoginPage renders the sign-in form, or sends signed-in principals home.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	if access, ok := middleware.CurrentAccess(c); ok {
		c.Redirect(http.StatusFound, policy.LandingPath(access.Principal.Role))
		return
	}
	response.HTML(c, http.StatusOK, view.Login, gin.H{})
}

// Login godoc
// @Summary Sign in
// @Description Authenticate by username, matric number or email. Browsers are redirected; JSON clients receive the landing path.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "auth service unavailable"))
		return
	}
	jsonClient := response.WantsJSON(c)

	var req dto.LoginRequest
	var err error
	if jsonClient {
		err = c.ShouldBindJSON(&req)
	} else {
		err = c.ShouldBind(&req)
	}
	if err != nil {
		h.loginFailed(c, jsonClient, req, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, token, err := h.service.Login(c.Request.Context(), req, middleware.CurrentSession(c))
	if err != nil {
		h.loginFailed(c, jsonClient, req, err)
		return
	}

	h.cookies.SetCookie(c, token)
	if jsonClient {
		response.JSON(c, http.StatusOK, res)
		return
	}
	c.Redirect(http.StatusSeeOther, res.RedirectTo)
}

func (h *AuthHandler) loginFailed(c *gin.Context, jsonClient bool, req dto.LoginRequest, err error) {
	if jsonClient {
		response.Error(c, err)
		return
	}
	appErr := appErrors.FromError(err)
	if errors.Is(err, appErrors.ErrAccountBlocked) {
		response.HTML(c, appErr.Status, view.AccessDenied, gin.H{"Message": appErr.Message, "SignedOut": true})
		return
	}
	message := appErr.Message
	if appErr.Status >= http.StatusInternalServerError {
		message = "Sign-in is temporarily unavailable. Please try again later."
	}
	response.HTML(c, appErr.Status, view.Login, gin.H{"Error": message, "Identifier": req.Identifier})
}

// Logout godoc
// @Summary Sign out
// @Description Destroy the current session
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if session := middleware.CurrentSession(c); session != nil && h.service != nil {
		if err := h.service.Logout(c.Request.Context(), session.ID); err != nil {
			_ = c.Error(err)
		}
	}
	h.cookies.ClearCookie(c)
	if response.WantsJSON(c) {
		response.JSON(c, http.StatusOK, gin.H{"redirect_to": middleware.LoginPath})
		return
	}
	c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}
