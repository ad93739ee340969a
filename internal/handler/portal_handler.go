package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniportal-api/internal/middleware"
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/policy"
	"github.com/noah-isme/uniportal-api/internal/view"
	"github.com/noah-isme/uniportal-api/pkg/response"
)

var dashboardTitles = map[models.RoleFamily]string{
	models.FamilyStaff:     "Staff dashboard",
	models.FamilyStudent:   "Student dashboard",
	models.FamilyApplicant: "Applicant dashboard",
}

var familyNames = map[models.RoleFamily]string{
	models.FamilyStaff:     "staff",
	models.FamilyStudent:   "student",
	models.FamilyApplicant: "applicant",
}

// PortalHandler serves the landing, dashboard and access pages.
type PortalHandler struct{}

// NewPortalHandler creates a new handler.
func NewPortalHandler() *PortalHandler {
	return &PortalHandler{}
}

// Root sends signed-in principals to their dashboard and everyone else to
// the login page.
func (h *PortalHandler) Root(c *gin.Context) {
	access, ok := middleware.CurrentAccess(c)
	if !ok {
		c.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}
	target := policy.LandingPath(access.Principal.Role)
	if target == "/" {
		response.HTML(c, http.StatusOK, view.Dashboard, dashboardData(access, "Portal", "other"))
		return
	}
	c.Redirect(http.StatusFound, target)
}

// AccessDenied renders the generic access denied page.
func (h *PortalHandler) AccessDenied(c *gin.Context) {
	_, signedIn := middleware.CurrentAccess(c)
	response.HTML(c, http.StatusForbidden, view.AccessDenied, gin.H{
		"Message":   "You do not have permission to open that page.",
		"SignedOut": !signedIn,
	})
}

// Dashboard renders the dashboard of a role family. A principal of another
// family is sent to their own dashboard.
func (h *PortalHandler) Dashboard(family models.RoleFamily) gin.HandlerFunc {
	return func(c *gin.Context) {
		access, ok := accessOrAbort(c)
		if !ok {
			return
		}
		if access.Principal.Role.Family() != family {
			c.Redirect(http.StatusFound, policy.LandingPath(access.Principal.Role))
			return
		}
		if response.WantsJSON(c) {
			response.JSON(c, http.StatusOK, access.View())
			return
		}
		response.HTML(c, http.StatusOK, view.Dashboard, dashboardData(access, dashboardTitles[family], familyNames[family]))
	}
}

// CurrentSession godoc
// @Summary Current session
// @Description Session payload of the signed-in principal
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /staff/session/current [get]
func (h *PortalHandler) CurrentSession(c *gin.Context) {
	access, ok := accessOrAbort(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, access.View())
}

func dashboardData(access models.AccessContext, title, family string) gin.H {
	return gin.H{
		"Title":     title,
		"Family":    family,
		"Principal": access.Principal,
		"Session":   access.View(),
	}
}
