package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/policy"
	"github.com/noah-isme/uniportal-api/internal/service"
	"github.com/noah-isme/uniportal-api/internal/view"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/logger"
	"github.com/noah-isme/uniportal-api/pkg/response"
)

// LoginPath is where unauthenticated browsers are sent.
const LoginPath = "/login"

// safePaths stay reachable for blocked principals so they can sign out.
var safePaths = map[string]struct{}{
	"/logout":        {},
	"/login":         {},
	"/verify-otp":    {},
	"/access-denied": {},
	"/":              {},
}

type sessionManager interface {
	Start(ctx context.Context, principal *models.Principal, returnTo string) (*models.SessionData, string, error)
	Load(ctx context.Context, token string) (*models.SessionData, error)
	Save(ctx context.Context, data *models.SessionData) error
	Destroy(ctx context.Context, id string) error
	TTL() time.Duration
}

type principalRefresher interface {
	Refresh(ctx context.Context, p models.Principal) (models.Principal, error)
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// SessionGuard resolves the principal of every request and applies the
// account status rules before any handler runs.
type SessionGuard struct {
	sessions sessionManager
	users    principalRefresher
	cookie   CookieConfig
	metrics  *service.MetricsService
	logger   *zap.Logger
}

// NewSessionGuard constructs a SessionGuard.
func NewSessionGuard(sessions sessionManager, users principalRefresher, cookie CookieConfig, metrics *service.MetricsService, log *zap.Logger) *SessionGuard {
	if log == nil {
		log = zap.NewNop()
	}
	if cookie.Name == "" {
		cookie.Name = "uniportal_sid"
	}
	return &SessionGuard{sessions: sessions, users: users, cookie: cookie, metrics: metrics, logger: log}
}

// Enforce must be registered globally ahead of every route.
func (g *SessionGuard) Enforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(g.cookie.Name)
		if err != nil || token == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		session, err := g.sessions.Load(ctx, token)
		if err != nil {
			if errors.Is(err, appErrors.ErrUnauthenticated) {
				g.ClearCookie(c)
			} else {
				g.logger.Warn("failed to load session", zap.Error(err))
			}
			c.Next()
			return
		}
		SetSession(c, session)
		if !session.Authenticated() {
			c.Next()
			return
		}

		principal, err := g.users.Refresh(ctx, *session.Principal)
		if err != nil {
			g.logger.Warn("principal refresh failed, using cached session copy",
				zap.String("user_id", session.Principal.ID),
				zap.Error(err),
			)
		} else {
			session.Principal = &principal
			session.RefreshedAt = time.Now().UTC()
			if err := g.sessions.Save(ctx, session); err != nil {
				g.logger.Warn("failed to persist refreshed session", zap.Error(err))
			}
		}

		decision := policy.DecideLogin(principal.Status, principal.Role)
		if !decision.Allowed {
			if _, safe := safePaths[policy.NormalizePath(c.Request.URL.Path)]; !safe {
				g.metrics.RecordAccessDecision("status", string(decision.Reason))
				g.logger.Info("blocked principal signed out",
					zap.String("user_id", principal.ID),
					zap.String("status", principal.Status.String()),
				)
				if err := g.sessions.Destroy(ctx, session.ID); err != nil {
					g.logger.Warn("failed to destroy blocked session", zap.Error(err))
				}
				g.ClearCookie(c)
				denyAccess(c, appErrors.Clone(appErrors.ErrAccountBlocked, policy.BlockedMessage(principal.Status, principal.Role)), true)
				return
			}
		}

		SetAccess(c, models.AccessContext{
			Principal:      principal,
			ReadOnly:       policy.IsReadOnly(principal.Status, principal.Role),
			AllowedModules: policy.AllowedModules(principal.Role, principal.Status),
		})
		logger.Annotate(c, zap.String("user_id", principal.ID), zap.String("role", principal.Role.String()))
		c.Next()
	}
}

// RequireAuth redirects anonymous browsers to the login page, remembering
// the requested page; API clients get 401.
func (g *SessionGuard) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentAccess(c); ok {
			c.Next()
			return
		}
		g.metrics.RecordAccessDecision("auth", "unauthenticated")
		if response.WantsJSON(c) {
			response.Error(c, appErrors.ErrUnauthenticated)
			c.Abort()
			return
		}
		if c.Request.Method == http.MethodGet {
			g.rememberReturnTo(c, c.Request.URL.RequestURI())
		}
		c.Redirect(http.StatusFound, LoginPath)
		c.Abort()
	}
}

func (g *SessionGuard) rememberReturnTo(c *gin.Context, target string) {
	ctx := c.Request.Context()
	if session := CurrentSession(c); session != nil {
		session.ReturnTo = target
		if err := g.sessions.Save(ctx, session); err != nil {
			g.logger.Warn("failed to remember return path", zap.Error(err))
		}
		return
	}
	_, token, err := g.sessions.Start(ctx, nil, target)
	if err != nil {
		g.logger.Warn("failed to start anonymous session", zap.Error(err))
		return
	}
	g.SetCookie(c, token)
}

// BlockIfReadOnly refuses a write for read-only principals. Write routes
// opt in explicitly.
func (g *SessionGuard) BlockIfReadOnly(feature string) gin.HandlerFunc {
	return func(c *gin.Context) {
		access, ok := CurrentAccess(c)
		if !ok || !access.ReadOnly {
			c.Next()
			return
		}
		g.metrics.RecordAccessDecision("read_only", "blocked")
		message := policy.ReadOnlyActionMessage(access.Principal.Status, access.Principal.Role, feature)
		back := c.GetHeader("Referer")
		if back == "" {
			back = policy.LandingPath(access.Principal.Role)
		}
		Deny(c, appErrors.Clone(appErrors.ErrReadOnly, message), view.AccessRestricted, gin.H{"Back": back})
	}
}

// RequireModule refuses principals whose module set excludes key.
func (g *SessionGuard) RequireModule(key models.ModuleKey) gin.HandlerFunc {
	return func(c *gin.Context) {
		access, ok := CurrentAccess(c)
		if !ok || policy.CanUseModule(access.Principal.Role, access.Principal.Status, key) {
			c.Next()
			return
		}
		g.metrics.RecordAccessDecision("module", "blocked")
		denyAccess(c, appErrors.ErrModuleForbidden, false)
	}
}

// MenuGuard applies the role allow-list to the request path.
func (g *SessionGuard) MenuGuard(menu *policy.MenuPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		access, ok := CurrentAccess(c)
		if !ok {
			c.Next()
			return
		}
		decision := menu.Decide(access.Principal.Role, c.Request.URL.Path)
		g.metrics.RecordAccessDecision("menu", string(decision.Reason))
		if decision.Allowed {
			c.Next()
			return
		}
		denyAccess(c, appErrors.ErrMenuForbidden, false)
	}
}

// SetCookie writes the session cookie.
func (g *SessionGuard) SetCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(g.cookie.Name, token, int(g.sessions.TTL().Seconds()), "/", "", g.cookie.Secure, true)
}

// ClearCookie expires the session cookie.
func (g *SessionGuard) ClearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(g.cookie.Name, "", -1, "/", "", g.cookie.Secure, true)
}
