package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/uniportal-api/internal/dto"
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/policy"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

type authUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
}

type sessionStarter interface {
	Start(ctx context.Context, principal *models.Principal, returnTo string) (*models.SessionData, string, error)
	Destroy(ctx context.Context, id string) error
}

// AuthService signs principals in and out of the portal.
type AuthService struct {
	repo      authUserRepository
	sessions  sessionStarter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, sessions sessionStarter, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{repo: repo, sessions: sessions, validator: validate, logger: logger}
}

// Login authenticates the identifier/password pair, applies the account
// status gate and opens a session. previous is the caller's current
// (usually anonymous) session; its return-to path is honoured and the
// session itself is replaced.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest, previous *models.SessionData) (*dto.LoginResult, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.findUser(ctx, strings.TrimSpace(req.Identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.ErrInvalidCredentials
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", appErrors.ErrInvalidCredentials
	}

	principal := models.PrincipalFromUser(user)
	if decision := policy.DecideLogin(principal.Status, principal.Role); !decision.Allowed {
		s.logger.Info("login refused by account status",
			zap.String("user_id", principal.ID),
			zap.String("role", principal.Role.String()),
			zap.String("status", principal.Status.String()),
		)
		return nil, "", appErrors.Clone(appErrors.ErrAccountBlocked, policy.BlockedMessage(principal.Status, principal.Role))
	}

	redirect := policy.LandingPath(principal.Role)
	if previous != nil {
		if target := SafeReturnTo(previous.ReturnTo); target != "" {
			redirect = target
		}
		if err := s.sessions.Destroy(ctx, previous.ID); err != nil {
			s.logger.Warn("failed to drop pre-login session", zap.Error(err))
		}
	}

	session, token, err := s.sessions.Start(ctx, &principal, "")
	if err != nil {
		return nil, "", err
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}

	access := models.AccessContext{
		Principal:      *session.Principal,
		ReadOnly:       policy.IsReadOnly(principal.Status, principal.Role),
		AllowedModules: policy.AllowedModules(principal.Role, principal.Status),
	}
	return &dto.LoginResult{RedirectTo: redirect, Session: access.View()}, token, nil
}

// Logout destroys the session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Destroy(ctx, sessionID)
}

func (s *AuthService) findUser(ctx context.Context, identifier string) (*models.User, error) {
	if strings.Contains(identifier, "@") {
		user, err := s.repo.FindByEmail(ctx, identifier)
		if err == nil || !errors.Is(err, sql.ErrNoRows) {
			return user, err
		}
	}
	return s.repo.FindByUsername(ctx, identifier)
}

// SafeReturnTo accepts only local absolute paths that are not part of the
// sign-in flow itself. It returns "" for anything else.
func SafeReturnTo(path string) string {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.Contains(path, "\\") {
		return ""
	}
	switch policy.NormalizePath(strings.SplitN(path, "?", 2)[0]) {
	case "/", "/login", "/logout", "/verify-otp", "/access-denied":
		return ""
	}
	return path
}
