package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/uniportal-api/internal/models"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

type sessionStore interface {
	Get(ctx context.Context, id string) (*models.SessionData, error)
	Save(ctx context.Context, data *models.SessionData, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// SessionConfig defines session token signing and lifetime.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// SessionService issues signed session cookies and keeps the payload in a
// server-side store.
type SessionService struct {
	store  sessionStore
	logger *zap.Logger
	config SessionConfig
	now    func() time.Time
}

// NewSessionService constructs a SessionService instance.
func NewSessionService(store sessionStore, logger *zap.Logger, config SessionConfig) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TTL <= 0 {
		config.TTL = 8 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "uniportal"
	}
	return &SessionService{store: store, logger: logger, config: config, now: func() time.Time { return time.Now().UTC() }}
}

// TTL returns the configured session lifetime.
func (s *SessionService) TTL() time.Duration {
	return s.config.TTL
}

// Start creates a new session. principal may be nil for an anonymous session
// that only remembers where to go after login.
func (s *SessionService) Start(ctx context.Context, principal *models.Principal, returnTo string) (*models.SessionData, string, error) {
	now := s.now()
	data := &models.SessionData{
		ID:          uuid.NewString(),
		Principal:   principal,
		ReturnTo:    returnTo,
		CreatedAt:   now,
		RefreshedAt: now,
	}
	if err := s.store.Save(ctx, data, s.config.TTL); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to create session")
	}
	token, err := s.issueToken(data)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session")
	}
	return data, token, nil
}

// Load resolves a cookie token to its session payload.
func (s *SessionService) Load(ctx context.Context, token string) (*models.SessionData, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "session expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load session")
	}
	if data.Principal != nil && claims.UserID != "" && data.Principal.ID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "session does not match token")
	}
	return data, nil
}

// Save persists an updated session payload and slides its expiry.
func (s *SessionService) Save(ctx context.Context, data *models.SessionData) error {
	if err := s.store.Save(ctx, data, s.config.TTL); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to save session")
	}
	return nil
}

// Destroy removes a session.
func (s *SessionService) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Warn("failed to destroy session", zap.String("session_id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to destroy session")
	}
	return nil
}

func (s *SessionService) issueToken(data *models.SessionData) (string, error) {
	issuedAt := s.now()
	claims := &models.SessionClaims{
		SessionID: data.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	if data.Principal != nil {
		claims.UserID = data.Principal.ID
		claims.Subject = data.Principal.ID
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}

func (s *SessionService) parseToken(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthenticated.Code, appErrors.ErrUnauthenticated.Status, "invalid session")
	}
	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "invalid session claims")
	}
	return claims, nil
}
