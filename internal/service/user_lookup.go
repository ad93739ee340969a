package service

import (
	"context"
	"errors"

	"github.com/noah-isme/uniportal-api/internal/models"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

// UserByIDFinder looks an account up by primary key.
type UserByIDFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// UserByUsernameFinder looks an account up by username.
type UserByUsernameFinder interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// UserByEmailFinder looks an account up by email.
type UserByEmailFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// UserLookups groups the optional lookup strategies used to refresh a
// principal. Any field may be nil, in which case that strategy is skipped.
type UserLookups struct {
	ByID       UserByIDFinder
	ByUsername UserByUsernameFinder
	ByEmail    UserByEmailFinder
}

// UserRepositoryLookups is satisfied by a store offering every strategy.
type UserRepositoryLookups interface {
	UserByIDFinder
	UserByUsernameFinder
	UserByEmailFinder
}

// LookupsFrom enables every strategy of repo.
func LookupsFrom(repo UserRepositoryLookups) UserLookups {
	return UserLookups{ByID: repo, ByUsername: repo, ByEmail: repo}
}

// Refresh re-reads p from the user store trying id, then username, then
// email. The first successful lookup wins. When every applicable lookup
// fails the original principal is returned together with the error so the
// caller can decide to keep the cached copy.
func (l UserLookups) Refresh(ctx context.Context, p models.Principal) (models.Principal, error) {
	type attempt struct {
		key  string
		find func(context.Context, string) (*models.User, error)
	}
	var attempts []attempt
	if l.ByID != nil && p.ID != "" {
		attempts = append(attempts, attempt{p.ID, l.ByID.FindByID})
	}
	if l.ByUsername != nil && p.Username != "" {
		attempts = append(attempts, attempt{p.Username, l.ByUsername.FindByUsername})
	}
	if l.ByEmail != nil && p.Email != "" {
		attempts = append(attempts, attempt{p.Email, l.ByEmail.FindByEmail})
	}
	if len(attempts) == 0 {
		return p, appErrors.Clone(appErrors.ErrStoreUnavailable, "no user lookup available")
	}

	var errs []error
	for _, a := range attempts {
		user, err := a.find(ctx, a.key)
		if err == nil && user != nil {
			return p.WithRefresh(user), nil
		}
		if err == nil {
			err = appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		errs = append(errs, err)
	}
	return p, errors.Join(errs...)
}
