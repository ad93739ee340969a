package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/uniportal-api/internal/models"
)

// StaffScopeStore resolves a staff member's department and school.
type StaffScopeStore interface {
	GetScope(ctx context.Context, staffID string) (*models.StaffScope, error)
}

// CachedStaffScopes is a read-through cache in front of a StaffScopeStore.
type CachedStaffScopes struct {
	store StaffScopeStore
	cache *CacheService
}

// NewCachedStaffScopes wraps store with cache. A nil or disabled cache
// passes every lookup through.
func NewCachedStaffScopes(store StaffScopeStore, cache *CacheService) *CachedStaffScopes {
	return &CachedStaffScopes{store: store, cache: cache}
}

func staffScopeKey(staffID string) string {
	return "staff_scope:" + staffID
}

// GetScope implements StaffScopeStore.
func (c *CachedStaffScopes) GetScope(ctx context.Context, staffID string) (*models.StaffScope, error) {
	var cached models.StaffScope
	if c.cache.Get(ctx, staffScopeKey(staffID), &cached) {
		return &cached, nil
	}
	scope, err := c.store.GetScope(ctx, staffID)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ctx, staffScopeKey(staffID), scope)
	return scope, nil
}

// GetFreshScope reads the store and replaces the cached copy. A staff member
// who no longer has a record is evicted.
func (c *CachedStaffScopes) GetFreshScope(ctx context.Context, staffID string) (*models.StaffScope, error) {
	scope, err := c.store.GetScope(ctx, staffID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.cache.Invalidate(ctx, staffScopeKey(staffID))
		}
		return nil, err
	}
	c.cache.Set(ctx, staffScopeKey(staffID), scope)
	return scope, nil
}
