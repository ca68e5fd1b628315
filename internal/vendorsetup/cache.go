package vendorsetup

import (
	"context"
	"strings"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
)

// ApplicationCache remembers the last submitted application for this device.
//
// Ownership is inferred from the stored userEmail, which is not bound to the
// access token. Treat a hit as a hint, not as proof.
type ApplicationCache struct {
	store domain.SessionStore
}

func NewApplicationCache(store domain.SessionStore) *ApplicationCache {
	return &ApplicationCache{store: store}
}

// Save records rec as owned by email and marks vendor setup complete.
func (c *ApplicationCache) Save(ctx context.Context, email string, rec domain.VendorApplicationRecord) error {
	pairs := [][2]string{
		{domain.KeyVendorApplicationID, rec.ID},
		{domain.KeyVendorApplicationStatus, rec.Status},
		{domain.KeyHasCompletedVendorSetup, "true"},
	}
	if email != "" {
		pairs = append(pairs, [2]string{domain.KeyUserEmail, normalizeEmail(email)})
	}
	for _, p := range pairs {
		if err := c.store.Set(ctx, p[0], p[1]); err != nil {
			return err
		}
	}
	return nil
}

// Existing returns the cached application when it belongs to email. A cached
// entry for anyone else is removed.
func (c *ApplicationCache) Existing(ctx context.Context, email string) (*domain.VendorApplicationRecord, error) {
	id, ok, err := c.store.Get(ctx, domain.KeyVendorApplicationID)
	if err != nil || !ok || id == "" {
		return nil, err
	}
	owner, _, err := c.store.Get(ctx, domain.KeyUserEmail)
	if err != nil {
		return nil, err
	}
	if owner == "" || normalizeEmail(owner) != normalizeEmail(email) {
		return nil, c.Invalidate(ctx)
	}
	status, _, err := c.store.Get(ctx, domain.KeyVendorApplicationStatus)
	if err != nil {
		return nil, err
	}
	return &domain.VendorApplicationRecord{ID: id, Status: status}, nil
}

func (c *ApplicationCache) Invalidate(ctx context.Context) error {
	return c.store.Remove(ctx,
		domain.KeyVendorApplicationID,
		domain.KeyVendorApplicationStatus,
		domain.KeyHasCompletedVendorSetup,
	)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
