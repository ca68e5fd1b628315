package vendorsetup

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
)

// DraftRepository persists the in-progress application between steps.
type DraftRepository interface {
	// Load returns an empty draft when nothing was saved.
	Load(ctx context.Context) (*domain.VendorApplicationDraft, error)
	Save(ctx context.Context, d *domain.VendorApplicationDraft) error
	Clear(ctx context.Context) error
}

// StoreDraftRepository keeps the draft as JSON under one session store key.
type StoreDraftRepository struct {
	store domain.SessionStore
}

func NewStoreDraftRepository(store domain.SessionStore) *StoreDraftRepository {
	return &StoreDraftRepository{store: store}
}

func (r *StoreDraftRepository) Load(ctx context.Context) (*domain.VendorApplicationDraft, error) {
	raw, ok, err := r.store.Get(ctx, domain.KeyVendorApplicationDraft)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	d := &domain.VendorApplicationDraft{}
	if !ok || raw == "" {
		return d, nil
	}
	if err := json.Unmarshal([]byte(raw), d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return d, nil
}

func (r *StoreDraftRepository) Save(ctx context.Context, d *domain.VendorApplicationDraft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := r.store.Set(ctx, domain.KeyVendorApplicationDraft, string(raw)); err != nil {
		return fmt.Errorf("%w: save draft: %w", domain.ErrStorageWrite, err)
	}
	return nil
}

func (r *StoreDraftRepository) Clear(ctx context.Context) error {
	return r.store.Remove(ctx, domain.KeyVendorApplicationDraft)
}
