// Package memory holds in-process repositories used by the stub API when no
// database is configured, and by tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
)

var _ domain.ApplicationRepository = (*ApplicationRepository)(nil)

type ApplicationRepository struct {
	mu   sync.RWMutex
	apps []*domain.VendorApplication
}

func NewApplicationRepository() *ApplicationRepository {
	return &ApplicationRepository{}
}

func (r *ApplicationRepository) Create(ctx context.Context, app *domain.VendorApplication) error {
	now := time.Now()
	app.CreatedAt = now
	app.UpdatedAt = now
	cp := *app

	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps = append(r.apps, &cp)
	return nil
}

func (r *ApplicationRepository) GetByUserID(ctx context.Context, userID string) (*domain.VendorApplication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.apps) - 1; i >= 0; i-- {
		if r.apps[i].UserID == userID {
			cp := *r.apps[i]
			return &cp, nil
		}
	}
	return nil, nil
}
