package memory

import (
	"context"
	"sort"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
)

type CategoryRepository struct {
	categories []domain.Category
}

// NewCategoryRepository serves a fixed list, sorted by name.
func NewCategoryRepository(categories []domain.Category) *CategoryRepository {
	sorted := append([]domain.Category(nil), categories...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &CategoryRepository{categories: sorted}
}

func (r *CategoryRepository) List(ctx context.Context, limit int) ([]domain.Category, error) {
	if limit <= 0 || limit > len(r.categories) {
		limit = len(r.categories)
	}
	return append([]domain.Category(nil), r.categories[:limit]...), nil
}
