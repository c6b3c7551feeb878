package application

import (
	"context"

	"github.com/sebuszqo/FamilyFinance/internal/finance/domain"
)

type categorySource interface {
	DistinctCategories(ctx context.Context, workspaceID string) ([]string, error)
}

type CategoryService struct {
	repo categorySource
}

func NewCategoryService(repo categorySource) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) GetAllPredefinedCategories(categoryType string) []domain.PredefinedCategory {
	return domain.PredefinedCategories(categoryType)
}

// GetWorkspaceCategories lists predefined categories together with the
// custom ones a workspace has already used.
func (s *CategoryService) GetWorkspaceCategories(ctx context.Context, workspaceID string) ([]string, error) {
	used, err := s.repo.DistinctCategories(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return domain.MergeCategories(used), nil
}
