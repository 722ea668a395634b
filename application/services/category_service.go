package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"minicourse-backend/application/ports"
	"minicourse-backend/domain/minicourse"
	"minicourse-backend/infrastructure/persistence"
	"minicourse-backend/pkg/common"
	"minicourse-backend/pkg/idgen"
)

const (
	categoryIDPrefix = "cat"
	categoryIDLength = 10
	categoryIDTries  = 1
)

// CreateCategoryRequest is the body of a create call.
type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// CategoryList is returned by multi-record reads.
type CategoryList struct {
	Categories []minicourse.Category `json:"categories"`
}

// CategoryService implements the category operations.
type CategoryService struct {
	categories ports.CategoryRepository
	logger     *zap.Logger
}

// NewCategoryService creates the service.
func NewCategoryService(categories ports.CategoryRepository, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{categories: categories, logger: logger}
}

// Create stores a new category with a "cat-" id. A taken id is not retried.
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*minicourse.Category, error) {
	c := minicourse.Category{Name: req.Name, Description: req.Description}

	retrier := idgen.Retrier{
		Prefix:  categoryIDPrefix,
		Length:  categoryIDLength,
		Tries:   categoryIDTries,
		RetryOn: persistence.ErrAlreadyExists,
		Logger:  s.logger,
	}
	if _, err := retrier.Do(ctx, func(ctx context.Context, id string) error {
		c.ID = id
		return s.categories.Save(ctx, &c, false)
	}); err != nil {
		return nil, fmt.Errorf("could not create category: %w", err)
	}

	s.logger.Info("Category created", zap.String("category_id", c.ID))
	return &c, nil
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, id string) (*minicourse.Category, error) {
	return s.categories.GetItemByID(ctx, id)
}

// All lists every category.
func (s *CategoryService) All(ctx context.Context) (*CategoryList, error) {
	all, err := s.categories.Scan(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &CategoryList{Categories: all}, nil
}

// GetMultiple returns the categories with the given ids, in order.
func (s *CategoryService) GetMultiple(ctx context.Context, ids []string) (*CategoryList, error) {
	result := make([]minicourse.Category, 0, len(ids))
	for _, id := range ids {
		c, err := s.categories.GetItemByID(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return &CategoryList{Categories: result}, nil
}

// Update merges fields onto the stored category.
func (s *CategoryService) Update(ctx context.Context, id string, fields map[string]any) (*minicourse.Category, error) {
	stored, err := s.categories.GetItemByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("category %s could not be built: %w", id, err)
	}

	updated, err := common.MergeFields(*stored, fields, protectedFields...)
	if err != nil {
		return nil, fmt.Errorf("category %s could not be built: %w", id, err)
	}
	if err := s.categories.Save(ctx, &updated, true); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes an existing category and returns it.
func (s *CategoryService) Delete(ctx context.Context, id string) (*minicourse.Category, error) {
	c, err := s.categories.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info("Category deleted", zap.String("category_id", id))
	return c, nil
}
