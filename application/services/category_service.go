package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/entities"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

const duplicateCategoryMessage = "Category with such name already exists"

// CategoryService manages trip categories. Mutations are admin only.
type CategoryService struct {
	categories ports.CategoryRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewCategoryService creates a new category service
func NewCategoryService(categories ports.CategoryRepository, logger *zap.Logger) *CategoryService {
	return &CategoryService{
		categories: categories,
		logger:     logger,
		now:        time.Now,
	}
}

// Create adds a category with a unique name.
func (s *CategoryService) Create(ctx context.Context, caller Caller, name string) (*entities.Category, error) {
	if !caller.IsAdmin {
		return nil, pkgerrors.NewForbiddenError("")
	}

	category, err := entities.NewCategory(name, s.now())
	if err != nil {
		return nil, pkgerrors.NewValidationError("Category must have a name")
	}
	if err := s.ensureUniqueName(ctx, category.Name, ""); err != nil {
		return nil, err
	}
	if err := s.categories.Save(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info("Category created", zap.String("categoryID", category.ID), zap.String("name", category.Name))
	return category, nil
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, id string) (*entities.Category, error) {
	return s.categories.FindByID(ctx, id)
}

// List returns all categories sorted by name.
func (s *CategoryService) List(ctx context.Context) ([]*entities.Category, error) {
	return s.categories.List(ctx)
}

// Update renames a category.
func (s *CategoryService) Update(ctx context.Context, caller Caller, id, name string) (*entities.Category, error) {
	if !caller.IsAdmin {
		return nil, pkgerrors.NewForbiddenError("")
	}
	if id == "" || name == "" {
		return nil, pkgerrors.NewValidationError("id and new name are required")
	}

	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	normalized, err := entities.NormalizeCategoryName(name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, normalized, category.ID); err != nil {
		return nil, err
	}

	if err := category.Rename(normalized, s.now()); err != nil {
		return nil, err
	}
	if err := s.categories.Save(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes a category. Trips keep the name they were tagged with.
func (s *CategoryService) Delete(ctx context.Context, caller Caller, id string) error {
	if !caller.IsAdmin {
		return pkgerrors.NewForbiddenError("")
	}
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Category deleted", zap.String("categoryID", id))
	return nil
}

// ensureUniqueName fails when another category than exceptID is named name.
func (s *CategoryService) ensureUniqueName(ctx context.Context, name, exceptID string) error {
	existing, err := s.categories.FindByName(ctx, name)
	switch {
	case pkgerrors.IsNotFound(err):
		return nil
	case err != nil:
		return err
	case existing.ID != exceptID:
		return pkgerrors.NewDuplicateError(duplicateCategoryMessage)
	}
	return nil
}
