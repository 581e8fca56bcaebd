package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/knowledge-base-api/internal/models"
	"github.com/knowledge-base-api/internal/policy"
	"github.com/knowledge-base-api/internal/repository"
	"github.com/knowledge-base-api/internal/slug"
	"github.com/knowledge-base-api/internal/validation"
	"github.com/rs/zerolog"
)

// taxonomyService implements TaxonomyService
type taxonomyService struct {
	repos *repository.Repositories
	tx    TxRunner
	log   zerolog.Logger
}

// NewTaxonomyService creates the category and tag management service
func NewTaxonomyService(repos *repository.Repositories, tx TxRunner, log zerolog.Logger) TaxonomyService {
	return &taxonomyService{
		repos: repos,
		tx:    tx,
		log:   log.With().Str("service", "taxonomy").Logger(),
	}
}

// ListCategories returns all categories ordered by order_index then name
func (s *taxonomyService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.repos.Category.List(ctx)
	if err != nil {
		return nil, &models.StoreError{Op: "list categories", Err: err}
	}
	return categories, nil
}

// GetCategory returns a single category
func (s *taxonomyService) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.repos.Category.GetByID(ctx, id)
	if err != nil {
		return nil, &models.StoreError{Op: "get category", Err: err}
	}
	if category == nil {
		return nil, &models.NotFoundError{Resource: "Category"}
	}
	return category, nil
}

// CreateCategory creates a new category (admin only)
func (s *taxonomyService) CreateCategory(ctx context.Context, input *models.CategoryInput, actor *models.User) (*models.Category, error) {
	if !policy.CanManageTaxonomy(actor) {
		return nil, &models.ForbiddenError{Message: "Only admins can manage categories"}
	}
	if errs := validation.ValidateCategory(input); errs != nil {
		return nil, models.NewValidationError(errs)
	}

	categorySlug := input.Slug
	if categorySlug == "" {
		categorySlug = slug.Make(input.Name)
	}
	exists, err := s.repos.Category.SlugExists(ctx, categorySlug)
	if err != nil {
		return nil, &models.StoreError{Op: "check category slug", Err: err}
	}
	if exists {
		return nil, &models.ConflictError{Resource: "category", Key: categorySlug}
	}

	now := time.Now()
	category := &models.Category{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Slug:        categorySlug,
		Description: input.Description,
		Icon:        input.Icon,
		ParentID:    input.ParentID,
		OrderIndex:  input.OrderIndex,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repos.Category.Insert(ctx, category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, &models.ConflictError{Resource: "category", Key: categorySlug}
		}
		return nil, &models.StoreError{Op: "insert category", Err: err}
	}

	s.log.Info().Str("category_id", category.ID).Str("slug", category.Slug).Msg("Category created")
	return category, nil
}

// UpdateCategory rewrites an existing category (admin only)
func (s *taxonomyService) UpdateCategory(ctx context.Context, id string, input *models.CategoryInput, actor *models.User) (*models.Category, error) {
	if !policy.CanManageTaxonomy(actor) {
		return nil, &models.ForbiddenError{Message: "Only admins can manage categories"}
	}
	if errs := validation.ValidateCategory(input); errs != nil {
		return nil, models.NewValidationError(errs)
	}

	category, err := s.repos.Category.GetByID(ctx, id)
	if err != nil {
		return nil, &models.StoreError{Op: "get category", Err: err}
	}
	if category == nil {
		return nil, &models.NotFoundError{Resource: "Category"}
	}

	category.Name = input.Name
	if input.Slug != "" {
		category.Slug = input.Slug
	}
	category.Description = input.Description
	category.Icon = input.Icon
	category.ParentID = input.ParentID
	category.OrderIndex = input.OrderIndex
	category.UpdatedAt = time.Now()

	if err := s.repos.Category.Update(ctx, category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, &models.ConflictError{Resource: "category", Key: category.Slug}
		}
		return nil, &models.StoreError{Op: "update category", Err: err}
	}
	return category, nil
}

// DeleteCategory removes a category and, by schema cascade, every content
// item filed under it. Destructive on purpose and admin-gated; see the
// migration for the cascade declaration.
func (s *taxonomyService) DeleteCategory(ctx context.Context, id string, actor *models.User) error {
	if !policy.CanManageTaxonomy(actor) {
		return &models.ForbiddenError{Message: "Only admins can manage categories"}
	}

	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		deleted, err := s.repos.Category.Delete(ctx, tx, id)
		if err != nil {
			return &models.StoreError{Op: "delete category", Err: err}
		}
		if !deleted {
			return &models.NotFoundError{Resource: "Category"}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Warn().
		Str("category_id", id).
		Str("actor_id", actor.ID).
		Msg("Category deleted with its content")
	return nil
}

// ListTags returns the tag vocabulary with usage counts
func (s *taxonomyService) ListTags(ctx context.Context) ([]*models.Tag, error) {
	tags, err := s.repos.Tag.List(ctx)
	if err != nil {
		return nil, &models.StoreError{Op: "list tags", Err: err}
	}
	return tags, nil
}
