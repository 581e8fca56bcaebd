package repository

import (
	"context"
	"database/sql"

	"github.com/knowledge-base-api/internal/database"
	"github.com/knowledge-base-api/internal/models"
)

// categoryRepo is the concrete implementation of CategoryRepository
type categoryRepo struct {
	db *database.DB
}

// NewCategoryRepo creates a new category repository
func NewCategoryRepo(db *database.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

const categoryColumns = `id, name, slug, description, icon, parent_id, order_index, created_at, updated_at`

// Insert writes a new category
func (r *categoryRepo) Insert(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (id, name, slug, description, icon, parent_id, order_index, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		category.ID, category.Name, category.Slug,
		nullString(category.Description), nullString(category.Icon),
		nullString(category.ParentID), category.OrderIndex,
		category.CreatedAt, category.UpdatedAt,
	)
	return err
}

// Update rewrites an existing category
func (r *categoryRepo) Update(ctx context.Context, category *models.Category) error {
	query := `
		UPDATE categories
		SET name = $2, slug = $3, description = $4, icon = $5, parent_id = $6,
			order_index = $7, updated_at = $8
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		category.ID, category.Name, category.Slug,
		nullString(category.Description), nullString(category.Icon),
		nullString(category.ParentID), category.OrderIndex, category.UpdatedAt,
	)
	return err
}

// Delete removes a category. Content under it cascades away in the schema,
// which is why callers gate this behind the admin-only policy.
func (r *categoryRepo) Delete(ctx context.Context, q database.Queryer, id string) (bool, error) {
	res, err := q.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// GetByID retrieves a category by ID, nil when absent
func (r *categoryRepo) GetByID(ctx context.Context, id string) (*models.Category, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE id = $1", id)
	return scanCategory(row)
}

// List returns all categories ordered for display
func (r *categoryRepo) List(ctx context.Context) ([]*models.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM categories ORDER BY order_index, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// SlugExists checks whether a category with the slug exists
func (r *categoryRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM categories WHERE slug = $1)", slug).Scan(&exists)
	return exists, err
}

func scanCategory(row rowScanner) (*models.Category, error) {
	var category models.Category
	var description, icon, parentID sql.NullString

	err := row.Scan(
		&category.ID, &category.Name, &category.Slug, &description, &icon,
		&parentID, &category.OrderIndex, &category.CreatedAt, &category.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	category.Description = description.String
	category.Icon = icon.String
	category.ParentID = parentID.String
	return &category, nil
}
