package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/knowledge-base-api/internal/database"
	"github.com/knowledge-base-api/internal/models"
)

// tagRepo is the concrete implementation of TagRepository
type tagRepo struct {
	db *database.DB
}

// NewTagRepo creates a new tag repository
func NewTagRepo(db *database.DB) TagRepository {
	return &tagRepo{db: db}
}

// ResolveOrCreate returns the tag with the given slug, creating it if
// needed. Creation is idempotent under concurrency: the insert is
// ON CONFLICT DO NOTHING and a lost race falls through to the re-fetch,
// so two concurrent first users of a tag converge on one row.
func (r *tagRepo) ResolveOrCreate(ctx context.Context, q database.Queryer, name, slug string) (*models.Tag, error) {
	tag, err := getTagBySlug(ctx, q, slug)
	if err != nil {
		return nil, err
	}
	if tag != nil {
		return tag, nil
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO tags (id, name, slug, color, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slug) DO NOTHING
	`, uuid.New().String(), name, slug, models.DefaultTagColor, time.Now())
	if err != nil {
		return nil, err
	}

	tag, err = getTagBySlug(ctx, q, slug)
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, fmt.Errorf("tag %q missing after upsert", slug)
	}
	return tag, nil
}

// List returns the tag vocabulary with per-tag content counts
func (r *tagRepo) List(ctx context.Context) ([]*models.Tag, error) {
	query := `
		SELECT t.id, t.name, t.slug, t.color, t.created_at, COUNT(ct.content_id)
		FROM tags t
		LEFT JOIN content_tags ct ON ct.tag_id = t.id
		GROUP BY t.id, t.name, t.slug, t.color, t.created_at
		ORDER BY t.name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Slug, &tag.Color, &tag.CreatedAt, &tag.ContentCount); err != nil {
			return nil, err
		}
		tags = append(tags, &tag)
	}
	return tags, rows.Err()
}

func getTagBySlug(ctx context.Context, q database.Queryer, slug string) (*models.Tag, error) {
	var tag models.Tag
	err := q.QueryRowContext(ctx,
		"SELECT id, name, slug, color, created_at FROM tags WHERE slug = $1", slug).
		Scan(&tag.ID, &tag.Name, &tag.Slug, &tag.Color, &tag.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}
