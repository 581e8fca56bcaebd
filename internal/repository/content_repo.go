package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/knowledge-base-api/internal/database"
	"github.com/knowledge-base-api/internal/models"
	"github.com/lib/pq"
)

// contentRepo is the concrete implementation of ContentRepository
type contentRepo struct {
	db *database.DB
}

// NewContentRepo creates a new content repository
func NewContentRepo(db *database.DB) ContentRepository {
	return &contentRepo{db: db}
}

const contentColumns = `
	c.id, c.title, c.slug, c.content_type, c.body, c.metadata,
	c.category_id, cat.name, c.author_id, c.status, c.is_featured,
	c.view_count, c.created_at, c.updated_at, c.published_at`

const contentFrom = ` FROM content c LEFT JOIN categories cat ON cat.id = c.category_id`

// Insert writes a new content row
func (r *contentRepo) Insert(ctx context.Context, q database.Queryer, content *models.Content) error {
	var metadata any
	if content.Metadata != nil {
		raw, err := json.Marshal(content.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = raw
	}

	query := `
		INSERT INTO content (id, title, slug, content_type, body, metadata, category_id,
			author_id, status, is_featured, view_count, created_at, updated_at, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := q.ExecContext(ctx, query,
		content.ID, content.Title, content.Slug, content.ContentType,
		nullString(content.Body), metadata, nullString(content.CategoryID),
		content.AuthorID, content.Status, content.Featured, content.ViewCount,
		content.CreatedAt, content.UpdatedAt, content.PublishedAt,
	)
	return err
}

// Update rewrites the mutable columns of an existing content row
func (r *contentRepo) Update(ctx context.Context, q database.Queryer, content *models.Content) error {
	var metadata any
	if content.Metadata != nil {
		raw, err := json.Marshal(content.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = raw
	}

	query := `
		UPDATE content
		SET title = $2, slug = $3, content_type = $4, body = $5, metadata = $6,
			category_id = $7, status = $8, is_featured = $9, updated_at = $10,
			published_at = $11
		WHERE id = $1
	`
	_, err := q.ExecContext(ctx, query,
		content.ID, content.Title, content.Slug, content.ContentType,
		nullString(content.Body), metadata, nullString(content.CategoryID),
		content.Status, content.Featured, content.UpdatedAt, content.PublishedAt,
	)
	return err
}

// Delete removes a content row. Versions and tag links cascade in the schema.
func (r *contentRepo) Delete(ctx context.Context, q database.Queryer, id string) (bool, error) {
	res, err := q.ExecContext(ctx, "DELETE FROM content WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// GetByID retrieves a content item by ID, nil when absent
func (r *contentRepo) GetByID(ctx context.Context, id string) (*models.Content, error) {
	row := r.db.QueryRowContext(ctx, "SELECT"+contentColumns+contentFrom+" WHERE c.id = $1", id)
	return scanContent(row)
}

// GetBySlug retrieves a content item by slug, nil when absent
func (r *contentRepo) GetBySlug(ctx context.Context, slug string) (*models.Content, error) {
	row := r.db.QueryRowContext(ctx, "SELECT"+contentColumns+contentFrom+" WHERE c.slug = $1", slug)
	return scanContent(row)
}

// SlugExists checks whether any content row carries the slug
func (r *contentRepo) SlugExists(ctx context.Context, q database.Queryer, slug string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM content WHERE slug = $1)", slug).Scan(&exists)
	return exists, err
}

// IncrementViewCount bumps the view counter. A single relaxed UPDATE is
// enough; the counter only needs to be monotonic, not exact.
func (r *contentRepo) IncrementViewCount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE content SET view_count = view_count + 1 WHERE id = $1", id)
	return err
}

// SetTags replaces the tag links of a content item
func (r *contentRepo) SetTags(ctx context.Context, q database.Queryer, contentID string, tagIDs []string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM content_tags WHERE content_id = $1", contentID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		_, err := q.ExecContext(ctx,
			"INSERT INTO content_tags (content_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			contentID, tagID)
		if err != nil {
			return err
		}
	}
	return nil
}

// TagsFor loads tag names for a batch of content IDs
func (r *contentRepo) TagsFor(ctx context.Context, contentIDs []string) (map[string][]string, error) {
	tags := make(map[string][]string, len(contentIDs))
	if len(contentIDs) == 0 {
		return tags, nil
	}

	query := `
		SELECT ct.content_id, t.name
		FROM content_tags ct
		JOIN tags t ON t.id = ct.tag_id
		WHERE ct.content_id = ANY($1)
		ORDER BY t.name
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(contentIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var contentID, name string
		if err := rows.Scan(&contentID, &name); err != nil {
			return nil, err
		}
		tags[contentID] = append(tags[contentID], name)
	}
	return tags, rows.Err()
}

// List returns a page of content matching the filter plus the total count
func (r *contentRepo) List(ctx context.Context, filter models.ListFilter, orderBy string, limit, offset int) ([]*models.Content, int, error) {
	where, args := buildContentFilter(filter)

	countQuery := "SELECT COUNT(*)" + contentFrom + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT" + contentColumns + contentFrom + where
	if orderBy != "" {
		query += " ORDER BY " + orderBy
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := scanContentRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Search matches query against title or body, most recently updated first
func (r *contentRepo) Search(ctx context.Context, query, categorySlug string, limit int) ([]*models.Content, error) {
	pattern := "%" + query + "%"
	args := []any{pattern}
	sqlQuery := "SELECT" + contentColumns + contentFrom +
		" WHERE (c.title ILIKE $1 OR c.body ILIKE $1) AND c.status = 'published'"
	if categorySlug != "" {
		args = append(args, categorySlug)
		sqlQuery += fmt.Sprintf(" AND cat.slug = $%d", len(args))
	}
	args = append(args, limit)
	sqlQuery += fmt.Sprintf(" ORDER BY c.updated_at DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanContentRows(rows)
}

// SuggestTitles matches published titles against a partial query
func (r *contentRepo) SuggestTitles(ctx context.Context, query string, limit int) ([]*models.Content, error) {
	pattern := "%" + query + "%"
	sqlQuery := "SELECT" + contentColumns + contentFrom +
		" WHERE c.title ILIKE $1 AND c.status = 'published'" +
		" ORDER BY c.updated_at DESC LIMIT $2"

	rows, err := r.db.QueryContext(ctx, sqlQuery, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanContentRows(rows)
}

// buildContentFilter translates a ListFilter into a WHERE clause.
// Visibility comes first: anonymous callers see only published items,
// identified non-admins additionally see their own work.
func buildContentFilter(filter models.ListFilter) (string, []any) {
	var conds []string
	var args []any

	if !filter.Unrestricted {
		if filter.AuthorID == "" {
			conds = append(conds, "c.status = 'published'")
		} else {
			args = append(args, filter.AuthorID)
			conds = append(conds, fmt.Sprintf("(c.status = 'published' OR c.author_id = $%d)", len(args)))
		}
	}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("c.status = $%d", len(args)))
	}
	if filter.CategorySlug != "" {
		args = append(args, filter.CategorySlug)
		conds = append(conds, fmt.Sprintf("cat.slug = $%d", len(args)))
	}
	if filter.ContentType != "" {
		args = append(args, filter.ContentType)
		conds = append(conds, fmt.Sprintf("c.content_type = $%d", len(args)))
	}
	if filter.Featured != nil {
		args = append(args, *filter.Featured)
		conds = append(conds, fmt.Sprintf("c.is_featured = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("(c.title ILIKE $%d OR c.body ILIKE $%d)", len(args), len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (*models.Content, error) {
	var content models.Content
	var body, metadata, categoryID, categoryName sql.NullString
	var publishedAt sql.NullTime

	err := row.Scan(
		&content.ID, &content.Title, &content.Slug, &content.ContentType,
		&body, &metadata, &categoryID, &categoryName, &content.AuthorID,
		&content.Status, &content.Featured, &content.ViewCount,
		&content.CreatedAt, &content.UpdatedAt, &publishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	content.Body = body.String
	content.CategoryID = categoryID.String
	content.Category = categoryName.String
	if metadata.Valid {
		json.Unmarshal([]byte(metadata.String), &content.Metadata)
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		content.PublishedAt = &t
	}
	return &content, nil
}

func scanContentRows(rows *sql.Rows) ([]*models.Content, error) {
	var items []*models.Content
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, content)
	}
	return items, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
