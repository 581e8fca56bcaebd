package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/knowledge-base-api/internal/database"
	"github.com/knowledge-base-api/internal/models"
)

// versionRepo is the concrete implementation of VersionRepository
type versionRepo struct {
	db *database.DB
}

// NewVersionRepo creates a new version repository
func NewVersionRepo(db *database.DB) VersionRepository {
	return &versionRepo{db: db}
}

// Record appends a new version for the owning content item. The content
// row is locked first so that MAX(version_number)+1 is computed under a
// per-content serialization point; the unique (content_id, version_number)
// index is the backstop. Must be called inside the mutation's transaction.
func (r *versionRepo) Record(ctx context.Context, q database.Queryer, version *models.Version) error {
	var locked string
	err := q.QueryRowContext(ctx,
		"SELECT id FROM content WHERE id = $1 FOR UPDATE", version.ContentID).Scan(&locked)
	if err == sql.ErrNoRows {
		return fmt.Errorf("content %s does not exist", version.ContentID)
	}
	if err != nil {
		return err
	}

	err = q.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version_number), 0) + 1 FROM versions WHERE content_id = $1",
		version.ContentID).Scan(&version.VersionNumber)
	if err != nil {
		return err
	}

	var snapshot any
	if version.Snapshot != nil {
		raw, err := json.Marshal(version.Snapshot)
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}
		snapshot = raw
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO versions (id, content_id, version_number, snapshot, commit_message, author_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, version.ID, version.ContentID, version.VersionNumber, snapshot,
		nullString(version.CommitMessage), version.AuthorID, version.CreatedAt)
	return err
}

// History returns all versions of a content item, newest first
func (r *versionRepo) History(ctx context.Context, contentID string) ([]*models.Version, error) {
	query := `
		SELECT id, content_id, version_number, snapshot, commit_message, author_id, created_at
		FROM versions
		WHERE content_id = $1
		ORDER BY version_number DESC
	`
	rows, err := r.db.QueryContext(ctx, query, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []*models.Version
	for rows.Next() {
		var version models.Version
		var snapshot []byte
		var commitMessage sql.NullString

		err := rows.Scan(&version.ID, &version.ContentID, &version.VersionNumber,
			&snapshot, &commitMessage, &version.AuthorID, &version.CreatedAt)
		if err != nil {
			return nil, err
		}

		if snapshot != nil {
			json.Unmarshal(snapshot, &version.Snapshot)
		}
		version.CommitMessage = commitMessage.String
		versions = append(versions, &version)
	}
	return versions, rows.Err()
}
