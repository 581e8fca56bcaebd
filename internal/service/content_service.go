package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/knowledge-base-api/internal/models"
	"github.com/knowledge-base-api/internal/policy"
	"github.com/knowledge-base-api/internal/repository"
	"github.com/knowledge-base-api/internal/slug"
	"github.com/knowledge-base-api/internal/validation"
	"github.com/rs/zerolog"
)

// contentService implements ContentService
type contentService struct {
	repos *repository.Repositories
	tx    TxRunner
	log   zerolog.Logger
}

// NewContentService creates the content lifecycle service
func NewContentService(repos *repository.Repositories, tx TxRunner, log zerolog.Logger) ContentService {
	return &contentService{
		repos: repos,
		tx:    tx,
		log:   log.With().Str("service", "content").Logger(),
	}
}

// Create validates the input, derives a collision-free slug and writes the
// content row, its tag links and version 1 in one transaction.
func (s *contentService) Create(ctx context.Context, input *models.CreateContentInput, actor *models.User) (*models.Content, error) {
	if !policy.CanCreate(actor) {
		return nil, &models.ForbiddenError{Message: "You need editor permissions to create content"}
	}

	if errs := validation.ValidateCreateContent(input); errs != nil {
		return nil, models.NewValidationError(errs)
	}

	contentType := input.ContentType
	if contentType == "" {
		contentType = models.TypeDocument
	}

	status := input.Status
	if status == "" {
		status = models.StatusDraft
	}

	now := time.Now()
	content := &models.Content{
		ID:          uuid.New().String(),
		Title:       input.Title,
		ContentType: contentType,
		Body:        input.Body,
		Metadata:    input.Metadata,
		CategoryID:  input.CategoryID,
		AuthorID:    actor.ID,
		Status:      status,
		Featured:    input.Featured,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if status == models.StatusPublished {
		content.PublishedAt = &now
	}

	base := input.Slug
	if base == "" {
		base = slug.Make(input.Title)
	}
	if base == "" {
		return nil, models.NewValidationError(map[string]string{"title": "Title must contain at least one letter or digit"})
	}

	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		chosen, err := s.chooseSlug(ctx, tx, base)
		if err != nil {
			return err
		}
		content.Slug = chosen

		if err := s.repos.Content.Insert(ctx, tx, content); err != nil {
			if repository.IsUniqueViolation(err) {
				return &models.ConflictError{Resource: "content", Key: content.Slug}
			}
			return &models.StoreError{Op: "insert content", Err: err}
		}

		tagIDs, tagNames, err := s.resolveTags(ctx, tx, input.Tags)
		if err != nil {
			return err
		}
		if len(tagIDs) > 0 {
			if err := s.repos.Content.SetTags(ctx, tx, content.ID, tagIDs); err != nil {
				return &models.StoreError{Op: "link tags", Err: err}
			}
		}
		content.Tags = tagNames

		version := &models.Version{
			ID:            uuid.New().String(),
			ContentID:     content.ID,
			Snapshot:      snapshotOf(content),
			CommitMessage: "Initial version",
			AuthorID:      actor.ID,
			CreatedAt:     now,
		}
		if err := s.repos.Version.Record(ctx, tx, version); err != nil {
			return &models.StoreError{Op: "record version", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("content_id", content.ID).
		Str("slug", content.Slug).
		Str("author_id", actor.ID).
		Msg("Content created")

	return content, nil
}

// chooseSlug returns base when free, otherwise base suffixed with the
// current unix timestamp. A second collision inside the same second means
// the caller is retrying the identical title, so it conflicts.
func (s *contentService) chooseSlug(ctx context.Context, tx *sql.Tx, base string) (string, error) {
	exists, err := s.repos.Content.SlugExists(ctx, tx, base)
	if err != nil {
		return "", &models.StoreError{Op: "check slug", Err: err}
	}
	if !exists {
		return base, nil
	}

	suffixed := fmt.Sprintf("%s-%d", base, time.Now().Unix())
	exists, err = s.repos.Content.SlugExists(ctx, tx, suffixed)
	if err != nil {
		return "", &models.StoreError{Op: "check slug", Err: err}
	}
	if exists {
		return "", &models.ConflictError{Resource: "content", Key: suffixed}
	}
	return suffixed, nil
}

// Get returns a content item the actor is allowed to see
func (s *contentService) Get(ctx context.Context, id string, actor *models.User) (*models.Content, error) {
	return s.fetch(ctx, actor, func() (*models.Content, error) {
		return s.repos.Content.GetByID(ctx, id)
	})
}

// GetBySlug returns a content item by slug with the same visibility rule
func (s *contentService) GetBySlug(ctx context.Context, slugVal string, actor *models.User) (*models.Content, error) {
	return s.fetch(ctx, actor, func() (*models.Content, error) {
		return s.repos.Content.GetBySlug(ctx, slugVal)
	})
}

func (s *contentService) fetch(ctx context.Context, actor *models.User, load func() (*models.Content, error)) (*models.Content, error) {
	content, err := load()
	if err != nil {
		return nil, &models.StoreError{Op: "get content", Err: err}
	}
	if content == nil {
		return nil, &models.NotFoundError{Resource: "Content"}
	}
	if !policy.CanRead(actor, content) {
		return nil, &models.ForbiddenError{Message: "You don't have permission to view this content"}
	}
	if err := s.attachTags(ctx, content); err != nil {
		return nil, err
	}
	return content, nil
}

// Update applies a partial patch. Publishing for the first time stamps
// published_at; re-publishing never overwrites it. A body change records
// a new version.
func (s *contentService) Update(ctx context.Context, id string, patch *models.UpdateContentInput, actor *models.User) (*models.Content, error) {
	content, err := s.repos.Content.GetByID(ctx, id)
	if err != nil {
		return nil, &models.StoreError{Op: "get content", Err: err}
	}
	if content == nil {
		return nil, &models.NotFoundError{Resource: "Content"}
	}
	if !policy.CanWrite(actor, content) {
		return nil, &models.ForbiddenError{Message: "You don't have permission to edit this content"}
	}

	if errs := validation.ValidateUpdateContent(patch); errs != nil {
		return nil, models.NewValidationError(errs)
	}

	// Only link-type content may carry an empty body.
	if patch.Body != nil && content.ContentType != models.TypeLink && strings.TrimSpace(*patch.Body) == "" {
		return nil, models.NewValidationError(map[string]string{"content": "Content is required"})
	}

	bodyChanged := false
	if patch.Title != nil {
		content.Title = *patch.Title
	}
	if patch.Body != nil && *patch.Body != content.Body {
		content.Body = *patch.Body
		bodyChanged = true
	}
	if patch.Metadata != nil {
		content.Metadata = *patch.Metadata
	}
	if patch.CategoryID != nil {
		content.CategoryID = *patch.CategoryID
	}
	if patch.Featured != nil {
		content.Featured = *patch.Featured
	}
	if patch.Status != nil {
		content.Status = *patch.Status
		if content.Status == models.StatusPublished && content.PublishedAt == nil {
			now := time.Now()
			content.PublishedAt = &now
		}
	}
	content.UpdatedAt = time.Now()

	err = s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.repos.Content.Update(ctx, tx, content); err != nil {
			return &models.StoreError{Op: "update content", Err: err}
		}

		if patch.Tags != nil {
			tagIDs, tagNames, err := s.resolveTags(ctx, tx, *patch.Tags)
			if err != nil {
				return err
			}
			if err := s.repos.Content.SetTags(ctx, tx, content.ID, tagIDs); err != nil {
				return &models.StoreError{Op: "link tags", Err: err}
			}
			content.Tags = tagNames
		}

		if bodyChanged {
			message := patch.CommitMessage
			if message == "" {
				message = "Updated content"
			}
			version := &models.Version{
				ID:            uuid.New().String(),
				ContentID:     content.ID,
				Snapshot:      snapshotOf(content),
				CommitMessage: message,
				AuthorID:      actor.ID,
				CreatedAt:     content.UpdatedAt,
			}
			if err := s.repos.Version.Record(ctx, tx, version); err != nil {
				return &models.StoreError{Op: "record version", Err: err}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if patch.Tags == nil {
		if err := s.attachTags(ctx, content); err != nil {
			return nil, err
		}
	}

	s.log.Info().
		Str("content_id", content.ID).
		Str("actor_id", actor.ID).
		Bool("versioned", bodyChanged).
		Msg("Content updated")

	return content, nil
}

// Delete removes a content item along with its versions and tag links.
// Shared tags and the category stay.
func (s *contentService) Delete(ctx context.Context, id string, actor *models.User) error {
	content, err := s.repos.Content.GetByID(ctx, id)
	if err != nil {
		return &models.StoreError{Op: "get content", Err: err}
	}
	if content == nil {
		return &models.NotFoundError{Resource: "Content"}
	}
	if !policy.CanDelete(actor, content) {
		return &models.ForbiddenError{Message: "You don't have permission to delete this content"}
	}

	err = s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		deleted, err := s.repos.Content.Delete(ctx, tx, id)
		if err != nil {
			return &models.StoreError{Op: "delete content", Err: err}
		}
		if !deleted {
			return &models.NotFoundError{Resource: "Content"}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("content_id", id).
		Str("actor_id", actor.ID).
		Msg("Content deleted")
	return nil
}

// IncrementView bumps the view counter. No permission check: this is a
// read-path side effect.
func (s *contentService) IncrementView(ctx context.Context, id string) error {
	if err := s.repos.Content.IncrementViewCount(ctx, id); err != nil {
		return &models.StoreError{Op: "increment view count", Err: err}
	}
	return nil
}

// History returns the version history of a content item the actor can read
func (s *contentService) History(ctx context.Context, contentID string, actor *models.User) ([]*models.Version, error) {
	content, err := s.repos.Content.GetByID(ctx, contentID)
	if err != nil {
		return nil, &models.StoreError{Op: "get content", Err: err}
	}
	if content == nil {
		return nil, &models.NotFoundError{Resource: "Content"}
	}
	if !policy.CanRead(actor, content) {
		return nil, &models.ForbiddenError{Message: "You don't have permission to view this content"}
	}

	versions, err := s.repos.Version.History(ctx, contentID)
	if err != nil {
		return nil, &models.StoreError{Op: "load version history", Err: err}
	}
	return versions, nil
}

// resolveTags turns raw tag names into tag IDs, creating missing tags.
// Names are deduplicated by slug.
func (s *contentService) resolveTags(ctx context.Context, tx *sql.Tx, names []string) ([]string, []string, error) {
	var ids, resolved []string
	seen := map[string]bool{}

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tagSlug := slug.Make(name)
		if tagSlug == "" || seen[tagSlug] {
			continue
		}
		seen[tagSlug] = true

		tag, err := s.repos.Tag.ResolveOrCreate(ctx, tx, name, tagSlug)
		if err != nil {
			return nil, nil, &models.StoreError{Op: "resolve tag", Err: err}
		}
		ids = append(ids, tag.ID)
		resolved = append(resolved, tag.Name)
	}
	return ids, resolved, nil
}

func (s *contentService) attachTags(ctx context.Context, content *models.Content) error {
	tags, err := s.repos.Content.TagsFor(ctx, []string{content.ID})
	if err != nil {
		return &models.StoreError{Op: "load tags", Err: err}
	}
	content.Tags = tags[content.ID]
	return nil
}

func snapshotOf(content *models.Content) map[string]any {
	return map[string]any{
		"title":    content.Title,
		"body":     content.Body,
		"metadata": content.Metadata,
	}
}
