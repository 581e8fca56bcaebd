package repository

import (
	"context"
	"errors"

	"github.com/knowledge-base-api/internal/database"
	"github.com/knowledge-base-api/internal/models"
	"github.com/lib/pq"
)

// Methods that must run inside a caller-owned transaction take a
// database.Queryer so the service layer can compose a whole mutation
// (content row, tag links, version record) into one atomic unit.

// ContentRepository defines the interface for content data operations
type ContentRepository interface {
	Insert(ctx context.Context, q database.Queryer, content *models.Content) error
	Update(ctx context.Context, q database.Queryer, content *models.Content) error
	Delete(ctx context.Context, q database.Queryer, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Content, error)
	GetBySlug(ctx context.Context, slug string) (*models.Content, error)
	SlugExists(ctx context.Context, q database.Queryer, slug string) (bool, error)
	IncrementViewCount(ctx context.Context, id string) error
	SetTags(ctx context.Context, q database.Queryer, contentID string, tagIDs []string) error
	TagsFor(ctx context.Context, contentIDs []string) (map[string][]string, error)
	List(ctx context.Context, filter models.ListFilter, orderBy string, limit, offset int) ([]*models.Content, int, error)
	Search(ctx context.Context, query, categorySlug string, limit int) ([]*models.Content, error)
	SuggestTitles(ctx context.Context, query string, limit int) ([]*models.Content, error)
}

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	Insert(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, q database.Queryer, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// TagRepository defines the interface for tag data operations
type TagRepository interface {
	ResolveOrCreate(ctx context.Context, q database.Queryer, name, slug string) (*models.Tag, error)
	List(ctx context.Context) ([]*models.Tag, error)
}

// VersionRepository defines the interface for version history operations
type VersionRepository interface {
	Record(ctx context.Context, q database.Queryer, version *models.Version) error
	History(ctx context.Context, contentID string) ([]*models.Version, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	TouchLastLogin(ctx context.Context, id string) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Content  ContentRepository
	Category CategoryRepository
	Tag      TagRepository
	Version  VersionRepository
	User     UserRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Content:  NewContentRepo(db),
		Category: NewCategoryRepo(db),
		Tag:      NewTagRepo(db),
		Version:  NewVersionRepo(db),
		User:     NewUserRepo(db),
	}
}

// IsUniqueViolation reports whether err is a Postgres duplicate-key error
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
