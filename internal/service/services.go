package service

import (
	"context"
	"database/sql"

	"github.com/go-redis/redis/v8"
	"github.com/knowledge-base-api/internal/config"
	"github.com/knowledge-base-api/internal/models"
	"github.com/knowledge-base-api/internal/repository"
	"github.com/knowledge-base-api/pkg/token"
	"github.com/rs/zerolog"
)

// TxRunner runs a function inside a store transaction. *database.DB
// satisfies it; tests substitute a pass-through.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// ContentService defines the interface for content lifecycle operations
type ContentService interface {
	Create(ctx context.Context, input *models.CreateContentInput, actor *models.User) (*models.Content, error)
	Get(ctx context.Context, id string, actor *models.User) (*models.Content, error)
	GetBySlug(ctx context.Context, slug string, actor *models.User) (*models.Content, error)
	Update(ctx context.Context, id string, patch *models.UpdateContentInput, actor *models.User) (*models.Content, error)
	Delete(ctx context.Context, id string, actor *models.User) error
	IncrementView(ctx context.Context, id string) error
	History(ctx context.Context, contentID string, actor *models.User) ([]*models.Version, error)
}

// TaxonomyService defines the interface for category and tag management
type TaxonomyService interface {
	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	CreateCategory(ctx context.Context, input *models.CategoryInput, actor *models.User) (*models.Category, error)
	UpdateCategory(ctx context.Context, id string, input *models.CategoryInput, actor *models.User) (*models.Category, error)
	DeleteCategory(ctx context.Context, id string, actor *models.User) error
	ListTags(ctx context.Context) ([]*models.Tag, error)
}

// ListOptions are the paging and ordering knobs of a content listing
type ListOptions struct {
	Filter   models.ListFilter
	Sort     string
	Order    string
	Page     int
	PageSize int
}

// SearchService defines the interface for listing, search and suggestions
type SearchService interface {
	List(ctx context.Context, opts ListOptions, actor *models.User) ([]*models.Content, int, error)
	Search(ctx context.Context, query, categorySlug string, limit int) ([]*models.SearchResult, error)
	Suggest(ctx context.Context, partial string, limit int) ([]*models.Suggestion, error)
}

// AuthService is the AuthProvider capability: credential verification and
// identity resolution from bearer tokens.
type AuthService interface {
	Register(ctx context.Context, input *models.RegisterInput) (*models.User, error)
	Login(ctx context.Context, input *models.LoginInput) (*models.User, *models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
	IdentityFromToken(ctx context.Context, accessToken string) (*models.User, error)
}

// Services holds all service interfaces
type Services struct {
	Content  ContentService
	Taxonomy TaxonomyService
	Search   SearchService
	Auth     AuthService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, tx TxRunner, tokens *token.Manager, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *Services {
	return &Services{
		Content:  NewContentService(repos, tx, log),
		Taxonomy: NewTaxonomyService(repos, tx, log),
		Search:   NewSearchService(repos, log),
		Auth:     NewAuthService(repos.User, tokens, rdb, cfg.Auth.BcryptCost, log),
	}
}
