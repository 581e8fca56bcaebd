package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/knowledge-base-api/internal/models"
	"github.com/knowledge-base-api/internal/repository"
	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	defaultLimit    = 20
	maxLimit        = 100

	// Snippet window: up to 50 characters of context before the first
	// match, 200 characters total.
	snippetLead = 50
	snippetLen  = 200

	minSuggestLen = 2
)

// searchService implements SearchService
type searchService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// NewSearchService creates the listing, search and suggestion service
func NewSearchService(repos *repository.Repositories, log zerolog.Logger) SearchService {
	return &searchService{
		repos: repos,
		log:   log.With().Str("service", "search").Logger(),
	}
}

// List returns a page of content plus the total match count. The filter's
// visibility bounds must already reflect the actor; this method derives
// them here so handlers only pass the raw filter keys.
func (s *searchService) List(ctx context.Context, opts ListOptions, actor *models.User) ([]*models.Content, int, error) {
	filter := opts.Filter
	if actor != nil {
		filter.AuthorID = actor.ID
		filter.Unrestricted = actor.Role == models.RoleAdmin
	} else {
		filter.AuthorID = ""
		filter.Unrestricted = false
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	// An unknown sort field is silently ignored: the listing falls back
	// to newest-first so offset pagination stays stable.
	column, ok := models.AllowedSortFields[opts.Sort]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(opts.Order, "asc") {
		direction = "ASC"
	}
	orderBy := "c." + column + " " + direction

	items, total, err := s.repos.Content.List(ctx, filter, orderBy, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, &models.StoreError{Op: "list content", Err: err}
	}

	if err := s.attachTags(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Search matches published content against the query and returns results
// with snippets, most recently updated first.
func (s *searchService) Search(ctx context.Context, query, categorySlug string, limit int) ([]*models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError(map[string]string{"query": "Search query is required"})
	}

	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	items, err := s.repos.Content.Search(ctx, query, categorySlug, limit)
	if err != nil {
		return nil, &models.StoreError{Op: "search content", Err: err}
	}
	if err := s.attachTags(ctx, items); err != nil {
		return nil, err
	}

	results := make([]*models.SearchResult, 0, len(items))
	for _, item := range items {
		results = append(results, &models.SearchResult{
			ID:        item.ID,
			Title:     item.Title,
			Slug:      item.Slug,
			Category:  item.Category,
			Snippet:   ExtractSnippet(item.Body, query),
			Tags:      item.Tags,
			UpdatedAt: item.UpdatedAt,
		})
	}
	return results, nil
}

// Suggest returns title completions for a partial query. Queries shorter
// than two characters yield no suggestions.
func (s *searchService) Suggest(ctx context.Context, partial string, limit int) ([]*models.Suggestion, error) {
	if utf8.RuneCountInString(strings.TrimSpace(partial)) < minSuggestLen {
		return []*models.Suggestion{}, nil
	}

	if limit < 1 {
		limit = 10
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	items, err := s.repos.Content.SuggestTitles(ctx, partial, limit)
	if err != nil {
		return nil, &models.StoreError{Op: "suggest titles", Err: err}
	}

	suggestions := make([]*models.Suggestion, 0, len(items))
	for _, item := range items {
		suggestions = append(suggestions, &models.Suggestion{
			ID:       item.ID,
			Title:    item.Title,
			Category: item.Category,
		})
	}
	return suggestions, nil
}

// ExtractSnippet returns a bounded excerpt of body around the first
// case-insensitive occurrence of query. The window starts up to 50
// characters before the match and runs 200 characters; a leading ellipsis
// is added only when the window does not start at the very beginning.
func ExtractSnippet(body, query string) string {
	if body == "" {
		return ""
	}

	runes := []rune(body)

	// Lowercasing can change UTF-8 byte lengths, so a byte offset into
	// the lowered string must be converted to a rune offset before it
	// can address the original body.
	lowered := strings.ToLower(body)
	matchAt := 0
	if idx := strings.Index(lowered, strings.ToLower(query)); idx > 0 {
		matchAt = utf8.RuneCountInString(lowered[:idx])
	}

	start := matchAt - snippetLead
	if start < 0 {
		start = 0
	}
	end := start + snippetLen
	if end > len(runes) {
		end = len(runes)
	}

	snippet := string(runes[start:end]) + "..."
	if start > 0 {
		snippet = "..." + snippet
	}
	return snippet
}

func (s *searchService) attachTags(ctx context.Context, items []*models.Content) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	tags, err := s.repos.Content.TagsFor(ctx, ids)
	if err != nil {
		return &models.StoreError{Op: "load tags", Err: err}
	}
	for _, item := range items {
		item.Tags = tags[item.ID]
	}
	return nil
}
