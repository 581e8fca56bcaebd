// Package mocks provides in-memory repository implementations for
// service-level tests.
package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/knowledge-base-api/internal/database"
	"github.com/knowledge-base-api/internal/models"
	"github.com/knowledge-base-api/internal/repository"
	"github.com/knowledge-base-api/internal/service"
)

// MockTxRunner runs the transaction body directly with a nil *sql.Tx.
// The mocks below never touch the Queryer they are handed.
type MockTxRunner struct {
	Calls int
	Err   error
}

var _ service.TxRunner = (*MockTxRunner)(nil)

func (m *MockTxRunner) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	m.Calls++
	if m.Err != nil {
		return m.Err
	}
	return fn(nil)
}

// MockContentRepository is a mock implementation of ContentRepository
type MockContentRepository struct {
	Items         map[string]*models.Content
	SlugToID      map[string]string
	TagLinks      map[string][]string // content ID -> tag IDs
	TagNames      map[string]string   // tag ID -> name
	CategorySlugs map[string]string   // category ID -> slug
	InsertError   error
	UpdateError   error
	ViewCounts    map[string]int
}

var _ repository.ContentRepository = (*MockContentRepository)(nil)

func NewMockContentRepository() *MockContentRepository {
	return &MockContentRepository{
		Items:         make(map[string]*models.Content),
		SlugToID:      make(map[string]string),
		TagLinks:      make(map[string][]string),
		TagNames:      make(map[string]string),
		CategorySlugs: make(map[string]string),
		ViewCounts:    make(map[string]int),
	}
}

func (m *MockContentRepository) Insert(ctx context.Context, q database.Queryer, content *models.Content) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	if _, taken := m.SlugToID[content.Slug]; taken {
		return fmt.Errorf("duplicate slug %q", content.Slug)
	}
	cp := *content
	m.Items[content.ID] = &cp
	m.SlugToID[content.Slug] = content.ID
	return nil
}

func (m *MockContentRepository) Update(ctx context.Context, q database.Queryer, content *models.Content) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	old, ok := m.Items[content.ID]
	if !ok {
		return sql.ErrNoRows
	}
	delete(m.SlugToID, old.Slug)
	cp := *content
	m.Items[content.ID] = &cp
	m.SlugToID[content.Slug] = content.ID
	return nil
}

func (m *MockContentRepository) Delete(ctx context.Context, q database.Queryer, id string) (bool, error) {
	content, ok := m.Items[id]
	if !ok {
		return false, nil
	}
	delete(m.Items, id)
	delete(m.SlugToID, content.Slug)
	delete(m.TagLinks, id)
	return true, nil
}

func (m *MockContentRepository) GetByID(ctx context.Context, id string) (*models.Content, error) {
	content, ok := m.Items[id]
	if !ok {
		return nil, nil
	}
	cp := *content
	return &cp, nil
}

func (m *MockContentRepository) GetBySlug(ctx context.Context, slug string) (*models.Content, error) {
	id, ok := m.SlugToID[slug]
	if !ok {
		return nil, nil
	}
	return m.GetByID(ctx, id)
}

func (m *MockContentRepository) SlugExists(ctx context.Context, q database.Queryer, slug string) (bool, error) {
	_, exists := m.SlugToID[slug]
	return exists, nil
}

func (m *MockContentRepository) IncrementViewCount(ctx context.Context, id string) error {
	m.ViewCounts[id]++
	if content, ok := m.Items[id]; ok {
		content.ViewCount++
	}
	return nil
}

func (m *MockContentRepository) SetTags(ctx context.Context, q database.Queryer, contentID string, tagIDs []string) error {
	m.TagLinks[contentID] = append([]string(nil), tagIDs...)
	return nil
}

func (m *MockContentRepository) TagsFor(ctx context.Context, contentIDs []string) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, id := range contentIDs {
		for _, tagID := range m.TagLinks[id] {
			out[id] = append(out[id], m.TagNames[tagID])
		}
	}
	return out, nil
}

func (m *MockContentRepository) List(ctx context.Context, filter models.ListFilter, orderBy string, limit, offset int) ([]*models.Content, int, error) {
	matched := make([]*models.Content, 0)
	for _, content := range m.Items {
		if !m.visible(content, filter) {
			continue
		}
		if filter.Status != "" && content.Status != filter.Status {
			continue
		}
		if filter.CategorySlug != "" && m.CategorySlugs[content.CategoryID] != filter.CategorySlug {
			continue
		}
		if filter.ContentType != "" && content.ContentType != filter.ContentType {
			continue
		}
		if filter.Featured != nil && content.Featured != *filter.Featured {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(content.Title), needle) &&
				!strings.Contains(strings.ToLower(content.Body), needle) {
				continue
			}
		}
		cp := *content
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		switch {
		case strings.HasPrefix(orderBy, "c.title"):
			if strings.HasSuffix(orderBy, "ASC") {
				return matched[i].Title < matched[j].Title
			}
			return matched[i].Title > matched[j].Title
		case strings.HasPrefix(orderBy, "c.created_at") && strings.HasSuffix(orderBy, "ASC"):
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		default:
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
	})

	total := len(matched)
	if offset >= total {
		return []*models.Content{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *MockContentRepository) visible(content *models.Content, filter models.ListFilter) bool {
	if filter.Unrestricted {
		return true
	}
	if content.Status == models.StatusPublished {
		return true
	}
	return filter.AuthorID != "" && content.AuthorID == filter.AuthorID
}

func (m *MockContentRepository) Search(ctx context.Context, query, categorySlug string, limit int) ([]*models.Content, error) {
	needle := strings.ToLower(query)
	matched := make([]*models.Content, 0)
	for _, content := range m.Items {
		if content.Status != models.StatusPublished {
			continue
		}
		if categorySlug != "" && m.CategorySlugs[content.CategoryID] != categorySlug {
			continue
		}
		if !strings.Contains(strings.ToLower(content.Title), needle) &&
			!strings.Contains(strings.ToLower(content.Body), needle) {
			continue
		}
		cp := *content
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MockContentRepository) SuggestTitles(ctx context.Context, query string, limit int) ([]*models.Content, error) {
	needle := strings.ToLower(query)
	matched := make([]*models.Content, 0)
	for _, content := range m.Items {
		if content.Status != models.StatusPublished {
			continue
		}
		if !strings.Contains(strings.ToLower(content.Title), needle) {
			continue
		}
		cp := *content
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Title < matched[j].Title
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	Categories map[string]*models.Category
	SlugToID   map[string]string
}

var _ repository.CategoryRepository = (*MockCategoryRepository)(nil)

func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[string]*models.Category),
		SlugToID:   make(map[string]string),
	}
}

func (m *MockCategoryRepository) Insert(ctx context.Context, category *models.Category) error {
	if _, taken := m.SlugToID[category.Slug]; taken {
		return fmt.Errorf("duplicate slug %q", category.Slug)
	}
	cp := *category
	m.Categories[category.ID] = &cp
	m.SlugToID[category.Slug] = category.ID
	return nil
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	old, ok := m.Categories[category.ID]
	if !ok {
		return sql.ErrNoRows
	}
	delete(m.SlugToID, old.Slug)
	cp := *category
	m.Categories[category.ID] = &cp
	m.SlugToID[category.Slug] = category.ID
	return nil
}

func (m *MockCategoryRepository) Delete(ctx context.Context, q database.Queryer, id string) (bool, error) {
	category, ok := m.Categories[id]
	if !ok {
		return false, nil
	}
	delete(m.Categories, id)
	delete(m.SlugToID, category.Slug)
	return true, nil
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	category, ok := m.Categories[id]
	if !ok {
		return nil, nil
	}
	cp := *category
	return &cp, nil
}

func (m *MockCategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	out := make([]*models.Category, 0, len(m.Categories))
	for _, category := range m.Categories {
		cp := *category
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *MockCategoryRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, exists := m.SlugToID[slug]
	return exists, nil
}

// MockTagRepository is a mock implementation of TagRepository
type MockTagRepository struct {
	BySlug        map[string]*models.Tag
	ResolveCalls  int
	CreatedBySlug map[string]int
	ResolveError  error
}

var _ repository.TagRepository = (*MockTagRepository)(nil)

func NewMockTagRepository() *MockTagRepository {
	return &MockTagRepository{
		BySlug:        make(map[string]*models.Tag),
		CreatedBySlug: make(map[string]int),
	}
}

func (m *MockTagRepository) ResolveOrCreate(ctx context.Context, q database.Queryer, name, slug string) (*models.Tag, error) {
	m.ResolveCalls++
	if m.ResolveError != nil {
		return nil, m.ResolveError
	}
	if tag, ok := m.BySlug[slug]; ok {
		cp := *tag
		return &cp, nil
	}
	tag := &models.Tag{
		ID:    uuid.New().String(),
		Name:  name,
		Slug:  slug,
		Color: models.DefaultTagColor,
	}
	m.BySlug[slug] = tag
	m.CreatedBySlug[slug]++
	cp := *tag
	return &cp, nil
}

func (m *MockTagRepository) List(ctx context.Context) ([]*models.Tag, error) {
	out := make([]*models.Tag, 0, len(m.BySlug))
	for _, tag := range m.BySlug {
		cp := *tag
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// MockVersionRepository is a mock implementation of VersionRepository.
// Record assigns sequential version numbers per content item the way the
// real store does under its row lock.
type MockVersionRepository struct {
	Versions    map[string][]*models.Version // content ID -> versions, oldest first
	RecordError error
}

var _ repository.VersionRepository = (*MockVersionRepository)(nil)

func NewMockVersionRepository() *MockVersionRepository {
	return &MockVersionRepository{
		Versions: make(map[string][]*models.Version),
	}
}

func (m *MockVersionRepository) Record(ctx context.Context, q database.Queryer, version *models.Version) error {
	if m.RecordError != nil {
		return m.RecordError
	}
	version.VersionNumber = len(m.Versions[version.ContentID]) + 1
	cp := *version
	m.Versions[version.ContentID] = append(m.Versions[version.ContentID], &cp)
	return nil
}

func (m *MockVersionRepository) History(ctx context.Context, contentID string) ([]*models.Version, error) {
	stored := m.Versions[contentID]
	out := make([]*models.Version, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		cp := *stored[i]
		out = append(out, &cp)
	}
	return out, nil
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	Users       map[string]*models.User
	CreateError error
	LastLogins  map[string]int
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:      make(map[string]*models.User),
		LastLogins: make(map[string]int),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	cp := *user
	m.Users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.Users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (m *MockUserRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	for _, user := range m.Users {
		if strings.EqualFold(user.Email, identifier) || user.Username == identifier {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	for _, user := range m.Users {
		if strings.EqualFold(user.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	for _, user := range m.Users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, id string) error {
	m.LastLogins[id]++
	return nil
}

// NewMockRepositories bundles fresh mocks into the struct services expect
func NewMockRepositories() (*repository.Repositories, *MockContentRepository, *MockCategoryRepository, *MockTagRepository, *MockVersionRepository, *MockUserRepository) {
	content := NewMockContentRepository()
	category := NewMockCategoryRepository()
	tag := NewMockTagRepository()
	version := NewMockVersionRepository()
	user := NewMockUserRepository()
	repos := &repository.Repositories{
		Content:  content,
		Category: category,
		Tag:      tag,
		Version:  version,
		User:     user,
	}
	return repos, content, category, tag, version, user
}
