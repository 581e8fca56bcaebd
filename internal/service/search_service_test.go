package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/knowledge-base-api/internal/mocks"
	"github.com/knowledge-base-api/internal/models"
	"github.com/knowledge-base-api/internal/service"
	"github.com/rs/zerolog"
)

func seedContent(repo *mocks.MockContentRepository, id, title, body string, status models.ContentStatus, authorID string) *models.Content {
	content := &models.Content{
		ID:        id,
		Title:     title,
		Slug:      strings.ToLower(strings.ReplaceAll(title, " ", "-")),
		Body:      body,
		AuthorID:  authorID,
		Status:    status,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	repo.Insert(context.Background(), nil, content)
	return content
}

func TestSearchService_List_Visibility(t *testing.T) {
	repos, contentRepo, _, _, _, _ := mocks.NewMockRepositories()
	svc := service.NewSearchService(repos, zerolog.Nop())

	seedContent(contentRepo, "c1", "Public One", "body", models.StatusPublished, "ed-1")
	seedContent(contentRepo, "c2", "Draft One", "body", models.StatusDraft, "ed-1")
	seedContent(contentRepo, "c3", "Draft Two", "body", models.StatusDraft, "ed-2")

	tests := []struct {
		name  string
		actor *models.User
		want  int
	}{
		{"anonymous sees published only", nil, 1},
		{"author sees own drafts", editor("ed-1"), 2},
		{"admin sees everything", admin("adm-1"), 3},
		{"unrelated viewer sees published only", viewer("vw-1"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := svc.List(context.Background(), service.ListOptions{}, tt.actor)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if total != tt.want {
				t.Errorf("total = %d, want %d", total, tt.want)
			}
			if len(items) != tt.want {
				t.Errorf("len(items) = %d, want %d", len(items), tt.want)
			}
		})
	}
}

func TestSearchService_List_Pagination(t *testing.T) {
	repos, contentRepo, _, _, _, _ := mocks.NewMockRepositories()
	svc := service.NewSearchService(repos, zerolog.Nop())

	for i := 0; i < 45; i++ {
		seedContent(contentRepo, fmt.Sprintf("c%02d", i), fmt.Sprintf("Doc %02d", i),
			"body", models.StatusPublished, "ed-1")
	}

	tests := []struct {
		page      int
		wantItems int
	}{
		{1, 20},
		{2, 20},
		{3, 5},
		{4, 0},
	}

	for _, tt := range tests {
		items, total, err := svc.List(context.Background(),
			service.ListOptions{Page: tt.page, PageSize: 20}, nil)
		if err != nil {
			t.Fatalf("List page %d failed: %v", tt.page, err)
		}
		if total != 45 {
			t.Errorf("page %d: total = %d, want 45", tt.page, total)
		}
		if len(items) != tt.wantItems {
			t.Errorf("page %d: got %d items, want %d", tt.page, len(items), tt.wantItems)
		}
	}
}

func TestSearchService_List_Sorting(t *testing.T) {
	repos, contentRepo, _, _, _, _ := mocks.NewMockRepositories()
	svc := service.NewSearchService(repos, zerolog.Nop())

	seedContent(contentRepo, "c1", "Banana", "body", models.StatusPublished, "ed-1")
	seedContent(contentRepo, "c2", "Apple", "body", models.StatusPublished, "ed-1")
	seedContent(contentRepo, "c3", "Cherry", "body", models.StatusPublished, "ed-1")

	items, _, err := svc.List(context.Background(),
		service.ListOptions{Sort: "title", Order: "asc"}, nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	got := []string{items[0].Title, items[1].Title, items[2].Title}
	want := []string{"Apple", "Banana", "Cherry"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted titles = %v, want %v", got, want)
		}
	}

	// An unknown sort field is ignored rather than rejected.
	if _, _, err := svc.List(context.Background(),
		service.ListOptions{Sort: "view_count; DROP TABLE content"}, nil); err != nil {
		t.Errorf("Unknown sort field should not error: %v", err)
	}
}

func TestSearchService_Search_RequiresQuery(t *testing.T) {
	repos, _, _, _, _, _ := mocks.NewMockRepositories()
	svc := service.NewSearchService(repos, zerolog.Nop())

	for _, query := range []string{"", "   "} {
		_, err := svc.Search(context.Background(), query, "", 10)
		var ve *models.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("query %q: expected ValidationError, got %v", query, err)
		}
	}
}

func TestSearchService_Search_PublishedOnly(t *testing.T) {
	repos, contentRepo, _, _, _, _ := mocks.NewMockRepositories()
	svc := service.NewSearchService(repos, zerolog.Nop())

	seedContent(contentRepo, "c1", "Kubernetes Guide", "about kubernetes", models.StatusPublished, "ed-1")
	seedContent(contentRepo, "c2", "Kubernetes Draft", "about kubernetes", models.StatusDraft, "ed-1")

	results, err := svc.Search(context.Background(), "kubernetes", "", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].ID != "c1" {
		t.Errorf("Expected published hit c1, got %s", results[0].ID)
	}
}

func TestExtractSnippet(t *testing.T) {
	longBody := strings.Repeat("x", 100) + "needle" + strings.Repeat("y", 300)

	tests := []struct {
		name       string
		body       string
		query      string
		wantPrefix string
		wantSuffix string
		leading    bool
	}{
		{
			name:       "match at start has no leading ellipsis",
			body:       "hello world " + strings.Repeat("z", 300),
			query:      "hello",
			wantPrefix: "hello world",
			wantSuffix: "...",
			leading:    false,
		},
		{
			name:       "match deep in body gets leading ellipsis",
			body:       longBody,
			query:      "needle",
			wantSuffix: "...",
			leading:    true,
		},
		{
			name:       "no match falls back to the beginning",
			body:       "plain text that goes on " + strings.Repeat("w", 300),
			query:      "absent",
			wantPrefix: "plain text",
			wantSuffix: "...",
			leading:    false,
		},
		{
			name:  "empty body yields empty snippet",
			body:  "",
			query: "anything",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := service.ExtractSnippet(tt.body, tt.query)
			if tt.body == "" {
				if got != "" {
					t.Fatalf("Expected empty snippet, got %q", got)
				}
				return
			}
			if tt.leading != strings.HasPrefix(got, "...") {
				t.Errorf("leading ellipsis = %v, want %v (snippet %q)", !tt.leading, tt.leading, got)
			}
			if !strings.HasSuffix(got, tt.wantSuffix) {
				t.Errorf("snippet %q should end with %q", got, tt.wantSuffix)
			}
			if tt.wantPrefix != "" && !strings.HasPrefix(got, tt.wantPrefix) {
				t.Errorf("snippet %q should start with %q", got, tt.wantPrefix)
			}
			if tt.leading && !strings.Contains(got, tt.query) {
				t.Errorf("snippet %q should contain the match %q", got, tt.query)
			}
		})
	}
}

func TestExtractSnippet_WindowSize(t *testing.T) {
	body := strings.Repeat("a", 100) + "needle" + strings.Repeat("b", 500)
	got := service.ExtractSnippet(body, "needle")

	// 50 characters of context, 200-character window, ellipses both ends.
	core := strings.TrimPrefix(strings.TrimSuffix(got, "..."), "...")
	if len(core) != 200 {
		t.Errorf("window is %d characters, want 200", len(core))
	}
	if !strings.HasPrefix(core, strings.Repeat("a", 50)+"needle") {
		t.Errorf("window should open 50 characters before the match, got %q", core[:60])
	}
}

func TestExtractSnippet_MultibyteCase(t *testing.T) {
	// Ⱥ (U+023A) is 2 bytes but lowers to ⱥ (U+2C65), 3 bytes, so byte
	// offsets into the lowered text drift from the original.
	body := strings.Repeat("Ⱥ", 30) + "world"
	got := service.ExtractSnippet(body, "world")
	if !strings.Contains(got, "world") {
		t.Errorf("snippet %q should contain the match", got)
	}
	if strings.HasPrefix(got, "...") {
		t.Errorf("match within the first 50 characters should not get a leading ellipsis: %q", got)
	}

	deep := strings.Repeat("Ⱥ", 100) + "needle" + strings.Repeat("b", 300)
	got = service.ExtractSnippet(deep, "NEEDLE")
	if !strings.HasPrefix(got, "...") {
		t.Errorf("deep match should get a leading ellipsis: %q", got)
	}
	if !strings.Contains(got, "needle") {
		t.Errorf("snippet %q should contain the match", got)
	}
	if !strings.Contains(got, "Ⱥ") {
		t.Errorf("snippet %q should carry the original casing", got)
	}
}

func TestSearchService_List_DefaultOrder(t *testing.T) {
	repos, contentRepo, _, _, _, _ := mocks.NewMockRepositories()
	svc := service.NewSearchService(repos, zerolog.Nop())

	base := time.Now()
	for i, id := range []string{"c1", "c2", "c3"} {
		contentRepo.Insert(context.Background(), nil, &models.Content{
			ID:        id,
			Title:     "Doc " + id,
			Slug:      "doc-" + id,
			Status:    models.StatusPublished,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	// No sort param: newest first, so pages stay stable.
	items, _, err := svc.List(context.Background(), service.ListOptions{}, nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	got := []string{items[0].ID, items[1].ID, items[2].ID}
	want := []string{"c3", "c2", "c1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("default order = %v, want %v", got, want)
		}
	}
}

func TestSearchService_List_CategoryFilter(t *testing.T) {
	repos, contentRepo, _, _, _, _ := mocks.NewMockRepositories()
	svc := service.NewSearchService(repos, zerolog.Nop())

	contentRepo.CategorySlugs["cat-ops"] = "ops"
	contentRepo.CategorySlugs["cat-dev"] = "dev"

	seedContent(contentRepo, "c1", "Runbook", "body", models.StatusPublished, "ed-1")
	seedContent(contentRepo, "c2", "Style Guide", "body", models.StatusPublished, "ed-1")
	contentRepo.Items["c1"].CategoryID = "cat-ops"
	contentRepo.Items["c2"].CategoryID = "cat-dev"

	items, total, err := svc.List(context.Background(), service.ListOptions{
		Filter: models.ListFilter{CategorySlug: "ops"},
	}, nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("Expected 1 item in category ops, got %d (total %d)", len(items), total)
	}
	if items[0].ID != "c1" {
		t.Errorf("Expected c1, got %s", items[0].ID)
	}

	// Unknown slug matches nothing.
	_, total, err = svc.List(context.Background(), service.ListOptions{
		Filter: models.ListFilter{CategorySlug: "nope"},
	}, nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected 0 items for an unknown category, got %d", total)
	}
}

func TestSearchService_Suggest(t *testing.T) {
	repos, contentRepo, _, _, _, _ := mocks.NewMockRepositories()
	svc := service.NewSearchService(repos, zerolog.Nop())

	seedContent(contentRepo, "c1", "Golang Patterns", "body", models.StatusPublished, "ed-1")
	seedContent(contentRepo, "c2", "Go Modules", "body", models.StatusPublished, "ed-1")
	seedContent(contentRepo, "c3", "Rust Basics", "body", models.StatusPublished, "ed-1")
	seedContent(contentRepo, "c4", "Go Draft", "body", models.StatusDraft, "ed-1")

	tests := []struct {
		name    string
		partial string
		want    int
	}{
		{"matches published titles", "go", 2},
		{"single character yields nothing", "g", 0},
		{"empty yields nothing", "", 0},
		{"whitespace yields nothing", "  ", 0},
		{"no match", "zz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suggestions, err := svc.Suggest(context.Background(), tt.partial, 10)
			if err != nil {
				t.Fatalf("Suggest failed: %v", err)
			}
			if len(suggestions) != tt.want {
				t.Errorf("got %d suggestions, want %d", len(suggestions), tt.want)
			}
		})
	}
}
