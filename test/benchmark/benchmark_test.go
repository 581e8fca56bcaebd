package benchmark

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/knowledge-base-api/internal/mocks"
	"github.com/knowledge-base-api/internal/models"
	"github.com/knowledge-base-api/internal/service"
	"github.com/knowledge-base-api/internal/slug"
	"github.com/rs/zerolog"
)

func seedRepos(n int) (*mocks.MockContentRepository, service.SearchService) {
	repos, content, _, _, _, _ := mocks.NewMockRepositories()
	now := time.Now()
	for i := 0; i < n; i++ {
		content.Insert(context.Background(), nil, &models.Content{
			ID:        fmt.Sprintf("id-%06d", i),
			Title:     fmt.Sprintf("Document %06d", i),
			Slug:      fmt.Sprintf("document-%06d", i),
			Body:      strings.Repeat("searchable body text ", 50),
			AuthorID:  "author-1",
			Status:    models.StatusPublished,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
			UpdatedAt: now.Add(time.Duration(i) * time.Second),
		})
	}
	return content, service.NewSearchService(repos, zerolog.Nop())
}

// BenchmarkSlugMake benchmarks slug derivation
func BenchmarkSlugMake(b *testing.B) {
	titles := []string{
		"Getting Started With Production Deployments",
		"How to: tune PostgreSQL (the hard way)",
		"  Überraschend  schnelle   Suche  ",
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		slug.Make(titles[i%len(titles)])
	}
}

// BenchmarkExtractSnippet benchmarks snippet windowing over a large body
func BenchmarkExtractSnippet(b *testing.B) {
	body := strings.Repeat("filler text before the interesting part ", 200) +
		"needle" + strings.Repeat(" trailing context", 200)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		service.ExtractSnippet(body, "needle")
	}
}

// BenchmarkList benchmarks a paginated listing over 1000 items
func BenchmarkList(b *testing.B) {
	_, search := seedRepos(1000)
	opts := service.ListOptions{Sort: "created_at", Order: "desc", Page: 3, PageSize: 20}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, _, err := search.List(context.Background(), opts, nil); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkSearch benchmarks full-text matching with snippets
func BenchmarkSearch(b *testing.B) {
	_, search := seedRepos(1000)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		results, err := search.Search(context.Background(), "searchable", "", 20)
		if err != nil {
			b.Fatal(err)
		}
		if len(results) == 0 {
			b.Fatal("no results")
		}
	}
}
