package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/knowledge-base-api/internal/api"
	"github.com/knowledge-base-api/internal/mocks"
	"github.com/knowledge-base-api/internal/models"
	"github.com/knowledge-base-api/internal/service"
	"github.com/knowledge-base-api/pkg/token"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const testCategoryID = "550e8400-e29b-41d4-a716-446655440000"

type fixture struct {
	router *gin.Engine
	users  *mocks.MockUserRepository
}

func setupTestRouter() *fixture {
	gin.SetMode(gin.TestMode)

	repos, _, _, _, _, users := mocks.NewMockRepositories()
	tx := &mocks.MockTxRunner{}
	tokens := token.NewManager("test-secret", time.Hour, 24*time.Hour)
	log := zerolog.Nop()

	services := &service.Services{
		Content:  service.NewContentService(repos, tx, log),
		Taxonomy: service.NewTaxonomyService(repos, tx, log),
		Search:   service.NewSearchService(repos, log),
		Auth:     service.NewAuthService(repos.User, tokens, nil, bcrypt.MinCost, log),
	}

	return &fixture{
		router: api.NewRouter(services, log),
		users:  users,
	}
}

func (f *fixture) do(t *testing.T, method, path, bearer string, body any) (*httptest.ResponseRecorder, api.Response) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp api.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

// registerAs creates an account, promotes it to the given role and logs in.
func (f *fixture) registerAs(t *testing.T, email string, role models.Role) string {
	t.Helper()

	w, _ := f.do(t, "POST", "/api/v1/auth/register", "", map[string]string{
		"email":            email,
		"password":         "correct-horse",
		"password_confirm": "correct-horse",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", w.Code, w.Body.String())
	}

	for _, user := range f.users.Users {
		if user.Email == email {
			user.Role = role
		}
	}

	w, resp := f.do(t, "POST", "/api/v1/auth/login", "", map[string]string{
		"identifier": email,
		"password":   "correct-horse",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", w.Code, w.Body.String())
	}

	data := resp.Data.(map[string]any)
	tokens := data["tokens"].(map[string]any)
	return tokens["access_token"].(string)
}

func TestHealthEndpoint(t *testing.T) {
	f := setupTestRouter()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "knowledge-base-api" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

func TestAuthEndpoints(t *testing.T) {
	f := setupTestRouter()

	// Bad payload
	w, resp := f.do(t, "POST", "/api/v1/auth/register", "", map[string]string{
		"email":            "bad",
		"password":         "short",
		"password_confirm": "short",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", w.Code)
	}
	if resp.Success {
		t.Error("Envelope should report failure")
	}
	if len(resp.Errors) == 0 {
		t.Error("Expected field errors in the envelope")
	}

	// Full flow
	access := f.registerAs(t, "flow@test.com", models.RoleViewer)

	w, resp = f.do(t, "GET", "/api/v1/users/me", access, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me returned %d", w.Code)
	}
	data := resp.Data.(map[string]any)
	user := data["user"].(map[string]any)
	if user["email"] != "flow@test.com" {
		t.Errorf("me returned %v", user["email"])
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Error("password hash must never be serialized")
	}

	// No token
	w, _ = f.do(t, "GET", "/api/v1/users/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}

	// Garbage token
	w, _ = f.do(t, "GET", "/api/v1/users/me", "garbage", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for garbage token, got %d", w.Code)
	}
}

func TestContentEndpoints(t *testing.T) {
	f := setupTestRouter()
	editorToken := f.registerAs(t, "editor@test.com", models.RoleEditor)
	viewerToken := f.registerAs(t, "viewer@test.com", models.RoleViewer)

	createBody := map[string]any{
		"title":       "First Post",
		"content":     "Hello knowledge base",
		"category_id": testCategoryID,
		"status":      "published",
		"tags":        []string{"intro"},
	}

	// Anonymous create is rejected
	w, _ := f.do(t, "POST", "/api/v1/content", "", createBody)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", w.Code)
	}

	// Viewer create is forbidden
	w, _ = f.do(t, "POST", "/api/v1/content", viewerToken, createBody)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d", w.Code)
	}

	// Editor create succeeds
	w, resp := f.do(t, "POST", "/api/v1/content", editorToken, createBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", w.Code, w.Body.String())
	}
	created := resp.Data.(map[string]any)["content"].(map[string]any)
	contentID := created["id"].(string)
	if created["slug"] != "first-post" {
		t.Errorf("slug = %v, want first-post", created["slug"])
	}

	// Invalid payload gets field errors
	w, resp = f.do(t, "POST", "/api/v1/content", editorToken, map[string]any{"title": ""})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", w.Code)
	}
	if _, ok := resp.Errors["title"]; !ok {
		t.Errorf("Expected title error, got %v", resp.Errors)
	}

	// Draft is invisible to others
	draftBody := map[string]any{
		"title":       "Hidden Draft",
		"content":     "not yet",
		"category_id": testCategoryID,
	}
	w, resp = f.do(t, "POST", "/api/v1/content", editorToken, draftBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("draft create returned %d", w.Code)
	}
	draftID := resp.Data.(map[string]any)["content"].(map[string]any)["id"].(string)

	w, _ = f.do(t, "GET", "/api/v1/content/"+draftID, "", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("Anonymous draft read should be 403, got %d", w.Code)
	}
	w, _ = f.do(t, "GET", "/api/v1/content/"+draftID, editorToken, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Author draft read should be 200, got %d", w.Code)
	}

	// Published reads count views
	w, resp = f.do(t, "GET", "/api/v1/content/"+contentID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get returned %d", w.Code)
	}
	got := resp.Data.(map[string]any)["content"].(map[string]any)
	if got["view_count"].(float64) != 1 {
		t.Errorf("view_count = %v, want 1", got["view_count"])
	}

	// Anonymous list sees only published
	w, resp = f.do(t, "GET", "/api/v1/content", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list returned %d", w.Code)
	}
	listData := resp.Data.(map[string]any)
	items := listData["content"].([]any)
	if len(items) != 1 {
		t.Errorf("Anonymous list has %d items, want 1", len(items))
	}
	pagination := listData["pagination"].(map[string]any)
	if pagination["total"].(float64) != 1 {
		t.Errorf("pagination total = %v, want 1", pagination["total"])
	}

	// Update and delete honor ownership
	w, _ = f.do(t, "PUT", "/api/v1/content/"+contentID, viewerToken, map[string]any{"title": "Hijacked"})
	if w.Code != http.StatusForbidden {
		t.Errorf("Viewer update should be 403, got %d", w.Code)
	}
	w, _ = f.do(t, "DELETE", "/api/v1/content/"+contentID, editorToken, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Author delete should be 200, got %d", w.Code)
	}
	w, _ = f.do(t, "GET", "/api/v1/content/"+contentID, "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Deleted content should be 404, got %d", w.Code)
	}
}

func TestVersionsEndpoint(t *testing.T) {
	f := setupTestRouter()
	editorToken := f.registerAs(t, "versions@test.com", models.RoleEditor)

	w, resp := f.do(t, "POST", "/api/v1/content", editorToken, map[string]any{
		"title":       "Tracked",
		"content":     "v1",
		"category_id": testCategoryID,
		"status":      "published",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create returned %d", w.Code)
	}
	contentID := resp.Data.(map[string]any)["content"].(map[string]any)["id"].(string)

	w, _ = f.do(t, "PUT", "/api/v1/content/"+contentID, editorToken, map[string]any{
		"content":        "v2",
		"commit_message": "second pass",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update returned %d", w.Code)
	}

	w, resp = f.do(t, "GET", "/api/v1/content/"+contentID+"/versions", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("versions returned %d", w.Code)
	}
	versions := resp.Data.(map[string]any)["versions"].([]any)
	if len(versions) != 2 {
		t.Fatalf("Expected 2 versions, got %d", len(versions))
	}
	newest := versions[0].(map[string]any)
	if newest["version_number"].(float64) != 2 {
		t.Errorf("newest version = %v, want 2", newest["version_number"])
	}
}

func TestCategoryEndpoints(t *testing.T) {
	f := setupTestRouter()
	adminToken := f.registerAs(t, "admin@test.com", models.RoleAdmin)
	editorToken := f.registerAs(t, "editor2@test.com", models.RoleEditor)

	// Non-admins cannot manage categories
	w, _ := f.do(t, "POST", "/api/v1/categories", editorToken, map[string]any{"name": "Ops"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d", w.Code)
	}

	w, resp := f.do(t, "POST", "/api/v1/categories", adminToken, map[string]any{"name": "Ops"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create category returned %d: %s", w.Code, w.Body.String())
	}
	categoryID := resp.Data.(map[string]any)["category"].(map[string]any)["id"].(string)

	// Duplicate slug conflicts
	w, _ = f.do(t, "POST", "/api/v1/categories", adminToken, map[string]any{"name": "Ops"})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", w.Code)
	}

	// Public listing
	w, resp = f.do(t, "GET", "/api/v1/categories", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list categories returned %d", w.Code)
	}
	categories := resp.Data.(map[string]any)["categories"].([]any)
	if len(categories) != 1 {
		t.Errorf("Expected 1 category, got %d", len(categories))
	}

	w, _ = f.do(t, "DELETE", "/api/v1/categories/"+categoryID, adminToken, nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete category returned %d", w.Code)
	}
	w, _ = f.do(t, "GET", "/api/v1/categories/"+categoryID, "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Deleted category should be 404, got %d", w.Code)
	}
}

func TestSearchEndpoints(t *testing.T) {
	f := setupTestRouter()
	editorToken := f.registerAs(t, "writer@test.com", models.RoleEditor)

	w, _ := f.do(t, "POST", "/api/v1/content", editorToken, map[string]any{
		"title":       "Postgres Tuning",
		"content":     "Use indexes wisely and measure everything with explain analyze.",
		"category_id": testCategoryID,
		"status":      "published",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create returned %d", w.Code)
	}

	// Empty query is a validation error
	w, _ = f.do(t, "GET", "/api/v1/search", "", nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for empty query, got %d", w.Code)
	}

	w, resp := f.do(t, "GET", "/api/v1/search?q=indexes", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search returned %d", w.Code)
	}
	results := resp.Data.(map[string]any)["results"].([]any)
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	hit := results[0].(map[string]any)
	if hit["snippet"] == "" {
		t.Error("Expected a snippet")
	}

	// Suggestions respect the two-character minimum
	w, resp = f.do(t, "GET", "/api/v1/search/suggestions?q=p", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("suggest returned %d", w.Code)
	}
	suggestions := resp.Data.(map[string]any)["suggestions"].([]any)
	if len(suggestions) != 0 {
		t.Errorf("Single character should yield no suggestions, got %d", len(suggestions))
	}

	w, resp = f.do(t, "GET", "/api/v1/search/suggestions?q=post", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("suggest returned %d", w.Code)
	}
	suggestions = resp.Data.(map[string]any)["suggestions"].([]any)
	if len(suggestions) != 1 {
		t.Errorf("Expected 1 suggestion, got %d", len(suggestions))
	}
}
