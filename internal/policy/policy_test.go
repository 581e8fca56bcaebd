package policy

import (
	"testing"

	"github.com/knowledge-base-api/internal/models"
)

func user(id string, role models.Role) *models.User {
	return &models.User{ID: id, Role: role, Active: true}
}

func item(authorID string, status models.ContentStatus) *models.Content {
	return &models.Content{ID: "c1", AuthorID: authorID, Status: status}
}

func TestCanRead(t *testing.T) {
	tests := []struct {
		name     string
		identity *models.User
		content  *models.Content
		want     bool
	}{
		{"anonymous reads published", nil, item("a1", models.StatusPublished), true},
		{"anonymous cannot read draft", nil, item("a1", models.StatusDraft), false},
		{"anonymous cannot read archived", nil, item("a1", models.StatusArchived), false},
		{"author reads own draft", user("a1", models.RoleEditor), item("a1", models.StatusDraft), true},
		{"viewer author reads own draft", user("a1", models.RoleViewer), item("a1", models.StatusDraft), true},
		{"other editor cannot read draft", user("e2", models.RoleEditor), item("a1", models.StatusDraft), false},
		{"admin reads any draft", user("adm", models.RoleAdmin), item("a1", models.StatusDraft), true},
		{"admin reads archived", user("adm", models.RoleAdmin), item("a1", models.StatusArchived), true},
		{"nil content", user("adm", models.RoleAdmin), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanRead(tt.identity, tt.content); got != tt.want {
				t.Errorf("CanRead() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanWriteAndDelete(t *testing.T) {
	tests := []struct {
		name     string
		identity *models.User
		content  *models.Content
		want     bool
	}{
		{"anonymous never writes", nil, item("a1", models.StatusPublished), false},
		{"viewer never writes own content", user("a1", models.RoleViewer), item("a1", models.StatusDraft), false},
		{"viewer never writes others", user("v1", models.RoleViewer), item("a1", models.StatusPublished), false},
		{"editor writes own", user("a1", models.RoleEditor), item("a1", models.StatusPublished), true},
		{"editor cannot write others", user("e2", models.RoleEditor), item("a1", models.StatusPublished), false},
		{"admin writes anything", user("adm", models.RoleAdmin), item("a1", models.StatusDraft), true},
		{"unknown role denied", user("x", models.Role("owner")), item("x", models.StatusDraft), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanWrite(tt.identity, tt.content); got != tt.want {
				t.Errorf("CanWrite() = %v, want %v", got, tt.want)
			}
			if got := CanDelete(tt.identity, tt.content); got != tt.want {
				t.Errorf("CanDelete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanCreate(t *testing.T) {
	if CanCreate(nil) {
		t.Error("anonymous should not create content")
	}
	if CanCreate(user("v1", models.RoleViewer)) {
		t.Error("viewer should not create content")
	}
	if !CanCreate(user("e1", models.RoleEditor)) {
		t.Error("editor should create content")
	}
	if !CanCreate(user("adm", models.RoleAdmin)) {
		t.Error("admin should create content")
	}
}

func TestCanManageTaxonomy(t *testing.T) {
	if CanManageTaxonomy(user("e1", models.RoleEditor)) {
		t.Error("editor should not manage categories")
	}
	if !CanManageTaxonomy(user("adm", models.RoleAdmin)) {
		t.Error("admin should manage categories")
	}
}
