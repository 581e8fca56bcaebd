// Package policy contains the pure access-control decisions for content.
// Functions here never touch the store; callers pass the already-loaded
// identity (nil for anonymous) and content item.
package policy

import (
	"github.com/knowledge-base-api/internal/models"
)

// CanRead reports whether identity may view the content item.
// Published content is public; drafts and archived items are visible only
// to their author or an admin.
func CanRead(identity *models.User, content *models.Content) bool {
	if content == nil {
		return false
	}
	if content.Status == models.StatusPublished {
		return true
	}
	if identity == nil {
		return false
	}
	switch identity.Role {
	case models.RoleAdmin:
		return true
	case models.RoleEditor, models.RoleViewer:
		return identity.ID == content.AuthorID
	}
	return false
}

// CanWrite reports whether identity may modify the content item.
// Admins may edit anything; editors only their own content; viewers never.
func CanWrite(identity *models.User, content *models.Content) bool {
	if identity == nil || content == nil {
		return false
	}
	switch identity.Role {
	case models.RoleAdmin:
		return true
	case models.RoleEditor:
		return identity.ID == content.AuthorID
	case models.RoleViewer:
		return false
	}
	return false
}

// CanDelete follows the same rule as CanWrite.
func CanDelete(identity *models.User, content *models.Content) bool {
	return CanWrite(identity, content)
}

// CanCreate reports whether identity may create new content at all.
func CanCreate(identity *models.User) bool {
	if identity == nil {
		return false
	}
	switch identity.Role {
	case models.RoleAdmin, models.RoleEditor:
		return true
	case models.RoleViewer:
		return false
	}
	return false
}

// CanManageTaxonomy reports whether identity may mutate categories.
func CanManageTaxonomy(identity *models.User) bool {
	return identity != nil && identity.Role == models.RoleAdmin
}
