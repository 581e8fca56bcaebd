// Package validation checks API input before any mutation runs and
// reports problems as field→message maps.
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/knowledge-base-api/internal/models"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	slugRegex  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

const (
	maxTitleLen    = 255
	maxTagNameLen  = 50
	minPasswordLen = 8
)

// ValidateCreateContent checks a content creation payload.
// Returns nil when the input is valid.
func ValidateCreateContent(in *models.CreateContentInput) map[string]string {
	errs := map[string]string{}

	if strings.TrimSpace(in.Title) == "" {
		errs["title"] = "Title is required"
	} else if len(in.Title) > maxTitleLen {
		errs["title"] = fmt.Sprintf("Title must be at most %d characters", maxTitleLen)
	}

	if in.Slug != "" && !slugRegex.MatchString(in.Slug) {
		errs["slug"] = "Slug must be lowercase letters, numbers and hyphens"
	}

	if in.ContentType != "" && !in.ContentType.Valid() {
		errs["content_type"] = "Content type must be one of: document, template, guide, link"
	}

	// Link-type content carries an external URL instead of a body.
	if in.ContentType == models.TypeLink {
		if externalURL(in.Metadata) == "" {
			errs["metadata."+models.MetadataKeyExternalURL] = "External URL is required for link content"
		}
	} else if strings.TrimSpace(in.Body) == "" {
		errs["content"] = "Content is required"
	}

	if in.CategoryID == "" {
		errs["category"] = "Category is required"
	} else if !isValidUUID(in.CategoryID) {
		errs["category"] = "Invalid category ID format"
	}

	if in.Status != "" && !in.Status.Valid() {
		errs["status"] = "Status must be one of: draft, published, archived"
	}

	if msg := validateTags(in.Tags); msg != "" {
		errs["tags"] = msg
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateUpdateContent checks a content patch. Only set fields are checked.
func ValidateUpdateContent(in *models.UpdateContentInput) map[string]string {
	errs := map[string]string{}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			errs["title"] = "Title cannot be empty"
		} else if len(*in.Title) > maxTitleLen {
			errs["title"] = fmt.Sprintf("Title must be at most %d characters", maxTitleLen)
		}
	}

	if in.CategoryID != nil && *in.CategoryID != "" && !isValidUUID(*in.CategoryID) {
		errs["category"] = "Invalid category ID format"
	}

	if in.Status != nil && !in.Status.Valid() {
		errs["status"] = "Status must be one of: draft, published, archived"
	}

	if in.Tags != nil {
		if msg := validateTags(*in.Tags); msg != "" {
			errs["tags"] = msg
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateCategory checks a category creation/update payload
func ValidateCategory(in *models.CategoryInput) map[string]string {
	errs := map[string]string{}

	if strings.TrimSpace(in.Name) == "" {
		errs["name"] = "Name is required"
	} else if len(in.Name) > 100 {
		errs["name"] = "Name must be at most 100 characters"
	}

	if in.Slug != "" && !slugRegex.MatchString(in.Slug) {
		errs["slug"] = "Slug must be lowercase letters, numbers and hyphens"
	}

	if in.ParentID != "" && !isValidUUID(in.ParentID) {
		errs["parent_id"] = "Invalid parent category ID format"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateRegister checks a registration payload
func ValidateRegister(in *models.RegisterInput) map[string]string {
	errs := map[string]string{}

	if in.Email == "" {
		errs["email"] = "Email is required"
	} else if !emailRegex.MatchString(in.Email) {
		errs["email"] = "Invalid email address"
	}

	if in.Password == "" {
		errs["password"] = "Password is required"
	} else if len(in.Password) < minPasswordLen {
		errs["password"] = fmt.Sprintf("Password must be at least %d characters", minPasswordLen)
	}

	if in.Password != in.PasswordConfirm {
		errs["password_confirm"] = "Passwords do not match"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateTags(tags []string) string {
	for _, tag := range tags {
		name := strings.TrimSpace(tag)
		if name == "" {
			return "Tag names cannot be empty"
		}
		if len(name) > maxTagNameLen {
			return fmt.Sprintf("Tag names must be at most %d characters", maxTagNameLen)
		}
	}
	return ""
}

func externalURL(metadata map[string]any) string {
	if metadata == nil {
		return ""
	}
	raw, ok := metadata[models.MetadataKeyExternalURL].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return ""
	}
	if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return raw
}

func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
