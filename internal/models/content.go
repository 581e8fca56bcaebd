package models

import (
	"time"
)

// ContentType classifies a content item
type ContentType string

const (
	TypeDocument ContentType = "document"
	TypeTemplate ContentType = "template"
	TypeGuide    ContentType = "guide"
	TypeLink     ContentType = "link"
)

// Valid reports whether t is one of the known content types.
func (t ContentType) Valid() bool {
	switch t {
	case TypeDocument, TypeTemplate, TypeGuide, TypeLink:
		return true
	}
	return false
}

// ContentStatus is the lifecycle state of a content item
type ContentStatus string

const (
	StatusDraft     ContentStatus = "draft"
	StatusPublished ContentStatus = "published"
	StatusArchived  ContentStatus = "archived"
)

// Valid reports whether s is one of the known statuses.
func (s ContentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// MetadataKeyExternalURL is the metadata field required for link-type content.
const MetadataKeyExternalURL = "external_url"

// Content is the primary knowledge-base entity
type Content struct {
	ID          string         `json:"id" db:"id"`
	Title       string         `json:"title" db:"title"`
	Slug        string         `json:"slug" db:"slug"`
	ContentType ContentType    `json:"content_type" db:"content_type"`
	Body        string         `json:"body" db:"body"` // empty for link type
	Metadata    map[string]any `json:"metadata,omitempty" db:"-"`
	CategoryID  string         `json:"category_id,omitempty" db:"category_id"`
	Category    string         `json:"category,omitempty" db:"-"` // resolved name
	AuthorID    string         `json:"author_id" db:"author_id"`
	Status      ContentStatus  `json:"status" db:"status"`
	Featured    bool           `json:"is_featured" db:"is_featured"`
	ViewCount   int            `json:"view_count" db:"view_count"`
	Tags        []string       `json:"tags" db:"-"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
	PublishedAt *time.Time     `json:"published_at,omitempty" db:"published_at"`
}

// Category organizes content into an optional tree
type Category struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description,omitempty" db:"description"`
	Icon        string    `json:"icon,omitempty" db:"icon"`
	ParentID    string    `json:"parent_id,omitempty" db:"parent_id"`
	OrderIndex  int       `json:"order_index" db:"order_index"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Tag is a flat classification label, deduplicated by slug
type Tag struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Slug         string    `json:"slug" db:"slug"`
	Color        string    `json:"color" db:"color"`
	ContentCount int       `json:"content_count,omitempty" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// DefaultTagColor is applied when a tag is created without a color.
const DefaultTagColor = "#6c757d"

// Version is an immutable snapshot of a content item's state
type Version struct {
	ID            string         `json:"id" db:"id"`
	ContentID     string         `json:"content_id" db:"content_id"`
	VersionNumber int            `json:"version_number" db:"version_number"`
	Snapshot      map[string]any `json:"snapshot,omitempty" db:"-"`
	CommitMessage string         `json:"commit_message,omitempty" db:"commit_message"`
	AuthorID      string         `json:"author_id" db:"author_id"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

// CreateContentInput is the payload for content creation
type CreateContentInput struct {
	Title       string         `json:"title"`
	Slug        string         `json:"slug,omitempty"`
	ContentType ContentType    `json:"content_type,omitempty"`
	Body        string         `json:"content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CategoryID  string         `json:"category_id,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Status      ContentStatus  `json:"status,omitempty"`
	Featured    bool           `json:"is_featured,omitempty"`
}

// UpdateContentInput is a partial patch; nil fields are left untouched
type UpdateContentInput struct {
	Title         *string         `json:"title,omitempty"`
	Body          *string         `json:"content,omitempty"`
	Metadata      *map[string]any `json:"metadata,omitempty"`
	CategoryID    *string         `json:"category_id,omitempty"`
	Tags          *[]string       `json:"tags,omitempty"`
	Status        *ContentStatus  `json:"status,omitempty"`
	Featured      *bool           `json:"is_featured,omitempty"`
	CommitMessage string          `json:"commit_message,omitempty"`
}

// CategoryInput is the payload for category creation and update
type CategoryInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
	OrderIndex  int    `json:"order_index,omitempty"`
}

// ListFilter narrows a content listing
type ListFilter struct {
	CategorySlug string
	ContentType  ContentType
	Status       ContentStatus
	Featured     *bool
	Search       string
	// Visibility bounds, derived from the requesting identity.
	// Unpublished items are restricted to AuthorID unless Unrestricted.
	AuthorID     string
	Unrestricted bool
}

// SortField values accepted by the list operation. Anything else is ignored.
var AllowedSortFields = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"title":      "title",
}

// SearchResult is a single search hit with its snippet
type SearchResult struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Category  string    `json:"category,omitempty"`
	Snippet   string    `json:"snippet"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Suggestion is a title completion for a partial query
type Suggestion struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
}
