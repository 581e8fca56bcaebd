package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/knowledge-base-api/internal/models"
	"github.com/knowledge-base-api/internal/service"
	"github.com/rs/zerolog"
)

// ContentHandler handles content lifecycle endpoints
type ContentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(services *service.Services, log zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		services: services,
		log:      log.With().Str("handler", "content").Logger(),
	}
}

// List handles GET /api/v1/content
func (h *ContentHandler) List(c *gin.Context) {
	opts := service.ListOptions{
		Filter: models.ListFilter{
			CategorySlug: c.Query("category"),
			ContentType:  models.ContentType(c.Query("type")),
			Status:       models.ContentStatus(c.Query("status")),
			Search:       c.Query("q"),
		},
		Sort:     c.Query("sort"),
		Order:    c.Query("order"),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "per_page", 20),
	}
	if raw, ok := c.GetQuery("featured"); ok {
		featured := raw == "true" || raw == "1"
		opts.Filter.Featured = &featured
	}

	items, total, err := h.services.Search.List(c.Request.Context(), opts, currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondList(c, "Content list", "content", items,
		NewPagination(opts.Page, opts.PageSize, total))
}

// Create handles POST /api/v1/content
func (h *ContentHandler) Create(c *gin.Context) {
	var input models.CreateContentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	content, err := h.services.Content.Create(c.Request.Context(), &input, currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Content created", gin.H{"content": content})
}

// Get handles GET /api/v1/content/:id
func (h *ContentHandler) Get(c *gin.Context) {
	content, err := h.services.Content.Get(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.countView(c, content)
	respondSuccess(c, http.StatusOK, "Content", gin.H{"content": content})
}

// GetBySlug handles GET /api/v1/slug/:slug
func (h *ContentHandler) GetBySlug(c *gin.Context) {
	content, err := h.services.Content.GetBySlug(c.Request.Context(), c.Param("slug"), currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.countView(c, content)
	respondSuccess(c, http.StatusOK, "Content", gin.H{"content": content})
}

// countView bumps the view counter on published reads. Failures are
// logged, never surfaced.
func (h *ContentHandler) countView(c *gin.Context, content *models.Content) {
	if content.Status != models.StatusPublished {
		return
	}
	if err := h.services.Content.IncrementView(c.Request.Context(), content.ID); err != nil {
		h.log.Warn().Err(err).Str("content_id", content.ID).Msg("Failed to count view")
	} else {
		content.ViewCount++
	}
}

// Update handles PUT /api/v1/content/:id
func (h *ContentHandler) Update(c *gin.Context) {
	var patch models.UpdateContentInput
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	content, err := h.services.Content.Update(c.Request.Context(), c.Param("id"), &patch, currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Content updated", gin.H{"content": content})
}

// Delete handles DELETE /api/v1/content/:id
func (h *ContentHandler) Delete(c *gin.Context) {
	if err := h.services.Content.Delete(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Content deleted", nil)
}

// Publish handles POST /api/v1/content/:id/publish
func (h *ContentHandler) Publish(c *gin.Context) {
	h.setStatus(c, models.StatusPublished, "Content published")
}

// Archive handles POST /api/v1/content/:id/archive
func (h *ContentHandler) Archive(c *gin.Context) {
	h.setStatus(c, models.StatusArchived, "Content archived")
}

func (h *ContentHandler) setStatus(c *gin.Context, status models.ContentStatus, message string) {
	patch := &models.UpdateContentInput{Status: &status}
	content, err := h.services.Content.Update(c.Request.Context(), c.Param("id"), patch, currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, message, gin.H{"content": content})
}

// Versions handles GET /api/v1/content/:id/versions
func (h *ContentHandler) Versions(c *gin.Context) {
	versions, err := h.services.Content.History(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Version history", gin.H{"versions": versions})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
