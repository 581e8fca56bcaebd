package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/knowledge-base-api/internal/models"
	"github.com/knowledge-base-api/internal/service"
	"github.com/rs/zerolog"
)

// TaxonomyHandler handles category and tag endpoints
type TaxonomyHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewTaxonomyHandler creates a new TaxonomyHandler
func NewTaxonomyHandler(services *service.Services, log zerolog.Logger) *TaxonomyHandler {
	return &TaxonomyHandler{
		services: services,
		log:      log.With().Str("handler", "taxonomy").Logger(),
	}
}

// ListCategories handles GET /api/v1/categories
func (h *TaxonomyHandler) ListCategories(c *gin.Context) {
	categories, err := h.services.Taxonomy.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Categories", gin.H{"categories": categories})
}

// GetCategory handles GET /api/v1/categories/:id
func (h *TaxonomyHandler) GetCategory(c *gin.Context) {
	category, err := h.services.Taxonomy.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Category", gin.H{"category": category})
}

// CreateCategory handles POST /api/v1/categories
func (h *TaxonomyHandler) CreateCategory(c *gin.Context) {
	var input models.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	category, err := h.services.Taxonomy.CreateCategory(c.Request.Context(), &input, currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Category created", gin.H{"category": category})
}

// UpdateCategory handles PUT /api/v1/categories/:id
func (h *TaxonomyHandler) UpdateCategory(c *gin.Context) {
	var input models.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	category, err := h.services.Taxonomy.UpdateCategory(c.Request.Context(), c.Param("id"), &input, currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Category updated", gin.H{"category": category})
}

// DeleteCategory handles DELETE /api/v1/categories/:id
func (h *TaxonomyHandler) DeleteCategory(c *gin.Context) {
	if err := h.services.Taxonomy.DeleteCategory(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Category deleted", nil)
}

// ListTags handles GET /api/v1/tags
func (h *TaxonomyHandler) ListTags(c *gin.Context) {
	tags, err := h.services.Taxonomy.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Tags", gin.H{"tags": tags})
}
