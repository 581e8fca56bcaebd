package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/knowledge-base-api/internal/service"
	"github.com/rs/zerolog"
)

// SearchHandler handles search and suggestion endpoints
type SearchHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(services *service.Services, log zerolog.Logger) *SearchHandler {
	return &SearchHandler{
		services: services,
		log:      log.With().Str("handler", "search").Logger(),
	}
}

// Search handles GET /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	results, err := h.services.Search.Search(c.Request.Context(),
		c.Query("q"), c.Query("category"), intQuery(c, "limit", 20))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Search results", gin.H{
		"results": results,
		"count":   len(results),
	})
}

// Suggest handles GET /api/v1/search/suggest
func (h *SearchHandler) Suggest(c *gin.Context) {
	suggestions, err := h.services.Search.Suggest(c.Request.Context(),
		c.Query("q"), intQuery(c, "limit", 10))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Suggestions", gin.H{"suggestions": suggestions})
}
