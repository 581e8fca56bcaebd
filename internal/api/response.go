package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/knowledge-base-api/internal/models"
	"github.com/rs/zerolog"
)

// Response is the envelope every endpoint returns
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Pagination describes the page of a list response
type Pagination struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// NewPagination computes page metadata from a total row count
func NewPagination(page, perPage, total int) Pagination {
	totalPages := 0
	if perPage > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	return Pagination{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}

func respondSuccess(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func respondList(c *gin.Context, message string, key string, items any, pagination Pagination) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: message,
		Data: gin.H{
			key:          items,
			"pagination": pagination,
		},
	})
}

// respondError maps a service error onto the envelope with its HTTP status.
// Store failures are logged and surfaced as an opaque 500.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var (
		validation   *models.ValidationError
		notFound     *models.NotFoundError
		unauthorized *models.UnauthorizedError
		forbidden    *models.ForbiddenError
		conflict     *models.ConflictError
		store        *models.StoreError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, Response{
			Success: false,
			Message: "Validation failed",
			Errors:  validation.Fields,
		})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Message: notFound.Error(),
		})
	case errors.As(err, &unauthorized):
		c.JSON(http.StatusUnauthorized, Response{
			Success: false,
			Message: unauthorized.Error(),
		})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, Response{
			Success: false,
			Message: forbidden.Error(),
		})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, Response{
			Success: false,
			Message: conflict.Error(),
		})
	case errors.As(err, &store):
		log.Error().Err(store.Err).Str("op", store.Op).Msg("Store operation failed")
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Message: "Internal server error",
		})
	default:
		log.Error().Err(err).Msg("Unhandled error")
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Message: "Internal server error",
		})
	}
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Message: message,
	})
}
