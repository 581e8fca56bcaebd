package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/knowledge-base-api/internal/models"
	"github.com/knowledge-base-api/internal/service"
	"github.com/rs/zerolog"
)

const userContextKey = "current_user"

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	authHandler := NewAuthHandler(services, log)
	contentHandler := NewContentHandler(services, log)
	taxonomyHandler := NewTaxonomyHandler(services, log)
	searchHandler := NewSearchHandler(services, log)

	requireAuth := authMiddleware(services, log, true)
	optionalAuth := authMiddleware(services, log, false)

	// Health check
	router.GET("/health", healthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
		}
		v1.GET("/users/me", requireAuth, authHandler.Me)

		content := v1.Group("/content")
		{
			content.GET("", optionalAuth, contentHandler.List)
			content.POST("", requireAuth, contentHandler.Create)
			content.GET("/:id", optionalAuth, contentHandler.Get)
			content.PUT("/:id", requireAuth, contentHandler.Update)
			content.DELETE("/:id", requireAuth, contentHandler.Delete)
			content.POST("/:id/publish", requireAuth, contentHandler.Publish)
			content.POST("/:id/archive", requireAuth, contentHandler.Archive)
			content.GET("/:id/versions", optionalAuth, contentHandler.Versions)
		}
		v1.GET("/slug/:slug", optionalAuth, contentHandler.GetBySlug)

		categories := v1.Group("/categories")
		{
			categories.GET("", taxonomyHandler.ListCategories)
			categories.GET("/:id", taxonomyHandler.GetCategory)
			categories.POST("", requireAuth, taxonomyHandler.CreateCategory)
			categories.PUT("/:id", requireAuth, taxonomyHandler.UpdateCategory)
			categories.DELETE("/:id", requireAuth, taxonomyHandler.DeleteCategory)
		}

		v1.GET("/tags", taxonomyHandler.ListTags)

		search := v1.Group("/search")
		{
			search.GET("", searchHandler.Search)
			search.GET("/suggestions", searchHandler.Suggest)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "knowledge-base-api",
	})
}

// authMiddleware resolves the bearer token to a user. When required is
// false the request proceeds anonymously without a token; an invalid
// token is rejected either way.
func authMiddleware(services *service.Services, log zerolog.Logger, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
					Success: false,
					Message: "Authentication required",
				})
				return
			}
			c.Next()
			return
		}

		user, err := services.Auth.IdentityFromToken(c.Request.Context(), tokenString)
		if err != nil {
			respondError(c, log, err)
			c.Abort()
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// currentUser returns the authenticated user, or nil on anonymous requests
func currentUser(c *gin.Context) *models.User {
	value, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, Response{
					Success: false,
					Message: "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
