package handlers

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/kalpovskii/todos/internal/logging"
)

const apiPrefix = "/api"

// NewRouter registers the todo API and falls back to files under
// staticDir for everything outside /api. An empty staticDir disables the
// fallback.
func NewRouter(service TodoService, staticDir string, logger *log.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(logging.Middleware(logger), gin.CustomRecovery(func(c *gin.Context, err any) {
		logger.Error("panic while handling request", "path", c.Request.URL.Path, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}))

	h := NewTodoHandler(service)
	api := r.Group(apiPrefix)
	{
		api.GET("/todos", h.List)
		api.POST("/todos", h.Create)
		api.PUT("/todos/:id", h.Update)
		api.DELETE("/todos/:id", h.Delete)
	}

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method Not Allowed"})
	})
	r.NoRoute(staticFallback(staticDir))

	return r
}

func staticFallback(staticDir string) gin.HandlerFunc {
	var files http.Handler
	if staticDir != "" {
		files = http.FileServer(gin.Dir(staticDir, false))
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		isAPI := path == apiPrefix || strings.HasPrefix(path, apiPrefix+"/")
		isRead := c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead

		if isAPI || !isRead || files == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}
