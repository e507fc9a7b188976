package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/kalpovskii/todos/internal/app/models"
	"github.com/kalpovskii/todos/internal/app/repositories"
	"github.com/kalpovskii/todos/internal/app/services"
)

type TodoService interface {
	List(ctx context.Context) ([]models.Todo, error)
	Create(ctx context.Context, req models.CreateTodoRequest) (*models.Todo, error)
	Update(ctx context.Context, id string, patch models.TodoPatch) (*models.Todo, error)
	Delete(ctx context.Context, id string) error
}

type TodoHandler struct {
	service TodoService
}

func NewTodoHandler(service TodoService) *TodoHandler {
	return &TodoHandler{service: service}
}

func (h *TodoHandler) List(c *gin.Context) {
	todos, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, todos)
}

func (h *TodoHandler) Create(c *gin.Context) {
	var req models.CreateTodoRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	todo, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, todo)
}

func (h *TodoHandler) Update(c *gin.Context) {
	var patch models.TodoPatch
	if err := bindOptionalJSON(c, &patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	todo, err := h.service.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindOptionalJSON treats a missing or blank body, or one that is not
// declared as JSON, as {}.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil || !isJSONContentType(c.ContentType()) {
		return nil
	}
	data, err := c.GetRawData()
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return binding.JSON.BindBody(data, obj)
}

func isJSONContentType(ct string) bool {
	return ct == binding.MIMEJSON || strings.HasSuffix(ct, "+json")
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTitleRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
	case errors.Is(err, services.ErrNullField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrTodoNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
	case errors.Is(err, repositories.ErrCorruptStore):
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage is corrupt"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
