package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/b9ops/dashboard/internal/db"
	"github.com/b9ops/dashboard/pkg/logging"
)

// CategoryHandler serves the category list used by filter toolbars.
type CategoryHandler struct {
	categories *db.CategoryRepository
	logger     *zap.Logger
}

// NewCategoryHandler creates the category handler.
func NewCategoryHandler(categories *db.CategoryRepository) *CategoryHandler {
	return &CategoryHandler{
		categories: categories,
		logger:     logging.GetLogger().With(zap.String("component", "category-handler")),
	}
}

// List handles GET /api/categories
func (h *CategoryHandler) List(c *gin.Context) {
	cats, err := h.categories.List(c.Request.Context())
	if err != nil {
		h.logger.Error("category fetch failed", zap.Error(err))
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": cats})
}
