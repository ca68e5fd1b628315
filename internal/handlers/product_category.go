package handlers

import (
	"net/http"
	"strconv"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"github.com/developia-II/vendora-onboarding/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxCategoryLimit = 100

type CategoryHandler struct {
	categories   domain.CategoryRepository
	defaultLimit int
}

func NewCategoryHandler(categories domain.CategoryRepository, defaultLimit int) *CategoryHandler {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &CategoryHandler{categories: categories, defaultLimit: defaultLimit}
}

// GetAllProductCategories handles GET /categories?limit=n, sorted by name.
func (h *CategoryHandler) GetAllProductCategories(c *gin.Context) {
	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("limit must be a positive integer"))
			return
		}
		limit = min(n, maxCategoryLimit)
	}

	categories, err := h.categories.List(c.Request.Context(), limit)
	if err != nil {
		logrus.WithError(err).Error("list categories failed")
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("failed to fetch categories"))
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("categories fetched successfully", categories))
}
