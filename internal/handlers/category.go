package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/ChuChu19999/Baraholka/internal/models"
	"github.com/ChuChu19999/Baraholka/internal/transport"
	"github.com/ChuChu19999/Baraholka/internal/util"
)

type CategoryHandler struct {
	DB *gorm.DB
}

// GetCategories отдаёт двухуровневое дерево: корневые категории с
// вложенными подкатегориями, без пагинации.
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	var categories []models.Category
	if err := h.DB.
		Where("parent_id IS NULL").
		Order("name ASC").
		Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		Find(&categories).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	dtos := make([]transport.CategoryDTO, 0, len(categories))
	for i := range categories {
		dtos = append(dtos, transport.NewCategoryDTO(&categories[i]))
	}
	return c.JSON(http.StatusOK, dtos)
}

func (h *CategoryHandler) GetCategory(c echo.Context) error {
	var category models.Category
	if err := h.DB.
		Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		Where("slug = ?", c.Param("slug")).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "категория не найдена")
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, transport.NewCategoryDTO(&category))
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parent      *uint  `json:"parent"`
	Icon        string `json:"icon"`
}

func (h *CategoryHandler) checkParent(parentID *uint) (string, bool) {
	if parentID == nil {
		return "", true
	}
	var parent models.Category
	if err := h.DB.First(&parent, *parentID).Error; err != nil {
		return "родительская категория не найдена", false
	}
	// Дерево ограничено двумя уровнями.
	if parent.ParentID != nil {
		return "родительская категория не может быть подкатегорией", false
	}
	return "", true
}

func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	if req.Name == "" {
		return validationError(c, map[string]string{"name": "Обязательное поле"})
	}
	if msg, ok := h.checkParent(req.Parent); !ok {
		return validationError(c, map[string]string{"parent": msg})
	}

	slug, err := util.UniqueSlug(h.DB, &models.Category{}, util.Slugify(req.Name))
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	category := models.Category{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.Parent,
		Slug:        slug,
		Icon:        req.Icon,
	}
	if err := h.DB.Create(&category).Error; err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	return c.JSON(http.StatusCreated, transport.NewCategoryDTO(&category))
}

func (h *CategoryHandler) PatchCategory(c echo.Context) error {
	var category models.Category
	if err := h.DB.Where("slug = ?", c.Param("slug")).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "категория не найдена")
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	if req.Name != "" {
		category.Name = req.Name
	}
	if req.Description != "" {
		category.Description = req.Description
	}
	if req.Icon != "" {
		category.Icon = req.Icon
	}
	if req.Parent != nil {
		if msg, ok := h.checkParent(req.Parent); !ok {
			return validationError(c, map[string]string{"parent": msg})
		}
		category.ParentID = req.Parent
	}

	if err := h.DB.Save(&category).Error; err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	return c.JSON(http.StatusOK, transport.NewCategoryDTO(&category))
}

func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	var category models.Category
	if err := h.DB.Where("slug = ?", c.Param("slug")).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "категория не найдена")
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	if err := h.DB.Delete(&category).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	return c.NoContent(http.StatusNoContent)
}
