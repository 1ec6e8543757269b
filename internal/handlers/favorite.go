package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/ChuChu19999/Baraholka/internal/models"
	"github.com/ChuChu19999/Baraholka/internal/service"
	"github.com/ChuChu19999/Baraholka/internal/transport"
)

type FavoriteHandler struct {
	DB *gorm.DB
}

// GetFavorites показывает избранное автора запроса; товары, переставшие
// быть активными, из выдачи выпадают, сами записи остаются.
func (h *FavoriteHandler) GetFavorites(c echo.Context) error {
	userID, ok := service.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var favorites []models.Favorite
	if err := h.DB.
		Joins("JOIN products ON products.id = favorites.product_id").
		Where("favorites.user_id = ? AND products.status = ?", userID, models.StatusActive).
		Preload("Product.Category").
		Preload("Product.Subcategory").
		Preload("Product.Seller").
		Preload("Product.Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		Order("favorites.created_at DESC").
		Find(&favorites).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	dtos := make([]transport.FavoriteDTO, 0, len(favorites))
	for i := range favorites {
		dtos = append(dtos, transport.NewFavoriteDTO(&favorites[i]))
	}
	return c.JSON(http.StatusOK, dtos)
}

func (h *FavoriteHandler) CreateFavorite(c echo.Context) error {
	userID, ok := service.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req struct {
		ProductID uint `json:"product_id"`
	}
	if err := c.Bind(&req); err != nil || req.ProductID == 0 {
		return validationError(c, map[string]string{"product_id": "Обязательное поле"})
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "товар не найден")
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	if product.Status != models.StatusActive {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Нельзя добавить в избранное неактивное объявление",
		})
	}

	var count int64
	if err := h.DB.Model(&models.Favorite{}).
		Where("user_id = ? AND product_id = ?", userID, product.ID).
		Count(&count).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if count > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Товар уже в избранном"})
	}

	favorite := models.Favorite{UserID: userID, ProductID: product.ID}
	if err := h.DB.Create(&favorite).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	favorite.Product = product
	return c.JSON(http.StatusCreated, transport.NewFavoriteDTO(&favorite))
}

func (h *FavoriteHandler) DeleteFavorite(c echo.Context) error {
	userID, ok := service.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var favorite models.Favorite
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&favorite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "запись не найдена")
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	if err := h.DB.Delete(&favorite).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}
