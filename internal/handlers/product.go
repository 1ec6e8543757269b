package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/ChuChu19999/Baraholka/internal/models"
	"github.com/ChuChu19999/Baraholka/internal/mykafka"
	"github.com/ChuChu19999/Baraholka/internal/service"
	essearch "github.com/ChuChu19999/Baraholka/internal/service/search"
	"github.com/ChuChu19999/Baraholka/internal/transport"
	"github.com/ChuChu19999/Baraholka/internal/util"
)

type ProductHandler struct {
	DB        *gorm.DB
	Producer  *mykafka.Producer
	ES        *elasticsearch.Client
	Index     string
	UploadDir string
}

func (h *ProductHandler) publish(c echo.Context, event map[string]interface{}) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ProductHandler) indexProduct(c echo.Context, p *models.Product) {
	if h.ES == nil {
		return
	}
	doc := essearch.ProductDoc{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Slug:        p.Slug,
		Status:      p.Status,
	}
	if err := essearch.IndexProduct(c.Request().Context(), h.ES, h.Index, doc); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

func (h *ProductHandler) deindexProduct(c echo.Context, id uint) {
	if h.ES == nil {
		return
	}
	if err := essearch.DeleteProduct(c.Request().Context(), h.ES, h.Index, id); err != nil {
		c.Logger().Errorf("ES delete error: %v", err)
	}
}

func (h *ProductHandler) preloaded() *gorm.DB {
	return h.DB.
		Preload("Category").
		Preload("Subcategory").
		Preload("Seller").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		})
}

var orderings = map[string]string{
	"price":        "price ASC",
	"-price":       "price DESC",
	"created_at":   "created_at ASC",
	"-created_at":  "created_at DESC",
	"views_count":  "views_count ASC",
	"-views_count": "views_count DESC",
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	q := h.preloaded().Model(&models.Product{})

	// Без явного статуса наружу уходят только активные объявления.
	if status := c.QueryParam("status"); status != "" {
		q = q.Where("status = ?", status)
	} else {
		q = q.Where("status = ?", models.StatusActive)
	}

	// Нечисловые границы цены молча игнорируются.
	if raw := c.QueryParam("minPrice"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			q = q.Where("price >= ?", v)
		}
	}
	if raw := c.QueryParam("maxPrice"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			q = q.Where("price <= ?", v)
		}
	}

	// Категория матчит и собственную категорию товара, и родителя
	// его подкатегории.
	if category := c.QueryParam("category"); category != "" {
		sub := h.DB.Model(&models.Category{}).Select("id").Where("parent_id = ?", category)
		q = q.Where("category_id = ? OR subcategory_id IN (?)", category, sub)
	}

	if subcategory := c.QueryParam("subcategory"); subcategory != "" {
		q = q.Where("subcategory_id = ?", subcategory)
	}

	if search := c.QueryParam("search"); search != "" {
		pattern := "%" + search + "%"
		q = q.Where("LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern)
	}

	order, ok := orderings[c.QueryParam("ordering")]
	if !ok {
		order = "created_at DESC"
	}
	q = q.Order(order)

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	var items []models.Product
	if err := q.Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	dtos := make([]transport.ProductSummaryDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, transport.NewProductSummaryDTO(&items[i]))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": dtos,
		"meta": map[string]interface{}{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	var product models.Product
	if err := h.preloaded().Where("slug = ?", c.Param("slug")).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "товар не найден")
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	userID, authenticated := service.CurrentUserID(c)
	isOwner := authenticated && userID == product.SellerID

	if product.Status != models.StatusActive && !isOwner {
		return echo.NewHTTPError(http.StatusForbidden, "у вас нет прав для просмотра этого товара")
	}

	// Просмотры владельца не считаются.
	if !isOwner {
		var viewer *uint
		if authenticated {
			viewer = &userID
		}
		if err := h.recordView(&product, viewer, util.ClientIP(c.Request())); err != nil {
			c.Logger().Errorf("record view error: %v", err)
		}
	}

	isFavorite := false
	if authenticated {
		var count int64
		h.DB.Model(&models.Favorite{}).
			Where("user_id = ? AND product_id = ?", userID, product.ID).
			Count(&count)
		isFavorite = count > 0
	}

	return c.JSON(http.StatusOK, transport.NewProductDetailDTO(&product, isFavorite))
}

type productForm struct {
	Title       string
	Description string
	Price       string
	Category    string
	Subcategory string
	Condition   string
	Status      string
	Location    string
}

func bindProductForm(c echo.Context) productForm {
	return productForm{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Price:       c.FormValue("price"),
		Category:    c.FormValue("category"),
		Subcategory: c.FormValue("subcategory"),
		Condition:   c.FormValue("condition"),
		Status:      c.FormValue("status"),
		Location:    c.FormValue("location"),
	}
}

// applyProductForm валидирует форму и раскладывает её по модели.
// Ошибки возвращаются по полям, как их ждёт фронт.
func (h *ProductHandler) applyProductForm(form productForm, product *models.Product, partial bool) map[string]string {
	errs := map[string]string{}

	if form.Title != "" {
		product.Title = form.Title
	} else if !partial {
		errs["title"] = "Обязательное поле"
	}

	if form.Description != "" {
		product.Description = form.Description
	} else if !partial {
		errs["description"] = "Обязательное поле"
	}

	if form.Price != "" {
		price, err := strconv.ParseFloat(form.Price, 64)
		if err != nil || price < 0 {
			errs["price"] = "Цена должна быть неотрицательным числом"
		} else {
			product.Price = price
		}
	} else if !partial {
		errs["price"] = "Обязательное поле"
	}

	if form.Location != "" {
		product.Location = form.Location
	}

	switch form.Condition {
	case "":
		if !partial {
			product.Condition = models.ConditionNew
		}
	case models.ConditionNew, models.ConditionUsed:
		product.Condition = form.Condition
	default:
		errs["condition"] = "Недопустимое состояние товара"
	}

	switch form.Status {
	case "":
		if !partial {
			product.Status = models.StatusActive
		}
	case models.StatusActive, models.StatusSold, models.StatusArchived:
		product.Status = form.Status
	default:
		errs["status"] = "Недопустимый статус объявления"
	}

	if form.Category != "" {
		categoryID, err := strconv.Atoi(form.Category)
		if err != nil {
			errs["category"] = "Категория указана неверно"
		} else {
			var category models.Category
			if err := h.DB.Where("id = ? AND parent_id IS NULL", categoryID).First(&category).Error; err != nil {
				errs["category"] = "Категория не найдена"
			} else {
				product.CategoryID = category.ID
			}
		}
	} else if !partial {
		errs["category"] = "Обязательное поле"
	}

	if form.Subcategory != "" {
		subID, err := strconv.Atoi(form.Subcategory)
		if err != nil {
			errs["subcategory"] = "Подкатегория указана неверно"
		} else {
			var sub models.Category
			if err := h.DB.First(&sub, subID).Error; err != nil {
				errs["subcategory"] = "Подкатегория не найдена"
			} else if sub.ParentID == nil || *sub.ParentID != product.CategoryID {
				errs["subcategory"] = "Подкатегория должна принадлежать выбранной категории"
			} else {
				id := sub.ID
				product.SubcategoryID = &id
			}
		}
	}

	return errs
}

func (h *ProductHandler) saveImages(tx *gorm.DB, product *models.Product, files []*multipart.FileHeader) error {
	dir := filepath.Join(h.UploadDir, "products")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for i, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return err
		}

		name := uuid.NewString() + filepath.Ext(fh.Filename)
		dst, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			src.Close()
			return err
		}
		_, err = io.Copy(dst, src)
		src.Close()
		dst.Close()
		if err != nil {
			return err
		}

		image := models.ProductImage{
			ProductID: product.ID,
			Image:     "/uploads/products/" + name,
			Order:     i,
		}
		if err := tx.Create(&image).Error; err != nil {
			return err
		}
	}
	return nil
}

func (h *ProductHandler) dropImages(tx *gorm.DB, product *models.Product) error {
	var images []models.ProductImage
	if err := tx.Where("product_id = ?", product.ID).Find(&images).Error; err != nil {
		return err
	}
	for _, img := range images {
		name := filepath.Base(img.Image)
		_ = os.Remove(filepath.Join(h.UploadDir, "products", name))
	}
	return tx.Where("product_id = ?", product.ID).Delete(&models.ProductImage{}).Error
}

func formFiles(c echo.Context) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File["images"]
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	userID, ok := service.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	// Продавцом всегда становится автор запроса.
	product := models.Product{SellerID: userID}

	if errs := h.applyProductForm(bindProductForm(c), &product, false); len(errs) > 0 {
		return validationError(c, errs)
	}

	slug, err := util.UniqueSlug(h.DB, &models.Product{}, util.Slugify(product.Title))
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	product.Slug = slug

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		return h.saveImages(tx, &product, formFiles(c))
	})
	if txErr != nil {
		return errorResponse(c, http.StatusBadRequest, txErr)
	}

	h.publish(c, map[string]interface{}{
		"type":      "product_created",
		"productID": product.ID,
		"sellerID":  product.SellerID,
		"title":     product.Title,
	})
	h.indexProduct(c, &product)

	if err := h.preloaded().First(&product, product.ID).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusCreated, transport.NewProductDetailDTO(&product, false))
}

func (h *ProductHandler) ownProduct(c echo.Context) (*models.Product, uint, error) {
	userID, ok := service.CurrentUserID(c)
	if !ok {
		return nil, 0, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var product models.Product
	if err := h.DB.Where("slug = ?", c.Param("slug")).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, echo.NewHTTPError(http.StatusNotFound, "товар не найден")
		}
		return nil, 0, errorResponse(c, http.StatusInternalServerError, err)
	}

	if product.SellerID != userID {
		return nil, 0, echo.NewHTTPError(http.StatusForbidden, "вы не являетесь владельцем этого товара")
	}

	return &product, userID, nil
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	product, _, err := h.ownProduct(c)
	if err != nil {
		return err
	}

	if errs := h.applyProductForm(bindProductForm(c), product, true); len(errs) > 0 {
		return validationError(c, errs)
	}

	files := formFiles(c)
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(product).Error; err != nil {
			return err
		}
		// Новые изображения заменяют весь набор целиком.
		if len(files) > 0 {
			if err := h.dropImages(tx, product); err != nil {
				return err
			}
			return h.saveImages(tx, product, files)
		}
		return nil
	})
	if txErr != nil {
		return errorResponse(c, http.StatusBadRequest, txErr)
	}

	h.publish(c, map[string]interface{}{
		"type":      "product_updated",
		"productID": product.ID,
		"title":     product.Title,
	})
	h.indexProduct(c, product)

	if err := h.preloaded().First(product, product.ID).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, transport.NewProductDetailDTO(product, false))
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	product, _, err := h.ownProduct(c)
	if err != nil {
		return err
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := h.dropImages(tx, product); err != nil {
			return err
		}
		return tx.Delete(product).Error
	})
	if txErr != nil {
		return errorResponse(c, http.StatusInternalServerError, txErr)
	}

	h.publish(c, map[string]interface{}{
		"type":      "product_deleted",
		"productID": product.ID,
	})
	h.deindexProduct(c, product.ID)

	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) ToggleFavorite(c echo.Context) error {
	userID, ok := service.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var product models.Product
	if err := h.DB.Where("slug = ?", c.Param("slug")).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "товар не найден")
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	var favorite models.Favorite
	err := h.DB.Where("user_id = ? AND product_id = ?", userID, product.ID).First(&favorite).Error
	if err == nil {
		if err := h.DB.Delete(&favorite).Error; err != nil {
			return errorResponse(c, http.StatusInternalServerError, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "removed from favorites"})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	if product.Status != models.StatusActive {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Нельзя добавить в избранное неактивное объявление",
		})
	}

	favorite = models.Favorite{UserID: userID, ProductID: product.ID}
	if err := h.DB.Create(&favorite).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "added to favorites"})
}

// MyProducts отдаёт объявления автора запроса в любом статусе.
func (h *ProductHandler) MyProducts(c echo.Context) error {
	userID, ok := service.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var items []models.Product
	if err := h.preloaded().
		Where("seller_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	dtos := make([]transport.ProductSummaryDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, transport.NewProductSummaryDTO(&items[i]))
	}
	return c.JSON(http.StatusOK, dtos)
}
