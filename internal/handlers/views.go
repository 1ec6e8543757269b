package handlers

import (
	"time"

	"gorm.io/gorm/clause"

	"github.com/ChuChu19999/Baraholka/internal/models"
)

// recordView засчитывает просмотр не чаще раза в календарные сутки на
// посетителя: авторизованного считаем по user_id, анонимного по IP.
// Уникальные индексы по (товар, посетитель, день) делают вставку
// идемпотентной, ON CONFLICT DO NOTHING закрывает гонку параллельных
// запросов. После вставки счётчик пересчитывается как число строк.
func (h *ProductHandler) recordView(product *models.Product, userID *uint, ip string) error {
	now := time.Now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	view := models.ProductView{
		ProductID: product.ID,
		Day:       day,
		ViewedAt:  now,
	}
	if userID != nil {
		view.UserID = userID
	} else {
		view.IPAddress = &ip
	}

	if err := h.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&view).Error; err != nil {
		return err
	}

	var total int64
	if err := h.DB.Model(&models.ProductView{}).
		Where("product_id = ?", product.ID).
		Count(&total).Error; err != nil {
		return err
	}

	product.ViewsCount = uint(total)
	return h.DB.Model(&models.Product{}).
		Where("id = ?", product.ID).
		Update("views_count", total).Error
}
