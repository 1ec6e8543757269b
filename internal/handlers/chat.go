package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ChuChu19999/Baraholka/internal/models"
	"github.com/ChuChu19999/Baraholka/internal/mykafka"
	"github.com/ChuChu19999/Baraholka/internal/service"
	"github.com/ChuChu19999/Baraholka/internal/transport"
)

type ChatHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *ChatHandler) publish(c echo.Context, event map[string]interface{}) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "chat_events", fmt.Sprint(event["chatID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ChatHandler) preloaded() *gorm.DB {
	return h.DB.
		Preload("Participants").
		Preload("Product.Category").
		Preload("Product.Subcategory").
		Preload("Product.Seller").
		Preload("Product.Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		})
}

func (h *ChatHandler) chatDTO(chat *models.Chat, userID uint) (transport.ChatDTO, error) {
	var last models.Message
	var lastPtr *models.Message
	err := h.DB.Preload("Sender").
		Where("chat_id = ?", chat.ID).
		Order("created_at DESC").
		First(&last).Error
	if err == nil {
		lastPtr = &last
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return transport.ChatDTO{}, err
	}

	var unread int64
	if err := h.DB.Model(&models.Message{}).
		Where("chat_id = ? AND is_read = ? AND sender_id <> ?", chat.ID, false, userID).
		Count(&unread).Error; err != nil {
		return transport.ChatDTO{}, err
	}

	return transport.NewChatDTO(chat, lastPtr, unread), nil
}

func (h *ChatHandler) GetChats(c echo.Context) error {
	userID, ok := service.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var chats []models.Chat
	if err := h.preloaded().
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&chats).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	dtos := make([]transport.ChatDTO, 0, len(chats))
	for i := range chats {
		dto, err := h.chatDTO(&chats[i], userID)
		if err != nil {
			return errorResponse(c, http.StatusInternalServerError, err)
		}
		dtos = append(dtos, dto)
	}
	return c.JSON(http.StatusOK, dtos)
}

// CreateChat идемпотентен: на пару (товар, покупатель) существует не
// больше одного чата, это гарантирует уникальный индекс.
func (h *ChatHandler) CreateChat(c echo.Context) error {
	userID, ok := service.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req struct {
		Product uint `json:"product"`
	}
	if err := c.Bind(&req); err != nil || req.Product == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Необходимо указать товар"})
	}

	var product models.Product
	if err := h.DB.First(&product, req.Product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "товар не найден")
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	if product.SellerID == userID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Нельзя открыть чат с самим собой"})
	}

	chat := models.Chat{
		ProductID: product.ID,
		BuyerID:   userID,
		SellerID:  product.SellerID,
	}

	created := false
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&chat)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Чат уже есть, отдаём существующий.
			return tx.Where("product_id = ? AND buyer_id = ?", product.ID, userID).
				First(&chat).Error
		}
		created = true

		var buyer, seller models.User
		if err := tx.First(&buyer, userID).Error; err != nil {
			return err
		}
		if err := tx.First(&seller, product.SellerID).Error; err != nil {
			return err
		}
		return tx.Model(&chat).Association("Participants").Append(&buyer, &seller)
	})
	if txErr != nil {
		return errorResponse(c, http.StatusInternalServerError, txErr)
	}

	if created {
		h.publish(c, map[string]interface{}{
			"type":      "chat_created",
			"chatID":    chat.ID,
			"productID": product.ID,
			"buyerID":   userID,
		})
	}

	if err := h.preloaded().First(&chat, chat.ID).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	dto, err := h.chatDTO(&chat, userID)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if created {
		return c.JSON(http.StatusCreated, dto)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ChatHandler) memberChat(c echo.Context) (*models.Chat, uint, error) {
	userID, ok := service.CurrentUserID(c)
	if !ok {
		return nil, 0, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return nil, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid chat id")
	}

	var chat models.Chat
	if err := h.DB.First(&chat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, echo.NewHTTPError(http.StatusNotFound, "чат не найден")
		}
		return nil, 0, errorResponse(c, http.StatusInternalServerError, err)
	}

	if chat.BuyerID != userID && chat.SellerID != userID {
		return nil, 0, echo.NewHTTPError(http.StatusForbidden, "вы не являетесь участником этого чата")
	}

	return &chat, userID, nil
}

func (h *ChatHandler) GetMessages(c echo.Context) error {
	chat, _, err := h.memberChat(c)
	if err != nil {
		return err
	}

	var messages []models.Message
	if err := h.DB.Preload("Sender").
		Where("chat_id = ?", chat.ID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	dtos := make([]transport.MessageDTO, 0, len(messages))
	for i := range messages {
		dtos = append(dtos, transport.NewMessageDTO(&messages[i]))
	}
	return c.JSON(http.StatusOK, dtos)
}

func (h *ChatHandler) CreateMessage(c echo.Context) error {
	chat, userID, err := h.memberChat(c)
	if err != nil {
		return err
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&req); err != nil || req.Text == "" {
		return validationError(c, map[string]string{"text": "Обязательное поле"})
	}

	message := models.Message{
		ChatID:   chat.ID,
		SenderID: userID,
		Text:     req.Text,
	}
	if err := h.DB.Create(&message).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	h.publish(c, map[string]interface{}{
		"type":      "message_sent",
		"chatID":    chat.ID,
		"messageID": message.ID,
		"senderID":  userID,
	})

	if err := h.DB.Preload("Sender").First(&message, message.ID).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusCreated, transport.NewMessageDTO(&message))
}

// MarkAsRead помечает прочитанными все чужие сообщения чата.
func (h *ChatHandler) MarkAsRead(c echo.Context) error {
	chat, userID, err := h.memberChat(c)
	if err != nil {
		return err
	}

	if err := h.DB.Model(&models.Message{}).
		Where("chat_id = ? AND is_read = ? AND sender_id <> ?", chat.ID, false, userID).
		Update("is_read", true).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "messages marked as read"})
}
