package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/ChuChu19999/Baraholka/internal/hash"
	"github.com/ChuChu19999/Baraholka/internal/models"
	"github.com/ChuChu19999/Baraholka/internal/mykafka"
	"github.com/ChuChu19999/Baraholka/internal/phone"
	"github.com/ChuChu19999/Baraholka/internal/service"
	"github.com/ChuChu19999/Baraholka/internal/transport"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *service.TokenService
	Producer *mykafka.Producer
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

type registerRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Password2   string `json:"password2"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	errs := map[string]string{}

	if req.Username == "" {
		errs["username"] = "Обязательное поле"
	} else if !usernameRe.MatchString(req.Username) {
		errs["username"] = "Имя пользователя может содержать только буквы, цифры и знак подчеркивания"
	}

	if len(req.Password) < 8 {
		errs["password"] = "Пароль должен содержать не менее 8 символов"
	} else if req.Password != req.Password2 {
		errs["password"] = "Пароли не совпадают"
	}

	if req.Email == "" || !strings.Contains(req.Email, "@") {
		errs["email"] = "Введите корректный email"
	}
	if req.FirstName == "" {
		errs["first_name"] = "Обязательное поле"
	}
	if req.LastName == "" {
		errs["last_name"] = "Обязательное поле"
	}

	normalizedPhone, err := phone.Normalize(req.PhoneNumber)
	if err != nil {
		errs["phone_number"] = err.Error()
	}

	if len(errs) == 0 {
		var count int64
		if err := h.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
			return errorResponse(c, http.StatusInternalServerError, err)
		}
		if count > 0 {
			errs["email"] = "Пользователь с таким email уже существует"
		}

		if err := h.DB.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
			return errorResponse(c, http.StatusInternalServerError, err)
		}
		if count > 0 {
			errs["username"] = "Пользователь с таким именем уже существует"
		}
	}

	if len(errs) > 0 {
		return validationError(c, errs)
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         "user",
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile := models.UserProfile{
			UserID:      user.ID,
			PhoneNumber: normalizedPhone,
		}
		return tx.Create(&profile).Error
	})
	if txErr != nil {
		// Причина остаётся в логах, наружу уходит общий ответ.
		c.Logger().Errorf("register: create user failed: %v", txErr)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"detail": "Произошла ошибка при регистрации пользователя",
		})
	}

	access, refresh, err := h.Tokens.IssuePair(user.ID, user.Role)
	if err != nil {
		c.Logger().Errorf("register: issue tokens failed: %v", err)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"detail": "Произошла ошибка при регистрации пользователя",
		})
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]interface{}{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, transport.TokenPairDTO{
		User:    transport.NewUserDTO(&user, normalizedPhone),
		Token:   access,
		Refresh: refresh,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "неверное имя пользователя или пароль")
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "неверное имя пользователя или пароль")
	}

	access, refresh, err := h.Tokens.IssuePair(user.ID, user.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create tokens")
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]interface{}{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  access,
		"refresh_token": refresh,
		"is_admin":      user.Role == "admin",
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.Bind(&req); err != nil || req.Refresh == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh token missing")
	}

	access, refresh, err := h.Tokens.RotateToken(req.Refresh)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "cannot rotate token: "+err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.Bind(&req); err != nil || req.Refresh == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh token missing")
	}

	if err := h.Tokens.RevokeRefresh(req.Refresh); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "token not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
