package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/ChuChu19999/Baraholka/internal/models"
	"github.com/ChuChu19999/Baraholka/internal/phone"
	"github.com/ChuChu19999/Baraholka/internal/service"
	"github.com/ChuChu19999/Baraholka/internal/transport"
)

type ProfileHandler struct {
	DB *gorm.DB
}

func (h *ProfileHandler) load(c echo.Context) (*models.User, *models.UserProfile, error) {
	userID, ok := service.CurrentUserID(c)
	if !ok {
		return nil, nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusNotFound, "пользователь не найден")
	}

	var profile models.UserProfile
	if err := h.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusNotFound, "профиль не найден")
	}

	return &user, &profile, nil
}

func (h *ProfileHandler) GetProfile(c echo.Context) error {
	user, profile, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.NewProfileDTO(user, profile))
}

func (h *ProfileHandler) PatchProfile(c echo.Context) error {
	user, profile, err := h.load(c)
	if err != nil {
		return err
	}

	var req struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		PhoneNumber string `json:"phone_number"`
		Location    string `json:"location"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	errs := map[string]string{}

	if req.Username != "" && req.Username != user.Username {
		if !usernameRe.MatchString(req.Username) {
			errs["username"] = "Имя пользователя может содержать только буквы, цифры и знак подчеркивания"
		} else {
			var count int64
			if err := h.DB.Model(&models.User{}).
				Where("username = ? AND id <> ?", req.Username, user.ID).
				Count(&count).Error; err != nil {
				return errorResponse(c, http.StatusInternalServerError, err)
			}
			if count > 0 {
				errs["username"] = "Пользователь с таким именем уже существует"
			} else {
				user.Username = req.Username
			}
		}
	}

	if req.Email != "" && req.Email != user.Email {
		var count int64
		if err := h.DB.Model(&models.User{}).
			Where("email = ? AND id <> ?", req.Email, user.ID).
			Count(&count).Error; err != nil {
			return errorResponse(c, http.StatusInternalServerError, err)
		}
		if count > 0 {
			errs["email"] = "Пользователь с таким email уже существует"
		} else {
			user.Email = req.Email
		}
	}

	if req.PhoneNumber != "" {
		normalized, err := phone.Normalize(req.PhoneNumber)
		if err != nil {
			errs["phone_number"] = err.Error()
		} else {
			profile.PhoneNumber = normalized
		}
	}

	if len(errs) > 0 {
		return validationError(c, errs)
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Location != "" {
		profile.Location = req.Location
	}

	if err := h.DB.Save(user).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	if err := h.DB.Save(profile).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, transport.NewProfileDTO(user, profile))
}
