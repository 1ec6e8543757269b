package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/ChuChu19999/Baraholka/internal/models"
)

func registerPayload(username, email string) map[string]string {
	return map[string]string{
		"username":     username,
		"password":     "password123",
		"password2":    "password123",
		"email":        email,
		"first_name":   "Иван",
		"last_name":    "Иванов",
		"phone_number": "+7 999 123 45 67",
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/auth/register", registerPayload("test_user", "test@example.com"))
	require.NoError(t, env.A.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		User struct {
			ID          uint   `json:"id"`
			Username    string `json:"username"`
			PhoneNumber string `json:"phone_number"`
		} `json:"user"`
		Token   string `json:"token"`
		Refresh string `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "test_user", resp.User.Username)
	require.Equal(t, "+7 (999) 123-45-67", resp.User.PhoneNumber)
	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.Refresh)

	var profile models.UserProfile
	require.NoError(t, env.DB.Where("user_id = ?", resp.User.ID).First(&profile).Error)
	require.Equal(t, "+7 (999) 123-45-67", profile.PhoneNumber)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/auth/register", registerPayload("first_user", "same@example.com"))
	require.NoError(t, env.A.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec2, c2 := env.doJSONRequest(http.MethodPost, "/api/v1/auth/register", registerPayload("second_user", "same@example.com"))
	require.NoError(t, env.A.Register(c2))
	require.Equal(t, http.StatusBadRequest, rec2.Code)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &resp))
	require.Contains(t, resp.Errors, "email")
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	payload := registerPayload("bad user!", "not-an-email")
	payload["password2"] = "different"
	payload["phone_number"] = "999 123 45 67"

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/auth/register", payload)
	require.NoError(t, env.A.Register(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Errors, "username")
	require.Contains(t, resp.Errors, "password")
	require.Contains(t, resp.Errors, "email")
	require.Contains(t, resp.Errors, "phone_number")

	var count int64
	env.DB.Model(&models.User{}).Count(&count)
	require.Zero(t, count)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("test_user")

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "test_user",
		"password": "password123",
	})
	require.NoError(t, env.A.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["access_token"])
	require.NotEmpty(t, resp["refresh_token"])
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("test_user")

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "test_user",
		"password": "wrong",
	})
	err := env.A.Login(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRefreshRotation(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("test_user")

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "test_user",
		"password": "password123",
	})
	require.NoError(t, env.A.Login(c))

	var login struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	rec2, c2 := env.doJSONRequest(http.MethodPost, "/api/v1/auth/refresh", map[string]string{"refresh": login.RefreshToken})
	require.NoError(t, env.A.Refresh(c2))
	require.Equal(t, http.StatusOK, rec2.Code)

	// Старый refresh-токен после ротации отозван.
	_, c3 := env.doJSONRequest(http.MethodPost, "/api/v1/auth/refresh", map[string]string{"refresh": login.RefreshToken})
	err := env.A.Refresh(c3)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}
