package service

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ChuChu19999/Baraholka/internal/models"
)

func newTokenService(t *testing.T) *TokenService {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.RefreshToken{}))

	return &TokenService{
		DB:            db,
		JWTSecret:     []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
	}
}

func callWithAuth(ts *TokenService, mw func(echo.HandlerFunc) echo.HandlerFunc, header string) (echo.Context, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return c, handler(c)
}

func TestRequireAuth(t *testing.T) {
	ts := newTokenService(t)

	access, _, err := ts.IssuePair(42, "user")
	require.NoError(t, err)

	c, err := callWithAuth(ts, ts.RequireAuth, "Bearer "+access)
	require.NoError(t, err)

	id, ok := CurrentUserID(c)
	require.True(t, ok)
	require.Equal(t, uint(42), id)
}

func TestRequireAuthRejectsBadTokens(t *testing.T) {
	ts := newTokenService(t)

	for _, header := range []string{
		"",
		"Bearer ",
		"Bearer not-a-jwt",
		"Token abc",
	} {
		_, err := callWithAuth(ts, ts.RequireAuth, header)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok, "header %q", header)
		require.Equal(t, http.StatusUnauthorized, he.Code)
	}
}

func TestRequireAuthRejectsRefreshSecret(t *testing.T) {
	ts := newTokenService(t)

	// Refresh-токен не подходит вместо access: другой секрет.
	_, refresh, err := ts.IssuePair(7, "user")
	require.NoError(t, err)

	_, authErr := callWithAuth(ts, ts.RequireAuth, "Bearer "+refresh)
	he, ok := authErr.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestOptionalAuthAnonymous(t *testing.T) {
	ts := newTokenService(t)

	c, err := callWithAuth(ts, ts.OptionalAuth, "")
	require.NoError(t, err)

	_, ok := CurrentUserID(c)
	require.False(t, ok)
}

func TestAdminOnly(t *testing.T) {
	ts := newTokenService(t)

	userAccess, _, err := ts.IssuePair(1, "user")
	require.NoError(t, err)
	adminAccess, _, err := ts.IssuePair(2, "admin")
	require.NoError(t, err)

	_, userErr := callWithAuth(ts, ts.AdminOnly, "Bearer "+userAccess)
	he, ok := userErr.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)

	c, adminErr := callWithAuth(ts, ts.AdminOnly, "Bearer "+adminAccess)
	require.NoError(t, adminErr)
	require.Equal(t, "admin", c.Get("role"))
}

func TestRotateRevokesOldRefresh(t *testing.T) {
	ts := newTokenService(t)

	_, refresh, err := ts.IssuePair(5, "user")
	require.NoError(t, err)

	_, newRefresh, err := ts.RotateToken(refresh)
	require.NoError(t, err)
	require.NotEqual(t, refresh, newRefresh)

	_, _, err = ts.RotateToken(refresh)
	require.Error(t, err)

	var stored models.RefreshToken
	require.NoError(t, ts.DB.Where("token = ?", refresh).First(&stored).Error)
	require.True(t, stored.Revoked)
}

func TestValidateRefreshExpired(t *testing.T) {
	ts := newTokenService(t)

	_, refresh, err := ts.IssuePair(9, "user")
	require.NoError(t, err)

	require.NoError(t, ts.DB.Model(&models.RefreshToken{}).
		Where("token = ?", refresh).
		Update("expires_at", 1).Error)

	_, err = ValidateRefresh(refresh, ts.RefreshSecret, ts.DB)
	require.Error(t, err)
	require.Contains(t, err.Error(), "expired")
}
