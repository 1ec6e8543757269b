package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ChuChu19999/Baraholka/internal/config"
	"github.com/ChuChu19999/Baraholka/internal/hash"
	"github.com/ChuChu19999/Baraholka/internal/models"
	"github.com/ChuChu19999/Baraholka/internal/service"
)

type testEnv struct {
	T  *testing.T
	E  *echo.Echo
	DB *gorm.DB

	A  *AuthHandler
	Pr *ProfileHandler
	C  *CategoryHandler
	P  *ProductHandler
	F  *FavoriteHandler
	Ch *ChatHandler
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db))

	tokens := &service.TokenService{
		DB:            db,
		JWTSecret:     []byte("test-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}

	env := &testEnv{
		T:  t,
		E:  echo.New(),
		DB: db,
		A:  &AuthHandler{DB: db, Tokens: tokens},
		Pr: &ProfileHandler{DB: db},
		C:  &CategoryHandler{DB: db},
		P:  &ProductHandler{DB: db, UploadDir: t.TempDir()},
		F:  &FavoriteHandler{DB: db},
		Ch: &ChatHandler{DB: db},
	}

	return env
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func (env *testEnv) doFormRequest(method, path string, form url.Values) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func asUser(c echo.Context, userID uint) {
	c.Set("userID", userID)
	c.Set("role", "user")
}

func (env *testEnv) createUser(username string) *models.User {
	passwordHash, err := hash.HashPassword("password123")
	require.NoError(env.T, err)

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: passwordHash,
		FirstName:    "Иван",
		LastName:     "Иванов",
		Role:         "user",
	}
	require.NoError(env.T, env.DB.Create(&user).Error)

	profile := models.UserProfile{UserID: user.ID, PhoneNumber: "+7 (999) 123-45-67"}
	require.NoError(env.T, env.DB.Create(&profile).Error)

	return &user
}

func (env *testEnv) createCategory(name string, parentID *uint) *models.Category {
	category := models.Category{
		Name:     name,
		ParentID: parentID,
		Slug:     strings.ToLower(name),
	}
	require.NoError(env.T, env.DB.Create(&category).Error)
	return &category
}

func (env *testEnv) createProduct(seller *models.User, category *models.Category, title, status string) *models.Product {
	product := models.Product{
		Title:       title,
		Description: "описание",
		Price:       1000,
		CategoryID:  category.ID,
		SellerID:    seller.ID,
		Condition:   models.ConditionUsed,
		Status:      status,
		Location:    "Москва",
		Slug:        strings.ReplaceAll(strings.ToLower(title), " ", "-"),
	}
	require.NoError(env.T, env.DB.Create(&product).Error)
	return &product
}
