package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/ChuChu19999/Baraholka/internal/handlers"
	"github.com/ChuChu19999/Baraholka/internal/service"
)

type Deps struct {
	DB              *gorm.DB
	Tokens          *service.TokenService
	AuthHandler     *handlers.AuthHandler
	ProfileHandler  *handlers.ProfileHandler
	CategoryHandler *handlers.CategoryHandler
	ProductHandler  *handlers.ProductHandler
	FavoriteHandler *handlers.FavoriteHandler
	ChatHandler     *handlers.ChatHandler
	SearchHandler   *handlers.SearchHandler
	UploadDir       string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	e.Static("/uploads", d.UploadDir)

	v1 := e.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.LogOut)

	v1.GET("/profile", d.ProfileHandler.GetProfile, d.Tokens.RequireAuth)
	v1.PATCH("/profile", d.ProfileHandler.PatchProfile, d.Tokens.RequireAuth)

	categories := v1.Group("/categories")
	categories.GET("", d.CategoryHandler.GetCategories)
	categories.GET("/:slug", d.CategoryHandler.GetCategory)
	categories.POST("", d.CategoryHandler.CreateCategory, d.Tokens.AdminOnly)
	categories.PATCH("/:slug", d.CategoryHandler.PatchCategory, d.Tokens.AdminOnly)
	categories.DELETE("/:slug", d.CategoryHandler.DeleteCategory, d.Tokens.AdminOnly)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts, d.Tokens.OptionalAuth)
	products.GET("/my_products", d.ProductHandler.MyProducts, d.Tokens.RequireAuth)
	products.GET("/:slug", d.ProductHandler.GetProduct, d.Tokens.OptionalAuth)
	products.POST("", d.ProductHandler.CreateProduct, d.Tokens.RequireAuth)
	products.PATCH("/:slug", d.ProductHandler.PatchProduct, d.Tokens.RequireAuth)
	products.DELETE("/:slug", d.ProductHandler.DeleteProduct, d.Tokens.RequireAuth)
	products.POST("/:slug/toggle_favorite", d.ProductHandler.ToggleFavorite, d.Tokens.RequireAuth)

	favorites := v1.Group("/favorites", d.Tokens.RequireAuth)
	favorites.GET("", d.FavoriteHandler.GetFavorites)
	favorites.POST("", d.FavoriteHandler.CreateFavorite)
	favorites.DELETE("/:id", d.FavoriteHandler.DeleteFavorite)

	chats := v1.Group("/chats", d.Tokens.RequireAuth)
	chats.GET("", d.ChatHandler.GetChats)
	chats.POST("", d.ChatHandler.CreateChat)
	chats.GET("/:id/messages", d.ChatHandler.GetMessages)
	chats.POST("/:id/messages", d.ChatHandler.CreateMessage)
	chats.POST("/:id/messages/mark_as_read", d.ChatHandler.MarkAsRead)

	v1.GET("/search", d.SearchHandler.Search)
}
