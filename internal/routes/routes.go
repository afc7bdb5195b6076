package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/lunaria-mx/lunaria-api/internal/handlers"
	"github.com/lunaria-mx/lunaria-api/internal/middleware"
)

// corsConfig builds the CORS policy from the CORS_ORIGIN env var
// (comma-separated origins). Defaults to the local Vite dev server.
func corsConfig() cors.Config {
	origins := []string{"http://localhost:5173"}
	if env := os.Getenv("CORS_ORIGIN"); env != "" {
		origins = strings.Split(env, ",")
	}

	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(corsConfig()))

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Public Catalog Routes ---
		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:slug", h.GetProductBySlug)
		v1.GET("/categories", h.ListCategories)

		// --- Public Checkout Routes ---
		v1.POST("/checkout", h.Checkout)
		v1.GET("/payment-methods", h.ListPaymentMethods)
		v1.GET("/orders/:number", h.LookupOrder)

		// --- Payment Provider Webhooks ---
		v1.POST("/webhooks/clip", h.ClipWebhook)
		v1.POST("/webhooks/conekta", h.ConektaWebhook)
		v1.POST("/webhooks/mercadopago", h.MercadoPagoWebhook)

		// --- Customer Account Routes (Public) ---
		v1.POST("/signup", h.Signup)
		v1.POST("/login", h.Login)

		// --- Customer Account Routes (Login Required) ---
		account := v1.Group("/auth")
		account.Use(middleware.CustomerAuth())
		{
			account.GET("/profile", h.GetProfile)
			account.PATCH("/profile", h.UpdateProfile)
			account.GET("/orders", h.GetMyOrders)
			account.GET("/orders/:id", h.GetMyOrderDetails)
		}

		// --- Admin Login (Public) ---
		v1.POST("/admin/login", h.AdminLogin)

		// --- Admin Routes (Admin Token Required) ---
		admin := v1.Group("/admin")
		admin.Use(middleware.AdminAuth(h.DB))
		{
			admin.GET("/dashboard", h.AdminDashboard)
			admin.POST("/assistant", h.AskAssistant)

			admin.GET("/products", h.AdminListProducts)
			admin.POST("/products", h.AdminCreateProduct)
			admin.PATCH("/products/:id", h.AdminUpdateProduct)
			admin.DELETE("/products/:id", h.AdminDeleteProduct)

			admin.GET("/categories", h.AdminListCategories)
			admin.POST("/categories", h.AdminCreateCategory)
			admin.PATCH("/categories/:id", h.AdminUpdateCategory)
			admin.DELETE("/categories/:id", h.AdminDeleteCategory)

			admin.GET("/orders", h.AdminListOrders)
			admin.GET("/orders/:id", h.AdminGetOrder)
			admin.PATCH("/orders/:id", h.AdminUpdateOrder)

			// --- Admin User Management (role "admin" only) ---
			users := admin.Group("/users")
			users.Use(middleware.RequireAdminRole())
			{
				users.GET("", h.AdminListUsers)
				users.POST("", h.AdminCreateUser)
				users.PATCH("/:id", h.AdminUpdateUser)
				users.DELETE("/:id", h.AdminDeleteUser)
			}
		}
	}

	return router
}
