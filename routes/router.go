package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/amaurycolochos7/shopp-kingice/config"
	"github.com/amaurycolochos7/shopp-kingice/controllers"
	"github.com/amaurycolochos7/shopp-kingice/events"
	"github.com/amaurycolochos7/shopp-kingice/middleware"
	"github.com/amaurycolochos7/shopp-kingice/models"
	"github.com/amaurycolochos7/shopp-kingice/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies is everything the HTTP layer needs
type Dependencies struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *gorm.DB
	Orders    *services.OrderService
	Auth      *services.AuthService
	Catalog   *services.CatalogService
	Dashboard *services.DashboardService
	Hub       *events.Hub
}

// Setup builds the gin engine with every API route, the static storefront and
// the SPA fallback
func Setup(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	logger := deps.Logger
	exposeDetails := cfg.IsDevelopment()

	router := gin.New()
	router.Use(middleware.RequestLogger(logger), middleware.Recovery(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	orders := controllers.NewOrderController(deps.Orders, logger, exposeDetails)
	admin := controllers.NewAdminController(deps.Auth, logger, exposeDetails)
	dashboard := controllers.NewDashboardController(deps.Dashboard, logger, exposeDetails)
	catalog := controllers.NewCatalogController(deps.Catalog, logger, exposeDetails)

	requireAuth := middleware.EnsureValidToken(cfg, deps.Auth, logger)
	staff := middleware.RequireRole(models.RoleSuperAdmin, models.RoleAdmin)
	superadmin := middleware.RequireRole(models.RoleSuperAdmin)

	api := router.Group("/api")
	api.Use(middleware.RateLimit(middleware.NewIPRateLimiter(cfg.RateLimitPerMinute)))
	{
		api.GET("/health", healthCheck(deps.DB))

		// Orders
		api.POST("/orders", orders.CreateOrder)
		api.GET("/orders", requireAuth, staff, orders.ListOrders)
		api.GET("/orders/export", requireAuth, staff, orders.ExportOrders)
		api.GET("/orders/:idOrNumber", orders.GetOrder)
		api.PATCH("/orders/:id/status", requireAuth, staff, orders.UpdateOrderStatus)

		// Admin sessions
		api.POST("/admin/login", admin.Login)
		api.POST("/admin/logout", requireAuth, admin.Logout)
		api.GET("/admin/me", requireAuth, admin.Me)
		api.PUT("/admin/password", requireAuth, admin.ChangePassword)
		if deps.Hub != nil {
			stream := controllers.NewStreamController(deps.Hub)
			api.GET("/admin/orders/stream",
				middleware.EnsureValidToken(cfg, deps.Auth, logger, middleware.WithQueryToken()),
				staff,
				stream.OrderStream,
			)
		}

		// Dashboard
		api.GET("/dashboard/stats", requireAuth, staff, dashboard.Stats)
		api.GET("/dashboard/recent", requireAuth, staff, dashboard.Recent)

		// Catalog
		api.GET("/categories", catalog.ListCategories)
		api.GET("/categories/:slug", catalog.GetCategory)
		api.POST("/categories", requireAuth, staff, catalog.CreateCategory)
		api.PUT("/categories/:id", requireAuth, staff, catalog.UpdateCategory)
		api.DELETE("/categories/:id", requireAuth, superadmin, catalog.DeleteCategory)

		api.GET("/products", catalog.ListProducts)
		api.GET("/products/featured", catalog.FeaturedProducts)
		api.GET("/products/:id", catalog.GetProduct)
		api.POST("/products", requireAuth, staff, catalog.CreateProduct)
		api.PUT("/products/:id", requireAuth, staff, catalog.UpdateProduct)
		api.DELETE("/products/:id", requireAuth, superadmin, catalog.DeleteProduct)
		api.POST("/products/:id/images", requireAuth, staff, catalog.UploadProductImage)
	}

	router.NoRoute(fallback(cfg.StaticDir))
	return router
}

// healthCheck reports liveness plus database reachability
func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		database := "connected"
		if err := config.PingDatabase(db); err != nil {
			database = "unavailable"
		}
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "King Ice Gold API is running",
			"database":  database,
			"timestamp": time.Now().UTC(),
		})
	}
}

// fallback answers unknown API paths with JSON and serves the storefront for
// everything else, falling back to index.html for client-side routes
func fallback(staticDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Route not found",
				},
			})
			return
		}

		if staticDir == "" || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			c.Status(http.StatusNotFound)
			return
		}

		root, err := filepath.Abs(staticDir)
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		// Clean on a rooted path drops any ../ segments
		target := filepath.Join(root, filepath.FromSlash(filepath.Clean("/"+path)))
		if info, err := os.Stat(target); err == nil && !info.IsDir() {
			c.File(target)
			return
		}

		index := filepath.Join(root, "index.html")
		if _, err := os.Stat(index); err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.File(index)
	}
}
