package router

import (
	"time"

	"shopcore/internal/config"
	"shopcore/internal/handler"
	"shopcore/internal/middleware"
	"shopcore/internal/repository"
	"shopcore/internal/reqctx"
	"shopcore/internal/service"
	"shopcore/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// New assembles the HTTP surface: repositories, services, handlers, and
// the two route trees. The public tree runs under the public channel;
// /admin mirrors the protected routes under the admin channel so audit
// rows record where a change came from.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, service.OrderService) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(300, time.Minute))

	// Repositories
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	historyRepo := repository.NewOrderHistoryRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Services
	dispatcher := worker.NewDispatcher(rdb)
	recorder := service.NewHistoryRecorder(historyRepo)
	categorySvc := service.NewCategoryService(categoryRepo)
	productSvc := service.NewProductService(productRepo, categoryRepo, dispatcher)
	orderSvc := service.NewOrderService(orderRepo, productRepo, recorder, dispatcher)
	authSvc := service.NewAuthService(userRepo, cfg)

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	categoryH := handler.NewCategoryHandler(categorySvc)
	productH := handler.NewProductHandler(productSvc)
	orderH := handler.NewOrderHandler(orderSvc)
	priceH := handler.NewPriceCheckHandler(productSvc, rdb)

	r.GET("/health", handler.Health(db, rdb))
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := middleware.JWTAuth(cfg.JWTSecret)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/login", authH.Login)
		v1.POST("/auth/refresh", authH.Refresh)

		// Public, unauthenticated, cached.
		v1.GET("/price/:code",
			middleware.RequestContext(reqctx.ChannelPublic), priceH.Check)

		// Staff routes: any authenticated user, public channel.
		staff := v1.Group("", auth, middleware.RequestContext(reqctx.ChannelPublic))
		{
			registerRoutes(staff, categoryH, productH, orderH)
		}
	}

	// Admin mirror: same operations, admin role required, admin channel.
	admin := r.Group("/admin/v1", auth,
		middleware.RequireRole("admin"),
		middleware.RequestContext(reqctx.ChannelAdmin))
	{
		registerRoutes(admin, categoryH, productH, orderH)
	}

	return r, orderSvc
}

// registerRoutes mounts the catalog and order routes on a group. Both
// the staff tree and the admin mirror share the same handlers; only the
// middleware chain (role, channel) differs.
func registerRoutes(g *gin.RouterGroup, categoryH *handler.CategoryHandler, productH *handler.ProductHandler, orderH *handler.OrderHandler) {
	categories := g.Group("/categories")
	{
		categories.POST("", categoryH.Create)
		categories.GET("", categoryH.ListRoots)
		categories.PATCH("/:id", categoryH.Update)
		categories.DELETE("/:id", categoryH.Delete)
		categories.POST("/:id/restore", categoryH.Restore)
		categories.GET("/:id/children", categoryH.Children)
		categories.GET("/:id/ancestors", categoryH.Ancestors)
		categories.GET("/:id/descendants", categoryH.Descendants)
	}

	products := g.Group("/products")
	{
		products.POST("", productH.Create)
		products.GET("", productH.List)
		products.GET("/:id", productH.Get)
		products.PATCH("/:id", productH.Update)
		products.DELETE("/:id", productH.Delete)
		products.POST("/:id/stock", productH.AdjustStock)
	}

	orders := g.Group("/orders")
	{
		orders.POST("", orderH.Create)
		orders.GET("", orderH.List)
		orders.GET("/:id", orderH.Get)
		orders.POST("/:id/status", orderH.SetStatus)
	}
}
