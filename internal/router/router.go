package router

import (
	"time"

	"moveops/internal/config"
	"moveops/internal/handler"
	"moveops/internal/infra"
	"moveops/internal/middleware"
	"moveops/internal/repository"
	"moveops/internal/service"
	"moveops/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	mailer := infra.NewMailer(cfg)
	renderer := infra.NewPDFRenderer(cfg)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	itemRepo := repository.NewItemRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	clientSvc := service.NewClientService(clientRepo)
	itemSvc := service.NewItemService(itemRepo)
	quoteSvc := service.NewQuoteService(quoteRepo, clientRepo, itemRepo, renderer, mailer)
	bookingSvc := service.NewBookingService(bookingRepo, clientRepo, itemRepo, quoteRepo, renderer, dispatcher)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, bookingRepo, renderer, mailer, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	clientsH := handler.NewClientsHandler(clientSvc)
	itemsH := handler.NewItemsHandler(itemSvc)
	quotesH := handler.NewQuotesHandler(quoteSvc)
	bookingsH := handler.NewBookingsHandler(bookingSvc)
	invoicesH := handler.NewInvoicesHandler(invoiceSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes. Roles: staff, admin — staff covers day-to-day
	// operations, admin additionally manages users and the catalog.
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	staff := middleware.RequireRole("staff", "admin")
	admin := middleware.RequireRole("admin")

	v1 := r.Group("/v1", jwtMW)
	{
		clients := v1.Group("/clients", staff)
		{
			clients.POST("", clientsH.Create)
			clients.GET("", clientsH.List)
			clients.GET("/:id", clientsH.Get)
			clients.PUT("/:id", clientsH.Update)
			clients.DELETE("/:id", clientsH.Delete)
		}

		v1.GET("/items", staff, itemsH.List)
		v1.GET("/items/:id", staff, itemsH.Get)
		items := v1.Group("/items", admin)
		{
			items.POST("", itemsH.Create)
			items.PUT("/:id", itemsH.Update)
			items.DELETE("/:id", itemsH.Delete)
			items.POST("/:id/reactivate", itemsH.Reactivate)
		}

		quotes := v1.Group("/quotes", staff)
		{
			quotes.POST("", quotesH.Create)
			quotes.GET("", quotesH.List)
			quotes.GET("/:id", quotesH.Get)
			quotes.PUT("/:id", quotesH.Update)
			quotes.DELETE("/:id", quotesH.Delete)
			quotes.POST("/:id/send-email", quotesH.SendEmail)
			quotes.GET("/:id/pdf", quotesH.PDF)
		}

		bookings := v1.Group("/bookings", staff)
		{
			bookings.POST("", bookingsH.Create)
			bookings.GET("", bookingsH.List)
			bookings.GET("/:id", bookingsH.Get)
			bookings.PUT("/:id", bookingsH.Update)
			bookings.PATCH("/:id/status", bookingsH.ChangeStatus)
			bookings.POST("/:id/payments", bookingsH.RecordPayment)
			bookings.DELETE("/:id", bookingsH.Delete)
			bookings.GET("/:id/pdf", bookingsH.PDF)
		}

		invoices := v1.Group("/invoices", staff)
		{
			invoices.POST("", invoicesH.Create)
			invoices.GET("", invoicesH.List)
			invoices.GET("/:id", invoicesH.Get)
			invoices.POST("/:id/signature", invoicesH.Signature)
			invoices.POST("/:id/send-email", invoicesH.SendEmail)
			invoices.GET("/:id/pdf", invoicesH.PDF)
		}

		users := v1.Group("/users", admin)
		{
			users.POST("", authH.CreateUser)
			users.GET("", authH.ListUsers)
			users.PUT("/:id", authH.UpdateUser)
			users.DELETE("/:id", authH.DeactivateUser)
			users.POST("/:id/reactivate", authH.ReactivateUser)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
