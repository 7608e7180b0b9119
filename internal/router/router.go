package router

import (
	"time"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/config"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/handler"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/middleware"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/repository"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/service"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/worker"
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

	// ── Repositories ─────────────────────────────────────────────────────────
	tenantRepo := repository.NewTenantRepository(db)
	userRepo := repository.NewUserRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	productRepo := repository.NewProductRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	closureRepo := repository.NewClosureRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	billingRepo := repository.NewBillingRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	auditSvc := service.NewAuditService(auditRepo)
	authSvc := service.NewAuthService(userRepo, cfg)
	tenantSvc := service.NewTenantService(tenantRepo)
	memberSvc := service.NewMemberService(memberRepo, auditSvc)
	catalogSvc := service.NewCatalogService(productRepo, expenseRepo, auditSvc)
	billingSvc := service.NewBillingService(billingRepo, sessionRepo, tenantRepo, dispatcher)
	sessionSvc := service.NewSessionService(sessionRepo, tenantRepo, memberRepo, productRepo, closureRepo, auditSvc, billingSvc)
	closureSvc := service.NewClosureService(closureRepo, sessionRepo, memberRepo, expenseRepo, tenantRepo, auditSvc, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	tenantH := handler.NewTenantHandler(tenantSvc)
	membersH := handler.NewMembersHandler(memberSvc)
	productsH := handler.NewProductsHandler(catalogSvc)
	sessionsH := handler.NewSessionsHandler(sessionSvc)
	closuresH := handler.NewClosuresHandler(closureSvc)
	billingH := handler.NewBillingHandler(billingSvc)
	auditH := handler.NewAuditHandler(auditSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		staff := middleware.RequireRole("cajero", "supervisor", "administrador")
		supervisors := middleware.RequireRole("supervisor", "administrador")
		admins := middleware.RequireRole("administrador")

		// Venue settings — staff read them (pricing UI), administradores edit
		v1.GET("/tenant", staff, tenantH.Get)
		v1.PUT("/tenant", admins, tenantH.Update)

		// Table sessions — the operational core, any staff member operates them
		sessions := v1.Group("/sessions", staff)
		{
			sessions.POST("", sessionsH.Start)
			sessions.GET("", sessionsH.List)
			sessions.GET("/:id", sessionsH.Get)
			sessions.GET("/:id/quote", sessionsH.Quote)
			sessions.POST("/:id/items", sessionsH.AddConsumption)
			sessions.POST("/:id/payments", sessionsH.RegisterPayment)
			sessions.POST("/:id/close", sessionsH.Close)
			sessions.GET("/:id/document", billingH.GetBySession)
		}

		// Members — reads for staff, tier moves need a supervisor
		v1.GET("/members", staff, membersH.List)
		v1.GET("/members/:id", staff, membersH.Get)
		v1.GET("/members/:id/tier-history", staff, membersH.TierHistory)
		v1.POST("/members", staff, membersH.Enroll)
		v1.POST("/members/:id/fees", staff, membersH.RecordFee)
		v1.PUT("/members/:id/tier", supervisors, membersH.ChangeTier)
		v1.PUT("/members/:id/subscription", supervisors, membersH.SetSubscription)

		// Shift closures — the blind count is a supervisor act
		closures := v1.Group("/closures", supervisors)
		{
			closures.POST("", closuresH.Consolidate)
			closures.GET("", closuresH.List)
			closures.GET("/:id", closuresH.Get)
			closures.GET("/:id/verify", closuresH.VerifyIntegrity)
		}

		// Billing documents
		billing := v1.Group("/billing", staff)
		{
			billing.POST("/emit", billingH.Emit)
			billing.GET("/:id", billingH.Get)
		}

		// Catalog — reads for staff, writes for administrators
		v1.GET("/products", staff, productsH.List)
		v1.GET("/products/:id", staff, productsH.Get)
		v1.POST("/products/waste", staff, productsH.RecordWaste)
		v1.POST("/products/maintenance", supervisors, productsH.RecordMaintenance)
		products := v1.Group("/products", admins)
		{
			products.POST("", productsH.Create)
			products.PUT("/:id", productsH.Update)
			products.DELETE("/:id", productsH.Deactivate)
		}

		// Staff accounts and audit trail — administrador only
		users := v1.Group("/users", admins)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
		}
		v1.GET("/audit", admins, auditH.List)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
