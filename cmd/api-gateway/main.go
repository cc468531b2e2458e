package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/vendora/marketplace-api/api/swagger"
	"github.com/vendora/marketplace-api/internal/handler"
	"github.com/vendora/marketplace-api/internal/middleware"
	"github.com/vendora/marketplace-api/internal/models"
	"github.com/vendora/marketplace-api/internal/repository"
	"github.com/vendora/marketplace-api/internal/service"
	"github.com/vendora/marketplace-api/pkg/cache"
	"github.com/vendora/marketplace-api/pkg/config"
	"github.com/vendora/marketplace-api/pkg/database"
	"github.com/vendora/marketplace-api/pkg/jobs"
	"github.com/vendora/marketplace-api/pkg/logger"
	corsmiddleware "github.com/vendora/marketplace-api/pkg/middleware/cors"
	reqidmiddleware "github.com/vendora/marketplace-api/pkg/middleware/requestid"
	"github.com/vendora/marketplace-api/pkg/payment"
)

// @title Vendora Marketplace API
// @version 1.0.0
// @description Multi-vendor marketplace: drip-content courses, recurring bookings, orders and commissions
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	giftCardRepo := repository.NewGiftCardRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Courses.ScheduleCacheTTL, logr, redisClient != nil)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "marketplace-api",
	})
	userService := service.NewUserService(userRepo, validate, logr)
	courseService := service.NewCourseService(courseRepo, enrollmentRepo, cacheService, cfg.Courses.ScheduleCacheTTL, validate, logr)
	bookingService := service.NewBookingService(bookingRepo, metricsService, cfg.Bookings.MaxBatchSize, cfg.Bookings.DefaultBatchSize, validate, logr)

	debitQueue := jobs.NewQueue("giftcard-debit", service.NewGiftCardDebitHandler(giftCardRepo, logr), jobs.QueueConfig{
		Workers:    cfg.GiftCards.DebitWorkers,
		MaxRetries: cfg.GiftCards.DebitRetries,
		RetryDelay: cfg.GiftCards.RetryDelay,
		Logger:     logr,
	})
	debitQueue.Start(ctx)
	defer debitQueue.Stop()

	gateway := payment.NewGateway(cfg.Payments, logr)
	verifier := payment.NewWebhookVerifier(cfg.Payments.WebhookSecret)
	orderService := service.NewOrderService(orderRepo, productRepo, giftCardRepo, gateway, debitQueue, metricsService,
		cfg.Orders.CommissionRate, cfg.Orders.CommissionBase, validate, logr)
	statementService := service.NewStatementService(orderRepo, logr)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	courseHandler := handler.NewCourseHandler(courseService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	orderHandler := handler.NewOrderHandler(orderService, verifier)
	statementHandler := handler.NewStatementHandler(statementService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)

		authed := auth.Group("", middleware.JWT(authService))
		authed.POST("/logout", authHandler.Logout)
		authed.POST("/change-password", authHandler.ChangePassword)
		authed.GET("/me", authHandler.Me)
	}

	users := api.Group("/users", middleware.JWT(authService))
	{
		users.GET("", middleware.RequireRoles(models.RoleAdmin), userHandler.List)
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Get)
		users.POST("", middleware.RequireRoles(models.RoleAdmin), userHandler.Create)
		users.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Update)
		users.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Delete)
	}

	if cfg.Courses.Enabled {
		courses := api.Group("/courses")
		{
			courses.GET("", courseHandler.List)
			courses.GET("/:id", courseHandler.Get)
			courses.GET("/:id/schedule", middleware.OptionalJWT(authService), courseHandler.Schedule)

			sellers := courses.Group("", middleware.JWT(authService), middleware.RequireRoles(models.RoleSeller, models.RoleAdmin))
			sellers.POST("", courseHandler.Create)
			sellers.PUT("/:id/drip",
				middleware.Audit(userRepo, models.AuditActionDripUpdate, "courses"),
				courseHandler.UpdateDrip)
			sellers.POST("/:id/sections", courseHandler.AddSection)
			sellers.POST("/:id/schedule/refresh", courseHandler.RefreshLocks)

			courses.POST("/:id/enrollments",
				middleware.JWT(authService),
				middleware.RequireRoles(models.RoleBuyer, models.RoleAdmin),
				courseHandler.Enroll)
		}
	}

	if cfg.Bookings.Enabled {
		bookings := api.Group("/booking-patterns", middleware.JWT(authService), middleware.RequireRoles(models.RoleSeller, models.RoleAdmin))
		{
			bookings.GET("", bookingHandler.List)
			bookings.POST("",
				middleware.Audit(userRepo, models.AuditActionPatternCreate, "booking_patterns"),
				bookingHandler.Create)
			bookings.GET("/:id", bookingHandler.Get)
			bookings.POST("/:id/occurrences", bookingHandler.Generate)
			bookings.GET("/:id/occurrences", bookingHandler.Occurrences)
			bookings.POST("/:id/cancel-future",
				middleware.Audit(userRepo, models.AuditActionPatternCancel, "booking_patterns"),
				bookingHandler.CancelFuture)
			bookings.POST("/:id/reschedule", bookingHandler.Reschedule)
		}
	}

	if cfg.Orders.Enabled {
		orders := api.Group("/orders", middleware.JWT(authService))
		{
			orders.POST("",
				middleware.RequireRoles(models.RoleBuyer, models.RoleAdmin),
				middleware.Audit(userRepo, models.AuditActionCheckout, "orders"),
				orderHandler.Checkout)
			orders.GET("", orderHandler.List)
			orders.GET("/:id", orderHandler.Get)
		}

		api.POST("/payments/webhook", orderHandler.Webhook)

		products := api.Group("/products", middleware.JWT(authService))
		products.POST("", middleware.RequireRoles(models.RoleSeller, models.RoleAdmin), orderHandler.CreateProduct)
	}

	if cfg.GiftCards.Enabled {
		giftCards := api.Group("/gift-cards", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin))
		giftCards.POST("", orderHandler.CreateGiftCard)
		giftCards.GET("/:code", orderHandler.GetGiftCard)
	}

	if cfg.Statements.Enabled {
		statements := api.Group("/sellers", middleware.JWT(authService), middleware.RequireRoles(models.RoleSeller, models.RoleAdmin))
		statements.GET("/:id/statement", statementHandler.Get)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
