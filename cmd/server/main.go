package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"clinicpay/internal/handlers"
	authMiddleware "clinicpay/internal/middleware"
	"clinicpay/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Firebase
	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}

	authClient, err := services.InitFirebase(credPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Auth features will not work until valid credentials are provided")
	}

	// Initialize Database
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	var db *gorm.DB
	db, err = services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Redis is optional; without it plan writes skip the advisory lock and
	// the activity feed skips its cache.
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Redis connection failed: %v", err)
			cache = nil
		}
	} else {
		log.Println("Warning: REDIS_URL not set, running without Redis")
	}

	// Initialize services
	midtransService := services.NewMidtransService()
	notifier := services.NewNotifierService()
	planService := services.NewPlanService(db)
	statusService := services.NewPlanStatusService(db, cache)
	lifecycleService := services.NewPlanLifecycleService(db, cache, statusService)
	rescheduleService := services.NewPlanRescheduleService(db, cache, midtransService)
	paymentService := services.NewPaymentService(db, midtransService, notifier, statusService)

	// Create Echo instance
	e := echo.New()
	e.HTTPErrorHandler = authMiddleware.CustomErrorHandler

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authClient, db)
	planHandler := handlers.NewPlanHandler(db, planService, statusService, lifecycleService, rescheduleService)
	paymentHandler := handlers.NewPaymentHandler(db, paymentService)
	patientHandler := handlers.NewPatientHandler(db)
	linkHandler := handlers.NewPaymentLinkHandler(db)
	activityHandler := handlers.NewActivityHandler(db, cache)

	// Public routes
	e.POST("/auth/login", authHandler.HandleLogin)
	e.POST("/auth/logout", authHandler.HandleLogout)
	e.POST("/webhooks/midtrans", paymentHandler.MidtransCallback)
	e.GET("/p/:order_id", paymentHandler.InitiateCheckout)

	// Protected routes
	protected := e.Group("/api")
	protected.Use(authMiddleware.RequireAuth(authClient, db))

	protected.GET("/me", authHandler.Me)

	// Plan routes
	protected.GET("/plans", planHandler.ListPlans)
	protected.POST("/plans", planHandler.CreatePlan)
	protected.GET("/plans/:id", planHandler.GetPlan)
	protected.POST("/plans/:id/pause", planHandler.PausePlan)
	protected.POST("/plans/:id/cancel", planHandler.CancelPlan)
	protected.GET("/plans/:id/resume-warnings", planHandler.ResumeWarnings)
	protected.POST("/plans/:id/resume", planHandler.ResumePlan)
	protected.POST("/plans/:id/reschedule", planHandler.ReschedulePlan)
	protected.POST("/plans/:id/recalculate", planHandler.RecalculateStatus)
	protected.POST("/plans/:id/sweep-overdue", planHandler.TriggerOverdueSweep)
	protected.GET("/plans/:id/activity", activityHandler.ListPlanActivity)

	// Installment routes
	protected.POST("/installments/:id/send-request", paymentHandler.SendPaymentRequest)
	protected.POST("/installments/:id/mark-paid", paymentHandler.MarkInstallmentPaid)
	protected.POST("/installments/:id/refund", paymentHandler.RefundInstallment)

	// Patient routes
	protected.GET("/patients", patientHandler.ListPatients)
	protected.POST("/patients", patientHandler.CreatePatient)
	protected.GET("/patients/:id", patientHandler.GetPatient)
	protected.POST("/patients/:id/update", patientHandler.UpdatePatient)

	// Payment link routes
	protected.GET("/payment-links", linkHandler.ListPaymentLinks)
	protected.POST("/payment-links", linkHandler.CreatePaymentLink)
	protected.POST("/payment-links/:id/deactivate", linkHandler.DeactivatePaymentLink)

	// Activity feed
	protected.GET("/activity", activityHandler.ListClinicActivity)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
