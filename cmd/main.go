package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"wellness-service/internal/cache"
	"wellness-service/internal/clients"
	"wellness-service/internal/config"
	"wellness-service/internal/handlers"
	"wellness-service/internal/middleware"
	"wellness-service/internal/models"
	"wellness-service/internal/repository"
	"wellness-service/internal/services"
	"wellness-service/internal/storage"
)

// schedulerStore combines the appointment and identity repositories
// behind the surface the scheduler service expects.
type schedulerStore struct {
	*repository.AppointmentRepository
	*repository.UserRepository
}

// quotaStore spans the repositories the allowance checks read from
type quotaStore struct {
	*repository.UserRepository
	*repository.SubscriptionRepository
	*repository.AppointmentRepository
	*repository.EngagementRepository
}

// assistantAdapter turns a single chatbot message into a one-turn
// conversation for the completion API.
type assistantAdapter struct {
	client *clients.AssistantClient
}

func (a *assistantAdapter) Reply(ctx context.Context, message string) (string, error) {
	return a.client.Chat(ctx, []clients.ChatMessage{{Role: "user", Content: message}})
}

func main() {
	// .env is optional; real deployments inject the environment directly
	_ = godotenv.Load()

	cfg := config.LoadConfig()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Server.Mode == "release" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := autoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	availabilityCache := cache.NewAvailabilityCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, 5*time.Minute, logger)
	if availabilityCache != nil {
		if err := availabilityCache.Ping(context.Background()); err != nil {
			logger.WithError(err).Warn("Redis unreachable, availability caching disabled")
			availabilityCache = nil
		} else {
			logger.Info("Connected to Redis")
		}
	}

	artifactStore, err := storage.NewLocalStore(cfg.Storage.BasePath, logger)
	if err != nil {
		log.Fatalf("Failed to initialize artifact storage: %v", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)

	// Clients
	checkoutClient := clients.NewCheckoutClient(cfg.Checkout.BaseURL, cfg.Checkout.APIKey, cfg.Checkout.WebhookSecret, logger)
	assistantClient := clients.NewAssistantClient(cfg.Assistant.BaseURL, cfg.Assistant.APIKey, cfg.Assistant.Model, logger)

	// Services
	jwtService := services.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryDays)
	emailService := services.NewEmailService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.FromEmail, cfg.SMTP.FromName, logger)
	documentService := services.NewDocumentService(services.NewHTMLRenderer(), artifactStore, logger)
	authService := services.NewAuthService(userRepo, jwtService, emailService, logger)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, userRepo, documentService, emailService, checkoutClient, cfg.BaseURL, logger)
	quotaService := services.NewQuotaService(&quotaStore{
		UserRepository:         userRepo,
		SubscriptionRepository: subscriptionRepo,
		AppointmentRepository:  appointmentRepo,
		EngagementRepository:   engagementRepo,
	}, &assistantAdapter{client: assistantClient}, logger)
	schedulerService := services.NewSchedulerService(&schedulerStore{
		AppointmentRepository: appointmentRepo,
		UserRepository:        userRepo,
	}, quotaService, documentService, checkoutClient, availabilityCache, cfg.BaseURL, logger)
	supportService := services.NewSupportService(engagementRepo, documentService, logger)

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authService)
	inscriptionHandlers := handlers.NewInscriptionHandlers(authService)
	companyHandlers := handlers.NewCompanyHandlers(subscriptionService, userRepo)
	contractorHandlers := handlers.NewContractorHandlers(schedulerService)
	collaboratorHandlers := handlers.NewCollaboratorHandlers(schedulerService, quotaService)
	adminHandlers := handlers.NewAdminHandlers(authService, subscriptionService, supportService, subscriptionRepo, userRepo)
	supportHandlers := handlers.NewSupportHandlers(supportService)
	checkoutHandlers := handlers.NewCheckoutHandlers(checkoutClient, subscriptionService, schedulerService, logger)
	fileHandlers := handlers.NewFileHandlers(documentService)

	router := setupRouter(cfg, authService,
		authHandlers, inscriptionHandlers, companyHandlers, contractorHandlers,
		collaboratorHandlers, adminHandlers, supportHandlers, checkoutHandlers, fileHandlers)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.WithField("addr", addr).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Forced shutdown: %v", err)
	}
	logger.Info("Server stopped")
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.EmailVerification{},
		&models.Company{},
		&models.Contractor{},
		&models.Collaborator{},
		&models.Administrator{},
		&models.Pack{},
		&models.CompanySubscription{},
		&models.Estimate{},
		&models.Contract{},
		&models.Bill{},
		&models.MedicalAppointment{},
		&models.CalendarUnavailability{},
		&models.Ticket{},
		&models.TicketMessage{},
		&models.ForumCategory{},
		&models.ForumSubject{},
		&models.ForumPost{},
		&models.NGO{},
		&models.Event{},
		&models.EventBooking{},
		&models.Donation{},
		&models.ChatbotUsage{},
	)
}

func setupRouter(cfg *config.Config, authService *services.AuthService,
	auth *handlers.AuthHandlers, inscription *handlers.InscriptionHandlers,
	company *handlers.CompanyHandlers, contractor *handlers.ContractorHandlers,
	collaborator *handlers.CollaboratorHandlers, admin *handlers.AdminHandlers,
	support *handlers.SupportHandlers, checkout *handlers.CheckoutHandlers,
	files *handlers.FileHandlers) *gin.Engine {

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "token", "X-Request-ID")
	router.Use(cors.New(corsConfig))
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "wellness-service"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authenticated := middleware.Auth(authService)

	// Identity
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", auth.Login)
		authGroup.POST("/logout", authenticated, auth.Logout)
		authGroup.GET("/me", authenticated, auth.Me)
		authGroup.POST("/change-password", authenticated, auth.ChangePassword)
		authGroup.POST("/verification", authenticated, auth.RequestVerification)
		authGroup.POST("/verify", authenticated, auth.Verify)
	}

	// Public signup
	router.POST("/company-inscription", inscription.RegisterCompany)
	router.POST("/contractor-inscription", inscription.RegisterContractor)

	// Company space
	companyGroup := router.Group("/company", authenticated, middleware.RequireRole(models.RoleCompany), middleware.RequireVerified())
	{
		companyGroup.POST("/estimate", company.CreateEstimate)
		companyGroup.GET("/contracts", company.ListContracts)
		companyGroup.POST("/contracts/:subscription_id/sign", company.SignContract)
		companyGroup.POST("/contracts/:subscription_id/resiliate", company.Resiliate)
		companyGroup.POST("/contracts/:subscription_id/checkout", company.CreateBillCheckout)
		companyGroup.POST("/collaborators", inscription.RegisterCollaborator)
		companyGroup.GET("/collaborators", company.ListCollaborators)
		companyGroup.DELETE("/collaborators/:collaborator_id", company.DeleteCollaborator)
	}

	// Contractor space
	contractorGroup := router.Group("/contractor", authenticated, middleware.RequireRole(models.RoleContractor), middleware.RequireVerified())
	{
		contractorGroup.GET("/calendar", contractor.Calendar)
		contractorGroup.POST("/unavailability", contractor.AddUnavailability)
		contractorGroup.DELETE("/unavailability/:calendar_id", contractor.RemoveUnavailability)
	}

	// Any signed-in user can consult a practitioner's open slots
	router.GET("/contractors/:contractor_id/availability", authenticated, contractor.Availability)

	// Collaborator space
	collaboratorGroup := router.Group("/collaborator", authenticated, middleware.RequireRole(models.RoleCollaborator), middleware.RequireVerified())
	{
		collaboratorGroup.POST("/appointments", collaborator.Book)
		collaboratorGroup.GET("/appointments", collaborator.ListAppointments)
		collaboratorGroup.POST("/appointments/:appointment_id/cancel", collaborator.Cancel)
		collaboratorGroup.POST("/appointments/:appointment_id/note", collaborator.AddNote)
		collaboratorGroup.GET("/free-consultations", collaborator.FreeConsultations)
		collaboratorGroup.POST("/chatbot", collaborator.Chat)
	}

	// Back office
	adminGroup := router.Group("/admin", authenticated, middleware.RequireRole(models.RoleAdministrator))
	{
		adminGroup.POST("/administrators", admin.RegisterAdministrator)
		adminGroup.POST("/packs", admin.CreatePack)
		adminGroup.PUT("/packs/:pack_id", admin.UpdatePack)
		adminGroup.GET("/contracts", admin.ListContracts)
		adminGroup.POST("/contracts/:company_id/:subscription_id/sign", admin.CounterSignContract)
		adminGroup.GET("/estimates", admin.ListEstimates)
		adminGroup.GET("/bills", admin.ListBills)
		adminGroup.GET("/companies", admin.ListCompanies)
		adminGroup.GET("/contractors", admin.ListContractors)
		adminGroup.GET("/stats", admin.PlatformStats)
		adminGroup.POST("/ngos", support.CreateNGO)
		adminGroup.POST("/ngos/:ngo_id/events", support.CreateEvent)
		adminGroup.POST("/forum/categories", support.CreateForumCategory)
	}

	// The pack catalog is public so prospects can browse offers
	router.GET("/packs", admin.ListPacks)

	// Support tickets
	ticketGroup := router.Group("/ticket", authenticated)
	{
		ticketGroup.POST("", support.OpenTicket)
		ticketGroup.GET("", support.ListTickets)
		ticketGroup.GET("/:ticket_id", support.GetTicket)
		ticketGroup.POST("/:ticket_id/messages", support.ReplyTicket)
		ticketGroup.POST("/:ticket_id/close", support.CloseTicket)
	}

	// Community forum
	forumGroup := router.Group("/forum", authenticated)
	{
		forumGroup.GET("/categories", support.ListForumCategories)
		forumGroup.GET("/categories/:category_id/subjects", support.ListForumSubjects)
		forumGroup.POST("/categories/:category_id/subjects", support.CreateForumSubject)
		forumGroup.GET("/subjects/:subject_id", support.GetForumThread)
		forumGroup.POST("/subjects/:subject_id/posts", support.CreateForumPost)
	}

	// Solidarity
	solidarityGroup := router.Group("/solidarity", authenticated)
	{
		solidarityGroup.GET("/ngos", support.ListNGOs)
		solidarityGroup.GET("/events", support.ListEvents)
		solidarityGroup.POST("/events/:event_id/join", support.JoinEvent)
		solidarityGroup.DELETE("/events/:event_id/join", support.LeaveEvent)
		solidarityGroup.POST("/donations", support.Donate)
		solidarityGroup.GET("/donations", support.ListDonations)
	}

	// Short aliases for the assistant and the dashboard counters
	router.POST("/chatbot", authenticated, middleware.RequireRole(models.RoleCollaborator), middleware.RequireVerified(), collaborator.Chat)
	router.GET("/stats", authenticated, middleware.RequireRole(models.RoleAdministrator), admin.PlatformStats)

	// Payment provider callback, authenticated by signature
	router.POST("/checkout/webhook", checkout.Webhook)

	// Generated documents
	router.GET("/files/*filepath", authenticated, files.Download)

	return router
}
