package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ruangjiwa/MindCareBack/internal/config"
	"github.com/ruangjiwa/MindCareBack/internal/handlers"
	"github.com/ruangjiwa/MindCareBack/internal/middleware"
	"github.com/ruangjiwa/MindCareBack/internal/realtime"
	"github.com/ruangjiwa/MindCareBack/internal/repository"
	"github.com/ruangjiwa/MindCareBack/internal/services"
)

// Deps are the long-lived components the server owns after route wiring.
type Deps struct {
	Hub                *realtime.Hub
	ProgressService    *services.ProgressService
	AppointmentService *services.AppointmentService
}

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) *Deps {
	userRepo := repository.NewUserRepository(db)
	participantRepo := repository.NewParticipantProfileRepository(db)
	professionalRepo := repository.NewProfessionalProfileRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	broadcastRepo := repository.NewBroadcastRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	guidanceRepo := repository.NewGuidanceRepository(db)

	var storageService services.StorageService
	if cfg.SupabaseURL != "" && cfg.SupabaseBucket != "" && cfg.SupabaseServiceKey != "" {
		storageService = services.NewSupabaseStorageService(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}

	hub := realtime.NewHub()
	go hub.Run()

	profileService := services.NewProfileService(participantRepo, professionalRepo, storageService)
	directoryService := services.NewDirectoryService(professionalRepo)
	chatService := services.NewChatService(db, roomRepo, messageRepo, userRepo)
	broadcastService := services.NewBroadcastService(broadcastRepo)
	appointmentService := services.NewAppointmentService(db, appointmentRepo, roomRepo, messageRepo, userRepo)
	enrollmentService := services.NewEnrollmentService(enrollmentRepo)
	exportService := services.NewExportService(enrollmentRepo, userRepo)
	progressService := services.NewProgressService(progressRepo, cfg.AutosaveQuietPeriod)
	guidanceService := services.NewGuidanceService(guidanceRepo, enrollmentRepo, storageService)

	authHandler := handlers.NewAuthHandler(db, userRepo, participantRepo, professionalRepo, cfg.JWTSecret)
	profileHandler := handlers.NewProfileHandler(profileService)
	directoryHandler := handlers.NewDirectoryHandler(directoryService, participantRepo)
	chatHandler := handlers.NewChatHandler(chatService, hub, participantRepo, cfg.JWTSecret)
	broadcastHandler := handlers.NewBroadcastHandler(broadcastService, participantRepo, hub)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentService)
	enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentService, exportService)
	progressHandler := handlers.NewProgressHandler(progressService)
	guidanceHandler := handlers.NewGuidanceHandler(guidanceService)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	profiles := authProtected.Group("/profile")
	profiles.Get("", profileHandler.GetMyProfile)
	profiles.Put("/participant", profileHandler.UpdateParticipantProfile)
	profiles.Put("/professional", profileHandler.UpdateProfessionalProfile)
	profiles.Post("/avatar", profileHandler.UploadAvatar)

	professionals := authProtected.Group("/professionals")
	professionals.Get("", directoryHandler.ListProfessionals)
	professionals.Get("/recommended", directoryHandler.Recommended)
	professionals.Put("/:id/verify", middleware.AdminOnly(), profileHandler.VerifyProfessional)

	rooms := authProtected.Group("/rooms")
	rooms.Get("", chatHandler.ListRooms)
	rooms.Post("", chatHandler.CreateRoom)
	rooms.Get("/:id/messages", chatHandler.GetMessages)
	rooms.Post("/:id/messages", chatHandler.SendMessage)

	broadcasts := authProtected.Group("/broadcasts")
	broadcasts.Get("", broadcastHandler.ListMine)
	broadcasts.Post("", middleware.AdminOnly(), broadcastHandler.Publish)
	broadcasts.Post("/:id/read", broadcastHandler.MarkRead)

	appointments := authProtected.Group("/appointments")
	appointments.Post("", appointmentHandler.Request)
	appointments.Get("", appointmentHandler.ListHistory)
	appointments.Get("/buckets", appointmentHandler.Buckets)
	appointments.Get("/:id", appointmentHandler.Get)
	appointments.Put("/:id/approve", appointmentHandler.Approve)
	appointments.Put("/:id/reject", appointmentHandler.Reject)
	appointments.Put("/:id/complete", middleware.AdminOnly(), appointmentHandler.Complete)
	appointments.Put("/:id/cancel", appointmentHandler.Cancel)

	enrollments := authProtected.Group("/enrollments")
	enrollments.Post("", enrollmentHandler.Apply)
	enrollments.Get("", middleware.AdminOnly(), enrollmentHandler.List)
	enrollments.Get("/export", middleware.AdminOnly(), enrollmentHandler.ExportCSV)
	enrollments.Get("/:program", enrollmentHandler.GetMine)
	enrollments.Get("/:program/access", enrollmentHandler.CheckAccess)
	enrollments.Put("/:id/approve", middleware.AdminOnly(), enrollmentHandler.Approve)
	enrollments.Put("/:id/reject", middleware.AdminOnly(), enrollmentHandler.Reject)

	programs := authProtected.Group("/programs/:program")
	programs.Get("/progress", progressHandler.Overview)
	programs.Get("/guidance", middleware.AdminOnly(), guidanceHandler.List)
	programs.Get("/sessions/:session/progress", progressHandler.GetProgress)
	programs.Post("/sessions/:session/milestones", progressHandler.MarkMilestone)
	programs.Put("/sessions/:session/answers", progressHandler.AutosaveAnswers)
	programs.Post("/sessions/:session/submit", progressHandler.SubmitAssignment)
	programs.Post("/sessions/:session/respond", middleware.AdminOnly(), progressHandler.CounselorRespond)
	programs.Get("/sessions/:session/guidance", guidanceHandler.Get)
	programs.Put("/sessions/:session/guidance", middleware.AdminOnly(), guidanceHandler.Upsert)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))

	return &Deps{
		Hub:                hub,
		ProgressService:    progressService,
		AppointmentService: appointmentService,
	}
}
