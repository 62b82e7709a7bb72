package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ruangjiwa/MindCareBack/internal/config"
	"github.com/ruangjiwa/MindCareBack/internal/database"
	"github.com/ruangjiwa/MindCareBack/internal/jobs"
	"github.com/ruangjiwa/MindCareBack/internal/models"
	"github.com/ruangjiwa/MindCareBack/internal/repository"
	"github.com/ruangjiwa/MindCareBack/internal/routes"
	"github.com/ruangjiwa/MindCareBack/pkg/utils"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}
	db, err := database.Connect(context.Background(), cfg.DBUrl)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := seedAdmin(db, cfg); err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	deps := routes.RegisterRoutes(app, cfg, db)

	var cleanup *jobs.AppointmentCleanup
	if cfg.AppointmentCleanup {
		cleanup = jobs.NewAppointmentCleanup(deps.AppointmentService, cfg)
		if err := cleanup.Start(); err != nil {
			log.Fatalf("Failed to start appointment cleanup: %v", err)
		}
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down")
	if cleanup != nil {
		cleanup.Stop()
	}
	// Pending debounced answer writes go to the database before exit.
	deps.ProgressService.Flush()
	if err := app.Shutdown(); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}

// seedAdmin ensures the configured super-admin account exists.
func seedAdmin(db *pgxpool.Pool, cfg *config.Config) error {
	if cfg.DefaultAdminEmail == "" || cfg.DefaultAdminPassword == "" {
		return nil
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(db)

	_, err := userRepo.GetByEmail(ctx, cfg.DefaultAdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hashed, err := utils.HashPassword(cfg.DefaultAdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:        cfg.DefaultAdminEmail,
		PasswordHash: hashed,
		Role:         models.RoleAdmin,
	}
	if err := userRepo.CreateUser(ctx, admin); err != nil {
		return err
	}
	log.Printf("Seeded admin account %s", cfg.DefaultAdminEmail)
	return nil
}
