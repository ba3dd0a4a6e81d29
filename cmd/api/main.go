package main

import (
	"fmt"
	"time"

	"todo-collab/configs"
	v1 "todo-collab/internal/api/v1"
	"todo-collab/internal/config"
	"todo-collab/internal/middleware"
	"todo-collab/internal/repository"
	"todo-collab/pkg/database"
	"todo-collab/pkg/logger"
	"todo-collab/pkg/mailer"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
)

func main() {
	// Inisialisasi logger
	logger.InitLoggers()
	defer logger.SyncLoggers()
	logger.SystemLogger.Info("Starting application", zap.String("time", time.Now().Format(time.RFC3339)))

	// Load config
	cfg := configs.LoadConfig()
	config.SecretKey = []byte(cfg.JWTSecret)

	// Inisialisasi database
	config.DB = database.ConnectDB(cfg)
	defer config.DB.Close()

	logger.SystemLogger.Info("Database Connected")

	// Buat tabel jika belum ada
	repository.CreateTableIfNotExists(config.DB)

	// Inisialisasi Redis
	config.RedisClient = database.ConnectRedis(cfg)
	defer config.RedisClient.Close()

	// Inisialisasi mailer untuk kode reset password
	config.Mailer = mailer.NewSMTPMailer(cfg.MailHost, cfg.MailPort, cfg.MailUsername, cfg.MailPassword, cfg.MailSender)

	app := fiber.New()

	// Middleware
	app.Use(middleware.ErrorHandler())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	// Daftarkan route API v1
	v1.RegisterRoutes(app)

	addr := fmt.Sprintf(":%d", cfg.AppPort)
	logger.SystemLogger.Info("Application ready", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		logger.ErrorLogger.Error("Application failed to start", zap.Error(err))
	}
}
