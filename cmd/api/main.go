package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/assess-go-api/internal/config"
	"github.com/noah-isme/assess-go-api/internal/database"
	"github.com/noah-isme/assess-go-api/internal/handler"
	"github.com/noah-isme/assess-go-api/internal/middleware"
	"github.com/noah-isme/assess-go-api/internal/models"
	"github.com/noah-isme/assess-go-api/internal/repository"
	"github.com/noah-isme/assess-go-api/internal/router"
	"github.com/noah-isme/assess-go-api/internal/service"
	"github.com/noah-isme/assess-go-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Student{}, &models.Assignment{}, &models.Question{}, &models.Submission{}, &models.Answer{}, &models.ActivityLog{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		// events are advisory, the API runs without them
		logger.Warn().Err(err).Msg("nats unavailable, lifecycle events disabled")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	events := service.NewEventPublisher(natsConn, "submission", logger)
	activityService := service.NewActivityService(activityRepo, logger)

	assignmentService := service.NewAssignmentService(assignmentRepo, validate, logger)
	examService := service.NewExamService(assignmentRepo, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, validate, events, activityService, cfg.DeadlineGrace, logger)
	gradingService := service.NewGradingService(submissionRepo, validate, buildReviewer(cfg, logger), events, activityService, logger)
	dashboardService := service.NewStudentDashboardService(studentRepo, assignmentRepo, submissionRepo, redisClient, cfg.DashboardCacheTTL, logger)

	assignmentHandler := handler.NewAssignmentHandler(assignmentService, examService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, logger)
	studentDashboardHandler := handler.NewStudentDashboardHandler(dashboardService, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler:       assignmentHandler,
		SubmissionHandler:       submissionHandler,
		GradingHandler:          gradingHandler,
		StudentDashboardHandler: studentDashboardHandler,
		ActivityHandler:         activityHandler,
		JWTMiddleware:           middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

// buildReviewer returns the configured AI reviewer, or nil when no provider
// is configured so grading suggestions fall back to the heuristic grader.
func buildReviewer(cfg config.Config, logger zerolog.Logger) ai.Reviewer {
	switch cfg.AIProvider {
	case "openai":
		reviewer, err := ai.NewOpenAIReviewer(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("openai reviewer unavailable, using heuristic grader")
			return nil
		}
		return reviewer
	case "anthropic":
		reviewer, err := ai.NewAnthropicReviewer(ai.AnthropicConfig{APIKey: cfg.AnthropicAPIKey})
		if err != nil {
			logger.Warn().Err(err).Msg("anthropic reviewer unavailable, using heuristic grader")
			return nil
		}
		return reviewer
	default:
		return nil
	}
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
