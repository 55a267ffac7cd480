package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/nextlevel-sports/academy-api/api/swagger"
	"github.com/nextlevel-sports/academy-api/internal/handler"
	"github.com/nextlevel-sports/academy-api/internal/middleware"
	"github.com/nextlevel-sports/academy-api/internal/repository"
	"github.com/nextlevel-sports/academy-api/internal/service"
	"github.com/nextlevel-sports/academy-api/pkg/cache"
	"github.com/nextlevel-sports/academy-api/pkg/civiltime"
	"github.com/nextlevel-sports/academy-api/pkg/config"
	"github.com/nextlevel-sports/academy-api/pkg/database"
	"github.com/nextlevel-sports/academy-api/pkg/logger"
	corsmiddleware "github.com/nextlevel-sports/academy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/nextlevel-sports/academy-api/pkg/middleware/requestid"
)

// @title Academy API
// @version 0.1.0
// @description Scheduling and billing backend for a beach tennis academy
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

	zone, err := civiltime.LoadZone(cfg.Schedule.Timezone)
	if err != nil {
		logr.Sugar().Fatalw("failed to load timezone", "tz", cfg.Schedule.Timezone, "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if cfg.Database.Migrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if err := database.Migrate(ctx, db); err != nil {
			cancel()
			logr.Sugar().Fatalw("failed to run migrations", "error", err)
		}
		cancel()
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, availability caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	professionalRepo := repository.NewProfessionalRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	agendaRepo := repository.NewAgendaRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	blockRepo := repository.NewTimeBlockRepository(db)
	contractRepo := repository.NewContractRepository(db)
	receivableRepo := repository.NewReceivableRepository(db)
	ruleRepo := repository.NewCommissionRuleRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	conflicts := service.NewConflictChecker(lessonRepo, blockRepo, zone, logr)
	availability := service.NewAvailabilityService(conflicts, zone, cacheRepo, cfg.Schedule, logr).WithMetrics(metrics)
	lessons := service.NewLessonService(
		lessonRepo, agendaRepo, professionalRepo, unitRepo, receivableRepo, contractRepo,
		conflicts, availability, zone, cfg.Schedule, validate, logr,
	).WithMetrics(metrics)
	contracts := service.NewContractService(
		contractRepo, lessonRepo, receivableRepo, agendaRepo, studentRepo, professionalRepo, unitRepo,
		conflicts, availability, zone, cfg.Schedule, validate, logr,
	).WithMetrics(metrics)
	blocks := service.NewBlockService(blockRepo, availability, zone, validate, logr)
	agenda := service.NewAgendaService(lessonRepo, blockRepo, zone, logr)
	receivables := service.NewReceivableService(receivableRepo, zone, logr)
	commissions := service.NewCommissionService(ruleRepo, lessonRepo, zone, validate, logr)
	users := service.NewUserService(userRepo, professionalRepo, validate, logr)
	students := service.NewStudentService(studentRepo, userRepo, lessonRepo, receivableRepo, contractRepo, validate, logr)
	auth := service.NewAuthService(userRepo, cfg.JWT, validate, logr)

	handlers := &handler.Handlers{
		Auth:        handler.NewAuthHandler(auth),
		Agenda:      handler.NewAgendaHandler(agenda, availability),
		Lessons:     handler.NewLessonHandler(lessons),
		Blocks:      handler.NewBlockHandler(blocks),
		Contracts:   handler.NewContractHandler(contracts),
		Receivables: handler.NewReceivableHandler(receivables),
		Commissions: handler.NewCommissionHandler(commissions),
		Users:       handler.NewUserHandler(users),
		Students:    handler.NewStudentHandler(students),
		Metrics:     handler.NewMetricsHandler(metrics),
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.Register(r, cfg, handlers, auth)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "tz", cfg.Schedule.Timezone)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
