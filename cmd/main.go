package main

import (
  "context"
  "fmt"
  "os"
  "strings"
  "time"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/db"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/handlers"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/middleware"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/observability"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/repos"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/server"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/services"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  port := utils.GetEnv("PORT", "8080", log)
  allowOrigins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", log)
  redisAddr := utils.GetEnv("REDIS_ADDR", "", log)
  redisPassword := utils.GetEnv("REDIS_PASSWORD", "", log)
  redisDB := utils.GetEnvAsInt("REDIS_DB", 0, log)

  // Tracing
  shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
    ServiceName: "digibadger-backend",
    Environment: utils.GetEnv("APP_ENV", "development", log),
    Version:     utils.GetEnv("APP_VERSION", "dev", log),
  })
  defer func() {
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := shutdownOTel(ctx); err != nil {
      log.Warn("OTel shutdown failed", "error", err)
    }
  }()

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  pathwayRepo := repos.NewPathwayRepo(thePG, log)
  stepRepo := repos.NewStepRepo(thePG, log)
  requirementRepo := repos.NewRequirementRepo(thePG, log)
  edgeRepo := repos.NewPrerequisiteEdgeRepo(thePG, log)
  versionRepo := repos.NewPathwayVersionRepo(thePG, log)
  stepVersionRepo := repos.NewStepVersionRepo(thePG, log)
  reqVersionRepo := repos.NewRequirementVersionRepo(thePG, log)
  pathwayProgRepo := repos.NewPathwayProgressRepo(thePG, log)
  stepProgRepo := repos.NewStepProgressRepo(thePG, log)
  auditEntryRepo := repos.NewAuditEntryRepo(thePG, log)

  // Services
  log.Info("Setting up Services from main...")
  tokenService := services.NewTokenService(log, jwtSecretKey)
  auditService := services.NewAuditService(thePG, log, auditEntryRepo)
  badgeIssuer := services.NewLogBadgeIssuer(log)
  progressCache := services.NewProgressCache(redisAddr, redisPassword, redisDB, log)
  pathwayService := services.NewPathwayService(thePG, log, pathwayRepo, stepRepo, auditService)
  structureService := services.NewStructureService(thePG, log, pathwayRepo, stepRepo, requirementRepo, edgeRepo, auditService)
  versioningService := services.NewVersioningService(thePG, log, pathwayRepo, stepRepo, requirementRepo, versionRepo, stepVersionRepo, reqVersionRepo, auditService)
  progressService := services.NewProgressService(thePG, log, pathwayRepo, versionRepo, stepVersionRepo, edgeRepo, pathwayProgRepo, stepProgRepo, auditService, badgeIssuer, progressCache)

  // Handlers
  log.Info("Setting up Handlers from main...")
  pathwayHandler := handlers.NewPathwayHandler(log, pathwayService)
  stepHandler := handlers.NewStepHandler(log, structureService)
  versionHandler := handlers.NewVersionHandler(log, versioningService)
  progressHandler := handlers.NewProgressHandler(log, progressService)

  // Middleware
  authMiddleware := middleware.NewAuthMiddleware(log, tokenService)

  // Router
  router := server.NewRouter(server.RouterConfig{
    ServiceName:     "digibadger-backend",
    AllowOrigins:    strings.Split(allowOrigins, ","),
    AuthMiddleware:  authMiddleware,
    PathwayHandler:  pathwayHandler,
    StepHandler:     stepHandler,
    VersionHandler:  versionHandler,
    ProgressHandler: progressHandler,
  })

  log.Info("Starting server...", "port", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server exited", "error", err)
    os.Exit(1)
  }
}
