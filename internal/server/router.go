package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"
  "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/handlers"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/middleware"
)

type RouterConfig struct {
  ServiceName     string
  AllowOrigins    []string
  AuthMiddleware  *middleware.AuthMiddleware
  PathwayHandler  *handlers.PathwayHandler
  StepHandler     *handlers.StepHandler
  VersionHandler  *handlers.VersionHandler
  ProgressHandler *handlers.ProgressHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  router.Use(otelgin.Middleware(cfg.ServiceName))

  // Cors
  origins := cfg.AllowOrigins
  if len(origins) == 0 {
    origins = []string{"http://localhost:3000"}
  }
  router.Use(cors.New(cors.Config{
    AllowOrigins:     origins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

// ===============
// || Public    ||
// ===============
  router.GET("/healthcheck", handlers.HealthCheck)

// ===============
// || Protected ||
// ===============
  protected := router.Group("/api")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  // Pathways
  protected.POST("/pathways", cfg.PathwayHandler.CreatePathway)
  protected.GET("/pathways", cfg.PathwayHandler.ListPathways)
  protected.GET("/pathways/:pathwayId", cfg.PathwayHandler.GetPathway)
  protected.PATCH("/pathways/:pathwayId", cfg.PathwayHandler.UpdatePathway)
  protected.DELETE("/pathways/:pathwayId", cfg.PathwayHandler.DeletePathway)
  // Structure
  protected.GET("/pathways/:pathwayId/steps", cfg.StepHandler.ListSteps)
  protected.POST("/pathways/:pathwayId/steps", cfg.StepHandler.CreateStep)
  protected.PATCH("/steps/:stepId", cfg.StepHandler.UpdateStep)
  protected.POST("/steps/:stepId/rearrange", cfg.StepHandler.RearrangeStep)
  protected.DELETE("/steps/:stepId", cfg.StepHandler.DeleteStep)
  protected.GET("/steps/:stepId/requirements", cfg.StepHandler.ListRequirements)
  protected.POST("/steps/:stepId/requirements", cfg.StepHandler.CreateRequirement)
  protected.PATCH("/requirements/:requirementId", cfg.StepHandler.UpdateRequirement)
  protected.DELETE("/requirements/:requirementId", cfg.StepHandler.DeleteRequirement)
  protected.POST("/steps/:stepId/prerequisites", cfg.StepHandler.AddPrerequisite)
  protected.DELETE("/steps/:stepId/prerequisites/:prerequisiteStepId", cfg.StepHandler.RemovePrerequisite)
  // Versioning
  protected.POST("/pathways/:pathwayId/publish", cfg.VersionHandler.Publish)
  protected.POST("/pathways/:pathwayId/draft", cfg.VersionHandler.CreateNewDraft)
  protected.GET("/pathways/:pathwayId/versions", cfg.VersionHandler.ListVersions)
  protected.GET("/pathways/:pathwayId/versions/:version", cfg.VersionHandler.GetVersion)
  protected.POST("/pathways/:pathwayId/versions/:version/archive", cfg.VersionHandler.ArchiveVersion)
  // Progress
  protected.POST("/pathways/:pathwayId/enroll", cfg.ProgressHandler.Enroll)
  protected.POST("/pathways/:pathwayId/unenroll", cfg.ProgressHandler.Unenroll)
  protected.GET("/pathways/:pathwayId/progress", cfg.ProgressHandler.GetProgress)
  protected.POST("/pathways/:pathwayId/progress/recalculate", cfg.ProgressHandler.Recalculate)
  protected.POST("/step-versions/:stepVersionId/complete", cfg.ProgressHandler.CompleteStep)

  return router
}
