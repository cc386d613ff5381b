package db

import (
  "fmt"

  "gorm.io/driver/postgres"
  "gorm.io/gorm"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/types"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/utils"
)

type PostgresService struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")

  log.Info("Loading environment variables...")
  postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
  postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
  postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
  postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
  postgresName := utils.GetEnv("POSTGRES_NAME", "digibadger", log)
  log.Debug("Environment variables loaded")

  dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

  log.Info("Connecting to Postgres...")
  db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
  })
  if err != nil {
    log.Error("Failed to connect to Postgres", "error", err)
    return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
  }

  if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
    log.Error("Failed to enable uuid-ossp extension", "error", err)
    return nil, fmt.Errorf("Failed to enable uuid-ossp extension: %w", err)
  }

  return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}

func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Auto migrating postgres tables...")
  err := s.db.AutoMigrate(
    &types.Pathway{},
    &types.Step{},
    &types.Requirement{},
    &types.PrerequisiteEdge{},
    &types.PathwayVersion{},
    &types.StepVersion{},
    &types.RequirementVersion{},
    &types.PathwayProgress{},
    &types.StepProgress{},
    &types.AuditEntry{},
  )
  if err != nil {
    s.log.Error("Auto migration failed", "error", err)
    return err
  }
  s.log.Info("Auto migration complete")
  return nil
}
