package main

import (
  "context"
  "flag"
  "fmt"
  "os"

  "github.com/google/uuid"
  "gopkg.in/yaml.v3"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/db"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/repos"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/requestdata"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/services"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/utils"
)

// Seeds pathways from a YAML definition file. Steps reference each
// other by key, so prerequisites and parents can be declared before
// the ids exist.
type seedFile struct {
  Pathways []seedPathway `yaml:"pathways"`
}

type seedPathway struct {
  Name          string     `yaml:"name"`
  Description   string     `yaml:"description"`
  ShortCode     string     `yaml:"short_code"`
  Framework     string     `yaml:"framework"`
  RuleType      string     `yaml:"rule_type"`
  RequiredCount int        `yaml:"required_count"`
  Publish       bool       `yaml:"publish"`
  Steps         []seedStep `yaml:"steps"`
}

type seedStep struct {
  Key           string            `yaml:"key"`
  Name          string            `yaml:"name"`
  Description   string            `yaml:"description"`
  Parent        string            `yaml:"parent"`
  OrderIndex    *int              `yaml:"order_index"`
  Optional      bool              `yaml:"optional"`
  RuleType      string            `yaml:"rule_type"`
  RequiredCount int               `yaml:"required_count"`
  Prerequisites []string          `yaml:"prerequisites"`
  Requirements  []seedRequirement `yaml:"requirements"`
}

type seedRequirement struct {
  Kind                  string `yaml:"kind"`
  BadgeClassID          string `yaml:"badge_class_id"`
  ThirdPartyURL         string `yaml:"third_party_url"`
  ExperienceName        string `yaml:"experience_name"`
  ExperienceDescription string `yaml:"experience_description"`
  GroupKey              string `yaml:"group_key"`
}

func main() {
  filePath := flag.String("file", "seed.yaml", "path to the seed definition file")
  flag.Parse()

  log, err := logger.New("development")
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  raw, err := os.ReadFile(*filePath)
  if err != nil {
    log.Fatal("Could not read seed file", "path", *filePath, "error", err)
  }
  var def seedFile
  if err := yaml.Unmarshal(raw, &def); err != nil {
    log.Fatal("Could not parse seed file", "path", *filePath, "error", err)
  }

  seedUserID := utils.GetEnv("SEED_USER_ID", uuid.Nil.String(), log)
  operatorID, err := uuid.Parse(seedUserID)
  if err != nil || operatorID == uuid.Nil {
    log.Fatal("SEED_USER_ID must be a valid uuid")
  }
  seedOrgID := utils.GetEnv("SEED_ORG_ID", uuid.Nil.String(), log)
  orgID, err := uuid.Parse(seedOrgID)
  if err != nil {
    log.Fatal("SEED_ORG_ID must be a valid uuid")
  }
  ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
    UserID: operatorID,
    Email:  utils.GetEnv("SEED_USER_EMAIL", "seed@localhost", log),
    OrgID:  orgID,
  })

  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Fatal("Postgres init failed", "error", err)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Fatal("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  pathwayRepo := repos.NewPathwayRepo(thePG, log)
  stepRepo := repos.NewStepRepo(thePG, log)
  requirementRepo := repos.NewRequirementRepo(thePG, log)
  edgeRepo := repos.NewPrerequisiteEdgeRepo(thePG, log)
  versionRepo := repos.NewPathwayVersionRepo(thePG, log)
  stepVersionRepo := repos.NewStepVersionRepo(thePG, log)
  reqVersionRepo := repos.NewRequirementVersionRepo(thePG, log)
  auditEntryRepo := repos.NewAuditEntryRepo(thePG, log)

  auditService := services.NewAuditService(thePG, log, auditEntryRepo)
  pathwayService := services.NewPathwayService(thePG, log, pathwayRepo, stepRepo, auditService)
  structureService := services.NewStructureService(thePG, log, pathwayRepo, stepRepo, requirementRepo, edgeRepo, auditService)
  versioningService := services.NewVersioningService(thePG, log, pathwayRepo, stepRepo, requirementRepo, versionRepo, stepVersionRepo, reqVersionRepo, auditService)

  for _, sp := range def.Pathways {
    if err := seedOnePathway(ctx, log, pathwayService, structureService, versioningService, sp); err != nil {
      log.Fatal("Seed failed", "pathway", sp.Name, "error", err)
    }
  }
  log.Info("Seed complete", "pathways", len(def.Pathways))
}

func seedOnePathway(
  ctx context.Context,
  log *logger.Logger,
  pathwayService services.PathwayService,
  structureService services.StructureService,
  versioningService services.VersioningService,
  sp seedPathway,
) error {
  pathway, err := pathwayService.CreatePathway(ctx, services.CreatePathwayInput{
    Name:          sp.Name,
    Description:   sp.Description,
    ShortCode:     sp.ShortCode,
    Framework:     sp.Framework,
    RuleType:      sp.RuleType,
    RequiredCount: sp.RequiredCount,
  })
  if err != nil {
    return fmt.Errorf("create pathway: %w", err)
  }
  log.Info("Created pathway", "name", sp.Name, "id", pathway.ID)

  stepByKey := map[string]uuid.UUID{}
  for _, ss := range sp.Steps {
    var parentID *uuid.UUID
    if ss.Parent != "" {
      parent, ok := stepByKey[ss.Parent]
      if !ok {
        return fmt.Errorf("step %q references unknown parent %q", ss.Key, ss.Parent)
      }
      parentID = &parent
    }
    step, err := structureService.CreateStep(ctx, services.CreateStepInput{
      PathwayID:     pathway.ID,
      ParentID:      parentID,
      OrderIndex:    ss.OrderIndex,
      Name:          ss.Name,
      Description:   ss.Description,
      Optional:      ss.Optional,
      RuleType:      ss.RuleType,
      RequiredCount: ss.RequiredCount,
    })
    if err != nil {
      return fmt.Errorf("create step %q: %w", ss.Key, err)
    }
    stepByKey[ss.Key] = step.ID

    for _, sr := range ss.Requirements {
      input := services.CreateRequirementInput{
        StepID:                step.ID,
        Kind:                  sr.Kind,
        ThirdPartyURL:         sr.ThirdPartyURL,
        ExperienceName:        sr.ExperienceName,
        ExperienceDescription: sr.ExperienceDescription,
        GroupKey:              sr.GroupKey,
      }
      if sr.BadgeClassID != "" {
        badgeClassID, err := uuid.Parse(sr.BadgeClassID)
        if err != nil {
          return fmt.Errorf("step %q: invalid badge_class_id: %w", ss.Key, err)
        }
        input.BadgeClassID = &badgeClassID
      }
      if _, err := structureService.CreateRequirement(ctx, input); err != nil {
        return fmt.Errorf("create requirement on step %q: %w", ss.Key, err)
      }
    }
  }

  // Prerequisite edges go in a second pass so forward references work.
  for _, ss := range sp.Steps {
    for _, prereqKey := range ss.Prerequisites {
      prereqID, ok := stepByKey[prereqKey]
      if !ok {
        return fmt.Errorf("step %q references unknown prerequisite %q", ss.Key, prereqKey)
      }
      if _, err := structureService.AddPrerequisite(ctx, stepByKey[ss.Key], prereqID); err != nil {
        return fmt.Errorf("add prerequisite %q -> %q: %w", ss.Key, prereqKey, err)
      }
    }
  }

  if sp.Publish {
    version, err := versioningService.Publish(ctx, pathway.ID)
    if err != nil {
      return fmt.Errorf("publish: %w", err)
    }
    log.Info("Published pathway", "name", sp.Name, "version", version.Version)
  }
  return nil
}
