package handlers

import (
  "strconv"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/services"
)

type VersionHandler struct {
  log               *logger.Logger
  versioningService services.VersioningService
}

func NewVersionHandler(log *logger.Logger, versioningService services.VersioningService) *VersionHandler {
  return &VersionHandler{
    log:               log.With("handler", "VersionHandler"),
    versioningService: versioningService,
  }
}

func (h *VersionHandler) Publish(c *gin.Context) {
  pathwayID, err := uuid.Parse(c.Param("pathwayId"))
  if err != nil {
    RespondError(c, 400, "invalid_pathway_id", err)
    return
  }
  version, err := h.versioningService.Publish(c.Request.Context(), pathwayID)
  if err != nil {
    h.log.Error("Publish failed", "error", err, "pathway_id", pathwayID)
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"version": version})
}

func (h *VersionHandler) CreateNewDraft(c *gin.Context) {
  pathwayID, err := uuid.Parse(c.Param("pathwayId"))
  if err != nil {
    RespondError(c, 400, "invalid_pathway_id", err)
    return
  }
  pathway, err := h.versioningService.CreateNewDraft(c.Request.Context(), pathwayID)
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"pathway": pathway})
}

func (h *VersionHandler) ListVersions(c *gin.Context) {
  pathwayID, err := uuid.Parse(c.Param("pathwayId"))
  if err != nil {
    RespondError(c, 400, "invalid_pathway_id", err)
    return
  }
  versions, err := h.versioningService.ListVersions(c.Request.Context(), pathwayID)
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"versions": versions})
}

func (h *VersionHandler) GetVersion(c *gin.Context) {
  pathwayID, err := uuid.Parse(c.Param("pathwayId"))
  if err != nil {
    RespondError(c, 400, "invalid_pathway_id", err)
    return
  }
  version, err := strconv.Atoi(c.Param("version"))
  if err != nil {
    RespondError(c, 400, "invalid_version", err)
    return
  }
  detail, err := h.versioningService.GetVersion(c.Request.Context(), pathwayID, version)
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, detail)
}

func (h *VersionHandler) ArchiveVersion(c *gin.Context) {
  pathwayID, err := uuid.Parse(c.Param("pathwayId"))
  if err != nil {
    RespondError(c, 400, "invalid_pathway_id", err)
    return
  }
  version, err := strconv.Atoi(c.Param("version"))
  if err != nil {
    RespondError(c, 400, "invalid_version", err)
    return
  }
  archived, err := h.versioningService.ArchiveVersion(c.Request.Context(), pathwayID, version)
  if err != nil {
    h.log.Error("ArchiveVersion failed", "error", err, "pathway_id", pathwayID, "version", version)
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"version": archived})
}
