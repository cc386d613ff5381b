package handlers

import (
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/services"
)

type PathwayHandler struct {
  log            *logger.Logger
  pathwayService services.PathwayService
}

func NewPathwayHandler(log *logger.Logger, pathwayService services.PathwayService) *PathwayHandler {
  return &PathwayHandler{
    log:            log.With("handler", "PathwayHandler"),
    pathwayService: pathwayService,
  }
}

type createPathwayRequest struct {
  Name              string     `json:"name" binding:"required"`
  Description       string     `json:"description"`
  ShortCode         string     `json:"short_code"`
  AlignmentURL      string     `json:"alignment_url"`
  Framework         string     `json:"framework"`
  CompletionBadgeID *uuid.UUID `json:"completion_badge_id"`
  RuleType          string     `json:"rule_type"`
  RequiredCount     int        `json:"required_count"`
}

func (h *PathwayHandler) CreatePathway(c *gin.Context) {
  var req createPathwayRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, 400, "invalid_body", err)
    return
  }
  pathway, err := h.pathwayService.CreatePathway(c.Request.Context(), services.CreatePathwayInput{
    Name:              req.Name,
    Description:       req.Description,
    ShortCode:         req.ShortCode,
    AlignmentURL:      req.AlignmentURL,
    Framework:         req.Framework,
    CompletionBadgeID: req.CompletionBadgeID,
    RuleType:          req.RuleType,
    RequiredCount:     req.RequiredCount,
  })
  if err != nil {
    h.log.Error("CreatePathway failed", "error", err)
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"pathway": pathway})
}

func (h *PathwayHandler) ListPathways(c *gin.Context) {
  pathways, err := h.pathwayService.ListPathways(c.Request.Context())
  if err != nil {
    h.log.Error("ListPathways failed", "error", err)
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"pathways": pathways})
}

func (h *PathwayHandler) GetPathway(c *gin.Context) {
  pathwayID, err := uuid.Parse(c.Param("pathwayId"))
  if err != nil {
    RespondError(c, 400, "invalid_pathway_id", err)
    return
  }
  pathway, err := h.pathwayService.GetPathway(c.Request.Context(), pathwayID)
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"pathway": pathway})
}

type updatePathwayRequest struct {
  Name              *string    `json:"name"`
  Description       *string    `json:"description"`
  ShortCode         *string    `json:"short_code"`
  AlignmentURL      *string    `json:"alignment_url"`
  Framework         *string    `json:"framework"`
  CompletionBadgeID *uuid.UUID `json:"completion_badge_id"`
  RuleType          *string    `json:"rule_type"`
  RequiredCount     *int       `json:"required_count"`
}

func (h *PathwayHandler) UpdatePathway(c *gin.Context) {
  pathwayID, err := uuid.Parse(c.Param("pathwayId"))
  if err != nil {
    RespondError(c, 400, "invalid_pathway_id", err)
    return
  }
  var req updatePathwayRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, 400, "invalid_body", err)
    return
  }
  pathway, err := h.pathwayService.UpdatePathway(c.Request.Context(), services.UpdatePathwayInput{
    PathwayID:         pathwayID,
    Name:              req.Name,
    Description:       req.Description,
    ShortCode:         req.ShortCode,
    AlignmentURL:      req.AlignmentURL,
    Framework:         req.Framework,
    CompletionBadgeID: req.CompletionBadgeID,
    RuleType:          req.RuleType,
    RequiredCount:     req.RequiredCount,
  })
  if err != nil {
    h.log.Error("UpdatePathway failed", "error", err, "pathway_id", pathwayID)
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"pathway": pathway})
}

func (h *PathwayHandler) DeletePathway(c *gin.Context) {
  pathwayID, err := uuid.Parse(c.Param("pathwayId"))
  if err != nil {
    RespondError(c, 400, "invalid_pathway_id", err)
    return
  }
  if err := h.pathwayService.DeletePathway(c.Request.Context(), pathwayID); err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"deleted": pathwayID})
}
