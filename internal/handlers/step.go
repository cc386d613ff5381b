package handlers

import (
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "gorm.io/datatypes"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/services"
)

type StepHandler struct {
  log              *logger.Logger
  structureService services.StructureService
}

func NewStepHandler(log *logger.Logger, structureService services.StructureService) *StepHandler {
  return &StepHandler{
    log:              log.With("handler", "StepHandler"),
    structureService: structureService,
  }
}

func (h *StepHandler) ListSteps(c *gin.Context) {
  pathwayID, err := uuid.Parse(c.Param("pathwayId"))
  if err != nil {
    RespondError(c, 400, "invalid_pathway_id", err)
    return
  }
  steps, err := h.structureService.ListSteps(c.Request.Context(), pathwayID)
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"steps": steps})
}

type createStepRequest struct {
  ParentID      *uuid.UUID `json:"parent_id"`
  OrderIndex    *int       `json:"order_index"`
  Name          string     `json:"name" binding:"required"`
  Description   string     `json:"description"`
  Optional      bool       `json:"optional"`
  BadgeClassID  *uuid.UUID `json:"badge_class_id"`
  ExternalBadge bool       `json:"external_badge"`
  RuleType      string     `json:"rule_type"`
  RequiredCount int        `json:"required_count"`
}

func (h *StepHandler) CreateStep(c *gin.Context) {
  pathwayID, err := uuid.Parse(c.Param("pathwayId"))
  if err != nil {
    RespondError(c, 400, "invalid_pathway_id", err)
    return
  }
  var req createStepRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, 400, "invalid_body", err)
    return
  }
  step, err := h.structureService.CreateStep(c.Request.Context(), services.CreateStepInput{
    PathwayID:     pathwayID,
    ParentID:      req.ParentID,
    OrderIndex:    req.OrderIndex,
    Name:          req.Name,
    Description:   req.Description,
    Optional:      req.Optional,
    BadgeClassID:  req.BadgeClassID,
    ExternalBadge: req.ExternalBadge,
    RuleType:      req.RuleType,
    RequiredCount: req.RequiredCount,
  })
  if err != nil {
    h.log.Error("CreateStep failed", "error", err, "pathway_id", pathwayID)
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"step": step})
}

type updateStepRequest struct {
  Name          *string    `json:"name"`
  Description   *string    `json:"description"`
  Optional      *bool      `json:"optional"`
  BadgeClassID  *uuid.UUID `json:"badge_class_id"`
  ExternalBadge *bool      `json:"external_badge"`
  RuleType      *string    `json:"rule_type"`
  RequiredCount *int       `json:"required_count"`
}

func (h *StepHandler) UpdateStep(c *gin.Context) {
  stepID, err := uuid.Parse(c.Param("stepId"))
  if err != nil {
    RespondError(c, 400, "invalid_step_id", err)
    return
  }
  var req updateStepRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, 400, "invalid_body", err)
    return
  }
  step, err := h.structureService.UpdateStep(c.Request.Context(), services.UpdateStepInput{
    StepID:        stepID,
    Name:          req.Name,
    Description:   req.Description,
    Optional:      req.Optional,
    BadgeClassID:  req.BadgeClassID,
    ExternalBadge: req.ExternalBadge,
    RuleType:      req.RuleType,
    RequiredCount: req.RequiredCount,
  })
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"step": step})
}

type rearrangeStepRequest struct {
  NewParentID *uuid.UUID `json:"new_parent_id"`
  OrderIndex  *int       `json:"order_index"`
}

func (h *StepHandler) RearrangeStep(c *gin.Context) {
  stepID, err := uuid.Parse(c.Param("stepId"))
  if err != nil {
    RespondError(c, 400, "invalid_step_id", err)
    return
  }
  var req rearrangeStepRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, 400, "invalid_body", err)
    return
  }
  step, err := h.structureService.RearrangeStep(c.Request.Context(), stepID, req.NewParentID, req.OrderIndex)
  if err != nil {
    h.log.Error("RearrangeStep failed", "error", err, "step_id", stepID)
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"step": step})
}

func (h *StepHandler) DeleteStep(c *gin.Context) {
  stepID, err := uuid.Parse(c.Param("stepId"))
  if err != nil {
    RespondError(c, 400, "invalid_step_id", err)
    return
  }
  if err := h.structureService.DeleteStep(c.Request.Context(), stepID); err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"deleted": stepID})
}

func (h *StepHandler) ListRequirements(c *gin.Context) {
  stepID, err := uuid.Parse(c.Param("stepId"))
  if err != nil {
    RespondError(c, 400, "invalid_step_id", err)
    return
  }
  requirements, err := h.structureService.ListRequirements(c.Request.Context(), stepID)
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"requirements": requirements})
}

type createRequirementRequest struct {
  Kind                  string         `json:"kind" binding:"required"`
  BadgeClassID          *uuid.UUID     `json:"badge_class_id"`
  ThirdPartyURL         string         `json:"third_party_url"`
  ThirdPartyPayload     datatypes.JSON `json:"third_party_payload"`
  ExperienceName        string         `json:"experience_name"`
  ExperienceDescription string         `json:"experience_description"`
  GroupKey              string         `json:"group_key"`
}

func (h *StepHandler) CreateRequirement(c *gin.Context) {
  stepID, err := uuid.Parse(c.Param("stepId"))
  if err != nil {
    RespondError(c, 400, "invalid_step_id", err)
    return
  }
  var req createRequirementRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, 400, "invalid_body", err)
    return
  }
  requirement, err := h.structureService.CreateRequirement(c.Request.Context(), services.CreateRequirementInput{
    StepID:                stepID,
    Kind:                  req.Kind,
    BadgeClassID:          req.BadgeClassID,
    ThirdPartyURL:         req.ThirdPartyURL,
    ThirdPartyPayload:     req.ThirdPartyPayload,
    ExperienceName:        req.ExperienceName,
    ExperienceDescription: req.ExperienceDescription,
    GroupKey:              req.GroupKey,
  })
  if err != nil {
    h.log.Error("CreateRequirement failed", "error", err, "step_id", stepID)
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"requirement": requirement})
}

type updateRequirementRequest struct {
  BadgeClassID          *uuid.UUID     `json:"badge_class_id"`
  ThirdPartyURL         *string        `json:"third_party_url"`
  ThirdPartyPayload     datatypes.JSON `json:"third_party_payload"`
  ExperienceName        *string        `json:"experience_name"`
  ExperienceDescription *string        `json:"experience_description"`
  GroupKey              *string        `json:"group_key"`
}

func (h *StepHandler) UpdateRequirement(c *gin.Context) {
  requirementID, err := uuid.Parse(c.Param("requirementId"))
  if err != nil {
    RespondError(c, 400, "invalid_requirement_id", err)
    return
  }
  var req updateRequirementRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, 400, "invalid_body", err)
    return
  }
  requirement, err := h.structureService.UpdateRequirement(c.Request.Context(), services.UpdateRequirementInput{
    RequirementID:         requirementID,
    BadgeClassID:          req.BadgeClassID,
    ThirdPartyURL:         req.ThirdPartyURL,
    ThirdPartyPayload:     req.ThirdPartyPayload,
    ExperienceName:        req.ExperienceName,
    ExperienceDescription: req.ExperienceDescription,
    GroupKey:              req.GroupKey,
  })
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"requirement": requirement})
}

func (h *StepHandler) DeleteRequirement(c *gin.Context) {
  requirementID, err := uuid.Parse(c.Param("requirementId"))
  if err != nil {
    RespondError(c, 400, "invalid_requirement_id", err)
    return
  }
  if err := h.structureService.DeleteRequirement(c.Request.Context(), requirementID); err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"deleted": requirementID})
}

type prerequisiteRequest struct {
  PrerequisiteStepID uuid.UUID `json:"prerequisite_step_id" binding:"required"`
}

func (h *StepHandler) AddPrerequisite(c *gin.Context) {
  stepID, err := uuid.Parse(c.Param("stepId"))
  if err != nil {
    RespondError(c, 400, "invalid_step_id", err)
    return
  }
  var req prerequisiteRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, 400, "invalid_body", err)
    return
  }
  edge, err := h.structureService.AddPrerequisite(c.Request.Context(), stepID, req.PrerequisiteStepID)
  if err != nil {
    h.log.Error("AddPrerequisite failed", "error", err, "step_id", stepID)
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"prerequisite": edge})
}

func (h *StepHandler) RemovePrerequisite(c *gin.Context) {
  stepID, err := uuid.Parse(c.Param("stepId"))
  if err != nil {
    RespondError(c, 400, "invalid_step_id", err)
    return
  }
  prereqID, err := uuid.Parse(c.Param("prerequisiteStepId"))
  if err != nil {
    RespondError(c, 400, "invalid_prerequisite_step_id", err)
    return
  }
  if err := h.structureService.RemovePrerequisite(c.Request.Context(), stepID, prereqID); err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"removed": prereqID})
}
