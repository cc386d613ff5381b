package handlers

import (
  "errors"
  "io"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/requestdata"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/services"
)

type ProgressHandler struct {
  log             *logger.Logger
  progressService services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progressService services.ProgressService) *ProgressHandler {
  return &ProgressHandler{
    log:             log.With("handler", "ProgressHandler"),
    progressService: progressService,
  }
}

type enrollRequest struct {
  UserID  *uuid.UUID `json:"user_id"`
  GroupID *uuid.UUID `json:"group_id"`
}

// identity resolves the subject of a progress call: an explicit user_id
// wins, otherwise the caller from the request context.
func identity(c *gin.Context, userID, groupID *uuid.UUID) (uuid.UUID, uuid.UUID, bool) {
  user := uuid.Nil
  group := uuid.Nil
  if userID != nil {
    user = *userID
  }
  if groupID != nil {
    group = *groupID
  }
  if user == uuid.Nil {
    rd := requestdata.GetRequestData(c.Request.Context())
    if rd == nil || rd.UserID == uuid.Nil {
      return uuid.Nil, uuid.Nil, false
    }
    user = rd.UserID
  }
  return user, group, true
}

func (h *ProgressHandler) Enroll(c *gin.Context) {
  pathwayID, err := uuid.Parse(c.Param("pathwayId"))
  if err != nil {
    RespondError(c, 400, "invalid_pathway_id", err)
    return
  }
  var req enrollRequest
  if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
    RespondError(c, 400, "invalid_body", err)
    return
  }
  userID, groupID, ok := identity(c, req.UserID, req.GroupID)
  if !ok {
    RespondError(c, 401, "unauthorized", nil)
    return
  }
  progress, err := h.progressService.Enroll(c.Request.Context(), pathwayID, userID, groupID)
  if err != nil {
    h.log.Error("Enroll failed", "error", err, "pathway_id", pathwayID, "user_id", userID)
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"progress": progress})
}

func (h *ProgressHandler) Unenroll(c *gin.Context) {
  pathwayID, err := uuid.Parse(c.Param("pathwayId"))
  if err != nil {
    RespondError(c, 400, "invalid_pathway_id", err)
    return
  }
  var req enrollRequest
  if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
    RespondError(c, 400, "invalid_body", err)
    return
  }
  userID, groupID, ok := identity(c, req.UserID, req.GroupID)
  if !ok {
    RespondError(c, 401, "unauthorized", nil)
    return
  }
  if err := h.progressService.Unenroll(c.Request.Context(), pathwayID, userID, groupID); err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"unenrolled": pathwayID})
}

type completeStepRequest struct {
  UserID  *uuid.UUID `json:"user_id"`
  GroupID *uuid.UUID `json:"group_id"`
}

func (h *ProgressHandler) CompleteStep(c *gin.Context) {
  stepVersionID, err := uuid.Parse(c.Param("stepVersionId"))
  if err != nil {
    RespondError(c, 400, "invalid_step_version_id", err)
    return
  }
  var req completeStepRequest
  if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
    RespondError(c, 400, "invalid_body", err)
    return
  }
  userID, groupID, ok := identity(c, req.UserID, req.GroupID)
  if !ok {
    RespondError(c, 401, "unauthorized", nil)
    return
  }
  progress, err := h.progressService.CompleteStep(c.Request.Context(), stepVersionID, userID, groupID)
  if err != nil {
    h.log.Error("CompleteStep failed", "error", err, "step_version_id", stepVersionID, "user_id", userID)
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"step_progress": progress})
}

func (h *ProgressHandler) GetProgress(c *gin.Context) {
  pathwayID, err := uuid.Parse(c.Param("pathwayId"))
  if err != nil {
    RespondError(c, 400, "invalid_pathway_id", err)
    return
  }
  var userPtr, groupPtr *uuid.UUID
  if raw := c.Query("user_id"); raw != "" {
    parsed, err := uuid.Parse(raw)
    if err != nil {
      RespondError(c, 400, "invalid_user_id", err)
      return
    }
    userPtr = &parsed
  }
  if raw := c.Query("group_id"); raw != "" {
    parsed, err := uuid.Parse(raw)
    if err != nil {
      RespondError(c, 400, "invalid_group_id", err)
      return
    }
    groupPtr = &parsed
  }
  userID, groupID, ok := identity(c, userPtr, groupPtr)
  if !ok {
    RespondError(c, 401, "unauthorized", nil)
    return
  }
  progress, err := h.progressService.GetProgress(c.Request.Context(), pathwayID, userID, groupID)
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"progress": progress})
}

func (h *ProgressHandler) Recalculate(c *gin.Context) {
  pathwayID, err := uuid.Parse(c.Param("pathwayId"))
  if err != nil {
    RespondError(c, 400, "invalid_pathway_id", err)
    return
  }
  if err := h.progressService.RecalculateAllProgressForPathway(c.Request.Context(), pathwayID); err != nil {
    h.log.Error("Recalculate failed", "error", err, "pathway_id", pathwayID)
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"recalculated": pathwayID})
}
