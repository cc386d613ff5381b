package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"

  apperrors "github.com/lokyajadhav/digibadger-backend-sub000/internal/pkg/errors"
)

type APIError struct {
  Message string `json:"message"`
  Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
  Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
  msg := "unknown error"
  if err != nil {
    msg = err.Error()
  }
  c.JSON(status, ErrorEnvelope{
    Error: APIError{
      Message: msg,
      Code:    code,
    },
  })
}

func RespondOK(c *gin.Context, payload any) {
  c.JSON(http.StatusOK, payload)
}

// RespondDomainError maps the service sentinels onto HTTP statuses.
func RespondDomainError(c *gin.Context, err error) {
  switch {
  case errors.Is(err, apperrors.ErrNotFound):
    RespondError(c, http.StatusNotFound, "not_found", err)
  case errors.Is(err, apperrors.ErrUnauthorized):
    RespondError(c, http.StatusUnauthorized, "unauthorized", err)
  case errors.Is(err, apperrors.ErrCycleDetected):
    RespondError(c, http.StatusConflict, "cycle_detected", err)
  case errors.Is(err, apperrors.ErrPrerequisiteNotMet):
    RespondError(c, http.StatusConflict, "prerequisite_not_met", err)
  case errors.Is(err, apperrors.ErrVersionConflict):
    RespondError(c, http.StatusConflict, "version_conflict", err)
  case errors.Is(err, apperrors.ErrInvalidArgument):
    RespondError(c, http.StatusBadRequest, "invalid_argument", err)
  default:
    RespondError(c, http.StatusInternalServerError, "internal_error", err)
  }
}
