package services

import (
  "context"
  "fmt"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"

  "github.com/lokyajadhav/digibadger-backend-sub000/internal/logger"
  apperrors "github.com/lokyajadhav/digibadger-backend-sub000/internal/pkg/errors"
  "github.com/lokyajadhav/digibadger-backend-sub000/internal/requestdata"
)

// TokenService decodes the already-issued identity token into request
// data. Issuance, roles and revocation live in the identity system
// upstream; this service only verifies the signature and trusts the
// claims.
type TokenService interface {
  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type JWTClaims struct {
  Email string `json:"email,omitempty"`
  OrgID string `json:"org_id,omitempty"`
  jwt.RegisteredClaims
}

type tokenService struct {
  log          *logger.Logger
  jwtSecretKey string
}

func NewTokenService(baseLog *logger.Logger, jwtSecretKey string) TokenService {
  return &tokenService{
    log:          baseLog.With("service", "TokenService"),
    jwtSecretKey: jwtSecretKey,
  }
}

func (ts *tokenService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  if tokenString == "" {
    return ctx, apperrors.ErrUnauthorized
  }
  parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
    return []byte(ts.jwtSecretKey), nil
  })
  if err != nil {
    return ctx, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
  }
  claims, ok := parsedToken.Claims.(*JWTClaims)
  if !ok || !parsedToken.Valid {
    return ctx, fmt.Errorf("%w: invalid or expired token", apperrors.ErrUnauthorized)
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return ctx, fmt.Errorf("%w: invalid user id in token", apperrors.ErrUnauthorized)
  }
  var orgID uuid.UUID
  if claims.OrgID != "" {
    orgID, err = uuid.Parse(claims.OrgID)
    if err != nil {
      return ctx, fmt.Errorf("%w: invalid org id in token", apperrors.ErrUnauthorized)
    }
  }
  rd := &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      userID,
    Email:       claims.Email,
    OrgID:       orgID,
  }
  return requestdata.WithRequestData(ctx, rd), nil
}
