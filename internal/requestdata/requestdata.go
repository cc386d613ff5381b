package requestdata

import (
  "context"

  "github.com/google/uuid"
)

var requestDataKey = struct{}{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
  return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
  val := ctx.Value(requestDataKey)
  if rd, ok := val.(*RequestData); ok {
    return rd
  }
  return nil
}

// RequestData is the already-authenticated caller identity. The core
// trusts it; role checks happen upstream of this service.
type RequestData struct {
  TokenString string
  UserID      uuid.UUID
  Email       string
  OrgID       uuid.UUID
}
