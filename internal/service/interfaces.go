package service

import (
	"context"
)

// TokenRefresher is the single operation the rest of the client needs from
// the refresh coordinator: obtain a currently valid access token,
// refreshing if necessary.
type TokenRefresher interface {
	Refresh(ctx context.Context) (string, error)
}
