// Package payment authorizes monetary donations against an external
// payment provider.
package payment

import (
	"context"
	"time"
)

// Authorization is the provider's answer to an authorize request.
type Authorization struct {
	Reference    string    `json:"reference"`
	Status       string    `json:"status"`
	AuthorizedAt time.Time `json:"authorized_at"`
}

// Authorizer reserves funds for a monetary donation. Implementations must
// be safe for concurrent use.
type Authorizer interface {
	Authorize(ctx context.Context, amount int64, currency string) (Authorization, error)
}
