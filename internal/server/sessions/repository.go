// Package sessions stores the server-side half of an authenticated session.
// A session row keyed by the opaque secret is what makes sign-out an actual
// revocation rather than a client-side fiction.
package sessions

import (
	"context"
	"time"
)

type Session struct {
	Token     string
	AccountID string
	Expires   time.Time
}

type Repository interface {
	Create(ctx context.Context, accountID string, token string, validity time.Duration) error
	Find(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}
