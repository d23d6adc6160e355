package service

import (
	"context"
)

// Identity is what the auth provider knows about a signed-in user.
type Identity struct {
	UID         string
	DisplayName string
	Email       string
	PhotoURL    string
}

type IdentityService interface {
	VerifyToken(ctx context.Context, idToken string) (string, error)
	GetIdentity(ctx context.Context, uid string) (*Identity, error)
	GenerateToken(ctx context.Context, uid string) (string, error)
}
