package firebase

import (
	"context"

	"apptrueq/pkg/errors"
)

// GenerateToken mints a custom token for uid. Only the development router
// exposes it; clients exchange it for an ID token with the Firebase SDK.
func (f *FirebaseAuthClient) GenerateToken(ctx context.Context, uid string) (string, error) {
	customToken, err := f.client.CustomToken(ctx, uid)
	if err != nil {
		return "", errors.Internal("Failed to generate token", err)
	}

	return customToken, nil
}
