package distance

import (
	"context"

	apperrors "github.com/supply-map/backend/pkg/errors"
)

// CredentialSource supplies the credential attached to metered provider
// requests. A MISSING_CREDENTIAL failure from the source aborts the
// call before any network attempt.
type CredentialSource interface {
	Credential(ctx context.Context) (string, error)
}

// StaticKey is a CredentialSource backed by a fixed API key.
type StaticKey string

// Credential returns the key, or a MISSING_CREDENTIAL failure when empty
func (k StaticKey) Credential(ctx context.Context) (string, error) {
	if k == "" {
		return "", apperrors.NewMissingCredentialError("distance provider api key is not set")
	}
	return string(k), nil
}
