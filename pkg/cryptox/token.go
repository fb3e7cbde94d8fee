package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Secret lengths handed out by the credential subsystem.
const (
	// SessionSecretLength is the size of the per-device session secret.
	SessionSecretLength = 10
	// ActivationTokenLength is the size of the per-account activation secret.
	ActivationTokenLength = 6
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomString returns n characters drawn uniformly from [a-zA-Z0-9] using
// crypto/rand.
func RandomString(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("random string length must be positive, got %d", n)
	}

	limit := big.NewInt(int64(len(alphanumeric)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate random string: %w", err)
		}
		out[i] = alphanumeric[idx.Int64()]
	}
	return string(out), nil
}

