package core

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const correlationTokenBytes = 24

// GenerateCorrelationToken returns a fresh URL-safe value for the state
// parameter of an outbound provisioning request.
func GenerateCorrelationToken() (string, error) {
	raw := make([]byte, correlationTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("core: generate correlation token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
