package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// CSRFGenerator generates and validates CSRF tokens using HMAC-SHA256.
// Tokens are derived from the device ID and a secret key, so no server-side
// token state is kept.
type CSRFGenerator struct {
	secret []byte
}

// NewCSRFGenerator creates a stateless HMAC-based CSRF generator.
func NewCSRFGenerator(secret []byte) *CSRFGenerator {
	return &CSRFGenerator{secret: secret}
}

// GenerateToken returns the CSRF token for the given device ID.
func (g *CSRFGenerator) GenerateToken(deviceID string) (string, error) {
	if deviceID == "" {
		return "", fmt.Errorf("device ID is required")
	}
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(deviceID))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// ValidateToken reports whether token is the valid CSRF token for deviceID.
func (g *CSRFGenerator) ValidateToken(deviceID, token string) bool {
	if deviceID == "" || token == "" {
		return false
	}
	expected, err := g.GenerateToken(deviceID)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(token))
}
