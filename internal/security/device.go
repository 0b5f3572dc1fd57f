package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DeviceTokenIssuer is the iss claim of every device token.
const DeviceTokenIssuer = "littlesteps"

// ErrInvalidDeviceToken is returned for tokens that fail verification.
var ErrInvalidDeviceToken = errors.New("invalid device token")

// Device identifies one browser. Its ID names the storage namespace.
type Device struct {
	ID        string
	ExpiresAt time.Time
}

// DeviceIssuer signs and verifies device tokens (HS256 JWTs).
type DeviceIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewDeviceIssuer creates an issuer. key should come from DeriveKey.
func NewDeviceIssuer(key []byte, ttl time.Duration) *DeviceIssuer {
	return &DeviceIssuer{key: key, ttl: ttl, now: time.Now}
}

// Issue signs a token for deviceID, or for a new device when deviceID is "".
func (d *DeviceIssuer) Issue(deviceID string) (string, Device, error) {
	if deviceID == "" {
		deviceID = uuid.NewString()
	}
	now := d.now()
	dev := Device{ID: deviceID, ExpiresAt: now.Add(d.ttl).Truncate(time.Second)}

	claims := jwt.RegisteredClaims{
		Issuer:    DeviceTokenIssuer,
		Subject:   deviceID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(dev.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(d.key)
	if err != nil {
		return "", Device{}, fmt.Errorf("failed to sign device token: %w", err)
	}
	return token, dev, nil
}

// Parse verifies a token and returns its device.
func (d *DeviceIssuer) Parse(token string) (Device, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(DeviceTokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(d.now),
	)

	claims := &jwt.RegisteredClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return d.key, nil
	})
	if err != nil || !parsed.Valid {
		return Device{}, fmt.Errorf("%w: %v", ErrInvalidDeviceToken, err)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return Device{}, fmt.Errorf("%w: bad subject", ErrInvalidDeviceToken)
	}
	return Device{ID: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// NeedsRefresh reports whether less than half the lifetime remains.
func (d *DeviceIssuer) NeedsRefresh(dev Device) bool {
	return dev.ExpiresAt.Sub(d.now()) < d.ttl/2
}
