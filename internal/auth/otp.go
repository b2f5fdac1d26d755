package auth

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

const (
	OTPDigits     = 6
	sessionIDSize = 16
	otpSecretSize = 20
)

// GenerateOTP returns a uniformly distributed 6-digit code.
// Each code is derived from a fresh random HOTP secret and is never reused.
func GenerateOTP() (string, error) {
	secret := make([]byte, otpSecretSize)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("failed to read random secret: %w", err)
	}

	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret)
	code, err := hotp.GenerateCodeCustom(encoded, uint64(time.Now().UnixNano()), hotp.ValidateOpts{
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}

	return code, nil
}

// GenerateSessionID returns 128 bits of randomness, hex encoded
func GenerateSessionID() (string, error) {
	b := make([]byte, sessionIDSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
