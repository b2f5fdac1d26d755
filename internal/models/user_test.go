package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_SetPendingOTP_SetsAllFields(t *testing.T) {
	u := &User{OTPAttempts: 3}
	expiry := time.Now().Add(10 * time.Minute)

	u.SetPendingOTP("hash", expiry, "session")

	assert.True(t, u.HasPendingOTP())
	assert.Equal(t, "hash", *u.OTPHash)
	assert.Equal(t, expiry, *u.OTPExpiry)
	assert.Equal(t, "session", *u.VerificationSessionID)
	assert.Equal(t, 0, u.OTPAttempts)
}

func TestUser_ClearPendingOTP_ClearsAllFields(t *testing.T) {
	u := &User{}
	u.SetPendingOTP("hash", time.Now(), "session")
	u.OTPAttempts = 2

	u.ClearPendingOTP()

	assert.False(t, u.HasPendingOTP())
	assert.Nil(t, u.OTPHash)
	assert.Nil(t, u.OTPExpiry)
	assert.Nil(t, u.VerificationSessionID)
	assert.Equal(t, 0, u.OTPAttempts)
}

func TestUser_IsOTPExpired(t *testing.T) {
	now := time.Now()
	u := &User{}
	assert.False(t, u.IsOTPExpired(now), "no OTP is never expired")

	u.SetPendingOTP("hash", now.Add(-time.Second), "s")
	assert.True(t, u.IsOTPExpired(now))

	u.SetPendingOTP("hash", now.Add(time.Minute), "s")
	assert.False(t, u.IsOTPExpired(now))
}

func TestUser_Public_RedactsSecrets(t *testing.T) {
	u := &User{ID: "u1", Username: "alice", Email: "a@x.com", PasswordHash: "secret"}
	u.SetPendingOTP("otp", time.Now(), "sess")

	assert.Equal(t, PublicUser{ID: "u1", Username: "alice", Email: "a@x.com"}, u.Public())
}
