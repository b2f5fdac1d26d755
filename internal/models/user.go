package models

import (
	"time"
)

// User is a registered account. The OTP fields and VerificationSessionID are either all set
// (an OTP is pending) or all nil.
type User struct {
	ID                    string
	Username              string
	Email                 string
	PasswordHash          string
	IsVerified            bool
	OTPHash               *string
	OTPExpiry             *time.Time
	VerificationSessionID *string
	OTPAttempts           int
	Version               int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// HasPendingOTP reports whether an OTP has been issued and not yet consumed.
func (u *User) HasPendingOTP() bool {
	return u.OTPHash != nil && u.OTPExpiry != nil
}

// IsOTPExpired reports whether the pending OTP expired before now.
func (u *User) IsOTPExpired(now time.Time) bool {
	return u.OTPExpiry != nil && u.OTPExpiry.Before(now)
}

// SetPendingOTP installs a fresh OTP and session, resetting the attempt counter.
func (u *User) SetPendingOTP(otpHash string, expiry time.Time, sessionID string) {
	u.OTPHash = &otpHash
	u.OTPExpiry = &expiry
	u.VerificationSessionID = &sessionID
	u.OTPAttempts = 0
}

// ClearPendingOTP drops all OTP state.
func (u *User) ClearPendingOTP() {
	u.OTPHash = nil
	u.OTPExpiry = nil
	u.VerificationSessionID = nil
	u.OTPAttempts = 0
}

// PublicUser is the redacted view returned to clients
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Public returns the redacted view of the user.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email}
}
