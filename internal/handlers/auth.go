package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BradenHooton/imposter/internal/auth"
	"github.com/BradenHooton/imposter/internal/models"
	"github.com/BradenHooton/imposter/internal/services"
	pkgauth "github.com/BradenHooton/imposter/pkg/auth"
	pkghttp "github.com/BradenHooton/imposter/pkg/http"
)

// VerificationServiceInterface defines the registration and verification flow
type VerificationServiceInterface interface {
	Register(ctx context.Context, username, email, password string) (*services.RegisterResult, error)
	VerifyOTP(ctx context.Context, sessionID, code string) (*services.VerifyResult, error)
	ResendOTP(ctx context.Context, email string) (*services.ResendResult, error)
}

// AuthServiceInterface defines login and profile lookup
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Profile(claims *models.TokenClaims) (models.PublicUser, error)
}

// AuthHandler handles the /auth endpoints
type AuthHandler struct {
	verification VerificationServiceInterface
	service      AuthServiceInterface
	logger       *slog.Logger
}

func NewAuthHandler(verification VerificationServiceInterface, service AuthServiceInterface, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		verification: verification,
		service:      service,
		logger:       logger,
	}
}

// Request DTOs

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type VerifyEmailRequest struct {
	VerificationSessionID string `json:"verificationSessionId" validate:"required,max=128"`
	OTP                   string `json:"otp" validate:"required,len=6,numeric"`
}

type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,max=72"`
}

// Normalize trims the username and lower-cases the email, so length and format rules
// apply to the values that get stored.
func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = services.NormalizeEmail(r.Email)
}

func (r *VerifyEmailRequest) Normalize() {
	r.VerificationSessionID = strings.TrimSpace(r.VerificationSessionID)
	r.OTP = strings.TrimSpace(r.OTP)
}

func (r *ResendOTPRequest) Normalize() {
	r.Email = services.NormalizeEmail(r.Email)
}

func (r *LoginRequest) Normalize() {
	r.Email = services.NormalizeEmail(r.Email)
}

// Response DTOs

type MessageResponse struct {
	Message string `json:"message"`
}

type RegisterResponse struct {
	Message               string `json:"message"`
	Email                 string `json:"email"`
	VerificationSessionID string `json:"verificationSessionId"`
}

type ResendOTPResponse struct {
	Message               string `json:"message"`
	VerificationSessionID string `json:"verificationSessionId"`
}

type LoginResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    models.PublicUser `json:"user"`
}

type ProfileResponse struct {
	User models.PublicUser `json:"user"`
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := pkgauth.ValidatePassword(req.Password); err != nil {
		pkghttp.WriteValidationError(w, err.Error(), []pkghttp.FieldError{
			{Field: "password", Message: err.Error()},
		})
		return
	}

	res, err := h.verification.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteError(w, http.StatusBadRequest, "email_in_use", "Email already used")
		default:
			h.writeServiceError(w, r, err, "Registration failed")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, RegisterResponse{
		Message:               "OTP sent to email. Please verify to complete registration.",
		Email:                 res.Email,
		VerificationSessionID: res.VerificationSessionID,
	})
}

// VerifyEmail handles POST /auth/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.verification.VerifyOTP(r.Context(), req.VerificationSessionID, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Invalid verification session")
		case errors.Is(err, models.ErrInvalidState):
			pkghttp.WriteError(w, http.StatusBadRequest, "otp_not_requested", "OTP not requested")
		case errors.Is(err, models.ErrExpired):
			pkghttp.WriteError(w, http.StatusBadRequest, "otp_expired", "OTP expired")
		case errors.Is(err, models.ErrInvalidCredential):
			pkghttp.WriteError(w, http.StatusBadRequest, "invalid_otp", "Invalid OTP")
		case errors.Is(err, models.ErrTooManyAttempts):
			pkghttp.WriteTooManyRequests(w, "Too many invalid attempts, request a new OTP")
		default:
			h.writeServiceError(w, r, err, "Verification failed")
		}
		return
	}

	msg := "Email verified successfully"
	if res.AlreadyVerified {
		msg = "Email already verified"
	}
	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

// ResendOTP handles POST /auth/resend-otp
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req ResendOTPRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.verification.ResendOTP(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "User not found")
		case errors.Is(err, models.ErrInvalidState):
			pkghttp.WriteError(w, http.StatusBadRequest, "already_verified", "Email already verified")
		default:
			h.writeServiceError(w, r, err, "Resend OTP failed")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ResendOTPResponse{
		Message:               "OTP resent to email",
		VerificationSessionID: res.VerificationSessionID,
	})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "User not found")
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteError(w, http.StatusForbidden, "email_not_verified", "Please verify your email first")
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Invalid password")
		default:
			h.writeServiceError(w, r, err, "Login failed")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, LoginResponse{
		Message: "Login successful",
		Token:   res.Token,
		User:    res.User,
	})
}

// Profile handles GET /auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Profile(auth.GetUserFromContext(r))
	if err != nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, ProfileResponse{User: user})
}

// writeServiceError maps errors shared by every endpoint
func (h *AuthHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	writeCommonError(w, r, h.logger, err, fallback)
}

func writeCommonError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		pkghttp.WriteValidationError(w, err.Error(), nil)
	case errors.Is(err, models.ErrConcurrentUpdate):
		pkghttp.WriteConflict(w, "Request conflicted with another update, please retry")
	case errors.Is(err, models.ErrNotification):
		logger.ErrorContext(r.Context(), "notification failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		pkghttp.WriteError(w, http.StatusInternalServerError, "notification_failed", "Failed to send OTP email")
	default:
		logger.ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		pkghttp.WriteInternalError(w, fallback)
	}
}
