package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/imposter/internal/auth"
	"github.com/BradenHooton/imposter/internal/models"
	"github.com/BradenHooton/imposter/internal/services"
	pkghttp "github.com/BradenHooton/imposter/pkg/http"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds user claims to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, userID, username, email string) *http.Request {
	claims := &models.TokenClaims{
		Type:     models.TokenTypeAccess,
		UserID:   userID,
		Username: username,
		Email:    email,
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// AssertJSONResponse checks the status and content type, then decodes into target
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	if target != nil {
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), target), "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks status, error code and that a message is present
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockVerificationService implements VerificationServiceInterface for testing
type MockVerificationService struct {
	RegisterFunc  func(ctx context.Context, username, email, password string) (*services.RegisterResult, error)
	VerifyOTPFunc func(ctx context.Context, sessionID, code string) (*services.VerifyResult, error)
	ResendOTPFunc func(ctx context.Context, email string) (*services.ResendResult, error)
}

func (m *MockVerificationService) Register(ctx context.Context, username, email, password string) (*services.RegisterResult, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.RegisterFunc(ctx, username, email, password)
}

func (m *MockVerificationService) VerifyOTP(ctx context.Context, sessionID, code string) (*services.VerifyResult, error) {
	if m.VerifyOTPFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.VerifyOTPFunc(ctx, sessionID, code)
}

func (m *MockVerificationService) ResendOTP(ctx context.Context, email string) (*services.ResendResult, error) {
	if m.ResendOTPFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.ResendOTPFunc(ctx, email)
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc   func(ctx context.Context, email, password string) (*services.LoginResult, error)
	ProfileFunc func(claims *models.TokenClaims) (models.PublicUser, error)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, email, password)
}

func (m *MockAuthService) Profile(claims *models.TokenClaims) (models.PublicUser, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(claims)
	}
	if claims == nil {
		return models.PublicUser{}, models.ErrUnauthorized
	}
	return models.PublicUser{ID: claims.UserID, Username: claims.Username, Email: claims.Email}, nil
}

// MockGameService implements GameServiceInterface for testing
type MockGameService struct {
	CreateGameFunc func(ctx context.Context, gameID string, playerCount int, playerNames []string) (*models.Game, error)
	GetGameFunc    func(ctx context.Context, gameID string) (*models.Game, error)
}

func (m *MockGameService) CreateGame(ctx context.Context, gameID string, playerCount int, playerNames []string) (*models.Game, error) {
	if m.CreateGameFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateGameFunc(ctx, gameID, playerCount, playerNames)
}

func (m *MockGameService) GetGame(ctx context.Context, gameID string) (*models.Game, error) {
	if m.GetGameFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetGameFunc(ctx, gameID)
}

// MockHealthChecker implements HealthChecker for testing
type MockHealthChecker struct {
	Err error
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Err
}
