package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/imposter/internal/handlers"
	"github.com/stretchr/testify/assert"
)

func TestPing(t *testing.T) {
	w := httptest.NewRecorder()
	handlers.NewHealthHandler(&handlers.MockHealthChecker{}, "memory", discard).Ping(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))

	var resp handlers.MessageResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.NotEmpty(t, resp.Message)
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	handlers.NewHealthHandler(&handlers.MockHealthChecker{}, "postgres", discard).Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp handlers.HealthResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "postgres", resp.Store)

	w = httptest.NewRecorder()
	handlers.NewHealthHandler(&handlers.MockHealthChecker{Err: errors.New("down")}, "postgres", discard).Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	handlers.AssertJSONResponse(t, w, http.StatusServiceUnavailable, &resp)
	assert.Equal(t, "unavailable", resp.Status)
}
