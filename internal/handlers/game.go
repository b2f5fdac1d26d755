package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BradenHooton/imposter/internal/models"
	pkghttp "github.com/BradenHooton/imposter/pkg/http"
	"github.com/go-chi/chi/v5"
)

// GameServiceInterface defines game creation and lookup
type GameServiceInterface interface {
	CreateGame(ctx context.Context, gameID string, playerCount int, playerNames []string) (*models.Game, error)
	GetGame(ctx context.Context, gameID string) (*models.Game, error)
}

type GameHandler struct {
	service GameServiceInterface
	logger  *slog.Logger
}

func NewGameHandler(service GameServiceInterface, logger *slog.Logger) *GameHandler {
	return &GameHandler{service: service, logger: logger}
}

type CreateGameRequest struct {
	GameID      string   `json:"gameId" validate:"required,max=64"`
	PlayerCount int      `json:"playerCount" validate:"required,gte=1,lte=8"`
	PlayerNames []string `json:"playerNames" validate:"required,min=1,max=8,dive,required,max=30"`
}

func (r *CreateGameRequest) Normalize() {
	for i, name := range r.PlayerNames {
		r.PlayerNames[i] = strings.TrimSpace(name)
	}
}

type CreateGameResponse struct {
	Message string       `json:"message"`
	Game    *models.Game `json:"game"`
}

// Create handles POST /game/create
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if len(req.PlayerNames) != req.PlayerCount {
		pkghttp.WriteValidationError(w, "playerNames must match playerCount", []pkghttp.FieldError{
			{Field: "playerNames", Message: "must have exactly playerCount entries"},
		})
		return
	}

	game, err := h.service.CreateGame(r.Context(), req.GameID, req.PlayerCount, req.PlayerNames)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteError(w, http.StatusBadRequest, "game_exists", "Game ID already exists")
		case errors.Is(err, models.ErrDependency):
			h.logger.ErrorContext(r.Context(), "word source failed", slog.Any("error", err))
			pkghttp.WriteError(w, http.StatusInternalServerError, "word_source_failed", "Invalid word pair")
		default:
			writeCommonError(w, r, h.logger, err, "Error creating game")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, CreateGameResponse{Message: "Game created", Game: game})
}

// Get handles GET /game/{gameId}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameId")

	game, err := h.service.GetGame(r.Context(), gameID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Game not found")
		default:
			writeCommonError(w, r, h.logger, err, "Error fetching game")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, game)
}
