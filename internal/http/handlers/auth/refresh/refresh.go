// Package refresh реализует HTTP-обработчик обновления access-токена по refresh-токену.
package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	services "github.com/magabrotheeeer/subscription-manager/internal/services/auth"
)

// Request тело запроса с refresh-токеном.
type Request struct {
	RefreshToken string `json:"refresh_token"`
}

// Service выпускает новый access-токен.
type Service interface {
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

// Handler обрабатывает запросы на обновление токена.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Обновление access-токена
// @Description Возвращает новый access-токен и тот же refresh-токен, продлевая срок его действия.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Refresh-токен"
// @Success 200 {object} response.Response "Новый access-токен"
// @Failure 400 {object} response.ErrorResponse "Refresh-токен не передан"
// @Failure 401 {object} response.ErrorResponse "Refresh-токен недействителен или истёк"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /refresh [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.refresh"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		log.Info("refresh token is missing")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("refresh token is required"))
		return
	}

	pair, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidOrExpiredRefreshToken):
			log.Info("refresh rejected", sl.Err(err))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid or expired refresh token"))
		case errors.Is(err, services.ErrUserNotFound):
			log.Info("user from refresh token not found")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		default:
			log.Error("failed to refresh token", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to refresh token"))
		}
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}))
}
