// Package cancel реализует HTTP-обработчик отмены подписки.
package cancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	services "github.com/magabrotheeeer/subscription-manager/internal/services/subscription"
)

// Service отменяет подписку.
type Service interface {
	Cancel(ctx context.Context, userID, subscriptionID int64) error
}

// Handler обрабатывает запросы на отмену подписки.
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
// @Summary Отмена подписки
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param subId path int true "ID подписки"
// @Success 200 {object} response.Response{data=response.MessageResponse} "Подписка отменена"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID или подписка уже не активна"
// @Failure 401 {object} response.ErrorResponse "Нет действующего access-токена"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /cancel/{subId} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.cancel"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		log.Error("user id missing in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	subID, err := strconv.ParseInt(chi.URLParam(r, "subId"), 10, 64)
	if err != nil {
		log.Info("invalid subscription id", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid subscription id"))
		return
	}

	if err := h.service.Cancel(r.Context(), userID, subID); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("subscription not found or does not belong to the user"))
		case errors.Is(err, services.ErrNotActive):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("cannot cancel an inactive subscription"))
		default:
			log.Error("failed to cancel subscription", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not cancel subscription"))
		}
		return
	}

	log.Info("subscription cancelled", slog.Int64("user_id", userID), slog.Int64("subscription_id", subID))
	render.JSON(w, r, response.OKWithData(response.MessageResponse{
		Message: "Subscription cancelled successfully",
	}))
}
