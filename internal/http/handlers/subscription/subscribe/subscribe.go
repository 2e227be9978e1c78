// Package subscribe реализует HTTP-обработчик оформления подписки на тариф.
package subscribe

import (
	"context"
	"errors"
	"fmt"
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

// Service оформляет подписку.
type Service interface {
	Subscribe(ctx context.Context, userID, planID int64) (*services.SubscribeResult, error)
}

// Handler обрабатывает запросы на оформление подписки.
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
// @Summary Оформление подписки
// @Description Создаёт активную подписку на тариф. У пользователя может быть только одна активная подписка.
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param planId path int true "ID тарифа"
// @Success 201 {object} response.Response "Подписка оформлена"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID или активная подписка уже есть"
// @Failure 401 {object} response.ErrorResponse "Нет действующего access-токена"
// @Failure 404 {object} response.ErrorResponse "Тариф не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /subscribe/{planId} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.subscribe"

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

	planID, err := strconv.ParseInt(chi.URLParam(r, "planId"), 10, 64)
	if err != nil {
		log.Info("invalid plan id", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid plan id"))
		return
	}

	res, err := h.service.Subscribe(r.Context(), userID, planID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPlanNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("subscription plan not found"))
		case errors.Is(err, services.ErrAlreadySubscribed):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("user already has an active subscription"))
		default:
			log.Error("failed to subscribe", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not create subscription"))
		}
		return
	}

	log.Info("subscription created",
		slog.Int64("user_id", userID),
		slog.Int64("subscription_id", res.Subscription.ID),
	)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message":      fmt.Sprintf("Subscribed to %s plan successfully", res.Plan.Name),
		"subscription": res.Subscription,
	}))
}
