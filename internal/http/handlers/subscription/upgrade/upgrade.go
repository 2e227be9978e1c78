// Package upgrade реализует HTTP-обработчик смены тарифа активной подписки.
//
// Старая подписка закрывается, новая открывается на выбранном тарифе.
// В ответе возвращается стоимость неиспользованных дней старого тарифа.
package upgrade

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

// Service меняет тариф подписки.
type Service interface {
	Upgrade(ctx context.Context, userID, subscriptionID, newPlanID int64) (*services.UpgradeResult, error)
}

// Handler обрабатывает запросы на смену тарифа.
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
// @Summary Смена тарифа
// @Description Закрывает активную подписку и открывает новую на другом тарифе. prorated_amount носит информационный характер.
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param subId path int true "ID подписки"
// @Param newPlanId path int true "ID нового тарифа"
// @Success 200 {object} response.Response "Тариф изменён"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID или подписка не активна"
// @Failure 401 {object} response.ErrorResponse "Нет действующего access-токена"
// @Failure 404 {object} response.ErrorResponse "Тариф или подписка не найдены"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /upgrade/{subId}/{newPlanId} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.upgrade"

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
	newPlanID, err := strconv.ParseInt(chi.URLParam(r, "newPlanId"), 10, 64)
	if err != nil {
		log.Info("invalid plan id", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid plan id"))
		return
	}

	res, err := h.service.Upgrade(r.Context(), userID, subID, newPlanID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPlanNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("new subscription plan not found"))
		case errors.Is(err, services.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("subscription not found or does not belong to the user"))
		case errors.Is(err, services.ErrNotActive):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("cannot upgrade an inactive subscription"))
		default:
			log.Error("failed to upgrade subscription", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not upgrade subscription"))
		}
		return
	}

	log.Info("subscription upgraded",
		slog.Int64("user_id", userID),
		slog.Int64("old_subscription_id", subID),
		slog.Int64("subscription_id", res.Subscription.ID),
		slog.Float64("prorated_amount", res.ProratedAmount),
	)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message":         fmt.Sprintf("Upgraded to %s plan successfully", res.Plan.Name),
		"prorated_amount": res.ProratedAmount,
		"subscription":    res.Subscription,
	}))
}
