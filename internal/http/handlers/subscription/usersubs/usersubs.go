// Package usersubs реализует HTTP-обработчик истории подписок пользователя.
//
// Пользователь может запросить только свои подписки, для чужого ID
// возвращается 403 независимо от того, существует ли такой пользователь.
package usersubs

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
	"github.com/magabrotheeeer/subscription-manager/internal/models"
	services "github.com/magabrotheeeer/subscription-manager/internal/services/subscription"
)

// Service возвращает историю подписок пользователя.
type Service interface {
	ListForUser(ctx context.Context, requesterID, targetUserID int64) ([]models.SubscriptionDetails, error)
}

// Handler обрабатывает запросы истории подписок пользователя.
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
// @Summary История подписок пользователя
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param userId path int true "ID пользователя"
// @Success 200 {object} response.Response{data=[]models.SubscriptionDetails}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /users/{userId}/subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.usersubs"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	requesterID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		log.Error("user id missing in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	targetID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		log.Info("invalid user id", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user id"))
		return
	}

	subs, err := h.service.ListForUser(r.Context(), requesterID, targetID)
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			log.Warn("foreign subscriptions requested",
				slog.Int64("user_id", requesterID),
				slog.Int64("target_user_id", targetID),
			)
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("unauthorized to view these subscriptions"))
			return
		}
		log.Error("failed to list subscriptions", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list subscriptions"))
		return
	}

	render.JSON(w, r, response.OKWithData(subs))
}
