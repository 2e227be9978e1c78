// Package middlewarectx содержит HTTP middleware сервиса.
//
// Auth проверяет токен из заголовка Authorization нужного типа и кладёт
// идентификатор пользователя в контекст запроса. В случае ошибки проверки
// возвращает 401, для удалённого пользователя 404.
package middlewarectx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
	services "github.com/magabrotheeeer/subscription-manager/internal/services/auth"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// UserID ключ для идентификатора пользователя в контексте.
const UserID Key = "user_id"

// Authenticator проверяет токен указанного типа и возвращает его владельца.
type Authenticator interface {
	Authenticate(ctx context.Context, token string, kind jwt.Kind) (*models.User, error)
}

// Auth возвращает middleware, который пропускает только запросы с действующим
// токеном типа kind. Принимается как "Bearer <token>", так и токен без префикса.
func Auth(authenticator Authenticator, kind jwt.Kind, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Auth"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token := extractToken(r.Header.Get("Authorization"))
			if token == "" {
				log.Warn("missing authorization token")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authorization token is required"))
				return
			}

			user, err := authenticator.Authenticate(r.Context(), token, kind)
			if err != nil {
				status, msg := authFailure(err, kind)
				if status == http.StatusInternalServerError {
					log.Error("failed to authenticate", sl.Err(err))
				} else {
					log.Warn("authentication rejected", sl.Err(err))
				}
				render.Status(r, status)
				render.JSON(w, r, response.Error(msg))
				return
			}

			ctx := context.WithValue(r.Context(), UserID, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext возвращает идентификатор пользователя, сохранённый Auth.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserID).(int64)
	return id, ok
}

func extractToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	if strings.ContainsRune(header, ' ') {
		return ""
	}
	return header
}

// authFailure переводит ошибку проверки токена в статус и фиксированное сообщение.
func authFailure(err error, kind jwt.Kind) (int, string) {
	switch {
	case errors.Is(err, jwt.ErrExpiredToken):
		return http.StatusUnauthorized, "token has expired"
	case errors.Is(err, jwt.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, services.ErrInvalidTokenType):
		return http.StatusUnauthorized, fmt.Sprintf("invalid token type, expected %s token", kind)
	case errors.Is(err, services.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
