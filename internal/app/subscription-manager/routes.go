// Package subscriptionmanager собирает HTTP-приложение сервиса подписок.
package subscriptionmanager

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация swagger-спецификации.
	_ "github.com/magabrotheeeer/subscription-manager/docs"
	"github.com/magabrotheeeer/subscription-manager/internal/config"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/auth/refresh"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/health"
	planlist "github.com/magabrotheeeer/subscription-manager/internal/http/handlers/plan/list"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/active"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/cancel"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/subscribe"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/upgrade"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/usersubs"
	"github.com/magabrotheeeer/subscription-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
	authservice "github.com/magabrotheeeer/subscription-manager/internal/services/auth"
	subservice "github.com/magabrotheeeer/subscription-manager/internal/services/subscription"
)

// AuthService операции с пользователями и токенами, нужные маршрутам.
type AuthService interface {
	Register(ctx context.Context, username, password, email string) (int64, error)
	Login(ctx context.Context, username, password string) (*authservice.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*authservice.TokenPair, error)
	Authenticate(ctx context.Context, token string, kind jwt.Kind) (*models.User, error)
}

// SubscriptionService операции с тарифами и подписками, нужные маршрутам.
type SubscriptionService interface {
	ListPlans(ctx context.Context) ([]models.Plan, error)
	Subscribe(ctx context.Context, userID, planID int64) (*subservice.SubscribeResult, error)
	Upgrade(ctx context.Context, userID, subscriptionID, newPlanID int64) (*subservice.UpgradeResult, error)
	Cancel(ctx context.Context, userID, subscriptionID int64) error
	ListActive(ctx context.Context, userID int64) ([]models.SubscriptionDetails, error)
	ListForUser(ctx context.Context, requesterID, targetUserID int64) ([]models.SubscriptionDetails, error)
}

// Deps зависимости маршрутов.
type Deps struct {
	Logger        *slog.Logger
	Auth          AuthService
	Subscriptions SubscriptionService
	DB            health.Pinger
	Registry      *prometheus.Registry
	RateLimit     config.RateLimit
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	metrics := middlewarectx.NewMetrics(d.Registry)

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimit(d.Logger, d.RateLimit.RPS, d.RateLimit.Burst))
			r.Post("/register", register.New(d.Logger, d.Auth).ServeHTTP)
			r.Post("/login", login.New(d.Logger, d.Auth).ServeHTTP)
			r.Post("/refresh", refresh.New(d.Logger, d.Auth).ServeHTTP)
		})
		r.Get("/plans", planlist.New(d.Logger, d.Subscriptions).ServeHTTP)

		// Группа с проверкой access-токена
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.Auth(d.Auth, jwt.Access, d.Logger))
			r.Post("/subscribe/{planId}", subscribe.New(d.Logger, d.Subscriptions).ServeHTTP)
			r.Post("/upgrade/{subId}/{newPlanId}", upgrade.New(d.Logger, d.Subscriptions).ServeHTTP)
			r.Post("/cancel/{subId}", cancel.New(d.Logger, d.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/active", active.New(d.Logger, d.Subscriptions).ServeHTTP)
			r.Get("/users/{userId}/subscriptions", usersubs.New(d.Logger, d.Subscriptions).ServeHTTP)
		})
	})

	r.Get("/health", health.New(d.Logger, d.DB).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
