package subscriptionmanager

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-manager/internal/config"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
	authservice "github.com/magabrotheeeer/subscription-manager/internal/services/auth"
	subservice "github.com/magabrotheeeer/subscription-manager/internal/services/subscription"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Register(ctx context.Context, username, password, email string) (int64, error) {
	args := m.Called(ctx, username, password, email)
	return args.Get(0).(int64), args.Error(1)
}

func (m *AuthServiceMock) Login(ctx context.Context, username, password string) (*authservice.TokenPair, error) {
	args := m.Called(ctx, username, password)
	pair, _ := args.Get(0).(*authservice.TokenPair)
	return pair, args.Error(1)
}

func (m *AuthServiceMock) Refresh(ctx context.Context, refreshToken string) (*authservice.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	pair, _ := args.Get(0).(*authservice.TokenPair)
	return pair, args.Error(1)
}

func (m *AuthServiceMock) Authenticate(ctx context.Context, token string, kind jwt.Kind) (*models.User, error) {
	args := m.Called(ctx, token, kind)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

type SubscriptionServiceMock struct {
	mock.Mock
}

func (m *SubscriptionServiceMock) ListPlans(ctx context.Context) ([]models.Plan, error) {
	args := m.Called(ctx)
	plans, _ := args.Get(0).([]models.Plan)
	return plans, args.Error(1)
}

func (m *SubscriptionServiceMock) Subscribe(ctx context.Context, userID, planID int64) (*subservice.SubscribeResult, error) {
	args := m.Called(ctx, userID, planID)
	res, _ := args.Get(0).(*subservice.SubscribeResult)
	return res, args.Error(1)
}

func (m *SubscriptionServiceMock) Upgrade(ctx context.Context, userID, subscriptionID, newPlanID int64) (*subservice.UpgradeResult, error) {
	args := m.Called(ctx, userID, subscriptionID, newPlanID)
	res, _ := args.Get(0).(*subservice.UpgradeResult)
	return res, args.Error(1)
}

func (m *SubscriptionServiceMock) Cancel(ctx context.Context, userID, subscriptionID int64) error {
	args := m.Called(ctx, userID, subscriptionID)
	return args.Error(0)
}

func (m *SubscriptionServiceMock) ListActive(ctx context.Context, userID int64) ([]models.SubscriptionDetails, error) {
	args := m.Called(ctx, userID)
	subs, _ := args.Get(0).([]models.SubscriptionDetails)
	return subs, args.Error(1)
}

func (m *SubscriptionServiceMock) ListForUser(ctx context.Context, requesterID, targetUserID int64) ([]models.SubscriptionDetails, error) {
	args := m.Called(ctx, requesterID, targetUserID)
	subs, _ := args.Get(0).([]models.SubscriptionDetails)
	return subs, args.Error(1)
}

type pingerStub struct {
	err error
}

func (p pingerStub) Ping(context.Context) error {
	return p.err
}

type testRouter struct {
	handler http.Handler
	auth    *AuthServiceMock
	subs    *SubscriptionServiceMock
}

func newTestRouter(t *testing.T, limit config.RateLimit) *testRouter {
	t.Helper()
	tr := &testRouter{
		auth: new(AuthServiceMock),
		subs: new(SubscriptionServiceMock),
	}
	r := chi.NewRouter()
	RegisterRoutes(r, Deps{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Auth:          tr.auth,
		Subscriptions: tr.subs,
		DB:            pingerStub{},
		Registry:      prometheus.NewRegistry(),
		RateLimit:     limit,
	})
	tr.handler = r
	return tr
}

func (tr *testRouter) do(t *testing.T, method, path, token string, body io.Reader) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	tr.handler.ServeHTTP(rec, req)

	var got map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	}
	return rec, got
}

var wideLimit = config.RateLimit{RPS: 1000, Burst: 1000}

func TestRoutes_PublicPlans(t *testing.T) {
	tr := newTestRouter(t, wideLimit)
	tr.subs.On("ListPlans", mock.Anything).Return([]models.Plan{
		{ID: 1, Name: "Free", Interval: models.IntervalMonthly},
	}, nil).Once()

	rec, got := tr.do(t, http.MethodGet, "/api/v1/plans", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", got["status"])
	plans, ok := got["data"].([]any)
	require.True(t, ok)
	assert.Len(t, plans, 1)
	tr.subs.AssertExpectations(t)
}

func TestRoutes_ProtectedRequireToken(t *testing.T) {
	tr := newTestRouter(t, wideLimit)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/subscribe/1"},
		{http.MethodPost, "/api/v1/upgrade/1/2"},
		{http.MethodPost, "/api/v1/cancel/1"},
		{http.MethodGet, "/api/v1/subscriptions/active"},
		{http.MethodGet, "/api/v1/users/1/subscriptions"},
	}
	for _, p := range paths {
		t.Run(p.path, func(t *testing.T) {
			rec, got := tr.do(t, p.method, p.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "authorization token is required", got["error"])
		})
	}
	tr.subs.AssertNotCalled(t, "Subscribe", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoutes_SubscribeWithAccessToken(t *testing.T) {
	tr := newTestRouter(t, wideLimit)
	tr.auth.On("Authenticate", mock.Anything, "good", jwt.Access).
		Return(&models.User{ID: 7, Username: "user7"}, nil).Once()
	tr.subs.On("Subscribe", mock.Anything, int64(7), int64(2)).Return(&subservice.SubscribeResult{
		Plan: &models.Plan{ID: 2, Name: "Basic"},
		Subscription: &models.Subscription{
			ID: 11, UserID: 7, PlanID: 2, Status: models.StatusActive,
			StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}, nil).Once()

	rec, got := tr.do(t, http.MethodPost, "/api/v1/subscribe/2", "good", nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	data, ok := got["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Subscribed to Basic plan successfully", data["message"])
	tr.auth.AssertExpectations(t)
	tr.subs.AssertExpectations(t)
}

func TestRoutes_RejectedToken(t *testing.T) {
	tr := newTestRouter(t, wideLimit)
	tr.auth.On("Authenticate", mock.Anything, "stale", jwt.Access).
		Return(nil, jwt.ErrExpiredToken).Once()

	rec, got := tr.do(t, http.MethodGet, "/api/v1/subscriptions/active", "stale", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token has expired", got["error"])
	tr.subs.AssertNotCalled(t, "ListActive", mock.Anything, mock.Anything)
}

func TestRoutes_AuthRateLimit(t *testing.T) {
	tr := newTestRouter(t, config.RateLimit{RPS: 0.001, Burst: 1})

	rec, _ := tr.do(t, http.MethodPost, "/api/v1/login", "", strings.NewReader("{"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, got := tr.do(t, http.MethodPost, "/api/v1/register", "", strings.NewReader("{"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "too many requests", got["error"])

	// тарифы не ограничиваются
	tr.subs.On("ListPlans", mock.Anything).Return([]models.Plan{}, nil).Once()
	rec, _ = tr.do(t, http.MethodGet, "/api/v1/plans", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_HealthAndMetrics(t *testing.T) {
	tr := newTestRouter(t, wideLimit)

	rec, got := tr.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", got["status"])

	rec, _ = tr.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestNopPublisher(t *testing.T) {
	p := nopPublisher{log: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := p.Publish(context.Background(), models.SubscriptionEvent{
		Type:           models.EventSubscribed,
		SubscriptionID: 1,
	})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestNewPublisher_DisabledWithoutURL(t *testing.T) {
	p, closeFn, err := newPublisher(config.RabbitMQ{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.IsType(t, nopPublisher{}, p)
	assert.NoError(t, closeFn())
}
