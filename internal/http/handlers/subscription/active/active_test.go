package active

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListActive(ctx context.Context, userID int64) ([]models.SubscriptionDetails, error) {
	args := m.Called(ctx, userID)
	res, _ := args.Get(0).([]models.SubscriptionDetails)
	return res, args.Error(1)
}

func TestActiveHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	start := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		withUser       bool
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:     "active subscription",
			withUser: true,
			setupMock: func(m *MockService) {
				m.On("ListActive", mock.Anything, int64(1)).Return([]models.SubscriptionDetails{{
					ID: 10, PlanName: "Basic", Price: 10, Interval: models.IntervalMonthly,
					StartDate: start, Status: models.StatusActive,
				}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{"status":"OK","data":[{"id":10,"plan_name":"Basic","price":10,"interval":"monthly",
				"start_date":"2024-03-10T12:00:00Z","end_date":null,"status":"active"}]}`,
		},
		{
			name:     "nothing active",
			withUser: true,
			setupMock: func(m *MockService) {
				m.On("ListActive", mock.Anything, int64(1)).Return([]models.SubscriptionDetails{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":[]}`,
		},
		{
			name:           "no user in context",
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:     "store error",
			withUser: true,
			setupMock: func(m *MockService) {
				m.On("ListActive", mock.Anything, int64(1)).Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not list subscriptions"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/subscriptions/active", nil)
			if tt.withUser {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, int64(1)))
			}
			rec := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.JSONEq(t, tt.expectedBody, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
