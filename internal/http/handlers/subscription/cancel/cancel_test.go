package cancel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-manager/internal/http/middlewarectx"
	services "github.com/magabrotheeeer/subscription-manager/internal/services/subscription"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Cancel(ctx context.Context, userID, subscriptionID int64) error {
	return m.Called(ctx, userID, subscriptionID).Error(0)
}

func TestCancelHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		subID          string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "success",
			subID: "10",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, int64(1), int64(10)).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"message":"Subscription cancelled successfully"}}`,
		},
		{
			name:           "non numeric id",
			subID:          "ten",
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid subscription id"}`,
		},
		{
			name:  "not found",
			subID: "10",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, int64(1), int64(10)).Return(services.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"subscription not found or does not belong to the user"}`,
		},
		{
			name:  "already cancelled",
			subID: "10",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, int64(1), int64(10)).Return(services.ErrNotActive)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"cannot cancel an inactive subscription"}`,
		},
		{
			name:  "internal error",
			subID: "10",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, int64(1), int64(10)).Return(errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not cancel subscription"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/cancel/"+tt.subID, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("subId", tt.subID)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middlewarectx.UserID, int64(1))

			rec := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rec, req.WithContext(ctx))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.JSONEq(t, tt.expectedBody, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
