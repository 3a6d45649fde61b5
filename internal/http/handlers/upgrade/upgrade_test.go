package upgrade

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/membership-registry/internal/http/middlewarectx"
	"github.com/magabrotheeeer/membership-registry/internal/http/response"
	"github.com/magabrotheeeer/membership-registry/internal/models"
	"github.com/magabrotheeeer/membership-registry/internal/services/upgrade"
	"github.com/magabrotheeeer/membership-registry/internal/storage/repository"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) ManualUpgrade(ctx context.Context, req upgrade.Request) (*upgrade.Result, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*upgrade.Result)
	return result, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newRequest(t *testing.T, memberID string, body any, withAdmin bool) *http.Request {
	t.Helper()

	var bodyBytes []byte
	switch v := body.(type) {
	case string:
		bodyBytes = []byte(v)
	default:
		var err error
		bodyBytes, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodPost, "/members/"+memberID+"/upgrade", bytes.NewReader(bodyBytes))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", memberID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if withAdmin {
		ctx = context.WithValue(ctx, middlewarectx.UserID, 1)
	}
	return req.WithContext(ctx)
}

func TestUpgradeHandler_Success(t *testing.T) {
	serviceMock := new(ServiceMock)
	handler := New(newNoopLogger(), serviceMock)

	subID := 42
	result := &upgrade.Result{
		Subscription: &models.Subscription{ID: subID, UserID: 7, MemberType: "Τακτικό"},
		Payment:      &models.Payment{ID: 9, UserID: 7, SubscriptionID: &subID},
	}
	serviceMock.On("ManualUpgrade", mock.Anything, upgrade.Request{
		UserID:         7,
		MemberType:     "Τακτικό",
		DurationMonths: 12,
		Amount:         500,
		PaymentMethod:  "cash",
		PerformedBy:    1,
	}).Return(result, nil).Once()

	body := models.DummyUpgrade{
		MemberType:     "Τακτικό",
		DurationMonths: 12,
		Amount:         500,
		PaymentMethod:  "cash",
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(t, "7", body, true))

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp response.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, response.StatusOK, resp.Status)
	serviceMock.AssertExpectations(t)
}

func TestUpgradeHandler_Errors(t *testing.T) {
	validBody := models.DummyUpgrade{
		MemberType:     "Τακτικό",
		DurationMonths: 12,
		Amount:         500,
	}

	tests := []struct {
		name           string
		memberID       string
		body           any
		withAdmin      bool
		mockErr        error
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "invalid member id",
			memberID:       "abc",
			body:           validBody,
			withAdmin:      true,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid member id",
		},
		{
			name:           "invalid json",
			memberID:       "7",
			body:           "not a json",
			withAdmin:      true,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
		},
		{
			name:           "validation error - unknown payment method",
			memberID:       "7",
			body:           models.DummyUpgrade{MemberType: "Τακτικό", DurationMonths: 12, Amount: 500, PaymentMethod: "bitcoin"},
			withAdmin:      true,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field PaymentMethod must be one of",
		},
		{
			name:           "validation error - zero duration",
			memberID:       "7",
			body:           models.DummyUpgrade{MemberType: "Τακτικό", Amount: 500},
			withAdmin:      true,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field DurationMonths is a required field",
		},
		{
			name:           "no admin in context",
			memberID:       "7",
			body:           validBody,
			withAdmin:      false,
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "unauthorized",
		},
		{
			name:           "member not found",
			memberID:       "99",
			body:           validBody,
			withAdmin:      true,
			mockErr:        repository.ErrUserNotFound,
			wantStatusCode: http.StatusNotFound,
			wantError:      "member not found",
		},
		{
			name:           "storage failure",
			memberID:       "7",
			body:           validBody,
			withAdmin:      true,
			mockErr:        errors.New("tx failed"),
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "could not upgrade member",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			handler := New(newNoopLogger(), serviceMock)

			if tt.mockErr != nil {
				serviceMock.On("ManualUpgrade", mock.Anything, mock.Anything).
					Return(nil, tt.mockErr).Once()
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, newRequest(t, tt.memberID, tt.body, tt.withAdmin))

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			var resp response.Response
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, response.StatusError, resp.Status)
			assert.Contains(t, resp.Error, tt.wantError)
			serviceMock.AssertExpectations(t)
		})
	}
}
