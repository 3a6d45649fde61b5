package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/membership-registry/internal/lib/jwt"
	"github.com/magabrotheeeer/membership-registry/internal/lib/password"
	"github.com/magabrotheeeer/membership-registry/internal/models"
)

type UsersMock struct{ mock.Mock }

func (m *UsersMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type AuditMock struct{ mock.Mock }

func (m *AuditMock) LogLogin(ctx context.Context, userID int, ipAddress string) {
	m.Called(ctx, userID, ipAddress)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestUser(t *testing.T, plain, status string) *models.User {
	t.Helper()
	hash, err := password.GetHash(plain)
	require.NoError(t, err)
	return &models.User{
		ID:           7,
		Email:        "member@example.com",
		PasswordHash: hash,
		Role:         models.RoleUser,
		Status:       status,
	}
}

func TestAuth_Login_Success(t *testing.T) {
	users := new(UsersMock)
	auditw := new(AuditMock)
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	svc := New(users, maker, auditw, newNoopLogger())

	user := newTestUser(t, "correct-password", models.StatusApproved)
	users.On("GetUserByEmail", mock.Anything, "member@example.com").Return(user, nil).Once()
	auditw.On("LogLogin", mock.Anything, 7, "203.0.113.10").Once()

	token, got, err := svc.Login(context.Background(), "member@example.com", "correct-password", "203.0.113.10")
	require.NoError(t, err)
	assert.Equal(t, user, got)
	require.NotEmpty(t, token)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "member@example.com", claims.Email)
	assert.Equal(t, models.RoleUser, claims.Role)
	auditw.AssertExpectations(t)
}

func TestAuth_Login_WrongPassword(t *testing.T) {
	users := new(UsersMock)
	auditw := new(AuditMock)
	svc := New(users, jwt.NewJWTMaker("test-secret", time.Hour), auditw, newNoopLogger())

	user := newTestUser(t, "correct-password", models.StatusApproved)
	users.On("GetUserByEmail", mock.Anything, "member@example.com").Return(user, nil).Once()

	_, _, err := svc.Login(context.Background(), "member@example.com", "wrong", "203.0.113.10")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	auditw.AssertNotCalled(t, "LogLogin")
}

func TestAuth_Login_UnknownEmail(t *testing.T) {
	users := new(UsersMock)
	svc := New(users, jwt.NewJWTMaker("test-secret", time.Hour), new(AuditMock), newNoopLogger())

	users.On("GetUserByEmail", mock.Anything, "nobody@example.com").
		Return(nil, errors.New("user not found")).Once()

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever", "203.0.113.10")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuth_Login_PendingAccount(t *testing.T) {
	users := new(UsersMock)
	auditw := new(AuditMock)
	svc := New(users, jwt.NewJWTMaker("test-secret", time.Hour), auditw, newNoopLogger())

	user := newTestUser(t, "correct-password", models.StatusPending)
	users.On("GetUserByEmail", mock.Anything, "member@example.com").Return(user, nil).Once()

	_, _, err := svc.Login(context.Background(), "member@example.com", "correct-password", "203.0.113.10")
	require.ErrorIs(t, err, ErrAccountNotApproved)
	auditw.AssertNotCalled(t, "LogLogin")
}
