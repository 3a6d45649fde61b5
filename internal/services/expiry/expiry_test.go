package expiry

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

	"github.com/magabrotheeeer/membership-registry/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) FindExpiredActiveSubscriptions(ctx context.Context) ([]*models.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *RepoMock) MarkSubscriptionExpired(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *RepoMock) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) UpdateUserMemberType(ctx context.Context, id int, memberType string) error {
	return m.Called(ctx, id, memberType).Error(0)
}

type AuditMock struct{ mock.Mock }

func (m *AuditMock) LogAutoConversion(ctx context.Context, userID int, oldType, newType string) {
	m.Called(ctx, userID, oldType, newType)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) SendSubscriptionExpired(ctx context.Context, info models.SubscriptionInfo) error {
	return m.Called(ctx, info).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

const defaultType = "Δόκιμο"

func TestExpiry_ProcessExpired(t *testing.T) {
	repo := new(RepoMock)
	auditw := new(AuditMock)
	notifier := new(NotifierMock)
	svc := New(repo, auditw, notifier, defaultType, newNoopLogger())

	endDate := time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC)
	sub := &models.Subscription{ID: 42, UserID: 7, MemberType: "Τακτικό", EndDate: endDate}
	user := &models.User{ID: 7, Email: "member@example.com", FirstName: "Nikos", MemberType: "Τακτικό"}

	repo.On("FindExpiredActiveSubscriptions", mock.Anything).
		Return([]*models.Subscription{sub}, nil).Once()
	repo.On("MarkSubscriptionExpired", mock.Anything, 42).Return(nil).Once()
	repo.On("GetUserByID", mock.Anything, 7).Return(user, nil).Once()
	repo.On("UpdateUserMemberType", mock.Anything, 7, defaultType).Return(nil).Once()
	auditw.On("LogAutoConversion", mock.Anything, 7, "Τακτικό", defaultType).Once()
	notifier.On("SendSubscriptionExpired", mock.Anything, mock.MatchedBy(func(info models.SubscriptionInfo) bool {
		return info.Email == "member@example.com" &&
			info.MemberType == "Τακτικό" &&
			info.EndDate.Equal(endDate)
	})).Return(nil).Once()

	processed, err := svc.ProcessExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	repo.AssertExpectations(t)
	auditw.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestExpiry_AlreadyDefaultType_NoConversion(t *testing.T) {
	repo := new(RepoMock)
	auditw := new(AuditMock)
	notifier := new(NotifierMock)
	svc := New(repo, auditw, notifier, defaultType, newNoopLogger())

	sub := &models.Subscription{ID: 42, UserID: 7, MemberType: defaultType}
	user := &models.User{ID: 7, Email: "member@example.com", MemberType: defaultType}

	repo.On("FindExpiredActiveSubscriptions", mock.Anything).
		Return([]*models.Subscription{sub}, nil).Once()
	repo.On("MarkSubscriptionExpired", mock.Anything, 42).Return(nil).Once()
	repo.On("GetUserByID", mock.Anything, 7).Return(user, nil).Once()
	notifier.On("SendSubscriptionExpired", mock.Anything, mock.Anything).Return(nil).Once()

	processed, err := svc.ProcessExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	repo.AssertNotCalled(t, "UpdateUserMemberType")
	auditw.AssertNotCalled(t, "LogAutoConversion")
}

func TestExpiry_OneFailureDoesNotStopOthers(t *testing.T) {
	repo := new(RepoMock)
	auditw := new(AuditMock)
	notifier := new(NotifierMock)
	svc := New(repo, auditw, notifier, defaultType, newNoopLogger())

	subs := []*models.Subscription{
		{ID: 1, UserID: 5, MemberType: defaultType},
		{ID: 2, UserID: 6, MemberType: defaultType},
	}
	user := &models.User{ID: 6, Email: "second@example.com", MemberType: defaultType}

	repo.On("FindExpiredActiveSubscriptions", mock.Anything).Return(subs, nil).Once()
	repo.On("MarkSubscriptionExpired", mock.Anything, 1).
		Return(errors.New("update failed")).Once()
	repo.On("MarkSubscriptionExpired", mock.Anything, 2).Return(nil).Once()
	repo.On("GetUserByID", mock.Anything, 6).Return(user, nil).Once()
	notifier.On("SendSubscriptionExpired", mock.Anything, mock.Anything).Return(nil).Once()

	processed, err := svc.ProcessExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	repo.AssertExpectations(t)
}

func TestExpiry_NotificationFailureIsNonFatal(t *testing.T) {
	repo := new(RepoMock)
	notifier := new(NotifierMock)
	svc := New(repo, new(AuditMock), notifier, defaultType, newNoopLogger())

	sub := &models.Subscription{ID: 42, UserID: 7, MemberType: defaultType}
	user := &models.User{ID: 7, MemberType: defaultType}

	repo.On("FindExpiredActiveSubscriptions", mock.Anything).
		Return([]*models.Subscription{sub}, nil).Once()
	repo.On("MarkSubscriptionExpired", mock.Anything, 42).Return(nil).Once()
	repo.On("GetUserByID", mock.Anything, 7).Return(user, nil).Once()
	notifier.On("SendSubscriptionExpired", mock.Anything, mock.Anything).
		Return(errors.New("channel closed")).Once()

	processed, err := svc.ProcessExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
}

func TestExpiry_FindFailure(t *testing.T) {
	repo := new(RepoMock)
	svc := New(repo, new(AuditMock), new(NotifierMock), defaultType, newNoopLogger())

	repo.On("FindExpiredActiveSubscriptions", mock.Anything).
		Return(nil, errors.New("query failed")).Once()

	_, err := svc.ProcessExpired(context.Background())
	require.Error(t, err)
}
