package upgrade

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

	"github.com/magabrotheeeer/membership-registry/internal/lib/month"
	"github.com/magabrotheeeer/membership-registry/internal/models"
)

type StoreMock struct{ mock.Mock }

func (m *StoreMock) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *StoreMock) BeginUpgradeTx(ctx context.Context) (Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Tx), args.Error(1)
}

type TxMock struct{ mock.Mock }

func (m *TxMock) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *TxMock) CreatePayment(ctx context.Context, p models.Payment) (*models.Payment, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *TxMock) UpdateUserMemberType(ctx context.Context, userID int, memberType string) error {
	return m.Called(ctx, userID, memberType).Error(0)
}

func (m *TxMock) Commit() error   { return m.Called().Error(0) }
func (m *TxMock) Rollback() error { return m.Called().Error(0) }

type AuditMock struct{ mock.Mock }

func (m *AuditMock) LogAction(ctx context.Context, a models.Action) {
	m.Called(ctx, a)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) SendSubscriptionConfirmation(ctx context.Context, user *models.User, sub *models.Subscription) error {
	return m.Called(ctx, user, sub).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(store *StoreMock, auditw *AuditMock, notifier *NotifierMock, now time.Time) *Service {
	svc := New(store, auditw, notifier, newNoopLogger())
	svc.now = func() time.Time { return now }
	return svc
}

var testUser = &models.User{
	ID:         7,
	Email:      "member@example.com",
	FirstName:  "Nikos",
	LastName:   "Papadopoulos",
	Role:       models.RoleUser,
	Status:     models.StatusApproved,
	MemberType: "Δόκιμο",
}

func TestManualUpgrade_Success(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	store := new(StoreMock)
	tx := new(TxMock)
	auditw := new(AuditMock)
	notifier := new(NotifierMock)
	svc := newService(store, auditw, notifier, now)

	subID := 42
	createdSub := &models.Subscription{
		ID:             subID,
		UserID:         7,
		MemberType:     "Τακτικό",
		DurationMonths: 12,
		Price:          500,
		StartDate:      now,
		EndDate:        time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
		Status:         models.SubscriptionActive,
		AutoRenew:      false,
	}
	createdPayment := &models.Payment{
		ID:             9,
		UserID:         7,
		SubscriptionID: &subID,
		Amount:         500,
		PaymentMethod:  models.PaymentMethodBankTransfer,
		PaymentStatus:  models.PaymentStatusCompleted,
		PaymentDate:    now,
	}

	store.On("GetUserByID", mock.Anything, 7).Return(testUser, nil).Once()
	store.On("BeginUpgradeTx", mock.Anything).Return(tx, nil).Once()
	tx.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(sub models.Subscription) bool {
		return sub.UserID == 7 &&
			sub.MemberType == "Τακτικό" &&
			sub.Status == models.SubscriptionActive &&
			!sub.AutoRenew &&
			sub.StartDate.Equal(now) &&
			sub.EndDate.Equal(createdSub.EndDate)
	})).Return(createdSub, nil).Once()
	tx.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p models.Payment) bool {
		return p.UserID == 7 &&
			p.SubscriptionID != nil && *p.SubscriptionID == subID &&
			p.Amount == 500 &&
			p.PaymentMethod == models.PaymentMethodBankTransfer &&
			p.PaymentStatus == models.PaymentStatusCompleted
	})).Return(createdPayment, nil).Once()
	tx.On("UpdateUserMemberType", mock.Anything, 7, "Τακτικό").Return(nil).Once()
	tx.On("Commit").Return(nil).Once()

	auditw.On("LogAction", mock.Anything, mock.MatchedBy(func(a models.Action) bool {
		return a.ActionType == models.ActionManualUpgrade &&
			a.UserID == 7 &&
			a.PerformedBy != nil && *a.PerformedBy == 1 &&
			a.Metadata["subscription_id"] == subID &&
			a.Metadata["payment_id"] == 9
	})).Once()
	notifier.On("SendSubscriptionConfirmation", mock.Anything, testUser, createdSub).Return(nil).Once()

	res, err := svc.ManualUpgrade(context.Background(), Request{
		UserID:         7,
		MemberType:     "Τακτικό",
		DurationMonths: 12,
		Amount:         500,
		PerformedBy:    1,
	})

	require.NoError(t, err)
	assert.Equal(t, createdSub, res.Subscription)
	assert.Equal(t, createdPayment, res.Payment)
	store.AssertExpectations(t)
	tx.AssertExpectations(t)
	auditw.AssertExpectations(t)
	notifier.AssertExpectations(t)
	tx.AssertNotCalled(t, "Rollback")
}

func TestManualUpgrade_UserNotFound(t *testing.T) {
	store := new(StoreMock)
	auditw := new(AuditMock)
	notifier := new(NotifierMock)
	svc := newService(store, auditw, notifier, time.Now())

	wantErr := errors.New("user not found")
	store.On("GetUserByID", mock.Anything, 99).Return(nil, wantErr).Once()

	res, err := svc.ManualUpgrade(context.Background(), Request{
		UserID:         99,
		MemberType:     "Τακτικό",
		DurationMonths: 12,
		Amount:         500,
		PerformedBy:    1,
	})

	require.ErrorIs(t, err, wantErr)
	assert.Nil(t, res)
	store.AssertNotCalled(t, "BeginUpgradeTx")
	auditw.AssertNotCalled(t, "LogAction")
	notifier.AssertNotCalled(t, "SendSubscriptionConfirmation")
}

func TestManualUpgrade_InvalidDuration(t *testing.T) {
	store := new(StoreMock)
	svc := newService(store, new(AuditMock), new(NotifierMock), time.Now())

	store.On("GetUserByID", mock.Anything, 7).Return(testUser, nil).Once()

	_, err := svc.ManualUpgrade(context.Background(), Request{
		UserID:         7,
		MemberType:     "Τακτικό",
		DurationMonths: 0,
		Amount:         500,
		PerformedBy:    1,
	})

	require.ErrorIs(t, err, month.ErrInvalidDuration)
	store.AssertNotCalled(t, "BeginUpgradeTx")
}

func TestManualUpgrade_RollbackOnPaymentFailure(t *testing.T) {
	now := time.Now()
	store := new(StoreMock)
	tx := new(TxMock)
	auditw := new(AuditMock)
	notifier := new(NotifierMock)
	svc := newService(store, auditw, notifier, now)

	subID := 42
	createdSub := &models.Subscription{ID: subID, UserID: 7}

	store.On("GetUserByID", mock.Anything, 7).Return(testUser, nil).Once()
	store.On("BeginUpgradeTx", mock.Anything).Return(tx, nil).Once()
	tx.On("CreateSubscription", mock.Anything, mock.Anything).Return(createdSub, nil).Once()
	tx.On("CreatePayment", mock.Anything, mock.Anything).
		Return(nil, errors.New("payment insert failed")).Once()
	tx.On("Rollback").Return(nil).Once()

	res, err := svc.ManualUpgrade(context.Background(), Request{
		UserID:         7,
		MemberType:     "Τακτικό",
		DurationMonths: 6,
		Amount:         250,
		PerformedBy:    1,
	})

	require.Error(t, err)
	assert.Nil(t, res)
	tx.AssertExpectations(t)
	tx.AssertNotCalled(t, "Commit")
	tx.AssertNotCalled(t, "UpdateUserMemberType")
	auditw.AssertNotCalled(t, "LogAction")
	notifier.AssertNotCalled(t, "SendSubscriptionConfirmation")
}

func TestManualUpgrade_RollbackOnMemberTypeFailure(t *testing.T) {
	now := time.Now()
	store := new(StoreMock)
	tx := new(TxMock)
	svc := newService(store, new(AuditMock), new(NotifierMock), now)

	subID := 42
	store.On("GetUserByID", mock.Anything, 7).Return(testUser, nil).Once()
	store.On("BeginUpgradeTx", mock.Anything).Return(tx, nil).Once()
	tx.On("CreateSubscription", mock.Anything, mock.Anything).
		Return(&models.Subscription{ID: subID, UserID: 7}, nil).Once()
	tx.On("CreatePayment", mock.Anything, mock.Anything).
		Return(&models.Payment{ID: 9, UserID: 7, SubscriptionID: &subID}, nil).Once()
	tx.On("UpdateUserMemberType", mock.Anything, 7, "Τακτικό").
		Return(errors.New("update failed")).Once()
	tx.On("Rollback").Return(nil).Once()

	_, err := svc.ManualUpgrade(context.Background(), Request{
		UserID:         7,
		MemberType:     "Τακτικό",
		DurationMonths: 6,
		Amount:         250,
		PerformedBy:    1,
	})

	require.Error(t, err)
	tx.AssertExpectations(t)
	tx.AssertNotCalled(t, "Commit")
}

func TestManualUpgrade_NotifierFailureStillSuccess(t *testing.T) {
	now := time.Now()
	store := new(StoreMock)
	tx := new(TxMock)
	auditw := new(AuditMock)
	notifier := new(NotifierMock)
	svc := newService(store, auditw, notifier, now)

	subID := 42
	createdSub := &models.Subscription{ID: subID, UserID: 7}
	createdPayment := &models.Payment{ID: 9, UserID: 7, SubscriptionID: &subID}

	store.On("GetUserByID", mock.Anything, 7).Return(testUser, nil).Once()
	store.On("BeginUpgradeTx", mock.Anything).Return(tx, nil).Once()
	tx.On("CreateSubscription", mock.Anything, mock.Anything).Return(createdSub, nil).Once()
	tx.On("CreatePayment", mock.Anything, mock.Anything).Return(createdPayment, nil).Once()
	tx.On("UpdateUserMemberType", mock.Anything, 7, "Τακτικό").Return(nil).Once()
	tx.On("Commit").Return(nil).Once()
	auditw.On("LogAction", mock.Anything, mock.Anything).Once()
	notifier.On("SendSubscriptionConfirmation", mock.Anything, testUser, createdSub).
		Return(errors.New("smtp unreachable")).Once()

	res, err := svc.ManualUpgrade(context.Background(), Request{
		UserID:         7,
		MemberType:     "Τακτικό",
		DurationMonths: 12,
		Amount:         500,
		PerformedBy:    1,
	})

	require.NoError(t, err)
	assert.Equal(t, createdSub, res.Subscription)
	assert.Equal(t, createdPayment, res.Payment)
	notifier.AssertExpectations(t)
}

func TestManualUpgrade_DefaultPaymentMethod(t *testing.T) {
	now := time.Now()
	store := new(StoreMock)
	tx := new(TxMock)
	auditw := new(AuditMock)
	notifier := new(NotifierMock)
	svc := newService(store, auditw, notifier, now)

	subID := 42
	store.On("GetUserByID", mock.Anything, 7).Return(testUser, nil).Once()
	store.On("BeginUpgradeTx", mock.Anything).Return(tx, nil).Once()
	tx.On("CreateSubscription", mock.Anything, mock.Anything).
		Return(&models.Subscription{ID: subID, UserID: 7}, nil).Once()
	tx.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p models.Payment) bool {
		return p.PaymentMethod == models.PaymentMethodBankTransfer
	})).Return(&models.Payment{ID: 9, UserID: 7, SubscriptionID: &subID}, nil).Once()
	tx.On("UpdateUserMemberType", mock.Anything, 7, "Τακτικό").Return(nil).Once()
	tx.On("Commit").Return(nil).Once()
	auditw.On("LogAction", mock.Anything, mock.Anything).Once()
	notifier.On("SendSubscriptionConfirmation", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	_, err := svc.ManualUpgrade(context.Background(), Request{
		UserID:         7,
		MemberType:     "Τακτικό",
		DurationMonths: 12,
		Amount:         500,
		PerformedBy:    1,
	})

	require.NoError(t, err)
	tx.AssertExpectations(t)
}
