package member

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/magabrotheeeer/membership-registry/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *RepoMock) UpdateUser(ctx context.Context, id int, req models.DummyMemberUpdate) (*models.User, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) UpdateUserStatus(ctx context.Context, id int, status string, performedBy int) (*models.User, error) {
	args := m.Called(ctx, id, status, performedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) DeleteUserCascade(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type AuditMock struct{ mock.Mock }

func (m *AuditMock) LogAction(ctx context.Context, a models.Action) {
	m.Called(ctx, a)
}

func (m *AuditMock) LogApproval(ctx context.Context, userID, performedBy int) {
	m.Called(ctx, userID, performedBy)
}

func (m *AuditMock) LogDenial(ctx context.Context, userID, performedBy int) {
	m.Called(ctx, userID, performedBy)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) SendWelcome(ctx context.Context, user *models.User, tempPassword string) error {
	return m.Called(ctx, user, tempPassword).Error(0)
}

func (m *NotifierMock) SendMemberStatusChange(ctx context.Context, user *models.User, status string) error {
	return m.Called(ctx, user, status).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestMember_Create_GeneratesTempPassword(t *testing.T) {
	repo := new(RepoMock)
	auditw := new(AuditMock)
	notifier := new(NotifierMock)
	svc := New(repo, auditw, notifier, newNoopLogger())

	created := &models.User{
		ID:         7,
		Email:      "new@example.com",
		FirstName:  "Maria",
		LastName:   "Ioannou",
		Role:       models.RoleUser,
		Status:     models.StatusApproved,
		MemberType: "Δόκιμο",
	}
	var capturedHash string
	repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		capturedHash = u.PasswordHash
		return u.Email == "new@example.com" &&
			u.Role == models.RoleUser &&
			u.Status == models.StatusApproved &&
			u.PasswordHash != ""
	})).Return(created, nil).Once()
	auditw.On("LogAction", mock.Anything, mock.MatchedBy(func(a models.Action) bool {
		return a.ActionType == models.ActionMemberCreation && a.UserID == 7
	})).Once()

	user, tempPassword, err := svc.Create(context.Background(), models.DummyMember{
		Email:      "new@example.com",
		FirstName:  "Maria",
		LastName:   "Ioannou",
		MemberType: "Δόκιμο",
	}, 1)

	require.NoError(t, err)
	assert.Equal(t, created, user)
	require.NotEmpty(t, tempPassword)
	assert.Len(t, tempPassword, tempPasswordLength)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(capturedHash), []byte(tempPassword)))
	notifier.AssertNotCalled(t, "SendWelcome")
	repo.AssertExpectations(t)
	auditw.AssertExpectations(t)
}

func TestMember_Create_ExplicitPasswordAndWelcome(t *testing.T) {
	repo := new(RepoMock)
	auditw := new(AuditMock)
	notifier := new(NotifierMock)
	svc := New(repo, auditw, notifier, newNoopLogger())

	created := &models.User{ID: 7, Email: "new@example.com"}
	repo.On("CreateUser", mock.Anything, mock.Anything).Return(created, nil).Once()
	auditw.On("LogAction", mock.Anything, mock.Anything).Once()
	notifier.On("SendWelcome", mock.Anything, created, "").Return(nil).Once()

	user, tempPassword, err := svc.Create(context.Background(), models.DummyMember{
		Email:       "new@example.com",
		Password:    "chosen-by-admin",
		FirstName:   "Maria",
		LastName:    "Ioannou",
		MemberType:  "Δόκιμο",
		SendWelcome: true,
	}, 1)

	require.NoError(t, err)
	assert.Equal(t, created, user)
	assert.Empty(t, tempPassword)
	notifier.AssertExpectations(t)
}

func TestMember_Create_WelcomeFailureIsNonFatal(t *testing.T) {
	repo := new(RepoMock)
	auditw := new(AuditMock)
	notifier := new(NotifierMock)
	svc := New(repo, auditw, notifier, newNoopLogger())

	created := &models.User{ID: 7}
	repo.On("CreateUser", mock.Anything, mock.Anything).Return(created, nil).Once()
	auditw.On("LogAction", mock.Anything, mock.Anything).Once()
	notifier.On("SendWelcome", mock.Anything, created, mock.Anything).
		Return(errors.New("smtp unreachable")).Once()

	user, _, err := svc.Create(context.Background(), models.DummyMember{
		Email:       "new@example.com",
		FirstName:   "Maria",
		LastName:    "Ioannou",
		MemberType:  "Δόκιμο",
		SendWelcome: true,
	}, 1)

	require.NoError(t, err)
	assert.Equal(t, created, user)
}

func TestMember_Approve(t *testing.T) {
	repo := new(RepoMock)
	auditw := new(AuditMock)
	notifier := new(NotifierMock)
	svc := New(repo, auditw, notifier, newNoopLogger())

	approved := &models.User{ID: 7, Status: models.StatusApproved}
	repo.On("UpdateUserStatus", mock.Anything, 7, models.StatusApproved, 1).
		Return(approved, nil).Once()
	auditw.On("LogApproval", mock.Anything, 7, 1).Once()
	notifier.On("SendMemberStatusChange", mock.Anything, approved, models.StatusApproved).
		Return(nil).Once()

	user, err := svc.Approve(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.Equal(t, approved, user)
	repo.AssertExpectations(t)
	auditw.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestMember_Deny_NotificationFailureIsNonFatal(t *testing.T) {
	repo := new(RepoMock)
	auditw := new(AuditMock)
	notifier := new(NotifierMock)
	svc := New(repo, auditw, notifier, newNoopLogger())

	denied := &models.User{ID: 7, Status: models.StatusDenied}
	repo.On("UpdateUserStatus", mock.Anything, 7, models.StatusDenied, 1).
		Return(denied, nil).Once()
	auditw.On("LogDenial", mock.Anything, 7, 1).Once()
	notifier.On("SendMemberStatusChange", mock.Anything, denied, models.StatusDenied).
		Return(errors.New("smtp unreachable")).Once()

	user, err := svc.Deny(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.Equal(t, denied, user)
}

func TestMember_Approve_StorageFailure(t *testing.T) {
	repo := new(RepoMock)
	auditw := new(AuditMock)
	notifier := new(NotifierMock)
	svc := New(repo, auditw, notifier, newNoopLogger())

	repo.On("UpdateUserStatus", mock.Anything, 7, models.StatusApproved, 1).
		Return(nil, errors.New("user not found")).Once()

	_, err := svc.Approve(context.Background(), 7, 1)
	require.Error(t, err)
	auditw.AssertNotCalled(t, "LogApproval")
	notifier.AssertNotCalled(t, "SendMemberStatusChange")
}

func TestMember_Delete_AuditsUnderAdminID(t *testing.T) {
	repo := new(RepoMock)
	auditw := new(AuditMock)
	svc := New(repo, auditw, new(NotifierMock), newNoopLogger())

	repo.On("DeleteUserCascade", mock.Anything, 7).Return(nil).Once()
	auditw.On("LogAction", mock.Anything, mock.MatchedBy(func(a models.Action) bool {
		return a.ActionType == models.ActionMemberDeletion &&
			a.UserID == 1 &&
			a.Metadata["deleted_user_id"] == 7
	})).Once()

	err := svc.Delete(context.Background(), 7, 1)
	require.NoError(t, err)
	repo.AssertExpectations(t)
	auditw.AssertExpectations(t)
}

func TestMember_Delete_StorageFailure(t *testing.T) {
	repo := new(RepoMock)
	auditw := new(AuditMock)
	svc := New(repo, auditw, new(NotifierMock), newNoopLogger())

	repo.On("DeleteUserCascade", mock.Anything, 7).
		Return(errors.New("user not found")).Once()

	err := svc.Delete(context.Background(), 7, 1)
	require.Error(t, err)
	auditw.AssertNotCalled(t, "LogAction")
}
