// Package member реализует администрирование членов организации:
// создание, обновление, одобрение и отклонение заявок, удаление.
package member

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/membership-registry/internal/lib/password"
	"github.com/magabrotheeeer/membership-registry/internal/lib/sl"
	"github.com/magabrotheeeer/membership-registry/internal/models"
)

// Длина временного пароля, который генерируется при создании члена
// без явно заданного пароля.
const tempPasswordLength = 12

type Repository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdateUser(ctx context.Context, id int, req models.DummyMemberUpdate) (*models.User, error)
	UpdateUserStatus(ctx context.Context, id int, status string, performedBy int) (*models.User, error)
	DeleteUserCascade(ctx context.Context, id int) error
}

// AuditWriter пишет записи в журнал действий. Ошибки записи
// не возвращаются вызывающему.
type AuditWriter interface {
	LogAction(ctx context.Context, a models.Action)
	LogApproval(ctx context.Context, userID, performedBy int)
	LogDenial(ctx context.Context, userID, performedBy int)
}

// Notifier отправляет письма членам. Ошибки отправки логируются
// и не влияют на результат операции.
type Notifier interface {
	SendWelcome(ctx context.Context, user *models.User, tempPassword string) error
	SendMemberStatusChange(ctx context.Context, user *models.User, status string) error
}

type Service struct {
	repo     Repository
	audit    AuditWriter
	notifier Notifier
	log      *slog.Logger
}

func New(repo Repository, audit AuditWriter, notifier Notifier, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		audit:    audit,
		notifier: notifier,
		log:      log,
	}
}

// List возвращает страницу членов, новые первыми.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return s.repo.ListUsers(ctx, limit, offset)
}

// Read возвращает члена по ID.
func (s *Service) Read(ctx context.Context, id int) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// Create заводит нового члена от имени администратора. Учётная запись
// сразу получает статус approved. Если пароль не задан, генерируется
// временный и возвращается вторым значением.
func (s *Service) Create(ctx context.Context, req models.DummyMember, performedBy int) (*models.User, string, error) {
	const op = "member.Create"

	plain := req.Password
	var tempPassword string
	if plain == "" {
		generated, err := password.GenerateTemporary(tempPasswordLength)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", op, err)
		}
		plain = generated
		tempPassword = generated
	}

	hash, err := password.GetHash(plain)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.repo.CreateUser(ctx, models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		FathersName:  req.FathersName,
		Phone:        req.Phone,
		Address:      req.Address,
		Role:         models.RoleUser,
		Status:       models.StatusApproved,
		MemberType:   req.MemberType,
	})
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new member", slog.Int("id", user.ID), slog.String("email", user.Email))

	s.audit.LogAction(ctx, models.Action{
		UserID:      user.ID,
		ActionType:  models.ActionMemberCreation,
		Description: fmt.Sprintf("Member account created for %s %s", user.FirstName, user.LastName),
		PerformedBy: &performedBy,
		Metadata: map[string]any{
			"member_type": user.MemberType,
		},
	})

	if req.SendWelcome {
		if err := s.notifier.SendWelcome(ctx, user, tempPassword); err != nil {
			s.log.Error("failed to send welcome email",
				slog.Int("user_id", user.ID), sl.Err(err))
		}
	}

	return user, tempPassword, nil
}

// Update обновляет данные члена.
func (s *Service) Update(ctx context.Context, id int, req models.DummyMemberUpdate, performedBy int) (*models.User, error) {
	user, err := s.repo.UpdateUser(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.log.Info("updated member", slog.Int("id", id))

	s.audit.LogAction(ctx, models.Action{
		UserID:      id,
		ActionType:  models.ActionMemberUpdate,
		Description: fmt.Sprintf("Member %d profile updated", id),
		PerformedBy: &performedBy,
	})
	return user, nil
}

// Approve одобряет заявку члена и уведомляет его по почте.
func (s *Service) Approve(ctx context.Context, id, performedBy int) (*models.User, error) {
	user, err := s.repo.UpdateUserStatus(ctx, id, models.StatusApproved, performedBy)
	if err != nil {
		return nil, err
	}
	s.log.Info("approved member", slog.Int("id", id), slog.Int("performed_by", performedBy))

	s.audit.LogApproval(ctx, id, performedBy)
	if err := s.notifier.SendMemberStatusChange(ctx, user, models.StatusApproved); err != nil {
		s.log.Error("failed to send approval notification",
			slog.Int("user_id", id), sl.Err(err))
	}
	return user, nil
}

// Deny отклоняет заявку члена и уведомляет его по почте.
func (s *Service) Deny(ctx context.Context, id, performedBy int) (*models.User, error) {
	user, err := s.repo.UpdateUserStatus(ctx, id, models.StatusDenied, performedBy)
	if err != nil {
		return nil, err
	}
	s.log.Info("denied member", slog.Int("id", id), slog.Int("performed_by", performedBy))

	s.audit.LogDenial(ctx, id, performedBy)
	if err := s.notifier.SendMemberStatusChange(ctx, user, models.StatusDenied); err != nil {
		s.log.Error("failed to send denial notification",
			slog.Int("user_id", id), sl.Err(err))
	}
	return user, nil
}

// Delete удаляет члена вместе с его подписками, платежами и записями
// журнала. Запись об удалении пишется на ID администратора, поскольку
// журнал удалённого пользователя уже стёрт.
func (s *Service) Delete(ctx context.Context, id, performedBy int) error {
	if err := s.repo.DeleteUserCascade(ctx, id); err != nil {
		return err
	}
	s.log.Info("deleted member", slog.Int("id", id), slog.Int("performed_by", performedBy))

	s.audit.LogAction(ctx, models.Action{
		UserID:      performedBy,
		ActionType:  models.ActionMemberDeletion,
		Description: fmt.Sprintf("Member %d deleted with all related records", id),
		PerformedBy: &performedBy,
		Metadata: map[string]any{
			"deleted_user_id": id,
		},
	})
	return nil
}
