// Package audit реализует журналирование действий пользователей и администраторов.
//
// Запись журнала — лучшая попытка: ошибка записи логируется и не
// возвращается вызывающему коду, чтобы журнал не мог прервать
// породившую его операцию.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/membership-registry/internal/lib/sl"
	"github.com/magabrotheeeer/membership-registry/internal/metrics"
	"github.com/magabrotheeeer/membership-registry/internal/models"
)

// Repository определяет метод добавления записи в журнал.
type Repository interface {
	InsertAction(ctx context.Context, a models.Action) (int, error)
}

// Service пишет записи в журнал действий.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// knownActionTypes — документированный перечень типов действий.
// Хранилище не навязывает enum: неизвестный тип записывается с
// предупреждением в логе, чтобы ловить опечатки, не блокируя
// появление новых категорий.
var knownActionTypes = map[string]struct{}{
	models.ActionRegistration:       {},
	models.ActionApproval:           {},
	models.ActionDenial:             {},
	models.ActionLogin:              {},
	models.ActionPayment:            {},
	models.ActionSubscriptionChange: {},
	models.ActionSubscriptionCreate: {},
	models.ActionSubscriptionUpdate: {},
	models.ActionManualUpgrade:      {},
	models.ActionAutoConversion:     {},
	models.ActionMemberUpdate:       {},
	models.ActionMemberDeletion:     {},
	models.ActionMemberCreation:     {},
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// LogAction добавляет одну запись в журнал. Никогда не возвращает
// ошибку вызывающему: любая ошибка хранилища логируется и отбрасывается.
func (s *Service) LogAction(ctx context.Context, a models.Action) {
	const op = "audit.LogAction"

	if _, ok := knownActionTypes[a.ActionType]; !ok {
		s.log.Warn("unknown action type, recording anyway",
			slog.String("op", op), slog.String("action_type", a.ActionType))
	}

	if _, err := s.repo.InsertAction(ctx, a); err != nil {
		metrics.AuditWriteFailures.Inc()
		s.log.Error("failed to record action",
			slog.String("op", op),
			slog.String("action_type", a.ActionType),
			slog.Int("user_id", a.UserID),
			sl.Err(err))
		return
	}
	s.log.Info("action recorded",
		slog.String("action_type", a.ActionType), slog.Int("user_id", a.UserID))
}

// LogRegistration записывает регистрацию нового пользователя.
func (s *Service) LogRegistration(ctx context.Context, userID int) {
	s.LogAction(ctx, models.Action{
		UserID:      userID,
		ActionType:  models.ActionRegistration,
		Description: "User registered",
	})
}

// LogApproval записывает одобрение заявки члена.
func (s *Service) LogApproval(ctx context.Context, userID, performedBy int) {
	s.LogAction(ctx, models.Action{
		UserID:      userID,
		ActionType:  models.ActionApproval,
		Description: "User account approved",
		PerformedBy: &performedBy,
	})
}

// LogDenial записывает отклонение заявки члена.
func (s *Service) LogDenial(ctx context.Context, userID, performedBy int) {
	s.LogAction(ctx, models.Action{
		UserID:      userID,
		ActionType:  models.ActionDenial,
		Description: "User account denied",
		PerformedBy: &performedBy,
	})
}

// LogLogin записывает вход пользователя с его IP-адресом.
func (s *Service) LogLogin(ctx context.Context, userID int, ipAddress string) {
	a := models.Action{
		UserID:      userID,
		ActionType:  models.ActionLogin,
		Description: "User logged in",
	}
	if ipAddress != "" {
		a.IPAddress = &ipAddress
	}
	s.LogAction(ctx, a)
}

// LogAutoConversion записывает автоматический перевод члена
// в другую категорию после истечения подписки.
func (s *Service) LogAutoConversion(ctx context.Context, userID int, oldType, newType string) {
	s.LogAction(ctx, models.Action{
		UserID:      userID,
		ActionType:  models.ActionAutoConversion,
		Description: fmt.Sprintf("Subscription expired, auto-converted from %s to %s", oldType, newType),
		Metadata:    map[string]any{"old_type": oldType, "new_type": newType},
	})
}
