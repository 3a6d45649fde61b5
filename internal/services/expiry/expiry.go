// Package expiry реализует периодическую проверку истёкших подписок.
// Активные подписки с прошедшей датой окончания переводятся в статус
// expired, а категория членства пользователя сбрасывается на базовую.
package expiry

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/membership-registry/internal/lib/sl"
	"github.com/magabrotheeeer/membership-registry/internal/models"
)

type Repository interface {
	FindExpiredActiveSubscriptions(ctx context.Context) ([]*models.Subscription, error)
	MarkSubscriptionExpired(ctx context.Context, id int) error
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	UpdateUserMemberType(ctx context.Context, id int, memberType string) error
}

// AuditWriter пишет записи в журнал действий. Ошибки записи
// не возвращаются вызывающему.
type AuditWriter interface {
	LogAutoConversion(ctx context.Context, userID int, oldType, newType string)
}

// Notifier отправляет уведомления об истёкших подписках.
type Notifier interface {
	SendSubscriptionExpired(ctx context.Context, info models.SubscriptionInfo) error
}

type Service struct {
	repo              Repository
	audit             AuditWriter
	notifier          Notifier
	defaultMemberType string
	log               *slog.Logger
}

func New(repo Repository, audit AuditWriter, notifier Notifier, defaultMemberType string, log *slog.Logger) *Service {
	return &Service{
		repo:              repo,
		audit:             audit,
		notifier:          notifier,
		defaultMemberType: defaultMemberType,
		log:               log,
	}
}

// Run запускает периодическую обработку до отмены контекста.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("expiry checker stopped")
			return
		case <-ticker.C:
			processed, err := s.ProcessExpired(ctx)
			if err != nil {
				s.log.Error("failed to process expired subscriptions", sl.Err(err))
				continue
			}
			if processed > 0 {
				s.log.Info("processed expired subscriptions", slog.Int("count", processed))
			}
		}
	}
}

// ProcessExpired выполняет один проход проверки и возвращает число
// обработанных подписок. Сбой на одной подписке не прерывает
// обработку остальных.
func (s *Service) ProcessExpired(ctx context.Context) (int, error) {
	subs, err := s.repo.FindExpiredActiveSubscriptions(ctx)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, sub := range subs {
		if err := s.processOne(ctx, sub); err != nil {
			s.log.Error("failed to expire subscription",
				slog.Int("subscription_id", sub.ID), sl.Err(err))
			continue
		}
		processed++
	}
	return processed, nil
}

func (s *Service) processOne(ctx context.Context, sub *models.Subscription) error {
	if err := s.repo.MarkSubscriptionExpired(ctx, sub.ID); err != nil {
		return err
	}

	user, err := s.repo.GetUserByID(ctx, sub.UserID)
	if err != nil {
		return err
	}

	if user.MemberType != s.defaultMemberType {
		if err := s.repo.UpdateUserMemberType(ctx, user.ID, s.defaultMemberType); err != nil {
			return err
		}
		s.audit.LogAutoConversion(ctx, user.ID, user.MemberType, s.defaultMemberType)
		s.log.Info("auto-converted member type",
			slog.Int("user_id", user.ID),
			slog.String("old_type", user.MemberType),
			slog.String("new_type", s.defaultMemberType))
	}

	info := models.SubscriptionInfo{
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		MemberType: sub.MemberType,
		EndDate:    sub.EndDate,
	}
	if err := s.notifier.SendSubscriptionExpired(ctx, info); err != nil {
		s.log.Error("failed to publish expiry notification",
			slog.Int("user_id", user.ID), sl.Err(err))
	}
	return nil
}
