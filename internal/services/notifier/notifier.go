// Package notifier публикует почтовые уведомления в RabbitMQ.
// Каждый тип уведомления уходит в свою очередь exchange "notifications",
// письма отправляет отдельный сервис-потребитель.
package notifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/membership-registry/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/membership-registry/internal/models"
)

// Ключи маршрутизации exchange "notifications".
const (
	KeySubscriptionConfirmed = "subscription_confirmed"
	KeyMemberStatus          = "member_status"
	KeySubscriptionExpired   = "subscription_expired"
)

// StatusWelcome — псевдостатус для приветственного письма
// новому члену.
const StatusWelcome = "welcome"

// ConfirmationMessage — уведомление о созданной или продлённой подписке.
type ConfirmationMessage struct {
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	MemberType string    `json:"member_type"`
	EndDate    time.Time `json:"end_date"`
}

// StatusMessage — уведомление об изменении статуса учётной записи.
// Для приветственного письма Status равен welcome и заполнен
// TempPassword.
type StatusMessage struct {
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Status       string `json:"status"`
	TempPassword string `json:"temp_password,omitempty"`
}

type Service struct {
	ch  rabbitmq.Publisher
	log *slog.Logger
}

func New(ch rabbitmq.Publisher, log *slog.Logger) *Service {
	return &Service{ch: ch, log: log}
}

// SendSubscriptionConfirmation публикует подтверждение подписки.
func (s *Service) SendSubscriptionConfirmation(_ context.Context, user *models.User, sub *models.Subscription) error {
	msg := ConfirmationMessage{
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		MemberType: sub.MemberType,
		EndDate:    sub.EndDate,
	}
	if err := rabbitmq.PublishMessage(s.ch, "notifications", KeySubscriptionConfirmed, msg); err != nil {
		return err
	}
	s.log.Info("published subscription confirmation",
		slog.Int("user_id", user.ID), slog.Int("subscription_id", sub.ID))
	return nil
}

// SendWelcome публикует приветственное письмо новому члену.
func (s *Service) SendWelcome(_ context.Context, user *models.User, tempPassword string) error {
	msg := StatusMessage{
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Status:       StatusWelcome,
		TempPassword: tempPassword,
	}
	if err := rabbitmq.PublishMessage(s.ch, "notifications", KeyMemberStatus, msg); err != nil {
		return err
	}
	s.log.Info("published welcome notification", slog.Int("user_id", user.ID))
	return nil
}

// SendMemberStatusChange публикует уведомление об одобрении
// или отклонении заявки.
func (s *Service) SendMemberStatusChange(_ context.Context, user *models.User, status string) error {
	msg := StatusMessage{
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Status:    status,
	}
	if err := rabbitmq.PublishMessage(s.ch, "notifications", KeyMemberStatus, msg); err != nil {
		return err
	}
	s.log.Info("published member status notification",
		slog.Int("user_id", user.ID), slog.String("status", status))
	return nil
}

// SendSubscriptionExpired публикует уведомление об истёкшей подписке.
func (s *Service) SendSubscriptionExpired(_ context.Context, info models.SubscriptionInfo) error {
	if err := rabbitmq.PublishMessage(s.ch, "notifications", KeySubscriptionExpired, info); err != nil {
		return err
	}
	s.log.Info("published subscription expired notification", slog.String("email", info.Email))
	return nil
}
