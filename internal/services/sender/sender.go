// Package sender отправляет почтовые уведомления по сообщениям
// из очередей RabbitMQ.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/membership-registry/internal/lib/sl"
	"github.com/magabrotheeeer/membership-registry/internal/lib/smtp"
	"github.com/magabrotheeeer/membership-registry/internal/models"
	"github.com/magabrotheeeer/membership-registry/internal/services/notifier"
)

type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

func New(transport smtp.TransportInterface, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

// SendSubscriptionConfirmed отправляет письмо о созданной или
// продлённой подписке.
func (s *Service) SendSubscriptionConfirmed(body []byte) error {
	var message notifier.ConfirmationMessage
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	subject := "Your membership subscription is confirmed"
	bodyText := fmt.Sprintf("Dear %s %s,\n\nYour %s membership subscription has been recorded.\nIt is valid until %s.\n\nThank you.",
		message.FirstName, message.LastName, message.MemberType,
		message.EndDate.Format("02.01.2006"))

	return s.sendEmail(to, subject, bodyText)
}

// SendMemberStatus отправляет письмо об изменении статуса учётной
// записи. Для статуса welcome отправляется приветственное письмо
// с временным паролем.
func (s *Service) SendMemberStatus(body []byte) error {
	var message notifier.StatusMessage
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	var subject, bodyText string
	switch message.Status {
	case notifier.StatusWelcome:
		subject = "Welcome to the membership registry"
		bodyText = fmt.Sprintf("Dear %s %s,\n\nAn account has been created for you.",
			message.FirstName, message.LastName)
		if message.TempPassword != "" {
			bodyText += fmt.Sprintf("\nYour temporary password is: %s\nPlease change it after your first login.", message.TempPassword)
		}
	case models.StatusApproved:
		subject = "Your membership application has been approved"
		bodyText = fmt.Sprintf("Dear %s %s,\n\nYour membership application has been approved.\nYou can now log in to your account.",
			message.FirstName, message.LastName)
	case models.StatusDenied:
		subject = "Your membership application has been denied"
		bodyText = fmt.Sprintf("Dear %s %s,\n\nUnfortunately your membership application has been denied.\nPlease contact the registry administrators for details.",
			message.FirstName, message.LastName)
	default:
		s.log.Warn("unknown member status in message", slog.String("status", message.Status))
		subject = "Your membership account status has changed"
		bodyText = fmt.Sprintf("Dear %s %s,\n\nThe status of your account is now: %s.",
			message.FirstName, message.LastName, message.Status)
	}

	return s.sendEmail(to, subject, bodyText)
}

// SendSubscriptionExpired отправляет письмо об истёкшей подписке.
func (s *Service) SendSubscriptionExpired(body []byte) error {
	var message models.SubscriptionInfo
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	subject := "Your membership subscription has expired"
	bodyText := fmt.Sprintf("Dear %s %s,\n\nYour %s membership subscription expired on %s.\nPlease contact the registry administrators to renew it.",
		message.FirstName, message.LastName, message.MemberType,
		message.EndDate.Format("02.01.2006"))

	return s.sendEmail(to, subject, bodyText)
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
