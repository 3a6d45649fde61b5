// Package upgrade реализует ручное продление членства администратором.
//
// Подписка, платёж и смена категории членства создаются в одной
// транзакции базы данных: либо фиксируются все три изменения, либо ни
// одно. Запись в журнал действий и почтовое уведомление выполняются
// после фиксации как лучшая попытка и не влияют на результат операции.
package upgrade

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/membership-registry/internal/lib/month"
	"github.com/magabrotheeeer/membership-registry/internal/lib/sl"
	"github.com/magabrotheeeer/membership-registry/internal/metrics"
	"github.com/magabrotheeeer/membership-registry/internal/models"
)

// Tx определяет шаги продления, выполняемые в одной транзакции.
type Tx interface {
	CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	CreatePayment(ctx context.Context, p models.Payment) (*models.Payment, error)
	UpdateUserMemberType(ctx context.Context, userID int, memberType string) error
	Commit() error
	Rollback() error
}

// Store определяет методы хранилища, нужные для продления.
type Store interface {
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	BeginUpgradeTx(ctx context.Context) (Tx, error)
}

// AuditWriter пишет запись в журнал действий, никогда не возвращая ошибку.
type AuditWriter interface {
	LogAction(ctx context.Context, a models.Action)
}

// Notifier отправляет члену подтверждение продления.
type Notifier interface {
	SendSubscriptionConfirmation(ctx context.Context, user *models.User, sub *models.Subscription) error
}

// Request описывает параметры ручного продления.
type Request struct {
	UserID         int
	MemberType     string
	DurationMonths int
	Amount         float64
	PaymentMethod  string // По умолчанию bank_transfer
	Notes          string
	PerformedBy    int
}

// Result содержит созданные в ходе продления записи.
type Result struct {
	Subscription *models.Subscription
	Payment      *models.Payment
}

// Service координирует шаги ручного продления членства.
type Service struct {
	store    Store
	audit    AuditWriter
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

// New создает новый экземпляр Service.
func New(store Store, audit AuditWriter, notifier Notifier, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		audit:    audit,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// ManualUpgrade выполняет продление членства: создаёт подписку и платёж,
// обновляет категорию членства пользователя. Три изменения фиксируются
// одной транзакцией; после фиксации операция считается успешной
// независимо от исхода журналирования и уведомления.
func (s *Service) ManualUpgrade(ctx context.Context, req Request) (*Result, error) {
	const op = "upgrade.ManualUpgrade"

	user, err := s.store.GetUserByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	startDate := s.now()
	endDate, err := month.AddMonths(startDate, req.DurationMonths)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentMethodBankTransfer
	}

	tx, err := s.store.BeginUpgradeTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.log.Error("failed to rollback upgrade transaction", sl.Err(rbErr))
			}
		}
	}()

	sub, err := tx.CreateSubscription(ctx, models.Subscription{
		UserID:         req.UserID,
		MemberType:     req.MemberType,
		DurationMonths: req.DurationMonths,
		Price:          req.Amount,
		StartDate:      startDate,
		EndDate:        endDate,
		Status:         models.SubscriptionActive,
		AutoRenew:      false,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	payment, err := tx.CreatePayment(ctx, models.Payment{
		UserID:         req.UserID,
		SubscriptionID: &sub.ID,
		Amount:         req.Amount,
		PaymentMethod:  paymentMethod,
		PaymentStatus:  models.PaymentStatusCompleted,
		PaymentDate:    startDate,
		Notes:          req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.UpdateUserMemberType(ctx, req.UserID, req.MemberType); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	committed = true
	metrics.ManualUpgradesTotal.Inc()
	s.log.Info("manual upgrade committed",
		slog.Int("user_id", req.UserID),
		slog.Int("subscription_id", sub.ID),
		slog.Int("payment_id", payment.ID))

	s.runPostCommit(ctx, user, sub, payment, req, paymentMethod)

	return &Result{Subscription: sub, Payment: payment}, nil
}

// runPostCommit последовательно выполняет действия после фиксации
// транзакции. Каждое действие изолировано: его ошибка или паника
// логируется и не влияет ни на соседние действия, ни на результат.
func (s *Service) runPostCommit(ctx context.Context, user *models.User, sub *models.Subscription, payment *models.Payment, req Request, paymentMethod string) {
	hooks := []struct {
		name string
		run  func(context.Context) error
	}{
		{
			name: "audit",
			run: func(ctx context.Context) error {
				performedBy := req.PerformedBy
				s.audit.LogAction(ctx, models.Action{
					UserID:     req.UserID,
					ActionType: models.ActionManualUpgrade,
					Description: fmt.Sprintf("Manual subscription upgrade: %d-month %s (%s)",
						req.DurationMonths, req.MemberType, paymentMethod),
					PerformedBy: &performedBy,
					Metadata: map[string]any{
						"subscription_id": sub.ID,
						"payment_id":      payment.ID,
						"amount":          req.Amount,
						"payment_method":  paymentMethod,
					},
				})
				return nil
			},
		},
		{
			name: "confirmation notification",
			run: func(ctx context.Context) error {
				return s.notifier.SendSubscriptionConfirmation(ctx, user, sub)
			},
		},
	}

	for _, hook := range hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("post-commit hook panicked",
						slog.String("hook", hook.name), slog.Any("panic", r))
				}
			}()
			if err := hook.run(ctx); err != nil {
				s.log.Error("post-commit hook failed",
					slog.String("hook", hook.name), sl.Err(err))
			}
		}()
	}
}
