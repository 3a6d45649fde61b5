// Package subscription реализует бизнес-логику работы с подписками:
// создание с расчётом даты окончания, обновление и выборки.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/membership-registry/internal/lib/month"
	"github.com/magabrotheeeer/membership-registry/internal/models"
)

// DateLayout — формат дат в JSON-запросах.
const DateLayout = "02-01-2006"

type Repository interface {
	CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	UpdateSubscription(ctx context.Context, id int, sub models.Subscription) (*models.Subscription, error)
	ReadSubscription(ctx context.Context, id int) (*models.Subscription, error)
	ListSubscriptionsForUser(ctx context.Context, userID int) ([]*models.Subscription, error)
}

type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// AuditWriter пишет записи в журнал действий. Ошибки записи
// не возвращаются вызывающему.
type AuditWriter interface {
	LogAction(ctx context.Context, a models.Action)
}

type Service struct {
	repo  Repository
	cache Cache
	audit AuditWriter
	log   *slog.Logger
}

func New(repo Repository, cache Cache, audit AuditWriter, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		audit: audit,
		log:   log,
	}
}

// Create создаёт подписку. Дата окончания всегда вычисляется как дата
// начала плюс duration_months календарных месяцев, с прижатием к концу
// месяца.
func (s *Service) Create(ctx context.Context, req models.DummySubscription, performedBy int) (*models.Subscription, error) {
	startDate, err := time.Parse(DateLayout, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}

	endDate, err := month.AddMonths(startDate, req.DurationMonths)
	if err != nil {
		return nil, err
	}

	sub := models.Subscription{
		UserID:         req.UserID,
		MemberType:     req.MemberType,
		DurationMonths: req.DurationMonths,
		Price:          req.Price,
		StartDate:      startDate,
		EndDate:        endDate,
		Status:         models.SubscriptionActive,
		AutoRenew:      true,
	}

	created, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, err
	}
	s.log.Info("created new subscription",
		slog.Int("id", created.ID), slog.Int("user_id", created.UserID))

	cacheKey := fmt.Sprintf("subscription:%d", created.ID)
	if err := s.cache.Set(cacheKey, created, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey), slog.Any("err", err))
	}

	s.audit.LogAction(ctx, models.Action{
		UserID:     created.UserID,
		ActionType: models.ActionSubscriptionCreate,
		Description: fmt.Sprintf("Created %d-month %s subscription",
			created.DurationMonths, created.MemberType),
		PerformedBy: &performedBy,
		Metadata: map[string]any{
			"subscription_id": created.ID,
			"end_date":        created.EndDate.Format(DateLayout),
		},
	})

	return created, nil
}

// Update обновляет подписку по ID. Дата окончания задаётся администратором
// явно и не пересчитывается.
func (s *Service) Update(ctx context.Context, id int, req models.DummySubscriptionUpdate, performedBy int) (*models.Subscription, error) {
	endDate, err := time.Parse(DateLayout, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}

	sub := models.Subscription{
		MemberType:     req.MemberType,
		DurationMonths: req.DurationMonths,
		Price:          req.Price,
		EndDate:        endDate,
		Status:         req.Status,
	}

	updated, err := s.repo.UpdateSubscription(ctx, id, sub)
	if err != nil {
		return nil, err
	}
	s.log.Info("updated subscription in storage", slog.Int("id", id))

	cacheKey := fmt.Sprintf("subscription:%d", id)
	if err := s.cache.Set(cacheKey, updated, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey), slog.Any("err", err))
	}

	s.audit.LogAction(ctx, models.Action{
		UserID:      updated.UserID,
		ActionType:  models.ActionSubscriptionUpdate,
		Description: fmt.Sprintf("Updated subscription %d", id),
		PerformedBy: &performedBy,
		Metadata: map[string]any{
			"subscription_id": id,
			"status":          updated.Status,
		},
	})

	return updated, nil
}

// Read возвращает подписку по ID, сперва проверяя кэш.
func (s *Service) Read(ctx context.Context, id int) (*models.Subscription, error) {
	var result *models.Subscription
	cacheKey := fmt.Sprintf("subscription:%d", id)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found && result != nil {
		return result, nil
	}

	result, err = s.repo.ReadSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return result, nil
}

// ListForUser возвращает все подписки члена, новые первыми.
func (s *Service) ListForUser(ctx context.Context, userID int) ([]*models.Subscription, error) {
	subs, err := s.repo.ListSubscriptionsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return subs, nil
}
