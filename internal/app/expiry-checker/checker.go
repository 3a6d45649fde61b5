// Package expirychecker содержит приложение фонового обработчика
// истёкших подписок.
package expirychecker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/membership-registry/internal/config"
	"github.com/magabrotheeeer/membership-registry/internal/lib/rabbitmq"
	auditservice "github.com/magabrotheeeer/membership-registry/internal/services/audit"
	expiryservice "github.com/magabrotheeeer/membership-registry/internal/services/expiry"
	notifierservice "github.com/magabrotheeeer/membership-registry/internal/services/notifier"
	"github.com/magabrotheeeer/membership-registry/internal/storage/repository"
)

const checkInterval = time.Hour

// App представляет приложение обработчика истёкших подписок.
type App struct {
	expiryService *expiryservice.Service
	conn          *amqp.Connection
	ch            *amqp.Channel
	db            *repository.Storage
	logger        *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		err := db.CheckDatabaseReady(ctx)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения обработчика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	if err := waitForDB(ctx, db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	notifierService := notifierservice.New(ch, logger)
	auditService := auditservice.New(db, logger)

	expiryService := expiryservice.New(db, auditService, notifierService, cfg.DefaultMemberType, logger)

	return &App{
		expiryService: expiryService,
		conn:          conn,
		ch:            ch,
		db:            db,
		logger:        logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", "error", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}
}

// Run запускает периодическую обработку истёкших подписок.
func (a *App) Run(ctx context.Context) error {
	go a.expiryService.Run(ctx, checkInterval)

	<-ctx.Done()

	a.logger.Info("shutting down expiry checker")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close database", slog.Any("err", err))
	}

	return nil
}
