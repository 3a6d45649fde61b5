// Package membershipregistry собирает HTTP-приложение реестра членов:
// хранилище, кеш, брокер уведомлений, сервисы и маршруты.
package membershipregistry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/membership-registry/internal/cache"
	"github.com/magabrotheeeer/membership-registry/internal/config"
	"github.com/magabrotheeeer/membership-registry/internal/lib/jwt"
	"github.com/magabrotheeeer/membership-registry/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/membership-registry/internal/migrations"
	auditservice "github.com/magabrotheeeer/membership-registry/internal/services/audit"
	authservice "github.com/magabrotheeeer/membership-registry/internal/services/auth"
	memberservice "github.com/magabrotheeeer/membership-registry/internal/services/member"
	notifierservice "github.com/magabrotheeeer/membership-registry/internal/services/notifier"
	subscriptionservice "github.com/magabrotheeeer/membership-registry/internal/services/subscription"
	upgradeservice "github.com/magabrotheeeer/membership-registry/internal/services/upgrade"
	"github.com/magabrotheeeer/membership-registry/internal/storage/repository"
)

// App инкапсулирует HTTP-сервер и его зависимости.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// upgradeStore адаптирует хранилище к интерфейсу сервиса продления.
type upgradeStore struct {
	*repository.Storage
}

func (s upgradeStore) BeginUpgradeTx(ctx context.Context) (upgradeservice.Tx, error) {
	return s.Storage.BeginUpgradeTx(ctx)
}

// New создает приложение: подключает PostgreSQL, применяет миграции,
// инициализирует Redis и RabbitMQ, собирает сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	auditService := auditservice.New(db, logger)
	notifierService := notifierservice.New(ch, logger)
	authService := authservice.New(db, jwtMaker, auditService, logger)
	memberService := memberservice.New(db, auditService, notifierService, logger)
	subscriptionService := subscriptionservice.New(db, cacheRedis, auditService, logger)
	upgradeService := upgradeservice.New(upgradeStore{db}, auditService, notifierService, logger)

	router := chi.NewRouter()

	RegisterRoutes(router, logger, authService, memberService, subscriptionService, upgradeService, db)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if cerr := a.ch.Close(); cerr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", cerr))
		}
		if cerr := a.conn.Close(); cerr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", cerr))
		}
		if cerr := a.db.DB.Close(); cerr != nil {
			a.logger.Error("failed to close database", slog.Any("err", cerr))
		}
		return err
	}
}
