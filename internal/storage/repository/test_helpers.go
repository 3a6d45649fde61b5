package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/membership-registry/internal/models"
)

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(wait.ForAll(
			wait.ForListeningPort(nat.Port("5432/tcp")),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(3*time.Minute)),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	// Пробуем подключиться несколько раз с ретраями
	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	// Создаем таблицы
	_, err = storage.DB.Exec(`
        CREATE TABLE users (
            id SERIAL PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            fathers_name TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            address TEXT NOT NULL DEFAULT '',
            role TEXT NOT NULL DEFAULT 'user',
            status TEXT NOT NULL DEFAULT 'pending',
            member_type TEXT NOT NULL DEFAULT '',
            approved_at TIMESTAMPTZ,
            approved_by INTEGER,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );

        CREATE TABLE subscriptions (
            id SERIAL PRIMARY KEY,
            user_id INTEGER NOT NULL REFERENCES users(id),
            member_type TEXT NOT NULL,
            duration_months INTEGER NOT NULL CHECK (duration_months > 0),
            price NUMERIC(10, 2) NOT NULL,
            start_date TIMESTAMPTZ NOT NULL,
            end_date TIMESTAMPTZ NOT NULL,
            status TEXT NOT NULL DEFAULT 'active',
            auto_renew BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );

        CREATE TABLE payments (
            id SERIAL PRIMARY KEY,
            user_id INTEGER NOT NULL REFERENCES users(id),
            subscription_id INTEGER REFERENCES subscriptions(id),
            amount NUMERIC(10, 2) NOT NULL,
            payment_method TEXT NOT NULL DEFAULT 'bank_transfer',
            payment_status TEXT NOT NULL DEFAULT 'completed',
            payment_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            notes TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );

        CREATE TABLE action_history (
            id SERIAL PRIMARY KEY,
            user_id INTEGER NOT NULL,
            action_type TEXT NOT NULL,
            action_description TEXT NOT NULL,
            performed_by INTEGER,
            metadata JSONB,
            ip_address TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
    `)
	require.NoError(t, err, "failed to create tables")

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.DB.Close()
		}
		_ = pgContainer.Terminate(ctx)
	}

	return storage, cleanup
}

// createTestUser создает тестового члена с уникальной почтой
func createTestUser(t *testing.T, storage *Storage, memberType string) *models.User {
	t.Helper()

	user, err := storage.CreateUser(context.Background(), models.User{
		Email:        fmt.Sprintf("member-%s@example.com", uuid.New().String()),
		PasswordHash: "hashedpassword",
		FirstName:    "Γιώργος",
		LastName:     "Παπαδόπουλος",
		Role:         models.RoleUser,
		Status:       models.StatusApproved,
		MemberType:   memberType,
	})
	require.NoError(t, err)
	return user
}

// createTestSubscription создает тестовую подписку напрямую в БД
func createTestSubscription(t *testing.T, storage *Storage, userID int, status string, endDate time.Time) int {
	t.Helper()

	var id int
	err := storage.DB.QueryRow(`INSERT INTO subscriptions
		(user_id, member_type, duration_months, price, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		userID, "Τακτικό", 12, 50.0, endDate.AddDate(-1, 0, 0), endDate, status).Scan(&id)
	require.NoError(t, err)
	return id
}
