package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/membership-registry/internal/models"
)

// UpgradeTx объединяет шаги ручного продления членства в одной
// транзакции базы данных. Соединение удерживается до Commit или
// Rollback и затем возвращается в пул.
type UpgradeTx struct {
	tx *sql.Tx
}

// BeginUpgradeTx открывает транзакцию с уровнем изоляции read committed.
func (s *Storage) BeginUpgradeTx(ctx context.Context) (*UpgradeTx, error) {
	const op = "storage.BeginUpgradeTx"
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &UpgradeTx{tx: tx}, nil
}

// CreateSubscription вставляет подписку в рамках транзакции.
func (t *UpgradeTx) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.UpgradeTx.CreateSubscription"
	query := `INSERT INTO subscriptions (user_id, member_type, duration_months, price,
			      start_date, end_date, status, auto_renew)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING ` + subscriptionColumns
	created, err := scanSubscription(t.tx.QueryRowContext(ctx, query,
		sub.UserID, sub.MemberType, sub.DurationMonths, sub.Price,
		sub.StartDate, sub.EndDate, sub.Status, sub.AutoRenew))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// CreatePayment вставляет платёж в рамках транзакции.
func (t *UpgradeTx) CreatePayment(ctx context.Context, p models.Payment) (*models.Payment, error) {
	const op = "storage.UpgradeTx.CreatePayment"
	query := `INSERT INTO payments (user_id, subscription_id, amount, payment_method,
			      payment_status, payment_date, notes)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + paymentColumns
	created, err := scanPayment(t.tx.QueryRowContext(ctx, query,
		p.UserID, p.SubscriptionID, p.Amount, p.PaymentMethod,
		p.PaymentStatus, p.PaymentDate, p.Notes))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// UpdateUserMemberType обновляет категорию членства в рамках транзакции.
func (t *UpgradeTx) UpdateUserMemberType(ctx context.Context, userID int, memberType string) error {
	const op = "storage.UpgradeTx.UpdateUserMemberType"
	query := `UPDATE users
			  SET member_type = $1, updated_at = NOW()
			  WHERE id = $2`
	res, err := t.tx.ExecContext(ctx, query, memberType, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// Commit фиксирует транзакцию.
func (t *UpgradeTx) Commit() error {
	return t.tx.Commit()
}

// Rollback откатывает транзакцию. После Commit вызов безвреден.
func (t *UpgradeTx) Rollback() error {
	return t.tx.Rollback()
}
