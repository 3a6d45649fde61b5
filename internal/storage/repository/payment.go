package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/membership-registry/internal/models"
)

const paymentColumns = `id, user_id, subscription_id, amount, payment_method,
			      payment_status, payment_date, notes, created_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	var p models.Payment
	var subscriptionID sql.NullInt64
	if err := row.Scan(&p.ID, &p.UserID, &subscriptionID, &p.Amount, &p.PaymentMethod,
		&p.PaymentStatus, &p.PaymentDate, &p.Notes, &p.CreatedAt); err != nil {
		return nil, err
	}
	if subscriptionID.Valid {
		v := int(subscriptionID.Int64)
		p.SubscriptionID = &v
	}
	return &p, nil
}

// CreatePayment вставляет запись о платеже и возвращает её.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) (*models.Payment, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments (user_id, subscription_id, amount, payment_method,
			      payment_status, payment_date, notes)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + paymentColumns
	created, err := scanPayment(s.DB.QueryRowContext(ctx, query,
		p.UserID, p.SubscriptionID, p.Amount, p.PaymentMethod,
		p.PaymentStatus, p.PaymentDate, p.Notes))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// ListPaymentsForUser возвращает платежи члена, новые первыми.
func (s *Storage) ListPaymentsForUser(ctx context.Context, userID int) ([]*models.Payment, error) {
	const op = "storage.ListPaymentsForUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payments
			  WHERE user_id = $1
			  ORDER BY payment_date DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
