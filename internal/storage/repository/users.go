package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/membership-registry/internal/models"
)

const userColumns = `id, email, password_hash, first_name, last_name, fathers_name,
			      phone, address, role, status, member_type, approved_at, approved_by,
			      created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var approvedAt sql.NullTime
	var approvedBy sql.NullInt64
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.FathersName, &u.Phone, &u.Address, &u.Role, &u.Status, &u.MemberType,
		&approvedAt, &approvedBy, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if approvedAt.Valid {
		u.ApprovedAt = &approvedAt.Time
	}
	if approvedBy.Valid {
		v := int(approvedBy.Int64)
		u.ApprovedBy = &v
	}
	return u, nil
}

// CreateUser сохраняет нового члена и возвращает созданную запись.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (email, password_hash, first_name, last_name, fathers_name,
			      phone, address, role, status, member_type, approved_at, approved_by)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING ` + userColumns
	row := s.DB.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.FirstName, user.LastName, user.FathersName,
		user.Phone, user.Address, user.Role, user.Status, user.MemberType,
		user.ApprovedAt, user.ApprovedBy)
	created, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetUserByID возвращает пользователя по его ID.
func (s *Storage) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	const op = "storage.GetUserByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по адресу электронной почты.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ListUsers возвращает список членов с пагинацией, новые первыми.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUser обновляет данные члена и возвращает обновлённую запись.
func (s *Storage) UpdateUser(ctx context.Context, id int, req models.DummyMemberUpdate) (*models.User, error) {
	const op = "storage.UpdateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET email = $1, first_name = $2, last_name = $3, fathers_name = $4,
			      phone = $5, address = $6, member_type = $7, updated_at = NOW()
			  WHERE id = $8
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query,
		req.Email, req.FirstName, req.LastName, req.FathersName,
		req.Phone, req.Address, req.MemberType, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateUserStatus переводит заявку члена в новый статус. Для approved
// дополнительно заполняются approved_at и approved_by.
func (s *Storage) UpdateUserStatus(ctx context.Context, id int, status string, performedBy int) (*models.User, error) {
	const op = "storage.UpdateUserStatus"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var row *sql.Row
	if status == models.StatusApproved {
		query := `UPDATE users
				  SET status = $1, approved_at = NOW(), approved_by = $2, updated_at = NOW()
				  WHERE id = $3
				  RETURNING ` + userColumns
		row = s.DB.QueryRowContext(ctx, query, status, performedBy, id)
	} else {
		query := `UPDATE users
				  SET status = $1, updated_at = NOW()
				  WHERE id = $2
				  RETURNING ` + userColumns
		row = s.DB.QueryRowContext(ctx, query, status, id)
	}
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateUserMemberType меняет категорию членства пользователя вне
// транзакции продления. Используется при автоконвертации истёкших
// подписок.
func (s *Storage) UpdateUserMemberType(ctx context.Context, id int, memberType string) error {
	const op = "storage.UpdateUserMemberType"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET member_type = $1, updated_at = NOW()
			  WHERE id = $2`
	res, err := s.DB.ExecContext(ctx, query, memberType, id)
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

// DeleteUserCascade удаляет члена вместе с его подписками, платежами
// и записями журнала. Возвращает ErrUserNotFound, если член не существует.
func (s *Storage) DeleteUserCascade(ctx context.Context, id int) error {
	const op = "storage.DeleteUserCascade"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, query := range []string{
		`DELETE FROM payments WHERE user_id = $1`,
		`DELETE FROM subscriptions WHERE user_id = $1`,
		`DELETE FROM action_history WHERE user_id = $1`,
	} {
		if _, err = tx.ExecContext(ctx, query, id); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
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

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
