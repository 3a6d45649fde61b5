package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/membership-registry/internal/models"
)

// InsertAction добавляет запись в журнал действий. Metadata сериализуется
// в jsonb; nil означает отсутствие дополнительных данных.
func (s *Storage) InsertAction(ctx context.Context, a models.Action) (int, error) {
	const op = "storage.InsertAction"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var metadata any
	if a.Metadata != nil {
		raw, err := json.Marshal(a.Metadata)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		metadata = raw
	}

	query := `INSERT INTO action_history (user_id, action_type, action_description,
			      performed_by, metadata, ip_address)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		a.UserID, a.ActionType, a.Description, a.PerformedBy, metadata, a.IPAddress).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListActions возвращает записи журнала по фильтру, новые первыми.
func (s *Storage) ListActions(ctx context.Context, filter models.ActionFilter) ([]*models.Action, error) {
	const op = "storage.ListActions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var conditions []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.UserID != nil {
		conditions = append(conditions, "user_id = "+arg(*filter.UserID))
	}
	if filter.ActionType != nil {
		conditions = append(conditions, "action_type = "+arg(*filter.ActionType))
	}
	if filter.From != nil {
		conditions = append(conditions, "created_at >= "+arg(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "created_at <= "+arg(*filter.To))
	}

	query := `SELECT id, user_id, action_type, action_description, performed_by,
			      metadata, ip_address, created_at
			  FROM action_history`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT " + arg(filter.Limit) + " OFFSET " + arg(filter.Offset)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Action
	for rows.Next() {
		var a models.Action
		var performedBy sql.NullInt64
		var ipAddress sql.NullString
		var metadata []byte
		if err := rows.Scan(&a.ID, &a.UserID, &a.ActionType, &a.Description,
			&performedBy, &metadata, &ipAddress, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if performedBy.Valid {
			v := int(performedBy.Int64)
			a.PerformedBy = &v
		}
		if ipAddress.Valid {
			a.IPAddress = &ipAddress.String
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		result = append(result, &a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
