package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// CreateSubscription вставляет новую запись подписки и возвращает её ID.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (int, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (owner_uid, service_name, cost, billing_cycle,
			      renewal_date, notes, visibility)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		sub.OwnerUID, sub.ServiceName, sub.Cost, sub.BillingCycle,
		sub.RenewalDate, sub.Notes, sub.Visibility).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadSubscription возвращает данные подписки по её ID.
// Возвращает nil без ошибки, если подписки с таким ID нет.
func (s *Storage) ReadSubscription(ctx context.Context, id int) (*models.Subscription, error) {
	const op = "storage.ReadSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, owner_uid, service_name, cost, billing_cycle, renewal_date,
			      notes, visibility, last_notified, created_at
			  FROM subscriptions WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Subscription
	var notes sql.NullString
	var lastNotified sql.NullTime
	if err := row.Scan(&result.ID, &result.OwnerUID, &result.ServiceName, &result.Cost,
		&result.BillingCycle, &result.RenewalDate, &notes, &result.Visibility,
		&lastNotified, &result.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if notes.Valid {
		result.Notes = &notes.String
	}
	if lastNotified.Valid {
		result.LastNotified = &lastNotified.Time
	}
	return &result, nil
}

// UpdateSubscription обновляет данные подписки по её ID и возвращает количество изменённых строк.
//
// Поле last_notified намеренно не затрагивается: его единственный писатель — планировщик.
func (s *Storage) UpdateSubscription(ctx context.Context, sub models.Subscription, id int) (int, error) {
	const op = "storage.UpdateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET service_name = $1, cost = $2, billing_cycle = $3, renewal_date = $4,
			      notes = $5, visibility = $6
			  WHERE id = $7`
	result, err := s.DB.ExecContext(ctx, query,
		sub.ServiceName, sub.Cost, sub.BillingCycle, sub.RenewalDate,
		sub.Notes, sub.Visibility, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveSubscription удаляет подписку по ID и возвращает количество удалённых строк.
func (s *Storage) RemoveSubscription(ctx context.Context, id int) (int, error) {
	const op = "storage.RemoveSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM subscriptions WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListSubscriptionsByOwner возвращает список подписок пользователя с пагинацией.
func (s *Storage) ListSubscriptionsByOwner(ctx context.Context, ownerUID string, limit, offset int) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptionsByOwner"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, owner_uid, service_name, cost, billing_cycle, renewal_date,
			      notes, visibility, last_notified, created_at
			  FROM subscriptions
			  WHERE owner_uid = $1
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, ownerUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	return scanSubscriptions(rows, op)
}

// ListAllSubscriptions возвращает список всех подписок с пагинацией.
// Используется администратором.
func (s *Storage) ListAllSubscriptions(ctx context.Context, limit, offset int) ([]*models.Subscription, error) {
	const op = "storage.ListAllSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, owner_uid, service_name, cost, billing_cycle, renewal_date,
			      notes, visibility, last_notified, created_at
			  FROM subscriptions
			  ORDER BY id
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	return scanSubscriptions(rows, op)
}

// ListUpcomingSubscriptions возвращает подписки пользователя,
// продлевающиеся в интервале [from, until), отсортированные по дате продления.
func (s *Storage) ListUpcomingSubscriptions(ctx context.Context, ownerUID string, from, until time.Time, limit, offset int) ([]*models.Subscription, error) {
	const op = "storage.ListUpcomingSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, owner_uid, service_name, cost, billing_cycle, renewal_date,
			      notes, visibility, last_notified, created_at
			  FROM subscriptions
			  WHERE owner_uid = $1
			    AND renewal_date >= $2
			    AND renewal_date < $3
			  ORDER BY renewal_date
			  LIMIT $4 OFFSET $5`
	rows, err := s.DB.QueryContext(ctx, query, ownerUID, from, until, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	return scanSubscriptions(rows, op)
}

// FindDueSubscriptions возвращает подписки пользователя, продлевающиеся
// в окне [start, end), по которым сегодня ещё не отправлялось напоминание:
// last_notified отсутствует или строго раньше scanDayStart — начала суток,
// в которые выполняется проход. Маркер, выставленный в прошлые дни,
// не блокирует напоминание на другом смещении.
func (s *Storage) FindDueSubscriptions(ctx context.Context, ownerUID string, start, end, scanDayStart time.Time) ([]*models.Subscription, error) {
	const op = "storage.FindDueSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, owner_uid, service_name, cost, billing_cycle, renewal_date,
			      notes, visibility, last_notified, created_at
			  FROM subscriptions
			  WHERE owner_uid = $1
			    AND renewal_date >= $2
			    AND renewal_date < $3
			    AND (last_notified IS NULL OR last_notified < $4)
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, ownerUID, start, end, scanDayStart)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	return scanSubscriptions(rows, op)
}

// MarkNotified условно выставляет last_notified = notifiedAt и возвращает
// количество изменённых строк. Условие повторяет критерий выборки:
// строка помечается, только если last_notified отсутствует или строго раньше
// scanDayStart — начала суток текущего прохода. Свежевыставленный маркер
// попадает в эти же сутки, поэтому повторный проход в тот же день не затронет
// строк, а проход на следующий день сможет пометить её снова. Ноль изменённых
// строк означает, что подписка уже помечена сегодня, и уведомление создавать
// не нужно.
func (s *Storage) MarkNotified(ctx context.Context, id int, notifiedAt, scanDayStart time.Time) (int, error) {
	const op = "storage.MarkNotified"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET last_notified = $1
			  WHERE id = $2
			    AND (last_notified IS NULL OR last_notified < $3)`
	result, err := s.DB.ExecContext(ctx, query, notifiedAt, id, scanDayStart)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

func scanSubscriptions(rows *sql.Rows, op string) ([]*models.Subscription, error) {
	var result []*models.Subscription
	for rows.Next() {
		var item models.Subscription
		var notes sql.NullString
		var lastNotified sql.NullTime
		if err := rows.Scan(&item.ID, &item.OwnerUID, &item.ServiceName, &item.Cost,
			&item.BillingCycle, &item.RenewalDate, &notes, &item.Visibility,
			&lastNotified, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if notes.Valid {
			item.Notes = &notes.String
		}
		if lastNotified.Valid {
			item.LastNotified = &lastNotified.Time
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
