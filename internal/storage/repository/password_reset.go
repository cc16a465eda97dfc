package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// DeletePasswordResetsByEmail удаляет все коды сброса пароля для email
// и возвращает количество удалённых строк. Вызывается перед выпуском нового кода:
// для одного email живым может быть только последний выпущенный код.
func (s *Storage) DeletePasswordResetsByEmail(ctx context.Context, email string) (int, error) {
	const op = "storage.DeletePasswordResetsByEmail"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM password_resets WHERE email = $1`
	result, err := s.DB.ExecContext(ctx, query, email)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// CreatePasswordReset сохраняет новый код сброса пароля и возвращает его ID.
func (s *Storage) CreatePasswordReset(ctx context.Context, reset models.PasswordReset) (int, error) {
	const op = "storage.CreatePasswordReset"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO password_resets (email, code, expires_at)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		reset.Email, reset.Code, reset.ExpiresAt).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// FindLivePasswordReset возвращает живой код сброса: совпадающие email и code
// с expires_at строго позже now. Просроченные записи не удаляются фоновой задачей,
// они просто перестают находиться этой выборкой.
// Возвращает nil без ошибки, если живого кода нет.
func (s *Storage) FindLivePasswordReset(ctx context.Context, email, code string, now time.Time) (*models.PasswordReset, error) {
	const op = "storage.FindLivePasswordReset"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, email, code, expires_at, created_at
			  FROM password_resets
			  WHERE email = $1 AND code = $2 AND expires_at > $3`
	row := s.DB.QueryRowContext(ctx, query, email, code, now)

	var result models.PasswordReset
	if err := row.Scan(&result.ID, &result.Email, &result.Code, &result.ExpiresAt, &result.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// DeletePasswordReset удаляет код сброса по ID и возвращает количество удалённых строк.
// Используется для одноразового потребления кода после успешной проверки.
func (s *Storage) DeletePasswordReset(ctx context.Context, id int) (int, error) {
	const op = "storage.DeletePasswordReset"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM password_resets WHERE id = $1`
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
