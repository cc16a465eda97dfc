// Package reset содержит логику сброса пароля по одноразовому коду.
//
// Для каждого email живым может быть только последний выпущенный код:
// выпуск нового кода удаляет предыдущий. Код одноразовый — успешная проверка
// немедленно удаляет запись. Просроченные коды не удаляются фоновой задачей,
// их отсечение происходит лениво при проверке.
package reset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/otp"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/password"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// CodeTTL время жизни одноразового кода.
const CodeTTL = 10 * time.Minute

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// GetUserByEmail возвращает пользователя по email или ошибку, если не найден.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// UpdateUserPassword обновляет хэш пароля пользователя по email.
	UpdateUserPassword(ctx context.Context, email, passwordHash string) (int, error)
}

// ResetRepository описывает контракт для работы с кодами сброса пароля.
type ResetRepository interface {
	// DeletePasswordResetsByEmail удаляет все коды для email.
	DeletePasswordResetsByEmail(ctx context.Context, email string) (int, error)
	// CreatePasswordReset сохраняет новый код.
	CreatePasswordReset(ctx context.Context, reset models.PasswordReset) (int, error)
	// FindLivePasswordReset возвращает живой код или nil.
	FindLivePasswordReset(ctx context.Context, email, code string, now time.Time) (*models.PasswordReset, error)
	// DeletePasswordReset удаляет код по ID.
	DeletePasswordReset(ctx context.Context, id int) (int, error)
}

// Dispatcher описывает отправку писем по принципу fire-and-forget.
type Dispatcher interface {
	Dispatch(address, subject, body string) bool
}

// ResetService реализует выпуск, проверку и одноразовое потребление кодов сброса пароля.
type ResetService struct {
	users      UserRepository
	resets     ResetRepository
	dispatcher Dispatcher
	log        *slog.Logger
	now        func() time.Time
}

// NewResetService создает новый экземпляр ResetService.
func NewResetService(users UserRepository, resets ResetRepository, dispatcher Dispatcher, log *slog.Logger) *ResetService {
	return &ResetService{
		users:      users,
		resets:     resets,
		dispatcher: dispatcher,
		log:        log,
		now:        time.Now,
	}
}

// IssueCode генерирует новый одноразовый код для email и сохраняет его
// со сроком действия CodeTTL. Прежние коды для этого email удаляются:
// действительным остаётся только последний выпущенный код.
//
// Существование учётной записи здесь не проверяется — это забота слоя выше.
func (s *ResetService) IssueCode(ctx context.Context, email string) (string, error) {
	const op = "reset.IssueCode"

	code, err := otp.GenerateCode()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.resets.DeletePasswordResetsByEmail(ctx, email); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	if _, err := s.resets.CreatePasswordReset(ctx, models.PasswordReset{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(CodeTTL),
	}); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return code, nil
}

// RequestReset выполняет полный сценарий "забыли пароль": если учётная запись
// существует, выпускает код и отправляет его письмом. Для неизвестного email
// ничего не делает и не возвращает ошибку, чтобы не раскрывать существование
// учётной записи.
func (s *ResetService) RequestReset(ctx context.Context, email string) error {
	const op = "reset.RequestReset"

	if _, err := s.users.GetUserByEmail(ctx, email); err != nil {
		s.log.Info("password reset requested for unknown email")
		return nil
	}

	code, err := s.IssueCode(ctx, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	subject := "Password Reset - Subscription Manager"
	body := fmt.Sprintf(
		"We received a request to reset your password.\r\n\r\n"+
			"Your verification code is: %s\r\n\r\n"+
			"This code will expire in %d minutes.\r\n"+
			"If you didn't request this password reset, please ignore this email.",
		code, int(CodeTTL.Minutes()))
	if !s.dispatcher.Dispatch(email, subject, body) {
		// Доставка best-effort: код уже выпущен, пользователь может запросить новый.
		s.log.Warn("failed to dispatch password reset email")
	}
	return nil
}

// VerifyCode проверяет код для email и потребляет его при успехе.
// Возвращает false как для неверного, так и для просроченного кода,
// не различая причины. Ошибка возвращается только при недоступности хранилища.
func (s *ResetService) VerifyCode(ctx context.Context, email, code string) (bool, error) {
	const op = "reset.VerifyCode"

	record, err := s.resets.FindLivePasswordReset(ctx, email, code, s.now().UTC())
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if record == nil {
		return false, nil
	}

	if _, err := s.resets.DeletePasswordReset(ctx, record.ID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// ConsumeAndResetPassword проверяет код и при успехе сохраняет новый пароль
// пользователя в виде bcrypt-хэша. При неуспешной проверке пароль не меняется.
func (s *ResetService) ConsumeAndResetPassword(ctx context.Context, email, code, newPassword string) (bool, error) {
	const op = "reset.ConsumeAndResetPassword"

	ok, err := s.VerifyCode(ctx, email, code)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return false, nil
	}

	hash, err := password.GetHash(newPassword)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	affected, err := s.users.UpdateUserPassword(ctx, email, hash)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		s.log.Error("verified reset code for missing user", sl.Err(fmt.Errorf("%s: no rows updated", op)))
		return false, nil
	}
	return true, nil
}
