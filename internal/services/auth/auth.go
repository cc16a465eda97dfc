// Package auth содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package auth

import (
	"context"
	"errors"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/password"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// ErrInvalidCredentials возвращается при неверной паре email/пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его UID.
	CreateUser(ctx context.Context, user models.User) (string, error)

	// GetUserByEmail возвращает пользователя по email или ошибку, если не найден.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// ListAllUsers возвращает всех пользователей.
	ListAllUsers(ctx context.Context) ([]*models.User, error)

	// UpdateNotificationPreferences сохраняет настройки уведомлений пользователя.
	UpdateNotificationPreferences(ctx context.Context, userUID string, prefs models.NotificationPreferences) (int, error)
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// Register создает нового пользователя с хэшированием пароля
// и настройками уведомлений по умолчанию.
func (s *AuthService) Register(ctx context.Context, email, rawPassword string, isAdmin bool) (string, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", err
	}
	user := models.User{
		Email:        email,
		PasswordHash: hashed,
		IsAdmin:      isAdmin,
		Preferences: models.NotificationPreferences{
			EmailEnabled:    true,
			BrowserEnabled:  true,
			ReminderOffsets: models.DefaultReminderOffsets,
		},
	}
	return s.users.CreateUser(ctx, user)
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.jwtMaker.GenerateToken(user.Email, user.IsAdmin, user.UID)
}

// ValidateToken проверяет JWT и возвращает информацию о пользователе и признак валидности.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.User, bool, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, false, err
	}
	user := &models.User{
		Email:   claims.Email,
		IsAdmin: claims.IsAdmin,
		UID:     claims.UserUID,
	}
	return user, true, nil
}

// Me возвращает актуальный профиль пользователя по email из токена.
func (s *AuthService) Me(ctx context.Context, email string) (*models.User, error) {
	return s.users.GetUserByEmail(ctx, email)
}

// ListUsers возвращает всех пользователей. Доступно только администратору,
// проверка прав выполняется на уровне HTTP.
func (s *AuthService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.ListAllUsers(ctx)
}

// UpdatePreferences сохраняет настройки уведомлений пользователя.
func (s *AuthService) UpdatePreferences(ctx context.Context, userUID string, prefs models.NotificationPreferences) error {
	rows, err := s.users.UpdateNotificationPreferences(ctx, userUID, prefs)
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.New("user not found")
	}
	return nil
}
