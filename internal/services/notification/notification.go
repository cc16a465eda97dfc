// Package notification содержит бизнес-логику работы с уведомлениями пользователей.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// ErrNotFound возвращается, когда уведомление не существует или принадлежит другому пользователю.
var ErrNotFound = errors.New("notification not found")

// NotificationRepository определяет методы для работы с уведомлениями в хранилище.
type NotificationRepository interface {
	// ListNotificationsByUser возвращает уведомления пользователя, новые первыми.
	ListNotificationsByUser(ctx context.Context, userUID string, limit int) ([]*models.Notification, error)
	// MarkNotificationRead помечает уведомление пользователя прочитанным.
	MarkNotificationRead(ctx context.Context, id int, userUID string) (int, error)
	// CountUnreadNotifications возвращает количество непрочитанных уведомлений.
	CountUnreadNotifications(ctx context.Context, userUID string) (int, error)
	// DeleteNotificationsOlderThan удаляет уведомления старше отметки времени.
	DeleteNotificationsOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// NotificationService реализует просмотр, прочтение и очистку уведомлений.
type NotificationService struct {
	repo  NotificationRepository
	cache Cache
	log   *slog.Logger
}

// NewNotificationService создает новый экземпляр NotificationService.
func NewNotificationService(repo NotificationRepository, cache Cache, log *slog.Logger) *NotificationService {
	return &NotificationService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func unreadKey(userUID string) string {
	return fmt.Sprintf("notifications:unread:%s", userUID)
}

// List возвращает уведомления пользователя, новые первыми.
func (s *NotificationService) List(ctx context.Context, userUID string, limit int) ([]*models.Notification, error) {
	return s.repo.ListNotificationsByUser(ctx, userUID, limit)
}

// MarkRead помечает уведомление пользователя прочитанным и сбрасывает
// кешированный счётчик непрочитанных.
func (s *NotificationService) MarkRead(ctx context.Context, id int, userUID string) error {
	rows, err := s.repo.MarkNotificationRead(ctx, id, userUID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	if err := s.cache.Invalidate(unreadKey(userUID)); err != nil {
		s.log.Warn("failed to invalidate unread counter", slog.String("key", unreadKey(userUID)), slog.Any("err", err))
	}
	return nil
}

// UnreadCount возвращает количество непрочитанных уведомлений пользователя,
// используя кеш или репозиторий.
func (s *NotificationService) UnreadCount(ctx context.Context, userUID string) (int, error) {
	var count int
	found, err := s.cache.Get(unreadKey(userUID), &count)
	if err != nil {
		s.log.Warn("failed to read unread counter from cache", slog.String("key", unreadKey(userUID)), slog.Any("err", err))
		found = false
	}
	if found {
		return count, nil
	}

	count, err = s.repo.CountUnreadNotifications(ctx, userUID)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Set(unreadKey(userUID), count, time.Minute); err != nil {
		s.log.Warn("failed to cache unread counter", slog.String("key", unreadKey(userUID)), slog.Any("err", err))
	}
	return count, nil
}

// PurgeOlderThan удаляет уведомления старше retentionDays дней
// и возвращает количество удалённых записей.
func (s *NotificationService) PurgeOlderThan(ctx context.Context, retentionDays int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	deleted, err := s.repo.DeleteNotificationsOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info("purged old notifications", slog.Int("deleted", deleted))
	}
	return deleted, nil
}

// RunRetention периодически удаляет устаревшие уведомления, пока контекст жив.
func (s *NotificationService) RunRetention(ctx context.Context, interval time.Duration, retentionDays int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PurgeOlderThan(ctx, retentionDays); err != nil {
				s.log.Error("failed to purge old notifications", slog.Any("err", err))
			}
		}
	}
}
