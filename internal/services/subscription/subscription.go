// Package subscription содержит бизнес-логику для управления подписками и кешированием.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// ErrNotFound возвращается, когда подписка не существует.
var ErrNotFound = errors.New("subscription not found")

// ErrForbidden возвращается при попытке обратиться к чужой подписке.
var ErrForbidden = errors.New("subscription belongs to another user")

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	// CreateSubscription добавляет новую подписку и возвращает её ID.
	CreateSubscription(ctx context.Context, sub models.Subscription) (int, error)
	// ReadSubscription возвращает подписку по ID.
	ReadSubscription(ctx context.Context, id int) (*models.Subscription, error)
	// UpdateSubscription обновляет данные подписки по ID.
	UpdateSubscription(ctx context.Context, sub models.Subscription, id int) (int, error)
	// RemoveSubscription удаляет подписку по ID и возвращает количество удалённых записей.
	RemoveSubscription(ctx context.Context, id int) (int, error)
	// ListSubscriptionsByOwner возвращает список подписок пользователя с пагинацией.
	ListSubscriptionsByOwner(ctx context.Context, ownerUID string, limit, offset int) ([]*models.Subscription, error)
	// ListAllSubscriptions возвращает список всех подписок с пагинацией.
	ListAllSubscriptions(ctx context.Context, limit, offset int) ([]*models.Subscription, error)
	// ListUpcomingSubscriptions возвращает подписки, продлевающиеся в интервале [from, until).
	ListUpcomingSubscriptions(ctx context.Context, ownerUID string, from, until time.Time, limit, offset int) ([]*models.Subscription, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// SubscriptionService реализует бизнес-логику работы с подписками, включая кеширование.
type SubscriptionService struct {
	repo  SubscriptionRepository
	cache Cache
	log   *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, cache Cache, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func cacheKey(id int) string {
	return fmt.Sprintf("subscription:%d", id)
}

// buildSubscription переводит запрос в модель, проверяя дату продления.
func buildSubscription(ownerUID string, req models.DummySubscription) (models.Subscription, error) {
	renewalDate, err := time.Parse(time.RFC3339, req.RenewalDate)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("invalid renewal date: %w", err)
	}
	sub := models.Subscription{
		OwnerUID:     ownerUID,
		ServiceName:  req.ServiceName,
		Cost:         req.Cost,
		BillingCycle: req.BillingCycle,
		RenewalDate:  renewalDate.UTC(),
		Visibility:   req.Visibility,
	}
	if sub.Visibility == "" {
		sub.Visibility = "private"
	}
	if req.Notes != "" {
		notes := req.Notes
		sub.Notes = &notes
	}
	return sub, nil
}

// Create создает новую подписку для пользователя, кеширует её и возвращает ID.
func (s *SubscriptionService) Create(ctx context.Context, ownerUID string, req models.DummySubscription) (int, error) {
	sub, err := buildSubscription(ownerUID, req)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return 0, err
	}
	s.log.Info("created new subscription", slog.Int("id", id))

	sub.ID = id
	if err := s.cache.Set(cacheKey(id), sub, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey(id)), slog.Any("err", err))
	}
	return id, nil
}

// Read возвращает подписку по ID, используя кеш или репозиторий.
// Чужая подписка недоступна даже администратору.
func (s *SubscriptionService) Read(ctx context.Context, id int, requesterUID string, isAdmin bool) (*models.Subscription, error) {
	var result *models.Subscription
	found, err := s.cache.Get(cacheKey(id), &result)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", cacheKey(id)), slog.Any("err", err))
		found = false
	}
	if !found {
		result, err = s.repo.ReadSubscription(ctx, id)
		if err != nil {
			return nil, err
		}
		if result == nil {
			return nil, ErrNotFound
		}
		if err := s.cache.Set(cacheKey(id), result, time.Hour); err != nil {
			s.log.Warn("failed to add to cache", slog.String("key", cacheKey(id)), slog.Any("err", err))
		}
	}
	if result.OwnerUID != requesterUID && !isAdmin {
		return nil, ErrForbidden
	}
	return result, nil
}

// Update обновляет подписку пользователя и обновляет кеш.
func (s *SubscriptionService) Update(ctx context.Context, id int, requesterUID string, req models.DummySubscription) (int, error) {
	existing, err := s.repo.ReadSubscription(ctx, id)
	if err != nil {
		return 0, err
	}
	if existing == nil {
		return 0, ErrNotFound
	}
	if existing.OwnerUID != requesterUID {
		return 0, ErrForbidden
	}

	sub, err := buildSubscription(requesterUID, req)
	if err != nil {
		return 0, err
	}

	count, err := s.repo.UpdateSubscription(ctx, sub, id)
	if err != nil {
		return 0, err
	}

	sub.ID = id
	if err := s.cache.Set(cacheKey(id), sub, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey(id)), slog.Any("err", err))
	}
	return count, nil
}

// Remove удаляет подписку пользователя по ID и инвалидирует кеш.
func (s *SubscriptionService) Remove(ctx context.Context, id int, requesterUID string) (int, error) {
	existing, err := s.repo.ReadSubscription(ctx, id)
	if err != nil {
		return 0, err
	}
	if existing == nil {
		return 0, ErrNotFound
	}
	if existing.OwnerUID != requesterUID {
		return 0, ErrForbidden
	}

	if err := s.cache.Invalidate(cacheKey(id)); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", cacheKey(id)), slog.Any("err", err))
	}
	return s.repo.RemoveSubscription(ctx, id)
}

// List возвращает подписки: администратор видит все, пользователь — только свои.
func (s *SubscriptionService) List(ctx context.Context, requesterUID string, isAdmin bool, limit, offset int) ([]*models.Subscription, error) {
	if isAdmin {
		return s.repo.ListAllSubscriptions(ctx, limit, offset)
	}
	return s.repo.ListSubscriptionsByOwner(ctx, requesterUID, limit, offset)
}

// Upcoming возвращает подписки пользователя, продлевающиеся в ближайшие days дней.
func (s *SubscriptionService) Upcoming(ctx context.Context, requesterUID string, days, limit, offset int) ([]*models.Subscription, error) {
	now := time.Now().UTC()
	return s.repo.ListUpcomingSubscriptions(ctx, requesterUID, now, now.AddDate(0, 0, days), limit, offset)
}
