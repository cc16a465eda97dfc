package notification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListNotificationsByUser(ctx context.Context, userUID string, limit int) ([]*models.Notification, error) {
	args := m.Called(ctx, userUID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Notification), args.Error(1)
}

func (m *MockRepository) MarkNotificationRead(ctx context.Context, id int, userUID string) (int, error) {
	args := m.Called(ctx, id, userUID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) CountUnreadNotifications(ctx context.Context, userUID string) (int, error) {
	args := m.Called(ctx, userUID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) DeleteNotificationsOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestNotificationService_List(t *testing.T) {
	repo := new(MockRepository)
	cache := new(MockCache)
	service := NewNotificationService(repo, cache, newNoopLogger())

	notifications := []*models.Notification{
		{ID: 2, UserUID: "uid-1", Message: "Netflix renews in 1 day(s) - $15.99"},
		{ID: 1, UserUID: "uid-1", Message: "Spotify renews in 3 day(s) - $9.99"},
	}
	repo.On("ListNotificationsByUser", mock.Anything, "uid-1", 50).Return(notifications, nil).Once()

	got, err := service.List(context.Background(), "uid-1", 50)
	require.NoError(t, err)
	assert.Equal(t, notifications, got)

	repo.AssertExpectations(t)
}

func TestNotificationService_MarkRead(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*MockRepository, *MockCache)
		wantErr    error
	}{
		{
			name: "success",
			setupMocks: func(r *MockRepository, c *MockCache) {
				r.On("MarkNotificationRead", mock.Anything, 5, "uid-1").Return(1, nil).Once()
				c.On("Invalidate", "notifications:unread:uid-1").Return(nil).Once()
			},
		},
		{
			name: "foreign or missing notification",
			setupMocks: func(r *MockRepository, _ *MockCache) {
				r.On("MarkNotificationRead", mock.Anything, 5, "uid-1").Return(0, nil).Once()
			},
			wantErr: ErrNotFound,
		},
		{
			name: "cache error does not fail the call",
			setupMocks: func(r *MockRepository, c *MockCache) {
				r.On("MarkNotificationRead", mock.Anything, 5, "uid-1").Return(1, nil).Once()
				c.On("Invalidate", "notifications:unread:uid-1").Return(errors.New("cache error")).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			cache := new(MockCache)
			service := NewNotificationService(repo, cache, newNoopLogger())
			tt.setupMocks(repo, cache)

			err := service.MarkRead(context.Background(), 5, "uid-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestNotificationService_UnreadCount(t *testing.T) {
	t.Run("cache miss goes to repository", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		service := NewNotificationService(repo, cache, newNoopLogger())

		cache.On("Get", "notifications:unread:uid-1", mock.Anything).Return(false, nil).Once()
		repo.On("CountUnreadNotifications", mock.Anything, "uid-1").Return(3, nil).Once()
		cache.On("Set", "notifications:unread:uid-1", 3, time.Minute).Return(nil).Once()

		count, err := service.UnreadCount(context.Background(), "uid-1")
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("cache hit skips repository", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		service := NewNotificationService(repo, cache, newNoopLogger())

		cache.On("Get", "notifications:unread:uid-1", mock.Anything).Return(true, nil).Once()

		_, err := service.UnreadCount(context.Background(), "uid-1")
		require.NoError(t, err)

		repo.AssertNotCalled(t, "CountUnreadNotifications", mock.Anything, mock.Anything)
		cache.AssertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		service := NewNotificationService(repo, cache, newNoopLogger())

		cache.On("Get", "notifications:unread:uid-1", mock.Anything).Return(false, nil).Once()
		repo.On("CountUnreadNotifications", mock.Anything, "uid-1").Return(0, errors.New("db error")).Once()

		_, err := service.UnreadCount(context.Background(), "uid-1")
		require.Error(t, err)

		repo.AssertExpectations(t)
	})
}

func TestNotificationService_PurgeOlderThan(t *testing.T) {
	repo := new(MockRepository)
	cache := new(MockCache)
	service := NewNotificationService(repo, cache, newNoopLogger())

	repo.On("DeleteNotificationsOlderThan", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		expected := time.Now().UTC().AddDate(0, 0, -30)
		return cutoff.Sub(expected).Abs() < time.Minute
	})).Return(12, nil).Once()

	deleted, err := service.PurgeOlderThan(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 12, deleted)

	repo.AssertExpectations(t)
}
