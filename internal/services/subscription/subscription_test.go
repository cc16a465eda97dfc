package subscription

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

func (m *MockRepository) CreateSubscription(ctx context.Context, sub models.Subscription) (int, error) {
	args := m.Called(ctx, sub)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ReadSubscription(ctx context.Context, id int) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockRepository) UpdateSubscription(ctx context.Context, sub models.Subscription, id int) (int, error) {
	args := m.Called(ctx, sub, id)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) RemoveSubscription(ctx context.Context, id int) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ListSubscriptionsByOwner(ctx context.Context, ownerUID string, limit, offset int) ([]*models.Subscription, error) {
	args := m.Called(ctx, ownerUID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockRepository) ListAllSubscriptions(ctx context.Context, limit, offset int) ([]*models.Subscription, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockRepository) ListUpcomingSubscriptions(ctx context.Context, ownerUID string, from, until time.Time, limit, offset int) ([]*models.Subscription, error) {
	args := m.Called(ctx, ownerUID, from, until, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
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

func validRequest() models.DummySubscription {
	return models.DummySubscription{
		ServiceName:  "Netflix",
		Cost:         15.99,
		BillingCycle: "monthly",
		RenewalDate:  "2025-04-01T00:00:00Z",
	}
}

func TestSubscriptionService_Create(t *testing.T) {
	tests := []struct {
		name       string
		req        models.DummySubscription
		setupMocks func(*MockRepository, *MockCache)
		wantID     int
		wantErr    bool
	}{
		{
			name: "success",
			req:  validRequest(),
			setupMocks: func(r *MockRepository, c *MockCache) {
				r.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(s models.Subscription) bool {
					return s.OwnerUID == "uid-1" &&
						s.ServiceName == "Netflix" &&
						s.Visibility == "private" &&
						s.RenewalDate.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
				})).Return(7, nil).Once()
				c.On("Set", "subscription:7", mock.AnythingOfType("models.Subscription"), time.Hour).Return(nil).Once()
			},
			wantID: 7,
		},
		{
			name: "invalid renewal date",
			req: models.DummySubscription{
				ServiceName:  "Netflix",
				Cost:         15.99,
				BillingCycle: "monthly",
				RenewalDate:  "01-04-2025",
			},
			setupMocks: func(_ *MockRepository, _ *MockCache) {},
			wantErr:    true,
		},
		{
			name: "repository error",
			req:  validRequest(),
			setupMocks: func(r *MockRepository, _ *MockCache) {
				r.On("CreateSubscription", mock.Anything, mock.AnythingOfType("models.Subscription")).
					Return(0, errors.New("db error")).Once()
			},
			wantErr: true,
		},
		{
			name: "cache error does not fail create",
			req:  validRequest(),
			setupMocks: func(r *MockRepository, c *MockCache) {
				r.On("CreateSubscription", mock.Anything, mock.AnythingOfType("models.Subscription")).Return(8, nil).Once()
				c.On("Set", "subscription:8", mock.AnythingOfType("models.Subscription"), time.Hour).
					Return(errors.New("cache error")).Once()
			},
			wantID: 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			cache := new(MockCache)
			service := NewSubscriptionService(repo, cache, newNoopLogger())
			tt.setupMocks(repo, cache)

			id, err := service.Create(context.Background(), "uid-1", tt.req)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}

			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_Read(t *testing.T) {
	sub := &models.Subscription{ID: 7, OwnerUID: "uid-1", ServiceName: "Netflix"}

	tests := []struct {
		name         string
		requesterUID string
		isAdmin      bool
		setupMocks   func(*MockRepository, *MockCache)
		wantErr      error
	}{
		{
			name:         "owner reads own subscription from repository",
			requesterUID: "uid-1",
			setupMocks: func(r *MockRepository, c *MockCache) {
				c.On("Get", "subscription:7", mock.Anything).Return(false, nil).Once()
				r.On("ReadSubscription", mock.Anything, 7).Return(sub, nil).Once()
				c.On("Set", "subscription:7", sub, time.Hour).Return(nil).Once()
			},
		},
		{
			name:         "admin reads foreign subscription",
			requesterUID: "admin-uid",
			isAdmin:      true,
			setupMocks: func(r *MockRepository, c *MockCache) {
				c.On("Get", "subscription:7", mock.Anything).Return(false, nil).Once()
				r.On("ReadSubscription", mock.Anything, 7).Return(sub, nil).Once()
				c.On("Set", "subscription:7", sub, time.Hour).Return(nil).Once()
			},
		},
		{
			name:         "foreign subscription is forbidden",
			requesterUID: "uid-2",
			setupMocks: func(r *MockRepository, c *MockCache) {
				c.On("Get", "subscription:7", mock.Anything).Return(false, nil).Once()
				r.On("ReadSubscription", mock.Anything, 7).Return(sub, nil).Once()
				c.On("Set", "subscription:7", sub, time.Hour).Return(nil).Once()
			},
			wantErr: ErrForbidden,
		},
		{
			name:         "missing subscription",
			requesterUID: "uid-1",
			setupMocks: func(r *MockRepository, c *MockCache) {
				c.On("Get", "subscription:7", mock.Anything).Return(false, nil).Once()
				r.On("ReadSubscription", mock.Anything, 7).Return(nil, nil).Once()
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			cache := new(MockCache)
			service := NewSubscriptionService(repo, cache, newNoopLogger())
			tt.setupMocks(repo, cache)

			got, err := service.Read(context.Background(), 7, tt.requesterUID, tt.isAdmin)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, sub, got)
			}

			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_Update(t *testing.T) {
	existing := &models.Subscription{ID: 7, OwnerUID: "uid-1", ServiceName: "Netflix"}

	t.Run("success", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		service := NewSubscriptionService(repo, cache, newNoopLogger())

		repo.On("ReadSubscription", mock.Anything, 7).Return(existing, nil).Once()
		repo.On("UpdateSubscription", mock.Anything, mock.AnythingOfType("models.Subscription"), 7).Return(1, nil).Once()
		cache.On("Set", "subscription:7", mock.AnythingOfType("models.Subscription"), time.Hour).Return(nil).Once()

		count, err := service.Update(context.Background(), 7, "uid-1", validRequest())
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("foreign subscription", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		service := NewSubscriptionService(repo, cache, newNoopLogger())

		repo.On("ReadSubscription", mock.Anything, 7).Return(existing, nil).Once()

		_, err := service.Update(context.Background(), 7, "uid-2", validRequest())
		require.ErrorIs(t, err, ErrForbidden)

		repo.AssertExpectations(t)
		repo.AssertNotCalled(t, "UpdateSubscription", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSubscriptionService_Remove(t *testing.T) {
	existing := &models.Subscription{ID: 7, OwnerUID: "uid-1", ServiceName: "Netflix"}

	t.Run("success", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		service := NewSubscriptionService(repo, cache, newNoopLogger())

		repo.On("ReadSubscription", mock.Anything, 7).Return(existing, nil).Once()
		cache.On("Invalidate", "subscription:7").Return(nil).Once()
		repo.On("RemoveSubscription", mock.Anything, 7).Return(1, nil).Once()

		count, err := service.Remove(context.Background(), 7, "uid-1")
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("missing subscription", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		service := NewSubscriptionService(repo, cache, newNoopLogger())

		repo.On("ReadSubscription", mock.Anything, 7).Return(nil, nil).Once()

		_, err := service.Remove(context.Background(), 7, "uid-1")
		require.ErrorIs(t, err, ErrNotFound)

		repo.AssertExpectations(t)
	})
}

func TestSubscriptionService_List(t *testing.T) {
	own := []*models.Subscription{{ID: 1, OwnerUID: "uid-1"}}
	all := []*models.Subscription{{ID: 1, OwnerUID: "uid-1"}, {ID: 2, OwnerUID: "uid-2"}}

	t.Run("user sees only own subscriptions", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		service := NewSubscriptionService(repo, cache, newNoopLogger())

		repo.On("ListSubscriptionsByOwner", mock.Anything, "uid-1", 10, 0).Return(own, nil).Once()

		got, err := service.List(context.Background(), "uid-1", false, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, own, got)

		repo.AssertExpectations(t)
	})

	t.Run("admin sees all subscriptions", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockCache)
		service := NewSubscriptionService(repo, cache, newNoopLogger())

		repo.On("ListAllSubscriptions", mock.Anything, 10, 0).Return(all, nil).Once()

		got, err := service.List(context.Background(), "admin-uid", true, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, all, got)

		repo.AssertExpectations(t)
	})
}

func TestSubscriptionService_Upcoming(t *testing.T) {
	repo := new(MockRepository)
	cache := new(MockCache)
	service := NewSubscriptionService(repo, cache, newNoopLogger())

	subs := []*models.Subscription{{ID: 1, OwnerUID: "uid-1"}}
	repo.On("ListUpcomingSubscriptions", mock.Anything, "uid-1",
		mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time"), 10, 0).
		Return(subs, nil).Once()

	got, err := service.Upcoming(context.Background(), "uid-1", 7, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, subs, got)

	repo.AssertExpectations(t)
}
