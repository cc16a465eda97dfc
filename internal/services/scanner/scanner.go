// Package scanner реализует периодическое сканирование подписок
// и создание напоминаний о предстоящих продлениях.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// Store описывает операции хранилища, необходимые сканеру.
type Store interface {
	ListAllUsers(ctx context.Context) ([]*models.User, error)
	FindDueSubscriptions(ctx context.Context, ownerUID string, start, end, scanDayStart time.Time) ([]*models.Subscription, error)
	MarkNotified(ctx context.Context, subscriptionID int, notifiedAt, scanDayStart time.Time) (int, error)
	CreateNotification(ctx context.Context, notification models.Notification) (int, error)
}

// Dispatcher отправляет письмо, возвращая успех отправки.
type Dispatcher interface {
	Dispatch(address, subject, body string) bool
}

// ScanService выполняет проход по всем пользователям и их подпискам,
// создавая уведомления о продлениях, попадающих в окна напоминаний.
type ScanService struct {
	store      Store
	dispatcher Dispatcher
	log        *slog.Logger

	now func() time.Time
}

// NewScanService создает сервис сканирования.
func NewScanService(store Store, dispatcher Dispatcher, log *slog.Logger) *ScanService {
	return &ScanService{
		store:      store,
		dispatcher: dispatcher,
		log:        log,
		now:        time.Now,
	}
}

// RunRenewalScan выполняет один полный проход сканирования.
// Момент времени фиксируется один раз на весь проход, чтобы окна
// напоминаний были одинаковыми для всех пользователей.
func (s *ScanService) RunRenewalScan(ctx context.Context) error {
	const op = "services.scanner.RunRenewalScan"

	runID := uuid.New().String()
	now := s.now().UTC()
	// Начало суток прохода служит границей дедупликации: маркер,
	// выставленный сегодня, блокирует повторное уведомление до завтра.
	scanDayStart := startOfDay(now)
	log := s.log.With(slog.String("op", op), slog.String("run_id", runID))

	scanRunsTotal.Inc()
	log.Info("renewal scan started", slog.Time("now", now))

	users, err := s.store.ListAllUsers(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var created int
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		created += s.scanUser(ctx, log, user, now, scanDayStart)
	}

	log.Info("renewal scan finished",
		slog.Int("users", len(users)),
		slog.Int("notifications created", created))
	return nil
}

// scanUser обрабатывает одного пользователя по всем его смещениям напоминаний.
// Ошибки отдельных подписок изолируются: сбой одной не прерывает проход.
func (s *ScanService) scanUser(ctx context.Context, log *slog.Logger, user *models.User, now, scanDayStart time.Time) int {
	var created int
	for _, offset := range user.Preferences.Offsets() {
		dayStart := startOfDay(now.AddDate(0, 0, offset))
		dayEnd := dayStart.Add(24 * time.Hour)

		subs, err := s.store.FindDueSubscriptions(ctx, user.UID, dayStart, dayEnd, scanDayStart)
		if err != nil {
			itemErrorsTotal.Inc()
			log.Error("failed to find due subscriptions", sl.Err(err),
				slog.String("user_uid", user.UID), slog.Int("offset", offset))
			continue
		}

		for _, sub := range subs {
			if s.notify(ctx, log, user, sub, offset, now, scanDayStart) {
				created++
			}
		}
	}
	return created
}

// notify помечает подписку и создает уведомление. Условное обновление
// маркера last_notified служит точкой фиксации: уведомление создается
// только если маркер действительно сдвинулся. Маркер сравнивается с началом
// суток прохода, поэтому повторный проход в тот же день не создаст дубликат,
// а проход на следующий день, когда подписка попадает в другое окно
// напоминания, пометит её заново.
func (s *ScanService) notify(ctx context.Context, log *slog.Logger, user *models.User,
	sub *models.Subscription, offset int, now, scanDayStart time.Time) bool {
	marked, err := s.store.MarkNotified(ctx, sub.ID, now, scanDayStart)
	if err != nil {
		itemErrorsTotal.Inc()
		log.Error("failed to mark subscription as notified", sl.Err(err),
			slog.Int("subscription_id", sub.ID))
		return false
	}
	if marked == 0 {
		return false
	}

	message := fmt.Sprintf("%s renews in %d day(s) - $%.2f", sub.ServiceName, offset, sub.Cost)
	notification := models.Notification{
		UserUID:        user.UID,
		SubscriptionID: &sub.ID,
		Message:        message,
		Type:           models.TypeRenewalReminder,
	}
	if _, err := s.store.CreateNotification(ctx, notification); err != nil {
		itemErrorsTotal.Inc()
		log.Error("failed to create notification", sl.Err(err),
			slog.Int("subscription_id", sub.ID))
		return false
	}
	notificationsCreatedTotal.Inc()

	if user.Preferences.EmailEnabled {
		subject := fmt.Sprintf("Subscription Renewal Reminder - %d day(s)", offset)
		if !s.dispatcher.Dispatch(user.Email, subject, message) {
			dispatchFailuresTotal.Inc()
			log.Warn("failed to dispatch reminder email",
				slog.String("user_uid", user.UID),
				slog.Int("subscription_id", sub.ID))
		}
	}
	return true
}

// Run запускает сканирование сразу и затем по тикеру, пока контекст жив.
func (s *ScanService) Run(ctx context.Context, interval time.Duration) {
	const op = "services.scanner.Run"

	if err := s.RunRenewalScan(ctx); err != nil {
		s.log.Error("renewal scan failed", slog.String("op", op), sl.Err(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunRenewalScan(ctx); err != nil {
				s.log.Error("renewal scan failed", slog.String("op", op), sl.Err(err))
			}
		}
	}
}

// startOfDay возвращает полночь UTC для переданного момента.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
