// Package renewalscheduler собирает и запускает процесс планировщика напоминаний.
//
// Планировщик выполняет периодические проходы сканирования продлений,
// чистит устаревшие уведомления и принимает из RabbitMQ запросы
// на внеочередное сканирование от API.
package renewalscheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-manager/internal/cache"
	"github.com/magabrotheeeer/subscription-manager/internal/config"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/smtp"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
	"github.com/magabrotheeeer/subscription-manager/internal/rabbitmq"
	dispatchservice "github.com/magabrotheeeer/subscription-manager/internal/services/dispatch"
	notificationservice "github.com/magabrotheeeer/subscription-manager/internal/services/notification"
	scannerservice "github.com/magabrotheeeer/subscription-manager/internal/services/scanner"
	"github.com/magabrotheeeer/subscription-manager/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	scanService         *scannerservice.ScanService
	notificationService *notificationservice.NotificationService
	cfg                 *config.Config
	conn                *amqp.Connection
	ch                  *amqp.Channel
	db                  *repository.Storage
	logger              *slog.Logger
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		if err := repository.CheckDatabaseReady(db); err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetScanQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	transport := smtp.NewTransport(cfg.SMTPConnection, logger)
	dispatcher := dispatchservice.NewEmailDispatcher(transport, logger)
	scanService := scannerservice.NewScanService(db, dispatcher, logger)
	notificationService := notificationservice.NewNotificationService(db, cacheRedis, logger)

	return &App{
		scanService:         scanService,
		notificationService: notificationService,
		cfg:                 cfg,
		conn:                conn,
		ch:                  ch,
		db:                  db,
		logger:              logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", slog.Any("err", err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", slog.Any("err", err))
		}
	}
}

// Run запускает периодическое сканирование, чистку уведомлений
// и потребление запросов на внеочередное сканирование.
func (a *App) Run(ctx context.Context) error {
	go a.scanService.Run(ctx, a.cfg.ScanInterval)
	go a.notificationService.RunRetention(ctx, a.cfg.RetentionInterval, a.cfg.RetentionDays)

	err := rabbitmq.Consume(ctx, a.ch, rabbitmq.ScanRequestQueue, a.logger, func(body []byte) error {
		var req models.ScanRequest
		if err := json.Unmarshal(body, &req); err != nil {
			a.logger.Error("failed to decode scan request", sl.Err(err))
			return err
		}
		a.logger.Info("on-demand scan requested",
			slog.String("scan_request_id", req.RequestID),
			slog.String("requested_by", req.RequestedBy))
		return a.scanService.RunRenewalScan(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to start scan request consumer: %w", err)
	}

	<-ctx.Done()

	a.logger.Info("shutting down renewal scheduler")
	closeResources(a.ch, a.conn, a.logger)
	_ = a.db.DB.Close()
	return nil
}
