package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
)

// maxInflight ограничивает число одновременно обрабатываемых сообщений.
const maxInflight = 10

// Consume подписывается на очередь и передает тело каждого сообщения
// в handle. Используется планировщиком для приёма запросов на внеплановое
// сканирование. Ошибка обработчика возвращает сообщение в очередь (nack
// с requeue), успешная обработка подтверждается ack. Подписка живет до
// отмены контекста или закрытия канала.
func Consume(ctx context.Context, ch *amqp.Channel, queueName string, log *slog.Logger, handle func([]byte) error) error {
	const op = "rabbitmq.Consume"

	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	slots := make(chan struct{}, maxInflight)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					log.Info("delivery channel closed, stopping consumer",
						slog.String("queue", queueName))
					return
				}
				slots <- struct{}{}
				go func(d amqp.Delivery) {
					defer func() { <-slots }()
					if err := handle(d.Body); err != nil {
						log.Error("message handling failed, requeueing", sl.Err(err),
							slog.String("queue", queueName))
						if err := d.Nack(false, true); err != nil {
							log.Error("failed to nack message", sl.Err(err))
						}
						return
					}
					if err := d.Ack(false); err != nil {
						log.Error("failed to ack message", sl.Err(err))
					}
				}(d)
			}
		}
	}()
	return nil
}
