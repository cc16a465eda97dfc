package models

import "time"

// ScanRequest сообщение о запросе внепланового запуска сканирования продлений.
// Публикуется API-сервисом в RabbitMQ и потребляется планировщиком.
type ScanRequest struct {
	RequestID   string    `json:"request_id"`   // Идентификатор запроса
	RequestedBy string    `json:"requested_by"` // Email администратора, запросившего запуск
	RequestedAt time.Time `json:"requested_at"` // Момент запроса
}
