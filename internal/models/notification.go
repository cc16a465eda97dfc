package models

import "time"

// TypeRenewalReminder тип уведомления о скором продлении подписки.
const TypeRenewalReminder = "renewal_reminder"

// Notification представляет запись уведомления пользователя.
// Запись создаётся планировщиком и считается отправленной с момента создания,
// независимо от результата доставки письма.
type Notification struct {
	ID             int       // Идентификатор уведомления
	UserUID        string    // Идентификатор пользователя-получателя
	SubscriptionID *int      // Идентификатор подписки; nil, если подписка уже удалена
	Message        string    // Текст уведомления
	Type           string    // Тип уведомления, например renewal_reminder
	IsRead         bool      // Прочитано ли уведомление
	CreatedAt      time.Time // Дата создания
}
