package models

import "time"

// Subscription представляет собой основную модель подписки,
// используемую в бизнес-логике и хранилище.
// RenewalDate — дата следующего продления; LastNotified может быть nil —
// это означает, что напоминание по текущему окну продления ещё не отправлялось.
type Subscription struct {
	ID           int        // Идентификатор подписки
	OwnerUID     string     // Идентификатор пользователя-владельца
	ServiceName  string     // Название сервиса подписки
	Cost         float64    // Стоимость за период
	BillingCycle string     // Период оплаты: monthly, yearly, quarterly, weekly
	RenewalDate  time.Time  // Дата следующего продления
	Notes        *string    // Произвольные заметки
	Visibility   string     // Видимость: private, shared, public
	LastNotified *time.Time // Когда в последний раз отправлялось напоминание
	CreatedAt    time.Time  // Дата создания записи
}

// DummySubscription используется для приёма данных подписки из JSON-запроса,
// прежде чем конвертировать их в Subscription.
// Дата продления приходит строкой, чтобы её можно было валидировать и парсить вручную.
type DummySubscription struct {
	ServiceName  string  `json:"service_name" validate:"required"`                                  // Название сервиса
	Cost         float64 `json:"cost" validate:"gte=0"`                                             // Стоимость (>=0)
	BillingCycle string  `json:"billing_cycle" validate:"required,oneof=monthly yearly quarterly weekly"` // Период оплаты
	RenewalDate  string  `json:"renewal_date" validate:"required"`                                  // Дата продления в формате RFC3339
	Notes        string  `json:"notes,omitempty" validate:"omitempty,max=1000"`                     // Заметки (опционально)
	Visibility   string  `json:"visibility,omitempty" validate:"omitempty,oneof=private shared public"` // Видимость
}
