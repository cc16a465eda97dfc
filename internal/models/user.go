// Package models содержит доменные структуры сервиса: пользователи,
// подписки, уведомления и запросы на сброс пароля.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// DefaultReminderOffsets смещения напоминаний по умолчанию (в днях до продления),
// применяются, если пользователь не настроил собственные.
var DefaultReminderOffsets = []int{1, 3, 7}

// NotificationPreferences настройки уведомлений пользователя.
type NotificationPreferences struct {
	EmailEnabled    bool  `json:"email_enabled"`    // Отправлять ли письма
	BrowserEnabled  bool  `json:"browser_enabled"`  // Показывать ли уведомления в интерфейсе
	ReminderOffsets []int `json:"reminder_offsets"` // За сколько дней до продления напоминать
}

// Offsets возвращает настроенные смещения напоминаний
// или DefaultReminderOffsets, если пользователь их не задал.
func (p NotificationPreferences) Offsets() []int {
	if len(p.ReminderOffsets) == 0 {
		return DefaultReminderOffsets
	}
	return p.ReminderOffsets
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID          string                  // Уникальный идентификатор пользователя
	Email        string                  // Электронная почта (уникальная)
	PasswordHash string                  // Хэш пароля пользователя
	IsAdmin      bool                    // Признак администратора
	Preferences  NotificationPreferences // Настройки уведомлений
	CreatedAt    time.Time               // Дата регистрации
}

// DummyPreferences используется для приёма настроек уведомлений из JSON-запроса.
type DummyPreferences struct {
	EmailEnabled    bool  `json:"email_enabled"`
	BrowserEnabled  bool  `json:"browser_enabled"`
	ReminderOffsets []int `json:"reminder_offsets" validate:"omitempty,dive,gt=0"`
}
