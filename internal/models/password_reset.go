package models

import "time"

// PasswordReset представляет одноразовый код для сброса пароля.
// Для одного email в любой момент времени существует не более одной живой записи:
// выпуск нового кода удаляет предыдущий.
type PasswordReset struct {
	ID        int       // Идентификатор записи
	Email     string    // Электронная почта, к которой привязан код
	Code      string    // Одноразовый числовой код фиксированной длины
	ExpiresAt time.Time // Момент истечения кода
	CreatedAt time.Time // Момент выпуска кода
}
