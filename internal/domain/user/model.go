package user

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// Identity - представление пользователя в ответах auth-эндпоинтов.
// Token выдается сервером и дальше сопровождает каждый запрос клиента.
type Identity struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	Token   string `json:"token,omitempty"`
}
