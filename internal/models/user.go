// Package models содержит доменные структуры реестра членов организации,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Роли и статусы учётной записи пользователя.
const (
	RoleUser       = "user"
	RoleSuperadmin = "superadmin"

	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"
)

// User представляет члена организации.
type User struct {
	ID           int        // Уникальный идентификатор
	Email        string     // Электронная почта (уникальная)
	PasswordHash string     // Хэш пароля
	FirstName    string     // Имя
	LastName     string     // Фамилия
	FathersName  string     // Отчество (в документах организации)
	Phone        string     // Телефон
	Address      string     // Адрес
	Role         string     // Роль: user или superadmin
	Status       string     // Статус заявки: pending, approved, denied
	MemberType   string     // Категория членства, свободная строка ("Τακτικό", "Regular" и т.п.)
	ApprovedAt   *time.Time // Дата одобрения заявки
	ApprovedBy   *int       // ID администратора, одобрившего заявку
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DummyMember используется для приёма данных JSON-запроса на создание
// члена администратором. Пароль опционален: если он пуст, сервис
// сгенерирует временный пароль и вернёт его в ответе.
type DummyMember struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password,omitempty"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	FathersName string `json:"fathers_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	MemberType  string `json:"member_type" validate:"required"`
	SendWelcome bool   `json:"send_welcome_email,omitempty"`
}

// DummyMemberUpdate используется для приёма данных JSON-запроса
// на обновление данных члена.
type DummyMemberUpdate struct {
	Email       string `json:"email" validate:"required,email"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	FathersName string `json:"fathers_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	MemberType  string `json:"member_type" validate:"required"`
}
