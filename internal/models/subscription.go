package models

import "time"

// Статусы подписки.
const (
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

// Subscription представляет оплаченный период членства.
// MemberType фиксируется на момент создания и не зависит от
// текущего User.MemberType. EndDate всегда равна StartDate плюс
// DurationMonths календарных месяцев.
type Subscription struct {
	ID             int
	UserID         int
	MemberType     string
	DurationMonths int
	Price          float64
	StartDate      time.Time
	EndDate        time.Time
	Status         string // active, expired или cancelled
	AutoRenew      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DummySubscription используется для приёма данных JSON-запроса на создание
// подписки. Дата начала приходит строкой в формате 02-01-2006.
type DummySubscription struct {
	UserID         int     `json:"user_id" validate:"required,gt=0"`
	MemberType     string  `json:"member_type" validate:"required"`
	DurationMonths int     `json:"duration_months" validate:"required,gt=0"`
	Price          float64 `json:"price" validate:"required,gt=0"`
	StartDate      string  `json:"start_date" validate:"required"`
}

// DummySubscriptionUpdate используется для приёма данных JSON-запроса
// на обновление подписки администратором.
type DummySubscriptionUpdate struct {
	MemberType     string  `json:"member_type" validate:"required"`
	DurationMonths int     `json:"duration_months" validate:"required,gt=0"`
	Price          float64 `json:"price" validate:"required,gt=0"`
	EndDate        string  `json:"end_date" validate:"required"`
	Status         string  `json:"status" validate:"required,oneof=active expired cancelled"`
}

// DummyUpgrade используется для приёма данных JSON-запроса на ручное
// продление членства администратором.
type DummyUpgrade struct {
	MemberType     string  `json:"member_type" validate:"required"`
	DurationMonths int     `json:"duration_months" validate:"required,gt=0"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod  string  `json:"payment_method,omitempty" validate:"omitempty,oneof=cash bank_transfer card check other"`
	Notes          string  `json:"notes,omitempty"`
}

// SubscriptionInfo агрегирует данные для письма-уведомления об истечении.
type SubscriptionInfo struct {
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	MemberType string    `json:"member_type"`
	EndDate    time.Time `json:"end_date"`
}
