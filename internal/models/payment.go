package models

import "time"

// Способы оплаты.
const (
	PaymentMethodCash         = "cash"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCard         = "card"
	PaymentMethodCheck        = "check"
	PaymentMethodOther        = "other"

	PaymentStatusCompleted = "completed"
)

// Payment представляет запись об оплате членства. Запись неизменна
// после создания: путь обновления не предусмотрен.
type Payment struct {
	ID             int
	UserID         int
	SubscriptionID *int // Может быть nil для платежей вне подписки
	Amount         float64
	PaymentMethod  string // cash, bank_transfer, card, check, other
	PaymentStatus  string
	PaymentDate    time.Time
	Notes          string
	CreatedAt      time.Time
}
