package models

import "time"

// Типы действий, записываемых в журнал. Набор открытый: хранилище не
// навязывает enum, новые типы добавляются без миграций. Список ниже —
// документированный перечень типов, которые пишет само приложение.
const (
	ActionRegistration       = "registration"
	ActionApproval           = "approval"
	ActionDenial             = "denial"
	ActionLogin              = "login"
	ActionPayment            = "payment"
	ActionSubscriptionChange = "subscription_change"
	ActionSubscriptionCreate = "subscription_create"
	ActionSubscriptionUpdate = "subscription_update"
	ActionManualUpgrade      = "manual_upgrade"
	ActionAutoConversion     = "auto_conversion"
	ActionMemberUpdate       = "member_update"
	ActionMemberDeletion     = "member_deletion"
	ActionMemberCreation     = "member_creation"
)

// Action представляет одну запись журнала действий. Записи только
// добавляются и никогда не изменяются.
type Action struct {
	ID          int
	UserID      int            // Пользователь, к которому относится действие
	ActionType  string         // Тип действия, см. константы выше
	Description string         // Человекочитаемое описание
	PerformedBy *int           // ID инициатора; nil — действие системы
	Metadata    map[string]any // Произвольные структурированные данные
	IPAddress   *string
	CreatedAt   time.Time
}

// ActionFilter задаёт условия выборки журнала действий.
type ActionFilter struct {
	UserID     *int
	ActionType *string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
