// Package rabbitmq содержит подключение к RabbitMQ, настройку очередей
// уведомлений и публикацию/потребление сообщений.
package rabbitmq

// QueueConfig описывает очередь и её ключ маршрутизации
// в exchange "notifications".
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает список очередей почтовых уведомлений.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications.subscription_confirmed", RoutingKey: "subscription_confirmed"},
		{QueueName: "notifications.member_status", RoutingKey: "member_status"},
		{QueueName: "notifications.subscription_expired", RoutingKey: "subscription_expired"},
	}
}
