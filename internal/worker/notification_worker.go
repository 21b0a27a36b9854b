// Package worker wires background consumers of domain events and the
// periodic sweep.
package worker

import (
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/service"
)

// StartNotificationWorker registers notification handlers and, when Kafka is
// configured, forwards every complaint event to the broker.
func StartNotificationWorker(dispatcher events.Dispatcher, notifications *service.NotificationService, forwarder *events.KafkaForwarder) {
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	forwarder.Attach(dispatcher, events.AllEventTypes...)
}
