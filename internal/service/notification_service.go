package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/notify"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// NotificationService sends customer confirmations for domain events.
// Delivery problems are logged and counted; they never fail the caller.
type NotificationService struct {
	dispatcher events.Dispatcher
	complaints repository.ComplaintRepository
	records    repository.NotificationRepository
	sms        notify.SMSSender
	email      notify.EmailSender
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
	timeout    time.Duration
}

const defaultDeliveryTimeout = 10 * time.Second

// NotificationDependencies bundles collaborators. Email may be nil when no
// relay is configured.
type NotificationDependencies struct {
	Dispatcher       events.Dispatcher
	ComplaintRepo    repository.ComplaintRepository
	NotificationRepo repository.NotificationRepository
	SMS              notify.SMSSender
	Email            notify.EmailSender
	Metrics          *observability.Metrics
	Logger           *zap.Logger
	Clock            func() time.Time
	DeliveryTimeout  time.Duration
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = systemClock
	}
	timeout := deps.DeliveryTimeout
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		complaints: deps.ComplaintRepo,
		records:    deps.NotificationRepo,
		sms:        deps.SMS,
		email:      deps.Email,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        clock,
		timeout:    timeout,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventComplaintCreated, n.handleComplaintCreated)
	n.dispatcher.Subscribe(events.EventComplaintStatusChanged, n.logEvent)
	n.dispatcher.Subscribe(events.EventComplaintAssigned, n.logEvent)
	n.dispatcher.Subscribe(events.EventPaymentStatusChanged, n.logEvent)
}

func (n *NotificationService) handleComplaintCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.sendSMS(ctx, event.ComplaintID, payload)
	n.sendEmail(ctx, event.ComplaintID, payload)
	return nil
}

func (n *NotificationService) sendSMS(ctx context.Context, complaintID string, payload events.ComplaintCreatedPayload) {
	if n.sms == nil {
		return
	}
	message := notify.ComplaintRegisteredSMS(payload.TicketNumber)
	err := n.within(ctx, func(ctx context.Context) error {
		return n.sms.SendSMS(ctx, payload.MobileNumber, message)
	})
	if err != nil {
		n.metrics.Notification("sms", false)
		n.logger.Warn("sms confirmation failed",
			zap.String("complaint_id", complaintID),
			zap.String("ticket_number", payload.TicketNumber),
			zap.Error(err))
		return
	}
	n.metrics.Notification("sms", true)

	if n.records != nil {
		record := &domain.NotificationRecord{
			MobileNumber: payload.MobileNumber,
			Message:      message,
			SentAt:       n.now(),
		}
		if err := n.records.Create(ctx, record); err != nil {
			n.logger.Warn("store sms log failed", zap.String("complaint_id", complaintID), zap.Error(err))
		}
	}
	if n.complaints != nil {
		if err := n.complaints.UpdateSMSLog(ctx, complaintID, message); err != nil {
			n.logger.Warn("update complaint sms log failed", zap.String("complaint_id", complaintID), zap.Error(err))
		}
	}
}

func (n *NotificationService) sendEmail(ctx context.Context, complaintID string, payload events.ComplaintCreatedPayload) {
	if n.email == nil || payload.Email == nil || *payload.Email == "" {
		return
	}
	msg, err := notify.ComplaintRegisteredEmail(*payload.Email, payload.CustomerName, payload.TicketNumber)
	if err != nil {
		n.metrics.Notification("email", false)
		n.logger.Warn("render confirmation email failed", zap.String("complaint_id", complaintID), zap.Error(err))
		return
	}
	err = n.within(ctx, func(ctx context.Context) error {
		return n.email.SendEmail(ctx, msg)
	})
	if err != nil {
		n.metrics.Notification("email", false)
		n.logger.Warn("email confirmation failed",
			zap.String("complaint_id", complaintID),
			zap.String("ticket_number", payload.TicketNumber),
			zap.Error(err))
		return
	}
	n.metrics.Notification("email", true)
}

// within runs send under the delivery deadline and stops waiting once it
// passes. A sender that ignores its context finishes in the background.
func (n *NotificationService) within(ctx context.Context, send func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- send(ctx) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *NotificationService) logEvent(_ context.Context, event events.Event) error {
	n.logger.Debug("complaint event",
		zap.String("event_type", string(event.Type)),
		zap.String("complaint_id", event.ComplaintID),
		zap.Any("payload", event.Payload))
	return nil
}
