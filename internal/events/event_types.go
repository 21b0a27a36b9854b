package events

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated       EventType = "complaint_created"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
	EventComplaintAssigned      EventType = "complaint_assigned"
	EventPaymentStatusChanged   EventType = "payment_status_changed"
)

// AllEventTypes lists every event the services publish.
var AllEventTypes = []EventType{
	EventComplaintCreated,
	EventComplaintStatusChanged,
	EventComplaintAssigned,
	EventPaymentStatusChanged,
}

// Actor encapsulates actor metadata for an event. A nil AccountID means the
// complaint was submitted without logging in.
type Actor struct {
	AccountID *string     `json:"account_id,omitempty"`
	Role      domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	ComplaintID string    `json:"complaint_id"`
	Actor       Actor     `json:"actor"`
	Timestamp   time.Time `json:"timestamp"`
	Payload     any       `json:"payload"`
}

// ComplaintCreatedPayload carries what the confirmation messages need.
type ComplaintCreatedPayload struct {
	TicketNumber string  `json:"ticket_number"`
	CustomerName string  `json:"customer_name"`
	MobileNumber string  `json:"mobile_number"`
	Email        *string `json:"email,omitempty"`
	Channel      string  `json:"channel"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	OldStatus domain.ComplaintStatus `json:"old_status"`
	NewStatus domain.ComplaintStatus `json:"new_status"`
	Reason    string                 `json:"reason,omitempty"`
}

// ComplaintAssignedPayload payload.
type ComplaintAssignedPayload struct {
	OldEngineerID *string `json:"old_engineer_id,omitempty"`
	NewEngineerID *string `json:"new_engineer_id,omitempty"`
}

// PaymentStatusChangedPayload payload.
type PaymentStatusChangedPayload struct {
	OldStatus domain.PaymentStatus `json:"old_status"`
	NewStatus domain.PaymentStatus `json:"new_status"`
}
