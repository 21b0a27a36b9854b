package domain

import "time"

// NotificationRecord logs a message sent to a phone number. Append-only.
type NotificationRecord struct {
	ID           string
	MobileNumber string
	Message      string
	SentAt       time.Time
}
