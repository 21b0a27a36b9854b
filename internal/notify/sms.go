// Package notify delivers customer-facing confirmation messages.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrInvalidRecipient is returned for recipients that cannot be messaged.
var ErrInvalidRecipient = errors.New("notify: invalid recipient")

// SMSSender delivers one text message.
type SMSSender interface {
	SendSMS(ctx context.Context, mobile, message string) error
}

// LogSMSSender stands in for a real gateway. It validates the recipient and
// writes the message to the log.
type LogSMSSender struct {
	senderID string
	logger   *zap.Logger
}

// NewLogSMSSender builds a logging sender.
func NewLogSMSSender(senderID string, logger *zap.Logger) *LogSMSSender {
	return &LogSMSSender{senderID: senderID, logger: logger}
}

// SendSMS implements SMSSender.
func (s *LogSMSSender) SendSMS(ctx context.Context, mobile, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return fmt.Errorf("%w: empty mobile number", ErrInvalidRecipient)
	}
	s.logger.Info("sms sent",
		zap.String("sender_id", s.senderID),
		zap.String("to", mobile),
		zap.String("message", message),
	)
	return nil
}

// ComplaintRegisteredSMS is the confirmation text for a new complaint.
func ComplaintRegisteredSMS(ticket string) string {
	return "Your complaint has been registered. Ticket No: " + ticket
}
