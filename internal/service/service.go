package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is a slice of results plus the unpaginated total.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := dispatcher.Publish(ctx, event); err != nil && logger != nil {
		logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func accountActor(account *domain.StaffAccount) events.Actor {
	if account == nil {
		return events.Actor{Role: domain.RoleCustomer}
	}
	id := account.ID
	return events.Actor{AccountID: &id, Role: account.Role}
}

func isNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// notFoundAs rewrites a missing-row error into a typed not-found error.
func notFoundAs(err error, resource string) error {
	if isNotFound(err) {
		return apperrors.NewNotFound(resource, nil)
	}
	return err
}

func requireRole(actor *domain.StaffAccount, allowed ...domain.Role) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	for _, role := range allowed {
		if actor.Role == role {
			return nil
		}
	}
	return apperrors.NewForbidden("access denied")
}

func systemClock() time.Time {
	return time.Now().UTC()
}
