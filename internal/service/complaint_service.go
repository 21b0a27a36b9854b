package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/lifecycle"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/ticketid"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// Channels a complaint can be submitted through.
const (
	ChannelPublic = "public"
	ChannelStaff  = "staff"
)

// ComplaintService coordinates complaint workflows.
type ComplaintService struct {
	complaints repository.ComplaintRepository
	products   repository.ProductRepository
	staff      repository.StaffRepository
	history    repository.ComplaintHistoryRepository
	tx         repository.TxManager
	tickets    *ticketid.Generator
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo     repository.ComplaintRepository
	ProductRepo       repository.ProductRepository
	StaffRepo         repository.StaffRepository
	HistoryRepo       repository.ComplaintHistoryRepository
	TxManager         repository.TxManager
	Dispatcher        events.Dispatcher
	Metrics           *observability.Metrics
	Logger            *zap.Logger
	TicketMaxAttempts int
	Clock             func() time.Time
}

// ComplaintCreateInput describes a complaint submission.
type ComplaintCreateInput struct {
	CustomerName string
	MobileNumber string
	Email        *string
	Address      domain.Address
	ProductID    *string
	IssueType    domain.IssueType
	Description  string
}

// ComplaintListInput describes listing filters. From and To are calendar
// days; To is inclusive.
type ComplaintListInput struct {
	Search         string
	Status         *domain.ComplaintStatus
	From           *time.Time
	To             *time.Time
	UnassignedOnly bool
	Limit          int
	Offset         int
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = systemClock
	}
	s := &ComplaintService{
		complaints: deps.ComplaintRepo,
		products:   deps.ProductRepo,
		staff:      deps.StaffRepo,
		history:    deps.HistoryRepo,
		tx:         deps.TxManager,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        clock,
	}
	s.tickets = ticketid.NewGenerator(deps.ComplaintRepo.TicketNumberExists, ticketid.WithMaxAttempts(deps.TicketMaxAttempts))
	return s
}

// Create registers a complaint. A nil actor means the customer submitted it
// without logging in.
func (s *ComplaintService) Create(ctx context.Context, actor *domain.StaffAccount, input ComplaintCreateInput) (*domain.Complaint, error) {
	complaint, err := s.buildComplaint(ctx, input)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		ticket, err := s.tickets.Next(ctx)
		if err != nil {
			return fmt.Errorf("allocate ticket number: %w", err)
		}
		complaint.TicketNumber = ticket
		return s.complaints.Create(ctx, complaint)
	})
	if err != nil {
		return nil, err
	}

	channel := ChannelPublic
	if actor != nil {
		channel = ChannelStaff
	}
	s.metrics.ComplaintCreated(channel)
	s.logger.Info("complaint registered",
		zap.String("complaint_id", complaint.ID),
		zap.String("ticket_number", complaint.TicketNumber),
		zap.String("channel", channel))
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:        events.EventComplaintCreated,
		ComplaintID: complaint.ID,
		Actor:       accountActor(actor),
		Timestamp:   complaint.CreatedAt,
		Payload: events.ComplaintCreatedPayload{
			TicketNumber: complaint.TicketNumber,
			CustomerName: complaint.CustomerName,
			MobileNumber: complaint.MobileNumber,
			Email:        complaint.Email,
			Channel:      channel,
		},
	})
	return complaint, nil
}

func (s *ComplaintService) buildComplaint(ctx context.Context, input ComplaintCreateInput) (*domain.Complaint, error) {
	issue := input.IssueType
	if issue == "" {
		issue = domain.IssueOther
	}
	if !issue.Valid() {
		return nil, apperrors.NewValidationError("invalid complaint", map[string]any{"issue_type": "unknown issue type"})
	}

	var productID *string
	if input.ProductID != nil && strings.TrimSpace(*input.ProductID) != "" {
		id := strings.TrimSpace(*input.ProductID)
		if _, err := s.products.GetByID(ctx, id); err != nil {
			if isNotFound(err) {
				return nil, apperrors.NewValidationError("invalid complaint", map[string]any{"product_id": "unknown product"})
			}
			return nil, err
		}
		productID = &id
	}

	var email *string
	if input.Email != nil && strings.TrimSpace(*input.Email) != "" {
		trimmed := strings.TrimSpace(*input.Email)
		email = &trimmed
	}

	now := s.now()
	return &domain.Complaint{
		CustomerName:  strings.TrimSpace(input.CustomerName),
		MobileNumber:  strings.TrimSpace(input.MobileNumber),
		Email:         email,
		Address:       input.Address,
		ProductID:     productID,
		IssueType:     issue,
		Description:   strings.TrimSpace(input.Description),
		Status:        domain.ComplaintStatusOpen,
		PaymentStatus: domain.PaymentStatusUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// List returns the complaints visible to the actor. Engineers only see
// complaints assigned to them.
func (s *ComplaintService) List(ctx context.Context, actor *domain.StaffAccount, input ComplaintListInput) (*Page[domain.Complaint], error) {
	filter, err := s.scopedFilter(actor, input)
	if err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = normalizePage(input.Limit, input.Offset)

	items, err := s.complaints.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.complaints.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Complaint{}
	}
	return &Page[domain.Complaint]{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// ListAll returns every complaint matching the filters, ignoring paging.
func (s *ComplaintService) ListAll(ctx context.Context, actor *domain.StaffAccount, input ComplaintListInput) ([]domain.Complaint, error) {
	filter, err := s.scopedFilter(actor, input)
	if err != nil {
		return nil, err
	}
	return s.complaints.List(ctx, filter)
}

func (s *ComplaintService) scopedFilter(actor *domain.StaffAccount, input ComplaintListInput) (repository.ComplaintFilter, error) {
	if actor == nil {
		return repository.ComplaintFilter{}, apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role == domain.RoleCustomer {
		return repository.ComplaintFilter{}, apperrors.NewForbidden("access denied")
	}

	filter := repository.ComplaintFilter{
		Search:     strings.TrimSpace(input.Search),
		Unassigned: input.UnassignedOnly,
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return filter, apperrors.NewValidationError("invalid filter", map[string]any{"status": "unknown status"})
		}
		filter.Statuses = []domain.ComplaintStatus{*input.Status}
	}
	if input.From != nil {
		from := startOfDay(*input.From)
		filter.CreatedFrom = &from
	}
	if input.To != nil {
		before := startOfDay(*input.To).AddDate(0, 0, 1)
		filter.CreatedBefore = &before
	}
	if actor.Role == domain.RoleEngineer {
		id := actor.ID
		filter.AssignedEngineerID = &id
	}
	return filter, nil
}

// Get returns a complaint and its audit trail.
func (s *ComplaintService) Get(ctx context.Context, actor *domain.StaffAccount, id string) (*domain.Complaint, []domain.ComplaintHistory, error) {
	if actor == nil {
		return nil, nil, apperrors.NewUnauthorized("authentication required")
	}
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, nil, notFoundAs(err, "complaint")
	}
	if !canView(actor, complaint) {
		return nil, nil, apperrors.NewForbidden("access denied")
	}
	var history []domain.ComplaintHistory
	if s.history != nil {
		history, err = s.history.ListByComplaint(ctx, complaint.ID)
		if err != nil {
			return nil, nil, err
		}
	}
	if history == nil {
		history = []domain.ComplaintHistory{}
	}
	return complaint, history, nil
}

// EditableFields reports which fields the actor may change on the complaint.
func (s *ComplaintService) EditableFields(ctx context.Context, actor *domain.StaffAccount, id string) (lifecycle.FieldSet, error) {
	complaint, _, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return lifecycle.EditableFields(actor.Role, complaint), nil
}

// StaffEdit is the general edit path for admins, managers and accountants.
// Each role gets its own field set and derivations.
func (s *ComplaintService) StaffEdit(ctx context.Context, actor *domain.StaffAccount, id string, edit lifecycle.Edit) (*domain.Complaint, error) {
	if err := requireRole(actor, domain.RoleAdmin, domain.RoleManager, domain.RoleAccountant); err != nil {
		return nil, err
	}
	return s.applyEdit(ctx, actor, id, edit, actor.Role, nil)
}

// ManagerEdit is the assignment path for service managers.
func (s *ComplaintService) ManagerEdit(ctx context.Context, actor *domain.StaffAccount, id string, edit lifecycle.Edit) (*domain.Complaint, error) {
	if err := requireRole(actor, domain.RoleManager); err != nil {
		return nil, err
	}
	return s.applyEdit(ctx, actor, id, edit, domain.RoleManager, nil)
}

// ServiceUpdate records field evidence. Admins may update any complaint;
// engineers only the ones assigned to them.
func (s *ComplaintService) ServiceUpdate(ctx context.Context, actor *domain.StaffAccount, id string, edit lifecycle.Edit) (*domain.Complaint, error) {
	if err := requireRole(actor, domain.RoleAdmin, domain.RoleEngineer); err != nil {
		return nil, err
	}
	return s.applyEdit(ctx, actor, id, edit, actor.Role, func(c *domain.Complaint) error {
		if actor.Role == domain.RoleEngineer && !assignedTo(c, actor.ID) {
			return apperrors.NewForbidden("access denied")
		}
		return nil
	})
}

func (s *ComplaintService) applyEdit(ctx context.Context, actor *domain.StaffAccount, id string, edit lifecycle.Edit, role domain.Role, authorize func(*domain.Complaint) error) (*domain.Complaint, error) {
	var before, after domain.Complaint
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.complaints.GetByID(ctx, id)
		if err != nil {
			return notFoundAs(err, "complaint")
		}
		if authorize != nil {
			if err := authorize(current); err != nil {
				return err
			}
		}
		if err := s.checkEngineer(ctx, role, current, edit); err != nil {
			return err
		}

		now := s.now()
		next, err := lifecycle.Apply(*current, edit, role, now)
		if err != nil {
			return asValidationError(err)
		}
		next.UpdatedAt = now
		if err := s.complaints.Update(ctx, &next); err != nil {
			return err
		}
		if err := s.recordChanges(ctx, actor, *current, next, now); err != nil {
			return err
		}
		before, after = *current, next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishChanges(ctx, actor, before, after)

	fresh, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("reload complaint after edit", zap.String("complaint_id", id), zap.Error(err))
		return &after, nil
	}
	return fresh, nil
}

// checkEngineer ensures a newly assigned account exists and is an engineer.
func (s *ComplaintService) checkEngineer(ctx context.Context, role domain.Role, current *domain.Complaint, edit lifecycle.Edit) error {
	if edit.AssignedEngineerID == nil || !lifecycle.EditableFields(role, current).Has(lifecycle.FieldAssignedEngineer) {
		return nil
	}
	id := strings.TrimSpace(*edit.AssignedEngineerID)
	if id == "" {
		return nil
	}
	account, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return notFoundAs(err, "engineer")
	}
	if account.Role != domain.RoleEngineer || !account.Active {
		return apperrors.NewValidationError("invalid complaint edit", map[string]any{
			string(lifecycle.FieldAssignedEngineer): "account is not an active engineer",
		})
	}
	return nil
}

func (s *ComplaintService) recordChanges(ctx context.Context, actor *domain.StaffAccount, before, after domain.Complaint, now time.Time) error {
	if s.history == nil {
		return nil
	}
	var changedBy *string
	if actor != nil {
		id := actor.ID
		changedBy = &id
	}
	entries := make([]domain.ComplaintHistory, 0, 3)
	if before.Status != after.Status {
		entries = append(entries, domain.ComplaintHistory{
			ChangeType: domain.ChangeTypeStatus,
			OldValue:   map[string]any{"status": before.Status},
			NewValue:   map[string]any{"status": after.Status},
		})
	}
	if !sameString(before.AssignedEngineerID, after.AssignedEngineerID) {
		entries = append(entries, domain.ComplaintHistory{
			ChangeType: domain.ChangeTypeAssignee,
			OldValue:   map[string]any{"engineer_id": before.AssignedEngineerID},
			NewValue:   map[string]any{"engineer_id": after.AssignedEngineerID},
		})
	}
	if before.PaymentStatus != after.PaymentStatus {
		entries = append(entries, domain.ComplaintHistory{
			ChangeType: domain.ChangeTypePaymentStatus,
			OldValue:   map[string]any{"payment_status": before.PaymentStatus},
			NewValue:   map[string]any{"payment_status": after.PaymentStatus},
		})
	}
	for i := range entries {
		entries[i].ComplaintID = after.ID
		entries[i].ChangedByID = changedBy
		entries[i].CreatedAt = now
		if err := s.history.Create(ctx, &entries[i]); err != nil {
			return fmt.Errorf("record complaint history: %w", err)
		}
	}
	return nil
}

func (s *ComplaintService) publishChanges(ctx context.Context, actor *domain.StaffAccount, before, after domain.Complaint) {
	if before.Status != after.Status {
		s.metrics.StatusTransition(string(before.Status), string(after.Status))
		publishEvent(ctx, s.dispatcher, s.logger, events.Event{
			Type:        events.EventComplaintStatusChanged,
			ComplaintID: after.ID,
			Actor:       accountActor(actor),
			Payload: events.ComplaintStatusChangedPayload{
				OldStatus: before.Status,
				NewStatus: after.Status,
			},
		})
	}
	if !sameString(before.AssignedEngineerID, after.AssignedEngineerID) {
		publishEvent(ctx, s.dispatcher, s.logger, events.Event{
			Type:        events.EventComplaintAssigned,
			ComplaintID: after.ID,
			Actor:       accountActor(actor),
			Payload: events.ComplaintAssignedPayload{
				OldEngineerID: before.AssignedEngineerID,
				NewEngineerID: after.AssignedEngineerID,
			},
		})
	}
	if before.PaymentStatus != after.PaymentStatus {
		publishEvent(ctx, s.dispatcher, s.logger, events.Event{
			Type:        events.EventPaymentStatusChanged,
			ComplaintID: after.ID,
			Actor:       accountActor(actor),
			Payload: events.PaymentStatusChangedPayload{
				OldStatus: before.PaymentStatus,
				NewStatus: after.PaymentStatus,
			},
		})
	}
}

func asValidationError(err error) error {
	var verr *lifecycle.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	details := make(map[string]any, len(verr.Fields))
	for field, msg := range verr.Details() {
		details[field] = msg
	}
	return apperrors.NewValidationError("invalid complaint edit", details)
}

func canView(actor *domain.StaffAccount, c *domain.Complaint) bool {
	switch actor.Role {
	case domain.RoleCustomer:
		return false
	case domain.RoleEngineer:
		return assignedTo(c, actor.ID)
	default:
		return true
	}
}

func assignedTo(c *domain.Complaint, accountID string) bool {
	return c.AssignedEngineerID != nil && *c.AssignedEngineerID == accountID
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
