package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/lifecycle"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/ticketid"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

var (
	adminAcc      = domain.StaffAccount{ID: "admin-1", Username: "admin", Role: domain.RoleAdmin, Active: true}
	managerAcc    = domain.StaffAccount{ID: "mgr-1", Username: "manager", Role: domain.RoleManager, Active: true}
	engineerAcc   = domain.StaffAccount{ID: "eng-1", Username: "ravi", Role: domain.RoleEngineer, Active: true}
	engineerTwo   = domain.StaffAccount{ID: "eng-2", Username: "kiran", Role: domain.RoleEngineer, Active: true}
	retiredEng    = domain.StaffAccount{ID: "eng-3", Username: "old", Role: domain.RoleEngineer, Active: false}
	accountantAcc = domain.StaffAccount{ID: "acc-1", Username: "books", Role: domain.RoleAccountant, Active: true}
	tallyAcc      = domain.StaffAccount{ID: "tally-1", Username: "tally", Role: domain.RoleTally, Active: true}
	customerAcc   = domain.StaffAccount{ID: "cust-1", Username: "buyer", Role: domain.RoleCustomer, Active: true}
)

type complaintHarness struct {
	svc        *ComplaintService
	complaints *fakeComplaintRepo
	staff      *fakeStaffRepo
	products   *fakeProductRepo
	history    *fakeHistoryRepo
	tx         *fakeTx
	clock      *fixedClock
	published  []events.Event
}

func newComplaintHarness(t *testing.T) *complaintHarness {
	t.Helper()
	h := &complaintHarness{
		complaints: newFakeComplaintRepo(),
		staff:      newFakeStaffRepo(adminAcc, managerAcc, engineerAcc, engineerTwo, retiredEng, accountantAcc, tallyAcc, customerAcc),
		products:   newFakeProductRepo(domain.Product{ID: "prod-1", SerialNumber: "SN-1", ModelName: "Board 65", SoldDate: t0}),
		history:    &fakeHistoryRepo{},
		tx:         &fakeTx{},
		clock:      &fixedClock{at: t0},
	}
	h.complaints.staff = h.staff

	dispatcher := events.NewInMemoryDispatcher(nil)
	for _, et := range events.AllEventTypes {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			h.published = append(h.published, e)
			return nil
		})
	}

	h.svc = NewComplaintService(ComplaintDependencies{
		ComplaintRepo: h.complaints,
		ProductRepo:   h.products,
		StaffRepo:     h.staff,
		HistoryRepo:   h.history,
		TxManager:     h.tx,
		Dispatcher:    dispatcher,
		Metrics:       observability.NewMetrics(),
		Clock:         h.clock.Now,
	})
	return h
}

func (h *complaintHarness) seed(c domain.Complaint) {
	if c.Status == "" {
		c.Status = domain.ComplaintStatusOpen
	}
	if c.PaymentStatus == "" {
		c.PaymentStatus = domain.PaymentStatusUnpaid
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = t0
	}
	h.complaints.put(c)
}

func (h *complaintHarness) eventTypes() []events.EventType {
	out := make([]events.EventType, len(h.published))
	for i, e := range h.published {
		out[i] = e.Type
	}
	return out
}

func actor(a domain.StaffAccount) *domain.StaffAccount { return &a }

func TestCreatePublicComplaint(t *testing.T) {
	h := newComplaintHarness(t)

	created, err := h.svc.Create(context.Background(), nil, ComplaintCreateInput{
		CustomerName: "  Asha ",
		MobileNumber: "9876543210",
		Email:        strPtr("asha@example.com"),
		Address:      domain.Address{City: "Pune", Pincode: "411001"},
		ProductID:    strPtr("prod-1"),
		Description:  "no display",
	})
	require.NoError(t, err)

	assert.True(t, ticketid.Valid(created.TicketNumber), created.TicketNumber)
	assert.Equal(t, "Asha", created.CustomerName)
	assert.Equal(t, domain.ComplaintStatusOpen, created.Status)
	assert.Equal(t, domain.PaymentStatusUnpaid, created.PaymentStatus)
	assert.Equal(t, domain.IssueOther, created.IssueType)
	assert.Equal(t, t0, created.CreatedAt)
	assert.Nil(t, created.AssignedDate)
	assert.Equal(t, 1, h.tx.calls)

	require.Len(t, h.published, 1)
	event := h.published[0]
	assert.Equal(t, events.EventComplaintCreated, event.Type)
	assert.Nil(t, event.Actor.AccountID)
	payload, ok := event.Payload.(events.ComplaintCreatedPayload)
	require.True(t, ok)
	assert.Equal(t, created.TicketNumber, payload.TicketNumber)
	assert.Equal(t, ChannelPublic, payload.Channel)
}

func TestCreateByStaffUsesStaffChannel(t *testing.T) {
	h := newComplaintHarness(t)

	_, err := h.svc.Create(context.Background(), actor(managerAcc), ComplaintCreateInput{
		CustomerName: "Ravi",
		MobileNumber: "9000000000",
		IssueType:    domain.IssueTouchIssue,
	})
	require.NoError(t, err)

	require.Len(t, h.published, 1)
	payload := h.published[0].Payload.(events.ComplaintCreatedPayload)
	assert.Equal(t, ChannelStaff, payload.Channel)
	require.NotNil(t, h.published[0].Actor.AccountID)
	assert.Equal(t, managerAcc.ID, *h.published[0].Actor.AccountID)
}

func TestCreateRejectsUnknownProductAndIssue(t *testing.T) {
	h := newComplaintHarness(t)

	_, err := h.svc.Create(context.Background(), nil, ComplaintCreateInput{
		CustomerName: "Asha",
		MobileNumber: "9876543210",
		ProductID:    strPtr("missing"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = h.svc.Create(context.Background(), nil, ComplaintCreateInput{
		CustomerName: "Asha",
		MobileNumber: "9876543210",
		IssueType:    "Smoke",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	assert.Empty(t, h.published)
}

func TestManagerAssignmentRecordsHistoryAndEvents(t *testing.T) {
	h := newComplaintHarness(t)
	h.seed(domain.Complaint{ID: "c-9", TicketNumber: "TCKT-00000009"})
	h.clock.Advance(time.Hour)

	updated, err := h.svc.ManagerEdit(context.Background(), actor(managerAcc), "c-9", lifecycle.Edit{
		AssignedEngineerID: strPtr(engineerAcc.ID),
		ServiceCost:        floatPtr(450),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ComplaintStatusInProgress, updated.Status)
	require.NotNil(t, updated.AssignedDate)
	assert.Equal(t, t0.Add(time.Hour), *updated.AssignedDate)
	require.NotNil(t, updated.EngineerUsername)
	assert.Equal(t, "ravi", *updated.EngineerUsername)
	require.NotNil(t, updated.ServiceCost)
	assert.Equal(t, 450.0, *updated.ServiceCost)

	assert.Equal(t, []domain.ComplaintChangeType{domain.ChangeTypeStatus, domain.ChangeTypeAssignee}, h.history.types())
	for _, entry := range h.history.entries {
		require.NotNil(t, entry.ChangedByID)
		assert.Equal(t, managerAcc.ID, *entry.ChangedByID)
	}
	assert.Equal(t, []events.EventType{events.EventComplaintStatusChanged, events.EventComplaintAssigned}, h.eventTypes())
}

func TestManagerEditRejectsBadEngineer(t *testing.T) {
	h := newComplaintHarness(t)
	h.seed(domain.Complaint{ID: "c-1", TicketNumber: "TCKT-00000001"})

	cases := map[string]struct {
		engineerID string
		code       string
	}{
		"unknown account": {engineerID: "ghost", code: apperrors.CodeNotFound},
		"not an engineer": {engineerID: accountantAcc.ID, code: apperrors.CodeValidation},
		"inactive":        {engineerID: retiredEng.ID, code: apperrors.CodeValidation},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.svc.ManagerEdit(context.Background(), actor(managerAcc), "c-1", lifecycle.Edit{
				AssignedEngineerID: strPtr(tc.engineerID),
				ServiceCost:        floatPtr(100),
			})
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, tc.code), err.Error())
		})
	}
	assert.Zero(t, h.complaints.updates)
	assert.Empty(t, h.history.entries)
}

func TestManagerEditRequiresCostWhileUnlocked(t *testing.T) {
	h := newComplaintHarness(t)
	h.seed(domain.Complaint{ID: "c-1", TicketNumber: "TCKT-00000001"})

	_, err := h.svc.ManagerEdit(context.Background(), actor(managerAcc), "c-1", lifecycle.Edit{
		AssignedEngineerID: strPtr(engineerAcc.ID),
	})
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeValidation, domainErr.Code)
	assert.Contains(t, domainErr.Details, string(lifecycle.FieldServiceCost))
	assert.Zero(t, h.complaints.updates)
}

func TestManagerEditOnlyForManagers(t *testing.T) {
	h := newComplaintHarness(t)
	h.seed(domain.Complaint{ID: "c-1", TicketNumber: "TCKT-00000001"})

	_, err := h.svc.ManagerEdit(context.Background(), actor(adminAcc), "c-1", lifecycle.Edit{})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	_, err = h.svc.ManagerEdit(context.Background(), nil, "c-1", lifecycle.Edit{})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestServiceUpdateByAssignedEngineerResolves(t *testing.T) {
	h := newComplaintHarness(t)
	assigned := t0
	h.seed(domain.Complaint{
		ID:                 "c-1",
		TicketNumber:       "TCKT-00000001",
		Status:             domain.ComplaintStatusInProgress,
		AssignedEngineerID: strPtr(engineerAcc.ID),
		AssignedDate:       &assigned,
	})
	h.clock.Advance(3 * time.Hour)

	updated, err := h.svc.ServiceUpdate(context.Background(), actor(engineerAcc), "c-1", lifecycle.Edit{
		ProductSerialNumber:      strPtr("SN-1"),
		ServiceConfirmationPhoto: strPtr("uploads/service/c-1.jpg"),
		ServiceCost:              floatPtr(999),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ComplaintStatusResolved, updated.Status)
	require.NotNil(t, updated.ResolvedDate)
	assert.Equal(t, t0.Add(3*time.Hour), *updated.ResolvedDate)
	assert.Equal(t, assigned, *updated.AssignedDate)
	assert.Nil(t, updated.ServiceCost, "engineers cannot set the cost")
	assert.Equal(t, []events.EventType{events.EventComplaintStatusChanged}, h.eventTypes())
}

func TestServiceUpdateRejectsOtherEngineers(t *testing.T) {
	h := newComplaintHarness(t)
	h.seed(domain.Complaint{
		ID:                 "c-1",
		TicketNumber:       "TCKT-00000001",
		Status:             domain.ComplaintStatusInProgress,
		AssignedEngineerID: strPtr(engineerAcc.ID),
	})

	_, err := h.svc.ServiceUpdate(context.Background(), actor(engineerTwo), "c-1", lifecycle.Edit{
		ProductSerialNumber: strPtr("SN-1"),
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	_, err = h.svc.ServiceUpdate(context.Background(), actor(accountantAcc), "c-1", lifecycle.Edit{})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
	assert.Zero(t, h.complaints.updates)
}

func TestStaffEditAccountantMarksCashPaid(t *testing.T) {
	h := newComplaintHarness(t)
	h.seed(domain.Complaint{
		ID:            "c-1",
		TicketNumber:  "TCKT-00000001",
		PaymentMethod: methodPtr(domain.PaymentMethodCash),
	})

	updated, err := h.svc.StaffEdit(context.Background(), actor(accountantAcc), "c-1", lifecycle.Edit{MarkCashPaid: true})
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusPaid, updated.PaymentStatus)
	assert.Equal(t, domain.ComplaintStatusOpen, updated.Status)
	assert.Equal(t, []domain.ComplaintChangeType{domain.ChangeTypePaymentStatus}, h.history.types())
	assert.Equal(t, []events.EventType{events.EventPaymentStatusChanged}, h.eventTypes())

	again, err := h.svc.StaffEdit(context.Background(), actor(accountantAcc), "c-1", lifecycle.Edit{MarkCashPaid: true})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, again.PaymentStatus)
	assert.Len(t, h.history.types(), 1, "no new history entry")
	assert.Len(t, h.published, 1, "no new event")
}

func TestStaffEditRejectsOtherRoles(t *testing.T) {
	h := newComplaintHarness(t)
	h.seed(domain.Complaint{ID: "c-1", TicketNumber: "TCKT-00000001"})

	for _, acc := range []domain.StaffAccount{engineerAcc, tallyAcc, customerAcc} {
		_, err := h.svc.StaffEdit(context.Background(), actor(acc), "c-1", lifecycle.Edit{Status: statusPtr(domain.ComplaintStatusResolved)})
		assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden), string(acc.Role))
	}
}

func TestStaffEditMissingComplaint(t *testing.T) {
	h := newComplaintHarness(t)

	_, err := h.svc.StaffEdit(context.Background(), actor(adminAcc), "nope", lifecycle.Edit{})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestListScoping(t *testing.T) {
	h := newComplaintHarness(t)
	h.seed(domain.Complaint{ID: "c-1", TicketNumber: "TCKT-00000001", AssignedEngineerID: strPtr(engineerAcc.ID), Status: domain.ComplaintStatusInProgress})
	h.seed(domain.Complaint{ID: "c-2", TicketNumber: "TCKT-00000002", AssignedEngineerID: strPtr(engineerTwo.ID), Status: domain.ComplaintStatusInProgress})
	h.seed(domain.Complaint{ID: "c-3", TicketNumber: "TCKT-00000003"})

	page, err := h.svc.List(context.Background(), actor(engineerAcc), ComplaintListInput{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "c-1", page.Items[0].ID)
	assert.Equal(t, 1, page.Total)

	page, err = h.svc.List(context.Background(), actor(tallyAcc), ComplaintListInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, defaultPageSize, page.Limit)

	page, err = h.svc.List(context.Background(), actor(managerAcc), ComplaintListInput{UnassignedOnly: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "c-3", page.Items[0].ID)

	_, err = h.svc.List(context.Background(), actor(customerAcc), ComplaintListInput{})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestListDateRangeIncludesEndDay(t *testing.T) {
	h := newComplaintHarness(t)
	h.seed(domain.Complaint{ID: "c-1", TicketNumber: "TCKT-00000001", CreatedAt: time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)})
	h.seed(domain.Complaint{ID: "c-2", TicketNumber: "TCKT-00000002", CreatedAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)})
	h.seed(domain.Complaint{ID: "c-3", TicketNumber: "TCKT-00000003", CreatedAt: time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)})

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	page, err := h.svc.List(context.Background(), actor(adminAcc), ComplaintListInput{From: &day, To: &day})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "c-1", page.Items[0].ID)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	h := newComplaintHarness(t)

	_, err := h.svc.List(context.Background(), actor(adminAcc), ComplaintListInput{Status: statusPtr("closed")})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestGetWithHistory(t *testing.T) {
	h := newComplaintHarness(t)
	h.seed(domain.Complaint{ID: "c-1", TicketNumber: "TCKT-00000001"})

	_, err := h.svc.ManagerEdit(context.Background(), actor(managerAcc), "c-1", lifecycle.Edit{
		AssignedEngineerID: strPtr(engineerAcc.ID),
		ServiceCost:        floatPtr(10),
	})
	require.NoError(t, err)

	complaint, history, err := h.svc.Get(context.Background(), actor(engineerAcc), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "c-1", complaint.ID)
	assert.Len(t, history, 2)

	_, _, err = h.svc.Get(context.Background(), actor(engineerTwo), "c-1")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	_, _, err = h.svc.Get(context.Background(), actor(adminAcc), "missing")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestEditableFieldsForActor(t *testing.T) {
	h := newComplaintHarness(t)
	h.seed(domain.Complaint{ID: "c-1", TicketNumber: "TCKT-00000001", ServiceCost: floatPtr(100)})

	fields, err := h.svc.EditableFields(context.Background(), actor(managerAcc), "c-1")
	require.NoError(t, err)
	assert.Equal(t, []string{string(lifecycle.FieldAssignedEngineer)}, fields.Strings())
}
