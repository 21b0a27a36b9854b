package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/lifecycle"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// ComplaintsHandler serves complaint intake, listing and edits.
type ComplaintsHandler struct {
	complaints *service.ComplaintService
	exports    *service.ExportService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaints *service.ComplaintService, exports *service.ExportService) *ComplaintsHandler {
	return &ComplaintsHandler{complaints: complaints, exports: exports}
}

// SubmitPublic handles POST /public/complaints. No login is required and the
// response carries only the ticket number.
func (h *ComplaintsHandler) SubmitPublic(c *fiber.Ctx) error {
	var req dto.CreateComplaintRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	complaint, err := h.complaints.Create(c.UserContext(), nil, createInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ComplaintSubmittedResponse{
		ID:           complaint.ID,
		TicketNumber: complaint.TicketNumber,
		CreatedAt:    complaint.CreatedAt,
	}})
}

// Create handles POST /complaints for logged in callers.
func (h *ComplaintsHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateComplaintRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	complaint, err := h.complaints.Create(c.UserContext(), actor, createInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": complaintResponse(complaint)})
}

// List handles GET /complaints.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	input, err := parseComplaintQuery(c)
	if err != nil {
		return err
	}
	page, err := h.complaints.List(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	items := make([]dto.ComplaintResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, complaintResponse(&page.Items[i]))
	}
	return c.JSON(fiber.Map{"data": dto.ListResponse[dto.ComplaintResponse]{
		Items:  items,
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}})
}

// Get handles GET /complaints/:id.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "complaint")
	if err != nil {
		return err
	}
	complaint, history, err := h.complaints.Get(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	editable, err := h.complaints.EditableFields(c.UserContext(), actor, complaint.ID)
	if err != nil {
		return err
	}
	entries := make([]dto.ComplaintHistoryResponse, 0, len(history))
	for _, entry := range history {
		entries = append(entries, dto.ComplaintHistoryResponse{
			ID:          entry.ID,
			ChangeType:  entry.ChangeType,
			ChangedByID: entry.ChangedByID,
			OldValue:    entry.OldValue,
			NewValue:    entry.NewValue,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": dto.ComplaintDetailResponse{
		Complaint:      complaintResponse(complaint),
		History:        entries,
		EditableFields: editable.Strings(),
	}})
}

// StaffEdit handles PATCH /complaints/:id.
func (h *ComplaintsHandler) StaffEdit(c *fiber.Ctx) error {
	return h.edit(c, h.complaints.StaffEdit)
}

// ManagerEdit handles PATCH /complaints/:id/assignment.
func (h *ComplaintsHandler) ManagerEdit(c *fiber.Ctx) error {
	return h.edit(c, h.complaints.ManagerEdit)
}

// ServiceUpdate handles PATCH /complaints/:id/service.
func (h *ComplaintsHandler) ServiceUpdate(c *fiber.Ctx) error {
	return h.edit(c, h.complaints.ServiceUpdate)
}

type editFunc func(ctx context.Context, actor *domain.StaffAccount, id string, edit lifecycle.Edit) (*domain.Complaint, error)

func (h *ComplaintsHandler) edit(c *fiber.Ctx, apply editFunc) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "complaint")
	if err != nil {
		return err
	}
	var req dto.ComplaintEditRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	complaint, err := apply(c.UserContext(), actor, id, editInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintResponse(complaint)})
}

// Export handles GET /complaints/export.
func (h *ComplaintsHandler) Export(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	input, err := parseComplaintQuery(c)
	if err != nil {
		return err
	}
	wb, err := h.exports.Complaints(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return sendWorkbook(c, wb)
}

func parseComplaintQuery(c *fiber.Ctx) (service.ComplaintListInput, error) {
	input := service.ComplaintListInput{
		Search:         strings.TrimSpace(c.Query("search")),
		UnassignedOnly: c.QueryBool("unassigned", false),
	}
	input.Limit, input.Offset = pageParams(c)
	if raw := c.Query("status"); raw != "" {
		status := domain.ComplaintStatus(raw)
		if !status.Valid() {
			return input, apperrors.NewValidationError("invalid status", map[string]any{"status": raw})
		}
		input.Status = &status
	}
	from, err := parseDate(c.Query("from"))
	if err != nil {
		return input, apperrors.NewValidationError("invalid date", map[string]any{"from": "expected YYYY-MM-DD"})
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		return input, apperrors.NewValidationError("invalid date", map[string]any{"to": "expected YYYY-MM-DD"})
	}
	input.From, input.To = from, to
	return input, nil
}

func createInput(req dto.CreateComplaintRequest) service.ComplaintCreateInput {
	return service.ComplaintCreateInput{
		CustomerName: req.CustomerName,
		MobileNumber: req.MobileNumber,
		Email:        req.Email,
		Address: domain.Address{
			Pincode:  req.Pincode,
			City:     req.City,
			State:    req.State,
			Area:     req.Area,
			Street:   req.Street,
			Landmark: req.Landmark,
		},
		ProductID:   req.ProductID,
		IssueType:   domain.IssueType(req.IssueType),
		Description: req.Description,
	}
}

func editInput(req dto.ComplaintEditRequest) lifecycle.Edit {
	edit := lifecycle.Edit{
		AssignedEngineerID:       req.AssignedEngineerID,
		ProductSerialNumber:      req.ProductSerialNumber,
		ServiceConfirmationPhoto: req.ServiceConfirmationPhoto,
		ServiceCost:              req.ServiceCost,
		PaymentConfirmationPhoto: req.PaymentConfirmationPhoto,
		MarkCashPaid:             req.MarkCashPaid,
	}
	if req.Status != nil {
		status := domain.ComplaintStatus(*req.Status)
		edit.Status = &status
	}
	if req.PaymentMethod != nil {
		method := domain.PaymentMethod(*req.PaymentMethod)
		edit.PaymentMethod = &method
	}
	for _, name := range req.Clear {
		edit.Clear = append(edit.Clear, lifecycle.Field(name))
	}
	return edit
}

func complaintResponse(c *domain.Complaint) dto.ComplaintResponse {
	return dto.ComplaintResponse{
		ID:           c.ID,
		TicketNumber: c.TicketNumber,
		CustomerName: c.CustomerName,
		MobileNumber: c.MobileNumber,
		Email:        c.Email,
		Address: dto.AddressResponse{
			Pincode:  c.Address.Pincode,
			City:     c.Address.City,
			State:    c.Address.State,
			Area:     c.Address.Area,
			Street:   c.Address.Street,
			Landmark: c.Address.Landmark,
		},
		FullAddress:              c.FullAddress(),
		ProductID:                c.ProductID,
		ProductName:              c.ProductName,
		IssueType:                c.IssueType,
		Description:              c.Description,
		Status:                   c.Status,
		StatusLabel:              c.Status.Label(),
		AssignedEngineerID:       c.AssignedEngineerID,
		EngineerUsername:         c.EngineerUsername,
		ProductSerialNumber:      c.ProductSerialNumber,
		ServiceConfirmationPhoto: c.ServiceConfirmationPhoto,
		ServiceCost:              c.ServiceCost,
		PaymentMethod:            c.PaymentMethod,
		PaymentStatus:            c.PaymentStatus,
		PaymentConfirmationPhoto: c.PaymentConfirmationPhoto,
		SMSLog:                   c.SMSLog,
		CreatedAt:                c.CreatedAt,
		UpdatedAt:                c.UpdatedAt,
		AssignedDate:             c.AssignedDate,
		ResolvedDate:             c.ResolvedDate,
	}
}
