package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
)

// StaffHandler exposes staff account management.
type StaffHandler struct {
	staff   *service.StaffService
	exports *service.ExportService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staff *service.StaffService, exports *service.ExportService) *StaffHandler {
	return &StaffHandler{staff: staff, exports: exports}
}

// Create handles POST /staff.
func (h *StaffHandler) Create(c *fiber.Ctx) error {
	var req dto.StaffCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	account, err := h.staff.Create(c.UserContext(), service.StaffCreateInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": staffResponse(account)})
}

// Update handles PATCH /staff/:id.
func (h *StaffHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "staff account")
	if err != nil {
		return err
	}
	var req dto.StaffUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	account, err := h.staff.Update(c.UserContext(), id, service.StaffUpdateInput{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
		Active:   req.Active,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(account)})
}

// Delete handles DELETE /staff/:id.
func (h *StaffHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "staff account")
	if err != nil {
		return err
	}
	if err := h.staff.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Get handles GET /staff/:id.
func (h *StaffHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "staff account")
	if err != nil {
		return err
	}
	account, err := h.staff.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(account)})
}

// List handles GET /staff.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	input := service.StaffListInput{Search: strings.TrimSpace(c.Query("search"))}
	if role := c.Query("role"); role != "" {
		input.Role = &role
	}
	input.Limit, input.Offset = pageParams(c)
	page, err := h.staff.List(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ListResponse[dto.StaffResponse]{
		Items:  staffResponses(page.Items),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}})
}

// Engineers handles GET /staff/engineers, the assignment dropdown source.
func (h *StaffHandler) Engineers(c *fiber.Ctx) error {
	engineers, err := h.staff.ListEngineers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponses(engineers)})
}

// Export handles GET /staff/export.
func (h *StaffHandler) Export(c *fiber.Ctx) error {
	wb, err := h.exports.Staff(c.UserContext())
	if err != nil {
		return err
	}
	return sendWorkbook(c, wb)
}

func staffResponses(accounts []domain.StaffAccount) []dto.StaffResponse {
	items := make([]dto.StaffResponse, 0, len(accounts))
	for i := range accounts {
		items = append(items, staffResponse(&accounts[i]))
	}
	return items
}

func staffResponse(a *domain.StaffAccount) dto.StaffResponse {
	return dto.StaffResponse{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		FullName:    a.FullName,
		Role:        a.Role,
		RoleLabel:   a.Role.Label(),
		IsSuperuser: a.IsSuperuser,
		Active:      a.Active,
		CreatedAt:   a.CreatedAt,
	}
}
