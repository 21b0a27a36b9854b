package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// ProductsHandler manages the product catalog.
type ProductsHandler struct {
	products *service.ProductService
	exports  *service.ExportService
	now      func() time.Time
}

// NewProductsHandler constructs handler.
func NewProductsHandler(products *service.ProductService, exports *service.ExportService) *ProductsHandler {
	return &ProductsHandler{products: products, exports: exports, now: func() time.Time { return time.Now().UTC() }}
}

// Create handles POST /products.
func (h *ProductsHandler) Create(c *fiber.Ctx) error {
	input, err := parseProductRequest(c)
	if err != nil {
		return err
	}
	product, err := h.products.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.productResponse(product)})
}

// Update handles PUT /products/:id.
func (h *ProductsHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "product")
	if err != nil {
		return err
	}
	input, err := parseProductRequest(c)
	if err != nil {
		return err
	}
	product, err := h.products.Update(c.UserContext(), id, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.productResponse(product)})
}

// Delete handles DELETE /products/:id.
func (h *ProductsHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "product")
	if err != nil {
		return err
	}
	if err := h.products.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Get handles GET /products/:id.
func (h *ProductsHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "product")
	if err != nil {
		return err
	}
	product, err := h.products.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.productResponse(product)})
}

// List handles GET /products.
func (h *ProductsHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	page, err := h.products.List(c.UserContext(), strings.TrimSpace(c.Query("search")), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.ProductResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, h.productResponse(&page.Items[i]))
	}
	return c.JSON(fiber.Map{"data": dto.ListResponse[dto.ProductResponse]{
		Items:  items,
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}})
}

// Export handles GET /products/export.
func (h *ProductsHandler) Export(c *fiber.Ctx) error {
	wb, err := h.exports.Products(c.UserContext())
	if err != nil {
		return err
	}
	return sendWorkbook(c, wb)
}

func parseProductRequest(c *fiber.Ctx) (service.ProductInput, error) {
	var req dto.ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return service.ProductInput{}, err
	}
	input := service.ProductInput{
		SerialNumber:       req.SerialNumber,
		ModelName:          req.ModelName,
		SoldTo:             req.SoldTo,
		AssignedEngineerID: req.AssignedEngineerID,
		InvoiceRef:         req.InvoiceRef,
	}
	sold, err := time.Parse(dateLayout, req.SoldDate)
	if err != nil {
		return input, apperrors.NewValidationError("invalid date", map[string]any{"sold_date": "expected YYYY-MM-DD"})
	}
	input.SoldDate = sold

	optional := []struct {
		field string
		raw   *string
		dst   **time.Time
	}{
		{"installation_date", req.InstallationDate, &input.InstallationDate},
		{"warranty_start", req.WarrantyStart, &input.WarrantyStart},
		{"warranty_end", req.WarrantyEnd, &input.WarrantyEnd},
	}
	for _, opt := range optional {
		if opt.raw == nil {
			continue
		}
		parsed, err := parseDate(*opt.raw)
		if err != nil {
			return input, apperrors.NewValidationError("invalid date", map[string]any{opt.field: "expected YYYY-MM-DD"})
		}
		*opt.dst = parsed
	}
	return input, nil
}

func (h *ProductsHandler) productResponse(p *domain.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:                 p.ID,
		SerialNumber:       p.SerialNumber,
		ModelName:          p.ModelName,
		SoldTo:             p.SoldTo,
		SoldDate:           p.SoldDate,
		InstallationDate:   p.InstallationDate,
		AssignedEngineerID: p.AssignedEngineerID,
		EngineerUsername:   p.EngineerUsername,
		InvoiceRef:         p.InvoiceRef,
		WarrantyStart:      p.WarrantyStart,
		WarrantyEnd:        p.WarrantyEnd,
		WarrantyStatus:     p.WarrantyStatus(h.now()),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}
