package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// ProductService manages the product catalog.
type ProductService struct {
	products repository.ProductRepository
	staff    repository.StaffRepository
}

// ProductDependencies bundles repositories for the product service.
type ProductDependencies struct {
	ProductRepo repository.ProductRepository
	StaffRepo   repository.StaffRepository
}

// ProductInput carries the editable product attributes.
type ProductInput struct {
	SerialNumber       string
	ModelName          string
	SoldTo             string
	SoldDate           time.Time
	InstallationDate   *time.Time
	AssignedEngineerID *string
	InvoiceRef         *string
	WarrantyStart      *time.Time
	WarrantyEnd        *time.Time
}

// NewProductService constructs the service.
func NewProductService(deps ProductDependencies) *ProductService {
	return &ProductService{products: deps.ProductRepo, staff: deps.StaffRepo}
}

// Create adds a product.
func (s *ProductService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	product := &domain.Product{}
	if err := s.apply(ctx, product, input); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return s.reload(ctx, product)
}

// Update replaces the attributes of an existing product.
func (s *ProductService) Update(ctx context.Context, id string, input ProductInput) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "product")
	}
	if err := s.apply(ctx, product, input); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, product); err != nil {
		return nil, notFoundAs(err, "product")
	}
	return s.reload(ctx, product)
}

// Delete removes a product. Complaints referencing it keep their history
// with the product unset.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	return notFoundAs(s.products.Delete(ctx, id), "product")
}

// Get returns one product.
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "product")
	}
	return product, nil
}

// List returns a page of products.
func (s *ProductService) List(ctx context.Context, search string, limit, offset int) (*Page[domain.Product], error) {
	filter := repository.ProductFilter{Search: strings.TrimSpace(search)}
	filter.Limit, filter.Offset = normalizePage(limit, offset)
	items, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.products.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Product{}
	}
	return &Page[domain.Product]{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// ListAll returns every product, newest first.
func (s *ProductService) ListAll(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx, repository.ProductFilter{})
}

func (s *ProductService) apply(ctx context.Context, product *domain.Product, input ProductInput) error {
	problems := map[string]any{}
	if strings.TrimSpace(input.SerialNumber) == "" {
		problems["serial_number"] = "serial number is required"
	}
	if strings.TrimSpace(input.ModelName) == "" {
		problems["model_name"] = "model name is required"
	}
	if input.SoldDate.IsZero() {
		problems["sold_date"] = "sold date is required"
	}
	if input.WarrantyStart != nil && input.WarrantyEnd != nil && input.WarrantyEnd.Before(*input.WarrantyStart) {
		problems["warranty_end"] = "warranty end cannot precede warranty start"
	}

	var engineerID *string
	if input.AssignedEngineerID != nil && strings.TrimSpace(*input.AssignedEngineerID) != "" {
		id := strings.TrimSpace(*input.AssignedEngineerID)
		account, err := s.staff.GetByID(ctx, id)
		switch {
		case isNotFound(err):
			problems["assigned_engineer_id"] = "unknown engineer"
		case err != nil:
			return err
		case account.Role != domain.RoleEngineer:
			problems["assigned_engineer_id"] = "account is not an engineer"
		default:
			engineerID = &id
		}
	}
	if len(problems) > 0 {
		return apperrors.NewValidationError("invalid product", problems)
	}

	product.SerialNumber = strings.TrimSpace(input.SerialNumber)
	product.ModelName = strings.TrimSpace(input.ModelName)
	product.SoldTo = strings.TrimSpace(input.SoldTo)
	product.SoldDate = input.SoldDate
	product.InstallationDate = input.InstallationDate
	product.AssignedEngineerID = engineerID
	product.InvoiceRef = input.InvoiceRef
	product.WarrantyStart = input.WarrantyStart
	product.WarrantyEnd = input.WarrantyEnd
	return nil
}

func (s *ProductService) reload(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	fresh, err := s.products.GetByID(ctx, product.ID)
	if err != nil {
		return product, nil
	}
	return fresh, nil
}
