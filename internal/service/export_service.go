package service

import (
	"context"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/export"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// ExportService renders spreadsheet reports.
type ExportService struct {
	complaints *ComplaintService
	products   *ProductService
	staff      *StaffService
	now        func() time.Time
}

// ExportDependencies bundles the services whose data is exported.
type ExportDependencies struct {
	ComplaintService *ComplaintService
	ProductService   *ProductService
	StaffService     *StaffService
	Clock            func() time.Time
}

// NewExportService constructs the service.
func NewExportService(deps ExportDependencies) *ExportService {
	clock := deps.Clock
	if clock == nil {
		clock = systemClock
	}
	return &ExportService{
		complaints: deps.ComplaintService,
		products:   deps.ProductService,
		staff:      deps.StaffService,
		now:        clock,
	}
}

// Complaints exports the complaints the actor can see, filtered like the
// listing. Accountants get the billing columns.
func (s *ExportService) Complaints(ctx context.Context, actor *domain.StaffAccount, input ComplaintListInput) (*export.Workbook, error) {
	if err := requireRole(actor, domain.RoleAdmin, domain.RoleManager, domain.RoleAccountant); err != nil {
		return nil, err
	}
	items, err := s.complaints.ListAll(ctx, actor, input)
	if err != nil {
		return nil, err
	}
	return wrapExport(export.Complaints(items, actor.Role, actor.Username, s.now()))
}

// Products exports the full catalog.
func (s *ExportService) Products(ctx context.Context) (*export.Workbook, error) {
	items, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return wrapExport(export.Products(items, s.now()))
}

// Staff exports every non-superuser account.
func (s *ExportService) Staff(ctx context.Context) (*export.Workbook, error) {
	items, err := s.staff.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return wrapExport(export.Staff(items, s.now()))
}

func wrapExport(wb *export.Workbook, err error) (*export.Workbook, error) {
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return wb, nil
}
