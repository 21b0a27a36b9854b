package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

const dashboardCacheName = "dashboard"

// DashboardCache is the slice of the Redis wrapper the dashboard needs.
type DashboardCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Dashboard holds the per-role counters shown on the landing page.
type Dashboard struct {
	Role        domain.Role    `json:"role"`
	Counts      map[string]int `json:"counts"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// DashboardService computes role dashboards and caches them briefly.
type DashboardService struct {
	complaints repository.ComplaintRepository
	staff      repository.StaffRepository
	products   repository.ProductRepository
	cache      DashboardCache
	ttl        time.Duration
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// DashboardDependencies bundles collaborators. Cache may be nil.
type DashboardDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	StaffRepo     repository.StaffRepository
	ProductRepo   repository.ProductRepository
	Cache         DashboardCache
	CacheTTL      time.Duration
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	Clock         func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = systemClock
	}
	return &DashboardService{
		complaints: deps.ComplaintRepo,
		staff:      deps.StaffRepo,
		products:   deps.ProductRepo,
		cache:      deps.Cache,
		ttl:        deps.CacheTTL,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        clock,
	}
}

// Summary returns the dashboard for the actor's role.
func (s *DashboardService) Summary(ctx context.Context, actor *domain.StaffAccount) (*Dashboard, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role == domain.RoleCustomer {
		return nil, apperrors.NewForbidden("access denied")
	}

	key := dashboardKey(actor)
	if s.cache != nil && s.ttl > 0 {
		var cached Dashboard
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.metrics.CacheLookup(dashboardCacheName, hit)
		if hit {
			return &cached, nil
		}
	}

	counts, err := s.counts(ctx, actor)
	if err != nil {
		return nil, err
	}
	dashboard := &Dashboard{Role: actor.Role, Counts: counts, GeneratedAt: s.now()}

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.SetJSON(ctx, key, dashboard, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return dashboard, nil
}

func (s *DashboardService) counts(ctx context.Context, actor *domain.StaffAccount) (map[string]int, error) {
	switch actor.Role {
	case domain.RoleAdmin:
		return s.adminCounts(ctx)
	case domain.RoleEngineer:
		return s.engineerCounts(ctx, actor.ID)
	default:
		return s.complaintCounts(ctx, nil, map[string][]domain.ComplaintStatus{
			"total":       nil,
			"pending":     {domain.ComplaintStatusPending},
			"in_progress": {domain.ComplaintStatusInProgress},
			"resolved":    {domain.ComplaintStatusResolved},
		})
	}
}

func (s *DashboardService) adminCounts(ctx context.Context) (map[string]int, error) {
	counts, err := s.complaintCounts(ctx, nil, map[string][]domain.ComplaintStatus{
		"total":   nil,
		"pending": {domain.ComplaintStatusPending},
	})
	if err != nil {
		return nil, err
	}
	if counts["unassigned"], err = s.complaints.Count(ctx, repository.ComplaintFilter{Unassigned: true}); err != nil {
		return nil, err
	}
	if counts["staff"], err = s.staff.Count(ctx, repository.StaffFilter{ExcludeSuperusers: true}); err != nil {
		return nil, err
	}
	if counts["products"], err = s.products.Count(ctx, repository.ProductFilter{}); err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *DashboardService) engineerCounts(ctx context.Context, engineerID string) (map[string]int, error) {
	counts, err := s.complaintCounts(ctx, &engineerID, map[string][]domain.ComplaintStatus{
		"assigned": nil,
		"pending":  {domain.ComplaintStatusPending},
		"resolved": {domain.ComplaintStatusResolved},
	})
	if err != nil {
		return nil, err
	}
	unpaid := domain.PaymentStatusUnpaid
	counts["unpaid"], err = s.complaints.Count(ctx, repository.ComplaintFilter{
		AssignedEngineerID: &engineerID,
		PaymentStatus:      &unpaid,
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *DashboardService) complaintCounts(ctx context.Context, engineerID *string, buckets map[string][]domain.ComplaintStatus) (map[string]int, error) {
	counts := make(map[string]int, len(buckets)+3)
	for name, statuses := range buckets {
		n, err := s.complaints.Count(ctx, repository.ComplaintFilter{
			AssignedEngineerID: engineerID,
			Statuses:           statuses,
		})
		if err != nil {
			return nil, fmt.Errorf("count %s complaints: %w", name, err)
		}
		counts[name] = n
	}
	return counts, nil
}

func dashboardKey(actor *domain.StaffAccount) string {
	if actor.Role == domain.RoleEngineer {
		return fmt.Sprintf("dashboard:%s:%s", actor.Role, actor.ID)
	}
	return fmt.Sprintf("dashboard:%s", actor.Role)
}
