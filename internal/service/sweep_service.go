package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/lifecycle"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// Sweep reasons used in metrics and logs.
const (
	SweepReasonUnassigned = "unassigned"
	SweepReasonStalled    = "stalled"
)

// SweepReport counts the complaints moved (or, in a dry run, that would be
// moved) to pending.
type SweepReport struct {
	Unassigned int64     `json:"unassigned"`
	Stalled    int64     `json:"stalled"`
	DryRun     bool      `json:"dry_run"`
	RanAt      time.Time `json:"ran_at"`
}

// SweepService demotes stale complaints to pending.
type SweepService struct {
	complaints      repository.ComplaintRepository
	tx              repository.TxManager
	metrics         *observability.Metrics
	logger          *zap.Logger
	unassignedAfter time.Duration
	stalledAfter    time.Duration
	now             func() time.Time
}

// SweepDependencies bundles collaborators for the sweep.
type SweepDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	TxManager     repository.TxManager
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	Clock         func() time.Time
}

// NewSweepService builds the service from the configured thresholds.
func NewSweepService(cfg config.SweepConfig, deps SweepDependencies) *SweepService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = systemClock
	}
	return &SweepService{
		complaints:      deps.ComplaintRepo,
		tx:              deps.TxManager,
		metrics:         deps.Metrics,
		logger:          logger,
		unassignedAfter: cfg.UnassignedAfter(),
		stalledAfter:    cfg.StalledAfter(),
		now:             clock,
	}
}

// Run executes one sweep. Running it twice in a row changes nothing the
// second time.
func (s *SweepService) Run(ctx context.Context, dryRun bool) (*SweepReport, error) {
	now := s.now()
	criteria := lifecycle.NewSweepCriteria(now, s.unassignedAfter, s.stalledAfter)
	unassigned, stalled := sweepFilters(criteria)
	report := &SweepReport{DryRun: dryRun, RanAt: now}

	if dryRun {
		n, err := s.complaints.Count(ctx, unassigned)
		if err != nil {
			return nil, err
		}
		report.Unassigned = int64(n)
		if n, err = s.complaints.Count(ctx, stalled); err != nil {
			return nil, err
		}
		report.Stalled = int64(n)
		s.logger.Info("sweep dry run", zap.Int64("unassigned", report.Unassigned), zap.Int64("stalled", report.Stalled))
		return report, nil
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if report.Unassigned, err = s.complaints.MarkPending(ctx, unassigned, now); err != nil {
			return err
		}
		report.Stalled, err = s.complaints.MarkPending(ctx, stalled, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SweepUpdated(SweepReasonUnassigned, int(report.Unassigned))
	s.metrics.SweepUpdated(SweepReasonStalled, int(report.Stalled))
	s.logger.Info("sweep completed", zap.Int64("unassigned", report.Unassigned), zap.Int64("stalled", report.Stalled))
	return report, nil
}

func sweepFilters(c lifecycle.SweepCriteria) (unassigned, stalled repository.ComplaintFilter) {
	unassignedCutoff := c.UnassignedCutoff
	stalledCutoff := c.StalledCutoff
	unassigned = repository.ComplaintFilter{
		Statuses:        []domain.ComplaintStatus{domain.ComplaintStatusOpen},
		Unassigned:      true,
		CreatedNotAfter: &unassignedCutoff,
	}
	stalled = repository.ComplaintFilter{
		Statuses:         []domain.ComplaintStatus{domain.ComplaintStatusInProgress},
		Assigned:         true,
		AssignedNotAfter: &stalledCutoff,
		Unresolved:       true,
	}
	return unassigned, stalled
}
