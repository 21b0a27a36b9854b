package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/lifecycle"
	"github.com/spec-kit/complaint-service/internal/observability"
)

func newSweepHarness(now time.Time) (*SweepService, *fakeComplaintRepo, *fakeTx) {
	repo := newFakeComplaintRepo()
	tx := &fakeTx{}
	clock := &fixedClock{at: now}
	svc := NewSweepService(config.SweepConfig{UnassignedHours: 24, StalledHours: 48}, SweepDependencies{
		ComplaintRepo: repo,
		TxManager:     tx,
		Metrics:       observability.NewMetrics(),
		Clock:         clock.Now,
	})
	return svc, repo, tx
}

func seedSweepFixtures(repo *fakeComplaintRepo, now time.Time) {
	old := now.Add(-25 * time.Hour)
	fresh := now.Add(-2 * time.Hour)
	stalledAt := now.Add(-49 * time.Hour)
	resolvedAt := now.Add(-time.Hour)
	exactly := now.Add(-24 * time.Hour)

	repo.put(domain.Complaint{ID: "old-open", TicketNumber: "TCKT-00000001", Status: domain.ComplaintStatusOpen, CreatedAt: old})
	repo.put(domain.Complaint{ID: "edge-open", TicketNumber: "TCKT-00000002", Status: domain.ComplaintStatusOpen, CreatedAt: exactly})
	repo.put(domain.Complaint{ID: "fresh-open", TicketNumber: "TCKT-00000003", Status: domain.ComplaintStatusOpen, CreatedAt: fresh})
	repo.put(domain.Complaint{
		ID: "stalled", TicketNumber: "TCKT-00000004", Status: domain.ComplaintStatusInProgress,
		AssignedEngineerID: strPtr("eng-1"), AssignedDate: &stalledAt, CreatedAt: stalledAt,
	})
	repo.put(domain.Complaint{
		ID: "recent-assign", TicketNumber: "TCKT-00000005", Status: domain.ComplaintStatusInProgress,
		AssignedEngineerID: strPtr("eng-1"), AssignedDate: &fresh, CreatedAt: old,
	})
	repo.put(domain.Complaint{
		ID: "resolved", TicketNumber: "TCKT-00000006", Status: domain.ComplaintStatusResolved,
		AssignedEngineerID: strPtr("eng-1"), AssignedDate: &stalledAt, ResolvedDate: &resolvedAt, CreatedAt: stalledAt,
	})
}

func TestSweepMarksStaleComplaintsPending(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, repo, tx := newSweepHarness(now)
	seedSweepFixtures(repo, now)

	report, err := svc.Run(context.Background(), false)
	require.NoError(t, err)

	assert.EqualValues(t, 2, report.Unassigned)
	assert.EqualValues(t, 1, report.Stalled)
	assert.False(t, report.DryRun)
	assert.Equal(t, 1, tx.calls)

	expect := map[string]domain.ComplaintStatus{
		"old-open":      domain.ComplaintStatusPending,
		"edge-open":     domain.ComplaintStatusPending,
		"fresh-open":    domain.ComplaintStatusOpen,
		"stalled":       domain.ComplaintStatusPending,
		"recent-assign": domain.ComplaintStatusInProgress,
		"resolved":      domain.ComplaintStatusResolved,
	}
	for id, status := range expect {
		got, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status, id)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, repo, _ := newSweepHarness(now)
	seedSweepFixtures(repo, now)

	_, err := svc.Run(context.Background(), false)
	require.NoError(t, err)

	second, err := svc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, second.Unassigned)
	assert.Zero(t, second.Stalled)
}

func TestSweepDryRunLeavesDataAlone(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, repo, tx := newSweepHarness(now)
	seedSweepFixtures(repo, now)

	report, err := svc.Run(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.EqualValues(t, 2, report.Unassigned)
	assert.EqualValues(t, 1, report.Stalled)
	assert.Zero(t, tx.calls)

	got, err := repo.GetByID(context.Background(), "old-open")
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusOpen, got.Status)
}

func TestSweepFiltersAgreeWithCriteria(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, repo, _ := newSweepHarness(now)
	seedSweepFixtures(repo, now)

	old := now.Add(-72 * time.Hour)
	repo.put(domain.Complaint{
		ID: "open-with-engineer", TicketNumber: "TCKT-00000007", Status: domain.ComplaintStatusOpen,
		AssignedEngineerID: strPtr("eng-1"), CreatedAt: old,
	})
	repo.put(domain.Complaint{
		ID: "undated-assign", TicketNumber: "TCKT-00000008", Status: domain.ComplaintStatusInProgress,
		AssignedEngineerID: strPtr("eng-1"), CreatedAt: old,
	})
	repo.put(domain.Complaint{ID: "already-pending", TicketNumber: "TCKT-00000009", Status: domain.ComplaintStatusPending, CreatedAt: old})

	before := map[string]domain.Complaint{}
	for id := range repo.items {
		got, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		before[id] = *got
	}

	_, err := svc.Run(context.Background(), false)
	require.NoError(t, err)

	criteria := lifecycle.NewSweepCriteria(now, 24*time.Hour, 48*time.Hour)
	for id, prev := range before {
		got, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		moved := prev.Status != domain.ComplaintStatusPending && got.Status == domain.ComplaintStatusPending
		assert.Equal(t, criteria.Matches(&prev), moved, id)
	}
}
