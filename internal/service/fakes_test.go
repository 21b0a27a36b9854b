package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/notify"
	"github.com/spec-kit/complaint-service/internal/repository"
)

var (
	t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
)

func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }

func methodPtr(m domain.PaymentMethod) *domain.PaymentMethod { return &m }

func statusPtr(s domain.ComplaintStatus) *domain.ComplaintStatus { return &s }

type fixedClock struct{ at time.Time }

func (c *fixedClock) Now() time.Time { return c.at }

func (c *fixedClock) Advance(d time.Duration) { c.at = c.at.Add(d) }

type fakeTx struct {
	calls int
}

func (f *fakeTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeComplaintRepo struct {
	mu      sync.Mutex
	items   map[string]*domain.Complaint
	seq     int
	updates int
	smsLogs map[string]string
	taken   map[string]bool
	staff   *fakeStaffRepo
}

func newFakeComplaintRepo() *fakeComplaintRepo {
	return &fakeComplaintRepo{
		items:   map[string]*domain.Complaint{},
		smsLogs: map[string]string{},
		taken:   map[string]bool{},
	}
}

func (r *fakeComplaintRepo) put(c domain.Complaint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := c
	r.items[c.ID] = &cp
	r.taken[c.TicketNumber] = true
}

func (r *fakeComplaintRepo) Create(_ context.Context, c *domain.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken[c.TicketNumber] {
		return fmt.Errorf("duplicate ticket %s", c.TicketNumber)
	}
	r.seq++
	c.ID = fmt.Sprintf("c-%d", r.seq)
	cp := *c
	r.items[c.ID] = &cp
	r.taken[c.TicketNumber] = true
	return nil
}

func (r *fakeComplaintRepo) Update(_ context.Context, c *domain.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *c
	r.items[c.ID] = &cp
	r.updates++
	return nil
}

func (r *fakeComplaintRepo) UpdateSMSLog(_ context.Context, id, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	c.SMSLog = &message
	r.smsLogs[id] = message
	return nil
}

func (r *fakeComplaintRepo) GetByID(_ context.Context, id string) (*domain.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	if cp.AssignedEngineerID != nil && r.staff != nil {
		if acc, ok := r.staff.items[*cp.AssignedEngineerID]; ok {
			name := acc.Username
			cp.EngineerUsername = &name
		}
	}
	return &cp, nil
}

func (r *fakeComplaintRepo) TicketNumberExists(_ context.Context, ticket string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.taken[ticket], nil
}

func (r *fakeComplaintRepo) List(_ context.Context, f repository.ComplaintFilter) ([]domain.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Complaint
	for _, c := range r.items {
		if matchesFilter(c, f) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *fakeComplaintRepo) Count(_ context.Context, f repository.ComplaintFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.items {
		if matchesFilter(c, f) {
			n++
		}
	}
	return n, nil
}

func (r *fakeComplaintRepo) MarkPending(_ context.Context, f repository.ComplaintFilter, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.items {
		if matchesFilter(c, f) {
			c.Status = domain.ComplaintStatusPending
			c.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func matchesFilter(c *domain.Complaint, f repository.ComplaintFilter) bool {
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		hay := strings.ToLower(c.TicketNumber + " " + c.CustomerName + " " + c.MobileNumber)
		if !strings.Contains(hay, term) {
			return false
		}
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if c.Status == s {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if f.AssignedEngineerID != nil && !assignedTo(c, *f.AssignedEngineerID) {
		return false
	}
	if f.Unassigned && c.IsAssigned() {
		return false
	}
	if f.Assigned && !c.IsAssigned() {
		return false
	}
	if f.PaymentStatus != nil && c.PaymentStatus != *f.PaymentStatus {
		return false
	}
	if f.CreatedFrom != nil && c.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedBefore != nil && !c.CreatedAt.Before(*f.CreatedBefore) {
		return false
	}
	if f.CreatedNotAfter != nil && c.CreatedAt.After(*f.CreatedNotAfter) {
		return false
	}
	if f.AssignedNotAfter != nil && (c.AssignedDate == nil || c.AssignedDate.After(*f.AssignedNotAfter)) {
		return false
	}
	if f.Unresolved && c.ResolvedDate != nil {
		return false
	}
	return true
}

type fakeStaffRepo struct {
	items     map[string]*domain.StaffAccount
	seq       int
	passwords map[string]string
}

func newFakeStaffRepo(accounts ...domain.StaffAccount) *fakeStaffRepo {
	r := &fakeStaffRepo{items: map[string]*domain.StaffAccount{}, passwords: map[string]string{}}
	for _, a := range accounts {
		cp := a
		r.items[a.ID] = &cp
	}
	return r
}

func (r *fakeStaffRepo) Create(_ context.Context, a *domain.StaffAccount) error {
	r.seq++
	a.ID = fmt.Sprintf("s-%d", r.seq)
	cp := *a
	r.items[a.ID] = &cp
	return nil
}

func (r *fakeStaffRepo) Update(_ context.Context, a *domain.StaffAccount) error {
	if _, ok := r.items[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *a
	r.items[a.ID] = &cp
	return nil
}

func (r *fakeStaffRepo) UpdatePassword(_ context.Context, id, hash string) error {
	a, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.PasswordHash = hash
	r.passwords[id] = hash
	return nil
}

func (r *fakeStaffRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func (r *fakeStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffAccount, error) {
	a, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (r *fakeStaffRepo) GetByUsername(_ context.Context, username string) (*domain.StaffAccount, error) {
	for _, a := range r.items {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeStaffRepo) List(_ context.Context, f repository.StaffFilter) ([]domain.StaffAccount, error) {
	var out []domain.StaffAccount
	for _, a := range r.items {
		if f.Role != nil && a.Role != *f.Role {
			continue
		}
		if f.Active != nil && a.Active != *f.Active {
			continue
		}
		if f.ExcludeSuperusers && a.IsSuperuser {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *fakeStaffRepo) Count(ctx context.Context, f repository.StaffFilter) (int, error) {
	items, _ := r.List(ctx, f)
	return len(items), nil
}

type fakeProductRepo struct {
	items map[string]*domain.Product
	seq   int
}

func newFakeProductRepo(products ...domain.Product) *fakeProductRepo {
	r := &fakeProductRepo{items: map[string]*domain.Product{}}
	for _, p := range products {
		cp := p
		r.items[p.ID] = &cp
	}
	return r
}

func (r *fakeProductRepo) Create(_ context.Context, p *domain.Product) error {
	r.seq++
	p.ID = fmt.Sprintf("p-%d", r.seq)
	cp := *p
	r.items[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *domain.Product) error {
	if _, ok := r.items[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *p
	r.items[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) List(_ context.Context, _ repository.ProductFilter) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SerialNumber < out[j].SerialNumber })
	return out, nil
}

func (r *fakeProductRepo) Count(_ context.Context, _ repository.ProductFilter) (int, error) {
	return len(r.items), nil
}

type fakeHistoryRepo struct {
	entries []domain.ComplaintHistory
}

func (r *fakeHistoryRepo) Create(_ context.Context, h *domain.ComplaintHistory) error {
	h.ID = fmt.Sprintf("h-%d", len(r.entries)+1)
	r.entries = append(r.entries, *h)
	return nil
}

func (r *fakeHistoryRepo) ListByComplaint(_ context.Context, id string) ([]domain.ComplaintHistory, error) {
	var out []domain.ComplaintHistory
	for _, e := range r.entries {
		if e.ComplaintID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) types() []domain.ComplaintChangeType {
	out := make([]domain.ComplaintChangeType, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.ChangeType
	}
	return out
}

type fakeNotificationRepo struct {
	records []domain.NotificationRecord
}

func (r *fakeNotificationRepo) Create(_ context.Context, rec *domain.NotificationRecord) error {
	rec.ID = fmt.Sprintf("n-%d", len(r.records)+1)
	r.records = append(r.records, *rec)
	return nil
}

func (r *fakeNotificationRepo) ListByMobile(_ context.Context, mobile string) ([]domain.NotificationRecord, error) {
	var out []domain.NotificationRecord
	for _, rec := range r.records {
		if rec.MobileNumber == mobile {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeResetRepo struct {
	tokens map[string]*repository.PasswordResetToken
	seq    int
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: map[string]*repository.PasswordResetToken{}}
}

func (r *fakeResetRepo) Create(_ context.Context, t *repository.PasswordResetToken) error {
	r.seq++
	t.ID = fmt.Sprintf("r-%d", r.seq)
	cp := *t
	r.tokens[t.TokenHash] = &cp
	return nil
}

func (r *fakeResetRepo) GetByHash(_ context.Context, hash string) (*repository.PasswordResetToken, error) {
	t, ok := r.tokens[hash]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (r *fakeResetRepo) MarkUsed(_ context.Context, id string, at time.Time) error {
	for _, t := range r.tokens {
		if t.ID == id && t.UsedAt == nil {
			used := at
			t.UsedAt = &used
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeSMS struct {
	sent []string
	err  error
}

func (f *fakeSMS) SendSMS(_ context.Context, mobile, message string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, mobile+"|"+message)
	return nil
}

type fakeEmail struct {
	sent []notify.EmailMessage
	err  error
}

func (f *fakeEmail) SendEmail(_ context.Context, msg notify.EmailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeCache struct {
	data map[string][]byte
	sets int
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (c *fakeCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *fakeCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.sets++
	return nil
}
