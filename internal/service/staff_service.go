package service

import (
	"context"
	"strings"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// StaffService manages staff accounts.
type StaffService struct {
	staff      repository.StaffRepository
	bcryptCost int
}

// StaffDependencies bundles repositories for staff management.
type StaffDependencies struct {
	StaffRepo repository.StaffRepository
}

// StaffCreateInput describes a new account. Role accepts the long-form
// aliases as well.
type StaffCreateInput struct {
	Username string
	Email    string
	FullName string
	Password string
	Role     string
}

// StaffUpdateInput describes a partial account update.
type StaffUpdateInput struct {
	Email    *string
	FullName *string
	Role     *string
	Active   *bool
	Password *string
}

// StaffListInput defines listing parameters.
type StaffListInput struct {
	Search string
	Role   *string
	Limit  int
	Offset int
}

// NewStaffService constructs the service.
func NewStaffService(cfg config.Config, deps StaffDependencies) *StaffService {
	return &StaffService{staff: deps.StaffRepo, bcryptCost: cfg.Auth.BcryptCost}
}

// Create adds a staff account.
func (s *StaffService) Create(ctx context.Context, input StaffCreateInput) (*domain.StaffAccount, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, apperrors.NewValidationError("invalid account", map[string]any{"username": "username is required"})
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, apperrors.NewValidationError("invalid account", map[string]any{"password": err.Error()})
	}
	if _, err := s.staff.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.NewConflict("username already taken", map[string]any{"username": username})
	} else if !isNotFound(err) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	account := &domain.StaffAccount{
		Username:     username,
		Email:        strings.TrimSpace(input.Email),
		FullName:     strings.TrimSpace(input.FullName),
		PasswordHash: hash,
		Role:         auth.ResolveRole(input.Role),
		Active:       true,
	}
	if err := s.staff.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Update changes an existing account.
func (s *StaffService) Update(ctx context.Context, id string, input StaffUpdateInput) (*domain.StaffAccount, error) {
	account, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "staff account")
	}
	if input.Email != nil {
		account.Email = strings.TrimSpace(*input.Email)
	}
	if input.FullName != nil {
		account.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Role != nil {
		account.Role = auth.ResolveRole(*input.Role)
	}
	if input.Active != nil {
		account.Active = *input.Active
	}
	if input.Password != nil && *input.Password != "" {
		if err := auth.ValidatePassword(*input.Password); err != nil {
			return nil, apperrors.NewValidationError("invalid account", map[string]any{"password": err.Error()})
		}
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		account.PasswordHash = hash
	}
	if err := s.staff.Update(ctx, account); err != nil {
		return nil, notFoundAs(err, "staff account")
	}
	return account, nil
}

// Delete removes an account. Superusers cannot be deleted.
func (s *StaffService) Delete(ctx context.Context, id string) error {
	account, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return notFoundAs(err, "staff account")
	}
	if account.IsSuperuser {
		return apperrors.NewForbidden("superuser accounts cannot be deleted")
	}
	return notFoundAs(s.staff.Delete(ctx, id), "staff account")
}

// Get returns one account.
func (s *StaffService) Get(ctx context.Context, id string) (*domain.StaffAccount, error) {
	account, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "staff account")
	}
	return account, nil
}

// List returns a page of non-superuser accounts.
func (s *StaffService) List(ctx context.Context, input StaffListInput) (*Page[domain.StaffAccount], error) {
	filter := repository.StaffFilter{Search: strings.TrimSpace(input.Search), ExcludeSuperusers: true}
	if input.Role != nil && strings.TrimSpace(*input.Role) != "" {
		role := auth.ResolveRole(*input.Role)
		filter.Role = &role
	}
	filter.Limit, filter.Offset = normalizePage(input.Limit, input.Offset)
	items, err := s.staff.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.staff.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.StaffAccount{}
	}
	return &Page[domain.StaffAccount]{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// ListAll returns every non-superuser account.
func (s *StaffService) ListAll(ctx context.Context) ([]domain.StaffAccount, error) {
	return s.staff.List(ctx, repository.StaffFilter{ExcludeSuperusers: true})
}

// ListEngineers returns the active engineers available for assignment.
func (s *StaffService) ListEngineers(ctx context.Context) ([]domain.StaffAccount, error) {
	role := domain.RoleEngineer
	active := true
	items, err := s.staff.List(ctx, repository.StaffFilter{Role: &role, Active: &active})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.StaffAccount{}
	}
	return items, nil
}
