package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/notify"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// AuthService coordinates login and password flows.
type AuthService struct {
	staff      repository.StaffRepository
	resets     repository.PasswordResetRepository
	tx         repository.TxManager
	email      notify.EmailSender
	tokenMgr   *auth.TokenManager
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service. Email
// may be nil, in which case reset tokens are only logged at debug level.
type AuthDependencies struct {
	StaffRepo         repository.StaffRepository
	PasswordResetRepo repository.PasswordResetRepository
	TxManager         repository.TxManager
	Email             notify.EmailSender
	TokenManager      *auth.TokenManager
	Logger            *zap.Logger
	Clock             func() time.Time
}

// LoginResult is what a successful login hands back.
type LoginResult struct {
	Account   *domain.StaffAccount
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = systemClock
	}
	tokens := deps.TokenManager
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	}
	return &AuthService{
		staff:      deps.StaffRepo,
		resets:     deps.PasswordResetRepo,
		tx:         deps.TxManager,
		email:      deps.Email,
		tokenMgr:   tokens,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		now:        clock,
	}
}

// Login authenticates an account by username and password.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	account, err := s.staff.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !account.Active {
		return nil, apperrors.NewUnauthorized("account disabled")
	}
	token, exp, err := s.tokenMgr.GenerateToken(account)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Account: account, Token: token, ExpiresAt: exp}, nil
}

// ChangePassword verifies the current password before storing the new one.
func (s *AuthService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	account, err := s.staff.GetByID(ctx, accountID)
	if err != nil {
		return notFoundAs(err, "staff account")
	}
	if err := auth.ComparePassword(account.PasswordHash, currentPassword); err != nil {
		return apperrors.NewValidationError("password change rejected", map[string]any{"current_password": "current password is incorrect"})
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return apperrors.NewValidationError("password change rejected", map[string]any{"new_password": err.Error()})
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return notFoundAs(s.staff.UpdatePassword(ctx, account.ID, hash), "staff account")
}

// RequestPasswordReset issues a one-time token when the username and email
// match an active account. A mismatch returns nil so callers cannot probe
// for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, username, email string) error {
	account, err := s.staff.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if isNotFound(err) {
			s.logger.Info("password reset for unknown username")
			return nil
		}
		return err
	}
	if !account.Active || !strings.EqualFold(strings.TrimSpace(account.Email), strings.TrimSpace(email)) {
		s.logger.Info("password reset email mismatch", zap.String("account_id", account.ID))
		return nil
	}

	plain := uuid.NewString()
	token := &repository.PasswordResetToken{
		AccountID: account.ID,
		TokenHash: hashResetToken(plain),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return err
	}

	if s.email == nil {
		s.logger.Debug("password reset token issued without mail relay", zap.String("account_id", account.ID))
		return nil
	}
	if err := s.email.SendEmail(ctx, notify.PasswordResetEmail(account.Email, account.Username, plain)); err != nil {
		s.logger.Warn("password reset email failed", zap.String("account_id", account.ID), zap.Error(err))
	}
	return nil
}

// ConfirmPasswordReset redeems a reset token and stores the new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, plainToken, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return apperrors.NewValidationError("password reset rejected", map[string]any{"new_password": err.Error()})
	}
	token, err := s.resets.GetByHash(ctx, hashResetToken(strings.TrimSpace(plainToken)))
	if err != nil {
		if isNotFound(err) {
			return apperrors.NewValidationError("password reset rejected", map[string]any{"token": "invalid or expired token"})
		}
		return err
	}
	now := s.now()
	if !token.Usable(now) {
		return apperrors.NewValidationError("password reset rejected", map[string]any{"token": "invalid or expired token"})
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.resets.MarkUsed(ctx, token.ID, now); err != nil {
			if isNotFound(err) {
				return apperrors.NewValidationError("password reset rejected", map[string]any{"token": "invalid or expired token"})
			}
			return err
		}
		return notFoundAs(s.staff.UpdatePassword(ctx, token.AccountID, hash), "staff account")
	})
}

func hashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
