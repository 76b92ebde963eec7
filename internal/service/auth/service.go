package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/glowclinic/booking-api/internal/email"
	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/internal/repository"
	"github.com/glowclinic/booking-api/pkg/auth"
	"github.com/glowclinic/booking-api/pkg/clock"
	apperrors "github.com/glowclinic/booking-api/pkg/errors"
	"github.com/glowclinic/booking-api/pkg/logger"
	"github.com/glowclinic/booking-api/pkg/otp"
)

const emailDispatchBudget = 15 * time.Second

// Service implements passwordless customer login and password-based staff
// login. Customer authentication is a two-step email OTP exchange; the code
// is single-use and expires with the store's TTL.
type Service struct {
	users    repository.UserRepository
	admins   repository.AdminRepository
	otps     *otp.Store
	jwtSvc   *auth.JWTService
	emailSvc email.Service
	clk      clock.Clock
	logger   *logger.Logger

	tokenExpiry time.Duration
}

func NewService(
	users repository.UserRepository,
	admins repository.AdminRepository,
	otps *otp.Store,
	jwtSvc *auth.JWTService,
	emailSvc email.Service,
	clk clock.Clock,
	logger *logger.Logger,
	tokenExpiry time.Duration,
) *Service {
	return &Service{
		users:       users,
		admins:      admins,
		otps:        otps,
		jwtSvc:      jwtSvc,
		emailSvc:    emailSvc,
		clk:         clk,
		logger:      logger,
		tokenExpiry: tokenExpiry,
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Register creates a customer account. Email addresses are unique.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	addr := normalizeEmail(req.Email)

	_, err := s.users.GetByEmail(ctx, addr)
	if err == nil {
		return nil, apperrors.Validation("an account with this email already exists")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Internal(err)
	}

	u := &model.User{
		Base:   model.Base{ID: uuid.New()},
		Name:   strings.TrimSpace(req.Name),
		Email:  addr,
		Mobile: strings.TrimSpace(req.Mobile),
		Status: model.UserStatusActive,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, apperrors.Internal(err)
	}
	return u, nil
}

// RequestOTP generates a login code for a registered customer and mails it.
// The mail send is fire-and-forget so the endpoint stays fast.
func (s *Service) RequestOTP(ctx context.Context, emailAddr string) error {
	addr := normalizeEmail(emailAddr)

	u, err := s.users.GetByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("account")
		}
		return apperrors.Internal(err)
	}
	if u.Status == model.UserStatusBlocked {
		return apperrors.Forbidden("this account has been blocked")
	}

	code := otp.Generate()
	s.otps.Put(addr, code)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emailDispatchBudget)
		defer cancel()
		if err := s.emailSvc.SendLoginOTP(ctx, addr, code); err != nil {
			s.logger.Error(err, "login otp dispatch failed", "email", addr)
		}
	}()

	return nil
}

// VerifyOTP exchanges a valid login code for an access token. The code is
// consumed on success, so replaying it fails.
func (s *Service) VerifyOTP(ctx context.Context, emailAddr, code string) (*model.TokenResponse, *model.User, error) {
	addr := normalizeEmail(emailAddr)

	if !s.otps.Verify(addr, code) {
		return nil, nil, apperrors.Unauthorized("invalid or expired code")
	}

	u, err := s.users.GetByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperrors.NotFound("account")
		}
		return nil, nil, apperrors.Internal(err)
	}

	now := s.clk.Now()
	u.LastLoginAt = &now
	if err := s.users.Update(ctx, u); err != nil {
		s.logger.Error(err, "failed to record last login", "user", u.ID)
	}

	token, err := s.jwtSvc.GenerateToken(u.ID, u.Email, auth.RoleCustomer)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokenExpiry.Seconds()),
	}, u, nil
}

// AdminLogin authenticates a staff account with email and password.
func (s *Service) AdminLogin(ctx context.Context, emailAddr, password string) (*model.TokenResponse, *model.Admin, error) {
	addr := normalizeEmail(emailAddr)

	a, err := s.admins.GetByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, nil, apperrors.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid credentials")
	}

	token, err := s.jwtSvc.GenerateToken(a.ID, a.Email, auth.RoleAdmin)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokenExpiry.Seconds()),
	}, a, nil
}

// GetProfile returns the authenticated customer's account.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("account")
		}
		return nil, apperrors.Internal(err)
	}
	return u, nil
}
