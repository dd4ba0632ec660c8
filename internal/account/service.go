package account

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/grocerly/storefront/pkg/auth"
	"github.com/grocerly/storefront/pkg/messaging"
	"github.com/grocerly/storefront/pkg/messaging/events"
)

// Store defines the persistence operations the service needs.
type Store interface {
	Create(ctx context.Context, c *Customer) (*Customer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByPhone(ctx context.Context, phone string) (*Customer, error)
	UpdateProfile(ctx context.Context, c *Customer) (*Customer, error)
	SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetVerified(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, offset, limit int32) ([]Customer, error)
	Count(ctx context.Context) (int64, error)
}

// OTPStore keeps pending one-time codes.
type OTPStore interface {
	Save(ctx context.Context, phone, purpose, code string) error
	Get(ctx context.Context, phone, purpose string) (string, error)
	FailedAttempt(ctx context.Context, phone, purpose string) (int64, error)
	Delete(ctx context.Context, phone, purpose string) error
}

// TokenIssuer signs session tokens. Implemented by auth.TokenService.
type TokenIssuer interface {
	Issue(subject uuid.UUID, role string) (string, error)
}

// Config tunes OTP generation.
type Config struct {
	OTPLength      int
	OTPMaxAttempts int
}

// Service implements customer registration, login, OTP flows, and profile
// management.
type Service struct {
	store       Store
	otps        OTPStore
	tokens      TokenIssuer
	publisher   messaging.Publisher
	logger      *slog.Logger
	otpLength   int
	maxAttempts int64
}

// NewService creates an account service.
func NewService(store Store, otps OTPStore, tokens TokenIssuer, publisher messaging.Publisher, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		otps:        otps,
		tokens:      tokens,
		publisher:   publisher,
		logger:      logger.With("component", "account"),
		otpLength:   cfg.OTPLength,
		maxAttempts: int64(cfg.OTPMaxAttempts),
	}
}

// Register creates an unverified customer and sends a verification code to
// their phone. The session token is only issued after OTP verification.
func (s *Service) Register(ctx context.Context, c *Customer, password string) (*Customer, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	c.ID = uuid.New()
	c.PasswordHash = string(hash)

	created, err := s.store.Create(ctx, c)
	if err != nil {
		return nil, err
	}

	if err := s.RequestOTP(ctx, created.Phone, OTPPurposeVerify); err != nil {
		s.logger.ErrorContext(ctx, "failed to send verification code after registration",
			"customer_id", created.ID, "error", err)
	}
	return created, nil
}

// Login checks credentials and returns a session token.
func (s *Service) Login(ctx context.Context, phone, password string) (string, *Customer, error) {
	c, err := s.store.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !c.Active {
		return "", nil, ErrDisabled
	}

	token, err := s.tokens.Issue(c.ID, auth.RoleCustomer)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, c, nil
}

// RequestOTP generates a fresh code for the phone and hands it to the
// notifier via the event bus. Requesting a code for an unknown phone is an
// ErrNotFound so callers can render a useful message; the code itself never
// appears in logs.
func (s *Service) RequestOTP(ctx context.Context, phone, purpose string) error {
	if _, err := s.store.FindByPhone(ctx, phone); err != nil {
		return err
	}

	code, err := generateCode(s.otpLength)
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}
	if err := s.otps.Save(ctx, phone, purpose, code); err != nil {
		return err
	}

	if s.publisher != nil {
		event := events.OTPRequestedEvent{
			Phone:       phone,
			Code:        code,
			Purpose:     purpose,
			RequestedAt: time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			return fmt.Errorf("failed to publish otp event: %w", err)
		}
	}
	s.logger.InfoContext(ctx, "otp requested", "purpose", purpose)
	return nil
}

// VerifyOTP checks the submitted code. On success for the verify purpose the
// customer is marked verified and a session token is issued.
func (s *Service) VerifyOTP(ctx context.Context, phone, purpose, code string) (string, *Customer, error) {
	c, err := s.store.FindByPhone(ctx, phone)
	if err != nil {
		return "", nil, err
	}

	if err := s.consumeOTP(ctx, phone, purpose, code); err != nil {
		return "", nil, err
	}

	if purpose == OTPPurposeVerify && !c.Verified {
		if err := s.store.SetVerified(ctx, c.ID); err != nil {
			return "", nil, err
		}
		c.Verified = true
	}

	token, err := s.tokens.Issue(c.ID, auth.RoleCustomer)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, c, nil
}

// ResetPassword verifies a reset code and replaces the password in one step.
func (s *Service) ResetPassword(ctx context.Context, phone, code, newPassword string) error {
	c, err := s.store.FindByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if err := s.consumeOTP(ctx, phone, OTPPurposeReset, code); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.store.SetPassword(ctx, c.ID, string(hash))
}

// Profile returns the customer's own record.
func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*Customer, error) {
	return s.store.FindByID(ctx, id)
}

// UpdateProfile overwrites the customer's editable fields.
func (s *Service) UpdateProfile(ctx context.Context, c *Customer) (*Customer, error) {
	return s.store.UpdateProfile(ctx, c)
}

// Customers returns one page of customers plus the total count, for the back
// office.
func (s *Service) Customers(ctx context.Context, offset, limit int32) ([]Customer, int64, error) {
	customers, err := s.store.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

// SetActive enables or disables a customer, for the back office.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.store.SetActive(ctx, id, active)
}

// consumeOTP validates and discards a pending code. A mismatch burns one
// attempt; exhausting the cap discards the code itself.
func (s *Service) consumeOTP(ctx context.Context, phone, purpose, code string) error {
	pending, err := s.otps.Get(ctx, phone, purpose)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(pending), []byte(code)) != 1 {
		attempts, aerr := s.otps.FailedAttempt(ctx, phone, purpose)
		if aerr != nil {
			return aerr
		}
		if attempts >= s.maxAttempts {
			if derr := s.otps.Delete(ctx, phone, purpose); derr != nil {
				return derr
			}
		}
		return ErrOTPInvalid
	}
	return s.otps.Delete(ctx, phone, purpose)
}

// generateCode draws n decimal digits from crypto/rand.
func generateCode(n int) (string, error) {
	return readCode(rand.Reader, n)
}

// readCode maps random bytes to digits. Bytes of 250 and above are discarded
// so that every digit is equally likely.
func readCode(r io.Reader, n int) (string, error) {
	digits := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(digits) < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= 250 {
				continue
			}
			digits = append(digits, '0'+b%10)
			if len(digits) == n {
				break
			}
		}
	}
	return string(digits), nil
}
