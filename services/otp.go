package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrOTPNotFound        = errors.New("otp not found or expired")
	ErrOTPInvalid         = errors.New("invalid otp")
	ErrOTPTooManyAttempts = errors.New("too many incorrect attempts, request a new otp")
	ErrOTPCooldown        = errors.New("otp recently sent, wait before requesting another")
	ErrOTPRateLimited     = errors.New("too many otp requests")
)

const otpDigits = 6

// OTPRecord is what is kept for a phone number between send and verify.
type OTPRecord struct {
	Hash     string
	SentAt   time.Time
	Attempts int
}

type CodeStore interface {
	Save(ctx context.Context, phone string, rec OTPRecord, ttl time.Duration) error
	Get(ctx context.Context, phone string) (*OTPRecord, error)
	IncrementAttempts(ctx context.Context, phone string) (int, error)
	Delete(ctx context.Context, phone string) error
}

type RateLimiter interface {
	Consume(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfter time.Duration, err error)
}

// Sender delivers a code to a phone. The SMS provider sits behind it.
type Sender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// LogSender writes codes to the log instead of delivering them. Local development only.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) SendOTP(ctx context.Context, phone, code string) error {
	s.Logger.Info("otp generated", "phone", phone, "code", code)
	return nil
}

type OTPConfig struct {
	TTL         time.Duration
	Cooldown    time.Duration
	MaxAttempts int
	SendLimit   int
	SendWindow  time.Duration
	// VerifyLimit caps verify calls per phone per SendWindow, across codes.
	VerifyLimit int
}

func DefaultOTPConfig() OTPConfig {
	return OTPConfig{
		TTL:         5 * time.Minute,
		Cooldown:    30 * time.Second,
		MaxAttempts: 5,
		SendLimit:   5,
		SendWindow:  10 * time.Minute,
		VerifyLimit: 10,
	}
}

// RateLimitError carries how long the caller should wait.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string { return ErrOTPRateLimited.Error() }
func (e *RateLimitError) Unwrap() error { return ErrOTPRateLimited }

type OTPService struct {
	store   CodeStore
	limiter RateLimiter
	sender  Sender
	logger  *slog.Logger
	cfg     OTPConfig

	now      func() time.Time
	generate func() (string, error)
}

func NewOTPService(store CodeStore, limiter RateLimiter, sender Sender, logger *slog.Logger, cfg OTPConfig) *OTPService {
	return &OTPService{
		store:    store,
		limiter:  limiter,
		sender:   sender,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		generate: randomCode,
	}
}

// Send issues a fresh code for phone. It is also used for resends; the cooldown
// applies to both.
func (s *OTPService) Send(ctx context.Context, phone string) error {
	if err := s.consume(ctx, "otp_send", phone, s.cfg.SendLimit); err != nil {
		return err
	}

	existing, err := s.store.Get(ctx, phone)
	if err != nil && !errors.Is(err, ErrOTPNotFound) {
		return fmt.Errorf("load otp: %w", err)
	}
	if existing != nil && s.now().Sub(existing.SentAt) < s.cfg.Cooldown {
		return ErrOTPCooldown
	}

	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}

	rec := OTPRecord{Hash: string(hash), SentAt: s.now()}
	if err := s.store.Save(ctx, phone, rec, s.cfg.TTL); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}

	if err := s.sender.SendOTP(ctx, phone, code); err != nil {
		_ = s.store.Delete(ctx, phone)
		return fmt.Errorf("deliver otp: %w", err)
	}
	return nil
}

// Verify checks code against the pending otp for phone. A correct code is consumed.
// The attempt is counted before the comparison, so concurrent guesses cannot get past
// MaxAttempts.
func (s *OTPService) Verify(ctx context.Context, phone, code string) error {
	if err := s.consume(ctx, "otp_verify", phone, s.cfg.VerifyLimit); err != nil {
		return err
	}

	rec, err := s.store.Get(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrOTPNotFound) {
			return ErrOTPNotFound
		}
		return fmt.Errorf("load otp: %w", err)
	}

	attempts, err := s.store.IncrementAttempts(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrOTPNotFound) {
			return ErrOTPNotFound
		}
		return fmt.Errorf("record otp attempt: %w", err)
	}
	if attempts > s.cfg.MaxAttempts {
		_ = s.store.Delete(ctx, phone)
		return ErrOTPTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.Hash), []byte(code)) != nil {
		if attempts >= s.cfg.MaxAttempts {
			_ = s.store.Delete(ctx, phone)
			return ErrOTPTooManyAttempts
		}
		return ErrOTPInvalid
	}

	if err := s.store.Delete(ctx, phone); err != nil {
		s.logger.Warn("failed to clear verified otp", "phone", phone, "error", err)
	}
	return nil
}

// consume charges one request against the per-phone limit for scope. Limiter
// failures fail open.
func (s *OTPService) consume(ctx context.Context, scope, phone string, limit int) error {
	if s.limiter == nil || limit <= 0 {
		return nil
	}
	count, retryAfter, err := s.limiter.Consume(ctx, scope, phone, limit, s.cfg.SendWindow)
	if err != nil {
		s.logger.Warn("otp rate limiter unavailable", "scope", scope, "error", err)
		return nil
	}
	if count > limit {
		return &RateLimitError{RetryAfter: retryAfter}
	}
	return nil
}

// ValidCode reports whether code has the otp shape: exactly six digits.
func ValidCode(code string) bool {
	if len(code) != otpDigits {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
