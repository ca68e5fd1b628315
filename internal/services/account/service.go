// Package account implements registration, login, token refresh and OTP
// challenges for the development stub API.
package account

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"github.com/developia-II/vendora-onboarding/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
)

type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type Config struct {
	OTPTTL            time.Duration
	OTPResendInterval time.Duration
}

type challenge struct {
	code      string
	expiresAt time.Time
}

type Service struct {
	users  domain.UserRepository
	tokens *utils.TokenIssuer
	cfg    Config
	log    *logrus.Entry
	now    func() time.Time

	mu         sync.Mutex
	challenges map[string]challenge
	limiters   map[string]*rate.Limiter
}

func NewService(users domain.UserRepository, tokens *utils.TokenIssuer, cfg Config) *Service {
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 10 * time.Minute
	}
	return &Service{
		users:      users,
		tokens:     tokens,
		cfg:        cfg,
		log:        logrus.WithField("component", "account"),
		now:        time.Now,
		challenges: make(map[string]challenge),
		limiters:   make(map[string]*rate.Limiter),
	}
}

// Register creates the account, issues tokens and sends the first OTP.
func (s *Service) Register(ctx context.Context, email, password, role string) (*domain.User, Tokens, error) {
	email = normalize(email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, Tokens{}, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, Tokens{}, ErrEmailTaken
		}
		return nil, Tokens{}, err
	}
	tokens, err := s.issue(u)
	if err != nil {
		return nil, Tokens{}, err
	}
	// The registration code counts against the resend interval.
	s.limiter(email).Allow()
	s.sendOTP(email)
	return u, tokens, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, Tokens, error) {
	u, err := s.users.GetByEmail(ctx, normalize(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, Tokens{}, ErrInvalidCredentials
		}
		return nil, Tokens{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, Tokens{}, ErrInvalidCredentials
	}
	tokens, err := s.issue(u)
	if err != nil {
		return nil, Tokens{}, err
	}
	return u, tokens, nil
}

// Refresh exchanges a refresh token for a new pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	claims, err := s.tokens.Verify(refreshToken, utils.TokenTypeRefresh)
	if err != nil {
		return Tokens{}, err
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return Tokens{}, err
	}
	return s.issue(u)
}

func (s *Service) issue(u *domain.User) (Tokens, error) {
	access, refresh, err := s.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{Access: access, Refresh: refresh}, nil
}

// VerifyOTP checks code against the open challenge of the user. A missing or
// expired challenge is domain.ErrNotFound, a wrong code domain.ErrInvalidCode.
func (s *Service) VerifyOTP(ctx context.Context, userID, code string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	ch, ok := s.challenges[u.Email]
	if ok && s.now().After(ch.expiresAt) {
		delete(s.challenges, u.Email)
		ok = false
	}
	if !ok {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	if ch.code != strings.TrimSpace(code) {
		s.mu.Unlock()
		return domain.ErrInvalidCode
	}
	delete(s.challenges, u.Email)
	s.mu.Unlock()

	return s.users.MarkVerified(ctx, u.ID)
}

// ResendOTP opens a new challenge for email. Requests faster than the resend
// interval are domain.ErrRateLimited.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	email = normalize(email)
	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		return err
	}
	if !s.limiter(email).Allow() {
		return domain.ErrRateLimited
	}
	s.sendOTP(email)
	return nil
}

func (s *Service) limiter(email string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	lim, ok := s.limiters[email]
	if !ok {
		every := rate.Inf
		if s.cfg.OTPResendInterval > 0 {
			every = rate.Every(s.cfg.OTPResendInterval)
		}
		lim = rate.NewLimiter(every, 1)
		s.limiters[email] = lim
	}
	return lim
}

func (s *Service) sendOTP(email string) {
	code := newCode()
	s.mu.Lock()
	s.challenges[email] = challenge{code: code, expiresAt: s.now().Add(s.cfg.OTPTTL)}
	s.mu.Unlock()
	// No mail transport in the stub: the code goes to the log.
	s.log.WithFields(logrus.Fields{"email": email, "otp": code}).Info("otp issued")
}

// PendingCode returns the open code for email. Tests use it in place of a mailbox.
func (s *Service) PendingCode(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.challenges[normalize(email)]
	return ch.code, ok
}

func newCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		panic(fmt.Sprintf("otp: read random: %v", err))
	}
	return fmt.Sprintf("%0*d", domain.OTPLength, n.Int64())
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
