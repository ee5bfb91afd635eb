// Package auth handles accounts, password sign-in, OAuth sign-in and the
// opaque session tokens that identify API callers.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"knouxart/internal/storage"
)

// Messages are user facing and kept in Arabic, the product's default language.
var (
	ErrCredentialsRequired = errors.New("البريد الإلكتروني وكلمة المرور مطلوبان")
	ErrPasswordTooShort    = errors.New("كلمة المرور يجب أن تكون 8 أحرف على الأقل")
	ErrEmailTaken          = errors.New("البريد الإلكتروني مستخدم بالفعل")
	ErrLoginRequired       = errors.New("الرجاء إدخال البريد الإلكتروني وكلمة المرور")
	ErrUnknownEmail        = errors.New("البريد الإلكتروني غير صحيح")
	ErrWrongPassword       = errors.New("كلمة المرور غير صحيحة")
	ErrUnauthorized        = errors.New("غير مصرح")
	ErrNoEmail             = errors.New("الحساب لا يحتوي على بريد إلكتروني")
)

const (
	MinPasswordLength = 8
	BcryptCost        = 10
	tokenBytes        = 32
)

// Store is the persistence the service needs.
type Store interface {
	GetUser(id string) (*storage.User, error)
	GetUserByEmail(email string) (*storage.User, error)
	CreateUser(u *storage.User) error
	CreateSession(a *storage.AuthSession) error
	GetSession(token string) (*storage.AuthSession, error)
	DeleteSession(token string) error
	DeleteExpiredSessions(now time.Time) (int64, error)
}

type Service struct {
	store     Store
	ttl       time.Duration
	providers map[string]*Provider
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(store Store, ttl time.Duration, logger zerolog.Logger, providers ...*Provider) *Service {
	s := &Service{
		store:     store,
		ttl:       ttl,
		providers: make(map[string]*Provider),
		logger:    logger.With().Str("component", "auth").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, p := range providers {
		s.providers[p.Name] = p
	}
	return s
}

// Provider returns the configured OAuth provider with the given name.
func (s *Service) Provider(name string) (*Provider, bool) {
	p, ok := s.providers[name]
	return p, ok
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Register creates a password account. The display name defaults to the
// local part of the email address.
func (s *Service) Register(email, password, name string) (*storage.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	existing, err := s.store.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	hashed := string(hash)

	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	u := &storage.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: &hashed,
		Name:         name,
		Provider:     storage.ProviderCredentials,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateUser(u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Str("user", u.ID).Msg("account registered")
	return u, nil
}

// Login checks a password account's credentials.
func (s *Service) Login(email, password string) (*storage.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrLoginRequired
	}

	u, err := s.store.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil || u.PasswordHash == nil {
		return nil, ErrUnknownEmail
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrWrongPassword
	}
	return u, nil
}

// StartSession issues a new session token for the user.
func (s *Service) StartSession(userID string) (*storage.AuthSession, error) {
	token, err := randomToken(tokenBytes)
	if err != nil {
		return nil, err
	}

	now := s.now()
	a := &storage.AuthSession{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.store.CreateSession(a); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return a, nil
}

// Authenticate resolves a session token to its user. Unknown and expired
// tokens yield ErrUnauthorized; expired ones are removed.
func (s *Service) Authenticate(token string) (*storage.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	a, err := s.store.GetSession(token)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if a == nil {
		return nil, ErrUnauthorized
	}
	if !s.now().Before(a.ExpiresAt) {
		if err := s.store.DeleteSession(token); err != nil {
			s.logger.Warn().Err(err).Msg("failed to delete expired session")
		}
		return nil, ErrUnauthorized
	}

	u, err := s.store.GetUser(a.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, ErrUnauthorized
	}
	return u, nil
}

func (s *Service) Logout(token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(token)
}

// PurgeExpired drops every expired session.
func (s *Service) PurgeExpired() (int64, error) {
	return s.store.DeleteExpiredSessions(s.now())
}

// SignInOAuth returns the account matching the provider profile's email,
// creating it on first sign-in.
func (s *Service) SignInOAuth(provider string, p *Profile) (*storage.User, error) {
	if p == nil || p.Email == "" {
		return nil, ErrNoEmail
	}

	u, err := s.store.GetUserByEmail(p.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u != nil {
		return u, nil
	}

	u = &storage.User{
		ID:        uuid.NewString(),
		Email:     p.Email,
		Name:      p.Name,
		Image:     p.Image,
		Provider:  provider,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateUser(u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Str("user", u.ID).Str("provider", provider).Msg("account provisioned")
	return u, nil
}

// NewState returns a random OAuth state value.
func NewState() (string, error) {
	return randomToken(16)
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
