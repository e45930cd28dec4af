// Package auth exchanges credentials for a session.
//
// Mock is a stand-in with no backend: it never checks passwords or existing
// accounts and hands out a fixed placeholder token. It is not for production
// use; a real credential service must implement Authenticator instead.
package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"animehub/internal/apperr"
	"animehub/pkg/models"
)

const (
	// DefaultLatency is the simulated round trip of every Mock call.
	DefaultLatency = 1500 * time.Millisecond

	// PlaceholderToken is the unverified bearer token Mock issues.
	PlaceholderToken = "dummy-jwt-token"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Register(ctx context.Context, name, email, password string) (*models.Session, error)
}

// namespace for login ids, so the same email always maps to the same user id
var loginNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("animehub:mock-auth"))

type Mock struct {
	latency time.Duration
	logger  *zap.Logger
}

var _ Authenticator = (*Mock)(nil)

// NewMock returns a Mock that waits latency before answering. A negative
// latency selects DefaultLatency.
func NewMock(latency time.Duration, logger *zap.Logger) *Mock {
	if latency < 0 {
		latency = DefaultLatency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mock{latency: latency, logger: logger.Named("auth")}
}

// Login accepts any non-empty email and password.
func (m *Mock) Login(ctx context.Context, email, password string) (*models.Session, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		m.logger.Info("login_rejected", zap.String("reason", "empty_field"))
		return nil, apperr.ErrInvalidCredentials
	}

	session := &models.Session{
		ID:    uuid.NewSHA1(loginNamespace, []byte(strings.ToLower(email))).String(),
		Name:  DisplayName(email),
		Email: email,
		Token: PlaceholderToken,
	}
	m.logger.Info("login_succeeded", zap.String("user_id", session.ID))
	return session, nil
}

// Register accepts any non-empty name, email and password and issues a new
// time-ordered id. It never reports an existing account.
func (m *Mock) Register(ctx context.Context, name, email, password string) (*models.Session, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		m.logger.Info("register_rejected", zap.String("reason", "missing_fields"))
		return nil, apperr.ErrMissingFields
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:    id.String(),
		Name:  name,
		Email: email,
		Token: PlaceholderToken,
	}
	m.logger.Info("register_succeeded", zap.String("user_id", session.ID))
	return session, nil
}

func (m *Mock) wait(ctx context.Context) error {
	if m.latency == 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DisplayName derives a name from the local part of an email address with
// its first letter upper-cased.
func DisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	r, size := utf8.DecodeRuneInString(local)
	if r == utf8.RuneError {
		return local
	}
	return string(unicode.ToUpper(r)) + local[size:]
}

// ValidateProfile checks an edited name and email before they replace the
// session's.
func ValidateProfile(name, email string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
		return apperr.ErrMissingFields
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Name != "" {
		return apperr.ErrInvalidEmail
	}
	return nil
}
