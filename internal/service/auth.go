// Package service contains application services for authentication and samples.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	pkgcrypto "github.com/and161185/sample-dispatch/internal/crypto"
	"github.com/and161185/sample-dispatch/internal/errs"
	"github.com/and161185/sample-dispatch/internal/limiter"
	"github.com/and161185/sample-dispatch/internal/model"
	"github.com/and161185/sample-dispatch/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// SessionTTL is the fixed validity of an issued session token.
const SessionTTL = 24 * time.Hour

// Clock returns the current time. Injected so tests can pin "now".
type Clock func() time.Time

func orNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// AuthService defines registration, login and token verification.
type AuthService interface {
	// Register creates a new agent with secure password hashing.
	Register(ctx context.Context, name, phone, password string) (model.AgentPublic, error)
	// Login applies rate-limiting, checks credentials and issues a session token.
	Login(ctx context.Context, phone, password, ip string) (model.Tokens, model.AgentPublic, error)
	// Verify checks a session token and returns the agent it names.
	Verify(token string) (uuid.UUID, error)
}

type AuthServiceImpl struct {
	agents  repository.AgentRepository
	signKey []byte
	lim     limiter.Limiter
	now     Clock
	verify  func(password, encoded string) bool
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// decoyHash returns a digest that no password matches. Unknown phones are
// checked against it so both login failures cost one argon2id derivation.
func decoyHash() string {
	dummyOnce.Do(func() {
		b, err := pkgcrypto.RandBytes(16)
		if err != nil {
			b = []byte("sample-dispatch-decoy")
		}
		h, err := pkgcrypto.HashPassword(string(b))
		if err == nil {
			dummyHash = h
		}
	})
	return dummyHash
}

// NewAuthService constructs AuthService with required dependencies.
// A nil limiter disables rate limiting; a nil clock means time.Now.
func NewAuthService(agents repository.AgentRepository, signKey []byte, lim limiter.Limiter, clock Clock) *AuthServiceImpl {
	if lim == nil {
		lim = limiter.Nop{}
	}
	return &AuthServiceImpl{
		agents:  agents,
		signKey: signKey,
		lim:     lim,
		now:     orNow(clock),
		verify:  pkgcrypto.VerifyPassword,
	}
}

// Register validates input, hashes the password and stores the agent.
func (s *AuthServiceImpl) Register(ctx context.Context, name, phone, password string) (model.AgentPublic, error) {
	name, phone = strings.TrimSpace(name), strings.TrimSpace(phone)
	if name == "" || phone == "" || password == "" {
		return model.AgentPublic{}, fmt.Errorf("%w: name, phone, and password are required", errs.ErrValidation)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return model.AgentPublic{}, err
	}
	hash, err := pkgcrypto.HashPassword(password)
	if err != nil {
		return model.AgentPublic{}, err
	}

	a := &model.Agent{
		ID:           id,
		Name:         name,
		Phone:        phone,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.agents.Create(ctx, a); err != nil {
		return model.AgentPublic{}, err
	}
	return a.Public(), nil
}

// Login authenticates with rate limiting by (phone, ip). Unknown phone and
// wrong password both yield errs.ErrUnauthorized.
func (s *AuthServiceImpl) Login(ctx context.Context, phone, password, ip string) (model.Tokens, model.AgentPublic, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return model.Tokens{}, model.AgentPublic{}, fmt.Errorf("%w: phone and password are required", errs.ErrValidation)
	}
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, phone, ipHash)
	if err != nil {
		return model.Tokens{}, model.AgentPublic{}, err
	}
	if !allowed {
		return model.Tokens{}, model.AgentPublic{}, errs.ErrRateLimited
	}

	a, err := s.agents.GetByPhone(ctx, phone)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, model.AgentPublic{}, err
	}
	encoded := decoyHash()
	if err == nil {
		encoded = a.PasswordHash
	}
	if !s.verify(password, encoded) || err != nil {
		if blocked, _, ferr := s.lim.Failure(ctx, phone, ipHash); ferr == nil && blocked {
			return model.Tokens{}, model.AgentPublic{}, errs.ErrRateLimited
		}
		return model.Tokens{}, model.AgentPublic{}, errs.ErrUnauthorized
	}

	// best-effort reset
	_ = s.lim.Success(ctx, phone, ipHash)

	tok, err := s.issueToken(a.ID)
	if err != nil {
		return model.Tokens{}, model.AgentPublic{}, err
	}
	return tok, a.Public(), nil
}

// issueToken creates a signed HS256 JWT for the given agent.
func (s *AuthServiceImpl) issueToken(agentID uuid.UUID) (model.Tokens, error) {
	if len(s.signKey) == 0 {
		return model.Tokens{}, errs.ErrSigningKeyMissing
	}
	// JWT NumericDate has second precision; advertise the same instant.
	now := s.now().Truncate(time.Second)
	exp := now.Add(SessionTTL)
	claims := jwt.RegisteredClaims{
		Subject:   agentID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: signed, ExpiresAt: exp}, nil
}

// Verify parses and validates token against the signing key and the clock.
// It never touches storage.
func (s *AuthServiceImpl) Verify(token string) (uuid.UUID, error) {
	if len(s.signKey) == 0 {
		return uuid.Nil, errs.ErrSigningKeyMissing
	}
	if strings.TrimSpace(token) == "" {
		return uuid.Nil, fmt.Errorf("%w: token required", errs.ErrUnauthorized)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	var claims jwt.RegisteredClaims
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.signKey, nil
	})
	if err != nil || !parsed.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, fmt.Errorf("%w: token expired", errs.ErrUnauthorized)
		}
		return uuid.Nil, fmt.Errorf("%w: invalid token", errs.ErrUnauthorized)
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", errs.ErrUnauthorized)
	}
	return id, nil
}
