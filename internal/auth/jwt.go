package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"declaration-platform/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrUnauthenticated is the root of every token rejection.
	ErrUnauthenticated = errors.New("unauthenticated")

	ErrMissingToken    = fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	ErrMalformedHeader = fmt.Errorf("%w: malformed authorization header", ErrUnauthenticated)
	ErrInvalidToken    = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	ErrRevokedToken    = fmt.Errorf("%w: token revoked", ErrUnauthenticated)

	ErrNoDenylist = errors.New("auth: revocation denylist not configured")
)

// Denylist records revoked token ids until they would have expired anyway.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Manager struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	leeway   time.Duration

	roles    RoleResolver
	denylist Denylist
}

type Option func(*Manager)

func WithRoleResolver(r RoleResolver) Option {
	return func(m *Manager) { m.roles = r }
}

func WithDenylist(d Denylist) Option {
	return func(m *Manager) { m.denylist = d }
}

func NewManager(cfg config.AuthConfig, opts ...Option) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, errors.New("access token ttl must be positive")
	}

	role := RoleAdmin
	if cfg.DefaultRole != "" {
		r, ok := ParseRole(cfg.DefaultRole)
		if !ok {
			return nil, fmt.Errorf("unknown default role %q", cfg.DefaultRole)
		}
		role = r
	}

	m := &Manager{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		ttl:      cfg.AccessTokenTTL,
		leeway:   cfg.Leeway,
		roles:    StaticRoleResolver{Role: role},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Token is a signed access token together with the metadata callers need
// without re-parsing it.
type Token struct {
	Value     string
	ID        string
	Role      Role
	ExpiresAt time.Time
}

/* ===================== ISSUE ===================== */

// IssueToken mints an access token for username. The username is not checked
// against any credential store; the role comes from the configured resolver.
func (m *Manager) IssueToken(ctx context.Context, now time.Time, username string) (Token, error) {
	role, err := m.roles.ResolveRole(ctx, username)
	if err != nil {
		return Token{}, fmt.Errorf("resolve role: %w", err)
	}
	if _, ok := ParseRole(string(role)); !ok {
		return Token{}, fmt.Errorf("resolver returned unknown role %q", role)
	}

	jti := uuid.NewString()
	exp := now.Add(m.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Audience:  audienceOrNil(m.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        jti,
		},
		Username: username,
		Role:     role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, ID: jti, Role: role, ExpiresAt: claims.ExpiresAt.Time}, nil
}

/* ===================== VERIFY ===================== */

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, tok, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMalformedHeader
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", ErrMalformedHeader
	}
	return tok, nil
}

// Verify checks signature, algorithm, timestamps and the custom claims of
// tokenString as of now. Every rejection wraps ErrUnauthenticated; a
// denylist lookup failure does not.
func (m *Manager) Verify(ctx context.Context, tokenString string, now time.Time) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(m.leeway),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	var claims Claims
	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Username == "" {
		return Claims{}, fmt.Errorf("%w: username missing", ErrInvalidToken)
	}
	if _, ok := ParseRole(string(claims.Role)); !ok {
		return Claims{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	if m.denylist != nil && claims.ID != "" {
		revoked, err := m.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return Claims{}, fmt.Errorf("auth: denylist lookup: %w", err)
		}
		if revoked {
			return Claims{}, ErrRevokedToken
		}
	}

	return claims, nil
}

/* ===================== REVOKE ===================== */

// Revoke denies the token described by claims until its natural expiry.
func (m *Manager) Revoke(ctx context.Context, claims Claims) error {
	if m.denylist == nil {
		return ErrNoDenylist
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return fmt.Errorf("%w: token has no id or expiry", ErrInvalidToken)
	}
	return m.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}
