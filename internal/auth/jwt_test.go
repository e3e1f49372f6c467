package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"declaration-platform/internal/config"
)

var issuedAt = time.Unix(1700000000, 0).UTC()

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:      "secret",
		AccessTokenTTL: time.Hour,
	}, opts...)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func TestNewManager_RequiresSecret(t *testing.T) {
	if _, err := NewManager(config.AuthConfig{AccessTokenTTL: time.Hour}); err == nil {
		t.Fatalf("expected error without secret")
	}
	if _, err := NewManager(config.AuthConfig{JWTSecret: "s", AccessTokenTTL: time.Hour, DefaultRole: "root"}); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestIssueAndVerify(t *testing.T) {
	m, err := NewManager(config.AuthConfig{
		JWTSecret:      "secret",
		JWTIssuer:      "issuer",
		JWTAudience:    "aud",
		AccessTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	tok, err := m.IssueToken(context.Background(), issuedAt, "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if strings.Count(tok.Value, ".") != 2 {
		t.Fatalf("expected three dot-delimited segments, got %q", tok.Value)
	}
	if !tok.ExpiresAt.Equal(issuedAt.Add(time.Hour)) {
		t.Fatalf("expected expiry at +1h, got %s", tok.ExpiresAt)
	}

	claims, err := m.Verify(context.Background(), tok.Value, issuedAt.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Username != "alice" || claims.Role != RoleAdmin || claims.ID != tok.ID {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.IssuedAt == nil || !claims.IssuedAt.Time.Equal(issuedAt) {
		t.Fatalf("expected iat to be set, got %+v", claims.IssuedAt)
	}
}

func TestIssue_DefaultRoleIsAdminRegardlessOfUsername(t *testing.T) {
	m := newTestManager(t)
	for _, u := range []string{"alice", "bob", "guest"} {
		tok, err := m.IssueToken(context.Background(), issuedAt, u)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		claims, err := m.Verify(context.Background(), tok.Value, issuedAt)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if claims.Role != RoleAdmin {
			t.Fatalf("expected Admin for %s, got %q", u, claims.Role)
		}
	}
}

type resolverFunc func(ctx context.Context, username string) (Role, error)

func (f resolverFunc) ResolveRole(ctx context.Context, username string) (Role, error) {
	return f(ctx, username)
}

func TestIssue_UsesRoleResolver(t *testing.T) {
	m := newTestManager(t, WithRoleResolver(resolverFunc(func(_ context.Context, u string) (Role, error) {
		if u == "root" {
			return RoleAdmin, nil
		}
		return RoleUser, nil
	})))

	tok, err := m.IssueToken(context.Background(), issuedAt, "bob")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.Verify(context.Background(), tok.Value, issuedAt)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Role != RoleUser {
		t.Fatalf("expected User, got %q", claims.Role)
	}

	bad := newTestManager(t, WithRoleResolver(StaticRoleResolver{Role: "root"}))
	if _, err := bad.IssueToken(context.Background(), issuedAt, "bob"); err == nil {
		t.Fatalf("expected error for unknown resolved role")
	}
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	m := newTestManager(t)
	tok, err := m.IssueToken(context.Background(), issuedAt, "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m.Verify(context.Background(), tok.Value, issuedAt.Add(3599*time.Second)); err != nil {
		t.Fatalf("expected token valid at +3599s, got %v", err)
	}
	_, err = m.Verify(context.Background(), tok.Value, issuedAt.Add(3601*time.Second))
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated at +3601s, got %v", err)
	}
}

func TestVerify_RejectsTamperedSignature(t *testing.T) {
	m := newTestManager(t)
	tok, err := m.IssueToken(context.Background(), issuedAt, "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	sigStart := strings.LastIndex(tok.Value, ".") + 1
	for i := sigStart; i < len(tok.Value); i++ {
		replacement := byte('A')
		if tok.Value[i] == 'A' {
			replacement = 'B'
		}
		tampered := tok.Value[:i] + string(replacement) + tok.Value[i+1:]

		if _, err := m.Verify(context.Background(), tampered, issuedAt); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected rejection when altering signature char %d, got %v", i-sigStart, err)
		}
	}
}

func TestVerify_RejectsTamperedPayload(t *testing.T) {
	m := newTestManager(t)
	tok, _ := m.IssueToken(context.Background(), issuedAt, "alice")
	other, _ := m.IssueToken(context.Background(), issuedAt, "mallory")

	parts := strings.Split(tok.Value, ".")
	otherParts := strings.Split(other.Value, ".")
	spliced := parts[0] + "." + otherParts[1] + "." + parts[2]

	if _, err := m.Verify(context.Background(), spliced, issuedAt); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestVerify_RejectsForeignSecretAndGarbage(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(config.AuthConfig{JWTSecret: "other", AccessTokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	tok, _ := other.IssueToken(context.Background(), issuedAt, "alice")

	for _, raw := range []string{tok.Value, "", "not-a-token", "a.b.c"} {
		if _, err := m.Verify(context.Background(), raw, issuedAt); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected rejection for %q, got %v", raw, err)
		}
	}
}

func TestVerify_RejectsWrongAudience(t *testing.T) {
	issuer, _ := NewManager(config.AuthConfig{JWTSecret: "secret", JWTAudience: "web", AccessTokenTTL: time.Hour})
	verifier, _ := NewManager(config.AuthConfig{JWTSecret: "secret", JWTAudience: "cli", AccessTokenTTL: time.Hour})

	tok, _ := issuer.IssueToken(context.Background(), issuedAt, "alice")
	if _, err := verifier.Verify(context.Background(), tok.Value, issuedAt); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected audience mismatch to be rejected, got %v", err)
	}
}

type fakeDenylist struct {
	revoked map[string]time.Time
	err     error
}

func (f *fakeDenylist) Revoke(_ context.Context, id string, until time.Time) error {
	if f.revoked == nil {
		f.revoked = map[string]time.Time{}
	}
	f.revoked[id] = until
	return f.err
}

func (f *fakeDenylist) IsRevoked(_ context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.revoked[id]
	return ok, nil
}

func TestRevoke_RejectsRevokedToken(t *testing.T) {
	dl := &fakeDenylist{}
	m := newTestManager(t, WithDenylist(dl))

	tok, _ := m.IssueToken(context.Background(), issuedAt, "alice")
	claims, err := m.Verify(context.Background(), tok.Value, issuedAt)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := m.Revoke(context.Background(), claims); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if until := dl.revoked[tok.ID]; !until.Equal(tok.ExpiresAt) {
		t.Fatalf("expected denylist entry until %s, got %s", tok.ExpiresAt, until)
	}
	if _, err := m.Verify(context.Background(), tok.Value, issuedAt); !errors.Is(err, ErrRevokedToken) {
		t.Fatalf("expected revoked, got %v", err)
	}
}

func TestVerify_DenylistFailureIsNotUnauthenticated(t *testing.T) {
	m := newTestManager(t, WithDenylist(&fakeDenylist{err: errors.New("redis down")}))
	tok, _ := m.IssueToken(context.Background(), issuedAt, "alice")

	_, err := m.Verify(context.Background(), tok.Value, issuedAt)
	if err == nil || errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
}

func TestRevoke_WithoutDenylist(t *testing.T) {
	m := newTestManager(t)
	if err := m.Revoke(context.Background(), Claims{}); !errors.Is(err, ErrNoDenylist) {
		t.Fatalf("expected ErrNoDenylist, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		err    error
	}{
		{header: "", err: ErrMissingToken},
		{header: "   ", err: ErrMissingToken},
		{header: "Bearer", err: ErrMalformedHeader},
		{header: "Bearer ", err: ErrMalformedHeader},
		{header: "Basic abc", err: ErrMalformedHeader},
		{header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{header: "bearer abc", want: "abc"},
	}
	for _, tc := range cases {
		got, err := BearerToken(tc.header)
		if tc.err != nil {
			if !errors.Is(err, tc.err) || !errors.Is(err, ErrUnauthenticated) {
				t.Fatalf("%q: expected %v, got %v", tc.header, tc.err, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: expected %q, got %q (%v)", tc.header, tc.want, got, err)
		}
	}
}
