package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/registrum/registrum/pkg/handlers"
)

// Principal is the authenticated caller resolved from a verified token.
// Role is opaque at this layer; authorization decisions belong to the caller.
type Principal struct {
	ID   string
	Name string
	Role string
}

type principalKey struct{}

// PrincipalFrom returns the principal stored by the auth middleware.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// WithPrincipal returns a context carrying the principal. Exposed for tests.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// Authenticator verifies bearer tokens against an OIDC provider and resolves
// the request principal. It is constructed once at process start and passed
// by handle into the module stack.
type Authenticator struct {
	verifier *oidc.IDTokenVerifier
	cfg      *AuthConfig
	logger   *slog.Logger
}

// NewAuthenticator performs the one-time OIDC discovery against the issuer.
// When auth is disabled (local development), no discovery happens and
// identity is taken from request headers instead.
func NewAuthenticator(ctx context.Context, cfg *AuthConfig, logger *slog.Logger) (*Authenticator, error) {
	a := &Authenticator{
		cfg:    cfg,
		logger: logger.With("system", "auth"),
	}

	if !cfg.Enabled {
		a.logger.Warn("authentication disabled; trusting identity headers")
		return a, nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery for %s: %w", cfg.Issuer, err)
	}

	a.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	return a, nil
}

// Require returns middleware that rejects requests without a verifiable
// identity and stores the resolved principal in the request context.
func (a *Authenticator) Require() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := a.resolve(r)
			if err != nil {
				handlers.RespondError(w, a.logger, http.StatusUnauthorized, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func (a *Authenticator) resolve(r *http.Request) (Principal, error) {
	if !a.cfg.Enabled {
		return a.resolveHeaders(r)
	}

	raw, err := bearerToken(r)
	if err != nil {
		return Principal{}, err
	}

	token, err := a.verifier.Verify(r.Context(), raw)
	if err != nil {
		return Principal{}, fmt.Errorf("verify token: %w", err)
	}

	var claims map[string]any
	if err := token.Claims(&claims); err != nil {
		return Principal{}, fmt.Errorf("decode claims: %w", err)
	}

	p := Principal{
		ID:   token.Subject,
		Name: stringClaim(claims, a.cfg.NameClaim),
		Role: stringClaim(claims, a.cfg.RoleClaim),
	}

	if p.ID == "" {
		return Principal{}, fmt.Errorf("token has no subject")
	}
	return p, nil
}

func (a *Authenticator) resolveHeaders(r *http.Request) (Principal, error) {
	p := Principal{
		ID:   r.Header.Get("X-Identity"),
		Name: r.Header.Get("X-Identity-Name"),
		Role: r.Header.Get("X-Identity-Role"),
	}
	if p.ID == "" {
		return Principal{}, fmt.Errorf("missing identity headers")
	}
	return p, nil
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing authorization header")
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", fmt.Errorf("malformed authorization header")
	}
	return token, nil
}

func stringClaim(claims map[string]any, name string) string {
	if v, ok := claims[name].(string); ok {
		return v
	}
	return ""
}
