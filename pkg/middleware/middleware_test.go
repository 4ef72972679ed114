package middleware_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/registrum/registrum/pkg/middleware"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSystemApplyOrder(t *testing.T) {
	var order []string

	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	sys := middleware.New()
	sys.Use(tag("first"))
	sys.Use(tag("second"))

	handler := sys.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	want := []string{"first", "second", "handler"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestCORS(t *testing.T) {
	cfg := &middleware.CORSConfig{
		Enabled:        true,
		Origins:        []string{"https://review.example.cd"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         600,
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.CORS(cfg)(next)

	t.Run("allowed origin gets headers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/documents", nil)
		req.Header.Set("Origin", "https://review.example.cd")
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://review.example.cd" {
			t.Errorf("allow-origin = %q", got)
		}
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/documents", nil)
		req.Header.Set("Origin", "https://evil.example")
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("allow-origin = %q, want empty", got)
		}
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("OPTIONS", "/documents", nil)
		req.Header.Set("Origin", "https://review.example.cd")
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("disabled passes through", func(t *testing.T) {
		disabled := middleware.CORS(&middleware.CORSConfig{})(next)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/documents", nil)
		req.Header.Set("Origin", "https://review.example.cd")
		disabled.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("allow-origin = %q, want empty", got)
		}
	})
}

func TestPrincipalContext(t *testing.T) {
	p := middleware.Principal{ID: "rev-1", Name: "Mwamba", Role: "reviewer"}

	ctx := middleware.WithPrincipal(context.Background(), p)
	got, ok := middleware.PrincipalFrom(ctx)
	if !ok {
		t.Fatal("PrincipalFrom = false after WithPrincipal")
	}
	if got != p {
		t.Errorf("principal = %+v, want %+v", got, p)
	}

	if _, ok := middleware.PrincipalFrom(context.Background()); ok {
		t.Error("PrincipalFrom = true on empty context")
	}
}

func TestAuthenticatorDisabled(t *testing.T) {
	auth, err := middleware.NewAuthenticator(
		context.Background(),
		&middleware.AuthConfig{Enabled: false},
		discard(),
	)
	if err != nil {
		t.Fatalf("NewAuthenticator error = %v", err)
	}

	var captured middleware.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = middleware.PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := auth.Require()(next)

	t.Run("identity headers resolve", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/documents", nil)
		req.Header.Set("X-Identity", "rev-1")
		req.Header.Set("X-Identity-Name", "Mwamba")
		req.Header.Set("X-Identity-Role", "reviewer")
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if captured.ID != "rev-1" || captured.Role != "reviewer" {
			t.Errorf("principal = %+v, want rev-1/reviewer", captured)
		}
	})

	t.Run("missing identity returns 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/documents", nil)
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["error"] == "" {
			t.Error("error body is empty")
		}
	})
}

func TestAuthConfigFinalize(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		cfg := middleware.AuthConfig{}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("Finalize error = %v", err)
		}
		if cfg.RoleClaim != "role" || cfg.NameClaim != "name" {
			t.Errorf("claims = %s/%s, want role/name", cfg.RoleClaim, cfg.NameClaim)
		}
	})

	t.Run("enabled requires issuer", func(t *testing.T) {
		cfg := middleware.AuthConfig{Enabled: true, ClientID: "registrum"}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("Finalize = nil, want issuer error")
		}
	})

	t.Run("enabled requires client id", func(t *testing.T) {
		cfg := middleware.AuthConfig{Enabled: true, Issuer: "https://id.example.cd"}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("Finalize = nil, want client_id error")
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_AUTH_ISSUER", "https://id.override.cd")
		cfg := middleware.AuthConfig{Enabled: true, Issuer: "https://id.example.cd", ClientID: "registrum"}
		env := &middleware.AuthEnv{Issuer: "TEST_AUTH_ISSUER"}

		if err := cfg.Finalize(env); err != nil {
			t.Fatalf("Finalize error = %v", err)
		}
		if cfg.Issuer != "https://id.override.cd" {
			t.Errorf("Issuer = %s, want override", cfg.Issuer)
		}
	})
}

func TestAuthConfigMerge(t *testing.T) {
	base := middleware.AuthConfig{
		Enabled:   true,
		Issuer:    "https://id.example.cd",
		ClientID:  "registrum",
		RoleClaim: "role",
	}

	base.Merge(&middleware.AuthConfig{Enabled: false, RoleClaim: "groups"})

	if base.Enabled {
		t.Error("Enabled = true, want overlay value false")
	}
	if base.RoleClaim != "groups" {
		t.Errorf("RoleClaim = %s, want groups", base.RoleClaim)
	}
	if base.Issuer != "https://id.example.cd" {
		t.Errorf("Issuer = %s, want preserved", base.Issuer)
	}
}
