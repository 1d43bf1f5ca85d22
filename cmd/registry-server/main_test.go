package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tmh/registry/internal/config"
	"github.com/tmh/registry/internal/platform/auth"
	"github.com/tmh/registry/internal/platform/middleware"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:         "development",
		CORSOrigins: []string{"http://localhost:3000"},
		BodyLimit:   "1M",
	}
}

func TestHealth(t *testing.T) {
	e := newEcho(testConfig(), zerolog.Nop())

	for _, path := range []string{"/health", "/health/"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s = %d, want 200", path, rec.Code)
		}
		if rec.Header().Get(echo.HeaderXRequestID) == "" {
			t.Errorf("GET %s: missing %s header", path, echo.HeaderXRequestID)
		}
	}
}

func TestUnknownRouteRendersErrorBody(t *testing.T) {
	e := newEcho(testConfig(), zerolog.Nop())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if body := rec.Body.String(); body == "" || body[0] != '{' {
		t.Errorf("body = %q, want a JSON error body", body)
	}
}

func TestAuthMiddleware_DevWithoutVerifier(t *testing.T) {
	mw, err := authMiddleware(testConfig())
	if err != nil {
		t.Fatalf("authMiddleware: %v", err)
	}

	e := echo.New()
	var got *auth.Identity
	e.GET("/", func(c echo.Context) error {
		got, _ = auth.IdentityFromContext(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	}, mw)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(auth.DevUserHeader, "dr.kim")
	e.ServeHTTP(httptest.NewRecorder(), req)
	if got == nil || got.Subject != "dr.kim" {
		t.Fatalf("identity = %+v, want subject dr.kim", got)
	}
}

func TestAuthMiddleware_SigningKeyRejectsMissingToken(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "staging"
	cfg.AuthSigningKey = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	mw, err := authMiddleware(cfg)
	if err != nil {
		t.Fatalf("authMiddleware: %v", err)
	}

	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, mw)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMiddleware_NoVerifierOutsideDev(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "production"
	if _, err := authMiddleware(cfg); err == nil {
		t.Fatal("expected an error without a verification source")
	}
}

func TestUseDevAuth(t *testing.T) {
	withKey := testConfig()
	withKey.AuthSigningKey = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	withIssuer := testConfig()
	withIssuer.AuthIssuer = "https://id.example.org"
	prod := testConfig()
	prod.Env = "production"

	tests := []struct {
		name string
		cfg  *config.Config
		want bool
	}{
		{"development without verifier", testConfig(), true},
		{"development with signing key", withKey, false},
		{"development with issuer", withIssuer, false},
		{"production", prod, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := useDevAuth(tt.cfg); got != tt.want {
				t.Errorf("useDevAuth = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRateLimitConfig(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 5
	cfg.RateLimitBurst = 10
	got := rateLimitConfig(cfg)
	if got.RequestsPerSecond != 5 || got.BurstSize != 10 {
		t.Errorf("rateLimitConfig = %+v", got)
	}
}

func TestRateLimitConfig_Default(t *testing.T) {
	got := rateLimitConfig(testConfig())
	if got != middleware.DefaultRateLimitConfig() {
		t.Errorf("rateLimitConfig = %+v, want defaults", got)
	}
}

func TestAnnouncementInput(t *testing.T) {
	cmd := announcementCmd().Commands()[0]
	if err := cmd.Flags().Set("text", "Theatre closed"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("from", "2024-06-01T08:00:00Z"); err != nil {
		t.Fatal(err)
	}

	in, err := announcementInput(cmd)
	if err != nil {
		t.Fatalf("announcementInput: %v", err)
	}
	if in.Text != "Theatre closed" {
		t.Errorf("Text = %q", in.Text)
	}
	if in.DisplayFrom == nil || !in.DisplayFrom.Equal(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("DisplayFrom = %v", in.DisplayFrom)
	}
	if in.DisplayUntil != nil {
		t.Errorf("DisplayUntil = %v, want nil", in.DisplayUntil)
	}

	if err := cmd.Flags().Set("until", "tomorrow"); err != nil {
		t.Fatal(err)
	}
	if _, err := announcementInput(cmd); err == nil {
		t.Error("expected a parse error for --until")
	}
}

func TestPersonnelCmdFlags(t *testing.T) {
	cmd := personnelCmd().Commands()[0]
	for _, name := range []string{"subject", "username", "email", "first-name", "last-name", "level", "staff"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing --%s flag", name)
		}
	}
	if got := cmd.Flags().Lookup("staff").DefValue; got != "true" {
		t.Errorf("--staff default = %q, want true", got)
	}
}
