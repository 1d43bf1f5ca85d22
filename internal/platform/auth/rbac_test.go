package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func requestWith(id *Identity) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id != nil {
		req = req.WithContext(WithIdentity(req.Context(), id))
	}
	return req
}

func TestRequireRole_Allowed(t *testing.T) {
	_, err := runMiddleware(RequireRole("surgeon"), requestWith(&Identity{Subject: "u1", Roles: []string{"surgeon"}}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	_, err := runMiddleware(RequireRole("admin"), requestWith(&Identity{Subject: "u1", Roles: []string{"surgeon"}}))
	expectStatus(t, err, http.StatusForbidden)
}

func TestRequireRole_AdminBypass(t *testing.T) {
	_, err := runMiddleware(RequireRole("surgeon"), requestWith(&Identity{Subject: "u1", Roles: []string{"admin"}}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireRole_Unauthenticated(t *testing.T) {
	_, err := runMiddleware(RequireRole("surgeon"), requestWith(nil))
	expectStatus(t, err, http.StatusUnauthorized)
}
