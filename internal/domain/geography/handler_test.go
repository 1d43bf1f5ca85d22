package geography

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmh/registry/internal/domain/personnel"
	"github.com/tmh/registry/internal/platform/auth"
	"github.com/tmh/registry/internal/platform/middleware"
	"github.com/tmh/registry/internal/platform/validate"
)

// newTestEcho treats every request carrying X-Test-Roles as a staff member
// with a profile holding those roles.
func newTestEcho(repo *memRepo) *echo.Echo {
	e := echo.New()
	e.Validator = validate.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(zerolog.Nop(), false)
	identify := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles, ok := c.Request().Header["X-Test-Roles"]
			if !ok {
				return next(c)
			}
			id := &auth.Identity{Subject: "tester", Roles: strings.Split(roles[0], ",")}
			p := &personnel.Principal{
				User:      &personnel.User{ID: 1},
				Personnel: &personnel.MedicalPersonnel{ID: 1},
				IsStaff:   true,
			}
			ctx := personnel.WithPrincipal(auth.WithIdentity(c.Request().Context(), id), p)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
	NewHandler(NewService(repo)).RegisterRoutes(e.Group("/api/v1", identify))
	return e
}

func serve(e *echo.Echo, method, path, body, roles string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set("X-Test-Roles", roles)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Geography(t *testing.T) {
	e := newTestEcho(newMemRepo(3))

	rec := serve(e, http.MethodPost, "/api/v1/zones", `{"name":"Northern"}`, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(e, http.MethodPost, "/api/v1/zones", `{"name":"Northern"}`, "admin")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":1,"name":"Northern"}`, rec.Body.String())

	rec = serve(e, http.MethodPost, "/api/v1/regions", `{"name":"Kilimanjaro"}`, "admin")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(e, http.MethodPost, "/api/v1/regions/2/zone", `{"zone_id":1}`, "admin")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(e, http.MethodPost, "/api/v1/hospitals/3/region", `{"region_id":2}`, "admin")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(e, http.MethodGet, "/api/v1/hospitals/3/location", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"hospital_id":3,"region":{"id":2,"name":"Kilimanjaro"},"zone":{"id":1,"name":"Northern"}}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/api/v1/regions", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":2,"name":"Kilimanjaro","zone":{"id":1,"name":"Northern"}}]`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/api/v1/hospitals/9/location", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(e, http.MethodPost, "/api/v1/hospitals/3/region", `{}`, "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "region_id : This field is required.")
}

func TestHandler_ZonesListEmpty(t *testing.T) {
	e := newTestEcho(newMemRepo())

	rec := serve(e, http.MethodGet, "/api/v1/zones", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}
