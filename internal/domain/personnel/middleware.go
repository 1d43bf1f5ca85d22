package personnel

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/tmh/registry/internal/platform/auth"
	"github.com/tmh/registry/pkg/apperrors"
)

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// PrincipalResolver is the part of Service the middleware needs.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, id *auth.Identity) (*Principal, error)
}

// LoadPrincipal attaches the caller's Principal to the request context.
// Anonymous requests pass through untouched.
func LoadPrincipal(resolver PrincipalResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			id, ok := auth.IdentityFromContext(ctx)
			if !ok {
				return next(c)
			}
			p, err := resolver.ResolvePrincipal(ctx, id)
			if err != nil {
				return err
			}
			c.SetRequest(c.Request().WithContext(WithPrincipal(ctx, p)))
			return next(c)
		}
	}
}

// RequireMedicalPersonnel admits staff accounts that have a
// MedicalPersonnel profile.
func RequireMedicalPersonnel() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFromContext(c.Request().Context())
			if !ok {
				return apperrors.NewNotAuthenticatedError("Authentication credentials were not provided.")
			}
			if !p.IsMedicalPersonnel() {
				return apperrors.NewPermissionDeniedError("MedicalPersonnel instance is required")
			}
			return next(c)
		}
	}
}

// RequirePrincipal rejects requests without a resolved Principal.
func RequirePrincipal() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := PrincipalFromContext(c.Request().Context()); !ok {
				return apperrors.NewNotAuthenticatedError("Authentication credentials were not provided.")
			}
			return next(c)
		}
	}
}
