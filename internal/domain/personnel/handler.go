package personnel

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tmh/registry/internal/platform/auth"
	"github.com/tmh/registry/pkg/apperrors"
	"github.com/tmh/registry/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	authed := api.Group("", RequirePrincipal())
	authed.GET("/users/me", h.GetMe)
	authed.PATCH("/users/me", h.UpdateMe)
	authed.GET("/preferred-hospital", h.GetPreferredHospital)

	clinical := api.Group("", RequireMedicalPersonnel())
	clinical.GET("/medical-personnel", h.ListMedicalPersonnel)
	clinical.GET("/medical-personnel/:id", h.GetMedicalPersonnel)
	clinical.POST("/preferred-hospital", h.SetPreferredHospital)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/users", h.CreateUser)
}

func principal(c echo.Context) (*Principal, error) {
	p, ok := PrincipalFromContext(c.Request().Context())
	if !ok {
		return nil, apperrors.NewNotAuthenticatedError("Authentication credentials were not provided.")
	}
	return p, nil
}

// bindAndValidate decodes the body and runs struct validation.
func bindAndValidate(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return err
	}
	return c.Validate(v)
}

func (h *Handler) GetMe(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	me, err := h.svc.GetMe(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, me)
}

func (h *Handler) UpdateMe(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var in UpdateProfileInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	me, err := h.svc.UpdateMe(c.Request().Context(), p, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, me)
}

func (h *Handler) CreateUser(c echo.Context) error {
	var in CreateUserInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	mp, err := h.svc.CreateUser(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, NewSummary(mp))
}

func (h *Handler) ListMedicalPersonnel(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListMedicalPersonnel(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewPage(c, pg, items, total))
}

func (h *Handler) GetMedicalPersonnel(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.NewNotFoundError("Not found.")
	}
	mp, err := h.svc.GetMedicalPersonnel(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mp)
}

func (h *Handler) GetPreferredHospital(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	ph, err := h.svc.GetPreferredHospital(c.Request().Context(), p)
	if err != nil {
		return err
	}
	if ph == nil {
		return c.JSON(http.StatusOK, struct{}{})
	}
	return c.JSON(http.StatusOK, ph)
}

func (h *Handler) SetPreferredHospital(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var in SetPreferredHospitalInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	ph, err := h.svc.SetPreferredHospital(c.Request().Context(), p, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ph)
}
