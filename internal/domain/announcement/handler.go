package announcement

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tmh/registry/internal/domain/personnel"
	"github.com/tmh/registry/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/announcements", h.ListActive, personnel.RequirePrincipal())
	api.POST("/announcements", h.Create, auth.RequireRole("admin"))
}

func (h *Handler) ListActive(c echo.Context) error {
	list, err := h.svc.ListActive(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	if err := c.Validate(&in); err != nil {
		return err
	}
	a, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}
