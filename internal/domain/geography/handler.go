package geography

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tmh/registry/internal/domain/personnel"
	"github.com/tmh/registry/internal/platform/auth"
	"github.com/tmh/registry/pkg/apperrors"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", personnel.RequireMedicalPersonnel())
	read.GET("/zones", h.ListZones)
	read.GET("/regions", h.ListRegions)
	read.GET("/hospitals/:id/location", h.GetHospitalLocation)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/zones", h.CreateZone)
	admin.POST("/regions", h.CreateRegion)
	admin.POST("/regions/:id/zone", h.AssignRegionZone)
	admin.POST("/hospitals/:id/region", h.AssignHospitalRegion)
}

func bindAndValidate(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return err
	}
	return c.Validate(v)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewNotFoundError("Not found.")
	}
	return id, nil
}

func (h *Handler) CreateZone(c echo.Context) error {
	var in CreateZoneInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	z, err := h.svc.CreateZone(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, z)
}

func (h *Handler) CreateRegion(c echo.Context) error {
	var in CreateRegionInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	r, err := h.svc.CreateRegion(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) ListZones(c echo.Context) error {
	zones, err := h.svc.ListZones(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, zones)
}

func (h *Handler) ListRegions(c echo.Context) error {
	regions, err := h.svc.ListRegions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, regions)
}

func (h *Handler) AssignRegionZone(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in AssignZoneInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	v, err := h.svc.AssignRegionZone(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) AssignHospitalRegion(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in AssignRegionInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	loc, err := h.svc.AssignHospitalRegion(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loc)
}

func (h *Handler) GetHospitalLocation(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	loc, err := h.svc.GetHospitalLocation(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loc)
}
