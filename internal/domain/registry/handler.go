package registry

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tmh/registry/internal/domain/personnel"
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
	// Clinical endpoints: staff accounts with a MedicalPersonnel profile.
	clinical := api.Group("", personnel.RequireMedicalPersonnel())
	clinical.GET("/hospitals", h.ListHospitals)
	clinical.GET("/hospitals/:id", h.GetHospital)
	clinical.GET("/patients", h.ListPatients)
	clinical.GET("/patients/:id", h.GetPatient)
	clinical.POST("/patients", h.RegisterPatient)
	clinical.POST("/patient-hospital-mappings", h.CreateMapping)
	clinical.POST("/episodes", h.RegisterEpisode)
	clinical.GET("/episodes/:id", h.GetEpisode)
	clinical.GET("/episodes/:id/discharge", h.GetEpisodeDischarge)
	clinical.GET("/episodes/:id/follow-ups", h.ListEpisodeFollowUps)
	clinical.POST("/discharges", h.RegisterDischarge)
	clinical.POST("/follow-ups", h.RegisterFollowUp)

	// Scoped views answer with empty results for callers without a profile.
	scoped := api.Group("", personnel.RequirePrincipal())
	scoped.GET("/surgeon-episode-summary", h.SurgeonEpisodeSummary)
	scoped.GET("/owned-episodes", h.OwnedEpisodes)
	scoped.GET("/unlinked-patients", h.UnlinkedPatients)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/hospitals", h.CreateHospital)
}

func bindAndValidate(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return err
	}
	return c.Validate(v)
}

// pathID parses the :id parameter; anything but an integer is a miss.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewNotFoundError("Not found.")
	}
	return id, nil
}

func principal(c echo.Context) (*personnel.Principal, error) {
	p, ok := personnel.PrincipalFromContext(c.Request().Context())
	if !ok {
		return nil, apperrors.NewNotAuthenticatedError("Authentication credentials were not provided.")
	}
	return p, nil
}

// -- Hospitals --

func (h *Handler) CreateHospital(c echo.Context) error {
	var in CreateHospitalInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	hospital, err := h.svc.CreateHospital(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, hospital)
}

func (h *Handler) ListHospitals(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListHospitals(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Hospital{}
	}
	return c.JSON(http.StatusOK, pagination.NewPage(c, pg, items, total))
}

func (h *Handler) GetHospital(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	hospital, err := h.svc.GetHospital(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, hospital)
}

// -- Patients --

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := PatientFilter{
		SearchTerm: c.QueryParam("search_term"),
		Ordering:   ParsePatientOrdering(c.QueryParam("ordering")),
		Limit:      pg.Limit,
		Offset:     pg.Offset,
	}
	if raw := strings.TrimSpace(c.QueryParam("hospital_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return apperrors.NewValidationError("hospital_id : Enter a number.")
		}
		f.HospitalID = &id
	}

	views, total, err := h.svc.ListPatients(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewPage(c, pg, views, total))
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	v, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var in RegisterPatientInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	v, err := h.svc.RegisterPatient(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) CreateMapping(c echo.Context) error {
	var in CreateMappingInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	v, err := h.svc.CreateMapping(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

// -- Episodes --

func (h *Handler) RegisterEpisode(c echo.Context) error {
	var in RegisterEpisodeInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	v, err := h.svc.RegisterEpisode(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) GetEpisode(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	v, err := h.svc.GetEpisode(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) GetEpisodeDischarge(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	v, err := h.svc.GetEpisodeDischarge(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if v == nil {
		return c.JSON(http.StatusOK, struct{}{})
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) ListEpisodeFollowUps(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	views, err := h.svc.ListEpisodeFollowUps(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) RegisterDischarge(c echo.Context) error {
	var in RegisterDischargeInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	v, err := h.svc.RegisterDischarge(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) RegisterFollowUp(c echo.Context) error {
	var in RegisterFollowUpInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	v, err := h.svc.RegisterFollowUp(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

// -- Scoped views --

func (h *Handler) SurgeonEpisodeSummary(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	v, err := h.svc.SurgeonEpisodeSummary(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) OwnedEpisodes(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	views, err := h.svc.OwnedEpisodes(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) UnlinkedPatients(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	views, err := h.svc.UnlinkedPatients(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}
