// Package reporting evaluates predefined aggregate measures over the
// registry tables.
package reporting

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tmh/registry/internal/platform/auth"
	"github.com/tmh/registry/internal/platform/db"
	"github.com/tmh/registry/pkg/apperrors"
)

// ParamHospital restricts a measure to one hospital.
const ParamHospital = "hospital_id"

// MeasureDefinition is a named aggregate query. Measures that accept
// hospital_id bind it as $1, NULL meaning every hospital.
type MeasureDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SQL         string   `json:"-"`
	Parameters  []string `json:"parameters"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
	Parameters  map[string]string        `json:"parameters,omitempty"`
}

const episodeAtHospital = `
	FROM episode e
	JOIN patient_hospital_mapping m ON m.id = e.patient_hospital_mapping_id
	WHERE ($1::bigint IS NULL OR m.hospital_id = $1)`

// PredefinedMeasures is the list of available reporting measures.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "episodes-by-type",
		Name:        "Episodes by Hernia Type",
		Description: "Number of surgical episodes grouped by episode type",
		SQL:         `SELECT e.episode_type, COUNT(*) AS total` + episodeAtHospital + ` GROUP BY e.episode_type ORDER BY total DESC, e.episode_type`,
		Parameters:  []string{ParamHospital},
	},
	{
		ID:          "mesh-type-usage",
		Name:        "Mesh Type Usage",
		Description: "Number of surgical episodes grouped by the mesh used",
		SQL:         `SELECT e.mesh_type, COUNT(*) AS total` + episodeAtHospital + ` GROUP BY e.mesh_type ORDER BY total DESC, e.mesh_type`,
		Parameters:  []string{ParamHospital},
	},
	{
		ID:          "episodes-by-hospital",
		Name:        "Episodes by Hospital",
		Description: "Number of surgical episodes recorded at each hospital",
		SQL: `SELECT h.id AS hospital_id, h.name, COUNT(e.id) AS total
			FROM hospital h
			LEFT JOIN patient_hospital_mapping m ON m.hospital_id = h.id
			LEFT JOIN episode e ON e.patient_hospital_mapping_id = m.id
			GROUP BY h.id, h.name
			ORDER BY total DESC, h.id`,
		Parameters: []string{},
	},
	{
		ID:          "episodes-by-zone",
		Name:        "Episodes by Zone",
		Description: "Number of surgical episodes grouped by the zone of the hospital",
		SQL: `SELECT COALESCE(z.name, '') AS zone, COUNT(*) AS total
			FROM episode e
			JOIN patient_hospital_mapping m ON m.id = e.patient_hospital_mapping_id
			LEFT JOIN hospital_region_mapping hr ON hr.hospital_id = m.hospital_id
			LEFT JOIN region_zone_mapping rz ON rz.region_id = hr.region_id
			LEFT JOIN zone z ON z.id = rz.zone_id
			GROUP BY z.name
			ORDER BY total DESC, zone`,
		Parameters: []string{},
	},
	{
		ID:          "follow-up-pain-severity",
		Name:        "Follow Up Pain Severity",
		Description: "Number of follow ups grouped by reported pain severity",
		SQL: `SELECT f.pain_severity, COUNT(*) AS total
			FROM follow_up f
			JOIN episode e ON e.id = f.episode_id
			JOIN patient_hospital_mapping m ON m.id = e.patient_hospital_mapping_id
			WHERE ($1::bigint IS NULL OR m.hospital_id = $1)
			GROUP BY f.pain_severity
			ORDER BY total DESC, f.pain_severity`,
		Parameters: []string{ParamHospital},
	},
	{
		ID:          "discharge-outcomes",
		Name:        "Discharge Outcomes",
		Description: "Discharge count, infections recorded at discharge and mean stay in days",
		SQL: `SELECT COUNT(*) AS total,
				COALESCE(SUM(CASE WHEN d.infection <> '' THEN 1 ELSE 0 END), 0) AS with_infection,
				AVG(d.discharge_duration)::float8 AS mean_duration
			FROM discharge d
			JOIN episode e ON e.id = d.episode_id
			JOIN patient_hospital_mapping m ON m.id = e.patient_hospital_mapping_id
			WHERE ($1::bigint IS NULL OR m.hospital_id = $1)`,
		Parameters: []string{ParamHospital},
	},
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}

// Store runs a measure query and returns one map per row keyed by column.
type Store interface {
	Run(ctx context.Context, sql string, args ...interface{}) ([]map[string]interface{}, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Evaluate runs the measure with the given query parameters. Parameters the
// measure does not declare are ignored.
func (s *Service) Evaluate(ctx context.Context, id string, query map[string]string) (*MeasureReport, error) {
	measure := FindMeasure(id)
	if measure == nil {
		return nil, apperrors.NewNotFoundError("Measure %s not found.", id)
	}

	params := map[string]string{}
	var args []interface{}
	for _, p := range measure.Parameters {
		if p != ParamHospital {
			continue
		}
		var hospitalID *int64
		if v := query[p]; v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n <= 0 {
				return nil, apperrors.NewValidationError("%s : A valid integer is required.", ParamHospital)
			}
			hospitalID = &n
			params[p] = v
		}
		args = append(args, hospitalID)
	}

	results, err := s.store.Run(ctx, measure.SQL, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("evaluate measure "+measure.ID, err)
	}
	if results == nil {
		results = []map[string]interface{}{}
	}

	zerolog.Ctx(ctx).Info().Str("measure", measure.ID).Int("rows", len(results)).Msg("measure evaluated")
	return &MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: s.now().UTC(),
		Results:     results,
		Parameters:  params,
	}, nil
}

type pgStore struct{ pool *pgxpool.Pool }

// NewPGStore runs measures on the pool, or on the transaction carried by
// the context.
func NewPGStore(pool *pgxpool.Pool) Store { return &pgStore{pool: pool} }

func (s *pgStore) Run(ctx context.Context, sql string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := db.Conn(ctx, s.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	var results []map[string]interface{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[fd.Name] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the reporting API routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports", auth.RequireRole("admin"))
	g.GET("/measures", h.ListMeasures)
	g.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

func (h *Handler) EvaluateMeasure(c echo.Context) error {
	query := map[string]string{}
	for k := range c.QueryParams() {
		query[k] = c.QueryParam(k)
	}
	report, err := h.svc.Evaluate(c.Request().Context(), c.Param("id"), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}
