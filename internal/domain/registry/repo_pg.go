package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmh/registry/internal/platform/db"
	"github.com/tmh/registry/pkg/apperrors"
	"github.com/tmh/registry/pkg/dates"
)

// collect scans every row with scan and closes rows.
func collect[T any](rows pgx.Rows, err error, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// =========== Hospital Repository ===========

type hospitalRepoPG struct{ pool *pgxpool.Pool }

func NewHospitalRepoPG(pool *pgxpool.Pool) HospitalRepository { return &hospitalRepoPG{pool: pool} }

func scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	if err := row.Scan(&h.ID, &h.Name, &h.Address); err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *hospitalRepoPG) Create(ctx context.Context, h *Hospital) error {
	return db.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO hospital (name, address) VALUES ($1, $2) RETURNING id`,
		h.Name, h.Address,
	).Scan(&h.ID)
}

func (r *hospitalRepoPG) GetByID(ctx context.Context, id int64) (*Hospital, error) {
	h, err := scanHospital(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT id, name, address FROM hospital WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperrors.NewNotFoundError("Hospital %d not found.", id)
	}
	return h, err
}

func (r *hospitalRepoPG) List(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM hospital`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT id, name, address FROM hospital ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	items, err := collect(rows, err, scanHospital)
	return items, total, err
}

func (r *hospitalRepoPG) ListByIDs(ctx context.Context, ids []int64) ([]*Hospital, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT id, name, address FROM hospital WHERE id = ANY($1) ORDER BY id`, ids)
	return collect(rows, err, scanHospital)
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

var patientColumns = []interface{}{
	"p.id", "p.full_name", "p.national_id", "p.day_of_birth", "p.month_of_birth", "p.year_of_birth",
	"p.gender", "p.phone_1", "p.phone_2", "p.address", "p.created_at", "p.updated_at",
}

func patientsFrom() *goqu.SelectDataset {
	return db.Dialect.From(goqu.T("patient").As("p"))
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FullName, &p.NationalID, &p.DayOfBirth, &p.MonthOfBirth, &p.YearOfBirth,
		&p.Gender, &p.Phone1, &p.Phone2, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patient (full_name, national_id, day_of_birth, month_of_birth, year_of_birth,
			gender, phone_1, phone_2, address)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at, updated_at`,
		p.FullName, p.NationalID, p.DayOfBirth, p.MonthOfBirth, p.YearOfBirth,
		p.Gender, p.Phone1, p.Phone2, p.Address,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if constraint, ok := db.UniqueViolation(err); ok && constraint == "patient_national_id_key" {
		return apperrors.NewIntegrityError(msgNationalIDTaken, err)
	}
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	sql, args, err := db.Build(patientsFrom().Select(patientColumns...).Where(goqu.I("p.id").Eq(id)).Prepared(true))
	if err != nil {
		return nil, fmt.Errorf("build patient query: %w", err)
	}
	p, err := scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...))
	if db.IsNoRows(err) {
		return nil, apperrors.NewNotFoundError("Patient %d not found.", id)
	}
	return p, err
}

func (r *patientRepoPG) NationalIDTaken(ctx context.Context, nationalID string) (bool, error) {
	var taken bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patient WHERE national_id = $1)`, nationalID).Scan(&taken)
	return taken, err
}

// likePattern matches term anywhere, with LIKE wildcards in term taken
// literally.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

func patientFilterExpressions(f PatientFilter) []exp.Expression {
	var where []exp.Expression
	if f.HospitalID != nil {
		atHospital := db.Dialect.From("patient_hospital_mapping").
			Select("patient_id").
			Where(goqu.C("hospital_id").Eq(*f.HospitalID))
		where = append(where, goqu.I("p.id").In(atHospital))
	}
	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		like := likePattern(term)
		match := goqu.Or(
			goqu.I("p.full_name").ILike(like),
			goqu.I("p.national_id").ILike(like),
		)
		// The hospital's own identifier is only searched within the
		// selected hospital.
		if f.HospitalID != nil {
			byExternalID := db.Dialect.From("patient_hospital_mapping").
				Select("patient_id").
				Where(
					goqu.C("hospital_id").Eq(*f.HospitalID),
					goqu.C("patient_hospital_id").Like(like),
				)
			match = match.Append(goqu.I("p.id").In(byExternalID))
		}
		where = append(where, match)
	}
	return where
}

func patientOrderExpressions(ordering []PatientOrder) []exp.OrderedExpression {
	var order []exp.OrderedExpression
	for _, o := range ordering {
		col := goqu.I("p." + o.Field)
		if o.Desc {
			order = append(order, col.Desc())
		} else {
			order = append(order, col.Asc())
		}
	}
	return append(order, goqu.I("p.id").Asc())
}

func (r *patientRepoPG) List(ctx context.Context, f PatientFilter) ([]*Patient, int, error) {
	base := patientsFrom().Where(patientFilterExpressions(f)...)

	countSQL, countArgs, err := db.Build(base.Select(goqu.COUNT(goqu.Star())).Prepared(true))
	if err != nil {
		return nil, 0, fmt.Errorf("build patient count: %w", err)
	}
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql, args, err := db.Build(base.Select(patientColumns...).
		Order(patientOrderExpressions(f.Ordering)...).
		Limit(uint(f.Limit)).Offset(uint(f.Offset)).
		Prepared(true))
	if err != nil {
		return nil, 0, fmt.Errorf("build patient query: %w", err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	items, err := collect(rows, err, scanPatient)
	return items, total, err
}

func (r *patientRepoPG) ListByIDs(ctx context.Context, ids []int64) ([]*Patient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sql, args, err := db.Build(patientsFrom().Select(patientColumns...).
		Where(goqu.I("p.id").In(ids)).
		Order(goqu.I("p.id").Asc()).
		Prepared(true))
	if err != nil {
		return nil, fmt.Errorf("build patient query: %w", err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	return collect(rows, err, scanPatient)
}

func (r *patientRepoPG) Unlinked(ctx context.Context, hospitalID int64) ([]*Patient, error) {
	episodeAtMapping := db.Dialect.From(goqu.T("episode").As("e")).
		Select(goqu.L("1")).
		Where(goqu.I("e.patient_hospital_mapping_id").Eq(goqu.I("m.id")))

	sql, args, err := db.Build(patientsFrom().Select(patientColumns...).
		Join(goqu.T("patient_hospital_mapping").As("m"), goqu.On(goqu.I("m.patient_id").Eq(goqu.I("p.id")))).
		Where(
			goqu.I("m.hospital_id").Eq(hospitalID),
			goqu.L("NOT EXISTS ?", episodeAtMapping),
		).
		Order(goqu.I("p.id").Asc()).
		Prepared(true))
	if err != nil {
		return nil, fmt.Errorf("build unlinked patients query: %w", err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	return collect(rows, err, scanPatient)
}

// =========== Mapping Repository ===========

type mappingRepoPG struct{ pool *pgxpool.Pool }

func NewMappingRepoPG(pool *pgxpool.Pool) MappingRepository { return &mappingRepoPG{pool: pool} }

const mappingCols = `id, patient_id, hospital_id, patient_hospital_id`

func scanMapping(row pgx.Row) (*Mapping, error) {
	var m Mapping
	if err := row.Scan(&m.ID, &m.PatientID, &m.HospitalID, &m.PatientHospitalID); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mappingRepoPG) Create(ctx context.Context, m *Mapping) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patient_hospital_mapping (patient_id, hospital_id, patient_hospital_id)
		VALUES ($1, $2, $3) RETURNING id`,
		m.PatientID, m.HospitalID, m.PatientHospitalID,
	).Scan(&m.ID)
	if constraint, ok := db.UniqueViolation(err); ok {
		switch constraint {
		case "patient_hospital_mapping_patient_hospital_key":
			return apperrors.NewIntegrityError(fmt.Sprintf(msgMappingExists, m.PatientID, m.HospitalID), err)
		case "patient_hospital_mapping_hospital_external_key":
			return apperrors.NewIntegrityError(fmt.Sprintf(msgExternalIDTaken, m.PatientHospitalID), err)
		}
	}
	return err
}

func (r *mappingRepoPG) one(ctx context.Context, query string, args ...interface{}) (*Mapping, error) {
	m, err := scanMapping(db.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if db.IsNoRows(err) {
		return nil, apperrors.NewNotFoundError("PatientHospitalMapping not found.")
	}
	return m, err
}

func (r *mappingRepoPG) Find(ctx context.Context, patientID, hospitalID int64) (*Mapping, error) {
	return r.one(ctx, `SELECT `+mappingCols+` FROM patient_hospital_mapping
		WHERE patient_id = $1 AND hospital_id = $2`, patientID, hospitalID)
}

func (r *mappingRepoPG) FindByExternalID(ctx context.Context, hospitalID int64, patientHospitalID string) (*Mapping, error) {
	return r.one(ctx, `SELECT `+mappingCols+` FROM patient_hospital_mapping
		WHERE hospital_id = $1 AND patient_hospital_id = $2`, hospitalID, patientHospitalID)
}

func (r *mappingRepoPG) ListByIDs(ctx context.Context, ids []int64) ([]*Mapping, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+mappingCols+` FROM patient_hospital_mapping WHERE id = ANY($1) ORDER BY id`, ids)
	return collect(rows, err, scanMapping)
}

func (r *mappingRepoPG) ListByPatients(ctx context.Context, patientIDs []int64) ([]*Mapping, error) {
	if len(patientIDs) == 0 {
		return nil, nil
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+mappingCols+` FROM patient_hospital_mapping WHERE patient_id = ANY($1) ORDER BY id`, patientIDs)
	return collect(rows, err, scanMapping)
}

// =========== Episode Repository ===========

type episodeRepoPG struct{ pool *pgxpool.Pool }

func NewEpisodeRepoPG(pool *pgxpool.Pool) EpisodeRepository { return &episodeRepoPG{pool: pool} }

const episodeCols = `e.id, e.patient_hospital_mapping_id, e.created, e.surgery_date, e.episode_type, e.cepod,
	e.side, e.occurence, e.type, e.size, e.complexity, e.mesh_type, e.anaesthetic_type,
	e.diathermy_used, e.antibiotic_used, e.antibiotic_type, e.comments`

func scanEpisode(row pgx.Row) (*Episode, error) {
	var e Episode
	var surgery time.Time
	err := row.Scan(&e.ID, &e.MappingID, &e.Created, &surgery, &e.EpisodeType, &e.Cepod,
		&e.Side, &e.Occurence, &e.Type, &e.Size, &e.Complexity, &e.MeshType, &e.AnaestheticType,
		&e.DiathermyUsed, &e.AntibioticUsed, &e.AntibioticType, &e.Comments)
	if err != nil {
		return nil, err
	}
	e.SurgeryDate = dates.New(surgery)
	return &e, nil
}

func (r *episodeRepoPG) Create(ctx context.Context, e *Episode) error {
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO episode (patient_hospital_mapping_id, surgery_date, episode_type, cepod, side, occurence,
			type, size, complexity, mesh_type, anaesthetic_type, diathermy_used, antibiotic_used,
			antibiotic_type, comments)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING id, created`,
		e.MappingID, e.SurgeryDate.Time, e.EpisodeType, e.Cepod, e.Side, e.Occurence,
		e.Type, e.Size, e.Complexity, e.MeshType, e.AnaestheticType, e.DiathermyUsed, e.AntibioticUsed,
		e.AntibioticType, e.Comments,
	).Scan(&e.ID, &e.Created)
}

func (r *episodeRepoPG) SetSurgeons(ctx context.Context, episodeID int64, personnelIDs []int64) error {
	q := db.Conn(ctx, r.pool)
	if _, err := q.Exec(ctx, `DELETE FROM episode_surgeon WHERE episode_id = $1`, episodeID); err != nil {
		return err
	}
	for pos, id := range personnelIDs {
		if _, err := q.Exec(ctx,
			`INSERT INTO episode_surgeon (episode_id, medical_personnel_id, position) VALUES ($1, $2, $3)`,
			episodeID, id, pos); err != nil {
			return err
		}
	}
	return nil
}

// attachSurgeons fills SurgeonIDs of every episode in one query.
func (r *episodeRepoPG) attachSurgeons(ctx context.Context, episodes []*Episode) error {
	if len(episodes) == 0 {
		return nil
	}
	byID := make(map[int64]*Episode, len(episodes))
	ids := make([]int64, 0, len(episodes))
	for _, e := range episodes {
		byID[e.ID] = e
		ids = append(ids, e.ID)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT episode_id, medical_personnel_id FROM episode_surgeon
		WHERE episode_id = ANY($1) ORDER BY episode_id, position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var episodeID, personnelID int64
		if err := rows.Scan(&episodeID, &personnelID); err != nil {
			return err
		}
		e := byID[episodeID]
		e.SurgeonIDs = append(e.SurgeonIDs, personnelID)
	}
	return rows.Err()
}

func (r *episodeRepoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Episode, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	episodes, err := collect(rows, err, scanEpisode)
	if err != nil {
		return nil, err
	}
	return episodes, r.attachSurgeons(ctx, episodes)
}

func (r *episodeRepoPG) GetByID(ctx context.Context, id int64) (*Episode, error) {
	e, err := scanEpisode(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+episodeCols+` FROM episode e WHERE e.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperrors.NewNotFoundError("Episode %d not found.", id)
	}
	if err != nil {
		return nil, err
	}
	return e, r.attachSurgeons(ctx, []*Episode{e})
}

func (r *episodeRepoPG) ListByMappings(ctx context.Context, mappingIDs []int64) ([]*Episode, error) {
	if len(mappingIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+episodeCols+` FROM episode e
		WHERE e.patient_hospital_mapping_id = ANY($1) ORDER BY e.id`, mappingIDs)
}

func (r *episodeRepoPG) ListBySurgeon(ctx context.Context, personnelID int64) ([]*Episode, error) {
	return r.list(ctx, `SELECT `+episodeCols+` FROM episode e
		JOIN episode_surgeon s ON s.episode_id = e.id
		WHERE s.medical_personnel_id = $1
		ORDER BY e.surgery_date DESC, e.id DESC`, personnelID)
}

func (r *episodeRepoPG) SurgeonSummary(ctx context.Context, personnelID int64) (int, dates.Date, error) {
	var count int
	var last *time.Time
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COUNT(*), MAX(e.surgery_date) FROM episode e
		JOIN episode_surgeon s ON s.episode_id = e.id
		WHERE s.medical_personnel_id = $1`, personnelID).Scan(&count, &last)
	if err != nil || last == nil {
		return count, dates.Date{}, err
	}
	return count, dates.New(*last), nil
}

// =========== Discharge Repository ===========

type dischargeRepoPG struct{ pool *pgxpool.Pool }

func NewDischargeRepoPG(pool *pgxpool.Pool) DischargeRepository { return &dischargeRepoPG{pool: pool} }

const dischargeCols = `id, episode_id, date, aware_of_mesh, infection, discharge_duration, comments, created_at`

func scanDischarge(row pgx.Row) (*Discharge, error) {
	var d Discharge
	var date time.Time
	err := row.Scan(&d.ID, &d.EpisodeID, &date, &d.AwareOfMesh, &d.Infection, &d.DischargeDuration,
		&d.Comments, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.Date = dates.New(date)
	return &d, nil
}

func (r *dischargeRepoPG) Create(ctx context.Context, d *Discharge) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO discharge (episode_id, date, aware_of_mesh, infection, discharge_duration, comments)
		VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at`,
		d.EpisodeID, d.Date.Time, d.AwareOfMesh, d.Infection, d.DischargeDuration, d.Comments,
	).Scan(&d.ID, &d.CreatedAt)
	if constraint, ok := db.UniqueViolation(err); ok && constraint == "discharge_episode_key" {
		return apperrors.NewIntegrityError(fmt.Sprintf(msgInvalidPK, d.EpisodeID), err)
	}
	return err
}

func (r *dischargeRepoPG) GetByEpisode(ctx context.Context, episodeID int64) (*Discharge, error) {
	d, err := scanDischarge(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+dischargeCols+` FROM discharge WHERE episode_id = $1`, episodeID))
	if db.IsNoRows(err) {
		return nil, apperrors.NewNotFoundError("Episode %d has no discharge.", episodeID)
	}
	return d, err
}

func (r *dischargeRepoPG) ListByEpisodes(ctx context.Context, episodeIDs []int64) ([]*Discharge, error) {
	if len(episodeIDs) == 0 {
		return nil, nil
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+dischargeCols+` FROM discharge WHERE episode_id = ANY($1) ORDER BY id`, episodeIDs)
	return collect(rows, err, scanDischarge)
}

// =========== Follow-up Repository ===========

type followUpRepoPG struct{ pool *pgxpool.Pool }

func NewFollowUpRepoPG(pool *pgxpool.Pool) FollowUpRepository { return &followUpRepoPG{pool: pool} }

const followUpCols = `id, episode_id, date, pain_severity, mesh_awareness, seroma, infection, numbness,
	further_surgery_need, surgery_comments_box, created_at, updated_at`

func scanFollowUp(row pgx.Row) (*FollowUp, error) {
	var f FollowUp
	var date time.Time
	err := row.Scan(&f.ID, &f.EpisodeID, &date, &f.PainSeverity, &f.MeshAwareness, &f.Seroma, &f.Infection,
		&f.Numbness, &f.FurtherSurgeryNeed, &f.SurgeryCommentsBox, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	f.Date = dates.New(date)
	return &f, nil
}

func (r *followUpRepoPG) Create(ctx context.Context, f *FollowUp) error {
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO follow_up (episode_id, date, pain_severity, mesh_awareness, seroma, infection, numbness,
			further_surgery_need, surgery_comments_box)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id, created_at, updated_at`,
		f.EpisodeID, f.Date.Time, f.PainSeverity, f.MeshAwareness, f.Seroma, f.Infection, f.Numbness,
		f.FurtherSurgeryNeed, f.SurgeryCommentsBox,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
}

func (r *followUpRepoPG) SetAttendees(ctx context.Context, followUpID int64, personnelIDs []int64) error {
	q := db.Conn(ctx, r.pool)
	if _, err := q.Exec(ctx, `DELETE FROM follow_up_attendee WHERE follow_up_id = $1`, followUpID); err != nil {
		return err
	}
	for _, id := range personnelIDs {
		if _, err := q.Exec(ctx,
			`INSERT INTO follow_up_attendee (follow_up_id, medical_personnel_id) VALUES ($1, $2)`,
			followUpID, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *followUpRepoPG) ListByEpisodes(ctx context.Context, episodeIDs []int64) ([]*FollowUp, error) {
	if len(episodeIDs) == 0 {
		return nil, nil
	}
	q := db.Conn(ctx, r.pool)
	rows, err := q.Query(ctx,
		`SELECT `+followUpCols+` FROM follow_up WHERE episode_id = ANY($1) ORDER BY id`, episodeIDs)
	items, err := collect(rows, err, scanFollowUp)
	if err != nil || len(items) == 0 {
		return items, err
	}

	byID := make(map[int64]*FollowUp, len(items))
	ids := make([]int64, 0, len(items))
	for _, f := range items {
		byID[f.ID] = f
		ids = append(ids, f.ID)
	}
	attendees, err := q.Query(ctx, `
		SELECT follow_up_id, medical_personnel_id FROM follow_up_attendee
		WHERE follow_up_id = ANY($1) ORDER BY follow_up_id, medical_personnel_id`, ids)
	if err != nil {
		return nil, err
	}
	defer attendees.Close()
	for attendees.Next() {
		var followUpID, personnelID int64
		if err := attendees.Scan(&followUpID, &personnelID); err != nil {
			return nil, err
		}
		f := byID[followUpID]
		f.AttendeeIDs = append(f.AttendeeIDs, personnelID)
	}
	return items, attendees.Err()
}
