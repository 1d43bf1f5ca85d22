package registry

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tmh/registry/internal/domain/personnel"
	"github.com/tmh/registry/internal/platform/db"
	"github.com/tmh/registry/pkg/apperrors"
	"github.com/tmh/registry/pkg/choice"
)

const (
	msgAgeOrYear          = "Either 'age' or 'year_of_birth' should be populated."
	msgHospitalMissing    = "The hospital you are trying to register this patient does not exist."
	msgHospitalRequired   = "The patient needs to be registered to a hospital."
	msgExternalIDRequired = "The 'patient_hospital_id' should be provided."
	msgExternalIDInUse    = "The patient hospital id %s is already registered to another patient of this hospital."
	msgExternalIDNotInt   = "The 'patient_hospital_id' field should be an integer."
	msgMappingExists      = "PatientHospitalMapping for patient_id %d and hospital_id %d already exists!"
	msgExternalIDTaken    = "Patient Hospital ID %s already exists for another patient in this hospital"
	msgMappingMissing     = "PatientHospitalMapping for patient_id %d and hospital_id %d does not exist."
	msgNationalIDTaken    = "patient with this national id already exists."
	msgInvalidPK          = "Invalid pk \"%d\" - object does not exist."
	msgSurgeryAfterDisch  = "Episode surgery date cannot be after Discharge date"
	msgSurgeryAfterFollow = "Episode surgery date cannot be after Follow Up date"
	msgDischAfterFollow   = "Episode Discharge date cannot be after Follow Up date"
	msgRequiredField      = "%s : This field is required."
)

// Personnel is what the registry needs from the personnel service.
type Personnel interface {
	Lookup(ctx context.Context, ids []int64) ([]*personnel.MedicalPersonnel, error)
	GetPreferredHospital(ctx context.Context, p *personnel.Principal) (*personnel.PreferredHospital, error)
}

type Service struct {
	hospitals  HospitalRepository
	patients   PatientRepository
	mappings   MappingRepository
	episodes   EpisodeRepository
	discharges DischargeRepository
	followUps  FollowUpRepository
	personnel  Personnel
	tx         db.Transactor
	now        func() time.Time
}

type Repositories struct {
	Hospitals  HospitalRepository
	Patients   PatientRepository
	Mappings   MappingRepository
	Episodes   EpisodeRepository
	Discharges DischargeRepository
	FollowUps  FollowUpRepository
}

func NewService(repos Repositories, people Personnel, tx db.Transactor) *Service {
	return &Service{
		hospitals:  repos.Hospitals,
		patients:   repos.Patients,
		mappings:   repos.Mappings,
		episodes:   repos.Episodes,
		discharges: repos.Discharges,
		followUps:  repos.FollowUps,
		personnel:  people,
		tx:         tx,
		now:        time.Now,
	}
}

// -- Hospitals --

func (s *Service) CreateHospital(ctx context.Context, in CreateHospitalInput) (*Hospital, error) {
	h := &Hospital{Name: strings.TrimSpace(in.Name), Address: strings.TrimSpace(in.Address)}
	if h.Name == "" {
		return nil, apperrors.NewValidationError(msgRequiredField, "name")
	}
	if err := s.hospitals.Create(ctx, h); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Int64("hospital_id", h.ID).Msg("hospital created")
	return h, nil
}

func (s *Service) GetHospital(ctx context.Context, id int64) (*Hospital, error) {
	return s.hospitals.GetByID(ctx, id)
}

func (s *Service) ListHospitals(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	return s.hospitals.List(ctx, limit, offset)
}

// -- Patients --

// RegisterPatient creates a patient and its first hospital mapping in one
// transaction. Checks run in a fixed order and the first failure is
// returned.
func (s *Service) RegisterPatient(ctx context.Context, in RegisterPatientInput) (PatientView, error) {
	year := 0
	if in.YearOfBirth != nil {
		year = *in.YearOfBirth
	}
	if year == 0 {
		if in.Age == nil {
			return PatientView{}, apperrors.NewValidationError(msgAgeOrYear)
		}
		year = s.now().Year() - *in.Age
	}

	if in.HospitalID == nil || *in.HospitalID == 0 {
		return PatientView{}, apperrors.NewValidationError(msgHospitalRequired)
	}
	hospital, err := s.hospitals.GetByID(ctx, *in.HospitalID)
	if apperrors.Is(err, apperrors.TypeNotFound) {
		return PatientView{}, apperrors.NewValidationError(msgHospitalMissing)
	}
	if err != nil {
		return PatientView{}, err
	}

	externalID := in.PatientHospitalID.Canonical()
	if externalID == "" {
		return PatientView{}, apperrors.NewValidationError(msgExternalIDRequired)
	}
	if err := s.externalIDFree(ctx, hospital.ID, externalID, msgExternalIDInUse); err != nil {
		return PatientView{}, err
	}

	gender, err := Genders.Resolve(in.Gender)
	if err != nil {
		return PatientView{}, unsupportedChoice(ctx, err)
	}

	p := &Patient{
		FullName:     strings.TrimSpace(in.FullName),
		NationalID:   in.NationalID.Ptr(),
		DayOfBirth:   in.DayOfBirth,
		MonthOfBirth: in.MonthOfBirth,
		YearOfBirth:  year,
		Gender:       gender,
		Phone1:       in.Phone1.Ptr(),
		Phone2:       in.Phone2.Ptr(),
		Address:      strings.TrimSpace(in.Address),
	}
	if p.NationalID != nil {
		taken, err := s.patients.NationalIDTaken(ctx, *p.NationalID)
		if err != nil {
			return PatientView{}, err
		}
		if taken {
			return PatientView{}, apperrors.NewValidationError(msgNationalIDTaken)
		}
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.patients.Create(ctx, p); err != nil {
			return err
		}
		return s.mappings.Create(ctx, &Mapping{PatientID: p.ID, HospitalID: hospital.ID, PatientHospitalID: externalID})
	})
	if err != nil {
		return PatientView{}, err
	}
	zerolog.Ctx(ctx).Info().Int64("patient_id", p.ID).Int64("hospital_id", hospital.ID).Msg("patient registered")

	return s.patientView(ctx, p.ID)
}

// externalIDFree fails with msg when the hospital already uses
// externalID for a patient.
func (s *Service) externalIDFree(ctx context.Context, hospitalID int64, externalID, msg string) error {
	_, err := s.mappings.FindByExternalID(ctx, hospitalID, externalID)
	switch {
	case err == nil:
		return apperrors.NewValidationError(msg, externalID)
	case apperrors.Is(err, apperrors.TypeNotFound):
		return nil
	default:
		return err
	}
}

func (s *Service) GetPatient(ctx context.Context, id int64) (PatientView, error) {
	if _, err := s.patients.GetByID(ctx, id); err != nil {
		return PatientView{}, err
	}
	return s.patientView(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, f PatientFilter) ([]PatientView, int, error) {
	items, total, err := s.patients.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.patientViews(ctx, items)
	return views, total, err
}

func (s *Service) patientView(ctx context.Context, id int64) (PatientView, error) {
	g, err := s.graph(ctx, []int64{id}, nil)
	if err != nil {
		return PatientView{}, err
	}
	p, ok := g.Patients[id]
	if !ok {
		return PatientView{}, apperrors.NewNotFoundError("Patient %d not found.", id)
	}
	return NewPatientView(g, p), nil
}

// patientViews keeps the order of patients.
func (s *Service) patientViews(ctx context.Context, patients []*Patient) ([]PatientView, error) {
	ids := make([]int64, 0, len(patients))
	for _, p := range patients {
		ids = append(ids, p.ID)
	}
	g, err := s.graph(ctx, ids, nil)
	if err != nil {
		return nil, err
	}
	views := make([]PatientView, 0, len(patients))
	for _, p := range patients {
		views = append(views, NewPatientView(g, p))
	}
	return views, nil
}

// -- Mappings --

func (s *Service) CreateMapping(ctx context.Context, in CreateMappingInput) (MappingView, error) {
	if err := s.requirePatient(ctx, in.PatientID); err != nil {
		return MappingView{}, err
	}
	if err := s.requireHospital(ctx, in.HospitalID); err != nil {
		return MappingView{}, err
	}
	if _, err := strconv.ParseInt(in.PatientHospitalID.String(), 10, 64); err != nil {
		return MappingView{}, apperrors.NewValidationError(msgExternalIDNotInt)
	}
	externalID := in.PatientHospitalID.Canonical()

	_, err := s.mappings.Find(ctx, in.PatientID, in.HospitalID)
	switch {
	case err == nil:
		return MappingView{}, apperrors.NewValidationError(msgMappingExists, in.PatientID, in.HospitalID)
	case !apperrors.Is(err, apperrors.TypeNotFound):
		return MappingView{}, err
	}
	if err := s.externalIDFree(ctx, in.HospitalID, externalID, msgExternalIDTaken); err != nil {
		return MappingView{}, err
	}

	m := &Mapping{PatientID: in.PatientID, HospitalID: in.HospitalID, PatientHospitalID: externalID}
	if err := s.mappings.Create(ctx, m); err != nil {
		return MappingView{}, err
	}
	zerolog.Ctx(ctx).Info().Int64("mapping_id", m.ID).Msg("patient hospital mapping created")

	g, err := s.graph(ctx, []int64{m.PatientID}, nil)
	if err != nil {
		return MappingView{}, err
	}
	return NewMappingView(g, m), nil
}

// requirePatient and requireHospital reject references to missing rows
// as invalid input.
func (s *Service) requirePatient(ctx context.Context, id int64) error {
	_, err := s.patients.GetByID(ctx, id)
	if apperrors.Is(err, apperrors.TypeNotFound) {
		return apperrors.NewValidationError(msgInvalidPK, id)
	}
	return err
}

func (s *Service) requireHospital(ctx context.Context, id int64) error {
	_, err := s.hospitals.GetByID(ctx, id)
	if apperrors.Is(err, apperrors.TypeNotFound) {
		return apperrors.NewValidationError(msgInvalidPK, id)
	}
	return err
}

// -- Episodes --

type categoryField struct {
	name  string
	set   choice.Set
	label string
	code  *string
}

func (s *Service) RegisterEpisode(ctx context.Context, in RegisterEpisodeInput) (EpisodeView, error) {
	if err := s.requirePatient(ctx, in.PatientID); err != nil {
		return EpisodeView{}, err
	}
	if err := s.requireHospital(ctx, in.HospitalID); err != nil {
		return EpisodeView{}, err
	}
	if in.SurgeryDate.IsZero() {
		return EpisodeView{}, apperrors.NewValidationError(msgRequiredField, "surgery_date")
	}

	mapping, err := s.mappings.Find(ctx, in.PatientID, in.HospitalID)
	if apperrors.Is(err, apperrors.TypeNotFound) {
		return EpisodeView{}, apperrors.NewValidationError(msgMappingMissing, in.PatientID, in.HospitalID)
	}
	if err != nil {
		return EpisodeView{}, err
	}

	e := &Episode{
		MappingID:      mapping.ID,
		SurgeryDate:    in.SurgeryDate,
		DiathermyUsed:  in.DiathermyUsed != nil && *in.DiathermyUsed,
		AntibioticUsed: in.AntibioticUsed != nil && *in.AntibioticUsed,
		AntibioticType: strings.TrimSpace(in.AntibioticType),
		Comments:       in.Comments,
	}
	if err := resolveCategories(ctx, []categoryField{
		{"episode_type", EpisodeTypes, in.EpisodeType, &e.EpisodeType},
		{"cepod", Cepods, in.Cepod, &e.Cepod},
		{"side", Sides, in.Side, &e.Side},
		{"occurence", Occurences, in.Occurence, &e.Occurence},
		{"type", HerniaTypes, in.Type, &e.Type},
		{"size", Sizes, in.Size, &e.Size},
		{"complexity", Complexities, in.Complexity, &e.Complexity},
		{"mesh_type", MeshTypes, in.MeshType, &e.MeshType},
		{"anaesthetic_type", AnaestheticTypes, in.AnaestheticType, &e.AnaestheticType},
	}); err != nil {
		return EpisodeView{}, err
	}

	surgeons, err := s.personnel.Lookup(ctx, uniqueIDs(in.SurgeonIDs))
	if err != nil {
		return EpisodeView{}, err
	}
	for _, mp := range surgeons {
		e.SurgeonIDs = append(e.SurgeonIDs, mp.ID)
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.episodes.Create(ctx, e); err != nil {
			return err
		}
		if len(e.SurgeonIDs) == 0 {
			return nil
		}
		return s.episodes.SetSurgeons(ctx, e.ID, e.SurgeonIDs)
	})
	if err != nil {
		return EpisodeView{}, err
	}
	zerolog.Ctx(ctx).Info().Int64("episode_id", e.ID).Int64("mapping_id", mapping.ID).Msg("episode registered")

	return s.episodeView(ctx, e.ID)
}

// resolveCategories requires every label, then resolves them all. Any
// unknown label fails the whole set with one message.
func resolveCategories(ctx context.Context, fields []categoryField) error {
	for _, f := range fields {
		if strings.TrimSpace(f.label) == "" {
			return apperrors.NewValidationError(msgRequiredField, f.name)
		}
	}
	for _, f := range fields {
		code, err := f.set.Resolve(f.label)
		if err != nil {
			return unsupportedChoice(ctx, err)
		}
		*f.code = code
	}
	return nil
}

// unsupportedChoice hides which label failed from the client. The detail,
// including the accepted labels, goes to the request log.
func unsupportedChoice(ctx context.Context, err error) error {
	zerolog.Ctx(ctx).Debug().Err(err).Msg("unsupported choice label")
	return apperrors.NewValidationError(msgUnsupportedChoice)
}

// uniqueIDs drops repeats, keeping first occurrences in order.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (s *Service) GetEpisode(ctx context.Context, id int64) (EpisodeView, error) {
	return s.episodeView(ctx, id)
}

func (s *Service) episodeView(ctx context.Context, id int64) (EpisodeView, error) {
	e, g, err := s.episodeGraph(ctx, id, false)
	if err != nil {
		return EpisodeView{}, err
	}
	return NewEpisodeView(g, e), nil
}

// episodeGraph loads an episode and everything its projection needs.
// withOutcomes also loads its discharge and follow-ups.
func (s *Service) episodeGraph(ctx context.Context, id int64, withOutcomes bool) (*Episode, *Graph, error) {
	e, err := s.episodes.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	mappings, err := s.mappings.ListByIDs(ctx, []int64{e.MappingID})
	if err != nil {
		return nil, nil, err
	}
	var patientIDs []int64
	for _, m := range mappings {
		patientIDs = append(patientIDs, m.PatientID)
	}
	var outcomes []int64
	if withOutcomes {
		outcomes = []int64{e.ID}
	}
	g, err := s.graph(ctx, patientIDs, outcomes)
	if err != nil {
		return nil, nil, err
	}
	return e, g, nil
}

// GetEpisodeDischarge returns nil when the episode has not been
// discharged.
func (s *Service) GetEpisodeDischarge(ctx context.Context, episodeID int64) (*DischargeView, error) {
	e, g, err := s.episodeGraph(ctx, episodeID, true)
	if err != nil {
		return nil, err
	}
	d, ok := g.Discharges[e.ID]
	if !ok {
		return nil, nil
	}
	v := NewDischargeView(g, e, d)
	return &v, nil
}

func (s *Service) ListEpisodeFollowUps(ctx context.Context, episodeID int64) ([]FollowUpView, error) {
	e, g, err := s.episodeGraph(ctx, episodeID, true)
	if err != nil {
		return nil, err
	}
	views := make([]FollowUpView, 0, len(g.FollowUps[e.ID]))
	for _, f := range g.FollowUps[e.ID] {
		views = append(views, NewFollowUpView(g, e, f))
	}
	return views, nil
}

// -- Discharges --

func (s *Service) RegisterDischarge(ctx context.Context, in RegisterDischargeInput) (DischargeView, error) {
	episode, err := s.episodes.GetByID(ctx, in.EpisodeID)
	if apperrors.Is(err, apperrors.TypeNotFound) {
		return DischargeView{}, apperrors.NewValidationError(msgInvalidPK, in.EpisodeID)
	}
	if err != nil {
		return DischargeView{}, err
	}
	// An episode that is already discharged is not a valid target.
	_, err = s.discharges.GetByEpisode(ctx, episode.ID)
	switch {
	case err == nil:
		return DischargeView{}, apperrors.NewValidationError(msgInvalidPK, in.EpisodeID)
	case !apperrors.Is(err, apperrors.TypeNotFound):
		return DischargeView{}, err
	}

	if in.Date.IsZero() {
		return DischargeView{}, apperrors.NewValidationError(msgRequiredField, "date")
	}
	if in.Date.Before(episode.SurgeryDate) {
		return DischargeView{}, apperrors.NewValidationError(msgSurgeryAfterDisch)
	}

	d := &Discharge{
		EpisodeID:         episode.ID,
		Date:              in.Date,
		AwareOfMesh:       in.AwareOfMesh != nil && *in.AwareOfMesh,
		Infection:         deref(in.Infection),
		DischargeDuration: in.DischargeDuration,
		Comments:          deref(in.Comments),
	}
	if err := s.discharges.Create(ctx, d); err != nil {
		return DischargeView{}, err
	}
	zerolog.Ctx(ctx).Info().Int64("discharge_id", d.ID).Int64("episode_id", episode.ID).Msg("discharge registered")

	e, g, err := s.episodeGraph(ctx, episode.ID, false)
	if err != nil {
		return DischargeView{}, err
	}
	return NewDischargeView(g, e, d), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// -- Follow-ups --

func (s *Service) RegisterFollowUp(ctx context.Context, in RegisterFollowUpInput) (FollowUpView, error) {
	episode, err := s.episodes.GetByID(ctx, in.EpisodeID)
	if apperrors.Is(err, apperrors.TypeNotFound) {
		return FollowUpView{}, apperrors.NewValidationError(msgInvalidPK, in.EpisodeID)
	}
	if err != nil {
		return FollowUpView{}, err
	}
	// Only discharged episodes can be followed up.
	discharge, err := s.discharges.GetByEpisode(ctx, episode.ID)
	if apperrors.Is(err, apperrors.TypeNotFound) {
		return FollowUpView{}, apperrors.NewValidationError(msgInvalidPK, in.EpisodeID)
	}
	if err != nil {
		return FollowUpView{}, err
	}

	if in.Date.IsZero() {
		return FollowUpView{}, apperrors.NewValidationError(msgRequiredField, "date")
	}
	if in.Date.Before(episode.SurgeryDate) {
		return FollowUpView{}, apperrors.NewValidationError(msgSurgeryAfterFollow)
	}
	if in.Date.Before(discharge.Date) {
		return FollowUpView{}, apperrors.NewValidationError(msgDischAfterFollow)
	}

	pain, err := PainSeverities.Resolve(in.PainSeverity)
	if err != nil {
		return FollowUpView{}, unsupportedChoice(ctx, err)
	}
	attendees, err := s.personnel.Lookup(ctx, uniqueIDs(in.AttendeeIDs))
	if err != nil {
		return FollowUpView{}, err
	}

	f := &FollowUp{
		EpisodeID:          episode.ID,
		Date:               in.Date,
		PainSeverity:       pain,
		MeshAwareness:      in.MeshAwareness != nil && *in.MeshAwareness,
		Seroma:             in.Seroma != nil && *in.Seroma,
		Infection:          in.Infection != nil && *in.Infection,
		Numbness:           in.Numbness != nil && *in.Numbness,
		FurtherSurgeryNeed: in.FurtherSurgeryNeed != nil && *in.FurtherSurgeryNeed,
		SurgeryCommentsBox: deref(in.SurgeryCommentsBox),
	}
	for _, mp := range attendees {
		f.AttendeeIDs = append(f.AttendeeIDs, mp.ID)
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.followUps.Create(ctx, f); err != nil {
			return err
		}
		return s.followUps.SetAttendees(ctx, f.ID, f.AttendeeIDs)
	})
	if err != nil {
		return FollowUpView{}, err
	}
	zerolog.Ctx(ctx).Info().Int64("follow_up_id", f.ID).Int64("episode_id", episode.ID).Msg("follow-up registered")

	e, g, err := s.episodeGraph(ctx, episode.ID, true)
	if err != nil {
		return FollowUpView{}, err
	}
	return NewFollowUpView(g, e, f), nil
}

// -- Graph loading --

// graph loads the patients in patientIDs with their mappings, hospitals
// and episodes, plus the discharge and follow-ups of each episode in
// outcomes, and every medical personnel those rows reference.
func (s *Service) graph(ctx context.Context, patientIDs, outcomes []int64) (*Graph, error) {
	g := NewGraph(s.now().Year())
	personnelIDs := map[int64]bool{}

	patients, err := s.patients.ListByIDs(ctx, uniqueIDs(patientIDs))
	if err != nil {
		return nil, err
	}
	for _, p := range patients {
		g.Patients[p.ID] = p
	}

	mappings, err := s.mappings.ListByPatients(ctx, uniqueIDs(patientIDs))
	if err != nil {
		return nil, err
	}
	var mappingIDs, hospitalIDs []int64
	for _, m := range mappings {
		g.Mappings[m.ID] = m
		g.MappingsByPatient[m.PatientID] = append(g.MappingsByPatient[m.PatientID], m)
		mappingIDs = append(mappingIDs, m.ID)
		hospitalIDs = append(hospitalIDs, m.HospitalID)
	}

	hospitals, err := s.hospitals.ListByIDs(ctx, uniqueIDs(hospitalIDs))
	if err != nil {
		return nil, err
	}
	for _, h := range hospitals {
		g.Hospitals[h.ID] = h
	}

	episodes, err := s.episodes.ListByMappings(ctx, mappingIDs)
	if err != nil {
		return nil, err
	}
	for _, e := range episodes {
		g.EpisodesByMapping[e.MappingID] = append(g.EpisodesByMapping[e.MappingID], e)
		for _, id := range e.SurgeonIDs {
			personnelIDs[id] = true
		}
	}

	if len(outcomes) > 0 {
		discharges, err := s.discharges.ListByEpisodes(ctx, outcomes)
		if err != nil {
			return nil, err
		}
		for _, d := range discharges {
			g.Discharges[d.EpisodeID] = d
		}
		followUps, err := s.followUps.ListByEpisodes(ctx, outcomes)
		if err != nil {
			return nil, err
		}
		for _, f := range followUps {
			g.FollowUps[f.EpisodeID] = append(g.FollowUps[f.EpisodeID], f)
			for _, id := range f.AttendeeIDs {
				personnelIDs[id] = true
			}
		}
	}

	if len(personnelIDs) > 0 {
		ids := make([]int64, 0, len(personnelIDs))
		for id := range personnelIDs {
			ids = append(ids, id)
		}
		people, err := s.personnel.Lookup(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, mp := range people {
			g.Personnel[mp.ID] = mp
		}
	}
	return g, nil
}
