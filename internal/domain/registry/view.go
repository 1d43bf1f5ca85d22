package registry

import (
	"time"

	"github.com/tmh/registry/internal/domain/personnel"
	"github.com/tmh/registry/pkg/dates"
)

// Graph is the set of rows a projection draws on. Builders only read it.
type Graph struct {
	// Year is the current year used for computed ages.
	Year              int
	Hospitals         map[int64]*Hospital
	Patients          map[int64]*Patient
	Mappings          map[int64]*Mapping
	MappingsByPatient map[int64][]*Mapping
	// EpisodesByMapping holds episodes in id order.
	EpisodesByMapping map[int64][]*Episode
	Personnel         map[int64]*personnel.MedicalPersonnel
	// Discharges and FollowUps are keyed by episode id.
	Discharges map[int64]*Discharge
	FollowUps  map[int64][]*FollowUp
}

func NewGraph(year int) *Graph {
	return &Graph{
		Year:              year,
		Hospitals:         make(map[int64]*Hospital),
		Patients:          make(map[int64]*Patient),
		Mappings:          make(map[int64]*Mapping),
		MappingsByPatient: make(map[int64][]*Mapping),
		EpisodesByMapping: make(map[int64][]*Episode),
		Personnel:         make(map[int64]*personnel.MedicalPersonnel),
		Discharges:        make(map[int64]*Discharge),
		FollowUps:         make(map[int64][]*FollowUp),
	}
}

type PatientMappingView struct {
	PatientHospitalID ExternalID `json:"patient_hospital_id"`
	HospitalID        int64      `json:"hospital_id"`
}

// EpisodeSummaryView is an episode as listed inside a patient.
type EpisodeSummaryView struct {
	ID              int64               `json:"id"`
	SurgeryDate     dates.Date          `json:"surgery_date"`
	EpisodeType     string              `json:"episode_type"`
	Surgeons        []personnel.Summary `json:"surgeons"`
	Comments        string              `json:"comments"`
	Cepod           string              `json:"cepod"`
	Side            string              `json:"side"`
	Occurence       string              `json:"occurence"`
	Type            string              `json:"type"`
	Size            string              `json:"size"`
	Complexity      string              `json:"complexity"`
	MeshType        string              `json:"mesh_type"`
	AnaestheticType string              `json:"anaesthetic_type"`
	DiathermyUsed   bool                `json:"diathermy_used"`
	AntibioticUsed  bool                `json:"antibiotic_used"`
	AntibioticType  string              `json:"antibiotic_type"`
}

type PatientView struct {
	ID               int64                `json:"id"`
	FullName         string               `json:"full_name"`
	CreatedAt        time.Time            `json:"created_at"`
	NationalID       *string              `json:"national_id"`
	Age              int                  `json:"age"`
	DayOfBirth       *int                 `json:"day_of_birth"`
	MonthOfBirth     *int                 `json:"month_of_birth"`
	YearOfBirth      int                  `json:"year_of_birth"`
	Gender           string               `json:"gender"`
	Phone1           *string              `json:"phone_1"`
	Phone2           *string              `json:"phone_2"`
	Address          string               `json:"address"`
	HospitalMappings []PatientMappingView `json:"hospital_mappings"`
	Episodes         []EpisodeSummaryView `json:"episodes"`
}

type MappingView struct {
	Patient           PatientView `json:"patient"`
	Hospital          *Hospital   `json:"hospital"`
	PatientHospitalID ExternalID  `json:"patient_hospital_id"`
}

type EpisodeView struct {
	ID                     int64               `json:"id"`
	PatientHospitalMapping MappingView         `json:"patient_hospital_mapping"`
	Created                time.Time           `json:"created"`
	SurgeryDate            dates.Date          `json:"surgery_date"`
	EpisodeType            string              `json:"episode_type"`
	Surgeons               []personnel.Summary `json:"surgeons"`
	PrimarySurgeon         *personnel.Summary  `json:"primary_surgeon"`
	Comments               string              `json:"comments"`
	Cepod                  string              `json:"cepod"`
	Side                   string              `json:"side"`
	Occurence              string              `json:"occurence"`
	Type                   string              `json:"type"`
	Size                   string              `json:"size"`
	Complexity             string              `json:"complexity"`
	MeshType               string              `json:"mesh_type"`
	AnaestheticType        string              `json:"anaesthetic_type"`
	DiathermyUsed          bool                `json:"diathermy_used"`
	AntibioticUsed         bool                `json:"antibiotic_used"`
	AntibioticType         string              `json:"antibiotic_type"`
}

type DischargeView struct {
	ID                int64       `json:"id"`
	Episode           EpisodeView `json:"episode"`
	Date              dates.Date  `json:"date"`
	AwareOfMesh       bool        `json:"aware_of_mesh"`
	Infection         string      `json:"infection"`
	DischargeDuration *int        `json:"discharge_duration"`
	Comments          string      `json:"comments"`
}

type FollowUpView struct {
	ID                 int64               `json:"id"`
	Episode            EpisodeView         `json:"episode"`
	Date               dates.Date          `json:"date"`
	PainSeverity       string              `json:"pain_severity"`
	Attendees          []personnel.Summary `json:"attendees"`
	MeshAwareness      bool                `json:"mesh_awareness"`
	Seroma             bool                `json:"seroma"`
	Infection          bool                `json:"infection"`
	Numbness           bool                `json:"numbness"`
	FurtherSurgeryNeed bool                `json:"further_surgery_need"`
	SurgeryCommentsBox string              `json:"surgery_comments_box"`
}

// DischargeSummaryView and FollowUpSummaryView are the outcome records
// attached to an owned episode, without repeating the episode.
type DischargeSummaryView struct {
	ID                int64      `json:"id"`
	Date              dates.Date `json:"date"`
	AwareOfMesh       bool       `json:"aware_of_mesh"`
	Infection         string     `json:"infection"`
	DischargeDuration *int       `json:"discharge_duration"`
	Comments          string     `json:"comments"`
}

type FollowUpSummaryView struct {
	ID                 int64               `json:"id"`
	Date               dates.Date          `json:"date"`
	PainSeverity       string              `json:"pain_severity"`
	Attendees          []personnel.Summary `json:"attendees"`
	MeshAwareness      bool                `json:"mesh_awareness"`
	Seroma             bool                `json:"seroma"`
	Infection          bool                `json:"infection"`
	Numbness           bool                `json:"numbness"`
	FurtherSurgeryNeed bool                `json:"further_surgery_need"`
	SurgeryCommentsBox string              `json:"surgery_comments_box"`
}

type OwnedEpisodeView struct {
	EpisodeView
	Discharge *DischargeSummaryView `json:"discharge"`
	FollowUps []FollowUpSummaryView `json:"follow_ups"`
}

type SurgeonEpisodeSummaryView struct {
	EpisodesCount   int        `json:"episodes_count"`
	LastEpisodeDate dates.Date `json:"last_episode_date"`
}

// summaries resolves personnel ids in order, skipping ids the graph does
// not hold.
func (g *Graph) summaries(ids []int64) []personnel.Summary {
	out := make([]personnel.Summary, 0, len(ids))
	for _, id := range ids {
		if mp, ok := g.Personnel[id]; ok {
			out = append(out, personnel.NewSummary(mp))
		}
	}
	return out
}

// patientEpisodes returns every episode reachable through the patient's
// mappings.
func (g *Graph) patientEpisodes(patientID int64) []*Episode {
	var out []*Episode
	for _, m := range g.MappingsByPatient[patientID] {
		out = append(out, g.EpisodesByMapping[m.ID]...)
	}
	return out
}

func NewPatientView(g *Graph, p *Patient) PatientView {
	v := PatientView{
		ID:               p.ID,
		FullName:         p.FullName,
		CreatedAt:        p.CreatedAt,
		NationalID:       p.NationalID,
		Age:              p.AgeIn(g.Year),
		DayOfBirth:       p.DayOfBirth,
		MonthOfBirth:     p.MonthOfBirth,
		YearOfBirth:      p.YearOfBirth,
		Gender:           Genders.Label(p.Gender),
		Phone1:           p.Phone1,
		Phone2:           p.Phone2,
		Address:          p.Address,
		HospitalMappings: []PatientMappingView{},
		Episodes:         []EpisodeSummaryView{},
	}
	for _, m := range g.MappingsByPatient[p.ID] {
		v.HospitalMappings = append(v.HospitalMappings, PatientMappingView{
			PatientHospitalID: ExternalID(m.PatientHospitalID),
			HospitalID:        m.HospitalID,
		})
	}
	for _, e := range g.patientEpisodes(p.ID) {
		v.Episodes = append(v.Episodes, newEpisodeSummaryView(g, e))
	}
	return v
}

func newEpisodeSummaryView(g *Graph, e *Episode) EpisodeSummaryView {
	return EpisodeSummaryView{
		ID:              e.ID,
		SurgeryDate:     e.SurgeryDate,
		EpisodeType:     EpisodeTypes.Label(e.EpisodeType),
		Surgeons:        g.summaries(e.SurgeonIDs),
		Comments:        e.Comments,
		Cepod:           Cepods.Label(e.Cepod),
		Side:            Sides.Label(e.Side),
		Occurence:       Occurences.Label(e.Occurence),
		Type:            HerniaTypes.Label(e.Type),
		Size:            Sizes.Label(e.Size),
		Complexity:      Complexities.Label(e.Complexity),
		MeshType:        MeshTypes.Label(e.MeshType),
		AnaestheticType: AnaestheticTypes.Label(e.AnaestheticType),
		DiathermyUsed:   e.DiathermyUsed,
		AntibioticUsed:  e.AntibioticUsed,
		AntibioticType:  e.AntibioticType,
	}
}

func NewMappingView(g *Graph, m *Mapping) MappingView {
	v := MappingView{
		Hospital:          g.Hospitals[m.HospitalID],
		PatientHospitalID: ExternalID(m.PatientHospitalID),
	}
	if p, ok := g.Patients[m.PatientID]; ok {
		v.Patient = NewPatientView(g, p)
	}
	return v
}

func NewEpisodeView(g *Graph, e *Episode) EpisodeView {
	s := newEpisodeSummaryView(g, e)
	v := EpisodeView{
		ID:              e.ID,
		Created:         e.Created,
		SurgeryDate:     s.SurgeryDate,
		EpisodeType:     s.EpisodeType,
		Surgeons:        s.Surgeons,
		Comments:        s.Comments,
		Cepod:           s.Cepod,
		Side:            s.Side,
		Occurence:       s.Occurence,
		Type:            s.Type,
		Size:            s.Size,
		Complexity:      s.Complexity,
		MeshType:        s.MeshType,
		AnaestheticType: s.AnaestheticType,
		DiathermyUsed:   s.DiathermyUsed,
		AntibioticUsed:  s.AntibioticUsed,
		AntibioticType:  s.AntibioticType,
	}
	if m, ok := g.Mappings[e.MappingID]; ok {
		v.PatientHospitalMapping = NewMappingView(g, m)
	}
	if len(e.SurgeonIDs) > 0 {
		if mp, ok := g.Personnel[e.SurgeonIDs[0]]; ok {
			primary := personnel.NewSummary(mp)
			v.PrimarySurgeon = &primary
		}
	}
	return v
}

func NewDischargeView(g *Graph, e *Episode, d *Discharge) DischargeView {
	return DischargeView{
		ID:                d.ID,
		Episode:           NewEpisodeView(g, e),
		Date:              d.Date,
		AwareOfMesh:       d.AwareOfMesh,
		Infection:         d.Infection,
		DischargeDuration: d.DischargeDuration,
		Comments:          d.Comments,
	}
}

func NewFollowUpView(g *Graph, e *Episode, f *FollowUp) FollowUpView {
	s := newFollowUpSummaryView(g, f)
	return FollowUpView{
		ID:                 f.ID,
		Episode:            NewEpisodeView(g, e),
		Date:               s.Date,
		PainSeverity:       s.PainSeverity,
		Attendees:          s.Attendees,
		MeshAwareness:      s.MeshAwareness,
		Seroma:             s.Seroma,
		Infection:          s.Infection,
		Numbness:           s.Numbness,
		FurtherSurgeryNeed: s.FurtherSurgeryNeed,
		SurgeryCommentsBox: s.SurgeryCommentsBox,
	}
}

func newFollowUpSummaryView(g *Graph, f *FollowUp) FollowUpSummaryView {
	return FollowUpSummaryView{
		ID:                 f.ID,
		Date:               f.Date,
		PainSeverity:       PainSeverities.Label(f.PainSeverity),
		Attendees:          g.summaries(f.AttendeeIDs),
		MeshAwareness:      f.MeshAwareness,
		Seroma:             f.Seroma,
		Infection:          f.Infection,
		Numbness:           f.Numbness,
		FurtherSurgeryNeed: f.FurtherSurgeryNeed,
		SurgeryCommentsBox: f.SurgeryCommentsBox,
	}
}

func NewOwnedEpisodeView(g *Graph, e *Episode) OwnedEpisodeView {
	v := OwnedEpisodeView{
		EpisodeView: NewEpisodeView(g, e),
		FollowUps:   []FollowUpSummaryView{},
	}
	if d, ok := g.Discharges[e.ID]; ok {
		v.Discharge = &DischargeSummaryView{
			ID:                d.ID,
			Date:              d.Date,
			AwareOfMesh:       d.AwareOfMesh,
			Infection:         d.Infection,
			DischargeDuration: d.DischargeDuration,
			Comments:          d.Comments,
		}
	}
	for _, f := range g.FollowUps[e.ID] {
		v.FollowUps = append(v.FollowUps, newFollowUpSummaryView(g, f))
	}
	return v
}
