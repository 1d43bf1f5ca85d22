package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tmh/registry/pkg/dates"
)

type Hospital struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type Patient struct {
	ID           int64
	FullName     string
	NationalID   *string
	DayOfBirth   *int
	MonthOfBirth *int
	YearOfBirth  int
	Gender       string
	Phone1       *string
	Phone2       *string
	Address      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AgeIn is the patient's age as of year. Birthdays are not taken into
// account.
func (p *Patient) AgeIn(year int) int {
	return year - p.YearOfBirth
}

// Mapping links a patient to a hospital under the hospital's own
// identifier for that patient.
type Mapping struct {
	ID                int64
	PatientID         int64
	HospitalID        int64
	PatientHospitalID string
}

type Episode struct {
	ID              int64
	MappingID       int64
	Created         time.Time
	SurgeryDate     dates.Date
	EpisodeType     string
	Cepod           string
	Side            string
	Occurence       string
	Type            string
	Size            string
	Complexity      string
	MeshType        string
	AnaestheticType string
	DiathermyUsed   bool
	AntibioticUsed  bool
	AntibioticType  string
	Comments        string
	// SurgeonIDs is ordered by position; the first entry is the primary
	// surgeon.
	SurgeonIDs []int64
}

type Discharge struct {
	ID                int64
	EpisodeID         int64
	Date              dates.Date
	AwareOfMesh       bool
	Infection         string
	DischargeDuration *int
	Comments          string
	CreatedAt         time.Time
}

type FollowUp struct {
	ID                 int64
	EpisodeID          int64
	Date               dates.Date
	PainSeverity       string
	MeshAwareness      bool
	Seroma             bool
	Infection          bool
	Numbness           bool
	FurtherSurgeryNeed bool
	SurgeryCommentsBox string
	AttendeeIDs        []int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NumericText is an identifier that clients send either as a JSON number or
// as a string, such as a national id or a phone number. It is stored as
// text; null and "" both mean absent.
type NumericText string

func (t *NumericText) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = NumericText(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected a number or a string: %w", err)
	}
	*t = NumericText(n.String())
	return nil
}

func (t NumericText) String() string { return string(t) }

// Canonical returns integer-looking text in plain integer form ("0042"
// becomes "42") so that hospital-scoped ids compare the way they render.
// Other text is returned unchanged.
func (t NumericText) Canonical() string {
	if n, err := strconv.ParseInt(string(t), 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return string(t)
}

// Ptr returns nil for an absent value.
func (t NumericText) Ptr() *string {
	if t == "" {
		return nil
	}
	s := string(t)
	return &s
}

// ExternalID renders a hospital-scoped patient identifier: a JSON number
// when the stored text is an integer, null when empty, the raw string
// otherwise.
type ExternalID string

func (id ExternalID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

// ----- Inputs -----

type CreateHospitalInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	Address string `json:"address" validate:"max=255"`
}

// RegisterPatientInput is a new patient together with the hospital that
// registers them. Required-field checks for age, hospital and the hospital's
// identifier run in the service so their messages and order are fixed.
type RegisterPatientInput struct {
	FullName          string      `json:"full_name" validate:"max=255"`
	NationalID        NumericText `json:"national_id" validate:"max=64"`
	Age               *int        `json:"age" validate:"omitempty,gte=0,lte=150"`
	DayOfBirth        *int        `json:"day_of_birth" validate:"omitempty,gte=1,lte=31"`
	MonthOfBirth      *int        `json:"month_of_birth" validate:"omitempty,gte=1,lte=12"`
	YearOfBirth       *int        `json:"year_of_birth" validate:"omitempty,gte=0"`
	Gender            string      `json:"gender"`
	Phone1            NumericText `json:"phone_1" validate:"max=32"`
	Phone2            NumericText `json:"phone_2" validate:"max=32"`
	Address           string      `json:"address" validate:"max=255"`
	HospitalID        *int64      `json:"hospital_id"`
	PatientHospitalID NumericText `json:"patient_hospital_id" validate:"max=64"`
}

type CreateMappingInput struct {
	PatientID         int64       `json:"patient_id" validate:"required"`
	HospitalID        int64       `json:"hospital_id" validate:"required"`
	PatientHospitalID NumericText `json:"patient_hospital_id" validate:"required,max=64"`
}

type RegisterEpisodeInput struct {
	PatientID       int64      `json:"patient_id" validate:"required"`
	HospitalID      int64      `json:"hospital_id" validate:"required"`
	SurgeryDate     dates.Date `json:"surgery_date" validate:"required"`
	EpisodeType     string     `json:"episode_type" validate:"required"`
	Cepod           string     `json:"cepod" validate:"required"`
	Side            string     `json:"side" validate:"required"`
	Occurence       string     `json:"occurence" validate:"required"`
	Type            string     `json:"type" validate:"required"`
	Size            string     `json:"size" validate:"required"`
	Complexity      string     `json:"complexity" validate:"required"`
	MeshType        string     `json:"mesh_type" validate:"required"`
	AnaestheticType string     `json:"anaesthetic_type" validate:"required"`
	SurgeonIDs      []int64    `json:"surgeon_ids" validate:"required"`
	DiathermyUsed   *bool      `json:"diathermy_used" validate:"required"`
	AntibioticUsed  *bool      `json:"antibiotic_used" validate:"required"`
	AntibioticType  string     `json:"antibiotic_type" validate:"max=255"`
	Comments        string     `json:"comments"`
}

type RegisterDischargeInput struct {
	EpisodeID         int64      `json:"episode_id" validate:"required"`
	Date              dates.Date `json:"date" validate:"required"`
	AwareOfMesh       *bool      `json:"aware_of_mesh" validate:"required"`
	Infection         *string    `json:"infection" validate:"omitempty,max=255"`
	DischargeDuration *int       `json:"discharge_duration" validate:"omitempty,gte=0"`
	Comments          *string    `json:"comments"`
}

type RegisterFollowUpInput struct {
	EpisodeID          int64      `json:"episode_id" validate:"required"`
	Date               dates.Date `json:"date" validate:"required"`
	PainSeverity       string     `json:"pain_severity"`
	AttendeeIDs        []int64    `json:"attendee_ids" validate:"required"`
	MeshAwareness      *bool      `json:"mesh_awareness" validate:"required"`
	Seroma             *bool      `json:"seroma" validate:"required"`
	Infection          *bool      `json:"infection" validate:"required"`
	Numbness           *bool      `json:"numbness" validate:"required"`
	FurtherSurgeryNeed *bool      `json:"further_surgery_need" validate:"required"`
	SurgeryCommentsBox *string    `json:"surgery_comments_box"`
}

// PatientOrder is one ordering key of a patient listing.
type PatientOrder struct {
	Field string
	Desc  bool
}

var patientOrderFields = map[string]bool{"full_name": true, "created_at": true}

// ParsePatientOrdering reads a comma-separated ordering parameter such as
// "-created_at,full_name". Unknown fields are ignored.
func ParsePatientOrdering(raw string) []PatientOrder {
	var out []PatientOrder
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		field := strings.TrimPrefix(part, "-")
		if patientOrderFields[field] {
			out = append(out, PatientOrder{Field: field, Desc: desc})
		}
	}
	return out
}

type PatientFilter struct {
	HospitalID *int64
	SearchTerm string
	Ordering   []PatientOrder
	Limit      int
	Offset     int
}
