package personnel

import (
	"time"

	"github.com/tmh/registry/pkg/choice"
)

const (
	LevelSurgeon      = "SURGEON"
	LevelLeadSurgeon  = "LEAD_SURGEON"
	LevelNationalLead = "NATIONAL_LEAD"
)

// Levels is the seniority enumeration of a MedicalPersonnel profile.
var Levels = choice.NewSet("level",
	choice.Option{Code: LevelSurgeon, Label: "Surgeon"},
	choice.Option{Code: LevelLeadSurgeon, Label: "Lead Surgeon"},
	choice.Option{Code: LevelNationalLead, Label: "National Lead"},
)

// User mirrors an identity-provider account. Subject is the token "sub".
type User struct {
	ID        int64     `json:"id"`
	Subject   string    `json:"-"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsStaff   bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}

type MedicalPersonnel struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Level  string `json:"level"`
	User   *User  `json:"user,omitempty"`
}

type PreferredHospital struct {
	ID                 int64 `json:"id"`
	MedicalPersonnelID int64 `json:"medical_personnel_id"`
	HospitalID         int64 `json:"hospital_id"`
}

// Principal is the caller as the registry sees it. Personnel is nil for
// accounts without a MedicalPersonnel profile.
type Principal struct {
	User      *User
	Personnel *MedicalPersonnel
	// IsStaff combines the stored flag with the token claim.
	IsStaff bool
}

func (p *Principal) PersonnelID() (int64, bool) {
	if p == nil || p.Personnel == nil {
		return 0, false
	}
	return p.Personnel.ID, true
}

// IsMedicalPersonnel reports whether the caller may use the clinical
// endpoints: a staff account with a MedicalPersonnel profile.
func (p *Principal) IsMedicalPersonnel() bool {
	return p != nil && p.Personnel != nil && p.IsStaff
}

// CreateUserInput provisions an account plus its MedicalPersonnel profile.
type CreateUserInput struct {
	Subject   string `json:"subject" validate:"omitempty,max=255"`
	Username  string `json:"username" validate:"required,max=150"`
	Email     string `json:"email" validate:"required,email,max=254"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	IsStaff   *bool  `json:"is_staff"`
	Level     string `json:"level"`
}

type UpdateProfileInput struct {
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
}

type SetPreferredHospitalInput struct {
	HospitalID int64 `json:"hospital_id" validate:"required,gt=0"`
}
