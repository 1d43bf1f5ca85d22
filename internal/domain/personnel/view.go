package personnel

// UserSummary is the account part of a personnel summary.
type UserSummary struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Summary is how surgeons and attendees appear inside episode and
// follow-up reads.
type Summary struct {
	ID    int64        `json:"id"`
	User  *UserSummary `json:"user"`
	Level string       `json:"level"`
}

// MeView is the body of GET /users/me.
type MeView struct {
	ID                int64    `json:"id"`
	Username          string   `json:"username"`
	Email             string   `json:"email"`
	FirstName         string   `json:"first_name"`
	LastName          string   `json:"last_name"`
	IsStaff           bool     `json:"is_staff"`
	MedicalPersonnel  *Summary `json:"medical_personnel"`
	PreferredHospital *int64   `json:"preferred_hospital_id"`
}

func NewUserSummary(u *User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func NewSummary(mp *MedicalPersonnel) Summary {
	return Summary{
		ID:    mp.ID,
		User:  NewUserSummary(mp.User),
		Level: Levels.Label(mp.Level),
	}
}

// Summaries keeps the order of mps.
func Summaries(mps []*MedicalPersonnel) []Summary {
	out := make([]Summary, 0, len(mps))
	for _, mp := range mps {
		out = append(out, NewSummary(mp))
	}
	return out
}

func NewMeView(p *Principal, preferred *PreferredHospital) MeView {
	v := MeView{
		ID:        p.User.ID,
		Username:  p.User.Username,
		Email:     p.User.Email,
		FirstName: p.User.FirstName,
		LastName:  p.User.LastName,
		IsStaff:   p.IsStaff,
	}
	if p.Personnel != nil {
		mp := *p.Personnel
		mp.User = p.User
		s := NewSummary(&mp)
		v.MedicalPersonnel = &s
	}
	if preferred != nil {
		id := preferred.HospitalID
		v.PreferredHospital = &id
	}
	return v
}
