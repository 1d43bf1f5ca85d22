package personnel

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tmh/registry/internal/platform/auth"
	"github.com/tmh/registry/internal/platform/db"
	"github.com/tmh/registry/pkg/apperrors"
)

type Service struct {
	users     UserRepository
	personnel PersonnelRepository
	preferred PreferredHospitalRepository
	tx        db.Transactor
}

func NewService(users UserRepository, personnel PersonnelRepository, preferred PreferredHospitalRepository, tx db.Transactor) *Service {
	return &Service{users: users, personnel: personnel, preferred: preferred, tx: tx}
}

// ResolvePrincipal maps a verified token identity onto the local account,
// creating the account the first time a subject is seen. Profiles are
// never created implicitly.
func (s *Service) ResolvePrincipal(ctx context.Context, id *auth.Identity) (*Principal, error) {
	if id == nil || id.Subject == "" {
		return nil, apperrors.NewNotAuthenticatedError("Authentication credentials were not provided.")
	}

	u, err := s.users.GetBySubject(ctx, id.Subject)
	if apperrors.Is(err, apperrors.TypeNotFound) {
		u, err = s.provision(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	mp, err := s.personnel.GetByUserID(ctx, u.ID)
	switch {
	case apperrors.Is(err, apperrors.TypeNotFound):
		mp = nil
	case err != nil:
		return nil, err
	default:
		mp.User = u
	}

	return &Principal{User: u, Personnel: mp, IsStaff: u.IsStaff || id.IsStaff}, nil
}

func (s *Service) provision(ctx context.Context, id *auth.Identity) (*User, error) {
	username := id.Username
	if username == "" {
		username = id.Subject
	}
	u := &User{Subject: id.Subject, Username: username, Email: id.Email, IsStaff: id.IsStaff}

	err := s.users.Create(ctx, u)
	if apperrors.Is(err, apperrors.TypeIntegrity) {
		// Either a concurrent request provisioned the subject first, or the
		// username is taken by another account.
		if existing, getErr := s.users.GetBySubject(ctx, id.Subject); getErr == nil {
			return existing, nil
		}
		u.Username = id.Subject
		err = s.users.Create(ctx, u)
	}
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Int64("user_id", u.ID).Str("username", u.Username).Msg("provisioned user from token")
	return u, nil
}

// CreateUser creates an account together with its MedicalPersonnel
// profile. The subject defaults to the username.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*MedicalPersonnel, error) {
	level := LevelLeadSurgeon
	if in.Level != "" {
		var err error
		if level, err = resolveLevel(in.Level); err != nil {
			return nil, err
		}
	}

	u := &User{
		Subject:   strings.TrimSpace(in.Subject),
		Username:  strings.TrimSpace(in.Username),
		Email:     strings.TrimSpace(in.Email),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		IsStaff:   true,
	}
	if u.Username == "" {
		return nil, apperrors.NewValidationError("The 'username' should be provided.")
	}
	if u.Subject == "" {
		u.Subject = u.Username
	}
	if in.IsStaff != nil {
		u.IsStaff = *in.IsStaff
	}

	mp := &MedicalPersonnel{Level: level}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		mp.UserID = u.ID
		return s.personnel.Create(ctx, mp)
	})
	if err != nil {
		return nil, err
	}
	mp.User = u
	zerolog.Ctx(ctx).Info().Int64("medical_personnel_id", mp.ID).Str("level", mp.Level).Msg("medical personnel created")
	return mp, nil
}

// resolveLevel accepts either the stored code or its display label.
func resolveLevel(v string) (string, error) {
	if Levels.Valid(v) {
		return v, nil
	}
	code, err := Levels.Resolve(v)
	if err != nil {
		return "", apperrors.NewValidationError("Not supported value provided for ChoiceField.")
	}
	return code, nil
}

func (s *Service) GetMe(ctx context.Context, p *Principal) (MeView, error) {
	preferred, err := s.GetPreferredHospital(ctx, p)
	if err != nil {
		return MeView{}, err
	}
	return NewMeView(p, preferred), nil
}

func (s *Service) UpdateMe(ctx context.Context, p *Principal, in UpdateProfileInput) (MeView, error) {
	u := *p.User
	if in.Email != nil {
		u.Email = strings.TrimSpace(*in.Email)
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if err := s.users.Update(ctx, &u); err != nil {
		return MeView{}, err
	}

	updated := *p
	updated.User = &u
	return s.GetMe(ctx, &updated)
}

func (s *Service) ListMedicalPersonnel(ctx context.Context, limit, offset int) ([]Summary, int, error) {
	items, total, err := s.personnel.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return Summaries(items), total, nil
}

func (s *Service) GetMedicalPersonnel(ctx context.Context, id int64) (Summary, error) {
	mp, err := s.personnel.GetByID(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	return NewSummary(mp), nil
}

// Lookup returns the profiles behind ids in the order given, failing on
// the first id that has no profile.
func (s *Service) Lookup(ctx context.Context, ids []int64) ([]*MedicalPersonnel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := s.personnel.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*MedicalPersonnel, len(found))
	for _, mp := range found {
		byID[mp.ID] = mp
	}
	out := make([]*MedicalPersonnel, 0, len(ids))
	for _, id := range ids {
		mp, ok := byID[id]
		if !ok {
			return nil, apperrors.NewValidationError("Invalid pk \"%d\" - object does not exist.", id)
		}
		out = append(out, mp)
	}
	return out, nil
}

// GetPreferredHospital returns nil when the caller has no profile or has
// not chosen a hospital.
func (s *Service) GetPreferredHospital(ctx context.Context, p *Principal) (*PreferredHospital, error) {
	pid, ok := p.PersonnelID()
	if !ok {
		return nil, nil
	}
	ph, err := s.preferred.GetByPersonnel(ctx, pid)
	if apperrors.Is(err, apperrors.TypeNotFound) {
		return nil, nil
	}
	return ph, err
}

func (s *Service) SetPreferredHospital(ctx context.Context, p *Principal, in SetPreferredHospitalInput) (*PreferredHospital, error) {
	pid, ok := p.PersonnelID()
	if !ok {
		return nil, apperrors.NewPermissionDeniedError("MedicalPersonnel instance is required")
	}
	exists, err := s.preferred.HospitalExists(ctx, in.HospitalID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NewValidationError("Invalid pk \"%d\" - object does not exist.", in.HospitalID)
	}

	ph := &PreferredHospital{MedicalPersonnelID: pid, HospitalID: in.HospitalID}
	if err := s.preferred.Upsert(ctx, ph); err != nil {
		return nil, err
	}
	return ph, nil
}
