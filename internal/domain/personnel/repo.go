package personnel

import (
	"context"
)

type UserRepository interface {
	GetBySubject(ctx context.Context, subject string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
}

type PersonnelRepository interface {
	GetByID(ctx context.Context, id int64) (*MedicalPersonnel, error)
	GetByUserID(ctx context.Context, userID int64) (*MedicalPersonnel, error)
	Create(ctx context.Context, mp *MedicalPersonnel) error
	List(ctx context.Context, limit, offset int) ([]*MedicalPersonnel, int, error)
	// ListByIDs returns the profiles that exist among ids, users attached.
	ListByIDs(ctx context.Context, ids []int64) ([]*MedicalPersonnel, error)
}

type PreferredHospitalRepository interface {
	GetByPersonnel(ctx context.Context, personnelID int64) (*PreferredHospital, error)
	Upsert(ctx context.Context, ph *PreferredHospital) error
	HospitalExists(ctx context.Context, hospitalID int64) (bool, error)
}
