package registry

import (
	"context"

	"github.com/tmh/registry/pkg/dates"
)

type HospitalRepository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id int64) (*Hospital, error)
	List(ctx context.Context, limit, offset int) ([]*Hospital, int, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*Hospital, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	NationalIDTaken(ctx context.Context, nationalID string) (bool, error)
	List(ctx context.Context, f PatientFilter) ([]*Patient, int, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*Patient, error)
	// Unlinked lists patients mapped to hospitalID that have no episode
	// recorded at that hospital.
	Unlinked(ctx context.Context, hospitalID int64) ([]*Patient, error)
}

type MappingRepository interface {
	Create(ctx context.Context, m *Mapping) error
	Find(ctx context.Context, patientID, hospitalID int64) (*Mapping, error)
	FindByExternalID(ctx context.Context, hospitalID int64, patientHospitalID string) (*Mapping, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*Mapping, error)
	ListByPatients(ctx context.Context, patientIDs []int64) ([]*Mapping, error)
}

type EpisodeRepository interface {
	Create(ctx context.Context, e *Episode) error
	// SetSurgeons stores personnelIDs in order, the first as primary.
	SetSurgeons(ctx context.Context, episodeID int64, personnelIDs []int64) error
	GetByID(ctx context.Context, id int64) (*Episode, error)
	ListByMappings(ctx context.Context, mappingIDs []int64) ([]*Episode, error)
	ListBySurgeon(ctx context.Context, personnelID int64) ([]*Episode, error)
	// SurgeonSummary counts the episodes of a surgeon and returns the most
	// recent surgery date, zero when there are none.
	SurgeonSummary(ctx context.Context, personnelID int64) (int, dates.Date, error)
}

type DischargeRepository interface {
	Create(ctx context.Context, d *Discharge) error
	GetByEpisode(ctx context.Context, episodeID int64) (*Discharge, error)
	ListByEpisodes(ctx context.Context, episodeIDs []int64) ([]*Discharge, error)
}

type FollowUpRepository interface {
	Create(ctx context.Context, f *FollowUp) error
	SetAttendees(ctx context.Context, followUpID int64, personnelIDs []int64) error
	ListByEpisodes(ctx context.Context, episodeIDs []int64) ([]*FollowUp, error)
}
