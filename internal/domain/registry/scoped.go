package registry

import (
	"context"

	"github.com/tmh/registry/internal/domain/personnel"
)

// SurgeonEpisodeSummary counts the caller's episodes as a surgeon. Callers
// without a MedicalPersonnel profile get an empty summary.
func (s *Service) SurgeonEpisodeSummary(ctx context.Context, p *personnel.Principal) (SurgeonEpisodeSummaryView, error) {
	pid, ok := p.PersonnelID()
	if !ok {
		return SurgeonEpisodeSummaryView{}, nil
	}
	count, last, err := s.episodes.SurgeonSummary(ctx, pid)
	if err != nil {
		return SurgeonEpisodeSummaryView{}, err
	}
	return SurgeonEpisodeSummaryView{EpisodesCount: count, LastEpisodeDate: last}, nil
}

// OwnedEpisodes lists the episodes the caller operated on, most recent
// surgery first, with their discharge and follow-ups.
func (s *Service) OwnedEpisodes(ctx context.Context, p *personnel.Principal) ([]OwnedEpisodeView, error) {
	pid, ok := p.PersonnelID()
	if !ok {
		return []OwnedEpisodeView{}, nil
	}
	episodes, err := s.episodes.ListBySurgeon(ctx, pid)
	if err != nil || len(episodes) == 0 {
		return []OwnedEpisodeView{}, err
	}

	var mappingIDs, episodeIDs []int64
	for _, e := range episodes {
		mappingIDs = append(mappingIDs, e.MappingID)
		episodeIDs = append(episodeIDs, e.ID)
	}
	mappings, err := s.mappings.ListByIDs(ctx, uniqueIDs(mappingIDs))
	if err != nil {
		return nil, err
	}
	patientIDs := make([]int64, 0, len(mappings))
	for _, m := range mappings {
		patientIDs = append(patientIDs, m.PatientID)
	}
	g, err := s.graph(ctx, patientIDs, episodeIDs)
	if err != nil {
		return nil, err
	}

	views := make([]OwnedEpisodeView, 0, len(episodes))
	for _, e := range episodes {
		views = append(views, NewOwnedEpisodeView(g, e))
	}
	return views, nil
}

// UnlinkedPatients lists patients of the caller's preferred hospital that
// have no episode there yet. It is empty without a profile or a preferred
// hospital.
func (s *Service) UnlinkedPatients(ctx context.Context, p *personnel.Principal) ([]PatientView, error) {
	preferred, err := s.personnel.GetPreferredHospital(ctx, p)
	if err != nil {
		return nil, err
	}
	if preferred == nil {
		return []PatientView{}, nil
	}
	patients, err := s.patients.Unlinked(ctx, preferred.HospitalID)
	if err != nil {
		return nil, err
	}
	return s.patientViews(ctx, patients)
}
