package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tmh/registry/internal/domain/personnel"
	"github.com/tmh/registry/pkg/apperrors"
	"github.com/tmh/registry/pkg/dates"
)

// memDB holds every table behind the fake repositories so that a
// snapshot can restore all of them at once.
type memDB struct {
	mu         sync.Mutex
	nextID     int64
	hospitals  map[int64]*Hospital
	patients   map[int64]*Patient
	mappings   map[int64]*Mapping
	episodes   map[int64]*Episode
	discharges map[int64]*Discharge
	followUps  map[int64]*FollowUp
	// failMappingCreate makes the next mapping insert fail.
	failMappingCreate error
	// failSetSurgeons and failSetAttendees make the next link write fail.
	failSetSurgeons  error
	failSetAttendees error
}

func newMemDB() *memDB {
	return &memDB{
		hospitals:  map[int64]*Hospital{},
		patients:   map[int64]*Patient{},
		mappings:   map[int64]*Mapping{},
		episodes:   map[int64]*Episode{},
		discharges: map[int64]*Discharge{},
		followUps:  map[int64]*FollowUp{},
	}
}

func (m *memDB) id() int64 {
	m.nextID++
	return m.nextID
}

func sortedValues[T any](m map[int64]*T) []*T {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]*T, 0, len(keys))
	for _, k := range keys {
		cp := *m[k]
		out = append(out, &cp)
	}
	return out
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func cloneMap[V any](m map[int64]*V) map[int64]*V {
	out := make(map[int64]*V, len(m))
	for k, v := range m {
		cp := *v
		out[k] = &cp
	}
	return out
}

// -- hospitals --

type memHospitals struct{ *memDB }

func (r memHospitals) Create(_ context.Context, h *Hospital) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h.ID = r.id()
	cp := *h
	r.hospitals[h.ID] = &cp
	return nil
}

func (r memHospitals) GetByID(_ context.Context, id int64) (*Hospital, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.hospitals[id]; ok {
		cp := *h
		return &cp, nil
	}
	return nil, apperrors.NewNotFoundError("Hospital %d not found.", id)
}

func (r memHospitals) List(_ context.Context, limit, offset int) ([]*Hospital, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := sortedValues(r.hospitals)
	return page(all, limit, offset), len(all), nil
}

func (r memHospitals) ListByIDs(_ context.Context, ids []int64) ([]*Hospital, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := idSet(ids)
	var out []*Hospital
	for _, h := range sortedValues(r.hospitals) {
		if want[h.ID] {
			out = append(out, h)
		}
	}
	return out, nil
}

func page[T any](all []*T, limit, offset int) []*T {
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

// -- patients --

type memPatients struct{ *memDB }

func (r memPatients) Create(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.NationalID != nil {
		for _, existing := range r.patients {
			if existing.NationalID != nil && *existing.NationalID == *p.NationalID {
				return apperrors.NewIntegrityError(msgNationalIDTaken, nil)
			}
		}
	}
	p.ID = r.id()
	p.CreatedAt = time.Date(2024, 1, 1, 0, 0, int(p.ID), 0, time.UTC)
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.patients[p.ID] = &cp
	return nil
}

func (r memPatients) GetByID(_ context.Context, id int64) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.patients[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, apperrors.NewNotFoundError("Patient %d not found.", id)
}

func (r memPatients) NationalIDTaken(_ context.Context, nationalID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patients {
		if p.NationalID != nil && *p.NationalID == nationalID {
			return true, nil
		}
	}
	return false, nil
}

func (r memPatients) matches(p *Patient, f PatientFilter) bool {
	if f.HospitalID != nil {
		linked := false
		for _, m := range r.mappings {
			if m.PatientID == p.ID && m.HospitalID == *f.HospitalID {
				linked = true
			}
		}
		if !linked {
			return false
		}
	}
	term := strings.ToLower(strings.TrimSpace(f.SearchTerm))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.FullName), term) {
		return true
	}
	if p.NationalID != nil && strings.Contains(strings.ToLower(*p.NationalID), term) {
		return true
	}
	if f.HospitalID != nil {
		for _, m := range r.mappings {
			if m.PatientID == p.ID && m.HospitalID == *f.HospitalID && strings.Contains(m.PatientHospitalID, term) {
				return true
			}
		}
	}
	return false
}

func (r memPatients) List(_ context.Context, f PatientFilter) ([]*Patient, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*Patient
	for _, p := range sortedValues(r.patients) {
		if r.matches(p, f) {
			all = append(all, p)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		for _, o := range f.Ordering {
			var less, greater bool
			switch o.Field {
			case "full_name":
				less, greater = all[i].FullName < all[j].FullName, all[i].FullName > all[j].FullName
			case "created_at":
				less, greater = all[i].CreatedAt.Before(all[j].CreatedAt), all[i].CreatedAt.After(all[j].CreatedAt)
			}
			if o.Desc {
				less, greater = greater, less
			}
			if less || greater {
				return less
			}
		}
		return false
	})
	return page(all, f.Limit, f.Offset), len(all), nil
}

func (r memPatients) ListByIDs(_ context.Context, ids []int64) ([]*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := idSet(ids)
	var out []*Patient
	for _, p := range sortedValues(r.patients) {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memPatients) Unlinked(_ context.Context, hospitalID int64) ([]*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Patient
	for _, m := range sortedValues(r.mappings) {
		if m.HospitalID != hospitalID {
			continue
		}
		hasEpisode := false
		for _, e := range r.episodes {
			if e.MappingID == m.ID {
				hasEpisode = true
			}
		}
		if !hasEpisode {
			cp := *r.patients[m.PatientID]
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// -- mappings --

type memMappings struct{ *memDB }

func (r memMappings) Create(_ context.Context, m *Mapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failMappingCreate; err != nil {
		r.failMappingCreate = nil
		return err
	}
	for _, existing := range r.mappings {
		if existing.PatientID == m.PatientID && existing.HospitalID == m.HospitalID {
			return apperrors.NewIntegrityError(fmt.Sprintf(msgMappingExists, m.PatientID, m.HospitalID), nil)
		}
		if existing.HospitalID == m.HospitalID && existing.PatientHospitalID == m.PatientHospitalID {
			return apperrors.NewIntegrityError(fmt.Sprintf(msgExternalIDTaken, m.PatientHospitalID), nil)
		}
	}
	m.ID = r.id()
	cp := *m
	r.mappings[m.ID] = &cp
	return nil
}

func (r memMappings) first(match func(*Mapping) bool) (*Mapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range sortedValues(r.mappings) {
		if match(m) {
			return m, nil
		}
	}
	return nil, apperrors.NewNotFoundError("PatientHospitalMapping not found.")
}

func (r memMappings) Find(_ context.Context, patientID, hospitalID int64) (*Mapping, error) {
	return r.first(func(m *Mapping) bool { return m.PatientID == patientID && m.HospitalID == hospitalID })
}

func (r memMappings) FindByExternalID(_ context.Context, hospitalID int64, patientHospitalID string) (*Mapping, error) {
	return r.first(func(m *Mapping) bool {
		return m.HospitalID == hospitalID && m.PatientHospitalID == patientHospitalID
	})
}

func (r memMappings) ListByIDs(_ context.Context, ids []int64) ([]*Mapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := idSet(ids)
	var out []*Mapping
	for _, m := range sortedValues(r.mappings) {
		if want[m.ID] {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r memMappings) ListByPatients(_ context.Context, patientIDs []int64) ([]*Mapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := idSet(patientIDs)
	var out []*Mapping
	for _, m := range sortedValues(r.mappings) {
		if want[m.PatientID] {
			out = append(out, m)
		}
	}
	return out, nil
}

// -- episodes --

type memEpisodes struct{ *memDB }

func (r memEpisodes) Create(_ context.Context, e *Episode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.mappings[e.MappingID]; !ok {
		return fmt.Errorf("mapping %d does not exist", e.MappingID)
	}
	e.ID = r.id()
	e.Created = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	cp := *e
	cp.SurgeonIDs = nil
	r.episodes[e.ID] = &cp
	return nil
}

func (r memEpisodes) SetSurgeons(_ context.Context, episodeID int64, personnelIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failSetSurgeons; err != nil {
		r.failSetSurgeons = nil
		return err
	}
	e, ok := r.episodes[episodeID]
	if !ok {
		return fmt.Errorf("episode %d does not exist", episodeID)
	}
	e.SurgeonIDs = append([]int64(nil), personnelIDs...)
	return nil
}

func (r memEpisodes) GetByID(_ context.Context, id int64) (*Episode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.episodes[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, apperrors.NewNotFoundError("Episode %d not found.", id)
}

func (r memEpisodes) ListByMappings(_ context.Context, mappingIDs []int64) ([]*Episode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := idSet(mappingIDs)
	var out []*Episode
	for _, e := range sortedValues(r.episodes) {
		if want[e.MappingID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r memEpisodes) bySurgeon(personnelID int64) []*Episode {
	var out []*Episode
	for _, e := range sortedValues(r.episodes) {
		for _, id := range e.SurgeonIDs {
			if id == personnelID {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func (r memEpisodes) ListBySurgeon(_ context.Context, personnelID int64) ([]*Episode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.bySurgeon(personnelID)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SurgeryDate.Equal(out[j].SurgeryDate.Time) {
			return out[j].SurgeryDate.Before(out[i].SurgeryDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r memEpisodes) SurgeonSummary(_ context.Context, personnelID int64) (int, dates.Date, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last dates.Date
	episodes := r.bySurgeon(personnelID)
	for _, e := range episodes {
		if last.IsZero() || last.Before(e.SurgeryDate) {
			last = e.SurgeryDate
		}
	}
	return len(episodes), last, nil
}

// -- discharges --

type memDischarges struct{ *memDB }

func (r memDischarges) Create(_ context.Context, d *Discharge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.discharges {
		if existing.EpisodeID == d.EpisodeID {
			return apperrors.NewIntegrityError(fmt.Sprintf(msgInvalidPK, d.EpisodeID), nil)
		}
	}
	d.ID = r.id()
	cp := *d
	r.discharges[d.ID] = &cp
	return nil
}

func (r memDischarges) GetByEpisode(_ context.Context, episodeID int64) (*Discharge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.discharges {
		if d.EpisodeID == episodeID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("Episode %d has no discharge.", episodeID)
}

func (r memDischarges) ListByEpisodes(_ context.Context, episodeIDs []int64) ([]*Discharge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := idSet(episodeIDs)
	var out []*Discharge
	for _, d := range sortedValues(r.discharges) {
		if want[d.EpisodeID] {
			out = append(out, d)
		}
	}
	return out, nil
}

// -- follow-ups --

type memFollowUps struct{ *memDB }

func (r memFollowUps) Create(_ context.Context, f *FollowUp) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f.ID = r.id()
	cp := *f
	cp.AttendeeIDs = nil
	r.followUps[f.ID] = &cp
	return nil
}

func (r memFollowUps) SetAttendees(_ context.Context, followUpID int64, personnelIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failSetAttendees; err != nil {
		r.failSetAttendees = nil
		return err
	}
	f, ok := r.followUps[followUpID]
	if !ok {
		return fmt.Errorf("follow-up %d does not exist", followUpID)
	}
	f.AttendeeIDs = append([]int64(nil), personnelIDs...)
	return nil
}

func (r memFollowUps) ListByEpisodes(_ context.Context, episodeIDs []int64) ([]*FollowUp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := idSet(episodeIDs)
	var out []*FollowUp
	for _, f := range sortedValues(r.followUps) {
		if want[f.EpisodeID] {
			out = append(out, f)
		}
	}
	return out, nil
}

// snapshotTx restores every table when fn fails.
type snapshotTx struct{ db *memDB }

func (t snapshotTx) InTx(ctx context.Context, fn func(context.Context) error) error {
	t.db.mu.Lock()
	hospitals, patients, mappings := cloneMap(t.db.hospitals), cloneMap(t.db.patients), cloneMap(t.db.mappings)
	episodes, discharges, followUps := cloneMap(t.db.episodes), cloneMap(t.db.discharges), cloneMap(t.db.followUps)
	t.db.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.db.mu.Lock()
		t.db.hospitals, t.db.patients, t.db.mappings = hospitals, patients, mappings
		t.db.episodes, t.db.discharges, t.db.followUps = episodes, discharges, followUps
		t.db.mu.Unlock()
		return err
	}
	return nil
}

// fakePersonnel serves profiles and preferred hospitals from maps.
type fakePersonnel struct {
	profiles  map[int64]*personnel.MedicalPersonnel
	preferred map[int64]int64
}

func newFakePersonnel() *fakePersonnel {
	return &fakePersonnel{
		profiles:  map[int64]*personnel.MedicalPersonnel{},
		preferred: map[int64]int64{},
	}
}

func (f *fakePersonnel) add(id int64, username string) *personnel.Principal {
	mp := &personnel.MedicalPersonnel{
		ID:     id,
		UserID: id + 1000,
		Level:  personnel.LevelLeadSurgeon,
		User:   &personnel.User{ID: id + 1000, Username: username},
	}
	f.profiles[id] = mp
	return &personnel.Principal{User: mp.User, Personnel: mp, IsStaff: true}
}

func (f *fakePersonnel) Lookup(_ context.Context, ids []int64) ([]*personnel.MedicalPersonnel, error) {
	out := make([]*personnel.MedicalPersonnel, 0, len(ids))
	for _, id := range ids {
		mp, ok := f.profiles[id]
		if !ok {
			return nil, apperrors.NewValidationError(msgInvalidPK, id)
		}
		out = append(out, mp)
	}
	return out, nil
}

func (f *fakePersonnel) GetPreferredHospital(_ context.Context, p *personnel.Principal) (*personnel.PreferredHospital, error) {
	pid, ok := p.PersonnelID()
	if !ok {
		return nil, nil
	}
	hospitalID, ok := f.preferred[pid]
	if !ok {
		return nil, nil
	}
	return &personnel.PreferredHospital{ID: pid, MedicalPersonnelID: pid, HospitalID: hospitalID}, nil
}

type fixture struct {
	svc    *Service
	db     *memDB
	people *fakePersonnel
}

var fixedNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	m := newMemDB()
	people := newFakePersonnel()
	svc := NewService(Repositories{
		Hospitals:  memHospitals{m},
		Patients:   memPatients{m},
		Mappings:   memMappings{m},
		Episodes:   memEpisodes{m},
		Discharges: memDischarges{m},
		FollowUps:  memFollowUps{m},
	}, people, snapshotTx{m})
	svc.now = func() time.Time { return fixedNow }
	return &fixture{svc: svc, db: m, people: people}
}
