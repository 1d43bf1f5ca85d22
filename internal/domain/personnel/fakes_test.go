package personnel

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tmh/registry/pkg/apperrors"
)

// fakeStore backs all three repositories, so one instance serves a test.
type fakeStore struct {
	mu        sync.Mutex
	users     map[int64]*User
	personnel map[int64]*MedicalPersonnel
	preferred map[int64]*PreferredHospital
	hospitals map[int64]bool
	nextID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[int64]*User),
		personnel: make(map[int64]*MedicalPersonnel),
		preferred: make(map[int64]*PreferredHospital),
		hospitals: make(map[int64]bool),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

type fakeUsers struct{ *fakeStore }
type fakePersonnel struct{ *fakeStore }
type fakePreferred struct{ *fakeStore }

func (f fakeUsers) GetBySubject(_ context.Context, subject string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Subject == subject {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("User not found.")
}

func (f fakeUsers) GetByUsername(_ context.Context, username string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("User not found.")
}

func (f fakeUsers) Create(_ context.Context, u *User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return apperrors.NewIntegrityError("A user with that username already exists.", nil)
		}
		if existing.Subject == u.Subject {
			return apperrors.NewIntegrityError("A user with that subject already exists.", nil)
		}
	}
	u.ID = f.id()
	u.CreatedAt = time.Now()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f fakeUsers) Update(_ context.Context, u *User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		return apperrors.NewNotFoundError("User not found.")
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f fakePersonnel) withUser(mp *MedicalPersonnel) *MedicalPersonnel {
	cp := *mp
	if u, ok := f.users[mp.UserID]; ok {
		uc := *u
		cp.User = &uc
	}
	return &cp
}

func (f fakePersonnel) GetByID(_ context.Context, id int64) (*MedicalPersonnel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if mp, ok := f.personnel[id]; ok {
		return f.withUser(mp), nil
	}
	return nil, apperrors.NewNotFoundError("MedicalPersonnel not found.")
}

func (f fakePersonnel) GetByUserID(_ context.Context, userID int64) (*MedicalPersonnel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, mp := range f.personnel {
		if mp.UserID == userID {
			return f.withUser(mp), nil
		}
	}
	return nil, apperrors.NewNotFoundError("MedicalPersonnel not found.")
}

func (f fakePersonnel) Create(_ context.Context, mp *MedicalPersonnel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.personnel {
		if existing.UserID == mp.UserID {
			return apperrors.NewIntegrityError("This user already has a MedicalPersonnel profile.", nil)
		}
	}
	mp.ID = f.id()
	cp := *mp
	cp.User = nil
	f.personnel[mp.ID] = &cp
	return nil
}

func (f fakePersonnel) sorted() []*MedicalPersonnel {
	var out []*MedicalPersonnel
	for _, mp := range f.personnel {
		out = append(out, f.withUser(mp))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f fakePersonnel) List(_ context.Context, limit, offset int) ([]*MedicalPersonnel, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.sorted()
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (f fakePersonnel) ListByIDs(_ context.Context, ids []int64) ([]*MedicalPersonnel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*MedicalPersonnel
	for _, mp := range f.sorted() {
		if want[mp.ID] {
			out = append(out, mp)
		}
	}
	return out, nil
}

func (f fakePreferred) GetByPersonnel(_ context.Context, personnelID int64) (*PreferredHospital, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ph, ok := f.preferred[personnelID]; ok {
		cp := *ph
		return &cp, nil
	}
	return nil, apperrors.NewNotFoundError("No preferred hospital set.")
}

func (f fakePreferred) Upsert(_ context.Context, ph *PreferredHospital) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.preferred[ph.MedicalPersonnelID]; ok {
		ph.ID = existing.ID
	} else {
		ph.ID = f.id()
	}
	cp := *ph
	f.preferred[ph.MedicalPersonnelID] = &cp
	return nil
}

func (f fakePreferred) HospitalExists(_ context.Context, hospitalID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hospitals[hospitalID], nil
}

// snapshotTx restores the store when the workflow fails, standing in for a
// database rollback.
type snapshotTx struct{ store *fakeStore }

func (t snapshotTx) InTx(ctx context.Context, fn func(context.Context) error) error {
	t.store.mu.Lock()
	users := cloneMap(t.store.users)
	personnel := cloneMap(t.store.personnel)
	preferred := cloneMap(t.store.preferred)
	t.store.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.store.mu.Lock()
		t.store.users, t.store.personnel, t.store.preferred = users, personnel, preferred
		t.store.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	return NewService(fakeUsers{store}, fakePersonnel{store}, fakePreferred{store}, snapshotTx{store}), store
}
