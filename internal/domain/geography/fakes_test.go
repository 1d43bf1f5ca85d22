package geography

import (
	"context"
	"sort"

	"github.com/tmh/registry/pkg/apperrors"
)

type memRepo struct {
	nextID         int64
	hospitals      map[int64]bool
	zones          map[int64]*Zone
	regions        map[int64]*Region
	hospitalRegion map[int64]int64
	regionZone     map[int64]int64
}

func newMemRepo(hospitalIDs ...int64) *memRepo {
	m := &memRepo{
		hospitals:      map[int64]bool{},
		zones:          map[int64]*Zone{},
		regions:        map[int64]*Region{},
		hospitalRegion: map[int64]int64{},
		regionZone:     map[int64]int64{},
	}
	for _, id := range hospitalIDs {
		m.hospitals[id] = true
	}
	return m
}

func (m *memRepo) CreateZone(_ context.Context, z *Zone) error {
	for _, existing := range m.zones {
		if existing.Name == z.Name {
			return apperrors.NewIntegrityError(msgZoneNameTaken, nil)
		}
	}
	m.nextID++
	z.ID = m.nextID
	cp := *z
	m.zones[z.ID] = &cp
	return nil
}

func (m *memRepo) CreateRegion(_ context.Context, r *Region) error {
	for _, existing := range m.regions {
		if existing.Name == r.Name {
			return apperrors.NewIntegrityError(msgRegionNameTaken, nil)
		}
	}
	m.nextID++
	r.ID = m.nextID
	cp := *r
	m.regions[r.ID] = &cp
	return nil
}

func (m *memRepo) GetZone(_ context.Context, id int64) (*Zone, error) {
	z, ok := m.zones[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("Zone %d not found.", id)
	}
	cp := *z
	return &cp, nil
}

func (m *memRepo) GetRegion(_ context.Context, id int64) (*Region, error) {
	r, ok := m.regions[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("Region %d not found.", id)
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) ListZones(context.Context) ([]*Zone, error) {
	var out []*Zone
	for _, z := range m.zones {
		cp := *z
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) ListRegions(context.Context) ([]*RegionView, error) {
	var out []*RegionView
	for _, r := range m.regions {
		v := &RegionView{ID: r.ID, Name: r.Name}
		if zid, ok := m.regionZone[r.ID]; ok {
			cp := *m.zones[zid]
			v.Zone = &cp
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) AssignHospitalRegion(_ context.Context, hospitalID, regionID int64) error {
	m.hospitalRegion[hospitalID] = regionID
	return nil
}

func (m *memRepo) AssignRegionZone(_ context.Context, regionID, zoneID int64) error {
	m.regionZone[regionID] = zoneID
	return nil
}

func (m *memRepo) HospitalLocation(_ context.Context, hospitalID int64) (*HospitalLocation, error) {
	if !m.hospitals[hospitalID] {
		return nil, apperrors.NewNotFoundError("Hospital %d not found.", hospitalID)
	}
	loc := &HospitalLocation{HospitalID: hospitalID}
	rid, ok := m.hospitalRegion[hospitalID]
	if !ok {
		return loc, nil
	}
	r := *m.regions[rid]
	loc.Region = &r
	if zid, ok := m.regionZone[rid]; ok {
		z := *m.zones[zid]
		loc.Zone = &z
	}
	return loc, nil
}
