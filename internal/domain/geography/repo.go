package geography

import "context"

type Repository interface {
	CreateZone(ctx context.Context, z *Zone) error
	CreateRegion(ctx context.Context, r *Region) error
	GetZone(ctx context.Context, id int64) (*Zone, error)
	GetRegion(ctx context.Context, id int64) (*Region, error)
	ListZones(ctx context.Context) ([]*Zone, error)
	ListRegions(ctx context.Context) ([]*RegionView, error)
	// AssignHospitalRegion and AssignRegionZone replace any existing
	// assignment.
	AssignHospitalRegion(ctx context.Context, hospitalID, regionID int64) error
	AssignRegionZone(ctx context.Context, regionID, zoneID int64) error
	// HospitalLocation fails with NOT_FOUND when the hospital does not exist.
	HospitalLocation(ctx context.Context, hospitalID int64) (*HospitalLocation, error)
}
