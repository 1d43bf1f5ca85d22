// Package geography groups hospitals into regions and regions into zones.
package geography

type Zone struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Region struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RegionView is a region together with the zone it belongs to, if any.
type RegionView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Zone *Zone  `json:"zone"`
}

// HospitalLocation places a hospital in the hierarchy. Region and Zone are
// nil when the hospital or its region has not been assigned.
type HospitalLocation struct {
	HospitalID int64   `json:"hospital_id"`
	Region     *Region `json:"region"`
	Zone       *Zone   `json:"zone"`
}

type CreateZoneInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

type CreateRegionInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

type AssignZoneInput struct {
	ZoneID int64 `json:"zone_id" validate:"required"`
}

type AssignRegionInput struct {
	RegionID int64 `json:"region_id" validate:"required"`
}
