package geography

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tmh/registry/pkg/apperrors"
)

const (
	msgZoneNameTaken   = "zone with this name already exists."
	msgRegionNameTaken = "region with this name already exists."
	msgInvalidPK       = "Invalid pk \"%d\" - object does not exist."
	msgNameRequired    = "name : This field is required."
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateZone(ctx context.Context, in CreateZoneInput) (*Zone, error) {
	z := &Zone{Name: strings.TrimSpace(in.Name)}
	if z.Name == "" {
		return nil, apperrors.NewValidationError(msgNameRequired)
	}
	if err := s.repo.CreateZone(ctx, z); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Int64("zone_id", z.ID).Msg("zone created")
	return z, nil
}

func (s *Service) CreateRegion(ctx context.Context, in CreateRegionInput) (*Region, error) {
	r := &Region{Name: strings.TrimSpace(in.Name)}
	if r.Name == "" {
		return nil, apperrors.NewValidationError(msgNameRequired)
	}
	if err := s.repo.CreateRegion(ctx, r); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Int64("region_id", r.ID).Msg("region created")
	return r, nil
}

func (s *Service) ListZones(ctx context.Context) ([]*Zone, error) {
	zones, err := s.repo.ListZones(ctx)
	if zones == nil && err == nil {
		zones = []*Zone{}
	}
	return zones, err
}

func (s *Service) ListRegions(ctx context.Context) ([]*RegionView, error) {
	regions, err := s.repo.ListRegions(ctx)
	if regions == nil && err == nil {
		regions = []*RegionView{}
	}
	return regions, err
}

// AssignHospitalRegion moves a hospital into a region. The hospital is
// addressed by the path, so a missing one is NOT_FOUND; a missing region is
// invalid input.
func (s *Service) AssignHospitalRegion(ctx context.Context, hospitalID int64, in AssignRegionInput) (*HospitalLocation, error) {
	if _, err := s.repo.HospitalLocation(ctx, hospitalID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetRegion(ctx, in.RegionID); err != nil {
		return nil, invalidReference(err, in.RegionID)
	}
	if err := s.repo.AssignHospitalRegion(ctx, hospitalID, in.RegionID); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Int64("hospital_id", hospitalID).Int64("region_id", in.RegionID).Msg("hospital region assigned")
	return s.repo.HospitalLocation(ctx, hospitalID)
}

func (s *Service) AssignRegionZone(ctx context.Context, regionID int64, in AssignZoneInput) (*RegionView, error) {
	region, err := s.repo.GetRegion(ctx, regionID)
	if err != nil {
		return nil, err
	}
	zone, err := s.repo.GetZone(ctx, in.ZoneID)
	if err != nil {
		return nil, invalidReference(err, in.ZoneID)
	}
	if err := s.repo.AssignRegionZone(ctx, regionID, in.ZoneID); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Int64("region_id", regionID).Int64("zone_id", in.ZoneID).Msg("region zone assigned")
	return &RegionView{ID: region.ID, Name: region.Name, Zone: zone}, nil
}

func (s *Service) GetHospitalLocation(ctx context.Context, hospitalID int64) (*HospitalLocation, error) {
	return s.repo.HospitalLocation(ctx, hospitalID)
}

func invalidReference(err error, id int64) error {
	if apperrors.Is(err, apperrors.TypeNotFound) {
		return apperrors.NewValidationError(msgInvalidPK, id)
	}
	return err
}
