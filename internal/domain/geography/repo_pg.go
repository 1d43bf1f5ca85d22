package geography

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmh/registry/internal/platform/db"
	"github.com/tmh/registry/pkg/apperrors"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func translateErr(err error) error {
	if constraint, ok := db.UniqueViolation(err); ok {
		switch constraint {
		case "zone_name_key":
			return apperrors.NewIntegrityError(msgZoneNameTaken, err)
		case "region_name_key":
			return apperrors.NewIntegrityError(msgRegionNameTaken, err)
		}
	}
	if constraint, ok := db.ForeignKeyViolation(err); ok {
		// Rows referenced by an assignment vanished after the pre-check.
		return apperrors.NewIntegrityError(fmt.Sprintf("Referenced object does not exist (%s).", constraint), err)
	}
	return err
}

func (r *repoPG) CreateZone(ctx context.Context, z *Zone) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO zone (name) VALUES ($1) RETURNING id`, z.Name).Scan(&z.ID)
	return translateErr(err)
}

func (r *repoPG) CreateRegion(ctx context.Context, rg *Region) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO region (name) VALUES ($1) RETURNING id`, rg.Name).Scan(&rg.ID)
	return translateErr(err)
}

func (r *repoPG) GetZone(ctx context.Context, id int64) (*Zone, error) {
	var z Zone
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT id, name FROM zone WHERE id = $1`, id).Scan(&z.ID, &z.Name)
	if db.IsNoRows(err) {
		return nil, apperrors.NewNotFoundError("Zone %d not found.", id)
	}
	if err != nil {
		return nil, err
	}
	return &z, nil
}

func (r *repoPG) GetRegion(ctx context.Context, id int64) (*Region, error) {
	var rg Region
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT id, name FROM region WHERE id = $1`, id).Scan(&rg.ID, &rg.Name)
	if db.IsNoRows(err) {
		return nil, apperrors.NewNotFoundError("Region %d not found.", id)
	}
	if err != nil {
		return nil, err
	}
	return &rg, nil
}

func (r *repoPG) ListZones(ctx context.Context) ([]*Zone, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT id, name FROM zone ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var zones []*Zone
	for rows.Next() {
		var z Zone
		if err := rows.Scan(&z.ID, &z.Name); err != nil {
			return nil, err
		}
		zones = append(zones, &z)
	}
	return zones, rows.Err()
}

func (r *repoPG) ListRegions(ctx context.Context) ([]*RegionView, error) {
	sql, args, err := db.Build(db.Dialect.From(goqu.T("region").As("r")).
		LeftJoin(goqu.T("region_zone_mapping").As("rz"), goqu.On(goqu.I("rz.region_id").Eq(goqu.I("r.id")))).
		LeftJoin(goqu.T("zone").As("z"), goqu.On(goqu.I("z.id").Eq(goqu.I("rz.zone_id")))).
		Select(goqu.I("r.id"), goqu.I("r.name"), goqu.I("z.id"), goqu.I("z.name")).
		Order(goqu.I("r.name").Asc(), goqu.I("r.id").Asc()).
		Prepared(true))
	if err != nil {
		return nil, err
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var regions []*RegionView
	for rows.Next() {
		var (
			v        RegionView
			zoneID   *int64
			zoneName *string
		)
		if err := rows.Scan(&v.ID, &v.Name, &zoneID, &zoneName); err != nil {
			return nil, err
		}
		if zoneID != nil {
			v.Zone = &Zone{ID: *zoneID, Name: *zoneName}
		}
		regions = append(regions, &v)
	}
	return regions, rows.Err()
}

func (r *repoPG) AssignHospitalRegion(ctx context.Context, hospitalID, regionID int64) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO hospital_region_mapping (hospital_id, region_id) VALUES ($1, $2)
		ON CONFLICT (hospital_id) DO UPDATE SET region_id = EXCLUDED.region_id`,
		hospitalID, regionID)
	return translateErr(err)
}

func (r *repoPG) AssignRegionZone(ctx context.Context, regionID, zoneID int64) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO region_zone_mapping (region_id, zone_id) VALUES ($1, $2)
		ON CONFLICT (region_id) DO UPDATE SET zone_id = EXCLUDED.zone_id`,
		regionID, zoneID)
	return translateErr(err)
}

func (r *repoPG) HospitalLocation(ctx context.Context, hospitalID int64) (*HospitalLocation, error) {
	var (
		regionID, zoneID     *int64
		regionName, zoneName *string
	)
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT r.id, r.name, z.id, z.name
		FROM hospital h
		LEFT JOIN hospital_region_mapping hr ON hr.hospital_id = h.id
		LEFT JOIN region r ON r.id = hr.region_id
		LEFT JOIN region_zone_mapping rz ON rz.region_id = r.id
		LEFT JOIN zone z ON z.id = rz.zone_id
		WHERE h.id = $1`, hospitalID).Scan(&regionID, &regionName, &zoneID, &zoneName)
	if db.IsNoRows(err) {
		return nil, apperrors.NewNotFoundError("Hospital %d not found.", hospitalID)
	}
	if err != nil {
		return nil, err
	}
	loc := &HospitalLocation{HospitalID: hospitalID}
	if regionID != nil {
		loc.Region = &Region{ID: *regionID, Name: *regionName}
	}
	if zoneID != nil {
		loc.Zone = &Zone{ID: *zoneID, Name: *zoneName}
	}
	return loc, nil
}
