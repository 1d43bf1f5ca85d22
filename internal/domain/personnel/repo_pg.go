package personnel

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmh/registry/internal/platform/db"
	"github.com/tmh/registry/pkg/apperrors"
)

// =========== User Repository ===========

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository { return &userRepoPG{pool: pool} }

const userCols = `id, subject, username, email, first_name, last_name, is_staff, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Subject, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.IsStaff, &u.CreatedAt)
	if db.IsNoRows(err) {
		return nil, apperrors.NewNotFoundError("User not found.")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepoPG) GetBySubject(ctx context.Context, subject string) (*User, error) {
	return scanUser(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE subject = $1`, subject))
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE username = $1`, username))
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO app_user (subject, username, email, first_name, last_name, is_staff)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at`,
		u.Subject, u.Username, u.Email, u.FirstName, u.LastName, u.IsStaff,
	).Scan(&u.ID, &u.CreatedAt)
	return translateUserErr(err)
}

func (r *userRepoPG) Update(ctx context.Context, u *User) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE app_user SET email=$2, first_name=$3, last_name=$4, is_staff=$5
		WHERE id = $1`,
		u.ID, u.Email, u.FirstName, u.LastName, u.IsStaff)
	if err != nil {
		return translateUserErr(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("User not found.")
	}
	return nil
}

func translateUserErr(err error) error {
	if constraint, ok := db.UniqueViolation(err); ok {
		switch constraint {
		case "app_user_username_key":
			return apperrors.NewIntegrityError("A user with that username already exists.", err)
		case "app_user_subject_key":
			return apperrors.NewIntegrityError("A user with that subject already exists.", err)
		}
		return apperrors.NewIntegrityError("User already exists.", err)
	}
	return err
}

// =========== Medical Personnel Repository ===========

type personnelRepoPG struct{ pool *pgxpool.Pool }

func NewPersonnelRepoPG(pool *pgxpool.Pool) PersonnelRepository {
	return &personnelRepoPG{pool: pool}
}

var personnelSelect = db.Dialect.
	From(goqu.T("medical_personnel").As("mp")).
	Join(goqu.T("app_user").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("mp.user_id")))).
	Select(
		"mp.id", "mp.user_id", "mp.level",
		"u.id", "u.subject", "u.username", "u.email", "u.first_name", "u.last_name", "u.is_staff", "u.created_at",
	)

func scanPersonnel(row pgx.Row) (*MedicalPersonnel, error) {
	var mp MedicalPersonnel
	var u User
	err := row.Scan(&mp.ID, &mp.UserID, &mp.Level,
		&u.ID, &u.Subject, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.IsStaff, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	mp.User = &u
	return &mp, nil
}

func (r *personnelRepoPG) getOne(ctx context.Context, where goqu.Expression) (*MedicalPersonnel, error) {
	sql, args, err := db.Build(personnelSelect.Where(where).Prepared(true))
	if err != nil {
		return nil, fmt.Errorf("build personnel query: %w", err)
	}
	mp, err := scanPersonnel(db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...))
	if db.IsNoRows(err) {
		return nil, apperrors.NewNotFoundError("MedicalPersonnel not found.")
	}
	return mp, err
}

func (r *personnelRepoPG) GetByID(ctx context.Context, id int64) (*MedicalPersonnel, error) {
	return r.getOne(ctx, goqu.I("mp.id").Eq(id))
}

func (r *personnelRepoPG) GetByUserID(ctx context.Context, userID int64) (*MedicalPersonnel, error) {
	return r.getOne(ctx, goqu.I("mp.user_id").Eq(userID))
}

func (r *personnelRepoPG) Create(ctx context.Context, mp *MedicalPersonnel) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO medical_personnel (user_id, level) VALUES ($1, $2) RETURNING id`,
		mp.UserID, mp.Level,
	).Scan(&mp.ID)
	if _, ok := db.UniqueViolation(err); ok {
		return apperrors.NewIntegrityError("This user already has a MedicalPersonnel profile.", err)
	}
	return err
}

func (r *personnelRepoPG) List(ctx context.Context, limit, offset int) ([]*MedicalPersonnel, int, error) {
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM medical_personnel`).Scan(&total); err != nil {
		return nil, 0, err
	}
	sql, args, err := db.Build(personnelSelect.
		Order(goqu.I("mp.id").Asc()).
		Limit(uint(limit)).Offset(uint(offset)).
		Prepared(true))
	if err != nil {
		return nil, 0, fmt.Errorf("build personnel query: %w", err)
	}
	items, err := r.query(ctx, sql, args)
	return items, total, err
}

func (r *personnelRepoPG) ListByIDs(ctx context.Context, ids []int64) ([]*MedicalPersonnel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sql, args, err := db.Build(personnelSelect.
		Where(goqu.I("mp.id").In(ids)).
		Order(goqu.I("mp.id").Asc()).
		Prepared(true))
	if err != nil {
		return nil, fmt.Errorf("build personnel query: %w", err)
	}
	return r.query(ctx, sql, args)
}

func (r *personnelRepoPG) query(ctx context.Context, sql string, args []interface{}) ([]*MedicalPersonnel, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*MedicalPersonnel
	for rows.Next() {
		mp, err := scanPersonnel(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, mp)
	}
	return items, rows.Err()
}

// =========== Preferred Hospital Repository ===========

type preferredHospitalRepoPG struct{ pool *pgxpool.Pool }

func NewPreferredHospitalRepoPG(pool *pgxpool.Pool) PreferredHospitalRepository {
	return &preferredHospitalRepoPG{pool: pool}
}

func (r *preferredHospitalRepoPG) GetByPersonnel(ctx context.Context, personnelID int64) (*PreferredHospital, error) {
	var ph PreferredHospital
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, medical_personnel_id, hospital_id FROM preferred_hospital WHERE medical_personnel_id = $1`,
		personnelID,
	).Scan(&ph.ID, &ph.MedicalPersonnelID, &ph.HospitalID)
	if db.IsNoRows(err) {
		return nil, apperrors.NewNotFoundError("No preferred hospital set.")
	}
	if err != nil {
		return nil, err
	}
	return &ph, nil
}

func (r *preferredHospitalRepoPG) Upsert(ctx context.Context, ph *PreferredHospital) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO preferred_hospital (medical_personnel_id, hospital_id)
		VALUES ($1, $2)
		ON CONFLICT (medical_personnel_id) DO UPDATE SET hospital_id = EXCLUDED.hospital_id
		RETURNING id`,
		ph.MedicalPersonnelID, ph.HospitalID,
	).Scan(&ph.ID)
	if _, ok := db.ForeignKeyViolation(err); ok {
		return apperrors.NewValidationError("Hospital %d does not exist.", ph.HospitalID)
	}
	return err
}

func (r *preferredHospitalRepoPG) HospitalExists(ctx context.Context, hospitalID int64) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM hospital WHERE id = $1)`, hospitalID).Scan(&exists)
	return exists, err
}
