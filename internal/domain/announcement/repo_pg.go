package announcement

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmh/registry/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) Create(ctx context.Context, a *Announcement) error {
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO announcement (text, display_from, display_until)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		a.Text, a.DisplayFrom, a.DisplayUntil,
	).Scan(&a.ID, &a.CreatedAt)
}

func (r *repoPG) ListActive(ctx context.Context, now time.Time) ([]*Announcement, error) {
	sql, args, err := db.Build(db.Dialect.From("announcement").
		Select("id", "text", "display_from", "display_until", "created_at").
		Where(
			goqu.Or(goqu.C("display_from").IsNull(), goqu.C("display_from").Lte(now)),
			goqu.Or(goqu.C("display_until").IsNull(), goqu.C("display_until").Gte(now)),
		).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).
		Prepared(true))
	if err != nil {
		return nil, err
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Announcement
	for rows.Next() {
		var a Announcement
		if err := rows.Scan(&a.ID, &a.Text, &a.DisplayFrom, &a.DisplayUntil, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
