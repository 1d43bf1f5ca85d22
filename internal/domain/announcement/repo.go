package announcement

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, a *Announcement) error
	// ListActive returns announcements whose window contains now, newest
	// first.
	ListActive(ctx context.Context, now time.Time) ([]*Announcement, error)
}
