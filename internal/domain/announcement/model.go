// Package announcement serves the notices shown to registry users, each
// visible inside an optional display window.
package announcement

import "time"

type Announcement struct {
	ID           int64      `json:"id"`
	Text         string     `json:"text"`
	DisplayFrom  *time.Time `json:"display_from"`
	DisplayUntil *time.Time `json:"display_until"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ActiveAt reports whether t falls inside the display window. Missing
// bounds are open.
func (a *Announcement) ActiveAt(t time.Time) bool {
	if a.DisplayFrom != nil && t.Before(*a.DisplayFrom) {
		return false
	}
	if a.DisplayUntil != nil && t.After(*a.DisplayUntil) {
		return false
	}
	return true
}

type CreateInput struct {
	Text         string     `json:"text" validate:"required"`
	DisplayFrom  *time.Time `json:"display_from"`
	DisplayUntil *time.Time `json:"display_until"`
}
