package announcement

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tmh/registry/internal/platform/cache"
	"github.com/tmh/registry/pkg/apperrors"
)

const activeKey = "announcements:active"

// Service reads active announcements through a cache. A cached list can
// be up to ttl stale with respect to window boundaries; writes invalidate
// it immediately.
type Service struct {
	repo  Repository
	cache cache.Provider
	ttl   time.Duration
	now   func() time.Time
}

func NewService(repo Repository, c cache.Provider, ttl time.Duration) *Service {
	if c == nil {
		c = cache.NoopProvider{}
	}
	return &Service{repo: repo, cache: c, ttl: ttl, now: time.Now}
}

func (s *Service) ListActive(ctx context.Context) ([]*Announcement, error) {
	log := zerolog.Ctx(ctx)

	b, err := s.cache.Get(ctx, activeKey)
	switch {
	case err == nil:
		var cached []*Announcement
		if jerr := json.Unmarshal(b, &cached); jerr == nil {
			return cached, nil
		}
		log.Warn().Str("key", activeKey).Msg("discarding undecodable cache entry")
	case !errors.Is(err, cache.ErrMiss):
		log.Warn().Err(err).Msg("announcement cache unavailable")
	}

	list, err := s.repo.ListActive(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*Announcement{}
	}
	if b, err := json.Marshal(list); err == nil {
		if err := s.cache.Set(ctx, activeKey, b, s.ttl); err != nil {
			log.Warn().Err(err).Msg("announcement cache write failed")
		}
	}
	return list, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Announcement, error) {
	a := &Announcement{
		Text:         strings.TrimSpace(in.Text),
		DisplayFrom:  in.DisplayFrom,
		DisplayUntil: in.DisplayUntil,
	}
	if a.Text == "" {
		return nil, apperrors.NewValidationError("text : This field is required.")
	}
	if a.DisplayFrom != nil && a.DisplayUntil != nil && a.DisplayUntil.Before(*a.DisplayFrom) {
		return nil, apperrors.NewValidationError("display_until : Must not be earlier than display_from.")
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	if err := s.cache.Delete(ctx, activeKey); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("announcement cache invalidation failed")
	}
	zerolog.Ctx(ctx).Info().Int64("announcement_id", a.ID).Msg("announcement created")
	return a, nil
}
