package grouporder

import (
	"context"

	"github.com/cribnosh/group-ordering/internal/domain/model"
)

// GetState returns the current aggregate state, serving from the read cache
// when possible. Expiry is still applied lazily on a cache miss.
func (s *Service) GetState(ctx context.Context, groupOrderID string) (*model.GroupOrder, error) {
	if s.cache != nil {
		if o, ok := s.cache.Get(ctx, groupOrderID); ok {
			// A cached snapshot may predate expiry; re-check cheaply.
			if o.Status != model.StatusActive || !o.Expired(s.now()) {
				return o, nil
			}
			s.cache.Invalidate(ctx, groupOrderID)
		}
	}

	o, err := s.load(ctx, groupOrderID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, o)
	}
	return o, nil
}

// ResolveShareToken returns the state behind a share link so a prospective
// joiner can preview the order. Join itself re-checks the share window.
func (s *Service) ResolveShareToken(ctx context.Context, token string) (*model.GroupOrder, error) {
	o, err := s.store.GetByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.applyExpiry(ctx, o)
}

// SweepExpired applies the expiry transition to every lapsed active order.
// The sweep is an operational complement; correctness never depends on it
// because every read and mutation applies expiry lazily.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	ids, err := s.store.ListExpired(ctx, s.now().Unix())
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if _, err := s.load(ctx, id); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

// ListClosed returns orders sitting in closed, waiting for conversion. The
// conversion pipeline polls it so orders closed by expiry or auto-close are
// converted even though no request handler saw them close.
func (s *Service) ListClosed(ctx context.Context) ([]string, error) {
	return s.store.ListClosed(ctx)
}
