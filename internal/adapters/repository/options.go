package repository

import (
	"context"

	"github.com/okian/snapdash/internal/domain/model"
)

// StoreOption applies a configuration option to the MemStore.
type StoreOption func(context.Context, *MemStore)

// WithLevels seeds level definitions at construction time.
func WithLevels(levels ...model.Level) StoreOption {
	return func(ctx context.Context, s *MemStore) {
		for _, l := range levels {
			_ = s.PutLevel(ctx, l)
		}
	}
}

// WithTeams seeds team registrations at construction time.
func WithTeams(teams ...model.Team) StoreOption {
	return func(ctx context.Context, s *MemStore) {
		for _, t := range teams {
			_ = s.AddTeam(ctx, t)
		}
	}
}
