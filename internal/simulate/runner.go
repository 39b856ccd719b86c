package simulate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/snapdash/pkg/logger"
)

// settleDelay gives the async verification pipeline time to drain before
// the leaderboard check.
const settleDelay = 2 * time.Second

// Run executes one full simulation: seed levels and teams, submit photos
// for every team, then fetch and verify the leaderboard.
func Run(ctx context.Context, cfg *Config) error {
	log := logger.Get().Named("simulate")
	c := newClient(cfg.BaseURL, cfg.Timeout)

	levels := generateLevels(cfg.LevelsPerTeam)
	teams := generateTeams(cfg.NumTeams, levels)

	log.Info(ctx, "seeding marathon",
		logger.Int("teams", len(teams)),
		logger.Int("levels", len(levels)),
	)

	for _, l := range levels {
		if err := c.createLevel(ctx, l); err != nil {
			return fmt.Errorf("seed level: %w", err)
		}
	}
	for _, t := range teams {
		if err := c.registerTeam(ctx, t); err != nil {
			return fmt.Errorf("seed team: %w", err)
		}
	}

	byID := make(map[string]level, len(levels))
	for _, l := range levels {
		byID[l.ID] = l
	}

	submitted := 0
	for ti, t := range teams {
		// Each team clears a prefix of its sequence; earlier teams get
		// further so the board has spread.
		depth := len(t.AssignedLevels) - ti%len(t.AssignedLevels)
		for li := 0; li < depth; li++ {
			l := byID[t.AssignedLevels[li]]
			phash := corruptHash(l.PHash, nearMissFlips)
			if randomFloat() < cfg.CorruptRatio {
				phash = corruptHash(l.PHash, reviewFlips)
			}
			if err := c.submit(ctx, uuid.New().String(), t.ID, l.ID, phash); err != nil {
				return fmt.Errorf("submit: %w", err)
			}
			submitted++
		}
		// Teams that cleared everything also shoot the final level.
		if depth == len(t.AssignedLevels) {
			for _, l := range levels {
				if !l.IsFinal {
					continue
				}
				if err := c.submit(ctx, uuid.New().String(), t.ID, l.ID, corruptHash(l.PHash, nearMissFlips)); err != nil {
					return fmt.Errorf("submit final: %w", err)
				}
				submitted++
			}
		}
	}

	log.Info(ctx, "submissions sent", logger.Int("count", submitted))

	select {
	case <-ctx.Done():
		return fmt.Errorf("simulation cancelled: %w", ctx.Err())
	case <-time.After(settleDelay):
	}

	rows, err := c.leaderboard(ctx)
	if err != nil {
		return err
	}
	if err := verifyLeaderboard(rows); err != nil {
		return err
	}

	log.Info(ctx, "leaderboard verified", logger.Int("rows", len(rows)))
	return nil
}
