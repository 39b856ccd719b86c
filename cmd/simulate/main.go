// Command simulate seeds a running snapdash server with generated teams,
// levels and submissions, then verifies the resulting leaderboard.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/snapdash/internal/simulate"
	"github.com/okian/snapdash/pkg/logger"
)

func main() {
	cfg := simulate.NewConfig()

	flag.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the running server")
	flag.IntVar(&cfg.NumTeams, "teams", cfg.NumTeams, "number of teams to register")
	flag.IntVar(&cfg.LevelsPerTeam, "levels", cfg.LevelsPerTeam, "number of assigned levels per team")
	flag.Float64Var(&cfg.CorruptRatio, "corrupt", cfg.CorruptRatio, "fraction of submissions sent with a bad hash")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP client timeout")
	flag.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose logging")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if cfg.Verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if err := simulate.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		os.Exit(1)
	}
	logger.Get().Info(ctx, "simulation complete", logger.Any("elapsed", time.Since(start).Round(time.Millisecond)))
}
