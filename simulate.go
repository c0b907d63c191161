package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lguibr/arcade/game"
	"github.com/lguibr/arcade/render"
)

var (
	simMode       string
	simTopic      string
	simSeed       uint64
	simTicks      int
	simDraw       bool
	simCheckpoint string
	simRealtime   bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a round headless with fixed steps and no input",
	Long:  "simulate steps a round without input, so the outcome depends only on the seed and the config.",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simMode, "mode", "shooter", "game mode: shooter, falling or wave")
	simulateCmd.Flags().StringVar(&simTopic, "topic", "go", "content topic")
	simulateCmd.Flags().Uint64Var(&simSeed, "seed", 1, "random seed")
	simulateCmd.Flags().IntVar(&simTicks, "ticks", 3600, "maximum ticks to run")
	simulateCmd.Flags().BoolVar(&simDraw, "draw", false, "print the final frame")
	simulateCmd.Flags().BoolVar(&simRealtime, "realtime", false, "pace ticks with the frame clock instead of stepping")
	simulateCmd.Flags().StringVar(&simCheckpoint, "checkpoint", "", "write the final checkpoint to this file")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.LogLevel, false)

	client := newRedis(cfg.Redis)
	if client != nil {
		defer client.Close()
	}
	source, err := contentSource(cfg, client, logger)
	if err != nil {
		return fmt.Errorf("content source: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ContentTimeout)
	defer cancel()
	bundle, err := source.Fetch(ctx, simTopic)
	if err != nil {
		return fmt.Errorf("fetch %q: %w", simTopic, err)
	}

	round, err := game.NewEngine(game.Options{
		ID:     "simulate",
		Mode:   simMode,
		Topic:  simTopic,
		Seed:   simSeed,
		Config: cfg,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer round.Teardown()
	if err := round.BeginWith(bundle); err != nil {
		return err
	}

	var ticks int
	if simRealtime {
		// the scheduler stops itself when the round ends
		budget := time.Duration(simTicks) * cfg.Scheduler.FrameDuration
		runCtx, stop := context.WithTimeout(cmd.Context(), budget)
		round.Scheduler().Run(runCtx, game.NewTickerSource(cfg.Scheduler.FrameDuration))
		stop()
		ticks = int(round.Scheduler().Ticks())
	} else {
		for ticks < simTicks && !round.Phase().Terminal() && round.Step(1) {
			ticks++
		}
	}

	out := cmd.OutOrStdout()
	snap := round.Snapshot()
	if simDraw {
		fmt.Fprintln(out, render.ToANSI(render.Rasterize(snap, 60, 30)))
	}
	fmt.Fprintln(out, render.HUD(snap))
	fmt.Fprintf(out, "ticks %d\n", ticks)
	if res, ok := round.Result(); ok {
		fmt.Fprintf(out, "outcome %s  score %d  comboMax %d  cleared %d\n",
			res.Outcome, res.Score, res.ComboMax, res.ItemsCleared)
	}

	if simCheckpoint != "" {
		data, err := round.Checkpoint()
		if err != nil {
			return fmt.Errorf("checkpoint: %w", err)
		}
		if err := os.WriteFile(simCheckpoint, data, 0o644); err != nil {
			return fmt.Errorf("write checkpoint: %w", err)
		}
	}
	return nil
}
