package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lguibr/arcade/content"
)

var seedCmd = &cobra.Command{
	Use:   "seed <content.yaml>",
	Short: "Load a content file into redis",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := newRedis(cfg.Redis)
	if client == nil {
		return errors.New("redis.addr is not configured")
	}
	defer client.Close()

	logger := newLogger(os.Stderr, cfg.LogLevel, false)
	source, err := content.NewRedisSource(client, cfg.Redis.KeyPrefix, logger)
	if err != nil {
		return err
	}
	bundles, err := content.LoadFile(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	for _, b := range bundles {
		if err := source.Store(ctx, b); err != nil {
			return fmt.Errorf("store %q: %w", b.Topic, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored %s: %d items, %d questions\n", b.Topic, len(b.Items), len(b.Questions))
	}
	return nil
}
