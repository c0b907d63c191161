package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/lguibr/arcade/content"
	"github.com/lguibr/arcade/utils"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "arcade",
	Short:        "Arcade learning games",
	Long:         `arcade runs the shooter, falling and wave games as a websocket server, in a terminal, or headless.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (defaults apply when empty)")
	rootCmd.AddCommand(serveCmd, playCmd, simulateCmd, seedCmd)
}

func loadConfig() (utils.Config, error) {
	return utils.LoadConfig(configPath)
}

func newLogger(w io.Writer, level string, json bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newRedis returns nil when no redis address is configured.
func newRedis(cfg utils.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// contentSource prefers redis and falls back to the built-in sample bundle.
func contentSource(cfg utils.Config, client *redis.Client, logger *slog.Logger) (content.Source, error) {
	if client == nil {
		return content.NewStaticSource(content.Sample()), nil
	}
	return content.NewRedisSource(client, cfg.Redis.KeyPrefix, logger)
}
