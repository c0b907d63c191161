package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/lguibr/arcade/game"
	"github.com/lguibr/arcade/terminal"
)

var (
	playMode  string
	playTopic string
	playMute  bool
	playLog   string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a round in the terminal",
	RunE:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playMode, "mode", "shooter", "game mode: shooter, falling or wave")
	playCmd.Flags().StringVar(&playTopic, "topic", "go", "content topic")
	playCmd.Flags().BoolVar(&playMute, "mute", false, "disable sound")
	playCmd.Flags().StringVar(&playLog, "log", "", "write logs to this file (discarded when empty)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var logOut io.Writer = io.Discard
	if playLog != "" {
		f, err := os.OpenFile(playLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(logOut, cfg.LogLevel, false)

	client := newRedis(cfg.Redis)
	if client != nil {
		defer client.Close()
	}
	source, err := contentSource(cfg, client, logger)
	if err != nil {
		return fmt.Errorf("content source: %w", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	var sound *terminal.Sound
	if !playMute {
		sound = terminal.NewSound()
		if err := sound.Init(); err != nil {
			logger.Warn("sound disabled", "error", err)
		}
		defer sound.Close()
	}

	rounds := uint64(0)
	factory := func(ctx context.Context) (*game.Engine, error) {
		rounds++
		round, err := game.NewEngine(game.Options{
			ID:     fmt.Sprintf("terminal-%d", rounds),
			Mode:   playMode,
			Topic:  playTopic,
			Seed:   uint64(time.Now().UnixNano()) + rounds,
			Config: cfg,
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		if err := round.Begin(ctx, source, cfg.Server.ContentTimeout); err != nil {
			return nil, err
		}
		return round, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	host := terminal.NewHost(screen, factory, terminal.HostOptions{
		Frame:  cfg.Scheduler.FrameDuration,
		Sound:  sound,
		Logger: logger,
	})
	return host.Run(ctx)
}
