package utils

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configurable engine parameters. Velocities are expressed
// in playfield units per tick and intervals in ticks (one tick is one nominal
// frame).
type Config struct {
	LogLevel  string          `json:"logLevel" yaml:"logLevel"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Playfield PlayfieldConfig `json:"playfield" yaml:"playfield"`
	Input     InputConfig     `json:"input" yaml:"input"`
	Session   SessionConfig   `json:"session" yaml:"session"`
	Shooter   ShooterConfig   `json:"shooter" yaml:"shooter"`
	Falling   FallingConfig   `json:"falling" yaml:"falling"`
	Wave      WaveConfig      `json:"wave" yaml:"wave"`
	Server    ServerConfig    `json:"server" yaml:"server"`
	Redis     RedisConfig     `json:"redis" yaml:"redis"`
}

type SchedulerConfig struct {
	FrameDuration time.Duration `json:"frameDuration" yaml:"frameDuration"` // nominal frame, dt = elapsed / FrameDuration
	MaxDelta      float64       `json:"maxDelta" yaml:"maxDelta"`           // clamp after stalls
}

type PlayfieldConfig struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Margin float64 `json:"margin" yaml:"margin"` // entities may drift this far outside before culling
}

type InputConfig struct {
	TapThreshold   float64 `json:"tapThreshold" yaml:"tapThreshold"`     // max travel of a tap
	SwipeThreshold float64 `json:"swipeThreshold" yaml:"swipeThreshold"` // min travel of a swipe
}

type SessionConfig struct {
	Health         int     `json:"health" yaml:"health"`
	ScoreThreshold int     `json:"scoreThreshold" yaml:"scoreThreshold"` // 0 disables roundComplete by score
	TimeLimit      float64 `json:"timeLimit" yaml:"timeLimit"`           // ticks, 0 disables
	BasePoints     int     `json:"basePoints" yaml:"basePoints"`
	FillerPoints   int     `json:"fillerPoints" yaml:"fillerPoints"`
	RevealLimit    int     `json:"revealLimit" yaml:"revealLimit"`
}

// SpawnCurve describes interval = max(Min, Base - PerScore*score - PerLevel*(level-1)).
type SpawnCurve struct {
	BaseInterval float64 `json:"baseInterval" yaml:"baseInterval"`
	MinInterval  float64 `json:"minInterval" yaml:"minInterval"`
	PerScore     float64 `json:"perScore" yaml:"perScore"`
	PerLevel     float64 `json:"perLevel" yaml:"perLevel"`
}

type ShooterConfig struct {
	Bindings        map[string]string `json:"bindings" yaml:"bindings"`
	Spawn           SpawnCurve        `json:"spawn" yaml:"spawn"`
	QueueMode       string            `json:"queueMode" yaml:"queueMode"`
	ShipWidth       float64           `json:"shipWidth" yaml:"shipWidth"`
	ShipHeight      float64           `json:"shipHeight" yaml:"shipHeight"`
	ShipSpeed       float64           `json:"shipSpeed" yaml:"shipSpeed"`
	ProjectileSize  float64           `json:"projectileSize" yaml:"projectileSize"`
	ProjectileSpeed float64           `json:"projectileSpeed" yaml:"projectileSpeed"`
	FireCooldown    float64           `json:"fireCooldown" yaml:"fireCooldown"`
	TargetWidth     float64           `json:"targetWidth" yaml:"targetWidth"`
	TargetHeight    float64           `json:"targetHeight" yaml:"targetHeight"`
	TargetSpeed     float64           `json:"targetSpeed" yaml:"targetSpeed"`
	TargetSpeedStep float64           `json:"targetSpeedStep" yaml:"targetSpeedStep"` // added per level
	Bombs           int               `json:"bombs" yaml:"bombs"`
	BurstSize       int               `json:"burstSize" yaml:"burstSize"`
	PointsPerLevel  int               `json:"pointsPerLevel" yaml:"pointsPerLevel"`
}

type FallingConfig struct {
	Bindings        map[string]string `json:"bindings" yaml:"bindings"`
	Spawn           SpawnCurve        `json:"spawn" yaml:"spawn"`
	QueueMode       string            `json:"queueMode" yaml:"queueMode"`
	Columns         int               `json:"columns" yaml:"columns"`
	Rows            int               `json:"rows" yaml:"rows"`
	GravityTicks    float64           `json:"gravityTicks" yaml:"gravityTicks"` // ticks per row at level 1
	GravityPerLevel float64           `json:"gravityPerLevel" yaml:"gravityPerLevel"`
	MinGravityTicks float64           `json:"minGravityTicks" yaml:"minGravityTicks"`
	SoftDropTicks   float64           `json:"softDropTicks" yaml:"softDropTicks"`
	LinesPerLevel   int               `json:"linesPerLevel" yaml:"linesPerLevel"`
	RewardTable     []int             `json:"rewardTable" yaml:"rewardTable"`
	SoftDropPoints  int               `json:"softDropPoints" yaml:"softDropPoints"`
	HardDropPoints  int               `json:"hardDropPoints" yaml:"hardDropPoints"`
	KickOffsets     []int             `json:"kickOffsets" yaml:"kickOffsets"`
}

type WaveConfig struct {
	Bindings       map[string]string `json:"bindings" yaml:"bindings"`
	Spawn          SpawnCurve        `json:"spawn" yaml:"spawn"`
	WaveSize       int               `json:"waveSize" yaml:"waveSize"`
	Horizon        float64           `json:"horizon" yaml:"horizon"` // y where targets appear
	TargetSize     float64           `json:"targetSize" yaml:"targetSize"`
	TargetSpeed    float64           `json:"targetSpeed" yaml:"targetSpeed"`
	GrowthRate     float64           `json:"growthRate" yaml:"growthRate"`
	CrosshairSpeed float64           `json:"crosshairSpeed" yaml:"crosshairSpeed"`
	FireCooldown   float64           `json:"fireCooldown" yaml:"fireCooldown"`
	QuizBonus      int               `json:"quizBonus" yaml:"quizBonus"`
	BurstSize      int               `json:"burstSize" yaml:"burstSize"`
}

type ServerConfig struct {
	Addr           string        `json:"addr" yaml:"addr"`
	MaxSessions    int           `json:"maxSessions" yaml:"maxSessions"`
	SnapshotEvery  int           `json:"snapshotEvery" yaml:"snapshotEvery"` // ticks between pushed snapshots
	AskTimeout     time.Duration `json:"askTimeout" yaml:"askTimeout"`
	ContentTimeout time.Duration `json:"contentTimeout" yaml:"contentTimeout"`
}

type RedisConfig struct {
	Addr        string `json:"addr" yaml:"addr"` // empty disables redis-backed content and results
	Password    string `json:"password" yaml:"password"`
	DB          int    `json:"db" yaml:"db"`
	KeyPrefix   string `json:"keyPrefix" yaml:"keyPrefix"`
	ResultsKeep int64  `json:"resultsKeep" yaml:"resultsKeep"`
}

// DefaultConfig returns a Config struct with default values.
func DefaultConfig() Config {
	width, height := 480.0, 640.0

	return Config{
		LogLevel: "info",
		Scheduler: SchedulerConfig{
			FrameDuration: time.Second / 60,
			MaxDelta:      3,
		},
		Playfield: PlayfieldConfig{Width: width, Height: height, Margin: 32},
		Input: InputConfig{
			TapThreshold:   10,
			SwipeThreshold: 30,
		},
		Session: SessionConfig{
			Health:         3,
			ScoreThreshold: 2000,
			BasePoints:     10,
			FillerPoints:   5,
			RevealLimit:    8,
		},
		Shooter: ShooterConfig{
			Bindings:        DefaultKeyBindings(ModeShooter),
			Spawn:           SpawnCurve{BaseInterval: 120, MinInterval: 30, PerScore: 0.02, PerLevel: 10},
			QueueMode:       QueueWrap,
			ShipWidth:       32,
			ShipHeight:      16,
			ShipSpeed:       6,
			ProjectileSize:  6,
			ProjectileSpeed: 10,
			FireCooldown:    12,
			TargetWidth:     64,
			TargetHeight:    20,
			TargetSpeed:     1,
			TargetSpeedStep: 0.25,
			Bombs:           3,
			BurstSize:       8,
			PointsPerLevel:  500,
		},
		Falling: FallingConfig{
			Bindings:        DefaultKeyBindings(ModeFalling),
			Spawn:           SpawnCurve{BaseInterval: 1, MinInterval: 1},
			QueueMode:       QueueWrap,
			Columns:         10,
			Rows:            20,
			GravityTicks:    48,
			GravityPerLevel: 5,
			MinGravityTicks: 4,
			SoftDropTicks:   2,
			LinesPerLevel:   10,
			RewardTable:     []int{0, 100, 300, 500, 800},
			SoftDropPoints:  1,
			HardDropPoints:  2,
			KickOffsets:     []int{0, -1, 1, -2, 2},
		},
		Wave: WaveConfig{
			Bindings:       DefaultKeyBindings(ModeWave),
			Spawn:          SpawnCurve{BaseInterval: 90, MinInterval: 25, PerScore: 0.01, PerLevel: 8},
			WaveSize:       6,
			Horizon:        height / 3,
			TargetSize:     8,
			TargetSpeed:    1.2,
			GrowthRate:     0.25,
			CrosshairSpeed: 8,
			FireCooldown:   8,
			QuizBonus:      100,
			BurstSize:      6,
		},
		Server: ServerConfig{
			Addr:           ":3001",
			MaxSessions:    64,
			SnapshotEvery:  2,
			AskTimeout:     2 * time.Second,
			ContentTimeout: 5 * time.Second,
		},
		Redis: RedisConfig{
			KeyPrefix:   "arcade",
			ResultsKeep: 100,
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Keys absent from
// the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid tunable at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Scheduler.FrameDuration > 0, "scheduler.frameDuration must be positive")
	check(c.Scheduler.MaxDelta >= 1, "scheduler.maxDelta must be at least 1")
	check(c.Playfield.Width > 0 && c.Playfield.Height > 0, "playfield must have a positive size")
	check(c.Playfield.Margin >= 0, "playfield.margin must not be negative")
	check(c.Shooter.TargetWidth > 0 && c.Shooter.TargetWidth <= c.Playfield.Width,
		"shooter.targetWidth must be in (0, playfield.width]")
	check(c.Shooter.TargetHeight > 0, "shooter.targetHeight must be positive")
	check(c.Session.Health > 0, "session.health must be positive")
	check(c.Session.BasePoints >= 0 && c.Session.FillerPoints >= 0, "session points must not be negative")
	for name, curve := range map[string]SpawnCurve{"shooter": c.Shooter.Spawn, "falling": c.Falling.Spawn, "wave": c.Wave.Spawn} {
		check(curve.MinInterval > 0, "%s.spawn.minInterval must be positive", name)
		check(curve.BaseInterval >= curve.MinInterval, "%s.spawn.baseInterval must be >= minInterval", name)
	}
	check(c.Falling.Columns >= 4 && c.Falling.Rows >= 4, "falling grid must be at least 4x4")
	check(len(c.Falling.RewardTable) == 5, "falling.rewardTable needs 5 entries, got %d", len(c.Falling.RewardTable))
	check(len(c.Falling.KickOffsets) > 0 && c.Falling.KickOffsets[0] == 0, "falling.kickOffsets must start with 0")
	check(c.Falling.LinesPerLevel > 0, "falling.linesPerLevel must be positive")
	check(c.Falling.MinGravityTicks > 0, "falling.minGravityTicks must be positive")
	check(c.Wave.WaveSize > 0, "wave.waveSize must be positive")
	check(validQueueMode(c.Shooter.QueueMode), "shooter.queueMode %q is unknown", c.Shooter.QueueMode)
	check(validQueueMode(c.Falling.QueueMode), "falling.queueMode %q is unknown", c.Falling.QueueMode)

	return errors.Join(errs...)
}

func validQueueMode(mode string) bool {
	return mode == QueueWrap || mode == QueueNoRepeat
}

// Bindings returns the key map for mode.
func (c Config) Bindings(mode string) map[string]string {
	switch mode {
	case ModeShooter:
		return c.Shooter.Bindings
	case ModeFalling:
		return c.Falling.Bindings
	case ModeWave:
		return c.Wave.Bindings
	}
	return nil
}
