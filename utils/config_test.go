package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []int{0, 100, 300, 500, 800}, cfg.Falling.RewardTable)
	assert.Equal(t, ActionFire, cfg.Bindings(ModeShooter)["Space"])
	assert.Equal(t, ActionHardDrop, cfg.Bindings(ModeFalling)["Space"])
	assert.Nil(t, cfg.Bindings("unknown"))
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arcade.yaml")
	doc := `
scheduler:
  frameDuration: 20ms
session:
  health: 5
shooter:
  spawn:
    baseInterval: 60
    minInterval: 10
  bindings:
    KeyJ: fire
falling:
  rewardTable: [0, 40, 100, 300, 1200]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, cfg.Scheduler.FrameDuration)
	assert.Equal(t, 5, cfg.Session.Health)
	assert.Equal(t, 60.0, cfg.Shooter.Spawn.BaseInterval)
	assert.Equal(t, ActionFire, cfg.Shooter.Bindings["KeyJ"])
	assert.Equal(t, ActionFire, cfg.Shooter.Bindings["Space"], "defaults survive a partial bindings map")
	assert.Equal(t, []int{0, 40, 100, 300, 1200}, cfg.Falling.RewardTable)
	assert.Equal(t, 10, cfg.Falling.Columns)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session:\n  health: 0\nfalling:\n  rewardTable: [1]\n"), 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.health")
	assert.Contains(t, err.Error(), "rewardTable")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Session, cfg.Session)
}

func TestValidateRejectsOversizedTargets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shooter.TargetWidth = cfg.Playfield.Width + 1
	cfg.Playfield.Margin = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shooter.targetWidth")
	assert.Contains(t, err.Error(), "playfield.margin")
}
