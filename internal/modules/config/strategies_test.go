package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestParseClock(t *testing.T) {
	m, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, m)

	m, err = ParseClock("00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, m)

	_, err = ParseClock("25:00")
	assert.Error(t, err)
	_, err = ParseClock("9am")
	assert.Error(t, err)
}

func TestDurationUnmarshalYAML(t *testing.T) {
	var out struct {
		Interval Duration `yaml:"interval"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("interval: 15m"), &out))
	assert.Equal(t, 15*time.Minute, out.Interval.Std())

	require.NoError(t, yaml.Unmarshal([]byte("interval: 4h"), &out))
	assert.Equal(t, 4*time.Hour, out.Interval.Std())

	assert.Error(t, yaml.Unmarshal([]byte("interval: скоро"), &out))
}

func TestLoadStrategiesMissingFileFallsBack(t *testing.T) {
	s, err := LoadStrategies(filepath.Join(t.TempDir(), "нет.yaml"))
	require.NoError(t, err)
	def := DefaultStrategies()
	assert.Equal(t, def.Aggressive.Params, s.Aggressive.Params)
	assert.True(t, s.Conservative.Enabled)
}

func TestLoadStrategiesOverridesDefaults(t *testing.T) {
	raw := []byte(`
aggressive_momentum_ignition:
  enabled: false
  interval: 10m
  allocation: 0.25
  leverage_cap: 4
  parameters:
    oversold_threshold: 15
`)
	path := filepath.Join(t.TempDir(), "strategies.yaml")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	s, err := LoadStrategies(path)
	require.NoError(t, err)

	assert.False(t, s.Aggressive.Enabled)
	assert.Equal(t, 10*time.Minute, s.Aggressive.Interval.Std())
	assert.InDelta(t, 0.25, s.Aggressive.Allocation, 1e-9)
	assert.InDelta(t, 15, s.Aggressive.Params.Oversold, 1e-9)
	// нетронутые секции остаются дефолтными
	assert.True(t, s.Moderate.Enabled)
	assert.Equal(t, 34, s.Moderate.Params.EMASlow)
}

func TestLoadStrategiesBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategies.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{кривой yaml"), 0o644))
	_, err := LoadStrategies(path)
	assert.Error(t, err)
}

func TestStrategiesValidate(t *testing.T) {
	ok := DefaultStrategies()
	require.NoError(t, ok.Validate())

	bad := DefaultStrategies()
	bad.Aggressive.Params.Oversold = 95 // выше overbought
	assert.Error(t, bad.Validate())

	bad = DefaultStrategies()
	bad.Moderate.Params.EMAFast = 50 // не ниже ema_slow
	assert.Error(t, bad.Validate())

	bad = DefaultStrategies()
	bad.Conservative.Allocation = 1.5
	assert.Error(t, bad.Validate())

	bad = DefaultStrategies()
	bad.Aggressive.Filters.TimeStart = "24:99"
	assert.Error(t, bad.Validate())

	// выключенную стратегию не валидируем
	off := DefaultStrategies()
	off.Aggressive.Enabled = false
	off.Aggressive.Filters.TimeStart = "мусор"
	assert.NoError(t, off.Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{
		Symbol:        "BTC-USDT",
		Capital:       10000,
		AlertCooldown: 30 * time.Minute,
		Strategies:    DefaultStrategies(),
	}
	cfg.Risk.MaxRiskPerTrade = 0.02
	cfg.Risk.MaxConcurrentAlert = 2
	cfg.Exchange.MaxRetries = 3
	cfg.Exchange.Timeout = 30 * time.Second
	require.NoError(t, cfg.Validate())

	noSymbol := *cfg
	noSymbol.Symbol = ""
	assert.Error(t, noSymbol.Validate())

	greedy := *cfg
	greedy.Risk.MaxRiskPerTrade = 0.9
	assert.Error(t, greedy.Validate())

	noCooldown := *cfg
	noCooldown.AlertCooldown = 0
	assert.Error(t, noCooldown.Validate())
}
