package config

import (
	"os"
	"time"

	"alert_bot/internal/models"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Параметры стратегий лежат в отдельном yaml (configs/strategies.yaml):
// их крутят чаще, чем базовый конфиг, и удобно подменять целиком.

type AggressiveParams struct {
	StochRSIK  int     `yaml:"stoch_rsi_k"`
	StochRSID  int     `yaml:"stoch_rsi_d"`
	RSILength  int     `yaml:"rsi_length"`
	Oversold   float64 `yaml:"oversold_threshold"`
	Overbought float64 `yaml:"overbought_threshold"`
	VolumeMult float64 `yaml:"volume_multiplier"`
	Leverage   int     `yaml:"leverage"`
}

type AggressiveFilters struct {
	Volatility   float64   `yaml:"volatility"`
	TimeStart    string    `yaml:"time_start"`
	TimeEnd      string    `yaml:"time_end"`
	WickConfirm  bool      `yaml:"wick_confirmation"`
	Divergence   bool      `yaml:"divergence_detection"`
	PartialExits []float64 `yaml:"partial_exits"`
}

type ModerateParams struct {
	EMAFast    int     `yaml:"ema_fast"`
	EMASlow    int     `yaml:"ema_slow"`
	RSILength  int     `yaml:"rsi_length"`
	RSIBullish float64 `yaml:"rsi_bullish"`
	RSIBearish float64 `yaml:"rsi_bearish"`
	TrendEMA   int     `yaml:"trend_ema"`
	Leverage   int     `yaml:"leverage"`
}

type ModerateFilters struct {
	SessionStartHour int     `yaml:"session_start_hour"`
	SessionEndHour   int     `yaml:"session_end_hour"`
	MinCandleBody    float64 `yaml:"min_candle_body"`
	VolumeSpike      float64 `yaml:"required_volume_spike"`
}

type ConservativeParams struct {
	EMAFast      int     `yaml:"ema_fast"`
	EMASlow      int     `yaml:"ema_slow"`
	ADXThreshold float64 `yaml:"adx_threshold"`
	RSILength    int     `yaml:"rsi_length"`
	RSIUpper     float64 `yaml:"rsi_upper"`
	RSILower     float64 `yaml:"rsi_lower"`
	Leverage     int     `yaml:"leverage"`
}

type ConservativeFilters struct {
	TrailingStop     bool                  `yaml:"trailing_stop"`
	TrailingStopMult float64               `yaml:"trailing_stop_multiplier"`
	ProfitScaling    bool                  `yaml:"profit_scaling"`
	ScalingLevels    []models.ScalingLevel `yaml:"profit_scaling_levels"`
}

// Duration — time.Duration с разбором строк вида "5m" и "4h" из yaml.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(err, "duration %q", raw)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type StrategyToggle struct {
	Enabled  bool     `yaml:"enabled"`
	Interval Duration `yaml:"interval"`
	// Доля общего капитала под стратегию
	Allocation float64 `yaml:"allocation"`
	// Потолок плеча для сайзинга
	LeverageCap float64 `yaml:"leverage_cap"`
}

type Strategies struct {
	Aggressive struct {
		StrategyToggle `yaml:",inline"`
		Params         AggressiveParams  `yaml:"parameters"`
		Filters        AggressiveFilters `yaml:"filters"`
	} `yaml:"aggressive_momentum_ignition"`

	Moderate struct {
		StrategyToggle `yaml:",inline"`
		Params         ModerateParams  `yaml:"parameters"`
		Filters        ModerateFilters `yaml:"filters"`
	} `yaml:"moderate_ema_crossover"`

	Conservative struct {
		StrategyToggle `yaml:",inline"`
		Params         ConservativeParams  `yaml:"parameters"`
		Filters        ConservativeFilters `yaml:"filters"`
	} `yaml:"conservative_trend_rider"`
}

// DefaultStrategies — рабочие значения из продовой конфигурации.
// Файл их перекрывает, отсутствие файла — не ошибка.
func DefaultStrategies() Strategies {
	s := Strategies{}

	s.Aggressive.Enabled = true
	s.Aggressive.Interval = Duration(5 * time.Minute)
	s.Aggressive.Allocation = 0.2
	s.Aggressive.LeverageCap = 5
	s.Aggressive.Params = AggressiveParams{
		StochRSIK:  8,
		StochRSID:  2,
		RSILength:  11,
		Oversold:   10,
		Overbought: 90,
		VolumeMult: 2.0,
		Leverage:   3,
	}
	s.Aggressive.Filters = AggressiveFilters{
		Volatility:   0.018,
		TimeStart:    "09:30",
		TimeEnd:      "16:00",
		WickConfirm:  true,
		Divergence:   true,
		PartialExits: []float64{0.5, 1.0, 1.5},
	}

	s.Moderate.Enabled = true
	s.Moderate.Interval = Duration(15 * time.Minute)
	s.Moderate.Allocation = 0.3
	s.Moderate.LeverageCap = 3
	s.Moderate.Params = ModerateParams{
		EMAFast:    8,
		EMASlow:    34,
		RSILength:  14,
		RSIBullish: 40,
		RSIBearish: 60,
		TrendEMA:   50,
		Leverage:   2,
	}
	s.Moderate.Filters = ModerateFilters{
		SessionStartHour: 12,
		SessionEndHour:   20,
		MinCandleBody:    0.005,
		VolumeSpike:      1.8,
	}

	s.Conservative.Enabled = true
	s.Conservative.Interval = Duration(4 * time.Hour)
	s.Conservative.Allocation = 0.5
	s.Conservative.LeverageCap = 1
	s.Conservative.Params = ConservativeParams{
		EMAFast:      50,
		EMASlow:      200,
		ADXThreshold: 25,
		RSILength:    14,
		RSIUpper:     60,
		RSILower:     40,
		Leverage:     1,
	}
	s.Conservative.Filters = ConservativeFilters{
		TrailingStop:     true,
		TrailingStopMult: 2.5,
		ProfitScaling:    true,
		ScalingLevels: []models.ScalingLevel{
			{Threshold: 1.5, ClosePct: 30},
			{Threshold: 3.0, ClosePct: 50},
		},
	}

	return s
}

func LoadStrategies(path string) (*Strategies, error) {
	s := DefaultStrategies()
	if path == "" {
		return &s, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &s, nil
		}
		return nil, errors.Wrap(err, "read strategies file")
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrap(err, "decode strategies yaml")
	}
	return &s, nil
}

func (s *Strategies) Validate() error {
	a := s.Aggressive
	if a.Enabled {
		if a.Params.StochRSIK <= 0 || a.Params.StochRSID <= 0 || a.Params.RSILength <= 0 {
			return errors.New("aggressive: stochrsi periods must be positive")
		}
		if a.Params.Oversold >= a.Params.Overbought {
			return errors.New("aggressive: oversold must be below overbought")
		}
		if _, err := ParseClock(a.Filters.TimeStart); err != nil {
			return errors.Wrap(err, "aggressive: time_start")
		}
		if _, err := ParseClock(a.Filters.TimeEnd); err != nil {
			return errors.Wrap(err, "aggressive: time_end")
		}
	}

	m := s.Moderate
	if m.Enabled {
		if m.Params.EMAFast <= 0 || m.Params.EMASlow <= 0 || m.Params.EMAFast >= m.Params.EMASlow {
			return errors.New("moderate: ema_fast must be below ema_slow")
		}
		if m.Filters.SessionStartHour < 0 || m.Filters.SessionStartHour > 23 ||
			m.Filters.SessionEndHour < 0 || m.Filters.SessionEndHour > 23 {
			return errors.New("moderate: session hours out of range")
		}
	}

	c := s.Conservative
	if c.Enabled {
		if c.Params.EMAFast <= 0 || c.Params.EMASlow <= 0 || c.Params.EMAFast >= c.Params.EMASlow {
			return errors.New("conservative: ema_fast must be below ema_slow")
		}
		if c.Params.ADXThreshold <= 0 {
			return errors.New("conservative: adx_threshold must be positive")
		}
	}

	for _, st := range []StrategyToggle{a.StrategyToggle, m.StrategyToggle, c.StrategyToggle} {
		if !st.Enabled {
			continue
		}
		if st.Interval <= 0 {
			return errors.New("strategy interval must be positive")
		}
		if st.Allocation <= 0 || st.Allocation > 1 {
			return errors.New("strategy allocation must be in (0, 1]")
		}
		if st.LeverageCap < 0 {
			return errors.New("strategy leverage_cap cannot be negative")
		}
	}
	return nil
}

// ParseClock разбирает "HH:MM" в минуты от полуночи.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, errors.Wrapf(err, "bad clock %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}
