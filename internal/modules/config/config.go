package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSNENV    = "DATABASE_DSN"
)

// Config — вся конфигурация процесса. Файл configs/<CONFIG_FILE>.yaml
// читается через viper, секреты перекрываются из ENV.
type Config struct {
	Telegram struct {
		Token  string `mapstructure:"token"`
		ChatID int64  `mapstructure:"chat_id"`
	} `mapstructure:"telegram"`

	// DSN постгреса для журнала алертов; пусто — журнал выключен
	DB string `mapstructure:"db_dsn"`

	Health struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"health"`

	Tracing struct {
		Enabled bool   `mapstructure:"enabled"`
		Host    string `mapstructure:"host"`
		Port    int    `mapstructure:"port"`
	} `mapstructure:"tracing"`

	Exchange struct {
		RestURL     string        `mapstructure:"rest_url"`
		WSURL       string        `mapstructure:"ws_url"`
		Timeout     time.Duration `mapstructure:"timeout"`
		MaxRetries  int           `mapstructure:"max_retries"`
		RetryDelay  time.Duration `mapstructure:"retry_delay"`
		CandleLimit int           `mapstructure:"candle_limit"`
		StreamTF    string        `mapstructure:"stream_timeframe"`
	} `mapstructure:"exchange"`

	// Символ, за которым следим (формат OKX: BTC-USDT)
	Symbol string `mapstructure:"symbol"`

	// Условный капитал, от которого считается сайзинг в алертах
	Capital float64 `mapstructure:"capital"`

	// Общий кулдаун между алертами одной стратегии
	AlertCooldown time.Duration `mapstructure:"alert_cooldown"`

	Risk struct {
		MaxRiskPerTrade    float64 `mapstructure:"max_risk_per_trade"`
		MaxConcurrentAlert int     `mapstructure:"max_concurrent_alerts"`
		DailyLossLimit     float64 `mapstructure:"daily_loss_limit"`
	} `mapstructure:"risk"`

	// Файл с параметрами стратегий (yaml, см. strategies.go)
	StrategiesFile string `mapstructure:"strategies_file"`

	Strategies Strategies `mapstructure:"-"`
}

func NewConfig() (*Config, error) {
	v := viper.New()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local"
	}
	v.SetConfigName(configFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// конфиг-файл опционален: дефолты + ENV достаточно для локального запуска
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if token := os.Getenv(tokenTelegramENV); token != "" {
		config.Telegram.Token = token
	}
	if dsn := os.Getenv(databaseDSNENV); dsn != "" {
		config.DB = dsn
	}

	strategies, err := LoadStrategies(config.StrategiesFile)
	if err != nil {
		return nil, errors.Wrap(err, "load strategies")
	}
	config.Strategies = *strategies

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("health.addr", ":8080")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.host", "localhost")
	v.SetDefault("tracing.port", 6831)

	v.SetDefault("exchange.rest_url", "https://www.okx.com")
	v.SetDefault("exchange.ws_url", "wss://ws.okx.com:8443/ws/v5/business")
	v.SetDefault("exchange.timeout", "30s")
	v.SetDefault("exchange.max_retries", 3)
	v.SetDefault("exchange.retry_delay", "5s")
	v.SetDefault("exchange.candle_limit", 200)
	v.SetDefault("exchange.stream_timeframe", "1m")

	v.SetDefault("symbol", "BTC-USDT")
	v.SetDefault("capital", 10000.0)
	v.SetDefault("alert_cooldown", "30m")

	v.SetDefault("risk.max_risk_per_trade", 0.02)
	v.SetDefault("risk.max_concurrent_alerts", 2)
	v.SetDefault("risk.daily_loss_limit", 0.05)

	v.SetDefault("strategies_file", "configs/strategies.yaml")
}

// Validate — ошибки конфигурации фатальны на старте: движок не должен
// дойти до рантайма с недокрученной стратегией.
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return errors.New("symbol is required")
	}
	if c.Capital <= 0 {
		return errors.New("capital must be positive")
	}
	if c.AlertCooldown <= 0 {
		return errors.New("alert_cooldown must be positive")
	}
	if c.Risk.MaxRiskPerTrade <= 0 || c.Risk.MaxRiskPerTrade > 0.5 {
		return errors.Errorf("risk.max_risk_per_trade out of range: %f", c.Risk.MaxRiskPerTrade)
	}
	if c.Risk.MaxConcurrentAlert <= 0 {
		return errors.New("risk.max_concurrent_alerts must be positive")
	}
	if c.Exchange.MaxRetries <= 0 {
		return errors.New("exchange.max_retries must be positive")
	}
	if c.Exchange.Timeout <= 0 {
		return errors.New("exchange.timeout must be positive")
	}
	return c.Strategies.Validate()
}
