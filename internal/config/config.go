package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"vtex-sync/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Sankhya   SankhyaConfig   `mapstructure:"sankhya"`
	VTEX      VTEXConfig      `mapstructure:"vtex"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// SankhyaConfig covers ERP gateway connectivity and credentials.
type SankhyaConfig struct {
	LoginURL       string        `mapstructure:"login_url"`
	BaseMGE        string        `mapstructure:"base_mge"`
	BaseMGECom     string        `mapstructure:"base_mgecom"`
	Token          string        `mapstructure:"token"`
	AppKey         string        `mapstructure:"appkey"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
}

// VTEXConfig captures storefront connectivity.
type VTEXConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	AppKey         string        `mapstructure:"appkey"`
	AppToken       string        `mapstructure:"apptoken"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PageSize       int           `mapstructure:"page_size"`
}

// MetadataPair designates a storefront product whose descriptive
// specifications are sourced from a backoffice product code.
type MetadataPair struct {
	StorefrontID int    `mapstructure:"storefront_id"`
	ProductCode  string `mapstructure:"product_code"`
}

// ReconcileConfig governs the reconciliation loops.
type ReconcileConfig struct {
	WarehouseName string         `mapstructure:"warehouse_name"`
	WarehouseID   string         `mapstructure:"warehouse_id"`
	CompanyCode   int            `mapstructure:"company_code"`
	LocationCode  int            `mapstructure:"location_code"`
	PromoWindow   time.Duration  `mapstructure:"promo_window"`
	MetadataPairs []MetadataPair `mapstructure:"metadata_pairs"`
}

// SchedulerConfig governs daemon-mode cadence. A zero interval means a
// single pass.
type SchedulerConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	AlignToStart bool          `mapstructure:"align_to_start"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// AlertingConfig defines alert routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the Telegram alert channel.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VTEXSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "vtexsync")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.path", "logs/vtexsync.log")
	v.SetDefault("logging.file.max_size_mb", 5)
	v.SetDefault("logging.file.max_backups", 7)
	v.SetDefault("logging.postgres.project", "vtexsync")

	v.SetDefault("sankhya.login_url", "https://api.sankhya.com.br/login")
	v.SetDefault("sankhya.base_mge", "https://api.sankhya.com.br/gateway/v1/mge/service.sbr")
	v.SetDefault("sankhya.base_mgecom", "https://api.sankhya.com.br/gateway/v1/mgecom/service.sbr")
	v.SetDefault("sankhya.request_timeout", "60s")
	v.SetDefault("sankhya.token_ttl", "30m")

	v.SetDefault("vtex.request_timeout", "30s")
	v.SetDefault("vtex.page_size", 250)

	v.SetDefault("reconcile.warehouse_name", "Estoque")
	v.SetDefault("reconcile.warehouse_id", "1f82610")
	v.SetDefault("reconcile.company_code", 7)
	v.SetDefault("reconcile.location_code", 188)
	v.SetDefault("reconcile.promo_window", "24h")

	v.SetDefault("scheduler.interval", "0s")
	v.SetDefault("scheduler.align_to_start", true)
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.VTEX.PageSize <= 0 {
		return fmt.Errorf("vtex.page_size must be greater than zero")
	}
	if c.Sankhya.TokenTTL <= 0 {
		return fmt.Errorf("sankhya.token_ttl must be greater than zero")
	}
	if c.Reconcile.PromoWindow <= 0 {
		return fmt.Errorf("reconcile.promo_window must be greater than zero")
	}
	if c.Reconcile.WarehouseName == "" {
		return fmt.Errorf("reconcile.warehouse_name must be configured")
	}
	if c.Reconcile.WarehouseID == "" {
		return fmt.Errorf("reconcile.warehouse_id must be configured")
	}
	if c.Alerting.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token must be configured")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id must be configured")
		}
	}
	if c.Logging.Postgres.Enabled && c.Logging.Postgres.DSN == "" {
		return fmt.Errorf("logging.postgres.dsn must be configured when the postgres sink is enabled")
	}
	return nil
}
