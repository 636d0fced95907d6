package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gokigennote/gokigen/internal/client/ai"
	"github.com/gokigennote/gokigen/internal/client/entitlement"
	"github.com/gokigennote/gokigen/internal/client/quota"
	"github.com/gokigennote/gokigen/internal/client/syncengine"
	"github.com/gokigennote/gokigen/internal/client/textgen"
	"github.com/gokigennote/gokigen/internal/flagx"
	"github.com/gookit/validate"
	"github.com/spf13/viper"
)

const envPrefix = "GOKIGEN"

const (
	BackendSQLite = "sqlite"
	BackendDiskv  = "diskv"
)

// Config holds runtime settings for the journal client.
type Config struct {
	ServerAddr          string        `mapstructure:"server_addr" validate:"required"`
	OnlineCheckInterval time.Duration `mapstructure:"online_check_interval" validate:"required|min:1"`
	DataDir             string        `mapstructure:"data_dir" validate:"required"`
	KVBackend           string        `mapstructure:"kv_backend" validate:"required|in:sqlite,diskv"`

	LogFormat string `mapstructure:"log_format" validate:"required|in:text,json,zerolog"`
	LogLevel  string `mapstructure:"log_level" validate:"required|in:debug,info,warn,error"`

	GeminiAPIKey   string `mapstructure:"gemini_api_key"`
	GeminiModel    string `mapstructure:"gemini_model" validate:"required"`
	GeminiEndpoint string `mapstructure:"gemini_endpoint" validate:"required|fullUrl"`

	Timezone            string        `mapstructure:"timezone" validate:"required"`
	FreePerDay          int           `mapstructure:"free_per_day" validate:"required|min:1"`
	LifetimePerMonth    int           `mapstructure:"lifetime_per_month" validate:"required|min:1"`
	NetworkBudgetPerDay int           `mapstructure:"network_budget_per_day" validate:"required|min:1"`
	AITimeout           time.Duration `mapstructure:"ai_timeout" validate:"required|min:1"`
	AuthTimeout         time.Duration `mapstructure:"auth_timeout" validate:"required|min:1"`
	PageSize            int           `mapstructure:"page_size" validate:"required|min:1|max:500"`
	OwnedProducts       []string      `mapstructure:"owned_products"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	dataDir := ".gokigen"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".gokigen")
	}
	return Config{
		ServerAddr:          "127.0.0.1:50051",
		OnlineCheckInterval: 3 * time.Second,
		DataDir:             dataDir,
		KVBackend:           BackendSQLite,
		LogFormat:           "text",
		LogLevel:            "warn",
		GeminiModel:         textgen.DefaultModel,
		GeminiEndpoint:      textgen.DefaultEndpoint,
		Timezone:            "Asia/Tokyo",
		FreePerDay:          quota.DefaultFreePerDay,
		LifetimePerMonth:    quota.DefaultLifetimePerMonth,
		NetworkBudgetPerDay: quota.DefaultDailyNetworkBudget,
		AITimeout:           ai.DefaultTimeout,
		AuthTimeout:         20 * time.Second,
		PageSize:            syncengine.DefaultPageSize,
	}
}

// LoadConfig applies defaults, then the config file named by -c/-config,
// then the environment and finally command-line flags.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:], flagx.ConfigFileFlag())
}

func load(args []string, file string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	if err := parseFlags(&cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server_addr", d.ServerAddr)
	v.SetDefault("online_check_interval", d.OnlineCheckInterval)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("kv_backend", d.KVBackend)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("gemini_api_key", d.GeminiAPIKey)
	v.SetDefault("gemini_model", d.GeminiModel)
	v.SetDefault("gemini_endpoint", d.GeminiEndpoint)
	v.SetDefault("timezone", d.Timezone)
	v.SetDefault("free_per_day", d.FreePerDay)
	v.SetDefault("lifetime_per_month", d.LifetimePerMonth)
	v.SetDefault("network_budget_per_day", d.NetworkBudgetPerDay)
	v.SetDefault("ai_timeout", d.AITimeout)
	v.SetDefault("auth_timeout", d.AuthTimeout)
	v.SetDefault("page_size", d.PageSize)
	v.SetDefault("owned_products", d.OwnedProducts)
}

// Validate checks field rules and that the timezone exists.
func (c *Config) Validate() error {
	v := validate.Struct(c)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %w", v.Errors)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid config: timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location resolves Timezone; Validate guarantees it exists.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Limits() quota.Limits {
	return quota.Limits{FreePerDay: c.FreePerDay, LifetimePerMonth: c.LifetimePerMonth}
}

// Entitlements treats every configured product as an active purchase.
func (c *Config) Entitlements() entitlement.StaticProvider {
	items := make([]entitlement.Ownership, 0, len(c.OwnedProducts))
	for _, id := range c.OwnedProducts {
		items = append(items, entitlement.Ownership{ProductID: id})
	}
	return entitlement.StaticProvider{Items: items}
}
