// Package config handles configuration loading for GoldPulse.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Broker    BrokerConfig    `mapstructure:"broker"    yaml:"broker"`
	Feeds     FeedsConfig     `mapstructure:"feeds"     yaml:"feeds"`
	Purity    PurityConfig    `mapstructure:"purity"    yaml:"purity"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
}

// BrokerConfig holds Angel One SmartAPI connection settings and credentials.
// All four credential values are required before the live-price pipeline can
// start; Validate reports which ones are missing.
type BrokerConfig struct {
	APIKey         string `mapstructure:"api_key"         yaml:"api_key"`
	ClientCode     string `mapstructure:"client_code"     yaml:"client_code"`
	MPIN           string `mapstructure:"mpin"            yaml:"mpin"`
	TOTPSecret     string `mapstructure:"totp_secret"     yaml:"totp_secret"`
	BaseURL        string `mapstructure:"base_url"        yaml:"base_url"`
	InstrumentsURL string `mapstructure:"instruments_url" yaml:"instruments_url"`
	TimeoutSec     int    `mapstructure:"timeout_sec"     yaml:"timeout_sec"`
	LTPRatePerSec  int    `mapstructure:"ltp_rate_per_sec" yaml:"ltp_rate_per_sec"`
}

// FeedsConfig holds the vendor broadcast feed settings.
type FeedsConfig struct {
	TimeoutSec  int          `mapstructure:"timeout_sec"   yaml:"timeout_sec"`
	CacheTTLSec int          `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"`
	Vendors     []FeedConfig `mapstructure:"vendors"       yaml:"vendors"`
}

// FeedConfig describes one vendor broadcast feed and which parsing strategy
// applies to it. Strategies are selected here, by configuration, rather than
// hardcoded per vendor.
type FeedConfig struct {
	Name    string   `mapstructure:"name"    yaml:"name"`    // unique key, e.g. "arihant"
	Source  string   `mapstructure:"source"  yaml:"source"`  // display name, e.g. "Arihant"
	URL     string   `mapstructure:"url"     yaml:"url"`
	Parser  string   `mapstructure:"parser"  yaml:"parser"`  // "dealer", "status", "costing", "composite"
	Markers []string `mapstructure:"markers" yaml:"markers"` // candidate-line marker substrings
	Exact   bool     `mapstructure:"exact"   yaml:"exact"`   // markers match the full product label
	Product string   `mapstructure:"product" yaml:"product"` // fixed product label for costing/composite feeds
	Primary bool     `mapstructure:"primary" yaml:"primary"` // failure of a primary feed fails the aggregation
}

// PurityConfig holds the gold purity ratios used to derive retail prices.
type PurityConfig struct {
	Gold22Ratio float64 `mapstructure:"gold_22_ratio" yaml:"gold_22_ratio"`
	Gold18Ratio float64 `mapstructure:"gold_18_ratio" yaml:"gold_18_ratio"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// SchedulerConfig holds the cron specs for the periodic jobs.
type SchedulerConfig struct {
	PricePoll      string `mapstructure:"price_poll"      yaml:"price_poll"`
	CatalogRefresh string `mapstructure:"catalog_refresh" yaml:"catalog_refresh"`
	TokenSelect    string `mapstructure:"token_select"    yaml:"token_select"`
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.goldpulse/config.yaml (home directory)
//  3. /etc/goldpulse/config.yaml (system)
//
// Environment variables override config file values.
// Format: GOLDPULSE_<SECTION>_<KEY>, e.g., GOLDPULSE_BROKER_API_KEY
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".goldpulse"))
	v.AddConfigPath("/etc/goldpulse")

	v.SetEnvPrefix("GOLDPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if len(cfg.Feeds.Vendors) == 0 {
		cfg.Feeds.Vendors = DefaultVendors()
	}
	overrideFromEnv(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("GOLDPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if len(cfg.Feeds.Vendors) == 0 {
		cfg.Feeds.Vendors = DefaultVendors()
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// Validate checks that every broker credential required for the live-price
// pipeline is present. Absence of any of them is a fatal startup condition
// for serving.
func (c *Config) Validate() error {
	var missing []string
	if c.Broker.APIKey == "" {
		missing = append(missing, "broker.api_key")
	}
	if c.Broker.ClientCode == "" {
		missing = append(missing, "broker.client_code")
	}
	if c.Broker.MPIN == "" {
		missing = append(missing, "broker.mpin")
	}
	if c.Broker.TOTPSecret == "" {
		missing = append(missing, "broker.totp_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required broker credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Broker defaults
	v.SetDefault("broker.base_url", "https://apiconnect.angelone.in")
	v.SetDefault("broker.instruments_url", "https://margincalculator.angelbroking.com/OpenAPI_File/files/OpenAPIScripMaster.json")
	v.SetDefault("broker.timeout_sec", 30)
	v.SetDefault("broker.ltp_rate_per_sec", 3)

	// Feed defaults
	v.SetDefault("feeds.timeout_sec", 15)
	v.SetDefault("feeds.cache_ttl_sec", 2)

	// Purity ratio defaults
	v.SetDefault("purity.gold_22_ratio", 0.89)
	v.SetDefault("purity.gold_18_ratio", 0.76)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Scheduler defaults (catalog refresh and token select run daily,
	// before the MCX session opens)
	v.SetDefault("scheduler.price_poll", "@every 3s")
	v.SetDefault("scheduler.catalog_refresh", "0 2 * * *")
	v.SetDefault("scheduler.token_select", "0 3 * * *")
}

// DefaultVendors returns the built-in vendor feed set. A vendors list in the
// config file replaces this wholesale.
func DefaultVendors() []FeedConfig {
	return []FeedConfig{
		{
			Name:    "arihant",
			Source:  "Arihant",
			URL:     "https://bcast.arihantspot.com:7768/VOTSBroadcastStreaming/Services/xml/GetLiveRateByTemplateID/arihant",
			Parser:  "dealer",
			Markers: []string{"GOLD 999"},
			Primary: true,
		},
		{
			Name:    "jksons",
			Source:  "JK Sons",
			URL:     "http://bcast.jksons.in:7767/VOTSBroadcastStreaming/Services/xml/GetLiveRateByTemplateID/jksons",
			Parser:  "dealer",
			Markers: []string{"GLD 999 IMP AMD", "GLD 999 IMP RJT", "SLVCHORSA", "SLVPETI999"},
			Exact:   true,
			Primary: true,
		},
		{
			Name:    "aarav",
			Source:  "Aarav",
			URL:     "https://bcast.aaravbullion.in/VOTSBroadcastStreaming/Services/xml/GetLiveRateByTemplateID/aarav",
			Parser:  "dealer",
			Markers: []string{"GOLD 999"},
			Primary: true,
		},
		{
			Name:    "kaka",
			Source:  "Kaka",
			URL:     "https://bcast.kakagold.in:7768/VOTSBroadcastStreaming/Services/xml/GetLiveRateByTemplateID/kaka",
			Parser:  "dealer",
			Markers: []string{"GOLD 999 IMP WITH GST"},
			Primary: true,
		},
		{
			Name:    "karuna",
			Source:  "Karuna",
			URL:     "https://bcast.arhambullion.in:7768/VOTSBroadcastStreaming/Services/xml/GetLiveRateByTemplateID/arham",
			Parser:  "status",
			Markers: []string{"GOLD 999", "SILVER PETI"},
			Primary: true,
		},
		{
			Name:    "aarav_silver",
			Source:  "Aarav",
			URL:     "https://bcast.aaravbullion.in/VOTSBroadcastStreaming/Services/xml/GetLiveRateByTemplateID/aaravsilver",
			Parser:  "costing",
			Markers: []string{"SILVER  (AHM) PETI 30Kg"},
			Product: "SILVER (PREMIUM)",
		},
		{
			Name:    "arihant_silver",
			Source:  "Arihant",
			URL:     "https://bcast.arihantspot.com:7768/VOTSBroadcastStreaming/Services/xml/GetLiveRateByTemplateID/arihantsilver",
			Parser:  "costing",
			Markers: []string{"SILVER (PREMIUM)"},
			Product: "SILVER (PREMIUM)",
		},
		{
			Name:    "mantra_gold",
			Source:  "Mantra",
			URL:     "http://bcast.mantragold.net:7767/VOTSBroadcastStreaming/Services/xml/GetLiveRateByTemplateID/mantragold",
			Parser:  "composite",
			Markers: []string{"GOLD 999 WITH GST"},
			Product: "GOLD 999",
		},
		{
			Name:    "arihant_platinum",
			Source:  "Arihant",
			URL:     "https://bcast.arihantspot.com:7768/VOTSBroadcastStreaming/Services/xml/GetLiveRateByTemplateID/arihantplatinum",
			Parser:  "dealer",
			Markers: []string{"PLATINUM"},
		},
		{
			Name:    "arihant_palladium",
			Source:  "Arihant",
			URL:     "https://bcast.arihantspot.com:7768/VOTSBroadcastStreaming/Services/xml/GetLiveRateByTemplateID/arihantpalladium",
			Parser:  "dealer",
			Markers: []string{"PALLADIUM"},
		},
	}
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("GOLDPULSE_BROKER_API_KEY"); key != "" {
		cfg.Broker.APIKey = key
	}
	if key := os.Getenv("GOLDPULSE_BROKER_CLIENT_CODE"); key != "" {
		cfg.Broker.ClientCode = key
	}
	if key := os.Getenv("GOLDPULSE_BROKER_MPIN"); key != "" {
		cfg.Broker.MPIN = key
	}
	if key := os.Getenv("GOLDPULSE_BROKER_TOTP_SECRET"); key != "" {
		cfg.Broker.TOTPSecret = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
