// Package config loads chkodf settings from defaults, an optional YAML file,
// CHKODF_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fmjrey/chkodf/httppool"
	"github.com/fmjrey/chkodf/wiki"
)

// Version is the application version; release builds set it with -ldflags.
var Version = "0.1.0"

// Homepage is advertised in the User-Agent.
const Homepage = "https://github.com/fmjrey/chkodf"

// EnvPrefix prefixes every environment variable read, e.g. CHKODF_LANG.
const EnvPrefix = "CHKODF"

// DefaultUserAgent identifies the tool; the encyclopedia rejects generic agents.
func DefaultUserAgent() string {
	return "chkodf/" + Version + " (+" + Homepage + ")"
}

// Config holds every setting of a run.
type Config struct {
	Lang            string        `mapstructure:"lang" yaml:"lang" validate:"omitempty,len=2,lowercase,alpha"`
	Concurrency     int           `mapstructure:"concurrency" yaml:"concurrency" validate:"min=1,max=64"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" validate:"gt=0"`
	RateLimit       float64       `mapstructure:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
	MaxConnsPerHost int           `mapstructure:"max_conns_per_host" yaml:"max_conns_per_host" validate:"min=1,max=256"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout" validate:"gt=0"`
	MaxRedirects    int           `mapstructure:"max_redirects" yaml:"max_redirects" validate:"min=1,max=50"`
	UserAgent       string        `mapstructure:"user_agent" yaml:"user_agent" validate:"required"`
	WikiSite        string        `mapstructure:"wiki_site" yaml:"wiki_site" validate:"required,fqdn"`
	WikiAPIEndpoint string        `mapstructure:"wiki_api_endpoint" yaml:"wiki_api_endpoint" validate:"required,endpoint"`
	RespectRobots   bool          `mapstructure:"respect_robots" yaml:"respect_robots"`
	Cookies         bool          `mapstructure:"cookies" yaml:"cookies"`
	Format          string        `mapstructure:"format" yaml:"format" validate:"oneof=text json csv yaml"`
	TUI             bool          `mapstructure:"tui" yaml:"tui"`
	Output          string        `mapstructure:"output" yaml:"output,omitempty"`
	Log             LogConfig     `mapstructure:"log" yaml:"log"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level" validate:"loglevel"`
	Format     string `mapstructure:"format" yaml:"format" validate:"oneof=console json"`
	File       string `mapstructure:"file" yaml:"file,omitempty"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb" validate:"min=1"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups" validate:"min=0"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Concurrency:     1,
		RequestTimeout:  10 * time.Second,
		MaxConnsPerHost: 4,
		IdleConnTimeout: 30 * time.Second,
		MaxRedirects:    10,
		UserAgent:       DefaultUserAgent(),
		WikiSite:        wiki.DefaultSite,
		WikiAPIEndpoint: wiki.DefaultEndpoint,
		Format:          "text",
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("lang", d.Lang)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("rate_limit", d.RateLimit)
	v.SetDefault("max_conns_per_host", d.MaxConnsPerHost)
	v.SetDefault("idle_conn_timeout", d.IdleConnTimeout)
	v.SetDefault("max_redirects", d.MaxRedirects)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("wiki_site", d.WikiSite)
	v.SetDefault("wiki_api_endpoint", d.WikiAPIEndpoint)
	v.SetDefault("respect_robots", d.RespectRobots)
	v.SetDefault("cookies", d.Cookies)
	v.SetDefault("format", d.Format)
	v.SetDefault("tui", d.TUI)
	v.SetDefault("output", d.Output)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
}

// Load reads the configuration. An empty path looks for $HOME/.chkodf.yaml
// and tolerates its absence; an explicit path must exist. Flags may be nil;
// a flag named "log-level" sets key "log.level", "request-timeout" sets
// "request_timeout", and so on.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(".chkodf")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key, ok := flagKey(f.Name)
			if !ok || bindErr != nil {
				return
			}
			if err := v.BindPFlag(key, f); err != nil {
				bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Lang = strings.ToLower(cfg.Lang)
	return &cfg, nil
}

// flagKey maps a flag name to its configuration key. Flags that are not
// settings, such as --config, have no key.
func flagKey(name string) (string, bool) {
	switch name {
	case "config", "help", "version":
		return "", false
	}
	if rest, ok := strings.CutPrefix(name, "log-"); ok {
		return "log." + strings.ReplaceAll(rest, "-", "_"), true
	}
	return strings.ReplaceAll(name, "-", "_"), true
}

// PoolConfig returns the connection pool settings.
func (c *Config) PoolConfig() httppool.Config {
	return httppool.Config{
		MaxConnsPerHost: c.MaxConnsPerHost,
		IdleConnTimeout: c.IdleConnTimeout,
		RequestTimeout:  c.RequestTimeout,
		RateLimit:       c.RateLimit,
		MaxRedirects:    c.MaxRedirects,
		UserAgent:       c.UserAgent,
	}
}

// WikiConfig returns the translator settings.
func (c *Config) WikiConfig() wiki.Config {
	return wiki.Config{Site: c.WikiSite, Endpoint: c.WikiAPIEndpoint}
}

// WriteYAML writes the configuration as a YAML config file.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
