package config

import (
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"code-scanner/internal/report"
	"code-scanner/internal/scanner"
)

// EnvPrefix prefixes every environment override, e.g. CODESCAN_SCANNER_API_KEY
const EnvPrefix = "codescan"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Session  SessionConfig  `mapstructure:"session"`
	Scanner  ScannerConfig  `mapstructure:"scanner"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SessionConfig struct {
	TTL         time.Duration `mapstructure:"ttl"`
	HistorySize int           `mapstructure:"history_size"`
}

type ScannerConfig struct {
	URL      string        `mapstructure:"url"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Envelope string        `mapstructure:"envelope"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.path", "data.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.history_size", 10)
	v.SetDefault("scanner.url", "https://api.groq.com/openai/v1/chat/completions")
	v.SetDefault("scanner.api_key", "")
	v.SetDefault("scanner.model", "llama-3.3-70b-versatile")
	v.SetDefault("scanner.envelope", "chat_completions")
	v.SetDefault("scanner.timeout", "60s")
}

// Load reads the optional config file then the environment.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "cannot read configuration file %s", file)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "cannot decode configuration")
	}
	if _, err := report.ParseEnvelope(cfg.Scanner.Envelope); err != nil {
		return nil, errors.WithStack(err)
	}
	return &cfg, nil
}

// Validate checks what is needed to talk to the model provider
func (c *Config) Validate() error {
	if c.Scanner.APIKey == "" {
		return errors.New("scanner.api_key is required")
	}
	if c.Scanner.URL == "" {
		return errors.New("scanner.url is required")
	}
	return nil
}

// ScannerConfig converts the provider settings for the scanner package
func (c ScannerConfig) ScannerConfig() scanner.Config {
	env, _ := report.ParseEnvelope(c.Envelope)
	return scanner.Config{
		URL:      c.URL,
		APIKey:   c.APIKey,
		Model:    c.Model,
		Envelope: env,
		Timeout:  c.Timeout,
	}
}

// Apply configures the standard logrus logger
func (c LogConfig) Apply() {
	switch c.Level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "warning":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}

	switch c.Format {
	case "discard":
		log.SetOutput(io.Discard)
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
