package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds settings for the blog API process.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StorageConfig holds database DSNs. The blog database (articles, users)
// and the parser's side database are kept separate.
type StorageConfig struct {
	BlogDSN   string `yaml:"blog_dsn"`
	ParserDSN string `yaml:"parser_dsn"`
}

// AuthConfig holds token-signing settings. TokenTTL is a time.Duration
// string such as "24h".
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	TokenTTL  string `yaml:"token_ttl"`
}

// ParseTokenTTL parses the configured token lifetime.
func (a AuthConfig) ParseTokenTTL() (time.Duration, error) {
	return time.ParseDuration(a.TokenTTL)
}

// ParserConfig holds settings for the scrape pipeline. FetchTimeout is a
// time.Duration string such as "10s".
type ParserConfig struct {
	SourceURL    string `yaml:"source_url"`
	SourceKind   string `yaml:"source_kind"` // "html" or "feed"
	RowSelector  string `yaml:"row_selector"`
	LinkSelector string `yaml:"link_selector"`
	Schedule     string `yaml:"schedule"`
	FetchTimeout string `yaml:"fetch_timeout"`
}

// ParseFetchTimeout parses the configured fetch timeout.
func (p ParserConfig) ParseFetchTimeout() (time.Duration, error) {
	return time.ParseDuration(p.FetchTimeout)
}

// BotConfig holds settings for the chat gateway process.
type BotConfig struct {
	Addr        string `yaml:"addr"`
	APIBaseURL  string `yaml:"api_base_url"`
	OutboundURL string `yaml:"outbound_url"`
}

// Config is the root configuration shared by all three processes.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Parser  ParserConfig  `yaml:"parser"`
	Bot     BotConfig     `yaml:"bot"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: "localhost:8080",
		},
		Storage: StorageConfig{
			BlogDSN:   "blog.db",
			ParserDSN: "parsed.db",
		},
		Auth: AuthConfig{
			JWTSecret: "",
			TokenTTL:  "24h",
		},
		Parser: ParserConfig{
			SourceURL:    "https://news.ycombinator.com/newest",
			SourceKind:   "html",
			RowSelector:  "tr.athing",
			LinkSelector: "span.titleline > a",
			Schedule:     "*/10 * * * *",
			FetchTimeout: "10s",
		},
		Bot: BotConfig{
			Addr:       "localhost:8081",
			APIBaseURL: "http://localhost:8080",
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (a missing file is not an error), then environment overrides. A .env
// file in the working directory is loaded first if present.
func Load(path string) (*Config, error) {
	// Best-effort; secrets usually live in .env during development.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.loadEnv()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) loadEnv() {
	setString(&c.Server.Addr, "BLOGD_LISTEN_ADDR")
	setString(&c.Storage.BlogDSN, "BLOGD_DB_DSN")
	setString(&c.Storage.ParserDSN, "BLOGD_PARSER_DSN")
	setString(&c.Auth.JWTSecret, "BLOGD_JWT_SECRET")
	setString(&c.Parser.SourceURL, "BLOGD_SOURCE_URL")
	setString(&c.Parser.SourceKind, "BLOGD_SOURCE_KIND")
	setString(&c.Parser.Schedule, "BLOGD_SCHEDULE")
	setString(&c.Bot.Addr, "BLOGD_BOT_ADDR")
	setString(&c.Bot.APIBaseURL, "BLOGD_BOT_API_URL")
	setString(&c.Bot.OutboundURL, "BLOGD_BOT_OUTBOUND_URL")
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}
