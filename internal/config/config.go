package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "COUNCIL_SCRAPER_CONFIG"
	databaseDriverEnv = "DATABASE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	logLevelEnv       = "LOG_LEVEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Logging       LoggingConfig      `yaml:"logging"`
	Fetcher       FetcherConfig      `yaml:"fetcher"`
	Scraping      ScrapingConfig     `yaml:"scraping"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	Councils      []CouncilConfig    `yaml:"councils"`
}

// DatabaseConfig selects the store driver ("sqlite" or "postgres") and its DSN.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LoggingConfig sets the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// FetcherConfig tunes outbound page requests.
type FetcherConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"userAgent"`
}

// ScrapingConfig bounds per-object parallelism of item scrapers.
type ScrapingConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// SchedulerConfig defines how often all scrapers run.
type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	// Endpoint overrides the bot API base url.
	Endpoint string `yaml:"endpoint"`
}

// CouncilConfig is seed data for a council and its scrapers.
type CouncilConfig struct {
	Name         string          `yaml:"name"`
	URL          string          `yaml:"url"`
	WikipediaURL string          `yaml:"wikipediaUrl"`
	Scrapers     []ScraperConfig `yaml:"scrapers"`
}

// ScraperConfig is seed data for one scraper and its parser recipe.
type ScraperConfig struct {
	Kind         string       `yaml:"kind"`
	URL          string       `yaml:"url"`
	ResultModel  string       `yaml:"resultModel"`
	RelatedModel string       `yaml:"relatedModel"`
	Parser       ParserConfig `yaml:"parser"`
}

// ParserConfig mirrors domain.ParserConfig in the config file.
type ParserConfig struct {
	Kind         string            `yaml:"kind"`
	ItemSelector string            `yaml:"itemSelector"`
	Fields       []FieldConfig     `yaml:"fields"`
	Options      map[string]string `yaml:"options"`
}

// FieldConfig mirrors domain.FieldRule in the config file.
type FieldConfig struct {
	Name       string `yaml:"name"`
	Selector   string `yaml:"selector"`
	Attr       string `yaml:"attr"`
	Pattern    string `yaml:"pattern"`
	TrimPrefix string `yaml:"trimPrefix"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if fileCfg, err := Parse(raw); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Fetcher.Timeout > 0 {
		base.Fetcher.Timeout = override.Fetcher.Timeout
	}
	if override.Fetcher.UserAgent != "" {
		base.Fetcher.UserAgent = override.Fetcher.UserAgent
	}

	if override.Scraping.Concurrency > 0 {
		base.Scraping.Concurrency = override.Scraping.Concurrency
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.Endpoint != "" {
		base.Notifications.Telegram.Endpoint = override.Notifications.Telegram.Endpoint
	}

	if len(override.Councils) > 0 {
		base.Councils = override.Councils
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database:  DatabaseConfig{Driver: "sqlite", DSN: "councilscraper.db"},
		Logging:   LoggingConfig{Level: "info"},
		Fetcher:   FetcherConfig{Timeout: 20 * time.Second, UserAgent: "CouncilScraper/1.0"},
		Scraping:  ScrapingConfig{Concurrency: 4},
		Scheduler: SchedulerConfig{Interval: 24 * time.Hour},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{Endpoint: "https://api.telegram.org"},
		},
		Councils: []CouncilConfig{
			{
				Name: "London Assembly",
				URL:  "http://www.london.gov.uk/assembly/",
				Scrapers: []ScraperConfig{
					{
						Kind:        "scraper",
						URL:         "lams_facts_cont.jsp",
						ResultModel: "Member",
						Parser:      ParserConfig{Kind: "gla_members"},
					},
					{
						Kind:        "info",
						ResultModel: "Member",
						Parser:      ParserConfig{Kind: "gla_member"},
					},
					{
						Kind:        "scraper",
						URL:         "committees.jsp",
						ResultModel: "Committee",
						Parser:      ParserConfig{Kind: "gla_committees"},
					},
					{
						Kind:        "info",
						ResultModel: "Committee",
						Parser:      ParserConfig{Kind: "gla_committee"},
					},
				},
			},
		},
	}
}
