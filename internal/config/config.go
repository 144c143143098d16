package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Sources  SourcesConfig  `yaml:"sources"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Comments CommentsConfig `yaml:"comments"`
	Capture  CaptureConfig  `yaml:"capture"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Server   ServerConfig   `yaml:"server"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig configures the collection schedule. CollectInterval is a Go
// duration ("15m") or a cron expression ("0 */2 * * *").
type ScheduleConfig struct {
	CollectInterval string `yaml:"collect_interval"`
	Timezone        string `yaml:"timezone"`
}

// CronSpec returns the schedule in robfig/cron syntax.
func (s ScheduleConfig) CronSpec() string {
	if s.CollectInterval == "" {
		return "@every 15m"
	}
	if d, err := time.ParseDuration(s.CollectInterval); err == nil {
		return "@every " + d.String()
	}
	return s.CollectInterval
}

// Location returns the configured timezone, UTC when unset or unknown.
func (s ScheduleConfig) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SourcesConfig holds configuration for all collectors.
type SourcesConfig struct {
	Reddit  RedditConfig  `yaml:"reddit"`
	YouTube YouTubeConfig `yaml:"youtube"`
	RSS     RSSConfig     `yaml:"rss"`
	Pages   PagesConfig   `yaml:"pages"`
	Filter  FilterConfig  `yaml:"filter"`
}

// RedditConfig for Reddit collector.
type RedditConfig struct {
	Enabled      bool     `yaml:"enabled"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Subreddits   []string `yaml:"subreddits"`
}

// YouTubeConfig for YouTube collector.
type YouTubeConfig struct {
	Enabled bool     `yaml:"enabled"`
	APIKey  string   `yaml:"api_key"`
	Queries []string `yaml:"queries"`
}

// RSSConfig for RSS feed collector.
type RSSConfig struct {
	Enabled bool       `yaml:"enabled"`
	Feeds   []FeedItem `yaml:"feeds"`
}

// FeedItem is a single RSS feed entry.
type FeedItem struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// PagesConfig lists recipe pages captured on every pass.
type PagesConfig struct {
	Enabled bool     `yaml:"enabled"`
	URLs    []string `yaml:"urls"`
}

// FilterConfig configures food keyword filtering of general feeds.
type FilterConfig struct {
	ExtraKeywords   []string `yaml:"extra_keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
}

// ScoringConfig overrides signal weights by name.
type ScoringConfig struct {
	Weights map[string]float64 `yaml:"weights"`
}

// CommentsConfig tunes comment ranking. An explicit min_score of 0 keeps
// every non-negative comment.
type CommentsConfig struct {
	MinLength int     `yaml:"min_length"`
	MinScore  float64 `yaml:"min_score"`
	Limit     int     `yaml:"limit"`
}

// CaptureConfig configures recipe detection. The threshold is used as
// given, zero included.
type CaptureConfig struct {
	DetectThreshold float64 `yaml:"detect_threshold"`
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	Slack    SlackConfig    `yaml:"slack"`
	Discord  DiscordConfig  `yaml:"discord"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// TelegramConfig for Telegram bot alerts.
type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./reciperadar.db"},
		Schedule: ScheduleConfig{CollectInterval: "15m"},
		Sources: SourcesConfig{
			Reddit: RedditConfig{
				Enabled:    false,
				Subreddits: []string{"recipes", "Cooking", "EatCheapAndHealthy", "Baking", "veganrecipes"},
			},
			YouTube: YouTubeConfig{
				Enabled: false,
				Queries: []string{"easy recipe", "dinner recipe", "baking recipe"},
			},
			RSS: RSSConfig{
				Enabled: true,
				Feeds: []FeedItem{
					{Name: "Serious Eats", URL: "https://www.seriouseats.com/feeds/all"},
					{Name: "Budget Bytes", URL: "https://www.budgetbytes.com/feed/"},
					{Name: "Smitten Kitchen", URL: "https://smittenkitchen.com/feed/"},
					{Name: "Minimalist Baker", URL: "https://minimalistbaker.com/feed/"},
				},
			},
		},
		Comments: CommentsConfig{MinLength: 20, MinScore: 300, Limit: 5},
		Capture:  CaptureConfig{DetectThreshold: 500},
		Alerts:   AlertsConfig{},
		Server:   ServerConfig{Port: 8080},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("RECIPERADAR_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("REDDIT_CLIENT_ID"); v != "" {
		cfg.Sources.Reddit.ClientID = v
	}
	if v := os.Getenv("REDDIT_CLIENT_SECRET"); v != "" {
		cfg.Sources.Reddit.ClientSecret = v
	}
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		cfg.Sources.YouTube.APIKey = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Alerts.Telegram.BotToken = v
		cfg.Alerts.Telegram.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Alerts.Telegram.ChatID = id
	}
	return nil
}
