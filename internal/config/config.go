package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "UTC"
	configPathEnv    = "PUBMED_SCANNER_CONFIG"
	geminiAPIKeyEnv  = "GEMINI_API_KEY"
	geminiModelEnv   = "GEMINI_MODEL"
	gmailAddressEnv  = "GMAIL_ADDRESS"
	gmailPasswordEnv = "GMAIL_APP_PASSWORD"
	toEmailEnv       = "TO_EMAIL"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
	ledgerPathEnv    = "LEDGER_PATH"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	PubMed        PubMedConfig       `yaml:"pubmed"`
	Gemini        GeminiConfig       `yaml:"gemini"`
	Notifications NotificationConfig `yaml:"notifications"`
	Ledger        LedgerConfig       `yaml:"ledger"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
}

// LoggingConfig controls the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// PubMedConfig describes the search scope against the eutils endpoints.
type PubMedConfig struct {
	BaseURL    string   `yaml:"baseUrl"`
	Journals   []string `yaml:"journals"`
	Topic      string   `yaml:"topic"`
	DaysBack   int      `yaml:"daysBack"`
	MaxResults int      `yaml:"maxResults"`
}

// GeminiConfig defines how to contact the Gemini API.
type GeminiConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
	Prompt   string `yaml:"prompt"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Mail     MailConfig     `yaml:"mail"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// MailConfig wires the SMTP digest sender.
type MailConfig struct {
	SMTPHost string `yaml:"smtpHost"`
	SMTPPort int    `yaml:"smtpPort"`
	From     string `yaml:"from"`
	Password string `yaml:"password"`
	To       string `yaml:"to"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// LedgerConfig locates the novelty ledger store.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// SchedulerConfig defines when the pipeline should run. When Enabled is
// false the process performs a single pass and exits, leaving scheduling
// to cron or a similar external driver.
type SchedulerConfig struct {
	Enabled        bool           `yaml:"enabled"`
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.PubMed.Journals) == 0 {
		cfg.PubMed.Journals = defaultConfig().PubMed.Journals
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}

	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}

	if v := os.Getenv(gmailAddressEnv); v != "" {
		c.Notifications.Mail.From = v
	}

	if v := os.Getenv(gmailPasswordEnv); v != "" {
		c.Notifications.Mail.Password = v
	}

	if v := os.Getenv(toEmailEnv); v != "" {
		c.Notifications.Mail.To = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(ledgerPathEnv); v != "" {
		c.Ledger.Path = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.PubMed.BaseURL != "" {
		base.PubMed.BaseURL = override.PubMed.BaseURL
	}
	if len(override.PubMed.Journals) > 0 {
		base.PubMed.Journals = override.PubMed.Journals
	}
	if override.PubMed.Topic != "" {
		base.PubMed.Topic = override.PubMed.Topic
	}
	if override.PubMed.DaysBack > 0 {
		base.PubMed.DaysBack = override.PubMed.DaysBack
	}
	if override.PubMed.MaxResults > 0 {
		base.PubMed.MaxResults = override.PubMed.MaxResults
	}

	if override.Gemini.Endpoint != "" {
		base.Gemini.Endpoint = override.Gemini.Endpoint
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.Prompt != "" {
		base.Gemini.Prompt = override.Gemini.Prompt
	}

	if override.Notifications.Mail.SMTPHost != "" {
		base.Notifications.Mail.SMTPHost = override.Notifications.Mail.SMTPHost
	}
	if override.Notifications.Mail.SMTPPort > 0 {
		base.Notifications.Mail.SMTPPort = override.Notifications.Mail.SMTPPort
	}
	if override.Notifications.Mail.From != "" {
		base.Notifications.Mail.From = override.Notifications.Mail.From
	}
	if override.Notifications.Mail.Password != "" {
		base.Notifications.Mail.Password = override.Notifications.Mail.Password
	}
	if override.Notifications.Mail.To != "" {
		base.Notifications.Mail.To = override.Notifications.Mail.To
	}
	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Ledger.Path != "" {
		base.Ledger.Path = override.Ledger.Path
	}

	if override.Scheduler.Enabled {
		base.Scheduler.Enabled = true
	}
	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		PubMed: PubMedConfig{
			Topic:      "Radiation Oncology",
			DaysBack:   1,
			MaxResults: 100,
			Journals: []string{
				"International Journal of Radiation Oncology Biology Physics",
				"Radiotherapy and Oncology",
				"Journal of Radiation Research",
				"Radiation Oncology",
				"Clinical and Translational Radiation Oncology",
			},
		},
		Gemini: GeminiConfig{
			Endpoint: "https://generativelanguage.googleapis.com/v1beta",
			Model:    "gemini-1.5-flash",
		},
		Notifications: NotificationConfig{
			Mail: MailConfig{
				SMTPHost: "smtp.gmail.com",
				SMTPPort: 587,
			},
		},
		Ledger:    LedgerConfig{Path: "notified_articles.db"},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone, location: tz},
	}
}
