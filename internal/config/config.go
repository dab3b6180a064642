package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "UTC"
	configPathEnv    = "HERALD_CONFIG"
	databaseDSNEnv   = "DATABASE_DSN"
	llmAPIKeyEnv     = "LLM_API_KEY"
	llmModelEnv      = "LLM_MODEL"
	emailAPIKeyEnv   = "EMAIL_API_KEY"
	editorEmailEnv   = "EDITOR_EMAIL"
	sendfoxAPIKeyEnv = "SENDFOX_API_KEY"
	httpAddrEnv      = "HTTP_ADDR"
	logLevelEnv      = "LOG_LEVEL"
)

// MemoryDSN selects the in-process store instead of Postgres.
const MemoryDSN = "memory"

// Config holds high-level settings required across the application.
type Config struct {
	Logging      LoggingConfig      `yaml:"logging"`
	HTTP         HTTPConfig         `yaml:"http"`
	Database     DatabaseConfig     `yaml:"database"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	LLM          LLMConfig          `yaml:"llm"`
	Email        EmailConfig        `yaml:"email"`
	Editorial    EditorialConfig    `yaml:"editorial"`
	SendFox      SendFoxConfig      `yaml:"sendfox"`
	Content      ContentConfig      `yaml:"content"`
	Intelligence IntelligenceConfig `yaml:"intelligence"`
}

// LoggingConfig selects slog level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN            string        `yaml:"dsn"`
	QueryTimeout   time.Duration `yaml:"queryTimeout"`
	MigrateOnStart bool          `yaml:"migrateOnStart"`
}

// WindowConfig is an hour range [StartHour, EndHour) optionally pinned to a weekday or day of month.
type WindowConfig struct {
	StartHour int    `yaml:"startHour"`
	EndHour   int    `yaml:"endHour"`
	Weekday   string `yaml:"weekday"`
	MonthDay  int    `yaml:"monthDay"`
}

// SchedulerConfig defines when the composite cron job fires its runners.
type SchedulerConfig struct {
	Enabled            bool           `yaml:"enabled"`
	Timezone           string         `yaml:"timezone"`
	AllowDuplicateRuns bool           `yaml:"allowDuplicateRuns"`
	DailyResearch      WindowConfig   `yaml:"dailyResearch"`
	WeeklyHerald       WindowConfig   `yaml:"weeklyHerald"`
	MonthlyHerald      WindowConfig   `yaml:"monthlyHerald"`
	location           *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// LLMConfig defines how to contact the OpenAI-compatible completion API.
type LLMConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

// EmailConfig wires the transactional email API used for editor prompts.
type EmailConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	APIKey      string        `yaml:"apiKey"`
	From        string        `yaml:"from"`
	EditorEmail string        `yaml:"editorEmail"`
	ReplyTo     string        `yaml:"replyTo"`
	Timeout     time.Duration `yaml:"timeout"`
}

// EditorialConfig describes the editor voice and the reply link in prompt emails.
type EditorialConfig struct {
	EditorName      string `yaml:"editorName"`
	EditorAvatarURL string `yaml:"editorAvatarUrl"`
	ResponseURL     string `yaml:"responseUrl"`
}

// SendFoxConfig holds the list platform endpoints and the type→list mapping.
type SendFoxConfig struct {
	BaseURL     string            `yaml:"baseUrl"`
	APIKey      string            `yaml:"apiKey"`
	CampaignURL string            `yaml:"campaignUrl"`
	Lists       map[string]string `yaml:"lists"`
	Timeout     time.Duration     `yaml:"timeout"`
}

// ContentConfig tunes the content aggregator.
type ContentConfig struct {
	EventLimit        int    `yaml:"eventLimit"`
	ArticleLimit      int    `yaml:"articleLimit"`
	ResourceLimit     int    `yaml:"resourceLimit"`
	EventWindowDays   int    `yaml:"eventWindowDays"`
	ArticleWindowDays int    `yaml:"articleWindowDays"`
	SummaryMaxChars   int    `yaml:"summaryMaxChars"`
	FallbackEventURL  string `yaml:"fallbackEventUrl"`
}

// IntelligenceConfig holds the thresholds used to derive priority and urgency.
type IntelligenceConfig struct {
	HighPriorityThreshold int           `yaml:"highPriorityThreshold"`
	UrgentEventWindow     time.Duration `yaml:"urgentEventWindow"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg, err := Parse(raw)
			if err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, err
	}
	return fileCfg, nil
}

// Merge applies the non-zero fields of override on top of the defaults.
func Merge(override Config) Config {
	cfg := mergeConfig(defaultConfig(), override)
	cfg.bindTimezone()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}

	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(emailAPIKeyEnv); v != "" {
		c.Email.APIKey = v
	}

	if v := os.Getenv(editorEmailEnv); v != "" {
		c.Email.EditorEmail = v
	}

	if v := os.Getenv(sendfoxAPIKeyEnv); v != "" {
		c.SendFox.APIKey = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
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
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}
	if override.HTTP.ReadTimeout > 0 {
		base.HTTP.ReadTimeout = override.HTTP.ReadTimeout
	}
	if override.HTTP.WriteTimeout > 0 {
		base.HTTP.WriteTimeout = override.HTTP.WriteTimeout
	}

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.QueryTimeout > 0 {
		base.Database.QueryTimeout = override.Database.QueryTimeout
	}
	base.Database.MigrateOnStart = base.Database.MigrateOnStart || override.Database.MigrateOnStart

	base.Scheduler.Enabled = base.Scheduler.Enabled || override.Scheduler.Enabled
	base.Scheduler.AllowDuplicateRuns = base.Scheduler.AllowDuplicateRuns || override.Scheduler.AllowDuplicateRuns
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	base.Scheduler.DailyResearch = mergeWindow(base.Scheduler.DailyResearch, override.Scheduler.DailyResearch)
	base.Scheduler.WeeklyHerald = mergeWindow(base.Scheduler.WeeklyHerald, override.Scheduler.WeeklyHerald)
	base.Scheduler.MonthlyHerald = mergeWindow(base.Scheduler.MonthlyHerald, override.Scheduler.MonthlyHerald)

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.Timeout > 0 {
		base.LLM.Timeout = override.LLM.Timeout
	}

	if override.Email.Endpoint != "" {
		base.Email.Endpoint = override.Email.Endpoint
	}
	if override.Email.APIKey != "" {
		base.Email.APIKey = override.Email.APIKey
	}
	if override.Email.From != "" {
		base.Email.From = override.Email.From
	}
	if override.Email.EditorEmail != "" {
		base.Email.EditorEmail = override.Email.EditorEmail
	}
	if override.Email.ReplyTo != "" {
		base.Email.ReplyTo = override.Email.ReplyTo
	}
	if override.Email.Timeout > 0 {
		base.Email.Timeout = override.Email.Timeout
	}

	if override.Editorial.EditorName != "" {
		base.Editorial.EditorName = override.Editorial.EditorName
	}
	if override.Editorial.EditorAvatarURL != "" {
		base.Editorial.EditorAvatarURL = override.Editorial.EditorAvatarURL
	}
	if override.Editorial.ResponseURL != "" {
		base.Editorial.ResponseURL = override.Editorial.ResponseURL
	}

	if override.SendFox.BaseURL != "" {
		base.SendFox.BaseURL = override.SendFox.BaseURL
	}
	if override.SendFox.APIKey != "" {
		base.SendFox.APIKey = override.SendFox.APIKey
	}
	if override.SendFox.CampaignURL != "" {
		base.SendFox.CampaignURL = override.SendFox.CampaignURL
	}
	if override.SendFox.Timeout > 0 {
		base.SendFox.Timeout = override.SendFox.Timeout
	}
	for editionType, listID := range override.SendFox.Lists {
		base.SendFox.Lists[editionType] = listID
	}

	if override.Content.EventLimit > 0 {
		base.Content.EventLimit = override.Content.EventLimit
	}
	if override.Content.ArticleLimit > 0 {
		base.Content.ArticleLimit = override.Content.ArticleLimit
	}
	if override.Content.ResourceLimit > 0 {
		base.Content.ResourceLimit = override.Content.ResourceLimit
	}
	if override.Content.EventWindowDays > 0 {
		base.Content.EventWindowDays = override.Content.EventWindowDays
	}
	if override.Content.ArticleWindowDays > 0 {
		base.Content.ArticleWindowDays = override.Content.ArticleWindowDays
	}
	if override.Content.SummaryMaxChars > 0 {
		base.Content.SummaryMaxChars = override.Content.SummaryMaxChars
	}
	if override.Content.FallbackEventURL != "" {
		base.Content.FallbackEventURL = override.Content.FallbackEventURL
	}

	if override.Intelligence.HighPriorityThreshold > 0 {
		base.Intelligence.HighPriorityThreshold = override.Intelligence.HighPriorityThreshold
	}
	if override.Intelligence.UrgentEventWindow > 0 {
		base.Intelligence.UrgentEventWindow = override.Intelligence.UrgentEventWindow
	}

	return base
}

func mergeWindow(base, override WindowConfig) WindowConfig {
	if override.EndHour > 0 {
		base.StartHour = override.StartHour
		base.EndHour = override.EndHour
	}
	if override.Weekday != "" {
		base.Weekday = override.Weekday
	}
	if override.MonthDay > 0 {
		base.MonthDay = override.MonthDay
	}
	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Database: DatabaseConfig{DSN: "", QueryTimeout: 10 * time.Second},
		Scheduler: SchedulerConfig{
			Timezone:      defaultTimezone,
			DailyResearch: WindowConfig{StartHour: 7, EndHour: 12},
			WeeklyHerald:  WindowConfig{StartHour: 9, EndHour: 12, Weekday: "friday"},
			MonthlyHerald: WindowConfig{StartHour: 10, EndHour: 14, MonthDay: 1},
			location:      tz,
		},
		LLM: LLMConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
			Timeout:  30 * time.Second,
		},
		Email: EmailConfig{
			Endpoint: "https://api.resend.com/emails",
			From:     "Herald <herald@example.org>",
			Timeout:  10 * time.Second,
		},
		Editorial: EditorialConfig{
			EditorName:  "The Editor",
			ResponseURL: "https://example.org/herald/editorial",
		},
		SendFox: SendFoxConfig{
			BaseURL:     "https://api.sendfox.com",
			CampaignURL: "https://sendfox.com/dashboard/campaigns/create",
			Lists:       map[string]string{},
			Timeout:     10 * time.Second,
		},
		Content: ContentConfig{
			EventLimit:        10,
			ArticleLimit:      5,
			ResourceLimit:     5,
			EventWindowDays:   14,
			ArticleWindowDays: 7,
			SummaryMaxChars:   150,
			FallbackEventURL:  "https://example.org/events",
		},
		Intelligence: IntelligenceConfig{
			HighPriorityThreshold: 3,
			UrgentEventWindow:     48 * time.Hour,
		},
	}
}
