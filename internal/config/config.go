package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Europe/London"
	configPathEnv   = "CONTENT_ENGINE_CONFIG"

	openAIKeyEnv         = "OPENAI_API_KEY"
	openAIModelEnv       = "OPENAI_MODEL"
	linkedInTokenEnv     = "LINKEDIN_ACCESS_TOKEN"
	linkedInPageEnv      = "LINKEDIN_PAGE_ID"
	twitterBearerEnv     = "TWITTER_BEARER_TOKEN"
	telegramTokenEnv     = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv    = "TELEGRAM_CHAT_ID"
	notionKeyEnv         = "NOTION_API_KEY"
	notionDBEnv          = "NOTION_DB_ID"
	sheetsIDEnv          = "GOOGLE_SHEETS_ID"
	sheetsCredentialsEnv = "GOOGLE_CREDENTIALS_FILE"
	ledgerDSNEnv         = "LEDGER_DSN"
	autoPostEnv          = "AUTO_POST"
	blogOnlyEnv          = "BLOG_ONLY_MODE"
	logLevelEnv          = "LOG_LEVEL"
)

// Ledger drivers.
const (
	LedgerDuckDB   = "duckdb"
	LedgerPostgres = "postgres"
	LedgerSheets   = "sheets"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Brand     BrandConfig     `yaml:"brand"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Social    SocialConfig    `yaml:"social"`
	Notion    NotionConfig    `yaml:"notion"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Sites     []SiteConfig    `yaml:"sites"`
}

// LoggingConfig selects slog level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PipelineConfig carries gate thresholds and run behaviour.
type PipelineConfig struct {
	MinRelevanceScore int           `yaml:"minRelevanceScore"`
	MinViralityScore  int           `yaml:"minViralityScore"`
	MaxFreshnessDays  int           `yaml:"maxFreshnessDays"`
	AutoPublish       bool          `yaml:"autoPublish"`
	Mode              string        `yaml:"mode"`
	CallTimeout       time.Duration `yaml:"callTimeout"`
	MaxItemsPerRun    int           `yaml:"maxItemsPerRun"`
}

// BrandConfig describes the call to action embedded in every draft.
type BrandConfig struct {
	URL         string   `yaml:"url"`
	CTAPhrase   string   `yaml:"ctaPhrase"`
	Hashtags    []string `yaml:"hashtags"`
	UTMCampaign string   `yaml:"utmCampaign"`
}

// OpenAIConfig defines how to contact the language model.
type OpenAIConfig struct {
	APIKey                string  `yaml:"apiKey"`
	Model                 string  `yaml:"model"`
	BaseURL               string  `yaml:"baseUrl"`
	ScoringTemperature    float64 `yaml:"scoringTemperature"`
	GenerationTemperature float64 `yaml:"generationTemperature"`
}

// LedgerConfig selects the durable record backend.
type LedgerConfig struct {
	Driver          string `yaml:"driver"`
	DSN             string `yaml:"dsn"`
	Table           string `yaml:"table"`
	SpreadsheetID   string `yaml:"spreadsheetId"`
	SheetName       string `yaml:"sheetName"`
	CredentialsFile string `yaml:"credentialsFile"`
}

// SocialConfig groups destination credentials. A platform without credentials is skipped.
type SocialConfig struct {
	LinkedIn LinkedInConfig `yaml:"linkedin"`
	X        XConfig        `yaml:"x"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// LinkedInConfig wires the UGC posts API.
type LinkedInConfig struct {
	AccessToken string `yaml:"accessToken"`
	PageID      string `yaml:"pageId"`
	Endpoint    string `yaml:"endpoint"`
}

// XConfig wires the v2 tweets API.
type XConfig struct {
	BearerToken string `yaml:"bearerToken"`
	Endpoint    string `yaml:"endpoint"`
}

// TelegramConfig wires all data required to post to a channel.
type TelegramConfig struct {
	BotToken        string `yaml:"botToken"`
	ChatID          string `yaml:"chatId"`
	ChannelUsername string `yaml:"channelUsername"`
}

// NotionConfig points at the blog drafts database.
type NotionConfig struct {
	APIKey     string `yaml:"apiKey"`
	DatabaseID string `yaml:"databaseId"`
}

// SchedulerConfig defines when cycles and posting slots run.
type SchedulerConfig struct {
	CycleCron    string         `yaml:"cycleCron"`
	PostingTimes []string       `yaml:"postingTimes"`
	Timezone     string         `yaml:"timezone"`
	location     *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PostingCronSpecs converts "HH:MM" posting times into daily cron expressions.
func (s SchedulerConfig) PostingCronSpecs() ([]string, error) {
	specs := make([]string, 0, len(s.PostingTimes))
	for _, raw := range s.PostingTimes {
		t, err := time.Parse("15:04", strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("posting time %q: %w", raw, err)
		}
		specs = append(specs, fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()))
	}
	return specs, nil
}

// SiteConfig describes a single site with its scanner strategy.
type SiteConfig struct {
	Name    string            `yaml:"name"`
	Scanner string            `yaml:"scanner"`
	Feeds   []FeedConfig      `yaml:"feeds"`
	Options map[string]string `yaml:"options"`
}

// FeedConfig holds a concrete endpoint to crawl (an RSS URL or a listing page).
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load reads YAML configuration (if present) over defaults and applies environment overrides.
func Load() (Config, error) {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile is Load with an explicit path; an empty path uses defaults and environment only.
func LoadFile(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sites) == 0 {
		cfg.Sites = defaultConfig().Sites
	}

	return cfg, nil
}

// Validate collects every configuration problem; any entry aborts the run before processing.
func (c *Config) Validate() []error {
	var errs = make([]error, 0)

	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		errs = append(errs, errors.Errorf("openai api key is required (%s)", openAIKeyEnv))
	}
	if c.OpenAI.Model == "" {
		errs = append(errs, errors.New("openai model is required"))
	}

	p := c.Pipeline
	if p.MinRelevanceScore < 0 || p.MinRelevanceScore > 10 {
		errs = append(errs, errors.Errorf("minRelevanceScore %d out of range 0-10", p.MinRelevanceScore))
	}
	if p.MinViralityScore < 0 || p.MinViralityScore > 10 {
		errs = append(errs, errors.Errorf("minViralityScore %d out of range 0-10", p.MinViralityScore))
	}
	if p.MaxFreshnessDays <= 0 {
		errs = append(errs, errors.Errorf("maxFreshnessDays must be positive, got %d", p.MaxFreshnessDays))
	}
	if p.Mode != "full" && p.Mode != "blog_only" {
		errs = append(errs, errors.Errorf("unknown pipeline mode %q", p.Mode))
	}
	if p.CallTimeout <= 0 {
		errs = append(errs, errors.New("callTimeout must be positive"))
	}

	if u, err := url.Parse(c.Brand.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, errors.Errorf("brand url %q is not absolute", c.Brand.URL))
	}
	if strings.TrimSpace(c.Brand.CTAPhrase) == "" {
		errs = append(errs, errors.New("brand ctaPhrase is required"))
	}
	if len(c.Brand.Hashtags) != 2 {
		errs = append(errs, errors.Errorf("brand needs exactly two hashtags, got %d", len(c.Brand.Hashtags)))
	}

	switch c.Ledger.Driver {
	case LedgerDuckDB, LedgerPostgres:
		if c.Ledger.DSN == "" {
			errs = append(errs, errors.Errorf("ledger dsn is required for %s (%s)", c.Ledger.Driver, ledgerDSNEnv))
		}
	case LedgerSheets:
		if c.Ledger.SpreadsheetID == "" {
			errs = append(errs, errors.Errorf("ledger spreadsheetId is required (%s)", sheetsIDEnv))
		}
		if c.Ledger.CredentialsFile == "" {
			errs = append(errs, errors.Errorf("ledger credentialsFile is required (%s)", sheetsCredentialsEnv))
		}
	default:
		errs = append(errs, errors.Errorf("unknown ledger driver %q", c.Ledger.Driver))
	}

	if p.Mode == "blog_only" && (c.Notion.APIKey == "" || c.Notion.DatabaseID == "") && p.AutoPublish {
		errs = append(errs, errors.New("blog_only auto publishing needs notion apiKey and databaseId"))
	}

	if _, err := c.Scheduler.PostingCronSpecs(); err != nil {
		errs = append(errs, errors.Wrap(err, "scheduler"))
	}
	if _, err := loadTimezone(c.Scheduler.Timezone); err != nil {
		errs = append(errs, errors.Wrapf(err, "scheduler timezone %q", c.Scheduler.Timezone))
	}
	if len(c.Sites) == 0 {
		errs = append(errs, errors.New("at least one site is required"))
	}
	for _, site := range c.Sites {
		if len(site.Feeds) == 0 {
			errs = append(errs, errors.Errorf("site %s has no feeds", site.Name))
		}
	}

	return errs
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv(linkedInTokenEnv); v != "" {
		c.Social.LinkedIn.AccessToken = v
	}
	if v := os.Getenv(linkedInPageEnv); v != "" {
		c.Social.LinkedIn.PageID = v
	}
	if v := os.Getenv(twitterBearerEnv); v != "" {
		c.Social.X.BearerToken = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Social.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Social.Telegram.ChatID = v
	}
	if v := os.Getenv(notionKeyEnv); v != "" {
		c.Notion.APIKey = v
	}
	if v := os.Getenv(notionDBEnv); v != "" {
		c.Notion.DatabaseID = v
	}
	if v := os.Getenv(sheetsIDEnv); v != "" {
		c.Ledger.SpreadsheetID = v
	}
	if v := os.Getenv(sheetsCredentialsEnv); v != "" {
		c.Ledger.CredentialsFile = v
	}
	if v := os.Getenv(ledgerDSNEnv); v != "" {
		c.Ledger.DSN = v
	}
	if v := os.Getenv(autoPostEnv); v != "" {
		c.Pipeline.AutoPublish = cast.ToBool(v)
	}
	if v := os.Getenv(blogOnlyEnv); v != "" {
		if cast.ToBool(v) {
			c.Pipeline.Mode = "blog_only"
		} else {
			c.Pipeline.Mode = "full"
		}
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

// bindTimezone falls back to UTC on an unknown zone; Validate reports the name.
func (c *Config) bindTimezone() {
	loc, err := loadTimezone(c.Scheduler.Timezone)
	if err != nil {
		loc = time.UTC
	}
	c.Scheduler.location = loc
}

func loadTimezone(tz string) (*time.Location, error) {
	if strings.TrimSpace(tz) == "" {
		tz = defaultTimezone
	}
	return time.LoadLocation(tz)
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Pipeline: PipelineConfig{
			MinRelevanceScore: 7,
			MinViralityScore:  6,
			MaxFreshnessDays:  21,
			AutoPublish:       false,
			Mode:              "full",
			CallTimeout:       30 * time.Second,
		},
		Brand: BrandConfig{
			URL:         "https://brightface.ai",
			CTAPhrase:   "Try Brightface",
			Hashtags:    []string{"#AIHeadshots", "#PersonalBranding"},
			UTMCampaign: "autopost",
		},
		OpenAI: OpenAIConfig{
			Model:                 "gpt-4o-mini",
			ScoringTemperature:    0.3,
			GenerationTemperature: 0.7,
		},
		Ledger: LedgerConfig{
			Driver:    LedgerDuckDB,
			DSN:       "./data/ledger.duckdb",
			Table:     "content_ledger",
			SheetName: "Content Ledger",
		},
		Social: SocialConfig{
			LinkedIn: LinkedInConfig{Endpoint: "https://api.linkedin.com/v2"},
			X:        XConfig{Endpoint: "https://api.twitter.com/2"},
		},
		Scheduler: SchedulerConfig{
			CycleCron:    "0 */2 * * *",
			PostingTimes: []string{"08:30", "10:00", "15:30", "17:00"},
			Timezone:     defaultTimezone,
		},
		Sites: []SiteConfig{
			{
				Name:    "ai-news",
				Scanner: "rss",
				Feeds: []FeedConfig{
					{Name: "openai", URL: "https://openai.com/blog/rss.xml"},
					{Name: "venturebeat", URL: "https://venturebeat.com/ai/feed/"},
					{Name: "techcrunch", URL: "https://techcrunch.com/category/artificial-intelligence/feed/"},
				},
			},
		},
	}
}
