package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Asia/Kolkata"
	defaultDigestAt = "07:30"

	configPathEnv    = "COMPINTEL_CONFIG"
	twitterBearerEnv = "TWITTER_BEARER_TOKEN"
	twitterAPIKeyEnv = "TWITTERAPI_IO_KEY"
	twitterTierEnv   = "TWITTER_API_TIER"
	scrapinKeyEnv    = "SCRAPIN_API"
	llmProviderEnv   = "LLM_PROVIDER"
	openAIKeyEnv     = "OPENAI_API_KEY"
	anthropicKeyEnv  = "ANTHROPIC_API_KEY"
	slackWebhookEnv  = "SLACK_WEBHOOK_URL"
	slackTokenEnv    = "SLACK_VERIFICATION_TOKEN"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	State     StateConfig     `yaml:"state"`
	Rotation  RotationConfig  `yaml:"rotation"`
	Twitter   TwitterConfig   `yaml:"twitter"`
	LinkedIn  LinkedInConfig  `yaml:"linkedin"`
	LLM       LLMConfig       `yaml:"llm"`
	Slack     SlackConfig     `yaml:"slack"`
	Digest    DigestConfig    `yaml:"digest"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Server    ServerConfig    `yaml:"server"`
}

// LoggingConfig controls console log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StateConfig points at the directory holding all persisted state files.
type StateConfig struct {
	Dir string `yaml:"dir"`
}

// RotationConfig describes the monitored roster and rotation cursor.
type RotationConfig struct {
	RosterFile string `yaml:"rosterFile"`
	StateFile  string `yaml:"stateFile"`
	Tier       string `yaml:"tier"`
}

// TwitterConfig wires the post source. Provider is "twitterapi" for
// twitterapi.io or "api" for the official v2 API.
type TwitterConfig struct {
	Provider         string `yaml:"provider"`
	BearerToken      string `yaml:"bearerToken"`
	APIKey           string `yaml:"apiKey"`
	BaseURL          string `yaml:"baseUrl"`
	WindowHours      int    `yaml:"windowHours"`
	PollDelaySeconds int    `yaml:"pollDelaySeconds"`
	CacheFile        string `yaml:"cacheFile"`
	LookupBudget     int    `yaml:"lookupBudget"`
}

// Window returns the recency window applied to fetched posts.
func (t TwitterConfig) Window() time.Duration {
	return time.Duration(t.WindowHours) * time.Hour
}

// ResolvedBaseURL returns the configured base URL, or the selected
// provider's default endpoint when none is set.
func (t TwitterConfig) ResolvedBaseURL() string {
	if t.BaseURL != "" {
		return t.BaseURL
	}
	if t.Provider == "api" {
		return "https://api.twitter.com"
	}
	return "https://api.twitterapi.io"
}

// PollDelay returns the pause between per-account requests.
func (t TwitterConfig) PollDelay() time.Duration {
	return time.Duration(t.PollDelaySeconds) * time.Second
}

// LinkedInConfig wires the ScrapIn company feed.
type LinkedInConfig struct {
	AccountsFile     string `yaml:"accountsFile"`
	APIKey           string `yaml:"apiKey"`
	BaseURL          string `yaml:"baseUrl"`
	PollDelaySeconds int    `yaml:"pollDelaySeconds"`
}

// PollDelay returns the pause between per-company requests.
func (l LinkedInConfig) PollDelay() time.Duration {
	return time.Duration(l.PollDelaySeconds) * time.Second
}

// LLMConfig defines which chat-completion provider analyzes posts.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"apiKey"`
	Model    string `yaml:"model"`
}

// SlackConfig wires the incoming webhook and the slash-command endpoint.
type SlackConfig struct {
	WebhookURL        string `yaml:"webhookUrl"`
	VerificationToken string `yaml:"verificationToken"`
	MaxChunkChars     int    `yaml:"maxChunkChars"`
}

// DigestConfig defines when the daily summary fires and how long the
// ledger is retained.
type DigestConfig struct {
	At         string         `yaml:"at"`
	Timezone   string         `yaml:"timezone"`
	RetainDays int            `yaml:"retainDays"`
	LedgerFile string         `yaml:"ledgerFile"`
	hour       int
	minute     int
	location   *time.Location `yaml:"-"`
}

// Time returns the local wall-clock time the digest is due.
func (d DigestConfig) Time() (hour, minute int) {
	return d.hour, d.minute
}

// Location resolves the digest timezone string to a time.Location.
func (d DigestConfig) Location() *time.Location {
	if d.location != nil {
		return d.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// SchedulerConfig defines when scan cycles run in watch mode.
type SchedulerConfig struct {
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

// ServerConfig describes the slash-command HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StatePath resolves a state file name against the state directory.
// Absolute names pass through untouched.
func (c Config) StatePath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.State.Dir, name)
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
	cfg.bindTimezones()
	cfg.bindDigestTime()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(twitterBearerEnv); v != "" {
		c.Twitter.BearerToken = v
	}

	if v := os.Getenv(twitterAPIKeyEnv); v != "" {
		c.Twitter.APIKey = v
	}

	if v := os.Getenv(twitterTierEnv); v != "" {
		c.Rotation.Tier = v
	}

	if v := os.Getenv(scrapinKeyEnv); v != "" {
		c.LinkedIn.APIKey = v
	}

	if v := os.Getenv(llmProviderEnv); v != "" {
		c.LLM.Provider = v
	}

	switch c.LLM.Provider {
	case "anthropic":
		if v := os.Getenv(anthropicKeyEnv); v != "" {
			c.LLM.APIKey = v
		}
	default:
		if v := os.Getenv(openAIKeyEnv); v != "" {
			c.LLM.APIKey = v
		}
	}

	if v := os.Getenv(slackWebhookEnv); v != "" {
		c.Slack.WebhookURL = v
	}

	if v := os.Getenv(slackTokenEnv); v != "" {
		c.Slack.VerificationToken = v
	}
}

func (c *Config) bindTimezones() {
	c.Digest.location = resolveLocation(c.Digest.Timezone)
	c.Scheduler.location = resolveLocation(c.Scheduler.Timezone)
}

func resolveLocation(tz string) *time.Location {
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	return loc
}

func (c *Config) bindDigestTime() {
	at := c.Digest.At
	if at == "" {
		at = defaultDigestAt
	}
	parsed, err := time.Parse("15:04", at)
	if err != nil {
		log.Printf("config: cannot parse digest time %q: %v (reverting to %s)", at, err, defaultDigestAt)
		parsed, _ = time.Parse("15:04", defaultDigestAt)
	}
	c.Digest.hour = parsed.Hour()
	c.Digest.minute = parsed.Minute()
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.State.Dir != "" {
		base.State.Dir = override.State.Dir
	}

	if override.Rotation.RosterFile != "" {
		base.Rotation.RosterFile = override.Rotation.RosterFile
	}
	if override.Rotation.StateFile != "" {
		base.Rotation.StateFile = override.Rotation.StateFile
	}
	if override.Rotation.Tier != "" {
		base.Rotation.Tier = override.Rotation.Tier
	}

	if override.Twitter.Provider != "" {
		base.Twitter.Provider = override.Twitter.Provider
	}
	if override.Twitter.BearerToken != "" {
		base.Twitter.BearerToken = override.Twitter.BearerToken
	}
	if override.Twitter.APIKey != "" {
		base.Twitter.APIKey = override.Twitter.APIKey
	}
	if override.Twitter.BaseURL != "" {
		base.Twitter.BaseURL = override.Twitter.BaseURL
	}
	if override.Twitter.WindowHours > 0 {
		base.Twitter.WindowHours = override.Twitter.WindowHours
	}
	if override.Twitter.PollDelaySeconds > 0 {
		base.Twitter.PollDelaySeconds = override.Twitter.PollDelaySeconds
	}
	if override.Twitter.CacheFile != "" {
		base.Twitter.CacheFile = override.Twitter.CacheFile
	}
	if override.Twitter.LookupBudget > 0 {
		base.Twitter.LookupBudget = override.Twitter.LookupBudget
	}

	if override.LinkedIn.AccountsFile != "" {
		base.LinkedIn.AccountsFile = override.LinkedIn.AccountsFile
	}
	if override.LinkedIn.APIKey != "" {
		base.LinkedIn.APIKey = override.LinkedIn.APIKey
	}
	if override.LinkedIn.BaseURL != "" {
		base.LinkedIn.BaseURL = override.LinkedIn.BaseURL
	}
	if override.LinkedIn.PollDelaySeconds > 0 {
		base.LinkedIn.PollDelaySeconds = override.LinkedIn.PollDelaySeconds
	}

	if override.LLM.Provider != "" {
		base.LLM.Provider = override.LLM.Provider
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}

	if override.Slack.WebhookURL != "" {
		base.Slack.WebhookURL = override.Slack.WebhookURL
	}
	if override.Slack.VerificationToken != "" {
		base.Slack.VerificationToken = override.Slack.VerificationToken
	}
	if override.Slack.MaxChunkChars > 0 {
		base.Slack.MaxChunkChars = override.Slack.MaxChunkChars
	}

	if override.Digest.At != "" {
		base.Digest.At = override.Digest.At
	}
	if override.Digest.Timezone != "" {
		base.Digest.Timezone = override.Digest.Timezone
	}
	if override.Digest.RetainDays > 0 {
		base.Digest.RetainDays = override.Digest.RetainDays
	}
	if override.Digest.LedgerFile != "" {
		base.Digest.LedgerFile = override.Digest.LedgerFile
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		State:   StateConfig{Dir: "."},
		Rotation: RotationConfig{
			RosterFile: "accounts.txt",
			StateFile:  "rotation_state.json",
			Tier:       "free",
		},
		Twitter: TwitterConfig{
			Provider:         "twitterapi",
			WindowHours:      24,
			PollDelaySeconds: 6,
			CacheFile:        "user_id_cache.json",
			LookupBudget:     3,
		},
		LinkedIn: LinkedInConfig{
			AccountsFile:     "linkedin_accounts.txt",
			BaseURL:          "https://api.scrapin.io",
			PollDelaySeconds: 2,
		},
		LLM: LLMConfig{Provider: "openai"},
		Slack: SlackConfig{
			MaxChunkChars: 2800,
		},
		Digest: DigestConfig{
			At:         defaultDigestAt,
			Timezone:   defaultTimezone,
			RetainDays: 7,
			LedgerFile: "daily_intelligence.json",
			hour:       7,
			minute:     30,
			location:   tz,
		},
		Scheduler: SchedulerConfig{CronExpression: "*/15 * * * *", Timezone: defaultTimezone, location: tz},
		Server:    ServerConfig{Addr: ":3000"},
	}
}
