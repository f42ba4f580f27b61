package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment" validate:"oneof=development production"` // controls operator-facing defaults
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Storage     StorageConfig   `toml:"storage"`
	Feeds       FeedsConfig     `toml:"feeds"`
	Writer      WriterConfig    `toml:"writer"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	Browser     BrowserConfig   `toml:"browser"`
	Blog        BlogConfig      `toml:"blog"`
	Social      SocialConfig    `toml:"social"`
	IMAP        IMAPConfig      `toml:"imap"`
	SMTP        SMTPConfig      `toml:"smtp"`
	Reporting   ReportingConfig `toml:"reporting"`
	Pipeline    PipelineConfig  `toml:"pipeline"`
	Retry       RetryConfig     `toml:"retry"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=0,max=65535"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`                                      // "stdout", "file"
	TimeFormat string   `toml:"time_format"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// FeedsConfig contains RSS/Atom ingestion configuration
type FeedsConfig struct {
	URLs           []string      `toml:"urls"`            // Feed URLs to poll
	RequestTimeout time.Duration `toml:"request_timeout"` // Per-feed fetch timeout
	MaxItems       int           `toml:"max_items"`       // Max items retained per feed
}

// WriterConfig selects the generative-text provider
type WriterConfig struct {
	Provider string `toml:"provider" validate:"oneof=gemini claude"` // "gemini" or "claude"
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // User must provide API key
	Model       string  `toml:"model"`       // Model for article generation
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (free tier RPM)
	Temperature float32 `toml:"temperature"` // Completion temperature
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// BrowserConfig controls the automation browser sessions
type BrowserConfig struct {
	Headless          bool          `toml:"headless"`
	NoSandbox         bool          `toml:"no_sandbox"`
	DisableGPU        bool          `toml:"disable_gpu"`
	WindowWidth       int           `toml:"window_width"`
	WindowHeight      int           `toml:"window_height"`
	UserAgent         string        `toml:"user_agent"`
	Locale            string        `toml:"locale"`
	NavigationTimeout time.Duration `toml:"navigation_timeout"` // Page readiness bound per navigation
	DefaultWait       time.Duration `toml:"default_wait"`       // Element wait bound
	ModalWait         time.Duration `toml:"modal_wait"`         // Short bound for optional screens/modals
	PollInterval      time.Duration `toml:"poll_interval"`      // Element polling tick
	TypingDelay       time.Duration `toml:"typing_delay"`       // Inter-character delay for credential entry
	SettleDelay       time.Duration `toml:"settle_delay"`       // Fallback wait where no completion landmark exists
	ScreenshotDir     string        `toml:"screenshot_dir"`     // Failure screenshot directory
}

// BlogConfig holds credentials for the blogging platform
type BlogConfig struct {
	LoginURL   string `toml:"login_url"`
	ComposeURL string `toml:"compose_url"`
	Email      string `toml:"email"`
	Password   string `toml:"password"`
}

// SocialConfig holds credentials for the social network
type SocialConfig struct {
	LoginURL   string    `toml:"login_url"`
	HomeURL    string    `toml:"home_url"` // Timeline surface holding the compose entry point
	Identifier string    `toml:"identifier"` // Login identifier (email or handle)
	Username   string    `toml:"username"`   // Secondary identifier for the verification screen
	Password   string    `toml:"password"`
	OTP        OTPConfig `toml:"otp"`
}

// OTPConfig describes how one-time login codes are retrieved from the
// operator mailbox when the social network interposes a code challenge
type OTPConfig struct {
	Sender        string        `toml:"sender"`         // Expected From address of code emails
	SubjectFilter string        `toml:"subject_filter"` // Substring matched against the Subject header
	Pattern       string        `toml:"pattern"`        // Regex extracting the code from the message body
	MaxPolls      int           `toml:"max_polls"`      // Mailbox polls before giving up
	PollInterval  time.Duration `toml:"poll_interval"`
}

// IMAPConfig holds operator mailbox settings for one-time code retrieval
type IMAPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	UseTLS   bool   `toml:"use_tls"`
	Mailbox  string `toml:"mailbox"`
}

// SMTPConfig holds notification transport settings
type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
	FromName string `toml:"from_name"`
	UseTLS   bool   `toml:"use_tls"`
}

// ReportingConfig controls operator failure notifications
type ReportingConfig struct {
	Operator          string `toml:"operator"`           // Destination address for failure reports
	AttachScreenshots bool   `toml:"attach_screenshots"` // Attach failure screenshots to notifications
	LogExcerptBytes   int    `toml:"log_excerpt_bytes"`  // Tail of the rotating log attached to reports
}

// PipelineConfig controls the unattended fetch-write-publish pipeline
type PipelineConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule format
}

// RetryConfig bounds login retry behavior. Retries apply to authentication
// only; publish steps are never retried to avoid duplicate posts.
type RetryConfig struct {
	MaxAttempts       int           `toml:"max_attempts" validate:"min=1,max=10"`
	InitialBackoff    time.Duration `toml:"initial_backoff"`
	MaxBackoff        time.Duration `toml:"max_backoff"`
	BackoffMultiplier float64       `toml:"backoff_multiplier"`
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability; only
// user-facing settings should be exposed in nuntio.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Feeds: FeedsConfig{
			URLs: []string{
				"https://news.google.com/rss/search?q=AI&hl=ja&gl=JP&ceid=JP:ja",
				"https://gigazine.net/news/rss_2.0/",
			},
			RequestTimeout: 30 * time.Second,
			MaxItems:       20,
		},
		Writer: WriterConfig{
			Provider: "gemini",
		},
		Gemini: GeminiConfig{
			APIKey:      "", // User must provide API key (no fallback)
			Model:       "gemini-3-flash-preview",
			Timeout:     "5m",
			RateLimit:   "4s", // 15 RPM for free tier
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Timeout:     "5m",
			Temperature: 0.7,
		},
		Browser: BrowserConfig{
			Headless:          true,
			NoSandbox:         true,
			DisableGPU:        true,
			WindowWidth:       1920,
			WindowHeight:      1080,
			UserAgent:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
			Locale:            "ja-JP",
			NavigationTimeout: 30 * time.Second,
			DefaultWait:       20 * time.Second,
			ModalWait:         5 * time.Second,
			PollInterval:      250 * time.Millisecond,
			TypingDelay:       80 * time.Millisecond,
			SettleDelay:       3 * time.Second,
			ScreenshotDir:     "./logs/screenshots",
		},
		Blog: BlogConfig{
			LoginURL:   "https://note.com/login",
			ComposeURL: "https://note.com/notes/new",
		},
		Social: SocialConfig{
			LoginURL: "https://twitter.com/i/flow/login",
			HomeURL:  "https://twitter.com/home",
			OTP: OTPConfig{
				SubjectFilter: "confirmation code",
				Pattern:       `\b([0-9a-zA-Z]{6,8})\b`,
				MaxPolls:      6,
				PollInterval:  10 * time.Second,
			},
		},
		IMAP: IMAPConfig{
			Port:    993,
			UseTLS:  true,
			Mailbox: "INBOX",
		},
		SMTP: SMTPConfig{
			Port:     587,
			FromName: "Nuntio",
			UseTLS:   true,
		},
		Reporting: ReportingConfig{
			AttachScreenshots: true,
			LogExcerptBytes:   16 * 1024,
		},
		Pipeline: PipelineConfig{
			Enabled:  false,           // Disabled by default - user must explicitly opt-in
			Schedule: "0 0 */6 * * *", // Every 6 hours (cron format with seconds)
		},
		Retry: RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    2 * time.Second,
			MaxBackoff:        30 * time.Second,
			BackoffMultiplier: 2.0,
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier
// ones; CLI flag overrides are applied afterwards by the caller.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("NUNTIO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("NUNTIO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("NUNTIO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if level := os.Getenv("NUNTIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("NUNTIO_LOG_OUTPUT"); output != "" {
		config.Logging.Output = strings.Split(output, ",")
	}

	if path := os.Getenv("NUNTIO_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	if urls := os.Getenv("NUNTIO_FEED_URLS"); urls != "" {
		config.Feeds.URLs = splitAndTrim(urls)
	}

	if key := os.Getenv("NUNTIO_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("NUNTIO_ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}

	if email := os.Getenv("NUNTIO_BLOG_EMAIL"); email != "" {
		config.Blog.Email = email
	}
	if password := os.Getenv("NUNTIO_BLOG_PASSWORD"); password != "" {
		config.Blog.Password = password
	}

	if id := os.Getenv("NUNTIO_SOCIAL_IDENTIFIER"); id != "" {
		config.Social.Identifier = id
	}
	if username := os.Getenv("NUNTIO_SOCIAL_USERNAME"); username != "" {
		config.Social.Username = username
	}
	if password := os.Getenv("NUNTIO_SOCIAL_PASSWORD"); password != "" {
		config.Social.Password = password
	}

	if host := os.Getenv("NUNTIO_IMAP_HOST"); host != "" {
		config.IMAP.Host = host
	}
	if username := os.Getenv("NUNTIO_IMAP_USERNAME"); username != "" {
		config.IMAP.Username = username
	}
	if password := os.Getenv("NUNTIO_IMAP_PASSWORD"); password != "" {
		config.IMAP.Password = password
	}

	if host := os.Getenv("NUNTIO_SMTP_HOST"); host != "" {
		config.SMTP.Host = host
	}
	if username := os.Getenv("NUNTIO_SMTP_USERNAME"); username != "" {
		config.SMTP.Username = username
	}
	if password := os.Getenv("NUNTIO_SMTP_PASSWORD"); password != "" {
		config.SMTP.Password = password
	}
	if operator := os.Getenv("NUNTIO_OPERATOR_EMAIL"); operator != "" {
		config.Reporting.Operator = operator
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the configuration for structural errors. Missing
// credentials are not fatal at startup; they fail the specific operation
// that needs them.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Pipeline.Enabled {
		parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(c.Pipeline.Schedule); err != nil {
			return fmt.Errorf("invalid pipeline schedule %q: %w", c.Pipeline.Schedule, err)
		}
	}

	if c.Retry.BackoffMultiplier < 1.0 {
		return fmt.Errorf("retry backoff_multiplier must be >= 1.0, got %v", c.Retry.BackoffMultiplier)
	}

	return nil
}

// Secrets returns every configured credential value. The failure reporter
// uses this list to redact notification bodies and log excerpts.
func (c *Config) Secrets() []string {
	candidates := []string{
		c.Blog.Password,
		c.Social.Password,
		c.IMAP.Password,
		c.SMTP.Password,
		c.Gemini.APIKey,
		c.Claude.APIKey,
	}

	secrets := make([]string, 0, len(candidates))
	for _, v := range candidates {
		if v != "" {
			secrets = append(secrets, v)
		}
	}
	return secrets
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
