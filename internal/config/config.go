package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig      `yaml:"server" toml:"server"`
	Store       StoreConfig       `yaml:"store" toml:"store"`
	Summarizer  SummarizerConfig  `yaml:"summarizer" toml:"summarizer"`
	Gemini      GeminiConfig      `yaml:"gemini" toml:"gemini"`
	OpenAI      OpenAIConfig      `yaml:"openai" toml:"openai"`
	Recognizer  RecognizerConfig  `yaml:"recognizer" toml:"recognizer"`
	Report      ReportConfig      `yaml:"report" toml:"report"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" toml:"telemetry"`
	Performance PerformanceConfig `yaml:"performance" toml:"performance"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" toml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" toml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

type StoreConfig struct {
	Driver        string `yaml:"driver" toml:"driver"` // sqlite or postgres
	DSN           string `yaml:"dsn" toml:"dsn"`
	NotifyChannel string `yaml:"notify_channel" toml:"notify_channel"`
}

type SummarizerConfig struct {
	Backend string        `yaml:"backend" toml:"backend"` // remote, gemini or openai
	URL     string        `yaml:"url" toml:"url"`
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

type GeminiConfig struct {
	Model   string   `yaml:"model" toml:"model"`
	APIKeys []string `yaml:"api_keys" toml:"api_keys"`
}

type OpenAIConfig struct {
	Model   string `yaml:"model" toml:"model"`
	APIKey  string `yaml:"api_key" toml:"api_key"`
	BaseURL string `yaml:"base_url" toml:"base_url"`
}

type RecognizerConfig struct {
	Backend        string        `yaml:"backend" toml:"backend"` // inbox or none
	InboxDir       string        `yaml:"inbox_dir" toml:"inbox_dir"`
	WhisperBinary  string        `yaml:"whisper_binary" toml:"whisper_binary"`
	WhisperModel   string        `yaml:"whisper_model" toml:"whisper_model"`
	Language       string        `yaml:"language" toml:"language"`
	Prompt         string        `yaml:"prompt" toml:"prompt"`
	Threads        int           `yaml:"threads" toml:"threads"`
	FFmpegBinary   string        `yaml:"ffmpeg_binary" toml:"ffmpeg_binary"`
	SilenceTimeout time.Duration `yaml:"silence_timeout" toml:"silence_timeout"`
	RestartDelay   time.Duration `yaml:"restart_delay" toml:"restart_delay"`
}

type ReportConfig struct {
	Format       string  `yaml:"format" toml:"format"` // pdf or docx
	ContentWidth int     `yaml:"content_width" toml:"content_width"`
	FontSize     float64 `yaml:"font_size" toml:"font_size"`
	LineSpacing  float64 `yaml:"line_spacing" toml:"line_spacing"`
	BlockSpacing float64 `yaml:"block_spacing" toml:"block_spacing"`
	Margin       float64 `yaml:"margin" toml:"margin"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	File   string `yaml:"file" toml:"file"`
}

type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Dir     string `yaml:"dir" toml:"dir"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" toml:"max_concurrent"`
}

func (c *Config) Validate() error {
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("store.driver must be sqlite or postgres, got %q", c.Store.Driver)
	}
	if c.Store.DSN == "" {
		if c.Store.Driver == "postgres" {
			return fmt.Errorf("store.dsn is required for postgres")
		}
		c.Store.DSN = "data/chartflow.db"
	}
	if c.Store.NotifyChannel == "" {
		c.Store.NotifyChannel = "chartflow_messages"
	}

	if c.Summarizer.Backend == "" {
		c.Summarizer.Backend = "remote"
	}
	if c.Summarizer.Timeout == 0 {
		c.Summarizer.Timeout = 60 * time.Second
	}
	if len(c.Gemini.APIKeys) == 0 {
		c.Gemini.APIKeys = splitKeys(os.Getenv("GEMINI_API_KEYS"))
	}
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	switch c.Summarizer.Backend {
	case "remote":
		if c.Summarizer.URL == "" {
			return fmt.Errorf("summarizer.url is required for the remote backend")
		}
	case "gemini":
		if len(c.Gemini.APIKeys) == 0 {
			return fmt.Errorf("gemini.api_keys (or GEMINI_API_KEYS) is required for the gemini backend")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("openai.api_key (or OPENAI_API_KEY) is required for the openai backend")
		}
	default:
		return fmt.Errorf("summarizer.backend must be remote, gemini or openai, got %q", c.Summarizer.Backend)
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}

	if c.Recognizer.Backend == "" {
		c.Recognizer.Backend = "inbox"
	}
	if c.Recognizer.Backend != "inbox" && c.Recognizer.Backend != "none" {
		return fmt.Errorf("recognizer.backend must be inbox or none, got %q", c.Recognizer.Backend)
	}
	if c.Recognizer.InboxDir == "" {
		c.Recognizer.InboxDir = "data/inbox"
	}
	if c.Recognizer.WhisperBinary == "" {
		c.Recognizer.WhisperBinary = "whisper-cli"
	}
	if c.Recognizer.FFmpegBinary == "" {
		c.Recognizer.FFmpegBinary = "ffmpeg"
	}
	if c.Recognizer.Language == "" {
		c.Recognizer.Language = "en"
	}
	if c.Recognizer.Threads == 0 {
		c.Recognizer.Threads = 4
	}
	if c.Recognizer.SilenceTimeout == 0 {
		c.Recognizer.SilenceTimeout = 30 * time.Second
	}
	if c.Recognizer.RestartDelay == 0 {
		c.Recognizer.RestartDelay = time.Second
	}

	if c.Report.Format == "" {
		c.Report.Format = "pdf"
	}
	if c.Report.Format != "pdf" && c.Report.Format != "docx" {
		return fmt.Errorf("report.format must be pdf or docx, got %q", c.Report.Format)
	}
	if c.Report.ContentWidth == 0 {
		c.Report.ContentWidth = 90
	}
	if c.Report.FontSize == 0 {
		c.Report.FontSize = 10
	}
	if c.Report.LineSpacing == 0 {
		c.Report.LineSpacing = 1.4
	}
	if c.Report.BlockSpacing == 0 {
		c.Report.BlockSpacing = 14
	}
	if c.Report.Margin == 0 {
		c.Report.Margin = 36
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Telemetry.Dir == "" {
		c.Telemetry.Dir = "logs"
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}

	return nil
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
