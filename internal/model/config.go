package model

import "time"

// Config holds the complete runtime configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http" json:"http"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Translate TranslateConfig `yaml:"translate" json:"translate"`
	Language  LanguageConfig  `yaml:"language" json:"language"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Notify    NotifyConfig    `yaml:"notify" json:"notify"`
	Output    OutputConfig    `yaml:"output" json:"output"`
}

// HTTPConfig controls page fetching.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	IgnoreRobots bool          `yaml:"ignore_robots" json:"ignore_robots"`
	HTTPProxy    string        `yaml:"http_proxy" json:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" json:"https_proxy"`
}

// CacheConfig controls the layered storage driver.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Dir       string        `yaml:"dir" json:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"disk_ttl"`
}

// TranslateConfig configures the translation boundary.
type TranslateConfig struct {
	Provider   string `yaml:"provider" json:"provider"` // "openai", "anthropic", "ollama"
	Model      string `yaml:"model" json:"model"`
	APIKey     string `yaml:"-" json:"-"` // from env only, never persisted
	BaseURL    string `yaml:"base_url" json:"base_url"`
	Timeout    int    `yaml:"timeout" json:"timeout"` // seconds
	MaxTokens  int    `yaml:"max_tokens" json:"max_tokens"`
	SourceLang string `yaml:"source_lang" json:"source_lang"` // "auto" or ISO 639-1
	TargetLang string `yaml:"target_lang" json:"target_lang"`
	Mode       string `yaml:"mode" json:"mode"` // "simple" or "smart"
}

// LanguageConfig carries the sentence-boundary heuristics that are
// language-specific. The abbreviation membership is configuration, not
// logic: the detector only consumes whatever sets are given here.
type LanguageConfig struct {
	Abbreviations          []string `yaml:"abbreviations" json:"abbreviations"`
	SecondaryAbbreviations []string `yaml:"secondary_abbreviations" json:"secondary_abbreviations"`
}

// RateLimitConfig controls per-domain request pacing.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// NotifyConfig configures the cross-context removal broadcast.
type NotifyConfig struct {
	Addr string `yaml:"addr" json:"addr"` // hub listen address or ws:// URL to publish to
}

// OutputConfig controls CLI output behavior.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Marginalia/0.1 (+https://github.com/ilyakh/marginalia)",
			MaxBodyBytes: 2_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // resolved to ~/.marginalia/cache at startup
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   0, // highlight records never expire
		},
		Translate: TranslateConfig{
			Provider:   "openai",
			Timeout:    30,
			MaxTokens:  500,
			SourceLang: "auto",
			TargetLang: "en",
			Mode:       "smart",
		},
		Language: LanguageConfig{
			Abbreviations:          DefaultAbbreviations,
			SecondaryAbbreviations: DefaultSecondaryAbbreviations,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             3,
		},
		Notify: NotifyConfig{},
		Output: OutputConfig{},
	}
}

// DefaultAbbreviations covers English titles, Latin abbreviations and
// common ordinal/measurement shorthands.
var DefaultAbbreviations = []string{
	"mr", "mrs", "ms", "dr", "prof", "sr", "jr", "st", "rev", "gen", "col",
	"etc", "vs", "approx", "dept", "est", "min", "max",
	"no", "vol", "pp", "ed", "al", "fig", "inc", "ltd", "co",
	"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec",
}

// DefaultSecondaryAbbreviations covers German, the second supported
// language of the translation backend.
var DefaultSecondaryAbbreviations = []string{
	"bzw", "usw", "ca", "vgl", "evtl", "ggf", "inkl", "zzgl", "bspw",
	"sog", "ugs", "nr", "abs", "str", "tel", "geb", "gest", "hrsg", "jh",
}
