package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rohmanhakim/botlist-cache/internal/build"
	"github.com/rohmanhakim/botlist-cache/pkg/hashutil"
)

const DefaultBotListURL = "https://www.reddit.com/r/autowikibot/wiki/redditbots"

type Config struct {
	//===============
	// Cache
	//===============
	// File the request cache is loaded from and rewritten to after every miss
	cacheFile string
	// Maximum age of a stored entry before it is fetched again. nil means entries never expire
	maxAge *time.Duration
	// Ignore stored entries and fetch every request again
	forceRefresh bool

	//===============
	// Fetch
	//===============
	// User agent that will be used in the request header. In raw string
	userAgent string
	// Maximum time of a single fetch request
	timeout time.Duration
	// Courtesy pause before a rate-limited API request that misses the cache
	rateLimitDelay time.Duration

	//===============
	// Logging
	//===============
	// zerolog level name: trace, debug, info, warn, error
	logLevel string
	// Human readable console output instead of JSON lines
	prettyLog bool

	//===============
	// Bot list
	//===============
	// Wiki page whose first table lists known bot accounts
	botListURL string
	// File name for the scraped bot names, relative to outputDir
	botListOutput string
	// Saved HTML page listing banned or suspicious accounts
	bannedListSource string
	// File name for the banned names, relative to outputDir
	bannedListOutput string
	// Directory list files are written to
	outputDir string
	// Algorithm used to fingerprint written list files
	hashAlgo hashutil.HashAlgo
}

type configDTO struct {
	CacheFile        string `json:"cacheFile,omitempty"`
	MaxAge           string `json:"maxAge,omitempty"`
	ForceRefresh     bool   `json:"forceRefresh,omitempty"`
	UserAgent        string `json:"userAgent,omitempty"`
	Timeout          string `json:"timeout,omitempty"`
	RateLimitDelay   string `json:"rateLimitDelay,omitempty"`
	LogLevel         string `json:"logLevel,omitempty"`
	PrettyLog        bool   `json:"prettyLog,omitempty"`
	BotListURL       string `json:"botListUrl,omitempty"`
	BotListOutput    string `json:"botListOutput,omitempty"`
	BannedListSource string `json:"bannedListSource,omitempty"`
	BannedListOutput string `json:"bannedListOutput,omitempty"`
	OutputDir        string `json:"outputDir,omitempty"`
	HashAlgo         string `json:"hashAlgo,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	builder := WithDefault()

	// only override if non-zero value is provided
	if dto.CacheFile != "" {
		builder.WithCacheFile(dto.CacheFile)
	}
	if dto.MaxAge != "" {
		maxAge, err := time.ParseDuration(dto.MaxAge)
		if err != nil {
			return Config{}, fmt.Errorf("%w: maxAge: %s", ErrConfigParsingFail, err.Error())
		}
		builder.WithMaxAge(maxAge)
	}
	builder.WithForceRefresh(dto.ForceRefresh)
	if dto.UserAgent != "" {
		builder.WithUserAgent(dto.UserAgent)
	}
	if dto.Timeout != "" {
		timeout, err := time.ParseDuration(dto.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("%w: timeout: %s", ErrConfigParsingFail, err.Error())
		}
		builder.WithTimeout(timeout)
	}
	if dto.RateLimitDelay != "" {
		delay, err := time.ParseDuration(dto.RateLimitDelay)
		if err != nil {
			return Config{}, fmt.Errorf("%w: rateLimitDelay: %s", ErrConfigParsingFail, err.Error())
		}
		builder.WithRateLimitDelay(delay)
	}
	if dto.LogLevel != "" {
		builder.WithLogLevel(dto.LogLevel)
	}
	builder.WithPrettyLog(dto.PrettyLog)
	if dto.BotListURL != "" {
		builder.WithBotListURL(dto.BotListURL)
	}
	if dto.BotListOutput != "" {
		builder.WithBotListOutput(dto.BotListOutput)
	}
	if dto.BannedListSource != "" {
		builder.WithBannedListSource(dto.BannedListSource)
	}
	if dto.BannedListOutput != "" {
		builder.WithBannedListOutput(dto.BannedListOutput)
	}
	if dto.OutputDir != "" {
		builder.WithOutputDir(dto.OutputDir)
	}
	if dto.HashAlgo != "" {
		builder.WithHashAlgo(hashutil.HashAlgo(dto.HashAlgo))
	}

	return builder.Build()
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

// WithDefault creates a new Config holding the default value of every field.
func WithDefault() *Config {
	defaultConfig := Config{
		cacheFile:        "cache.json",
		maxAge:           nil,
		forceRefresh:     false,
		userAgent:        build.UserAgent(),
		timeout:          10 * time.Second,
		rateLimitDelay:   100 * time.Millisecond,
		logLevel:         "info",
		prettyLog:        false,
		botListURL:       DefaultBotListURL,
		botListOutput:    "bot_list.txt",
		bannedListSource: "suspiciousaccounts.html",
		bannedListOutput: "banned_user_list.txt",
		outputDir:        ".",
		hashAlgo:         hashutil.HashAlgoSHA256,
	}
	return &defaultConfig
}

func (c *Config) WithCacheFile(path string) *Config {
	c.cacheFile = path
	return c
}

func (c *Config) WithMaxAge(maxAge time.Duration) *Config {
	c.maxAge = &maxAge
	return c
}

func (c *Config) WithForceRefresh(force bool) *Config {
	c.forceRefresh = force
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithRateLimitDelay(delay time.Duration) *Config {
	c.rateLimitDelay = delay
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) WithPrettyLog(pretty bool) *Config {
	c.prettyLog = pretty
	return c
}

func (c *Config) WithBotListURL(rawURL string) *Config {
	c.botListURL = rawURL
	return c
}

func (c *Config) WithBotListOutput(name string) *Config {
	c.botListOutput = name
	return c
}

func (c *Config) WithBannedListSource(path string) *Config {
	c.bannedListSource = path
	return c
}

func (c *Config) WithBannedListOutput(name string) *Config {
	c.bannedListOutput = name
	return c
}

func (c *Config) WithOutputDir(outputDir string) *Config {
	c.outputDir = outputDir
	return c
}

func (c *Config) WithHashAlgo(algo hashutil.HashAlgo) *Config {
	c.hashAlgo = algo
	return c
}

func (c *Config) Build() (Config, error) {
	if strings.TrimSpace(c.cacheFile) == "" {
		return Config{}, fmt.Errorf("%w: cacheFile cannot be empty", ErrInvalidConfig)
	}
	if c.maxAge != nil && *c.maxAge < 0 {
		return Config{}, fmt.Errorf("%w: maxAge cannot be negative", ErrInvalidConfig)
	}
	if c.timeout < 0 {
		return Config{}, fmt.Errorf("%w: timeout cannot be negative", ErrInvalidConfig)
	}
	if c.rateLimitDelay < 0 {
		return Config{}, fmt.Errorf("%w: rateLimitDelay cannot be negative", ErrInvalidConfig)
	}
	if !hashutil.IsSupported(c.hashAlgo) {
		return Config{}, fmt.Errorf("%w: unsupported hashAlgo %q", ErrInvalidConfig, c.hashAlgo)
	}
	return *c, nil
}

func (c Config) CacheFile() string {
	return c.cacheFile
}

// MaxAge returns nil when stored entries never expire.
func (c Config) MaxAge() *time.Duration {
	if c.maxAge == nil {
		return nil
	}
	maxAge := *c.maxAge
	return &maxAge
}

func (c Config) ForceRefresh() bool {
	return c.forceRefresh
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) RateLimitDelay() time.Duration {
	return c.rateLimitDelay
}

func (c Config) LogLevel() string {
	return c.logLevel
}

func (c Config) PrettyLog() bool {
	return c.prettyLog
}

func (c Config) BotListURL() string {
	return c.botListURL
}

func (c Config) BotListOutput() string {
	return c.botListOutput
}

func (c Config) BannedListSource() string {
	return c.bannedListSource
}

func (c Config) BannedListOutput() string {
	return c.bannedListOutput
}

func (c Config) OutputDir() string {
	return c.outputDir
}

func (c Config) HashAlgo() hashutil.HashAlgo {
	return c.hashAlgo
}
