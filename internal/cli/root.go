package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rohmanhakim/botlist-cache/internal/build"
	"github.com/rohmanhakim/botlist-cache/internal/config"
	"github.com/rohmanhakim/botlist-cache/pkg/failure"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	cacheFile string
	userAgent string
	timeout   time.Duration
	logLevel  string
	prettyLog bool
	maxAge    time.Duration
	force     bool
)

// NewRootCommand builds the command tree. Every call registers fresh flag
// sets bound to the package-level flag variables.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "botlist-cache",
		Short: "Fetch pages and API responses through a local request cache.",
		Long: `botlist-cache memoizes HTTP responses in a single JSON file keyed by the
request identity: the URL, its non-credential parameters and the extraction
filter. Repeated requests are answered from the file until they are older than
--max-age or --force is given.

The botlist command uses the cache to scrape the list of known bot accounts.`,
		Version:       build.FullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().StringVar(&cacheFile, "cache-file", "", "cache file path (default cache.json)")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for HTTP requests")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&prettyLog, "pretty-log", false, "human readable log output instead of JSON")
	rootCmd.PersistentFlags().DurationVar(&maxAge, "max-age", 0, "refetch stored entries older than this (0 keeps them forever)")
	rootCmd.PersistentFlags().BoolVar(&force, "force", false, "ignore stored entries and fetch again")

	rootCmd.AddCommand(
		newBotListCommand(),
		newFetchCommand(),
		newInspectCommand(),
	)
	return rootCmd
}

// Execute runs the command tree against os.Args.
// This is called by main.main().
func Execute() {
	if err := executeWithSignals(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		if failure.IsRecoverable(err) {
			fmt.Fprintln(os.Stderr, "The failure may be temporary; running the command again can succeed.")
		}
		os.Exit(1)
	}
}

// executeWithSignals cancels in-flight requests on Ctrl-C.
func executeWithSignals() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

// InitConfigWithError builds the config from the config file when one is
// given, or from the defaults otherwise, then applies the flags that were set.
func InitConfigWithError(out io.Writer) (config.Config, error) {
	var cfg config.Config
	if cfgFile != "" {
		fmt.Fprintf(out, "Initializing config from file: %s\n", cfgFile)
		fileCfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("error initializing config from file: %w", err)
		}
		cfg = fileCfg
	} else {
		cfg = *config.WithDefault()
	}

	configBuilder := &cfg

	if cacheFile != "" {
		configBuilder = configBuilder.WithCacheFile(cacheFile)
	}

	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}

	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if logLevel != "" {
		configBuilder = configBuilder.WithLogLevel(logLevel)
	}

	if prettyLog {
		configBuilder = configBuilder.WithPrettyLog(true)
	}

	if maxAge > 0 {
		configBuilder = configBuilder.WithMaxAge(maxAge)
	}

	if force {
		configBuilder = configBuilder.WithForceRefresh(true)
	}

	return configBuilder.Build()
}

func ResetFlags() {
	cfgFile = ""
	cacheFile = ""
	userAgent = ""
	timeout = 0
	logLevel = ""
	prettyLog = false
	maxAge = 0
	force = false
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetCacheFileForTest(path string) {
	cacheFile = path
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetMaxAgeForTest(d time.Duration) {
	maxAge = d
}

func SetForceForTest(f bool) {
	force = f
}
