package cfg

import (
	"cmp"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Network configuration
	Port         string        `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	LocalBase    string        `long:"local-base" env:"LOCAL_BASE" description:"Origin hosting the /nse-main and /nse-archives proxy routes (defaults to this server)"`
	ProxyURL     string        `long:"proxy-url" env:"PROXY_URL" default:"https://api.allorigins.win/get?url=" description:"Public fallback proxy endpoint, the escaped target URL is appended"`
	RoutesFile   string        `long:"routes-file" env:"ROUTES_FILE" description:"YAML file with reverse proxy routes (built-in NSE routes when empty)"`
	UserAgent    string        `long:"user-agent" env:"USER_AGENT" default:"NSE Pulse/1.0" description:"User agent string for outgoing requests"`
	FetchTimeout time.Duration `long:"timeout" env:"FETCH_TIMEOUT" default:"15s" description:"Timeout of a single fetch attempt"`
	APIAccessKey string        `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for the JSON API (optional)"`

	// Application configuration
	FeedsDir string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing feed preset files"`
	LogFile  string `long:"log-file" env:"LOG_FILE" default:"nse-pulse.log" description:"Log file used by the terminal viewer"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"Asia/Kolkata" description:"Timezone for publish dates (e.g., UTC, Asia/Kolkata)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs parses the given command line on top of the environment.
// It returns a nil config when help was requested.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:         raw.Port,
		LocalBase:    raw.LocalBase,
		ProxyURL:     raw.ProxyURL,
		RoutesFile:   raw.RoutesFile,
		UserAgent:    raw.UserAgent,
		FetchTimeout: raw.FetchTimeout,
		APIAccessKey: raw.APIAccessKey,
		FeedsDir:     raw.FeedsDir,
		LogFile:      raw.LogFile,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	return cfg, nil
}

func applyTimezone(timezone string) error {
	if timezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	time.Local = loc
	return nil
}
