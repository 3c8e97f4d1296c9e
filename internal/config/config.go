package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/face-console/internal/constants"
	"gopkg.in/yaml.v3"
)

//go:embed announce.yaml
var announceYAML []byte

type Config struct {
	Appliance ApplianceConfig
	Poller    PollerConfig
	Announce  AnnounceConfig
	Database  DatabaseConfig
	Web       WebConfig
	LogLevel  string
}

type ApplianceConfig struct {
	URL     string        // base URL of the face-recognition appliance (e.g., http://192.168.1.20:5000)
	Timeout time.Duration // per-request timeout, 0 keeps the transport default
}

// VideoFeedURL returns the absolute URL of the live camera frame stream.
// Returns empty string if URL is not set
func (c *ApplianceConfig) VideoFeedURL() string {
	if c.URL == "" {
		return ""
	}
	return strings.TrimRight(c.URL, "/") + "/video_feed"
}

type PollerConfig struct {
	Interval      time.Duration // defaults to 5s
	AnnounceReset time.Duration // defaults to 5s
}

type AnnounceConfig struct {
	Command string // text-to-speech command, e.g. "espeak -s 150"; empty logs only
	Tiers   []AnnounceTier `yaml:"tiers"`
}

type AnnounceTier struct {
	MinConfidence float64 `yaml:"min_confidence"`
	Phrase        string  `yaml:"phrase"`
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL, empty keeps the journal in memory
	MaxOpenConns int    // Maximum open connections (default 10)
	MaxIdleConns int    // Maximum idle connections (default 2)
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // extra CORS origins; localhost is always allowed
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envDuration reads an environment variable as a time.Duration ("5s", "1m").
// A bare integer is taken as seconds. Returns the default value if the env var
// is unset, empty, invalid or not positive.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n > 0 {
			return time.Duration(n) * time.Second
		}
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList reads a comma-separated environment variable, dropping empty items.
func envList(key string) []string {
	var items []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func Load() *Config {
	var announce AnnounceConfig
	if err := yaml.Unmarshal(announceYAML, &announce); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded announce.yaml: " + err.Error())
	}
	announce.Command = os.Getenv("ANNOUNCE_COMMAND")

	return &Config{
		Appliance: ApplianceConfig{
			URL:     envString("APPLIANCE_URL", "http://localhost:5000"),
			Timeout: envDuration("APPLIANCE_TIMEOUT", 0),
		},
		Poller: PollerConfig{
			Interval:      envDuration("POLL_INTERVAL", constants.PollInterval),
			AnnounceReset: envDuration("ANNOUNCE_RESET", constants.AnnounceResetDelay),
		},
		Announce: announce,
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 2),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8080),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		LogLevel: envString("LOG_LEVEL", "info"),
	}
}
