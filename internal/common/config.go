package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Query       QueryConfig     `toml:"query"`
	Identity    IdentityConfig  `toml:"identity"`
	Registry    RegistryConfig  `toml:"registry"`
	Monitor     MonitorConfig   `toml:"monitor"`
	WebSocket   WebSocketConfig `toml:"websocket"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// QueryConfig contains configuration for the grounded query client.
type QueryConfig struct {
	APIKey   string `toml:"api_key"`  // Generation endpoint API key (or VIGIL_GEMINI_API_KEY / KV store)
	Model    string `toml:"model"`    // Generation model (default: "gemini-2.0-flash")
	Endpoint string `toml:"endpoint"` // Generation endpoint base URL (override for testing)
	Timeout  string `toml:"timeout"`  // Per-request timeout as duration string (default: "30s")
}

// IdentityConfig contains configuration for the session identity service.
type IdentityConfig struct {
	Credential string `toml:"credential"` // Optional login credential; anonymous session when empty or invalid
}

// RegistryConfig contains configuration for the aid registry feed.
type RegistryConfig struct {
	FeedLimit int `toml:"feed_limit"` // Max records returned in the live feed (default: 100)
}

// MonitorConfig contains configuration for the simulated water-level monitor.
// The monitor is a random-walk simulation, not a sensor feed.
type MonitorConfig struct {
	Interval      string        `toml:"interval"`       // Tick interval as duration string (default: "3s")
	Retention     string        `toml:"retention"`      // How long simulated readings are kept (default: "24h")
	PurgeSchedule string        `toml:"purge_schedule"` // Cron schedule for the retention sweep (6-field, with seconds)
	Rivers        []RiverConfig `toml:"rivers"`
}

// RiverConfig describes one simulated river gauge.
type RiverConfig struct {
	Name      string  `toml:"name"`
	BaseLevel float64 `toml:"base_level"` // Starting level in metres
	Jitter    float64 `toml:"jitter"`     // Max per-tick movement in metres
	MinLevel  float64 `toml:"min_level"`
	MaxLevel  float64 `toml:"max_level"`
	Danger    float64 `toml:"danger"` // Danger threshold in metres
}

// WebSocketConfig contains configuration for WebSocket push behavior
type WebSocketConfig struct {
	// Minimum time between water_levels broadcasts. Ticks arriving faster
	// than this are dropped, not queued.
	TickThrottle string `toml:"tick_throttle"`
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings should be exposed in vigil.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Query: QueryConfig{
			APIKey:   "", // User must provide API key (no fallback)
			Model:    "gemini-2.0-flash",
			Endpoint: "https://generativelanguage.googleapis.com",
			Timeout:  "30s",
		},
		Identity: IdentityConfig{
			Credential: "", // Anonymous session by default
		},
		Registry: RegistryConfig{
			FeedLimit: 100,
		},
		Monitor: MonitorConfig{
			Interval:      "3s",
			Retention:     "24h",
			PurgeSchedule: "0 0 * * * *", // Hourly sweep (cron format with seconds)
			Rivers: []RiverConfig{
				{Name: "Brahmaputra", BaseLevel: 18.5, Jitter: 0.4, MinLevel: 12.0, MaxLevel: 26.0, Danger: 24.0},
				{Name: "Ganges", BaseLevel: 14.2, Jitter: 0.3, MinLevel: 9.0, MaxLevel: 22.0, Danger: 20.0},
				{Name: "Yamuna", BaseLevel: 10.8, Jitter: 0.3, MinLevel: 6.0, MaxLevel: 18.0, Danger: 16.0},
				{Name: "Kosi", BaseLevel: 8.6, Jitter: 0.5, MinLevel: 4.0, MaxLevel: 15.0, Danger: 13.0},
			},
		},
		WebSocket: WebSocketConfig{
			TickThrottle: "1s",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("VIGIL_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("VIGIL_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("VIGIL_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("VIGIL_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("VIGIL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("VIGIL_LOG_OUTPUT"); output != "" {
		parts := strings.Split(output, ",")
		outputs := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if apiKey := os.Getenv("VIGIL_GEMINI_API_KEY"); apiKey != "" {
		config.Query.APIKey = apiKey
	}
	if model := os.Getenv("VIGIL_QUERY_MODEL"); model != "" {
		config.Query.Model = model
	}
	if endpoint := os.Getenv("VIGIL_QUERY_ENDPOINT"); endpoint != "" {
		config.Query.Endpoint = endpoint
	}

	if credential := os.Getenv("VIGIL_IDENTITY_CREDENTIAL"); credential != "" {
		config.Identity.Credential = credential
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

// QueryTimeout parses the query client timeout, falling back to 30s.
func (c *Config) QueryTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Query.Timeout); err == nil && d > 0 {
		return d
	}
	return 30 * time.Second
}

// MonitorInterval parses the simulator tick interval, falling back to 3s.
func (c *Config) MonitorInterval() time.Duration {
	if d, err := time.ParseDuration(c.Monitor.Interval); err == nil && d > 0 {
		return d
	}
	return 3 * time.Second
}

// TickThrottle parses the websocket broadcast throttle, falling back to 1s.
func (c *Config) TickThrottle() time.Duration {
	if d, err := time.ParseDuration(c.WebSocket.TickThrottle); err == nil && d > 0 {
		return d
	}
	return time.Second
}

// MonitorRetention parses the reading retention window, falling back to 24h.
func (c *Config) MonitorRetention() time.Duration {
	if d, err := time.ParseDuration(c.Monitor.Retention); err == nil && d > 0 {
		return d
	}
	return 24 * time.Hour
}
