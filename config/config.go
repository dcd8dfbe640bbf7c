package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"MiniDAQ/miniDAQ-Go-Capture/internal/daq"
	"MiniDAQ/miniDAQ-Go-Capture/internal/logger"
)

// Config represents the application configuration
type Config struct {
	// Logging configuration
	Logging struct {
		// Level is the minimum log level to output (debug, info, warn, error)
		Level string `json:"level"`
		// File is the path to the log file. If empty, logs to stdout only
		File string `json:"file"`
		// MaxSizeMB is the maximum size of log file before rotation
		MaxSizeMB int64 `json:"max_size_mb"`
	} `json:"logging"`

	// Capture configuration
	Capture struct {
		// Interface is the host network interface to capture from.
		Interface string `json:"interface"`
		// SourceMAC restricts capture to frames from this Ethernet source
		// address. Defaults to daq.DefaultSourceMAC when empty.
		SourceMAC string `json:"source_mac"`
		// SnapLen is the maximum number of bytes captured per packet.
		SnapLen int `json:"snap_len"`
		// Promiscuous enables promiscuous mode on the interface.
		Promiscuous bool `json:"promiscuous"`
		// IncludeIdleWords disables idle-word stripping when true.
		IncludeIdleWords bool `json:"include_idle_words"`
	} `json:"capture"`

	// Export configuration
	Export struct {
		// Enabled turns on streaming captured blobs to a remote collector.
		Enabled bool `json:"enabled"`
		// Server is the collector's address, host:port.
		Server string `json:"server"`
		// APIKey authenticates this sensor to the collector.
		APIKey string `json:"api_key"`
		// Insecure selects a plaintext connection instead of TLS.
		Insecure bool `json:"insecure"`
	} `json:"export"`
}

// CaptureOptions translates the Capture section into daq.Options.
func (c *Config) CaptureOptions() daq.Options {
	return daq.Options{
		SnapLen:          c.Capture.SnapLen,
		Promiscuous:      c.Capture.Promiscuous,
		SourceMAC:        c.Capture.SourceMAC,
		IncludeIdleWords: c.Capture.IncludeIdleWords,
	}
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(configPath string) (*Config, error) {
	// Set default config path if not provided
	if configPath == "" {
		configPath = "config.json"
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	// Parse config
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	config.ValidateAndSetDefaults()

	return &config, nil
}

// ValidateAndSetDefaults fills in unset fields with their defaults. Safe to
// call on a zero-value Config.
func (c *Config) ValidateAndSetDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 100 // 100MB default
	}
	if c.Capture.Interface == "" {
		c.Capture.Interface = "any"
	}
	if c.Capture.SnapLen == 0 {
		c.Capture.SnapLen = daq.DefaultSnapLen
	}
	if c.Capture.SourceMAC == "" {
		c.Capture.SourceMAC = daq.DefaultSourceMAC
	}
}

var interfaceNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// validateInterfaceName rejects interface names that are empty, too long, or
// contain characters outside the set a real interface name can have — this
// string can end up passed to OS-level interface lookups, so shell
// metacharacters are rejected outright rather than escaped.
func validateInterfaceName(name string) error {
	if name == "" {
		return fmt.Errorf("interface name cannot be empty")
	}
	if len(name) > 255 {
		return fmt.Errorf("interface name too long: %d characters", len(name))
	}
	if !interfaceNamePattern.MatchString(name) {
		return fmt.Errorf("interface name contains invalid characters")
	}
	return nil
}

// GetFirstInterface returns the first valid interface name in
// Capture.Interface's comma-separated list, or "any" if the list is empty.
// Validation stops at the first non-empty segment: an invalid segment is
// reported even if a later segment in the list would have been valid.
func (c *Config) GetFirstInterface() (string, error) {
	if c.Capture.Interface == "" {
		return "any", nil
	}
	for _, raw := range strings.Split(c.Capture.Interface, ",") {
		seg := strings.TrimSpace(raw)
		if seg == "" {
			continue
		}
		if err := validateInterfaceName(seg); err != nil {
			return "", fmt.Errorf("invalid interface '%s': %w", seg, err)
		}
		return seg, nil
	}
	return "any", nil
}

// GetAllInterfaces returns every valid interface name in Capture.Interface's
// comma-separated list, or ["any"] if the list is empty. Every non-empty
// segment is validated; the first invalid one is reported as an error.
func (c *Config) GetAllInterfaces() ([]string, error) {
	if c.Capture.Interface == "" {
		return []string{"any"}, nil
	}
	var out []string
	for _, raw := range strings.Split(c.Capture.Interface, ",") {
		seg := strings.TrimSpace(raw)
		if seg == "" {
			continue
		}
		if err := validateInterfaceName(seg); err != nil {
			return nil, fmt.Errorf("invalid interface '%s': %w", seg, err)
		}
		out = append(out, seg)
	}
	if len(out) == 0 {
		return []string{"any"}, nil
	}
	return out, nil
}

// InitializeLogging sets up logging based on config
func (c *Config) InitializeLogging() error {
	// Parse log level
	level, err := logger.ParseLogLevel(c.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %v", err)
	}

	// Create log directory if file logging is enabled
	if c.Logging.File != "" {
		logDir := filepath.Dir(c.Logging.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %v", err)
		}
	}

	// Initialize logger
	logConfig := logger.Config{
		LogLevel: level,
		LogFile:  c.Logging.File,
		MaxSize:  c.Logging.MaxSizeMB * 1024 * 1024, // Convert MB to bytes
	}

	if err := logger.Initialize(logConfig); err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}

	return nil
}
