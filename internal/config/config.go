package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the catpoint binaries.
type Config struct {
	// ServerAddress is the gRPC address of the security service.
	ServerAddress string `yaml:"server_addr"`
	// MetricsAddress is where the server exposes Prometheus metrics; empty disables it.
	MetricsAddress string `yaml:"metrics_addr,omitempty"`
	// StateFile is the path to the JSON file storing statuses and sensors.
	StateFile string `yaml:"state_file"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum level of log entries (debug, info, warn, error).
	LogLevel string `yaml:"log_level,omitempty"`
	// Classifier selects the cat classifier used by the server.
	Classifier Classifier `yaml:"classifier"`
}

// Classifier configures the cat classifier.
type Classifier struct {
	// Kind is either "fake" or "rekognition".
	Kind string `yaml:"kind"`
	// Region is the AWS region for the rekognition classifier.
	Region string `yaml:"region,omitempty"`
	// Seed makes the fake classifier repeatable.
	Seed uint64 `yaml:"seed,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "catpoint-settings.yaml"

	// DefaultStateFilename is the default filename for the state JSON.
	DefaultStateFilename = "catpoint-state.json"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultLogLevel is used when settings carry no level.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the default file permission for written files.
	DefaultFilePermissions = 0o600

	// ClassifierFake selects the random classifier.
	ClassifierFake = "fake"

	// ClassifierRekognition selects the AWS Rekognition classifier.
	ClassifierRekognition = "rekognition"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errUnknownClassifier is returned for unsupported classifier kinds.
	errUnknownClassifier = errors.New("unknown classifier kind")
	// errRegionRequired is returned when rekognition is selected without a region.
	errRegionRequired = errors.New("classifier region must be provided for rekognition")
	// errUnknownLogLevel is returned for unsupported log levels.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills in defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.MetricsAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.MetricsAddress); err != nil {
			return fmt.Errorf("invalid metrics socket: %w", err)
		}
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.StateFile == "" {
		settings.StateFile = DefaultStateFilename
	}

	switch strings.ToLower(strings.TrimSpace(settings.LogLevel)) {
	case "":
		settings.LogLevel = DefaultLogLevel
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
	}

	return validateClassifier(&settings.Classifier)
}

func validateClassifier(c *Classifier) error {
	c.Kind = strings.ToLower(strings.TrimSpace(c.Kind))

	switch c.Kind {
	case "":
		c.Kind = ClassifierFake
	case ClassifierFake:
	case ClassifierRekognition:
		if c.Region == "" {
			return errRegionRequired
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownClassifier, c.Kind)
	}

	return nil
}
