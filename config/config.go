package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

//go:embed wwvb.toml
var defaultConfigData []byte

// Global settings
var (
	Path          string // file the settings came from
	ZoneOffset    int    // hours west of UTC
	ObserveDST    bool
	HealthPercent int
	Serial        SerialConfig
	USB           USBConfig
	MetricsAddr   string
	MQTT          MQTTConfig
)

// Config represents the entire TOML configuration structure
type Config struct {
	Zone    int           `toml:"zone"`
	DST     bool          `toml:"dst"`
	Health  int           `toml:"health"`
	Serial  SerialConfig  `toml:"serial"`
	USB     USBConfig     `toml:"usb"`
	Metrics MetricsConfig `toml:"metrics"`
	MQTT    MQTTConfig    `toml:"mqtt"`
}

// SerialConfig describes a receiver streaming samples over a serial port
type SerialConfig struct {
	Port      string `toml:"port"`
	Baud      int    `toml:"baud"`
	VendorID  uint16 `toml:"vid"`
	ProductID uint16 `toml:"pid"`
}

// USBConfig describes a receiver with a bulk-in endpoint
type USBConfig struct {
	VendorID  uint16 `toml:"vid"`
	ProductID uint16 `toml:"pid"`
	Interface int    `toml:"interface"`
	Endpoint  int    `toml:"endpoint"`
}

// Enabled reports whether a USB receiver is configured.
func (u USBConfig) Enabled() bool {
	return u.VendorID != 0
}

// MetricsConfig holds the Prometheus endpoint settings
type MetricsConfig struct {
	Listen string `toml:"listen"`
}

// MQTTConfig holds the MQTT publisher settings
type MQTTConfig struct {
	Broker   string `toml:"broker"`
	Topic    string `toml:"topic"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Enabled reports whether decoded minutes should be published.
func (m MQTTConfig) Enabled() bool {
	return m.Broker != ""
}

// configPath determines the config file path based on the operating system
func configPath() (string, error) {
	var configDir string
	var err error

	switch runtime.GOOS {
	case "windows":
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "wwvb")
	default:
		configDir, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user home directory: %w", err)
		}
	}

	return filepath.Join(configDir, ".wwvb"), nil
}

// Initialize loads and validates the configuration file.
// If the config file doesn't exist, it creates it from the embedded default.
func Initialize() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return Load(path)
}

// Load reads settings from the given file, creating it from the embedded
// default when missing, and stores them in the global variables.
func Load(path string) error {
	// 1. Create from embedded default if not present
	if _, err := os.Stat(path); os.IsNotExist(err) {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory %s: %w", dir, err)
		}
		if err := os.WriteFile(path, defaultConfigData, 0644); err != nil {
			return fmt.Errorf("failed to create default config file at %s: %w", path, err)
		}
	}

	// 2. Parse TOML file
	var conf Config
	if _, err := toml.DecodeFile(path, &conf); err != nil {
		return fmt.Errorf("failed to parse TOML config at %s: %w", path, err)
	}

	// 3. Validate and store
	if err := apply(&conf); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	Path = path
	return nil
}

// Default returns the embedded default configuration.
func Default() (*Config, error) {
	var conf Config
	if _, err := toml.Decode(string(defaultConfigData), &conf); err != nil {
		return nil, fmt.Errorf("failed to parse default config: %w", err)
	}
	return &conf, nil
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	if c.Zone < -12 || c.Zone > 12 {
		return fmt.Errorf("invalid zone: %d (must be within -12..12)", c.Zone)
	}
	if c.Health < 0 || c.Health > 100 {
		return fmt.Errorf("invalid health: %d (must be a percentage)", c.Health)
	}
	if c.Serial.VendorID == 0 && c.Serial.ProductID == 0 {
		return fmt.Errorf("invalid serial vid:pid 0000:0000 (reserved for USB-only receivers)")
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("invalid serial baud: %d (must be positive)", c.Serial.Baud)
	}
	if c.USB.Enabled() {
		if c.USB.Endpoint&0x80 == 0 {
			return fmt.Errorf("invalid usb endpoint: 0x%02x (must be an IN endpoint)", c.USB.Endpoint)
		}
		if c.USB.Interface < 0 {
			return fmt.Errorf("invalid usb interface: %d", c.USB.Interface)
		}
	}
	if c.MQTT.Enabled() && c.MQTT.Topic == "" {
		return fmt.Errorf("mqtt topic is empty")
	}
	return nil
}

func apply(conf *Config) error {
	if err := conf.Validate(); err != nil {
		return err
	}
	ZoneOffset = conf.Zone
	ObserveDST = conf.DST
	HealthPercent = conf.Health
	Serial = conf.Serial
	USB = conf.USB
	MetricsAddr = conf.Metrics.Listen
	MQTT = conf.MQTT
	return nil
}
