package config

import (
	"os"

	"github.com/google/uuid"
	"github.com/ifeco/ble-telemetry/pkg/util"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// DefaultFile is read when present, missing is not an error
const DefaultFile = "config/telemetry.yaml"

// maxNameLen is what fits a shortened local name in a 31 byte advertising packet
const maxNameLen = 29

// Config represents the complete configuration for the telemetry binaries
type Config struct {
	Device DeviceConfig `yaml:"device"`
	Log    LogConfig    `yaml:"log"`
}

// DeviceConfig holds the advertised name and GATT identifiers
type DeviceConfig struct {
	Name               string `yaml:"name"`
	ServiceUUID        string `yaml:"serviceUUID"`
	CharacteristicUUID string `yaml:"characteristicUUID"`
}

// LogConfig holds logrus level and optional rotating file output
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	return load(DefaultFile, os.Getenv)
}

func load(defaultFile string, getenv func(string) string) (*Config, error) {
	cfg := getDefaultConfig()

	if err := loadFromFile(cfg, defaultFile); err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			return nil, errors.Wrap(err, "default config issue")
		}
		log.WithField("file", defaultFile).Debug("no config file, using defaults")
	}

	if path := getenv("TELEMETRY_CONFIG"); path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, errors.Wrapf(err, "config file %s issue", path)
		}
	}

	applyEnvOverrides(cfg, getenv)

	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "config validation issue")
	}
	return cfg, nil
}

func getDefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:               util.DeviceName,
			ServiceUUID:        util.TelemetryServiceUUID,
			CharacteristicUUID: util.TelemetryCharUUID,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	if name := getenv("TELEMETRY_DEVICE_NAME"); name != "" {
		cfg.Device.Name = name
	}
	if level := getenv("TELEMETRY_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Device.Name == "" {
		return errors.New("device name must not be empty")
	}
	if len(cfg.Device.Name) > maxNameLen {
		return errors.Errorf("device name %q longer than %d bytes", cfg.Device.Name, maxNameLen)
	}
	if _, err := uuid.Parse(cfg.Device.ServiceUUID); err != nil {
		return errors.Wrapf(err, "service uuid %q", cfg.Device.ServiceUUID)
	}
	if _, err := uuid.Parse(cfg.Device.CharacteristicUUID); err != nil {
		return errors.Wrapf(err, "characteristic uuid %q", cfg.Device.CharacteristicUUID)
	}
	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	if cfg.Log.MaxSizeMB < 0 || cfg.Log.MaxBackups < 0 {
		return errors.Errorf("log rotation sizes must not be negative")
	}
	return nil
}
