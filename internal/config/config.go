package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultFileName = "config.yaml"

// DefaultTimezone is used for display when the config omits a timezone.
const DefaultTimezone = "America/Los_Angeles"

// Config holds the per-run settings. Loaded once before the poll loop
// starts and never mutated after that.
type Config struct {
	Timezone string `yaml:"timezone"`
	LogLevel string `yaml:"log_level"`

	Outlook struct {
		Email     string   `yaml:"email"`
		PageToken string   `yaml:"page_token"`
		ServiceID string   `yaml:"service_id"`
		StaffIDs  []string `yaml:"staff_ids"`
	} `yaml:"outlook"`

	Twilio struct {
		AccountSID  string `yaml:"account_sid"`
		AuthToken   string `yaml:"auth_token"`
		PhoneNumber string `yaml:"phone_number"`
	} `yaml:"twilio"`

	Recipients []string `yaml:"recipients"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

// Find walks up the directory tree from the working directory looking for
// the config file.
func Find(filename string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	start := dir

	for {
		candidate := filepath.Join(dir, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found in %s or any parent directory", filename, start)
		}
		dir = parent
	}
}

// Load reads and validates the config. An empty path triggers the upward
// search for config.yaml.
func Load(path string) (*Config, error) {
	if path == "" {
		found, err := Find(defaultFileName)
		if err != nil {
			return nil, err
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}

	if err = cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Outlook.Email == "":
		return errors.New("outlook.email is required")
	case c.Outlook.PageToken == "":
		return errors.New("outlook.page_token is required")
	case c.Outlook.ServiceID == "":
		return errors.New("outlook.service_id is required")
	case len(c.Outlook.StaffIDs) == 0:
		return errors.New("outlook.staff_ids must not be empty")
	case c.Twilio.AccountSID == "":
		return errors.New("twilio.account_sid is required")
	case c.Twilio.AuthToken == "":
		return errors.New("twilio.auth_token is required")
	case c.Twilio.PhoneNumber == "":
		return errors.New("twilio.phone_number is required")
	}
	return nil
}

// DisplayLocation resolves the display timezone.
func (c *Config) DisplayLocation() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
