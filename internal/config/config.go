package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape for logredact. Pointer
// fields distinguish "unset" from zero so CLI > local > global precedence can
// be resolved per field.
type FileConfig struct {
	Preset         *string  `yaml:"preset"`
	Rules          []string `yaml:"rules"`
	Encoding       *string  `yaml:"encoding"`
	EncodingErrors *string  `yaml:"encoding_errors"`
	BackupSuffix   *string  `yaml:"backup_suffix"`
	Report         *string  `yaml:"report"`
	Stats          *string  `yaml:"stats"`
	Include        *string  `yaml:"include"`
	Exclude        *string  `yaml:"exclude"`
	MaxBytes       *int64   `yaml:"max_bytes"`

	FailOnRedaction *bool `yaml:"fail_on_redaction"`
	MaxRedactions   *int  `yaml:"max_redactions"`

	NoColor *bool   `yaml:"no_color"`
	Verbose *bool   `yaml:"verbose"`
	LogFmt  *string `yaml:"log_format"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLocal searches for a directory-local config file in the given root.
// It supports .logredact.yml/.yaml and logredact.yml/.yaml.
func LoadLocal(root string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".logredact.yml", ".logredact.yaml", "logredact.yml", "logredact.yaml"} {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, errors.New("no config dir")
	}
	p := filepath.Join(base, "logredact", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}
