package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"sigs.k8s.io/yaml"
)

var ErrFileNotFound = errors.New("configuration file not found")

// LoadConfig loads configuration from a file path.
// It reads the file, substitutes environment variables, parses YAML
// over the defaults and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrFileNotFound, path)
		}
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}
	return ParseConfig(data)
}

// ParseConfig parses configuration from YAML data. Fields missing from data
// keep their default value; unknown fields are rejected.
func ParseConfig(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	config := DefaultConfig()
	if err := yaml.UnmarshalStrict(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	if errs := ValidateConfig(config); len(errs) > 0 {
		return nil, errors.Wrap(errors.Join(errs...), "invalid config")
	}
	return config, nil
}

// Marshal renders the configuration as YAML.
func Marshal(config *Config) ([]byte, error) {
	return yaml.Marshal(config)
}

// ReadCacheBytes returns the configured read cache size in bytes, 0 when the
// cache is disabled.
func (c StoreConfig) ReadCacheBytes() (int64, error) {
	if c.ReadCacheSize == "" || c.ReadCacheSize == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.ReadCacheSize)
	if err != nil {
		return 0, errors.Wrapf(err, "bad read cache size %q", c.ReadCacheSize)
	}
	return int64(n), nil
}
