// Package config loads relayd's server configuration from a YAML file.
//
// This generalizes the teacher's flat key=value config (one struct, one
// file, every field required) to YAML, the format the majority of the
// retrieval pack's configurable daemons use.
package config

import (
	"fmt"
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config holds the server's static configuration.
type Config struct {
	// ListenAddrs are the host:port pairs to listen on. Multiple listeners
	// share one Hub (spec.md §4.D).
	ListenAddrs []string `yaml:"listen_addrs"`

	ServerName  string `yaml:"server_name"`
	ServerInfo  string `yaml:"server_info"`
	Version     string `yaml:"version"`
	CreatedDate string `yaml:"created_date"`

	// MOTDPath is read once at startup. Blank or missing is fine -- see
	// internal/motd.
	MOTDPath string `yaml:"motd_path"`

	// PingInterval is an idle interval, two minutes when unset. It is loaded
	// but not read anywhere: neither the core nor cmd/relayd sends PINGs.
	PingInterval time.Duration `yaml:"ping_interval"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config file %s", path)
	}

	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, errors.Wrapf(err, "parsing config file %s", path)
	}

	if err := c.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	if c.PingInterval == 0 {
		c.PingInterval = 2 * time.Minute
	}

	return &c, nil
}

func (c *Config) validate() error {
	if len(c.ListenAddrs) == 0 {
		return fmt.Errorf("listen_addrs must name at least one address")
	}
	if c.ServerName == "" {
		return fmt.Errorf("server_name is required")
	}
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	if c.CreatedDate == "" {
		return fmt.Errorf("created_date is required")
	}
	return nil
}
