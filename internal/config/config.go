package config

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"github.com/tgifai/sessiond/internal/consts"
)

type (
	Config struct {
		Daemon  DaemonConfig  `yaml:"daemon"`
		Session SessionConfig `yaml:"session"`
		Sweep   SweepConfig   `yaml:"sweep"`
		Admin   AdminConfig   `yaml:"admin"`
		Logging LoggingConfig `yaml:"logging"`
	}

	DaemonConfig struct {
		RunDir          string `yaml:"run_dir"`
		Network         string `yaml:"network"` // unix, tcp
		Address         string `yaml:"address"`
		SocketMode      string `yaml:"socket_mode"` // octal, e.g. "0660"
		ReadTimeoutMS   int    `yaml:"read_timeout_ms"`
		WriteTimeoutMS  int    `yaml:"write_timeout_ms"`
		MaxRequestBytes int    `yaml:"max_request_bytes"`
	}

	SessionConfig struct {
		IDBytes     int    `yaml:"id_bytes"`
		MaxIdle     string `yaml:"max_idle"`
		MaxLifetime string `yaml:"max_lifetime"`

		maxIdle     time.Duration
		maxLifetime time.Duration
	}

	SweepConfig struct {
		Enabled  *bool  `yaml:"enabled"`
		Schedule string `yaml:"schedule"`
	}

	AdminConfig struct {
		Bind        string `yaml:"bind"`
		MetricsBind string `yaml:"metrics_bind"`
	}

	LoggingConfig struct {
		Level      string `yaml:"level"`  // debug, info, warn, error
		Format     string `yaml:"format"` // json, text
		Output     string `yaml:"output"` // stdout, file, both
		File       string `yaml:"file"`
		MaxSize    int    `yaml:"max_size"` // MB
		MaxBackups int    `yaml:"max_backups"`
		MaxAge     int    `yaml:"max_age"` // days
	}
)

// FileMode is the parsed socket_mode; valid after Validate.
func (d DaemonConfig) FileMode() os.FileMode {
	mode, _ := strconv.ParseUint(d.SocketMode, 8, 32)
	return os.FileMode(mode)
}

func (d DaemonConfig) ReadTimeout() time.Duration {
	return time.Duration(d.ReadTimeoutMS) * time.Millisecond
}

func (d DaemonConfig) WriteTimeout() time.Duration {
	return time.Duration(d.WriteTimeoutMS) * time.Millisecond
}

// MaxIdleDuration is the parsed idle ceiling; valid after Validate.
func (s SessionConfig) MaxIdleDuration() time.Duration {
	return s.maxIdle
}

// MaxLifetimeDuration is the parsed absolute ceiling; valid after Validate.
func (s SessionConfig) MaxLifetimeDuration() time.Duration {
	return s.maxLifetime
}

// Hash fingerprints the effective configuration for startup logs.
func (c *Config) Hash() string {
	json := sonic.Config{SortMapKeys: true}.Froze()
	raw, _ := json.Marshal(c)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Endpoint resolves where the daemon for system listens. A unix socket with
// no explicit address lives under the per-system run directory.
func (d DaemonConfig) Endpoint(system string) (network, address string) {
	if d.Network == "unix" && d.Address == "" {
		return d.Network, consts.SocketPath(d.RunDir, system)
	}
	return d.Network, d.Address
}

func (d DaemonConfig) PIDPath(system string) string {
	return consts.PIDPath(d.RunDir, system)
}
