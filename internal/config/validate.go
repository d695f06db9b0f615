package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tgifai/sessiond/internal/consts"
	"github.com/tgifai/sessiond/internal/sweep"
)

const minIDBytes = 16

// Validate fills defaults and rejects values the daemon cannot run with.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config cannot be nil")
	}
	if err := c.Daemon.Validate(); err != nil {
		return fmt.Errorf("daemon: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := c.Sweep.Validate(); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	c.Admin.Bind = strings.TrimSpace(c.Admin.Bind)
	c.Admin.MetricsBind = strings.TrimSpace(c.Admin.MetricsBind)
	if c.Admin.MetricsBind != "" {
		if c.Admin.Bind == "" {
			return errors.New("admin: metrics_bind requires bind")
		}
		if c.Admin.MetricsBind == c.Admin.Bind {
			return errors.New("admin: metrics_bind must differ from bind")
		}
	}

	c.Logging.Output = strings.TrimSpace(c.Logging.Output)
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	return nil
}

func (d *DaemonConfig) Validate() error {
	d.RunDir = strings.TrimSpace(d.RunDir)
	if d.RunDir == "" {
		d.RunDir = consts.DefaultRunDir
	}

	d.Network = strings.ToLower(strings.TrimSpace(d.Network))
	if d.Network == "" {
		d.Network = "unix"
	}
	d.Address = strings.TrimSpace(d.Address)
	switch d.Network {
	case "unix":
	case "tcp":
		if d.Address == "" {
			return errors.New("address is required when network=tcp")
		}
	default:
		return fmt.Errorf("invalid network: %s", d.Network)
	}

	d.SocketMode = strings.TrimSpace(d.SocketMode)
	if d.SocketMode == "" {
		d.SocketMode = fmt.Sprintf("%04o", consts.DefaultSocketMode)
	}
	if mode, err := strconv.ParseUint(d.SocketMode, 8, 32); err != nil || mode > 0o777 {
		return fmt.Errorf("invalid socket_mode: %s", d.SocketMode)
	}

	if d.ReadTimeoutMS <= 0 {
		d.ReadTimeoutMS = int(consts.DefaultReadTimeout / time.Millisecond)
	}
	if d.WriteTimeoutMS <= 0 {
		d.WriteTimeoutMS = int(consts.DefaultWriteTimeout / time.Millisecond)
	}
	if d.MaxRequestBytes <= 0 {
		d.MaxRequestBytes = consts.DefaultMaxRequestBytes
	}
	return nil
}

func (s *SessionConfig) Validate() error {
	if s.IDBytes == 0 {
		s.IDBytes = consts.DefaultIDBytes
	}
	if s.IDBytes < minIDBytes {
		return fmt.Errorf("id_bytes must be at least %d", minIDBytes)
	}

	var err error
	if s.maxIdle, err = parseCeiling(&s.MaxIdle, consts.MaxIdle); err != nil {
		return fmt.Errorf("max_idle: %w", err)
	}
	if s.maxLifetime, err = parseCeiling(&s.MaxLifetime, consts.MaxLifetime); err != nil {
		return fmt.Errorf("max_lifetime: %w", err)
	}
	if s.maxIdle > s.maxLifetime {
		return errors.New("max_idle must not exceed max_lifetime")
	}
	return nil
}

func (s *SweepConfig) Validate() error {
	if s.Enabled == nil {
		enabled := true
		s.Enabled = &enabled
	}
	s.Schedule = strings.TrimSpace(s.Schedule)
	if s.Schedule == "" {
		s.Schedule = consts.DefaultSweepSchedule
	}
	if !*s.Enabled {
		return nil
	}
	return sweep.ValidateSchedule(s.Schedule)
}

func parseCeiling(raw *string, def time.Duration) (time.Duration, error) {
	*raw = strings.TrimSpace(*raw)
	if *raw == "" {
		*raw = def.String()
		return def, nil
	}
	d, err := time.ParseDuration(*raw)
	if err != nil {
		return 0, err
	}
	if d < time.Second {
		return 0, fmt.Errorf("must be at least 1s, got %s", d)
	}
	return d, nil
}
