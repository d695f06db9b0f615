package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tgifai/sessiond/internal/consts"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessiond.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if cfg.Daemon.Network != "unix" || cfg.Daemon.RunDir != consts.DefaultRunDir {
		t.Errorf("daemon defaults: %+v", cfg.Daemon)
	}
	if cfg.Daemon.ReadTimeout() != consts.DefaultReadTimeout {
		t.Errorf("read timeout = %v", cfg.Daemon.ReadTimeout())
	}
	if cfg.Daemon.FileMode() != 0o660 {
		t.Errorf("socket mode = %o", cfg.Daemon.FileMode())
	}
	if cfg.Session.IDBytes != consts.DefaultIDBytes {
		t.Errorf("id bytes = %d", cfg.Session.IDBytes)
	}
	if cfg.Session.MaxIdleDuration() != consts.MaxIdle || cfg.Session.MaxLifetimeDuration() != consts.MaxLifetime {
		t.Errorf("ceilings = %v/%v", cfg.Session.MaxIdleDuration(), cfg.Session.MaxLifetimeDuration())
	}
	if !*cfg.Sweep.Enabled || cfg.Sweep.Schedule != consts.DefaultSweepSchedule {
		t.Errorf("sweep defaults: enabled=%v schedule=%q", *cfg.Sweep.Enabled, cfg.Sweep.Schedule)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("logging output = %q", cfg.Logging.Output)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
daemon:
  network: tcp
  address: 127.0.0.1:7788
  socket_mode: "0600"
  read_timeout_ms: 20
session:
  id_bytes: 64
  max_idle: 30m
  max_lifetime: 12h
sweep:
  enabled: false
  schedule: "bogus"
logging:
  level: debug
`)
	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Daemon.Network != "tcp" || cfg.Daemon.Address != "127.0.0.1:7788" {
		t.Errorf("daemon: %+v", cfg.Daemon)
	}
	if cfg.Daemon.ReadTimeout() != 20*time.Millisecond {
		t.Errorf("read timeout = %v", cfg.Daemon.ReadTimeout())
	}
	if cfg.Daemon.FileMode() != 0o600 {
		t.Errorf("socket mode = %o", cfg.Daemon.FileMode())
	}
	if cfg.Session.MaxIdleDuration() != 30*time.Minute || cfg.Session.MaxLifetimeDuration() != 12*time.Hour {
		t.Errorf("ceilings = %v/%v", cfg.Session.MaxIdleDuration(), cfg.Session.MaxLifetimeDuration())
	}
	if *cfg.Sweep.Enabled {
		t.Error("sweep should be disabled")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	if _, err := Load(missing, false); err == nil {
		t.Fatal("expected error for missing required file")
	}
	cfg, err := Load(missing, true)
	if err != nil {
		t.Fatalf("optional missing file should yield defaults: %v", err)
	}
	if cfg.Daemon.Network != "unix" {
		t.Errorf("network = %q", cfg.Daemon.Network)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad network":      "daemon:\n  network: udp\n",
		"tcp no address":   "daemon:\n  network: tcp\n",
		"bad socket mode":  "daemon:\n  socket_mode: \"999\"\n",
		"tiny id":          "session:\n  id_bytes: 4\n",
		"bad duration":     "session:\n  max_idle: forever\n",
		"idle over max":    "session:\n  max_idle: 10h\n  max_lifetime: 1h\n",
		"bad schedule":     "sweep:\n  schedule: \"not a cron\"\n",
		"same admin binds": "admin:\n  bind: 127.0.0.1:9000\n  metrics_bind: 127.0.0.1:9000\n",
		"metrics no bind":  "admin:\n  metrics_bind: 127.0.0.1:9100\n",
		"broken yaml":      "daemon: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body), false); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestHash_Stable(t *testing.T) {
	a, _ := Default()
	b, _ := Default()
	if a.Hash() != b.Hash() {
		t.Fatal("equal configs should hash equally")
	}
	b.Daemon.ReadTimeoutMS = 99
	if a.Hash() == b.Hash() {
		t.Fatal("different configs should hash differently")
	}
	if !strings.ContainsAny(a.Hash(), "0123456789abcdef") || len(a.Hash()) != 64 {
		t.Fatalf("unexpected hash %q", a.Hash())
	}
}

func TestEndpoint(t *testing.T) {
	cfg, _ := Default()
	network, address := cfg.Daemon.Endpoint("billing")
	if network != "unix" || address != filepath.Join(consts.DefaultRunDir, "billing", consts.SocketFileName) {
		t.Errorf("unix endpoint = %s %s", network, address)
	}
	if got := cfg.Daemon.PIDPath("billing"); got != filepath.Join(consts.DefaultRunDir, "billing", consts.PIDFileName) {
		t.Errorf("pid path = %s", got)
	}

	cfg.Daemon.Network, cfg.Daemon.Address = "tcp", "127.0.0.1:7788"
	if network, address := cfg.Daemon.Endpoint("billing"); network != "tcp" || address != "127.0.0.1:7788" {
		t.Errorf("tcp endpoint = %s %s", network, address)
	}
}
