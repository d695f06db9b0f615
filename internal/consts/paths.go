package consts

import (
	"path/filepath"
)

const (
	AppName        = "sessiond"
	DefaultRunDir  = "/var/run"
	DefaultEtcDir  = "/etc"
	SocketFileName = "sessiond.sock"
	PIDFileName    = "sessiond.pid"
	ConfigFileName = "sessiond.yaml"

	// DaemonChildEnv marks the re-executed background process.
	DaemonChildEnv = "SESSIOND_DAEMON_CHILD"
)

// SystemDir is the per-system directory holding the socket and PID file.
func SystemDir(runDir, system string) string {
	return filepath.Join(runDir, system)
}

func SocketPath(runDir, system string) string {
	return filepath.Join(SystemDir(runDir, system), SocketFileName)
}

func PIDPath(runDir, system string) string {
	return filepath.Join(SystemDir(runDir, system), PIDFileName)
}

func DefaultConfigPath(system string) string {
	return filepath.Join(DefaultEtcDir, system, ConfigFileName)
}
