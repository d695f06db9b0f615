package daemon

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"

	"github.com/tgifai/sessiond/internal/consts"
)

// listenerFD is where the background process finds the inherited listener:
// the first entry of ExtraFiles.
const listenerFD = 3

// IsChild reports whether this process is the re-executed background daemon.
func IsChild() bool {
	return os.Getenv(consts.DaemonChildEnv) == "1"
}

// Daemonize re-executes the current binary in a new session, handing it the
// bound listener, and records the child's PID. On success the caller should
// exit; the child owns the socket and PID file from then on.
func Daemonize(b *Bootstrap, args []string) (int, error) {
	if !backgroundSupported {
		return 0, errors.New("background mode is not supported on this platform, use --foreground")
	}

	lf, err := listenerFile(b.listener)
	if err != nil {
		return 0, err
	}
	defer lf.Close()

	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("resolve executable: %w", err)
	}
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	cmd := exec.Command(exe, args...)
	cmd.Env = append(os.Environ(), consts.DaemonChildEnv+"=1")
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	cmd.ExtraFiles = []*os.File{lf}
	cmd.SysProcAttr = detachAttr()

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("fork background process: %w", err)
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()

	if err := b.WritePID(pid); err != nil {
		return pid, err
	}
	b.release()
	return pid, nil
}

// Inherit rebuilds the Bootstrap inside the background process from the
// listener passed by Daemonize.
func Inherit(p Paths) (*Bootstrap, error) {
	f := os.NewFile(listenerFD, "sessiond-listener")
	if f == nil {
		return nil, errors.New("inherited listener is missing")
	}
	defer f.Close()

	ln, err := net.FileListener(f)
	if err != nil {
		return nil, fmt.Errorf("inherit listener: %w", err)
	}
	return &Bootstrap{paths: p, listener: ln}, nil
}

func listenerFile(ln net.Listener) (*os.File, error) {
	fl, ok := ln.(interface{ File() (*os.File, error) })
	if !ok {
		return nil, fmt.Errorf("listener %T cannot be passed to a child process", ln)
	}
	f, err := fl.File()
	if err != nil {
		return nil, fmt.Errorf("dup listener: %w", err)
	}
	return f, nil
}

// release closes the parent's copy of the listener without touching the
// socket path, which now belongs to the child.
func (b *Bootstrap) release() {
	if ul, ok := b.listener.(*net.UnixListener); ok {
		ul.SetUnlinkOnClose(false)
	}
	b.listener.Close()
	b.listener = nil
}
