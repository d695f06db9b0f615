package daemon

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrPIDDirMissing = errors.New("pid directory does not exist")
	ErrPIDFileExists = errors.New("pid file already exists")
	ErrSocketExists  = errors.New("socket path already exists")
)

// Paths describes the process-level surface of one daemon instance.
type Paths struct {
	PIDFile    string
	Network    string // unix, tcp
	Address    string
	SocketMode os.FileMode
}

func (p Paths) unix() bool {
	return p.Network == "unix"
}

// Bootstrap holds the resources claimed at startup: the PID file and the
// bound listener.
type Bootstrap struct {
	paths    Paths
	pidFile  *os.File
	listener net.Listener
}

// Prepare runs the startup checks in order, creates the PID file
// exclusively and binds the listener. Any failure releases what was
// already claimed.
func Prepare(p Paths) (*Bootstrap, error) {
	dir := filepath.Dir(p.PIDFile)
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrPIDDirMissing, dir)
	}
	if p.unix() {
		if _, err := os.Lstat(p.Address); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrSocketExists, p.Address)
		}
	}

	f, err := os.OpenFile(p.PIDFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrPIDFileExists, p.PIDFile)
		}
		return nil, fmt.Errorf("create pid file: %w", err)
	}

	ln, err := net.Listen(p.Network, p.Address)
	if err != nil {
		f.Close()
		os.Remove(p.PIDFile)
		return nil, fmt.Errorf("listen %s %s: %w", p.Network, p.Address, err)
	}
	if p.unix() && p.SocketMode != 0 {
		if err := os.Chmod(p.Address, p.SocketMode); err != nil {
			ln.Close()
			f.Close()
			os.Remove(p.PIDFile)
			return nil, fmt.Errorf("chmod socket: %w", err)
		}
	}

	return &Bootstrap{paths: p, pidFile: f, listener: ln}, nil
}

func (b *Bootstrap) Listener() net.Listener {
	return b.listener
}

// WritePID records pid and closes the PID file handle.
func (b *Bootstrap) WritePID(pid int) error {
	if b.pidFile == nil {
		return errors.New("pid file is not held by this process")
	}
	defer func() {
		b.pidFile.Close()
		b.pidFile = nil
	}()
	if _, err := b.pidFile.WriteString(strconv.Itoa(pid) + "\n"); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// Cleanup closes the listener and removes the PID file and socket path.
func (b *Bootstrap) Cleanup() {
	if b.pidFile != nil {
		b.pidFile.Close()
		b.pidFile = nil
	}
	if b.listener != nil {
		b.listener.Close()
	}
	os.Remove(b.paths.PIDFile)
	if b.paths.unix() {
		os.Remove(b.paths.Address)
	}
}

// ReadPID returns the process id recorded in path.
func ReadPID(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(raw)))
}
