//go:build !windows

package daemon

import "syscall"

const backgroundSupported = true

func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
