//go:build windows

package daemon

import "syscall"

const backgroundSupported = false

func detachAttr() *syscall.SysProcAttr {
	return nil
}
