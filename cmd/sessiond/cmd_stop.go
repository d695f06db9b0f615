package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/tgifai/sessiond/internal/daemon"
)

var stopHwd = &StopRunner{}

type StopRunner struct{}

func (r *StopRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:      "stop",
		Usage:     "Send SIGTERM to the daemon recorded in the system's PID file",
		ArgsUsage: "<system>",
		Flags:     []cli.Flag{configFlag()},
		Action:    r.run,
	}
}

func (r *StopRunner) run(_ context.Context, cmd *cli.Command) error {
	system, err := systemArg(cmd)
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(cmd, system)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pidPath := cfg.Daemon.PIDPath(system)
	pid, err := daemon.ReadPID(pidPath)
	if err != nil {
		return fmt.Errorf("read pid file %s: %w", pidPath, err)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal sessiond[%s] pid %d: %w", system, pid, err)
	}
	fmt.Printf("sessiond[%s] pid %d asked to stop\n", system, pid)
	return nil
}
