package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/tgifai/sessiond/internal/client"
)

var flushHwd = &FlushRunner{}

type FlushRunner struct{}

func (r *FlushRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:      "flush",
		Usage:     "Ask a running daemon to drop every expired session now",
		ArgsUsage: "<system>",
		Flags:     []cli.Flag{configFlag()},
		Action:    r.run,
	}
}

func (r *FlushRunner) run(ctx context.Context, cmd *cli.Command) error {
	system, err := systemArg(cmd)
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(cmd, system)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	network, address := cfg.Daemon.Endpoint(system)
	if err := client.New(network, address, 2*time.Second).Flush(ctx); err != nil {
		return fmt.Errorf("flush sessiond[%s]: %w", system, err)
	}
	fmt.Printf("sessiond[%s] flushed\n", system)
	return nil
}
