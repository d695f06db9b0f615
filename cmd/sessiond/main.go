package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/tgifai/sessiond/internal/pkg/logs"
)

func main() {
	cmd := &cli.Command{
		Name:      "sessiond",
		Usage:     "In-memory session credential broker",
		ArgsUsage: "<system>",
		Flags:     runHwd.flags(),
		Action:    runHwd.run,
		Commands: []*cli.Command{
			runHwd.cmd(),
			flushHwd.cmd(),
			stopHwd.cmd(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logs.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}
