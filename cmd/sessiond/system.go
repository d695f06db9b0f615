package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/tgifai/sessiond/internal/config"
	"github.com/tgifai/sessiond/internal/consts"
	"github.com/tgifai/sessiond/internal/session"
)

// systemArg returns the positional system name that namespaces the socket
// and PID paths.
func systemArg(cmd *cli.Command) (string, error) {
	system := strings.TrimSpace(cmd.Args().First())
	if system == "" {
		return "", errors.New("system name is required")
	}
	if !session.ValidName(system) {
		return "", fmt.Errorf("invalid system name %q: use letters, digits, '_' and '-'", system)
	}
	return system, nil
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Config file (default /etc/<system>/sessiond.yaml, optional)",
	}
}

// loadConfig reads --config when given, otherwise the per-system default
// path, which may be absent.
func loadConfig(cmd *cli.Command, system string) (*config.Config, string, error) {
	if path := strings.TrimSpace(cmd.String("config")); path != "" {
		cfg, err := config.Load(path, false)
		return cfg, path, err
	}
	path := consts.DefaultConfigPath(system)
	cfg, err := config.Load(path, true)
	return cfg, path, err
}
