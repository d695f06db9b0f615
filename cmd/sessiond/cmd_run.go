package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/tgifai/sessiond/internal/admin"
	"github.com/tgifai/sessiond/internal/client"
	"github.com/tgifai/sessiond/internal/config"
	"github.com/tgifai/sessiond/internal/daemon"
	"github.com/tgifai/sessiond/internal/pkg/logs"
	"github.com/tgifai/sessiond/internal/pkg/prometheus"
	"github.com/tgifai/sessiond/internal/protocol"
	"github.com/tgifai/sessiond/internal/session"
	"github.com/tgifai/sessiond/internal/sweep"
)

const stopTimeout = 5 * time.Second

var runHwd = &DaemonRunner{}

type DaemonRunner struct{}

func (r *DaemonRunner) flags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		&cli.BoolFlag{
			Name:  "foreground",
			Usage: "Stay attached to the terminal instead of forking into the background",
		},
	}
}

func (r *DaemonRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Start the session daemon for a system",
		ArgsUsage: "<system>",
		Flags:     r.flags(),
		Action:    r.run,
	}
}

func (r *DaemonRunner) run(ctx context.Context, cmd *cli.Command) error {
	system, err := systemArg(cmd)
	if err != nil {
		return err
	}
	cfg, cfgPath, err := loadConfig(cmd, system)
	if err != nil {
		return fmt.Errorf("loading config error: %w", err)
	}
	if err = r.initLogger(cfg.Logging); err != nil {
		return fmt.Errorf("init logger error: %w", err)
	}

	network, address := cfg.Daemon.Endpoint(system)
	paths := daemon.Paths{
		PIDFile:    cfg.Daemon.PIDPath(system),
		Network:    network,
		Address:    address,
		SocketMode: cfg.Daemon.FileMode(),
	}

	var boot *daemon.Bootstrap
	if daemon.IsChild() {
		if boot, err = daemon.Inherit(paths); err != nil {
			return err
		}
	} else {
		if boot, err = daemon.Prepare(paths); err != nil {
			return err
		}
		if !cmd.Bool("foreground") {
			pid, err := daemon.Daemonize(boot, os.Args[1:])
			if err != nil {
				boot.Cleanup()
				return err
			}
			fmt.Printf("sessiond[%s] started in background, pid %d\n", system, pid)
			return nil
		}
		if err = boot.WritePID(os.Getpid()); err != nil {
			boot.Cleanup()
			return err
		}
	}
	defer boot.Cleanup()

	logs.CtxInfo(ctx, "booting sessiond[%s], config %s (%s), pid %d", system, cfgPath, cfg.Hash()[:12], os.Getpid())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := session.NewStore(
		session.WithGenerator(session.RandomID(cfg.Session.IDBytes)),
		session.WithLimits(cfg.Session.MaxIdleDuration(), cfg.Session.MaxLifetimeDuration()),
	)
	srv := daemon.NewServer(boot.Listener(), protocol.NewHandler(store, prometheus.GetMetrics()), daemon.Options{
		ReadTimeout:     cfg.Daemon.ReadTimeout(),
		WriteTimeout:    cfg.Daemon.WriteTimeout(),
		MaxRequestBytes: cfg.Daemon.MaxRequestBytes,
	})

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ctx) }()

	loopback := client.New(network, address, stopTimeout)

	var scheduler *sweep.Scheduler
	if *cfg.Sweep.Enabled {
		if scheduler, err = sweep.NewScheduler(cfg.Sweep.Schedule, loopback.Flush); err != nil {
			return fmt.Errorf("create sweep scheduler: %w", err)
		}
		if err = scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start sweep scheduler: %w", err)
		}
	}

	var adminSrv *admin.Server
	if cfg.Admin.Bind != "" {
		adminSrv = admin.New(cfg.Admin, loopback)
		adminSrv.Start(ctx)
	}

	logs.CtxInfo(ctx, "ALL IS WELL!!! sessiond[%s] is serving.", system)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	loopDone := false
	select {
	case sig := <-signalCh:
		logs.CtxInfo(ctx, "Received shutdown signal (%s). Stopping sessiond...", sig.String())
	case err := <-serveErr:
		loopDone = true
		logs.CtxWarn(ctx, "accept loop exited: %v", err)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()

	if adminSrv != nil {
		adminSrv.Stop(stopCtx)
	}
	if scheduler != nil {
		scheduler.Stop(stopCtx)
	}
	if err := srv.Close(); err != nil && !loopDone {
		logs.CtxWarn(ctx, "close listener error: %v", err)
	}
	if !loopDone {
		select {
		case <-serveErr:
		case <-stopCtx.Done():
			logs.CtxWarn(ctx, "accept loop did not finish in %v", stopTimeout)
		}
	}
	cancel()

	logs.CtxInfo(ctx, "all stopped, good bye!")
	return nil
}

func (r *DaemonRunner) initLogger(cfg config.LoggingConfig) error {
	return logs.Init(logs.Options{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     cfg.Output,
		File:       cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
	})
}
