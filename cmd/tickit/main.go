// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command tickit is a minimal, config-driven entry point over the tickit
// kernel: load a wiring configuration, build the router and master
// scheduler, and run until shutdown. It is explicitly a thin demonstration
// binary — the device-behavior library, the TCP/HTTP/EPICS adapter layer,
// and concrete transport bindings beyond the bundled in-process/Kafka
// variants remain external collaborators (spec §1).
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/db47h/tickit"
	"github.com/db47h/tickit/config"
	"github.com/db47h/tickit/metrics"
	"github.com/db47h/tickit/stateif"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		timeoutMS   int
		logLevel    string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "tickit",
		Short: "Run a tickit simulation described by a configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.New()
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(lvl)
			entry := logrus.NewEntry(log)

			var rec tickit.TickRecorder
			if metricsAddr != "" {
				reg := prometheus.NewRegistry()
				r := metrics.NewRecorder(reg)
				setupMetricsEndpoint(metricsAddr, reg, entry)
				rec = r
			}

			return run(cmd.Context(), configPath, time.Duration(timeoutMS)*time.Millisecond, entry, rec)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "tickit.yaml", "path to the wiring configuration file")
	flags.IntVarP(&timeoutMS, "tick-timeout-ms", "t", 0, "per-tick component timeout in milliseconds (0 uses the config's tick_timeout_ms; disabled if that is also <= 0)")
	flags.StringVarP(&logLevel, "log-level", "l", "info", "logrus log level")
	flags.StringVarP(&metricsAddr, "metrics-addr", "m", "", "address to serve Prometheus /metrics on (empty disables)")

	return cmd
}

// setupMetricsEndpoint serves reg's collectors on addr, the same
// handler-plus-background-server shape as flightctl's devicesimulator.
func setupMetricsEndpoint(addr string, reg *prometheus.Registry, log *logrus.Entry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
}

// builtinFactories is the demonstration registry: the single "echo" kind
// republishes its initial inputs once at startup and otherwise does
// nothing. Anything beyond this toy is supplied by the (external) device
// behavior library through the same config.Factory seam.
var builtinFactories = map[string]config.Factory{
	"echo": func(decl config.Component) (tickit.Component, error) {
		sent := false
		return tickit.ComponentFn(func(ctx context.Context, in tickit.Input) (tickit.Output, error) {
			if sent {
				return tickit.Output{Time: in.Time}, nil
			}
			sent = true
			ch := make(tickit.Changes, len(in.Inputs))
			for p, v := range in.Inputs {
				ch[p] = v
			}
			return tickit.Output{Time: in.Time, Changes: ch}, nil
		}), nil
	},
}

func run(ctx context.Context, configPath string, timeout time.Duration, log *logrus.Entry, rec tickit.TickRecorder) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.TickTimeoutMS > 0 && timeout == 0 {
		timeout = time.Duration(cfg.TickTimeoutMS) * time.Millisecond
	}

	handles, links, err := config.Build(cfg, builtinFactories)
	if err != nil {
		return err
	}

	ids := make([]tickit.ComponentId, 0, len(handles))
	for _, h := range handles {
		ids = append(ids, h.Id)
	}
	router, err := tickit.NewRouter(ids, links)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Every component is bridged onto the configured transport (spec §4.6):
	// the scheduler only ever talks to a stateif.Dispatcher, never directly
	// to a Component.HandleInput. With the default internal transport this
	// is a same-process round trip through a buffered channel; with Kafka
	// configured it is what lets components run in separate OS processes.
	si, err := config.BuildStateInterface(cfg.Transport)
	if err != nil {
		return err
	}
	defer si.Close()

	for _, h := range handles {
		h := h
		go func() {
			if err := stateif.RunComponent(ctx, si, h.Id, h.Component); err != nil {
				log.WithField("component", h.Id).WithError(err).Warn("component bridge stopped")
			}
		}()
	}
	dispatcher := stateif.NewDispatcher(si)
	defer dispatcher.Close()

	master, err := tickit.NewMaster(router, handles, dispatcher.Dispatch, timeout, log, rec)
	if err != nil {
		return err
	}

	runErr := master.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := master.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("error during shutdown")
	}

	return runErr
}
