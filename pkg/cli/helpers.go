/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"

	"github.com/signalfx/agent-test-harness/pkg/logging"
	"github.com/signalfx/agent-test-harness/pkg/serializer"
)

const metricsShutdownTimeout = 5 * time.Second

// Flags shared by every command.
var (
	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		Sources: cli.EnvVars("LOG_LEVEL"),
		Value:   "info",
	}

	metricsAddrFlag = &cli.StringFlag{
		Name:    "metrics-addr",
		Usage:   "Serve Prometheus metrics on this address while the command runs (empty disables)",
		Sources: cli.EnvVars("METRICS_ADDR"),
	}

	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Report file path (default: stdout)",
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Usage:   "Report format: yaml, json, table",
		Value:   string(serializer.FormatTable),
	}
)

// parseOutputFormat extracts and validates the report format from CLI
// flags.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	outFormat := serializer.Format(cmd.String("format"))
	if outFormat.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q, valid formats are: yaml, json, table", outFormat)
	}
	return outFormat, nil
}

// closeSerializer releases a file-backed serializer. Stdout-backed ones
// close to a no-op.
func closeSerializer(s serializer.Serializer) {
	if closer, ok := s.(serializer.Closer); ok {
		if err := closer.Close(); err != nil {
			slog.Warn("failed to close report output", "error", err)
		}
	}
}

// initRuntime configures logging and the optional metrics listener from
// the shared flags. The returned stop function shuts the listener down.
func initRuntime(cmd *cli.Command) (func(), error) {
	logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date)

	addr := cmd.String("metrics-addr")
	if addr == "" {
		return func() {}, nil
	}
	stop, bound, err := startMetrics(addr)
	if err != nil {
		return nil, err
	}
	slog.Info("metrics listening", "addr", bound)
	return stop, nil
}

// startMetrics serves Prometheus metrics on addr until the returned stop
// function is called. bound is the resolved listen address, so ":0"
// style addresses stay usable.
func startMetrics(addr string) (stop func(), bound string, err error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics listener failed", "error", err)
		}
	}()

	stop = func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return stop, ln.Addr().String(), nil
}
