/*
Copyright © 2025 SignalFx
SPDX-License-Identifier: Apache-2.0
*/
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Options configures a fake backend.
type Options struct {
	// Host is the address both listeners bind to. It must be reachable
	// from wherever the agent runs; for an agent inside a nested cluster
	// that means a host IP, not loopback. Defaults to 127.0.0.1.
	Host string
}

// Backend is a running fake ingest backend. Address fields are immutable
// after Start.
type Backend struct {
	// RunID correlates this backend's log lines within a test session.
	RunID string

	// IngestHost and IngestPort address the datapoint/event listener.
	IngestHost string
	IngestPort int

	// APIHost and APIPort address the metadata API listener.
	APIHost string
	APIPort int

	ingest *http.Server
	api    *http.Server
	group  *errgroup.Group

	mu         sync.RWMutex
	datapoints []Datapoint
	events     []Event
}

// Start launches the ingest and API listeners on ephemeral ports and
// returns once both are accepting connections.
func Start(ctx context.Context, opts Options) (*Backend, error) {
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}

	ingestLn, err := net.Listen("tcp", net.JoinHostPort(opts.Host, "0"))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for ingest: %w", err)
	}
	apiLn, err := net.Listen("tcp", net.JoinHostPort(opts.Host, "0"))
	if err != nil {
		ingestLn.Close()
		return nil, fmt.Errorf("failed to listen for api: %w", err)
	}

	b := &Backend{
		RunID:      uuid.NewString(),
		IngestHost: opts.Host,
		IngestPort: ingestLn.Addr().(*net.TCPAddr).Port,
		APIHost:    opts.Host,
		APIPort:    apiLn.Addr().(*net.TCPAddr).Port,
	}
	b.ingest = &http.Server{Handler: b.ingestMux(), ReadTimeout: 10 * time.Second}
	b.api = &http.Server{Handler: b.apiMux(), ReadTimeout: 10 * time.Second}

	b.group, _ = errgroup.WithContext(ctx)
	b.group.Go(func() error { return serve(b.ingest, ingestLn) })
	b.group.Go(func() error { return serve(b.api, apiLn) })

	slog.Info("fake backend listening",
		slog.String("run_id", b.RunID),
		slog.String("ingest", b.IngestURL()),
		slog.String("api", b.APIURL()))
	return b, nil
}

func serve(srv *http.Server, ln net.Listener) error {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// IngestURL returns the base URL of the ingest listener.
func (b *Backend) IngestURL() string {
	return "http://" + net.JoinHostPort(b.IngestHost, strconv.Itoa(b.IngestPort))
}

// APIURL returns the base URL of the API listener.
func (b *Backend) APIURL() string {
	return "http://" + net.JoinHostPort(b.APIHost, strconv.Itoa(b.APIPort))
}

// Close shuts both listeners down gracefully and waits for the serve
// goroutines to finish.
func (b *Backend) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	ingestErr := b.ingest.Shutdown(ctx)
	apiErr := b.api.Shutdown(ctx)
	if err := b.group.Wait(); err != nil {
		return err
	}
	if ingestErr != nil {
		return ingestErr
	}
	return apiErr
}

// Datapoints returns a copy of every datapoint received so far.
func (b *Backend) Datapoints() []Datapoint {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Datapoint, len(b.datapoints))
	copy(out, b.datapoints)
	return out
}

// Events returns a copy of every event received so far.
func (b *Backend) Events() []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// HasMetric reports whether any received datapoint carries the given
// metric name.
func (b *Backend) HasMetric(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, dp := range b.datapoints {
		if dp.Metric == name {
			return true
		}
	}
	return false
}

// Reset discards everything accumulated so far.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.datapoints = nil
	b.events = nil
}

func (b *Backend) ingestMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/datapoint", b.handleDatapoints)
	mux.HandleFunc("/v2/event", b.handleEvents)
	return mux
}

func (b *Backend) apiMux() http.Handler {
	mux := http.NewServeMux()
	// The agent probes the API for dimension metadata updates. Accepting
	// them with an empty body keeps it from logging retry noise.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (b *Backend) handleDatapoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var batch datapointBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	count := 0
	b.mu.Lock()
	for metricType, dps := range batch {
		for _, dp := range dps {
			dp.MetricType = metricType
			b.datapoints = append(b.datapoints, dp)
			count++
		}
	}
	b.mu.Unlock()

	datapointsReceived.Add(float64(count))
	slog.Debug("datapoints received",
		slog.String("run_id", b.RunID), slog.Int("count", count))
	w.WriteHeader(http.StatusOK)
}

func (b *Backend) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var events []Event
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	b.events = append(b.events, events...)
	b.mu.Unlock()

	eventsReceived.Add(float64(len(events)))
	slog.Debug("events received",
		slog.String("run_id", b.RunID), slog.Int("count", len(events)))
	w.WriteHeader(http.StatusOK)
}
