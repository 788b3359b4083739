// Package backend provides a fake SignalFx ingest backend for agent tests.
//
// The backend runs two HTTP listeners on ephemeral ports: an ingest
// listener accepting datapoint and event submissions, and an API listener
// answering the agent's metadata probes. Everything received is accumulated
// in memory so tests can assert on the exact telemetry the agent emitted.
//
// # Usage
//
//	bk, err := backend.Start(ctx, backend.Options{})
//	if err != nil {
//		return err
//	}
//	defer bk.Close()
//
//	deployAgentPointedAt(bk.IngestHost, bk.IngestPort)
//
//	if !wait.For(ctx, func() bool { return bk.HasMetric("disk_ops.read") }, timeout, interval) {
//		t.Fatal("no disk metrics received")
//	}
//
// The accumulated slices grow without bound; call Reset between test
// phases that assert on counts.
package backend
