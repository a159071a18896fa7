// Package fanout provides a minimal topic-based publish/subscribe delivery
// engine with synchronous push and a durable per-subscriber fallback queue.
//
// Works both as a library for embedding in your application AND as a
// standalone microservice with a REST API (cmd/fanout-server).
//
// # How it works
//
// Producers publish a JSON message to a named topic. The broker stamps the
// message with the topic and a single publishedAtUtc timestamp, records a
// delivery intent for every subscriber, then attempts a synchronous push to
// each subscriber endpoint. Endpoints that could not be reached keep their
// queued copy and are reported back to the caller; they retrieve their
// backlog later by polling and acknowledge receipt idempotently. The result
// is at-least-once delivery without the broker holding open connections.
//
//  1. PUBLISH
//     Registry resolves topic -> subscriber endpoints
//     Broker stamps the message (one timestamp per publish call)
//     Tracker stores one delivery record per subscriber (before any I/O)
//     Gateway pushes to each endpoint; failures are returned as data
//
//  2. POLL
//     Broker returns all unreceived messages oldest-first
//     Each returned message schedules a delayed receipt confirmation
//
//  3. ACKNOWLEDGE
//     Receipt scheduler marks the record received after a grace delay;
//     confirming an already-received record is a no-op that still succeeds
//
// # Quick Start
//
// In-memory mode (no durability across restarts):
//
//	registry := fanout.NewRegistry()
//	registry.Subscribe("orders", "http://localhost:9001/hook")
//
//	broker, _ := fanout.NewBroker(
//	    fanout.WithTracker(fanout.NewMemoryTracker()),
//	    fanout.WithGateway(fanout.NewHTTPGateway(5*time.Second)),
//	    fanout.WithBrokerLogger(logger),
//	)
//
//	failed, err := broker.Publish(ctx, "orders",
//	    registry.Subscribers("orders"),
//	    model.NewMessage(model.Payload{"orderID": 42}),
//	)
//
// Durable mode stores delivery records in MySQL, PostgreSQL, or SQLite via
// the Relica adapter:
//
//	db, _ := sql.Open("sqlite3", "fanout.db")
//	if err := fanout.ApplyMigrations(db); err != nil {
//	    log.Fatal(err)
//	}
//	tracker := relica.NewDeliveryTracker(db, "sqlite3")
//
// # Guarantees
//
//   - At-least-once delivery: the queue write always precedes the push, so a
//     failed push leaves the message recoverable by polling.
//   - Per-subscriber ordering: polls return messages in ascending
//     publishedAtUtc order. No ordering across subscribers or topics.
//   - Idempotent acknowledgment: re-confirming a received record succeeds
//     without effect.
//
// The poll endpoint trusts the caller-supplied subscriber identity; there is
// no authorization layer in this package. Do not expose it to untrusted
// callers without adding one.
package fanout
