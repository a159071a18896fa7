// Package relica provides the durable DeliveryTracker implementation using
// the Relica query builder.
//
// Relica (github.com/coregx/relica) is a lightweight, type-safe database
// query builder for Go with zero production dependencies. The tracker works
// against MySQL, PostgreSQL, and SQLite.
//
// Example usage:
//
//	import (
//	    "database/sql"
//	    "github.com/coregx/fanout"
//	    "github.com/coregx/fanout/adapters/relica"
//	    _ "github.com/mattn/go-sqlite3"
//	)
//
//	db, err := sql.Open("sqlite3", "fanout.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := fanout.ApplyMigrations(db); err != nil {
//	    log.Fatal(err)
//	}
//
//	tracker := relica.NewDeliveryTracker(db, "sqlite3")
//	broker, err := fanout.NewBroker(
//	    fanout.WithTracker(tracker),
//	    fanout.WithGateway(fanout.NewHTTPGateway(5*time.Second)),
//	    fanout.WithBrokerLogger(logger),
//	)
package relica
