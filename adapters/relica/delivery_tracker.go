package relica

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coregx/fanout"
	"github.com/coregx/fanout/model"
	"github.com/coregx/relica"
)

// pollPageSize is the page size for the keyed scan in PollMessages.
const pollPageSize = 100

// DeliveryTracker implements fanout.DeliveryTracker on a SQL database via
// Relica. Records live in the <prefix>delivery table, keyed by the unique
// (subscriber, published_at) pair; a re-store with the same key overwrites
// the row instead of duplicating it.
type DeliveryTracker struct {
	db          *relica.DB
	tablePrefix string
}

// NewDeliveryTracker creates a tracker with the default "fanout_" table
// prefix. The driverName should be "mysql", "postgres", or "sqlite3".
func NewDeliveryTracker(sqlDB *sql.DB, driverName string) *DeliveryTracker {
	return &DeliveryTracker{
		db:          relica.WrapDB(sqlDB, driverName),
		tablePrefix: "fanout_",
	}
}

// NewDeliveryTrackerWithPrefix creates a tracker with a custom table prefix.
func NewDeliveryTrackerWithPrefix(sqlDB *sql.DB, driverName, prefix string) *DeliveryTracker {
	return &DeliveryTracker{
		db:          relica.WrapDB(sqlDB, driverName),
		tablePrefix: prefix,
	}
}

func (t *DeliveryTracker) tableName() string {
	return t.tablePrefix + "delivery"
}

// StoreMessages upserts one unreceived delivery record per subscriber.
// Any failure surfaces as a hard error: the caller must treat bookkeeping
// for the batch as being in an unknown state.
func (t *DeliveryTracker) StoreMessages(ctx context.Context, subscribers []string, msg model.Message) error {
	for _, subscriber := range subscribers {
		record, err := model.NewDeliveryRecord(subscriber, msg)
		if err != nil {
			return fanout.NewErrorWithCause(fanout.ErrCodeDatabase, "failed to encode delivery record", err)
		}

		existing, err := t.loadByKey(ctx, subscriber, msg.PublishedAt())
		if err != nil && !fanout.IsNoData(err) {
			return err
		}

		if fanout.IsNoData(err) {
			if err := t.db.WithContext(ctx).Model(&record).Table(t.tableName()).Insert(); err != nil {
				return fanout.NewErrorWithCause(fanout.ErrCodeDatabase, "failed to insert delivery record", err)
			}
			continue
		}

		// Same key: overwrite, resetting the received flag. Idempotent
		// re-insertion, not accidental collision.
		existing.Message = record.Message
		existing.Received = false
		if err := t.db.WithContext(ctx).Model(&existing).Table(t.tableName()).Update(); err != nil {
			return fanout.NewErrorWithCause(fanout.ErrCodeDatabase, "failed to overwrite delivery record", err)
		}
	}
	return nil
}

// PollMessages returns the payloads of all unreceived records for the
// subscriber, ascending by published_at, paging through the result set on
// the ordering key. Records are left unreceived; acknowledgment is a
// separate, explicit step.
func (t *DeliveryTracker) PollMessages(ctx context.Context, subscriber string) ([]model.Message, error) {
	var records []model.DeliveryRecord
	lastSeen := ""

	for {
		var page []model.DeliveryRecord
		err := t.db.WithContext(ctx).Select("*").
			From(t.tableName()).
			Where("subscriber = ? AND received = ? AND published_at > ?", subscriber, false, lastSeen).
			OrderBy("published_at ASC").
			Limit(int64(pollPageSize)).
			WithContext(ctx).
			All(&page)
		if err != nil {
			return nil, fanout.NewErrorWithCause(fanout.ErrCodeDatabase, "failed to poll delivery records", err)
		}

		records = append(records, page...)
		if len(page) < pollPageSize {
			break
		}
		lastSeen = page[len(page)-1].PublishedAt
	}

	messages := make([]model.Message, 0, len(records))
	for i := range records {
		msg, err := records[i].DecodeMessage()
		if err != nil {
			return nil, fanout.NewErrorWithCause(fanout.ErrCodeDatabase, "failed to decode stored message", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// SetMessageReceived flips the record with the exact key to received.
// Reads the current row first so confirming an already-received record is
// an idempotent success; the flip itself is conditional on received still
// being false, so a concurrent confirmation is never re-applied.
func (t *DeliveryTracker) SetMessageReceived(ctx context.Context, subscriber, publishedAt string) (bool, error) {
	record, err := t.loadByKey(ctx, subscriber, publishedAt)
	if err != nil {
		return false, err
	}

	if record.Received {
		return true, nil
	}

	_, err = t.db.WithContext(ctx).Update(t.tableName()).
		Set(map[string]interface{}{
			"received": true,
		}).
		Where("subscriber = ? AND published_at = ? AND received = ?", subscriber, publishedAt, false).
		WithContext(ctx).
		Execute()
	if err != nil {
		return false, fanout.NewErrorWithCause(fanout.ErrCodeDatabase, "failed to mark delivery record received", err)
	}
	return true, nil
}

// DiscardDelivered is a no-op for the durable tracker: records persist
// until explicitly acknowledged, and a successful push is only a delivery
// signal to the immediate caller.
func (t *DeliveryTracker) DiscardDelivered(_ context.Context, _, _ string) error {
	return nil
}

func (t *DeliveryTracker) loadByKey(ctx context.Context, subscriber, publishedAt string) (model.DeliveryRecord, error) {
	var record model.DeliveryRecord

	err := t.db.WithContext(ctx).Select("*").
		From(t.tableName()).
		Where("subscriber = ? AND published_at = ?", subscriber, publishedAt).
		WithContext(ctx).
		One(&record)

	if errors.Is(err, sql.ErrNoRows) {
		return record, fanout.ErrNoData
	}
	if err != nil {
		return record, fanout.NewErrorWithCause(fanout.ErrCodeDatabase, "failed to load delivery record", err)
	}
	return record, nil
}
