package sqliteengine

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/AntonStoeckl/lendingdesk/eventstore"
)

const (
	driverName             = "sqlite"
	inMemoryDSN            = ":memory:"
	dialectSQLite          = "sqlite3"
	defaultEventTableName  = "events"
	colSequenceNumber      = "sequence_number"
	colEventType           = "event_type"
	colOccurredAt          = "occurred_at"
	colPayload             = "payload"
	colMetadata            = "metadata"
	aliasMaxSeq            = "max_seq"
	jsonPredicateLiteral   = "json_extract(" + colPayload + ", ?) = ?"
	logMsgSQLExecuted      = "executed sql for: "
	logMsgOperation        = "eventstore operation: "
	logMsgQueryCompleted   = "query completed"
	logMsgEventsAppended   = "events appended"
	logMsgConflict         = "concurrency conflict detected"
	logMsgBuildQueryFailed = "failed to build query"
	logMsgDBQueryFailed    = "database query execution failed"
	logMsgDBExecFailed     = "database execution failed during event append"
	logMsgRollbackFailed   = "failed to roll back append transaction"
	logAttrError           = "error"
	logAttrQuery           = "query"
	logAttrEventCount      = "event_count"
	logAttrDurationMS      = "duration_ms"
	logAttrExpectedSeq     = "expected_sequence"
	logAttrActualSeq       = "actual_sequence"
	logActionQuery         = "query"
	logActionAppend        = "append"
)

type sqlQueryString = string

// EventStore stores events in a SQLite table.
type EventStore struct {
	db             *sqlx.DB
	eventTableName string
	logger         eventstore.Logger
	ownsDB         bool
}

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore) error

// WithTableName sets the table name for the EventStore.
func WithTableName(tableName string) Option {
	return func(es *EventStore) error {
		if tableName == "" {
			return eventstore.ErrEmptyEventsTableName
		}

		es.eventTableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the EventStore.
//
// Debug level: SQL statements with execution timing
// Info level: event counts, concurrency conflicts
// Warn level: rollback failures
// Error level: failures that abort an operation.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) error {
		es.logger = logger
		return nil
	}
}

type eventRow struct {
	SequenceNumber int64  `db:"sequence_number"`
	EventType      string `db:"event_type"`
	OccurredAt     int64  `db:"occurred_at"`
	Payload        string `db:"payload"`
	Metadata       string `db:"metadata"`
}

// NewInMemoryEventStore opens a private in-memory SQLite database and creates the events table.
// The pool is pinned to one connection because every SQLite connection to ":memory:" sees a
// database of its own.
func NewInMemoryEventStore(ctx context.Context, options ...Option) (*EventStore, error) {
	db, err := sqlx.Open(driverName, inMemoryDSN)
	if err != nil {
		return nil, errors.Join(eventstore.ErrNilDatabaseConnection, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	es, err := NewEventStoreFromSQLX(ctx, db, options...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	es.ownsDB = true

	return es, nil
}

// NewEventStoreFromSQLX creates an EventStore on an existing SQLite handle and makes sure the events table exists.
func NewEventStoreFromSQLX(ctx context.Context, db *sqlx.DB, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	es := &EventStore{
		db:             db,
		eventTableName: defaultEventTableName,
	}

	for _, option := range options {
		if err := option(es); err != nil {
			return nil, err
		}
	}

	if err := es.migrate(ctx); err != nil {
		return nil, err
	}

	return es, nil
}

// Close releases the database if the EventStore opened it itself.
func (es *EventStore) Close() error {
	if es == nil || !es.ownsDB {
		return nil
	}

	return es.db.Close()
}

func (es *EventStore) migrate(ctx context.Context) error {
	// goqu has no DDL builder.
	schema := `CREATE TABLE IF NOT EXISTS "` + es.eventTableName + `" (
	` + colSequenceNumber + ` INTEGER PRIMARY KEY AUTOINCREMENT,
	` + colEventType + ` TEXT NOT NULL,
	` + colOccurredAt + ` INTEGER NOT NULL,
	` + colPayload + ` TEXT NOT NULL,
	` + colMetadata + ` TEXT NOT NULL
)`

	if _, err := es.db.ExecContext(ctx, schema); err != nil {
		return errors.Join(eventstore.ErrBuildingQueryFailed, err)
	}

	return nil
}

// Query retrieves the events matching filter in sequence order
// and the highest sequence number among them (0 if none match).
func (es *EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	sqlQuery, args, buildErr := es.buildSelectQuery(filter)
	if buildErr != nil {
		es.logError(logMsgBuildQueryFailed, logAttrError, buildErr.Error())
		return nil, 0, buildErr
	}

	rows := make([]eventRow, 0)

	start := time.Now()
	queryErr := es.db.SelectContext(ctx, &rows, sqlQuery, args...)
	duration := time.Since(start)
	es.logQueryWithDuration(sqlQuery, logActionQuery, duration)

	if queryErr != nil {
		es.logError(logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		return nil, 0, errors.Join(eventstore.ErrQueryingEventsFailed, queryErr)
	}

	events := make(eventstore.StorableEvents, 0, len(rows))
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for _, row := range rows {
		event, err := eventstore.BuildStorableEvent(
			row.EventType,
			time.Unix(0, row.OccurredAt).UTC(),
			[]byte(row.Payload),
			[]byte(row.Metadata),
		)
		if err != nil {
			return nil, 0, errors.Join(eventstore.ErrBuildingStorableEventFailed, err)
		}

		event.SequenceNumber = eventstore.MaxSequenceNumberUint(row.SequenceNumber)
		events = append(events, event)
		maxSequenceNumber = event.SequenceNumber
	}

	es.logOperation(
		logMsgQueryCompleted,
		logAttrEventCount, len(events),
		logAttrDurationMS, durationToMilliseconds(duration),
	)

	return events, maxSequenceNumber, nil
}

// Append inserts one or more events atomically if the highest sequence number among the events
// matching filter still equals expectedMaxSequenceNumber.
func (es *EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	allEvents := append(eventstore.StorableEvents{event}, additionalEvents...)

	maxSeqQuery, maxSeqArgs, buildErr := es.buildMaxSequenceQuery(filter)
	if buildErr != nil {
		es.logError(logMsgBuildQueryFailed, logAttrError, buildErr.Error())
		return buildErr
	}

	insertQuery, insertArgs, buildErr := es.buildInsertQuery(allEvents)
	if buildErr != nil {
		es.logError(logMsgBuildQueryFailed, logAttrError, buildErr.Error())
		return buildErr
	}

	start := time.Now()

	tx, err := es.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	var actual int64
	if err = tx.GetContext(ctx, &actual, maxSeqQuery, maxSeqArgs...); err != nil {
		es.rollback(tx)
		es.logError(logMsgDBQueryFailed, logAttrError, err.Error(), logAttrQuery, maxSeqQuery)
		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	if eventstore.MaxSequenceNumberUint(actual) != expectedMaxSequenceNumber {
		es.rollback(tx)
		es.logOperation(logMsgConflict, logAttrExpectedSeq, expectedMaxSequenceNumber, logAttrActualSeq, actual)
		return eventstore.ErrConcurrencyConflict
	}

	if _, err = tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		es.rollback(tx)
		es.logError(logMsgDBExecFailed, logAttrError, err.Error(), logAttrQuery, insertQuery)
		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	if err = tx.Commit(); err != nil {
		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	duration := time.Since(start)
	es.logQueryWithDuration(insertQuery, logActionAppend, duration)
	es.logOperation(
		logMsgEventsAppended,
		logAttrEventCount, len(allEvents),
		logAttrDurationMS, durationToMilliseconds(duration),
	)

	return nil
}

func (es *EventStore) buildSelectQuery(filter eventstore.Filter) (sqlQueryString, []any, error) {
	selectStmt := goqu.Dialect(dialectSQLite).
		From(es.eventTableName).
		Prepared(true).
		Select(colSequenceNumber, colEventType, colOccurredAt, colPayload, colMetadata).
		Order(goqu.I(colSequenceNumber).Asc())

	sqlQuery, args, err := es.addWhereClause(filter, selectStmt).ToSQL()
	if err != nil {
		return "", nil, errors.Join(eventstore.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, args, nil
}

func (es *EventStore) buildMaxSequenceQuery(filter eventstore.Filter) (sqlQueryString, []any, error) {
	selectStmt := goqu.Dialect(dialectSQLite).
		From(es.eventTableName).
		Prepared(true).
		Select(goqu.COALESCE(goqu.MAX(colSequenceNumber), 0).As(aliasMaxSeq))

	sqlQuery, args, err := es.addWhereClause(filter, selectStmt).ToSQL()
	if err != nil {
		return "", nil, errors.Join(eventstore.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, args, nil
}

func (es *EventStore) buildInsertQuery(events eventstore.StorableEvents) (sqlQueryString, []any, error) {
	rows := make([]any, 0, len(events))

	for _, event := range events {
		rows = append(rows, goqu.Record{
			colEventType:  event.EventType,
			colOccurredAt: event.OccurredAt.UnixNano(),
			colPayload:    string(event.PayloadJSON),
			colMetadata:   string(event.MetadataJSON),
		})
	}

	sqlQuery, args, err := goqu.Dialect(dialectSQLite).
		Insert(es.eventTableName).
		Prepared(true).
		Rows(rows...).
		ToSQL()
	if err != nil {
		return "", nil, errors.Join(eventstore.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, args, nil
}

// addWhereClause ORs the filter items. An item without event types and predicates matches
// everything, and so does an empty filter, in which case no WHERE is added.
func (es *EventStore) addWhereClause(filter eventstore.Filter, selectStmt *goqu.SelectDataset) *goqu.SelectDataset {
	itemsExpressions := make([]goqu.Expression, 0)

	for _, item := range filter.Items() {
		parts := make([]goqu.Expression, 0, 2)

		if len(item.EventTypes()) > 0 {
			eventTypes := make([]any, 0, len(item.EventTypes()))
			for _, eventType := range item.EventTypes() {
				eventTypes = append(eventTypes, eventType)
			}

			parts = append(parts, goqu.C(colEventType).In(eventTypes...))
		}

		if len(item.Predicates()) > 0 {
			predicateExpressions := make([]goqu.Expression, 0, len(item.Predicates()))
			for _, predicate := range item.Predicates() {
				predicateExpressions = append(
					predicateExpressions,
					goqu.L(jsonPredicateLiteral, "$."+predicate.Key(), predicate.Val()),
				)
			}

			if item.AllPredicatesMustMatch() {
				parts = append(parts, goqu.And(predicateExpressions...))
			} else {
				parts = append(parts, goqu.Or(predicateExpressions...))
			}
		}

		if len(parts) == 0 {
			return selectStmt
		}

		itemsExpressions = append(itemsExpressions, goqu.And(parts...))
	}

	if len(itemsExpressions) == 0 {
		return selectStmt
	}

	return selectStmt.Where(goqu.Or(itemsExpressions...))
}

func (es *EventStore) rollback(tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil && es.logger != nil {
		es.logger.Warn(logMsgRollbackFailed, logAttrError, err.Error())
	}
}

func (es *EventStore) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if es.logger != nil {
		es.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, durationToMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

func (es *EventStore) logOperation(action string, args ...any) {
	if es.logger != nil {
		es.logger.Info(logMsgOperation+action, args...)
	}
}

func (es *EventStore) logError(msg string, args ...any) {
	if es.logger != nil {
		es.logger.Error(msg, args...)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
