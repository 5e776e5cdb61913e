package eventstore

import (
	"errors"
)

var ErrConcurrencyConflict = errors.New("concurrency error, no rows were affected")
var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
var ErrEmptyEventsTableName = errors.New("events table name must not be empty")
var ErrQueryingEventsFailed = errors.New("querying events failed")
var ErrAppendingEventFailed = errors.New("appending event failed")
var ErrBuildingQueryFailed = errors.New("building query failed")
var ErrScanningDBRowFailed = errors.New("scanning db row failed")
var ErrBuildingStorableEventFailed = errors.New("building storable event failed")
var ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")

// MaxSequenceNumberUint is a type alias for uint, representing the highest sequence number among the
// events matched by a Filter.
type MaxSequenceNumberUint = uint
