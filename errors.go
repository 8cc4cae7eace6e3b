package mariadb

import (
	"errors"
	"fmt"
)

// Error kinds reported by the result set. Use errors.Is to test for them.
var (
	// ErrIndexOutOfRange is returned when a column index is not below the
	// result's column count.
	ErrIndexOutOfRange = errors.New("mariadb: column index out of range")

	// ErrNoRow is returned by typed getters when no row is currently
	// fetched: before the first Next or after the cursor is exhausted.
	ErrNoRow = errors.New("mariadb: no row was fetched")

	// ErrOverflow is returned when a value does not fit the requested type.
	ErrOverflow = errors.New("mariadb: numeric overflow")

	// ErrFetchFailed wraps client library errors raised while storing,
	// binding or fetching a result.
	ErrFetchFailed = errors.New("mariadb: fetch failed")

	// ErrInvalidValue is returned when a textual cell cannot be parsed as
	// the requested type.
	ErrInvalidValue = errors.New("mariadb: invalid value")

	// ErrClosed is returned when a closed connection, statement or result
	// set is used.
	ErrClosed = errors.New("mariadb: use of closed handle")
)

// Error represents a diagnostic reported by the MariaDB client library.
type Error struct {
	Code     uint32
	SQLState string
	Message  string
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s (error %d)", e.SQLState, e.Message, e.Code)
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// ColumnError wraps a conversion failure with the column it happened on.
type ColumnError struct {
	Index int
	Name  string
	Err   error
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *ColumnError) Unwrap() error {
	return e.Err
}

// Client error codes (errmsg.h) and server codes worth recognising.
const (
	CRUnknownError        = 2000
	CRConnectionError     = 2002
	CRConnHostError       = 2003
	CRServerGoneError     = 2006
	CROutOfMemory         = 2008
	CRServerLost          = 2013
	CRCommandsOutOfSync   = 2014
	CRNoData              = 2051
	ERLockWaitTimeout     = 1205
	ERLockDeadlock        = 1213
	ERQueryInterrupted    = 1317
	ERNoSuchTable         = 1146
	ERDupEntry            = 1062
	ERParseError          = 1064
	ERAccessDeniedError   = 1045
	ERBadFieldError       = 1054
	ERClientInteractionTO = 4031
)

// IsConnectionError reports whether err indicates a lost or failed
// connection. These have SQLSTATE class 08 or a client connection code.
func IsConnectionError(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	if len(e.SQLState) >= 2 && e.SQLState[:2] == "08" {
		return true
	}
	switch e.Code {
	case CRConnectionError, CRConnHostError, CRServerGoneError, CRServerLost, ERClientInteractionTO:
		return true
	}
	return false
}

// IsRetryable reports whether err represents a transient failure that may
// succeed if the whole operation is retried by the caller.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Code {
	case ERLockWaitTimeout, ERLockDeadlock, ERQueryInterrupted:
		return true
	}
	// Serialization failures (40xxx)
	if len(e.SQLState) >= 2 && e.SQLState[:2] == "40" {
		return true
	}
	return IsConnectionError(err)
}

// newConnError builds an *Error from the connection's last diagnostic.
func newConnError(h mysqlHandle) error {
	return diagError(mysqlErrno(h), mysqlSQLState(h), mysqlError(h))
}

// newStmtError builds an *Error from the statement's last diagnostic.
func newStmtError(h stmtHandle) error {
	return diagError(mysqlStmtErrno(h), mysqlStmtSQLState(h), mysqlStmtError(h))
}

func diagError(code uint32, state, msg string) error {
	if code == 0 {
		return &Error{Code: CRUnknownError, SQLState: "HY000", Message: "unknown MariaDB error"}
	}
	if state == "" {
		state = "HY000"
	}
	return &Error{Code: code, SQLState: state, Message: msg}
}
