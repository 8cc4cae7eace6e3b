package mariadb

import (
	"errors"
	"fmt"
	"testing"
)

// =============================================================================
// Error types (errors.go)
// =============================================================================

func TestError_Error(t *testing.T) {
	err := &Error{Code: ERNoSuchTable, SQLState: "42S02", Message: "Table 'shop.nope' doesn't exist"}
	want := "[42S02] Table 'shop.nope' doesn't exist (error 1146)"
	if got := err.Error(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("query: %w", &Error{Code: ERDupEntry, SQLState: "23000"})

	if errors.Is(err, ErrFetchFailed) {
		t.Error("expected a plain diagnostic not to match ErrFetchFailed")
	}
	if !errors.Is(fetchFailed("fetch", err), ErrFetchFailed) {
		t.Error("expected a fetch diagnostic to match ErrFetchFailed")
	}
	if !errors.Is(err, &Error{Code: ERDupEntry}) {
		t.Error("expected match on code")
	}
	if errors.Is(err, &Error{Code: ERParseError}) {
		t.Error("expected no match on a different code")
	}
	if errors.Is(err, ErrOverflow) {
		t.Error("expected no match on an unrelated sentinel")
	}
}

func TestColumnError(t *testing.T) {
	err := error(&ColumnError{Index: 2, Name: "price", Err: ErrOverflow})
	if got := err.Error(); got != "column 2 (price): mariadb: numeric overflow" {
		t.Errorf("unexpected message %q", got)
	}
	if !errors.Is(err, ErrOverflow) {
		t.Error("expected ColumnError to unwrap to its cause")
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&Error{Code: CRServerGoneError, SQLState: "HY000"}, true},
		{&Error{Code: CRServerLost, SQLState: "HY000"}, true},
		{&Error{Code: 1927, SQLState: "08S01"}, true},
		{&Error{Code: ERParseError, SQLState: "42000"}, false},
		{errors.New("plain"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsConnectionError(tt.err); got != tt.want {
			t.Errorf("IsConnectionError(%v): expected %v, got %v", tt.err, tt.want, got)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&Error{Code: ERLockDeadlock, SQLState: "40001"}, true},
		{&Error{Code: ERLockWaitTimeout, SQLState: "HY000"}, true},
		{&Error{Code: 9999, SQLState: "40002"}, true},
		{&Error{Code: CRServerLost, SQLState: "HY000"}, true},
		{&Error{Code: ERDupEntry, SQLState: "23000"}, false},
		{ErrOverflow, false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v): expected %v, got %v", tt.err, tt.want, got)
		}
	}
}

func TestDiagError_Defaults(t *testing.T) {
	var e *Error
	if !errors.As(diagError(0, "", ""), &e) {
		t.Fatal("expected *Error")
	}
	if e.Code != CRUnknownError || e.SQLState != "HY000" {
		t.Errorf("expected unknown error defaults, got %+v", e)
	}

	if !errors.As(diagError(ERBadFieldError, "", "Unknown column"), &e) {
		t.Fatal("expected *Error")
	}
	if e.Code != ERBadFieldError || e.SQLState != "HY000" || e.Message != "Unknown column" {
		t.Errorf("unexpected error %+v", e)
	}
}

func TestFetchFailed_Wrapping(t *testing.T) {
	cause := errors.New("socket closed")
	err := fetchFailed("fetch", cause)
	if !errors.Is(err, ErrFetchFailed) || !errors.Is(err, cause) {
		t.Errorf("expected both sentinel and cause, got %v", err)
	}

	diag := &Error{Code: CRCommandsOutOfSync, SQLState: "HY000", Message: "Commands out of sync"}
	err = fetchFailed("store result", diag)
	if want := "mariadb: store result: mariadb: fetch failed: [HY000] Commands out of sync (error 2014)"; err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}

	// Already wrapped errors are not wrapped twice.
	err = fetchFailed("next", err)
	if want := "mariadb: next: mariadb: store result: mariadb: fetch failed: [HY000] Commands out of sync (error 2014)"; err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestError_NotFetchFailed(t *testing.T) {
	// Connect, prepare and syntax errors are diagnostics, not fetch failures.
	for _, err := range []error{
		fmt.Errorf("mariadb: connect: %w", &Error{Code: CRConnectionError, SQLState: "HY000"}),
		&Error{Code: ERParseError, SQLState: "42000"},
	} {
		if errors.Is(err, ErrFetchFailed) {
			t.Errorf("%v: expected no ErrFetchFailed match", err)
		}
	}
}
