package mariadb

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// RowOffset is an opaque cursor position reported by the underlying
// result handle. Offsets are comparable but not necessarily contiguous.
type RowOffset uint64

// TextResult is a fully buffered text-protocol result as produced by the
// connection. Implementations own the row memory; the slices returned by
// FetchRow and FetchLengths stay valid until the next FetchRow, DataSeek
// or Free.
type TextResult interface {
	// Fields returns the column metadata in column order.
	Fields() []Field
	// NumRows returns the number of buffered rows.
	NumRows() uint64
	// FetchRow returns the next row. A nil cell is SQL NULL. ok is false
	// once all rows have been returned.
	FetchRow() (row [][]byte, ok bool)
	// FetchLengths returns the byte length of every cell of the last row.
	FetchLengths() []uint64
	// DataSeek positions the result before row offset (0 is the first row).
	DataSeek(offset uint64)
	RowTell() RowOffset
	Free()
}

// StatementResult is an executed prepared statement whose result is read
// with the binary protocol.
type StatementResult interface {
	// SetUpdateMaxLength asks StoreResult to compute Field.MaxLength.
	SetUpdateMaxLength(on bool) error
	// StoreResult buffers the complete result on the client.
	StoreResult() error
	FieldCount() int
	ResultMetadata() ([]Field, error)
	// BindResult binds the output buffers, in column order, that Fetch
	// writes every row into.
	BindResult(b *BindingSet) error
	// Fetch writes the next row into the bound buffers. ok is false at the
	// end of the result. A row whose values were truncated is still a row.
	Fetch() (ok bool, err error)
	DataSeek(offset uint64)
	RowTell() RowOffset
	NumRows() uint64
	// FreeResult releases the buffered rows and detaches the bindings.
	FreeResult() error
}

type cursorState int

const (
	stateUnfetched cursorState = iota
	stateHasRow
	stateExhausted
)

// source is the per-protocol part of a result set. It is one of
// *textSource, *binarySource or emptySource.
type source interface {
	fetch() (bool, error)
	seek(row uint64)
	tell() RowOffset
	rowCount() uint64
	free() error
}

type textSource struct {
	res     TextResult
	row     [][]byte
	lengths []uint64
}

func (s *textSource) fetch() (bool, error) {
	row, ok := s.res.FetchRow()
	if !ok {
		s.row, s.lengths = nil, nil
		return false, nil
	}
	s.row = row
	s.lengths = s.res.FetchLengths()
	return true, nil
}

func (s *textSource) seek(row uint64) { s.res.DataSeek(row) }
func (s *textSource) tell() RowOffset { return s.res.RowTell() }
func (s *textSource) rowCount() uint64 { return s.res.NumRows() }

func (s *textSource) free() error {
	s.res.Free()
	s.row, s.lengths = nil, nil
	return nil
}

// cell returns the raw text of column i in the current row, nil for NULL.
func (s *textSource) cell(i int) []byte {
	if i >= len(s.row) {
		return nil
	}
	return s.row[i]
}

func (s *textSource) length(i int) uint64 {
	if i >= len(s.lengths) {
		return 0
	}
	return s.lengths[i]
}

type binarySource struct {
	stmt     StatementResult
	bindings *BindingSet
	log      logrus.FieldLogger
}

func (s *binarySource) fetch() (bool, error) {
	ok, err := s.stmt.Fetch()
	if err != nil {
		return false, fetchFailed("fetch", err)
	}
	if ok {
		for i := 0; i < s.bindings.Len(); i++ {
			if b := s.bindings.Buffer(i); b.Truncated() {
				s.log.WithFields(logrus.Fields{
					"column": b.Field().Name,
					"length": b.Length(),
					"slot":   len(b.Buffer()),
				}).Debug("mariadb: value truncated to its buffer")
			}
		}
	}
	return ok, nil
}

func (s *binarySource) seek(row uint64) { s.stmt.DataSeek(row) }
func (s *binarySource) tell() RowOffset { return s.stmt.RowTell() }
func (s *binarySource) rowCount() uint64 { return s.stmt.NumRows() }

func (s *binarySource) free() error {
	s.bindings = nil
	if err := s.stmt.FreeResult(); err != nil {
		return fetchFailed("free result", err)
	}
	return nil
}

// emptySource stands in for statements that produced no result columns.
type emptySource struct{}

func (emptySource) fetch() (bool, error) { return false, nil }
func (emptySource) seek(uint64)          {}
func (emptySource) tell() RowOffset      { return 0 }
func (emptySource) rowCount() uint64     { return 0 }
func (emptySource) free() error          { return nil }

// ResultSet is a forward and seekable cursor over one query result with
// typed access to the columns of the current row.
//
// Values returned as views (Blob) are valid until the next call to Next,
// SetRowIndex or Close. A ResultSet must not be used concurrently.
type ResultSet struct {
	catalog fieldCatalog
	src     source
	state   cursorState
	loc     *time.Location
	log     logrus.FieldLogger
	closed  bool
}

// NewTextResultSet wraps a stored text-protocol result. A nil res yields an
// empty result set with no columns.
func NewTextResultSet(res TextResult, opts ...Option) *ResultSet {
	o := newOptions(opts)
	r := &ResultSet{loc: o.location, log: o.log}
	if res == nil {
		r.src = emptySource{}
		return r
	}
	r.catalog = newFieldCatalog(res.Fields())
	r.src = &textSource{res: res}

	r.log.WithFields(logrus.Fields{
		"columns": r.catalog.count(),
		"rows":    res.NumRows(),
	}).Debug("mariadb: text result stored")
	return r
}

// NewBinaryResultSet buffers the result of an executed statement and binds
// one output buffer per column.
func NewBinaryResultSet(stmt StatementResult, opts ...Option) (*ResultSet, error) {
	o := newOptions(opts)
	r := &ResultSet{loc: o.location, log: o.log}

	if err := stmt.SetUpdateMaxLength(true); err != nil {
		return nil, fetchFailed("set attribute", err)
	}
	if err := stmt.StoreResult(); err != nil {
		return nil, fetchFailed("store result", err)
	}

	if stmt.FieldCount() == 0 {
		r.src = emptySource{}
		return r, nil
	}

	fields, err := stmt.ResultMetadata()
	if err != nil {
		_ = stmt.FreeResult()
		return nil, fetchFailed("result metadata", err)
	}
	r.catalog = newFieldCatalog(fields)

	bindings := newBindingSet(r.catalog.fields)
	if err := stmt.BindResult(bindings); err != nil {
		_ = stmt.FreeResult()
		return nil, fetchFailed("bind result", err)
	}
	r.src = &binarySource{stmt: stmt, bindings: bindings, log: r.log}

	r.log.WithFields(logrus.Fields{
		"columns": r.catalog.count(),
		"rows":    stmt.NumRows(),
		"bytes":   bindings.Size(),
	}).Debug("mariadb: binary result stored")
	return r, nil
}

// fetchFailed annotates a collaborator error and makes sure it matches
// ErrFetchFailed.
func fetchFailed(op string, err error) error {
	if errors.Is(err, ErrFetchFailed) {
		return fmt.Errorf("mariadb: %s: %w", op, err)
	}
	return fmt.Errorf("mariadb: %s: %w: %w", op, ErrFetchFailed, err)
}

// Next advances to the following row. It returns false when there are no
// more rows; a fetch error also ends the iteration.
func (r *ResultSet) Next() (bool, error) {
	if r.closed {
		return false, ErrClosed
	}
	if r.catalog.count() == 0 || r.src.rowCount() == 0 {
		r.state = stateExhausted
		return false, nil
	}

	ok, err := r.src.fetch()
	if err != nil {
		r.state = stateExhausted
		return false, err
	}
	if !ok {
		r.state = stateExhausted
		return false, nil
	}
	r.state = stateHasRow
	return true, nil
}

// SetRowIndex positions the cursor on row n (0 is the first row) and
// fetches it. It returns what Next returns.
func (r *ResultSet) SetRowIndex(n uint64) (bool, error) {
	if r.closed {
		return false, ErrClosed
	}
	r.src.seek(n)
	return r.Next()
}

// RowIndex returns the current position of the underlying handle.
func (r *ResultSet) RowIndex() RowOffset {
	if r.closed {
		return 0
	}
	return r.src.tell()
}

// RowCount returns the number of rows in the result.
func (r *ResultSet) RowCount() uint64 {
	if r.closed {
		return 0
	}
	return r.src.rowCount()
}

// ColumnCount returns the number of columns.
func (r *ResultSet) ColumnCount() int {
	return r.catalog.count()
}

// ColumnName returns the name of column index.
func (r *ResultSet) ColumnName(index int) (string, error) {
	f, err := r.catalog.field(index)
	if err != nil {
		return "", err
	}
	return f.Name, nil
}

// ColumnType returns the value type of column index.
func (r *ResultSet) ColumnType(index int) (ValueType, error) {
	f, err := r.catalog.field(index)
	if err != nil {
		return ValueNull, err
	}
	return f.ValueType(), nil
}

// ColumnIndex returns the index of the column called name, or NotFound.
// Names are case sensitive.
func (r *ResultSet) ColumnIndex(name string) int {
	if i, ok := r.catalog.lookup(name); ok {
		return i
	}
	return NotFound
}

// LookupColumn is like ColumnIndex but reports presence separately.
func (r *ResultSet) LookupColumn(name string) (int, bool) {
	return r.catalog.lookup(name)
}

// Column returns a copy of the metadata of column index.
func (r *ResultSet) Column(index int) (Field, error) {
	f, err := r.catalog.field(index)
	if err != nil {
		return Field{}, err
	}
	return *f, nil
}

// Fields returns a copy of the metadata of all columns.
func (r *ResultSet) Fields() []Field {
	fields := make([]Field, len(r.catalog.fields))
	copy(fields, r.catalog.fields)
	return fields
}

// ColumnSize returns the byte length of column index in the current row.
// For a binary result this is the length the server sent, which may exceed
// the bound buffer when the value was truncated.
func (r *ResultSet) ColumnSize(index int) (uint64, error) {
	if _, err := r.current(index); err != nil {
		return 0, err
	}
	switch src := r.src.(type) {
	case *textSource:
		return src.length(index), nil
	case *binarySource:
		b := src.bindings.Buffer(index)
		if b.IsNull() {
			return 0, nil
		}
		return b.Length(), nil
	}
	return 0, ErrNoRow
}

// Close releases the result. It is safe to call more than once.
func (r *ResultSet) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.state = stateExhausted
	return r.src.free()
}

// current checks that index names a column and that a row is fetched.
// The index is checked first, even after Close.
func (r *ResultSet) current(index int) (*Field, error) {
	f, err := r.catalog.field(index)
	if err != nil {
		return nil, err
	}
	if r.closed {
		return nil, ErrClosed
	}
	if r.state != stateHasRow {
		return nil, ErrNoRow
	}
	return f, nil
}
