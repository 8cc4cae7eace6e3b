package mariadb

import (
	"context"
	"runtime"
	"sync"
	"unsafe"
)

// Stmt is a prepared statement. Its results are read with the binary
// protocol into buffers bound by the result set.
type Stmt struct {
	conn   *Conn
	h      stmtHandle
	query  string
	mu     sync.Mutex
	closed bool

	// Output bindings, kept alive and pinned while the library may write
	// into them.
	binds  []mysqlBind
	pinner runtime.Pinner
}

// Query executes the statement and buffers its result.
func (s *Stmt) Query(ctx context.Context) (*ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.execute(ctx); err != nil {
		return nil, err
	}
	return NewBinaryResultSet(s, s.conn.resultOptions()...)
}

// Exec executes the statement and discards its result, if any.
func (s *Stmt) Exec(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.execute(ctx); err != nil {
		return nil, err
	}
	r := &Result{
		rowsAffected: mysqlStmtAffectedRows(s.h),
		lastInsertID: mysqlStmtInsertID(s.h),
	}
	if mysqlStmtFieldCount(s.h) > 0 {
		mysqlStmtFreeResult(s.h)
	}
	return r, nil
}

func (s *Stmt) execute(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if mysqlStmtExecute(s.h) != 0 {
		return newStmtError(s.h)
	}
	return nil
}

// Close releases the statement, its bindings and any pending result. It is
// safe to call more than once.
func (s *Stmt) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.unbind()
	var err error
	if mysqlStmtClose(s.h) != 0 {
		err = newConnError(s.conn.h)
	}
	s.h = 0
	return err
}

func (s *Stmt) unbind() {
	s.pinner.Unpin()
	s.binds = nil
}

// SetUpdateMaxLength implements StatementResult.
func (s *Stmt) SetUpdateMaxLength(on bool) error {
	v := boolByte(on)
	if mysqlStmtAttrSet(s.h, stmtAttrUpdateMaxLength, unsafe.Pointer(&v)) != 0 {
		return newStmtError(s.h)
	}
	return nil
}

// StoreResult implements StatementResult.
func (s *Stmt) StoreResult() error {
	if mysqlStmtStoreResult(s.h) != 0 {
		return newStmtError(s.h)
	}
	return nil
}

// FieldCount implements StatementResult.
func (s *Stmt) FieldCount() int {
	return int(mysqlStmtFieldCount(s.h))
}

// ResultMetadata implements StatementResult.
func (s *Stmt) ResultMetadata() ([]Field, error) {
	res := mysqlStmtResultMeta(s.h)
	if res == 0 {
		return nil, newStmtError(s.h)
	}
	defer mysqlFreeResult(res)
	return readFields(mysqlFetchFields(res), int(mysqlNumFields(res))), nil
}

// BindResult implements StatementResult. The binding set must stay
// unchanged until FreeResult.
func (s *Stmt) BindResult(b *BindingSet) error {
	s.unbind()
	if b.Len() == 0 {
		return nil
	}

	s.binds = make([]mysqlBind, b.Len())
	s.pinner.Pin(&s.binds[0])
	s.pinner.Pin(&b.arena[0])
	s.pinner.Pin(&b.buffers[0])

	for i := range s.binds {
		buf := b.Buffer(i)
		s.binds[i] = mysqlBind{
			Buffer:       uintptr(unsafe.Pointer(&buf.buf[0])),
			BufferLength: uint64(len(buf.buf)),
			BufferType:   uint32(buf.bufferType()),
			IsUnsigned:   boolByte(buf.field.Unsigned()),
			Length:       uintptr(unsafe.Pointer(&buf.length)),
			IsNull:       uintptr(unsafe.Pointer(&buf.isNull)),
			Error:        uintptr(unsafe.Pointer(&buf.truncated)),
		}
	}

	if mysqlStmtBindResult(s.h, unsafe.Pointer(&s.binds[0])) != 0 {
		err := newStmtError(s.h)
		s.unbind()
		return err
	}
	return nil
}

// Fetch implements StatementResult.
func (s *Stmt) Fetch() (bool, error) {
	switch mysqlStmtFetch(s.h) {
	case fetchOK, fetchTruncated:
		return true, nil
	case fetchNoData:
		return false, nil
	default:
		return false, newStmtError(s.h)
	}
}

// DataSeek implements StatementResult.
func (s *Stmt) DataSeek(offset uint64) { mysqlStmtDataSeek(s.h, offset) }

// RowTell implements StatementResult.
func (s *Stmt) RowTell() RowOffset { return RowOffset(mysqlStmtRowTell(s.h)) }

// NumRows implements StatementResult.
func (s *Stmt) NumRows() uint64 { return mysqlStmtNumRows(s.h) }

// FreeResult implements StatementResult.
func (s *Stmt) FreeResult() error {
	if s.closed {
		return nil
	}
	rc := mysqlStmtFreeResult(s.h)
	s.unbind()
	if rc != 0 {
		return newStmtError(s.h)
	}
	return nil
}

var _ StatementResult = (*Stmt)(nil)
