package mariadb

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// Conn is a connection to a MariaDB or MySQL server. It is safe for
// concurrent use, but the result sets it returns are not.
type Conn struct {
	h      mysqlHandle
	opts   options
	log    logrus.FieldLogger
	mu     sync.Mutex
	closed bool
}

// Connect opens a connection for the account. Timeouts and the location
// from the account apply unless overridden by opts. The context deadline
// bounds the connect when it is sooner than the connect timeout.
func Connect(ctx context.Context, acc *Account, opts ...Option) (*Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := newOptions(append(acc.options(), opts...))

	if err := acquireLibrary(o.log, o.libraryPath); err != nil {
		return nil, err
	}

	h := mysqlInit(0)
	if h == 0 {
		releaseLibrary(o.log)
		return nil, &Error{Code: CROutOfMemory, SQLState: "HY000", Message: "mysql_init failed"}
	}

	connectTimeout := o.connectTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); connectTimeout == 0 || left < connectTimeout {
			connectTimeout = left
		}
	}
	setTimeout(h, optConnectTimeout, connectTimeout)
	setTimeout(h, optReadTimeout, o.readTimeout)

	log := o.log.WithFields(logrus.Fields{
		"host":   acc.Host,
		"port":   acc.port(),
		"user":   acc.User,
		"schema": acc.Schema,
	})

	if mysqlRealConnect(h, cString(acc.Host), cString(acc.User), cString(acc.Password),
		cString(acc.Schema), acc.port(), cString(acc.UnixSocket), 0) == 0 {
		err := newConnError(h)
		mysqlClose(h)
		releaseLibrary(o.log)
		return nil, fmt.Errorf("mariadb: connect: %w", err)
	}

	c := &Conn{h: h, opts: o, log: log}

	if mysqlAutocommit(h, boolByte(acc.AutoCommit)) != 0 {
		err := newConnError(h)
		c.Close()
		return nil, fmt.Errorf("mariadb: set autocommit: %w", err)
	}

	names := make([]string, 0, len(acc.Variables))
	for name := range acc.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := c.Exec(ctx, "SET "+name+" = "+acc.Variables[name]); err != nil {
			c.Close()
			return nil, err
		}
	}

	log.Debug("mariadb: connected")
	return c, nil
}

// setTimeout sets a timeout option in whole seconds, rounding up.
func setTimeout(h mysqlHandle, opt int32, d time.Duration) {
	if d <= 0 {
		return
	}
	secs := uint32((d + time.Second - 1) / time.Second)
	mysqlOptions(h, opt, unsafe.Pointer(&secs))
}

// Query runs query with the text protocol and buffers the whole result.
// Statements that produce no columns yield an empty result set.
func (c *Conn) Query(ctx context.Context, query string) (*ResultSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.execute(ctx, query); err != nil {
		return nil, err
	}

	res := mysqlStoreResult(c.h)
	if res == 0 {
		if mysqlFieldCount(c.h) != 0 {
			return nil, fetchFailed("store result", newConnError(c.h))
		}
		return NewTextResultSet(nil, c.resultOptions()...), nil
	}
	return NewTextResultSet(newStoredResult(res), c.resultOptions()...), nil
}

// Exec runs query and discards its result, if any.
func (c *Conn) Exec(ctx context.Context, query string) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.execute(ctx, query); err != nil {
		return nil, err
	}
	if res := mysqlStoreResult(c.h); res != 0 {
		mysqlFreeResult(res)
	}
	return &Result{
		rowsAffected: mysqlAffectedRows(c.h),
		lastInsertID: mysqlInsertID(c.h),
	}, nil
}

// LastInsertID returns the AUTO_INCREMENT value generated by the last
// statement.
func (c *Conn) LastInsertID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0
	}
	return mysqlInsertID(c.h)
}

func (c *Conn) execute(ctx context.Context, query string) error {
	if c.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	q, n := queryBytes(query)
	if mysqlRealQuery(c.h, q, n) != 0 {
		return newConnError(c.h)
	}
	return nil
}

// Prepare prepares query for execution with the binary protocol.
func (c *Conn) Prepare(ctx context.Context, query string) (*Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h := mysqlStmtInit(c.h)
	if h == 0 {
		return nil, newConnError(c.h)
	}

	q, n := queryBytes(query)
	if mysqlStmtPrepare(h, q, n) != 0 {
		err := newStmtError(h)
		mysqlStmtClose(h)
		return nil, err
	}

	return &Stmt{conn: c, h: h, query: query}, nil
}

// Close closes the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	mysqlClose(c.h)
	c.h = 0
	c.log.Debug("mariadb: connection closed")
	releaseLibrary(c.opts.log)
	return nil
}

func (c *Conn) resultOptions() []Option {
	return []Option{WithLogger(c.log), WithLocation(c.opts.location)}
}

// storedResult is a buffered text-protocol result owned by the client
// library.
type storedResult struct {
	res     resultHandle
	fields  []Field
	row     [][]byte
	lengths []uint64
}

func newStoredResult(res resultHandle) *storedResult {
	n := int(mysqlNumFields(res))
	return &storedResult{
		res:     res,
		fields:  readFields(mysqlFetchFields(res), n),
		row:     make([][]byte, n),
		lengths: make([]uint64, n),
	}
}

// readFields copies n MYSQL_FIELD entries starting at p.
func readFields(p uintptr, n int) []Field {
	if p == 0 || n == 0 {
		return nil
	}
	raw := unsafe.Slice((*mysqlField)(unsafe.Pointer(p)), n)
	fields := make([]Field, n)
	for i := range raw {
		fields[i] = Field{
			Name:      goStringN(raw[i].Name, raw[i].NameLength),
			Table:     goStringN(raw[i].Table, raw[i].TableLength),
			Type:      FieldType(raw[i].Type),
			Flags:     FieldFlag(raw[i].Flags),
			Length:    raw[i].Length,
			MaxLength: raw[i].MaxLength,
			Decimals:  raw[i].Decimals,
			Charset:   raw[i].Charsetnr,
			Index:     i,
		}
	}
	return fields
}

func (s *storedResult) Fields() []Field { return s.fields }

func (s *storedResult) NumRows() uint64 {
	if s.res == 0 {
		return 0
	}
	return mysqlNumRows(s.res)
}

// FetchRow returns views over the library's row memory.
func (s *storedResult) FetchRow() ([][]byte, bool) {
	if s.res == 0 {
		return nil, false
	}
	p := mysqlFetchRow(s.res)
	if p == 0 {
		return nil, false
	}

	n := len(s.row)
	cells := unsafe.Slice((*uintptr)(unsafe.Pointer(p)), n)
	lengths := unsafe.Slice((*uint64)(unsafe.Pointer(mysqlFetchLengths(s.res))), n)
	for i := 0; i < n; i++ {
		s.lengths[i] = lengths[i]
		if cells[i] == 0 {
			s.row[i] = nil
			continue
		}
		s.row[i] = unsafe.Slice((*byte)(unsafe.Pointer(cells[i])), lengths[i])
	}
	return s.row, true
}

func (s *storedResult) FetchLengths() []uint64 { return s.lengths }

func (s *storedResult) DataSeek(offset uint64) {
	if s.res != 0 {
		mysqlDataSeek(s.res, offset)
	}
}

func (s *storedResult) RowTell() RowOffset {
	if s.res == 0 {
		return 0
	}
	return RowOffset(mysqlRowTell(s.res))
}

func (s *storedResult) Free() {
	if s.res != 0 {
		mysqlFreeResult(s.res)
		s.res = 0
	}
}

var _ TextResult = (*storedResult)(nil)
