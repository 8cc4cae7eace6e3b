package mariadb

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// =============================================================================
// In-memory collaborators
// =============================================================================

// fakeText is a buffered text result. A nil cell is NULL.
type fakeText struct {
	fields  []Field
	rows    [][][]byte
	pos     int
	lengths []uint64
	freed   bool
}

func (f *fakeText) Fields() []Field { return f.fields }
func (f *fakeText) NumRows() uint64 { return uint64(len(f.rows)) }

func (f *fakeText) FetchRow() ([][]byte, bool) {
	if f.pos >= len(f.rows) {
		return nil, false
	}
	row := f.rows[f.pos]
	f.pos++
	f.lengths = make([]uint64, len(row))
	for i, c := range row {
		f.lengths[i] = uint64(len(c))
	}
	return row, true
}

func (f *fakeText) FetchLengths() []uint64 { return f.lengths }

func (f *fakeText) DataSeek(offset uint64) {
	f.pos = int(min(offset, uint64(len(f.rows))))
}

func (f *fakeText) RowTell() RowOffset { return RowOffset(f.pos) }
func (f *fakeText) Free()              { f.freed = true }

// textRow builds a text row from strings, byte slices and nils.
func textRow(cells ...any) [][]byte {
	row := make([][]byte, len(cells))
	for i, c := range cells {
		switch v := c.(type) {
		case nil:
			row[i] = nil
		case string:
			row[i] = []byte(v)
		case []byte:
			row[i] = v
		}
	}
	return row
}

// fakeStmt is an executed statement that writes its rows into the bound
// buffers the way the client library does: integers at their bound width
// in native byte order, temporal values as MYSQL_TIME and everything else
// as bytes.
type fakeStmt struct {
	fields []Field
	rows   [][]any

	pos         int
	maxLength   bool
	keepMaxLen  bool // do not compute MaxLength in StoreResult
	stored      bool
	bindings    *BindingSet
	freed       bool
	storeErr    error
	metadataErr error
	bindErr     error
	fetchErr    error
	fetchErrRow int
}

func (f *fakeStmt) SetUpdateMaxLength(on bool) error {
	f.maxLength = on
	return nil
}

func (f *fakeStmt) StoreResult() error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.stored = true
	if !f.maxLength || f.keepMaxLen {
		return nil
	}
	for i := range f.fields {
		var longest uint64
		for _, row := range f.rows {
			if n := uint64(len(cellBytes(row[i]))); n > longest {
				longest = n
			}
		}
		f.fields[i].MaxLength = longest
	}
	return nil
}

func (f *fakeStmt) FieldCount() int { return len(f.fields) }

func (f *fakeStmt) ResultMetadata() ([]Field, error) {
	if f.metadataErr != nil {
		return nil, f.metadataErr
	}
	out := make([]Field, len(f.fields))
	copy(out, f.fields)
	return out, nil
}

func (f *fakeStmt) BindResult(b *BindingSet) error {
	if f.bindErr != nil {
		return f.bindErr
	}
	f.bindings = b
	return nil
}

func (f *fakeStmt) Fetch() (bool, error) {
	if f.fetchErr != nil && f.pos == f.fetchErrRow {
		return false, f.fetchErr
	}
	if f.pos >= len(f.rows) {
		return false, nil
	}
	for i, v := range f.rows[f.pos] {
		writeCell(f.bindings.Buffer(i), v)
	}
	f.pos++
	return true, nil
}

func (f *fakeStmt) DataSeek(offset uint64) {
	f.pos = int(min(offset, uint64(len(f.rows))))
}

func (f *fakeStmt) RowTell() RowOffset { return RowOffset(f.pos) }
func (f *fakeStmt) NumRows() uint64    { return uint64(len(f.rows)) }

func (f *fakeStmt) FreeResult() error {
	f.freed = true
	f.bindings = nil
	return nil
}

func cellBytes(v any) []byte {
	switch x := v.(type) {
	case string:
		return []byte(x)
	case []byte:
		return x
	}
	return nil
}

func intBits(v any) uint64 {
	switch x := v.(type) {
	case int:
		return uint64(int64(x))
	case int64:
		return uint64(x)
	case uint64:
		return x
	}
	return 0
}

func writeCell(b *OutputBuffer, v any) {
	if v == nil {
		b.SetNull(true)
		b.SetLength(0)
		b.SetTruncated(false)
		return
	}
	b.SetNull(false)
	b.SetTruncated(false)

	slot := b.Buffer()
	switch b.bufferType() {
	case TypeTiny:
		slot[0] = byte(intBits(v))
		b.SetLength(1)
	case TypeShort:
		binary.NativeEndian.PutUint16(slot, uint16(intBits(v)))
		b.SetLength(2)
	case TypeLong:
		binary.NativeEndian.PutUint32(slot, uint32(intBits(v)))
		b.SetLength(4)
	case TypeLongLong:
		binary.NativeEndian.PutUint64(slot, intBits(v))
		b.SetLength(8)
	case TypeFloat:
		binary.NativeEndian.PutUint32(slot, math.Float32bits(float32(v.(float64))))
		b.SetLength(4)
	case TypeDouble:
		binary.NativeEndian.PutUint64(slot, math.Float64bits(v.(float64)))
		b.SetLength(8)
	case TypeDate, TypeTime, TypeDateTime, TypeTimestamp:
		*(*mysqlTime)(unsafe.Pointer(&slot[0])) = v.(mysqlTime)
		b.SetLength(uint64(unsafe.Sizeof(mysqlTime{})))
	default:
		data := cellBytes(v)
		copy(slot, data)
		b.SetLength(uint64(len(data)))
		b.SetTruncated(len(data) > len(slot))
	}
}
