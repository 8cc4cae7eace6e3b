package mariadb

import (
	"encoding/binary"
	"math"
	"unsafe"
)

const (
	scalarSlotSize   = 8
	temporalSlotSize = int(unsafe.Sizeof(mysqlTime{}))
	slotAlign        = 8
)

// OutputBuffer is one column's fixed-size output slot. A statement handle
// writes the column value, its length and its null indicator here on every
// fetch; the contents are valid until the next fetch.
type OutputBuffer struct {
	field     *Field
	buf       []byte
	length    uint64
	isNull    uint8
	truncated uint8
}

// Field returns the column the buffer is bound to.
func (b *OutputBuffer) Field() *Field { return b.field }

// Buffer returns the whole writable slot. Its length is the slot capacity.
func (b *OutputBuffer) Buffer() []byte { return b.buf }

// Length returns the value length reported by the last fetch. It may
// exceed the slot capacity when the value was truncated.
func (b *OutputBuffer) Length() uint64 { return b.length }

// SetLength records the value length of the current row.
func (b *OutputBuffer) SetLength(n uint64) { b.length = n }

// IsNull reports whether the current row holds NULL for this column.
func (b *OutputBuffer) IsNull() bool { return b.isNull != 0 }

// SetNull records the null indicator of the current row.
func (b *OutputBuffer) SetNull(null bool) { b.isNull = boolByte(null) }

// Truncated reports whether the current value did not fit the slot.
func (b *OutputBuffer) Truncated() bool { return b.truncated != 0 }

// SetTruncated records the truncation indicator of the current row.
func (b *OutputBuffer) SetTruncated(t bool) { b.truncated = boolByte(t) }

// bufferType is the C buffer type the slot is bound with.
func (b *OutputBuffer) bufferType() FieldType {
	return bindBufferType(b.field.Type)
}

// bytes returns the value bytes of the current row, never beyond the slot.
func (b *OutputBuffer) bytes() []byte {
	n := b.length
	if n > uint64(len(b.buf)) {
		n = uint64(len(b.buf))
	}
	return b.buf[:n]
}

// integer decodes an integer slot at the width the driver wrote it.
func (b *OutputBuffer) integer() wide {
	signed := !b.field.Unsigned()
	switch b.bufferType() {
	case TypeTiny:
		if signed {
			return wideSigned(int64(int8(b.buf[0])))
		}
		return wideUnsigned(uint64(b.buf[0]))
	case TypeShort:
		v := binary.NativeEndian.Uint16(b.buf)
		if signed {
			return wideSigned(int64(int16(v)))
		}
		return wideUnsigned(uint64(v))
	case TypeLong:
		v := binary.NativeEndian.Uint32(b.buf)
		if signed {
			return wideSigned(int64(int32(v)))
		}
		return wideUnsigned(uint64(v))
	case TypeBit:
		return wideUnsigned(bitValue(b.bytes()))
	default:
		v := binary.NativeEndian.Uint64(b.buf)
		if signed {
			return wideSigned(int64(v))
		}
		return wideUnsigned(v)
	}
}

func (b *OutputBuffer) float() float64 {
	if b.bufferType() == TypeFloat {
		return float64(math.Float32frombits(binary.NativeEndian.Uint32(b.buf)))
	}
	return math.Float64frombits(binary.NativeEndian.Uint64(b.buf))
}

func (b *OutputBuffer) temporal() mysqlTime {
	var t mysqlTime
	if len(b.buf) < temporalSlotSize {
		return t
	}
	return *(*mysqlTime)(unsafe.Pointer(&b.buf[0]))
}

// BindingSet holds the output buffers bound to a prepared statement, one
// per column in field order. All slots live in one allocation that is
// never resized.
type BindingSet struct {
	arena   []byte
	buffers []OutputBuffer
}

// newBindingSet lays out one slot per field. Variable-length values get
// the field's reported maximum length.
func newBindingSet(fields []Field) *BindingSet {
	s := &BindingSet{buffers: make([]OutputBuffer, len(fields))}

	offsets := make([]int, len(fields))
	total := 0
	for i := range fields {
		offsets[i] = total
		total += alignSlot(slotSize(&fields[i]))
	}
	s.arena = make([]byte, total)

	for i := range fields {
		size := slotSize(&fields[i])
		s.buffers[i] = OutputBuffer{
			field: &fields[i],
			buf:   s.arena[offsets[i] : offsets[i]+size : offsets[i]+size],
		}
	}
	return s
}

// Len returns the number of bound columns.
func (s *BindingSet) Len() int { return len(s.buffers) }

// Buffer returns the output buffer of column i.
func (s *BindingSet) Buffer(i int) *OutputBuffer { return &s.buffers[i] }

// Size returns the total number of bytes reserved for all slots.
func (s *BindingSet) Size() int { return len(s.arena) }

func slotSize(f *Field) int {
	switch bindBufferType(f.Type) {
	case TypeTiny, TypeShort, TypeLong, TypeLongLong, TypeFloat, TypeDouble, TypeNull:
		return scalarSlotSize
	case TypeBit:
		return scalarSlotSize
	case TypeDate, TypeTime, TypeDateTime, TypeTimestamp:
		return temporalSlotSize
	}
	if f.MaxLength == 0 {
		return 1
	}
	return int(f.MaxLength)
}

func alignSlot(n int) int {
	return (n + slotAlign - 1) &^ (slotAlign - 1)
}

// bindBufferType returns the C buffer type used to receive a column of
// wire type t. Integer and temporal columns keep their native layout;
// everything else is received as bytes.
func bindBufferType(t FieldType) FieldType {
	switch t {
	case TypeTiny, TypeShort, TypeLong, TypeLongLong, TypeFloat, TypeDouble, TypeBit, TypeNull:
		return t
	case TypeYear:
		return TypeShort
	case TypeInt24:
		return TypeLong
	case TypeDate, TypeNewDate:
		return TypeDate
	case TypeTime, TypeTime2:
		return TypeTime
	case TypeDateTime, TypeDateTime2:
		return TypeDateTime
	case TypeTimestamp, TypeTimestamp2:
		return TypeTimestamp
	case TypeTinyBlob, TypeMediumBlob, TypeLongBlob, TypeBlob, TypeGeometry:
		return TypeBlob
	default:
		return TypeString
	}
}

// bitValue decodes a BIT value sent as big-endian bytes.
func bitValue(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

func boolByte(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}
