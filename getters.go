package mariadb

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var (
	decimalZero  decimal.Decimal
	zeroTime     time.Time
	zeroDuration time.Duration
)

// All getters below fail with ErrIndexOutOfRange for a bad index and with
// ErrNoRow when no row is fetched. A NULL cell yields the zero value of the
// result type and a nil error; use IsNull to tell the two apart. Conversion
// failures are returned as *ColumnError wrapping ErrOverflow or
// ErrInvalidValue.

// IsNull reports whether column index is NULL in the current row.
func (r *ResultSet) IsNull(index int) (bool, error) {
	if _, err := r.current(index); err != nil {
		return false, err
	}
	switch src := r.src.(type) {
	case *textSource:
		return src.cell(index) == nil, nil
	case *binarySource:
		return src.bindings.Buffer(index).IsNull(), nil
	}
	return false, ErrNoRow
}

// Bool returns column index as a boolean. Numbers are true when non-zero.
func (r *ResultSet) Bool(index int) (bool, error) {
	f, err := r.current(index)
	if err != nil {
		return false, err
	}
	switch src := r.src.(type) {
	case *textSource:
		b := src.cell(index)
		if b == nil {
			return false, nil
		}
		if f.Type == TypeBit {
			return bitValue(b) != 0, nil
		}
		v, err := parseBool(b)
		return v, r.columnErr(f, err)
	case *binarySource:
		buf := src.bindings.Buffer(index)
		if buf.IsNull() {
			return false, nil
		}
		switch slotKind(buf) {
		case kindInteger:
			return !buf.integer().isZero(), nil
		case kindFloat:
			return buf.float() != 0, nil
		case kindTemporal:
			return false, r.columnErr(f, ErrInvalidValue)
		}
		v, err := parseBool(buf.bytes())
		return v, r.columnErr(f, err)
	}
	return false, ErrNoRow
}

// Int8 returns column index as an int8.
func (r *ResultSet) Int8(index int) (int8, error) {
	return signedGetter[int8](r, index)
}

// Int16 returns column index as an int16.
func (r *ResultSet) Int16(index int) (int16, error) {
	return signedGetter[int16](r, index)
}

// Int32 returns column index as an int32.
func (r *ResultSet) Int32(index int) (int32, error) {
	return signedGetter[int32](r, index)
}

// Int64 returns column index as an int64.
func (r *ResultSet) Int64(index int) (int64, error) {
	return signedGetter[int64](r, index)
}

// Uint8 returns column index as a uint8.
func (r *ResultSet) Uint8(index int) (uint8, error) {
	return unsignedGetter[uint8](r, index)
}

// Uint16 returns column index as a uint16.
func (r *ResultSet) Uint16(index int) (uint16, error) {
	return unsignedGetter[uint16](r, index)
}

// Uint32 returns column index as a uint32.
func (r *ResultSet) Uint32(index int) (uint32, error) {
	return unsignedGetter[uint32](r, index)
}

// Uint64 returns column index as a uint64.
func (r *ResultSet) Uint64(index int) (uint64, error) {
	return unsignedGetter[uint64](r, index)
}

func signedGetter[T signedInt](r *ResultSet, index int) (T, error) {
	f, w, null, err := r.integer(index)
	if err != nil || null {
		return 0, err
	}
	v, err := narrowSigned[T](w)
	return v, r.columnErr(f, err)
}

func unsignedGetter[T unsignedInt](r *ResultSet, index int) (T, error) {
	f, w, null, err := r.integer(index)
	if err != nil || null {
		return 0, err
	}
	v, err := narrowUnsigned[T](w)
	return v, r.columnErr(f, err)
}

// integer reads column index as a 64-bit integer of the column's own
// signedness.
func (r *ResultSet) integer(index int) (*Field, wide, bool, error) {
	f, err := r.current(index)
	if err != nil {
		return nil, wide{}, false, err
	}
	switch src := r.src.(type) {
	case *textSource:
		b := src.cell(index)
		if b == nil {
			return f, wide{}, true, nil
		}
		if f.Type == TypeBit {
			return f, wideUnsigned(bitValue(b)), false, nil
		}
		w, err := parseInteger(b)
		return f, w, false, r.columnErr(f, err)
	case *binarySource:
		buf := src.bindings.Buffer(index)
		if buf.IsNull() {
			return f, wide{}, true, nil
		}
		switch slotKind(buf) {
		case kindInteger:
			return f, buf.integer(), false, nil
		case kindFloat:
			w, err := wideFromFloat(buf.float())
			return f, w, false, r.columnErr(f, err)
		case kindTemporal:
			return f, wide{}, false, r.columnErr(f, ErrInvalidValue)
		}
		w, err := parseInteger(buf.bytes())
		return f, w, false, r.columnErr(f, err)
	}
	return f, wide{}, false, ErrNoRow
}

// wideFromFloat accepts only whole numbers within the 64-bit ranges.
func wideFromFloat(v float64) (wide, error) {
	if math.IsNaN(v) || math.Trunc(v) != v {
		return wide{}, ErrInvalidValue
	}
	if v < 0 {
		if v < math.MinInt64 {
			return wide{}, ErrOverflow
		}
		return wideSigned(int64(v)), nil
	}
	if v >= math.MaxUint64 {
		return wide{}, ErrOverflow
	}
	return wideUnsigned(uint64(v)), nil
}

// Float32 returns column index as a float32. Values beyond the float32
// range fail with ErrOverflow.
func (r *ResultSet) Float32(index int) (float32, error) {
	f, v, err := r.float(index)
	if err != nil {
		return 0, err
	}
	f32, err := narrowFloat32(v)
	return f32, r.columnErr(f, err)
}

// Float64 returns column index as a float64.
func (r *ResultSet) Float64(index int) (float64, error) {
	_, v, err := r.float(index)
	return v, err
}

func (r *ResultSet) float(index int) (*Field, float64, error) {
	f, err := r.current(index)
	if err != nil {
		return nil, 0, err
	}
	switch src := r.src.(type) {
	case *textSource:
		b := src.cell(index)
		if b == nil {
			return f, 0, nil
		}
		if f.Type == TypeBit {
			return f, float64(bitValue(b)), nil
		}
		v, err := parseFloat(b, 64)
		return f, v, r.columnErr(f, err)
	case *binarySource:
		buf := src.bindings.Buffer(index)
		if buf.IsNull() {
			return f, 0, nil
		}
		switch slotKind(buf) {
		case kindFloat:
			return f, buf.float(), nil
		case kindInteger:
			return f, buf.integer().float(), nil
		case kindTemporal:
			return f, 0, r.columnErr(f, ErrInvalidValue)
		}
		v, err := parseFloat(buf.bytes(), 64)
		return f, v, r.columnErr(f, err)
	}
	return f, 0, ErrNoRow
}

// Decimal returns column index as an arbitrary-precision decimal.
func (r *ResultSet) Decimal(index int) (decimal.Decimal, error) {
	f, err := r.current(index)
	if err != nil {
		return decimalZero, err
	}
	switch src := r.src.(type) {
	case *textSource:
		b := src.cell(index)
		if b == nil {
			return decimalZero, nil
		}
		d, err := parseDecimal(b)
		return d, r.columnErr(f, err)
	case *binarySource:
		buf := src.bindings.Buffer(index)
		if buf.IsNull() {
			return decimalZero, nil
		}
		switch slotKind(buf) {
		case kindInteger:
			w := buf.integer()
			if w.signed {
				return decimal.NewFromInt(int64(w.bits)), nil
			}
			return decimal.NewFromBigInt(new(big.Int).SetUint64(w.bits), 0), nil
		case kindFloat:
			if buf.bufferType() == TypeFloat {
				return decimal.NewFromFloat32(float32(buf.float())), nil
			}
			return decimal.NewFromFloat(buf.float()), nil
		case kindTemporal:
			return decimalZero, r.columnErr(f, ErrInvalidValue)
		}
		d, err := parseDecimal(buf.bytes())
		return d, r.columnErr(f, err)
	}
	return decimalZero, ErrNoRow
}

// DateTime returns a DATETIME, TIMESTAMP or DATE column as a time in the
// configured location. The zero date 0000-00-00 yields the zero time.
func (r *ResultSet) DateTime(index int) (time.Time, error) {
	f, err := r.current(index)
	if err != nil {
		return zeroTime, err
	}
	switch src := r.src.(type) {
	case *textSource:
		b := src.cell(index)
		if b == nil {
			return zeroTime, nil
		}
		t, err := parseDateTimeText(b, r.loc)
		return t, r.columnErr(f, err)
	case *binarySource:
		buf := src.bindings.Buffer(index)
		if buf.IsNull() {
			return zeroTime, nil
		}
		switch buf.bufferType() {
		case TypeDate, TypeDateTime, TypeTimestamp:
			mt := buf.temporal()
			t, err := makeTime(int(mt.Year), int(mt.Month), int(mt.Day),
				int(mt.Hour), int(mt.Minute), int(mt.Second), int(mt.SecondPart)*1000, r.loc)
			return t, r.columnErr(f, err)
		case TypeString, TypeBlob:
			t, err := parseDateTimeText(buf.bytes(), r.loc)
			return t, r.columnErr(f, err)
		}
		return zeroTime, r.columnErr(f, ErrInvalidValue)
	}
	return zeroTime, ErrNoRow
}

// Date is DateTime with the time of day dropped.
func (r *ResultSet) Date(index int) (time.Time, error) {
	t, err := r.DateTime(index)
	if err != nil || t.IsZero() {
		return t, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()), nil
}

// Time returns a TIME column as a signed duration. TIME values range
// beyond one day.
func (r *ResultSet) Time(index int) (time.Duration, error) {
	f, err := r.current(index)
	if err != nil {
		return zeroDuration, err
	}
	switch src := r.src.(type) {
	case *textSource:
		b := src.cell(index)
		if b == nil {
			return zeroDuration, nil
		}
		d, err := parseTimeText(b)
		return d, r.columnErr(f, err)
	case *binarySource:
		buf := src.bindings.Buffer(index)
		if buf.IsNull() {
			return zeroDuration, nil
		}
		switch buf.bufferType() {
		case TypeTime:
			return timeDuration(buf.temporal()), nil
		case TypeString, TypeBlob:
			d, err := parseTimeText(buf.bytes())
			return d, r.columnErr(f, err)
		}
		return zeroDuration, r.columnErr(f, ErrInvalidValue)
	}
	return zeroDuration, ErrNoRow
}

func timeDuration(mt mysqlTime) time.Duration {
	c := clock{
		neg:    mt.Neg != 0,
		hour:   int(mt.Day)*24 + int(mt.Hour),
		minute: int(mt.Minute),
		second: int(mt.Second),
		nanos:  int(mt.SecondPart) * 1000,
	}
	return c.duration()
}

// String returns the text of column index. Binary integer, float and
// temporal values are formatted the way the server formats them.
func (r *ResultSet) String(index int) (string, error) {
	b, err := r.raw(index)
	return string(b), err
}

// Blob returns a reader over the bytes of column index. The reader views
// the current row and is valid until the cursor moves. An empty or NULL
// value yields an empty reader.
func (r *ResultSet) Blob(index int) (*bytes.Reader, error) {
	b, err := r.raw(index)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// Data returns a copy of the bytes of column index, or nil when the value
// is empty or NULL.
func (r *ResultSet) Data(index int) ([]byte, error) {
	b, err := r.raw(index)
	if err != nil || len(b) == 0 {
		return nil, err
	}
	return bytes.Clone(b), nil
}

// raw returns the bytes of the current cell. On the text path and for
// variable-length binary slots it aliases row memory.
func (r *ResultSet) raw(index int) ([]byte, error) {
	if _, err := r.current(index); err != nil {
		return nil, err
	}
	switch src := r.src.(type) {
	case *textSource:
		b := src.cell(index)
		if len(b) == 0 {
			return nil, nil
		}
		if l := src.length(index); l < uint64(len(b)) {
			b = b[:l]
		}
		return b, nil
	case *binarySource:
		buf := src.bindings.Buffer(index)
		if buf.IsNull() {
			return nil, nil
		}
		switch slotKind(buf) {
		case kindInteger:
			if buf.bufferType() == TypeBit {
				return buf.bytes(), nil
			}
			w := buf.integer()
			if w.signed {
				return strconv.AppendInt(nil, int64(w.bits), 10), nil
			}
			return strconv.AppendUint(nil, w.bits, 10), nil
		case kindFloat:
			bits := 64
			if buf.bufferType() == TypeFloat {
				bits = 32
			}
			return strconv.AppendFloat(nil, buf.float(), 'g', -1, bits), nil
		case kindTemporal:
			return []byte(formatTemporal(buf.temporal(), buf.bufferType())), nil
		}
		return buf.bytes(), nil
	}
	return nil, ErrNoRow
}

// Value returns column index as the Go type ValueType.ScanType reports
// for the column, or nil for NULL.
func (r *ResultSet) Value(index int) (any, error) {
	null, err := r.IsNull(index)
	if err != nil || null {
		return nil, err
	}
	f, _ := r.catalog.field(index)

	switch f.ValueType() {
	case ValueNull:
		return nil, nil
	case ValueBoolean:
		return r.Bool(index)
	case ValueFloat32:
		return r.Float32(index)
	case ValueDouble64:
		return r.Float64(index)
	case ValueDecimal:
		return r.Decimal(index)
	case ValueDate:
		return r.Date(index)
	case ValueTime:
		return r.Time(index)
	case ValueDateTime:
		return r.DateTime(index)
	case ValueSigned8:
		return r.Int8(index)
	case ValueSigned16:
		return r.Int16(index)
	case ValueSigned32:
		return r.Int32(index)
	case ValueSigned64:
		return r.Int64(index)
	case ValueUnsigned8:
		return r.Uint8(index)
	case ValueUnsigned16:
		return r.Uint16(index)
	case ValueUnsigned32:
		return r.Uint32(index)
	case ValueUnsigned64:
		return r.Uint64(index)
	case ValueBlob:
		return r.Data(index)
	default:
		return r.String(index)
	}
}

func (r *ResultSet) columnErr(f *Field, err error) error {
	if err == nil {
		return nil
	}
	return &ColumnError{Index: f.Index, Name: f.Name, Err: err}
}

type slotKindType int

const (
	kindBytes slotKindType = iota
	kindInteger
	kindFloat
	kindTemporal
)

func slotKind(b *OutputBuffer) slotKindType {
	switch b.bufferType() {
	case TypeTiny, TypeShort, TypeLong, TypeLongLong, TypeBit:
		return kindInteger
	case TypeFloat, TypeDouble:
		return kindFloat
	case TypeDate, TypeTime, TypeDateTime, TypeTimestamp:
		return kindTemporal
	}
	return kindBytes
}

// formatTemporal renders a bound temporal value in the server's text form.
func formatTemporal(t mysqlTime, bufferType FieldType) string {
	var frac string
	if t.SecondPart != 0 {
		frac = fmt.Sprintf(".%06d", t.SecondPart)
	}
	switch bufferType {
	case TypeDate:
		return fmt.Sprintf("%04d-%02d-%02d", t.Year, t.Month, t.Day)
	case TypeTime:
		sign := ""
		if t.Neg != 0 {
			sign = "-"
		}
		return fmt.Sprintf("%s%02d:%02d:%02d%s", sign, t.Day*24+t.Hour, t.Minute, t.Second, frac)
	}
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d%s",
		t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second, frac)
}
