package mariadb

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// wide is a 64-bit integer of either signedness, as read from a cell
// before it is narrowed to the requested type.
type wide struct {
	bits   uint64
	signed bool // bits hold an int64
}

func wideSigned(v int64) wide    { return wide{bits: uint64(v), signed: true} }
func wideUnsigned(v uint64) wide { return wide{bits: v} }

func (w wide) isZero() bool { return w.bits == 0 }

func (w wide) float() float64 {
	if w.signed {
		return float64(int64(w.bits))
	}
	return float64(w.bits)
}

type signedInt interface {
	~int8 | ~int16 | ~int32 | ~int64
}

type unsignedInt interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// narrowSigned converts w to T, failing with ErrOverflow when the value
// does not fit.
func narrowSigned[T signedInt](w wide) (T, error) {
	if w.signed {
		v := int64(w.bits)
		t := T(v)
		if int64(t) != v {
			return 0, ErrOverflow
		}
		return t, nil
	}
	t := T(w.bits)
	if t < 0 || uint64(t) != w.bits {
		return 0, ErrOverflow
	}
	return t, nil
}

// narrowUnsigned converts w to T, failing with ErrOverflow for negative
// values and values above T's range.
func narrowUnsigned[T unsignedInt](w wide) (T, error) {
	if w.signed && int64(w.bits) < 0 {
		return 0, ErrOverflow
	}
	t := T(w.bits)
	if uint64(t) != w.bits {
		return 0, ErrOverflow
	}
	return t, nil
}

// narrowFloat32 fails for finite values beyond float32's range.
func narrowFloat32(v float64) (float32, error) {
	if !math.IsInf(v, 0) && !math.IsNaN(v) && math.Abs(v) > math.MaxFloat32 {
		return 0, ErrOverflow
	}
	return float32(v), nil
}

// parseInteger parses a base-10 integer cell.
func parseInteger(b []byte) (wide, error) {
	s := string(b)
	if len(s) > 0 && s[0] == '-' {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return wide{}, numError(err)
		}
		return wideSigned(v), nil
	}
	if len(s) > 0 && s[0] == '+' {
		s = s[1:]
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return wide{}, numError(err)
	}
	return wideUnsigned(v), nil
}

func parseFloat(b []byte, bitSize int) (float64, error) {
	v, err := strconv.ParseFloat(string(b), bitSize)
	if err != nil {
		return 0, numError(err)
	}
	return v, nil
}

// parseBool accepts the spellings strconv does plus any integer, which is
// true when non-zero.
func parseBool(b []byte) (bool, error) {
	if v, err := strconv.ParseBool(string(b)); err == nil {
		return v, nil
	}
	w, err := parseInteger(b)
	if err != nil {
		return false, err
	}
	return !w.isZero(), nil
}

func parseDecimal(b []byte) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return decimal.Decimal{}, ErrInvalidValue
	}
	return d, nil
}

func numError(err error) error {
	if errors.Is(err, strconv.ErrRange) {
		return ErrOverflow
	}
	return ErrInvalidValue
}

// parseDateTimeText parses "YYYY-MM-DD[ HH:MM:SS[.fraction]]". The
// all-zero date yields the zero time.
func parseDateTimeText(b []byte, loc *time.Location) (time.Time, error) {
	s := string(b)
	if len(s) < 10 || s[4] != '-' || s[7] != '-' {
		return time.Time{}, ErrInvalidValue
	}
	year, err1 := atoi(s[0:4])
	month, err2 := atoi(s[5:7])
	day, err3 := atoi(s[8:10])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, ErrInvalidValue
	}

	var c clock
	if rest := s[10:]; rest != "" {
		if rest[0] != ' ' && rest[0] != 'T' {
			return time.Time{}, ErrInvalidValue
		}
		var err error
		c, err = parseClock(rest[1:])
		if err != nil || c.neg {
			return time.Time{}, ErrInvalidValue
		}
	}
	return makeTime(year, month, day, c.hour, c.minute, c.second, c.nanos, loc)
}

// parseTimeText parses a TIME value "[-]H+:MM:SS[.fraction]" into a
// signed duration; hours may exceed 23.
func parseTimeText(b []byte) (time.Duration, error) {
	c, err := parseClock(string(b))
	if err != nil {
		return 0, err
	}
	return c.duration(), nil
}

type clock struct {
	neg                  bool
	hour, minute, second int
	nanos                int
}

// maxClockHours is the largest hour count a time.Duration can hold.
const maxClockHours = int(math.MaxInt64 / int64(time.Hour))

func (c clock) duration() time.Duration {
	d := time.Duration(c.hour)*time.Hour +
		time.Duration(c.minute)*time.Minute +
		time.Duration(c.second)*time.Second +
		time.Duration(c.nanos)
	if c.neg {
		d = -d
	}
	return d
}

func parseClock(s string) (clock, error) {
	var c clock
	if len(s) > 0 && s[0] == '-' {
		c.neg = true
		s = s[1:]
	}

	first := strings.IndexByte(s, ':')
	if first < 1 || len(s) < first+6 || s[first+3] != ':' {
		return clock{}, ErrInvalidValue
	}
	var err1, err2, err3 error
	c.hour, err1 = atoi(s[:first])
	c.minute, err2 = atoi(s[first+1 : first+3])
	c.second, err3 = atoi(s[first+4 : first+6])
	if err1 == nil && c.hour >= maxClockHours {
		err1 = ErrOverflow
	}
	if errors.Is(err1, ErrOverflow) {
		return clock{}, ErrOverflow
	}
	if err1 != nil || err2 != nil || err3 != nil || c.minute > 59 || c.second > 59 {
		return clock{}, ErrInvalidValue
	}

	if frac := s[first+6:]; frac != "" {
		if frac[0] != '.' || len(frac) == 1 || len(frac) > 10 {
			return clock{}, ErrInvalidValue
		}
		n, err := atoi(frac[1:])
		if err != nil {
			return clock{}, ErrInvalidValue
		}
		for i := len(frac) - 1; i < 9; i++ {
			n *= 10
		}
		c.nanos = n
	}
	return c, nil
}

// makeTime builds a time, mapping the all-zero date to the zero time.
// Out-of-range fields are rejected rather than normalized by time.Date.
func makeTime(year, month, day, hour, min, sec, nsec int, loc *time.Location) (time.Time, error) {
	if year == 0 && month == 0 && day == 0 {
		return time.Time{}, nil
	}
	if month < 1 || month > 12 || day < 1 || day > daysIn(time.Month(month), year) {
		return time.Time{}, ErrInvalidValue
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 || sec < 0 || sec > 59 || nsec < 0 || nsec > 999999999 {
		return time.Time{}, ErrInvalidValue
	}
	return time.Date(year, time.Month(month), day, hour, min, sec, nsec, loc), nil
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// atoi parses an unsigned run of decimal digits.
func atoi(s string) (int, error) {
	if s == "" || s[0] < '0' || s[0] > '9' {
		return 0, ErrInvalidValue
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, numError(err)
	}
	return n, nil
}
