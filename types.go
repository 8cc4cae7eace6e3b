package mariadb

import "reflect"

// Native handle types (opaque pointers owned by libmariadb)
type (
	mysqlHandle  uintptr // MYSQL*
	resultHandle uintptr // MYSQL_RES*
	stmtHandle   uintptr // MYSQL_STMT*
)

// FieldType is the wire type code of a column as reported in the result
// metadata (enum_field_types).
type FieldType uint32

// Wire type codes
const (
	TypeDecimal    FieldType = 0x00
	TypeTiny       FieldType = 0x01
	TypeShort      FieldType = 0x02
	TypeLong       FieldType = 0x03
	TypeFloat      FieldType = 0x04
	TypeDouble     FieldType = 0x05
	TypeNull       FieldType = 0x06
	TypeTimestamp  FieldType = 0x07
	TypeLongLong   FieldType = 0x08
	TypeInt24      FieldType = 0x09
	TypeDate       FieldType = 0x0a
	TypeTime       FieldType = 0x0b
	TypeDateTime   FieldType = 0x0c
	TypeYear       FieldType = 0x0d
	TypeNewDate    FieldType = 0x0e
	TypeVarchar    FieldType = 0x0f
	TypeBit        FieldType = 0x10
	TypeTimestamp2 FieldType = 0x11
	TypeDateTime2  FieldType = 0x12
	TypeTime2      FieldType = 0x13
	TypeJSON       FieldType = 0xf5
	TypeNewDecimal FieldType = 0xf6
	TypeEnum       FieldType = 0xf7
	TypeSet        FieldType = 0xf8
	TypeTinyBlob   FieldType = 0xf9
	TypeMediumBlob FieldType = 0xfa
	TypeLongBlob   FieldType = 0xfb
	TypeBlob       FieldType = 0xfc
	TypeVarString  FieldType = 0xfd
	TypeString     FieldType = 0xfe
	TypeGeometry   FieldType = 0xff
)

// FieldFlag is the column flag bit set from the result metadata.
type FieldFlag uint32

// Column flags
const (
	FlagNotNull       FieldFlag = 1 << 0
	FlagPrimaryKey    FieldFlag = 1 << 1
	FlagUniqueKey     FieldFlag = 1 << 2
	FlagMultipleKey   FieldFlag = 1 << 3
	FlagBlob          FieldFlag = 1 << 4
	FlagUnsigned      FieldFlag = 1 << 5
	FlagZeroFill      FieldFlag = 1 << 6
	FlagBinary        FieldFlag = 1 << 7
	FlagEnum          FieldFlag = 1 << 8
	FlagAutoIncrement FieldFlag = 1 << 9
	FlagTimestamp     FieldFlag = 1 << 10
	FlagSet           FieldFlag = 1 << 11
)

// ValueType is the logical type a column's values convert to.
type ValueType int

const (
	ValueNull ValueType = iota
	ValueBoolean
	ValueFloat32
	ValueDouble64
	ValueDecimal
	ValueDate
	ValueTime
	ValueDateTime
	ValueSigned8
	ValueSigned16
	ValueSigned32
	ValueSigned64
	ValueUnsigned8
	ValueUnsigned16
	ValueUnsigned32
	ValueUnsigned64
	ValueBlob
	ValueEnumeration
	ValueString
)

var valueTypeNames = [...]string{
	ValueNull:        "null",
	ValueBoolean:     "boolean",
	ValueFloat32:     "float32",
	ValueDouble64:    "double64",
	ValueDecimal:     "decimal",
	ValueDate:        "date",
	ValueTime:        "time",
	ValueDateTime:    "date_time",
	ValueSigned8:     "signed8",
	ValueSigned16:    "signed16",
	ValueSigned32:    "signed32",
	ValueSigned64:    "signed64",
	ValueUnsigned8:   "unsigned8",
	ValueUnsigned16:  "unsigned16",
	ValueUnsigned32:  "unsigned32",
	ValueUnsigned64:  "unsigned64",
	ValueBlob:        "blob",
	ValueEnumeration: "enumeration",
	ValueString:      "string",
}

func (v ValueType) String() string {
	if v < 0 || int(v) >= len(valueTypeNames) {
		return "unknown"
	}
	return valueTypeNames[v]
}

// ScanType returns the Go type the Value getter produces for v.
func (v ValueType) ScanType() reflect.Type {
	switch v {
	case ValueBoolean:
		return reflect.TypeOf(false)
	case ValueFloat32:
		return reflect.TypeOf(float32(0))
	case ValueDouble64:
		return reflect.TypeOf(float64(0))
	case ValueDecimal:
		return reflect.TypeOf(decimalZero)
	case ValueDate, ValueDateTime:
		return reflect.TypeOf(zeroTime)
	case ValueTime:
		return reflect.TypeOf(zeroDuration)
	case ValueSigned8:
		return reflect.TypeOf(int8(0))
	case ValueSigned16:
		return reflect.TypeOf(int16(0))
	case ValueSigned32:
		return reflect.TypeOf(int32(0))
	case ValueSigned64:
		return reflect.TypeOf(int64(0))
	case ValueUnsigned8:
		return reflect.TypeOf(uint8(0))
	case ValueUnsigned16:
		return reflect.TypeOf(uint16(0))
	case ValueUnsigned32:
		return reflect.TypeOf(uint32(0))
	case ValueUnsigned64:
		return reflect.TypeOf(uint64(0))
	case ValueBlob:
		return reflect.TypeOf([]byte(nil))
	case ValueEnumeration, ValueString:
		return reflect.TypeOf("")
	default:
		return reflect.TypeOf(new(interface{})).Elem()
	}
}

// Client return codes
const (
	fetchOK        int32 = 0
	fetchError     int32 = 1
	fetchNoData    int32 = 100
	fetchTruncated int32 = 101
)

// Statement attributes
const (
	stmtAttrUpdateMaxLength int32 = 0
)

// mysql_options option codes
const (
	optConnectTimeout int32 = 0
	optReadTimeout    int32 = 11
)

// mysqlField mirrors MYSQL_FIELD (MariaDB Connector/C 3.x, LP64).
type mysqlField struct {
	Name           uintptr
	OrgName        uintptr
	Table          uintptr
	OrgTable       uintptr
	DB             uintptr
	Catalog        uintptr
	Def            uintptr
	Length         uint64
	MaxLength      uint64
	NameLength     uint32
	OrgNameLength  uint32
	TableLength    uint32
	OrgTableLength uint32
	DBLength       uint32
	CatalogLength  uint32
	DefLength      uint32
	Flags          uint32
	Decimals       uint32
	Charsetnr      uint32
	Type           uint32
	_              uint32
	Extension      uintptr
}

// mysqlBind mirrors MYSQL_BIND (MariaDB Connector/C 3.x, LP64). Pointer
// members are carried as uintptr: they address pinned Go memory.
type mysqlBind struct {
	Length         uintptr // unsigned long*
	IsNull         uintptr // my_bool*
	Buffer         uintptr
	Error          uintptr // my_bool*
	RowPtr         uintptr
	StoreParamFunc uintptr
	FetchResult    uintptr
	SkipResult     uintptr
	BufferLength   uint64
	Offset         uint64
	LengthValue    uint64
	Flags          uint32
	PackLength     uint32
	BufferType     uint32
	ErrorValue     uint8
	IsUnsigned     uint8
	LongDataUsed   uint8
	IsNullValue    uint8
	Extension      uintptr
}

// mysqlTime mirrors MYSQL_TIME. second_part is in microseconds.
type mysqlTime struct {
	Year       uint32
	Month      uint32
	Day        uint32
	Hour       uint32
	Minute     uint32
	Second     uint32
	SecondPart uint64
	Neg        uint8
	_          [3]byte
	TimeType   int32
}
