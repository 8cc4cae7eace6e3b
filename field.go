package mariadb

// NotFound is returned by ColumnIndex when no column has the given name.
const NotFound = -1

// Field describes one column of a result.
type Field struct {
	Name      string
	Table     string
	Type      FieldType
	Flags     FieldFlag
	Length    uint64 // declared display width
	MaxLength uint64 // longest value in the buffered result, if requested
	Decimals  uint32
	Charset   uint32
	Index     int
}

// Unsigned reports whether the column carries the UNSIGNED flag.
func (f *Field) Unsigned() bool {
	return f.Flags&FlagUnsigned != 0
}

// Nullable reports whether the column may hold NULL. It is a metadata
// hint only; IsNull is authoritative for a fetched row.
func (f *Field) Nullable() bool {
	return f.Flags&FlagNotNull == 0
}

// ValueType returns the logical type values of this column convert to.
func (f *Field) ValueType() ValueType {
	return valueTypeOf(f.Type, f.Unsigned())
}

// DatabaseTypeName returns the SQL type name without length, upper case.
func (f *Field) DatabaseTypeName() string {
	name := databaseTypeName(f.Type)
	if f.Unsigned() {
		switch f.Type {
		case TypeTiny, TypeShort, TypeInt24, TypeLong, TypeLongLong:
			return "UNSIGNED " + name
		}
	}
	return name
}

// valueTypeOf maps a wire type to its logical value type. Integer
// families pick the unsigned variant whenever unsigned is set.
func valueTypeOf(t FieldType, unsigned bool) ValueType {
	switch t {
	case TypeNull:
		return ValueNull
	case TypeBit:
		return ValueBoolean
	case TypeFloat:
		return ValueFloat32
	case TypeDecimal, TypeNewDecimal:
		return ValueDecimal
	case TypeDouble:
		return ValueDouble64
	case TypeDate, TypeNewDate:
		return ValueDate
	case TypeTime:
		return ValueTime
	case TypeTimestamp, TypeDateTime:
		return ValueDateTime
	case TypeTiny:
		return pick(unsigned, ValueUnsigned8, ValueSigned8)
	case TypeYear, TypeShort:
		return pick(unsigned, ValueUnsigned16, ValueSigned16)
	case TypeInt24, TypeLong:
		return pick(unsigned, ValueUnsigned32, ValueSigned32)
	case TypeLongLong:
		return pick(unsigned, ValueUnsigned64, ValueSigned64)
	case TypeTinyBlob, TypeMediumBlob, TypeLongBlob, TypeBlob:
		return ValueBlob
	case TypeEnum:
		return ValueEnumeration
	case TypeVarchar, TypeVarString, TypeString:
		return ValueString
	case TypeJSON, TypeSet, TypeGeometry, TypeTimestamp2, TypeDateTime2, TypeTime2:
		// Known codes without a dedicated value type are read as text.
		return ValueString
	}
	// Codes this package does not know yet are read as text as well. Add
	// new wire types to the cases above rather than relying on this.
	return ValueString
}

func pick(unsigned bool, u, s ValueType) ValueType {
	if unsigned {
		return u
	}
	return s
}

func databaseTypeName(t FieldType) string {
	switch t {
	case TypeDecimal, TypeNewDecimal:
		return "DECIMAL"
	case TypeTiny:
		return "TINYINT"
	case TypeShort:
		return "SMALLINT"
	case TypeInt24:
		return "MEDIUMINT"
	case TypeLong:
		return "INT"
	case TypeLongLong:
		return "BIGINT"
	case TypeFloat:
		return "FLOAT"
	case TypeDouble:
		return "DOUBLE"
	case TypeNull:
		return "NULL"
	case TypeTimestamp, TypeTimestamp2:
		return "TIMESTAMP"
	case TypeDate, TypeNewDate:
		return "DATE"
	case TypeTime, TypeTime2:
		return "TIME"
	case TypeDateTime, TypeDateTime2:
		return "DATETIME"
	case TypeYear:
		return "YEAR"
	case TypeVarchar, TypeVarString:
		return "VARCHAR"
	case TypeString:
		return "CHAR"
	case TypeBit:
		return "BIT"
	case TypeJSON:
		return "JSON"
	case TypeEnum:
		return "ENUM"
	case TypeSet:
		return "SET"
	case TypeTinyBlob:
		return "TINYBLOB"
	case TypeMediumBlob:
		return "MEDIUMBLOB"
	case TypeLongBlob:
		return "LONGBLOB"
	case TypeBlob:
		return "BLOB"
	case TypeGeometry:
		return "GEOMETRY"
	default:
		return "UNKNOWN"
	}
}

// fieldCatalog is the immutable column metadata of one result.
type fieldCatalog struct {
	fields  []Field
	indexes map[string]int
}

func newFieldCatalog(fields []Field) fieldCatalog {
	c := fieldCatalog{
		fields:  make([]Field, len(fields)),
		indexes: make(map[string]int, len(fields)),
	}
	copy(c.fields, fields)
	for i := range c.fields {
		c.fields[i].Index = i
		// A repeated name maps to its last occurrence.
		c.indexes[c.fields[i].Name] = i
	}
	return c
}

func (c *fieldCatalog) count() int {
	return len(c.fields)
}

func (c *fieldCatalog) field(index int) (*Field, error) {
	if index < 0 || index >= len(c.fields) {
		return nil, ErrIndexOutOfRange
	}
	return &c.fields[index], nil
}

func (c *fieldCatalog) lookup(name string) (int, bool) {
	i, ok := c.indexes[name]
	return i, ok
}
