package mariadb

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// =============================================================================
// Wire type mapping (field.go)
// =============================================================================

func TestValueTypeOf(t *testing.T) {
	tests := []struct {
		wire     FieldType
		signed   ValueType
		unsigned ValueType
	}{
		{TypeNull, ValueNull, ValueNull},
		{TypeBit, ValueBoolean, ValueBoolean},
		{TypeFloat, ValueFloat32, ValueFloat32},
		{TypeDecimal, ValueDecimal, ValueDecimal},
		{TypeNewDecimal, ValueDecimal, ValueDecimal},
		{TypeDouble, ValueDouble64, ValueDouble64},
		{TypeDate, ValueDate, ValueDate},
		{TypeNewDate, ValueDate, ValueDate},
		{TypeTime, ValueTime, ValueTime},
		{TypeTimestamp, ValueDateTime, ValueDateTime},
		{TypeDateTime, ValueDateTime, ValueDateTime},
		{TypeTiny, ValueSigned8, ValueUnsigned8},
		{TypeYear, ValueSigned16, ValueUnsigned16},
		{TypeShort, ValueSigned16, ValueUnsigned16},
		{TypeInt24, ValueSigned32, ValueUnsigned32},
		{TypeLong, ValueSigned32, ValueUnsigned32},
		{TypeLongLong, ValueSigned64, ValueUnsigned64},
		{TypeTinyBlob, ValueBlob, ValueBlob},
		{TypeMediumBlob, ValueBlob, ValueBlob},
		{TypeLongBlob, ValueBlob, ValueBlob},
		{TypeBlob, ValueBlob, ValueBlob},
		{TypeEnum, ValueEnumeration, ValueEnumeration},
		{TypeVarchar, ValueString, ValueString},
		{TypeVarString, ValueString, ValueString},
		{TypeString, ValueString, ValueString},
		{TypeJSON, ValueString, ValueString},
		{TypeSet, ValueString, ValueString},
		{TypeGeometry, ValueString, ValueString},
		{FieldType(0x42), ValueString, ValueString},
	}

	for _, tt := range tests {
		if got := valueTypeOf(tt.wire, false); got != tt.signed {
			t.Errorf("type 0x%02x signed: expected %s, got %s", uint32(tt.wire), tt.signed, got)
		}
		if got := valueTypeOf(tt.wire, true); got != tt.unsigned {
			t.Errorf("type 0x%02x unsigned: expected %s, got %s", uint32(tt.wire), tt.unsigned, got)
		}
	}
}

func TestField_Flags(t *testing.T) {
	f := Field{Type: TypeLong, Flags: FlagUnsigned | FlagNotNull}
	if !f.Unsigned() {
		t.Error("expected unsigned")
	}
	if f.Nullable() {
		t.Error("expected NOT NULL column to be non-nullable")
	}
	if f.ValueType() != ValueUnsigned32 {
		t.Errorf("expected unsigned32, got %s", f.ValueType())
	}
	if got := f.DatabaseTypeName(); got != "UNSIGNED INT" {
		t.Errorf("expected UNSIGNED INT, got %q", got)
	}

	g := Field{Type: TypeVarString, Flags: FlagUnsigned}
	if got := g.DatabaseTypeName(); got != "VARCHAR" {
		t.Errorf("expected VARCHAR, got %q", got)
	}
	if !g.Nullable() {
		t.Error("expected nullable column")
	}
}

func TestValueType_String(t *testing.T) {
	if got := ValueDateTime.String(); got != "date_time" {
		t.Errorf("expected date_time, got %q", got)
	}
	if got := ValueType(99).String(); got != "unknown" {
		t.Errorf("expected unknown, got %q", got)
	}
}

func TestValueType_ScanType(t *testing.T) {
	tests := []struct {
		vt   ValueType
		name string
	}{
		{ValueBoolean, "bool"},
		{ValueSigned8, "int8"},
		{ValueUnsigned64, "uint64"},
		{ValueFloat32, "float32"},
		{ValueDecimal, "Decimal"},
		{ValueDateTime, "Time"},
		{ValueTime, "Duration"},
		{ValueBlob, ""},
		{ValueString, "string"},
	}
	for _, tt := range tests {
		if got := tt.vt.ScanType().Name(); got != tt.name {
			t.Errorf("%s: expected %q, got %q", tt.vt, tt.name, got)
		}
	}
}

// =============================================================================
// Field catalog
// =============================================================================

func TestFieldCatalog_Lookup(t *testing.T) {
	c := newFieldCatalog([]Field{
		{Name: "id", Type: TypeLong},
		{Name: "name", Type: TypeVarString},
		{Name: "Name", Type: TypeVarString},
	})

	if c.count() != 3 {
		t.Fatalf("expected 3 fields, got %d", c.count())
	}
	for i, name := range []string{"id", "name", "Name"} {
		got, ok := c.lookup(name)
		if !ok || got != i {
			t.Errorf("lookup(%q): expected %d, got %d (ok=%v)", name, i, got, ok)
		}
	}
	if _, ok := c.lookup("NAME"); ok {
		t.Error("expected lookup to be case sensitive")
	}
}

func TestFieldCatalog_DuplicateNames(t *testing.T) {
	c := newFieldCatalog([]Field{
		{Name: "a"},
		{Name: "b"},
		{Name: "a"},
	})
	if got, _ := c.lookup("a"); got != 2 {
		t.Errorf("expected last occurrence 2, got %d", got)
	}
}

func TestFieldCatalog_IndexesAndCopy(t *testing.T) {
	in := []Field{{Name: "x", Index: 7}, {Name: "y", Index: 7}}
	c := newFieldCatalog(in)
	in[0].Name = "changed"

	want := []Field{{Name: "x", Index: 0}, {Name: "y", Index: 1}}
	if diff := cmp.Diff(want, c.fields); diff != "" {
		t.Errorf("catalog fields mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldCatalog_OutOfRange(t *testing.T) {
	c := newFieldCatalog([]Field{{Name: "only"}})
	for _, i := range []int{-1, 1, 100} {
		if _, err := c.field(i); err != ErrIndexOutOfRange {
			t.Errorf("field(%d): expected ErrIndexOutOfRange, got %v", i, err)
		}
	}
}
