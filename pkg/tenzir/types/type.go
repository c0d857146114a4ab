// Package types implements the engine's closed tagged-union type system
// (spec §3.1, §4.1). The set of kinds is fixed at compile time; there is
// no host-language reflection into the union, mirroring how the teacher's
// pkg/air/rfield.DataType closes over Arrow's physical type IDs with an
// exhaustive kind switch (pkg/air/rfield/data_type.go).
package types

import (
	"sort"
	"strings"
)

// Kind is the tag of the closed union. Values are part of the wire
// contract for the reducer envelope (spec §6.6) and must not be
// renumbered once assigned.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Int64
	Uint64
	Double
	Duration
	Time
	String
	Blob
	IP
	Subnet
	Enum
	Secret
	List
	Record
	Map
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int64:
		return "int64"
	case Uint64:
		return "uint64"
	case Double:
		return "double"
	case Duration:
		return "duration"
	case Time:
		return "time"
	case String:
		return "string"
	case Blob:
		return "blob"
	case IP:
		return "ip"
	case Subnet:
		return "subnet"
	case Enum:
		return "enum"
	case Secret:
		return "secret"
	case List:
		return "list"
	case Record:
		return "record"
	case Map:
		return "map"
	default:
		return "unknown"
	}
}

// Attribute is a (key, value) pair attached to a Type. Attributes take
// part in Equal but never affect Kind dispatch. They are not carried
// through batch.ArrowSchema, so a Type recovered by batch.TenzirType has
// none.
type Attribute struct {
	Key   string
	Value string
}

// Field is one ordered, named member of a Record type.
type Field struct {
	Name string
	Type Type
}

// EnumValue is one ordinal/name pair of an Enum type.
type EnumValue struct {
	Ordinal uint32
	Name    string
}

// Type is an immutable, cheaply-copyable handle into the type system.
// Two Types are Equal iff their structural body, Name, and Attributes all
// match (spec §3.1).
type Type struct {
	kind Kind
	name string
	attr []Attribute

	// Present only for the kinds that carry a payload.
	listElem  *Type
	fields    []Field   // Record
	enumVals  []EnumValue // Enum
	mapKey    *Type
	mapVal    *Type
}

// New constructs a scalar (payload-free) type of the given kind. Panics
// if kind requires a payload (List, Record, Enum, Map); use the
// dedicated constructors for those.
func New(kind Kind, opts ...Option) Type {
	switch kind {
	case List, Record, Enum, Map:
		panic("types: kind " + kind.String() + " requires a dedicated constructor")
	}
	t := Type{kind: kind}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// NewList constructs a list<elem> type.
func NewList(elem Type, opts ...Option) Type {
	t := Type{kind: List, listElem: &elem}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// NewRecord constructs a record{...} type. Field names within one record
// must be unique and field order is part of the schema; NewRecord panics
// on a duplicate name rather than silently dropping it, since a
// duplicate-field schema would corrupt path resolution (spec §4.1).
func NewRecord(fields []Field, opts ...Option) Type {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f.Name]; dup {
			panic("types: duplicate record field " + f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	cp := make([]Field, len(fields))
	copy(cp, fields)
	t := Type{kind: Record, fields: cp}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// NewEnum constructs an enum(name*) type with an ordinal/name bijection.
func NewEnum(values []EnumValue, opts ...Option) Type {
	byOrdinal := make(map[uint32]struct{}, len(values))
	byName := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, dup := byOrdinal[v.Ordinal]; dup {
			panic("types: duplicate enum ordinal")
		}
		if _, dup := byName[v.Name]; dup {
			panic("types: duplicate enum name " + v.Name)
		}
		byOrdinal[v.Ordinal] = struct{}{}
		byName[v.Name] = struct{}{}
	}
	cp := make([]EnumValue, len(values))
	copy(cp, values)
	t := Type{kind: Enum, enumVals: cp}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// NewMap constructs a map<K,V> type.
func NewMap(key, val Type, opts ...Option) Type {
	t := Type{kind: Map, mapKey: &key, mapVal: &val}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// Option configures the nominal name or attributes of a Type at
// construction time.
type Option func(*Type)

// WithName attaches a nominal tag to the type.
func WithName(name string) Option {
	return func(t *Type) { t.name = name }
}

// WithAttribute appends one (key, value) attribute.
func WithAttribute(key, value string) Option {
	return func(t *Type) { t.attr = append(t.attr, Attribute{Key: key, Value: value}) }
}

func (t Type) Kind() Kind             { return t.kind }
func (t Type) Name() string           { return t.name }
func (t Type) Attributes() []Attribute {
	out := make([]Attribute, len(t.attr))
	copy(out, t.attr)
	return out
}

// ListElem returns the element type of a List type. Panics if t is not a
// List.
func (t Type) ListElem() Type {
	if t.kind != List {
		panic("types: ListElem on non-list type")
	}
	return *t.listElem
}

// Fields returns the ordered fields of a Record type in declaration
// order. Panics if t is not a Record.
func (t Type) Fields() []Field {
	if t.kind != Record {
		panic("types: Fields on non-record type")
	}
	out := make([]Field, len(t.fields))
	copy(out, t.fields)
	return out
}

// EnumValues returns the ordinal/name pairs of an Enum type. Panics if t
// is not an Enum.
func (t Type) EnumValues() []EnumValue {
	if t.kind != Enum {
		panic("types: EnumValues on non-enum type")
	}
	out := make([]EnumValue, len(t.enumVals))
	copy(out, t.enumVals)
	return out
}

// EnumName resolves an ordinal to its name, ok=false if absent.
func (t Type) EnumName(ordinal uint32) (string, bool) {
	for _, v := range t.EnumValues() {
		if v.Ordinal == ordinal {
			return v.Name, true
		}
	}
	return "", false
}

// EnumOrdinal resolves a name to its ordinal, ok=false if absent.
func (t Type) EnumOrdinal(name string) (uint32, bool) {
	for _, v := range t.EnumValues() {
		if v.Name == name {
			return v.Ordinal, true
		}
	}
	return 0, false
}

// MapKey and MapVal return the key/value types of a Map type.
func (t Type) MapKey() Type {
	if t.kind != Map {
		panic("types: MapKey on non-map type")
	}
	return *t.mapKey
}

func (t Type) MapVal() Type {
	if t.kind != Map {
		panic("types: MapVal on non-map type")
	}
	return *t.mapVal
}

// Equal reports whether two types have the same structural body, name,
// and attributes (spec §3.1).
func Equal(a, b Type) bool {
	if a.kind != b.kind || a.name != b.name {
		return false
	}
	if !attrsEqual(a.attr, b.attr) {
		return false
	}
	switch a.kind {
	case List:
		return Equal(*a.listElem, *b.listElem)
	case Record:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for i := range a.fields {
			if a.fields[i].Name != b.fields[i].Name || !Equal(a.fields[i].Type, b.fields[i].Type) {
				return false
			}
		}
		return true
	case Enum:
		if len(a.enumVals) != len(b.enumVals) {
			return false
		}
		av := append([]EnumValue(nil), a.enumVals...)
		bv := append([]EnumValue(nil), b.enumVals...)
		sort.Slice(av, func(i, j int) bool { return av[i].Ordinal < av[j].Ordinal })
		sort.Slice(bv, func(i, j int) bool { return bv[i].Ordinal < bv[j].Ordinal })
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case Map:
		return Equal(*a.mapKey, *b.mapKey) && Equal(*a.mapVal, *b.mapVal)
	default:
		return true
	}
}

func attrsEqual(a, b []Attribute) bool {
	if len(a) != len(b) {
		return false
	}
	am := make(map[string]string, len(a))
	for _, kv := range a {
		am[kv.Key] = kv.Value
	}
	for _, kv := range b {
		v, ok := am[kv.Key]
		if !ok || v != kv.Value {
			return false
		}
	}
	return true
}

// Signature returns a canonical string signature of t, generalizing the
// teacher's DataTypeSignature (pkg/air/rfield/data_type.go) from Arrow's
// physical IDs to the engine's closed kind set. Names and attributes are
// not part of the signature, and neither are enum ordinals: two enums
// with the same names in the same order but different ordinals have equal
// signatures.
func Signature(t Type) string {
	var b strings.Builder
	writeSignature(t, &b)
	return b.String()
}

func writeSignature(t Type, b *strings.Builder) {
	switch t.kind {
	case List:
		b.WriteByte('[')
		writeSignature(t.ListElem(), b)
		b.WriteByte(']')
	case Record:
		b.WriteByte('{')
		for i, f := range t.Fields() {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(f.Name)
			b.WriteByte(':')
			writeSignature(f.Type, b)
		}
		b.WriteByte('}')
	case Enum:
		b.WriteString("enum(")
		for i, v := range t.EnumValues() {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(v.Name)
		}
		b.WriteByte(')')
	case Map:
		b.WriteString("map<")
		writeSignature(t.MapKey(), b)
		b.WriteByte(',')
		writeSignature(t.MapVal(), b)
		b.WriteByte('>')
	default:
		b.WriteString(t.kind.String())
	}
}
