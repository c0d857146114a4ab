// Package batch implements the engine's columnar batch model (spec §3.2,
// §4.1) on top of Apache Arrow's Go implementation, generalizing the
// teacher's bridge between a custom value model and arrow.Schema
// (pkg/air/arrow_util.go, pkg/air/record.go) from OTel's fixed signal
// shapes to the engine's closed, user-defined record types.
package batch

import (
	"fmt"

	"github.com/apache/arrow/go/v12/arrow"

	"github.com/tenzir/pipeline-core/pkg/tenzir/types"
)

// tenzirKindKey is the arrow field metadata key recording which closed
// union Kind a physical Arrow type stands in for, needed because several
// engine kinds (IP, Subnet, Enum, Secret) do not have a one-to-one Arrow
// physical type. Duration and Time map to Arrow's own duration and
// timestamp types and carry no tag.
const tenzirKindKey = "tenzir.kind"

// ArrowSchema converts a record Type into the arrow.Schema used to back
// a Batch. Panics (a programming error per spec §4.1) if schema is not a
// Record.
func ArrowSchema(schema types.Type) *arrow.Schema {
	if schema.Kind() != types.Record {
		panic("batch: ArrowSchema requires a record type")
	}
	fields := make([]arrow.Field, 0, len(schema.Fields()))
	for _, f := range schema.Fields() {
		fields = append(fields, arrowField(f.Name, f.Type))
	}
	return arrow.NewSchema(fields, nil)
}

func arrowField(name string, t types.Type) arrow.Field {
	dt, kindTag := arrowDataType(t)
	md := arrow.Metadata{}
	if kindTag != "" {
		md = arrow.NewMetadata([]string{tenzirKindKey}, []string{kindTag})
	}
	return arrow.Field{Name: name, Type: dt, Nullable: true, Metadata: md}
}

// arrowDataType returns the physical Arrow representation for t and, for
// kinds without a canonical Arrow type, the tenzir.kind tag to stamp on
// the field's metadata so the reverse mapping is lossless.
func arrowDataType(t types.Type) (arrow.DataType, string) {
	switch t.Kind() {
	case types.Null:
		return arrow.Null, ""
	case types.Bool:
		return arrow.FixedWidthTypes.Boolean, ""
	case types.Int64:
		return arrow.PrimitiveTypes.Int64, ""
	case types.Uint64:
		return arrow.PrimitiveTypes.Uint64, ""
	case types.Double:
		return arrow.PrimitiveTypes.Float64, ""
	case types.Duration:
		return arrow.FixedWidthTypes.Duration_ns, ""
	case types.Time:
		return arrow.FixedWidthTypes.Timestamp_ns, ""
	case types.String:
		return arrow.BinaryTypes.String, ""
	case types.Blob:
		return arrow.BinaryTypes.Binary, ""
	case types.IP:
		// An IP address is stored as its canonical textual form; the
		// metadata tag lets readers distinguish it from a plain string.
		return arrow.BinaryTypes.String, "ip"
	case types.Subnet:
		return arrow.BinaryTypes.String, "subnet"
	case types.Enum:
		return arrow.PrimitiveTypes.Uint32, "enum:" + enumTag(t)
	case types.Secret:
		// Secret plaintext never touches a batch (spec §4.5); only an
		// opaque reference (its serialized form) is carried in columns.
		return arrow.BinaryTypes.Binary, "secret"
	case types.List:
		elem, elemTag := arrowDataType(t.ListElem())
		_ = elemTag // the element field carries no metadata, so elem tags are not written
		return arrow.ListOf(elem), "list"
	case types.Record:
		fields := make([]arrow.Field, 0, len(t.Fields()))
		for _, f := range t.Fields() {
			fields = append(fields, arrowField(f.Name, f.Type))
		}
		return arrow.StructOf(fields...), ""
	case types.Map:
		return arrow.MapOf(mustScalar(t.MapKey()), mustScalar(t.MapVal())), "map"
	default:
		panic(fmt.Sprintf("batch: unhandled kind %s", t.Kind()))
	}
}

func mustScalar(t types.Type) arrow.DataType {
	dt, _ := arrowDataType(t)
	return dt
}

func enumTag(t types.Type) string {
	s := ""
	for i, v := range t.EnumValues() {
		if i > 0 {
			s += ";"
		}
		s += fmt.Sprintf("%d=%s", v.Ordinal, v.Name)
	}
	return s
}

// TenzirType recovers the closed-union record Type that produced an
// arrow.Schema, the inverse of ArrowSchema, for schemas built by this
// package; schemas from elsewhere must carry the tenzir.kind metadata this
// package writes. The round trip is not exact in two respects: type names
// and attributes are not carried through the Arrow schema, and list and
// map elements carry no tenzir.kind tag: ip and subnet elements come back
// as string, secret elements as blob, and an enum element makes
// TenzirType panic on its untagged uint32 type.
func TenzirType(schema *arrow.Schema) types.Type {
	fields := make([]types.Field, 0, schema.NumFields())
	for _, f := range schema.Fields() {
		fields = append(fields, types.Field{Name: f.Name, Type: tenzirFieldType(f)})
	}
	return types.NewRecord(fields)
}

func tenzirFieldType(f arrow.Field) types.Type {
	tag, _ := f.Metadata.GetValue(tenzirKindKey)
	switch {
	case tag == "ip":
		return types.New(types.IP)
	case tag == "subnet":
		return types.New(types.Subnet)
	case tag == "secret":
		return types.New(types.Secret)
	case len(tag) >= 5 && tag[:5] == "enum:":
		return types.NewEnum(parseEnumTag(tag[5:]))
	}

	switch dt := f.Type.(type) {
	case *arrow.NullType:
		return types.New(types.Null)
	case *arrow.BooleanType:
		return types.New(types.Bool)
	case *arrow.Int64Type:
		return types.New(types.Int64)
	case *arrow.Uint64Type:
		return types.New(types.Uint64)
	case *arrow.Float64Type:
		return types.New(types.Double)
	case *arrow.DurationType:
		return types.New(types.Duration)
	case *arrow.TimestampType:
		return types.New(types.Time)
	case *arrow.StringType:
		return types.New(types.String)
	case *arrow.BinaryType:
		return types.New(types.Blob)
	case *arrow.ListType:
		elemField := arrow.Field{Name: "item", Type: dt.Elem()}
		return types.NewList(tenzirFieldType(elemField))
	case *arrow.StructType:
		sub := make([]types.Field, 0, len(dt.Fields()))
		for _, sf := range dt.Fields() {
			sub = append(sub, types.Field{Name: sf.Name, Type: tenzirFieldType(sf)})
		}
		return types.NewRecord(sub)
	case *arrow.MapType:
		keyField := arrow.Field{Name: "key", Type: dt.KeyType()}
		valField := arrow.Field{Name: "value", Type: dt.ItemType()}
		return types.NewMap(tenzirFieldType(keyField), tenzirFieldType(valField))
	default:
		panic(fmt.Sprintf("batch: unsupported arrow type %s", f.Type))
	}
}

func parseEnumTag(tag string) []types.EnumValue {
	var out []types.EnumValue
	start := 0
	for i := 0; i <= len(tag); i++ {
		if i == len(tag) || tag[i] == ';' {
			if i > start {
				var ordinal uint32
				var name string
				pair := tag[start:i]
				for j := 0; j < len(pair); j++ {
					if pair[j] == '=' {
						fmt.Sscanf(pair[:j], "%d", &ordinal)
						name = pair[j+1:]
						break
					}
				}
				out = append(out, types.EnumValue{Ordinal: ordinal, Name: name})
			}
			start = i + 1
		}
	}
	return out
}
