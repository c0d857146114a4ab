package types

import "strings"

// Offset is a sequence of field indices locating a value inside nested
// records, the result of resolving a dotted path against a Record type
// (spec §4.1, "key algorithm: path resolution").
type Offset []int

// NotFoundError is returned by Resolve for the first step of the path
// that does not match; Step names that step. It is an ordinary error
// value, not a panic: callers choose whether to skip the row, emit a
// warning, or propagate, per spec §4.1.
type NotFoundError struct {
	Path string
	Step string
}

func (e *NotFoundError) Error() string {
	return "path " + e.Path + ": field " + e.Step + " not found"
}

// Resolve maps a dotted path ("a.b.c") to an Offset by walking record
// fields literally by name, then by dotted segment. The first segment
// that does not exist, or whose parent is not itself a record, yields a
// *NotFoundError rather than panicking.
func Resolve(record Type, path string) (Offset, error) {
	if record.Kind() != Record {
		return nil, &NotFoundError{Path: path, Step: path}
	}
	if idx, ok := fieldIndex(record, path); ok {
		return Offset{idx}, nil
	}

	segments := strings.Split(path, ".")
	current := record
	offset := make(Offset, 0, len(segments))

	for i, seg := range segments {
		if current.Kind() != Record {
			return nil, &NotFoundError{Path: path, Step: seg}
		}
		idx, ok := fieldIndex(current, seg)
		if !ok {
			return nil, &NotFoundError{Path: path, Step: seg}
		}
		offset = append(offset, idx)
		if i < len(segments)-1 {
			current = current.fields[idx].Type
		}
	}
	return offset, nil
}

func fieldIndex(record Type, name string) (int, bool) {
	for i, f := range record.fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

// TypeAt resolves the type reached by following offset through record,
// asserting (per spec §4.1 failure semantics: a schema mismatch between a
// claimed type and the actual batch is a programming error) that every
// intermediate step is itself a record.
func TypeAt(record Type, offset Offset) Type {
	current := record
	for _, idx := range offset {
		if current.Kind() != Record {
			panic("types: TypeAt descended into non-record type")
		}
		current = current.fields[idx].Type
	}
	return current
}
