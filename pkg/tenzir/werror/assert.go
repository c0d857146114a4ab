// Package werror wraps programming-error assertions (schema/column
// mismatches, invariant violations) with the call site that raised them,
// adapted from the teacher's own pkg/werror.Wrapper into an
// Assertion type with a deterministic, sorted-context rendering and the
// Assert helper spec §4.1 needs.
//
// Per spec §4.1, a schema mismatch between a batch and a claimed column
// type is a programming error, not a per-row warning; callers panic with
// a werror.Assertion so the failure carries its origin even once it has
// propagated through several layers of recover/rethrow during teardown.
package werror

import (
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// Assertion wraps an invariant violation with the file, line, and
// function that raised it, plus an optional key/value context.
type Assertion struct {
	cause error

	file     string
	line     int
	function string

	context map[string]any
}

func (a Assertion) Error() string {
	var msg strings.Builder

	msg.WriteString(a.function)
	msg.WriteByte(':')
	msg.WriteString(strconv.Itoa(a.line))

	if len(a.context) > 0 {
		keys := make([]string, 0, len(a.context))
		for k := range a.context {
			keys = append(keys, k)
		}
		// Sorted so two panics raised with the same context map always
		// render the same message; Go's map iteration order is random,
		// which would otherwise make assertion messages non-reproducible
		// across runs of the same failing test.
		sort.Strings(keys)

		msg.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				msg.WriteByte(',')
			}
			msg.WriteString(k)
			msg.WriteByte('=')
			fmt.Fprintf(&msg, "%v", a.context[k])
		}
		msg.WriteByte('}')
	}

	if a.cause != nil {
		msg.WriteString(" -> ")
		msg.WriteString(a.cause.Error())
	}

	return msg.String()
}

func (a Assertion) Unwrap() error { return a.cause }

func (a Assertion) File() string     { return a.file }
func (a Assertion) Line() int        { return a.line }
func (a Assertion) Function() string { return a.function }

// Wrap annotates err with the caller's file/line/function. Returns nil
// when err is nil so assertion helpers can be called unconditionally.
func Wrap(err error) error {
	return wrapAt(err, nil, 2)
}

// WrapWithContext is Wrap plus a structured context map, used when the
// offending schema or column name is worth preserving verbatim.
func WrapWithContext(err error, context map[string]any) error {
	return wrapAt(err, context, 2)
}

// wrapAt builds the Assertion, recording the frame skip levels above
// wrapAt itself (runtime.Caller's numbering), so each exported entry
// point records its own caller.
func wrapAt(err error, context map[string]any, skip int) error {
	if err == nil {
		return nil
	}

	pc, file, line, _ := runtime.Caller(skip)
	fn := runtime.FuncForPC(pc)

	return Assertion{
		cause:    err,
		file:     file,
		line:     line,
		function: fn.Name(),
		context:  context,
	}
}

// Assert panics with a wrapped Assertion when cond is false. Used at the
// boundary described in spec §4.1: "a schema mismatch between a batch and
// a claimed column type is a programming error (assertion)".
func Assert(cond bool, format string, args ...any) {
	if cond {
		return
	}
	panic(wrapAt(fmt.Errorf(format, args...), nil, 2))
}
