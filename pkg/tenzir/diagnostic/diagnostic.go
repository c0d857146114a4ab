// Package diagnostic implements the engine's structured diagnostic bus
// (spec §4.2). Diagnostics are the only channel for operator-reported
// problems: the operator contract returns result types, never panics or
// exceptions, for anything that is not a programming-error assertion
// (spec §9, §4.1).
package diagnostic

// Severity classifies a Diagnostic's effect on control flow.
type Severity uint8

const (
	// Note carries secondary information; never changes control flow.
	Note Severity = iota
	// Warning reports a recovered problem (a malformed row, a value
	// overflow); never changes control flow (spec §4.2).
	Warning
	// Error marks the emitting operator instance as failed and signals
	// the scheduler to cancel the pipeline at the next suspension point.
	Error
)

func (s Severity) String() string {
	switch s {
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// SourceRef is a byte range into the original pipeline text.
type SourceRef struct {
	Begin int
	End   int
}

// Secondary is a secondary message attached to a Diagnostic, with an
// optional source reference of its own.
type Secondary struct {
	Message string
	Ref     *SourceRef
}

// Diagnostic is the engine's sole error/warning/note representation. It
// never drives control flow by itself — Severity does, via the bus that
// emits it (spec §4.2).
type Diagnostic struct {
	Severity  Severity
	Message   string
	Refs      []SourceRef
	Notes     []Secondary
	DocsURL   string
	Usage     string

	// Operator identifies which operator instance raised this
	// diagnostic, set by the control plane at emission time.
	Operator string
}

// Error implements the error interface so a Diagnostic of Severity Error
// can be threaded through ordinary Go error-handling code (e.g.
// multierr.Append during teardown) without a wrapper type.
func (d Diagnostic) Error() string { return d.Message }

// Builder constructs a Diagnostic field by field, mirroring how the
// original engine's diagnostic builder is used fluently at each emission
// site.
type Builder struct {
	d Diagnostic
}

func New(severity Severity, message string) *Builder {
	return &Builder{d: Diagnostic{Severity: severity, Message: message}}
}

func (b *Builder) WithRef(ref SourceRef) *Builder {
	b.d.Refs = append(b.d.Refs, ref)
	return b
}

func (b *Builder) WithNote(message string, ref *SourceRef) *Builder {
	b.d.Notes = append(b.d.Notes, Secondary{Message: message, Ref: ref})
	return b
}

func (b *Builder) WithDocsURL(url string) *Builder {
	b.d.DocsURL = url
	return b
}

func (b *Builder) WithUsage(usage string) *Builder {
	b.d.Usage = usage
	return b
}

func (b *Builder) Build() Diagnostic {
	return b.d
}
