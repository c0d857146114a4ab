// Package explain renders an operator chain as a human-readable table,
// a Supplemented Feature (SPEC_FULL.md §4) analogous to the teacher's
// collector/examples/printer sample: a read-only view of what the
// engine is about to run, useful for debugging an assembled pipeline
// without a CLI. Built on github.com/olekukonko/tablewriter, the
// domain stack's chosen table renderer.
package explain

import (
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/tenzir/pipeline-core/pkg/tenzir/operator"
)

// Render writes an ASCII table describing ops in pipeline order: name,
// input/output element types, scheduling location, and whether the
// operator is detached.
func Render(w stringWriter, ops []operator.Operator) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "operator", "input", "output", "location", "detached"})
	for i, op := range ops {
		table.Append([]string{
			strconv.Itoa(i),
			op.Name(),
			op.InputType().String(),
			op.OutputType().String(),
			locationString(op.Location()),
			boolString(op.Detached()),
		})
	}
	table.Render()
}

// stringWriter is the minimal io.Writer subset tablewriter needs,
// declared here so callers can pass a *strings.Builder, *bytes.Buffer,
// or os.Stdout without this package importing io for its own sake.
type stringWriter interface {
	Write(p []byte) (int, error)
}

func locationString(l operator.Location) string {
	switch l {
	case operator.Local:
		return "local"
	case operator.Remote:
		return "remote"
	default:
		return "anywhere"
	}
}

func boolString(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

