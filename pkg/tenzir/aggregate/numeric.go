package aggregate

import (
	"math"

	"github.com/tenzir/pipeline-core/pkg/tenzir/batch"
	"github.com/tenzir/pipeline-core/pkg/tenzir/diagnostic"
	"github.com/tenzir/pipeline-core/pkg/tenzir/types"
)

// NumericOp selects which numeric reducer Numeric implements. All share
// one state shape and one update loop, applying the uniform rules of
// spec §4.6 (overflow checking, int/double promotion, type
// compatibility, null/empty handling) and differing only in how a
// sample folds into state and how Get interprets it.
type NumericOp uint8

const (
	Sum NumericOp = iota
	Min
	Max
	Mean
	Stddev
	Variance
)

func (op NumericOp) kindID() KindID {
	switch op {
	case Sum:
		return KindSum
	case Min:
		return KindMin
	case Max:
		return KindMax
	case Mean:
		return KindMean
	case Stddev:
		return KindStddev
	default:
		return KindVariance
	}
}

// acceptsTemporal reports whether op accepts Duration/Time samples
// (spec §4.6: "sum, min, max, stddev for duration; never for
// variance"). mean is excluded too: the spec leaves it unstated, and
// "mean" of a point in time has no natural meaning, so this
// implementation declines it uniformly rather than special-casing
// duration vs. time (see DESIGN.md).
func (op NumericOp) acceptsTemporal() bool {
	switch op {
	case Sum, Min, Max, Stddev:
		return true
	default:
		return false
	}
}

// numericState is the wire shape of Numeric's persisted state (spec
// §6.6's envelope body). Field names are part of the save format.
type numericState struct {
	Poisoned bool    `cbor:"poisoned"`
	HasValue bool    `cbor:"has_value"`
	IsDouble bool    `cbor:"is_double"`
	SeenKind uint8   `cbor:"seen_kind"`
	IntVal   int64   `cbor:"int_val"`
	DblVal   float64 `cbor:"dbl_val"`
	Count    int64   `cbor:"count"`
	Mean     float64 `cbor:"mean"`
	M2       float64 `cbor:"m2"` // Welford's running sum of squared deviations
}

// Numeric implements the min/max/sum/mean/stddev/variance reducer
// family (spec §4.6).
type Numeric struct {
	op    NumericOp
	state numericState
}

// NewNumeric constructs a reducer for the given operation at its
// initial state.
func NewNumeric(op NumericOp) *Numeric {
	return &Numeric{op: op}
}

func (r *Numeric) Update(b batch.Batch, offset types.Offset, diag diagnostic.Handle) {
	if r.state.Poisoned {
		return
	}
	rows := b.Rows()
	for row := int64(0); row < rows; row++ {
		v := b.At(row, offset)
		if v.IsNull() {
			continue
		}
		isInt, ival, dval, ok := r.sample(v)
		if !ok {
			warn(diag, "aggregate: incompatible type %s for this reducer; poisoning", v.Kind())
			r.state.Poisoned = true
			return
		}
		if !r.updateTypeCompat(v.Kind()) {
			warn(diag, "aggregate: type changed from %s to %s between batches; poisoning", types.Kind(r.state.SeenKind), v.Kind())
			r.state.Poisoned = true
			return
		}
		if !r.fold(isInt, ival, dval, diag) {
			return // fold already poisoned and warned
		}
	}
}

func (r *Numeric) sample(v batch.Value) (isInt bool, ival int64, dval float64, ok bool) {
	switch v.Kind() {
	case types.Int64:
		return true, v.Int64(), 0, true
	case types.Uint64:
		return true, int64(v.Uint64()), 0, true
	case types.Double:
		return false, 0, v.Double(), true
	case types.Duration:
		if !r.op.acceptsTemporal() {
			return false, 0, 0, false
		}
		return true, v.Duration(), 0, true
	case types.Time:
		if !r.op.acceptsTemporal() {
			return false, 0, 0, false
		}
		return true, v.Time(), 0, true
	default:
		return false, 0, 0, false
	}
}

func (r *Numeric) updateTypeCompat(kind types.Kind) bool {
	if !r.state.HasValue {
		r.state.SeenKind = uint8(kind)
		return true
	}
	seen := types.Kind(r.state.SeenKind)
	if seen == kind {
		return true
	}
	// Int64/Uint64/Double mix freely (promotion, not incompatibility);
	// anything else changing kind mid-stream is a genuine mismatch.
	numericKinds := map[types.Kind]bool{types.Int64: true, types.Uint64: true, types.Double: true}
	if numericKinds[seen] && numericKinds[kind] {
		r.state.SeenKind = uint8(kind)
		return true
	}
	return seen == kind
}

// fold folds one sample into state, applying overflow checking and
// int/double promotion uniformly before dispatching to the
// operation-specific combine step. Returns false if it poisoned the
// reducer (in which case it has already emitted the warning).
func (r *Numeric) fold(isInt bool, ival int64, dval float64, diag diagnostic.Handle) bool {
	if !isInt && !r.state.IsDouble && r.state.HasValue {
		r.promoteToDouble()
	}
	if !isInt {
		r.state.IsDouble = true
	}

	r.state.Count++
	x := dval
	if isInt {
		x = float64(ival)
	}

	// Welford's algorithm, used for mean/stddev/variance regardless of
	// what sum/min/max separately track, so a Numeric configured for
	// Mean/Stddev/Variance never needs the int-exact path at all.
	delta := x - r.state.Mean
	r.state.Mean += delta / float64(r.state.Count)
	delta2 := x - r.state.Mean
	r.state.M2 += delta * delta2

	switch r.op {
	case Sum:
		if !r.state.IsDouble {
			if overflows(r.state.IntVal, ival) {
				warn(diag, "aggregate: integer sum overflow; poisoning")
				r.state.Poisoned = true
				return false
			}
			r.state.IntVal += ival
		} else {
			r.state.DblVal += x
		}
	case Min:
		if !r.state.HasValue {
			r.setScalar(isInt, ival, dval)
		} else if r.lessThan(isInt, ival, dval) {
			r.setScalar(isInt, ival, dval)
		}
	case Max:
		if !r.state.HasValue {
			r.setScalar(isInt, ival, dval)
		} else if r.greaterThan(isInt, ival, dval) {
			r.setScalar(isInt, ival, dval)
		}
	case Mean, Stddev, Variance:
		// state.Mean/M2 above already carry everything these need.
	}
	r.state.HasValue = true
	return true
}

func (r *Numeric) setScalar(isInt bool, ival int64, dval float64) {
	if r.state.IsDouble {
		if isInt {
			r.state.DblVal = float64(ival)
		} else {
			r.state.DblVal = dval
		}
	} else {
		r.state.IntVal = ival
	}
}

func (r *Numeric) lessThan(isInt bool, ival int64, dval float64) bool {
	if r.state.IsDouble {
		v := dval
		if isInt {
			v = float64(ival)
		}
		return v < r.state.DblVal
	}
	return ival < r.state.IntVal
}

func (r *Numeric) greaterThan(isInt bool, ival int64, dval float64) bool {
	if r.state.IsDouble {
		v := dval
		if isInt {
			v = float64(ival)
		}
		return v > r.state.DblVal
	}
	return ival > r.state.IntVal
}

func (r *Numeric) promoteToDouble() {
	r.state.DblVal = float64(r.state.IntVal)
	r.state.IsDouble = true
}

func overflows(a, b int64) bool {
	if b > 0 && a > math.MaxInt64-b {
		return true
	}
	if b < 0 && a < math.MinInt64-b {
		return true
	}
	return false
}

func (r *Numeric) Get() batch.Value {
	if r.state.Poisoned || !r.state.HasValue {
		return batch.NewNullValue(types.Double)
	}
	switch r.op {
	case Sum, Min, Max:
		if r.state.IsDouble {
			return batch.NewDoubleValue(r.state.DblVal)
		}
		seen := types.Kind(r.state.SeenKind)
		if seen == types.Duration {
			return batch.NewDurationValue(r.state.IntVal)
		}
		if seen == types.Time {
			return batch.NewTimeValue(r.state.IntVal)
		}
		return batch.NewInt64Value(r.state.IntVal)
	case Mean:
		return batch.NewDoubleValue(r.state.Mean)
	case Variance:
		if r.state.Count < 1 {
			return batch.NewNullValue(types.Double)
		}
		// Population variance, matching original_source's
		// libtenzir/builtins/aggregation-functions/stddev_variance.cpp
		// ("variance = mean_squared_ - mean_ * mean_", both running
		// averages over count, not count-1) rather than Bessel-corrected
		// sample variance.
		return batch.NewDoubleValue(r.state.M2 / float64(r.state.Count))
	case Stddev:
		if r.state.Count < 1 {
			return batch.NewNullValue(types.Double)
		}
		return batch.NewDoubleValue(math.Sqrt(r.state.M2 / float64(r.state.Count)))
	default:
		return batch.NewNullValue(types.Double)
	}
}

func (r *Numeric) Reset() {
	r.state = numericState{}
}

func (r *Numeric) Save() []byte {
	return encodeEnvelope(r.op.kindID(), r.state)
}

func (r *Numeric) Restore(saved []byte, diag diagnostic.Handle) {
	var st numericState
	if err := decodeEnvelope(saved, r.op.kindID(), &st); err != nil {
		warn(diag, "aggregate: restore failed: %v", err)
		r.Reset()
		return
	}
	r.state = st
}
