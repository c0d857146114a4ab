// Package aggregate implements the aggregation contract (spec §4.6):
// reducers that fold a column of batch values into running state,
// produce a result value on demand, and serialize/restore that state
// across restarts. Grounded on the accumulator shape of
// pkg/benchmark/stats and pkg/air/stats (running sum/count/min/max kept
// alongside the columnar data they summarize), generalized from the
// teacher's fixed benchmark metrics to an open, pluggable reducer kind
// set.
package aggregate

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/tenzir/pipeline-core/pkg/tenzir/batch"
	"github.com/tenzir/pipeline-core/pkg/tenzir/diagnostic"
	"github.com/tenzir/pipeline-core/pkg/tenzir/types"
)

// Reducer is one aggregation instance (spec §4.6).
type Reducer interface {
	// Update folds the column at offset in b into the reducer's state.
	// It returns no error; problems are reported as warnings through
	// diag, and a reducer that poisons itself emits its warning there.
	Update(b batch.Batch, offset types.Offset, diag diagnostic.Handle)

	// Get produces the current result. Never mutates state. Numeric and
	// Quantile return a null value if they have seen no non-null input,
	// or if they are poisoned; Distinct always returns its estimate,
	// which is 0 before any input.
	Get() batch.Value

	// Reset returns the reducer to its initial (pre-Update) state.
	Reset()

	// Save serializes state to a self-describing envelope (spec §6.6).
	Save() []byte

	// Restore is the inverse of Save. On structural failure it emits a
	// Warning diagnostic and leaves the reducer at its initial state
	// rather than returning an error, matching spec §4.6's "on
	// structural failure emits a warning and leaves state at initial".
	Restore(saved []byte, diag diagnostic.Handle)
}

// envelope magic/version constants for the persisted-state format (spec
// §6.6): magic(4) | version(2) | reducer_kind_id(2) | body_len(u32) |
// body(...).
const (
	envelopeMagic   uint32 = 0x54525244 // "TRRD"
	envelopeVersion uint16 = 1
)

// KindID namespaces reducer implementations in the persisted envelope
// (spec §6.6: "reducer_kind_id namespaces reducers"). Values are part of
// the wire contract and must not be renumbered once assigned.
type KindID uint16

const (
	KindSum KindID = iota + 1
	KindMin
	KindMax
	KindMean
	KindStddev
	KindVariance
	KindQuantile
	KindDistinct
)

func encodeEnvelope(kind KindID, body any) []byte {
	cborBody, err := cbor.Marshal(body)
	if err != nil {
		// A CBOR marshal failure here means the body type itself is
		// malformed (unsupported field type); that is a programming
		// error in this package, not a runtime condition a caller can
		// recover from.
		panic(fmt.Sprintf("aggregate: cbor marshal of reducer state: %v", err))
	}
	payload := compressBody(cborBody)
	buf := make([]byte, 0, 4+2+2+4+len(payload))
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], envelopeMagic)
	buf = append(buf, tmp[:]...)
	var tmp2 [2]byte
	binary.BigEndian.PutUint16(tmp2[:], envelopeVersion)
	buf = append(buf, tmp2[:]...)
	binary.BigEndian.PutUint16(tmp2[:], uint16(kind))
	buf = append(buf, tmp2[:]...)
	binary.BigEndian.PutUint32(tmp[:], uint32(len(payload)))
	buf = append(buf, tmp[:]...)
	buf = append(buf, payload...)
	return buf
}

// decodeEnvelope validates magic/version and the expected kind (spec
// §6.6: "Readers MUST validate magic and version and MUST treat unknown
// kinds as a restore failure"), then unmarshals body into out.
func decodeEnvelope(saved []byte, wantKind KindID, out any) error {
	if len(saved) < 4+2+2+4 {
		return fmt.Errorf("aggregate: envelope too short (%d bytes)", len(saved))
	}
	r := bytes.NewReader(saved)
	var magic uint32
	var version uint16
	var kindID uint16
	var bodyLen uint32
	for _, f := range []struct {
		p any
	}{{&magic}, {&version}, {&kindID}, {&bodyLen}} {
		if err := binary.Read(r, binary.BigEndian, f.p); err != nil {
			return err
		}
	}
	if magic != envelopeMagic {
		return fmt.Errorf("aggregate: bad envelope magic %#x", magic)
	}
	if version != envelopeVersion {
		return fmt.Errorf("aggregate: unsupported envelope version %d", version)
	}
	if KindID(kindID) != wantKind {
		return fmt.Errorf("aggregate: envelope kind %d does not match reducer kind %d", kindID, wantKind)
	}
	body := saved[4+2+2+4:]
	if uint32(len(body)) != bodyLen {
		return fmt.Errorf("aggregate: envelope body_len %d does not match actual body length %d", bodyLen, len(body))
	}
	cborBody, err := decompressBody(body)
	if err != nil {
		return fmt.Errorf("aggregate: decompress reducer state: %w", err)
	}
	return cbor.Unmarshal(cborBody, out)
}

// compressBody/decompressBody zstd-compress the envelope's CBOR payload,
// the same per-call encoder/decoder construction the teacher's own
// benchmark compression dispatch uses for its Zstd case
// (pkg/benchmark/compression.go's Compress/Decompress).
func compressBody(data []byte) []byte {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		panic(fmt.Sprintf("aggregate: build zstd encoder: %v", err))
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func decompressBody(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

func warn(diag diagnostic.Handle, format string, args ...any) {
	if diag == nil {
		return
	}
	diag.Emit(diagnostic.New(diagnostic.Warning, fmt.Sprintf(format, args...)).Build())
}
