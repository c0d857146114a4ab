package control

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/tenzir/pipeline-core/pkg/tenzir/diagnostic"
)

// Ref is a secret reference (spec §4.5): "Secrets may be literal, named
// (resolved by a host-configured provider), or a composition
// (concatenation, transformation). A secret reference is opaque to
// operators; only the resolver may materialize plaintext." Operators
// only ever hold a Ref, never plaintext, until ResolveSecretsMustYield
// returns.
type Ref interface {
	isSecretRef()
}

// Literal is a secret whose plaintext is embedded directly in the
// pipeline definition (e.g. typed inline by the pipeline's author).
type Literal string

func (Literal) isSecretRef() {}

// Named is a secret resolved by name against a host-configured provider
// (a secret store, an environment, a vault) that the core never talks to
// directly — resolution is delegated to the SecretResolver the pipeline
// owner installs.
type Named struct {
	Name string
}

func (Named) isSecretRef() {}

// CompositionOp is how Composed combines its Parts' resolved plaintexts.
type CompositionOp uint8

const (
	Concat CompositionOp = iota
)

// Composed builds a secret out of other secrets, e.g. concatenating a
// named username secret with a literal separator and a named password
// secret into one connection string.
type Composed struct {
	Op    CompositionOp
	Parts []Ref
}

func (Composed) isSecretRef() {}

// SecretResolver materializes a Ref's plaintext. It is the host's
// responsibility (spec §4.5); the core never persists or logs what it
// returns.
type SecretResolver interface {
	Resolve(ctx context.Context, ref Ref) ([]byte, error)
}

// Request pairs a caller-assigned name with the Ref to resolve and the
// byte-slice target the plaintext is written into. Target is caller-
// owned and must be zeroized by the caller at operator teardown (spec
// §5: "Secret plaintext is write-once, owned by the caller... and must
// be zeroized on operator teardown").
type Request struct {
	Name   string
	Ref    Ref
	Target *[]byte
}

// Zeroize overwrites b's backing array with zeros in place. Operators
// call this from their teardown path for every Request.Target they
// populated.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ResolveSecretsMustYield suspends the operator until every request in
// requests has been tried (spec §4.5). Resolution happens synchronously
// in the calling goroutine, one request after another, and the call
// returns only when all are done. It sets Waiting() to true for its
// duration; the scheduler does not read that flag, so the suspension
// is the blocked call itself.
//
// On success, plaintext is written into each Request's Target. On
// failure, an Error diagnostic is emitted for every failed request and
// the combined error is returned; callers must treat this the same as
// any other runtime error diagnostic (spec §4.4: "Runtime error
// diagnostic ⇒ scheduler cancels the pipeline").
func (h *Handle) ResolveSecretsMustYield(ctx context.Context, requests []Request) error {
	if h.resolver == nil {
		return fmt.Errorf("control: no secret resolver configured")
	}

	h.SetWaiting(true)
	defer h.SetWaiting(false)

	var combined error
	for _, req := range requests {
		plaintext, err := h.resolver.Resolve(ctx, req.Ref)
		if err != nil {
			d := diagnostic.New(diagnostic.Error, fmt.Sprintf("failed to resolve secret %q: %v", req.Name, err)).Build()
			h.Diagnostics().Emit(d)
			combined = multierr.Append(combined, fmt.Errorf("secret %q: %w", req.Name, err))
			continue
		}
		*req.Target = plaintext
	}
	return combined
}
