// Package engineconfig holds the engine's process-start configuration:
// default demand settings, allocator tuning, and the optimizer's
// push-down heuristics. Operator arguments and the reducer envelope are
// structurally typed records at runtime (spec §6.1, §6.6), but the
// engine's own defaults are configured once at startup from a YAML
// document, following the nested-struct-with-defaults shape of the
// teacher's pkg/air/config.DictionariesConfig /
// NewDefaultConfig, decoded with gopkg.in/yaml.v3 as the teacher's own
// root go.mod already requires.
package engineconfig

import (
	"io"

	"github.com/apache/arrow/go/v12/arrow/memory"
	"gopkg.in/yaml.v3"

	"github.com/tenzir/pipeline-core/pkg/tenzir/operator"
)

// AllocatorConfig selects and tunes the Arrow memory allocator every
// batch in the engine is built against.
type AllocatorConfig struct {
	// CheckedAllocator wraps the allocator with Arrow's leak-checking
	// bookkeeping, at a small overhead; on by default outside of
	// production-tuned deployments the way the teacher's own benchmark
	// harness runs checked in tests and uncommented in benchmarks.
	CheckedAllocator bool `yaml:"checked_allocator"`
}

// PushDownConfig tunes the optimizer's predicate push-down heuristics
// (spec §4.7 rule 1), mirroring the shape of the teacher's
// DictionaryConfig cardinality knobs (pkg/air/config.go) repurposed from
// "should this column become a dictionary" to "should this predicate be
// absorbed by a storage operator".
type PushDownConfig struct {
	// MaxAbsorbedPredicates holds a cap on how many residual filter
	// terms a single storage operator may absorb per optimize() call.
	// Package optimize does not read it, so the cap is not enforced.
	MaxAbsorbedPredicates int `yaml:"max_absorbed_predicates"`
}

// Config is the engine's full set of process-start defaults.
type Config struct {
	Demand    operator.DemandSettings `yaml:"demand_settings"`
	Allocator AllocatorConfig         `yaml:"allocator"`
	PushDown  PushDownConfig          `yaml:"push_down"`
}

// DefaultConfig mirrors operator.DefaultDemandSettings for the demand
// policy and picks conservative allocator/push-down defaults, following
// the teacher's NewDefaultConfig constructor pattern.
func DefaultConfig() *Config {
	return &Config{
		Demand:    operator.DefaultDemandSettings(),
		Allocator: AllocatorConfig{CheckedAllocator: true},
		PushDown:  PushDownConfig{MaxAbsorbedPredicates: 32},
	}
}

// Load decodes a YAML document over DefaultConfig's values: any field
// the document omits keeps its default, matching how the teacher's
// collector config unmarshal-over-defaults idiom works for component
// configs.
func Load(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, err
	}
	return cfg, nil
}

// NewAllocator builds the memory.Allocator every Batch/Builder in a
// pipeline run against, honoring AllocatorConfig.CheckedAllocator.
func (c *Config) NewAllocator() memory.Allocator {
	pool := memory.NewGoAllocator()
	if c.Allocator.CheckedAllocator {
		return memory.NewCheckedAllocator(pool)
	}
	return pool
}
