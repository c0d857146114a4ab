package engineconfig_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenzir/pipeline-core/pkg/tenzir/engineconfig"
	"github.com/tenzir/pipeline-core/pkg/tenzir/operator"
)

func TestDefaultConfigMatchesOperatorDefaults(t *testing.T) {
	cfg := engineconfig.DefaultConfig()
	assert.Equal(t, operator.DefaultDemandSettings(), cfg.Demand)
	assert.True(t, cfg.Allocator.CheckedAllocator)
	assert.Equal(t, 32, cfg.PushDown.MaxAbsorbedPredicates)
}

func TestLoadOverlaysOntoDefaults(t *testing.T) {
	doc := `
push_down:
  max_absorbed_predicates: 4
allocator:
  checked_allocator: false
`
	cfg, err := engineconfig.Load(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.PushDown.MaxAbsorbedPredicates)
	assert.False(t, cfg.Allocator.CheckedAllocator)
	// Untouched by the document, so it must retain its default.
	assert.Equal(t, operator.DefaultDemandSettings(), cfg.Demand)
}

func TestLoadEmptyDocumentKeepsDefaults(t *testing.T) {
	cfg, err := engineconfig.Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, engineconfig.DefaultConfig(), cfg)
}

func TestNewAllocatorHonorsCheckedFlag(t *testing.T) {
	cfg := engineconfig.DefaultConfig()
	alloc := cfg.NewAllocator()
	require.NotNil(t, alloc)

	cfg.Allocator.CheckedAllocator = false
	alloc = cfg.NewAllocator()
	require.NotNil(t, alloc)
}
