package werror

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTest = errors.New("boom")

func level1a() error {
	return Wrap(level2(1))
}

func level1b() error {
	return Wrap(level2(2))
}

func level2(id int) error {
	return WrapWithContext(errTest, map[string]any{"id": id})
}

func TestWrapCarriesCallSiteAndContext(t *testing.T) {
	err := level1a()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "level2")
	assert.Contains(t, err.Error(), "id=1")
	assert.Contains(t, err.Error(), "boom")

	assert.True(t, errors.Is(err, errTest))
	assert.NotEqual(t, level1a().Error(), level1b().Error())
}

func TestWrapNilIsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil))
}

func TestAssertPanicsOnFalseCondition(t *testing.T) {
	assert.Panics(t, func() {
		Assert(false, "value %d out of range", 7)
	})
}

func TestAssertNoOpOnTrueCondition(t *testing.T) {
	assert.NotPanics(t, func() {
		Assert(true, "unreachable")
	})
}
