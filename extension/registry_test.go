package extension

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testExtension is a minimal Extension implementation for testing.
type testExtension struct {
	name string
}

func (e testExtension) Name() string               { return e.name }
func (e testExtension) Commands() []*cobra.Command { return nil }
func (e testExtension) MCPTools() []MCPTool        { return nil }

func TestRegister_PanicOnDuplicate(t *testing.T) {
	name := "test-duplicate-panic"
	Register(testExtension{name: name})

	assert.PanicsWithValue(t, "extension already registered: "+name, func() {
		Register(testExtension{name: name})
	})
}

func TestRegister_KeepsOrder(t *testing.T) {
	Register(testExtension{name: "test-order-b"})
	Register(testExtension{name: "test-order-a"})

	names := Names()
	ib, ia := -1, -1
	for i, n := range names {
		switch n {
		case "test-order-b":
			ib = i
		case "test-order-a":
			ia = i
		}
	}
	require.NotEqual(t, -1, ib)
	require.NotEqual(t, -1, ia)
	assert.Less(t, ib, ia)

	assert.Equal(t, "test-order-a", Get("test-order-a").Name())
	assert.Nil(t, Get("test-missing"))
	assert.Len(t, All(), len(names))
}

func TestNewContext_DefaultsLogger(t *testing.T) {
	ctx := NewContext(nil, nil, nil)
	require.NotNil(t, ctx.Logger())
	assert.Nil(t, ctx.Service())
	assert.Nil(t, ctx.Config())
}
