package admission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockList_BlockAndUnblock(t *testing.T) {
	clk := newFakeClock()
	blocks := NewBlockList(clk.Now)

	assert.False(t, blocks.IsBlocked("1.2.3.4"))

	blocks.Block("1.2.3.4", "manual", time.Hour)
	assert.True(t, blocks.IsBlocked("1.2.3.4"))

	blocks.Unblock("1.2.3.4")
	assert.False(t, blocks.IsBlocked("1.2.3.4"))
}

func TestBlockList_BlockIsIdempotent(t *testing.T) {
	clk := newFakeClock()
	blocks := NewBlockList(clk.Now)

	blocks.Block("1.2.3.4", "first", time.Hour)
	blocks.Block("1.2.3.4", "second", 2*time.Hour)

	list := blocks.List()
	require.Len(t, list, 1)
	assert.Equal(t, "second", list[0].Reason)
}

func TestBlockList_UnblockUnknownIsNoop(t *testing.T) {
	blocks := NewBlockList(nil)
	// Must not panic or error.
	blocks.Unblock("never-blocked")
	assert.Equal(t, 0, blocks.Len())
}

func TestBlockList_TemporaryBlockExpires(t *testing.T) {
	clk := newFakeClock()
	blocks := NewBlockList(clk.Now)

	blocks.Block("1.2.3.4", "burst", time.Hour)
	assert.True(t, blocks.IsBlocked("1.2.3.4"))

	clk.Advance(time.Hour)
	assert.False(t, blocks.IsBlocked("1.2.3.4"))

	// Sweep drops the expired entry from the table.
	assert.Equal(t, 1, blocks.Sweep())
	assert.Equal(t, 0, blocks.Sweep())
}

func TestBlockList_PermanentBlockNeverExpires(t *testing.T) {
	clk := newFakeClock()
	blocks := NewBlockList(clk.Now)

	blocks.Block("5.6.7.8", "failed auth escalation", 0)
	clk.Advance(1000 * time.Hour)

	assert.True(t, blocks.IsBlocked("5.6.7.8"))
	assert.Equal(t, 0, blocks.Sweep())

	ent, ok := blocks.Get("5.6.7.8")
	require.True(t, ok)
	assert.Nil(t, ent.ExpiresAt)
}

func TestBlockList_ListIsSortedAndLive(t *testing.T) {
	clk := newFakeClock()
	blocks := NewBlockList(clk.Now)

	blocks.Block("b", "x", 0)
	blocks.Block("a", "y", 0)
	blocks.Block("c", "z", time.Minute)
	clk.Advance(2 * time.Minute)

	list := blocks.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Identifier)
	assert.Equal(t, "b", list[1].Identifier)
}
