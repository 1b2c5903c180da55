package admission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBurstDetector_FlagsOnCrossingCeiling(t *testing.T) {
	clk := newFakeClock()
	det := NewBurstDetector(NewCounterStore(clk.Now), clk.Now, 10*time.Second, 50)

	for i := 0; i < 50; i++ {
		assert.False(t, det.Observe("198.51.100.1"), "observation %d should be under the ceiling", i+1)
	}
	assert.True(t, det.Observe("198.51.100.1"), "the 51st observation crosses the ceiling")
}

func TestBurstDetector_NewWindowStartsFresh(t *testing.T) {
	clk := newFakeClock()
	det := NewBurstDetector(NewCounterStore(clk.Now), clk.Now, 10*time.Second, 50)

	for i := 0; i < 51; i++ {
		det.Observe("id")
	}

	clk.Advance(10 * time.Second)
	assert.False(t, det.Observe("id"))
}

func TestBurstDetector_IdentifiersAreIndependent(t *testing.T) {
	clk := newFakeClock()
	det := NewBurstDetector(NewCounterStore(clk.Now), clk.Now, 10*time.Second, 50)

	for i := 0; i < 51; i++ {
		det.Observe("noisy")
	}
	assert.False(t, det.Observe("quiet"))
}

func TestBurstDetector_Defaults(t *testing.T) {
	det := NewBurstDetector(NewCounterStore(nil), nil, 0, 0)
	assert.Equal(t, DefaultBurstWindow, det.Window())
	assert.Equal(t, DefaultBurstCeiling, det.Ceiling())
}
