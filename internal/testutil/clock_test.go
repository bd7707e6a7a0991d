package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock_StartsAtEpoch(t *testing.T) {
	clock := NewManualClock()
	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, Epoch, clock.Now(), "frozen until advanced")
}

func TestManualClock_Advance(t *testing.T) {
	clock := NewManualClock()
	clock.Advance(250 * time.Millisecond)

	assert.Equal(t, Epoch.Add(250*time.Millisecond), clock.Now())
	assert.Equal(t, 250*time.Millisecond, clock.Elapsed())
}

func TestManualClock_AutoAdvance(t *testing.T) {
	clock := NewManualClock()
	clock.AutoAdvance(10 * time.Millisecond)

	first := clock.Now()
	second := clock.Now()
	assert.Equal(t, 10*time.Millisecond, second.Sub(first))
}

func TestManualClock_Reset(t *testing.T) {
	clock := NewManualClock()
	clock.AutoAdvance(time.Second)
	clock.Now()
	clock.Reset()

	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, Epoch, clock.Now())
}
