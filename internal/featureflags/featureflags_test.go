package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	assert.True(t, m.Enabled("a", 1))
	assert.True(t, m.Enabled("c", 1))
	assert.True(t, m.Enabled("e", 1))
	assert.False(t, m.Enabled("b", 1))
	assert.False(t, m.Enabled("d", 1))
	assert.False(t, m.Enabled("f", 1))
}

func TestEnabled_Defaults(t *testing.T) {
	m := NewManager("")
	assert.True(t, m.Enabled(Signup, 0))
	assert.False(t, m.Enabled(RateLimit, 0))
	assert.False(t, m.Enabled("unknown", 0))

	m = NewManager(" Signup = OFF , ratelimit=on")
	assert.False(t, m.Enabled(Signup, 0))
	assert.True(t, m.Enabled(RateLimit, 0))
}

func TestEnabled_PercentRollout(t *testing.T) {
	m := NewManager("full=100%,none=0%,half=50%,bad=x%")

	assert.True(t, m.Enabled("full", 7))
	assert.False(t, m.Enabled("none", 7))
	assert.False(t, m.Enabled("bad", 7))
	assert.False(t, m.Enabled("half", 0), "anonymous callers are outside partial rollouts")

	// rollout is deterministic per user
	first := m.Enabled("half", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("half", 42))
	}
}

func TestSnapshot(t *testing.T) {
	var nilManager *Manager
	assert.False(t, nilManager.Enabled(Signup, 1))

	snap := NewManager("extra=on").Snapshot(1)
	assert.True(t, snap["extra"])
	assert.True(t, snap[Signup])
	assert.Contains(t, snap, RateLimit)
}
