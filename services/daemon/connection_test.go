package daemon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReconnectPolicyDoublesUpToCeiling(t *testing.T) {
	policy := NewReconnectPolicy(900 * time.Second)

	expected := []time.Duration{
		60 * time.Second,
		120 * time.Second,
		240 * time.Second,
		480 * time.Second,
		900 * time.Second,
		900 * time.Second,
	}
	for i, want := range expected {
		assert.Equal(t, want, policy.NextDelay(), "attempt %d", i+1)
	}
	assert.Equal(t, 6, policy.Attempt())
}

func TestReconnectPolicyResetStartsOver(t *testing.T) {
	policy := NewReconnectPolicy(900 * time.Second)
	policy.NextDelay()
	policy.NextDelay()

	policy.Reset()

	assert.Equal(t, 60*time.Second, policy.NextDelay())
}

func TestReconnectPolicyCeilingNeverBelowBase(t *testing.T) {
	policy := NewReconnectPolicy(10 * time.Second)

	assert.Equal(t, 60*time.Second, policy.NextDelay())
	assert.Equal(t, 60*time.Second, policy.NextDelay())
}
