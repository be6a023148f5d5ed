package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_BeginGetEnd(t *testing.T) {
	s := NewStore()

	id := s.Begin("agent-1", "what is the gas price")
	require.NotEmpty(t, id)

	sess, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "agent-1", sess.AgentID)
	assert.Equal(t, StatusRouting, sess.Status)
	assert.Equal(t, 1, s.Active())

	s.End(id)
	_, ok = s.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Active())

	// Ending twice must not panic.
	s.End(id)
}

func TestStore_SetStatus(t *testing.T) {
	s := NewStore()
	id := s.Begin("agent-1", "prompt")

	s.SetStatus(id, StatusAggregating)
	sess, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusAggregating, sess.Status)

	s.SetStatus("unknown", StatusRunning)
}

func TestStore_ConcurrentUse(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := s.Begin("agent", "p")
			s.SetStatus(id, StatusRunning)
			s.End(id)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, s.Active())
}
