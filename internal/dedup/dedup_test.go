package dedup

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	s := NewMemoryStore()
	assert.False(t, s.Exists("s1"))
	assert.False(t, s.IsUsed("s1", "t1"))
	assert.Equal(t, 0, s.Len("s1"))

	s.MarkUsed("s1", "t1")
	s.MarkUsed("s1", "t1")
	s.MarkUsed("s1", "t2")
	assert.True(t, s.Exists("s1"))
	assert.True(t, s.IsUsed("s1", "t1"))
	assert.False(t, s.IsUsed("s2", "t1"), "sessions are isolated")
	assert.Equal(t, 2, s.Len("s1"))

	s.Reset("s1")
	assert.True(t, s.Exists("s1"), "reset keeps the session")
	assert.False(t, s.IsUsed("s1", "t1"))
	assert.Equal(t, 0, s.Len("s1"))

	s.Clear("s1")
	assert.False(t, s.Exists("s1"))
	assert.Equal(t, 0, s.Sessions())
}

func TestMemoryStore_ResetCreatesSession(t *testing.T) {
	s := NewMemoryStore()
	s.Reset("fresh")
	assert.True(t, s.Exists("fresh"))
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session := fmt.Sprintf("s%d", w%2)
			for i := range 100 {
				s.MarkUsed(session, fmt.Sprintf("k%d", i))
				_ = s.IsUsed(session, "k0")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, s.Len("s0"))
	assert.Equal(t, 100, s.Len("s1"))
}
