package link

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotEmpty(t *testing.T) {
	s := NewSlot[int]()

	v, ok := s.Take()
	assert.False(t, ok)
	assert.Zero(t, v)
}

func TestSlotLatestWins(t *testing.T) {
	s := NewSlot[string]()

	// N sends without a receive: only the Nth payload is observable.
	for i := 1; i <= 100; i++ {
		s.Put(fmt.Sprintf("payload-%d", i))
	}

	v, ok := s.Take()
	require.True(t, ok)
	assert.Equal(t, "payload-100", v)

	// A second immediate receive yields empty.
	_, ok = s.Take()
	assert.False(t, ok)
}

func TestSlotPutAfterTake(t *testing.T) {
	s := NewSlot[int]()

	s.Put(1)
	v, ok := s.Take()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	s.Put(2)
	v, ok = s.Take()
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestSlotReadySignal(t *testing.T) {
	s := NewSlot[int]()

	select {
	case <-s.Ready():
		t.Fatal("empty slot should not signal ready")
	default:
	}

	s.Put(7)
	select {
	case <-s.Ready():
	default:
		t.Fatal("slot should signal ready after Put")
	}
}

func TestSlotConcurrent(t *testing.T) {
	s := NewSlot[int]()
	var wg sync.WaitGroup

	// One writer hammering the slot, one reader draining it. The
	// race detector is the real assertion here; values just need to
	// be ones that were actually written.
	seen := make(map[int]bool)
	var mu sync.Mutex

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 1000 {
			s.Put(i)
		}
	}()
	go func() {
		defer wg.Done()
		for range 1000 {
			if v, ok := s.Take(); ok {
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}
	}()
	wg.Wait()

	for v := range seen {
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 1000)
	}
}
