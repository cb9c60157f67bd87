package shared

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerialisesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock(7)
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			mu.Lock()
			active--
			mu.Unlock()
			km.Unlock(7)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, maxActive)
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	km.Lock(1)
	done := make(chan struct{})
	go func() {
		km.Lock(2)
		km.Unlock(2)
		close(done)
	}()
	<-done
	km.Unlock(1)
}

func TestKeyedMutexDropsUnusedEntries(t *testing.T) {
	km := NewKeyedMutex()
	km.Lock(42)
	km.Unlock(42)

	km.mu.Lock()
	defer km.mu.Unlock()
	require.Empty(t, km.locks)
}
