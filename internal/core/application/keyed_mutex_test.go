package application

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutex(t *testing.T) {
	t.Parallel()

	m := newKeyedMutex()

	var wg sync.WaitGroup
	counters := map[string]*int{"a": new(int), "b": new(int), "c": new(int)}
	keySets := [][]string{{"a", "b"}, {"b", "a"}, {"c", "a", "c"}, {"b"}}

	for i := 0; i < 50; i++ {
		for _, keys := range keySets {
			wg.Add(1)
			go func(keys []string) {
				defer wg.Done()

				unlock := m.Lock(keys...)
				defer unlock()

				seen := make(map[string]struct{})
				for _, k := range keys {
					if _, ok := seen[k]; ok {
						continue
					}
					seen[k] = struct{}{}
					*counters[k]++
				}
			}(keys)
		}
	}
	wg.Wait()

	require.Equal(t, 150, *counters["a"])
	require.Equal(t, 150, *counters["b"])
	require.Equal(t, 50, *counters["c"])
	require.Empty(t, m.locks)
}
