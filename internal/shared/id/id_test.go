package id

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshIDsAreMonotonic(t *testing.T) {
	gen := NewGenerator()
	frozen := time.Now()
	gen.now = func() time.Time { return frozen }

	prev := gen.NewRefreshID()
	for i := 0; i < 100; i++ {
		next := gen.NewRefreshID()
		require.True(t, prev.Before(next), "%s should sort before %s", prev, next)
		prev = next
	}
}

func TestRefreshIDIsULID(t *testing.T) {
	rid := NewRefreshID()

	assert.Len(t, rid.String(), 26)
	assert.True(t, IsValid(rid.String()))

	ts, err := Timestamp(rid)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestTimestampRejectsGarbage(t *testing.T) {
	_, err := Timestamp(RefreshID("not-a-ulid"))
	assert.Error(t, err)
	assert.False(t, IsValid("not-a-ulid"))
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()
	const n = 200

	var mu sync.Mutex
	seen := make(map[RefreshID]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rid := gen.NewRefreshID()
			mu.Lock()
			seen[rid] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
}
