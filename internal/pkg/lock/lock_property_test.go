// Property-based tests for keyed lock serialization.
package lock

import (
	"sync"
	"sync/atomic"
	"testing"

	"pgregory.net/rapid"
)

// TestConcurrentCounterSafetyProperty tests that for any concurrent
// read-modify-write operations on the same key, the final value matches
// sequential execution.
func TestConcurrentCounterSafetyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := rapid.Int64Range(1000, 100000).Draw(t, "initial")
		numOps := rapid.IntRange(2, 20).Draw(t, "numOps")
		key := rapid.Int64Range(1, 1000000).Draw(t, "key")

		deltas := make([]int64, numOps)
		expected := initial
		for i := range deltas {
			deltas[i] = rapid.Int64Range(-500, 500).Draw(t, "delta")
			expected += deltas[i]
		}

		kl := New()
		value := initial

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, delta := range deltas {
			go func(d int64) {
				defer wg.Done()
				kl.Lock(key)
				defer kl.Unlock(key)
				value += d
			}(delta)
		}
		wg.Wait()

		if value != expected {
			t.Fatalf("value mismatch: expected %d, got %d (initial=%d, numOps=%d)",
				expected, value, initial, numOps)
		}
	})
}

// TestWithLockSerializesProperty tests that WithLock serializes its
// callbacks per key.
func TestWithLockSerializesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numOps := rapid.IntRange(5, 30).Draw(t, "numOps")
		perOp := rapid.Int64Range(1, 100).Draw(t, "perOp")
		key := rapid.Int64Range(1, 1000000).Draw(t, "key")

		kl := New()
		var value int64

		var wg sync.WaitGroup
		wg.Add(numOps)
		for i := 0; i < numOps; i++ {
			go func() {
				defer wg.Done()
				_ = kl.WithLock(key, func() error {
					value += perOp
					return nil
				})
			}()
		}
		wg.Wait()

		if expected := int64(numOps) * perOp; value != expected {
			t.Fatalf("value mismatch with WithLock: expected %d, got %d", expected, value)
		}
	})
}

// TestIndependentKeysProperty tests that locks for different keys never
// corrupt each other's critical sections.
func TestIndependentKeysProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numKeys := rapid.IntRange(2, 10).Draw(t, "numKeys")
		opsPerKey := rapid.IntRange(5, 20).Draw(t, "opsPerKey")

		kl := New()
		values := make([]int64, numKeys)

		var wg sync.WaitGroup
		wg.Add(numKeys * opsPerKey)
		for k := 0; k < numKeys; k++ {
			for j := 0; j < opsPerKey; j++ {
				go func(idx int) {
					defer wg.Done()
					key := int64(idx + 1)
					kl.Lock(key)
					defer kl.Unlock(key)
					values[idx] += 10
				}(k)
			}
		}
		wg.Wait()

		for k := 0; k < numKeys; k++ {
			if expected := int64(opsPerKey) * 10; values[k] != expected {
				t.Fatalf("key %d value mismatch: expected %d, got %d", k+1, expected, values[k])
			}
		}
	})
}

// TestTryLockExclusionProperty tests that TryLock admits at most one
// holder at a time and leaves the lock free afterwards.
func TestTryLockExclusionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		key := rapid.Int64Range(1, 1000000).Draw(t, "key")
		numAttempts := rapid.IntRange(5, 20).Draw(t, "numAttempts")

		kl := New()

		var successCount atomic.Int32
		var holders atomic.Int32
		var wg sync.WaitGroup
		wg.Add(numAttempts)

		startCh := make(chan struct{})
		for i := 0; i < numAttempts; i++ {
			go func() {
				defer wg.Done()
				<-startCh

				if kl.TryLock(key) {
					if holders.Add(1) != 1 {
						t.Errorf("more than one TryLock holder at once")
					}
					successCount.Add(1)
					holders.Add(-1)
					kl.Unlock(key)
				}
			}()
		}
		close(startCh)
		wg.Wait()

		if successCount.Load() < 1 {
			t.Fatalf("at least one TryLock should succeed, got %d", successCount.Load())
		}
		if !kl.TryLock(key) {
			t.Fatal("lock should be free after all holders released")
		}
		kl.Unlock(key)
	})
}

// TestLockUnlockSymmetryProperty tests repeated lock/unlock cycles leave
// the lock acquirable.
func TestLockUnlockSymmetryProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		key := rapid.Int64Range(1, 1000000).Draw(t, "key")
		numCycles := rapid.IntRange(1, 50).Draw(t, "numCycles")

		kl := New()
		for i := 0; i < numCycles; i++ {
			kl.Lock(key)
			kl.Unlock(key)
		}

		if !kl.TryLock(key) {
			t.Fatal("lock should be free after symmetric lock/unlock cycles")
		}
		kl.Unlock(key)
	})
}
