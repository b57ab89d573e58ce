package incidents

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTargetLocks_SerializesSameID(t *testing.T) {
	locks := NewTargetLocks()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("mon-1")
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("expected at most one holder, saw %d", maxInside)
	}
	if locks.Len() != 0 {
		t.Errorf("expected lock entries to be released, got %d", locks.Len())
	}
}

func TestTargetLocks_IndependentIDs(t *testing.T) {
	locks := NewTargetLocks()

	unlockA := locks.Lock("a")
	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
	unlockA()
}

func TestTargetLocks_UnlockIsIdempotent(t *testing.T) {
	locks := NewTargetLocks()

	unlock := locks.Lock("a")
	unlock()
	unlock()

	relock := locks.Lock("a")
	relock()
	if locks.Len() != 0 {
		t.Errorf("expected no entries, got %d", locks.Len())
	}
}
