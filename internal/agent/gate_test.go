package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestGate(t *testing.T) {
	g := NewGate(2)
	if !g.TryAcquire() || !g.TryAcquire() {
		t.Fatal("expected two slots")
	}
	if g.TryAcquire() {
		t.Fatal("third acquire should be rejected")
	}
	if g.InFlight() != 2 {
		t.Errorf("in flight = %d, want 2", g.InFlight())
	}
	g.Release()
	if !g.TryAcquire() {
		t.Fatal("slot should be free after release")
	}

	if NewGate(0).Limit() != DefaultMaxInFlight {
		t.Errorf("default limit not applied")
	}
}

func TestSessionLocks(t *testing.T) {
	locks := NewSessionLocks()

	unlockA := locks.Lock(sessionKey("a", "t"))

	// 不同会话不受影响
	unlockB := locks.Lock(sessionKey("b", "t"))
	unlockB()

	acquired := make(chan struct{})
	go func() {
		unlock := locks.Lock(sessionKey("a", "t"))
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock on the same session acquired while held")
	case <-time.After(50 * time.Millisecond):
	}

	unlockA()
	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("waiter never acquired the lock")
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.Lock(sessionKey("c", "t"))()
		}()
	}
	wg.Wait()
	if n := locks.Len(); n != 0 {
		t.Errorf("lock table not reclaimed, %d entries left", n)
	}
}

func TestSessionLocks_LockContextCanceled(t *testing.T) {
	locks := NewSessionLocks()
	key := sessionKey("a", "t")

	unlock := locks.Lock(key)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := locks.LockContext(ctx, key); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("LockContext() error = %v, want deadline exceeded", err)
	}

	unlock()
	if n := locks.Len(); n != 0 {
		t.Errorf("lock table not reclaimed after canceled wait, %d entries left", n)
	}

	unlock, err := locks.LockContext(context.Background(), key)
	if err != nil {
		t.Fatalf("LockContext() after release error = %v", err)
	}
	unlock()
}
