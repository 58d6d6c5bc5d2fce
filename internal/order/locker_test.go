package order_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chopchop-pos/order-engine/internal/order"
)

func TestKeyMutex_SerializesSameKey(t *testing.T) {
	locks := order.NewKeyMutex()

	const workers = 50
	counter := 0

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			locks.Lock("ORD-20260829-001")
			counter++
			locks.Unlock("ORD-20260829-001")
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestKeyMutex_IndependentKeys(t *testing.T) {
	locks := order.NewKeyMutex()

	locks.Lock("ORD-20260829-001")
	// A different key must not block while the first is held.
	done := make(chan struct{})
	go func() {
		locks.Lock("ORD-20260829-002")
		locks.Unlock("ORD-20260829-002")
		close(done)
	}()
	<-done
	locks.Unlock("ORD-20260829-001")
}

func TestKeyMutex_UnlockWithoutLockPanics(t *testing.T) {
	locks := order.NewKeyMutex()
	assert.Panics(t, func() {
		locks.Unlock("ORD-20260829-001")
	})
}
