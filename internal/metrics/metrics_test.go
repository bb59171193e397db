package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Inc(OrdersCreated)
		}()
	}
	wg.Wait()

	r.Counter(LoyaltyPointsEarned).Add(7)

	snap := r.Snapshot()
	assert.Equal(t, uint64(50), snap.Counters[OrdersCreated])
	assert.Equal(t, uint64(7), snap.Counters[LoyaltyPointsEarned])
	assert.Equal(t, []string{LoyaltyPointsEarned, OrdersCreated}, snap.Names)
}

func TestNilRegistry(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.Inc(CouponUses)
		r.Counter(CouponUses).Add(2)
	})
}

func TestTimer(t *testing.T) {
	timer := StartTimer()
	assert.GreaterOrEqual(t, int64(timer.Duration()), int64(0))
}
