package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const (
	OrdersCreated        = "orders_created"
	OrdersRejected       = "orders_rejected"
	CouponValidations    = "coupon_validations"
	CouponRejections     = "coupon_rejections"
	CouponUses           = "coupon_uses"
	LoyaltyRedemptions   = "loyalty_redemptions"
	LoyaltyPointsEarned  = "loyalty_points_earned"
	NotificationsSent    = "notifications_sent"
	NotificationsFailed  = "notifications_failed"
	// NotificationsPending counts rows still queued when the notifier's caller gave up.
	NotificationsPending = "notifications_pending"
	OrderStatusUpdates   = "order_status_updates"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Registry hands out named counters. The zero value is not usable; use
// NewRegistry. A nil *Registry is a valid no-op sink.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
	started  time.Time
}

func NewRegistry() *Registry {
	return &Registry{counters: make(map[string]*Counter), started: time.Now()}
}

func (r *Registry) Counter(name string) *Counter {
	if r == nil {
		return &Counter{}
	}

	r.mu.RLock()
	c, ok := r.counters[name]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok = r.counters[name]; !ok {
		c = &Counter{}
		r.counters[name] = c
	}
	return c
}

func (r *Registry) Inc(name string) {
	r.Counter(name).Inc()
}

type Snapshot struct {
	Uptime   string            `json:"uptime"`
	Counters map[string]uint64 `json:"counters"`
	Names    []string          `json:"-"`
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Snapshot{
		Uptime:   time.Since(r.started).Round(time.Second).String(),
		Counters: make(map[string]uint64, len(r.counters)),
	}
	for name, c := range r.counters {
		s.Counters[name] = c.Load()
		s.Names = append(s.Names, name)
	}
	sort.Strings(s.Names)
	return s
}
