package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"watchshop-be/internal/logger"
	"watchshop-be/internal/metrics"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

type Notifier interface {
	Name() string
	Notify(ctx context.Context, event OrderEvent) error
}

// Dispatcher fans an event out to every notifier in the background. Failures
// are logged and counted; they never reach the caller.
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
	metrics   *metrics.Registry
	wg        sync.WaitGroup
}

func NewDispatcher(timeout time.Duration, reg *metrics.Registry, notifiers ...Notifier) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{notifiers: notifiers, timeout: timeout, metrics: reg}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event OrderEvent) {
	base := logger.Detach(ctx)
	for _, n := range d.notifiers {
		d.wg.Add(1)
		go d.run(base, n, event)
	}
}

func (d *Dispatcher) run(base context.Context, n Notifier, event OrderEvent) {
	defer d.wg.Done()

	log := logger.FromCtx(base).With(
		zap.String("notifier", n.Name()),
		zap.Int64("order_id", event.OrderID),
	)

	ctx, cancel := context.WithTimeout(base, d.timeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("notifier panic: %v", r)
			}
		}()
		return n.Notify(ctx, event)
	}()
	if errors.Is(err, ErrRowPending) {
		d.metrics.Inc(metrics.NotificationsPending)
		log.Info("order notification still queued", zap.Error(err))
		return
	}
	if err != nil {
		d.metrics.Inc(metrics.NotificationsFailed)
		log.Warn("order notification failed", zap.Error(err))
		return
	}

	d.metrics.Inc(metrics.NotificationsSent)
	log.Debug("order notification sent")
}

// Wait blocks until all dispatched notifications finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close waits for in-flight notifications, then closes every notifier that
// holds resources. Used on shutdown.
func (d *Dispatcher) Close() error {
	d.wg.Wait()

	var errs []error
	for _, n := range d.notifiers {
		if c, ok := n.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, errors.Wrapf(err, "close %s notifier", n.Name()))
			}
		}
	}
	return errors.Join(errs...)
}
