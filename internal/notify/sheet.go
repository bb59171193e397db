package notify

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"watchshop-be/internal/logger"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	sheetName    = "Orders"
	sheetBacklog = 64
)

var sheetHeader = []any{
	"Order ID", "Date", "Customer", "Email", "Address", "Payment", "Items", "Subtotal", "Discount", "Coupon", "Total",
}

// ErrRowPending reports that the caller stopped waiting while its row was
// still queued. The row is written anyway.
var ErrRowPending = errors.New("order row queued, write pending")

var errSheetClosed = errors.New("order sheet closed")

type sheetJob struct {
	ctx   context.Context
	event OrderEvent
	done  chan error
}

// SheetNotifier appends one row per order to an xlsx workbook, creating the
// workbook with a header row on first use. A single writer goroutine owns the
// file; Notify only queues rows for it.
type SheetNotifier struct {
	path    string
	queue   chan sheetJob
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func NewSheetNotifier(path string) *SheetNotifier {
	n := &SheetNotifier{
		path:    path,
		queue:   make(chan sheetJob, sheetBacklog),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go n.writer()
	return n
}

func (n *SheetNotifier) Name() string { return "sheet" }

func (n *SheetNotifier) open() (*excelize.File, error) {
	if _, err := os.Stat(n.path); err == nil {
		return excelize.OpenFile(n.path)
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetSheetRow(sheetName, "A1", &sheetHeader); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func eventRow(event OrderEvent) []any {
	items := make([]string, 0, len(event.Items))
	for _, it := range event.Items {
		variant := strings.TrimSpace(it.VariantInfo)
		if variant == "" {
			variant = "-"
		}
		items = append(items, fmt.Sprintf("#%d %s x%d", it.ProductID, variant, it.Quantity))
	}

	return []any{
		event.OrderID,
		event.CreatedAt.Format("2006-01-02 15:04:05"),
		event.CustomerName,
		event.CustomerEmail,
		event.Address(),
		event.PaymentMethod,
		strings.Join(items, "; "),
		event.Subtotal.InexactFloat64(),
		event.Discount.InexactFloat64(),
		event.CouponCode,
		event.Total.InexactFloat64(),
	}
}

// Notify queues the row and waits for it to be written. Once queued, the row
// is written even if ctx ends first; Notify then returns ErrRowPending.
func (n *SheetNotifier) Notify(ctx context.Context, event OrderEvent) error {
	job := sheetJob{ctx: ctx, event: event, done: make(chan error)}

	select {
	case n.queue <- job:
	case <-n.quit:
		return errSheetClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-job.done:
		return err
	case <-ctx.Done():
		return errors.Wrapf(ErrRowPending, "order %d", event.OrderID)
	}
}

// Close stops accepting rows and returns once every queued row is written.
func (n *SheetNotifier) Close() error {
	n.once.Do(func() { close(n.quit) })
	<-n.stopped
	return nil
}

func (n *SheetNotifier) writer() {
	defer close(n.stopped)
	for {
		select {
		case job := <-n.queue:
			n.finish(job)
		case <-n.quit:
			for {
				select {
				case job := <-n.queue:
					n.finish(job)
				default:
					return
				}
			}
		}
	}
}

func (n *SheetNotifier) finish(job sheetJob) {
	err := n.write(job.event)
	select {
	case job.done <- err:
	case <-job.ctx.Done():
		if err != nil {
			logger.FromCtx(job.ctx).Warn("queued order row not written",
				zap.Int64("order_id", job.event.OrderID), zap.Error(err))
		}
	}
}

func (n *SheetNotifier) write(event OrderEvent) error {
	f, err := n.open()
	if err != nil {
		return errors.Wrap(err, "open order sheet")
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return errors.Wrap(err, "read order sheet")
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}

	row := eventRow(event)
	if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
		return errors.Wrap(err, "append order row")
	}

	if err := f.SaveAs(n.path); err != nil {
		return errors.Wrap(err, "save order sheet")
	}
	return nil
}
