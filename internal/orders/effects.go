package orders

import "context"

// CompletionEffect runs after an order is moved to completed. It is best
// effort: failures are logged and counted, never returned to the caller, and
// never undo the status change.
type CompletionEffect interface {
	OnOrderCompleted(ctx context.Context, order Order) error
}

// Recorder receives order lifecycle counters.
type Recorder interface {
	OrderCreated()
	StockConflict()
	CompletionEffect(err error)
}

type nopRecorder struct{}

func (nopRecorder) OrderCreated()          {}
func (nopRecorder) StockConflict()         {}
func (nopRecorder) CompletionEffect(error) {}
