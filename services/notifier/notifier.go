package notifier

import (
	"context"
	"fmt"
	"io"
	"sync"

	"sjsage522/projectwatcher/internal/store"
	"sjsage522/projectwatcher/logger"
)

// Notifier signals the user about a new project. Delivery is best effort:
// failures are logged by the implementation and never retried.
type Notifier interface {
	Notify(ctx context.Context, rec store.Record)
}

// Func adapts a plain function to Notifier
type Func func(ctx context.Context, rec store.Record)

// Notify calls f
func (f Func) Notify(ctx context.Context, rec store.Record) {
	f(ctx, rec)
}

// Multi fans a notification out to every sink in order
type Multi []Notifier

// Notify forwards rec to each sink
func (m Multi) Notify(ctx context.Context, rec store.Record) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, rec)
		}
	}
}

// BellNotifier plays the terminal bell and prints the project
type BellNotifier struct {
	mu    sync.Mutex
	out   io.Writer
	sound bool
}

// Ensure BellNotifier implements Notifier
var _ Notifier = (*BellNotifier)(nil)

// NewBellNotifier writes alerts to out; sound controls the BEL character
func NewBellNotifier(out io.Writer, sound bool) *BellNotifier {
	return &BellNotifier{out: out, sound: sound}
}

// Notify writes the alert line
func (b *BellNotifier) Notify(ctx context.Context, rec store.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bell := ""
	if b.sound {
		bell = "\a"
	}
	if _, err := fmt.Fprintf(b.out, "%sNew project: %s\n  %s\n", bell, rec.Title, rec.URL); err != nil {
		logger.ForNotifier().Warn().Err(err).Msg("Failed to write alert")
	}
}
