// Package interrupt converts SIGINT/SIGTERM into cancellation of a merge run.
//
// The first signal cancels the returned context with ErrInterrupted as its
// cause, which kills a running ffmpeg and lets the merger abort with its
// artifacts in place. A second signal within ForceWindow exits the process
// at once, for the case where shutdown itself hangs.
package interrupt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ExitInterrupt is the exit code for interrupt (130 = 128 + SIGINT).
const ExitInterrupt = 130

// ForceWindow is how soon a repeated signal must follow the first one to
// force an exit.
const ForceWindow = 2 * time.Second

// ErrInterrupted is the cancellation cause recorded on the first signal.
var ErrInterrupted = errors.New("interrupted by signal")

// Guard watches for termination signals on behalf of one run.
type Guard struct {
	signals <-chan os.Signal
	exit    func(int)
	now     func() time.Time
	out     io.Writer
	notify  bool // signals came from signal.Notify and must be released

	cancel context.CancelCauseFunc
	quit   chan struct{}

	mu     sync.Mutex
	count  int
	last   time.Time
	closed bool
}

// Option configures a Guard.
type Option func(*Guard)

// WithSignals replaces the OS signal subscription (for testing).
func WithSignals(ch <-chan os.Signal) Option {
	return func(g *Guard) { g.signals = ch }
}

// WithExit replaces os.Exit (for testing).
func WithExit(fn func(int)) Option {
	return func(g *Guard) { g.exit = fn }
}

// WithClock replaces time.Now (for testing).
func WithClock(fn func() time.Time) Option {
	return func(g *Guard) { g.now = fn }
}

// WithOutput sets where user-facing notices are written. Default os.Stderr.
// The writer must tolerate writes from the watcher goroutine.
func WithOutput(w io.Writer) Option {
	return func(g *Guard) { g.out = w }
}

// Watch starts a Guard and returns it with a context derived from parent
// that is canceled on the first signal. Call Close when the run ends.
func Watch(parent context.Context, opts ...Option) (*Guard, context.Context) {
	g := &Guard{
		exit: os.Exit,
		now:  time.Now,
		out:  os.Stderr,
		quit: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.signals == nil {
		ch := make(chan os.Signal, 2)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		g.signals = ch
		g.notify = true
	}

	ctx, cancel := context.WithCancelCause(parent)
	g.cancel = cancel

	go g.watch()
	return g, ctx
}

func (g *Guard) watch() {
	for {
		select {
		case <-g.quit:
			return
		case sig, ok := <-g.signals:
			if !ok {
				return
			}
			if g.handle(sig) {
				return
			}
		}
	}
}

// handle records one signal and reports whether watching should stop.
func (g *Guard) handle(sig os.Signal) bool {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return true
	}
	now := g.now()
	g.count++
	first := g.count == 1
	force := !first && now.Sub(g.last) <= ForceWindow
	g.last = now
	g.mu.Unlock()

	switch {
	case first:
		g.cancel(fmt.Errorf("%w: %v", ErrInterrupted, sig))
		fmt.Fprintln(g.out, "\nInterrupted, stopping ffmpeg. Press Ctrl+C again to exit immediately.")
	case force:
		fmt.Fprintln(g.out, "\nAborted.")
		g.exit(ExitInterrupt)
		return true
	}
	return false
}

// Interrupted reports whether at least one signal was received.
func (g *Guard) Interrupted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count > 0
}

// Close stops watching and restores default signal handling. It is safe to
// call more than once. The context returned by Watch is left as is.
func (g *Guard) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.mu.Unlock()

	if g.notify {
		signal.Reset(syscall.SIGINT, syscall.SIGTERM)
	}
	close(g.quit)
}
