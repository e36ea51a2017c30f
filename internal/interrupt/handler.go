// Package interrupt turns SIGINT/SIGTERM into context cancellation and lets a
// second Ctrl+C decide whether work done so far is kept.
package interrupt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"
)

// Decision is what the user chose after the first Ctrl+C.
type Decision int

const (
	// Keep writes the segments recognized before the interruption.
	Keep Decision = iota
	// Discard drops them; the process exits.
	Discard
)

// String returns the string representation of the Decision.
func (d Decision) String() string {
	switch d {
	case Keep:
		return "Keep"
	case Discard:
		return "Discard"
	default:
		return fmt.Sprintf("Decision(%d)", d)
	}
}

// ExitInterrupt is the exit code for interrupt (130 = 128 + SIGINT).
const ExitInterrupt = 130

// DecisionWindow is how long after the first Ctrl+C a second one aborts.
const DecisionWindow = 2 * time.Second

// pollInterval is how often WaitForDecision checks for abort status.
const pollInterval = 100 * time.Millisecond

const (
	abortMessage   = "\nAborted."
	partialMessage = "Interrupted. Writing partial transcript (Ctrl+C again to discard)..."
)

// Handler cancels a context on the first signal. A second signal within
// DecisionWindow prints "Aborted." and exits with ExitInterrupt.
type Handler struct {
	mu             sync.Mutex
	firstInterrupt time.Time
	interrupted    bool
	aborted        bool
	stopped        bool
	cancel         context.CancelFunc
	done           chan struct{}
	cleanups       map[int]func()
	nextCleanup    int

	exitFunc func(int)
	nowFunc  func() time.Time
	stderr   io.Writer
}

// Options holds injectable dependencies for testing.
type Options struct {
	SigCh    <-chan os.Signal
	ExitFunc func(int)
	NowFunc  func() time.Time
	// Stderr receives user-facing messages from two goroutines and must be
	// safe for concurrent writes. Defaults to os.Stderr.
	Stderr io.Writer
}

// NewHandler listens for SIGINT/SIGTERM. The returned context is canceled on
// the first signal.
func NewHandler(parent context.Context) (*Handler, context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return NewHandlerWithOptions(parent, Options{SigCh: sigCh})
}

// NewHandlerWithOptions creates a handler with injectable signal channel,
// exit function, clock and writer.
func NewHandlerWithOptions(parent context.Context, opts Options) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	h := &Handler{
		cancel:   cancel,
		done:     make(chan struct{}),
		cleanups: make(map[int]func()),
		exitFunc: os.Exit,
		nowFunc:  time.Now,
		stderr:   os.Stderr,
	}
	if opts.ExitFunc != nil {
		h.exitFunc = opts.ExitFunc
	}
	if opts.NowFunc != nil {
		h.nowFunc = opts.NowFunc
	}
	if opts.Stderr != nil {
		h.stderr = opts.Stderr
	}

	if opts.SigCh != nil {
		go h.listen(opts.SigCh)
	}
	return h, ctx
}

func (h *Handler) listen(sigCh <-chan os.Signal) {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-sigCh:
			if !ok {
				return
			}
			if h.handleSignal() {
				return
			}
		}
	}
}

// handleSignal records one signal. It reports whether listening should stop.
func (h *Handler) handleSignal() bool {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return true
	}
	now := h.nowFunc()

	if !h.interrupted {
		h.interrupted = true
		h.firstInterrupt = now
		h.cancel()
		h.mu.Unlock()
		return false
	}

	if now.Sub(h.firstInterrupt) > DecisionWindow {
		h.mu.Unlock()
		return false
	}

	h.aborted = true
	cleanups := h.pendingCleanups()
	h.mu.Unlock()
	fmt.Fprintln(h.stderr, abortMessage)
	for _, fn := range cleanups {
		fn()
	}
	h.exitFunc(ExitInterrupt)
	return true // exitFunc returns in tests
}

// OnAbort registers fn to run when a second signal aborts the process,
// before it exits. Deferred calls do not run on that path. The returned
// func unregisters fn.
func (h *Handler) OnAbort(fn func()) (remove func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextCleanup
	h.nextCleanup++
	h.cleanups[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.cleanups, id)
	}
}

// pendingCleanups returns the registered cleanups, newest first. h.mu must
// be held.
func (h *Handler) pendingCleanups() []func() {
	ids := make([]int, 0, len(h.cleanups))
	for id := range h.cleanups {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	slices.Reverse(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, h.cleanups[id])
	}
	return fns
}

// WasInterrupted reports whether at least one signal was received.
func (h *Handler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

// WaitForDecision prints message and waits out the rest of DecisionWindow.
// It returns Discard if a second signal arrives in time, Keep otherwise.
// Without a prior interruption it returns Keep immediately.
func (h *Handler) WaitForDecision(message string) Decision {
	h.mu.Lock()
	if !h.interrupted {
		h.mu.Unlock()
		return Keep
	}
	if h.aborted {
		h.mu.Unlock()
		return Discard
	}
	first := h.firstInterrupt
	h.mu.Unlock()

	remaining := DecisionWindow - h.nowFunc().Sub(first)
	if remaining <= 0 {
		return Keep
	}

	fmt.Fprintln(h.stderr, message)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(remaining)
	defer deadline.Stop()

	for {
		select {
		case <-deadline.C:
			return Keep
		case <-ticker.C:
			h.mu.Lock()
			aborted := h.aborted
			h.mu.Unlock()
			if aborted {
				return Discard
			}
		}
	}
}

// KeepPartial asks whether a partial transcript should be written. It fits
// transcribe.WithPartialDecision.
func (h *Handler) KeepPartial() bool {
	return h.WaitForDecision(partialMessage) == Keep
}

// Stop releases the signal subscription. Safe to call more than once.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	signal.Reset(syscall.SIGINT, syscall.SIGTERM)
	close(h.done)
}
