package interrupt_test

// Notes:
// - Black-box tests; dependencies injected via NewHandlerWithOptions.
// - nowFunc is injected so the remaining decision window is ~50ms and tests
//   stay fast.
// - ctx.Done() confirms the first signal was processed before sending more.
// - The handler writes stderr from two goroutines, so tests use syncBuffer.

import (
	"bytes"
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alnah/vid2txt/internal/interrupt"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// clock returns a nowFunc that reports base until shifted.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func waitDone(t *testing.T, ctx context.Context) {
	t.Helper()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context should be canceled after first signal")
	}
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

func TestNewHandler(t *testing.T) {
	t.Parallel()

	h, ctx := interrupt.NewHandler(context.Background())
	if h == nil || ctx == nil {
		t.Fatal("NewHandler returned nil")
	}

	select {
	case <-ctx.Done():
		t.Fatal("context should not be canceled before any signal")
	default:
	}
	if h.WasInterrupted() {
		t.Error("WasInterrupted should be false before any signal")
	}

	h.Stop()
	h.Stop() // idempotent
}

func TestHandler_NilSigCh(t *testing.T) {
	t.Parallel()

	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{})
	defer h.Stop()

	if ctx.Err() != nil {
		t.Error("context should be live")
	}
	if got := h.WaitForDecision("unused"); got != interrupt.Keep {
		t.Errorf("WaitForDecision() = %v, want Keep", got)
	}
}

func TestHandler_ParentContextCanceled(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithCancel(context.Background())
	h, ctx := interrupt.NewHandlerWithOptions(parent, interrupt.Options{SigCh: make(chan os.Signal)})
	defer h.Stop()

	cancel()
	waitDone(t, ctx)
	if h.WasInterrupted() {
		t.Error("parent cancellation is not an interruption")
	}
}

// ---------------------------------------------------------------------------
// Signal handling
// ---------------------------------------------------------------------------

func TestHandler_FirstInterrupt(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	var stderr syncBuffer
	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:  sigCh,
		Stderr: &stderr,
	})
	defer h.Stop()

	sigCh <- os.Interrupt
	waitDone(t, ctx)

	if !h.WasInterrupted() {
		t.Error("WasInterrupted should be true after first signal")
	}
	if stderr.String() != "" {
		t.Errorf("first signal should print nothing, got %q", stderr.String())
	}
}

func TestHandler_SecondInterrupt(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		after    time.Duration
		wantExit bool
	}{
		{"within window exits", time.Second, true},
		{"at window edge exits", interrupt.DecisionWindow, true},
		{"outside window ignored", interrupt.DecisionWindow + time.Millisecond, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sigCh := make(chan os.Signal, 2)
			var stderr syncBuffer
			clk := &clock{now: base}
			exited := make(chan int, 1)

			h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
				SigCh:    sigCh,
				Stderr:   &stderr,
				NowFunc:  clk.Now,
				ExitFunc: func(code int) { exited <- code },
			})
			defer h.Stop()

			sigCh <- os.Interrupt
			waitDone(t, ctx)
			clk.Set(base.Add(tt.after))
			sigCh <- os.Interrupt

			select {
			case code := <-exited:
				if !tt.wantExit {
					t.Fatalf("exit(%d) called, want no exit", code)
				}
				if code != interrupt.ExitInterrupt {
					t.Errorf("exit code = %d, want %d", code, interrupt.ExitInterrupt)
				}
				if got := stderr.String(); got != "\nAborted.\n" {
					t.Errorf("stderr = %q, want abort message", got)
				}
			case <-time.After(200 * time.Millisecond):
				if tt.wantExit {
					t.Fatal("exit not called for second signal")
				}
			}
		})
	}
}

func TestHandler_OnAbort(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	var stderr syncBuffer
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := &clock{now: base}

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(step string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, step)
	}
	exited := make(chan struct{})

	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:   sigCh,
		Stderr:  &stderr,
		NowFunc: clk.Now,
		ExitFunc: func(int) {
			record("exit")
			close(exited)
		},
	})
	defer h.Stop()

	_ = h.OnAbort(func() { record("first") })
	removeTemp := h.OnAbort(func() { record("released") })
	_ = h.OnAbort(func() { record("second") })
	removeTemp()

	sigCh <- os.Interrupt
	waitDone(t, ctx)
	clk.Set(base.Add(time.Second))
	sigCh <- os.Interrupt

	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("exit not called for second signal")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"second", "first", "exit"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestHandler_OnAbort_NotRunOnFirstSignal(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 1)
	var ran atomic.Bool
	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:    sigCh,
		Stderr:   &syncBuffer{},
		ExitFunc: func(int) {},
	})
	defer h.Stop()

	_ = h.OnAbort(func() { ran.Store(true) })
	sigCh <- os.Interrupt
	waitDone(t, ctx)
	time.Sleep(20 * time.Millisecond)

	if ran.Load() {
		t.Error("cleanup ran on the first signal, want only on abort")
	}
}

func TestHandler_ChannelClosed(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal)
	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{SigCh: sigCh})
	defer h.Stop()

	close(sigCh)
	time.Sleep(20 * time.Millisecond)
	if ctx.Err() != nil {
		t.Error("closing the signal channel must not cancel the context")
	}
}

// ---------------------------------------------------------------------------
// WaitForDecision / KeepPartial
// ---------------------------------------------------------------------------

func TestHandler_WaitForDecision_Keep(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	var stderr syncBuffer
	base := time.Now()
	clk := &clock{now: base}

	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:   sigCh,
		Stderr:  &stderr,
		NowFunc: clk.Now,
	})
	defer h.Stop()

	sigCh <- os.Interrupt
	waitDone(t, ctx)
	clk.Set(base.Add(interrupt.DecisionWindow - 50*time.Millisecond))

	if got := h.WaitForDecision("Keeping partial work..."); got != interrupt.Keep {
		t.Errorf("WaitForDecision() = %v, want Keep", got)
	}
	if got := stderr.String(); got != "Keeping partial work...\n" {
		t.Errorf("stderr = %q, want decision message", got)
	}
}

func TestHandler_WaitForDecision_Discard(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	var stderr syncBuffer
	var exitCalls atomic.Int32

	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:    sigCh,
		Stderr:   &stderr,
		ExitFunc: func(int) { exitCalls.Add(1) },
	})
	defer h.Stop()

	sigCh <- os.Interrupt
	waitDone(t, ctx)

	go func() {
		time.Sleep(50 * time.Millisecond)
		sigCh <- os.Interrupt
	}()

	if got := h.WaitForDecision("waiting"); got != interrupt.Discard {
		t.Errorf("WaitForDecision() = %v, want Discard", got)
	}
	if exitCalls.Load() != 1 {
		t.Errorf("exit calls = %d, want 1", exitCalls.Load())
	}
}

func TestHandler_WaitForDecision_WindowExpired(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	var stderr syncBuffer
	base := time.Now()
	clk := &clock{now: base}

	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:   sigCh,
		Stderr:  &stderr,
		NowFunc: clk.Now,
	})
	defer h.Stop()

	sigCh <- os.Interrupt
	waitDone(t, ctx)
	clk.Set(base.Add(interrupt.DecisionWindow + time.Second))

	start := time.Now()
	if got := h.WaitForDecision("late"); got != interrupt.Keep {
		t.Errorf("WaitForDecision() = %v, want Keep", got)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("expired window should return immediately")
	}
	if stderr.String() != "" {
		t.Errorf("expired window should print nothing, got %q", stderr.String())
	}
}

func TestHandler_KeepPartial(t *testing.T) {
	t.Parallel()

	t.Run("true without interruption", func(t *testing.T) {
		t.Parallel()
		h, _ := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{})
		defer h.Stop()
		if !h.KeepPartial() {
			t.Error("KeepPartial() = false, want true")
		}
	})

	t.Run("prints partial transcript message", func(t *testing.T) {
		t.Parallel()

		sigCh := make(chan os.Signal, 2)
		var stderr syncBuffer
		base := time.Now()
		clk := &clock{now: base}
		h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
			SigCh:   sigCh,
			Stderr:  &stderr,
			NowFunc: clk.Now,
		})
		defer h.Stop()

		sigCh <- os.Interrupt
		waitDone(t, ctx)
		clk.Set(base.Add(interrupt.DecisionWindow - 30*time.Millisecond))

		if !h.KeepPartial() {
			t.Error("KeepPartial() = false, want true")
		}
		if !bytes.Contains([]byte(stderr.String()), []byte("partial transcript")) {
			t.Errorf("stderr = %q, want partial transcript message", stderr.String())
		}
	})
}

// ---------------------------------------------------------------------------
// Misc
// ---------------------------------------------------------------------------

func TestDecision_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    interrupt.Decision
		want string
	}{
		{interrupt.Keep, "Keep"},
		{interrupt.Discard, "Discard"},
		{interrupt.Decision(7), "Decision(7)"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestConstants(t *testing.T) {
	t.Parallel()

	if interrupt.ExitInterrupt != 130 {
		t.Errorf("ExitInterrupt = %d, want 130", interrupt.ExitInterrupt)
	}
	if interrupt.DecisionWindow != 2*time.Second {
		t.Errorf("DecisionWindow = %v, want 2s", interrupt.DecisionWindow)
	}
}

func TestHandler_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 1)
	h, _ := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:    sigCh,
		Stderr:   &syncBuffer{},
		ExitFunc: func(int) {},
	})
	defer h.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.WasInterrupted()
		}()
	}
	sigCh <- os.Interrupt
	wg.Wait()
}
