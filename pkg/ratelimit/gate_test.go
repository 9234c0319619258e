package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNewGate_Defaults(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		expected time.Duration
	}{
		{"explicit interval", 500 * time.Millisecond, 500 * time.Millisecond},
		{"zero falls back to default", 0, DefaultInterval},
		{"negative falls back to default", -time.Second, DefaultInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(tt.interval)
			if g.Interval() != tt.expected {
				t.Errorf("Interval() = %v, want %v", g.Interval(), tt.expected)
			}
		})
	}
}

func TestGate_EnforcesMinimumSpacing(t *testing.T) {
	const interval = 50 * time.Millisecond
	const sends = 4

	g := NewGate(interval)
	ctx := context.Background()

	var stamps []time.Time
	for i := 0; i < sends; i++ {
		if err := g.Wait(ctx); err != nil {
			t.Fatalf("Wait() error: %v", err)
		}
		stamps = append(stamps, time.Now())
	}

	// Allow a small scheduling tolerance below the nominal interval.
	const tolerance = 5 * time.Millisecond
	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		if gap < interval-tolerance {
			t.Errorf("Gap between send %d and %d = %v, want >= %v", i-1, i, gap, interval)
		}
	}
}

func TestGate_FirstSendImmediate(t *testing.T) {
	g := NewGate(time.Second)

	start := time.Now()
	if err := g.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("First Wait() took %v, expected immediate release", elapsed)
	}
}

func TestGate_WaitCancellable(t *testing.T) {
	g := NewGate(10 * time.Second)

	// Consume the initial token so the next wait must block.
	if err := g.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := g.Wait(ctx)
	if err == nil {
		t.Fatal("Expected error from cancelled wait, got nil")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Cancelled Wait() took %v, expected prompt return", elapsed)
	}
}

func TestGate_ConcurrentCallersStaySpaced(t *testing.T) {
	const interval = 30 * time.Millisecond
	const callers = 4

	g := NewGate(interval)

	var mu sync.Mutex
	var stamps []time.Time

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Wait(context.Background()); err != nil {
				t.Errorf("Wait() error: %v", err)
				return
			}
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(stamps) != callers {
		t.Fatalf("Expected %d sends, got %d", callers, len(stamps))
	}

	// Total span for N spaced sends must cover N-1 intervals.
	var min, max time.Time
	for i, s := range stamps {
		if i == 0 || s.Before(min) {
			min = s
		}
		if i == 0 || s.After(max) {
			max = s
		}
	}
	const tolerance = 10 * time.Millisecond
	want := time.Duration(callers-1) * interval
	if span := max.Sub(min); span < want-tolerance {
		t.Errorf("Span across %d concurrent sends = %v, want >= %v", callers, span, want)
	}
}
