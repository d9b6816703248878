package debug

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
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

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStartStatsLogger_EmitsUntilCancelled(t *testing.T) {
	var out syncBuffer
	logger := slog.New(slog.NewJSONHandler(&out, nil))
	ctx, cancel := context.WithCancel(context.Background())
	StartStatsLogger(ctx, 5*time.Millisecond, "pipeline.stats", func() []slog.Attr {
		return []slog.Attr{slog.Int("displayed", 7)}
	}, logger)
	waitFor(t, func() bool { return strings.Contains(out.String(), `"displayed":7`) })
	cancel()
	time.Sleep(20 * time.Millisecond)
	n := strings.Count(out.String(), "pipeline.stats")
	time.Sleep(30 * time.Millisecond)
	if got := strings.Count(out.String(), "pipeline.stats"); got != n {
		t.Fatalf("logger kept running after cancel: %d -> %d", n, got)
	}
}

func TestStartMemLogger(t *testing.T) {
	var out syncBuffer
	logger := slog.New(slog.NewJSONHandler(&out, nil))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartMemLogger(ctx, 5*time.Millisecond, logger)
	StartGoroutineLogger(ctx, 5*time.Millisecond, logger)
	waitFor(t, func() bool {
		s := out.String()
		return strings.Contains(s, `"memstats"`) && strings.Contains(s, `"goroutine-stacks"`)
	})
}

func TestLoggersIgnoreNilLogger(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartGoroutineLogger(ctx, time.Millisecond, nil)
	StartStatsLogger(ctx, time.Millisecond, "x", func() []slog.Attr { return nil }, nil)
	StartMemLogger(ctx, time.Millisecond, nil)
}
