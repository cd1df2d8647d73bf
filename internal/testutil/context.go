package testutil

import (
	"context"
	"io"
	"log/slog"

	"github.com/keelproject/keel/internal/ctxlog"
)

// Context returns a background context carrying a logger that discards all
// output. Most unit tests want this: the code under test can log freely
// without polluting the test output.
func Context() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

// CapturedContext returns a background context whose logger writes debug and
// above into the returned buffer, for tests that assert on log output.
func CapturedContext() (context.Context, *SafeBuffer) {
	buf := &SafeBuffer{}
	handler := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return ctxlog.WithLogger(context.Background(), slog.New(handler)), buf
}
