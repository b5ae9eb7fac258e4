// Package logging builds the single *slog.Logger used by the cmd/isochron
// boot wiring and its link tasks, following the (logger *slog.Logger)
// constructor parameter the teacher's netdev/tcpip.New already takes. The
// core component packages take no logger and do not log.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Level names accepted by New's level parameter, matching slog's own.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// New builds a text-handler logger writing to w (typically os.Stderr, or a
// serial-console writer on real hardware) at the given minimum level.
// New is only ever called once, at boot, in cmd/isochron.
func New(w io.Writer, level slog.Leveler) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// Discard is a logger that drops everything, for tests that don't care
// about log output.
var Discard = slog.New(slog.NewTextHandler(io.Discard, nil))
