// Package logging assembles the slog loggers used by the audiobook tool.
//
// It owns the console and JSON handlers and the level parsing. It also provides
// a no-op logger for tests and wiring code that cannot fail. Commands build one
// logger per run through New and pass it down; packages never reach for
// slog.Default themselves.
package logging
