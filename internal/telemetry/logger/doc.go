// Package logger provides structured logging for worldsave.
//
// It wraps log/slog:
//
//   - logger.go: logger construction, level control and global default
//   - context.go: context propagation of the logger, save run ID and operation
//   - redact.go: masking of passphrases and other secrets in attributes
//
// Output is JSON by default; "text" selects the slog text handler.
package logger
