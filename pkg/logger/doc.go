// Package logger provides a structured logging interface for the Parler client.
//
// It wraps the zerolog library and supports:
// - Leveled logging (Debug, Info, Warn, Error)
// - Structured logging with fields
// - Colored console output on stderr
// - An optional file sink that records everything down to debug level
// - A global logger instance for easy access
// - TestLogger, which captures messages for assertions
//
// Basic Usage:
//
//	log, err := logger.New(&cfg.Logging, &cfg.LogToFile)
//	if err != nil {
//	    return err
//	}
//	log.WithField("endpoint", "/feed").Warn("Status: 502")
//
// The console sink honours Logging.Level. When LogToFile.Enabled is true the
// file at LogToFile.LogFile receives every record regardless of that level.
package logger
