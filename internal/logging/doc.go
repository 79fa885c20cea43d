// Package logging provides structured logging for sigknife.
//
// This package wraps a global zap logger with convenience functions. Library
// packages (sigfile, matcher, sigmake) log through it at debug level only, so
// nothing is printed unless a level is configured.
//
// # Log Levels
//
//   - Debug: tree decoding details, matched symbols, signature windows
//   - Info: database summaries, batch totals
//   - Warn: candidates that produced no unique signature
//   - Error: fatal command failures
//
// # Configuration
//
// Logging is silent by default. Set SIGKNIFE_LOG_LEVEL or pass --log-level:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Output goes to stderr so that signatures written to stdout can be piped.
//
// # Specialized Logging
//
//	logging.LogSignatureDB(db.Name, db.Header.Version, db.OriginalVersion, db.Legacy, nodes, leaves)
//	logging.LogMatch(addr, symbol, length)
//	logging.LogRawBytes("signature window", window)
package logging
