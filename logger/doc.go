// Package logger provides structured logging for linepipe using zerolog.
//
// Standard output carries the processed records, so logs go to stderr
// unless configured otherwise.
//
// # Configuration
//
//	logging:
//	  level: "warn"
//	  format: "console"
//	  output: "stderr"
//
// # Usage
//
//	log := logger.WithComponent("runner")
//	log.Info("run started", logger.Fields("workers", 4))
package logger
