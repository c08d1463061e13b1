// Package errors provides the unified error type for linepipe runs.
// Every failure a run can hit (configuration, parse, transformation fault,
// I/O) is an AppError carrying a machine-readable code and the process exit
// code the CLI should terminate with.
package errors
