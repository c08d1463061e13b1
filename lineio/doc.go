// Package lineio reads and writes newline-delimited records.
//
// A Reader splits on "\n", "\r\n" and a lone "\r", never includes the
// terminator and yields a final unterminated line. A Writer terminates every
// record with "\n". The path "-" (or an empty path) selects standard input
// or standard output. All failures are IO_ERROR application errors.
package lineio
