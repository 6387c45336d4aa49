// Package ioline implements the byte-oriented, blocking I/O channel
// contract of spec §4.D: a cancellable source of program input and a
// sink for program output, plus a side channel for diagnostics.
package ioline

import "context"

// Channel is the I/O contract the executor's IN/OUT instructions use.
// ReadByte blocks until a byte is available, returns io.EOF, or returns
// ctx.Err() on cancellation. WriteByte hands b to the output sink;
// implementations may buffer, and Piped's WriteByte waits while its
// output buffer is full until space frees up or the pipe is closed.
// Ready reports, without blocking, whether a byte is
// currently available to read — used by the debugger's pre-op hook to
// decide whether the next IN would stall (spec §4.E).
type Channel interface {
	ReadByte(ctx context.Context) (byte, error)
	WriteByte(b byte)
	Ready() bool
}

// ErrorSink is the independent diagnostic channel mentioned in spec
// §4.D, kept separate from program output so debugger/controller
// messages never interleave with OUT bytes.
type ErrorSink interface {
	WriteError(msg string)
}
