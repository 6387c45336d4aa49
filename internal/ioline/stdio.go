package ioline

import (
	"bufio"
	"context"
	"io"
	"os"
)

// Stdio is a passthrough Channel over the process's standard streams,
// grounded on the teacher's bufio.NewReader(os.Stdin) in NewMachine.
// ReadByte honors ctx cancellation between bytes but, like the
// teacher's blocking os.Stdin read, cannot interrupt a read already in
// flight on the underlying fd.
type Stdio struct {
	in  *bufio.Reader
	out *bufio.Writer
	err io.Writer
}

// NewStdio builds a Stdio channel over os.Stdin/os.Stdout/os.Stderr.
func NewStdio() *Stdio {
	return &Stdio{
		in:  bufio.NewReader(os.Stdin),
		out: bufio.NewWriter(os.Stdout),
		err: os.Stderr,
	}
}

// ReadByte blocks for the next input byte.
func (s *Stdio) ReadByte(ctx context.Context) (byte, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	return s.in.ReadByte()
}

// WriteByte writes b to standard output and flushes it at once.
func (s *Stdio) WriteByte(b byte) {
	s.out.WriteByte(b)
	// OUT is documented as unbuffered at the program level (spec
	// §4.D); flush immediately so output appears in execution order
	// without waiting for a full buffer.
	s.out.Flush()
}

// Ready reports whether a byte is already buffered without blocking.
func (s *Stdio) Ready() bool {
	return s.in.Buffered() > 0
}

// WriteError writes a diagnostic message to stderr.
func (s *Stdio) WriteError(msg string) {
	io.WriteString(s.err, msg)
}
