package vm

import (
	"context"
	"testing"

	"github.com/bdwalton/synacor/internal/faults"
)

// fakeChannel is an in-memory ioline.Channel for executor tests: bytes
// queued in toProgram are handed out one at a time via ReadByte; bytes
// the program writes accumulate in written.
type fakeChannel struct {
	toProgram []byte
	pos       int
	written   []byte
}

func (f *fakeChannel) ReadByte(ctx context.Context) (byte, error) {
	if f.pos >= len(f.toProgram) {
		return 0, context.Canceled
	}
	b := f.toProgram[f.pos]
	f.pos++
	return b, nil
}

func (f *fakeChannel) WriteByte(b byte) {
	f.written = append(f.written, b)
}

func (f *fakeChannel) Ready() bool {
	return f.pos < len(f.toProgram)
}

func run(t *testing.T, words []uint16, input string) (*fakeChannel, error) {
	t.Helper()
	io := &fakeChannel{toProgram: []byte(input)}
	m := NewMachine(words, io)
	err := m.Run(context.Background())
	return io, err
}

// Scenario 1 (spec §8): OUT 'A', OUT 'B', HALT.
func TestExecutorScenarioOutAB(t *testing.T) {
	words := []uint16{19, 65, 19, 66, 0}
	io, err := run(t, words, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(io.written) != "AB" {
		t.Errorf("output = %q, want %q", io.written, "AB")
	}
}

// Scenario 2 (spec §8): ADD r0, r0, 2; OUT r0; HALT with r0 initially 0.
func TestExecutorScenarioAdd(t *testing.T) {
	words := []uint16{9, 32768, 32768, 2, 19, 32768, 0}
	io, err := run(t, words, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(io.written) != 1 || io.written[0] != 2 {
		t.Errorf("output = %v, want [2]", io.written)
	}
}

// Scenario 3 (spec §8): a chain of SET/ADD landing on r2 = 9, then OUT.
func TestExecutorScenarioSetAddChain(t *testing.T) {
	words := []uint16{1, 32768, 4, 1, 32769, 5, 9, 32770, 32768, 32769, 19, 32770, 0}
	io, err := run(t, words, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(io.written) != 1 || io.written[0] != 9 {
		t.Errorf("output = %v, want [9]", io.written)
	}
}

// Scenario 4 (spec §8): IN r0; OUT r0; HALT with input "Z\n".
func TestExecutorScenarioEchoInput(t *testing.T) {
	words := []uint16{20, 32768, 19, 32768, 0}
	io, err := run(t, words, "Z\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(io.written) != 1 || io.written[0] != 'Z' {
		t.Errorf("output = %v, want ['Z']", io.written)
	}
}

// Scenario 5 (spec §8): CALL/RET round-trips without fault. CALL 3
// pushes the return address 2 and jumps to the RET at 3, which pops it
// and resumes at the HALT at 2.
func TestExecutorScenarioCallRet(t *testing.T) {
	words := []uint16{17, 3, 0, 18}
	_, err := run(t, words, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// Scenario 6 (spec §8): POP into R0 with an empty stack faults with
// StackUnderflow at IP=0.
func TestExecutorScenarioPopUnderflow(t *testing.T) {
	words := []uint16{3, 32768, 0}
	_, err := run(t, words, "")
	if err == nil {
		t.Fatalf("expected a stack underflow fault")
	}
	if !faults.Is(err, faults.ErrStackUnderflow) {
		t.Errorf("error = %v, want ErrStackUnderflow", err)
	}
}

func TestExecutorModByZeroFaults(t *testing.T) {
	// MOD r0, 5, 0
	words := []uint16{11, 32768, 5, 0, 0}
	_, err := run(t, words, "")
	if !faults.Is(err, faults.ErrDivisionByZero) {
		t.Errorf("error = %v, want ErrDivisionByZero", err)
	}
}

func TestExecutorRetOnEmptyStackHaltsWithoutFault(t *testing.T) {
	// RET with nothing pushed: documented to halt, not fault.
	words := []uint16{18}
	_, err := run(t, words, "")
	if err != nil {
		t.Errorf("RET on empty stack should halt cleanly, got %v", err)
	}
}

func TestExecutorArithmeticWrapsModulo0x8000(t *testing.T) {
	// ADD r0, 32767, 2 => (32767+2) mod 32768 == 1
	words := []uint16{9, 32768, 32767, 2, 19, 32768, 0}
	io, err := run(t, words, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(io.written) != 1 || io.written[0] != 1 {
		t.Errorf("output = %v, want [1]", io.written)
	}
}

func TestExecutorMultWrapsModulo0x8000(t *testing.T) {
	// MULT r0, 200, 200 => 40000 mod 32768 == 7232
	words := []uint16{10, 32768, 200, 200, 19, 32768, 0}
	io, err := run(t, words, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(io.written) != 1 || io.written[0] != byte(7232&0xFF) {
		t.Errorf("output = %v, want [%d]", io.written, byte(7232&0xFF))
	}
}

// TestExecutorRMemMasksLoadedValue guards against a program binary
// placing an unmasked word (>0x7FFF) in memory: RMEM must CAP the
// loaded value to 15 bits before storing it in the destination
// register, same as ADD/MULT/MOD/AND/OR/NOT, or a later use of that
// register as an address would index RAM out of range.
func TestExecutorRMemMasksLoadedValue(t *testing.T) {
	// RMEM r0, 6; HALT; (pad); data word 0x8100 at address 6.
	words := []uint16{15, 32768, 6, 0, 0, 0, 0x8100}
	io := &fakeChannel{}
	m := NewMachine(words, io)
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.State().Regs[0]; got != 0x0100 {
		t.Errorf("r0 = %#x, want %#x (0x8100 masked to 15 bits)", got, 0x0100)
	}
}
