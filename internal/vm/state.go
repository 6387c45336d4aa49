package vm

import "github.com/bdwalton/synacor/internal/config"

// ExecState is the running/blocked/halted classification of the
// executor, per spec §4.C's state machine.
type ExecState int

const (
	Running ExecState = iota
	Blocked
	Halted
)

// InputBuffer is the fixed-capacity line buffer IN drains one byte at a
// time, populated by a readline that runs until '\n' or EOF (spec §3).
type InputBuffer struct {
	Data   [config.InputBufferCap]byte
	Len    int
	Offset int
}

// Empty reports whether every buffered byte has already been consumed.
func (b *InputBuffer) Empty() bool {
	return b.Offset >= b.Len
}

// Fill replaces the buffer contents with line, truncating to capacity.
func (b *InputBuffer) Fill(line []byte) {
	n := len(line)
	if n > config.InputBufferCap {
		n = config.InputBufferCap
	}
	copy(b.Data[:], line[:n])
	b.Len = n
	b.Offset = 0
}

// Next returns the next buffered byte and advances the read offset.
// Callers must check Empty first.
func (b *InputBuffer) Next() byte {
	c := b.Data[b.Offset]
	b.Offset++
	return c
}

// Clone returns a deep copy of the buffer.
func (b *InputBuffer) Clone() InputBuffer {
	return *b
}

// State is the pure data aggregate of a running machine: RAM,
// registers, stack, instruction pointer, tick counter, and pending
// input, per spec §4.B. It has no behavior beyond construction and deep
// copy; it is mutated by the executor (Machine) and by the debugger's
// snapshot load commands.
type State struct {
	RAM   [config.MemWords]uint16
	Regs  [config.NumRegisters]uint16
	Stack *Stack
	IP    uint16
	Ticks uint64
	Input InputBuffer
}

// NewState returns a zeroed state with an empty stack and IP 0, per
// spec §3's Lifecycle.
func NewState() *State {
	return &State{Stack: NewStack()}
}

// Clone deep-copies RAM, registers, stack, IP, tick counter, and input
// buffer, per spec §4.B.
func (s *State) Clone() *State {
	cp := &State{
		RAM:   s.RAM,
		Regs:  s.Regs,
		Stack: s.Stack.Clone(),
		IP:    s.IP,
		Ticks: s.Ticks,
		Input: s.Input.Clone(),
	}
	return cp
}
