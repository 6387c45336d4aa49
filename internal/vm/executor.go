package vm

import (
	"context"
	"log/slog"

	"github.com/bdwalton/synacor/internal/config"
	"github.com/bdwalton/synacor/internal/faults"
	"github.com/bdwalton/synacor/internal/ioline"
)

// DebuggerHook is the capability the executor calls before decoding
// each instruction, per DESIGN NOTES §9: "a DebuggerHook capability the
// executor calls, receiving a &mut State; no back-pointer from machine
// to debugger". willBlockOnIN is true when the next instruction is IN
// and no buffered/ready input exists, matching spec §4.E's "would-block
// mode". A non-nil error stops the executor with that fault (used for
// the synthetic DebuggerHalt, per DESIGN.md's Open Question decision).
type DebuggerHook interface {
	PreOp(ctx context.Context, state *State, willBlockOnIN bool) error
}

// Machine ties together State, the decode/execute loop, an I/O
// channel, and an optional debugger hook, per spec §4.C and §4.F.
type Machine struct {
	state *State
	io    ioline.Channel
	hook  DebuggerHook
	exec  ExecState
}

// NewMachine creates a machine with the given program image loaded at
// address 0 (silently truncated to the address space, per spec §6),
// zeroed registers, an empty stack, and IP 0.
func NewMachine(program []uint16, io ioline.Channel) *Machine {
	m := &Machine{state: NewState(), io: io, exec: Running}
	copy(m.state.RAM[:], program)
	return m
}

// AttachHook installs (or clears, with nil) the debugger's pre-op hook.
func (m *Machine) AttachHook(hook DebuggerHook) {
	m.hook = hook
}

// State returns the live machine state for inspection. Debuggers and
// snapshot code receive this same pointer; no copy is made.
func (m *Machine) State() *State {
	return m.state
}

// Halted reports whether the executor has stopped (normally or on
// fault).
func (m *Machine) Halted() bool {
	return m.exec == Halted
}

// Blocked reports whether the executor is waiting on input.
func (m *Machine) Blocked() bool {
	return m.exec == Blocked
}

// Restore replaces the live state wholesale and marks the executor
// Running again.
func (m *Machine) Restore(s *State) {
	m.state = s
	m.exec = Running
}

// stateAttrs builds the "STATE" log group (IP, current opcode, tick
// count) attached to each run-transition record, mirroring elsie's
// log.Group("STATE", vm) idiom via slog.Group.
func (m *Machine) stateAttrs() slog.Attr {
	op := "?"
	if instr, err := Decode(m.state.RAM[:], m.state.IP); err == nil {
		op = instr.Op.Name()
	}
	return slog.Group("STATE",
		slog.Uint64("ip", uint64(m.state.IP)),
		slog.String("opcode", op),
		slog.Uint64("ticks", m.state.Ticks),
	)
}

// Run drives Step until Halted or ctx is cancelled, logging one
// structured record per state transition.
func (m *Machine) Run(ctx context.Context) error {
	slog.Info("run start", m.stateAttrs())

	for {
		select {
		case <-ctx.Done():
			slog.Warn("fault", "err", ctx.Err(), m.stateAttrs())
			return ctx.Err()
		default:
		}
		if m.Halted() {
			slog.Info("halted", m.stateAttrs())
			return nil
		}
		if err := m.Step(ctx); err != nil {
			slog.Error("fault", "err", err, m.stateAttrs())
			return err
		}
	}
}

// willBlockOnIN reports whether the next instruction is IN and would
// need to stall waiting for fresh input.
func (m *Machine) willBlockOnIN() bool {
	if int(m.state.IP) >= len(m.state.RAM) {
		return false
	}
	if Opcode(m.state.RAM[m.state.IP]) != IN {
		return false
	}
	return m.state.Input.Empty() && !m.io.Ready()
}

// Step executes exactly one instruction, invoking the debugger hook
// first (spec §4.C/§4.E ordering).
func (m *Machine) Step(ctx context.Context) error {
	if m.Halted() {
		return nil
	}

	if m.hook != nil {
		if err := m.hook.PreOp(ctx, m.state, m.willBlockOnIN()); err != nil {
			m.exec = Halted
			return err
		}
	}

	if int(m.state.IP) >= config.MemWords {
		m.exec = Halted
		return faults.Decodef("IP out of range: %04x", m.state.IP)
	}

	instr, err := Decode(m.state.RAM[:], m.state.IP)
	if err != nil {
		m.exec = Halted
		return err
	}

	m.state.Ticks++
	return m.execute(ctx, instr)
}

func regOperand(raw uint16, ip uint16) (Operand, error) {
	return decodeAsRegister(raw, ip)
}

func valOperand(raw uint16, ip uint16) (Operand, error) {
	return decodeAsValue(raw, ip)
}

// execute performs the semantic action of instr and advances IP,
// mirroring the per-op functions of original_source/src/machine.c and
// the teacher's Step() switch.
func (m *Machine) execute(ctx context.Context, instr Instruction) error {
	s := m.state
	ip := s.IP
	a, b, c := instr.Args[0], instr.Args[1], instr.Args[2]

	setDest := func(raw uint16, val uint16) error {
		dst, err := regOperand(raw, ip)
		if err != nil {
			return err
		}
		s.Regs[dst.RegIndex] = val
		return nil
	}

	binOp := func(combine func(b, c uint32) uint32) error {
		bo, err := valOperand(b, ip)
		if err != nil {
			return err
		}
		co, err := valOperand(c, ip)
		if err != nil {
			return err
		}
		val := uint16(combine(uint32(bo.value(s.Regs)), uint32(co.value(s.Regs))) & config.MaxValue15Bit)
		if err := setDest(a, val); err != nil {
			return err
		}
		s.IP += instr.Size
		return nil
	}

	switch instr.Op {
	case HALT:
		m.exec = Halted
		return nil

	case SET:
		bo, err := valOperand(b, ip)
		if err != nil {
			return err
		}
		if err := setDest(a, bo.value(s.Regs)); err != nil {
			return err
		}
		s.IP += instr.Size

	case PUSH:
		ao, err := valOperand(a, ip)
		if err != nil {
			return err
		}
		s.Stack.Push(ao.value(s.Regs))
		s.IP += instr.Size

	case POP:
		v, ok := s.Stack.Pop()
		if !ok {
			m.exec = Halted
			return faults.StackUnderflowAt(ip)
		}
		if err := setDest(a, v); err != nil {
			return err
		}
		s.IP += instr.Size

	case EQ:
		return binOp(func(x, y uint32) uint32 {
			if x == y {
				return 1
			}
			return 0
		})

	case GT:
		return binOp(func(x, y uint32) uint32 {
			if x > y {
				return 1
			}
			return 0
		})

	case JMP:
		ao, err := valOperand(a, ip)
		if err != nil {
			return err
		}
		s.IP = ao.value(s.Regs)

	case JT:
		ao, err := valOperand(a, ip)
		if err != nil {
			return err
		}
		if ao.value(s.Regs) != 0 {
			bo, err := valOperand(b, ip)
			if err != nil {
				return err
			}
			s.IP = bo.value(s.Regs)
		} else {
			s.IP += instr.Size
		}

	case JF:
		ao, err := valOperand(a, ip)
		if err != nil {
			return err
		}
		if ao.value(s.Regs) == 0 {
			bo, err := valOperand(b, ip)
			if err != nil {
				return err
			}
			s.IP = bo.value(s.Regs)
		} else {
			s.IP += instr.Size
		}

	case ADD:
		return binOp(func(x, y uint32) uint32 { return x + y })

	case MULT:
		return binOp(func(x, y uint32) uint32 { return x * y })

	case MOD:
		co, err := valOperand(c, ip)
		if err != nil {
			return err
		}
		if co.value(s.Regs) == 0 {
			m.exec = Halted
			return faults.DivisionByZeroAt(ip)
		}
		return binOp(func(x, y uint32) uint32 { return x % y })

	case AND:
		return binOp(func(x, y uint32) uint32 { return x & y })

	case OR:
		return binOp(func(x, y uint32) uint32 { return x | y })

	case NOT:
		bo, err := valOperand(b, ip)
		if err != nil {
			return err
		}
		val := (^bo.value(s.Regs)) & config.MaxValue15Bit
		if err := setDest(a, val); err != nil {
			return err
		}
		s.IP += instr.Size

	case RMEM:
		bo, err := valOperand(b, ip)
		if err != nil {
			return err
		}
		addr := bo.value(s.Regs)
		if err := setDest(a, s.RAM[addr]&config.MaxValue15Bit); err != nil {
			return err
		}
		s.IP += instr.Size

	case WMEM:
		ao, err := valOperand(a, ip)
		if err != nil {
			return err
		}
		bo, err := valOperand(b, ip)
		if err != nil {
			return err
		}
		addr := ao.value(s.Regs)
		s.RAM[addr] = bo.value(s.Regs)
		s.IP += instr.Size

	case CALL:
		ao, err := valOperand(a, ip)
		if err != nil {
			return err
		}
		s.Stack.Push(ip + 2)
		s.IP = ao.value(s.Regs)

	case RET:
		v, ok := s.Stack.Pop()
		if !ok {
			// RET on empty stack halts rather than faults,
			// per spec §4.C's documented quirk.
			m.exec = Halted
			return nil
		}
		s.IP = v

	case OUT:
		ao, err := valOperand(a, ip)
		if err != nil {
			return err
		}
		m.io.WriteByte(byte(ao.value(s.Regs) & 0xFF))
		s.IP += instr.Size

	case IN:
		if s.Input.Empty() {
			m.exec = Blocked
			if err := m.readline(ctx); err != nil {
				return err
			}
			m.exec = Running
		}
		ch := s.Input.Next()
		if err := setDest(a, uint16(ch)); err != nil {
			return err
		}
		s.IP += instr.Size

	case NOOP:
		s.IP += instr.Size

	default:
		m.exec = Halted
		return faults.Decodef("unimplemented opcode %v at IP=%04x", instr.Op, ip)
	}

	return nil
}

// readline reads bytes from the I/O channel until '\n' or until
// config.InputBufferCap bytes have been read, then populates the input
// buffer, per spec §3's Input Line Buffer. Any read error (EOF or
// cancellation) returns ErrInputClosed; the bytes read so far are
// discarded and the buffer is left untouched.
func (m *Machine) readline(ctx context.Context) error {
	var line []byte
	for {
		b, err := m.io.ReadByte(ctx)
		if err != nil {
			return faults.ErrInputClosed
		}
		line = append(line, b)
		if b == '\n' {
			break
		}
		if len(line) >= config.InputBufferCap {
			break
		}
	}
	m.state.Input.Fill(line)
	return nil
}
