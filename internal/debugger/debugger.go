// Package debugger implements the breakpoint-gated, line-oriented
// interactive debugger of spec §4.E: snapshot banks, a disassembler, a
// paginated memory view, and a command shell, wired to the executor
// through the DebuggerHook capability (no back-pointer from machine to
// debugger, per DESIGN NOTES §9).
package debugger

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/bdwalton/synacor/internal/config"
	"github.com/bdwalton/synacor/internal/faults"
	"github.com/bdwalton/synacor/internal/history"
	"github.com/bdwalton/synacor/internal/vm"
)

// Debugger is the interactive control layer attached to a Machine via
// AttachHook. It owns its own breakpoint set, snapshot banks, display
// toggles, and shell state; the Machine never holds a reference back to
// it.
type Debugger struct {
	bp    *breakpointSet
	banks *snapshotBanks
	hist  *history.Ring

	showHistory bool
	showStack   bool
	showRegs    bool
	showDisass  bool
	showMemory  bool

	disassCursor    uint16
	disassCursorSet bool
	disassOps       int

	memCursor uint16
	memSpan   uint16

	skips         int
	sskips        int
	interactive   bool
	haltRequested bool

	in       *bufio.Scanner
	out      io.Writer
	lastLine string
}

// New creates a Debugger reading shell commands from in and rendering
// state to out, with the same display defaults as
// original_source/src/machine_debug.c's machine_debugger_create:
// history and disassembly views on, 15 disassembly lines, registers
// on, stack and memory views off, not yet interactive.
func New(in io.Reader, out io.Writer) *Debugger {
	return &Debugger{
		bp:          newBreakpointSet(),
		banks:       newSnapshotBanks(),
		hist:        history.NewRing(config.HistorySize),
		showHistory: true,
		showDisass:  true,
		showRegs:    true,
		disassOps:   15,
		memSpan:     config.MemoryRowWords * 8,
		out:         out,
		in:          bufio.NewScanner(in),
	}
}

// SetBreakpoint pre-seeds a breakpoint, used by the CLI's
// --breakpoint flag.
func (d *Debugger) SetBreakpoint(ip uint16) {
	d.bp.Set(ip)
}

// PreOp implements vm.DebuggerHook, per spec §4.E's ordering: history
// insert happens before any other pre-op decision (spec §5's ordering
// guarantee), then the would-block / breakpoint / silent-step
// resolution, then (if triggered) the render-prompt loop.
func (d *Debugger) PreOp(ctx context.Context, state *vm.State, willBlockOnIN bool) error {
	d.hist.Insert(state.IP)

	if d.haltRequested {
		return faults.ErrDebuggerHalt
	}

	enter := false
	switch {
	case willBlockOnIN:
		d.interactive = true
		enter = true
	case d.interactive && d.sskips == 0:
		enter = true
	case d.bp.Has(state.IP) && d.skips == 0:
		d.interactive = true
		enter = true
	default:
		if d.interactive && d.sskips > 0 {
			d.sskips--
		}
		if d.bp.Has(state.IP) && d.skips > 0 {
			d.skips--
		}
	}

	if !enter {
		return nil
	}

	for {
		d.Render(state)
		fmt.Fprint(d.out, "(debug) ")
		if !d.in.Scan() {
			// Input exhausted: treat like an explicit q.
			return faults.ErrDebuggerHalt
		}

		v := d.runLine(d.in.Text(), state)
		if !v.stay {
			if !v.keepRunning {
				return faults.ErrDebuggerHalt
			}
			return nil
		}
	}
}

// Render writes the combined debug-info block (history, memory, stack,
// registers, disassembly, each gated by its toggle) the way
// original_source/src/machine_debug.c's machine_dump renders every
// enabled view together before each prompt.
func (d *Debugger) Render(state *vm.State) {
	fmt.Fprintln(d.out, "=========== DEBUG INFO ==============")

	if d.showHistory {
		fmt.Fprintln(d.out, "HISTORY BEGIN:")
		for i, ip := range d.hist.Values() {
			fmt.Fprintf(d.out, "%04x, ", ip)
			if (i+1)%15 == 0 {
				fmt.Fprintln(d.out)
			}
		}
		fmt.Fprintln(d.out, "\nHISTORY END")
		fmt.Fprintln(d.out, "-------------------------------------")
	}

	if d.showMemory {
		PrintMemory(d.out, state.RAM[:], d.memCursor, d.memSpan)
		fmt.Fprintln(d.out, "-------------------------------------")
	}

	if d.showStack {
		fmt.Fprintln(d.out, "STACK (top first):")
		top := state.Stack.Clone()
		for {
			v, ok := top.Pop()
			if !ok {
				break
			}
			fmt.Fprintf(d.out, "  %04x\n", v)
		}
		fmt.Fprintln(d.out, "-------------------------------------")
	}

	if d.showRegs {
		r := state.Regs
		fmt.Fprintf(d.out, "R0: %04x, R1: %04x, R2: %04x, R3: %04x\n", r[0], r[1], r[2], r[3])
		fmt.Fprintf(d.out, "R4: %04x, R5: %04x, R6: %04x, R7: %04x\n", r[4], r[5], r[6], r[7])
		fmt.Fprintf(d.out, "IP: %04x\n", state.IP)
		fmt.Fprintln(d.out, "-------------------------------------")
	}

	if d.showDisass {
		cursor := d.disassCursor
		if !d.disassCursorSet {
			cursor = state.IP
		}
		for _, line := range Disassemble(state.RAM[:], cursor, d.disassOps) {
			fmt.Fprintf(d.out, "0x%04x: %s\n", line.Addr, line.Text)
		}
		fmt.Fprintln(d.out, "-------------------------------------")
	}

	fmt.Fprintln(d.out, "=========== DEBUG END ===============")
}
