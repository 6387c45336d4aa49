package debugger

import (
	"testing"

	"github.com/bdwalton/synacor/internal/config"
	"github.com/bdwalton/synacor/internal/vm"
)

func TestDisassembleLiteralAndRegisterOperands(t *testing.T) {
	mem := make([]uint16, config.MemWords)
	mem[0] = uint16(vm.SET)
	mem[1] = 0x8000 // R0
	mem[2] = 65     // literal
	mem[3] = uint16(vm.HALT)

	lines := Disassemble(mem, 0, 2)
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}
	if lines[0].Text != "SET R0 0041" {
		t.Errorf("lines[0].Text = %q, want %q", lines[0].Text, "SET R0 0041")
	}
	if lines[0].Size != 3 {
		t.Errorf("lines[0].Size = %d, want 3", lines[0].Size)
	}
	if lines[1].Addr != 3 || lines[1].Text != "HALT" {
		t.Errorf("lines[1] = %+v, want Addr=3 Text=HALT", lines[1])
	}
}

func TestDisassembleInvalidOpcodeAdvancesByOne(t *testing.T) {
	mem := make([]uint16, config.MemWords)
	mem[0] = 9999
	mem[1] = uint16(vm.HALT)

	lines := Disassemble(mem, 0, 2)
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}
	if lines[0].Size != 1 || lines[0].Text != "270f" {
		t.Errorf("lines[0] = %+v, want raw word, size 1", lines[0])
	}
	if lines[1].Addr != 1 {
		t.Errorf("lines[1].Addr = %d, want 1", lines[1].Addr)
	}
}

func TestDisassembleStopsAtTopOfAddressSpace(t *testing.T) {
	mem := make([]uint16, config.MemWords)
	lines := Disassemble(mem, config.MaxValue15Bit, 5)
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want exactly 1 (the last valid address)", len(lines))
	}
}

func TestOpReprOutOfRange(t *testing.T) {
	if got := opRepr(0xFFFF); got != "ffff?" {
		t.Errorf("opRepr(0xFFFF) = %q, want %q", got, "ffff?")
	}
}
