package debugger

import (
	"fmt"

	"github.com/bdwalton/synacor/internal/config"
	"github.com/bdwalton/synacor/internal/vm"
)

// Line is one decoded disassembly line.
type Line struct {
	Addr uint16
	Text string
	// Size is the number of words this line consumed, so a caller
	// can advance a cursor by exactly one instruction (spec §4.E:
	// "next op size is remembered so the Down key advances by one
	// instruction").
	Size uint16
}

// opRepr formats a raw operand word the way
// original_source/src/machine_debug.c's machine_get_mem_repr does:
// a literal "xxxx" for values, "Rn" for registers, "xxxx?" for
// out-of-range words.
func opRepr(raw uint16) string {
	if raw <= config.MaxValue15Bit {
		return fmt.Sprintf("%04x", raw)
	}
	reg := raw & config.MaxValue15Bit
	if reg <= 7 {
		return fmt.Sprintf("R%d", reg)
	}
	return fmt.Sprintf("%04x?", raw)
}

// Disassemble produces up to n decoded lines starting at addr,
// stopping early if addr exceeds the 15-bit address space, per spec
// §4.E. Invalid opcodes are printed as a raw word and advance by one.
func Disassemble(mem []uint16, addr uint16, n int) []Line {
	var out []Line
	a := uint32(addr)
	for i := 0; i < n && a <= config.MaxValue15Bit; i++ {
		op := vm.Opcode(mem[a])
		if !op.Valid() {
			out = append(out, Line{
				Addr: uint16(a),
				Text: fmt.Sprintf("%04x", mem[a]),
				Size: 1,
			})
			a++
			continue
		}

		ar := op.Arity()
		text := op.Name()
		for k := uint16(0); k < ar; k++ {
			idx := a + 1 + uint32(k)
			var word uint16
			if int(idx) < len(mem) {
				word = mem[idx]
			}
			text += " " + opRepr(word)
		}
		size := 1 + ar
		out = append(out, Line{Addr: uint16(a), Text: text, Size: size})
		a += uint32(size)
	}
	return out
}
