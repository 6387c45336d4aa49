package vm

import (
	"github.com/bdwalton/synacor/internal/config"
	"github.com/bdwalton/synacor/internal/faults"
)

// OperandKind distinguishes a literal operand from a register operand,
// per DESIGN NOTES §9 ("a single Operand sum with Literal(u16) and
// Reg(u3)"), replacing the teacher's isReg/isValue bool checks.
type OperandKind int

const (
	// Literal operands carry their own numeric value.
	Literal OperandKind = iota
	// Register operands select one of the 8 registers.
	Register
)

// Operand is a decoded instruction argument: either a literal word or a
// register index.
type Operand struct {
	Kind OperandKind
	// Raw is the untouched operand word as read from memory.
	Raw uint16
	// RegIndex is valid only when Kind == Register.
	RegIndex uint16
}

// decodeOperand classifies a raw operand word, matching the teacher's
// isReg/isValue/decipherReg helpers.
func decodeOperand(raw uint16) Operand {
	if raw <= config.MaxValue15Bit {
		return Operand{Kind: Literal, Raw: raw}
	}
	return Operand{Kind: Register, Raw: raw, RegIndex: raw & 0x7}
}

// value resolves an operand to its numeric value against the given
// registers. The caller must have already validated the operand is not
// out of the valid 0..MaxOperand range (decodeAsValue does this).
func (o Operand) value(regs [config.NumRegisters]uint16) uint16 {
	if o.Kind == Literal {
		return o.Raw
	}
	return regs[o.RegIndex]
}

// decodeAsValue decodes raw as a value-class operand (spec §3: "Every
// value operand ≤ 0x7FFF + 8"), faulting otherwise.
func decodeAsValue(raw uint16, ip uint16) (Operand, error) {
	if raw > config.MaxOperand {
		return Operand{}, faults.Decodef("invalid value operand %04x at IP=%04x", raw, ip)
	}
	return decodeOperand(raw), nil
}

// decodeAsRegister decodes raw as a register-class operand (spec §3:
// masked value must be ≤ 7), faulting otherwise.
func decodeAsRegister(raw uint16, ip uint16) (Operand, error) {
	if raw < config.RegisterBase || raw > config.MaxOperand {
		return Operand{}, faults.Decodef("invalid register operand %04x at IP=%04x", raw, ip)
	}
	return Operand{Kind: Register, Raw: raw, RegIndex: raw & 0x7}, nil
}
