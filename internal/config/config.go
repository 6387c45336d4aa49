// Package config collects the fixed sizing constants of the machine and
// its debugger in one place, the way synacor/synacor.go keeps NREGS and
// MAX_15BIT at the top of the package.
package config

const (
	// NumRegisters is the number of general-purpose registers.
	NumRegisters = 8

	// MemWords is the size of the address space in 16-bit words (15-bit
	// addressing: 0..0x7FFF).
	MemWords = 1 << 15

	// MaxValue15Bit is the largest literal operand value.
	MaxValue15Bit = 0x7FFF

	// RegisterBase is the first operand value that denotes a register.
	RegisterBase = 0x8000

	// MaxOperand is the largest operand value that denotes a register
	// (RegisterBase + NumRegisters - 1).
	MaxOperand = RegisterBase + NumRegisters - 1

	// InputBufferCap is the capacity of the line-buffered input queue
	// fed to IN, matching original_source's 128-byte line buffer.
	InputBufferCap = 128

	// HistorySize is the capacity of the circular IP history ring.
	HistorySize = 105

	// SnapshotBanks is the number of slots in each snapshot bank
	// (state, stack, memory).
	SnapshotBanks = 10

	// MemoryCompareDefaultSize is the span, starting at address 0,
	// that the memory_cmp shell command compares.
	MemoryCompareDefaultSize = 0x800

	// MemoryRowWords is the number of words shown per row in the
	// paginated memory display.
	MemoryRowWords = 16

	// PrintableLow and PrintableHigh bound the ASCII range rendered
	// literally in the memory display; everything else prints as '.'.
	PrintableLow  = 0x21
	PrintableHigh = 0x7E
)
