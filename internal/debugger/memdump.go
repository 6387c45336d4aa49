package debugger

import (
	"fmt"
	"io"

	"github.com/bdwalton/synacor/internal/config"
)

func printable(v uint16) byte {
	if v >= config.PrintableLow && v <= config.PrintableHigh {
		return byte(v)
	}
	return '.'
}

// alignRowStart aligns addr down to a 16-word boundary, per
// original_source/src/machine_debug.c's `start &= 0x7ff0`.
func alignRowStart(addr uint16) uint16 {
	return addr &^ (config.MemoryRowWords - 1)
}

// PrintMemory renders a paginated memory view: 16 hex words per row
// (8+8 grouped) with an ASCII column, starting at addr (aligned down to
// a 16-word boundary) and covering size words, grounded on
// machine_debug.c's debugger_print_memory.
func PrintMemory(w io.Writer, ram []uint16, addr, size uint16) {
	start := alignRowStart(addr)
	fmt.Fprintf(w, "MEMORY DUMP (%04x, %04x)\n", start, start+size)

	for row := start; ; row += config.MemoryRowWords {
		var words [config.MemoryRowWords]uint16
		for k := 0; k < config.MemoryRowWords; k++ {
			idx := int(row) + k
			if idx < len(ram) {
				words[k] = ram[idx]
			}
		}

		fmt.Fprintf(w, "%04x: ", row)
		for k := 0; k < 8; k++ {
			fmt.Fprintf(w, "%04x ", words[k])
		}
		fmt.Fprint(w, " ")
		for k := 8; k < 16; k++ {
			fmt.Fprintf(w, "%04x ", words[k])
		}
		fmt.Fprint(w, "| ")
		for k := 0; k < 8; k++ {
			fmt.Fprintf(w, "%c", printable(words[k]))
		}
		fmt.Fprint(w, " ")
		for k := 8; k < 16; k++ {
			fmt.Fprintf(w, "%c", printable(words[k]))
		}
		fmt.Fprint(w, " |\n")

		if size <= config.MemoryRowWords {
			break
		}
		size -= config.MemoryRowWords
	}
	fmt.Fprintln(w)
}

// PrintMemoryDiff renders the rows returned by CompareMemory twice,
// once per side, per spec §4.E: "a diff renderer prints only rows
// containing at least one differing word, twice (once per side)".
func PrintMemoryDiff(w io.Writer, rows []MemoryDiffRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "MEMORY IDENTICAL")
		return
	}
	fmt.Fprintln(w, "LEFT:")
	for _, r := range rows {
		printDiffRow(w, r.Addr, r.Left)
	}
	fmt.Fprintln(w, "RIGHT:")
	for _, r := range rows {
		printDiffRow(w, r.Addr, r.Right)
	}
}

func printDiffRow(w io.Writer, addr uint16, words []uint16) {
	fmt.Fprintf(w, "%04x: ", addr)
	for _, v := range words {
		fmt.Fprintf(w, "%04x ", v)
	}
	fmt.Fprint(w, "| ")
	for _, v := range words {
		fmt.Fprintf(w, "%c", printable(v))
	}
	fmt.Fprintln(w, " |")
}
