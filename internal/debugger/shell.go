package debugger

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bdwalton/synacor/internal/config"
	"github.com/bdwalton/synacor/internal/vm"
)

// verdict is what a shell command tells the pre-op hook's do-while
// loop to do next.
type verdict struct {
	// stay, when true, means re-render and prompt again (the
	// do-while loop in original_source/src/machine_debug.c's
	// debugger_shell).
	stay bool
	// keepRunning is only consulted when stay is false: true hands
	// control back to the executor (s, c); false stops it (q), per
	// spec §4.E's "Return from shell".
	keepRunning bool
}

func stayInShell() verdict         { return verdict{stay: true} }
func leaveShell(keep bool) verdict { return verdict{stay: false, keepRunning: keep} }

type command struct {
	prefix  string
	handler func(d *Debugger, args string, state *vm.State) verdict
}

// commands is ordered longest-prefix-first so a command like
// "stack_save" is matched before the single-character "s" that would
// otherwise shadow it, per spec §4.E ("Prefix-matched (longest prefix
// dispatched first, as listed below)"). Sorted once in init.
var commands = []command{
	{"history_on", (*Debugger).cmdHistoryOn},
	{"history_off", (*Debugger).cmdHistoryOff},
	{"stack_save", (*Debugger).cmdStackSave},
	{"stack_compare", (*Debugger).cmdStackCompare},
	{"stack_on", (*Debugger).cmdStackOn},
	{"stack_off", (*Debugger).cmdStackOff},
	{"regs_on", (*Debugger).cmdRegsOn},
	{"regs_off", (*Debugger).cmdRegsOff},
	{"disass_on", (*Debugger).cmdDisassOn},
	{"disass_off", (*Debugger).cmdDisassOff},
	{"memory_save", (*Debugger).cmdMemorySave},
	{"memory_load", (*Debugger).cmdMemoryLoad},
	{"memory_cmp", (*Debugger).cmdMemoryCmp},
	{"memory_on", (*Debugger).cmdMemoryOn},
	{"memory_off", (*Debugger).cmdMemoryOff},
	{"dump", (*Debugger).cmdDump},
	{"dops", (*Debugger).cmdDops},
	{"save", (*Debugger).cmdSave},
	{"load", (*Debugger).cmdLoad},
	{"halt", (*Debugger).cmdHalt},
	{"ub", (*Debugger).cmdUnbreak},
	{"lb", (*Debugger).cmdListBreak},
	{"b", (*Debugger).cmdBreak},
	{"p", (*Debugger).cmdPrintMem},
	{"c", (*Debugger).cmdContinue},
	{"s", (*Debugger).cmdStep},
	{"q", (*Debugger).cmdQuit},
}

func init() {
	sort.SliceStable(commands, func(i, j int) bool {
		return len(commands[i].prefix) > len(commands[j].prefix)
	})
}

// runLine dispatches one shell input line. An empty line repeats the
// previous command, per spec §4.E.
func (d *Debugger) runLine(line string, state *vm.State) verdict {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		line = d.lastLine
	} else {
		d.lastLine = line
	}
	if line == "" {
		return stayInShell()
	}

	for _, c := range commands {
		if strings.HasPrefix(line, c.prefix) {
			args := strings.TrimSpace(line[len(c.prefix):])
			return c.handler(d, args, state)
		}
	}

	fmt.Fprintf(d.out, "unrecognized command: %q\n", line)
	return stayInShell()
}

func firstField(args string) string {
	f := strings.Fields(args)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

func fields(args string) []string {
	return strings.Fields(args)
}

func parseHex16(s string) (uint16, bool) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 16, 32)
	if err != nil {
		return 0, false
	}
	return uint16(v), true
}

func parseDec(s string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return v, true
}

func (d *Debugger) cmdStep(args string, state *vm.State) verdict {
	n := 0
	if args != "" {
		if v, ok := parseDec(firstField(args)); ok {
			n = v
		}
	}
	d.sskips = n
	return leaveShell(true)
}

func (d *Debugger) cmdContinue(args string, state *vm.State) verdict {
	n := 0
	if args != "" {
		if v, ok := parseDec(firstField(args)); ok {
			n = v
		}
	}
	d.interactive = false
	d.skips = n
	return leaveShell(true)
}

func (d *Debugger) cmdQuit(args string, state *vm.State) verdict {
	return leaveShell(false)
}

func (d *Debugger) cmdBreak(args string, state *vm.State) verdict {
	if addr, ok := parseHex16(firstField(args)); ok {
		d.bp.Set(addr)
	} else {
		fmt.Fprintln(d.out, "usage: b <hex_addr>")
	}
	return stayInShell()
}

func (d *Debugger) cmdUnbreak(args string, state *vm.State) verdict {
	if addr, ok := parseHex16(firstField(args)); ok {
		d.bp.Unset(addr)
	} else {
		fmt.Fprintln(d.out, "usage: ub <hex_addr>")
	}
	return stayInShell()
}

func (d *Debugger) cmdListBreak(args string, state *vm.State) verdict {
	bps := d.bp.List()
	fmt.Fprintln(d.out, "BREAKPOINTS:")
	if len(bps) == 0 {
		fmt.Fprintln(d.out, "  EMPTY")
	}
	for _, ip := range bps {
		fmt.Fprintf(d.out, "  + %04x\n", ip)
	}
	return stayInShell()
}

func (d *Debugger) cmdPrintMem(args string, state *vm.State) verdict {
	f := fields(args)
	switch len(f) {
	case 0:
		// repeat last window
	case 1:
		if addr, ok := parseHex16(f[0]); ok {
			d.memCursor = addr
		}
	default:
		if addr, ok := parseHex16(f[0]); ok {
			d.memCursor = addr
		}
		if span, ok := parseHex16(f[1]); ok {
			d.memSpan = span
		}
	}
	d.showMemory = true
	PrintMemory(d.out, state.RAM[:], d.memCursor, d.memSpan)
	return stayInShell()
}

func (d *Debugger) cmdDump(args string, state *vm.State) verdict {
	if addr, ok := parseHex16(firstField(args)); ok {
		d.disassCursor = addr
		d.disassCursorSet = true
	} else {
		fmt.Fprintln(d.out, "usage: dump <hex_addr>")
	}
	return stayInShell()
}

func (d *Debugger) cmdDops(args string, state *vm.State) verdict {
	if n, ok := parseHex16(firstField(args)); ok {
		d.disassOps = int(n)
	} else {
		fmt.Fprintln(d.out, "usage: dops <hex_n>")
	}
	return stayInShell()
}

func (d *Debugger) cmdSave(args string, state *vm.State) verdict {
	if i, ok := parseDec(firstField(args)); ok {
		if err := d.banks.SaveState(i, state); err != nil {
			fmt.Fprintf(d.out, "save failed: %v\n", err)
		} else {
			fmt.Fprintf(d.out, "saved into state %d\n", i)
		}
	} else {
		fmt.Fprintln(d.out, "usage: save <dec_i>")
	}
	return stayInShell()
}

func (d *Debugger) cmdLoad(args string, state *vm.State) verdict {
	if i, ok := parseDec(firstField(args)); ok {
		loaded, err := d.banks.LoadState(i)
		if err != nil {
			fmt.Fprintf(d.out, "load failed: %v\n", err)
		} else {
			*state = *loaded
			fmt.Fprintf(d.out, "loaded state %d\n", i)
		}
	} else {
		fmt.Fprintln(d.out, "usage: load <dec_i>")
	}
	return stayInShell()
}

func (d *Debugger) cmdHistoryOn(args string, state *vm.State) verdict {
	d.showHistory = true
	return stayInShell()
}

func (d *Debugger) cmdHistoryOff(args string, state *vm.State) verdict {
	d.showHistory = false
	return stayInShell()
}

func (d *Debugger) cmdStackOn(args string, state *vm.State) verdict {
	d.showStack = true
	return stayInShell()
}

func (d *Debugger) cmdStackOff(args string, state *vm.State) verdict {
	d.showStack = false
	return stayInShell()
}

func (d *Debugger) cmdStackSave(args string, state *vm.State) verdict {
	if i, ok := parseDec(firstField(args)); ok {
		if err := d.banks.SaveStack(i, state.Stack); err != nil {
			fmt.Fprintf(d.out, "stack_save failed: %v\n", err)
		} else {
			fmt.Fprintf(d.out, "saved stack %d\n", i)
		}
	} else {
		fmt.Fprintln(d.out, "usage: stack_save <dec_i>")
	}
	return stayInShell()
}

func (d *Debugger) cmdStackCompare(args string, state *vm.State) verdict {
	f := fields(args)
	if len(f) < 2 {
		fmt.Fprintln(d.out, "usage: stack_compare <dec_i> <dec_j>")
		return stayInShell()
	}
	i, ok1 := parseDec(f[0])
	j, ok2 := parseDec(f[1])
	if !ok1 || !ok2 {
		fmt.Fprintln(d.out, "usage: stack_compare <dec_i> <dec_j>")
		return stayInShell()
	}
	diff, err := d.banks.CompareStacks(i, j)
	if err != nil {
		fmt.Fprintf(d.out, "stack_compare failed: %v\n", err)
		return stayInShell()
	}
	fmt.Fprint(d.out, diff.String())
	return stayInShell()
}

func (d *Debugger) cmdRegsOn(args string, state *vm.State) verdict {
	d.showRegs = true
	return stayInShell()
}

func (d *Debugger) cmdRegsOff(args string, state *vm.State) verdict {
	d.showRegs = false
	return stayInShell()
}

func (d *Debugger) cmdDisassOn(args string, state *vm.State) verdict {
	d.showDisass = true
	return stayInShell()
}

func (d *Debugger) cmdDisassOff(args string, state *vm.State) verdict {
	d.showDisass = false
	return stayInShell()
}

func (d *Debugger) cmdMemoryOn(args string, state *vm.State) verdict {
	d.showMemory = true
	return stayInShell()
}

func (d *Debugger) cmdMemoryOff(args string, state *vm.State) verdict {
	d.showMemory = false
	return stayInShell()
}

func (d *Debugger) cmdMemorySave(args string, state *vm.State) verdict {
	if i, ok := parseDec(firstField(args)); ok {
		if err := d.banks.SaveMemory(i, state.RAM); err != nil {
			fmt.Fprintf(d.out, "memory_save failed: %v\n", err)
		} else {
			fmt.Fprintf(d.out, "saved memory %d\n", i)
		}
	} else {
		fmt.Fprintln(d.out, "usage: memory_save <dec_i>")
	}
	return stayInShell()
}

func (d *Debugger) cmdMemoryLoad(args string, state *vm.State) verdict {
	if i, ok := parseDec(firstField(args)); ok {
		ram, err := d.banks.LoadMemory(i)
		if err != nil {
			fmt.Fprintf(d.out, "memory_load failed: %v\n", err)
		} else {
			state.RAM = ram
			fmt.Fprintf(d.out, "loaded memory %d\n", i)
		}
	} else {
		fmt.Fprintln(d.out, "usage: memory_load <dec_i>")
	}
	return stayInShell()
}

func (d *Debugger) cmdMemoryCmp(args string, state *vm.State) verdict {
	f := fields(args)
	if len(f) < 2 {
		fmt.Fprintln(d.out, "usage: memory_cmp <dec_i> <dec_j>")
		return stayInShell()
	}
	i, ok1 := parseDec(f[0])
	j, ok2 := parseDec(f[1])
	if !ok1 || !ok2 {
		fmt.Fprintln(d.out, "usage: memory_cmp <dec_i> <dec_j>")
		return stayInShell()
	}
	rows, err := d.banks.CompareMemory(i, j, 0, config.MemoryCompareDefaultSize)
	if err != nil {
		fmt.Fprintf(d.out, "memory_cmp failed: %v\n", err)
		return stayInShell()
	}
	PrintMemoryDiff(d.out, rows)
	return stayInShell()
}

func (d *Debugger) cmdHalt(args string, state *vm.State) verdict {
	d.haltRequested = true
	fmt.Fprintln(d.out, "halt requested; will stop before the next instruction")
	return stayInShell()
}
