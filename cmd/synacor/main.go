// Command synacor runs the Synacor architecture virtual machine
// against a program binary, optionally attaching the interactive
// debugger. Grounded on
// _examples/other_examples/9bd316c6_oisee-minz__minzc-cmd-mze-main.go.go's
// cobra root command and its --debug → debugger.New(...) wiring; flag
// names and help text are written fresh for this domain (the example's
// own flags are Z80/platform-specific).
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bdwalton/synacor/internal/controller"
	"github.com/bdwalton/synacor/internal/debugger"
	"github.com/bdwalton/synacor/internal/ioline"
)

var (
	debugMode   bool
	breakpoints []string
)

var rootCmd = &cobra.Command{
	Use:   "synacor PROGRAM",
	Short: "Interpreter and interactive debugger for the Synacor architecture",
	Long: `synacor loads a 15-bit-addressed, 16-bit-word program binary and
executes it. With --debug it attaches a line-oriented interactive
debugger that can pause at breakpoints, disassemble, single-step, and
inspect or diff memory, stack, and registers.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVarP(&debugMode, "debug", "d", false, "attach the interactive debugger")
	rootCmd.Flags().StringArrayVarP(&breakpoints, "breakpoint", "b", nil, "hex address to break at (repeatable)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "USAGE: %s PROGRAM\n", os.Args[0])
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	path := args[0]

	var dbg *debugger.Debugger
	if debugMode {
		dbg = debugger.New(os.Stdin, os.Stdout)
		for _, b := range breakpoints {
			addr, err := strconv.ParseUint(b, 16, 16)
			if err != nil {
				return fmt.Errorf("invalid --breakpoint %q: %w", b, err)
			}
			dbg.SetBreakpoint(uint16(addr))
		}
	}

	// The CLI uses the direct stdio passthrough (spec §4.D): the
	// executor goroutine reads os.Stdin itself when it blocks on IN,
	// and the debugger's shell (which also reads os.Stdin, but only
	// while that same goroutine is paused in PreOp) never runs
	// concurrently with it, so there is exactly one reader of stdin
	// at any instant.
	stdio := ioline.NewStdio()
	ctl := controller.New(stdio, dbg, controller.Callbacks{})
	if err := ctl.LoadProgram(path); err != nil {
		// LoadError: propagate to the CLI, which prints usage and
		// exits non-zero (spec §7).
		return err
	}
	if err := ctl.RunProgram(); err != nil {
		return err
	}

	ctl.Wait()

	if err := ctl.LastError(); err != nil {
		// An execution fault, not a usage problem: report it
		// directly and exit non-zero without the usage banner.
		stdio.WriteError(err.Error() + "\n")
		os.Exit(1)
	}
	return nil
}
