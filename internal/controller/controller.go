// Package controller implements the Controller of spec §4.F: it owns
// one Machine and, optionally, one Debugger, drives the executor
// thread, and — when the caller supplies a piped I/O channel rather
// than a direct terminal passthrough — bridges the machine's
// output/error pipes to a front-end's callbacks on its own "bridge
// thread". Grounded on
// _examples/KTStephano-GVM/vm/devices.go's consoleIO device (an
// embedded sync.Mutex, a background goroutine reading from a channel,
// Lock/Unlock-with-defer accessors) generalized from one hardware
// device to the whole machine/debugger pair, and on spec §4.F/§5's
// explicit NotRunning/Running/Closing state machine.
package controller

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bdwalton/synacor/internal/debugger"
	"github.com/bdwalton/synacor/internal/faults"
	"github.com/bdwalton/synacor/internal/ioline"
	"github.com/bdwalton/synacor/internal/loader"
	"github.com/bdwalton/synacor/internal/vm"
)

// runState is the Controller's NotRunning/Running/Closing state
// machine, per spec §4.F.
type runState int

const (
	NotRunning runState = iota
	Running
	Closing
)

// Callbacks receives bytes and diagnostic messages bridged from a
// Piped I/O channel, per spec §4.F's "bridge thread". OnOutput is only
// called for a Piped channel; a direct passthrough channel (e.g. Stdio)
// writes straight to its destination without needing a bridge. OnError
// also receives the error a run ends with (other than cancellation or
// a debugger halt), whatever the channel.
type Callbacks struct {
	OnOutput func(b byte)
	OnError  func(msg string)
}

// Controller owns a Machine and an optional Debugger, running the
// decode-execute loop on its own goroutine (the "executor thread").
// When io is a *ioline.Piped, a second goroutine (the "bridge thread")
// multiplexes its output/error channels to cb. All state transitions
// happen under mu; cond signals waiters when a run completes, per spec
// §5's "All transitions under a single mutex; condition variable
// signals completion to waiters."
type Controller struct {
	mu   sync.Mutex
	cond *sync.Cond

	state         runState
	programLoaded bool

	program []uint16
	machine *vm.Machine
	dbg     *debugger.Debugger
	io      ioline.Channel

	cancel context.CancelFunc
	done   chan struct{}
	runErr error

	cb Callbacks
}

// New creates a Controller in state NotRunning over the given I/O
// channel. If dbg is non-nil it is attached to the machine's pre-op
// hook once a program is loaded and run. cb.OnOutput is only consulted
// when io is a *ioline.Piped; cb.OnError also receives run errors for
// any channel. The zero value disables both.
func New(io ioline.Channel, dbg *debugger.Debugger, cb Callbacks) *Controller {
	c := &Controller{io: io, dbg: dbg, cb: cb}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// LoadProgram reads the binary at path into memory, only valid in
// state NotRunning, per spec §4.F.
func (c *Controller) LoadProgram(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != NotRunning {
		return faults.ErrBadCommand
	}

	prog, err := loader.LoadProgram(path)
	if err != nil {
		return err
	}
	c.program = prog
	c.programLoaded = true
	return nil
}

// RunProgram spawns the executor goroutine (and, for a Piped channel,
// the bridge goroutine) and transitions to Running. Only valid in
// state NotRunning with a program already loaded.
func (c *Controller) RunProgram() error {
	c.mu.Lock()
	if c.state != NotRunning || !c.programLoaded {
		c.mu.Unlock()
		return faults.ErrBadCommand
	}

	c.machine = vm.NewMachine(c.program, c.io)
	if c.dbg != nil {
		c.machine.AttachHook(c.dbg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.state = Running
	c.mu.Unlock()

	if p, ok := c.io.(*ioline.Piped); ok {
		go c.bridge(p)
	}
	go c.executorLoop(ctx)

	return nil
}

// stateAttrs builds the "STATE" log group (IP, tick count) attached to
// the Controller's own run-transition records, mirroring elsie's
// log.Group("STATE", vm) idiom via slog.Group. Finer per-opcode detail
// is logged by Machine.Run itself.
func (c *Controller) stateAttrs() slog.Attr {
	s := c.machine.State()
	return slog.Group("STATE",
		slog.Uint64("ip", uint64(s.IP)),
		slog.Uint64("ticks", s.Ticks),
	)
}

// executorLoop is the "executor thread" of spec §4.F: it runs the
// machine to completion (HALT, fault, or cancellation), then
// transitions the Controller back to NotRunning and wakes any waiter
// blocked in Wait.
func (c *Controller) executorLoop(ctx context.Context) {
	slog.Info("run start", c.stateAttrs())

	err := c.machine.Run(ctx)

	// A debugger-initiated quit/halt is a deliberate, user-requested
	// stop, not an execution fault: don't report it as one.
	if faults.Is(err, faults.ErrDebuggerHalt) {
		err = nil
	}

	if err != nil {
		slog.Error("fault", "err", err, c.stateAttrs())
	} else {
		slog.Info("halted", c.stateAttrs())
	}

	if err != nil && c.cb.OnError != nil && !faults.Is(err, context.Canceled) {
		c.cb.OnError(err.Error())
	}

	if p, ok := c.io.(*ioline.Piped); ok {
		p.Close()
	}

	c.mu.Lock()
	c.state = NotRunning
	c.programLoaded = false
	c.runErr = err
	close(c.done)
	c.cond.Broadcast()
	c.mu.Unlock()
}

// bridge is the "bridge thread" of spec §4.F: it multiplexes p's
// output and error channels to the caller's Callbacks until p.Close is
// called, then drains whatever is left buffered before returning.
func (c *Controller) bridge(p *ioline.Piped) {
	out, errs, done := p.Output(), p.Errors(), p.Done()
	for {
		select {
		case b := <-out:
			if c.cb.OnOutput != nil {
				c.cb.OnOutput(b)
			}
		case msg := <-errs:
			if c.cb.OnError != nil {
				c.cb.OnError(msg)
			}
		case <-done:
			c.drain(out, errs)
			return
		}
	}
}

// drain flushes any output/error bytes already buffered at close time,
// so a fast HALT immediately followed by Close doesn't lose bytes the
// bridge select hadn't gotten to yet.
func (c *Controller) drain(out <-chan byte, errs <-chan string) {
	for {
		select {
		case b := <-out:
			if c.cb.OnOutput != nil {
				c.cb.OnOutput(b)
			}
		case msg := <-errs:
			if c.cb.OnError != nil {
				c.cb.OnError(msg)
			}
		default:
			return
		}
	}
}

// StopRunning transitions to Closing, cancels the executor's context
// (which interrupts any blocking input read, per spec §5), waits for
// both goroutines to finish, then returns to NotRunning.
func (c *Controller) StopRunning() {
	c.mu.Lock()
	if c.state != Running {
		c.mu.Unlock()
		return
	}
	c.state = Closing
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	cancel()
	<-done
}

// SendInput writes bytes to the machine's input pipe, per spec §4.F's
// send_input. Only meaningful when the Controller was built over a
// *ioline.Piped channel (a direct passthrough like Stdio has no queue
// to feed); a call made any other time is silently dropped.
func (c *Controller) SendInput(data []byte) {
	c.mu.Lock()
	io := c.io
	running := c.state == Running
	c.mu.Unlock()

	if !running {
		return
	}
	if p, ok := io.(*ioline.Piped); ok {
		p.Send(data)
	}
}

// Wait blocks until the Controller returns to NotRunning, for a caller
// that wants to join the executor without itself calling StopRunning.
func (c *Controller) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.state != NotRunning {
		c.cond.Wait()
	}
}

// Machine returns the live machine for debugger/snapshot use.
func (c *Controller) Machine() *vm.Machine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine
}

// LastError returns the error the most recent run finished with (nil
// on a normal HALT), for a CLI to translate into an exit status.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runErr
}
