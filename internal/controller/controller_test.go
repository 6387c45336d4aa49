package controller

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bdwalton/synacor/internal/ioline"
)

func writeBinary(t *testing.T, words []uint16) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.bin")
	buf := make([]byte, len(words)*2)
	for i, w := range words {
		binary.LittleEndian.PutUint16(buf[i*2:], w)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("writing test binary: %v", err)
	}
	return path
}

func TestControllerRunsToCompletionOverPipedChannel(t *testing.T) {
	// OUT 'A'; OUT 'B'; HALT
	path := writeBinary(t, []uint16{19, 65, 19, 66, 0})

	p := ioline.NewPiped(16, 16)
	var mu sync.Mutex
	var out []byte
	done := make(chan struct{})

	ctl := New(p, nil, Callbacks{
		OnOutput: func(b byte) {
			mu.Lock()
			out = append(out, b)
			mu.Unlock()
		},
	})

	if err := ctl.LoadProgram(path); err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	if err := ctl.RunProgram(); err != nil {
		t.Fatalf("RunProgram: %v", err)
	}

	go func() {
		ctl.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not reach NotRunning within timeout")
	}

	mu.Lock()
	defer mu.Unlock()
	if string(out) != "AB" {
		t.Errorf("bridged output = %q, want %q", out, "AB")
	}
	if err := ctl.LastError(); err != nil {
		t.Errorf("LastError() = %v, want nil after a normal HALT", err)
	}
}

func TestControllerLoadProgramRejectedWhileRunning(t *testing.T) {
	// An IN-then-loop program that blocks waiting for input, so the
	// Controller stays Running while we try a second LoadProgram.
	path := writeBinary(t, []uint16{20, 32768, 6, 0})

	p := ioline.NewPiped(16, 16)
	ctl := New(p, nil, Callbacks{})

	if err := ctl.LoadProgram(path); err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	if err := ctl.RunProgram(); err != nil {
		t.Fatalf("RunProgram: %v", err)
	}

	if err := ctl.LoadProgram(path); err == nil {
		t.Errorf("LoadProgram while Running should be rejected")
	}

	ctl.StopRunning()
}

func TestControllerSendInputReachesProgram(t *testing.T) {
	// IN r0; OUT r0; HALT
	path := writeBinary(t, []uint16{20, 32768, 19, 32768, 0})

	p := ioline.NewPiped(16, 16)
	var mu sync.Mutex
	var out []byte
	done := make(chan struct{})

	ctl := New(p, nil, Callbacks{
		OnOutput: func(b byte) {
			mu.Lock()
			out = append(out, b)
			mu.Unlock()
		},
	})

	if err := ctl.LoadProgram(path); err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	if err := ctl.RunProgram(); err != nil {
		t.Fatalf("RunProgram: %v", err)
	}

	ctl.SendInput([]byte("Q\n"))

	go func() {
		ctl.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not reach NotRunning within timeout")
	}

	mu.Lock()
	defer mu.Unlock()
	if string(out) != "Q" {
		t.Errorf("bridged output = %q, want %q", out, "Q")
	}
}

func TestControllerStopRunningUnblocksExecutor(t *testing.T) {
	// IN r0; JMP 0: blocks forever on IN unless stopped.
	path := writeBinary(t, []uint16{20, 32768, 6, 0})

	p := ioline.NewPiped(16, 16)
	ctl := New(p, nil, Callbacks{})

	if err := ctl.LoadProgram(path); err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	if err := ctl.RunProgram(); err != nil {
		t.Fatalf("RunProgram: %v", err)
	}

	stopped := make(chan struct{})
	go func() {
		ctl.StopRunning()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("StopRunning did not return within timeout")
	}
}
