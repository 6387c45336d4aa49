package debugger

import (
	"testing"

	"github.com/bdwalton/synacor/internal/config"
	"github.com/bdwalton/synacor/internal/vm"
)

func TestSnapshotStateRoundTrip(t *testing.T) {
	banks := newSnapshotBanks()

	s := vm.NewState()
	s.Regs[0] = 42
	s.Stack.Push(7)
	s.IP = 0x100
	s.Ticks = 5

	if err := banks.SaveState(3, s); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	// Mutate the live state after saving; the snapshot must be
	// unaffected (deep copy).
	s.Regs[0] = 999
	s.Stack.Push(8)

	loaded, err := banks.LoadState(3)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if loaded.Regs[0] != 42 {
		t.Errorf("loaded.Regs[0] = %d, want 42", loaded.Regs[0])
	}
	if loaded.IP != 0x100 || loaded.Ticks != 5 {
		t.Errorf("loaded IP/Ticks = %d/%d, want 0x100/5", loaded.IP, loaded.Ticks)
	}
	if v, ok := loaded.Stack.Top(); !ok || v != 7 {
		t.Errorf("loaded stack top = %v, ok=%v, want 7/true", v, ok)
	}
}

func TestSnapshotStateOutOfRangeIndex(t *testing.T) {
	banks := newSnapshotBanks()
	s := vm.NewState()

	if err := banks.SaveState(config.SnapshotBanks, s); err == nil {
		t.Errorf("saving at the off-the-end index should fail")
	}
	if err := banks.SaveState(-1, s); err == nil {
		t.Errorf("saving at a negative index should fail")
	}
}

func TestSnapshotLoadEmptySlotFails(t *testing.T) {
	banks := newSnapshotBanks()
	if _, err := banks.LoadState(0); err == nil {
		t.Errorf("loading an never-saved slot should report ErrSnapshotMiss")
	}
}

func TestSnapshotLastValidIndexInBounds(t *testing.T) {
	banks := newSnapshotBanks()
	s := vm.NewState()
	// Index SnapshotBanks-1 is the last valid slot; this is exactly
	// the boundary the off-by-one fix (documented in DESIGN.md) is
	// about.
	if err := banks.SaveState(config.SnapshotBanks-1, s); err != nil {
		t.Errorf("saving at the last valid index should succeed: %v", err)
	}
}

func TestCompareStacks(t *testing.T) {
	banks := newSnapshotBanks()
	a, b := vm.NewState(), vm.NewState()
	a.Stack.Push(1)
	a.Stack.Push(2)
	b.Stack.Push(1)
	b.Stack.Push(9)

	banks.SaveStack(0, a.Stack)
	banks.SaveStack(1, b.Stack)

	diff, err := banks.CompareStacks(0, 1)
	if err != nil {
		t.Fatalf("CompareStacks: %v", err)
	}
	if diff.Empty() {
		t.Errorf("divergent stacks should not compare empty")
	}
}

func TestCompareMemoryOnlyDifferingRows(t *testing.T) {
	banks := newSnapshotBanks()
	var a, b [config.MemWords]uint16
	a[20] = 1
	b[20] = 2 // differs within row starting at 16
	a[100] = 5
	b[100] = 5 // identical row

	banks.SaveMemory(0, a)
	banks.SaveMemory(1, b)

	rows, err := banks.CompareMemory(0, 1, 0, 128)
	if err != nil {
		t.Fatalf("CompareMemory: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1 differing row", len(rows))
	}
	if rows[0].Addr != 16 {
		t.Errorf("differing row addr = %d, want 16", rows[0].Addr)
	}
}

func TestCompareMemoryIdenticalIsEmpty(t *testing.T) {
	banks := newSnapshotBanks()
	var a [config.MemWords]uint16
	banks.SaveMemory(0, a)
	banks.SaveMemory(1, a)

	rows, err := banks.CompareMemory(0, 1, 0, 64)
	if err != nil {
		t.Fatalf("CompareMemory: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("identical memory should diff to zero rows, got %d", len(rows))
	}
}
