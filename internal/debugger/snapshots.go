package debugger

import (
	"github.com/bdwalton/synacor/internal/config"
	"github.com/bdwalton/synacor/internal/faults"
	"github.com/bdwalton/synacor/internal/vm"
)

// snapshotBanks holds the three parallel fixed-size snapshot banks
// (state, stack, memory), per spec §3. Bound checks use "< N" rather
// than the original_source's "pos > MAX_STATES", which is the
// off-by-one the spec documents as an intentional fix (slot N would
// otherwise pass the guard before indexing panicked).
type snapshotBanks struct {
	states [config.SnapshotBanks]*vm.State
	stacks [config.SnapshotBanks]*vm.Stack
	mems   [config.SnapshotBanks][config.MemWords]uint16
	memSet [config.SnapshotBanks]bool
}

func newSnapshotBanks() *snapshotBanks {
	return &snapshotBanks{}
}

func inBounds(i int) bool {
	return i >= 0 && i < config.SnapshotBanks
}

// SaveState snapshots a full copy of s into slot i, overwriting
// whatever was there.
func (b *snapshotBanks) SaveState(i int, s *vm.State) error {
	if !inBounds(i) {
		return faults.ErrSnapshotMiss
	}
	b.states[i] = s.Clone()
	return nil
}

// LoadState returns a copy of the state saved in slot i. Loading an
// empty or out-of-range slot reports ErrSnapshotMiss without mutating
// anything.
func (b *snapshotBanks) LoadState(i int) (*vm.State, error) {
	if !inBounds(i) || b.states[i] == nil {
		return nil, faults.ErrSnapshotMiss
	}
	return b.states[i].Clone(), nil
}

// SaveStack snapshots a copy of the stack into slot i.
func (b *snapshotBanks) SaveStack(i int, s *vm.Stack) error {
	if !inBounds(i) {
		return faults.ErrSnapshotMiss
	}
	b.stacks[i] = s.Clone()
	return nil
}

// CompareStacks diffs the stacks saved in slots i and j.
func (b *snapshotBanks) CompareStacks(i, j int) (vm.StackDiff, error) {
	if !inBounds(i) || !inBounds(j) || b.stacks[i] == nil || b.stacks[j] == nil {
		return vm.StackDiff{}, faults.ErrSnapshotMiss
	}
	return b.stacks[i].CompareTo(b.stacks[j]), nil
}

// SaveMemory snapshots a copy of RAM into slot i.
func (b *snapshotBanks) SaveMemory(i int, ram [config.MemWords]uint16) error {
	if !inBounds(i) {
		return faults.ErrSnapshotMiss
	}
	b.mems[i] = ram
	b.memSet[i] = true
	return nil
}

// LoadMemory returns the RAM saved in slot i.
func (b *snapshotBanks) LoadMemory(i int) ([config.MemWords]uint16, error) {
	if !inBounds(i) || !b.memSet[i] {
		return [config.MemWords]uint16{}, faults.ErrSnapshotMiss
	}
	return b.mems[i], nil
}

// MemoryDiffRow is one row of a memory comparison over [addr, addr+size).
type MemoryDiffRow struct {
	Addr  uint16
	Left  []uint16
	Right []uint16
}

// CompareMemory diffs the memory saved in slots i and j over
// [addr, addr+size), returning only rows containing at least one
// differing word, per spec §4.E.
func (b *snapshotBanks) CompareMemory(i, j int, addr, size uint16) ([]MemoryDiffRow, error) {
	if !inBounds(i) || !inBounds(j) || !b.memSet[i] || !b.memSet[j] {
		return nil, faults.ErrSnapshotMiss
	}
	const row = config.MemoryRowWords
	start := addr &^ (row - 1)
	var out []MemoryDiffRow
	for a := start; a < addr+size && int(a) < config.MemWords; a += row {
		differs := false
		left := make([]uint16, 0, row)
		right := make([]uint16, 0, row)
		for k := uint16(0); k < row && int(a)+int(k) < config.MemWords; k++ {
			lv := b.mems[i][a+k]
			rv := b.mems[j][a+k]
			left = append(left, lv)
			right = append(right, rv)
			if lv != rv {
				differs = true
			}
		}
		if differs {
			out = append(out, MemoryDiffRow{Addr: a, Left: left, Right: right})
		}
	}
	return out, nil
}
