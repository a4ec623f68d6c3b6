package engine

import (
	. "github.com/ChizhovVadim/ccheck/pkg/common"
)

const (
	boundLower = 1 << iota
	boundUpper
)

const boundExact = boundLower | boundUpper

// A bucket holds a depth-preferred slot and an always-replace slot.
type ttSlot struct {
	lock       uint32
	move       Move
	score      int16
	depth      int8
	bound      uint8
	generation uint8
}

type ttBucket [2]ttSlot

// 16 bytes per slot after padding
const ttBucketBytes = 32

type transTable struct {
	megabytes  int
	buckets    []ttBucket
	generation uint8
	mask       uint64
}

func newTransTable(megabytes int) *transTable {
	var count = 1024 * 1024 * Max(1, megabytes) / ttBucketBytes
	var size = 1
	for size*2 <= count {
		size *= 2
	}
	return &transTable{
		megabytes: megabytes,
		buckets:   make([]ttBucket, size),
		mask:      uint64(size - 1),
	}
}

func (tt *transTable) Size() int {
	return tt.megabytes
}

// IncDate starts a new search. Entries from older searches lose the
// depth-preferred slot first.
func (tt *transTable) IncDate() {
	tt.generation++
}

func (tt *transTable) Clear() {
	tt.generation = 0
	clear(tt.buckets)
}

func (tt *transTable) bucket(key uint64) *ttBucket {
	return &tt.buckets[key&tt.mask]
}

func (tt *transTable) Read(key uint64) (depth, score, bound int, move Move, ok bool) {
	var lock = uint32(key >> 32)
	var b = tt.bucket(key)
	for i := range b {
		var slot = &b[i]
		if slot.lock == lock && slot.bound != 0 {
			slot.generation = tt.generation
			return int(slot.depth), int(slot.score), int(slot.bound), slot.move, true
		}
	}
	return
}

func (tt *transTable) Update(key uint64, depth, score, bound int, move Move) {
	var lock = uint32(key >> 32)
	var b = tt.bucket(key)

	var slot *ttSlot
	for i := range b {
		if b[i].lock == lock && b[i].bound != 0 {
			if depth < int(b[i].depth)-2 && bound != boundExact {
				return
			}
			if move == MoveEmpty {
				move = b[i].move
			}
			slot = &b[i]
			break
		}
	}
	if slot == nil {
		slot = &b[1]
		if b[0].generation != tt.generation || depth >= int(b[0].depth) {
			// The displaced entry keeps a second chance in the other slot.
			b[1] = b[0]
			slot = &b[0]
		}
	}

	*slot = ttSlot{
		lock:       lock,
		move:       move,
		score:      int16(score),
		depth:      int8(depth),
		bound:      uint8(bound),
		generation: tt.generation,
	}
}
