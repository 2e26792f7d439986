// pkg/extent/extent.go

package extent

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind uint8

const (
	Used Kind = iota
	Free
)

func (k Kind) String() string {
	switch k {
	case Used:
		return "used"
	case Free:
		return "free"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Run is a contiguous range of blocks held by one file.
type Run struct {
	ID     int
	Length int
}

// Extent is one slot of the medium. Its occupied runs always precede its
// free capacity, and its total length never changes once parsed.
type Extent struct {
	kind  Kind
	owner int
	runs  []Run
	free  int
}

// NewUsed returns an extent holding file id.
func NewUsed(id, length int) Extent {
	e := Extent{kind: Used, owner: id}
	if length != 0 {
		e.runs = []Run{{ID: id, Length: length}}
	}
	return e
}

// NewFree returns an empty extent with the given capacity.
func NewFree(capacity int) Extent {
	return Extent{kind: Free, owner: -1, free: capacity}
}

func (e *Extent) Kind() Kind {
	return e.kind
}

// Owner is the file id assigned at parse time, -1 for free extents.
func (e *Extent) Owner() int {
	return e.owner
}

// Runs returns a copy of the occupied runs, left to right.
func (e *Extent) Runs() []Run {
	rs := make([]Run, len(e.runs))
	copy(rs, e.runs)
	return rs
}

// Free returns the remaining free capacity.
func (e *Extent) Free() int {
	return e.free
}

func (e *Extent) Occupied() int {
	var n int
	for _, r := range e.runs {
		n += r.Length
	}
	return n
}

func (e *Extent) Len() int {
	return e.Occupied() + e.free
}

// At returns the file id at offset off inside the extent.
func (e *Extent) At(off int) (int, bool) {
	if off < 0 {
		return 0, false
	}
	for _, r := range e.runs {
		if off < r.Length {
			return r.ID, true
		}
		off -= r.Length
	}
	return 0, false
}

// File reports the whole file an untouched used extent still holds.
func (e *Extent) File() (Run, bool) {
	if e.kind != Used || e.free != 0 || len(e.runs) != 1 || e.runs[0].ID != e.owner {
		return Run{}, false
	}
	return e.runs[0], true
}

// TakeBlock removes the last occupied block and returns its owner. An
// initially used extent drained to nothing turns into a free extent.
func (e *Extent) TakeBlock() (int, error) {
	n := len(e.runs)
	if n == 0 {
		return 0, errors.Wrap(ErrCapacityUnderflow, "take block from empty extent")
	}
	last := &e.runs[n-1]
	id := last.ID
	last.Length--
	if last.Length == 0 {
		e.runs = e.runs[:n-1]
	}
	e.free++
	if e.kind == Used && len(e.runs) == 0 {
		e.kind = Free
		e.owner = -1
	}
	return id, nil
}

// PutBlock fills the first free block with file id.
func (e *Extent) PutBlock(id int) error {
	if e.free <= 0 {
		return errors.Wrapf(ErrCapacityUnderflow, "put block of file %d into full extent", id)
	}
	if n := len(e.runs); n > 0 && e.runs[n-1].ID == id {
		e.runs[n-1].Length++
	} else {
		e.runs = append(e.runs, Run{ID: id, Length: 1})
	}
	e.free--
	return nil
}

func (e *Extent) validate() error {
	if e.free < 0 {
		return errors.Wrapf(ErrCapacityUnderflow, "negative capacity %d", e.free)
	}
	for _, r := range e.runs {
		if r.Length <= 0 {
			return errors.Wrapf(ErrCapacityUnderflow, "file %d has length %d", r.ID, r.Length)
		}
		if r.ID < 0 {
			return errors.Wrapf(ErrInvalidInput, "negative file id %d", r.ID)
		}
	}
	if e.kind == Used && e.owner < 0 {
		return errors.Wrapf(ErrInvalidInput, "used extent without owner")
	}
	return nil
}

func (e Extent) clone() Extent {
	if e.runs != nil {
		runs := make([]Run, len(e.runs))
		copy(runs, e.runs)
		e.runs = runs
	}
	return e
}
