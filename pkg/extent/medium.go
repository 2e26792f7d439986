// pkg/extent/medium.go

package extent

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Medium is a linear run of extents. Extent lengths are fixed at
// construction, so start offsets are computed once.
type Medium struct {
	extents []Extent
	starts  []int
	total   int
	files   int
}

// Parse builds a medium from a disk map: even indexes are files with ids
// 0, 1, 2, ..., odd indexes are free space.
func Parse(digits []int) (*Medium, error) {
	if len(digits) == 0 {
		return nil, errors.Wrap(ErrInvalidInput, "empty disk map")
	}
	exts := make([]Extent, len(digits))
	for i, d := range digits {
		if d < 0 || d > 9 {
			return nil, errors.Wrapf(ErrInvalidInput, "digit %d at index %d", d, i)
		}
		if i%2 == 0 {
			exts[i] = NewUsed(i/2, d)
		} else {
			exts[i] = NewFree(d)
		}
	}
	return build(exts), nil
}

// New builds a medium from explicit extents.
func New(extents ...Extent) (*Medium, error) {
	if len(extents) == 0 {
		return nil, errors.Wrap(ErrInvalidInput, "no extents")
	}
	exts := make([]Extent, len(extents))
	for i := range extents {
		if err := extents[i].validate(); err != nil {
			return nil, errors.Wrapf(err, "extent %d", i)
		}
		exts[i] = extents[i].clone()
	}
	return build(exts), nil
}

func build(exts []Extent) *Medium {
	m := &Medium{extents: exts, starts: make([]int, len(exts))}
	for i := range exts {
		m.starts[i] = m.total
		m.total += exts[i].Len()
		if exts[i].kind == Used {
			m.files++
		}
	}
	return m
}

// Len returns the number of extents.
func (m *Medium) Len() int {
	return len(m.extents)
}

// Extent returns the i-th extent for in-place mutation.
func (m *Medium) Extent(i int) *Extent {
	return &m.extents[i]
}

// Start returns the position of the first block of extent i.
func (m *Medium) Start(i int) int {
	return m.starts[i]
}

func (m *Medium) TotalBlocks() int {
	return m.total
}

// Files returns the number of files the medium was built with.
func (m *Medium) Files() int {
	return m.files
}

// BlockAt returns the file occupying block pos.
func (m *Medium) BlockAt(pos int) (int, bool) {
	if pos < 0 || pos >= m.total {
		return 0, false
	}
	// last extent starting at or before pos; it is never zero-length
	i := sort.Search(len(m.starts), func(i int) bool { return m.starts[i] > pos }) - 1
	return m.extents[i].At(pos - m.starts[i])
}

// Relocate moves the file held by used extent src into the free capacity
// of extent dst. The source slot becomes free space of the same length.
func (m *Medium) Relocate(src, dst int) error {
	se := &m.extents[src]
	f, ok := se.File()
	if !ok {
		return errors.Wrapf(ErrCapacityUnderflow, "extent %d holds no whole file", src)
	}
	de := &m.extents[dst]
	if de.free < f.Length {
		return errors.Wrapf(ErrCapacityUnderflow, "file %d needs %d blocks, extent %d has %d",
			f.ID, f.Length, dst, de.free)
	}
	de.runs = append(de.runs, f)
	de.free -= f.Length
	*se = NewFree(f.Length)
	return nil
}

// Clone returns a deep copy sharing no mutable state with m.
func (m *Medium) Clone() *Medium {
	c := &Medium{
		extents: make([]Extent, len(m.extents)),
		starts:  m.starts,
		total:   m.total,
		files:   m.files,
	}
	for i := range m.extents {
		c.extents[i] = m.extents[i].clone()
	}
	return c
}

// Layout expands the medium into blocks; free blocks are -1.
func (m *Medium) Layout() []int {
	blocks := make([]int, 0, m.total)
	for i := range m.extents {
		e := &m.extents[i]
		for _, r := range e.runs {
			for j := 0; j < r.Length; j++ {
				blocks = append(blocks, r.ID)
			}
		}
		for j := 0; j < e.free; j++ {
			blocks = append(blocks, -1)
		}
	}
	return blocks
}

// Checksum sums position*id over every occupied block.
func (m *Medium) Checksum() uint64 {
	var sum uint64
	var pos int
	for i := range m.extents {
		e := &m.extents[i]
		for _, r := range e.runs {
			for j := 0; j < r.Length; j++ {
				sum += uint64(pos) * uint64(r.ID)
				pos++
			}
		}
		pos += e.free
	}
	return sum
}

// String draws the medium as "00...111.2"; ids above 9 use base 36.
func (m *Medium) String() string {
	var b strings.Builder
	b.Grow(m.total)
	for _, id := range m.Layout() {
		if id < 0 {
			b.WriteByte('.')
		} else {
			b.WriteString(strconv.FormatInt(int64(id%36), 36))
		}
	}
	return b.String()
}

// Verify checks that every extent is well formed and still spans the
// blocks it was built with.
func (m *Medium) Verify() error {
	var pos int
	for i := range m.extents {
		e := &m.extents[i]
		if err := e.validate(); err != nil {
			return errors.Wrapf(err, "extent %d", i)
		}
		if pos != m.starts[i] {
			return errors.Wrapf(ErrCapacityUnderflow, "extent %d starts at %d, expected %d", i, pos, m.starts[i])
		}
		pos += e.Len()
	}
	if pos != m.total {
		return errors.Wrapf(ErrCapacityUnderflow, "medium spans %d blocks, expected %d", pos, m.total)
	}
	return nil
}
