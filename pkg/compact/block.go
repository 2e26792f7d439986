// pkg/compact/block.go

package compact

import (
	"AveCompact/pkg/extent"

	"github.com/pkg/errors"
)

// Result is a compacted copy of a medium and what it took to get there.
type Result struct {
	Medium   *extent.Medium
	Checksum uint64
	Moves    int // blocks (block policy) or files (extent policy) relocated
	Steps    int // blocks visited by the left cursor, or files considered
}

// Blocks compacts a copy of m one block at a time: the last occupied block
// moves into the first free block until no free block precedes an occupied
// one. The checksum is summed while the left cursor advances. Progress
// counts blocks settled by the left cursor.
func Blocks(m *extent.Medium, conf *Config) (*Result, error) {
	m = m.Clone()
	n := m.Len()
	res := &Result{Medium: m}

	var sum uint64
	li, lo := 0, 0 // left cursor: extent index and offset inside it
	ri := n - 1    // right cursor: last extent that may still hold blocks
	for li < n {
		le := m.Extent(li)
		if lo >= le.Len() {
			li, lo = li+1, 0
			continue
		}
		pos := m.Start(li) + lo
		if lo < le.Occupied() {
			id, ok := le.At(lo)
			if !ok {
				return nil, errors.Wrapf(extent.ErrCapacityUnderflow, "no block at %d", pos)
			}
			sum += uint64(pos) * uint64(id)
			lo++
			res.Steps++
			conf.incr(1)
			continue
		}

		for ri >= 0 && m.Extent(ri).Occupied() == 0 {
			ri--
		}
		if ri < 0 || m.Start(ri)+m.Extent(ri).Occupied()-1 <= pos {
			break
		}
		id, err := m.Extent(ri).TakeBlock()
		if err != nil {
			return nil, errors.Wrapf(err, "move block to %d", pos)
		}
		if err = le.PutBlock(id); err != nil {
			return nil, errors.Wrapf(err, "move block to %d", pos)
		}
		sum += uint64(pos) * uint64(id)
		res.Moves++
		res.Steps++
		lo++
		conf.incr(1)
	}
	res.Checksum = sum
	return res, nil
}
