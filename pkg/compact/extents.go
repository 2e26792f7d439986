// pkg/compact/extents.go

package compact

import (
	"AveCompact/pkg/extent"

	"github.com/pkg/errors"
)

// Extents compacts a copy of m one whole file at a time. Files are taken
// from the highest id down; each moves at most once, into the leftmost free
// extent before it with enough room. Files with no such extent stay put.
// Progress counts files considered.
func Extents(m *extent.Medium, conf *Config) (*Result, error) {
	m = m.Clone()
	res := &Result{Medium: m}

	// hint[l] is the leftmost extent that might still fit l blocks. Free
	// capacity left of any file only shrinks, so hints never move back.
	var hint []int
	for fi := m.Len() - 1; fi >= 0; fi-- {
		f, ok := m.Extent(fi).File()
		if !ok {
			continue
		}
		res.Steps++
		conf.incr(1)
		if f.Length >= len(hint) {
			grown := make([]int, f.Length+1)
			copy(grown, hint)
			hint = grown
		}

		di := hint[f.Length]
		for ; di < fi; di++ {
			d := m.Extent(di)
			if d.Kind() == extent.Free && d.Free() >= f.Length {
				break
			}
		}
		hint[f.Length] = di
		if di >= fi {
			continue
		}
		if err := m.Relocate(fi, di); err != nil {
			return nil, errors.Wrapf(err, "relocate file %d", f.ID)
		}
		res.Moves++
	}
	res.Checksum = m.Checksum()
	return res, nil
}
