// pkg/compact/compact_test.go

package compact

import (
	"math/rand"
	"testing"

	"AveCompact/pkg/extent"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "2333133121414131402"

func digitsOf(s string) []int {
	ds := make([]int, len(s))
	for i, c := range s {
		ds[i] = int(c - '0')
	}
	return ds
}

func parse(t *testing.T, s string) *extent.Medium {
	t.Helper()
	m, err := extent.Parse(digitsOf(s))
	require.NoError(t, err)
	return m
}

func randomDigits(r *rand.Rand, n int) []int {
	ds := make([]int, n)
	for i := range ds {
		ds[i] = r.Intn(10)
	}
	return ds
}

type counter struct{ n int }

func (c *counter) IncrBy(n int) { c.n += n }

func TestBlocksExamples(t *testing.T) {
	cases := []struct {
		disk   string
		layout string
		sum    uint64
	}{
		{"12345", "022111222......", 60},
		{sample, "0099811188827773336446555566..............", 1928},
		{"9", "000000000", 0},
		{"90909", "000000000111111111222222222", 0*36 + 1*(9*9+36) + 2*(18*9+36)},
		{"1", "0", 0},
	}
	for _, c := range cases {
		t.Run(c.disk, func(t *testing.T) {
			res, err := Blocks(parse(t, c.disk), nil)
			require.NoError(t, err)
			assert.Equal(t, c.layout, res.Medium.String())
			assert.Equal(t, c.sum, res.Checksum)
		})
	}
}

func TestExtentsExamples(t *testing.T) {
	cases := []struct {
		disk   string
		layout string
		sum    uint64
	}{
		{"12345", "0..111....22222", 132},
		{sample, "00992111777.44.333....5555.6666.....8888..", 2858},
		{"9", "000000000", 0},
		{"131", "01...", 1},
		{"1313", "01......", 1},
	}
	for _, c := range cases {
		t.Run(c.disk, func(t *testing.T) {
			res, err := Extents(parse(t, c.disk), nil)
			require.NoError(t, err)
			assert.Equal(t, c.layout, res.Medium.String())
			assert.Equal(t, c.sum, res.Checksum)
		})
	}
}

func TestSingleUsedExtent(t *testing.T) {
	m := parse(t, "5")
	for _, name := range Policies() {
		r, err := Run(m, name, nil)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), r.Checksum, name)
		assert.Equal(t, 0, r.Moves, name)
	}
}

func TestExactFit(t *testing.T) {
	// file 2 fills the gap after file 0 exactly, so file 1 finds no room
	res, err := Extents(parse(t, "12112"), nil)
	require.NoError(t, err)
	assert.Equal(t, "0221...", res.Medium.String())
	assert.Equal(t, 1, res.Moves)
	assert.Equal(t, 0, res.Medium.Extent(1).Free())

	// file 3 fills the first gap, file 2 skips it for the next one
	res, err = Extents(parse(t, "1213122"), nil)
	require.NoError(t, err)
	assert.Equal(t, "03312.......", res.Medium.String())
	assert.Equal(t, 2, res.Moves)
	assert.Equal(t, []extent.Run{{ID: 3, Length: 2}}, res.Medium.Extent(1).Runs())
}

func TestNoFitStaysPut(t *testing.T) {
	res, err := Extents(parse(t, "21213"), nil)
	require.NoError(t, err)
	assert.Equal(t, "00.11.222", res.Medium.String())
	assert.Equal(t, 0, res.Moves)
	assert.Equal(t, 3, res.Steps)
}

func TestTrailingFreeSpace(t *testing.T) {
	cases := map[string]uint64{
		"10009": 90,
		"1919":  1,
		"0909":  0,
		"19":    0,
	}
	for disk, want := range cases {
		m := parse(t, disk)
		b, err := Blocks(m, nil)
		require.NoError(t, err, disk)
		e, err := Extents(m, nil)
		require.NoError(t, err, disk)
		assert.Equal(t, want, b.Checksum, disk)
		assert.Equal(t, want, e.Checksum, disk)
		assert.Equal(t, b.Medium.String(), e.Medium.String(), disk)
	}
}

func TestBlocksIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(9))
	for i := 0; i < 50; i++ {
		m, err := extent.Parse(randomDigits(r, 1+r.Intn(40)))
		require.NoError(t, err)
		first, err := Blocks(m, nil)
		require.NoError(t, err)
		second, err := Blocks(first.Medium, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, second.Moves)
		assert.Equal(t, first.Checksum, second.Checksum)
		assert.Equal(t, first.Medium.String(), second.Medium.String())
	}
}

func TestBlocksInvariants(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		digits := randomDigits(r, 1+r.Intn(60))
		var want int
		for _, d := range digits {
			want += d
		}
		m, err := extent.Parse(digits)
		require.NoError(t, err)
		before := m.String()

		var progress counter
		res, err := Blocks(m, &Config{Progress: &progress})
		require.NoError(t, err)
		require.NoError(t, res.Medium.Verify())

		assert.Equal(t, before, m.String(), "input medium untouched")
		assert.Equal(t, want, res.Medium.TotalBlocks())
		assert.Len(t, res.Medium.Layout(), want)
		assert.Equal(t, res.Medium.Checksum(), res.Checksum, "online sum equals final scan")
		assert.LessOrEqual(t, res.Steps, want)
		assert.Equal(t, res.Steps, progress.n)

		// every occupied block precedes every free block
		layout := res.Medium.Layout()
		seenFree := false
		counts := make(map[int]int)
		for _, id := range layout {
			if id < 0 {
				seenFree = true
				continue
			}
			assert.False(t, seenFree, "hole before block of %d in %s", id, res.Medium)
			counts[id]++
		}
		for id := 0; id < m.Files(); id++ {
			assert.Equal(t, digits[2*id], counts[id], "blocks of file %d", id)
		}
	}
}

// firstFit is the plain quadratic form of the extent policy.
func firstFit(t *testing.T, m *extent.Medium) *extent.Medium {
	m = m.Clone()
	for fi := m.Len() - 1; fi >= 0; fi-- {
		f, ok := m.Extent(fi).File()
		if !ok {
			continue
		}
		for di := 0; di < fi; di++ {
			d := m.Extent(di)
			if d.Kind() == extent.Free && d.Free() >= f.Length {
				require.NoError(t, m.Relocate(fi, di))
				break
			}
		}
	}
	return m
}

func TestExtentsMatchesFirstFit(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 300; i++ {
		digits := randomDigits(r, 1+r.Intn(80))
		m, err := extent.Parse(digits)
		require.NoError(t, err)

		var progress counter
		res, err := Extents(m, &Config{Progress: &progress})
		require.NoError(t, err)
		require.NoError(t, res.Medium.Verify())
		ref := firstFit(t, m)

		assert.Equal(t, ref.String(), res.Medium.String(), "digits %v", digits)
		assert.Equal(t, ref.Checksum(), res.Checksum)
		assert.Equal(t, m.TotalBlocks(), len(res.Medium.Layout()))
		assert.Equal(t, res.Steps, progress.n)
		assert.LessOrEqual(t, res.Moves, res.Steps)

		// each file keeps its length and appears exactly once
		counts := make(map[int]int)
		for _, id := range res.Medium.Layout() {
			if id >= 0 {
				counts[id]++
			}
		}
		for id := 0; id < m.Files(); id++ {
			assert.Equal(t, digits[2*id], counts[id], "blocks of file %d", id)
		}
	}
}

func TestExtentsNeverMovesRight(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		m, err := extent.Parse(randomDigits(r, 1+r.Intn(50)))
		require.NoError(t, err)
		res, err := Extents(m, nil)
		require.NoError(t, err)

		first := func(layout []int, id int) int {
			for pos, v := range layout {
				if v == id {
					return pos
				}
			}
			return -1
		}
		before, after := m.Layout(), res.Medium.Layout()
		for id := 0; id < m.Files(); id++ {
			assert.LessOrEqual(t, first(after, id), first(before, id), "file %d", id)
		}
	}
}

func TestPoliciesShareNothing(t *testing.T) {
	m := parse(t, sample)
	b, err := Run(m, "block", nil)
	require.NoError(t, err)
	e, err := Run(m, "extent", nil)
	require.NoError(t, err)
	b2, err := Run(m, "block", nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(1928), b.Checksum)
	assert.Equal(t, uint64(2858), e.Checksum)
	assert.Equal(t, b.Checksum, b2.Checksum)
	assert.NotEqual(t, b.RunID, b2.RunID)
	assert.Equal(t, "00...111...2...333.44.5555.6666.777.888899", m.String())
}

func TestRunReport(t *testing.T) {
	r, err := Run(parse(t, "12345"), "block", nil)
	require.NoError(t, err)
	assert.Equal(t, "block", r.Policy)
	assert.Equal(t, 15, r.TotalBlocks)
	assert.Equal(t, 5, r.Moves)
	assert.Equal(t, uint64(60), r.Checksum)
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, r.CPU.Wall, r.Duration)

	_, err = Run(parse(t, "12345"), "best-fit", nil)
	assert.Error(t, err)
	assert.Equal(t, []string{"block", "extent"}, Policies())
}

func TestRunFailures(t *testing.T) {
	Register("test-underflow", func(m *extent.Medium, conf *Config) (*Result, error) {
		return nil, errors.Wrapf(extent.ErrCapacityUnderflow, "move block to %d", 3)
	})
	Register("test-corrupt", func(m *extent.Medium, conf *Config) (*Result, error) {
		res, err := Blocks(m, conf)
		if err != nil {
			return nil, err
		}
		*res.Medium.Extent(0) = extent.NewFree(res.Medium.TotalBlocks() + 1)
		return res, nil
	})
	defer func() {
		policyLock.Lock()
		delete(policies, "test-underflow")
		delete(policies, "test-corrupt")
		policyLock.Unlock()
	}()

	m := parse(t, "12345")
	r, err := Run(m, "test-underflow", nil)
	assert.Nil(t, r)
	assert.True(t, errors.Is(err, extent.ErrCapacityUnderflow), "%v", err)

	r, err = Run(m, "test-corrupt", nil)
	assert.Nil(t, r)
	assert.True(t, errors.Is(err, extent.ErrCapacityUnderflow), "%v", err)
	assert.Equal(t, "0..111....22222", m.String())
}
