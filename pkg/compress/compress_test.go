// pkg/compress/compress_test.go

package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInflate(t *testing.T) {
	src := bytes.Repeat([]byte("2333133121414131402"), 2000)
	for _, name := range []string{"lz4", "zstd", "none"} {
		t.Run(name, func(t *testing.T) {
			c := NewCompressor(name)
			require.NotNil(t, c)
			dst := make([]byte, c.CompressBound(len(src)))
			n, err := c.Compress(dst, src)
			require.NoError(t, err)

			out, err := Inflate(c, dst[:n], 1<<20)
			require.NoError(t, err)
			assert.Equal(t, src, out)

			_, err = Inflate(c, dst[:n], len(src)/2)
			assert.Error(t, err, "output larger than the limit")
		})
	}
}

func TestNewCompressor(t *testing.T) {
	assert.Nil(t, NewCompressor("brotli"))
	assert.Equal(t, "LZ4", NewCompressor("LZ4").Name())
	assert.Equal(t, "none", NewCompressor("").Name())
}

func TestForName(t *testing.T) {
	assert.Equal(t, "Zstd", ForName("/data/disk.txt.zst").Name())
	assert.Equal(t, "LZ4", ForName("disk.lz4").Name())
	assert.Equal(t, "none", ForName("disk.txt").Name())
}
