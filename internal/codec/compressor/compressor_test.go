package compressor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/serdekit/pkg/util/merr"
)

func TestRoundTrip(t *testing.T) {
	src := bytes.Repeat([]byte("serdekit compressor payload "), 256)

	for _, name := range []string{NameNone, NameZstd, NameLZ4} {
		t.Run(name, func(t *testing.T) {
			c, err := ByName(name)
			require.NoError(t, err)
			assert.Equal(t, name, c.Name())

			packed, err := c.Compress(nil, src)
			require.NoError(t, err)
			if name != NameNone {
				assert.Less(t, len(packed), len(src))
			}

			plain, err := c.Decompress(nil, packed)
			require.NoError(t, err)
			assert.Equal(t, src, plain)
		})
	}
}

func TestEmptyInput(t *testing.T) {
	for _, name := range []string{NameZstd, NameLZ4} {
		c, err := ByName(name)
		require.NoError(t, err)
		packed, err := c.Compress(nil, nil)
		require.NoError(t, err)
		plain, err := c.Decompress(nil, packed)
		require.NoError(t, err)
		assert.Empty(t, plain)
	}
}

func TestCorruptInput(t *testing.T) {
	for _, name := range []string{NameZstd, NameLZ4} {
		c, err := ByName(name)
		require.NoError(t, err)
		_, err = c.Decompress(nil, []byte("definitely not compressed"))
		assert.Error(t, err, name)
	}
}

func TestByNameUnknown(t *testing.T) {
	_, err := ByName("brotli")
	assert.ErrorIs(t, err, merr.ErrCompressorNotFound)

	c, err := ByName(" ZSTD ")
	require.NoError(t, err)
	assert.Equal(t, NameZstd, c.Name())
}

func TestZstdClosed(t *testing.T) {
	c, err := NewZstdCompressorWithConcurrency(1)
	require.NoError(t, err)
	c.Close()
	_, err = c.Compress(nil, []byte("x"))
	assert.Error(t, err)
	_, err = c.Decompress(nil, []byte("x"))
	assert.Error(t, err)
	c.Close()
}
