package reader

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pixelloop/angif/gif"
)

// TestGifSource_SatisfiesByteSource drives GifSource through gif.ByteSource's
// contract directly: sequential reads, a seek back to the start, and a
// seek past EOF clamping into range, matching the same behavior
// gif.MemorySource guarantees over the same bytes.
func TestGifSource_SatisfiesByteSource(t *testing.T) {
	data := []byte("GIF89a0123456789")
	src := NewGifSource(bytes.NewReader(data), 4, int64(len(data)))

	var got gif.ByteSource = src
	require.Equal(t, int64(len(data)), got.Size())

	buf := make([]byte, 6)
	n, err := got.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 6, n)
	require.Equal(t, []byte("GIF89a"), buf)
	require.Equal(t, int64(6), got.Pos())

	rest := make([]byte, len(data))
	n, err = got.Read(rest)
	require.NoError(t, err)
	require.Equal(t, len(data)-6, n)
	require.Equal(t, data[6:], rest[:n])

	pos := got.Seek(0)
	require.Equal(t, int64(0), pos)
	n, err = got.Read(buf)
	require.NoError(t, err)
	require.Equal(t, []byte("GIF89a"), buf[:n])

	pos = got.Seek(int64(len(data) + 100))
	require.Equal(t, int64(len(data)-1), pos)
}

// TestGifSource_DecodesThroughDecoder exercises GifSource end to end as the
// byte source behind a real Decoder, proving it is a genuine alternative
// to MemorySource/mmap.Source rather than an unexercised adapter.
func TestGifSource_DecodesThroughDecoder(t *testing.T) {
	minimalGIF := []byte{
		0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00,
		0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF,
		0x2C, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00,
		0x02, 0x02, 0x44, 0x01, 0x00,
		0x3B,
	}
	src := NewGifSource(bytes.NewReader(minimalGIF), 16, int64(len(minimalGIF)))

	var rows [][]byte
	dec, err := gif.New(gif.Config{
		DrawMode: gif.RawRows,
		Sink: gif.DrawSinkFunc(func(rec *gif.DrawRecord) {
			rows = append(rows, append([]byte(nil), rec.Row...))
		}),
	})
	require.NoError(t, err)
	require.NoError(t, dec.Open(src))

	ok, err := dec.PlayFrame()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, [][]byte{{0}}, rows)
}
