package gif

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDecoder(t *testing.T, cfg Config) *Decoder {
	t.Helper()
	if cfg.Sink == nil {
		cfg.Sink = DrawSinkFunc(func(*DrawRecord) {})
	}
	dec, err := New(cfg)
	require.NoError(t, err)
	return dec
}

func TestDecoder_SinglePixelFrame(t *testing.T) {
	pal := greyPalette(4)
	data := buildGIF(1, 1, pal, -1, []gifFrame{
		{width: 1, height: 1, initCodeSize: 2, pixels: []byte{3}},
	})

	var rows [][]byte
	dec := newTestDecoder(t, Config{
		DrawMode: RawRows,
		Sink: DrawSinkFunc(func(rec *DrawRecord) {
			row := append([]byte(nil), rec.Row...)
			rows = append(rows, row)
		}),
	})

	require.NoError(t, dec.Open(NewMemorySource(data)))
	w, h, _, loop := dec.Canvas()
	require.Equal(t, 1, w)
	require.Equal(t, 1, h)
	require.Equal(t, -1, loop)

	ok, err := dec.PlayFrame()
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, rows, 1)
	require.Equal(t, []byte{3}, rows[0])

	ok, err = dec.PlayFrame()
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, EndOfStream, dec.LastError().Kind)
}

func TestDecoder_MultiRowFrame(t *testing.T) {
	pal := greyPalette(8)
	pixels := []byte{
		0, 1, 2, 3,
		4, 5, 6, 7,
		1, 1, 1, 1,
	}
	data := buildGIF(4, 3, pal, -1, []gifFrame{
		{width: 4, height: 3, initCodeSize: 3, pixels: pixels},
	})

	var got []byte
	dec := newTestDecoder(t, Config{
		DrawMode: RawRows,
		Sink: DrawSinkFunc(func(rec *DrawRecord) {
			got = append(got, rec.Row...)
		}),
	})
	require.NoError(t, dec.Open(NewMemorySource(data)))
	ok, err := dec.PlayFrame()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pixels, got)
}

func TestDecoder_Interlace(t *testing.T) {
	pal := greyPalette(2)
	height := 8
	width := 1
	pixels := make([]byte, width*height)
	for i := range pixels {
		pixels[i] = byte(i % 2)
	}
	data := buildGIF(width, height, pal, -1, []gifFrame{
		{width: width, height: height, interlace: true, initCodeSize: 2, pixels: pixels},
	})

	var order []int
	dec := newTestDecoder(t, Config{
		DrawMode: RawRows,
		Sink: DrawSinkFunc(func(rec *DrawRecord) {
			order = append(order, rec.Y)
		}),
	})
	require.NoError(t, dec.Open(NewMemorySource(data)))
	ok, err := dec.PlayFrame()
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, []int{0, 4, 2, 6, 1, 3, 5, 7}, order)
}

func TestDecoder_LocalPaletteOverridesGlobal(t *testing.T) {
	global := greyPalette(2)
	local := []byte{10, 20, 30, 40, 50, 60}
	data := buildGIF(1, 1, global, -1, []gifFrame{
		{width: 1, height: 1, initCodeSize: 2, localPalette: local, pixels: []byte{1}},
	})

	var pal *[256]uint16
	dec := newTestDecoder(t, Config{
		DrawMode: RawRows,
		Sink: DrawSinkFunc(func(rec *DrawRecord) {
			pal = rec.Palette
		}),
	})
	require.NoError(t, dec.Open(NewMemorySource(data)))
	ok, err := dec.PlayFrame()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rgb565(40, 50, 60), pal[1])
}

func TestDecoder_TransparencyAndDisposal(t *testing.T) {
	pal := greyPalette(2)
	data := buildGIF(1, 1, pal, -1, []gifFrame{
		{
			width: 1, height: 1, initCodeSize: 2, pixels: []byte{1},
			hasGC: true, disposal: 2, hasTransparency: true, transparentIdx: 1, delayCs: 50,
		},
	})

	var rec DrawRecord
	dec := newTestDecoder(t, Config{
		DrawMode: RawRows,
		Sink: DrawSinkFunc(func(r *DrawRecord) {
			rec = *r
		}),
	})
	require.NoError(t, dec.Open(NewMemorySource(data)))
	ok, err := dec.PlayFrame()
	require.NoError(t, err)
	require.True(t, ok)

	require.True(t, rec.HasTransparency)
	require.Equal(t, uint8(1), rec.TransparentIndex)
	require.Equal(t, byte(2), rec.Disposal)

	fi := dec.FrameInfo()
	require.Equal(t, 500, fi.DelayMS)
}

func TestDecoder_CommentRoundTrip(t *testing.T) {
	pal := greyPalette(2)
	data := buildGIF(1, 1, pal, -1, []gifFrame{
		{width: 1, height: 1, initCodeSize: 2, pixels: []byte{0}, comment: "hello gif"},
	})

	dec := newTestDecoder(t, Config{DrawMode: RawRows})
	require.NoError(t, dec.Open(NewMemorySource(data)))
	ok, err := dec.PlayFrame()
	require.NoError(t, err)
	require.True(t, ok)

	_, _, hasComment := dec.Comment()
	require.True(t, hasComment)
	text, err := dec.ReadComment()
	require.NoError(t, err)
	require.Equal(t, "hello gif", string(text))
}

func TestDecoder_LoopCountParsed(t *testing.T) {
	pal := greyPalette(2)
	data := buildGIF(1, 1, pal, 0, []gifFrame{
		{width: 1, height: 1, initCodeSize: 2, pixels: []byte{0}},
	})
	dec := newTestDecoder(t, Config{DrawMode: RawRows})
	require.NoError(t, dec.Open(NewMemorySource(data)))
	_, _, _, loop := dec.Canvas()
	require.Equal(t, 0, loop)
}

func TestDecoder_MultiFrameAndReset(t *testing.T) {
	pal := greyPalette(2)
	data := buildGIF(1, 1, pal, -1, []gifFrame{
		{width: 1, height: 1, initCodeSize: 2, pixels: []byte{0}},
		{width: 1, height: 1, initCodeSize: 2, pixels: []byte{1}},
	})

	var values []byte
	dec := newTestDecoder(t, Config{
		DrawMode: RawRows,
		Sink: DrawSinkFunc(func(rec *DrawRecord) {
			values = append(values, rec.Row[0])
		}),
	})
	require.NoError(t, dec.Open(NewMemorySource(data)))

	for i := 0; i < 2; i++ {
		ok, err := dec.PlayFrame()
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := dec.PlayFrame()
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, []byte{0, 1}, values)

	values = nil
	require.NoError(t, dec.Reset())
	for i := 0; i < 2; i++ {
		ok, err := dec.PlayFrame()
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.Equal(t, []byte{0, 1}, values)
}

func TestDecoder_MaxFramesCap(t *testing.T) {
	pal := greyPalette(2)
	data := buildGIF(1, 1, pal, -1, []gifFrame{
		{width: 1, height: 1, initCodeSize: 2, pixels: []byte{0}},
		{width: 1, height: 1, initCodeSize: 2, pixels: []byte{1}},
	})
	dec := newTestDecoder(t, Config{DrawMode: RawRows, MaxFrames: 1})
	require.NoError(t, dec.Open(NewMemorySource(data)))

	ok, err := dec.PlayFrame()
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = dec.PlayFrame()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDecoder_BadSignature(t *testing.T) {
	dec := newTestDecoder(t, Config{DrawMode: RawRows})
	err := dec.Open(NewMemorySource([]byte("NOTAGIF...")))
	require.Error(t, err)
	gerr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, BadHeader, gerr.Kind)
}

func TestDecoder_TruncatedHeader(t *testing.T) {
	dec := newTestDecoder(t, Config{DrawMode: RawRows})
	err := dec.Open(NewMemorySource([]byte("GIF89a")))
	require.Error(t, err)
	require.Equal(t, ShortRead, err.(*Error).Kind)
}

func TestDecoder_CanvasWidthExceedsLineBuffer(t *testing.T) {
	pal := greyPalette(2)
	data := buildGIF(500, 1, pal, -1, []gifFrame{
		{width: 500, height: 1, initCodeSize: 2, pixels: make([]byte, 500)},
	})
	dec := newTestDecoder(t, Config{DrawMode: RawRows, MaxLineWidth: 64})
	err := dec.Open(NewMemorySource(data))
	require.Error(t, err)
	require.Equal(t, BadHeader, err.(*Error).Kind)
}

func TestDecoder_CompositedModeRequiresSinkOrBuffer(t *testing.T) {
	_, err := New(Config{DrawMode: Composited})
	require.Error(t, err)
	require.Equal(t, InvalidParameter, err.(*Error).Kind)
}

func TestDecoder_CodeSizeGrowthAcrossManyPixels(t *testing.T) {
	pal := greyPalette(8)
	width, height := 32, 32
	pixels := make([]byte, width*height)
	for i := range pixels {
		pixels[i] = byte(i % 7)
	}
	data := buildGIF(width, height, pal, -1, []gifFrame{
		{width: width, height: height, initCodeSize: 3, pixels: pixels},
	})

	var got []byte
	dec := newTestDecoder(t, Config{
		DrawMode: RawRows,
		Sink: DrawSinkFunc(func(rec *DrawRecord) {
			got = append(got, rec.Row...)
		}),
	})
	require.NoError(t, dec.Open(NewMemorySource(data)))
	ok, err := dec.PlayFrame()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pixels, got)
}
