package gif

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"
)

// minimalGIF is the 35-byte "1x1 pixel" reference from §8 Scenario C.
var minimalGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00,
	0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF,
	0x2C, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00,
	0x02, 0x02, 0x44, 0x01, 0x00,
	0x3B,
}

// TestScenarioC_MinimalGIF decodes the documented 1x1 reference GIF and
// checks it produces exactly one frame, one row, one pixel of index 0.
func TestScenarioC_MinimalGIF(t *testing.T) {
	var rows [][]byte
	dec := newTestDecoder(t, Config{
		DrawMode: RawRows,
		Sink: DrawSinkFunc(func(rec *DrawRecord) {
			rows = append(rows, append([]byte(nil), rec.Row...))
		}),
	})
	require.NoError(t, dec.Open(NewMemorySource(minimalGIF)))

	ok, err := dec.PlayFrame()
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, rows, 1)
	require.Equal(t, []byte{0}, rows[0])

	ok, err = dec.PlayFrame()
	require.NoError(t, err)
	require.False(t, ok)
}

// TestScenarioF_DeferredClear drives the lzwDecoder directly, bypassing
// frame/window parsing, to exercise §4.5's deferred-clear tolerance: once
// codeSize reaches 12 and the dictionary is full, additional codes must
// keep decoding against the frozen dictionary until a clear code arrives.
func TestScenarioF_DeferredClear(t *testing.T) {
	var d lzwDecoder
	var placeholder lzwWindow
	d.begin(2, &placeholder) // cc=4, eoi=5; real window primed below once built

	// Force the "dictionary full at max code size" state a real stream
	// would eventually reach, without actually growing it there code by
	// code.
	d.codeSize = 12
	d.mask = (uint32(1) << 12) - 1
	d.nextCode = dictSize
	d.nextLimit = dictSize
	d.oldCode = 0 // pretend a code has already been emitted

	var w bitWriter
	const frozenRounds = 64
	for i := 0; i < frozenRounds; i++ {
		w.writeCode(uint32(i%int(d.cc)), d.codeSize)
	}
	w.writeCode(uint32(d.cc), d.codeSize) // clear, still at width 12
	// A couple of codes after the clear, at the reset code width (3).
	w.writeCode(1, d.initCodeSize+1)
	w.writeCode(uint32(d.eoi), d.initCodeSize+1)

	var win lzwWindow
	copy(win.buf[:], w.flush())
	win.size = len(w.flush())
	win.endOfFrame = true
	d.loadBits(&win)

	for i := 0; i < frozenRounds; i++ {
		pixels, ok, err := d.step(&win)
		require.Nil(t, err)
		require.True(t, ok)
		require.NotEmpty(t, pixels)
		// No further growth is permitted once the dictionary is full: the
		// code size stays frozen at 12 through deferred clear (§4.5 step
		// 5); nextCode keeps counting past dictSize per spec ("increment
		// nextCode regardless") but is never again used to index the
		// dictionary once it has reached the limit, so dict writes stay
		// bounded regardless of how far the counter itself travels.
		require.Equal(t, 12, d.codeSize)
		require.GreaterOrEqual(t, d.nextCode, uint16(dictSize))
	}

	// The clear code resets code size and the free-list pointer.
	pixels, ok, err := d.step(&win)
	require.Nil(t, err)
	require.True(t, ok)
	require.Nil(t, pixels)
	require.Equal(t, d.initCodeSize+1, d.codeSize)
	require.Equal(t, d.cc+2, d.nextCode)

	pixels, ok, err = d.step(&win)
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{1}, pixels)

	_, ok, err = d.step(&win)
	require.Nil(t, err)
	require.False(t, ok) // EOI
}

// TestDictionary_NeverExceedsBounds is §8 property 4: for any frame, the
// LZW decoder never writes past index 4095 and code sizes stay in [3,12].
func TestDictionary_NeverExceedsBounds(t *testing.T) {
	pal := greyPalette(8)
	width, height := 64, 64
	pixels := make([]byte, width*height)
	for i := range pixels {
		pixels[i] = byte((i * 7) % 7)
	}
	data := buildGIF(width, height, pal, -1, []gifFrame{
		{width: width, height: height, initCodeSize: 3, pixels: pixels},
	})

	dec := newTestDecoder(t, Config{DrawMode: RawRows})
	require.NoError(t, dec.Open(NewMemorySource(data)))

	ok, err := dec.PlayFrame()
	require.NoError(t, err)
	require.True(t, ok)
	require.GreaterOrEqual(t, dec.lzw.codeSize, 3)
	require.LessOrEqual(t, dec.lzw.codeSize, 12)
	require.LessOrEqual(t, int(dec.lzw.nextCode), dictSize)
}

// TestPaletteRoundTrip is §8 property 3: converting an RGB triplet to
// RGB565 and back via the documented masks reproduces the top 5/6/5 bits.
func TestPaletteRoundTrip(t *testing.T) {
	f := func(r, g, b byte) bool {
		v := rgb565(r, g, b)
		gotR := uint8(v>>11) & 0x1F
		gotG := uint8(v>>5) & 0x3F
		gotB := uint8(v) & 0x1F
		return gotR == r>>3 && gotG == g>>2 && gotB == b>>3
	}
	require.NoError(t, quick.Check(f, nil))
}

// TestRowCountInvariant is §8 property 2: the sink is invoked exactly
// frame.height times with y taking every value in [0,height) once.
func TestRowCountInvariant(t *testing.T) {
	pal := greyPalette(4)
	width, height := 5, 13
	pixels := make([]byte, width*height)
	for i := range pixels {
		pixels[i] = byte(i % 3)
	}
	data := buildGIF(width, height, pal, -1, []gifFrame{
		{width: width, height: height, interlace: true, initCodeSize: 2, pixels: pixels},
	})

	seen := map[int]int{}
	dec := newTestDecoder(t, Config{
		DrawMode: RawRows,
		Sink: DrawSinkFunc(func(rec *DrawRecord) {
			seen[rec.Y]++
		}),
	})
	require.NoError(t, dec.Open(NewMemorySource(data)))
	ok, err := dec.PlayFrame()
	require.NoError(t, err)
	require.True(t, ok)

	require.Len(t, seen, height)
	for y := 0; y < height; y++ {
		require.Equal(t, 1, seen[y], "row %d delivered %d times", y, seen[y])
	}
}

// FuzzDecoder is the native Go fuzzing entry point for §8 fuzz-hardening:
// for any byte sequence, Open followed by draining PlayFrame must never
// access memory outside the decoder's fixed buffers and must terminate in
// bounded time. A panic (including an out-of-range slice access) fails the
// fuzz run; MaxFrames bounds runtime for pathological inputs.
func FuzzDecoder(f *testing.F) {
	f.Add(minimalGIF)
	pal := greyPalette(4)
	ref := buildGIF(4, 4, pal, -1, []gifFrame{
		{width: 4, height: 4, initCodeSize: 2, pixels: make([]byte, 16)},
	})
	f.Add(ref)

	f.Fuzz(func(t *testing.T, data []byte) {
		dec, err := New(Config{
			DrawMode:  RawRows,
			Sink:      DrawSinkFunc(func(*DrawRecord) {}),
			MaxFrames: 32,
		})
		if err != nil {
			return
		}
		if dec.Open(NewMemorySource(data)) != nil {
			return
		}
		for {
			ok, err := dec.PlayFrame()
			if err != nil || !ok {
				return
			}
		}
	})
}

// TestFuzz_SingleByteInversion is §8 property 5: for each offset of a
// reference GIF, inverting that single byte and draining the decoder must
// never panic and must always terminate.
func TestFuzz_SingleByteInversion(t *testing.T) {
	pal := greyPalette(4)
	ref := buildGIF(8, 8, pal, -1, []gifFrame{
		{width: 8, height: 8, initCodeSize: 2, pixels: make([]byte, 64)},
	})

	limit := len(ref)
	if limit > 2000 {
		limit = 2000
	}
	for i := 0; i < limit; i++ {
		mutated := append([]byte(nil), ref...)
		mutated[i] = ^mutated[i]
		drainMutation(t, mutated)
	}
}

// TestFuzz_TwoByteMutation is §8 property 6: setting two random bytes of a
// reference GIF to random values, for 1000 iterations, must not crash.
func TestFuzz_TwoByteMutation(t *testing.T) {
	pal := greyPalette(4)
	ref := buildGIF(8, 8, pal, -1, []gifFrame{
		{width: 8, height: 8, initCodeSize: 2, pixels: make([]byte, 64)},
	})

	rnd := uint32(0x2545F491) // deterministic xorshift seed, no math/rand dependency
	next := func() uint32 {
		rnd ^= rnd << 13
		rnd ^= rnd >> 17
		rnd ^= rnd << 5
		return rnd
	}

	for iter := 0; iter < 1000; iter++ {
		mutated := append([]byte(nil), ref...)
		i := int(next()) % len(mutated)
		j := int(next()) % len(mutated)
		mutated[i] = byte(next())
		mutated[j] = byte(next())
		drainMutation(t, mutated)
	}
}

// drainMutation opens and fully drains a (possibly malformed) byte
// sequence against a fresh decoder instance, capped at 64 frames, and
// fails the test if decoding panics.
func drainMutation(t *testing.T, data []byte) {
	t.Helper()
	dec, err := New(Config{
		DrawMode:  RawRows,
		Sink:      DrawSinkFunc(func(*DrawRecord) {}),
		MaxFrames: 64,
	})
	if err != nil {
		return
	}
	if dec.Open(NewMemorySource(data)) != nil {
		return
	}
	for {
		ok, err := dec.PlayFrame()
		if err != nil || !ok {
			return
		}
	}
}
