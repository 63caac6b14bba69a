package gif

// DrawMode selects how the Decoder expects its output consumed, per the
// §6 configuration options.
type DrawMode int

const (
	// RawRows delivers each scan line via Config.Sink as it completes.
	RawRows DrawMode = iota
	// Composited also delivers rows via Config.Sink; the core performs no
	// compositing itself and never writes Config.FrameBuffer, per §1/§2
	// ("Compositor: external, optional"). A Composited config with a
	// FrameBuffer but no Sink passes New, and PlayFrame then fails with
	// InvalidParameter at the first row.
	Composited
)

// Config configures a Decoder at construction time, per §6.
type Config struct {
	// Endian selects native or byte-swapped RGB565 palette storage.
	Endian Endian
	// DrawMode selects raw-row or composited delivery.
	DrawMode DrawMode
	// Sink receives each completed scan line. Required for RawRows.
	Sink DrawSink
	// FrameBuffer is a caller-supplied canvas buffer for Composited mode.
	// New requires FrameBuffer or Sink (or both) in Composited mode; the
	// Decoder only checks that it is set and delivers rows through Sink.
	FrameBuffer []byte
	// MaxLineWidth bounds the row buffer. Zero selects 320, per §3.
	MaxLineWidth int
	// MaxFrames, if positive, caps the number of frames PlayFrame will
	// decode before reporting "no more frames", bounding fuzz-harness
	// runtime per §7. Zero means unlimited (bounded only by the stream).
	MaxFrames int
}

func (c *Config) validate() *Error {
	switch c.DrawMode {
	case RawRows:
		if c.Sink == nil {
			return newError(InvalidParameter, "RawRows draw mode requires a Sink")
		}
	case Composited:
		if c.Sink == nil && c.FrameBuffer == nil {
			return newError(InvalidParameter, "Composited draw mode requires a Sink or a FrameBuffer")
		}
	default:
		return newError(InvalidParameter, "unknown draw mode %d", c.DrawMode)
	}
	return nil
}

// Decoder is a single-instance, single-threaded streaming GIF decoder. All
// of its buffers are fixed-size and allocated once, at New; nothing on the
// PlayFrame hot path allocates, per §5.
type Decoder struct {
	cfg    Config
	endian Endian

	source ByteSource

	tmp [768]byte // header/extension/palette scratch; must hold 3*256 bytes

	canvas    canvasDescriptor
	frame     frameDescriptor
	pendingGC graphicControl

	window lzwWindow
	lzw    lzwDecoder
	line   lineAssembler
	rowBuf []byte

	drawRecord DrawRecord

	hasComment    bool
	commentOffset int64
	commentLen    int

	framesPlayed int
	lastErr      *Error
	atTrailer    bool
}

// New constructs a Decoder with its fixed buffers sized per cfg. It does
// not touch any stream; call Open to attach one.
func New(cfg Config) (*Decoder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	width := cfg.MaxLineWidth
	if width <= 0 {
		width = defaultMaxLineWidth
	}
	return &Decoder{
		cfg:    cfg,
		endian: cfg.Endian,
		rowBuf: make([]byte, width),
	}, nil
}

// Open attaches source and parses the logical screen descriptor (the
// canvas header), per §4.2, then reads ahead through any extension blocks
// before the first image to pick up a NETSCAPE2.0 loop count, leaving the
// stream positioned just after the header. It must be called before the
// first PlayFrame.
func (d *Decoder) Open(source ByteSource) error {
	d.source = source
	d.framesPlayed = 0
	d.lastErr = nil
	d.atTrailer = false
	d.hasComment = false
	d.pendingGC = graphicControl{}

	if err := d.parseHeader(); err != nil {
		d.lastErr = err
		return err
	}

	// Look ahead through the extension blocks before the first image so a
	// NETSCAPE2.0 loop count is visible via Canvas once Open returns;
	// PlayFrame parses the same blocks again from the saved position.
	start := d.source.Pos()
	for {
		var b [1]byte
		if n, _ := d.source.Read(b[:]); n == 0 || b[0] != blockExtension {
			break
		}
		if d.parseExtension() != nil {
			break
		}
	}
	if d.source.Pos() != start {
		d.source.Seek(start)
	}
	d.pendingGC = graphicControl{}
	d.hasComment = false
	return nil
}

// Reset repositions the underlying stream to 0 and re-reads the header,
// per §3's lifecycle ("reset repositions the Stream to 0"). Reset and
// PlayFrame must never be interleaved from concurrent goroutines; the
// Decoder itself enforces no such exclusion (§5: single-threaded model).
func (d *Decoder) Reset() error {
	if d.source == nil {
		return newError(InvalidParameter, "Reset called before Open")
	}
	d.source.Seek(0)
	return d.Open(d.source)
}

// LastError returns the most recently recorded error, or nil if the last
// operation succeeded. After PlayFrame reports "no more frames" it holds an
// EndOfStream error, even though PlayFrame itself returned a nil error.
func (d *Decoder) LastError() *Error {
	return d.lastErr
}

// Canvas reports the logical screen descriptor parsed by Open.
func (d *Decoder) Canvas() (width, height int, background uint8, loopCount int) {
	return d.canvas.width, d.canvas.height, d.canvas.background, d.canvas.loopCount
}

// FrameInfo summarizes the frame most recently parsed by PlayFrame,
// without requiring the caller to decode any pixels.
type FrameInfo struct {
	X, Y          int
	Width, Height int
	Interlace     bool
	Disposal      byte
	DelayMS       int

	HasTransparency bool
	TransparentIdx  uint8
}

// FrameInfo reports the descriptor of the frame most recently returned by
// PlayFrame, per §6.
func (d *Decoder) FrameInfo() FrameInfo {
	f := &d.frame
	return FrameInfo{
		X: f.x, Y: f.y,
		Width: f.width, Height: f.height,
		Interlace:       f.interlace,
		Disposal:        f.disposal,
		DelayMS:         f.delayMS,
		HasTransparency: f.hasTransparency,
		TransparentIdx:  f.transparentIdx,
	}
}

// Comment reports the offset and length of the first comment sub-block
// found while parsing the frames played so far, and whether one was seen
// at all, per §6's comment accessor.
func (d *Decoder) Comment() (offset int64, length int, ok bool) {
	return d.commentOffset, d.commentLen, d.hasComment
}

// ReadComment seeks to, reads, and returns the first comment sub-block's
// bytes, restoring the stream position it had before the call.
func (d *Decoder) ReadComment() ([]byte, error) {
	if !d.hasComment {
		return nil, newError(InvalidParameter, "no comment sub-block recorded")
	}
	savedPos := d.source.Pos()
	d.source.Seek(d.commentOffset)
	buf := make([]byte, d.commentLen)
	if _, err := d.readFull(buf); err != nil {
		d.source.Seek(savedPos)
		return nil, err
	}
	d.source.Seek(savedPos)
	return buf, nil
}

// PlayFrame decodes and delivers the next frame, blocking until every row
// has reached the DrawSink or an error occurs, per §5. It returns
// (true, nil) when a frame was delivered, (false, nil) when the trailer or
// the caller's MaxFrames cap was reached ("no more frames"), and
// (false, err) on a parse or decode failure.
func (d *Decoder) PlayFrame() (bool, error) {
	if d.atTrailer {
		d.lastErr = newError(EndOfStream, "no more frames")
		return false, nil
	}
	if d.cfg.MaxFrames > 0 && d.framesPlayed >= d.cfg.MaxFrames {
		d.lastErr = newError(EndOfStream, "caller frame cap reached")
		return false, nil
	}

	hasFrame, perr := d.parseFrame()
	if perr != nil {
		d.lastErr = perr
		d.atTrailer = true
		return false, perr
	}
	if !hasFrame {
		d.atTrailer = true
		d.lastErr = newError(EndOfStream, "trailer reached")
		return false, nil
	}

	if err := d.decodeFrame(); err != nil {
		d.lastErr = err
		d.drainFrame()
		return false, err
	}

	d.framesPlayed++
	d.lastErr = nil
	return true, nil
}

// decodeFrame runs the LZW main loop (§4.5) and feeds every decoded pixel
// string to the LineAssembler (§4.6) until EOI or the image is complete.
func (d *Decoder) decodeFrame() *Error {
	d.lzw.begin(d.frame.initCodeSize, &d.window)
	d.line.begin(d.rowBuf[:d.frame.width], d.frame.height, d.frame.interlace)

	maxSteps := d.frame.width*d.frame.height + dictSize*4
	steps := 0

	for !d.line.done() {
		if d.window.needsRefill() {
			if err := d.window.refill(d.source); err != nil {
				return err
			}
		}
		pixels, ok, err := d.lzw.step(&d.window)
		if err != nil {
			return err
		}
		if !ok {
			break // EOI
		}
		if len(pixels) > 0 {
			if err := d.feedPixels(pixels); err != nil {
				return err
			}
		}
		steps++
		if steps > maxSteps {
			return newError(DecodeError, "exceeded maximum LZW steps (%d) for a %dx%d frame", maxSteps, d.frame.width, d.frame.height)
		}
	}

	if !d.line.done() {
		return newError(DecodeError, "end of information code reached before image was complete")
	}
	d.drainFrame()
	return nil
}

// drainFrame discards any sub-blocks remaining in the current image's LZW
// chain so the stream position lands exactly at the next block boundary,
// even if the frame ended early due to an error. Each iteration makes
// forward progress on the (finite) source, so this always terminates.
func (d *Decoder) drainFrame() {
	for !d.window.endOfFrame {
		d.window.offset = d.window.size
		if err := d.window.refill(d.source); err != nil {
			return
		}
	}
}
