package gif

// DrawRecord carries everything a DrawSink needs to render one completed
// scan line, per §4.7/§6. The Row field aliases scratch memory owned by the
// Decoder: a sink must not retain it past the callback's return.
type DrawRecord struct {
	FrameX, FrameY          int
	FrameWidth, FrameHeight int
	Y                       int
	Row                     []byte
	Palette                 *[256]uint16
	HasTransparency         bool
	TransparentIndex        uint8
	Disposal                byte
	Background              uint8
}

// DrawSink receives one completed scan line at a time. Implementations
// must not reenter the Decoder that invoked them (§4.7). Transparency
// compositing is the sink's responsibility; the core only supplies the
// transparent index and flag.
type DrawSink interface {
	Draw(rec *DrawRecord)
}

// DrawSinkFunc adapts a plain function to DrawSink.
type DrawSinkFunc func(rec *DrawRecord)

func (f DrawSinkFunc) Draw(rec *DrawRecord) { f(rec) }

// emitRow fills out a DrawRecord for the row currently staged in
// d.line.row and invokes the configured sink, per §4.6/§4.7.
func (d *Decoder) emitRow(y int) *Error {
	if d.cfg.Sink == nil {
		return newError(InvalidParameter, "no draw sink configured")
	}
	rec := &d.drawRecord
	rec.FrameX, rec.FrameY = d.frame.x, d.frame.y
	rec.FrameWidth, rec.FrameHeight = d.frame.width, d.frame.height
	rec.Y = y
	rec.Row = d.line.row
	rec.Palette = d.activePalette()
	rec.HasTransparency = d.frame.hasTransparency
	rec.TransparentIndex = d.frame.transparentIdx
	rec.Disposal = d.frame.disposal
	rec.Background = d.canvas.background
	d.cfg.Sink.Draw(rec)
	return nil
}
