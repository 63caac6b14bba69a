package gif

// defaultMaxLineWidth sizes the row buffer when Config.MaxLineWidth is not
// positive: 320 unless the caller asks for another width, per §3.
const defaultMaxLineWidth = 320

// interlacePass holds the four (start, stride) pairs that define GIF's
// interlaced row order, per the glossary.
type interlacePass struct {
	start, stride int
}

var interlacePasses = [4]interlacePass{
	{0, 8},
	{4, 8},
	{2, 4},
	{1, 2},
}

// lineAssembler stages LZW pixel output into one row at a time and invokes
// the DrawSink once a row is complete, per §4.6.
type lineAssembler struct {
	row    []byte // view into Decoder.rowBuf[:width]
	rowLen int

	yRemaining int
	curY       int
	passIdx    int
	stride     int
	interlace  bool
}

func (la *lineAssembler) begin(row []byte, height int, interlace bool) {
	la.row = row
	la.rowLen = 0
	la.yRemaining = height
	la.interlace = interlace
	if interlace {
		la.passIdx = 0
		la.curY = interlacePasses[0].start
		la.stride = interlacePasses[0].stride
	} else {
		la.curY = 0
		la.stride = 1
	}
}

func (la *lineAssembler) done() bool {
	return la.yRemaining == 0
}

// advanceRow moves past a just-completed row, computing the next row's y
// in post-deinterlace order per the glossary's interlace pass table.
func (la *lineAssembler) advanceRow(height int) {
	la.yRemaining--
	la.rowLen = 0
	if !la.interlace {
		la.curY++
		return
	}
	la.curY += la.stride
	for la.passIdx < 3 && la.curY >= height {
		la.passIdx++
		la.curY = interlacePasses[la.passIdx].start
		la.stride = interlacePasses[la.passIdx].stride
	}
}

// feedPixels appends pixels to the current row, calling emitRow for every
// completed row (passing the finished row's y) until all
// pixels are consumed or the frame's rows are exhausted. It requests a
// window refill via refill every 4 delivered rows, matching §4.6.
func (d *Decoder) feedPixels(pixels []byte) *Error {
	la := &d.line
	for len(pixels) > 0 && !la.done() {
		n := copy(la.row[la.rowLen:], pixels)
		la.rowLen += n
		pixels = pixels[n:]

		if la.rowLen == len(la.row) {
			if err := d.emitRow(la.curY); err != nil {
				return err
			}
			la.advanceRow(d.frame.height)
			if la.yRemaining%4 == 0 {
				if err := d.window.refill(d.source); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
