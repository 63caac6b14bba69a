// Package compositor implements the "optional full-canvas compositing"
// collaborator described alongside the core decoder: a DrawSink that turns
// per-row callbacks into a persistent width*height index-colour canvas,
// honoring disposal methods and transparency the way a display host would.
// The core decoder never does this itself; compositor is a sample external
// consumer, not part of the decode loop.
package compositor

import "github.com/pixelloop/angif/gif"

// Disposal methods, per the Graphic Control Extension.
const (
	DisposeNone       = 0
	DisposeKeep       = 1
	DisposeBackground = 2
	DisposeRestore    = 3
)

// Canvas accumulates decoded frames into a single persistent index-colour
// buffer, applying each frame's disposal method before the next frame's
// rows land on top of it.
type Canvas struct {
	width, height int
	pix           []uint8
	prevFrame     []uint8

	hasPending  bool
	curDisposal byte
	curX, curY  int
	curW, curH  int
	background  uint8

	rowsIn    int
	frameDone bool
}

// NewCanvas allocates a canvas sized to hold a full logical screen.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		width:  width,
		height: height,
		pix:    make([]uint8, width*height),
	}
}

// Pixels returns the current composited canvas, row-major, one byte per
// pixel (a palette index). The caller must not retain it across the next
// Draw call that starts a new frame.
func (c *Canvas) Pixels() []uint8 { return c.pix }

// Draw implements gif.DrawSink. Rows may arrive out of row-index order
// within a frame (interlace), so frame boundaries are tracked with a
// delivered-row counter rather than by comparing rec.Y, which is only
// meaningful relative to the frame and does not monotonically increase.
func (c *Canvas) Draw(rec *gif.DrawRecord) {
	if c.rowsIn == 0 || c.frameDone {
		c.beginFrame(rec)
	}

	rowOff := (rec.FrameY + rec.Y) * c.width
	for x, idx := range rec.Row {
		if rec.HasTransparency && idx == rec.TransparentIndex {
			continue
		}
		c.pix[rowOff+rec.FrameX+x] = idx
	}

	c.rowsIn++
	if c.rowsIn == rec.FrameHeight {
		c.frameDone = true
	}
}

func (c *Canvas) beginFrame(rec *gif.DrawRecord) {
	if c.hasPending {
		c.disposePrevious()
	}
	c.background = rec.Background
	c.curDisposal = rec.Disposal
	c.curX, c.curY = rec.FrameX, rec.FrameY
	c.curW, c.curH = rec.FrameWidth, rec.FrameHeight
	c.rowsIn = 0
	c.frameDone = false
	c.hasPending = true

	if c.curDisposal == DisposeRestore {
		c.saveRegion()
	}
}

func (c *Canvas) saveRegion() {
	if cap(c.prevFrame) < c.curW*c.curH {
		c.prevFrame = make([]uint8, c.curW*c.curH)
	} else {
		c.prevFrame = c.prevFrame[:c.curW*c.curH]
	}
	for row := 0; row < c.curH; row++ {
		src := (c.curY+row)*c.width + c.curX
		copy(c.prevFrame[row*c.curW:(row+1)*c.curW], c.pix[src:src+c.curW])
	}
}

// disposePrevious applies the disposal method recorded for the frame that
// was just displayed, before the next frame's rows are composited.
func (c *Canvas) disposePrevious() {
	switch c.curDisposal {
	case DisposeBackground:
		for row := 0; row < c.curH; row++ {
			dst := (c.curY+row)*c.width + c.curX
			for x := 0; x < c.curW; x++ {
				c.pix[dst+x] = c.background
			}
		}
	case DisposeRestore:
		for row := 0; row < c.curH; row++ {
			dst := (c.curY+row)*c.width + c.curX
			copy(c.pix[dst:dst+c.curW], c.prevFrame[row*c.curW:(row+1)*c.curW])
		}
	}
	c.prevFrame = nil
}
