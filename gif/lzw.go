package gif

import "encoding/binary"

const (
	// dictSize is the fixed LZW dictionary capacity: 12-bit codes, 4096
	// entries, never reallocated.
	dictSize = 4096

	// linkEnd marks a root code: its link chain terminates here.
	linkEnd uint16 = 0xFFFF
	// linkUnused marks a dictionary slot that has never been written since
	// the last clear.
	linkUnused uint16 = 0xFFFE

	// pixelStackSize is the scratch area used to unwind reversed-prefix
	// strings; must be at least dictSize so no legal string can overflow it.
	pixelStackSize = dictSize
)

// lzwDictionary holds the three parallel arrays of a GIF-variant LZW
// dictionary: link[c] is the prefix pointer for code c, first[c]/last[c]
// are the first and last pixel of the string code c represents.
type lzwDictionary struct {
	link  [dictSize]uint16
	first [dictSize]uint8
	last  [dictSize]uint8
}

// lzwDecoder carries the per-frame LZW state machine described in §4.5. It
// is a fixed member of Decoder; Open/Begin never allocate it.
type lzwDecoder struct {
	dict lzwDictionary

	cc            uint16 // clear code
	eoi           uint16 // end-of-information code
	initCodeSize  int
	codeSize      int
	mask          uint32
	nextCode      uint16
	nextLimit     uint16
	oldCode       uint16
	bits          uint32
	bitnum        int
	stack         [pixelStackSize]byte
	stackTop      int // index of the next free slot, counting down from pixelStackSize
}

// initRoots installs the root codes (one per possible pixel value below the
// clear code) and is run once per frame, before the first clear.
func (d *lzwDecoder) initRoots() {
	for c := uint16(0); c < d.cc; c++ {
		d.dict.first[c] = byte(c)
		d.dict.last[c] = byte(c)
		d.dict.link[c] = linkEnd
	}
}

// begin configures the decoder for a new frame with the given initial LZW
// code size (2..8, validated by the caller) and performs the first clear.
// Per §4.5 step 2, it also primes the 32-bit bit buffer from the start of
// w so the first nextCodeValue call reads the stream's real first code
// rather than whatever was left over from the previous frame.
func (d *lzwDecoder) begin(initCodeSize int, w *lzwWindow) {
	d.initCodeSize = initCodeSize
	d.cc = uint16(1 << uint(initCodeSize))
	d.eoi = d.cc + 1
	d.initRoots()
	d.clear()
	d.oldCode = linkEnd
	d.stackTop = pixelStackSize
	d.bitnum = 0
	d.loadBits(w)
}

// clear resets the code size and dictionary free-list, per §4.5 step 2/3.
func (d *lzwDecoder) clear() {
	d.codeSize = d.initCodeSize + 1
	d.mask = (uint32(1) << uint(d.codeSize)) - 1
	d.nextCode = d.cc + 2
	d.nextLimit = uint16(1) << uint(d.codeSize)
	for c := d.cc; c < dictSize; c++ {
		d.dict.link[c] = linkUnused
	}
}

// loadBits reloads the 32-bit little-endian bit buffer from window[offset:]
// (or fewer bytes, zero-padded, near the end of the window). A window that
// has already underrun (offset at or past size, e.g. a truncated stream
// with endOfFrame set before EOI arrived) zero-pads instead of slicing
// out of bounds.
func (d *lzwDecoder) loadBits(w *lzwWindow) {
	off := w.offset
	if off >= w.size {
		d.bits = 0
		return
	}
	var word [4]byte
	copy(word[:], w.buf[off:w.size])
	d.bits = binary.LittleEndian.Uint32(word[:])
}

// nextCodeValue pulls the next raw code off the bit stream, refilling the
// 32-bit window as needed. It never reads outside w.buf.
func (d *lzwDecoder) nextCodeValue(w *lzwWindow) uint16 {
	if d.bitnum > 32-d.codeSize {
		w.offset += d.bitnum >> 3
		d.bitnum &= 7
		d.loadBits(w)
	}
	code := uint16((d.bits >> uint(d.bitnum)) & d.mask)
	d.bitnum += d.codeSize
	return code
}

// push places pixel onto the pixel stack, growing downward from the top.
// Returns false on overflow, which the caller must treat as DecodeError.
func (d *lzwDecoder) push(pixel byte) bool {
	if d.stackTop == 0 {
		return false
	}
	d.stackTop--
	d.stack[d.stackTop] = pixel
	return true
}

// expand walks the link chain for code, pushing pixels onto the stack from
// last to first (the chain is reversed; callers consume the stack
// top-down to recover forward order). Returns the stack slice (top-down,
// i.e. first pixel of the string first) or an error.
func (d *lzwDecoder) expand(code uint16) ([]byte, *Error) {
	d.stackTop = pixelStackSize
	for {
		if code == linkUnused {
			return nil, newError(DecodeError, "lzw: code references an unused dictionary slot")
		}
		if !d.push(d.dict.last[code]) {
			return nil, newError(DecodeError, "lzw: pixel stack overflow")
		}
		link := d.dict.link[code]
		if link == linkEnd {
			break
		}
		code = link
	}
	return d.stack[d.stackTop:], nil
}

// step performs one iteration of the §4.5 main loop: read a code, install a
// dictionary entry if warranted, and return the pixel string it represents.
// ok is false once EOI has been consumed; err is non-nil on corruption.
func (d *lzwDecoder) step(w *lzwWindow) (pixels []byte, ok bool, err *Error) {
	code := d.nextCodeValue(w)

	if code == d.cc {
		d.clear()
		d.oldCode = linkEnd
		return nil, true, nil
	}
	if code == d.eoi {
		return nil, false, nil
	}

	if d.oldCode == linkEnd {
		// First code after a clear: stored as oldCode and emitted directly,
		// no dictionary entry installed yet (nothing to extend from).
		pixels, err = d.expand(code)
		if err != nil {
			return nil, false, err
		}
		d.oldCode = code
		return pixels, true, nil
	}

	if d.nextCode < d.nextLimit {
		nc := d.nextCode
		d.dict.link[nc] = d.oldCode
		d.dict.first[nc] = d.dict.first[d.oldCode]
		if d.dict.link[code] == linkUnused {
			// KwKwK case: the code being referenced is the slot we are
			// about to create; its last pixel is its own first pixel.
			d.dict.last[nc] = d.dict.first[d.oldCode]
		} else {
			d.dict.last[nc] = d.dict.first[code]
		}
	}
	d.nextCode++
	if d.nextCode >= d.nextLimit && d.codeSize < 12 {
		d.codeSize++
		d.nextLimit <<= 1
		d.mask = (d.mask << 1) | 1
	}

	pixels, err = d.expand(code)
	if err != nil {
		return nil, false, err
	}
	d.oldCode = code
	return pixels, true, nil
}
