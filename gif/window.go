package gif

// maxChunkSize is the largest legal GIF data sub-block: a length byte in
// [0,255] followed by that many bytes.
const maxChunkSize = 255

// windowSize holds at least six chunks worth of de-chunked LZW bytes, per
// §3's LzwByteWindow invariant (>= 6*255 bytes).
const windowSize = 6 * maxChunkSize

// lzwWindow is the fixed ring-like buffer of de-chunked LZW bytes the
// SubBlockReader refill policy (§4.4) keeps topped up. It never grows: the
// buffer is a fixed array member of the Decoder.
type lzwWindow struct {
	buf        [windowSize]byte
	size       int // number of valid bytes in buf[0:size]
	offset     int // read cursor into buf
	endOfFrame bool
}

func (w *lzwWindow) reset() {
	w.size = 0
	w.offset = 0
	w.endOfFrame = false
}

func (w *lzwWindow) remaining() int {
	return w.size - w.offset
}

// needsRefill reports whether the window should be topped up, per §4.4:
// remaining unread bytes below maxChunkSize and the chain isn't finished.
func (w *lzwWindow) needsRefill() bool {
	return !w.endOfFrame && w.remaining() < maxChunkSize
}

// refill compacts the window to offset 0 and appends (length, length bytes)
// sub-blocks read directly from src until remaining capacity can no longer
// fit a full maximal sub-block or the chain terminator (a zero length byte)
// is seen, in which case endOfFrame is set. Any read failure other than a
// clean EOF aborts with ShortRead, since a sub-block chain must not run out
// of bytes mid-chain on a well-formed stream.
func (w *lzwWindow) refill(src ByteSource) *Error {
	if w.endOfFrame {
		return nil
	}
	if w.remaining() >= maxChunkSize {
		return nil
	}

	copied := copy(w.buf[:], w.buf[w.offset:w.size])
	w.size = copied
	w.offset = 0

	var lenByte [1]byte
	for w.size+maxChunkSize <= len(w.buf) {
		n, _ := src.Read(lenByte[:])
		if n == 0 {
			// Real EOF mid-chain: treat as an implicit end of frame so the
			// decoder can fail gracefully instead of spinning.
			w.endOfFrame = true
			return nil
		}
		length := int(lenByte[0])
		if length == 0 {
			w.endOfFrame = true
			return nil
		}
		n, _ = src.Read(w.buf[w.size : w.size+length])
		w.size += n
		if n < length {
			// Source ran dry before delivering the whole sub-block.
			w.endOfFrame = true
			return newError(ShortRead, "truncated data sub-block: wanted %d bytes, got %d", length, n)
		}
	}
	return nil
}
