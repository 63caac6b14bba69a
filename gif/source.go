package gif

// ByteSource abstracts memory- or callback-backed read/seek access over the
// input stream. Implementations must never return a negative byte count on
// success, and a read at EOF must return 0, not an error.
//
// CallbackSource re-checks a host's byte counts and positions against its
// size; the Decoder itself uses the count Read returns and treats a
// zero-byte read as the end of input. It does not call Size.
type ByteSource interface {
	// Read copies up to len(dst) bytes starting at the current position and
	// advances the position by the number of bytes copied. Partial reads are
	// only legal at EOF.
	Read(dst []byte) (int, error)
	// Seek repositions the cursor, clamped to [0, Size()-1] (or to 0 if the
	// source is empty), and returns the resulting position.
	Seek(pos int64) int64
	// Size reports the total size of the input in bytes.
	Size() int64
	// Pos reports the current read position.
	Pos() int64
}

// MemorySource is a ByteSource backed by an in-memory byte slice.
type MemorySource struct {
	data []byte
	pos  int64
}

// NewMemorySource wraps data for in-memory decoding. The slice is not
// copied; the caller must not mutate it while a Decoder is using it.
func NewMemorySource(data []byte) *MemorySource {
	return &MemorySource{data: data}
}

func (m *MemorySource) Read(dst []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, nil
	}
	n := copy(dst, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *MemorySource) Seek(pos int64) int64 {
	m.pos = clampPos(pos, int64(len(m.data)))
	return m.pos
}

func (m *MemorySource) Size() int64 { return int64(len(m.data)) }

func (m *MemorySource) Pos() int64 { return m.pos }

// ReadFunc mirrors the callback-source host contract: read(handle, dst,
// len) -> bytesRead, with 0 at EOF and partial reads otherwise permitted.
type ReadFunc func(handle any, dst []byte) (int, error)

// SeekFunc mirrors the callback-source host contract: seek(handle, pos) ->
// newPos.
type SeekFunc func(handle any, pos int64) int64

// CloseFunc mirrors the callback-source host contract: close(handle).
type CloseFunc func(handle any)

// CallbackSource adapts a pair of host-supplied read/seek functions plus an
// opaque handle into a ByteSource, per the §6 callback-source contract.
type CallbackSource struct {
	handle any
	size   int64
	pos    int64
	read   ReadFunc
	seek   SeekFunc
	close  CloseFunc
}

// NewCallbackSource builds a ByteSource from a host's open/read/seek/close
// quadruple. read and seek must not be nil; close may be nil if the host
// has nothing to release.
func NewCallbackSource(handle any, size int64, read ReadFunc, seek SeekFunc, close CloseFunc) (*CallbackSource, error) {
	if read == nil || seek == nil {
		return nil, newError(InvalidParameter, "callback source requires non-nil read and seek callbacks")
	}
	return &CallbackSource{
		handle: handle,
		size:   size,
		read:   read,
		seek:   seek,
		close:  close,
	}, nil
}

func (c *CallbackSource) Read(dst []byte) (int, error) {
	if c.pos >= c.size {
		return 0, nil
	}
	remaining := c.size - c.pos
	if int64(len(dst)) > remaining {
		dst = dst[:remaining]
	}
	n, err := c.read(c.handle, dst)
	if n < 0 {
		n = 0
	}
	if int64(n) > int64(len(dst)) {
		// The host lied about how much it wrote; never trust it.
		n = len(dst)
	}
	c.pos += int64(n)
	if c.pos > c.size {
		c.pos = c.size
	}
	return n, err
}

func (c *CallbackSource) Seek(pos int64) int64 {
	pos = clampPos(pos, c.size)
	c.pos = c.seek(c.handle, pos)
	c.pos = clampPos(c.pos, c.size)
	return c.pos
}

func (c *CallbackSource) Size() int64 { return c.size }

func (c *CallbackSource) Pos() int64 { return c.pos }

// Close releases the host-side handle, if the host supplied a close
// callback.
func (c *CallbackSource) Close() {
	if c.close != nil {
		c.close(c.handle)
	}
}

func clampPos(pos, size int64) int64 {
	if size <= 0 {
		return 0
	}
	if pos < 0 {
		return 0
	}
	if pos >= size {
		return size - 1
	}
	return pos
}
