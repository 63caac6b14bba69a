//go:build linux
// +build linux

// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package fuse

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"github.com/pixelloop/angif/compositor"
	"github.com/pixelloop/angif/gif"
)

type FileEntry struct {
	Name   string
	Offset uint64
	Size   uint64
}

// FrameFS exposes the frames of a decoded GIF as read-only files, one
// frameNNN.ppm per frame plus a comment.txt when the
// stream carried one. Rendering happens once, at mount time, since the
// core decoder reads its source strictly forward and cannot re-seek into
// the middle of an arbitrary frame.
type FrameFS struct {
	r io.ReaderAt

	mtx     sync.RWMutex
	entries map[string]FileEntry

	mountpoint string
}

// BuildFrameFS decodes every frame of source, composites it into a PPM
// image, and returns a FrameFS ready to be served over FUSE.
func BuildFrameFS(source gif.ByteSource, mountpoint string) (*FrameFS, error) {
	canvas := compositor.NewCanvas(1, 1) // resized below once the header is known
	dec, err := gif.New(gif.Config{
		DrawMode: gif.Composited,
		Sink:     canvas,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to construct decoder: %w", err)
	}
	if err := dec.Open(source); err != nil {
		return nil, fmt.Errorf("failed to open GIF: %w", err)
	}
	cw, ch, _, _ := dec.Canvas()
	*canvas = *compositor.NewCanvas(cw, ch)

	var buf bytes.Buffer
	entries := map[string]FileEntry{}

	frameIdx := 0
	for {
		ok, err := dec.PlayFrame()
		if err != nil {
			return nil, fmt.Errorf("failed to decode frame %d: %w", frameIdx, err)
		}
		if !ok {
			break
		}

		name := fmt.Sprintf("frame%03d.ppm", frameIdx)
		offset := uint64(buf.Len())
		writePPM(&buf, cw, ch, canvas.Pixels())
		entries[name] = FileEntry{Name: name, Offset: offset, Size: uint64(buf.Len()) - offset}
		frameIdx++
	}

	if _, n, ok := dec.Comment(); ok {
		if text, err := dec.ReadComment(); err == nil {
			name := "comment.txt"
			offset := uint64(buf.Len())
			buf.Write(text)
			entries[name] = FileEntry{Name: name, Offset: offset, Size: uint64(n)}
		}
	}

	return &FrameFS{
		r:          bytes.NewReader(buf.Bytes()),
		entries:    entries,
		mountpoint: mountpoint,
	}, nil
}

// writePPM appends a binary PPM (P6) rendering of an index-colour canvas,
// mapping every index to a greyscale ramp — FrameFS has no access to the
// source palette once compositing has collapsed it to indices, so the
// palette-aware render belongs to a future compositor.Canvas extension.
func writePPM(w *bytes.Buffer, width, height int, pix []uint8) {
	fmt.Fprintf(w, "P6\n%d %d\n255\n", width, height)
	for _, idx := range pix {
		w.WriteByte(idx)
		w.WriteByte(idx)
		w.WriteByte(idx)
	}
}

func (fs *FrameFS) Root() (fs.Node, error) {
	return &Dir{
		fs: fs,
	}, nil
}

// Dir implements both fs.Node and fs.HandleReadDirAller
type Dir struct {
	fs *FrameFS
}

func (*Dir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = os.ModeDir | 0555
	return nil
}

func (d *Dir) Lookup(ctx context.Context, name string) (fs.Node, error) {
	if e, ok := d.fs.entries[name]; ok {
		return File{
			r:    io.NewSectionReader(d.fs.r, int64(e.Offset), int64(e.Size)),
			size: e.Size,
		}, nil
	}
	return nil, fuse.ENOENT
}

func (d Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	d.fs.mtx.RLock()
	defer d.fs.mtx.RUnlock()

	i := 0
	dirEntries := make([]fuse.Dirent, len(d.fs.entries))
	for _, e := range d.fs.entries {
		dirEntries[i] = fuse.Dirent{
			Inode: uint64(i),
			Name:  e.Name,
			Type:  fuse.DT_File,
		}
		i++
	}
	sort.Slice(dirEntries, func(i, j int) bool {
		return dirEntries[i].Name < dirEntries[j].Name
	})
	for i := range dirEntries {
		dirEntries[i].Inode = uint64(i)
	}
	return dirEntries, nil
}

// File implements both fs.Node and fs.HandleReader
type File struct {
	r    io.ReaderAt
	size uint64
}

func (f File) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = 0444
	a.Size = f.size
	a.Mtime = time.Now()
	return nil
}

func (f File) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	size := int(req.Size)
	offset := req.Offset

	if offset >= int64(f.size) {
		// Trying to read past EOF
		resp.Data = []byte{}
		return nil
	}

	// Clamp size if reading near EOF
	if offset+int64(size) > int64(f.size) {
		size = int(int64(f.size) - offset)
	}

	buf := make([]byte, size)

	n, err := f.r.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return err
	}

	resp.Data = buf[:n]
	return nil
}
