//go:build windows

// Package mmap backs a decoder's ByteSource with a memory-mapped file
// instead of a slice copy: decoding reads directly off the mapped pages,
// which is the point on a memory-constrained host. This file provides the
// same MmapFile/Source surface as mmap_unix.go, built on
// golang.org/x/sys/windows's CreateFileMapping/MapViewOfFile instead of
// syscall.Mmap, since the Unix mmap syscalls this package otherwise uses
// don't exist on Windows.
package mmap

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// MmapFile represents a memory-mapped file region.
type MmapFile struct {
	Data         []byte // The memory-mapped byte slice
	File         *os.File
	FileSize     int
	MappedOffset int
	MappedLength int

	fileHandle windows.Handle
	mapHandle  windows.Handle
	addr       uintptr
}

func NewMmapFile(filePath string) (*MmapFile, error) {
	return NewMmapFileRegion(filePath, 0, 0)
}

// NewMmapFileRegion maps filePath (or a sub-region of it) into memory via
// CreateFileMapping + MapViewOfFile.
func NewMmapFileRegion(filePath string, offset int, length int) (*MmapFile, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", filePath, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to get file info for %q: %w", filePath, err)
	}
	fileSize := int(fi.Size())
	if fileSize == 0 {
		f.Close()
		return nil, fmt.Errorf("file %q is empty, cannot mmap", filePath)
	}
	if offset < 0 {
		f.Close()
		return nil, fmt.Errorf("offset cannot be negative: %d", offset)
	}
	if offset >= fileSize {
		f.Close()
		return nil, fmt.Errorf("offset %d is beyond file size %d", offset, fileSize)
	}

	actualLength := length
	if actualLength == 0 {
		actualLength = fileSize - offset
	}
	if offset+actualLength > fileSize {
		f.Close()
		return nil, fmt.Errorf("requested mapping (offset %d + length %d) extends beyond file size %d", offset, actualLength, fileSize)
	}

	fileHandle := windows.Handle(f.Fd())
	mapHandle, err := windows.CreateFileMapping(fileHandle, nil, windows.PAGE_READONLY, 0, 0, nil)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("CreateFileMapping failed for %q: %w", filePath, err)
	}

	hi := uint32(offset >> 32)
	lo := uint32(offset & 0xFFFFFFFF)
	addr, err := windows.MapViewOfFile(mapHandle, windows.FILE_MAP_READ, hi, lo, uintptr(actualLength))
	if err != nil {
		windows.CloseHandle(mapHandle)
		f.Close()
		return nil, fmt.Errorf("MapViewOfFile failed for %q: %w", filePath, err)
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), actualLength)

	return &MmapFile{
		Data:         data,
		File:         f,
		FileSize:     fileSize,
		MappedOffset: offset,
		MappedLength: actualLength,
		fileHandle:   fileHandle,
		mapHandle:    mapHandle,
		addr:         addr,
	}, nil
}

// Close unmaps the memory region and closes the underlying file and
// mapping handles.
func (mr *MmapFile) Close() error {
	var err error
	if mr.addr != 0 {
		if uErr := windows.UnmapViewOfFile(mr.addr); uErr != nil {
			err = fmt.Errorf("failed to unmap view: %w", uErr)
		}
		mr.addr = 0
		mr.Data = nil
	}
	if mr.mapHandle != 0 {
		windows.CloseHandle(mr.mapHandle)
		mr.mapHandle = 0
	}
	if mr.File != nil {
		if closeErr := mr.File.Close(); closeErr != nil {
			if err != nil {
				return fmt.Errorf("failed to unmap (%w) and close file (%v)", err, closeErr)
			}
			return fmt.Errorf("failed to close file: %w", closeErr)
		}
		mr.File = nil
	}
	return err
}

// Source adapts a MmapFile's mapped region to gif.ByteSource, reading
// directly off the mapped pages without any intermediate buffer copy.
type Source struct {
	mr  *MmapFile
	pos int64
}

func NewSource(filePath string) (*Source, error) {
	mr, err := NewMmapFile(filePath)
	if err != nil {
		return nil, err
	}
	return &Source{mr: mr}, nil
}

func (s *Source) Read(dst []byte) (int, error) {
	n := copy(dst, s.mr.Data[s.pos:])
	s.pos += int64(n)
	return n, nil
}

func (s *Source) Seek(pos int64) int64 {
	size := int64(len(s.mr.Data))
	switch {
	case size <= 0:
		pos = 0
	case pos < 0:
		pos = 0
	case pos >= size:
		pos = size - 1
	}
	s.pos = pos
	return s.pos
}

func (s *Source) Size() int64 { return int64(len(s.mr.Data)) }

func (s *Source) Pos() int64 { return s.pos }

// Close unmaps the backing file.
func (s *Source) Close() error { return s.mr.Close() }
