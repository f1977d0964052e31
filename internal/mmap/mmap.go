// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build unix

// Package mmap maps compiled files read-only into memory.  Lookup access
// patterns are random, so mapped regions are advised accordingly.
package mmap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// File is a read-only memory-mapped file.
type File struct {
	data []byte
}

// Open maps the file at path.  Empty files map to an empty, closeable File.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap: open(%s): %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("mmap: stat(%s): %w", path, err)
	}
	size := st.Size()
	if size == 0 {
		return &File{}, nil
	}
	if size != int64(int(size)) {
		return nil, fmt.Errorf("mmap: %s too large (%d bytes)", path, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: mmap(%s): %w", path, err)
	}
	if err := unix.Madvise(data, unix.MADV_RANDOM); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("mmap: madvise: %w", err)
	}
	return &File{data: data}, nil
}

// Data returns the mapped bytes.  The slice is valid until Close.
func (f *File) Data() []byte {
	return f.data
}

// Close unmaps the file.  Safe to call more than once.
func (f *File) Close() error {
	if f.data == nil {
		return nil
	}
	data := f.data
	f.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("mmap: munmap: %w", err)
	}
	return nil
}
