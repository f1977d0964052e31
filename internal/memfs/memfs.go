// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package memfs collects tool output in memory before committing it under a
// real path.  A caller writes into a temporary buffer and either finalizes it
// under its output path or deletes it.  One mutex guards all state; every
// operation holds it for its full duration.
package memfs

import (
	"fmt"
	"sync"
)

// FS is an in-memory output filesystem.  The zero value is not usable; call
// New.
type FS struct {
	mu    sync.Mutex
	files map[string][]byte
	temps map[string]*[]byte
}

func New() *FS {
	return &FS{
		files: make(map[string][]byte),
		temps: make(map[string]*[]byte),
	}
}

// Buffer is an open temporary buffer.  It implements io.Writer.
type Buffer struct {
	data *[]byte
}

func (b *Buffer) Write(p []byte) (int, error) {
	*b.data = append(*b.data, p...)
	return len(p), nil
}

// CreateTemporaryBuffer allocates a fresh buffer for outputPath and returns
// it with the temporary name it was registered under.  Names are formed by
// suffixing a counter, so concurrent creators for the same path never
// collide.
func (fs *FS) CreateTemporaryBuffer(outputPath string) (*Buffer, string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	for suffix := 0; ; suffix++ {
		tempPath := fmt.Sprintf("%s-%d", outputPath, suffix)
		if _, exists := fs.temps[tempPath]; exists {
			continue
		}
		data := make([]byte, 0, 4096)
		fs.temps[tempPath] = &data
		return &Buffer{data: &data}, tempPath
	}
}

// DeleteTemporaryBuffer discards an open temporary buffer.
func (fs *FS) DeleteTemporaryBuffer(tempPath string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.temps[tempPath]; !ok {
		return fmt.Errorf("memfs: unknown temporary buffer %q", tempPath)
	}
	delete(fs.temps, tempPath)
	return nil
}

// FinalizeTemporaryBuffer commits the contents of tempPath under outputPath
// and releases the temporary entry.
func (fs *FS) FinalizeTemporaryBuffer(outputPath, tempPath string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, ok := fs.temps[tempPath]
	if !ok {
		return fmt.Errorf("memfs: unknown temporary buffer %q", tempPath)
	}
	committed := make([]byte, len(*data))
	copy(committed, *data)
	fs.files[outputPath] = committed
	delete(fs.temps, tempPath)
	return nil
}

// ReadFile returns the committed contents of path.
func (fs *FS) ReadFile(path string) ([]byte, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, ok := fs.files[path]
	return data, ok
}

// Paths returns the committed output paths.
func (fs *FS) Paths() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	paths := make([]string, 0, len(fs.files))
	for p := range fs.files {
		paths = append(paths, p)
	}
	return paths
}
