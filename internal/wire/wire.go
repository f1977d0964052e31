// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package wire implements the fixed-width little-endian encoding shared by
// the container writer and reader.  Strings carry a 16-bit length prefix and
// are never null-terminated on disk.
package wire

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	ErrUnexpectedEOF = errors.New("wire: unexpected end of data")
	ErrStringTooLong = errors.New("wire: string exceeds 16-bit length prefix")
)

// Encoder appends little-endian values to a growable byte slice.
type Encoder struct {
	buf []byte
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Bytes returns the encoded contents.  The slice is owned by the encoder and
// is invalidated by further writes.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

func (e *Encoder) Uint8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *Encoder) Uint16(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

func (e *Encoder) Uint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *Encoder) Uint64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

func (e *Encoder) Raw(b []byte) {
	e.buf = append(e.buf, b...)
}

func (e *Encoder) RawString(s string) {
	e.buf = append(e.buf, s...)
}

// String16 writes a 16-bit length prefix followed by the raw bytes.
func (e *Encoder) String16(s string) {
	if len(s) > math.MaxUint16 {
		panic(ErrStringTooLong)
	}
	e.Uint16(uint16(len(s)))
	e.RawString(s)
}

// OptionalString16 distinguishes "absent" from "present but empty": absent
// writes a zero length, present writes len+1 followed by the bytes.
func (e *Encoder) OptionalString16(s *string) {
	if s == nil {
		e.Uint16(0)
		return
	}
	if len(*s)+1 > math.MaxUint16 {
		panic(ErrStringTooLong)
	}
	e.Uint16(uint16(len(*s) + 1))
	e.RawString(*s)
}

// Pad appends n zero bytes.
func (e *Encoder) Pad(n int) {
	for i := 0; i < n; i++ {
		e.buf = append(e.buf, 0)
	}
}

// Decoder reads little-endian values from a byte slice with bounds checks on
// every read.  Multi-byte values are little-endian.
type Decoder struct {
	data []byte
	off  int
}

func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.off
}

func (d *Decoder) Uint8() (uint8, error) {
	if d.off >= len(d.data) {
		return 0, ErrUnexpectedEOF
	}
	v := d.data[d.off]
	d.off++
	return v, nil
}

func (d *Decoder) Uint16() (uint16, error) {
	if d.off+2 > len(d.data) {
		return 0, ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint16(d.data[d.off:])
	d.off += 2
	return v, nil
}

func (d *Decoder) Uint32() (uint32, error) {
	if d.off+4 > len(d.data) {
		return 0, ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint32(d.data[d.off:])
	d.off += 4
	return v, nil
}

func (d *Decoder) Uint64() (uint64, error) {
	if d.off+8 > len(d.data) {
		return 0, ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint64(d.data[d.off:])
	d.off += 8
	return v, nil
}

// Bytes returns a reference to the next n bytes without copying.  The slice
// aliases the decoder's backing buffer.
func (d *Decoder) Bytes(n int) ([]byte, error) {
	if n < 0 || d.off+n > len(d.data) {
		return nil, ErrUnexpectedEOF
	}
	v := d.data[d.off : d.off+n]
	d.off += n
	return v, nil
}

// String16 reads a 16-bit length prefix followed by that many bytes.
func (d *Decoder) String16() (string, error) {
	n, err := d.Uint16()
	if err != nil {
		return "", err
	}
	b, err := d.Bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// OptionalString16 mirrors Encoder.OptionalString16.
func (d *Decoder) OptionalString16() (*string, error) {
	n, err := d.Uint16()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	b, err := d.Bytes(int(n) - 1)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}
