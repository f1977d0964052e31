// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package container implements the framed block format: a fixed signature
// followed by a sequence of blocks, each a sequence of records.  Blocks and
// records carry explicit lengths so a reader can skip whole blocks it does
// not understand.
//
//	file   = signature, block*
//	block  = u8 blockID, u32 payloadLen, record*
//	record = u8 recordID, u32 len, bytes
package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/mlowell/apinotes/internal/wire"
)

// Signature identifies a compiled API notes file.
var Signature = [4]byte{0xE2, 0x9C, 0xA8, 0x01}

var (
	ErrInvalidSignature = errors.New("container: invalid signature")
	ErrTruncated        = errors.New("container: truncated block structure")
)

// Writer assembles a container in memory.  Blocks are emitted in call order.
type Writer struct {
	buf bytes.Buffer
}

func NewWriter() *Writer {
	w := &Writer{}
	w.buf.Write(Signature[:])
	return w
}

// Block buffers records for one block and flushes them with a single length
// prefix when closed.
type Block struct {
	enc *wire.Encoder
}

// Record appends one record to the block.
func (b *Block) Record(recordID uint8, payload []byte) {
	b.enc.Uint8(recordID)
	b.enc.Uint32(uint32(len(payload)))
	b.enc.Raw(payload)
}

// WriteBlock emits one block.  fn receives the open block and adds records to
// it; the block header is written once fn returns.
func (w *Writer) WriteBlock(blockID uint8, fn func(b *Block)) {
	blk := &Block{enc: wire.NewEncoder()}
	fn(blk)
	payload := blk.enc.Bytes()

	hdr := wire.NewEncoder()
	hdr.Uint8(blockID)
	hdr.Uint32(uint32(len(payload)))
	w.buf.Write(hdr.Bytes())
	w.buf.Write(payload)
}

// WriteTo flushes the assembled container to out.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	n, err := out.Write(w.buf.Bytes())
	if err != nil {
		return int64(n), fmt.Errorf("container: write: %w", err)
	}
	return int64(n), nil
}

// Bytes returns the assembled container.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// RawBlock is one parsed block.  Payload aliases the input buffer.
type RawBlock struct {
	ID      uint8
	Payload []byte
}

// RawRecord is one parsed record.  Data aliases the input buffer.
type RawRecord struct {
	ID   uint8
	Data []byte
}

// Parse validates the signature and splits the buffer into blocks.  Any
// structural damage fails the whole parse; no partial result is returned.
func Parse(data []byte) ([]RawBlock, error) {
	if len(data) < len(Signature) || !bytes.Equal(data[:len(Signature)], Signature[:]) {
		return nil, ErrInvalidSignature
	}
	d := wire.NewDecoder(data[len(Signature):])

	var blocks []RawBlock
	for d.Remaining() > 0 {
		id, err := d.Uint8()
		if err != nil {
			return nil, ErrTruncated
		}
		payloadLen, err := d.Uint32()
		if err != nil {
			return nil, ErrTruncated
		}
		payload, err := d.Bytes(int(payloadLen))
		if err != nil {
			return nil, ErrTruncated
		}
		blocks = append(blocks, RawBlock{ID: id, Payload: payload})
	}
	return blocks, nil
}

// Records splits a block payload into records.
func Records(payload []byte) ([]RawRecord, error) {
	d := wire.NewDecoder(payload)
	var records []RawRecord
	for d.Remaining() > 0 {
		id, err := d.Uint8()
		if err != nil {
			return nil, ErrTruncated
		}
		recLen, err := d.Uint32()
		if err != nil {
			return nil, ErrTruncated
		}
		rec, err := d.Bytes(int(recLen))
		if err != nil {
			return nil, ErrTruncated
		}
		records = append(records, RawRecord{ID: id, Data: rec})
	}
	return records, nil
}
