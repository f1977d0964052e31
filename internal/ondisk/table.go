// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package ondisk builds and reads serialized chained hash tables.  A table is
// a relocatable blob: chained bucket entries first, then a 4-byte-aligned
// bucket array of entry offsets.  Lookups run directly against the blob
// without decoding entries that don't match.
//
// Blob layout:
//
//	u32 zero                       sentinel pad so offset 0 is never a bucket
//	for each non-empty bucket:
//	    u16 entry count
//	    per entry: u32 hash, u16 keyLen, u16 dataLen, key bytes, data bytes
//	zero padding to 4-byte alignment
//	u32 bucket count (power of two)
//	u32 entry count
//	u32 offset per bucket (0 = empty)
//
// The offset of the bucket-count word is returned by Finish and stored by the
// caller next to the blob.
package ondisk

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/mlowell/apinotes/internal/wire"
)

const minBuckets = 64

var (
	ErrTableTruncated = errors.New("ondisk: table blob truncated")
	ErrTableCorrupt   = errors.New("ondisk: table structure corrupt")
)

// TableInfo supplies the hash/encode contract for one table's key and value
// types.  KeyLen and DataLen must agree byte-for-byte with what EncodeKey and
// EncodeData write; the builder verifies this and fails the build otherwise.
type TableInfo[K any, V any] interface {
	HashKey(key K) uint32
	KeyLen(key K) int
	DataLen(value V) int
	EncodeKey(e *wire.Encoder, key K)
	EncodeData(e *wire.Encoder, value V)
}

type entry[K any, V any] struct {
	key   K
	value V
	hash  uint32
}

// Builder accumulates key/value pairs and emits the serialized table.
type Builder[K any, V any] struct {
	info    TableInfo[K, V]
	entries []entry[K, V]
}

func NewBuilder[K any, V any](info TableInfo[K, V]) *Builder[K, V] {
	return &Builder[K, V]{info: info}
}

// Insert records a pair for emission.  The caller is responsible for key
// uniqueness; the builder does not deduplicate.
func (b *Builder[K, V]) Insert(key K, value V) {
	b.entries = append(b.entries, entry[K, V]{key: key, value: value, hash: b.info.HashKey(key)})
}

func (b *Builder[K, V]) Len() int {
	return len(b.entries)
}

func numBucketsFor(numEntries int) uint32 {
	n := uint32(minBuckets)
	for uint64(numEntries)*4 >= uint64(n)*3 {
		n *= 2
	}
	return n
}

// Finish serializes the table and returns the bucket-array offset along with
// the blob.  The offset is never 0 for a non-empty table: the blob starts
// with an unconditional 4-byte zero pad.
func (b *Builder[K, V]) Finish() (uint32, []byte, error) {
	numBuckets := numBucketsFor(len(b.entries))
	mask := numBuckets - 1

	buckets := make([][]int, numBuckets)
	for i := range b.entries {
		idx := b.entries[i].hash & mask
		buckets[idx] = append(buckets[idx], i)
	}

	e := wire.NewEncoder()
	e.Uint32(0)

	offsets := make([]uint32, numBuckets)
	for i, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		if len(bucket) > math.MaxUint16 {
			return 0, nil, fmt.Errorf("ondisk: bucket chain holds %d entries, limit is %d", len(bucket), math.MaxUint16)
		}
		offsets[i] = uint32(e.Len())
		e.Uint16(uint16(len(bucket)))
		for _, entryIdx := range bucket {
			ent := &b.entries[entryIdx]
			keyLen := b.info.KeyLen(ent.key)
			dataLen := b.info.DataLen(ent.value)
			// The entry header stores both lengths as u16; an oversized record
			// must fail the build, not wrap and corrupt the chain.
			if keyLen > math.MaxUint16 {
				return 0, nil, fmt.Errorf("ondisk: encoded key is %d bytes, limit is %d", keyLen, math.MaxUint16)
			}
			if dataLen > math.MaxUint16 {
				return 0, nil, fmt.Errorf("ondisk: encoded value is %d bytes, limit is %d", dataLen, math.MaxUint16)
			}
			e.Uint32(ent.hash)
			e.Uint16(uint16(keyLen))
			e.Uint16(uint16(dataLen))

			mark := e.Len()
			b.info.EncodeKey(e, ent.key)
			if got := e.Len() - mark; got != keyLen {
				return 0, nil, fmt.Errorf("ondisk: key serializer wrote %d bytes, size function said %d", got, keyLen)
			}
			mark = e.Len()
			b.info.EncodeData(e, ent.value)
			if got := e.Len() - mark; got != dataLen {
				return 0, nil, fmt.Errorf("ondisk: value serializer wrote %d bytes, size function said %d", got, dataLen)
			}
		}
	}

	if rem := e.Len() % 4; rem != 0 {
		e.Pad(4 - rem)
	}
	tableOffset := uint32(e.Len())
	e.Uint32(numBuckets)
	e.Uint32(uint32(len(b.entries)))
	for _, off := range offsets {
		e.Uint32(off)
	}

	return tableOffset, e.Bytes(), nil
}

// Table is a read-only view over a serialized table blob.
type Table struct {
	blob       []byte
	numBuckets uint32
	numEntries uint32
	buckets    []byte // numBuckets * 4 bytes of offsets
}

// NewTable validates the table structure inside blob.  It checks the header
// and the bucket array bounds up front; chain contents are bounds-checked on
// access.
func NewTable(blob []byte, tableOffset uint32) (*Table, error) {
	d := wire.NewDecoder(blob)
	if _, err := d.Bytes(int(tableOffset)); err != nil {
		return nil, ErrTableTruncated
	}
	numBuckets, err := d.Uint32()
	if err != nil {
		return nil, ErrTableTruncated
	}
	if numBuckets == 0 || numBuckets&(numBuckets-1) != 0 {
		return nil, ErrTableCorrupt
	}
	numEntries, err := d.Uint32()
	if err != nil {
		return nil, ErrTableTruncated
	}
	buckets, err := d.Bytes(int(numBuckets) * 4)
	if err != nil {
		return nil, ErrTableTruncated
	}
	return &Table{
		blob:       blob,
		numBuckets: numBuckets,
		numEntries: numEntries,
		buckets:    buckets,
	}, nil
}

// Len returns the number of entries stored in the table.
func (t *Table) Len() int {
	return int(t.numEntries)
}

func (t *Table) bucketOffset(idx uint32) uint32 {
	b := t.buckets[idx*4 : idx*4+4]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// Lookup finds the value bytes for an encoded key.  A missing key is a normal
// miss, not an error; errors indicate a corrupt chain.
func (t *Table) Lookup(hash uint32, encodedKey []byte) ([]byte, bool, error) {
	off := t.bucketOffset(hash & (t.numBuckets - 1))
	if off == 0 {
		return nil, false, nil
	}
	d := wire.NewDecoder(t.blob)
	if _, err := d.Bytes(int(off)); err != nil {
		return nil, false, ErrTableCorrupt
	}
	count, err := d.Uint16()
	if err != nil {
		return nil, false, ErrTableCorrupt
	}
	for i := 0; i < int(count); i++ {
		entryHash, err := d.Uint32()
		if err != nil {
			return nil, false, ErrTableCorrupt
		}
		keyLen, err := d.Uint16()
		if err != nil {
			return nil, false, ErrTableCorrupt
		}
		dataLen, err := d.Uint16()
		if err != nil {
			return nil, false, ErrTableCorrupt
		}
		key, err := d.Bytes(int(keyLen))
		if err != nil {
			return nil, false, ErrTableCorrupt
		}
		data, err := d.Bytes(int(dataLen))
		if err != nil {
			return nil, false, ErrTableCorrupt
		}
		if entryHash == hash && bytes.Equal(key, encodedKey) {
			return data, true, nil
		}
	}
	return nil, false, nil
}

// All walks every entry in bucket order, calling fn with the raw key and
// value bytes.  Enumeration order is an artifact of the bucket layout and
// carries no meaning.
func (t *Table) All(fn func(key, data []byte) error) error {
	for idx := uint32(0); idx < t.numBuckets; idx++ {
		off := t.bucketOffset(idx)
		if off == 0 {
			continue
		}
		d := wire.NewDecoder(t.blob)
		if _, err := d.Bytes(int(off)); err != nil {
			return ErrTableCorrupt
		}
		count, err := d.Uint16()
		if err != nil {
			return ErrTableCorrupt
		}
		for i := 0; i < int(count); i++ {
			if _, err := d.Uint32(); err != nil {
				return ErrTableCorrupt
			}
			keyLen, err := d.Uint16()
			if err != nil {
				return ErrTableCorrupt
			}
			dataLen, err := d.Uint16()
			if err != nil {
				return ErrTableCorrupt
			}
			key, err := d.Bytes(int(keyLen))
			if err != nil {
				return ErrTableCorrupt
			}
			data, err := d.Bytes(int(dataLen))
			if err != nil {
				return ErrTableCorrupt
			}
			if err := fn(key, data); err != nil {
				return err
			}
		}
	}
	return nil
}
