// Copyright 2026 The apinotes Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package ondisk

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/dgryski/go-farm"
	"github.com/stretchr/testify/require"

	"github.com/mlowell/apinotes/internal/wire"
)

type stringTableInfo struct {
	hash func(key string) uint32
}

func (i stringTableInfo) HashKey(key string) uint32 {
	if i.hash != nil {
		return i.hash(key)
	}
	return farm.Hash32([]byte(key))
}
func (i stringTableInfo) KeyLen(key string) int    { return len(key) }
func (i stringTableInfo) DataLen(value string) int { return len(value) }
func (i stringTableInfo) EncodeKey(e *wire.Encoder, key string) {
	e.RawString(key)
}
func (i stringTableInfo) EncodeData(e *wire.Encoder, value string) {
	e.RawString(value)
}

func buildTable(t *testing.T, info TableInfo[string, string], entries map[string]string) *Table {
	t.Helper()
	b := NewBuilder(info)
	for k, v := range entries {
		b.Insert(k, v)
	}
	tableOffset, blob, err := b.Finish()
	require.NoError(t, err)
	require.NotZero(t, tableOffset)
	table, err := NewTable(blob, tableOffset)
	require.NoError(t, err)
	return table
}

func TestTableRoundTrip(t *testing.T) {
	info := stringTableInfo{}
	entries := make(map[string]string)
	for i := 0; i < 500; i++ {
		entries[fmt.Sprintf("key-%d", i)] = fmt.Sprintf("value-%d", i)
	}
	table := buildTable(t, info, entries)
	require.Equal(t, len(entries), table.Len())

	for k, v := range entries {
		data, found, err := table.Lookup(info.HashKey(k), []byte(k))
		require.NoError(t, err)
		require.True(t, found, "key %q", k)
		require.Equal(t, v, string(data))
	}

	_, found, err := table.Lookup(info.HashKey("absent"), []byte("absent"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestTableCollisions(t *testing.T) {
	// Every key hashes to the same bucket chain.
	info := stringTableInfo{hash: func(string) uint32 { return 7 }}
	entries := map[string]string{"a": "1", "b": "2", "c": "3"}
	table := buildTable(t, info, entries)

	for k, v := range entries {
		data, found, err := table.Lookup(7, []byte(k))
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, v, string(data))
	}
	_, found, err := table.Lookup(7, []byte("d"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestTableOffsetNeverZero(t *testing.T) {
	b := NewBuilder[string, string](stringTableInfo{})
	b.Insert("k", "v")
	tableOffset, blob, err := b.Finish()
	require.NoError(t, err)
	require.NotZero(t, tableOffset)
	// The sentinel pad guarantees no bucket chain starts at offset 0.
	require.Equal(t, []byte{0, 0, 0, 0}, blob[:4])
	require.Zero(t, tableOffset%4)
}

func TestBucketGrowth(t *testing.T) {
	require.Equal(t, uint32(64), numBucketsFor(0))
	require.Equal(t, uint32(64), numBucketsFor(47))
	require.Equal(t, uint32(128), numBucketsFor(48))
	require.Equal(t, uint32(256), numBucketsFor(96))
}

func TestTableAll(t *testing.T) {
	info := stringTableInfo{}
	entries := map[string]string{"a": "1", "b": "2", "c": "3"}
	table := buildTable(t, info, entries)

	got := make(map[string]string)
	err := table.All(func(key, data []byte) error {
		got[string(key)] = string(data)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, entries, got)
}

type lyingTableInfo struct {
	stringTableInfo
}

func (lyingTableInfo) DataLen(value string) int { return len(value) + 1 }

func TestOversizedValueFails(t *testing.T) {
	b := NewBuilder[string, string](stringTableInfo{})
	b.Insert("k", strings.Repeat("v", math.MaxUint16+1))
	_, _, err := b.Finish()
	require.Error(t, err)
}

func TestOversizedKeyFails(t *testing.T) {
	b := NewBuilder[string, string](stringTableInfo{})
	b.Insert(strings.Repeat("k", math.MaxUint16+1), "v")
	_, _, err := b.Finish()
	require.Error(t, err)
}

func TestEntryAtHeaderLimitRoundTrips(t *testing.T) {
	info := stringTableInfo{}
	key := strings.Repeat("k", math.MaxUint16)
	value := strings.Repeat("v", math.MaxUint16)
	table := buildTable(t, info, map[string]string{key: value})

	data, found, err := table.Lookup(info.HashKey(key), []byte(key))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, value, string(data))
}

func TestSizeEncodeMismatchFails(t *testing.T) {
	b := NewBuilder[string, string](lyingTableInfo{})
	b.Insert("k", "v")
	_, _, err := b.Finish()
	require.Error(t, err)
}

func TestNewTableRejectsBadHeader(t *testing.T) {
	_, err := NewTable([]byte{0, 0}, 0)
	require.ErrorIs(t, err, ErrTableTruncated)

	e := wire.NewEncoder()
	e.Uint32(0)
	e.Uint32(3) // not a power of two
	e.Uint32(0)
	_, err = NewTable(e.Bytes(), 4)
	require.ErrorIs(t, err, ErrTableCorrupt)

	e = wire.NewEncoder()
	e.Uint32(0)
	e.Uint32(64)
	e.Uint32(0)
	// Bucket array missing entirely.
	_, err = NewTable(e.Bytes(), 4)
	require.ErrorIs(t, err, ErrTableTruncated)
}
