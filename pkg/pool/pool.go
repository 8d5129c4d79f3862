// Scratch-object pools for allocation-sensitive paths.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package pool

import "sync"

// Float64 slice pool, for short-lived vectors in geometry math.
// Only the common small sizes are pooled.
type float64SlicePool struct {
	pools [3]sync.Pool // sizes 3, 4, 6
}

var floatSlicePool = &float64SlicePool{}

func init() {
	sizes := []int{3, 4, 6}
	for i, size := range sizes {
		s := size
		floatSlicePool.pools[i].New = func() any {
			return make([]float64, s)
		}
	}
}

func poolIndex(size int) int {
	switch size {
	case 3:
		return 0
	case 4:
		return 1
	case 6:
		return 2
	default:
		return -1
	}
}

// GetFloat64Slice gets a zeroed float64 slice of the given size. Sizes
// without a pool are allocated fresh.
func GetFloat64Slice(size int) []float64 {
	idx := poolIndex(size)
	if idx >= 0 {
		s := floatSlicePool.pools[idx].Get().([]float64)
		for i := range s {
			s[i] = 0
		}
		return s
	}
	return make([]float64, size)
}

// PutFloat64Slice returns a float64 slice to its pool. Non-pooled
// sizes are discarded.
func PutFloat64Slice(s []float64) {
	if s == nil {
		return
	}
	if idx := poolIndex(len(s)); idx >= 0 {
		floatSlicePool.pools[idx].Put(s)
	}
}

// Status map pool, for diagnostic documents assembled per request.
var statusMapPool = sync.Pool{
	New: func() any {
		return make(map[string]any, 16)
	},
}

// GetStatusMap gets a status map from the pool.
func GetStatusMap() map[string]any {
	return statusMapPool.Get().(map[string]any)
}

// PutStatusMap returns a status map to the pool after clearing it.
func PutStatusMap(m map[string]any) {
	if m == nil {
		return
	}
	clear(m)
	statusMapPool.Put(m)
}

// ByteBuffer is a pooled append buffer for encoding scratch space.
type ByteBuffer struct {
	buf []byte
}

var byteBufferPool = sync.Pool{
	New: func() any {
		return &ByteBuffer{buf: make([]byte, 0, 64)}
	},
}

// GetByteBuffer gets an empty byte buffer from the pool.
func GetByteBuffer() *ByteBuffer {
	b := byteBufferPool.Get().(*ByteBuffer)
	b.buf = b.buf[:0]
	return b
}

// PutByteBuffer returns a byte buffer to the pool. Oversized buffers
// are discarded to bound pool memory.
func PutByteBuffer(b *ByteBuffer) {
	if b == nil || cap(b.buf) > 4096 {
		return
	}
	byteBufferPool.Put(b)
}

// Bytes returns the buffer's byte slice.
func (b *ByteBuffer) Bytes() []byte {
	return b.buf
}

// Write appends bytes to the buffer.
func (b *ByteBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteString appends a string.
func (b *ByteBuffer) WriteString(s string) (int, error) {
	b.buf = append(b.buf, s...)
	return len(s), nil
}

// Len returns the buffer length.
func (b *ByteBuffer) Len() int {
	return len(b.buf)
}

// Reset clears the buffer.
func (b *ByteBuffer) Reset() {
	b.buf = b.buf[:0]
}
