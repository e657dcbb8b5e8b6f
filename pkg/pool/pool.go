// Package pool recycles the scratch buffers used to rebuild G-code lines.
//
// Rewriting a sliced file rebuilds every motion line it touches, so the
// buffers are reused instead of allocated per line.
//
//	b := pool.Lines.Get()
//	defer pool.Lines.Put(b)
//	b.WriteString("G1 F")
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package pool

import (
	"sync"
	"sync/atomic"
)

// Pool is a typed sync.Pool that counts its traffic. reset prepares a
// value for reuse and reports whether it is worth keeping.
type Pool[T any] struct {
	p      sync.Pool
	reset  func(T) bool
	gets   atomic.Uint64
	misses atomic.Uint64
}

// New builds a pool from an allocator and a reset hook.
func New[T any](alloc func() T, reset func(T) bool) *Pool[T] {
	pl := &Pool[T]{reset: reset}
	pl.p.New = func() any {
		pl.misses.Add(1)
		return alloc()
	}
	return pl
}

// Get returns a ready-to-use value.
func (pl *Pool[T]) Get() T {
	pl.gets.Add(1)
	return pl.p.Get().(T)
}

// Put hands v back. Values the reset hook rejects are left to the GC.
func (pl *Pool[T]) Put(v T) {
	if pl.reset(v) {
		pl.p.Put(v)
	}
}

// Stats counts requests and how many needed a fresh allocation.
type Stats struct {
	Gets   uint64
	Misses uint64
}

// Stats returns the counters since the pool was created.
func (pl *Pool[T]) Stats() Stats {
	return Stats{Gets: pl.gets.Load(), Misses: pl.misses.Load()}
}

// maxLineCap keeps unusually long lines from pinning memory.
const maxLineCap = 4096

// LineBuffer is an append-only buffer for one output line.
type LineBuffer struct {
	buf []byte
}

// Lines holds line buffers sized for a long G1 with a comment.
var Lines = New(
	func() *LineBuffer { return &LineBuffer{buf: make([]byte, 0, 128)} },
	func(b *LineBuffer) bool {
		if b == nil || cap(b.buf) > maxLineCap {
			return false
		}
		b.buf = b.buf[:0]
		return true
	},
)

// WriteByte appends c.
func (b *LineBuffer) WriteByte(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

// WriteString appends s.
func (b *LineBuffer) WriteString(s string) (int, error) {
	b.buf = append(b.buf, s...)
	return len(s), nil
}

// Len is the number of bytes written.
func (b *LineBuffer) Len() int { return len(b.buf) }

// String returns a copy of the contents.
func (b *LineBuffer) String() string { return string(b.buf) }
