// Unit tests for the line buffer pool
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package pool

import (
	"strings"
	"sync"
	"testing"
)

func TestLineBufferReuse(t *testing.T) {
	b := Lines.Get()
	b.WriteString("G1")
	b.WriteByte(' ')
	b.WriteString("F1500")
	if b.Len() != 8 || b.String() != "G1 F1500" {
		t.Fatalf("unexpected content %q", b.String())
	}
	Lines.Put(b)

	b2 := Lines.Get()
	defer Lines.Put(b2)
	if b2.Len() != 0 {
		t.Errorf("pooled buffer should come back empty, got %q", b2.String())
	}
}

func TestLineBufferStringIsCopy(t *testing.T) {
	b := Lines.Get()
	b.WriteString("M104 S215")
	s := b.String()
	Lines.Put(b)

	b = Lines.Get()
	b.WriteString("XXXXXXXXX")
	if s != "M104 S215" {
		t.Errorf("String aliased the buffer, got %q", s)
	}
	Lines.Put(b)
}

func TestOversizedLinesDropped(t *testing.T) {
	b := Lines.Get()
	b.WriteString(strings.Repeat(";", maxLineCap+1))
	Lines.Put(b)
	Lines.Put(nil)
}

func TestPoolStats(t *testing.T) {
	type item struct{ n int }
	p := New(func() *item { return &item{} }, func(*item) bool { return true })

	for i := 0; i < 3; i++ {
		p.Put(p.Get())
	}
	st := p.Stats()
	if st.Gets != 3 {
		t.Errorf("expected 3 gets, got %d", st.Gets)
	}
	if st.Misses < 1 || st.Misses > 3 {
		t.Errorf("misses out of range: %d", st.Misses)
	}
}

func TestResetHookRejects(t *testing.T) {
	kept := 0
	p := New(func() []int { return make([]int, 0, 4) }, func(v []int) bool {
		if len(v) > 2 {
			return false
		}
		kept++
		return true
	})
	p.Put([]int{1, 2, 3})
	p.Put([]int{1})
	if kept != 1 {
		t.Errorf("expected one value kept, got %d", kept)
	}
}

func TestLinesConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				b := Lines.Get()
				b.WriteString("G1 X10 Y10 E1")
				if b.String() != "G1 X10 Y10 E1" {
					t.Error("buffer shared between goroutines")
				}
				Lines.Put(b)
			}
		}()
	}
	wg.Wait()
}

func BenchmarkLines(b *testing.B) {
	for i := 0; i < b.N; i++ {
		buf := Lines.Get()
		buf.WriteString("G1 X120.5 Y88.25 E0.0421 F1800 ; perimeter")
		_ = buf.String()
		Lines.Put(buf)
	}
}

func BenchmarkStringsBuilder(b *testing.B) {
	for i := 0; i < b.N; i++ {
		var sb strings.Builder
		sb.WriteString("G1 X120.5 Y88.25 E0.0421 F1800 ; perimeter")
		_ = sb.String()
	}
}
