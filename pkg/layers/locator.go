// Package layers maps layer numbers to the line where each layer starts.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package layers

import (
	"regexp"
	"sort"
	"strconv"

	"gcode-toolpath/pkg/gcode"
)

// IndexMap maps a layer number to the zero-based index of its first line.
// Once a layer is mapped it is never overwritten.
type IndexMap map[int]int

// Lookup returns the starting line index of a layer.
func (m IndexMap) Lookup(layer int) (int, bool) {
	idx, ok := m[layer]
	return idx, ok
}

// Layers returns the mapped layer numbers in ascending order.
func (m IndexMap) Layers() []int {
	out := make([]int, 0, len(m))
	for l := range m {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

// record maps layer to idx unless the layer is already known.
func (m IndexMap) record(layer, idx int) {
	if _, ok := m[layer]; !ok {
		m[layer] = idx
	}
}

var reLayerMarker = regexp.MustCompile(`(?i);\s*layer[\s:#]*(\d+)`)

// Locate builds the layer map for lines. Explicit ";LAYER:n" style
// annotations are tried first on each line; the Z-increase fallback runs on
// every line regardless, with its own cursor and counter.
//
// The fallback counts any Z increase, including Z-hops, so on streams with
// mid-layer lifts its layer numbers run ahead of the real ones.
func Locate(lines []string) IndexMap {
	m := make(IndexMap)
	cursor := 0.0
	counter := 0

	for i, raw := range lines {
		if sm := reLayerMarker.FindStringSubmatch(raw); sm != nil {
			if n, err := strconv.Atoi(sm[1]); err == nil {
				m.record(n, i)
			}
		}

		ln := gcode.Tokenize(raw)
		if !ln.IsMotion() {
			continue
		}
		if z, ok := ln.Get('Z'); ok && z > cursor {
			cursor = z
			counter++
			m.record(counter, i)
		}
	}
	return m
}
