package mutate

import (
	"fmt"
	"sort"
	"strings"

	"gcode-toolpath/pkg/layers"
)

// block is a labelled run of lines to splice at a target.
type block struct {
	target int // layer number or 1-based line number
	seq    int // position among directives sharing a target
	name   string
	label  string
	body   []string
}

// lines renders the block with its open and close markers.
func (b block) lines() []string {
	out := make([]string, 0, len(b.body)+2)
	out = append(out, "; >>> "+b.label)
	out = append(out, b.body...)
	return append(out, "; <<< "+b.label)
}

// splitCode turns a code payload into lines, dropping one trailing newline.
func splitCode(code string) []string {
	code = strings.TrimSuffix(code, "\n")
	code = strings.TrimSuffix(code, "\r")
	return strings.Split(code, "\n")
}

func hasLayerDirectives(d Directives) bool {
	if len(d.Pauses) > 0 {
		return true
	}
	for _, inj := range d.Injections {
		if inj.Mode == InjectLayer {
			return true
		}
	}
	return false
}

func hasLineDirectives(d Directives) bool {
	for _, inj := range d.Injections {
		if inj.Mode == InjectLine {
			return true
		}
	}
	return false
}

// layerBlocks collects pauses then layer injections, each in caller order.
// Invalid entries are recorded as skips.
func layerBlocks(d Directives, res *Result) []block {
	var out []block
	for i, p := range d.Pauses {
		name := fmt.Sprintf("pauses[%d]", i)
		cmd := p.command()
		switch {
		case p.Layer < 1 || !pauseCommands[cmd]:
			res.skip(name, "invalid pause")
			continue
		case cmd == PauseCustom && strings.TrimSpace(p.CustomCode) == "":
			res.skip(name, "custom pause without code")
			continue
		}
		body := []string{string(cmd)}
		if cmd == PauseCustom {
			body = splitCode(p.CustomCode)
		}
		out = append(out, block{
			target: p.Layer,
			seq:    len(out),
			name:   name,
			label:  fmt.Sprintf("pause at layer %d (%s)", p.Layer, cmd),
			body:   body,
		})
	}
	for i, inj := range d.Injections {
		if inj.Mode != InjectLayer {
			continue
		}
		name := fmt.Sprintf("injections[%d]", i)
		if inj.Number < 1 || strings.TrimSpace(inj.Code) == "" {
			res.skip(name, "invalid injection")
			continue
		}
		out = append(out, block{
			target: inj.Number,
			seq:    len(out),
			name:   name,
			label:  fmt.Sprintf("inject at layer %d", inj.Number),
			body:   splitCode(inj.Code),
		})
	}
	return out
}

// sortDescending orders blocks by target, highest first. Blocks sharing a
// target are processed last-first, so after splicing they read in seq order.
func sortDescending(blocks []block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].target != blocks[j].target {
			return blocks[i].target > blocks[j].target
		}
		return blocks[i].seq > blocks[j].seq
	})
}

// splice inserts ins before lines[idx].
func splice(lines []string, idx int, ins []string) []string {
	out := make([]string, 0, len(lines)+len(ins))
	out = append(out, lines[:idx]...)
	out = append(out, ins...)
	return append(out, lines[idx:]...)
}

// layerStage splices pauses and layer injections before the first line of
// their layer. The layer map is built once, before any splice; processing
// targets from the highest layer down keeps every looked-up index valid.
func layerStage(d Directives) Stage {
	return Stage{
		Name: "layer-insert",
		Kind: KindSplice,
		Run: func(lines []string, res *Result) []string {
			blocks := layerBlocks(d, res)
			if len(blocks) == 0 {
				return lines
			}
			index := layers.Locate(lines)
			sortDescending(blocks)
			for _, b := range blocks {
				idx, ok := index.Lookup(b.target)
				if !ok {
					res.skip(b.name, fmt.Sprintf("layer %d not found", b.target))
					continue
				}
				lines = splice(lines, idx, b.lines())
				res.apply(1)
			}
			return lines
		},
	}
}

// lineStage splices line injections before their 1-based line number,
// counted on the array as the earlier stages left it.
func lineStage(d Directives) Stage {
	return Stage{
		Name: "line-insert",
		Kind: KindSplice,
		Run: func(lines []string, res *Result) []string {
			var blocks []block
			for i, inj := range d.Injections {
				if inj.Mode != InjectLine {
					continue
				}
				name := fmt.Sprintf("injections[%d]", i)
				if strings.TrimSpace(inj.Code) == "" {
					res.skip(name, "invalid injection")
					continue
				}
				blocks = append(blocks, block{
					target: inj.Number,
					seq:    len(blocks),
					name:   name,
					label:  fmt.Sprintf("inject at line %d", inj.Number),
					body:   splitCode(inj.Code),
				})
			}
			sortDescending(blocks)

			n := len(lines)
			for _, b := range blocks {
				idx := b.target - 1
				if idx < 0 || idx >= n {
					res.skip(b.name, fmt.Sprintf("line %d out of range", b.target))
					continue
				}
				lines = splice(lines, idx, b.lines())
				res.apply(1)
			}
			return lines
		},
	}
}
