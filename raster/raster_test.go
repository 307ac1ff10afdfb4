// seehuhn.de/go/annotate - interactive page annotation for PDF files
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package raster

import (
	"math"
	"testing"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// renderGray rasterises into a width×height coverage grid.
func renderGray(width, height int, draw func(r *Rasterizer, emit func(y, xMin int, coverage []float32))) []float32 {
	clip := rect.Rect{URx: float64(width), URy: float64(height)}
	r := NewRasterizer(clip)
	buf := make([]float32, width*height)
	draw(r, func(y, xMin int, coverage []float32) {
		copy(buf[y*width+xMin:], coverage)
	})
	return buf
}

// rectPath builds a rectangle path from the given origin and signed
// extents, the same way Surface.Rect does.
func rectPath(x, y, w, h float64) *path.Data {
	return &path.Data{
		Cmds: []path.Command{
			path.CmdMoveTo, path.CmdLineTo, path.CmdLineTo, path.CmdLineTo, path.CmdClose,
		},
		Coords: []vec.Vec2{
			{X: x, Y: y},
			{X: x + w, Y: y},
			{X: x + w, Y: y + h},
			{X: x, Y: y + h},
		},
	}
}

func TestFillRect(t *testing.T) {
	const size = 8
	buf := renderGray(size, size, func(r *Rasterizer, emit func(int, int, []float32)) {
		r.Fill(rectPath(2, 2, 4, 4), NonZero, emit)
	})

	for y := range size {
		for x := range size {
			inside := x >= 2 && x < 6 && y >= 2 && y < 6
			want := float32(0)
			if inside {
				want = 1
			}
			if got := buf[y*size+x]; got != want {
				t.Errorf("pixel (%d,%d): coverage %g, want %g", x, y, got, want)
			}
		}
	}
}

func TestFillNegativeExtents(t *testing.T) {
	// A rectangle given with negative extents covers the same pixels as
	// its normalised counterpart; the winding direction flips, which the
	// nonzero rule absorbs.
	const size = 8
	pos := renderGray(size, size, func(r *Rasterizer, emit func(int, int, []float32)) {
		r.Fill(rectPath(2, 2, 4, 4), NonZero, emit)
	})
	neg := renderGray(size, size, func(r *Rasterizer, emit func(int, int, []float32)) {
		r.Fill(rectPath(6, 6, -4, -4), NonZero, emit)
	})

	for i := range pos {
		if pos[i] != neg[i] {
			t.Fatalf("pixel %d: positive extents %g, negative extents %g",
				i, pos[i], neg[i])
		}
	}
}

func TestFillRing(t *testing.T) {
	// Outer rectangle and an inner rectangle wound the other way: the
	// nonzero rule must leave a hole.
	const size = 16
	p := rectPath(2, 2, 12, 12)
	inner := rectPath(11, 11, -6, -6) // opposite winding
	p.Cmds = append(p.Cmds, inner.Cmds...)
	p.Coords = append(p.Coords, inner.Coords...)

	buf := renderGray(size, size, func(r *Rasterizer, emit func(int, int, []float32)) {
		r.Fill(p, NonZero, emit)
	})

	if got := buf[8*size+8]; got != 0 {
		t.Errorf("hole pixel (8,8): coverage %g, want 0", got)
	}
	if got := buf[3*size+3]; got != 1 {
		t.Errorf("band pixel (3,3): coverage %g, want 1", got)
	}
	if got := buf[0]; got != 0 {
		t.Errorf("outside pixel (0,0): coverage %g, want 0", got)
	}
}

func TestFillEvenOdd(t *testing.T) {
	// Two overlapping rectangles with the same winding: even-odd leaves
	// the overlap empty, nonzero fills it.
	const size = 16
	p := rectPath(2, 2, 8, 8)
	second := rectPath(6, 6, 8, 8)
	p.Cmds = append(p.Cmds, second.Cmds...)
	p.Coords = append(p.Coords, second.Coords...)

	eo := renderGray(size, size, func(r *Rasterizer, emit func(int, int, []float32)) {
		r.Fill(p, EvenOdd, emit)
	})
	nz := renderGray(size, size, func(r *Rasterizer, emit func(int, int, []float32)) {
		r.Fill(p, NonZero, emit)
	})

	overlap := 8*size + 8 // inside both rectangles
	if got := eo[overlap]; got != 0 {
		t.Errorf("even-odd overlap coverage %g, want 0", got)
	}
	if got := nz[overlap]; got != 1 {
		t.Errorf("nonzero overlap coverage %g, want 1", got)
	}
}

func TestFillClip(t *testing.T) {
	// Geometry extending beyond the clip must not emit out-of-range
	// coordinates.
	const size = 8
	buf := renderGray(size, size, func(r *Rasterizer, emit func(y, xMin int, coverage []float32)) {
		r.Fill(rectPath(-10, -10, 14, 14), NonZero, func(y, xMin int, coverage []float32) {
			if y < 0 || y >= size || xMin < 0 || xMin+len(coverage) > size {
				t.Fatalf("emit outside clip: y=%d xMin=%d len=%d", y, xMin, len(coverage))
			}
			emit(y, xMin, coverage)
		})
	})

	if got := buf[0]; got != 1 {
		t.Errorf("pixel (0,0): coverage %g, want 1", got)
	}
	if got := buf[5*size+5]; got != 0 {
		t.Errorf("pixel (5,5): coverage %g, want 0", got)
	}
}

func TestStrokeRectBand(t *testing.T) {
	// Stroking the rectangle [4,12]² with width 2 covers the band
	// [3,5]∪[11,13] on each side.
	const size = 16
	buf := renderGray(size, size, func(r *Rasterizer, emit func(int, int, []float32)) {
		r.Width = 2
		r.Stroke(rectPath(4, 4, 8, 8), emit)
	})

	at := func(x, y int) float32 { return buf[y*size+x] }

	fullyCovered := []struct{ x, y int }{
		{3, 8}, {4, 8}, // left band
		{11, 8}, {12, 8}, // right band
		{8, 3}, {8, 4}, // top band
		{8, 11}, {8, 12}, // bottom band
		{3, 3}, {12, 12}, // corners
	}
	for _, p := range fullyCovered {
		if got := at(p.x, p.y); math.Abs(float64(got-1)) > 1e-6 {
			t.Errorf("band pixel (%d,%d): coverage %g, want 1", p.x, p.y, got)
		}
	}

	empty := []struct{ x, y int }{
		{8, 8}, {7, 7}, // interior
		{0, 0}, {15, 8}, // exterior
	}
	for _, p := range empty {
		if got := at(p.x, p.y); got != 0 {
			t.Errorf("pixel (%d,%d): coverage %g, want 0", p.x, p.y, got)
		}
	}
}

func TestStrokeOpenPath(t *testing.T) {
	// A horizontal line from (2,8) to (14,8) with width 4 covers rows 6-9.
	const size = 16
	p := &path.Data{
		Cmds:   []path.Command{path.CmdMoveTo, path.CmdLineTo},
		Coords: []vec.Vec2{{X: 2, Y: 8}, {X: 14, Y: 8}},
	}
	buf := renderGray(size, size, func(r *Rasterizer, emit func(int, int, []float32)) {
		r.Width = 4
		r.Stroke(p, emit)
	})

	for y := 6; y < 10; y++ {
		if got := buf[y*size+8]; got != 1 {
			t.Errorf("pixel (8,%d): coverage %g, want 1", y, got)
		}
	}
	if got := buf[4*size+8]; got != 0 {
		t.Errorf("pixel (8,4): coverage %g, want 0", got)
	}
	// butt cap: nothing before the start point
	if got := buf[8*size+1]; got != 0 {
		t.Errorf("pixel (1,8): coverage %g, want 0", got)
	}
}

func TestStrokeSquareCap(t *testing.T) {
	const size = 16
	p := &path.Data{
		Cmds:   []path.Command{path.CmdMoveTo, path.CmdLineTo},
		Coords: []vec.Vec2{{X: 4, Y: 8}, {X: 12, Y: 8}},
	}
	buf := renderGray(size, size, func(r *Rasterizer, emit func(int, int, []float32)) {
		r.Width = 4
		r.Cap = CapSquare
		r.Stroke(p, emit)
	})

	// square cap extends the stroke by half the width: [2,4] before the
	// start point is covered
	if got := buf[8*size+2]; got != 1 {
		t.Errorf("cap pixel (2,8): coverage %g, want 1", got)
	}
	if got := buf[8*size+1]; got != 0 {
		t.Errorf("pixel (1,8): coverage %g, want 0", got)
	}
}

func TestStrokeZeroWidth(t *testing.T) {
	const size = 8
	buf := renderGray(size, size, func(r *Rasterizer, emit func(int, int, []float32)) {
		r.Width = 0
		r.Stroke(rectPath(2, 2, 4, 4), emit)
	})
	for i, c := range buf {
		if c != 0 {
			t.Fatalf("pixel %d painted with zero line width", i)
		}
	}
}

func TestStrokeDegeneratePath(t *testing.T) {
	// A single point has no direction; with butt caps nothing is drawn,
	// and the rasterizer must not fault.
	const size = 8
	p := &path.Data{
		Cmds:   []path.Command{path.CmdMoveTo, path.CmdLineTo},
		Coords: []vec.Vec2{{X: 4, Y: 4}, {X: 4, Y: 4}},
	}
	buf := renderGray(size, size, func(r *Rasterizer, emit func(int, int, []float32)) {
		r.Width = 2
		r.Stroke(p, emit)
	})
	for i, c := range buf {
		if c != 0 {
			t.Fatalf("pixel %d painted for a degenerate path", i)
		}
	}
}
