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
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
)

// Stroke rasterises the outline of the path, stroked with Width, Cap,
// Join and MiterLimit. Coverage is delivered row-by-row via the emit
// callback; the slice argument is only valid for the duration of the
// call.
//
// The stroke outline is built as a set of polygons which are then filled
// together using the nonzero winding rule, so overlapping joins and
// self-overlapping paths composite correctly.
func (r *Rasterizer) Stroke(p *path.Data, emit func(y, xMin int, coverage []float32)) {
	half := r.Width / 2
	if half <= 0 {
		return
	}

	r.outline = r.outline[:0]
	r.outlineOffsets = r.outlineOffsets[:0]

	// Walk the path subpath by subpath, flattening curves into polylines.
	r.polyPts = r.polyPts[:0]
	r.polyClosed = false
	flush := func() {
		r.outlineSubpath(r.polyPts, r.polyClosed, half)
		r.polyPts = r.polyPts[:0]
		r.polyClosed = false
	}

	var current vec.Vec2
	coordIdx := 0
	for _, cmd := range p.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			flush()
			current = p.Coords[coordIdx]
			r.polyPts = append(r.polyPts, current)
			coordIdx++

		case path.CmdLineTo:
			current = p.Coords[coordIdx]
			r.polyPts = append(r.polyPts, current)
			coordIdx++

		case path.CmdCubeTo:
			r.flattenCubic(current, p.Coords[coordIdx], p.Coords[coordIdx+1], p.Coords[coordIdx+2],
				func(from, to vec.Vec2) {
					r.polyPts = append(r.polyPts, to)
				})
			current = p.Coords[coordIdx+2]
			coordIdx += 3

		case path.CmdClose:
			r.polyClosed = true
			flush()
		}
	}
	flush()

	if len(r.outlineOffsets) == 0 {
		return
	}

	// Fill all outline polygons together as a compound path.
	r.edges = r.edges[:0]
	r.bboxFirst = true
	for i, start := range r.outlineOffsets {
		end := len(r.outline)
		if i+1 < len(r.outlineOffsets) {
			end = r.outlineOffsets[i+1]
		}
		poly := r.outline[start:end]
		for j := range poly {
			r.addEdge(poly[j], poly[(j+1)%len(poly)])
		}
	}
	r.fillEdges(NonZero, emit)
}

// outlineSubpath appends the stroke outline polygons for one flattened
// subpath to r.outline. Degenerate subpaths (fewer than two distinct
// points) produce no output: with butt and square caps a zero-length
// stroke is invisible.
func (r *Rasterizer) outlineSubpath(pts []vec.Vec2, closed bool, half float64) {
	// Drop repeated points; they would produce zero-length segments
	// without a usable direction.
	compact := pts[:0:len(pts)]
	for _, pt := range pts {
		if len(compact) == 0 || pt.Sub(compact[len(compact)-1]).Length() > zeroLengthThreshold {
			compact = append(compact, pt)
		}
	}
	pts = compact
	if closed && len(pts) > 1 && pts[len(pts)-1].Sub(pts[0]).Length() <= zeroLengthThreshold {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 2 {
		return
	}
	if closed && len(pts) < 3 {
		closed = false
	}

	// Unit normals, one per segment. perp(T) points 90° CCW from the
	// direction of travel.
	n := len(pts)
	numSegs := n - 1
	if closed {
		numSegs = n
	}
	normals := make([]vec.Vec2, numSegs)
	for i := range numSegs {
		d := pts[(i+1)%n].Sub(pts[i])
		t := d.Mul(1 / d.Length())
		normals[i] = vec.Vec2{X: -t.Y, Y: t.X}
	}

	if closed {
		// Two concentric rings wound in opposite directions; filling both
		// with the nonzero rule leaves exactly the stroke band.
		start := len(r.outline)
		for i := range n {
			prev := (i + numSegs - 1) % numSegs
			r.appendJoin(pts[i], normals[prev], normals[i], half)
		}
		r.outlineOffsets = append(r.outlineOffsets, start)

		start = len(r.outline)
		for i := n - 1; i >= 0; i-- {
			cur := i % numSegs
			next := (i + 1) % numSegs
			r.appendJoin(pts[(i+1)%n], normals[next].Mul(-1), normals[cur].Mul(-1), half)
		}
		r.outlineOffsets = append(r.outlineOffsets, start)
		return
	}

	start := len(r.outline)
	first, last := pts[0], pts[n-1]
	firstT := vec.Vec2{X: normals[0].Y, Y: -normals[0].X}        // direction of travel, segment 0
	lastT := vec.Vec2{X: normals[n-2].Y, Y: -normals[n-2].X}     // direction of travel, last segment
	if r.Cap == CapSquare {
		first = first.Sub(firstT.Mul(half))
		last = last.Add(lastT.Mul(half))
	}

	// Left side, walking forward.
	r.outline = append(r.outline, first.Add(normals[0].Mul(half)))
	for i := 1; i < n-1; i++ {
		r.appendJoin(pts[i], normals[i-1], normals[i], half)
	}
	r.outline = append(r.outline, last.Add(normals[n-2].Mul(half)))

	// End cap, then the right side walking backward.
	r.outline = append(r.outline, last.Sub(normals[n-2].Mul(half)))
	for i := n - 2; i >= 1; i-- {
		r.appendJoin(pts[i], normals[i].Mul(-1), normals[i-1].Mul(-1), half)
	}
	r.outline = append(r.outline, first.Sub(normals[0].Mul(half)))

	r.outlineOffsets = append(r.outlineOffsets, start)
}

// appendJoin appends the outline vertices for the corner at vertex v,
// where the incoming segment has unit normal nIn and the outgoing segment
// unit normal nOut (both on the side being built). A miter point is
// inserted when the join style allows it and the miter stays within
// MiterLimit; otherwise the two offset points form a bevel.
func (r *Rasterizer) appendJoin(v, nIn, nOut vec.Vec2, half float64) {
	r.outline = append(r.outline, v.Add(nIn.Mul(half)))

	if r.Join == JoinMiter {
		m := nIn.Add(nOut)
		if l := m.Length(); l > zeroLengthThreshold {
			m = m.Mul(1 / l)
			cosHalf := m.X*nIn.X + m.Y*nIn.Y
			if cosHalf > 0 && 1/cosHalf <= r.MiterLimit {
				r.outline = append(r.outline, v.Add(m.Mul(half/cosHalf)))
			}
		}
	}

	r.outline = append(r.outline, v.Add(nOut.Mul(half)))
}
