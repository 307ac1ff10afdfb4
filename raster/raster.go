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

// Package raster provides an in-memory drawing surface backed by a
// scanline rasterizer. Paths are built from lines and cubic Béziers in
// device coordinates; fills and strokes are delivered as anti-aliased
// coverage values and composited onto an RGBA image.
package raster

import (
	"math"
	"slices"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// FillRule specifies the rule for determining interior points.
type FillRule int

const (
	NonZero FillRule = iota
	EvenOdd
)

// edge represents a line segment in device coordinates.
type edge struct {
	x0, y0 float64 // start point
	x1, y1 float64 // end point
	dxdy   float64 // (x1-x0)/(y1-y0), precomputed for x-intercept calculation
}

// Rasterizer converts device-space paths to pixel coverage values, the
// fraction of each pixel's area covered by the filled or stroked path.
// Create one instance and reuse it; internal buffers grow as needed but
// never shrink.
//
// A Rasterizer is not safe for concurrent use.
type Rasterizer struct {
	// Clip bounds output to this device-coordinate rectangle.
	// Coordinates must be integer-aligned.
	Clip rect.Rect

	// Flatness controls curve approximation accuracy in device pixels.
	// Typical values: 0.25–1.0. Must be positive.
	Flatness float64

	// Width sets stroke thickness in device pixels.
	// Must be positive for stroke operations.
	Width float64

	// Cap sets the style for stroke endpoints.
	Cap CapStyle

	// Join sets the style for stroke corners.
	Join JoinStyle

	// MiterLimit caps miter join length. Must be at least 1.0.
	MiterLimit float64

	// Internal buffers (reused across calls)
	cover       []float32 // coverage accumulation: cover change per pixel; reused as output
	area        []float32 // coverage accumulation: area within pixel
	edges       []edge    // edge list for current path (device coordinates)
	rowHasEdges []bool    // per-scanline flag: true if any edge contributes

	// Stroke outline buffers
	outline        []vec.Vec2 // stroke outline vertices (all polygons contiguous)
	outlineOffsets []int      // start index of each polygon in outline[]
	polyPts        []vec.Vec2 // flattened subpath vertices
	polyClosed     bool

	// Edge collection state (used by addEdge)
	bboxFirst bool    // true if no edges added yet
	devXMin   float64 // edge bounding box in device space
	devXMax   float64
	devYMin   float64
	devYMax   float64
}

// NewRasterizer returns a Rasterizer with the given clip rectangle and
// defaults matching the annotation overlay: flatness 0.25, width 1,
// butt caps, miter joins with limit 10.
func NewRasterizer(clip rect.Rect) *Rasterizer {
	return &Rasterizer{
		Clip:       clip,
		Flatness:   defaultFlatness,
		Width:      1.0,
		Cap:        CapButt,
		Join:       JoinMiter,
		MiterLimit: defaultMiterLimit,
	}
}

// CapStyle selects the shape of stroke endpoints.
type CapStyle int

const (
	CapButt   CapStyle = iota // stroke ends exactly at the endpoint
	CapSquare                 // stroke extends by half the line width
)

// JoinStyle selects the shape of stroke corners.
type JoinStyle int

const (
	JoinMiter JoinStyle = iota // sharp corner, limited by MiterLimit
	JoinBevel                  // corner cut off by a straight edge
)

// Fill rasterises the path interior using the given fill rule. Coverage
// is delivered row-by-row via the emit callback; the slice argument is
// only valid for the duration of the call.
func (r *Rasterizer) Fill(p *path.Data, rule FillRule, emit func(y, xMin int, coverage []float32)) {
	r.collectEdges(p)
	r.fillEdges(rule, emit)
}

// collectEdges walks the path and builds the edge list, flattening cubic
// segments. Quadratic segments do not occur in PDF content streams and
// are not supported.
func (r *Rasterizer) collectEdges(p *path.Data) {
	r.edges = r.edges[:0]
	r.bboxFirst = true

	var current vec.Vec2 // current point
	var subpath vec.Vec2 // subpath start

	coordIdx := 0
	for _, cmd := range p.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			current = p.Coords[coordIdx]
			subpath = current
			coordIdx++

		case path.CmdLineTo:
			r.addEdge(current, p.Coords[coordIdx])
			current = p.Coords[coordIdx]
			coordIdx++

		case path.CmdCubeTo:
			r.flattenCubic(current, p.Coords[coordIdx], p.Coords[coordIdx+1], p.Coords[coordIdx+2], r.addEdge)
			current = p.Coords[coordIdx+2]
			coordIdx += 3

		case path.CmdClose:
			if current != subpath {
				r.addEdge(current, subpath)
			}
			current = subpath
		}
	}
}

// flattenCubic flattens a cubic Bézier and calls emit for each line
// segment. p0 is the start point, p1/p2 are controls, p3 is the endpoint.
// The segment count follows Wang's formula for the tolerance in Flatness.
func (r *Rasterizer) flattenCubic(p0, p1, p2, p3 vec.Vec2, emit func(from, to vec.Vec2)) {
	d1 := p0.Sub(p1.Mul(2)).Add(p2) // P0 - 2*P1 + P2
	d2 := p1.Sub(p2.Mul(2)).Add(p3) // P1 - 2*P2 + P3

	m := max(d1.Length(), d2.Length())
	n := 1
	if m > 0 {
		nFloat := math.Sqrt(3 * m / (4 * r.Flatness))
		if nFloat > 1 {
			n = int(math.Ceil(nFloat))
		}
	}

	prev := p0
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		omt := 1 - t
		omt2 := omt * omt
		omt3 := omt2 * omt
		t2 := t * t
		t3 := t2 * t
		pt := p0.Mul(omt3).Add(p1.Mul(3 * omt2 * t)).Add(p2.Mul(3 * omt * t2)).Add(p3.Mul(t3))
		emit(prev, pt)
		prev = pt
	}
}

// addEdge adds an edge in device coordinates, skipping horizontal edges
// (they contribute no coverage).
func (r *Rasterizer) addEdge(p0, p1 vec.Vec2) {
	dy := p1.Y - p0.Y
	if dy > -horizontalEdgeThreshold && dy < horizontalEdgeThreshold {
		return
	}

	r.edges = append(r.edges, edge{
		x0: p0.X, y0: p0.Y,
		x1: p1.X, y1: p1.Y,
		dxdy: (p1.X - p0.X) / dy,
	})

	if r.bboxFirst {
		r.devXMin = min(p0.X, p1.X)
		r.devXMax = max(p0.X, p1.X)
		r.devYMin = min(p0.Y, p1.Y)
		r.devYMax = max(p0.Y, p1.Y)
		r.bboxFirst = false
	} else {
		r.devXMin = min(r.devXMin, min(p0.X, p1.X))
		r.devXMax = max(r.devXMax, max(p0.X, p1.X))
		r.devYMin = min(r.devYMin, min(p0.Y, p1.Y))
		r.devYMax = max(r.devYMax, max(p0.Y, p1.Y))
	}
}

// Coverage accumulation model:
//
// For each pixel, two values are tracked:
//   cover: signed vertical extent of edges crossing this pixel column
//   area:  horizontal position weighting (how far right the crossing is)
//
// An edge crossing a pixel contributes
//   cover = sign * dy
//   area  = cover * (1 - xFrac)
// where sign is +1 for downward edges and xFrac the horizontal position
// within the pixel. Integration then computes, per scanline,
//   pixel_coverage = accumulated_cover + area[i]
//   accumulated_cover += cover[i]
// which is the signed area of the path within each pixel and yields
// anti-aliased coverage once clamped (nonzero) or folded (even-odd).

// fillEdges rasterises the collected edge list into per-scanline coverage
// and emits the non-zero portions.
func (r *Rasterizer) fillEdges(rule FillRule, emit func(y, xMin int, coverage []float32)) {
	if len(r.edges) == 0 {
		return
	}

	// Clamp the edge bounding box to the clip and convert to integers.
	xMin := max(int(math.Floor(r.devXMin)), int(r.Clip.LLx))
	xMax := min(int(math.Floor(r.devXMax))+1, int(r.Clip.URx))
	yMin := max(int(math.Floor(r.devYMin)), int(r.Clip.LLy))
	yMax := min(int(math.Floor(r.devYMax))+1, int(r.Clip.URy))
	if xMin >= xMax || yMin >= yMax {
		return
	}

	width := xMax - xMin
	height := yMax - yMin

	size := width * height
	r.cover = slices.Grow(r.cover[:0], size)[:size]
	r.area = slices.Grow(r.area[:0], size)[:size]
	clear(r.cover)
	clear(r.area)

	r.rowHasEdges = slices.Grow(r.rowHasEdges[:0], height)[:height]
	clear(r.rowHasEdges)

	// Accumulate every edge into its scanlines.
	for i := range r.edges {
		e := &r.edges[i]

		var edgeYMin, edgeYMax int
		if e.y0 < e.y1 {
			edgeYMin = int(math.Floor(e.y0))
			edgeYMax = int(math.Floor(e.y1)) + 1
		} else {
			edgeYMin = int(math.Floor(e.y1))
			edgeYMax = int(math.Floor(e.y0)) + 1
		}
		edgeYMin = max(edgeYMin, yMin)
		edgeYMax = min(edgeYMax, yMax)

		for y := edgeYMin; y < edgeYMax; y++ {
			row := y - yMin
			rowOffset := row * width
			r.accumulateEdge(e, y, r.cover[rowOffset:rowOffset+width], r.area[rowOffset:rowOffset+width], xMin, xMax)
			r.rowHasEdges[row] = true
		}
	}

	// Integrate and emit each row.
	for row := range height {
		if !r.rowHasEdges[row] {
			continue
		}

		y := yMin + row
		rowOffset := row * width
		coverage := r.cover[rowOffset : rowOffset+width]
		integrateScanline(coverage, r.area[rowOffset:rowOffset+width], rule)

		if trimmed, offset := trimZeros(coverage); trimmed != nil {
			emit(y, xMin+offset, trimmed)
		}
	}
}

// accumulateEdge adds a single edge's contribution to the cover and area
// buffers for scanline y. The buffers are indexed by (x - bboxXMin).
// Edges spanning multiple pixel columns are split at column boundaries.
func (r *Rasterizer) accumulateEdge(e *edge, y int, cover, area []float32, bboxXMin, bboxXMax int) {
	// Portion of the edge within scanline [y, y+1)
	yTop := max(float64(y), min(e.y0, e.y1))
	yBot := min(float64(y+1), max(e.y0, e.y1))
	if yBot <= yTop {
		return
	}

	// +1 for downward edges, -1 for upward
	sign := float32(1)
	if e.y1 < e.y0 {
		sign = -1
	}

	xAtYTop := e.x0 + e.dxdy*(yTop-e.y0)
	xAtYBot := e.x0 + e.dxdy*(yBot-e.y0)

	xLeft, xRight := xAtYTop, xAtYBot
	if xLeft > xRight {
		xLeft, xRight = xRight, xLeft
	}
	pixLeft := int(math.Floor(xLeft))
	pixRight := int(math.Floor(xRight))

	// Entirely left of the bounding box: full contribution lands in the
	// leftmost buffer cell so the running sum stays correct.
	if pixRight < bboxXMin {
		coverVal := sign * float32(yBot-yTop)
		cover[0] += coverVal
		area[0] += coverVal
		return
	}
	// Entirely right of the bounding box: no contribution.
	if pixLeft >= bboxXMax {
		return
	}

	if pixLeft == pixRight {
		r.accumulateColumn(e, yTop, yBot, sign, pixLeft, cover, area, bboxXMin, bboxXMax)
		return
	}

	// Split at column boundaries: for each pixel column, compute the
	// y-extent of the edge within that column.
	dydx := 1 / e.dxdy
	for pix := pixLeft; pix <= pixRight; pix++ {
		yAtColLeft := e.y0 + dydx*(float64(pix)-e.x0)
		yAtColRight := e.y0 + dydx*(float64(pix+1)-e.x0)

		segYMin := max(min(yAtColLeft, yAtColRight), yTop)
		segYMax := min(max(yAtColLeft, yAtColRight), yBot)
		segDy := segYMax - segYMin
		if segDy <= 0 {
			continue
		}

		coverVal := sign * float32(segDy)
		yMid := (segYMin + segYMax) / 2
		xMid := e.x0 + e.dxdy*(yMid-e.y0)
		xFrac := xMid - float64(pix)
		areaVal := coverVal * float32(1-xFrac)

		if pix < bboxXMin {
			cover[0] += coverVal
			area[0] += coverVal
		} else if pix < bboxXMax {
			idx := pix - bboxXMin
			cover[idx] += coverVal
			area[idx] += areaVal
		}
	}
}

// accumulateColumn handles an edge segment within a single pixel column.
func (r *Rasterizer) accumulateColumn(e *edge, yTop, yBot float64, sign float32, pix int, cover, area []float32, bboxXMin, bboxXMax int) {
	coverVal := sign * float32(yBot-yTop)

	if pix < bboxXMin {
		cover[0] += coverVal
		area[0] += coverVal
		return
	}
	if pix >= bboxXMax {
		return
	}

	yMid := (yTop + yBot) / 2
	xMid := e.x0 + e.dxdy*(yMid-e.y0)
	xFrac := xMid - float64(pix)

	idx := pix - bboxXMin
	cover[idx] += coverVal
	area[idx] += coverVal * float32(1-xFrac)
}

// integrateScanline converts accumulated cover/area values to final
// coverage in place.
func integrateScanline(cover, area []float32, rule FillRule) {
	var accum float32
	for i := range cover {
		raw := accum + area[i]
		accum += cover[i]

		var cov float32
		if rule == NonZero {
			// clamp(abs(raw), 0, 1)
			cov = raw
			if cov < 0 {
				cov = -cov
			}
			if cov > 1 {
				cov = 1
			}
		} else {
			// 1 - abs(1 - mod(abs(raw), 2))
			if raw < 0 {
				raw = -raw
			}
			mod := raw - 2*float32(int(raw/2))
			cov = 1 - mod
			if cov < 0 {
				cov = -cov
			}
			cov = 1 - cov
		}
		cover[i] = cov
	}
}

// trimZeros returns the non-zero portion of coverage and its starting
// offset, or nil if coverage is entirely zero.
func trimZeros(coverage []float32) (trimmed []float32, offset int) {
	n := len(coverage)
	lo := 0
	for lo < n && coverage[lo] == 0 {
		lo++
	}
	if lo == n {
		return nil, 0
	}
	hi := n - 1
	for hi > lo && coverage[hi] == 0 {
		hi--
	}
	return coverage[lo : hi+1], lo
}

const (
	// defaultFlatness is the default curve flattening tolerance in device
	// pixels. 0.25 is below the threshold of visual perception.
	defaultFlatness = 0.25

	// defaultMiterLimit matches the PDF/PostScript default. Joins become
	// bevels when the interior angle is less than about 11.5 degrees.
	defaultMiterLimit = 10.0

	// horizontalEdgeThreshold is the minimum vertical extent for an edge
	// to contribute coverage. Edges flatter than this are skipped.
	horizontalEdgeThreshold = 1e-10

	// zeroLengthThreshold is the minimum length for a stroke segment.
	// Shorter segments are skipped.
	zeroLengthThreshold = 1e-10
)
