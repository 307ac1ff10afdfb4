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
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/annotate"
)

// Surface is an in-memory drawing surface over an RGBA image. It
// implements [annotate.Surface] and, through the additional path and fill
// operations, the richer canvas interface needed for rendering a page
// backdrop.
//
// All coordinates are device pixels with the origin in the upper left
// corner and y growing downwards.
//
// A Surface is not safe for concurrent use.
type Surface struct {
	img *image.RGBA
	ras *Rasterizer

	strokeColor color.Color
	fillColor   color.Color
	lineWidth   float64

	path path.Data
}

// New returns a transparent Surface of the given pixel size.
func New(width, height int) *Surface {
	clip := rect.Rect{URx: float64(width), URy: float64(height)}
	return &Surface{
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		ras:         NewRasterizer(clip),
		strokeColor: color.Black,
		fillColor:   color.Black,
		lineWidth:   1,
	}
}

// Image returns the underlying image. The returned value shares pixels
// with the surface; drawing operations change it in place.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

var errZeroWidth = errors.New("line width is not positive")

// opErr wraps err as an *annotate.OpError unless it is nil.
func opErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &annotate.OpError{Op: op, Err: err}
}

// BeginPath starts a new path, discarding any unstroked path state.
func (s *Surface) BeginPath(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return opErr("beginPath", err)
	}
	s.path.Cmds = s.path.Cmds[:0]
	s.path.Coords = s.path.Coords[:0]
	return nil
}

// MoveTo starts a new subpath at (x, y).
func (s *Surface) MoveTo(ctx context.Context, x, y float64) error {
	if err := ctx.Err(); err != nil {
		return opErr("moveTo", err)
	}
	s.path.Cmds = append(s.path.Cmds, path.CmdMoveTo)
	s.path.Coords = append(s.path.Coords, vec.Vec2{X: x, Y: y})
	return nil
}

// LineTo appends a line segment from the current point to (x, y).
func (s *Surface) LineTo(ctx context.Context, x, y float64) error {
	if err := ctx.Err(); err != nil {
		return opErr("lineTo", err)
	}
	s.path.Cmds = append(s.path.Cmds, path.CmdLineTo)
	s.path.Coords = append(s.path.Coords, vec.Vec2{X: x, Y: y})
	return nil
}

// CurveTo appends a cubic Bézier segment with control points (x1, y1) and
// (x2, y2), ending at (x3, y3).
func (s *Surface) CurveTo(ctx context.Context, x1, y1, x2, y2, x3, y3 float64) error {
	if err := ctx.Err(); err != nil {
		return opErr("curveTo", err)
	}
	s.path.Cmds = append(s.path.Cmds, path.CmdCubeTo)
	s.path.Coords = append(s.path.Coords,
		vec.Vec2{X: x1, Y: y1},
		vec.Vec2{X: x2, Y: y2},
		vec.Vec2{X: x3, Y: y3})
	return nil
}

// ClosePath closes the current subpath.
func (s *Surface) ClosePath(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return opErr("closePath", err)
	}
	s.path.Cmds = append(s.path.Cmds, path.CmdClose)
	return nil
}

// Rect appends a rectangle sub-path. Negative width or height extend the
// rectangle towards decreasing coordinates; no normalisation takes place,
// the corner points simply follow the signed extents.
func (s *Surface) Rect(ctx context.Context, x, y, width, height float64) error {
	if err := ctx.Err(); err != nil {
		return opErr("rect", err)
	}
	s.path.Cmds = append(s.path.Cmds,
		path.CmdMoveTo, path.CmdLineTo, path.CmdLineTo, path.CmdLineTo, path.CmdClose)
	s.path.Coords = append(s.path.Coords,
		vec.Vec2{X: x, Y: y},
		vec.Vec2{X: x + width, Y: y},
		vec.Vec2{X: x + width, Y: y + height},
		vec.Vec2{X: x, Y: y + height})
	return nil
}

// SetStrokeColor sets the colour used by Stroke.
func (s *Surface) SetStrokeColor(ctx context.Context, c color.Color) error {
	if err := ctx.Err(); err != nil {
		return opErr("setStrokeColor", err)
	}
	s.strokeColor = c
	return nil
}

// SetFillColor sets the colour used by Fill.
func (s *Surface) SetFillColor(ctx context.Context, c color.Color) error {
	if err := ctx.Err(); err != nil {
		return opErr("setFillColor", err)
	}
	s.fillColor = c
	return nil
}

// SetLineWidth sets the stroke width in pixels.
func (s *Surface) SetLineWidth(ctx context.Context, width float64) error {
	if err := ctx.Err(); err != nil {
		return opErr("setLineWidth", err)
	}
	s.lineWidth = width
	return nil
}

// ClearRect clears a rectangular pixel region to transparent. Negative
// extents select the region towards decreasing coordinates.
func (s *Surface) ClearRect(ctx context.Context, x, y, width, height float64) error {
	if err := ctx.Err(); err != nil {
		return opErr("clearRect", err)
	}
	if width < 0 {
		x, width = x+width, -width
	}
	if height < 0 {
		y, height = y+height, -height
	}
	region := image.Rect(
		int(math.Floor(x)), int(math.Floor(y)),
		int(math.Ceil(x+width)), int(math.Ceil(y+height)))
	draw.Draw(s.img, region.Intersect(s.img.Bounds()), image.Transparent, image.Point{}, draw.Src)
	return nil
}

// Stroke paints the outline of the current path with the current stroke
// colour and line width. The path is consumed; a new BeginPath is
// required before building the next path.
func (s *Surface) Stroke(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return opErr("stroke", err)
	}
	if s.lineWidth <= 0 {
		return opErr("stroke", errZeroWidth)
	}

	s.ras.Width = s.lineWidth
	s.ras.Stroke(&s.path, func(y, xMin int, coverage []float32) {
		s.compositeRow(y, xMin, coverage, s.strokeColor)
	})
	s.path.Cmds = s.path.Cmds[:0]
	s.path.Coords = s.path.Coords[:0]
	return nil
}

// Fill paints the interior of the current path with the current fill
// colour. Like Stroke, it consumes the path.
func (s *Surface) Fill(ctx context.Context, rule FillRule) error {
	if err := ctx.Err(); err != nil {
		return opErr("fill", err)
	}

	s.ras.Fill(&s.path, rule, func(y, xMin int, coverage []float32) {
		s.compositeRow(y, xMin, coverage, s.fillColor)
	})
	s.path.Cmds = s.path.Cmds[:0]
	s.path.Coords = s.path.Coords[:0]
	return nil
}

// compositeRow blends one row of coverage values over the image using
// source-over compositing, with the source alpha scaled by coverage.
func (s *Surface) compositeRow(y, xMin int, coverage []float32, src color.Color) {
	sr, sg, sb, sa := src.RGBA() // 16-bit, alpha-premultiplied

	for i, c := range coverage {
		if c <= 0 {
			continue
		}
		if c > 1 {
			c = 1
		}
		x := xMin + i

		f := uint32(c*65535 + 0.5)
		ca := sa * f / 65535
		if ca == 0 {
			continue
		}
		cr := sr * f / 65535
		cg := sg * f / 65535
		cb := sb * f / 65535

		off := s.img.PixOffset(x, y)
		pix := s.img.Pix[off : off+4 : off+4]

		// source-over: out = src + dst*(1-srcAlpha)
		q := 65535 - ca
		pix[0] = uint8((cr + uint32(pix[0])*0x101*q/65535) >> 8)
		pix[1] = uint8((cg + uint32(pix[1])*0x101*q/65535) >> 8)
		pix[2] = uint8((cb + uint32(pix[2])*0x101*q/65535) >> 8)
		pix[3] = uint8((ca + uint32(pix[3])*0x101*q/65535) >> 8)
	}
}
