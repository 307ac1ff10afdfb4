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

package annotate

// Dimensions is the pixel size of a drawing surface, in device-independent
// pixels.
type Dimensions struct {
	Width  float64
	Height float64
}

// IsZero reports whether d holds no usable size.
func (d Dimensions) IsZero() bool {
	return d.Width <= 0 || d.Height <= 0
}

// Position is a pointer location in surface-local coordinates, i.e. the
// offset within the drawing surface, not document or viewport coordinates.
type Position struct {
	X float64
	Y float64
}

// Rect is a rectangle given by an origin and extents. Width and Height may
// be negative, in which case the rectangle extends towards decreasing
// coordinates from the origin.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// dragRect computes the rectangle spanned by a drag gesture. The origin is
// the anchor recorded at pointer-down; the extents follow the current
// pointer position and are negative when the pointer has moved towards the
// upper left. No normalisation takes place.
func dragRect(anchor, current Position) Rect {
	return Rect{
		X:      anchor.X,
		Y:      anchor.Y,
		Width:  current.X - anchor.X,
		Height: current.Y - anchor.Y,
	}
}
