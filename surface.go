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

import (
	"context"
	"image/color"
)

// Surface is a 2D drawing surface.
//
// Implementations may forward each call to an external drawing subsystem,
// so every operation takes a context and may block until the subsystem
// responds. Each operation can fail independently; implementations report
// failures as an [*OpError] naming the operation.
//
// Paint attributes set via SetStrokeColor and SetLineWidth persist across
// calls until changed again. After Stroke the current path is consumed and
// a new BeginPath is required before building the next path.
//
// Implementations need not be safe for concurrent use; callers are
// expected to issue operations one at a time.
type Surface interface {
	// BeginPath starts a new path, discarding any path state that has not
	// been stroked yet.
	BeginPath(ctx context.Context) error

	// Rect appends a rectangle sub-path at the given origin. Width and
	// height may be negative; the rectangle then extends towards
	// decreasing coordinates.
	Rect(ctx context.Context, x, y, width, height float64) error

	// SetStrokeColor sets the stroke colour for subsequent Stroke calls.
	SetStrokeColor(ctx context.Context, c color.Color) error

	// SetLineWidth sets the stroke line width in pixels.
	SetLineWidth(ctx context.Context, width float64) error

	// ClearRect clears a rectangular pixel region to transparent.
	ClearRect(ctx context.Context, x, y, width, height float64) error

	// Stroke paints the outline of the current path using the current
	// stroke colour and line width.
	Stroke(ctx context.Context) error
}

// OpError reports failure of a single surface operation.
type OpError struct {
	Op  string // the failing operation, e.g. "beginPath"
	Err error
}

func (e *OpError) Error() string {
	return "surface: " + e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}
