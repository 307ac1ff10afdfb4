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

// Package annotate draws rectangular annotations over a rendered document
// page. The caller feeds pointer events to an [Overlay]; while a drag
// gesture is active, each pointer move repaints the current rectangle on a
// dedicated overlay [Surface], separate from the surface holding the page
// raster.
package annotate

import (
	"context"
	"image/color"
	"sync"
)

// Overlay tracks one drag gesture at a time and repaints the spanned
// rectangle on its surface after every pointer move.
//
// An Overlay starts without a surface and without page dimensions. Both
// are supplied by explicit setup calls once the base page render has
// completed; until then, and whenever surface acquisition has failed,
// every pointer event is a no-op apart from a log message. Event methods
// never return an error and never panic, so they can be called directly
// from a host event dispatcher.
//
// All methods are safe for concurrent use. Repaints are serialised: a
// pointer move that arrives while a previous repaint is still waiting on
// the surface blocks until that repaint has finished, so drawing
// operations from two repaints never interleave.
type Overlay struct {
	// StrokeColor is the colour used to stroke the rectangle.
	// Set before delivering the first event.
	StrokeColor color.Color

	// LineWidth is the stroke width in pixels.
	// Set before delivering the first event.
	LineWidth float64

	mu      sync.Mutex
	surface Surface
	size    Dimensions
	anchor  *Position // non-nil iff a drag is active
}

// NewOverlay returns an Overlay with default paint attributes
// (black stroke, line width 2).
func NewOverlay() *Overlay {
	return &Overlay{
		StrokeColor: color.Black,
		LineWidth:   2,
	}
}

// SetSurface attaches the overlay drawing surface. This is a separate
// setup step because the surface only becomes available after the host has
// completed its first layout pass. If surface acquisition failed, the
// caller simply never calls SetSurface and the overlay stays inert.
func (o *Overlay) SetSurface(s Surface) {
	o.mu.Lock()
	o.surface = s
	o.mu.Unlock()
	Logger().Info("overlay surface attached")
}

// SetPageSize records the pixel dimensions of the rendered page. It is
// called exactly once, when the base page render completes. The dimensions
// determine the region cleared before each repaint.
func (o *Overlay) SetPageSize(size Dimensions) {
	o.mu.Lock()
	o.size = size
	o.mu.Unlock()
	Logger().Info("overlay page size set",
		"width", size.Width, "height", size.Height)
}

// Dragging reports whether a drag gesture is currently active.
func (o *Overlay) Dragging() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.anchor != nil
}

// PointerDown starts a drag gesture with the given anchor position.
// No drawing occurs. A PointerDown while a drag is already active restarts
// the gesture at the new anchor; this is an intentional idempotent reset,
// not an error.
func (o *Overlay) PointerDown(pos Position) {
	o.mu.Lock()
	o.anchor = &pos
	o.mu.Unlock()
}

// PointerUp ends the current drag gesture. No drawing occurs; the last
// painted rectangle stays visible until the next gesture's first pointer
// move clears the surface. PointerUp without an active drag is a no-op.
func (o *Overlay) PointerUp() {
	o.mu.Lock()
	o.anchor = nil
	o.mu.Unlock()
}

// PointerMove updates the drag rectangle for the given pointer position
// and repaints the overlay. Outside a drag gesture the call is ignored and
// no drawing operation is issued.
//
// A failed drawing operation aborts the current repaint but leaves the
// gesture active; the next pointer move starts a fresh repaint, so
// transient surface failures heal on their own. Failures are logged, never
// returned.
func (o *Overlay) PointerMove(ctx context.Context, pos Position) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.anchor == nil {
		return
	}
	o.repaint(ctx, dragRect(*o.anchor, pos))
}

// repaint runs the fixed repaint sequence for one pointer move. The caller
// must hold o.mu, which keeps concurrent repaints from interleaving their
// surface operations.
//
// The entire overlay region is cleared, not just the previous rectangle's
// bounds, and the clear is ordered before the stroke so that the blank
// window between the two is as short as possible.
func (o *Overlay) repaint(ctx context.Context, r Rect) {
	log := Logger()

	if o.surface == nil {
		log.Warn("overlay repaint skipped: no surface")
		return
	}
	if o.size.IsZero() {
		log.Warn("overlay repaint skipped: page size not yet known")
		return
	}

	s := o.surface
	if err := s.BeginPath(ctx); err != nil {
		log.Warn("overlay repaint failed", "op", "beginPath", "err", err)
		return
	}
	if err := s.Rect(ctx, r.X, r.Y, r.Width, r.Height); err != nil {
		log.Warn("overlay repaint failed", "op", "rect", "err", err)
		return
	}
	if err := s.SetStrokeColor(ctx, o.StrokeColor); err != nil {
		log.Warn("overlay repaint failed", "op", "setStrokeColor", "err", err)
		return
	}
	if err := s.SetLineWidth(ctx, o.LineWidth); err != nil {
		log.Warn("overlay repaint failed", "op", "setLineWidth", "err", err)
		return
	}
	if err := s.ClearRect(ctx, 0, 0, o.size.Width, o.size.Height); err != nil {
		log.Warn("overlay repaint failed", "op", "clearRect", "err", err)
		return
	}
	if err := s.Stroke(ctx); err != nil {
		log.Warn("overlay repaint failed", "op", "stroke", "err", err)
	}
}
