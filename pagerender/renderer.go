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

// Package pagerender rasterises one page of a PDF document onto a
// drawing surface, as the backdrop for the annotation overlay.
//
// Rendering replays the path-painting operators of the page's content
// stream; text and images are skipped, giving a wireframe rendition of
// the page geometry. Each stage of the pipeline fails independently and
// reports its stage name, so callers can tell a damaged document from a
// missing page or an unusable surface.
package pagerender

import (
	"context"
	"errors"
	"fmt"
	"image/color"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"

	"seehuhn.de/go/annotate"
	"seehuhn.de/go/annotate/raster"
)

// Canvas is the drawing interface page rendering requires. It extends
// the operation set of [annotate.Surface] with general path construction
// and filling. [raster.Surface] implements Canvas.
type Canvas interface {
	annotate.Surface

	MoveTo(ctx context.Context, x, y float64) error
	LineTo(ctx context.Context, x, y float64) error
	CurveTo(ctx context.Context, x1, y1, x2, y2, x3, y3 float64) error
	ClosePath(ctx context.Context) error
	SetFillColor(ctx context.Context, c color.Color) error
	Fill(ctx context.Context, rule raster.FillRule) error
}

// Stage identifies the pipeline stage in which page rendering failed.
type Stage string

const (
	StageLoad     Stage = "load"     // opening the document
	StagePage     Stage = "page"     // locating the page
	StageViewport Stage = "viewport" // computing the page viewport
	StageContext  Stage = "context"  // acquiring the drawing surface
	StageRender   Stage = "render"   // replaying the content stream
)

// StageError reports failure of one rendering stage. Failures are
// terminal for the whole render call; no stage is retried.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("render page: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func fail(stage Stage, err error) (annotate.Dimensions, error) {
	annotate.Logger().Warn("page render failed",
		"stage", string(stage), "err", err)
	return annotate.Dimensions{}, &StageError{Stage: stage, Err: err}
}

// Viewport maps one page from PDF user space to device pixels.
type Viewport struct {
	// Size is the page extent in device pixels.
	Size annotate.Dimensions

	// M transforms user-space coordinates to device coordinates,
	// flipping the y axis so the origin is the upper left corner.
	M matrix.Matrix

	// Scale is the zoom factor the viewport was computed for.
	Scale float64
}

// viewportFor computes the viewport for a page with the given MediaBox.
func viewportFor(mediaBox *pdf.Rectangle, scale float64) (Viewport, error) {
	if mediaBox == nil {
		return Viewport{}, errors.New("page has no MediaBox")
	}
	w := (mediaBox.URx - mediaBox.LLx) * scale
	h := (mediaBox.URy - mediaBox.LLy) * scale
	if w <= 0 || h <= 0 {
		return Viewport{}, fmt.Errorf("degenerate MediaBox %v", mediaBox)
	}
	return Viewport{
		Size: annotate.Dimensions{Width: w, Height: h},
		M: matrix.Matrix{
			scale, 0,
			0, -scale,
			-mediaBox.LLx * scale, mediaBox.URy * scale,
		},
		Scale: scale,
	}, nil
}

// PageSize returns the device-pixel dimensions of page pageNo (0-based)
// at the given scale, without rendering anything. Callers use it to
// allocate a raster surface of the right size before [RenderPage].
func PageSize(fname string, pageNo int, scale float64) (annotate.Dimensions, error) {
	doc, err := pdf.Open(fname, nil)
	if err != nil {
		return fail(StageLoad, err)
	}
	defer doc.Close()

	_, pageDict, err := pagetree.GetPage(doc, pageNo)
	if err != nil {
		return fail(StagePage, err)
	}

	mediaBox, err := pdf.GetRectangle(doc, pageDict["MediaBox"])
	if err != nil {
		return fail(StageViewport, err)
	}
	vp, err := viewportFor(mediaBox, scale)
	if err != nil {
		return fail(StageViewport, err)
	}
	return vp.Size, nil
}

// RenderPage rasterises page pageNo (0-based) of the named PDF file at
// the given scale onto canvas, and returns the page's device-pixel
// dimensions. The caller passes the dimensions on to
// [annotate.Overlay.SetPageSize].
//
// Every returned error is a [*StageError]. Rendering is not retried; a
// failed call leaves the canvas in an unspecified but safe state.
func RenderPage(ctx context.Context, fname string, pageNo int, scale float64, canvas Canvas) (annotate.Dimensions, error) {
	log := annotate.Logger()

	doc, err := pdf.Open(fname, nil)
	if err != nil {
		return fail(StageLoad, err)
	}
	defer doc.Close()

	_, pageDict, err := pagetree.GetPage(doc, pageNo)
	if err != nil {
		return fail(StagePage, err)
	}

	mediaBox, err := pdf.GetRectangle(doc, pageDict["MediaBox"])
	if err != nil {
		return fail(StageViewport, err)
	}
	vp, err := viewportFor(mediaBox, scale)
	if err != nil {
		return fail(StageViewport, err)
	}

	if canvas == nil {
		return fail(StageContext, errors.New("no drawing surface"))
	}
	if err := paintBackground(ctx, canvas, vp.Size); err != nil {
		return fail(StageContext, err)
	}

	contents, err := pagetree.ContentStream(doc, pageDict)
	if err != nil {
		return fail(StageRender, err)
	}
	if err := renderContent(ctx, contents, vp, canvas); err != nil {
		return fail(StageRender, err)
	}

	log.Info("page rendered",
		"file", fname, "page", pageNo, "scale", scale,
		"width", vp.Size.Width, "height", vp.Size.Height)
	return vp.Size, nil
}

// paintBackground clears the canvas and fills the page area with white,
// so that the wireframe content is drawn on paper rather than on a
// transparent surface.
func paintBackground(ctx context.Context, canvas Canvas, size annotate.Dimensions) error {
	if err := canvas.ClearRect(ctx, 0, 0, size.Width, size.Height); err != nil {
		return err
	}
	if err := canvas.BeginPath(ctx); err != nil {
		return err
	}
	if err := canvas.Rect(ctx, 0, 0, size.Width, size.Height); err != nil {
		return err
	}
	if err := canvas.SetFillColor(ctx, color.White); err != nil {
		return err
	}
	return canvas.Fill(ctx, raster.NonZero)
}
