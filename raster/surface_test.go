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
	"bytes"
	"context"
	"errors"
	"image/color"
	"testing"

	"seehuhn.de/go/annotate"
)

var _ annotate.Surface = (*Surface)(nil)

func strokeRect(t *testing.T, s *Surface, x, y, w, h float64) {
	t.Helper()
	ctx := context.Background()
	for _, err := range []error{
		s.BeginPath(ctx),
		s.Rect(ctx, x, y, w, h),
		s.SetStrokeColor(ctx, color.Black),
		s.SetLineWidth(ctx, 2),
		s.Stroke(ctx),
	} {
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestNegativeExtentsMatchNormalised(t *testing.T) {
	// Dragging from the lower right to the upper left yields negative
	// extents; the painted result must match the normalised rectangle.
	a := New(32, 32)
	strokeRect(t, a, 4, 4, 16, 16)

	b := New(32, 32)
	strokeRect(t, b, 20, 20, -16, -16)

	if !bytes.Equal(a.Image().Pix, b.Image().Pix) {
		t.Error("negative extents rendered differently from normalised rectangle")
	}
}

func TestClearRect(t *testing.T) {
	ctx := context.Background()
	s := New(32, 32)
	strokeRect(t, s, 4, 4, 16, 16)

	if err := s.ClearRect(ctx, 0, 0, 32, 32); err != nil {
		t.Fatal(err)
	}

	for i, v := range s.Image().Pix {
		if v != 0 {
			t.Fatalf("pixel byte %d not cleared: %d", i, v)
		}
	}
}

func TestClearRectPartial(t *testing.T) {
	ctx := context.Background()
	s := New(32, 32)
	strokeRect(t, s, 4, 4, 16, 16)

	// clear only the left half; the right edge of the rectangle survives
	if err := s.ClearRect(ctx, 0, 0, 16, 32); err != nil {
		t.Fatal(err)
	}

	img := s.Image()
	if _, _, _, a := img.At(4, 12).RGBA(); a != 0 {
		t.Error("left edge not cleared")
	}
	if _, _, _, a := img.At(19, 12).RGBA(); a == 0 {
		t.Error("right edge was cleared")
	}
}

func TestPathConsumedByStroke(t *testing.T) {
	ctx := context.Background()
	s := New(32, 32)
	strokeRect(t, s, 4, 4, 16, 16)

	if err := s.ClearRect(ctx, 0, 0, 32, 32); err != nil {
		t.Fatal(err)
	}
	// stroking again without BeginPath paints nothing: the path was
	// consumed by the first stroke
	if err := s.Stroke(ctx); err != nil {
		t.Fatal(err)
	}
	for i, v := range s.Image().Pix {
		if v != 0 {
			t.Fatalf("pixel byte %d painted by stroke of consumed path: %d", i, v)
		}
	}
}

func TestBeginPathDiscards(t *testing.T) {
	ctx := context.Background()
	s := New(32, 32)
	if err := s.BeginPath(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Rect(ctx, 4, 4, 16, 16); err != nil {
		t.Fatal(err)
	}
	// a second BeginPath drops the pending rectangle
	if err := s.BeginPath(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Stroke(ctx); err != nil {
		t.Fatal(err)
	}
	for i, v := range s.Image().Pix {
		if v != 0 {
			t.Fatalf("pixel byte %d painted from discarded path: %d", i, v)
		}
	}
}

func TestCancelledContext(t *testing.T) {
	s := New(32, 32)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.BeginPath(ctx)
	if err == nil {
		t.Fatal("no error from cancelled context")
	}
	var opErr *annotate.OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("error %v is not an OpError", err)
	}
	if opErr.Op != "beginPath" {
		t.Errorf("OpError.Op = %q, want %q", opErr.Op, "beginPath")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error %v does not wrap context.Canceled", err)
	}
}

func TestZeroLineWidthError(t *testing.T) {
	ctx := context.Background()
	s := New(32, 32)
	if err := s.BeginPath(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Rect(ctx, 4, 4, 16, 16); err != nil {
		t.Fatal(err)
	}
	if err := s.SetLineWidth(ctx, 0); err != nil {
		t.Fatal(err)
	}
	err := s.Stroke(ctx)
	var opErr *annotate.OpError
	if !errors.As(err, &opErr) || opErr.Op != "stroke" {
		t.Errorf("stroke with zero width: got %v, want stroke OpError", err)
	}
}

func TestStrokeColor(t *testing.T) {
	ctx := context.Background()
	s := New(32, 32)
	red := color.RGBA{R: 255, A: 255}
	for _, err := range []error{
		s.BeginPath(ctx),
		s.Rect(ctx, 4, 4, 16, 16),
		s.SetStrokeColor(ctx, red),
		s.SetLineWidth(ctx, 2),
		s.Stroke(ctx),
	} {
		if err != nil {
			t.Fatal(err)
		}
	}

	r, g, b, a := s.Image().At(4, 12).RGBA()
	if r != 0xffff || g != 0 || b != 0 || a != 0xffff {
		t.Errorf("band pixel colour = (%d,%d,%d,%d), want opaque red", r, g, b, a)
	}
}

func TestFillSurface(t *testing.T) {
	ctx := context.Background()
	s := New(16, 16)
	for _, err := range []error{
		s.BeginPath(ctx),
		s.SetFillColor(ctx, color.White),
		s.MoveTo(ctx, 2, 2),
		s.LineTo(ctx, 14, 2),
		s.LineTo(ctx, 14, 14),
		s.LineTo(ctx, 2, 14),
		s.ClosePath(ctx),
		s.Fill(ctx, NonZero),
	} {
		if err != nil {
			t.Fatal(err)
		}
	}

	if _, _, _, a := s.Image().At(8, 8).RGBA(); a != 0xffff {
		t.Error("interior not filled")
	}
	if _, _, _, a := s.Image().At(0, 0).RGBA(); a != 0 {
		t.Error("exterior filled")
	}
}
