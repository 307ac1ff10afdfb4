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

package browser

import (
	"context"
	"fmt"
	"image/color"

	"github.com/chromedp/chromedp"

	"seehuhn.de/go/annotate"
)

// Surface draws on the overlay canvas of a browser session. Every
// operation is one JavaScript call against the canvas 2D context; a
// failed call, for example because the window was closed mid-gesture,
// surfaces as an [*annotate.OpError].
//
// Operations run in the browser tab's own context. The ctx argument of
// each method only adds cancellation on the Go side.
type Surface struct {
	tab context.Context
}

var _ annotate.Surface = (*Surface)(nil)

// eval runs one canvas 2D call in the browser.
func (s *Surface) eval(ctx context.Context, op, call string) error {
	if err := ctx.Err(); err != nil {
		return &annotate.OpError{Op: op, Err: err}
	}
	js := `document.getElementById("overlay").getContext("2d").` + call
	if err := chromedp.Run(s.tab, chromedp.Evaluate(js, nil)); err != nil {
		return &annotate.OpError{Op: op, Err: err}
	}
	return nil
}

func (s *Surface) BeginPath(ctx context.Context) error {
	return s.eval(ctx, "beginPath", "beginPath()")
}

func (s *Surface) Rect(ctx context.Context, x, y, width, height float64) error {
	return s.eval(ctx, "rect",
		fmt.Sprintf("rect(%g, %g, %g, %g)", x, y, width, height))
}

func (s *Surface) SetStrokeColor(ctx context.Context, c color.Color) error {
	return s.eval(ctx, "setStrokeColor",
		fmt.Sprintf("strokeStyle = %q", cssColor(c)))
}

func (s *Surface) SetLineWidth(ctx context.Context, width float64) error {
	return s.eval(ctx, "setLineWidth",
		fmt.Sprintf("lineWidth = %g", width))
}

func (s *Surface) ClearRect(ctx context.Context, x, y, width, height float64) error {
	return s.eval(ctx, "clearRect",
		fmt.Sprintf("clearRect(%g, %g, %g, %g)", x, y, width, height))
}

func (s *Surface) Stroke(ctx context.Context) error {
	return s.eval(ctx, "stroke", "stroke()")
}

// cssColor formats a colour as a CSS rgba() value.
func cssColor(c color.Color) string {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return "rgba(0,0,0,0)"
	}
	// un-premultiply to 8 bit channels
	return fmt.Sprintf("rgba(%d,%d,%d,%g)",
		(r*0xff+a/2)/a, (g*0xff+a/2)/a, (b*0xff+a/2)/a,
		float64(a)/0xffff)
}
