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

// Package browser shows a rendered page in a Chrome window and lets the
// user drag annotation rectangles over it.
//
// The page raster is displayed on one canvas, with a second, transparent
// canvas stacked on top of it. Pointer events on the top canvas are
// queued in the page and drained by [Session.Run], which feeds them to an
// [annotate.Overlay]; the overlay draws on the top canvas through
// [Surface], so repaints never disturb the page raster underneath.
package browser

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"image"
	"image/png"
	"time"

	"github.com/chromedp/chromedp"

	"seehuhn.de/go/annotate"
)

// pollInterval is the interval at which queued pointer events are
// fetched from the browser.
const pollInterval = 15 * time.Millisecond

// pageTemplate is the HTML shell. The page raster canvas sits below the
// overlay canvas; pointer handlers on the overlay push events into a
// queue that the Go side drains.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>annotate</title>
<style>
body { margin: 0; background: #555; }
#stage { position: relative; width: {{.Width}}px; margin: 16px auto; }
#stage canvas { display: block; }
#overlay { position: absolute; left: 0; top: 0; touch-action: none; }
</style>
</head>
<body>
<div id="stage">
<canvas id="page" width="{{.Width}}" height="{{.Height}}"></canvas>
<canvas id="overlay" width="{{.Width}}" height="{{.Height}}"></canvas>
</div>
<script>
"use strict";
(function() {
	var img = new Image();
	img.onload = function() {
		document.getElementById("page").getContext("2d").drawImage(img, 0, 0);
	};
	img.src = "data:image/png;base64,{{.PagePNG}}";

	var overlay = document.getElementById("overlay");
	window.__pointerEvents = [];
	function push(type, e) {
		var r = overlay.getBoundingClientRect();
		window.__pointerEvents.push({t: type, x: e.clientX - r.left, y: e.clientY - r.top});
	}
	overlay.addEventListener("pointerdown", function(e) {
		overlay.setPointerCapture(e.pointerId);
		push("down", e);
	});
	overlay.addEventListener("pointermove", function(e) { push("move", e); });
	overlay.addEventListener("pointerup", function(e) { push("up", e); });
	window.__drainPointerEvents = function() {
		var queue = window.__pointerEvents;
		window.__pointerEvents = [];
		return queue;
	};
})();
</script>
</body>
</html>
`))

// Session is one open browser window showing a page.
type Session struct {
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// Open starts a Chrome window displaying the rendered page and returns
// once the page is interactive. ctx bounds the startup; the window
// itself stays open until [Session.Close].
func Open(ctx context.Context, page image.Image) (*Session, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, page); err != nil {
		return nil, fmt.Errorf("encoding page raster: %w", err)
	}

	bounds := page.Bounds()
	var html bytes.Buffer
	err := pageTemplate.Execute(&html, map[string]any{
		"Width":   bounds.Dx(),
		"Height":  bounds.Dy(),
		"PagePNG": base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
	if err != nil {
		return nil, fmt.Errorf("building page shell: %w", err)
	}
	dataURI := "data:text/html;base64," +
		base64.StdEncoding.EncodeToString(html.Bytes())

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", false),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tab, cancelTab := chromedp.NewContext(allocCtx)

	s := &Session{
		tab:         tab,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}

	tasks := chromedp.Tasks{
		chromedp.Navigate(dataURI),
		chromedp.WaitVisible("#overlay", chromedp.ByID),
	}
	if err := chromedp.Run(tab, tasks); err != nil {
		s.Close()
		return nil, fmt.Errorf("opening browser window: %w", err)
	}

	annotate.Logger().Info("browser window open",
		"width", bounds.Dx(), "height", bounds.Dy())
	return s, nil
}

// Surface returns the overlay canvas as a drawing surface.
func (s *Session) Surface() *Surface {
	return &Surface{tab: s.tab}
}

// pointerEvent mirrors the queue entries produced by the page script.
type pointerEvent struct {
	T string  `json:"t"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Run pumps pointer events from the browser into the overlay until ctx
// is cancelled or the browser window is closed. A closed window ends the
// session normally and Run returns nil.
func (s *Session) Run(ctx context.Context, overlay *annotate.Overlay) error {
	log := annotate.Logger()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.tab.Done():
			log.Info("browser window closed")
			return nil
		case <-ticker.C:
		}

		var events []pointerEvent
		err := chromedp.Run(s.tab,
			chromedp.Evaluate("window.__drainPointerEvents()", &events))
		if err != nil {
			if s.tab.Err() != nil {
				log.Info("browser window closed")
				return nil
			}
			return fmt.Errorf("fetching pointer events: %w", err)
		}

		for _, e := range events {
			pos := annotate.Position{X: e.X, Y: e.Y}
			switch e.T {
			case "down":
				overlay.PointerDown(pos)
			case "move":
				overlay.PointerMove(ctx, pos)
			case "up":
				overlay.PointerUp()
			}
		}
	}
}

// Close shuts down the browser.
func (s *Session) Close() {
	s.cancelTab()
	s.cancelAlloc()
}
