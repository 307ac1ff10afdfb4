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

// Annotate renders one page of a PDF file and lets the user draw
// rectangular annotations over it.
//
// In the default mode the page is written to a PNG file. With the
// -interactive flag a browser window opens instead, showing the page
// with a drag-to-annotate overlay on top.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"seehuhn.de/go/annotate"
	"seehuhn.de/go/annotate/browser"
	"seehuhn.de/go/annotate/pagerender"
	"seehuhn.de/go/annotate/raster"
)

func main() {
	pageNo := flag.Int("page", 1, "page number (1-based)")
	scale := flag.Float64("scale", 1.5, "zoom factor")
	output := flag.String("o", "", "output PNG file (default: input name with .png)")
	interactive := flag.Bool("interactive", false, "open the page in a browser window")
	verbose := flag.Bool("v", false, "log progress to stderr")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] file.pdf\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	if *verbose {
		annotate.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	err := run(flag.Arg(0), *pageNo-1, *scale, *output, *interactive)
	if err != nil {
		fmt.Fprintln(os.Stderr, "annotate:", err)
		os.Exit(1)
	}
}

func run(fname string, pageNo int, scale float64, output string, interactive bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	size, err := pagerender.PageSize(fname, pageNo, scale)
	if err != nil {
		return err
	}
	canvas := raster.New(
		int(math.Ceil(size.Width)), int(math.Ceil(size.Height)))

	if _, err := pagerender.RenderPage(ctx, fname, pageNo, scale, canvas); err != nil {
		return err
	}

	if !interactive {
		if output == "" {
			output = strings.TrimSuffix(fname, filepath.Ext(fname)) + ".png"
		}
		return writePNG(output, canvas)
	}

	session, err := browser.Open(ctx, canvas.Image())
	if err != nil {
		return err
	}
	defer session.Close()

	overlay := annotate.NewOverlay()
	overlay.SetSurface(session.Surface())
	overlay.SetPageSize(size)

	err = session.Run(ctx, overlay)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func writePNG(fname string, canvas *raster.Surface) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err := png.Encode(f, canvas.Image()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
