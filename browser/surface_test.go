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
	"bytes"
	"image/color"
	"strings"
	"testing"
)

func TestCSSColor(t *testing.T) {
	cases := []struct {
		col  color.Color
		want string
	}{
		{color.Black, "rgba(0,0,0,1)"},
		{color.White, "rgba(255,255,255,1)"},
		{color.RGBA{R: 255, A: 255}, "rgba(255,0,0,1)"},
		{color.NRGBA{R: 255, A: 128}, "rgba(255,0,0,0.5019607843137255)"},
		{color.Transparent, "rgba(0,0,0,0)"},
	}
	for _, c := range cases {
		if got := cssColor(c.col); got != c.want {
			t.Errorf("cssColor(%v) = %q, want %q", c.col, got, c.want)
		}
	}
}

func TestPageTemplate(t *testing.T) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, map[string]any{
		"Width":   918,
		"Height":  1188,
		"PagePNG": "QUJD",
	})
	if err != nil {
		t.Fatal(err)
	}

	html := buf.String()
	for _, want := range []string{
		`<canvas id="page" width="918" height="1188">`,
		`<canvas id="overlay" width="918" height="1188">`,
		"__drainPointerEvents",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page shell is missing %q", want)
		}
	}
}
