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

package pagerender

import (
	"bufio"
	"context"
	"image/color"
	"io"
	"math"
	"strconv"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/annotate/raster"
)

// renderContent replays the path-painting operators of a content stream
// onto the canvas. Text, images, shading and clipping are skipped;
// unknown operators are ignored without error. Drawing errors from the
// canvas abort the replay.
func renderContent(ctx context.Context, contents io.Reader, vp Viewport, canvas Canvas) error {
	st := &contentState{
		graphicsState: graphicsState{
			ctm:         vp.M,
			lineWidth:   1,
			strokeColor: color.Black,
			fillColor:   color.Black,
		},
		canvas: canvas,
	}

	tok := newTokenizer(contents)
	var nums []float64
	for {
		t, err := tok.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t.kind {
		case tokNumber:
			nums = append(nums, t.num)
		case tokOperator:
			if t.text == "BI" {
				// inline image: binary data follows, skip to EI
				if err := tok.skipInlineImage(); err != nil {
					return err
				}
			} else if err := st.do(ctx, t.text, nums); err != nil {
				return err
			}
			nums = nums[:0]
		default:
			// names, strings, array/dict delimiters: operands of
			// operators we do not handle
		}
	}
}

// graphicsState is the part of the PDF graphics state the replay tracks.
type graphicsState struct {
	ctm         matrix.Matrix
	lineWidth   float64 // user-space units
	strokeColor color.Color
	fillColor   color.Color
}

type contentState struct {
	graphicsState
	canvas Canvas
	stack  []graphicsState

	cur    [2]float64 // current point, user space
	start  [2]float64 // current subpath start, user space
	inPath bool
}

// apply transforms a user-space point to device coordinates.
func (st *contentState) apply(x, y float64) (float64, float64) {
	m := &st.ctm
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// deviceLineWidth converts the user-space line width to device pixels,
// keeping a minimum so hairlines (width 0) stay visible.
func (st *contentState) deviceLineWidth() float64 {
	m := &st.ctm
	det := m[0]*m[3] - m[1]*m[2]
	w := st.lineWidth * math.Sqrt(math.Abs(det))
	if w < hairlineWidth {
		w = hairlineWidth
	}
	return w
}

// hairlineWidth is the device line width used for zero-width strokes.
const hairlineWidth = 0.75

// beginIfNeeded starts a fresh canvas path before the first
// path-construction operator after a painting operator.
func (st *contentState) beginIfNeeded(ctx context.Context) error {
	if st.inPath {
		return nil
	}
	st.inPath = true
	return st.canvas.BeginPath(ctx)
}

// do executes one content stream operator with its numeric operands.
// Operators with missing operands or outside the handled subset are
// skipped silently.
func (st *contentState) do(ctx context.Context, op string, nums []float64) error {
	n := len(nums)
	switch op {
	case "q":
		st.stack = append(st.stack, st.graphicsState)
	case "Q":
		if k := len(st.stack); k > 0 {
			st.graphicsState = st.stack[k-1]
			st.stack = st.stack[:k-1]
		}
	case "cm":
		if n >= 6 {
			m := matrix.Matrix{nums[0], nums[1], nums[2], nums[3], nums[4], nums[5]}
			st.ctm = concat(m, st.ctm)
		}
	case "w":
		if n >= 1 {
			st.lineWidth = nums[0]
		}

	case "m":
		if n >= 2 {
			if err := st.beginIfNeeded(ctx); err != nil {
				return err
			}
			st.cur = [2]float64{nums[0], nums[1]}
			st.start = st.cur
			dx, dy := st.apply(nums[0], nums[1])
			return st.canvas.MoveTo(ctx, dx, dy)
		}
	case "l":
		if n >= 2 && st.inPath {
			st.cur = [2]float64{nums[0], nums[1]}
			dx, dy := st.apply(nums[0], nums[1])
			return st.canvas.LineTo(ctx, dx, dy)
		}
	case "c":
		if n >= 6 && st.inPath {
			return st.curveTo(ctx, nums[0], nums[1], nums[2], nums[3], nums[4], nums[5])
		}
	case "v":
		// first control point coincides with the current point
		if n >= 4 && st.inPath {
			return st.curveTo(ctx, st.cur[0], st.cur[1], nums[0], nums[1], nums[2], nums[3])
		}
	case "y":
		// second control point coincides with the endpoint
		if n >= 4 && st.inPath {
			return st.curveTo(ctx, nums[0], nums[1], nums[2], nums[3], nums[2], nums[3])
		}
	case "re":
		if n >= 4 {
			if err := st.beginIfNeeded(ctx); err != nil {
				return err
			}
			return st.rect(ctx, nums[0], nums[1], nums[2], nums[3])
		}
	case "h":
		if st.inPath {
			st.cur = st.start
			return st.canvas.ClosePath(ctx)
		}

	case "S":
		return st.strokePath(ctx, false)
	case "s":
		return st.strokePath(ctx, true)
	case "f", "F", "b", "B":
		// B and b should additionally stroke; for the wireframe backdrop
		// the fill alone is close enough
		return st.fillPath(ctx, raster.NonZero)
	case "f*", "b*", "B*":
		return st.fillPath(ctx, raster.EvenOdd)
	case "n":
		// end the path without painting
		st.inPath = false
		return st.canvas.BeginPath(ctx)
	case "W", "W*":
		// clipping is not supported; the path is still consumed by the
		// following painting operator

	case "g":
		if n >= 1 {
			st.fillColor = grayColor(nums[0])
		}
	case "G":
		if n >= 1 {
			st.strokeColor = grayColor(nums[0])
		}
	case "rg":
		if n >= 3 {
			st.fillColor = rgbColor(nums[0], nums[1], nums[2])
		}
	case "RG":
		if n >= 3 {
			st.strokeColor = rgbColor(nums[0], nums[1], nums[2])
		}
	case "k":
		if n >= 4 {
			st.fillColor = cmykColor(nums[0], nums[1], nums[2], nums[3])
		}
	case "K":
		if n >= 4 {
			st.strokeColor = cmykColor(nums[0], nums[1], nums[2], nums[3])
		}
	}
	return nil
}

func (st *contentState) curveTo(ctx context.Context, x1, y1, x2, y2, x3, y3 float64) error {
	st.cur = [2]float64{x3, y3}
	dx1, dy1 := st.apply(x1, y1)
	dx2, dy2 := st.apply(x2, y2)
	dx3, dy3 := st.apply(x3, y3)
	return st.canvas.CurveTo(ctx, dx1, dy1, dx2, dy2, dx3, dy3)
}

// rect appends the four transformed corners of a user-space rectangle.
// Under a rotated or sheared CTM the result is a parallelogram, so the
// corners are emitted explicitly rather than through Canvas.Rect.
func (st *contentState) rect(ctx context.Context, x, y, w, h float64) error {
	st.cur = [2]float64{x, y}
	st.start = st.cur

	x0, y0 := st.apply(x, y)
	x1, y1 := st.apply(x+w, y)
	x2, y2 := st.apply(x+w, y+h)
	x3, y3 := st.apply(x, y+h)

	if err := st.canvas.MoveTo(ctx, x0, y0); err != nil {
		return err
	}
	if err := st.canvas.LineTo(ctx, x1, y1); err != nil {
		return err
	}
	if err := st.canvas.LineTo(ctx, x2, y2); err != nil {
		return err
	}
	if err := st.canvas.LineTo(ctx, x3, y3); err != nil {
		return err
	}
	return st.canvas.ClosePath(ctx)
}

func (st *contentState) strokePath(ctx context.Context, closeFirst bool) error {
	if !st.inPath {
		return nil
	}
	st.inPath = false

	if closeFirst {
		if err := st.canvas.ClosePath(ctx); err != nil {
			return err
		}
	}
	if err := st.canvas.SetStrokeColor(ctx, st.strokeColor); err != nil {
		return err
	}
	if err := st.canvas.SetLineWidth(ctx, st.deviceLineWidth()); err != nil {
		return err
	}
	return st.canvas.Stroke(ctx)
}

func (st *contentState) fillPath(ctx context.Context, rule raster.FillRule) error {
	if !st.inPath {
		return nil
	}
	st.inPath = false

	if err := st.canvas.SetFillColor(ctx, st.fillColor); err != nil {
		return err
	}
	return st.canvas.Fill(ctx, rule)
}

// concat returns the matrix that applies a first, then b.
func concat(a, b matrix.Matrix) matrix.Matrix {
	return matrix.Matrix{
		a[0]*b[0] + a[1]*b[2],
		a[0]*b[1] + a[1]*b[3],
		a[2]*b[0] + a[3]*b[2],
		a[2]*b[1] + a[3]*b[3],
		a[4]*b[0] + a[5]*b[2] + b[4],
		a[4]*b[1] + a[5]*b[3] + b[5],
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func grayColor(v float64) color.Color {
	return color.Gray{Y: uint8(clamp01(v)*255 + 0.5)}
}

func rgbColor(r, g, b float64) color.Color {
	return color.NRGBA{
		R: uint8(clamp01(r)*255 + 0.5),
		G: uint8(clamp01(g)*255 + 0.5),
		B: uint8(clamp01(b)*255 + 0.5),
		A: 255,
	}
}

func cmykColor(c, m, y, k float64) color.Color {
	return color.CMYK{
		C: uint8(clamp01(c)*255 + 0.5),
		M: uint8(clamp01(m)*255 + 0.5),
		Y: uint8(clamp01(y)*255 + 0.5),
		K: uint8(clamp01(k)*255 + 0.5),
	}
}

// token kinds produced by the tokenizer.
type tokenKind int

const (
	tokNumber tokenKind = iota
	tokOperator
	tokName
	tokString
	tokDelim
)

type token struct {
	kind tokenKind
	num  float64
	text string
}

// tokenizer splits a content stream into numbers, operators, names,
// strings and structural delimiters. It understands just enough of the
// PDF syntax to walk past the tokens the renderer does not use.
type tokenizer struct {
	r *bufio.Reader
}

func newTokenizer(r io.Reader) *tokenizer {
	return &tokenizer{r: bufio.NewReader(r)}
}

func isSpace(b byte) bool {
	switch b {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelim(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isRegular(b byte) bool {
	return !isSpace(b) && !isDelim(b)
}

// next returns the next token, or io.EOF at the end of the stream.
func (t *tokenizer) next() (token, error) {
	b, err := t.skipSpace()
	if err != nil {
		return token{}, err
	}

	switch {
	case b == '(':
		s, err := t.readLiteralString()
		return token{kind: tokString, text: s}, err

	case b == '<':
		nb, err := t.r.ReadByte()
		if err != nil {
			return token{}, err
		}
		if nb == '<' {
			return token{kind: tokDelim, text: "<<"}, nil
		}
		if err := t.r.UnreadByte(); err != nil {
			return token{}, err
		}
		s, err := t.readHexString()
		return token{kind: tokString, text: s}, err

	case b == '>':
		nb, err := t.r.ReadByte()
		if err == nil && nb != '>' {
			err = t.r.UnreadByte()
		}
		return token{kind: tokDelim, text: ">>"}, err

	case b == '[' || b == ']' || b == '{' || b == '}':
		return token{kind: tokDelim, text: string(b)}, nil

	case b == '/':
		s, err := t.readRegular(nil)
		return token{kind: tokName, text: string(s)}, err

	case b >= '0' && b <= '9' || b == '+' || b == '-' || b == '.':
		buf, err := t.readRegular([]byte{b})
		if err != nil {
			return token{}, err
		}
		num, perr := strconv.ParseFloat(string(buf), 64)
		if perr != nil {
			// malformed number, treat as an (unknown) operator
			return token{kind: tokOperator, text: string(buf)}, nil
		}
		return token{kind: tokNumber, num: num}, nil

	default:
		buf, err := t.readRegular([]byte{b})
		if err != nil {
			return token{}, err
		}
		return token{kind: tokOperator, text: string(buf)}, nil
	}
}

// skipSpace skips whitespace and comments and returns the first byte of
// the next token.
func (t *tokenizer) skipSpace() (byte, error) {
	for {
		b, err := t.r.ReadByte()
		if err != nil {
			return 0, err
		}
		if isSpace(b) {
			continue
		}
		if b == '%' {
			for {
				b, err = t.r.ReadByte()
				if err != nil {
					return 0, err
				}
				if b == '\n' || b == '\r' {
					break
				}
			}
			continue
		}
		return b, nil
	}
}

// readRegular reads a run of regular characters, appending to buf.
func (t *tokenizer) readRegular(buf []byte) ([]byte, error) {
	for {
		b, err := t.r.ReadByte()
		if err == io.EOF {
			return buf, nil
		}
		if err != nil {
			return nil, err
		}
		if !isRegular(b) {
			return buf, t.r.UnreadByte()
		}
		buf = append(buf, b)
	}
}

// readLiteralString consumes a (...) string with balanced parentheses
// and backslash escapes. The content is not interpreted; the renderer
// only needs to skip it safely.
func (t *tokenizer) readLiteralString() (string, error) {
	var buf []byte
	depth := 1
	for {
		b, err := t.r.ReadByte()
		if err != nil {
			return "", err
		}
		switch b {
		case '\\':
			esc, err := t.r.ReadByte()
			if err != nil {
				return "", err
			}
			buf = append(buf, b, esc)
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return string(buf), nil
			}
		}
		buf = append(buf, b)
	}
}

// readHexString consumes a <...> hex string.
func (t *tokenizer) readHexString() (string, error) {
	var buf []byte
	for {
		b, err := t.r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '>' {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
}

// skipInlineImage consumes everything up to and including the EI
// operator that ends an inline image. The image data is binary, so the
// normal tokenizer cannot be used; the data ends at "EI" preceded by
// whitespace.
func (t *tokenizer) skipInlineImage() error {
	prevSpace := true
	for {
		b, err := t.r.ReadByte()
		if err != nil {
			return err
		}
		if prevSpace && b == 'E' {
			nb, err := t.r.ReadByte()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if nb == 'I' {
				fb, err := t.r.ReadByte()
				if err == io.EOF || isSpace(fb) {
					return nil
				}
				if err != nil {
					return err
				}
			}
			prevSpace = false
			continue
		}
		prevSpace = isSpace(b)
	}
}
