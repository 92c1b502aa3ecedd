// Package compose renders final banner artifacts: it scales generated images
// to the target resolution, overlays marketing copy with a drop shadow, and
// produces placeholder art when a source image is missing.
package compose

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const titleWrapWidth = 20

var (
	textColor   = color.RGBA{255, 255, 255, 255}
	shadowColor = color.RGBA{0, 0, 0, 255}
)

// Banner scales the source image to width x height and overlays the title and
// subtitle. An undecodable source is replaced with neutral placeholder art
// instead of failing the variant.
func Banner(source []byte, title, subtitle string, width, height int) ([]byte, error) {
	var canvas *image.RGBA
	src, _, err := image.Decode(bytes.NewReader(source))
	if err != nil {
		canvas = placeholderCanvas(width, height, "source image unavailable")
	} else {
		canvas = image.NewRGBA(image.Rect(0, 0, width, height))
		xdraw.CatmullRom.Scale(canvas, canvas.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	}

	lines := wrap(title, titleWrapWidth)
	if subtitle = strings.TrimSpace(subtitle); subtitle != "" {
		lines = append(lines, "", subtitle)
	}
	overlay(canvas, lines, 70, 50)

	return encodePNG(canvas)
}

// Placeholder renders a neutral image carrying the given diagnostic lines.
func Placeholder(width, height int, lines ...string) ([]byte, error) {
	canvas := placeholderCanvas(width, height, lines...)
	overlay(canvas, lines, 50, 50)
	return encodePNG(canvas)
}

func placeholderCanvas(width, height int, lines ...string) *image.RGBA {
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 1024
	}
	// Tint derived from the diagnostic text so repeated placeholders for the
	// same failure look alike.
	h := fnv.New32a()
	for _, line := range lines {
		_, _ = h.Write([]byte(line))
	}
	tint := uint8(50 + h.Sum32()%100)

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.RGBA{tint, tint, 220, 255}), image.Point{}, draw.Src)
	return canvas
}

// overlay draws the lines at the given margin with an offset shadow for
// legibility against arbitrary backgrounds.
func overlay(canvas *image.RGBA, lines []string, marginX, marginY int) {
	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil() + 6

	y := marginY + face.Metrics().Ascent.Ceil()
	for _, line := range lines {
		if line != "" {
			for _, offset := range []image.Point{{2, 2}, {-2, 2}, {2, -2}, {-2, -2}} {
				drawString(canvas, face, line, marginX+offset.X, y+offset.Y, shadowColor)
			}
			drawString(canvas, face, line, marginX, y, textColor)
		}
		y += lineHeight
	}
}

func drawString(dst *image.RGBA, face font.Face, s string, x, y int, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current += " " + word
	}
	return append(lines, current)
}

func encodePNG(img image.Image) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("compose: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
