package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

// kittyChunkSize is the maximum number of base64 bytes per Kitty protocol chunk.
const kittyChunkSize = 4096

// ErrEmptyImage is returned for an image with no pixels.
var ErrEmptyImage = errors.New("render: empty image")

// Options controls how an image is placed in the terminal.
type Options struct {
	// Protocol to use. ProtocolAuto detects it.
	Protocol Protocol
	// Cols and Rows bound the image in terminal cells.
	Cols int
	Rows int
}

// Result is the rendered escape sequence and the protocol that produced it.
type Result struct {
	Output   string
	Protocol Protocol
}

// Image renders img for the terminal.
func Image(img image.Image, opts Options) (Result, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return Result{}, ErrEmptyImage
	}
	if opts.Cols <= 0 {
		opts.Cols = 80
	}
	if opts.Rows <= 0 {
		opts.Rows = 24
	}
	p := opts.Protocol
	if p == ProtocolAuto {
		p = DetectProtocol()
	}

	var (
		out string
		err error
	)
	switch p {
	case ProtocolKitty:
		out, err = renderKitty(img, opts.Cols, opts.Rows)
	case ProtocolITerm2:
		out, err = renderITerm2(img, opts.Cols, opts.Rows)
	default:
		p = ProtocolUnicode
		out = renderUnicode(img, opts.Cols, opts.Rows)
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Output: out, Protocol: p}, nil
}

func encodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("render: encode png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// renderKitty transmits the PNG with the Kitty Graphics Protocol, split into
// chunks; m=1 marks every chunk but the last.
func renderKitty(img image.Image, cols, rows int) (string, error) {
	encoded, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 0; i < len(encoded); i += kittyChunkSize {
		end := min(i+kittyChunkSize, len(encoded))
		more := 0
		if end < len(encoded) {
			more = 1
		}
		if i == 0 {
			fmt.Fprintf(&b, "\033_Gf=100,a=T,t=d,c=%d,r=%d,m=%d;%s\033\\", cols, rows, more, encoded[i:end])
		} else {
			fmt.Fprintf(&b, "\033_Gm=%d;%s\033\\", more, encoded[i:end])
		}
	}
	return b.String(), nil
}

// renderITerm2 sends the PNG as an OSC 1337 inline file.
func renderITerm2(img image.Image, cols, rows int) (string, error) {
	encoded, err := encodePNG(img)
	if err != nil {
		return "", err
	}
	args := fmt.Sprintf("name=host-pulse.png;width=%d;height=%d;preserveAspectRatio=1;inline=1", cols, rows)
	return fmt.Sprintf("\033]1337;File=%s:%s\007", args, encoded), nil
}

// renderUnicode resizes img to fit cols x 2*rows pixels and draws each pair
// of pixel rows as one line of upper half-blocks: foreground is the top
// pixel, background the bottom one.
func renderUnicode(img image.Image, cols, rows int) string {
	resized := imaging.Fit(img, cols, rows*2, imaging.Lanczos)
	bounds := resized.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var b strings.Builder
	for y := 0; y < h; y += 2 {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < w; x++ {
			tr, tg, tb := rgb(resized.At(bounds.Min.X+x, bounds.Min.Y+y))
			var br, bg, bb uint8
			if y+1 < h {
				br, bg, bb = rgb(resized.At(bounds.Min.X+x, bounds.Min.Y+y+1))
			}
			fmt.Fprintf(&b, "\033[38;2;%d;%d;%dm\033[48;2;%d;%d;%dm▀", tr, tg, tb, br, bg, bb)
		}
		b.WriteString("\033[0m")
	}
	return b.String()
}

func rgb(c color.Color) (r, g, b uint8) {
	r32, g32, b32, _ := c.RGBA()
	return uint8(r32 >> 8), uint8(g32 >> 8), uint8(b32 >> 8)
}
