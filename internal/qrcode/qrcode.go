// Package qrcode renders registration QR codes for events.
package qrcode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	goqr "github.com/skip2/go-qrcode"
)

const (
	moduleSize = 10
	margin     = 20
	dir        = "qr_codes"
)

type Generator struct {
	mediaDir string
	baseURL  string
}

func NewGenerator(mediaDir, publicBaseURL string) *Generator {
	return &Generator{mediaDir: mediaDir, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

// RegistrationURL is the public registration page of an event.
func (g *Generator) RegistrationURL(eventID int64) string {
	return fmt.Sprintf("%s/register/%d/", g.baseURL, eventID)
}

// RelPath is the stored location of an event's code, relative to the media dir.
func RelPath(eventID int64) string {
	return filepath.Join(dir, fmt.Sprintf("qr_event_%d.png", eventID))
}

// Render encodes content as a PNG with a white border of margin pixels.
func Render(content string) ([]byte, error) {
	qr, err := goqr.New(content, goqr.Low)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	qr.DisableBorder = true

	bitmap := qr.Bitmap()
	side := len(bitmap)*moduleSize + 2*margin
	img := image.NewGray(image.Rect(0, 0, side, side))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	black := &image.Uniform{C: color.Black}
	for y, row := range bitmap {
		for x, on := range row {
			if !on {
				continue
			}
			r := image.Rect(margin+x*moduleSize, margin+y*moduleSize, margin+(x+1)*moduleSize, margin+(y+1)*moduleSize)
			draw.Draw(img, r, black, image.Point{}, draw.Src)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Generate writes the event's QR code and returns its relative path.
func (g *Generator) Generate(eventID int64) (string, error) {
	data, err := Render(g.RegistrationURL(eventID))
	if err != nil {
		return "", err
	}

	rel := RelPath(eventID)
	full := filepath.Join(g.mediaDir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create qr dir: %w", err)
	}

	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write qr: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		return "", fmt.Errorf("write qr: %w", err)
	}
	return rel, nil
}
