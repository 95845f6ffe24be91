// Package render turns content into a QR artifact using the external encoder.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/MrSnakeDoc/profileqr/internal/domain"
)

// SizeError reports an image too small to give every module at least one
// pixel. Such a symbol would not scan.
type SizeError struct {
	Size    int
	Modules int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("size %d is smaller than the %d modules of the symbol", e.Size, e.Modules)
}

// Renderer wraps the QR encoder. The zero value is not usable; call New.
type Renderer struct {
	now func() time.Time
}

// New returns a renderer. now defaults to time.Now.
func New(now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{now: now}
}

// Render encodes content with cfg and returns a size x size image in format.
// It satisfies cache.RenderFunc.
func (r *Renderer) Render(ctx context.Context, content string, cfg domain.RendererConfig, format domain.Format) (domain.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return domain.Artifact{}, err
	}
	if format == "" {
		format = domain.FormatPNG
	}
	if !format.Valid() {
		return domain.Artifact{}, fmt.Errorf("unsupported format %q", format)
	}
	if cfg.Size <= 0 {
		return domain.Artifact{}, fmt.Errorf("invalid size %d", cfg.Size)
	}
	if cfg.Margin < 0 {
		return domain.Artifact{}, fmt.Errorf("invalid margin %d", cfg.Margin)
	}

	level, err := recoveryLevel(cfg.ErrorCorrectionLevel)
	if err != nil {
		return domain.Artifact{}, err
	}
	dark, err := parseHex(cfg.Colors.Dark)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("dark color: %w", err)
	}
	light, err := parseHex(cfg.Colors.Light)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("light color: %w", err)
	}

	q, err := qrcode.New(content, level)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("encode: %w", err)
	}
	q.DisableBorder = true
	grid := withMargin(q.Bitmap(), cfg.Margin)
	if cfg.Size < len(grid) {
		return domain.Artifact{}, &SizeError{Size: cfg.Size, Modules: len(grid)}
	}

	if err := ctx.Err(); err != nil {
		return domain.Artifact{}, err
	}

	var data []byte
	switch format {
	case domain.FormatSVG:
		data = svg(grid, cfg.Size, cfg.Colors.Dark, cfg.Colors.Light)
	default:
		data, err = rasterize(grid, cfg.Size, dark, light)
		if err != nil {
			return domain.Artifact{}, err
		}
	}

	return domain.Artifact{
		Data:        data,
		Format:      format,
		Width:       cfg.Size,
		Height:      cfg.Size,
		GeneratedAt: r.now().UTC(),
	}, nil
}

func recoveryLevel(ecl domain.ErrorCorrectionLevel) (qrcode.RecoveryLevel, error) {
	switch domain.ErrorCorrectionLevel(strings.ToUpper(string(ecl))) {
	case domain.ECLLow:
		return qrcode.Low, nil
	case domain.ECLMedium, "":
		return qrcode.Medium, nil
	case domain.ECLQuartile:
		return qrcode.High, nil
	case domain.ECLHigh:
		return qrcode.Highest, nil
	}
	return 0, fmt.Errorf("unknown error correction level %q", ecl)
}

func parseHex(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("%q is not #RRGGBB", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%q is not #RRGGBB", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// withMargin surrounds the module grid with margin light modules on every side.
func withMargin(bitmap [][]bool, margin int) [][]bool {
	n := len(bitmap) + 2*margin
	out := make([][]bool, n)
	for y := range out {
		out[y] = make([]bool, n)
	}
	for y, row := range bitmap {
		copy(out[y+margin][margin:], row)
	}
	return out
}

// rasterize scales the grid to exactly size x size with nearest-neighbour sampling.
func rasterize(grid [][]bool, size int, dark, light color.RGBA) ([]byte, error) {
	modules := len(grid)
	img := image.NewPaletted(image.Rect(0, 0, size, size), color.Palette{light, dark})
	for py := 0; py < size; py++ {
		my := py * modules / size
		for px := 0; px < size; px++ {
			if grid[my][px*modules/size] {
				img.SetColorIndex(px, py, 1)
			}
		}
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}

// svg emits one path with a horizontal run per stretch of dark modules.
func svg(grid [][]bool, size int, dark, light string) []byte {
	modules := len(grid)
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`,
		size, size, modules, modules)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="%s"/>`, modules, modules, light)
	b.WriteString(`<path fill="` + dark + `" d="`)
	for y, row := range grid {
		for x := 0; x < len(row); {
			if !row[x] {
				x++
				continue
			}
			start := x
			for x < len(row) && row[x] {
				x++
			}
			fmt.Fprintf(&b, "M%d %dh%dv1h-%dz", start, y, x-start, x-start)
		}
	}
	b.WriteString(`"/></svg>`)
	return []byte(b.String())
}
