package domain

import (
	"encoding/base64"
	"time"
)

// Format is the encoding of a rendered artifact.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Valid reports whether f is a supported output format.
func (f Format) Valid() bool {
	return f == FormatPNG || f == FormatSVG
}

// Artifact is a rendered image produced by the external encoder.
type Artifact struct {
	Data        []byte    `json:"data"`
	Format      Format    `json:"format"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// DataURL returns the artifact as an inline data: URL.
func (a Artifact) DataURL() string {
	return "data:" + a.Format.ContentType() + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}
