package domain

import "strings"

// ErrorCorrectionLevel is the QR recovery level requested by the client.
type ErrorCorrectionLevel string

const (
	ECLLow      ErrorCorrectionLevel = "L"
	ECLMedium   ErrorCorrectionLevel = "M"
	ECLQuartile ErrorCorrectionLevel = "Q"
	ECLHigh     ErrorCorrectionLevel = "H"
)

// Renderer bounds and defaults
const (
	MinSize    = 64
	MaxSize    = 1024
	MinMargin  = 0
	MaxMargin  = 10
	DefaultECL = ECLMedium

	DefaultSize   = 256
	DefaultMargin = 4
	DefaultDark   = "#000000"
	DefaultLight  = "#FFFFFF"
)

// Colors holds the two module colors as #RRGGBB strings.
type Colors struct {
	Dark  string `json:"dark" validate:"required,hexcolor6"`
	Light string `json:"light" validate:"required,hexcolor6"`
}

// RendererConfig is the complete set of options that affect a rendered artifact.
type RendererConfig struct {
	Size                 int                  `json:"size" validate:"min=64,max=1024"`
	ErrorCorrectionLevel ErrorCorrectionLevel `json:"errorCorrectionLevel" validate:"ecl"`
	Margin               int                  `json:"margin" validate:"min=0,max=10"`
	Colors               Colors               `json:"colors"`
}

// DefaultRendererConfig returns the field-level defaults.
func DefaultRendererConfig() RendererConfig {
	return RendererConfig{
		Size:                 DefaultSize,
		ErrorCorrectionLevel: DefaultECL,
		Margin:               DefaultMargin,
		Colors: Colors{
			Dark:  DefaultDark,
			Light: DefaultLight,
		},
	}
}

// ColorsPatch is a partial Colors update.
type ColorsPatch struct {
	Dark  *string `json:"dark,omitempty" validate:"omitempty,hexcolor6"`
	Light *string `json:"light,omitempty" validate:"omitempty,hexcolor6"`
}

// RendererConfigPatch is a partial RendererConfig. Nil fields are left untouched on merge.
type RendererConfigPatch struct {
	Size                 *int                  `json:"size,omitempty" validate:"omitempty,min=64,max=1024"`
	ErrorCorrectionLevel *ErrorCorrectionLevel `json:"errorCorrectionLevel,omitempty" validate:"omitempty,ecl"`
	Margin               *int                  `json:"margin,omitempty" validate:"omitempty,min=0,max=10"`
	Colors               *ColorsPatch          `json:"colors,omitempty"`
}

// Apply returns c with every non-nil field of p written over it.
// The receiver is not modified.
func (c RendererConfig) Apply(p *RendererConfigPatch) RendererConfig {
	if p == nil {
		return c
	}
	if p.Size != nil {
		c.Size = *p.Size
	}
	if p.ErrorCorrectionLevel != nil {
		c.ErrorCorrectionLevel = ErrorCorrectionLevel(strings.ToUpper(string(*p.ErrorCorrectionLevel)))
	}
	if p.Margin != nil {
		c.Margin = *p.Margin
	}
	if p.Colors != nil {
		if p.Colors.Dark != nil {
			c.Colors.Dark = strings.ToUpper(*p.Colors.Dark)
		}
		if p.Colors.Light != nil {
			c.Colors.Light = strings.ToUpper(*p.Colors.Light)
		}
	}
	return c
}

// ResolveRendererConfig merges p over the defaults.
func ResolveRendererConfig(p *RendererConfigPatch) RendererConfig {
	return DefaultRendererConfig().Apply(p)
}

// Patch converts a full config into a patch that sets every field.
func (c RendererConfig) Patch() *RendererConfigPatch {
	size, ecl, margin := c.Size, c.ErrorCorrectionLevel, c.Margin
	dark, light := c.Colors.Dark, c.Colors.Light
	return &RendererConfigPatch{
		Size:                 &size,
		ErrorCorrectionLevel: &ecl,
		Margin:               &margin,
		Colors:               &ColorsPatch{Dark: &dark, Light: &light},
	}
}
