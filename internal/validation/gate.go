package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/MrSnakeDoc/profileqr/internal/domain"
	"github.com/MrSnakeDoc/profileqr/internal/identifier"
)

// MaxContentLength is the QR byte-mode capacity at level L, version 40.
const MaxContentLength = 2953

// contentCapacity is the version 40 byte-mode capacity per level.
var contentCapacity = map[domain.ErrorCorrectionLevel]int{
	domain.ECLLow:      2953,
	domain.ECLMedium:   2331,
	domain.ECLQuartile: 1663,
	domain.ECLHigh:     1273,
}

// ContentCapacity returns how many bytes fit in a QR symbol at ecl.
// Unknown levels fall back to the default level.
func ContentCapacity(ecl domain.ErrorCorrectionLevel) int {
	if n, ok := contentCapacity[ecl]; ok {
		return n
	}
	return contentCapacity[domain.DefaultECL]
}

// RawInput checks untrusted profile input before normalization.
func RawInput(path, raw string) Errors {
	trimmed := strings.TrimSpace(raw)
	switch {
	case trimmed == "":
		return Errors{{Message: "is required", Path: path, Code: CodeRequired}}
	case len(trimmed) > identifier.MaxInputLength:
		return Errors{{
			Message: fmt.Sprintf("must be at most %d characters", identifier.MaxInputLength),
			Path:    path,
			Code:    CodeTooBig,
		}}
	}
	return nil
}

// RendererConfig checks a complete renderer configuration.
func RendererConfig(path string, cfg domain.RendererConfig) Errors {
	return Struct(path, cfg)
}

// RendererConfigPatch checks a partial renderer configuration. A nil patch is valid.
func RendererConfigPatch(path string, p *domain.RendererConfigPatch) Errors {
	if p == nil {
		return nil
	}
	return Struct(path, p)
}

// PreferencesPatch checks a partial preferences update. A nil patch is valid.
func PreferencesPatch(path string, p *domain.PreferencesPatch) Errors {
	if p == nil {
		return nil
	}
	return Struct(path, p)
}

// Content checks the text to be encoded. Length is counted in bytes, the
// unit the encoder works in.
func Content(path, content string) Errors {
	switch {
	case content == "":
		return Errors{{Message: "is required", Path: path, Code: CodeRequired}}
	case !utf8.ValidString(content):
		return Errors{{Message: "must be valid UTF-8", Path: path, Code: CodeInvalidString}}
	case len(content) > MaxContentLength:
		return Errors{{
			Message: fmt.Sprintf("must be at most %d bytes", MaxContentLength),
			Path:    path,
			Code:    CodeTooBig,
		}}
	}
	return nil
}

// ContentFits checks content against the capacity of the resolved level.
func ContentFits(path, content string, ecl domain.ErrorCorrectionLevel) Errors {
	limit := ContentCapacity(ecl)
	if len(content) <= limit {
		return nil
	}
	return Errors{{
		Message: fmt.Sprintf("must be at most %d bytes at error correction level %s", limit, ecl),
		Path:    path,
		Code:    CodeTooBig,
	}}
}

// Format checks an output format. The empty string selects the default.
func Format(path string, f domain.Format) Errors {
	if f == "" || f.Valid() {
		return nil
	}
	return Errors{{Message: "must be one of: png svg", Path: path, Code: CodeInvalidEnum}}
}

// GenerationRequest checks content, optional partial config and format.
func GenerationRequest(content string, cfg *domain.RendererConfigPatch, format domain.Format) Errors {
	var errs Errors
	contentErrs := Content("content", content)
	cfgErrs := RendererConfigPatch("config", cfg)
	errs = append(errs, contentErrs...)
	errs = append(errs, cfgErrs...)
	if len(contentErrs) == 0 && len(cfgErrs) == 0 {
		ecl := domain.ResolveRendererConfig(cfg).ErrorCorrectionLevel
		errs = append(errs, ContentFits("content", content, ecl)...)
	}
	errs = append(errs, Format("format", format)...)
	return errs
}

// PersistedState checks a decoded state record, including the schema version.
func PersistedState(s *domain.PersistedState) Errors {
	if s == nil {
		return Errors{{Message: "state is missing", Code: CodeInvalidType}}
	}
	var errs Errors
	if s.Version != domain.StateVersion {
		errs = append(errs, FieldError{
			Message: fmt.Sprintf("unsupported version %d (want %d)", s.Version, domain.StateVersion),
			Path:    "version",
			Code:    CodeInvalidVersion,
		})
	}
	for _, fe := range Struct("", s) {
		// version mismatch is already reported above
		if fe.Path == "version" {
			continue
		}
		errs = append(errs, fe)
	}
	if s.UpdatedAt.Before(s.CreatedAt) {
		errs = append(errs, FieldError{
			Message: "must not be before createdAt",
			Path:    "updatedAt",
			Code:    CodeInvalidArgument,
		})
	}
	return errs
}
