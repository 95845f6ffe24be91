package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/profileqr/internal/cache"
	"github.com/MrSnakeDoc/profileqr/internal/domain"
	"github.com/MrSnakeDoc/profileqr/internal/generate"
	"github.com/MrSnakeDoc/profileqr/internal/httpserver/deps"
	"github.com/MrSnakeDoc/profileqr/internal/validation"
)

// QRImage streams a raw PNG or SVG. Render options come from the query
// string (content, size, ecl, margin, dark, light). The ETag is the cache
// key, so a matching If-None-Match is answered without rendering.
func QRImage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := domain.Format(chi.URLParam(r, "format"))

		req, errs := imageRequest(r, format)
		if len(errs) == 0 {
			errs = validation.GenerationRequest(req.Content, req.Config, req.Format)
		}
		if len(errs) > 0 {
			writeServiceError(w, d, errs)
			return
		}

		etag := `"` + cache.Key(req.Content, domain.ResolveRendererConfig(req.Config), format) + `"`
		if match := r.Header.Get("If-None-Match"); match != "" && etagMatches(match, etag) {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return
		}

		resp, err := d.Generator.Generate(r.Context(), req)
		if err != nil {
			writeServiceError(w, d, err)
			return
		}

		w.Header().Set("Content-Type", resp.Raw.Format.ContentType())
		w.Header().Set("Content-Length", strconv.Itoa(len(resp.Raw.Data)))
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("X-Cache", cacheStatus(resp))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(resp.Raw.Data)
	}
}

func imageRequest(r *http.Request, format domain.Format) (generate.Request, validation.Errors) {
	q := r.URL.Query()
	req := generate.Request{Content: q.Get("content"), Format: format}

	var (
		patch domain.RendererConfigPatch
		set   bool
		errs  validation.Errors
	)
	intParam := func(name string) *int {
		raw := q.Get(name)
		if raw == "" {
			return nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, validation.FieldError{
				Message: "must be an integer",
				Path:    "config." + name,
				Code:    validation.CodeInvalidType,
			})
			return nil
		}
		set = true
		return &v
	}
	patch.Size = intParam("size")
	patch.Margin = intParam("margin")

	if v := q.Get("ecl"); v != "" {
		ecl := domain.ErrorCorrectionLevel(strings.ToUpper(v))
		patch.ErrorCorrectionLevel = &ecl
		set = true
	}
	dark, light := q.Get("dark"), q.Get("light")
	if dark != "" || light != "" {
		patch.Colors = &domain.ColorsPatch{}
		if dark != "" {
			patch.Colors.Dark = &dark
		}
		if light != "" {
			patch.Colors.Light = &light
		}
		set = true
	}

	if set {
		req.Config = &patch
	}
	return req, errs
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func cacheStatus(resp *generate.Response) string {
	if resp.FromCache {
		return "HIT"
	}
	return "MISS"
}
