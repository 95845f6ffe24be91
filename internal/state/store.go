// Package state reads, writes and merges the client-held persisted state.
//
// The blob is the base64url (unpadded) encoding of the JSON document, so it
// can travel in a cookie as is. Its encoded length never exceeds MaxBytes.
package state

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MrSnakeDoc/profileqr/internal/domain"
	"github.com/MrSnakeDoc/profileqr/internal/validation"
)

const (
	// DefaultMaxBytes keeps the cookie under the 4 KiB browser limit with
	// room for its name and attributes.
	DefaultMaxBytes = 3900
	// UsageCountCeiling is the clamp applied to usageCount on overflow.
	UsageCountCeiling = 999

	StaleStateAge      = 90 * 24 * time.Hour
	StaleIdentifierAge = 7 * 24 * time.Hour
	IdentifierMaxAge   = 30 * 24 * time.Hour
)

// Warning codes
const (
	WarnStaleState      = "stale_state"
	WarnStaleIdentifier = "stale_identifier"
)

// CodeTooLarge is reported when a state cannot be shrunk under the ceiling.
const CodeTooLarge = "too_large"

// Warning is a non-fatal observation about a valid state.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TooLargeError is returned by Write when sanitization could not bring the
// encoded state under the ceiling. Nothing is written.
type TooLargeError struct {
	Size int
	Max  int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("state is %d bytes after sanitization, limit is %d", e.Size, e.Max)
}

// Code returns CodeTooLarge.
func (e *TooLargeError) Code() string { return CodeTooLarge }

// Options configures a Store.
type Options struct {
	MaxBytes int
	Now      func() time.Time
	Cookie   CookieOptions
}

// Store is stateless apart from its options; the state itself lives with the client.
type Store struct {
	maxBytes int
	now      func() time.Time
	cookie   CookieOptions
}

// New returns a store with defaults applied. MaxBytes never exceeds
// DefaultMaxBytes.
func New(opts Options) *Store {
	if opts.MaxBytes <= 0 || opts.MaxBytes > DefaultMaxBytes {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		maxBytes: opts.MaxBytes,
		now:      opts.Now,
		cookie:   opts.Cookie.withDefaults(),
	}
}

// MaxBytes returns the configured ceiling.
func (s *Store) MaxBytes() int { return s.maxBytes }

// ReadResult is the outcome of Read. State is nil on first run and on corruption.
type ReadResult struct {
	State       *domain.PersistedState `json:"state,omitempty"`
	Errors      validation.Errors      `json:"errors,omitempty"`
	Warnings    []Warning              `json:"warnings,omitempty"`
	ShouldReset bool                   `json:"shouldReset"`
}

// Read decodes and validates blob. An empty blob is the first-run case and
// is not an error. Any decode or validation failure sets ShouldReset and
// returns no state. A valid state matching the cleanup predicate is returned
// with ShouldReset set so the caller can discard it.
func (s *Store) Read(blob string) ReadResult {
	blob = strings.TrimSpace(blob)
	if blob == "" {
		return ReadResult{}
	}

	st, err := decode(blob)
	if err != nil {
		return ReadResult{
			Errors:      validation.Errors{{Message: err.Error(), Code: validation.CodeInvalidType}},
			ShouldReset: true,
		}
	}

	if errs := validation.PersistedState(st); len(errs) > 0 {
		return ReadResult{Errors: errs, ShouldReset: true}
	}

	now := s.now()
	return ReadResult{
		State:       st,
		Warnings:    s.warnings(st, now),
		ShouldReset: needsCleanup(st, now),
	}
}

func (s *Store) warnings(st *domain.PersistedState, now time.Time) []Warning {
	var out []Warning
	if now.Sub(st.CreatedAt) > StaleStateAge {
		out = append(out, Warning{
			Code:    WarnStaleState,
			Message: "saved state is older than 90 days",
		})
	}
	if rec := st.IdentifierRecord; rec != nil && now.Sub(rec.ValidatedAt) > StaleIdentifierAge {
		out = append(out, Warning{
			Code:    WarnStaleIdentifier,
			Message: "profile URL was last validated more than 7 days ago",
		})
	}
	return out
}

// NeedsCleanup reports whether st must be discarded rather than used.
func (s *Store) NeedsCleanup(st *domain.PersistedState) bool {
	return needsCleanup(st, s.now())
}

func needsCleanup(st *domain.PersistedState, now time.Time) bool {
	if st == nil {
		return false
	}
	if st.Version != domain.StateVersion {
		return true
	}
	if now.Sub(st.CreatedAt) > StaleStateAge {
		return true
	}
	if rec := st.IdentifierRecord; rec != nil && now.Sub(rec.ValidatedAt) > IdentifierMaxAge {
		return true
	}
	return false
}

// WriteOptions overrides Store defaults for one Write.
type WriteOptions struct {
	MaxBytes int
}

// WriteResult is the outcome of a successful Write.
type WriteResult struct {
	Value     string
	Bytes     int
	Sanitized bool
	Dropped   []string
	State     *domain.PersistedState
}

// Write sanitizes st until its encoding fits the ceiling, validates the
// result and returns the encoded value. Sanitization only runs on overflow:
// first usageCount is clamped, then rendererConfig and preferences are
// dropped. st itself is never modified.
func (s *Store) Write(st *domain.PersistedState, opts WriteOptions) (WriteResult, error) {
	if st == nil {
		return WriteResult{}, validation.Errors{{Message: "state is missing", Code: validation.CodeInvalidType}}
	}
	limit := opts.MaxBytes
	if limit <= 0 || limit > s.maxBytes {
		limit = s.maxBytes
	}

	out := st.Clone()
	res := WriteResult{}

	value, err := encode(out)
	if err != nil {
		return WriteResult{}, err
	}

	if len(value) > limit {
		if rec := out.IdentifierRecord; rec != nil && rec.UsageCount > UsageCountCeiling {
			rec.UsageCount = UsageCountCeiling
			res.Sanitized = true
			if value, err = encode(out); err != nil {
				return WriteResult{}, err
			}
		}
	}

	if len(value) > limit && (out.RendererConfig != nil || out.Preferences != nil) {
		if out.RendererConfig != nil {
			out.RendererConfig = nil
			res.Dropped = append(res.Dropped, "rendererConfig")
		}
		if out.Preferences != nil {
			out.Preferences = nil
			res.Dropped = append(res.Dropped, "preferences")
		}
		res.Sanitized = true
		if value, err = encode(out); err != nil {
			return WriteResult{}, err
		}
	}

	if len(value) > limit {
		return WriteResult{}, &TooLargeError{Size: len(value), Max: limit}
	}

	if errs := validation.PersistedState(out); len(errs) > 0 {
		return WriteResult{}, errs
	}

	res.Value = value
	res.Bytes = len(value)
	res.State = out
	return res, nil
}

func encode(st *domain.PersistedState) (string, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

var errTrailingData = errors.New("unexpected data after state document")

func decode(blob string) (*domain.PersistedState, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(blob, "="))
	if err != nil {
		return nil, fmt.Errorf("state is not valid base64url: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var st domain.PersistedState
	if err := dec.Decode(&st); err != nil {
		return nil, fmt.Errorf("state is not valid JSON: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	return &st, nil
}
