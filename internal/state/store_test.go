package state

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MrSnakeDoc/profileqr/internal/domain"
	"github.com/MrSnakeDoc/profileqr/internal/validation"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore() (*Store, *clock) {
	clk := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	return New(Options{Now: clk.Now}), clk
}

func ptr[T any](v T) *T { return &v }

func fullState(s *Store) *domain.PersistedState {
	return s.Merge(nil, Update{
		IdentifierURL:  ptr("https://linkedin.com/in/jane-doe"),
		RendererConfig: &domain.RendererConfigPatch{Size: ptr(512)},
		Preferences:    &domain.PreferencesPatch{Theme: ptr(domain.ThemeDark)},
	})
}

func encodeRaw(t *testing.T, doc string) string {
	t.Helper()
	return base64.RawURLEncoding.EncodeToString([]byte(doc))
}

func TestReadEmptyIsFirstRun(t *testing.T) {
	s, _ := newTestStore()
	for _, blob := range []string{"", "   "} {
		res := s.Read(blob)
		if res.State != nil || res.ShouldReset || len(res.Errors) != 0 {
			t.Errorf("Read(%q) = %+v, want empty first-run result", blob, res)
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s, _ := newTestStore()
	in := fullState(s)

	w, err := s.Write(in, WriteOptions{})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if w.Sanitized || len(w.Dropped) != 0 {
		t.Errorf("small state was sanitized: %+v", w)
	}
	if w.Bytes > DefaultMaxBytes {
		t.Errorf("Write() produced %d bytes, limit %d", w.Bytes, DefaultMaxBytes)
	}

	res := s.Read(w.Value)
	if res.ShouldReset || len(res.Errors) > 0 {
		t.Fatalf("Read() = %+v, want clean read", res)
	}
	if diff := cmp.Diff(in, res.State); diff != "" {
		t.Errorf("read(write(s)) mismatch (-want +got):\n%s", diff)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("fresh state has warnings: %v", res.Warnings)
	}
}

func TestMaxBytesNeverExceedsCookieCeiling(t *testing.T) {
	if got := New(Options{MaxBytes: 4096}).MaxBytes(); got != DefaultMaxBytes {
		t.Errorf("New(4096).MaxBytes() = %d, want %d", got, DefaultMaxBytes)
	}
	if got := New(Options{MaxBytes: 1024}).MaxBytes(); got != 1024 {
		t.Errorf("New(1024).MaxBytes() = %d, want 1024", got)
	}
}

func TestWriteDoesNotMutateInput(t *testing.T) {
	s, _ := newTestStore()
	in := fullState(s)
	in.IdentifierRecord.UsageCount = 5000
	before := in.Clone()

	if _, err := s.Write(in, WriteOptions{MaxBytes: 10}); err == nil {
		t.Fatal("Write() with 10 byte ceiling should fail")
	}
	if diff := cmp.Diff(before, in); diff != "" {
		t.Errorf("Write() modified its input (-before +after):\n%s", diff)
	}
}

func TestReadCorrupt(t *testing.T) {
	s, _ := newTestStore()

	tests := []struct {
		name     string
		blob     string
		wantCode string
	}{
		{name: "not base64", blob: "%%%not-base64%%%", wantCode: validation.CodeInvalidType},
		{name: "not json", blob: encodeRaw(t, "hello"), wantCode: validation.CodeInvalidType},
		{name: "trailing data", blob: encodeRaw(t, `{"version":1,"createdAt":"2026-03-01T10:00:00Z","updatedAt":"2026-03-01T10:00:00Z"} {}`), wantCode: validation.CodeInvalidType},
		{name: "unknown field", blob: encodeRaw(t, `{"version":1,"createdAt":"2026-03-01T10:00:00Z","updatedAt":"2026-03-01T10:00:00Z","admin":true}`), wantCode: validation.CodeInvalidType},
		{name: "wrong version", blob: encodeRaw(t, `{"version":2,"createdAt":"2026-03-01T10:00:00Z","updatedAt":"2026-03-01T10:00:00Z"}`), wantCode: validation.CodeInvalidVersion},
		{name: "missing version", blob: encodeRaw(t, `{"createdAt":"2026-03-01T10:00:00Z","updatedAt":"2026-03-01T10:00:00Z"}`), wantCode: validation.CodeInvalidVersion},
		{name: "non canonical identifier", blob: encodeRaw(t, `{"version":1,"createdAt":"2026-03-01T10:00:00Z","updatedAt":"2026-03-01T10:00:00Z","identifierRecord":{"url":"https://www.linkedin.com/in/jane","validatedAt":"2026-03-01T10:00:00Z","lastUsedAt":"2026-03-01T10:00:00Z","usageCount":1}}`), wantCode: validation.CodeInvalidString},
		{name: "bad renderer size", blob: encodeRaw(t, `{"version":1,"createdAt":"2026-03-01T10:00:00Z","updatedAt":"2026-03-01T10:00:00Z","rendererConfig":{"size":10,"errorCorrectionLevel":"M","margin":4,"colors":{"dark":"#000000","light":"#FFFFFF"}}}`), wantCode: validation.CodeTooSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Read(tt.blob)
			if !res.ShouldReset {
				t.Fatal("ShouldReset = false, want true")
			}
			if res.State != nil {
				t.Errorf("State = %+v, want nil on corruption", res.State)
			}
			if !res.Errors.HasCode(tt.wantCode) {
				t.Errorf("Errors = %v, want code %s", res.Errors, tt.wantCode)
			}
		})
	}
}

func TestReadPaddedBlob(t *testing.T) {
	s, _ := newTestStore()
	w, err := s.Write(fullState(s), WriteOptions{})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	raw, _ := base64.RawURLEncoding.DecodeString(w.Value)
	padded := base64.URLEncoding.EncodeToString(raw)

	if res := s.Read(padded); res.ShouldReset {
		t.Errorf("padded blob rejected: %v", res.Errors)
	}
}

func TestReadStaleness(t *testing.T) {
	tests := []struct {
		name        string
		advance     time.Duration
		wantWarn    []string
		wantReset   bool
		wantNoState bool
	}{
		{name: "fresh", advance: time.Hour},
		{name: "identifier older than a week", advance: 8 * 24 * time.Hour, wantWarn: []string{WarnStaleIdentifier}},
		{name: "identifier older than a month", advance: 31 * 24 * time.Hour, wantWarn: []string{WarnStaleIdentifier}, wantReset: true},
		{name: "record older than 90 days", advance: 91 * 24 * time.Hour, wantWarn: []string{WarnStaleState, WarnStaleIdentifier}, wantReset: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, clk := newTestStore()
			w, err := s.Write(fullState(s), WriteOptions{})
			if err != nil {
				t.Fatalf("Write() error = %v", err)
			}

			clk.Advance(tt.advance)
			res := s.Read(w.Value)

			if res.State == nil {
				t.Fatal("valid but stale state should still be returned")
			}
			if res.ShouldReset != tt.wantReset {
				t.Errorf("ShouldReset = %v, want %v", res.ShouldReset, tt.wantReset)
			}
			var got []string
			for _, w := range res.Warnings {
				got = append(got, w.Code)
			}
			if diff := cmp.Diff(tt.wantWarn, got); diff != "" {
				t.Errorf("warnings mismatch (-want +got):\n%s", diff)
			}
			if s.NeedsCleanup(res.State) != tt.wantReset {
				t.Errorf("NeedsCleanup() disagrees with ShouldReset")
			}
		})
	}
}

func TestNeedsCleanupVersion(t *testing.T) {
	s, _ := newTestStore()
	st := fullState(s)
	st.Version = 7
	if !s.NeedsCleanup(st) {
		t.Error("NeedsCleanup() = false for foreign version")
	}
	if s.NeedsCleanup(nil) {
		t.Error("NeedsCleanup(nil) = true")
	}
}

func TestWriteTooLarge(t *testing.T) {
	s, _ := newTestStore()
	st := fullState(s)
	st.IdentifierRecord.URL = "https://linkedin.com/in/" + strings.Repeat("a", 5000-len("https://linkedin.com/in/"))

	w, err := s.Write(st, WriteOptions{})
	if err == nil {
		t.Fatalf("Write() = %+v, want too_large error", w)
	}
	var tooLarge *TooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("Write() error = %T %v, want *TooLargeError", err, err)
	}
	if tooLarge.Code() != CodeTooLarge || tooLarge.Max != DefaultMaxBytes {
		t.Errorf("TooLargeError = %+v", tooLarge)
	}
	if w.Value != "" {
		t.Error("nothing should be written on too_large")
	}
}

func TestWriteDropsConfigAndPreferences(t *testing.T) {
	s, _ := newTestStore()
	st := fullState(s)

	bare := st.Clone()
	bare.RendererConfig = nil
	bare.Preferences = nil
	bareValue, err := encode(bare)
	if err != nil {
		t.Fatal(err)
	}

	w, err := s.Write(st, WriteOptions{MaxBytes: len(bareValue)})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !w.Sanitized {
		t.Error("Sanitized = false, want true")
	}
	if diff := cmp.Diff([]string{"rendererConfig", "preferences"}, w.Dropped); diff != "" {
		t.Errorf("Dropped mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(bare, s.Read(w.Value).State); diff != "" {
		t.Errorf("sanitized state mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteClampsUsageCountFirst(t *testing.T) {
	s, _ := newTestStore()
	st := fullState(s)
	st.IdentifierRecord.UsageCount = 5000

	clamped := st.Clone()
	clamped.IdentifierRecord.UsageCount = UsageCountCeiling
	clampedValue, err := encode(clamped)
	if err != nil {
		t.Fatal(err)
	}

	w, err := s.Write(st, WriteOptions{MaxBytes: len(clampedValue)})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !w.Sanitized || len(w.Dropped) != 0 {
		t.Errorf("Write() = %+v, want clamp only", w)
	}
	if got := w.State.IdentifierRecord.UsageCount; got != UsageCountCeiling {
		t.Errorf("UsageCount = %d, want %d", got, UsageCountCeiling)
	}
	if w.State.RendererConfig == nil {
		t.Error("config dropped although clamping was enough")
	}
}

func TestWriteLargeUsageCountUnderCeilingKept(t *testing.T) {
	s, _ := newTestStore()
	st := fullState(s)
	st.IdentifierRecord.UsageCount = 5000

	w, err := s.Write(st, WriteOptions{})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if w.Sanitized {
		t.Error("state under the ceiling should not be sanitized")
	}
	if got := s.Read(w.Value).State.IdentifierRecord.UsageCount; got != 5000 {
		t.Errorf("UsageCount = %d, want 5000", got)
	}
}

func TestWriteRejectsInvalid(t *testing.T) {
	s, _ := newTestStore()
	st := fullState(s)
	st.IdentifierRecord.UsageCount = 0

	_, err := s.Write(st, WriteOptions{})
	errs, ok := validation.As(err)
	if !ok {
		t.Fatalf("Write() error = %v, want validation.Errors", err)
	}
	if !errs.HasCode(validation.CodeTooSmall) {
		t.Errorf("Errors = %v, want too_small", errs)
	}

	if _, err := s.Write(nil, WriteOptions{}); err == nil {
		t.Error("Write(nil) should fail")
	}
}

func TestCookie(t *testing.T) {
	s := New(Options{Cookie: CookieOptions{Secure: true}})

	c := s.Cookie("abc")
	if c.Name != DefaultCookieName || c.Value != "abc" || c.Path != "/" {
		t.Errorf("Cookie() = %+v", c)
	}
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Errorf("Cookie() attributes = %+v", c)
	}
	if c.MaxAge != int(StaleStateAge/time.Second) {
		t.Errorf("MaxAge = %d", c.MaxAge)
	}

	first, second := s.Clear(), s.Clear()
	if first.MaxAge != -1 || first.Value != "" {
		t.Errorf("Clear() = %+v, want deletion directive", first)
	}
	if diff := cmp.Diff(first.String(), second.String()); diff != "" {
		t.Errorf("Clear() not idempotent:\n%s", diff)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := s.FromRequest(req); got != "" {
		t.Errorf("FromRequest() without cookie = %q", got)
	}
	req.AddCookie(c)
	if got := s.FromRequest(req); got != "abc" {
		t.Errorf("FromRequest() = %q, want abc", got)
	}
}
