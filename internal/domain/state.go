package domain

import "time"

// StateVersion is the only persisted schema version this build understands.
// Any other value is treated as corrupt; there is no migration path.
const StateVersion = 1

// IdentifierRecord is the user's last validated profile identifier.
type IdentifierRecord struct {
	// URL is always a canonical identifier (https://linkedin.com/in/<username>).
	URL string `json:"url" validate:"required,canonical_identifier"`

	// ValidatedAt is refreshed every time the identifier passes normalization.
	ValidatedAt time.Time `json:"validatedAt" validate:"required"`

	// LastUsedAt is refreshed on every submission.
	LastUsedAt time.Time `json:"lastUsedAt" validate:"required"`

	// UsageCount counts consecutive submissions of the same URL.
	// A different URL resets it to 1.
	UsageCount int `json:"usageCount" validate:"min=1"`
}

// PersistedState is the client-held, size-bounded state record.
type PersistedState struct {
	Version   int       `json:"version" validate:"required"`
	CreatedAt time.Time `json:"createdAt" validate:"required"`
	UpdatedAt time.Time `json:"updatedAt" validate:"required"`

	IdentifierRecord *IdentifierRecord `json:"identifierRecord,omitempty"`
	RendererConfig   *RendererConfig   `json:"rendererConfig,omitempty"`
	Preferences      *Preferences      `json:"preferences,omitempty"`
}

// Clone returns a deep copy of s.
func (s *PersistedState) Clone() *PersistedState {
	if s == nil {
		return nil
	}
	out := *s
	if s.IdentifierRecord != nil {
		rec := *s.IdentifierRecord
		out.IdentifierRecord = &rec
	}
	if s.RendererConfig != nil {
		cfg := *s.RendererConfig
		out.RendererConfig = &cfg
	}
	if s.Preferences != nil {
		prefs := *s.Preferences
		out.Preferences = &prefs
	}
	return &out
}
