package state

import (
	"github.com/MrSnakeDoc/profileqr/internal/domain"
)

// Update is a partial state change. Nil fields are left untouched.
type Update struct {
	// IdentifierURL must already be canonical.
	IdentifierURL  *string
	RendererConfig *domain.RendererConfigPatch
	Preferences    *domain.PreferencesPatch
}

// Merge applies u over existing and returns a new state. existing may be nil
// (first submission) and is never modified.
//
// Resubmitting the same identifier bumps its usageCount; a different one
// starts a fresh record at 1. Config and preferences are merged field by
// field over defaults, so fields absent from u keep their previous values.
func (s *Store) Merge(existing *domain.PersistedState, u Update) *domain.PersistedState {
	now := s.now().UTC()

	out := existing.Clone()
	if out == nil {
		out = &domain.PersistedState{CreatedAt: now}
	}
	out.Version = domain.StateVersion

	if u.IdentifierURL != nil {
		url := *u.IdentifierURL
		if rec := out.IdentifierRecord; rec != nil && rec.URL == url {
			rec.UsageCount++
			rec.ValidatedAt = now
			rec.LastUsedAt = now
		} else {
			out.IdentifierRecord = &domain.IdentifierRecord{
				URL:         url,
				ValidatedAt: now,
				LastUsedAt:  now,
				UsageCount:  1,
			}
		}
	}

	if u.RendererConfig != nil {
		base := domain.DefaultRendererConfig()
		if out.RendererConfig != nil {
			base = *out.RendererConfig
		}
		merged := base.Apply(u.RendererConfig)
		out.RendererConfig = &merged
	}

	if u.Preferences != nil {
		base := domain.DefaultPreferences()
		if out.Preferences != nil {
			base = *out.Preferences
		}
		merged := base.Apply(u.Preferences)
		out.Preferences = &merged
	}

	out.UpdatedAt = now
	if out.UpdatedAt.Before(out.CreatedAt) {
		out.UpdatedAt = out.CreatedAt
	}
	return out
}
