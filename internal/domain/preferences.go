package domain

// Theme is the UI color scheme preference.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// Preferences holds client-side presentation choices.
type Preferences struct {
	Theme                Theme  `json:"theme" validate:"oneof=system light dark"`
	DefaultFormat        Format `json:"defaultFormat" validate:"oneof=png svg"`
	ShowSuspicionDetails bool   `json:"showSuspicionDetails"`
	AutoDownload         bool   `json:"autoDownload"`
}

// DefaultPreferences returns the field-level defaults.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:                ThemeSystem,
		DefaultFormat:        FormatPNG,
		ShowSuspicionDetails: true,
		AutoDownload:         false,
	}
}

// PreferencesPatch is a partial Preferences update.
type PreferencesPatch struct {
	Theme                *Theme  `json:"theme,omitempty" validate:"omitempty,oneof=system light dark"`
	DefaultFormat        *Format `json:"defaultFormat,omitempty" validate:"omitempty,oneof=png svg"`
	ShowSuspicionDetails *bool   `json:"showSuspicionDetails,omitempty"`
	AutoDownload         *bool   `json:"autoDownload,omitempty"`
}

// Apply returns p with every non-nil field of patch written over it.
func (p Preferences) Apply(patch *PreferencesPatch) Preferences {
	if patch == nil {
		return p
	}
	if patch.Theme != nil {
		p.Theme = *patch.Theme
	}
	if patch.DefaultFormat != nil {
		p.DefaultFormat = *patch.DefaultFormat
	}
	if patch.ShowSuspicionDetails != nil {
		p.ShowSuspicionDetails = *patch.ShowSuspicionDetails
	}
	if patch.AutoDownload != nil {
		p.AutoDownload = *patch.AutoDownload
	}
	return p
}
