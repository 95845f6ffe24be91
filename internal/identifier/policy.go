package identifier

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Weights assigns a score to each suspicion indicator.
type Weights struct {
	TrackingParams int `yaml:"tracking_params"`
	UnusualParams  int `yaml:"unusual_params"`
	ShortUsername  int `yaml:"short_username"`
	UnusualFormat  int `yaml:"unusual_format"`
}

// Policy is the heuristic risk table. The defaults are policy, not law:
// deployments may override them with a YAML file.
type Policy struct {
	Weights         Weights `yaml:"weights"`
	MediumThreshold int     `yaml:"medium_threshold"` // score >= this is medium
	HighThreshold   int     `yaml:"high_threshold"`   // score >= this is high
}

// DefaultPolicy returns the built-in weights (20/30/25/35) and thresholds (25/50).
func DefaultPolicy() Policy {
	return Policy{
		Weights: Weights{
			TrackingParams: 20,
			UnusualParams:  30,
			ShortUsername:  25,
			UnusualFormat:  35,
		},
		MediumThreshold: 25,
		HighThreshold:   50,
	}
}

// Validate checks that weights are non-negative and thresholds are ordered.
func (p Policy) Validate() error {
	w := p.Weights
	if w.TrackingParams < 0 || w.UnusualParams < 0 || w.ShortUsername < 0 || w.UnusualFormat < 0 {
		return errors.New("risk policy weights must be >= 0")
	}
	if p.MediumThreshold <= 0 {
		return fmt.Errorf("medium_threshold must be > 0, got %d", p.MediumThreshold)
	}
	if p.HighThreshold <= p.MediumThreshold {
		return fmt.Errorf("high_threshold (%d) must be greater than medium_threshold (%d)",
			p.HighThreshold, p.MediumThreshold)
	}
	return nil
}

// Level maps a score to a risk level.
func (p Policy) Level(score int) RiskLevel {
	switch {
	case score >= p.HighThreshold:
		return RiskHigh
	case score >= p.MediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// LoadPolicy reads a YAML policy file. Fields missing from the file keep
// their default values.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read risk policy file: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes a YAML policy over the defaults and validates it.
func ParsePolicy(data []byte) (Policy, error) {
	policy := DefaultPolicy()
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, fmt.Errorf("failed to parse risk policy yaml: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return Policy{}, fmt.Errorf("invalid risk policy: %w", err)
	}
	return policy, nil
}
