package identifier

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPolicyLevel(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		score int
		want  RiskLevel
	}{
		{0, RiskLow},
		{24, RiskLow},
		{25, RiskMedium},
		{49, RiskMedium},
		{50, RiskHigh},
		{110, RiskHigh},
	}
	for _, tt := range tests {
		if got := p.Level(tt.score); got != tt.want {
			t.Errorf("Level(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(t *testing.T, p Policy)
	}{
		{
			name: "partial override keeps defaults",
			yaml: "weights:\n  tracking_params: 40\n",
			check: func(t *testing.T, p Policy) {
				if p.Weights.TrackingParams != 40 {
					t.Errorf("TrackingParams = %d, want 40", p.Weights.TrackingParams)
				}
				if p.Weights.UnusualFormat != 35 {
					t.Errorf("UnusualFormat = %d, want default 35", p.Weights.UnusualFormat)
				}
				if p.HighThreshold != 50 {
					t.Errorf("HighThreshold = %d, want default 50", p.HighThreshold)
				}
			},
		},
		{
			name: "thresholds",
			yaml: "medium_threshold: 10\nhigh_threshold: 20\n",
			check: func(t *testing.T, p Policy) {
				if p.Level(15) != RiskMedium {
					t.Errorf("Level(15) = %s, want medium", p.Level(15))
				}
			},
		},
		{
			name:    "inverted thresholds",
			yaml:    "medium_threshold: 60\nhigh_threshold: 50\n",
			wantErr: true,
		},
		{
			name:    "negative weight",
			yaml:    "weights:\n  short_username: -5\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			yaml:    "weights: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePolicy([]byte(tt.yaml))
			if tt.wantErr {
				if err == nil {
					t.Fatal("ParsePolicy() should have failed")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePolicy() unexpected error: %v", err)
			}
			tt.check(t, p)
		})
	}
}

func TestLoadPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "risk.yaml")
	if err := os.WriteFile(path, []byte("weights:\n  unusual_format: 50\n"), 0o600); err != nil {
		t.Fatalf("failed to write policy: %v", err)
	}

	p, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy() unexpected error: %v", err)
	}
	if p.Weights.UnusualFormat != 50 {
		t.Errorf("UnusualFormat = %d, want 50", p.Weights.UnusualFormat)
	}

	if _, err := LoadPolicy(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadPolicy() on missing file should fail")
	}
}
