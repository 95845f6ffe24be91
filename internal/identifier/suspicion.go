package identifier

import (
	"net/url"
	"strings"
)

// RiskLevel is the three-level risk category.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Profile is the suspicion profile of an identifier or raw URL.
// It is a pure function of its input and is never persisted.
type Profile struct {
	HasTrackingParams bool      `json:"hasTrackingParams"`
	HasUnusualParams  bool      `json:"hasUnusualParams"`
	HasShortUsername  bool      `json:"hasShortUsername"`
	HasUnusualFormat  bool      `json:"hasUnusualFormat"`
	RiskScore         int       `json:"riskScore"`
	RiskLevel         RiskLevel `json:"riskLevel"`
}

const (
	maxParams     = 2
	maxPathDepth  = 3
	shortUsername = 3
)

var suspiciousParamFragments = []string{"track", "ref", "source", "campaign"}

// Analyzer scores identifiers with a fixed policy. It holds no mutable state
// and is safe for concurrent use.
type Analyzer struct {
	policy Policy
}

// NewAnalyzer returns an analyzer using policy.
func NewAnalyzer(policy Policy) *Analyzer {
	return &Analyzer{policy: policy}
}

// Policy returns the analyzer's policy.
func (a *Analyzer) Policy() Policy {
	return a.policy
}

// Analyze computes the suspicion profile of a canonical identifier, a raw
// profile URL or a bare handle. Input that cannot be parsed as a URL is
// reported as an unusual format; Analyze never fails.
func (a *Analyzer) Analyze(input string) Profile {
	var p Profile

	u, ok := parseForAnalysis(input)
	if !ok {
		p.HasUnusualFormat = true
		return a.score(p)
	}

	query := u.Query()
	count := 0
	for name, values := range query {
		count += len(values)
		if IsTrackingParam(name) {
			p.HasTrackingParams = true
		}
		lower := strings.ToLower(name)
		for _, frag := range suspiciousParamFragments {
			if strings.Contains(lower, frag) {
				p.HasUnusualParams = true
			}
		}
	}
	if count > maxParams {
		p.HasUnusualParams = true
	}

	segments := pathSegments(u.Path)
	username := usernameFrom(segments)
	if username != "" && len(username) <= shortUsername {
		p.HasShortUsername = true
	}

	switch {
	case len(segments) > maxPathDepth,
		u.Fragment != "",
		u.Port() != "",
		u.Scheme != "http" && u.Scheme != "https",
		username == "",
		allDigits(username),
		strings.Contains(username, "--"),
		strings.Contains(username, "__"):
		p.HasUnusualFormat = true
	}

	return a.score(p)
}

func (a *Analyzer) score(p Profile) Profile {
	w := a.policy.Weights
	if p.HasTrackingParams {
		p.RiskScore += w.TrackingParams
	}
	if p.HasUnusualParams {
		p.RiskScore += w.UnusualParams
	}
	if p.HasShortUsername {
		p.RiskScore += w.ShortUsername
	}
	if p.HasUnusualFormat {
		p.RiskScore += w.UnusualFormat
	}
	p.RiskLevel = a.policy.Level(p.RiskScore)
	return p
}

var defaultAnalyzer = NewAnalyzer(DefaultPolicy())

// Analyze scores input with the default policy.
func Analyze(input string) Profile {
	return defaultAnalyzer.Analyze(input)
}

func parseForAnalysis(input string) (*url.URL, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, false
	}
	if !strings.ContainsAny(s, "/.") {
		s = CanonicalBase + s
	} else if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return nil, false
	}
	return u, true
}

func pathSegments(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// usernameFrom returns the segment following "in", or "" when the path has no
// profile segment.
func usernameFrom(segments []string) string {
	if len(segments) >= 2 && segments[0] == "in" {
		return segments[1]
	}
	return ""
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
