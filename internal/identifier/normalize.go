package identifier

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// CanonicalHost is the only host a canonical identifier may carry.
	CanonicalHost = "linkedin.com"
	// CanonicalBase is prepended to bare handles.
	CanonicalBase = "https://" + CanonicalHost + "/in/"
	// MaxInputLength bounds raw input after trimming.
	MaxInputLength = 2048
)

// Input error codes
const (
	CodeEmpty           = "empty"
	CodeTooLong         = "too_long"
	CodeInvalidUsername = "invalid_username"
	CodeInvalidURL      = "invalid_url"
	CodeInvalidScheme   = "invalid_scheme"
	CodeInvalidHost     = "invalid_host"
	CodeInvalidPath     = "invalid_path"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,100}$`)

	// Matches any accepted spelling of the profile host at the start of the input,
	// with or without scheme and www.
	hostPrefix = regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?linkedin\.com`)
)

// TrackingParams is the fixed set of query parameters stripped during normalization.
var TrackingParams = []string{
	"utm_source",
	"utm_medium",
	"utm_campaign",
	"utm_content",
	"utm_term",
	"ref",
	"refId",
	"trackingId",
	"source",
	"src",
	"fbclid",
	"gclid",
}

var trackingSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(TrackingParams))
	for _, p := range TrackingParams {
		m[p] = struct{}{}
	}
	return m
}()

// IsTrackingParam reports whether name is one of TrackingParams.
func IsTrackingParam(name string) bool {
	_, ok := trackingSet[name]
	return ok
}

// InputError is a user-actionable normalization failure.
type InputError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func inputErr(code, format string, args ...any) *InputError {
	return &InputError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ValidUsername reports whether u matches the username pattern.
func ValidUsername(u string) bool {
	return usernamePattern.MatchString(u)
}

// IsCanonical reports whether s is exactly a canonical identifier.
func IsCanonical(s string) bool {
	username, ok := strings.CutPrefix(s, CanonicalBase)
	return ok && ValidUsername(username)
}

// Normalize turns raw user input into a canonical identifier.
//
// Accepted forms (scheme and host are case-insensitive):
//   - "johndoe"
//   - "linkedin.com/in/johndoe"
//   - "www.linkedin.com/in/johndoe"
//   - "http(s)://[www.]linkedin.com/in/johndoe"
//
// Normalizing a canonical identifier returns it unchanged.
func Normalize(raw string) (string, error) {
	n, err := normalize(raw)
	if err != nil {
		return "", err
	}
	return n.canonical, nil
}

// normalized carries the intermediate forms produced while normalizing.
type normalized struct {
	canonical string
	username  string
	// rewritten is the input after host rewriting, before tracking params are
	// stripped. Suspicion analysis runs on it.
	rewritten string
}

func normalize(raw string) (normalized, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return normalized{}, inputErr(CodeEmpty, "please enter a profile URL or username")
	}
	if len(cleaned) > MaxInputLength {
		return normalized{}, inputErr(CodeTooLong, "input must be at most %d characters", MaxInputLength)
	}
	cleaned = strings.TrimRight(cleaned, "/")

	// Bare handle
	if !strings.ContainsAny(cleaned, "/.") {
		if !ValidUsername(cleaned) {
			return normalized{}, usernameErr()
		}
		canonical := CanonicalBase + cleaned
		return normalized{canonical: canonical, username: cleaned, rewritten: canonical}, nil
	}

	rewritten := cleaned
	if loc := hostPrefix.FindStringIndex(cleaned); loc != nil {
		rewritten = "https://" + CanonicalHost + cleaned[loc[1]:]
	}

	u, err := url.Parse(rewritten)
	if err != nil {
		return normalized{}, inputErr(CodeInvalidURL, "input is not a valid URL")
	}

	q := u.Query()
	for _, p := range TrackingParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()

	if u.Scheme != "https" {
		return normalized{}, inputErr(CodeInvalidScheme, "profile URL must use https")
	}
	if u.User != nil || u.Host != CanonicalHost {
		return normalized{}, inputErr(CodeInvalidHost, "profile URL must be on %s", CanonicalHost)
	}
	// Escaped form keeps %2F and friends inside the segment so they fail the
	// username pattern instead of being decoded into a different profile.
	rest, ok := strings.CutPrefix(u.EscapedPath(), "/in/")
	if !ok {
		return normalized{}, inputErr(CodeInvalidPath, "profile URL path must start with /in/")
	}
	username, _, _ := strings.Cut(rest, "/")
	if !ValidUsername(username) {
		return normalized{}, usernameErr()
	}

	return normalized{
		canonical: CanonicalBase + username,
		username:  username,
		rewritten: rewritten,
	}, nil
}

func usernameErr() *InputError {
	return inputErr(CodeInvalidUsername,
		"username must be 3-100 characters of letters, digits, hyphens or underscores")
}
