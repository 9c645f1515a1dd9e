package shape

import "strings"

// DefaultURLFragments lists path fragments associated with ticket issuance,
// refresh, and check operations.
var DefaultURLFragments = []string{
	"q-api",
	"queue",
	"issueTicket",
	"checkTicket",
	"refreshTicket",
}

// Matcher decides whether a URL is likely to carry queue data.
type Matcher struct {
	fragments []string
}

// NewMatcher builds a matcher for the given fragments. Blank fragments are
// ignored; an empty set falls back to DefaultURLFragments.
func NewMatcher(fragments []string) Matcher {
	cleaned := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		if trimmed := strings.TrimSpace(fragment); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultURLFragments...)
	}
	return Matcher{fragments: cleaned}
}

// Fragments returns a copy of the configured fragments.
func (m Matcher) Fragments() []string {
	return append([]string(nil), m.fragments...)
}

// LooksLikeQueueURL reports whether url contains any configured fragment.
// Matching is case sensitive, like the endpoints it targets.
func (m Matcher) LooksLikeQueueURL(url string) bool {
	if url == "" {
		return false
	}
	fragments := m.fragments
	if len(fragments) == 0 {
		fragments = DefaultURLFragments
	}
	for _, fragment := range fragments {
		if strings.Contains(url, fragment) {
			return true
		}
	}
	return false
}

// LooksLikeQueueURL applies the default fragment set.
func LooksLikeQueueURL(url string) bool {
	return Matcher{}.LooksLikeQueueURL(url)
}
