package rules

import (
	"strings"
	"time"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/model"
)

const (
	// MaxAgeGap bounds the suggestion age window on each side. The
	// check is on |a-b|, so B appears for A exactly when A appears
	// for B under the same rule.
	MaxAgeGap = 5

	// RerequestCooldown is how long a requester must wait after a
	// rejection before the pair may be proposed again.
	RerequestCooldown = 7 * 24 * time.Hour
)

// WithinAgeWindow reports whether two ages are close enough to be
// suggested to each other.
func WithinAgeWindow(a, b int) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= MaxAgeGap
}

// SharedInterest reports whether the two interest lists intersect.
// Comparison is case-insensitive and whitespace-trimmed; display order
// is irrelevant here.
func SharedInterest(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, tag := range a {
		normalized := strings.ToLower(strings.TrimSpace(tag))
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	for _, tag := range b {
		if _, ok := set[strings.ToLower(strings.TrimSpace(tag))]; ok {
			return true
		}
	}
	return false
}

// Suggestable applies the full candidate filter for one pair: age
// window plus at least one shared interest. Exclusions by identity
// (self, existing matches, blocks) happen before this is called.
func Suggestable(self, candidate model.Profile) bool {
	if self.UserID == candidate.UserID {
		return false
	}
	if !WithinAgeWindow(self.Age, candidate.Age) {
		return false
	}
	return SharedInterest(self.Interests, candidate.Interests)
}

// RerequestAllowed reports whether a rejected match is old enough for
// the requester to try again.
func RerequestAllowed(rejectedAt, now time.Time) bool {
	return now.Sub(rejectedAt) >= RerequestCooldown
}
