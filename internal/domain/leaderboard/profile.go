package leaderboard

import (
	"fmt"
	"strings"

	"github.com/okian/scoreline/internal/domain/model"
)

// ProfilePolicy decides what happens to a ranked user that has no entry in a
// non-nil profile lookup.
type ProfilePolicy string

// Known profile policies.
const (
	// ProfileDrop leaves the user out of the standings.
	ProfileDrop ProfilePolicy = "drop"
	// ProfileFallback keeps the user and shows the raw user id.
	ProfileFallback ProfilePolicy = "fallback"
)

// DefaultProfilePolicy is used when none is configured.
const DefaultProfilePolicy = ProfileDrop

// ParseProfilePolicy resolves a configured name. The empty string maps to
// DefaultProfilePolicy.
func ParseProfilePolicy(name string) (ProfilePolicy, error) {
	switch ProfilePolicy(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return DefaultProfilePolicy, nil
	case ProfileDrop:
		return ProfileDrop, nil
	case ProfileFallback:
		return ProfileFallback, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProfilePolicy, name)
	}
}

// displayName resolves the name shown for userID. ok is false when the user
// must be dropped.
func (p ProfilePolicy) displayName(userID string, profiles map[string]model.Profile) (name string, ok bool) {
	if profiles == nil {
		return userID, true
	}
	prof, found := profiles[userID]
	if !found {
		if p == ProfileFallback {
			return userID, true
		}
		return "", false
	}
	if prof.Username == "" {
		return userID, true
	}
	return prof.Username, true
}
