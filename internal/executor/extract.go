package executor

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// parseTargetUser strips an optional leading "@" from a bare username.
func parseTargetUser(input string) (string, error) {
	name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), "@"))
	if name == "" {
		return "", fmt.Errorf("executor: no target user in input %q", input)
	}
	return name, nil
}

var randDurationPattern = regexp.MustCompile(`^rand\((\d+);(\d+)\)$`)

// parseDuration parses a literal Go duration string, or a
// "rand(a;b)" expression picking a uniform integer number of seconds
// in [min(a,b), max(a,b)), per spec.md §4.4.1.
func parseDuration(spec string) (time.Duration, error) {
	spec = strings.TrimSpace(spec)

	if m := randDurationPattern.FindStringSubmatch(spec); m != nil {
		a, errA := strconv.Atoi(m[1])
		b, errB := strconv.Atoi(m[2])
		if errA != nil || errB != nil {
			return 0, fmt.Errorf("executor: invalid rand duration %q", spec)
		}
		lo, hi := a, b
		if lo > hi {
			lo, hi = hi, lo
		}
		if lo == hi {
			return time.Duration(lo) * time.Second, nil
		}
		n := lo + rand.Intn(hi-lo)
		return time.Duration(n) * time.Second, nil
	}

	d, err := time.ParseDuration(spec)
	if err != nil {
		return 0, fmt.Errorf("executor: invalid duration %q: %w", spec, err)
	}
	return d, nil
}

// emoteReference is a parsed emote extractor result.
type emoteReference struct {
	IDOrName string
	Rename   string // empty unless the "as=<rename>" suffix was present
}

var renameSuffixPattern = regexp.MustCompile(`\s+as=(\S+)$`)
var urlTailPattern = regexp.MustCompile(`/([A-Za-z0-9_-]+)/?$`)

// parseEmoteReference extracts an emote identifier from free-form user
// input: a provider URL, a bare id, or either with a trailing
// "as=<rename>" suffix (spec.md §4.4.3). The swap executor uses only
// IDOrName; Rename is parsed but not read by any caller.
func parseEmoteReference(input string) emoteReference {
	ref := emoteReference{IDOrName: strings.TrimSpace(input)}

	if m := renameSuffixPattern.FindStringSubmatch(ref.IDOrName); m != nil {
		ref.Rename = m[1]
		ref.IDOrName = strings.TrimSpace(renameSuffixPattern.ReplaceAllString(ref.IDOrName, ""))
	}

	if strings.Contains(ref.IDOrName, "://") {
		if m := urlTailPattern.FindStringSubmatch(ref.IDOrName); m != nil {
			ref.IDOrName = m[1]
		}
	}

	return ref
}

var trackIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{22,}$`)

// isTrackID reports whether input looks like a music-provider track id
// rather than a search query, per spec.md §4.4.6's 22-character
// alphanumeric-token heuristic (grounded in the original Spotify
// extraction rule).
func isTrackID(input string) bool {
	return trackIDPattern.MatchString(strings.TrimSpace(input))
}
