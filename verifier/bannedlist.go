package verifier

import (
	"crypto/sha256"
	"sort"
	"strings"
)

// BannedListHash returns the canonical hash of a banned list: entries are
// deduplicated, sorted, joined with a newline, and hashed with SHA-256. The
// empty list hashes the empty string.
//
// This is the one canonical encoding; producers and verifiers must agree on
// it or the public banned-list-hash output will never match.
func BannedListHash(keys []string) []byte {
	canonical := CanonicalBannedList(keys)
	h := sha256.Sum256([]byte(strings.Join(canonical, "\n")))
	return h[:]
}

// CanonicalBannedList returns the sorted, deduplicated form of a banned
// list.
func CanonicalBannedList(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	canonical := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		canonical = append(canonical, k)
	}
	sort.Strings(canonical)
	return canonical
}
