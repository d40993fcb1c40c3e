package reconcile

import "strings"

const assetsMarker = "assets/"

// NormalizePath reduces a remote URL or key to the comparable relative form.
// The result starts at the first case-insensitive "assets/" when present, uses
// forward slashes and is lower-cased. NormalizePath(NormalizePath(p)) == NormalizePath(p).
func NormalizePath(p string) string {
	p = strings.ToLower(strings.ReplaceAll(p, `\`, "/"))
	if idx := strings.Index(p, assetsMarker); idx >= 0 {
		return p[idx:]
	}
	return p
}

// NormalizeSet normalizes every path into a set. Empty entries are dropped.
func NormalizeSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if n := NormalizePath(p); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
