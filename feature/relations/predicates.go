package relations

import "strings"

// materialSuffixes are stripped before comparing names. Longest first.
var materialSuffixes = []string{"_material", "_mat", "_mtl"}

// SameParent reports whether both folder IDs are set and equal.
func SameParent(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}

// normalizeFolder lower-cases and forward-slashes a folder path.
func normalizeFolder(p string) string {
	p = strings.ToLower(strings.ReplaceAll(p, `\`, "/"))
	return strings.TrimSuffix(p, "/")
}

// FolderContains reports whether anchor is a case-insensitive prefix of candidate.
// Empty paths never match.
func FolderContains(anchor, candidate string) bool {
	a, c := normalizeFolder(anchor), normalizeFolder(candidate)
	if a == "" || c == "" {
		return false
	}
	return strings.HasPrefix(c, a)
}

// BaseName lower-cases a name and strips one known material suffix.
func BaseName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, suffix := range materialSuffixes {
		if strings.HasSuffix(n, suffix) {
			return strings.TrimSuffix(n, suffix)
		}
	}
	return n
}

// NamePrefix reports whether either base name is a prefix of the other.
// Empty names, before or after stripping, never match.
func NamePrefix(a, b string) bool {
	x, y := BaseName(a), BaseName(b)
	if x == "" || y == "" {
		return false
	}
	return strings.HasPrefix(x, y) || strings.HasPrefix(y, x)
}
